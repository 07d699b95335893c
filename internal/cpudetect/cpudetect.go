// Copyright 2026 crc32gen Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cpudetect reports the running machine's carry-less-multiply
// capabilities and suggests which isa.Tag the CLI's generate subcommand
// should target on this host. It never influences code generation
// itself — every target that crc32gen can emit is a self-contained
// choice made by the caller (or their build's target triple), not a
// runtime dispatch decision — so this package is purely informational,
// surfaced through the CLI's "cpuinfo" subcommand.
package cpudetect

import (
	"fmt"
	"runtime"

	"github.com/klauspost/cpuid/v2"
	"golang.org/x/sys/cpu"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/crc32gen/crc32gen/internal/isa"
)

// Report summarises one host's relevant instruction-set support.
type Report struct {
	GOOS   string
	GOARCH string
	NumCPU int

	// BrandName is cpuid's best-effort identification of the physical
	// processor, e.g. "AMD Ryzen 9 7950X 16-Core Processor".
	BrandName string

	HasARM64PMULL      bool
	HasARM64CRC32      bool
	HasAMD64PCLMULQDQ  bool
	HasAMD64SSE42      bool
	HasAMD64AVX512F    bool
	HasAMD64VPCLMULQDQ bool

	// Suggested is the isa.Tag this package recommends generating for,
	// given the features above; None if no vector clmul path is
	// available and a scalar-only target is the best this host can do.
	Suggested isa.Tag
}

// Detect gathers the current host's feature bits via both
// golang.org/x/sys/cpu (used for the well-known named flags) and
// klauspost/cpuid/v2 (used for the brand string, which x/sys/cpu does
// not expose).
func Detect() Report {
	r := Report{
		GOOS:      runtime.GOOS,
		GOARCH:    runtime.GOARCH,
		NumCPU:    runtime.NumCPU(),
		BrandName: cpuid.CPU.BrandName,
	}

	switch runtime.GOARCH {
	case "arm64":
		r.HasARM64PMULL = cpu.ARM64.HasPMULL
		r.HasARM64CRC32 = cpu.ARM64.HasCRC32
	case "amd64":
		r.HasAMD64PCLMULQDQ = cpu.X86.HasPCLMULQDQ
		r.HasAMD64SSE42 = cpu.X86.HasSSE42
		r.HasAMD64AVX512F = cpu.X86.HasAVX512F
		r.HasAMD64VPCLMULQDQ = cpu.X86.HasAVX512VPCLMULQDQ
	}

	r.Suggested = r.suggest()
	return r
}

func (r Report) suggest() isa.Tag {
	switch {
	case r.GOARCH == "arm64" && r.HasARM64PMULL:
		return isa.NEON
	case r.GOARCH == "amd64" && r.HasAMD64VPCLMULQDQ && r.HasAMD64AVX512F:
		return isa.AVX512VPCLMULQDQ
	case r.GOARCH == "amd64" && r.HasAMD64PCLMULQDQ && r.HasAMD64AVX512F:
		return isa.AVX512
	case r.GOARCH == "amd64" && r.HasAMD64PCLMULQDQ:
		return isa.SSE
	default:
		return isa.None
	}
}

// titleCaser renders architecture and OS names the way this report's
// headings expect them capitalised, e.g. "Arm64" rather than "arm64".
var titleCaser = cases.Title(language.English)

// String returns a human-readable feature report, in the register-by-
// register style the underlying detection libraries themselves favour.
func (r Report) String() string {
	s := fmt.Sprintf("GOOS: %s\nGOARCH: %s (%s)\nNumCPU: %d\nCPU: %s\n\n",
		r.GOOS, r.GOARCH, titleCaser.String(r.GOARCH), r.NumCPU, r.BrandName)
	switch r.GOARCH {
	case "arm64":
		s += "=== golang.org/x/sys/cpu.ARM64 ===\n"
		s += fmt.Sprintf("  HasPMULL: %v (needed for neon / neon_eor3)\n", r.HasARM64PMULL)
		s += fmt.Sprintf("  HasCRC32: %v (hardware __crc32* for the CRC-32 and CRC-32C polynomials)\n", r.HasARM64CRC32)
	case "amd64":
		s += "=== golang.org/x/sys/cpu.X86 ===\n"
		s += fmt.Sprintf("  HasPCLMULQDQ:        %v (needed for sse / avx512)\n", r.HasAMD64PCLMULQDQ)
		s += fmt.Sprintf("  HasSSE42:            %v (hardware CRC-32C on x86_64)\n", r.HasAMD64SSE42)
		s += fmt.Sprintf("  HasAVX512F:          %v (needed for avx512 / avx512_vpclmulqdq)\n", r.HasAMD64AVX512F)
		s += fmt.Sprintf("  HasAVX512VPCLMULQDQ: %v (needed for avx512_vpclmulqdq)\n", r.HasAMD64VPCLMULQDQ)
	}
	s += fmt.Sprintf("\nSuggested -isa: %s\n", r.Suggested)
	return s
}
