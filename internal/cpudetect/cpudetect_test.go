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

package cpudetect

import (
	"strings"
	"testing"

	"github.com/crc32gen/crc32gen/internal/isa"
)

func TestSuggest(t *testing.T) {
	tests := []struct {
		name string
		r    Report
		want isa.Tag
	}{
		{
			name: "arm64 with pmull suggests neon",
			r:    Report{GOARCH: "arm64", HasARM64PMULL: true},
			want: isa.NEON,
		},
		{
			name: "arm64 without pmull suggests none",
			r:    Report{GOARCH: "arm64", HasARM64PMULL: false},
			want: isa.None,
		},
		{
			name: "amd64 with vpclmulqdq and avx512f suggests avx512_vpclmulqdq",
			r: Report{
				GOARCH:             "amd64",
				HasAMD64PCLMULQDQ:  true,
				HasAMD64AVX512F:    true,
				HasAMD64VPCLMULQDQ: true,
			},
			want: isa.AVX512VPCLMULQDQ,
		},
		{
			name: "amd64 with avx512f but no vpclmulqdq suggests avx512",
			r: Report{
				GOARCH:             "amd64",
				HasAMD64PCLMULQDQ:  true,
				HasAMD64AVX512F:    true,
				HasAMD64VPCLMULQDQ: false,
			},
			want: isa.AVX512,
		},
		{
			name: "amd64 with pclmulqdq only suggests sse",
			r: Report{
				GOARCH:            "amd64",
				HasAMD64PCLMULQDQ: true,
			},
			want: isa.SSE,
		},
		{
			name: "amd64 without pclmulqdq suggests none",
			r:    Report{GOARCH: "amd64"},
			want: isa.None,
		},
		{
			name: "vpclmulqdq without avx512f still falls back to sse",
			r: Report{
				GOARCH:             "amd64",
				HasAMD64PCLMULQDQ:  true,
				HasAMD64AVX512F:    false,
				HasAMD64VPCLMULQDQ: true,
			},
			want: isa.SSE,
		},
		{
			name: "unrecognised arch suggests none",
			r:    Report{GOARCH: "riscv64"},
			want: isa.None,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.suggest(); got != tt.want {
				t.Errorf("suggest() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReportStringIncludesArchSpecificSection(t *testing.T) {
	r := Report{
		GOOS:              "linux",
		GOARCH:            "amd64",
		NumCPU:            8,
		BrandName:         "AMD Ryzen 9 7950X 16-Core Processor",
		HasAMD64PCLMULQDQ: true,
		HasAMD64SSE42:     true,
		Suggested:         isa.SSE,
	}
	s := r.String()
	for _, want := range []string{
		"GOOS: linux",
		"GOARCH: amd64 (Amd64)",
		"NumCPU: 8",
		"CPU: AMD Ryzen 9 7950X 16-Core Processor",
		"golang.org/x/sys/cpu.X86",
		"HasPCLMULQDQ:        true",
		"Suggested -isa: sse",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("String() missing %q\n%s", want, s)
		}
	}
	if strings.Contains(s, "golang.org/x/sys/cpu.ARM64") {
		t.Errorf("amd64 report should not include the ARM64 section:\n%s", s)
	}
}

func TestReportStringOnARM64(t *testing.T) {
	r := Report{
		GOOS:          "darwin",
		GOARCH:        "arm64",
		NumCPU:        10,
		BrandName:     "Apple M2",
		HasARM64PMULL: true,
		HasARM64CRC32: true,
		Suggested:     isa.NEON,
	}
	s := r.String()
	for _, want := range []string{
		"GOARCH: arm64 (Arm64)",
		"golang.org/x/sys/cpu.ARM64",
		"HasPMULL: true",
		"HasCRC32: true",
		"Suggested -isa: neon",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("String() missing %q\n%s", want, s)
		}
	}
}
