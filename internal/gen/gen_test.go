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

package gen

import (
	"strings"
	"testing"

	"github.com/crc32gen/crc32gen/internal/algo"
	"github.com/crc32gen/crc32gen/internal/isa"
)

const (
	revPolyCRC32  = 0xedb88320
	revPolyCRC32C = 0x82f63b78
)

func parsePhases(t *testing.T, tag isa.Tag, s string) []algo.Phase {
	t.Helper()
	phases, err := algo.Parse(s, tag.HasVector())
	if err != nil {
		t.Fatalf("algo.Parse(%q): %v", s, err)
	}
	return phases
}

func TestGenerateScalarOnlyProducesTableAndFunction(t *testing.T) {
	got, err := Generate(Options{
		ISA:    isa.None,
		Poly:   revPolyCRC32,
		Phases: parsePhases(t, isa.None, "s1x8"),
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	s := string(got)
	for _, want := range []string{
		"#include <stddef.h>",
		"#include <stdint.h>",
		"#define CRC_AINLINE",
		"static const uint32_t g_crc_table",
		"uint32_t crc32_impl(uint32_t crc0, const char* buf, size_t len)",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("output missing %q\n%s", want, s)
		}
	}
}

func TestGenerateHeadersPrecedeFunctionBody(t *testing.T) {
	got, err := Generate(Options{
		ISA:    isa.SSE,
		Poly:   revPolyCRC32C,
		Phases: parsePhases(t, isa.SSE, "v4x8k1024"),
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	s := string(got)
	incAt := strings.Index(s, "#include <wmmintrin.h>")
	fnAt := strings.Index(s, "uint32_t crc32_impl")
	if incAt < 0 {
		t.Fatalf("missing wmmintrin.h include:\n%s", s)
	}
	if fnAt < 0 {
		t.Fatalf("missing crc32_impl:\n%s", s)
	}
	if incAt > fnAt {
		t.Errorf("#include <wmmintrin.h> (at %d) must precede crc32_impl (at %d)", incAt, fnAt)
	}
	if !strings.Contains(s, "_mm_crc32_u8") {
		t.Errorf("CRC-32C on SSE should bind hardware crc32 instructions:\n%s", s)
	}
}

func TestGenerateNoIncludeLineFallsInsideFunctionBody(t *testing.T) {
	// Every #include line must appear before the function signature: an
	// AVX512+VPCLMULQDQ target requests immintrin.h only from deep
	// inside the main loop body (the 512-to-128-bit fold), which is
	// exactly the case the shared includes buffer exists to handle.
	got, err := Generate(Options{
		ISA:    isa.AVX512VPCLMULQDQ,
		Poly:   revPolyCRC32,
		Phases: parsePhases(t, isa.AVX512VPCLMULQDQ, "v4x8k1024"),
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	s := string(got)
	fnAt := strings.Index(s, "uint32_t crc32_impl")
	if fnAt < 0 {
		t.Fatalf("missing crc32_impl:\n%s", s)
	}
	allIncludes := 0
	for _, line := range strings.Split(s, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "#include") {
			allIncludes++
			if strings.Index(s, line) > fnAt {
				t.Errorf("include line %q appears after function signature", line)
			}
		}
	}
	if allIncludes == 0 {
		t.Fatalf("expected at least one #include line:\n%s", s)
	}
}

func TestValidateRejectsEmptyPhaseSet(t *testing.T) {
	if err := Validate(Options{ISA: isa.None, Poly: revPolyCRC32}); err == nil {
		t.Fatal("Validate with no phases succeeded, want error")
	}
}

func TestValidateRejectsVectorPhaseOnScalarOnlyISA(t *testing.T) {
	phases := []algo.Phase{{VectorAccumulators: 2, VectorLoads: 2}}
	if err := Validate(Options{ISA: isa.None, Poly: revPolyCRC32, Phases: phases}); err == nil {
		t.Fatal("Validate accepted vector phase on isa.None, want error")
	}
}

func TestValidateAcceptsScalarOnlyPhaseOnScalarOnlyISA(t *testing.T) {
	phases := parsePhases(t, isa.None, "s1x8")
	if err := Validate(Options{ISA: isa.None, Poly: revPolyCRC32, Phases: phases}); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestGenerateRecordsInvocationComment(t *testing.T) {
	got, err := Generate(Options{
		ISA:        isa.None,
		Poly:       revPolyCRC32,
		Phases:     parsePhases(t, isa.None, "s1x8"),
		Invocation: "crc32gen generate -i none -p crc32 -a s1x8",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	s := string(got)
	for _, want := range []string{
		"/* Generated by github.com/crc32gen/crc32gen using: */\n",
		"/* crc32gen generate -i none -p crc32 -a s1x8 */\n",
		"/* Apache-2.0 licensed */\n",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("output missing %q\n%s", want, s)
		}
	}
}

func TestGenerateOmitsHeaderCommentWithoutInvocation(t *testing.T) {
	got, err := Generate(Options{
		ISA:    isa.None,
		Poly:   revPolyCRC32,
		Phases: parsePhases(t, isa.None, "s1x8"),
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if strings.Contains(string(got), "/* Generated by") {
		t.Errorf("expected no header comment without an invocation:\n%s", got)
	}
}
