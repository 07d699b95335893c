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

package scalar

import (
	"strings"
	"testing"

	"github.com/crc32gen/crc32gen/internal/isa"
	"github.com/crc32gen/crc32gen/internal/sbuf"
)

func flush(t *testing.T, b *sbuf.Buffer) string {
	t.Helper()
	var sb strings.Builder
	if err := b.Flush(&sb); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	return sb.String()
}

func TestBindPlainTargetUsesTableNames(t *testing.T) {
	st := NewState()
	ist := isa.NewState()
	out := sbuf.NewBuffer()
	names := Bind(st, ist, out, isa.Resolve(isa.None), revPolyCRC32)
	if names != (Names{U8: "crc_u8", U32: "crc_u32", U64: "crc_u64"}) {
		t.Errorf("Bind on isa.None = %+v, want table names", names)
	}
}

func TestBindNEONCRC32BindsHardwareInstructions(t *testing.T) {
	st := NewState()
	ist := isa.NewState()
	out := sbuf.NewBuffer()
	names := Bind(st, ist, out, isa.Resolve(isa.NEON), revPolyCRC32)
	want := Names{U8: "__crc32b", U32: "__crc32w", U64: "__crc32d"}
	if names != want {
		t.Errorf("Bind on NEON/CRC-32 = %+v, want %+v", names, want)
	}
	// Headers go to the isa.State's own includes buffer, not to out.
	includes := flush(t, ist.Includes())
	if !strings.Contains(includes, "arm_acle.h") {
		t.Errorf("missing arm_acle.h include: %q", includes)
	}
	// A hardware binding must not also emit a software fallback for the
	// sizes it covers.
	got := flush(t, out)
	if strings.Contains(got, "crc_u8(") || strings.Contains(got, "crc_u32(") {
		t.Errorf("hardware-bound target emitted a software fallback: %q", got)
	}
}

func TestBindSSECRC32CBindsHardwareInstructions(t *testing.T) {
	st := NewState()
	ist := isa.NewState()
	out := sbuf.NewBuffer()
	names := Bind(st, ist, out, isa.Resolve(isa.SSE), revPolyCRC32C)
	want := Names{U8: "_mm_crc32_u8", U32: "_mm_crc32_u32", U64: "_mm_crc32_u64"}
	if names != want {
		t.Errorf("Bind on SSE/CRC-32C = %+v, want %+v", names, want)
	}
}

func TestBindSSEPlainCRC32FallsBackToBarrett(t *testing.T) {
	st := NewState()
	ist := isa.NewState()
	out := sbuf.NewBuffer()
	names := Bind(st, ist, out, isa.Resolve(isa.SSE), revPolyCRC32)
	if names != (Names{U8: "crc_u8", U32: "crc_u32", U64: "crc_u64"}) {
		t.Errorf("Bind on SSE/CRC-32 (no hardware match) = %+v, want table names", names)
	}
	// Nothing has been requested yet, so nothing should have been emitted.
	if got := flush(t, out); got != "" {
		t.Errorf("Bind emitted output before any NeedCrcScalar call: %q", got)
	}
}

func TestNeedCrcScalarSize1UsesTableLookup(t *testing.T) {
	st := NewState()
	ist := isa.NewState()
	out := sbuf.NewBuffer()
	names := Names{U8: "crc_u8", U32: "crc_u32", U64: "crc_u64"}
	st.NeedCrcScalar(ist, out, isa.Resolve(isa.None), revPolyCRC32, names, 1)
	got := flush(t, out)
	if !strings.Contains(got, "crc_u8(uint32_t crc, uint8_t val)") {
		t.Errorf("missing crc_u8 definition: %q", got)
	}
	if !strings.Contains(got, "g_crc_table") {
		t.Errorf("missing table reference: %q", got)
	}
}

func TestNeedCrcScalarIsIdempotentPerSize(t *testing.T) {
	st := NewState()
	ist := isa.NewState()
	out := sbuf.NewBuffer()
	names := Names{U8: "crc_u8", U32: "crc_u32", U64: "crc_u64"}
	st.NeedCrcScalar(ist, out, isa.Resolve(isa.None), revPolyCRC32, names, 1)
	st.NeedCrcScalar(ist, out, isa.Resolve(isa.None), revPolyCRC32, names, 1)
	got := flush(t, out)
	if n := strings.Count(got, "crc_u8(uint32_t crc, uint8_t val)"); n != 1 {
		t.Errorf("crc_u8 defined %d times, want 1: %q", n, got)
	}
}

func TestNeedCrcScalarSize15SatisfiesSizes1And4And8(t *testing.T) {
	st := NewState()
	ist := isa.NewState()
	out := sbuf.NewBuffer()
	names := Names{U8: "__crc32b", U32: "__crc32w", U64: "__crc32d"}
	st.NeedCrcScalar(ist, out, isa.Resolve(isa.NEON), revPolyCRC32, names, 15)
	if got := flush(t, out); got != "" {
		t.Errorf("size-15 hardware mark emitted output: %q", got)
	}
	if st.done&1 == 0 || st.done&4 == 0 || st.done&8 == 0 {
		t.Errorf("done = %#x, want bits 1, 4, and 8 all set", st.done)
	}
	// A later explicit request for size 4 should now be a no-op.
	out2 := sbuf.NewBuffer()
	st.NeedCrcScalar(ist, out2, isa.Resolve(isa.NEON), revPolyCRC32, names, 4)
	if got := flush(t, out2); got != "" {
		t.Errorf("size 4 should already be satisfied by size-15 mark: %q", got)
	}
}

func TestNeedCrcScalarSize4OnVectorTargetUsesBarrettFold(t *testing.T) {
	st := NewState()
	ist := isa.NewState()
	out := sbuf.NewBuffer()
	names := Names{U8: "crc_u8", U32: "crc_u32", U64: "crc_u64"}
	st.NeedCrcScalar(ist, out, isa.Resolve(isa.SSE), revPolyCRC32, names, 4)
	got := flush(t, out)
	if !strings.Contains(got, "_mm_clmulepi64_si128") {
		t.Errorf("size-4 scalar step on SSE should use clmul, got: %q", got)
	}
	if strings.Contains(got, "g_crc_table") {
		t.Errorf("size-4 scalar step on SSE should not need the table: %q", got)
	}
}

func TestNeedCrcScalarSize8OnPlainTargetComposesFromSize4Twice(t *testing.T) {
	st := NewState()
	ist := isa.NewState()
	out := sbuf.NewBuffer()
	names := Names{U8: "crc_u8", U32: "crc_u32", U64: "crc_u64"}
	st.NeedCrcScalar(ist, out, isa.Resolve(isa.None), revPolyCRC32, names, 8)
	got := flush(t, out)
	if !strings.Contains(got, "crc_u32(uint32_t crc, uint32_t val)") {
		t.Errorf("size-8 on isa.None should also define crc_u32: %q", got)
	}
	if n := strings.Count(got, "crc_u32(crc, "); n != 2 {
		t.Errorf("crc_u64 body should call crc_u32 twice, called %d times: %q", n, got)
	}
}

func TestNeedCrcTableGrowsToLargestRequestedPlaneCount(t *testing.T) {
	st := NewState()
	out := sbuf.NewBuffer()
	st.NeedCrcTable(out, revPolyCRC32, 1)
	st.NeedCrcTable(out, revPolyCRC32, 4)
	got := flush(t, out)
	if !strings.Contains(got, "[4][256]") {
		t.Errorf("table should have grown to 4 planes: %q", got)
	}
}

func TestNeedCrcShiftIsIdempotentAndPullsInSize4And8(t *testing.T) {
	st := NewState()
	ist := isa.NewState()
	out := sbuf.NewBuffer()
	names := Names{U8: "crc_u8", U32: "crc_u32", U64: "crc_u64"}
	profile := isa.Resolve(isa.SSE)
	NeedCrcShift(st, ist, out, profile, revPolyCRC32, names)
	NeedCrcShift(st, ist, out, profile, revPolyCRC32, names)
	got := flush(t, out)
	if n := strings.Count(got, "xnmodp"); n == 0 {
		t.Errorf("missing xnmodp definition: %q", got)
	}
	if n := strings.Count(got, "static uint32_t xnmodp"); n != 1 {
		t.Errorf("xnmodp defined %d times, want 1: %q", n, got)
	}
	if st.done&4 == 0 || st.done&8 == 0 {
		t.Errorf("NeedCrcShift should have pulled in size 4 and 8, done = %#x", st.done)
	}
}
