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
	"github.com/crc32gen/crc32gen/internal/isa"
	"github.com/crc32gen/crc32gen/internal/sbuf"
)

// NeedCrcShift ensures the runtime x^n mod P helper (xnmodp) and its
// crc_shift(crc, nbytes) wrapper exist. Unlike gf2.XPowModP, which the
// generator calls at generation time for a fixed, known n, this is
// emitted C source that recomputes the same recurrence at runtime for an
// nbytes only known once the loop has counted how much input it actually
// consumed — used by phases whose kernel length is not a compile-time
// constant. Phases with no fixed kernel size pull it in when they have
// more than one scalar accumulator, or when they end with a scalar tail.
func NeedCrcShift(st *State, ist *isa.State, out *sbuf.Buffer, profile isa.Profile, poly uint32, names Names) {
	if st.shiftDone {
		return
	}
	st.shiftDone = true
	ist.EmitClmulScalar(out, profile)
	st.NeedCrcScalar(ist, out, profile, poly, names, 4)
	st.NeedCrcScalar(ist, out, profile, poly, names, 8)

	out.WriteLit("static uint32_t xnmodp(uint64_t n) /* x^n mod P, in log(n) time */ {\n")
	out.WriteLit("uint64_t stack = ~(uint64_t)1;\n")
	out.WriteLit("uint32_t acc, low;\n")
	out.WriteLit("for (; n > 191; n = (n >> 1) - 16) {\n")
	out.WriteLit("stack = (stack << 1) + (n & 1);\n")
	out.WriteLit("}\n")
	out.WriteLit("stack = ~stack;\n")
	out.WriteLit("acc = ((uint32_t)0x80000000) >> (n & 31);\n")
	out.WriteLit("for (n >>= 5; n; --n) {\n")
	out.Printf("acc = %s(acc, 0);\n", names.U32)
	out.WriteLit("}\n")
	out.WriteLit("while ((low = stack & 1), stack >>= 1) {\n")
	if profile.Tag == isa.NEON || profile.Tag == isa.NEONEOR3 {
		out.WriteLit("poly8x8_t x = vreinterpret_p8_u64(vmov_n_u64(acc));\n")
		out.WriteLit("uint64_t y = vgetq_lane_u64(vreinterpretq_u64_p16(vmull_p8(x, x)), 0);\n")
	} else {
		out.WriteLit("__m128i x = _mm_cvtsi32_si128(acc);\n")
		out.WriteLit("uint64_t y = _mm_cvtsi128_si64(_mm_clmulepi64_si128(x, x, 0));\n")
	}
	out.Printf("acc = %s(0, y << low);\n", names.U64)
	out.WriteLit("}\n")
	out.WriteLit("return acc;\n")
	out.WriteLit("}\n\n")

	out.Printf("CRC_AINLINE %s crc_shift(uint32_t crc, uint32_t nbytes) {\n", profile.Vec16Type)
	out.WriteLit("return clmul_scalar(crc, xnmodp(nbytes * 8 - 33));\n")
	out.WriteLit("}\n\n")
}
