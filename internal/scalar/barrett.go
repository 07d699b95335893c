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

// emitBarrettScalarFold writes the body of a PCLMULQDQ-based scalar CRC
// step: multiply (crc XOR val) by the precomputed Barrett quotient q,
// reduce mod P via a second clmul by the polynomial itself, and extract
// the resulting 32-bit CRC from the product's high lane. q is
// gf2.XPowDivP(poly, 63) for a 32-bit step (wide=false) or
// gf2.XPowDivP(poly, 95) for a 64-bit step (wide=true); the caller has
// already written the function signature and the closing brace is
// written by the caller.
func emitBarrettScalarFold(b *sbuf.Buffer, ist *isa.State, profile isa.Profile, poly uint32, q uint64, wide bool) {
	if profile.Tag == isa.NEON || profile.Tag == isa.NEONEOR3 {
		ist.EmitClmulFn(b, profile, isa.NEONEOR3, "lo")
		b.WriteLit("uint64x2_t a = vmovq_n_u64(crc ^ val);\n")
		b.Printf("a = clmul_lo(a, vmovq_n_u64(0x%x%xull));\n", uint32(q>>32), uint32(q))
		b.Printf("a = clmul_lo(a, vmovq_n_u64(0x%x%xull));\n", poly>>31, poly*2+1)
		b.WriteLit("return vgetq_lane_u32(vreinterpretq_u32_u64(a), 2);\n")
		return
	}
	ist.NeedHeader("nmmintrin")
	ist.NeedHeader("wmmintrin")
	b.Printf("__m128i k = _mm_setr_epi32(0x%x, 0x%x, 0x%x, %u);\n",
		uint32(q), uint32(q>>32), poly*2+1, poly>>31)
	if wide {
		b.WriteLit("__m128i a = _mm_cvtsi64_si128(crc ^ val);\n")
	} else {
		b.WriteLit("__m128i a = _mm_cvtsi32_si128(crc ^ val);\n")
	}
	b.WriteLit("__m128i b = _mm_clmulepi64_si128(a, k, 0x00);\n")
	b.WriteLit("__m128i c = _mm_clmulepi64_si128(b, k, 0x10);\n")
	b.WriteLit("return _mm_extract_epi32(c, 2);\n")
}
