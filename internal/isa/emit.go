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

package isa

import (
	"github.com/crc32gen/crc32gen/internal/gf2"
	"github.com/crc32gen/crc32gen/internal/sbuf"
)

// EmitClmulFn writes the carry-less-multiply primitive named clmul_lo or
// clmul_hi (which must be "lo" or "hi") for shape, memoised per
// (which, shape) in st. shape selects which of the original's isa_t
// switch arms to emit and is usually the run's actual target, except that
// internal/scalar deliberately requests the plain two-argument NEON_EOR3
// shape even on a plain NEON target: the fused three-argument
// clmul_lo_e/clmul_hi_e that a NEON target uses inside the main loop's
// FMA step is a different, separately-memoised function, and the scalar
// CRC-32/CRC-32C fallback always wants the plain form. The emitted
// function's register type still comes from profile, which reflects the
// real target: the plain and fused forms exist to serve two different
// call shapes on the same hardware, not two different vector widths.
func (s *State) EmitClmulFn(out *sbuf.Buffer, profile Profile, shape Tag, which string) {
	if !s.clmulPending(which, shape) {
		return
	}
	lo := which == "lo"
	vt := profile.VectorType

	// ARM's pmull takes the low 64-bit lane of each operand; pmull2 takes
	// the upper lane of a 128-bit register and is spelled with a ".2d"
	// operand suffix instead of ".1d".
	mnemonicSuffix, laneSuffix := "2", "2d"
	if lo {
		mnemonicSuffix, laneSuffix = "", "1d"
	}

	switch shape {
	case NEON:
		s.NeedHeader("arm_neon")
		out.Printf("CRC_AINLINE %s clmul_%s_e(%s a, %s b, %s c) {\n", vt, which, vt, vt, vt)
		out.Printf("%s r;\n", vt)
		out.Printf("__asm(\"pmull%s %%0.1q, %%2.%s, %%3.%s\\neor %%0.16b, %%0.16b, %%1.16b\\n\" : \"=w\"(r), \"+w\"(c) : \"w\"(a), \"w\"(b));\n",
			mnemonicSuffix, laneSuffix, laneSuffix)
		out.WriteLit("return r;\n")
		out.WriteLit("}\n\n")
	case NEONEOR3:
		s.NeedHeader("arm_neon")
		out.Printf("CRC_AINLINE %s clmul_%s(%s a, %s b) {\n", vt, which, vt, vt)
		out.Printf("%s r;\n", vt)
		out.Printf("__asm(\"pmull%s %%0.1q, %%1.%s, %%2.%s\\n\" : \"=w\"(r) : \"w\"(a), \"w\"(b));\n",
			mnemonicSuffix, laneSuffix, laneSuffix)
		out.WriteLit("return r;\n")
		out.WriteLit("}\n\n")
	case SSE, AVX512:
		s.NeedHeader("wmmintrin")
		imm := uint32(0)
		if !lo {
			imm = 0x11
		}
		out.Printf("#define clmul_%s(a, b) (_mm_clmulepi64_si128((a), (b), %u))\n", which, imm)
	case AVX512VPCLMULQDQ:
		s.NeedHeader("immintrin")
		imm := uint32(0)
		if !lo {
			imm = 0x11
		}
		out.Printf("#define clmul_%s(a, b) (_mm512_clmulepi64_epi128((a), (b), %u))\n", which, imm)
	}
}

// EmitClmulScalar writes the scalar-word clmul_scalar helper used by
// crc_shift and the constant-kernel accumulator-shift path, once per run.
func (s *State) EmitClmulScalar(out *sbuf.Buffer, profile Profile) {
	if s.scalarDone {
		return
	}
	s.scalarDone = true

	out.Printf("CRC_AINLINE %s clmul_scalar(uint32_t a, uint32_t b) {\n", profile.Vec16Type)
	if profile.Tag == NEON || profile.Tag == NEONEOR3 {
		s.NeedHeader("arm_neon")
		out.WriteLit("uint64x2_t r;\n")
		out.WriteLit("__asm(\"pmull %0.1q, %1.1d, %2.1d\\n\" : \"=w\"(r) : \"w\"(vmovq_n_u64(a)), \"w\"(vmovq_n_u64(b)));\n")
		out.WriteLit("return r;\n")
	} else {
		s.NeedHeader("wmmintrin")
		out.WriteLit("return _mm_clmulepi64_si128(_mm_cvtsi32_si128(a), _mm_cvtsi32_si128(b), 0);\n")
	}
	out.WriteLit("}\n\n")
}

// EmitVectorLoad writes an aligned-agnostic vector load of *(base + offset)
// (base is a C expression, typically a pointer variable name).
func (s *State) EmitVectorLoad(out *sbuf.Buffer, profile Profile, base string, offset uint32) {
	switch profile.Tag {
	case NEON, NEONEOR3:
		out.WriteLit("vld1q_u64((const uint64_t*)")
	case SSE, AVX512:
		out.WriteLit("_mm_loadu_si128((const __m128i*)")
	case AVX512VPCLMULQDQ:
		out.WriteLit("_mm512_loadu_si512((const void*)")
	}
	if offset != 0 {
		out.WriteLit("(")
	}
	out.WriteString(base)
	if offset != 0 {
		out.Printf(" + %u)", offset)
	}
	out.WriteLit(")")
}

// EmitProduct writes the C expression for lhs*rhs, folding the rhs==0 and
// rhs==1 special cases the way the original always does at code-generation
// sites that might multiply by a phase's accumulator count.
func EmitProduct(out *sbuf.Buffer, lhs string, rhs uint32) {
	if rhs == 0 {
		out.WriteLit("0")
		return
	}
	out.WriteString(lhs)
	if rhs > 1 {
		out.Printf(" * %u", rhs)
	}
}

// EmitXorTree writes a C expression XOR-reducing vc{lo} ... vc{hi-1}
// together. On targets with a three-input ternary-logic instruction
// (eor3 on NEON+EOR3, vpternlogq on AVX-512) a range of three or more
// terms is split into three near-equal parts and combined with one
// ternary XOR instead of two binary ones; everything else falls back to
// a balanced binary XOR tree.
func (s *State) EmitXorTree(out *sbuf.Buffer, profile Profile, lo, hi uint32) {
	rng := hi - lo
	switch {
	case rng == 1:
		out.Printf("vc%u", lo)
	case rng >= 3 && (profile.Tag == NEONEOR3 || profile.Tag == AVX512 || profile.Tag == AVX512VPCLMULQDQ):
		m1 := lo + rng/3
		m2 := hi - rng/3
		if profile.Tag == NEONEOR3 {
			out.WriteLit("veor3q_u64(")
		} else {
			s.NeedHeader("immintrin")
			out.WriteLit("_mm_ternarylogic_epi64(")
		}
		s.EmitXorTree(out, profile, lo, m1)
		out.WriteLit(", ")
		s.EmitXorTree(out, profile, m1, m2)
		out.WriteLit(", ")
		s.EmitXorTree(out, profile, m2, hi)
		if profile.Tag != NEONEOR3 {
			out.WriteLit(", 0x96")
		}
		out.WriteLit(")")
	default:
		mid := lo + rng/2
		if profile.Tag == NEONEOR3 || profile.Tag == NEON {
			out.WriteLit("veorq_u64(")
		} else {
			out.WriteLit("_mm_xor_si128(")
		}
		s.EmitXorTree(out, profile, lo, mid)
		out.WriteLit(", ")
		s.EmitXorTree(out, profile, mid, hi)
		out.WriteLit(")")
	}
}

// EmitVectorSetK writes the assignment of the per-stride fold constant k
// used by EmitVectorFMA, where stride is the fold distance in
// vector-register units, not bytes (the accumulator count in the main
// loop, the pair distance in the tree reduce). poly is the active
// reversed polynomial.
func EmitVectorSetK(out *sbuf.Buffer, profile Profile, poly uint32, stride uint32) {
	bits := uint64(stride) * uint64(profile.VectorBytes) * 8
	k1 := gf2.XPowModP(poly, bits+32-1)
	k2 := gf2.XPowModP(poly, bits-32-1)
	if profile.Tag == NEON || profile.Tag == NEONEOR3 {
		out.Printf("{ static const uint64_t CRC_ALIGN(16) k_[] = {0x%x, 0x%x}; ", k1, k2)
		out.WriteLit("k = vld1q_u64(k_); }\n")
		return
	}
	out.WriteLit("k = ")
	if profile.VectorBytes > 16 {
		out.WriteLit("_mm512_broadcast_i32x4(")
	}
	out.Printf("_mm_setr_epi32(0x%x, 0, 0x%x, 0)", k1, k2)
	if profile.VectorBytes > 16 {
		out.WriteLit(")")
	}
	out.WriteLit(";\n")
}

// EmitXorScalarIntoVector writes `vector = vector XOR (scalar, zero-extended
// to a full vector lane)`, used to fold the incoming crc0 seed into the
// first vector accumulator before the main loop starts.
func (s *State) EmitXorScalarIntoVector(out *sbuf.Buffer, profile Profile, scalar, vector string) {
	switch profile.Tag {
	case NEON, NEONEOR3:
		out.Printf("%s = veorq_u64((uint64x2_t){%s, 0}, %s);\n", vector, scalar, vector)
	case SSE, AVX512:
		out.Printf("%s = _mm_xor_si128(_mm_cvtsi32_si128(%s), %s);\n", vector, scalar, vector)
	case AVX512VPCLMULQDQ:
		out.Printf("%s = _mm512_xor_si512(_mm512_castsi128_si512(_mm_cvtsi32_si128(%s)), %s);\n", vector, scalar, vector)
	}
}

// EmitVectorFMA writes `x{reg} = x{reg} * k + addend` (add meaning fold in
// GF(2), i.e. XOR) across two output points: p1 collects the clmul steps
// that can be hoisted ahead of a dependent load, p2 collects the
// combining step that consumes the newly-loaded addend. Passing the same
// buffer for both collapses it back into a single straight-line sequence,
// which the tree reduce does when it merges the odd register of a round;
// the other callers pass a child buffer as p1 and its parent as p2 so
// that every register's independent clmul pair can be interleaved ahead
// of the reads they depend on. addend is either "x" (another register, decoded by offset
// naming x{offset}) or a base pointer whose content is loaded at offset.
// A previous EmitVectorSetK call must have set the `k` variable in scope.
func (s *State) EmitVectorFMA(p1, p2 *sbuf.Buffer, profile Profile, reg uint32, addend string, offset uint32) {
	s.EmitClmulFn(p1, profile, profile.Tag, "lo")
	s.EmitClmulFn(p1, profile, profile.Tag, "hi")
	if profile.Tag != NEON {
		p1.Printf("y%u = clmul_lo(x%u, k), x%u = clmul_hi(x%u, k);\n", reg, reg, reg, reg)
	}
	switch profile.Tag {
	case NEON:
		p2.Printf("y%u = clmul_lo_e(x%u, k, ", reg, reg)
	case NEONEOR3:
		p2.Printf("x%u = veor3q_u64(x%u, y%u, ", reg, reg, reg)
	case SSE:
		p2.Printf("y%u = _mm_xor_si128(y%u, ", reg, reg)
	case AVX512:
		p2.Printf("x%u = _mm_ternarylogic_epi64(x%u, y%u, ", reg, reg, reg)
	case AVX512VPCLMULQDQ:
		p2.Printf("x%u = _mm512_ternarylogic_epi64(x%u, y%u, ", reg, reg, reg)
	}
	if addend == "x" {
		p2.Printf("x%u", offset)
	} else {
		s.EmitVectorLoad(p2, profile, addend, offset)
	}
	switch profile.Tag {
	case NEON:
		p2.Printf("), x%u = clmul_hi_e(x%u, k, y%u);\n", reg, reg, reg)
	case NEONEOR3:
		p2.WriteLit(");\n")
	case SSE:
		p2.Printf("), x%u = _mm_xor_si128(x%u, y%u);\n", reg, reg, reg)
	case AVX512, AVX512VPCLMULQDQ:
		p2.WriteLit(", 0x96);\n")
		s.NeedHeader("immintrin")
	}
}

// EmitVectorTreeReduce collapses vector accumulators x0 ... x{n-1} down to
// just x0, folding by a decreasing power-of-two stride each round. An odd
// register count at the top of a round has its first pair merged
// immediately and the rest shuffled down by one slot, so that round's
// pairwise merge sees an even count.
func (s *State) EmitVectorTreeReduce(out *sbuf.Buffer, profile Profile, poly uint32, n uint32) {
	d := uint32(1)
	for n > 1 {
		EmitVectorSetK(out, profile, poly, d)
		if n&1 != 0 {
			s.EmitVectorFMA(out, out, profile, 0, "x", d)
			n--
			for i := uint32(1); i < n; i++ {
				if i > 1 {
					out.WriteLit(", ")
				}
				out.Printf("x%u = x%u", i*d, i*d+d)
			}
			out.WriteLit(";\n")
		}
		p1 := out.NewChild()
		for i := uint32(0); i < n; i += 2 {
			s.EmitVectorFMA(p1, out, profile, i*d, "x", i*d+d)
		}
		n >>= 1
		d <<= 1
	}
}
