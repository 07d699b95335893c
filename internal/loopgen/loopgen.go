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

// Package loopgen assembles the algorithm phases parsed by internal/algo
// into the body of crc32_impl: the byte-alignment preamble, one block of
// generated code per phase (vector alignment, block-sized main loop,
// accumulator reduction, and any scalar tail the block leaves behind),
// and the trailing word-at-a-time and byte-at-a-time remainder loops.
//
// Each phase's block is built from several independently named steps
// (computePlan, emitVectorAlignment, emitPreLoopVars, ...) rather than as
// one long procedure, but the sequence of decisions they make, and the C
// fragments they emit, follow the original single-function generator step
// for step: the two must agree on every byte for a given algorithm
// string, isa, and polynomial, since that is what lets a hand-tuned
// reference implementation be regenerated unchanged.
package loopgen

import (
	"github.com/crc32gen/crc32gen/internal/algo"
	"github.com/crc32gen/crc32gen/internal/gf2"
	"github.com/crc32gen/crc32gen/internal/isa"
	"github.com/crc32gen/crc32gen/internal/scalar"
	"github.com/crc32gen/crc32gen/internal/sbuf"
)

// Generator holds the per-run state EmitMainFunction and its helpers
// thread through the whole function body: the isa and scalar memo
// tables (shared with any other part of the generated file that also
// needs a header or a scalar CRC step), the resolved target profile and
// active polynomial, and the alignment the byte stream is known to have
// reached so far.
type Generator struct {
	ISA     *isa.State
	Scalar  *scalar.State
	Profile isa.Profile
	Poly    uint32

	currentAlignment uint32
	names            scalar.Names
}

// NewGenerator returns a Generator ready to emit crc32_impl for the given
// target and polynomial. names is the scalar.Bind result for (profile,
// poly), computed once by the caller since it may itself need to write
// hardware-instruction bindings ahead of the function body.
func NewGenerator(ist *isa.State, sst *scalar.State, profile isa.Profile, poly uint32, names scalar.Names) *Generator {
	return &Generator{
		ISA:     ist,
		Scalar:  sst,
		Profile: profile,
		Poly:    poly,
		names:   names,
	}
}

// EmitMainFunction produces the complete definition of crc32_impl for the
// given sequence of algorithm phases.
func (g *Generator) EmitMainFunction(phases []algo.Phase) *sbuf.Buffer {
	b := sbuf.NewBuffer()
	g.currentAlignment = g.Profile.ScalarNaturalBytes

	b.WriteLit("CRC_EXPORT uint32_t crc32_impl(uint32_t crc0, const char* buf, size_t len) {\n")
	b.WriteLit("crc0 = ~crc0;\n")
	if g.currentAlignment > 1 {
		g.Scalar.NeedCrcScalar(g.ISA, b, g.Profile, g.Poly, g.names, 1)
		b.Printf("for (; len && ((uintptr_t)buf & %u); --len) {\n", g.currentAlignment-1)
		b.Printf("crc0 = %s(crc0, *buf++);\n", g.names.U8)
		b.WriteLit("}\n")
	}

	for _, ap := range phases {
		g.emitPhase(b, ap)
	}

	nb := g.Profile.ScalarNaturalBytes
	b.Printf("for (; len >= %u; buf += %u, len -= %u) {\n", nb, nb, nb)
	scalar.EmitLoadStepPrefix(g.Scalar, g.ISA, b, g.Profile, g.Poly, g.names, 0, nb)
	b.WriteLit("buf);\n")
	b.WriteLit("}\n")
	if nb > 1 {
		g.Scalar.NeedCrcScalar(g.ISA, b, g.Profile, g.Poly, g.names, 1)
		b.WriteLit("for (; len; --len) {\n")
		b.Printf("crc0 = %s(crc0, *buf++);\n", g.names.U8)
		b.WriteLit("}\n")
	}
	b.WriteLit("return ~crc0;\n")
	b.WriteLit("}\n")
	return b
}

func (g *Generator) scalarFnFor(size uint32) string {
	switch size {
	case 1:
		return g.names.U8
	case 4:
		return g.names.U32
	case 8:
		return g.names.U64
	}
	panic("loopgen: bad scalar size")
}

// plan is the block-size and tail-length arithmetic computed once per
// phase: how many bytes one kernel iteration consumes, how many
// iterations the requested kernel size affords, and how many trailing
// bytes (if any) a mismatch between the vector and scalar strides leaves
// for a scalar "tail" step to mop up before the loop's exit is
// considered aligned.
type plan struct {
	blockSize   uint32
	kernelAlign uint32
	kernelItrs  uint32
	scalarTail  uint32
}

func (g *Generator) computePlan(ap algo.Phase) plan {
	vb := g.Profile.VectorBytes
	nb := g.Profile.ScalarNaturalBytes

	blockSize := uint32(ap.VectorLoads)*vb + uint32(ap.ScalarLoads)*nb
	kernelAlign := nb
	if ap.VectorLoads != 0 {
		kernelAlign = vb
	}
	kernelIdealSize := uint32(ap.KernelSize) / kernelAlign * kernelAlign
	kernelItrs := uint32(0)
	if blockSize != 0 {
		kernelItrs = kernelIdealSize / blockSize
	}

	scalarTail := uint32(0)
	switch {
	case ap.VectorLoads == 0:
		if ap.ScalarAccumulators > 1 {
			scalarTail = nb
		}
	case ap.ScalarLoads != 0:
		if kernelItrs != 0 {
			if (kernelItrs*uint32(ap.ScalarLoads)*nb)%vb != 0 {
				scalarTail = nb
			}
		} else {
			if (uint32(ap.ScalarLoads)*nb)%vb != 0 {
				scalarTail = nb
			}
		}
	}

	if kernelItrs != 0 && scalarTail != 0 {
		kernelItrs = (kernelIdealSize - scalarTail) / blockSize
		if kernelItrs != 0 {
			excess := (blockSize*kernelItrs + scalarTail) % kernelAlign
			if excess != 0 {
				scalarTail += kernelAlign - excess
			}
		}
	}

	return plan{blockSize: blockSize, kernelAlign: kernelAlign, kernelItrs: kernelItrs, scalarTail: scalarTail}
}

func boolU32(x bool) uint32 {
	if x {
		return 1
	}
	return 0
}

// emitPhase writes one algorithm phase's alignment preamble, block-sized
// loop, accumulator reduction, and tail.
func (g *Generator) emitPhase(b *sbuf.Buffer, ap algo.Phase) {
	if ap.VectorAccumulators != 0 && g.Profile.VectorBytes > g.currentAlignment {
		g.emitVectorAlignment(b, ap)
	}

	if ap.VectorLoads == 0 && ap.ScalarLoads <= 1 {
		return
	}

	pl := g.computePlan(ap)

	if pl.kernelItrs != 0 {
		b.Printf("while (len >= %u) {\n", pl.blockSize*pl.kernelItrs+pl.scalarTail)
		if !ap.UseEndPointer && pl.kernelItrs != boolU32(ap.VectorAccumulators != 0) {
			b.Printf("uint32_t kitrs = %u;\n", pl.kernelItrs-boolU32(ap.VectorAccumulators != 0))
		}
	} else {
		b.Printf("if (len >= %u) {\n", pl.blockSize+pl.scalarTail)
	}

	vars := b.NewChild()
	vbuf := g.emitPreLoopVars(vars, ap, pl)

	for i := uint32(1); i < uint32(ap.ScalarAccumulators); i++ {
		vars.Printf("uint32_t crc%u = 0;\n", i)
	}

	if ap.VectorAccumulators != 0 {
		g.emitFirstVectorChunk(b, ap, pl, vbuf)
	}

	if pl.kernelItrs == 0 || pl.kernelItrs != boolU32(ap.VectorAccumulators != 0) {
		g.emitMainLoop(b, ap, pl, vbuf)
	}

	if ap.VectorAccumulators > 1 {
		b.Printf("/* Reduce x0 ... x%u to just x0. */\n", ap.VectorAccumulators-1)
		g.ISA.EmitVectorTreeReduce(b, g.Profile, g.Poly, uint32(ap.VectorAccumulators))
	}

	if ap.ScalarAccumulators > 1 || (ap.VectorLoads != 0 && ap.ScalarAccumulators != 0) {
		g.emitAccumulatorMerge(b, vars, ap, pl)
	}

	x0 := "x0"
	if ap.VectorLoads != 0 {
		x0 = g.emitVectorReduceToX0(b, vars, ap)
		g.emitFinalFold(b, ap, pl, x0)
	}

	g.emitTailAndLenUpdate(b, ap, pl, vbuf)

	b.WriteLit("}\n")
}

func (g *Generator) emitVectorAlignment(b *sbuf.Buffer, ap algo.Phase) {
	vb := g.Profile.VectorBytes
	nb := g.Profile.ScalarNaturalBytes
	g.currentAlignment = vb

	kw := "while"
	if vb == nb*2 {
		kw = "if"
	}
	b.Printf("%s (((uintptr_t)buf & %u) && len >= %u) {\n", kw, vb-nb, nb)
	scalar.EmitLoadStepPrefix(g.Scalar, g.ISA, b, g.Profile, g.Poly, g.names, 0, nb)
	b.WriteLit("buf);\n")
	b.Printf("buf += %u;\n", nb)
	b.Printf("len -= %u;\n", nb)
	b.WriteLit("}\n")
}

// emitPreLoopVars writes the loop-scoped declarations (end/limit
// pointers, klen/blk byte counts) that depend on whether this phase
// mixes vector and scalar loads, and returns the base pointer expression
// vector loads should read from (either "buf" or, when scalars share the
// same block and therefore advance buf independently, "buf2").
func (g *Generator) emitPreLoopVars(vars *sbuf.Buffer, ap algo.Phase, pl plan) string {
	nb := g.Profile.ScalarNaturalBytes
	vb := g.Profile.VectorBytes
	vbuf := "buf"
	sPerAcc := uint32(0)
	if ap.ScalarAccumulators != 0 {
		sPerAcc = uint32(ap.ScalarLoads) / uint32(ap.ScalarAccumulators)
	}

	if pl.kernelItrs == 0 && ap.UseEndPointer {
		vars.WriteLit("const char* end = buf + len;\n")
	}

	switch {
	case ap.VectorLoads == 0 && ap.ScalarAccumulators > 1:
		if pl.kernelItrs != 0 {
			vars.Printf("const size_t klen = %u;\n", pl.kernelItrs*sPerAcc*nb)
		} else {
			vars.Printf("size_t klen = ((len - %u) / %u) * %u;\n", pl.scalarTail, pl.blockSize, sPerAcc*nb)
		}
		if ap.UseEndPointer {
			vars.Printf("const char* limit = buf + klen - %u;\n", sPerAcc*nb)
		}
	case ap.VectorLoads != 0 && ap.ScalarAccumulators != 0:
		vbuf = "buf2"
		if pl.kernelItrs != 0 {
			vars.Printf("const size_t blk = %u;\n", pl.kernelItrs)
			if ap.ScalarAccumulators > 1 || pl.scalarTail == 0 || ap.UseEndPointer {
				vars.Printf("const size_t klen = blk * %u;\n", sPerAcc*nb)
			}
		} else {
			vars.Printf("size_t blk = (len - %u) / %u;\n", pl.scalarTail, pl.blockSize)
			vars.Printf("size_t klen = blk * %u;\n", sPerAcc*nb)
		}
		vars.Printf("const char* %s = buf + ", vbuf)
		mult := uint32(ap.ScalarAccumulators)
		if pl.scalarTail != 0 {
			mult = 0
		}
		isa.EmitProduct(vars, "klen", mult)
		vars.WriteLit(";\n")
		if ap.UseEndPointer {
			if pl.scalarTail != 0 {
				vars.Printf("const char* limit = buf + blk * %u + klen - %u;\n", uint32(ap.VectorLoads)*vb, sPerAcc*nb*2)
			} else {
				vars.Printf("const char* limit = buf + klen - %u;\n", sPerAcc*nb*2)
			}
		}
	default:
		if ap.UseEndPointer {
			if pl.kernelItrs != 0 {
				vars.Printf("const char* limit = buf + %u;\n", (pl.kernelItrs-1)*pl.blockSize)
			} else {
				vars.Printf("const char* limit = buf + len - %u;\n", pl.blockSize)
			}
		}
	}
	return vbuf
}

// emitFirstVectorChunk writes the pre-loop iteration that seeds vector
// accumulators x0 ... x{v_acc-1}, folding the incoming scalar crc0 seed
// into x0 when nothing else will (no scalar loads, or a scalar tail that
// runs after the loop instead of alongside it).
func (g *Generator) emitFirstVectorChunk(b *sbuf.Buffer, ap algo.Phase, pl plan, vbuf string) {
	vb := g.Profile.VectorBytes
	vAcc := uint32(ap.VectorAccumulators)
	b.WriteLit("/* First vector chunk. */\n")
	for i := uint32(0); i < vAcc; i++ {
		b.Printf("%s x%u = ", g.Profile.VectorType, i)
		g.ISA.EmitVectorLoad(b, g.Profile, vbuf, i*vb)
		b.Printf(", y%u;\n", i)
	}
	b.Printf("%s k;\n", g.Profile.VectorType)
	isa.EmitVectorSetK(b, g.Profile, g.Poly, vAcc)
	if ap.ScalarLoads == 0 || pl.scalarTail != 0 {
		g.ISA.EmitXorScalarIntoVector(b, g.Profile, "crc0", "x0")
		if pl.scalarTail != 0 {
			b.WriteLit("crc0 = 0;\n")
		}
	}
	for i := vAcc; i < uint32(ap.VectorLoads); i += vAcc {
		p1 := b.NewChild()
		for j := uint32(0); j < vAcc; j++ {
			g.ISA.EmitVectorFMA(p1, b, g.Profile, j, vbuf, (i+j)*vb)
		}
	}
	b.Printf("%s += %u;\n", vbuf, uint32(ap.VectorLoads)*vb)
	if pl.kernelItrs == 0 && !ap.UseEndPointer {
		b.Printf("len -= %u;\n", pl.blockSize)
	}
	if pl.scalarTail != 0 {
		b.Printf("buf += blk * %u;\n", uint32(ap.VectorLoads)*vb)
	}
}

// emitScalarMain writes one kernel's worth of scalar accumulator update
// statements, striding s_acc accumulators across s_load total loads.
func (g *Generator) emitScalarMain(b *sbuf.Buffer, ap algo.Phase) {
	nb := g.Profile.ScalarNaturalBytes
	sAcc := uint32(ap.ScalarAccumulators)
	for i := uint32(0); i < uint32(ap.ScalarLoads); i += sAcc {
		for j := uint32(0); j < sAcc; j++ {
			scalar.EmitLoadStepPrefix(g.Scalar, g.ISA, b, g.Profile, g.Poly, g.names, j, nb)
			if i != 0 || j != 0 {
				b.WriteLit("(")
			}
			b.WriteLit("buf")
			if j != 0 {
				b.WriteLit(" + ")
				isa.EmitProduct(b, "klen", j)
			}
			if i != 0 {
				b.Printf(" + %u", (i/sAcc)*nb)
			}
			if i != 0 || j != 0 {
				b.WriteLit(")")
			}
			b.WriteLit(");\n")
		}
	}
}

// emitMainLoop writes the block-sized loop that repeats until fewer than
// one kernel's worth of input remains: a plain while when the phase has
// vector loads and no kernel iteration count was computed in advance;
// otherwise a do/while, whose condition decrements kitrs when a count
// was computed, and otherwise checks the end pointer or the remaining
// length.
func (g *Generator) emitMainLoop(b *sbuf.Buffer, ap algo.Phase, pl plan, vbuf string) {
	vAcc := uint32(ap.VectorAccumulators)
	vb := g.Profile.VectorBytes
	nb := g.Profile.ScalarNaturalBytes

	loopCond := sbuf.NewBuffer()
	isDoWhile := true
	b.WriteLit("/* Main loop. */\n")
	if pl.kernelItrs != 0 {
		if ap.UseEndPointer {
			loopCond.WriteLit("while (buf <= limit)")
		} else {
			loopCond.WriteLit("while (--kitrs)")
		}
	} else {
		if ap.UseEndPointer {
			loopCond.WriteLit("while (buf <= limit)")
		} else {
			loopCond.Printf("while (len >= %u)", pl.blockSize+pl.scalarTail)
		}
		if ap.VectorLoads != 0 {
			b.Append(loopCond)
			b.WriteLit(" {\n")
			isDoWhile = false
		}
	}
	if isDoWhile {
		b.WriteLit("do {\n")
	}
	for i := uint32(0); i < uint32(ap.VectorLoads); i += vAcc {
		p1 := b.NewChild()
		for j := uint32(0); j < vAcc; j++ {
			g.ISA.EmitVectorFMA(p1, b, g.Profile, j, vbuf, (i+j)*vb)
		}
	}
	g.emitScalarMain(b, ap)
	if ap.ScalarLoads != 0 {
		b.Printf("buf += %u;\n", (uint32(ap.ScalarLoads)/uint32(ap.ScalarAccumulators))*nb)
	}
	if ap.VectorLoads != 0 {
		b.Printf("%s += %u;\n", vbuf, uint32(ap.VectorLoads)*vb)
	}
	if pl.kernelItrs == 0 && !ap.UseEndPointer {
		b.Printf("len -= %u;\n", pl.blockSize)
	}
	b.WriteLit("}")
	if isDoWhile {
		b.WriteLit(" ")
		b.Append(loopCond)
		b.WriteLit(";")
	}
	b.WriteLit("\n")
}

// emitAccumulatorMerge shifts each scalar accumulator crc{i} by however
// many bytes were read after it (so they all represent the CRC of input
// ending at the same position) and XORs the shifted values together into
// vc, ready to be folded in alongside the vector accumulator's own
// reduction.
func (g *Generator) emitAccumulatorMerge(b, vars *sbuf.Buffer, ap algo.Phase, pl plan) {
	vb := g.Profile.VectorBytes
	nb := g.Profile.ScalarNaturalBytes
	sAcc := uint32(ap.ScalarAccumulators)
	sPerAcc := uint32(0)
	if sAcc != 0 {
		sPerAcc = uint32(ap.ScalarLoads) / sAcc
	}

	if ap.VectorLoads != 0 {
		b.WriteLit("/* Final scalar chunk. */\n")
		g.emitScalarMain(b, ap)
		if pl.scalarTail != 0 {
			b.Printf("buf += %u;\n", sPerAcc*nb)
		}
	}

	tailBit := boolU32(pl.scalarTail != 0)
	for i := uint32(0); i < sAcc; i++ {
		if i+1 >= sAcc && pl.scalarTail != 0 {
			break
		}
		vars.Printf("%s vc%u;\n", g.Profile.Vec16Type, i)
		fn := "crc_shift"
		if pl.kernelItrs != 0 {
			fn = "clmul_scalar"
		}
		b.Printf("vc%u = %s(crc%u, ", i, fn, i)
		if pl.kernelItrs != 0 {
			amount := pl.kernelItrs * sPerAcc * nb * (sAcc - 1 - i)
			if pl.scalarTail != 0 {
				amount += pl.scalarTail
			} else {
				amount += pl.kernelItrs * uint32(ap.VectorLoads) * vb
			}
			b.Printf("0x%x", gf2.XPowModP(g.Poly, uint64(amount)*8-33))
			g.ISA.EmitClmulScalar(b, g.Profile)
		} else {
			scalar.NeedCrcShift(g.Scalar, g.ISA, b, g.Profile, g.Poly, g.names)
			isa.EmitProduct(b, "klen", sAcc-1-i)
			if pl.scalarTail != 0 {
				b.Printf(" + %u", pl.scalarTail)
			} else if ap.VectorLoads != 0 {
				b.Printf(" + blk * %u", uint32(ap.VectorLoads)*vb)
			}
		}
		b.WriteLit(");\n")
	}

	vars.WriteLit("uint64_t vc;\n")
	if sAcc == tailBit {
		b.WriteLit("vc = 0;\n")
	} else {
		b.Printf("vc = %s(", g.Profile.Vec16LaneFn)
		g.ISA.EmitXorTree(b, g.Profile, 0, sAcc-tailBit)
		b.WriteLit(", 0);\n")
	}
}

// emitVectorReduceToX0 folds a 512-bit AVX-512+VPCLMULQDQ accumulator
// down to the 128 bits every other target's x0 already holds, returning
// the C expression naming whichever variable now holds that 128-bit
// value.
func (g *Generator) emitVectorReduceToX0(b, vars *sbuf.Buffer, ap algo.Phase) string {
	x0 := "x0"
	if g.Profile.Tag != isa.AVX512VPCLMULQDQ {
		return x0
	}
	b.WriteLit("/* Reduce 512 bits to 128 bits. */\n")
	g.ISA.NeedHeader("immintrin")
	g.ISA.EmitClmulFn(b, g.Profile, g.Profile.Tag, "lo")
	g.ISA.EmitClmulFn(b, g.Profile, g.Profile.Tag, "hi")
	b.WriteLit("k = _mm512_setr_epi32(")
	for i := uint32(415); i >= 95; i -= 64 {
		b.Printf("0x%x, 0, ", gf2.XPowModP(g.Poly, uint64(i)))
	}
	b.WriteLit("0, 0, 0, 0);\n")
	b.WriteLit("y0 = clmul_lo(x0, k), k = clmul_hi(x0, k);\n")
	b.WriteLit("y0 = _mm512_xor_si512(y0, k);\n")
	vars.Printf("%s z0;\n", g.Profile.Vec16Type)
	b.WriteLit("z0 = _mm_ternarylogic_epi64(_mm512_castsi512_si128(y0), _mm512_extracti32x4_epi32(y0, 1), _mm512_extracti32x4_epi32(y0, 2), 0x96);\n")
	b.WriteLit("z0 = _mm_xor_si128(z0, _mm512_extracti32x4_epi32(x0, 3));\n")
	return "z0"
}

// emitFinalFold writes the last reduction from a 128-bit vector
// accumulator (and, if present, the scalar accumulators' merged vc) down
// to the final 32-bit crc0, multiplying by x^32 along the way.
func (g *Generator) emitFinalFold(b *sbuf.Buffer, ap algo.Phase, pl plan, x0 string) {
	nb := g.Profile.ScalarNaturalBytes
	lane := g.Profile.Vec16LaneFn
	s8 := g.scalarFnFor(8)
	b.WriteLit("/* Reduce 128 bits to 32 bits, and multiply by x^32. */\n")
	if pl.scalarTail != 0 {
		shiftFn := "crc_shift"
		if pl.kernelItrs != 0 {
			shiftFn = "clmul_scalar"
		}
		b.Printf("vc ^= %s(%s(%s(%s(0, %s(%s, 0)), %s(%s, 1)), ",
			lane, shiftFn, s8, s8, lane, x0, lane, x0)
		if pl.kernelItrs != 0 {
			amount := pl.kernelItrs*uint32(ap.ScalarLoads)*nb + pl.scalarTail
			b.Printf("0x%x", gf2.XPowModP(g.Poly, uint64(amount)*8-33))
			g.ISA.EmitClmulScalar(b, g.Profile)
		} else {
			scalar.NeedCrcShift(g.Scalar, g.ISA, b, g.Profile, g.Poly, g.names)
			b.Printf("klen * %u + %u", ap.ScalarAccumulators, pl.scalarTail)
		}
		b.WriteLit("), 0);\n")
	} else {
		g.Scalar.NeedCrcScalar(g.ISA, b, g.Profile, g.Poly, g.names, 8)
		b.Printf("crc0 = %s(0, %s(%s, 0));\n", s8, lane, x0)
		vcPrefix := ""
		if ap.ScalarLoads != 0 {
			vcPrefix = "vc ^ "
		}
		b.Printf("crc0 = %s(crc0, %s%s(%s, 1));\n", s8, vcPrefix, lane, x0)
	}
}

// emitTailAndLenUpdate writes the scalar_tail bytes' worth of leftover
// input (if any), then updates len (and, if this block turned out to be
// misaligned with the vector width, current_alignment) to reflect
// however much input the block actually consumed.
func (g *Generator) emitTailAndLenUpdate(b *sbuf.Buffer, ap algo.Phase, pl plan, vbuf string) {
	nb := g.Profile.ScalarNaturalBytes
	vb := g.Profile.VectorBytes
	blockSize := pl.blockSize

	if pl.scalarTail != 0 {
		b.Printf("/* Final %u bytes. */\n", pl.scalarTail)
		if ap.ScalarAccumulators > 1 {
			b.WriteLit("buf += ")
			isa.EmitProduct(b, "klen", uint32(ap.ScalarAccumulators)-1)
			b.WriteLit(";\n")
			b.Printf("crc0 = crc%u;\n", ap.ScalarAccumulators-1)
		}
		for i := pl.scalarTail; i > nb; i -= nb {
			scalar.EmitLoadStepPrefix(g.Scalar, g.ISA, b, g.Profile, g.Poly, g.names, 0, nb)
			b.WriteLit("buf), ")
			b.Printf("buf += %u;\n", nb)
		}
		scalar.EmitLoadStepPrefix(g.Scalar, g.ISA, b, g.Profile, g.Poly, g.names, 0, nb)
		b.WriteLit("buf ^ vc), ")
		b.Printf("buf += %u;\n", nb)
		if pl.kernelItrs == 0 && !ap.UseEndPointer {
			b.Printf("len -= %u;\n", pl.scalarTail)
		}
	} else if ap.VectorLoads != 0 && ap.ScalarLoads != 0 {
		b.Printf("buf = %s;\n", vbuf)
	}

	if pl.kernelItrs != 0 {
		amount := pl.kernelItrs*blockSize + pl.scalarTail
		b.Printf("len -= %u;\n", amount)
		if amount%vb != 0 {
			g.currentAlignment = nb
		}
	} else {
		if ap.UseEndPointer {
			b.WriteLit("len = end - buf;\n")
		}
		if blockSize%vb != 0 || pl.scalarTail%vb != 0 {
			g.currentAlignment = nb
		}
	}
}
