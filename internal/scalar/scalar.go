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

// Package scalar binds the scalar (non-vector, one-word-at-a-time) CRC
// step used for alignment preambles, tails, and accumulator merging to
// whatever the active (isa, poly) pair makes fastest available: a
// hardware CRC instruction, a PCLMULQDQ Barrett-reduction fallback, or a
// plain table lookup. It also owns the CRC lookup table itself (grown
// lazily to however many planes the bound functions end up needing) and
// the runtime x^n mod P helper used to fold a byte count too large to
// know at generation time.
package scalar

import (
	"github.com/crc32gen/crc32gen/internal/gf2"
	"github.com/crc32gen/crc32gen/internal/isa"
	"github.com/crc32gen/crc32gen/internal/sbuf"
)

const (
	revPolyCRC32  = 0xedb88320
	revPolyCRC32C = 0x82f63b78
)

// Names is the set of scalar CRC step function names resolved for the
// active target: crc_u8(crc, byte), crc_u32(crc, word), crc_u64(crc, dword).
type Names struct {
	U8, U32, U64 string
}

// State is the per-run memo table for the scalar CRC bindings: the
// lazily-grown lookup table, and which of the three word sizes have
// already had their helper function emitted.
type State struct {
	tablePlanes  uint32
	tableStarted bool

	// done mirrors need_crc_scalar's bitmask: a call for size s ORs s
	// into done, and any later call whose size bit is already set is
	// skipped. This lets init_isa's need_crc_scalar(15) mark sizes
	// 1/4/8 all satisfied at once when hardware instructions cover them,
	// without the three call sites needing to agree on that in advance.
	done uint32

	shiftDone bool
}

// NewState returns an empty memo table for one generation run.
func NewState() *State {
	return &State{}
}

// NeedCrcTable ensures the shared lookup table has at least the given
// number of planes (each plane handles one more input byte per table
// lookup) and returns its variable name. The table's declaration is
// pinned at the position of the first call, but its contents — sized to
// however many planes the last call requested — are only rendered when
// the buffer is flushed, via sbuf's deferred-callback mechanism.
func (s *State) NeedCrcTable(out *sbuf.Buffer, poly uint32, planes uint32) string {
	const tableVar = "g_crc_table"
	if planes > s.tablePlanes {
		if !s.tableStarted {
			s.tableStarted = true
			out.Printf("static const uint32_t %s", tableVar)
			out.Defer(func(b *sbuf.Buffer) {
				generateTable(b, poly, s.tablePlanes)
			})
		}
		s.tablePlanes = planes
	}
	return tableVar
}

func generateTable(b *sbuf.Buffer, poly uint32, planes uint32) {
	b.Printf("[%u][256] = {", planes)
	for i := uint32(0); i < planes; i++ {
		b.WriteLit("{\n")
		for j := uint32(0); j < 256; j++ {
			crc := j
			for k := (i + 1) * 8; k > 0; k-- {
				crc = (crc >> 1) ^ ((crc & 1) * poly)
			}
			sep := ", "
			if j+1 >= 256 {
				sep = ""
			} else if (j+1)%6 == 0 {
				sep = ",\n"
			}
			b.Printf("0x%x%s", crc, sep)
		}
		if i+1 < planes {
			b.WriteLit("},")
		} else {
			b.WriteLit("\n}};\n\n")
		}
	}
}

// Bind resolves the scalar CRC step function names for profile and poly,
// emitting whatever backing definitions are needed: this is the
// generalisation of the original's g_scalar1_fn/g_scalar4_fn/g_scalar8_fn
// plus init_isa's poly-specific hardware-instruction overrides.
func Bind(st *State, ist *isa.State, out *sbuf.Buffer, profile isa.Profile, poly uint32) Names {
	names := Names{U8: "crc_u8", U32: "crc_u32", U64: "crc_u64"}

	switch {
	case poly == revPolyCRC32 && (profile.Tag == isa.NEON || profile.Tag == isa.NEONEOR3):
		ist.NeedHeader("arm_acle")
		names = Names{U8: "__crc32b", U32: "__crc32w", U64: "__crc32d"}
		st.NeedCrcScalar(ist, out, profile, poly, names, 15)
	case poly == revPolyCRC32C && (profile.Tag == isa.NEON || profile.Tag == isa.NEONEOR3):
		ist.NeedHeader("arm_acle")
		names = Names{U8: "__crc32cb", U32: "__crc32cw", U64: "__crc32cd"}
		st.NeedCrcScalar(ist, out, profile, poly, names, 15)
	case poly == revPolyCRC32C && (profile.Tag == isa.SSE || profile.Tag == isa.AVX512 || profile.Tag == isa.AVX512VPCLMULQDQ):
		ist.NeedHeader("nmmintrin")
		names = Names{U8: "_mm_crc32_u8", U32: "_mm_crc32_u32", U64: "_mm_crc32_u64"}
		st.NeedCrcScalar(ist, out, profile, poly, names, 15)
	}
	return names
}

// NeedCrcScalar ensures the crc_u{size} helper (size is 1, 4, or 8; 15 is
// the special "mark 1/4/8 satisfied by a hardware instruction" value used
// by Bind) exists, choosing between a table lookup (isa.None, and size 1
// on every target), a carry-less-multiply Barrett-reduction fallback
// (sizes 4 and 8 on any vector ISA lacking a matching hardware CRC
// instruction), and doing nothing (size already covered by a hardware
// binding). Each definition is appended to out once, at the position of
// the first request, regardless of which of several possible callers
// triggers it.
func (s *State) NeedCrcScalar(ist *isa.State, out *sbuf.Buffer, profile isa.Profile, poly uint32, names Names, size uint32) {
	if s.done&size != 0 {
		return
	}
	s.done |= size
	if size > 8 {
		return
	}

	body := sbuf.NewBuffer()
	switch size {
	case 1:
		table := s.NeedCrcTable(out, poly, 1)
		body.Printf("CRC_AINLINE uint32_t %s(uint32_t crc, uint8_t val) {\n", names.U8)
		body.Printf("return (crc >> 8) ^ %s[0][(crc & 0xFF) ^ val];\n", table)
		body.WriteLit("}\n\n")
	case 4:
		body.Printf("CRC_AINLINE uint32_t %s(uint32_t crc, uint32_t val) {\n", names.U32)
		if profile.Tag == isa.None {
			table := s.NeedCrcTable(out, poly, 4)
			body.WriteLit("crc ^= val;\n")
			body.Printf("return %s[0][crc >>  24] ^ %s[1][(crc >> 16) & 0xFF] ^\n", table, table)
			body.Printf("       %s[3][crc & 0xFF] ^ %s[2][(crc >>  8) & 0xFF];\n", table, table)
		} else {
			emitBarrettScalarFold(body, ist, profile, poly, gf2.XPowDivP(poly, 63), false)
		}
		body.WriteLit("}\n\n")
	case 8:
		body.Printf("CRC_AINLINE uint32_t %s(uint32_t crc, uint64_t val) {\n", names.U64)
		if profile.Tag == isa.None {
			s.NeedCrcScalar(ist, out, profile, poly, names, 4)
			body.Printf("crc = %s(crc, (uint32_t)val);\n", names.U32)
			body.Printf("return %s(crc, (uint32_t)(val >> 32));\n", names.U32)
		} else {
			emitBarrettScalarFold(body, ist, profile, poly, gf2.XPowDivP(poly, 95), true)
		}
		body.WriteLit("}\n\n")
	}
	out.Append(body)
}
