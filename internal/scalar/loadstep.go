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
	"fmt"

	"github.com/crc32gen/crc32gen/internal/isa"
	"github.com/crc32gen/crc32gen/internal/sbuf"
)

// EmitLoadStepPrefix writes the opening of a scalar accumulator update:
// `crc{acc} = crc_uN(crc{acc}, *(const uintN_t*)`, for size in {1, 4, 8}.
// The caller is responsible for writing the pointer expression and the
// closing paren plus semicolon that finish the statement — this
// mirrors the original's habit of building one C statement across several
// separate put_ calls so the pointer expression's shape (which varies a
// great deal across the main loop's phases) can be composed by the
// caller without EmitLoadStepPrefix needing to know it.
func EmitLoadStepPrefix(st *State, ist *isa.State, out *sbuf.Buffer, profile isa.Profile, poly uint32, names Names, acc uint32, size uint32) {
	st.NeedCrcScalar(ist, out, profile, poly, names, size)
	out.Printf("crc%u = ", acc)
	switch size {
	case 8:
		out.Printf("%s(crc%u, *(const uint64_t*)", names.U64, acc)
	case 4:
		out.Printf("%s(crc%u, *(const uint32_t*)", names.U32, acc)
	case 1:
		out.Printf("%s(crc%u, *(const uint8_t*)", names.U8, acc)
	default:
		panic(fmt.Sprintf("scalar: bad load size %d", size))
	}
}
