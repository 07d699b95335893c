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

// Package algo parses the compact algorithm-string mini-language that
// selects a CRC loop's shape: how many vector and scalar accumulators run
// side by side, how many loads feed each per outer-loop iteration, the
// optional fixed kernel (outer-loop step) size, and whether the tail of
// the loop needs to track an explicit end pointer instead of a remaining
// count. A string is a `_`-separated list of phases, and later phases
// describe a shrinking tail applied once the previous phase can no longer
// consume a full step (used to fold a large "main" loop down to
// progressively smaller catch-up loops instead of leaving a wide scalar
// tail).
package algo

import (
	"fmt"
	"strings"
)

// Phase is one `_`-separated segment of an algorithm string.
type Phase struct {
	VectorAccumulators int // number of parallel vector accumulator lanes
	VectorLoads        int // vector loads per outer-loop iteration
	ScalarAccumulators int // number of parallel scalar accumulator lanes
	ScalarLoads        int // scalar loads per outer-loop iteration
	KernelSize         int // fixed outer-loop step size in bytes, or 0 if derived
	UseEndPointer      bool
}

// ParseError reports a malformed algorithm string, naming the offending
// string and the reason it was rejected.
type ParseError struct {
	Algorithm string
	Reason    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("algorithm string %q: %s", e.Algorithm, e.Reason)
}

// Parse decodes an algorithm string into its phases. hasISA reports
// whether an instruction set has been selected; without one, vector
// accumulators and multiple scalar accumulators are meaningless (there is
// no vector unit to run them on, and the scalar path itself cannot
// interleave independent accumulator chains without SIMD-style
// instruction-level parallelism tricks it doesn't attempt), so a string
// requesting either is rejected up front rather than silently downgraded.
//
// The grammar, applied left to right within each phase:
//
//	v<N>[x<M>]  N vector accumulators (or widen the running max), M loads each (default 1)
//	s<N>[x<M>]  N scalar accumulators (or widen the running max), M loads each (default 1)
//	k<N>        fix the outer-loop step to N bytes (default: derived)
//	e           this phase tracks an explicit end pointer rather than a count
//	_           start a new phase
//
// A phase with neither v nor s components defaults to a single scalar
// accumulator taking one load ("s1"), matching a plain byte-at-a-time
// tail. Repeating v or s within one phase accumulates load counts and
// keeps the largest accumulator count seen, so "v4x2v4" means 4
// accumulators taking 2+1 loads apiece; that total must be an exact
// multiple of the final accumulator count; the loads are then round-robin
// distributed one per accumulator per pass.
func Parse(value string, hasISA bool) ([]Phase, error) {
	fail := func(reason string, args ...interface{}) ([]Phase, error) {
		return nil, &ParseError{Algorithm: value, Reason: fmt.Sprintf(reason, args...)}
	}

	var phases []Phase
	cur := Phase{}
	haveCur := false
	i := 0
	n := len(value)

	readDigits := func() (int, bool) {
		start := i
		for i < n && value[i] >= '0' && value[i] <= '9' {
			i++
		}
		if i == start {
			return 0, false
		}
		v := 0
		for _, c := range value[start:i] {
			v = v*10 + int(c-'0')
		}
		return v, true
	}

	for i < n {
		c := value[i]
		i++
		haveCur = true
		switch c {
		case 'v', 's', 'k':
			count, ok := readDigits()
			if !ok {
				return fail("expected digit sequence after character %c", c)
			}
			mult := 1
			if c != 'k' && i < n && value[i] == 'x' {
				i++
				m, ok := readDigits()
				if !ok {
					return fail("expected digit sequence after character x")
				}
				mult = m
			}
			switch c {
			case 'v':
				cur.VectorLoads += count * mult
				if cur.VectorAccumulators < count {
					cur.VectorAccumulators = count
				}
			case 's':
				cur.ScalarLoads += count * mult
				if cur.ScalarAccumulators < count {
					cur.ScalarAccumulators = count
				}
			case 'k':
				cur.KernelSize = count
			}
		case 'e':
			cur.UseEndPointer = true
		case '_':
			phases = append(phases, cur)
			cur = Phase{}
			haveCur = false
		default:
			return fail("unrecognised character %c", c)
		}
	}
	if haveCur || len(phases) == 0 {
		phases = append(phases, cur)
	}

	for idx := range phases {
		p := &phases[idx]
		if p.ScalarAccumulators == 0 && p.VectorAccumulators == 0 {
			p.ScalarAccumulators, p.ScalarLoads = 1, 1
		}
		if p.ScalarAccumulators != 0 && p.ScalarLoads%p.ScalarAccumulators != 0 {
			return fail("phase %d has scalar load count (%d) not a multiple of scalar accumulator count (%d)", idx, p.ScalarLoads, p.ScalarAccumulators)
		}
		if p.VectorAccumulators != 0 && p.VectorLoads%p.VectorAccumulators != 0 {
			return fail("phase %d has vector load count (%d) not a multiple of vector accumulator count (%d)", idx, p.VectorLoads, p.VectorAccumulators)
		}
		if !hasISA {
			if p.VectorLoads != 0 {
				return fail("need to specify an ISA to use vector accumulators")
			}
			if p.ScalarAccumulators > 1 {
				return fail("need to specify an ISA to use more than one scalar accumulator")
			}
		}
	}
	return phases, nil
}

// String reconstructs an algorithm string equivalent to the parsed phase,
// in canonical form.
func (p Phase) String() string {
	var sb strings.Builder
	if p.VectorAccumulators != 0 {
		fmt.Fprintf(&sb, "v%d", p.VectorAccumulators)
		if p.VectorLoads != p.VectorAccumulators {
			fmt.Fprintf(&sb, "x%d", p.VectorLoads/p.VectorAccumulators)
		}
	}
	if p.ScalarAccumulators != 0 && !(p.ScalarAccumulators == 1 && p.ScalarLoads == 1 && p.VectorAccumulators != 0) {
		fmt.Fprintf(&sb, "s%d", p.ScalarAccumulators)
		if p.ScalarLoads != p.ScalarAccumulators {
			fmt.Fprintf(&sb, "x%d", p.ScalarLoads/p.ScalarAccumulators)
		}
	}
	if p.KernelSize != 0 {
		fmt.Fprintf(&sb, "k%d", p.KernelSize)
	}
	if p.UseEndPointer {
		sb.WriteByte('e')
	}
	return sb.String()
}

// TotalLoads is the number of memory loads (vector plus scalar) a single
// pass through this phase performs.
func (p Phase) TotalLoads() int {
	return p.VectorLoads + p.ScalarLoads
}
