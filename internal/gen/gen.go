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

// Package gen ties internal/isa, internal/scalar, and internal/loopgen
// together into one complete generated C translation unit: the
// #include block, the CRC_AINLINE/CRC_ALIGN/CRC_EXPORT portability
// macros, whatever scalar helper functions and lookup table the bound
// polynomial needs, and finally the crc32_impl function itself.
//
// Every buffer this package touches is written once, front to back, and
// only flushed at the very end by Generate; nothing here reads back
// anything it or a callee has already written. That single-pass,
// write-only discipline is what lets internal/sbuf's deferred children
// (a scalar helper requested mid-loop-body, a header requested from
// three unrelated call sites) resolve correctly no matter which order
// the requests arrive in.
package gen

import (
	"bytes"
	"fmt"

	"github.com/crc32gen/crc32gen/internal/algo"
	"github.com/crc32gen/crc32gen/internal/isa"
	"github.com/crc32gen/crc32gen/internal/loopgen"
	"github.com/crc32gen/crc32gen/internal/sbuf"
	"github.com/crc32gen/crc32gen/internal/scalar"
)

// generatorAttribution names this tool in the header comment Generate
// writes above every output file, the same role the original's hardcoded
// "https://github.com/corsix/fast-crc32/" URL plays in its own header.
const generatorAttribution = "github.com/crc32gen/crc32gen"

// Options describes one generation request: which instruction set to
// target, which (already-reversed) polynomial to specialize for, and
// the parsed algorithm phases driving the main loop's shape.
type Options struct {
	ISA    isa.Tag
	Poly   uint32
	Phases []algo.Phase

	// Invocation, if non-empty, is recorded as a comment at the top of
	// the generated file, e.g. the command line that produced it.
	Invocation string
}

// FatalError reports a configuration that cannot be rendered (returned
// by Validate) or a problem discovered while rendering the output,
// analogous to the original's FATAL() macro. Malformed algorithm strings
// and polynomial names are rejected earlier, by internal/algo.Parse and
// internal/polyname.Parse, with an ordinary error.
type FatalError struct {
	Reason string
}

func (e *FatalError) Error() string {
	return "crc32gen: " + e.Reason
}

// Generate renders a complete crc32_impl translation unit for opts.
func Generate(opts Options) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			if fe, ok := r.(*sbuf.FormatError); ok {
				err = &FatalError{Reason: fe.Error()}
				return
			}
			panic(r)
		}
	}()

	profile := isa.Resolve(opts.ISA)
	ist := isa.NewState()
	sst := scalar.NewState()

	root := sbuf.NewBuffer()
	if opts.Invocation != "" {
		root.Printf("/* Generated by %s using: */\n", generatorAttribution)
		root.Printf("/* %s */\n", opts.Invocation)
		root.WriteLit("/* Apache-2.0 licensed */\n\n")
	}

	// The includes buffer is spliced in first but, like the original's
	// g_includes, keeps accumulating #include lines by pointer as later
	// calls (from Bind, from the main function body's clmul helpers)
	// discover they need one — every one of those calls lands here
	// rather than wherever in the file they happened to be issued from,
	// which matters once the main function's own body starts requesting
	// headers: a #include is only legal at file scope.
	root.Append(ist.Includes())
	ist.NeedHeader("stddef")
	ist.NeedHeader("stdint")

	emitPortabilityMacros(root)

	names := scalar.Bind(sst, ist, root, profile, opts.Poly)

	g := loopgen.NewGenerator(ist, sst, profile, opts.Poly, names)
	root.Append(g.EmitMainFunction(opts.Phases))

	var buf bytes.Buffer
	if err := root.Flush(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// emitPortabilityMacros writes the compiler-portability preamble every
// generated file needs regardless of target or polynomial.
func emitPortabilityMacros(out *sbuf.Buffer) {
	out.WriteLit("\n#if defined(_MSC_VER)\n")
	out.WriteLit("#define CRC_AINLINE static __forceinline\n")
	out.WriteLit("#define CRC_ALIGN(n) __declspec(align(n))\n")
	out.WriteLit("#else\n")
	out.WriteLit("#define CRC_AINLINE static __inline __attribute__((always_inline))\n")
	out.WriteLit("#define CRC_ALIGN(n) __attribute__((aligned(n)))\n")
	out.WriteLit("#endif\n")
	out.WriteLit("#define CRC_EXPORT extern\n\n")
}

// Validate reports a *FatalError describing why opts cannot be
// rendered, without doing any of Generate's actual work. It exists so
// the CLI can surface configuration mistakes (an algorithm string with
// no scalar or vector loads at all, for instance) before spending time
// building output that a reader would find nonsensical.
func Validate(opts Options) error {
	if len(opts.Phases) == 0 {
		return &FatalError{Reason: "algorithm string produced no phases"}
	}
	for i, p := range opts.Phases {
		if p.VectorAccumulators == 0 && p.ScalarAccumulators == 0 {
			return &FatalError{Reason: fmt.Sprintf("phase %d has neither vector nor scalar accumulators", i)}
		}
		if p.VectorAccumulators != 0 && !opts.ISA.HasVector() {
			return &FatalError{Reason: fmt.Sprintf("phase %d uses vector accumulators but ISA %s has no vector support", i, opts.ISA)}
		}
	}
	return nil
}
