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

package main

import (
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/crc32gen/crc32gen/internal/algo"
	"github.com/crc32gen/crc32gen/internal/gen"
	"github.com/crc32gen/crc32gen/internal/isa"
	"github.com/crc32gen/crc32gen/internal/polyname"
)

// defaultISA mirrors the original's self_isa fallback: aarch64 hosts get
// a NEON example in --help, everything else gets SSE.
func defaultISA() string {
	switch runtime.GOARCH {
	case "arm64", "arm":
		return "neon"
	default:
		return "sse"
	}
}

func newGenerateCmd() *cobra.Command {
	var (
		isaFlag  string
		polyFlag string
		algoFlag string
		outFlag  string
	)

	cmd := &cobra.Command{
		Use:     "generate",
		Short:   "Generate C code for computing CRC-32",
		Example: "crc32gen generate -i " + defaultISA() + " -p crc32c -a v8s1_s2",
		RunE: func(cmd *cobra.Command, args []string) error {
			tag, err := isa.Parse(isaFlag)
			if err != nil {
				return err
			}
			poly, err := polyname.Parse(polyFlag)
			if err != nil {
				return err
			}
			phases, err := algo.Parse(algoFlag, tag.HasVector())
			if err != nil {
				return err
			}

			opts := gen.Options{
				ISA:        tag,
				Poly:       poly,
				Phases:     phases,
				Invocation: strings.Join(os.Args, " "),
			}
			if err := gen.Validate(opts); err != nil {
				return err
			}
			out, err := gen.Generate(opts)
			if err != nil {
				return err
			}

			if outFlag == "" || outFlag == "-" {
				_, err = cmd.OutOrStdout().Write(out)
				return err
			}
			return os.WriteFile(outFlag, out, 0o644)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&isaFlag, "isa", "i", "none",
		"target instruction set: neon, neon_eor3, sse, avx, avx2, avx512, avx512_vpclmulqdq")
	flags.StringVarP(&polyFlag, "polynomial", "p", "crc32",
		"named polynomial (crc32, crc32c, crc32k, crc32k2, crc32q) or an 8-digit hex literal")
	flags.StringVarP(&algoFlag, "algorithm", "a", "",
		"algorithm string, e.g. v3x8s3k1024e; defaults to a single scalar accumulator (s1) if omitted")
	flags.StringVarP(&outFlag, "output", "o", "-", "output file, or - for stdout")

	return cmd
}
