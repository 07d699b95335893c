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

import "github.com/crc32gen/crc32gen/internal/sbuf"

// State is the per-run memo table for one-time emissions: which #include
// lines have already gone into the includes buffer, and which clmul
// helper functions have already been written to the output buffer. It
// plays the role the original's function-local `static int done` flags
// played, made explicit so a Context (or a test) can start a fresh run
// without relying on process-lifetime statics.
type State struct {
	includes   *sbuf.Buffer
	headers    map[string]bool
	clmulDone  map[string]bool // keyed by "<which>/<tag>"
	scalarDone bool            // clmul_scalar emitted
}

// NewState returns an empty memo table for one generation run.
func NewState() *State {
	return &State{
		includes:  sbuf.NewBuffer(),
		headers:   make(map[string]bool),
		clmulDone: make(map[string]bool),
	}
}

// NeedHeader records that name.h is required, exactly once per State no
// matter how many call sites (scattered across every phase of the main
// loop body) ask for it. Unlike the rest of this package's Emit*
// functions, the #include line itself is not written into whichever
// local buffer the caller happens to be building: a C #include is only
// legal at file scope, and the caller's local buffer may end up spliced
// deep inside a function body. Every requested header instead
// accumulates in a buffer of its own, retrieved once via Includes and
// spliced at the top of the file by the caller.
func (s *State) NeedHeader(name string) {
	if s.headers[name] {
		return
	}
	s.headers[name] = true
	s.includes.Printf("#include <%s.h>\n", name)
}

// Includes returns the buffer holding every #include line requested so
// far via NeedHeader, for the caller to splice at file scope.
func (s *State) Includes() *sbuf.Buffer {
	return s.includes
}

func (s *State) clmulKey(which string, tag Tag) string {
	return which + "/" + tag.String()
}

func (s *State) clmulPending(which string, tag Tag) bool {
	key := s.clmulKey(which, tag)
	if s.clmulDone[key] {
		return false
	}
	s.clmulDone[key] = true
	return true
}
