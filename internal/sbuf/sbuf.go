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

// Package sbuf implements an append-only, order-independent text buffer:
// callers can splice in a child buffer (and keep writing to it later) or
// reserve a slot backed by a callback that only runs at flush time, then
// flush the whole tree to a writer through a brace-aware indenting filter.
//
// This is the Go-native rendering of the "deferred string buffer" pattern:
// where a C implementation has to encode a tagged union (literal text vs.
// a pointer to another buffer vs. a function pointer) inline in a flat,
// growable byte array using NUL-prefixed control records, Go's slices and
// closures let each buffer just hold a typed list of segments. Because
// every write happens before the single terminal Flush call (see
// package-level comment on ownership in internal/gen), a spliced child can
// keep growing by pointer after NewChild returns, with no need for the
// original's save/restore-position bookkeeping.
package sbuf

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// segment is one entry in a Buffer's ordered content list.
type segment struct {
	text  string
	child *Buffer
	fn    func(*Buffer)
}

// Buffer is an append-only sequence of text and deferred children.
type Buffer struct {
	segs []segment
}

// NewBuffer returns an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// WriteString appends literal text.
func (b *Buffer) WriteString(s string) {
	if s == "" {
		return
	}
	b.segs = append(b.segs, segment{text: s})
}

// WriteLit appends a compile-time-constant literal. It behaves exactly
// like WriteString; the distinct name documents, at call sites, that the
// argument is a fixed string rather than one built up at generation time
// (mirroring the original's put_lit macro vs. its put_str function).
func (b *Buffer) WriteLit(s string) {
	b.WriteString(s)
}

// FormatError reports a malformed call to Printf: an unsupported verb, or
// an argument of the wrong type for its verb. Every format string in this
// module is a fixed literal, so a FormatError can only mean a programming
// mistake in the generator itself, not bad user input; callers are not
// expected to recover from it (see internal/gen's top-level recover, which
// converts it to a *gen.FatalError the same way the original's FATAL()
// macro treated a bad format character as a fatal internal error).
type FormatError struct {
	Format string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("sbuf: bad format %q: %s", e.Format, e.Reason)
}

// Printf appends formatted text. It supports exactly three verbs: %s
// (string), %u (unsigned decimal, from a uint64, uint32, uint, int, int32
// or int64 argument), and %x
// (zero-padded 8-hex-digit, from a uint32 argument), plus the literal
// escape %%. Any other verb, or an argument of the wrong type, panics with
// a *FormatError.
func (b *Buffer) Printf(format string, args ...interface{}) {
	var sb strings.Builder
	ai := 0
	next := func() interface{} {
		if ai >= len(args) {
			panic(&FormatError{Format: format, Reason: "not enough arguments"})
		}
		v := args[ai]
		ai++
		return v
	}
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			sb.WriteByte(c)
			continue
		}
		i++
		if i >= len(format) {
			panic(&FormatError{Format: format, Reason: "trailing %"})
		}
		switch format[i] {
		case 's':
			sb.WriteString(toStringArg(next()))
		case 'u':
			sb.WriteString(strconv.FormatUint(toUint64Arg(next()), 10))
		case 'x':
			sb.WriteString(fmt.Sprintf("%08x", toUint32Arg(next())))
		case '%':
			sb.WriteByte('%')
		default:
			panic(&FormatError{Format: format, Reason: fmt.Sprintf("bad format char %c", format[i])})
		}
	}
	b.WriteString(sb.String())
}

func toStringArg(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		panic(&FormatError{Reason: fmt.Sprintf("%%s argument has non-string type %T", v)})
	}
}

func toUint64Arg(v interface{}) uint64 {
	switch t := v.(type) {
	case uint64:
		return t
	case uint32:
		return uint64(t)
	case uint:
		return uint64(t)
	case int:
		return uint64(t)
	case int32:
		return uint64(t)
	case int64:
		return uint64(t)
	default:
		panic(&FormatError{Reason: fmt.Sprintf("%%u argument has non-integer type %T", v)})
	}
}

func toUint32Arg(v interface{}) uint32 {
	switch t := v.(type) {
	case uint32:
		return t
	case uint64:
		return uint32(t)
	case uint:
		return uint32(t)
	case int:
		return uint32(t)
	default:
		panic(&FormatError{Reason: fmt.Sprintf("%%x argument has non-integer type %T", v)})
	}
}

// NewChild splices a new, initially-empty child buffer into the sequence
// and returns it. Text written to the parent before this call precedes
// the child's content in the flushed output; text written after this call
// follows it. The caller may keep writing to the returned buffer at any
// point before Flush is called, including after writing more to the
// parent (equivalent to the original's put_new_sbuf).
func (b *Buffer) NewChild() *Buffer {
	child := &Buffer{}
	b.segs = append(b.segs, segment{child: child})
	return child
}

// Append splices an already-built buffer in at the current position (the
// original's put_deferred_sbuf, for callers that build a whole helper
// off to the side and then place it once, as opposed to NewChild's
// build-in-place-as-you-go pattern).
func (b *Buffer) Append(child *Buffer) {
	b.segs = append(b.segs, segment{child: child})
}

// Defer reserves a lazily-populated slot: at flush time, fn is invoked
// with a fresh child buffer to populate, and that buffer's content is
// flushed in its place. This is used for content whose presence in the
// output is conditional on something discovered after this call site (the
// CRC lookup table is the motivating case: its position must be pinned
// early, above its potential consumers, but it should only appear at all
// if some scalar helper ends up requesting it).
func (b *Buffer) Defer(fn func(*Buffer)) {
	b.segs = append(b.segs, segment{fn: fn})
}

// Flush walks the buffer tree in depth-first, left-to-right order and
// writes it to w, applying brace-aware auto-indentation to every literal
// text segment via an IndentWriter shared across the whole tree.
func (b *Buffer) Flush(w io.Writer) error {
	iw := NewIndentWriter(w)
	if err := b.flushInto(iw); err != nil {
		return err
	}
	return iw.Close()
}

func (b *Buffer) flushInto(iw *IndentWriter) error {
	for i := range b.segs {
		seg := &b.segs[i]
		switch {
		case seg.child != nil:
			if err := seg.child.flushInto(iw); err != nil {
				return err
			}
		case seg.fn != nil:
			child := NewBuffer()
			seg.fn(child)
			if err := child.flushInto(iw); err != nil {
				return err
			}
		default:
			if err := iw.WriteString(seg.text); err != nil {
				return err
			}
		}
	}
	return nil
}
