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

// Package polyname resolves the -polynomial CLI flag, either one of a
// handful of well-known named CRC-32 variants or a forward-bit-order hex
// literal, into the reversed 32-bit representation the rest of the
// generator works in.
package polyname

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/crc32gen/crc32gen/internal/gf2"
)

// Named reversed polynomials for the CRC variants the generator ships
// hardware-instruction bindings for (CRC-32, CRC-32C) plus a few other
// commonly requested ones exposed only through the table/PCLMULQDQ path.
const (
	CRC32  = 0xedb88320
	CRC32C = 0x82f63b78
	CRC32K = 0xeb31d82e
	CRC32K2 = 0x992c1a4c
	CRC32Q = 0xd5828281
)

var named = map[string]uint32{
	"crc32":   CRC32,
	"crc32c":  CRC32C,
	"crc32k":  CRC32K,
	"crc32k2": CRC32K2,
	"crc32q":  CRC32Q,
}

// Parse resolves value to a reversed 32-bit polynomial. Recognised names
// are case-insensitive; anything else is parsed as an 8-hex-digit
// forward-bit-order literal (an optional "0x"/"0X" prefix is accepted)
// and reversed via gf2.Reverse32, matching the convention every other
// package in the generator works in.
func Parse(value string) (uint32, error) {
	if p, ok := named[strings.ToLower(value)]; ok {
		return p, nil
	}

	hex := value
	if len(hex) > 2 && hex[0] == '0' && (hex[1] == 'x' || hex[1] == 'X') {
		hex = hex[2:]
	}
	if len(hex) != 8 {
		return 0, fmt.Errorf("polyname: polynomial %q must be a named variant or an 8-digit hex literal", value)
	}
	forward, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("polyname: invalid polynomial %q: %w", value, err)
	}
	return gf2.Reverse32(uint32(forward)), nil
}
