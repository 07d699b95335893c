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

package polyname

import "testing"

func TestParseNamedVariantsAreCaseInsensitive(t *testing.T) {
	for _, spelling := range []string{"crc32c", "CRC32C", "Crc32C"} {
		got, err := Parse(spelling)
		if err != nil {
			t.Fatalf("Parse(%q): %v", spelling, err)
		}
		if got != CRC32C {
			t.Errorf("Parse(%q) = %#x, want %#x", spelling, got, CRC32C)
		}
	}
}

func TestParseHexLiteralIsReversed(t *testing.T) {
	// The CRC-32 polynomial's forward form is 0x04C11DB7; parsing it as a
	// hex literal must produce the same reversed constant as the named
	// "crc32" form.
	got, err := Parse("0x04C11DB7")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got != CRC32 {
		t.Errorf("Parse(0x04C11DB7) = %#x, want %#x", got, CRC32)
	}
}

func TestParseHexLiteralWithoutPrefix(t *testing.T) {
	got, err := Parse("1EDC6F41")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got != CRC32C {
		t.Errorf("Parse(1EDC6F41) = %#x, want %#x", got, CRC32C)
	}
}

func TestParseRejectsWrongLength(t *testing.T) {
	if _, err := Parse("ABC"); err == nil {
		t.Fatal("Parse(\"ABC\") succeeded, want error")
	}
}

func TestParseRejectsNonHex(t *testing.T) {
	if _, err := Parse("zzzzzzzz"); err == nil {
		t.Fatal("Parse(\"zzzzzzzz\") succeeded, want error")
	}
}
