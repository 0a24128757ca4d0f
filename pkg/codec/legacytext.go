package codec

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// decodeLegacyText defensively decodes text-format inputs that may have
// been written by older vendor tools in a single-byte Latin-1 encoding
// instead of UTF-8 (SPE and ASCII-SPC files in the wild do this). Valid
// UTF-8 input passes through unchanged.
func decodeLegacyText(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return data
	}
	return out
}
