// internal/escpos/hex.go
package escpos

import (
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"
)

var hexPrefixes = strings.NewReplacer("0x", "", "0X", "")

// ParseHex accepts hex digits separated by whitespace, commas, colons or
// dashes, with optional 0x prefixes on any byte, as produced by hex dumps of
// captured print jobs
func ParseHex(s string) ([]byte, error) {
	var b strings.Builder
	for _, field := range strings.FieldsFunc(s, isHexSeparator) {
		b.WriteString(hexPrefixes.Replace(field))
	}

	data, err := hex.DecodeString(b.String())
	if err != nil {
		return nil, fmt.Errorf("invalid hex input: %w", err)
	}
	return data, nil
}

func isHexSeparator(r rune) bool {
	return unicode.IsSpace(r) || r == ',' || r == ':' || r == '-'
}
