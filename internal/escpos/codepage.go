// internal/escpos/codepage.go
package escpos

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Codepage identifies a single-byte text decoding scheme supported by the decoder
type Codepage int

// Supported codepages
const (
	Latin1 Codepage = iota
	CP437
	CP850
	CP858
	CP866
	Windows1251
	Windows1252
)

type codepageInfo struct {
	name    string
	scheme  string
	charmap *charmap.Charmap
}

var codepages = map[Codepage]codepageInfo{
	Latin1:      {name: "latin1", scheme: "ISO Latin-1", charmap: charmap.ISO8859_1},
	CP437:       {name: "cp437", scheme: "DOS-US", charmap: charmap.CodePage437},
	CP850:       {name: "cp850", scheme: "DOS-Multilingual", charmap: charmap.CodePage850},
	CP858:       {name: "cp858", scheme: "DOS Multilingual (Euro)", charmap: charmap.CodePage858},
	CP866:       {name: "cp866", scheme: "DOS Cyrillic #2", charmap: charmap.CodePage866},
	Windows1251: {name: "windows-1251", scheme: "Windows Cyrillic", charmap: charmap.Windows1251},
	Windows1252: {name: "windows-1252", scheme: "Windows Latin-1", charmap: charmap.Windows1252},
}

// codeTables maps ESC t table numbers to codepages, as observed on printer firmware
var codeTables = map[int]Codepage{
	0:  CP437,
	2:  CP850,
	16: Windows1252,
	17: CP866,
	19: CP858,
	20: Windows1251,
	66: Windows1251,
	67: CP866,
}

var codepageAliases = map[string]Codepage{
	"latin1":       Latin1,
	"latin-1":      Latin1,
	"iso-8859-1":   Latin1,
	"iso8859-1":    Latin1,
	"cp437":        CP437,
	"ibm437":       CP437,
	"dos-us":       CP437,
	"cp850":        CP850,
	"ibm850":       CP850,
	"cp858":        CP858,
	"ibm858":       CP858,
	"cp866":        CP866,
	"ibm866":       CP866,
	"windows-1251": Windows1251,
	"win1251":      Windows1251,
	"cp1251":       Windows1251,
	"windows-1252": Windows1252,
	"win1252":      Windows1252,
	"cp1252":       Windows1252,
}

// ResolveCodepage maps an ESC t table number to a codepage. The boolean is false
// when the firmware table number is not known.
func ResolveCodepage(id int) (Codepage, bool) {
	cp, ok := codeTables[id]
	return cp, ok
}

// ParseCodepage looks up a codepage by its configuration name (case-insensitive)
func ParseCodepage(name string) (Codepage, error) {
	cp, ok := codepageAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unsupported codepage: %q", name)
	}
	return cp, nil
}

// TableID returns the lowest ESC t table number selecting the codepage
func (c Codepage) TableID() (int, bool) {
	id, found := 0, false
	for n, cp := range codeTables {
		if cp == c && (!found || n < id) {
			id, found = n, true
		}
	}
	return id, found
}

// CodeTable describes one firmware code table mapping
type CodeTable struct {
	ID       int    `json:"id"`
	Codepage string `json:"codepage"`
	Scheme   string `json:"scheme"`
}

// CodeTables lists the known ESC t table numbers in ascending order
func CodeTables() []CodeTable {
	ids := make([]int, 0, len(codeTables))
	for id := range codeTables {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	tables := make([]CodeTable, 0, len(ids))
	for _, id := range ids {
		cp := codeTables[id]
		tables = append(tables, CodeTable{ID: id, Codepage: cp.String(), Scheme: cp.Scheme()})
	}
	return tables
}

// Supported reports whether the codepage has a decoding table
func (c Codepage) Supported() bool {
	_, ok := codepages[c]
	return ok
}

// String returns the configuration name of the codepage
func (c Codepage) String() string {
	if info, ok := codepages[c]; ok {
		return info.name
	}
	return fmt.Sprintf("codepage(%d)", int(c))
}

// Scheme returns the human-readable scheme name
func (c Codepage) Scheme() string {
	if info, ok := codepages[c]; ok {
		return info.scheme
	}
	return "unsupported"
}

// FileLabel returns the upper-case name used in output file names
func (c Codepage) FileLabel() string {
	return strings.ToUpper(c.String())
}

// Decode converts bytes to text. When the codepage has no decoding table the
// bytes are decoded as Latin-1 and ok is false.
func (c Codepage) Decode(b []byte) (text string, ok bool) {
	info, ok := codepages[c]
	cm := info.charmap
	if !ok {
		cm = charmap.ISO8859_1
	}

	var sb strings.Builder
	sb.Grow(len(b))
	for _, x := range b {
		sb.WriteRune(cm.DecodeByte(x))
	}
	return sb.String(), ok
}

// Encode converts text to bytes, replacing runes the codepage cannot represent with '?'
func (c Codepage) Encode(s string) []byte {
	cm := charmap.ISO8859_1
	if info, ok := codepages[c]; ok {
		cm = info.charmap
	}

	out := make([]byte, 0, len(s))
	for _, r := range s {
		if b, ok := cm.EncodeRune(r); ok {
			out = append(out, b)
			continue
		}
		out = append(out, '?')
	}
	return out
}

// MarshalText implements encoding.TextMarshaler
func (c Codepage) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}
