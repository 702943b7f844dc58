// internal/escpos/catalog.go
package escpos

import (
	"bytes"
	"fmt"
	"strings"
)

// Control bytes recognized by the decoder
const (
	HT  byte = 0x09
	LF  byte = 0x0A
	CR  byte = 0x0D
	ESC byte = 0x1B
	GS  byte = 0x1D

	// vendorPrefix starts the 1F 1B 1F configuration extensions
	vendorPrefix byte = 0x1F
)

var vendorIntro = []byte{0x1F, 0x1B, 0x1F}

// lengthFunc returns the number of parameter bytes a command consumes, given
// the bytes that follow its opcode. ok is false when more bytes are needed to
// know the length.
type lengthFunc func(rest []byte) (n int, ok bool)

type entry struct {
	name   string
	length lengthFunc
	build  func(p []byte) Command
}

func fixed(n int) lengthFunc {
	return func([]byte) (int, bool) { return n, true }
}

// catalog maps prefix and opcode to a command definition
var catalog = map[byte]map[byte]entry{
	ESC: {
		'@': {name: "initialize", length: fixed(0), build: label("Initialize Printer")},
		'!': {name: "print_mode", length: fixed(1), build: printMode},
		'E': {name: "bold", length: fixed(1), build: toggle("Bold")},
		'-': {name: "underline", length: fixed(1), build: underline},
		'M': {name: "font", length: fixed(1), build: font},
		't': {name: "code_table", length: fixed(1), build: codeTable},
		'a': {name: "justification", length: fixed(1), build: justification},
		'p': {name: "pulse_drawer", length: fixed(3), build: pulseDrawer},
		'J': {name: "feed_dots", length: fixed(1), build: feed("dots")},
		'd': {name: "feed_lines", length: fixed(1), build: feed("lines")},
		'2': {name: "default_line_spacing", length: fixed(0), build: label("Set Default Line Spacing")},
		'3': {name: "line_spacing", length: fixed(1), build: number("Set Line Spacing (%d dots)")},
		' ': {name: "right_spacing", length: fixed(1), build: number("Set Right-Side Spacing (n=%d)")},
		'G': {name: "double_strike", length: fixed(1), build: toggle("Double Strike")},
		'R': {name: "international_charset", length: fixed(1), build: number("Select International Character Set (n=%d)")},
		'{': {name: "upside_down", length: fixed(1), build: toggle("Upside-Down")},
	},
	GS: {
		'B': {name: "invert", length: fixed(1), build: toggle("Invert")},
		'!': {name: "char_size", length: fixed(1), build: charSize},
		'V': {name: "cut", length: cutLength, build: cut},
		'/': {name: "nv_bit_image", length: fixed(1), build: number("Print NV Bit Image (mode=%d)")},
		'H': {name: "hri_position", length: fixed(1), build: hriPosition},
		'W': {name: "print_area_width", length: fixed(2), build: word("Set Print Area Width (%d dots)")},
		'L': {name: "left_margin", length: fixed(2), build: word("Set Left Margin (%d dots)")},
		'h': {name: "barcode_height", length: fixed(1), build: number("Set Barcode Height (%d dots)")},
		'w': {name: "barcode_width", length: fixed(1), build: number("Set Barcode Width (n=%d)")},
		'k': {name: "barcode", length: barcodeLength, build: barcode},
		'(': {name: "extended", length: extendedLength, build: extended},
		'v': {name: "raster_image", length: rasterLength, build: raster},
	},
}

// lookup returns the catalog entry for a prefix and opcode
func lookup(prefix, opcode byte) (entry, bool) {
	e, ok := catalog[prefix][opcode]
	return e, ok
}

// extension describes a 1F 1B 1F vendor command: a literal marker after the
// sub-command byte, followed by a fixed payload.
type extension struct {
	name       string
	marker     []byte
	payload    int
	incomplete string
	build      func(payload []byte) Command
}

var extensions = map[byte]extension{
	0x91: {
		name:       "set_ip_address",
		marker:     []byte{0x00, 0x49, 0x50},
		payload:    4,
		incomplete: "Incomplete Set IP Command",
		build:      setIPAddress,
	},
	0xBF: {
		name:       "set_baud_rate",
		payload:    2,
		incomplete: "Incomplete Set Baud Rate Command",
		build:      setBaudRate,
	},
}

// matchMarker reports whether rest is consistent with the extension marker:
// full reports that the whole marker is present.
func (x extension) matchMarker(rest []byte) (consistent, full bool) {
	n := min(len(rest), len(x.marker))
	if !bytes.Equal(rest[:n], x.marker[:n]) {
		return false, false
	}
	return true, n == len(x.marker)
}

var baudRates = map[[2]byte]string{
	{0x48, 0x00}: "9600",
	{0x08, 0x00}: "19200",
	{0xC8, 0x00}: "38400",
	{0x88, 0x00}: "115200",
}

func label(text string) func([]byte) Command {
	return func([]byte) Command {
		return Command{Label: text}
	}
}

func number(format string) func([]byte) Command {
	return func(p []byte) Command {
		return Command{Label: fmt.Sprintf(format, p[0]), Params: map[string]any{"n": int(p[0])}}
	}
}

func word(format string) func([]byte) Command {
	return func(p []byte) Command {
		v := int(p[0]) | int(p[1])<<8
		return Command{Label: fmt.Sprintf(format, v), Params: map[string]any{"value": v}}
	}
}

// toggle follows the ESC/POS rule that only the least significant bit counts
func toggle(name string) func([]byte) Command {
	return func(p []byte) Command {
		on := p[0]&0x01 == 1
		state := "Off"
		if on {
			state = "On"
		}
		return Command{Label: name + " " + state, Params: map[string]any{"enabled": on}}
	}
}

func printMode(p []byte) Command {
	return Command{
		Label:  fmt.Sprintf("Set Print Mode (n=0x%02X)", p[0]),
		Params: map[string]any{"n": int(p[0])},
	}
}

func underline(p []byte) Command {
	n := p[0]
	params := map[string]any{"n": int(n)}
	switch n {
	case 0, '0':
		params["thickness"] = 0
		return Command{Label: "Underline Off", Params: params}
	case 1, '1':
		params["thickness"] = 1
		return Command{Label: "Underline On (1-dot)", Params: params}
	case 2, '2':
		params["thickness"] = 2
		return Command{Label: "Underline On (2-dot)", Params: params}
	default:
		return Command{Label: fmt.Sprintf("Set Underline (n=%d)", n), Params: params}
	}
}

func font(p []byte) Command {
	f := "A"
	if p[0] == 1 || p[0] == '1' {
		f = "B"
	}
	return Command{Label: "Select Font " + f, Params: map[string]any{"font": f}}
}

func codeTable(p []byte) Command {
	params := map[string]any{"n": int(p[0])}
	if cp, ok := ResolveCodepage(int(p[0])); ok {
		params["codepage"] = cp.String()
	}
	return Command{
		Label:  fmt.Sprintf("Select Code Table (n=%d)", p[0]),
		Params: params,
		Effect: EffectCodepage,
	}
}

func justification(p []byte) Command {
	n := p[0]
	var align string
	switch n {
	case 0, '0':
		align = "Left"
	case 1, '1':
		align = "Center"
	case 2, '2':
		align = "Right"
	default:
		return Command{Label: fmt.Sprintf("Select Justification (n=%d)", n), Params: map[string]any{"n": int(n)}}
	}
	return Command{Label: "Align " + align, Params: map[string]any{"n": int(n), "align": strings.ToLower(align)}}
}

func pulseDrawer(p []byte) Command {
	on, off := int(p[1])*2, int(p[2])*2
	return Command{
		Label:  fmt.Sprintf("Pulse Drawer (pin=%d, onTime=%dms, offTime=%dms)", p[0], on, off),
		Params: map[string]any{"pin": int(p[0]), "on_time_ms": on, "off_time_ms": off},
	}
}

func feed(unit string) func([]byte) Command {
	return func(p []byte) Command {
		return Command{
			Label:  fmt.Sprintf("Print and Feed Paper (%d %s)", p[0], unit),
			Params: map[string]any{"n": int(p[0]), "unit": unit},
			Effect: EffectFeed,
		}
	}
}

func charSize(p []byte) Command {
	w, h := int(p[0]>>4&0x0F)+1, int(p[0]&0x0F)+1
	return Command{
		Label:  fmt.Sprintf("Set Char Size (Wx%d Hx%d)", w, h),
		Params: map[string]any{"width": w, "height": h},
	}
}

// cutParamModes take one trailing parameter byte (feed amount before cutting)
var cutParamModes = map[byte]bool{0x41: true, 0x42: true, 0x61: true, 0x62: true, 0x67: true, 0x68: true}

func cutLength(rest []byte) (int, bool) {
	if len(rest) == 0 {
		return 1, false
	}
	if cutParamModes[rest[0]] {
		return 2, true
	}
	return 1, true
}

func cut(p []byte) Command {
	mode := p[0]
	var text string
	switch mode {
	case 0x00, 0x30:
		text = "Full Cut"
	case 0x01, 0x31:
		text = "Partial Cut"
	case 0x41:
		text = "Full Cut (mode A)"
	case 0x42:
		text = "Partial Cut (mode B)"
	default:
		text = fmt.Sprintf("Paper Cut (mode=0x%02X)", mode)
	}

	params := map[string]any{"mode": int(mode)}
	if len(p) > 1 {
		text += fmt.Sprintf(" (with param 0x%02X)", p[1])
		params["param"] = int(p[1])
	}
	return Command{Label: text, Params: params, Effect: EffectCut}
}

func hriPosition(p []byte) Command {
	n := p[0]
	var text string
	switch n {
	case 0, '0':
		text = "HRI Text Off"
	case 1, '1':
		text = "HRI Above Barcode"
	case 2, '2':
		text = "HRI Below Barcode"
	case 3, '3':
		text = "HRI Above & Below Barcode"
	default:
		text = fmt.Sprintf("HRI Pos=%d", n)
	}
	return Command{Label: text, Params: map[string]any{"n": int(n)}}
}

// barcodeLength handles both GS k forms: NUL-terminated data for m <= 6 and
// length-prefixed data for m >= 65.
func barcodeLength(rest []byte) (int, bool) {
	if len(rest) == 0 {
		return 1, false
	}
	m := rest[0]
	switch {
	case m <= 6:
		end := bytes.IndexByte(rest[1:], 0x00)
		if end < 0 {
			return len(rest) + 1, false
		}
		return end + 2, true
	case m >= 65:
		if len(rest) < 2 {
			return 2, false
		}
		return 2 + int(rest[1]), true
	default:
		return 1, true
	}
}

func barcode(p []byte) Command {
	m := p[0]
	var data []byte
	switch {
	case m <= 6:
		data = p[1 : len(p)-1]
	case m >= 65:
		data = p[2:]
	}
	return Command{
		Label:  fmt.Sprintf("Print Barcode (type=%d, data=%q)", m, data),
		Params: map[string]any{"type": int(m), "data": string(data)},
	}
}

// extendedLength covers GS ( fn pL pH d1...dk
func extendedLength(rest []byte) (int, bool) {
	if len(rest) < 3 {
		return 3, false
	}
	return 3 + (int(rest[1]) | int(rest[2])<<8), true
}

func extended(p []byte) Command {
	fn := p[0]
	size := len(p) - 3
	params := map[string]any{"function": string(rune(fn)), "size": size}
	if fn == 'k' && size >= 2 {
		params["cn"] = int(p[3])
		params["fn"] = int(p[4])
		return Command{
			Label:  fmt.Sprintf("2D Symbol Command (cn=%d, fn=%d, %d bytes)", p[3], p[4], size),
			Params: params,
		}
	}
	return Command{Label: fmt.Sprintf("Extended Command (GS ( %c, %d bytes)", fn, size), Params: params}
}

// rasterLength covers GS v 0 m xL xH yL yH d1...dk
func rasterLength(rest []byte) (int, bool) {
	if len(rest) == 0 {
		return 1, false
	}
	if rest[0] != '0' {
		return 1, true
	}
	if len(rest) < 6 {
		return 6, false
	}
	width := int(rest[2]) | int(rest[3])<<8
	height := int(rest[4]) | int(rest[5])<<8
	return 6 + width*height, true
}

func raster(p []byte) Command {
	if p[0] != '0' {
		return Command{Label: fmt.Sprintf("Raster Command (fn=0x%02X)", p[0]), Params: map[string]any{"function": int(p[0])}}
	}
	width := int(p[2]) | int(p[3])<<8
	height := int(p[4]) | int(p[5])<<8
	return Command{
		Label:  fmt.Sprintf("Print Raster Image (mode=%d, %dx%d)", p[1], width*8, height),
		Params: map[string]any{"mode": int(p[1]), "width_bytes": width, "height_dots": height},
	}
}

func setIPAddress(payload []byte) Command {
	ip := fmt.Sprintf("%d.%d.%d.%d", payload[0], payload[1], payload[2], payload[3])
	return Command{Label: fmt.Sprintf("Set IP Address (%s)", ip), Params: map[string]any{"ip": ip}}
}

func setBaudRate(payload []byte) Command {
	rate, ok := baudRates[[2]byte{payload[0], payload[1]}]
	if !ok {
		rate = "Unknown Baud"
	}
	return Command{
		Label:  fmt.Sprintf("Set Baud Rate (%s - 0x%02X 0x%02X)", rate, payload[0], payload[1]),
		Params: map[string]any{"baud_rate": rate},
	}
}
