package escpos

import (
	"bytes"
	"reflect"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// reassemble concatenates the bytes covered by tokens, filling gaps with the
// carriage returns the decoder consumes silently.
func reassemble(t *testing.T, data []byte, tokens []Token) []byte {
	t.Helper()
	var out []byte
	pos := 0
	for i, tok := range tokens {
		if tok.Offset < pos {
			t.Fatalf("token %d at offset %d overlaps previous token ending at %d", i, tok.Offset, pos)
		}
		for ; pos < tok.Offset; pos++ {
			if data[pos] != CR {
				t.Fatalf("byte 0x%02X at offset %d not covered by any token", data[pos], pos)
			}
			out = append(out, data[pos])
		}
		if !bytes.Equal(tok.Raw, data[tok.Offset:tok.Offset+len(tok.Raw)]) {
			t.Fatalf("token %d raw bytes do not match input at offset %d", i, tok.Offset)
		}
		out = append(out, tok.Raw...)
		pos = tok.Offset + len(tok.Raw)
	}
	for ; pos < len(data); pos++ {
		if data[pos] != CR {
			t.Fatalf("trailing byte 0x%02X at offset %d not covered", data[pos], pos)
		}
		out = append(out, data[pos])
	}
	return out
}

func tags(tokens []Token) []string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if tok.Kind == TokenText {
			text, _ := tok.Text()
			out = append(out, "text:"+text)
			continue
		}
		if tok.Kind == TokenLineBreak {
			out = append(out, "LF")
			continue
		}
		out = append(out, tok.Tag())
	}
	return out
}

func TestDecodeRoundTripScenario(t *testing.T) {
	data := []byte{0x1B, 0x40, 0x48, 0x65, 0x6C, 0x6C, 0x6F, 0x0A}
	tokens := Decode(data, Windows1252)

	if len(tokens) != 3 {
		t.Fatalf("len(tokens) = %d, want 3", len(tokens))
	}
	if tokens[0].Kind != TokenCommand || tokens[0].Command.Label != "Initialize Printer" {
		t.Errorf("tokens[0] = %v, want Initialize Printer command", tokens[0].Tag())
	}
	if text, _ := tokens[1].Text(); tokens[1].Kind != TokenText || text != "Hello" {
		t.Errorf("tokens[1] = %q, want text Hello", text)
	}
	if tokens[2].Kind != TokenLineBreak {
		t.Errorf("tokens[2].Kind = %v, want line_break", tokens[2].Kind)
	}

	if got := RenderRichText(tokens); got != "<Initialize Printer>\nHello\n" {
		t.Errorf("RenderRichText() = %q", got)
	}
	if got := RenderPlainText(tokens, Windows1251); string(got) != "Hello" {
		t.Errorf("RenderPlainText() = %q, want %q", got, "Hello")
	}
}

func TestDecodeCommands(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want []string
	}{
		{"full cut mode 0", []byte{0x1D, 0x56, 0x00}, []string{"Full Cut"}},
		{"full cut ascii", []byte{0x1D, 0x56, 0x30}, []string{"Full Cut"}},
		{"partial cut", []byte{0x1D, 0x56, 0x31}, []string{"Partial Cut"}},
		{"cut without param keeps next byte", []byte{0x1D, 0x56, 0x00, 0x41}, []string{"Full Cut", "text:A"}},
		{"cut mode A with param", []byte{0x1D, 0x56, 0x41, 0x03}, []string{"Full Cut (mode A) (with param 0x03)"}},
		{"cut mode B with param", []byte{0x1D, 0x56, 0x42, 0x00}, []string{"Partial Cut (mode B) (with param 0x00)"}},
		{"cut vendor mode", []byte{0x1D, 0x56, 0x61, 0x05}, []string{"Paper Cut (mode=0x61) (with param 0x05)"}},
		{"cut unknown mode", []byte{0x1D, 0x56, 0x07}, []string{"Paper Cut (mode=0x07)"}},
		{"print mode", []byte{0x1B, 0x21, 0x08}, []string{"Set Print Mode (n=0x08)"}},
		{"bold on", []byte{0x1B, 0x45, 0x01}, []string{"Bold On"}},
		{"bold off", []byte{0x1B, 0x45, 0x00}, []string{"Bold Off"}},
		{"underline off", []byte{0x1B, 0x2D, 0x30}, []string{"Underline Off"}},
		{"underline 1-dot", []byte{0x1B, 0x2D, 0x01}, []string{"Underline On (1-dot)"}},
		{"underline 2-dot", []byte{0x1B, 0x2D, 0x32}, []string{"Underline On (2-dot)"}},
		{"underline other", []byte{0x1B, 0x2D, 0x07}, []string{"Set Underline (n=7)"}},
		{"font A", []byte{0x1B, 0x4D, 0x00}, []string{"Select Font A"}},
		{"font B", []byte{0x1B, 0x4D, 0x31}, []string{"Select Font B"}},
		{"code table", []byte{0x1B, 0x74, 0x13}, []string{"Select Code Table (n=19)"}},
		{"align left", []byte{0x1B, 0x61, 0x00}, []string{"Align Left"}},
		{"align center", []byte{0x1B, 0x61, 0x31}, []string{"Align Center"}},
		{"align right", []byte{0x1B, 0x61, 0x02}, []string{"Align Right"}},
		{"align other", []byte{0x1B, 0x61, 0x09}, []string{"Select Justification (n=9)"}},
		{"pulse drawer", []byte{0x1B, 0x70, 0x00, 0x19, 0x19}, []string{"Pulse Drawer (pin=0, onTime=50ms, offTime=50ms)"}},
		{"feed dots", []byte{0x1B, 0x4A, 0x40}, []string{"Print and Feed Paper (64 dots)"}},
		{"feed lines", []byte{0x1B, 0x64, 0x03}, []string{"Print and Feed Paper (3 lines)"}},
		{"invert on", []byte{0x1D, 0x42, 0x01}, []string{"Invert On"}},
		{"char size", []byte{0x1D, 0x21, 0x11}, []string{"Set Char Size (Wx2 Hx2)"}},
		{"nv bit image", []byte{0x1D, 0x2F, 0x01}, []string{"Print NV Bit Image (mode=1)"}},
		{"hri below", []byte{0x1D, 0x48, 0x02}, []string{"HRI Below Barcode"}},
		{"hri both", []byte{0x1D, 0x48, 0x33}, []string{"HRI Above & Below Barcode"}},
		{"hri other", []byte{0x1D, 0x48, 0x09}, []string{"HRI Pos=9"}},
		{"line spacing", []byte{0x1B, 0x33, 0x1E}, []string{"Set Line Spacing (30 dots)"}},
		{"left margin", []byte{0x1D, 0x4C, 0x10, 0x01}, []string{"Set Left Margin (272 dots)"}},
		{"barcode nul terminated", []byte{0x1D, 0x6B, 0x04, '1', '2', '3', 0x00, 'X'}, []string{`Print Barcode (type=4, data="123")`, "text:X"}},
		{"barcode length prefixed", []byte{0x1D, 0x6B, 0x49, 0x03, 'a', 'b', 'c'}, []string{`Print Barcode (type=73, data="abc")`}},
		{"2d symbol", []byte{0x1D, 0x28, 0x6B, 0x03, 0x00, 0x31, 0x43, 0x05}, []string{"2D Symbol Command (cn=49, fn=67, 3 bytes)"}},
		{"raster image", []byte{0x1D, 0x76, 0x30, 0x00, 0x01, 0x00, 0x02, 0x00, 0xAA, 0xBB, 'Z'}, []string{"Print Raster Image (mode=0, 8x2)", "text:Z"}},
		{"set ip address", []byte{0x1F, 0x1B, 0x1F, 0x91, 0x00, 0x49, 0x50, 0xC0, 0xA8, 0x00, 0x0A}, []string{"Set IP Address (192.168.0.10)"}},
		{"set baud rate", []byte{0x1F, 0x1B, 0x1F, 0xBF, 0x48, 0x00}, []string{"Set Baud Rate (9600 - 0x48 0x00)"}},
		{"set baud rate unknown", []byte{0x1F, 0x1B, 0x1F, 0xBF, 0x01, 0x02}, []string{"Set Baud Rate (Unknown Baud - 0x01 0x02)"}},
		{"unknown vendor sequence", []byte{0x1F, 0x1B, 0x1F, 0x22, 'A'}, []string{"Unknown 1F 1B 1F sequence (subCmd=0x22)", "text:A"}},
		{"vendor marker mismatch", []byte{0x1F, 0x1B, 0x1F, 0x91, 0x01}, []string{"Unknown 1F 1B 1F sequence (subCmd=0x91)", "Control Char (0x01)"}},
		{"lone unit separator", []byte{0x1F, 'A'}, []string{"Control Char (0x1F)", "text:A"}},
		{"unknown ESC opcode", []byte{0x1B, 0xFF}, []string{"Unknown ESC Command (0x1B 0xFF)"}},
		{"unknown GS opcode", []byte{0x1D, 0x9A, 'A'}, []string{"Unknown GS Command (0x1D 0x9A)", "text:A"}},
		{"control char", []byte{'A', 0x07, 'B'}, []string{"text:A", "Control Char (0x07)", "text:B"}},
		{"carriage return", []byte{'A', '\r', '\n', 'B'}, []string{"text:A", "LF", "text:B"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := Decode(tt.data, Windows1252)
			if got := tags(tokens); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Decode(% X) = %q, want %q", tt.data, got, tt.want)
			}
			if got := reassemble(t, tt.data, tokens); !bytes.Equal(got, tt.data) {
				t.Errorf("reassembled % X, want % X", got, tt.data)
			}
		})
	}
}

func TestDecodeCutConsumesExactlyThreeBytes(t *testing.T) {
	tokens := Decode([]byte{0x1D, 0x56, 0x00}, CP437)
	if len(tokens) != 1 {
		t.Fatalf("len(tokens) = %d, want 1", len(tokens))
	}
	tok := tokens[0]
	if tok.Effect() != EffectCut {
		t.Errorf("Effect() = %v, want EffectCut", tok.Effect())
	}
	if len(tok.Raw) != 3 {
		t.Errorf("len(Raw) = %d, want 3", len(tok.Raw))
	}
	if tok.Command.Name != "cut" {
		t.Errorf("Command.Name = %q, want cut", tok.Command.Name)
	}
}

func TestDecodeUnknownOpcode(t *testing.T) {
	tokens := Decode([]byte{0x1B, 0xFF}, CP437)
	if len(tokens) != 1 {
		t.Fatalf("len(tokens) = %d, want 1", len(tokens))
	}
	tok := tokens[0]
	if tok.Kind != TokenUnknownCommand || tok.Prefix != 0x1B || tok.Opcode != 0xFF {
		t.Errorf("token = %+v, want UnknownCommand(0x1B, 0xFF)", tok)
	}
	if len(tok.Raw) != 2 {
		t.Errorf("len(Raw) = %d, want 2", len(tok.Raw))
	}
}

func TestDecodeTruncation(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want []string
	}{
		{"bare ESC", []byte{'A', 0x1B}, []string{"text:A", "Incomplete ESC"}},
		{"bare GS", []byte{0x1D}, []string{"Incomplete GS"}},
		{"missing code table", []byte{0x1B, 0x74}, []string{"Incomplete ESC t"}},
		{"short pulse", []byte{0x1B, 0x70, 0x00, 0x19}, []string{"Incomplete ESC p"}},
		{"missing cut mode", []byte{0x1D, 0x56}, []string{"Incomplete GS V"}},
		{"missing cut param", []byte{0x1D, 0x56, 0x41}, []string{"Incomplete GS V"}},
		{"unterminated barcode", []byte{0x1D, 0x6B, 0x04, '1', '2'}, []string{"Incomplete GS k"}},
		{"short raster", []byte{0x1D, 0x76, 0x30, 0x00, 0x02, 0x00, 0x02, 0x00, 0xFF}, []string{"Incomplete GS v"}},
		{"bare vendor intro", []byte{0x1F, 0x1B, 0x1F}, []string{"Incomplete 1F 1B 1F sequence"}},
		{"short ip marker", []byte{0x1F, 0x1B, 0x1F, 0x91, 0x00, 0x49}, []string{"Incomplete Set IP Command"}},
		{"short ip payload", []byte{0x1F, 0x1B, 0x1F, 0x91, 0x00, 0x49, 0x50, 0x0A}, []string{"Incomplete Set IP Command"}},
		{"short baud payload", []byte{0x1F, 0x1B, 0x1F, 0xBF, 0x48}, []string{"Incomplete Set Baud Rate Command"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := Decode(tt.data, Windows1252)
			if got := tags(tokens); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Decode(% X) = %q, want %q", tt.data, got, tt.want)
			}
			last := tokens[len(tokens)-1]
			if last.Kind != TokenIncompleteCommand {
				t.Errorf("last token kind = %v, want incomplete_command", last.Kind)
			}
			if end := last.Offset + len(last.Raw); end != len(tt.data) {
				t.Errorf("incomplete token ends at %d, want %d", end, len(tt.data))
			}
		})
	}
}

func TestDecodeRunMerging(t *testing.T) {
	tokens := Decode([]byte("AB\tCD"), CP437)
	if len(tokens) != 1 {
		t.Fatalf("len(tokens) = %d, want 1", len(tokens))
	}
	if text, _ := tokens[0].Text(); text != "AB\tCD" {
		t.Errorf("text = %q, want %q", text, "AB\tCD")
	}
}

func TestDecodeCodepagePersistence(t *testing.T) {
	// 0xD5 is "Õ" in Windows-1252 and "€" in CP858
	data := []byte{0xD5, 0x1B, 0x74, 19, 0xD5, 0x0A, 0xD5}
	tokens := Decode(data, Windows1252)

	want := []string{"text:Õ", "Select Code Table (n=19)", "text:€", "LF", "text:€"}
	if got := tags(tokens); !reflect.DeepEqual(got, want) {
		t.Fatalf("Decode() = %q, want %q", got, want)
	}
	if tokens[2].Codepage != CP858 || tokens[4].Codepage != CP858 {
		t.Errorf("codepages = %v, %v, want cp858", tokens[2].Codepage, tokens[4].Codepage)
	}
	if got := RenderRichText(tokens); got != "Õ\n<Select Code Table (n=19)>\n€\n€" {
		t.Errorf("RenderRichText() = %q", got)
	}
}

func TestDecodeUnknownCodeTableKeepsCodepage(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	decoder := NewDecoder(zap.New(core))

	tokens := decoder.Decode([]byte{0x1B, 0x74, 99, 0xD5}, Windows1252)
	if len(tokens) != 2 {
		t.Fatalf("len(tokens) = %d, want 2", len(tokens))
	}
	if tokens[1].Codepage != Windows1252 {
		t.Errorf("codepage = %v, want windows-1252", tokens[1].Codepage)
	}

	entries := logs.FilterMessage("Unknown code table selected, keeping active codepage").All()
	if len(entries) != 1 {
		t.Fatalf("warnings = %d, want 1", len(entries))
	}
	if got := entries[0].ContextMap()["code_table"]; got != int64(99) {
		t.Errorf("code_table field = %v, want 99", got)
	}
}

func TestDecodeStateDoesNotLeakBetweenCalls(t *testing.T) {
	decoder := NewDecoder(nil)
	decoder.Decode([]byte{0x1B, 0x74, 17}, Windows1252)

	tokens := decoder.Decode([]byte{0xD5}, Windows1252)
	if tokens[0].Codepage != Windows1252 {
		t.Errorf("codepage = %v, want windows-1252", tokens[0].Codepage)
	}
}

func TestDecodeEmpty(t *testing.T) {
	if tokens := Decode(nil, CP437); len(tokens) != 0 {
		t.Errorf("Decode(nil) returned %d tokens", len(tokens))
	}
	if tokens := Decode([]byte("\r\r"), CP437); len(tokens) != 0 {
		t.Errorf("Decode(CR CR) returned %d tokens", len(tokens))
	}
}

func TestDecodeDeterministic(t *testing.T) {
	data := []byte("\x1b@\x1bt\x11\xaf\xe0\xa8\xa2\xa5\xe2\n\x1dV\x41\x03\x1b")
	first := Decode(data, Windows1252)
	second := Decode(data, Windows1252)
	if !reflect.DeepEqual(first, second) {
		t.Error("Decode() is not deterministic")
	}
}

func FuzzDecode(f *testing.F) {
	f.Add([]byte{0x1B, 0x40, 0x48, 0x65, 0x6C, 0x6C, 0x6F, 0x0A})
	f.Add([]byte{0x1D, 0x56, 0x41})
	f.Add([]byte{0x1F, 0x1B, 0x1F, 0x91, 0x00, 0x49, 0x50, 1, 2})
	f.Add([]byte{0x1D, 0x28, 0x6B, 0xFF, 0xFF})
	f.Add([]byte("\r\n\t\x00\x1b"))

	f.Fuzz(func(t *testing.T, data []byte) {
		tokens := Decode(data, CP437)
		if got := reassemble(t, data, tokens); !bytes.Equal(got, data) {
			t.Fatalf("reassembled % X, want % X", got, data)
		}
		if again := Decode(data, CP437); !reflect.DeepEqual(tokens, again) {
			t.Fatal("Decode() is not deterministic")
		}
		for i, tok := range tokens {
			if tok.Kind == TokenText && len(tok.Raw) == 0 {
				t.Fatalf("token %d is an empty text run", i)
			}
			if tok.Kind == TokenIncompleteCommand && i != len(tokens)-1 {
				t.Fatalf("incomplete command at %d is not the last token", i)
			}
		}
		RenderRichText(tokens)
		RenderPlainText(tokens, Windows1251)
	})
}
