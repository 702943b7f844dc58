package escpos

import (
	"encoding/json"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/text/encoding/charmap"
)

func TestRenderRichText(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"text only", "Hello", "Hello"},
		{"text across lines", "Hello\nWorld", "Hello\nWorld"},
		{"empty lines preserved", "A\n\nB", "A\n\nB"},
		{"tag between text", "A\x1bE\x01B", "A\n<Bold On>\nB"},
		{"carriage return keeps line", "AB\rCD", "ABCD"},
		{"cut after line", "Total\n\x1dV\x00", "Total\n<Full Cut>"},
		{"tag after line break", "Hello\n\x1b@", "Hello\n<Initialize Printer>"},
		{"leading line break", "\nA", "\nA"},
		{"lone line break", "\n", "\n"},
		{"two leading line breaks", "\n\nA", "\n\nA"},
		{"line break before tag", "\n\x1b@", "\n<Initialize Printer>"},
		{"tag line then text line", "\x1b@\nA", "<Initialize Printer>\nA"},
		{"control char", "\x07", "<Control Char (0x07)>"},
		{"truncated", "A\x1b", "A\n<Incomplete ESC>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RenderRichText(Decode([]byte(tt.data), Windows1252))
			if got != tt.want {
				t.Errorf("RenderRichText(%q) = %q, want %q", tt.data, got, tt.want)
			}
		})
	}
}

func TestRenderPlainText(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"tags vanish inline", "Total\x1bE\x01 5.00\x1bE\x00\n", "Total 5.00"},
		{"feed becomes line break", "A\x1bd\x03B", "A\nB"},
		{"cut becomes line break", "A\x1dV\x00B", "A\nB"},
		{"blank lines collapse", "\n\nA\n \n\n\tB\n\n", "A\n\tB"},
		{"unknown commands dropped", "A\x1b\xffB\x07C", "ABC"},
		{"only tags", "\x1b@\x1dV\x00", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RenderPlainText(Decode([]byte(tt.data), Windows1252), Windows1251)
			if string(got) != tt.want {
				t.Errorf("RenderPlainText(%q) = %q, want %q", tt.data, got, tt.want)
			}
		})
	}
}

func TestRenderPlainTextReencodes(t *testing.T) {
	input, err := charmap.CodePage866.NewEncoder().String("Чек №1")
	if err != nil {
		t.Fatalf("failed to encode test input: %v", err)
	}
	want, err := charmap.Windows1251.NewEncoder().String("Чек №1")
	if err != nil {
		t.Fatalf("failed to encode expected output: %v", err)
	}

	tokens := Decode([]byte("\x1bt\x11"+input+"\n"), Windows1252)
	if got := RenderPlainText(tokens, Windows1251); string(got) != want {
		t.Errorf("RenderPlainText() = % X, want % X", got, want)
	}
	if rich := RenderRichText(tokens); !strings.Contains(rich, "Чек №1") {
		t.Errorf("RenderRichText() = %q, want decoded Cyrillic", rich)
	}
}

func TestRendererReportsFallback(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	renderer := NewRenderer(zap.New(core))

	tokens := []Token{
		{Kind: TokenText, Raw: []byte("ok"), Codepage: CP437},
		{Kind: TokenText, Raw: []byte{0xE9}, Codepage: Codepage(99)},
	}
	if got := renderer.RichText(tokens); got != "oké" {
		t.Errorf("RichText() = %q, want %q", got, "oké")
	}
	if n := logs.FilterMessage("Codepage not supported, decoded text as Latin-1").Len(); n != 1 {
		t.Errorf("fallback warnings = %d, want 1", n)
	}
}

func TestTranscribe(t *testing.T) {
	data := []byte{0x1B, 0x40, 0x48, 0x65, 0x6C, 0x6C, 0x6F, 0x0A}
	tr := Transcribe(data, DefaultOptions())

	if tr.TokenCount != 3 || tr.Empty() {
		t.Errorf("TokenCount = %d, Empty() = %v", tr.TokenCount, tr.Empty())
	}
	if tr.RichText != "<Initialize Printer>\nHello\n" {
		t.Errorf("RichText = %q", tr.RichText)
	}
	if string(tr.PlainText) != "Hello" {
		t.Errorf("PlainText = %q", tr.PlainText)
	}

	if empty := Transcribe([]byte{}, DefaultOptions()); !empty.Empty() {
		t.Error("empty job produced tokens")
	}
}

func TestTokenJSON(t *testing.T) {
	tokens := Decode([]byte("\x1bE\x01Hi"), Windows1252)
	raw, err := json.Marshal(tokens)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}

	var decoded []map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if decoded[0]["kind"] != "command" || decoded[0]["tag"] != "Bold On" || decoded[0]["hex"] != "1b4501" {
		t.Errorf("command token = %v", decoded[0])
	}
	if decoded[1]["kind"] != "text" || decoded[1]["text"] != "Hi" || decoded[1]["codepage"] != "windows-1252" {
		t.Errorf("text token = %v", decoded[1])
	}
}
