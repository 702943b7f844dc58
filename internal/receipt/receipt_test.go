package receipt

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"receipt-emulator/internal/escpos"
)

func cafeReceipt() *Receipt {
	return &Receipt{
		Header: "CAFE",
		Items: []Item{
			{Name: "Coffee", Qty: 2, Price: decimal.RequireFromString("2.50")},
			{Name: "Cake", Price: decimal.RequireFromString("3.20")},
		},
		Footer:   "Thanks",
		Currency: "EUR",
		Cut:      true,
	}
}

func transcribe(t *testing.T, data []byte, out escpos.Codepage) *escpos.Transcript {
	t.Helper()
	return escpos.Transcribe(data, escpos.Options{DefaultCodepage: escpos.Windows1252, OutputCodepage: out})
}

func TestBuildPlainText(t *testing.T) {
	data, err := Build(cafeReceipt())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	tr := transcribe(t, data, escpos.CP437)
	separator := strings.Repeat("=", 32)
	want := strings.Join([]string{
		"CAFE",
		separator,
		"2 x Coffee" + strings.Repeat(" ", 18) + "5.00",
		"Cake" + strings.Repeat(" ", 24) + "3.20",
		separator,
		"TOTAL: 8.20 EUR",
		"Thanks",
	}, "\n")

	if got := string(tr.PlainText); got != want {
		t.Errorf("plain text =\n%s\nwant\n%s", got, want)
	}
}

func TestBuildRichText(t *testing.T) {
	r := cafeReceipt()
	r.OpenDrawer = true

	data, err := Build(r)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	rich := transcribe(t, data, escpos.CP437).RichText
	for _, tag := range []string{
		"<Initialize Printer>",
		"<Select Code Table (n=0)>",
		"<Align Center>",
		"<Set Char Size (Wx2 Hx2)>",
		"<Set Char Size (Wx2 Hx1)>",
		"<Bold On>",
		"<Bold Off>",
		"<Print and Feed Paper (3 lines)>",
		"<Pulse Drawer (pin=0, onTime=50ms, offTime=50ms)>",
		"<Full Cut>",
	} {
		if !strings.Contains(rich, tag) {
			t.Errorf("rich text missing %s:\n%s", tag, rich)
		}
	}
	if strings.Contains(rich, "Unknown") || strings.Contains(rich, "Incomplete") {
		t.Errorf("generated job contains undecodable commands:\n%s", rich)
	}
	if !strings.HasSuffix(rich, "<Full Cut>") {
		t.Errorf("rich text does not end with the cut:\n%s", rich)
	}
}

func TestBuildCodepage(t *testing.T) {
	r := &Receipt{Header: "Кафе", Codepage: "cp866"}

	data, err := Build(r)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	tr := transcribe(t, data, escpos.Windows1251)
	if !strings.Contains(tr.RichText, "<Select Code Table (n=17)>") {
		t.Errorf("rich text missing code table selection:\n%s", tr.RichText)
	}
	if plain, _ := escpos.Windows1251.Decode(tr.PlainText); !strings.HasPrefix(plain, "Кафе\n") {
		t.Errorf("plain text = %q", plain)
	}
}

func TestBuildTimestamp(t *testing.T) {
	r := &Receipt{Footer: "bye", Timestamp: true}
	now := time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)

	data, err := build(r, now)
	if err != nil {
		t.Fatalf("build() error = %v", err)
	}

	if got := string(transcribe(t, data, escpos.CP437).PlainText); got != "bye\n17.10.2026 09:30:00" {
		t.Errorf("plain text = %q", got)
	}
}

func TestBuildInvalid(t *testing.T) {
	tests := []struct {
		name    string
		receipt *Receipt
	}{
		{"nil", nil},
		{"narrow paper", &Receipt{PaperWidth: 10}},
		{"wide paper", &Receipt{PaperWidth: 100}},
		{"unknown codepage", &Receipt{Codepage: "ebcdic"}},
		{"codepage without table", &Receipt{Codepage: "latin1"}},
		{"unnamed item", &Receipt{Items: []Item{{Price: decimal.NewFromInt(1)}}}},
		{"negative price", &Receipt{Items: []Item{{Name: "Refund", Price: decimal.NewFromInt(-1)}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Build(tt.receipt); !errors.Is(err, ErrInvalidReceipt) {
				t.Errorf("Build() error = %v, want ErrInvalidReceipt", err)
			}
		})
	}
}

func TestReceiptJSON(t *testing.T) {
	var r Receipt
	body := `{"header":"X","items":[{"name":"Tea","qty":3,"price":"1.10"},{"name":"Bun","price":0.3}]}`
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if got := r.Total().StringFixed(2); got != "3.60" {
		t.Errorf("Total() = %s, want 3.60", got)
	}
}

func TestFormatReceiptLine(t *testing.T) {
	tests := []struct {
		name   string
		item   string
		amount string
		width  int
		want   string
	}{
		{"padded", "Tea", "1.00", 12, "Tea     1.00"},
		{"truncated", "Extraordinarily long name", "1.00", 24, "Extraordinarily ... 1.00"},
		{"multibyte", "Чай", "1.00", 10, "Чай   1.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatReceiptLine(tt.item, tt.amount, tt.width); got != tt.want {
				t.Errorf("formatReceiptLine() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSampleBuilds(t *testing.T) {
	data, err := Build(Sample())
	if err != nil {
		t.Fatalf("Build(Sample()) error = %v", err)
	}
	if plain := string(transcribe(t, data, escpos.CP437).PlainText); !strings.Contains(plain, "TOTAL: 8.55 EUR") {
		t.Errorf("sample plain text = %q", plain)
	}
}
