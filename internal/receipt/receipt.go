// internal/receipt/receipt.go
package receipt

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"receipt-emulator/internal/escpos"
)

const (
	DefaultPaperWidth = 32
	minPaperWidth     = 24
	maxPaperWidth     = 64
	minNameWidth      = 10
)

// ErrInvalidReceipt is returned when a receipt cannot be laid out
var ErrInvalidReceipt = errors.New("invalid receipt")

// Receipt represents structured receipt data
type Receipt struct {
	Header     string `json:"header"`
	Items      []Item `json:"items"`
	Footer     string `json:"footer"`
	Currency   string `json:"currency,omitempty"`
	Codepage   string `json:"codepage,omitempty"`
	PaperWidth int    `json:"paper_width,omitempty"`
	Timestamp  bool   `json:"timestamp,omitempty"`
	Cut        bool   `json:"cut"`
	OpenDrawer bool   `json:"open_drawer"`
}

// Item represents a single receipt item
type Item struct {
	Name  string          `json:"name"`
	Qty   int             `json:"qty,omitempty"`
	Price decimal.Decimal `json:"price"`
}

// Amount returns price times quantity; a zero quantity counts as one
func (i Item) Amount() decimal.Decimal {
	if i.Qty <= 1 {
		return i.Price
	}
	return i.Price.Mul(decimal.NewFromInt(int64(i.Qty)))
}

// Total sums the item amounts
func (r *Receipt) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range r.Items {
		total = total.Add(item.Amount())
	}
	return total
}

// Sample returns the receipt printed by the test page commands
func Sample() *Receipt {
	return &Receipt{
		Header: "RECEIPT EMULATOR",
		Items: []Item{
			{Name: "Espresso", Qty: 2, Price: decimal.RequireFromString("2.40")},
			{Name: "Croissant", Price: decimal.RequireFromString("1.95")},
			{Name: "Sparkling water 0.5l", Price: decimal.RequireFromString("1.80")},
		},
		Footer:    "Thank you!",
		Currency:  "EUR",
		Codepage:  escpos.CP437.String(),
		Timestamp: true,
		Cut:       true,
	}
}

// Build lays the receipt out as an ESC/POS job
func Build(r *Receipt) ([]byte, error) {
	return build(r, time.Now())
}

func build(r *Receipt, now time.Time) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: nil receipt", ErrInvalidReceipt)
	}

	width := r.PaperWidth
	if width == 0 {
		width = DefaultPaperWidth
	}
	if width < minPaperWidth || width > maxPaperWidth {
		return nil, fmt.Errorf("%w: paper width %d outside %d-%d", ErrInvalidReceipt, width, minPaperWidth, maxPaperWidth)
	}

	cp := escpos.CP437
	if r.Codepage != "" {
		var err error
		if cp, err = escpos.ParseCodepage(r.Codepage); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidReceipt, err)
		}
	}
	tableID, ok := cp.TableID()
	if !ok {
		return nil, fmt.Errorf("%w: codepage %s has no code table number", ErrInvalidReceipt, cp)
	}

	for i, item := range r.Items {
		if strings.TrimSpace(item.Name) == "" {
			return nil, fmt.Errorf("%w: item %d has no name", ErrInvalidReceipt, i)
		}
		if item.Qty < 0 || item.Price.IsNegative() {
			return nil, fmt.Errorf("%w: item %q has a negative quantity or price", ErrInvalidReceipt, item.Name)
		}
	}

	b := newBuilder(cp)
	b.write(Commands.Initialize)
	b.command(Commands.CodeTable, byte(tableID))

	if r.Header != "" {
		b.write(Commands.AlignCenter, Commands.SizeDoubleBoth, Commands.BoldOn)
		b.line(r.Header)
		b.write(Commands.BoldOff, Commands.SizeNormal)
		b.line(strings.Repeat("=", width))
	}

	b.write(Commands.AlignLeft)
	for _, item := range r.Items {
		name := item.Name
		if item.Qty > 1 {
			name = fmt.Sprintf("%d x %s", item.Qty, name)
		}
		b.line(formatReceiptLine(name, item.Amount().StringFixed(2), width))
	}

	if len(r.Items) > 0 {
		b.line(strings.Repeat("=", width))
		b.write(Commands.AlignCenter, Commands.SizeDoubleWidth, Commands.BoldOn)
		total := "TOTAL: " + r.Total().StringFixed(2)
		if r.Currency != "" {
			total += " " + r.Currency
		}
		b.line(total)
		b.write(Commands.BoldOff, Commands.SizeNormal)
	}

	if r.Footer != "" || r.Timestamp {
		b.write(Commands.AlignCenter)
		if r.Footer != "" {
			b.line(r.Footer)
		}
		if r.Timestamp {
			b.line(now.Format("02.01.2006 15:04:05"))
		}
	}

	b.command(Commands.FeedLines, 3)
	b.write(Commands.AlignLeft)

	if r.OpenDrawer {
		b.write(Commands.DrawerKickPin2)
	}
	if r.Cut {
		b.write(Commands.CutFull)
	}

	return b.bytes(), nil
}

// builder accumulates commands and codepage-encoded text
type builder struct {
	buf bytes.Buffer
	cp  escpos.Codepage
}

func newBuilder(cp escpos.Codepage) *builder {
	return &builder{cp: cp}
}

func (b *builder) write(commands ...[]byte) {
	for _, cmd := range commands {
		b.buf.Write(cmd)
	}
}

// command appends a command followed by its parameter bytes
func (b *builder) command(cmd []byte, params ...byte) {
	b.buf.Write(cmd)
	b.buf.Write(params)
}

func (b *builder) line(text string) {
	b.buf.Write(b.cp.Encode(text))
	b.buf.Write(Commands.LineFeed)
}

func (b *builder) bytes() []byte {
	return b.buf.Bytes()
}

// formatReceiptLine right-aligns amount on a line of width characters,
// truncating the name when both do not fit
func formatReceiptLine(name, amount string, width int) string {
	maxNameWidth := width - utf8.RuneCountInString(amount) - 1
	if maxNameWidth < minNameWidth {
		maxNameWidth = minNameWidth
	}

	if utf8.RuneCountInString(name) > maxNameWidth {
		runes := []rune(name)
		name = string(runes[:maxNameWidth-3]) + "..."
	}

	spaces := width - utf8.RuneCountInString(name) - utf8.RuneCountInString(amount)
	if spaces < 1 {
		spaces = 1
	}
	return name + strings.Repeat(" ", spaces) + amount
}
