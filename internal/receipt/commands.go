// internal/receipt/commands.go
package receipt

// Commands holds the ESC/POS sequences used to lay out generated receipts
var Commands = struct {
	Initialize []byte

	BoldOn       []byte
	BoldOff      []byte
	UnderlineOn  []byte
	UnderlineOff []byte
	ResetMode    []byte

	SizeNormal       []byte
	SizeDoubleWidth  []byte
	SizeDoubleHeight []byte
	SizeDoubleBoth   []byte

	AlignLeft   []byte
	AlignCenter []byte
	AlignRight  []byte

	LineFeed  []byte
	FeedLines []byte // + line count byte
	CodeTable []byte // + table number byte

	CutFull    []byte
	CutPartial []byte

	DrawerKickPin2 []byte
	DrawerKickPin5 []byte
}{
	Initialize: []byte{0x1B, 0x40}, // ESC @

	BoldOn:       []byte{0x1B, 0x45, 0x01}, // ESC E 1
	BoldOff:      []byte{0x1B, 0x45, 0x00}, // ESC E 0
	UnderlineOn:  []byte{0x1B, 0x2D, 0x01}, // ESC - 1
	UnderlineOff: []byte{0x1B, 0x2D, 0x00}, // ESC - 0
	ResetMode:    []byte{0x1B, 0x21, 0x00}, // ESC ! 0

	SizeNormal:       []byte{0x1D, 0x21, 0x00}, // GS ! 0
	SizeDoubleWidth:  []byte{0x1D, 0x21, 0x10}, // GS ! 16
	SizeDoubleHeight: []byte{0x1D, 0x21, 0x01}, // GS ! 1
	SizeDoubleBoth:   []byte{0x1D, 0x21, 0x11}, // GS ! 17

	AlignLeft:   []byte{0x1B, 0x61, 0x00}, // ESC a 0
	AlignCenter: []byte{0x1B, 0x61, 0x01}, // ESC a 1
	AlignRight:  []byte{0x1B, 0x61, 0x02}, // ESC a 2

	LineFeed:  []byte{0x0A},       // LF
	FeedLines: []byte{0x1B, 0x64}, // ESC d
	CodeTable: []byte{0x1B, 0x74}, // ESC t

	CutFull:    []byte{0x1D, 0x56, 0x00}, // GS V 0
	CutPartial: []byte{0x1D, 0x56, 0x01}, // GS V 1

	DrawerKickPin2: []byte{0x1B, 0x70, 0x00, 0x19, 0x19}, // ESC p 0 25 25
	DrawerKickPin5: []byte{0x1B, 0x70, 0x01, 0x19, 0x19}, // ESC p 1 25 25
}
