// internal/escpos/decoder.go
package escpos

import (
	"bytes"

	"go.uber.org/zap"
)

// Decoder turns a raw ESC/POS job into tokens. A Decoder holds no per-job
// state and is safe for concurrent use.
type Decoder struct {
	logger *zap.Logger
}

// NewDecoder creates a decoder that reports diagnostics to logger
func NewDecoder(logger *zap.Logger) *Decoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Decoder{logger: logger.With(zap.String("component", "escpos_decoder"))}
}

var nopDecoder = NewDecoder(nil)

// Decode tokenizes data without diagnostics
func Decode(data []byte, defaultCodepage Codepage) []Token {
	return nopDecoder.Decode(data, defaultCodepage)
}

// decodeState is owned by a single Decode call
type decodeState struct {
	data     []byte
	pos      int
	codepage Codepage
	pending  int
	tokens   []Token
	logger   *zap.Logger
}

// Decode tokenizes data, starting with defaultCodepage active. Token Raw
// slices alias data. Carriage returns are the only bytes not covered by a token.
func (d *Decoder) Decode(data []byte, defaultCodepage Codepage) []Token {
	st := &decodeState{
		data:     data,
		codepage: defaultCodepage,
		pending:  -1,
		logger:   d.logger,
	}

	for st.pos < len(data) {
		b := data[st.pos]
		switch {
		case b == ESC || b == GS:
			st.flush()
			if !st.command(b) {
				return st.tokens
			}
		case b == vendorPrefix && bytes.HasPrefix(data[st.pos:], vendorIntro):
			st.flush()
			if !st.vendor() {
				return st.tokens
			}
		case b == LF:
			st.flush()
			st.emit(Token{Kind: TokenLineBreak}, 1)
		case b == CR:
			st.flush()
			st.pos++
		case b >= 0x20 || b == HT:
			if st.pending < 0 {
				st.pending = st.pos
			}
			st.pos++
		default:
			st.flush()
			st.emit(Token{Kind: TokenControlChar}, 1)
		}
	}

	st.flush()
	return st.tokens
}

// emit appends a token covering the next n bytes and advances past them
func (st *decodeState) emit(tok Token, n int) {
	tok.Offset = st.pos
	tok.Raw = st.data[st.pos : st.pos+n]
	tok.Codepage = st.codepage
	st.tokens = append(st.tokens, tok)
	st.pos += n
}

// flush closes the pending text run, if any
func (st *decodeState) flush() {
	if st.pending < 0 {
		return
	}
	st.tokens = append(st.tokens, Token{
		Kind:     TokenText,
		Offset:   st.pending,
		Raw:      st.data[st.pending:st.pos],
		Codepage: st.codepage,
	})
	st.pending = -1
}

// truncate emits an incomplete command covering the rest of the buffer
func (st *decodeState) truncate(prefix, opcode byte, hasOpcode bool) {
	tok := Token{Kind: TokenIncompleteCommand, Prefix: prefix, Opcode: opcode, HasOpcode: hasOpcode}
	st.emit(tok, len(st.data)-st.pos)
	st.logger.Warn("Truncated command at end of job",
		zap.String("command", tok.Tag()),
		zap.Int("offset", tok.Offset),
	)
}

// command handles an ESC or GS introducer. It returns false when the scan must stop.
func (st *decodeState) command(prefix byte) bool {
	rest := st.data[st.pos+1:]
	if len(rest) == 0 {
		st.truncate(prefix, 0, false)
		return false
	}

	opcode := rest[0]
	e, ok := lookup(prefix, opcode)
	if !ok {
		st.emit(Token{Kind: TokenUnknownCommand, Prefix: prefix, Opcode: opcode}, 2)
		st.logger.Debug("Unknown command",
			zap.Uint8("prefix", prefix),
			zap.Uint8("opcode", opcode),
			zap.Int("offset", st.pos-2),
		)
		return true
	}

	params := rest[1:]
	n, known := e.length(params)
	if !known || len(params) < n {
		st.truncate(prefix, opcode, true)
		return false
	}

	cmd := e.build(params[:n])
	cmd.Name = e.name
	st.emit(Token{Kind: TokenCommand, Command: &cmd}, 2+n)

	if cmd.Effect == EffectCodepage {
		st.selectCodeTable(int(params[0]))
	}
	return true
}

func (st *decodeState) selectCodeTable(id int) {
	cp, ok := ResolveCodepage(id)
	if !ok {
		st.logger.Warn("Unknown code table selected, keeping active codepage",
			zap.Int("code_table", id),
			zap.String("codepage", st.codepage.String()),
		)
		return
	}
	st.codepage = cp
}

// vendor handles a 1F 1B 1F extension. It returns false when the scan must stop.
func (st *decodeState) vendor() bool {
	rest := st.data[st.pos+len(vendorIntro):]
	if len(rest) == 0 {
		st.truncate(vendorPrefix, 0, false)
		return false
	}

	sub := rest[0]
	x, ok := extensions[sub]
	if !ok {
		st.emit(Token{Kind: TokenUnknownCommand, Prefix: vendorPrefix, Opcode: sub}, len(vendorIntro)+1)
		return true
	}

	body := rest[1:]
	consistent, full := x.matchMarker(body)
	if !consistent {
		st.emit(Token{Kind: TokenUnknownCommand, Prefix: vendorPrefix, Opcode: sub}, len(vendorIntro)+1)
		return true
	}
	if !full || len(body) < len(x.marker)+x.payload {
		st.truncate(vendorPrefix, sub, true)
		return false
	}

	payload := body[len(x.marker) : len(x.marker)+x.payload]
	cmd := x.build(payload)
	cmd.Name = x.name
	st.emit(Token{Kind: TokenCommand, Command: &cmd}, len(vendorIntro)+1+len(x.marker)+x.payload)
	return true
}
