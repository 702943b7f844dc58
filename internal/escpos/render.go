// internal/escpos/render.go
package escpos

import (
	"strings"

	"go.uber.org/zap"
)

// Renderer projects tokens into text. The zero value discards diagnostics.
type Renderer struct {
	logger *zap.Logger
}

// NewRenderer creates a renderer that reports codepage fallbacks to logger
func NewRenderer(logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{logger: logger.With(zap.String("component", "escpos_renderer"))}
}

// RenderRichText renders tokens with tags, without diagnostics
func RenderRichText(tokens []Token) string {
	var r Renderer
	return r.RichText(tokens)
}

// RenderPlainText renders tokens as plain text encoded in out, without diagnostics
func RenderPlainText(tokens []Token, out Codepage) []byte {
	var r Renderer
	return r.PlainText(tokens, out)
}

type lineKind int

const (
	lineOpen lineKind = iota
	lineText
	lineTag
)

// RichText renders every non-text token as an <angle bracket> tag on its own
// line. Text continues the current text line. Each line break ends the current
// line and opens an empty one, which the next text or tag fills.
func (r *Renderer) RichText(tokens []Token) string {
	var lines []string
	var kinds []lineKind

	for _, tok := range tokens {
		switch tok.Kind {
		case TokenText:
			text := r.text(tok)
			if n := len(lines); n > 0 && kinds[n-1] != lineTag {
				lines[n-1] += text
				kinds[n-1] = lineText
				continue
			}
			lines = append(lines, text)
			kinds = append(kinds, lineText)
		case TokenLineBreak:
			if len(lines) == 0 {
				lines = append(lines, "")
				kinds = append(kinds, lineText)
			}
			lines = append(lines, "")
			kinds = append(kinds, lineOpen)
		default:
			tag := "<" + tok.Tag() + ">"
			if n := len(lines); n > 0 && kinds[n-1] == lineOpen {
				lines[n-1] = tag
				kinds[n-1] = lineTag
				continue
			}
			lines = append(lines, tag)
			kinds = append(kinds, lineTag)
		}
	}
	return strings.Join(lines, "\n")
}

// PlainText renders text only. Feed and cut commands become line breaks, other
// tags are dropped, blank lines are removed and the result is encoded in out.
func (r *Renderer) PlainText(tokens []Token, out Codepage) []byte {
	var sb strings.Builder
	for _, tok := range tokens {
		switch {
		case tok.Kind == TokenText:
			sb.WriteString(r.text(tok))
		case tok.Kind == TokenLineBreak:
			sb.WriteByte('\n')
		case tok.Effect() == EffectFeed || tok.Effect() == EffectCut:
			sb.WriteByte('\n')
		}
	}

	lines := strings.Split(sb.String(), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		kept = append(kept, line)
	}

	return out.Encode(strings.TrimSpace(strings.Join(kept, "\n")))
}

func (r *Renderer) text(tok Token) string {
	text, ok := tok.Text()
	if !ok && r.logger != nil {
		r.logger.Warn("Codepage not supported, decoded text as Latin-1",
			zap.String("codepage", tok.Codepage.String()),
			zap.Int("offset", tok.Offset),
			zap.Int("bytes", len(tok.Raw)),
		)
	}
	return text
}
