// internal/escpos/token.go
package escpos

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// TokenKind represents the kind of a decoded token
type TokenKind int

// Token kinds
const (
	TokenText TokenKind = iota
	TokenCommand
	TokenUnknownCommand
	TokenIncompleteCommand
	TokenLineBreak
	TokenControlChar
)

var tokenKindNames = map[TokenKind]string{
	TokenText:              "text",
	TokenCommand:           "command",
	TokenUnknownCommand:    "unknown_command",
	TokenIncompleteCommand: "incomplete_command",
	TokenLineBreak:         "line_break",
	TokenControlChar:       "control_char",
}

func (k TokenKind) String() string {
	if name, ok := tokenKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler
func (k TokenKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Effect describes how a command affects plain-text layout or decoder state
type Effect int

// Command effects
const (
	EffectNone Effect = iota
	EffectFeed
	EffectCut
	EffectCodepage
)

// Command is the symbolic form of a recognized command
type Command struct {
	Name   string         `json:"name"`
	Label  string         `json:"label"`
	Params map[string]any `json:"params,omitempty"`
	Effect Effect         `json:"-"`
}

// Token is one unit of decoder output. Raw holds exactly the input bytes the
// token covers, starting at Offset.
type Token struct {
	Kind     TokenKind
	Offset   int
	Raw      []byte
	Codepage Codepage
	Command  *Command

	// Prefix and Opcode are set for unknown and incomplete commands.
	// HasOpcode is false when the buffer ended right after the prefix.
	Prefix    byte
	Opcode    byte
	HasOpcode bool
}

// Text decodes a text token under its recorded codepage. ok is false when the
// Latin-1 fallback was used.
func (t Token) Text() (string, bool) {
	if t.Kind != TokenText {
		return "", true
	}
	return t.Codepage.Decode(t.Raw)
}

// Tag returns the symbolic label of a non-text token without angle brackets
func (t Token) Tag() string {
	switch t.Kind {
	case TokenCommand:
		return t.Command.Label
	case TokenUnknownCommand:
		if t.Prefix == vendorPrefix {
			return fmt.Sprintf("Unknown 1F 1B 1F sequence (subCmd=0x%02X)", t.Opcode)
		}
		return fmt.Sprintf("Unknown %s Command (0x%02X 0x%02X)", prefixName(t.Prefix), t.Prefix, t.Opcode)
	case TokenIncompleteCommand:
		if t.Prefix == vendorPrefix {
			if ext, ok := extensions[t.Opcode]; ok && t.HasOpcode {
				return ext.incomplete
			}
			return "Incomplete 1F 1B 1F sequence"
		}
		if t.HasOpcode {
			return fmt.Sprintf("Incomplete %s %c", prefixName(t.Prefix), t.Opcode)
		}
		return "Incomplete " + prefixName(t.Prefix)
	case TokenControlChar:
		return fmt.Sprintf("Control Char (0x%02X)", t.Raw[0])
	default:
		return ""
	}
}

// Effect returns the layout effect of the token
func (t Token) Effect() Effect {
	if t.Kind == TokenCommand && t.Command != nil {
		return t.Command.Effect
	}
	return EffectNone
}

func prefixName(prefix byte) string {
	switch prefix {
	case ESC:
		return "ESC"
	case GS:
		return "GS"
	case vendorPrefix:
		return "1F 1B 1F"
	default:
		return fmt.Sprintf("0x%02X", prefix)
	}
}

type tokenJSON struct {
	Kind     TokenKind `json:"kind"`
	Offset   int       `json:"offset"`
	Hex      string    `json:"hex"`
	Codepage string    `json:"codepage,omitempty"`
	Text     string    `json:"text,omitempty"`
	Tag      string    `json:"tag,omitempty"`
	Command  *Command  `json:"command,omitempty"`
}

// MarshalJSON renders raw bytes as hex and includes the decoded text or tag
func (t Token) MarshalJSON() ([]byte, error) {
	out := tokenJSON{
		Kind:    t.Kind,
		Offset:  t.Offset,
		Hex:     hex.EncodeToString(t.Raw),
		Tag:     t.Tag(),
		Command: t.Command,
	}
	if t.Kind == TokenText {
		out.Codepage = t.Codepage.String()
		out.Text, _ = t.Text()
	}
	return json.Marshal(out)
}
