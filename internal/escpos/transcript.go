// internal/escpos/transcript.go
package escpos

import (
	"go.uber.org/zap"
)

// Options controls how a job is transcribed
type Options struct {
	DefaultCodepage Codepage
	OutputCodepage  Codepage
}

// DefaultOptions matches the behaviour of common receipt emulators:
// Windows-1252 input and Windows-1251 plain-text output.
func DefaultOptions() Options {
	return Options{DefaultCodepage: Windows1252, OutputCodepage: Windows1251}
}

// Transcript is the decoded form of one print job
type Transcript struct {
	Tokens     []Token `json:"tokens"`
	RichText   string  `json:"rich_text"`
	PlainText  []byte  `json:"-"`
	TokenCount int     `json:"token_count"`
}

// Empty reports whether the job produced no tokens at all
func (t *Transcript) Empty() bool {
	return t.TokenCount == 0
}

// Transcriber runs the decoder and both renderers for a job
type Transcriber struct {
	decoder  *Decoder
	renderer *Renderer
	options  Options
}

// NewTranscriber creates a transcriber with shared diagnostics
func NewTranscriber(logger *zap.Logger, options Options) *Transcriber {
	return &Transcriber{
		decoder:  NewDecoder(logger),
		renderer: NewRenderer(logger),
		options:  options,
	}
}

// Options returns the codepages used by the transcriber
func (t *Transcriber) Options() Options {
	return t.options
}

// Transcribe decodes data using the transcriber's options
func (t *Transcriber) Transcribe(data []byte) *Transcript {
	return t.TranscribeWith(data, t.options)
}

// TranscribeWith decodes data using explicit options
func (t *Transcriber) TranscribeWith(data []byte, options Options) *Transcript {
	tokens := t.decoder.Decode(data, options.DefaultCodepage)
	return &Transcript{
		Tokens:     tokens,
		RichText:   t.renderer.RichText(tokens),
		PlainText:  t.renderer.PlainText(tokens, options.OutputCodepage),
		TokenCount: len(tokens),
	}
}

// Transcribe decodes and renders data without diagnostics
func Transcribe(data []byte, options Options) *Transcript {
	return NewTranscriber(nil, options).Transcribe(data)
}
