// internal/notify/player.go
package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"time"

	"receipt-emulator/internal/model"
)

// Tone is a single beep
type Tone struct {
	Frequency int           `json:"frequency_hz"`
	Duration  time.Duration `json:"duration"`
}

// ToneFor returns the tone announcing a job from the given transport
func ToneFor(sourceType model.SourceType) Tone {
	switch sourceType {
	case model.SourceTCP:
		return Tone{Frequency: 1200, Duration: 200 * time.Millisecond}
	case model.SourceSerial:
		return Tone{Frequency: 700, Duration: 300 * time.Millisecond}
	default:
		return Tone{Frequency: 800, Duration: 250 * time.Millisecond}
	}
}

// Player plays a tone, blocking until it has finished
type Player interface {
	Play(ctx context.Context, tone Tone) error
	Name() string
}

// NewPlayer creates a player by configuration name
func NewPlayer(name string) (Player, error) {
	switch name {
	case "auto":
		if runtime.GOOS == "windows" {
			return &powerShellPlayer{}, nil
		}
		return &bellPlayer{out: os.Stdout}, nil
	case "powershell":
		return &powerShellPlayer{}, nil
	case "bell":
		return &bellPlayer{out: os.Stdout}, nil
	case "none":
		return nopPlayer{}, nil
	default:
		return nil, fmt.Errorf("unknown player: %s", name)
	}
}

// powerShellPlayer uses the Windows console beep
type powerShellPlayer struct{}

func (p *powerShellPlayer) Name() string { return "powershell" }

func (p *powerShellPlayer) Play(ctx context.Context, tone Tone) error {
	script := fmt.Sprintf("[console]::beep(%d,%d)", tone.Frequency, tone.Duration.Milliseconds())
	cmd := exec.CommandContext(ctx, "powershell", "-NoProfile", "-NonInteractive", "-Command", script)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("powershell beep failed: %w (%s)", err, out)
	}
	return nil
}

// bellPlayer rings the terminal bell and waits for the tone duration
type bellPlayer struct {
	out io.Writer
}

func (p *bellPlayer) Name() string { return "bell" }

func (p *bellPlayer) Play(ctx context.Context, tone Tone) error {
	if _, err := p.out.Write([]byte{'\a'}); err != nil {
		return fmt.Errorf("failed to ring bell: %w", err)
	}

	timer := time.NewTimer(tone.Duration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type nopPlayer struct{}

func (nopPlayer) Name() string { return "none" }

func (nopPlayer) Play(context.Context, Tone) error { return nil }
