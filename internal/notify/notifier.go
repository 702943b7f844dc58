// internal/notify/notifier.go
package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"receipt-emulator/internal/model"
)

// Notifier plays one tone at a time. While a tone plays, at most one further
// request waits; a newer request replaces it.
type Notifier struct {
	player   Player
	cooldown time.Duration
	pending  chan Tone
	logger   *zap.Logger
	wg       sync.WaitGroup
}

// NewNotifier creates a notifier
func NewNotifier(player Player, cooldown time.Duration, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{
		player:   player,
		cooldown: cooldown,
		pending:  make(chan Tone, 1),
		logger:   logger.With(zap.String("component", "notifier"), zap.String("player", player.Name())),
	}
}

// Notify queues a tone, replacing any tone still waiting
func (n *Notifier) Notify(tone Tone) {
	for {
		select {
		case n.pending <- tone:
			return
		default:
		}

		select {
		case stale := <-n.pending:
			n.logger.Debug("Dropping queued tone", zap.Int("frequency_hz", stale.Frequency))
		default:
		}
	}
}

// Start plays queued tones and converts job events into tones until ctx is
// done or events is closed
func (n *Notifier) Start(ctx context.Context, events <-chan model.Event) {
	n.wg.Add(2)
	go func() {
		defer n.wg.Done()
		n.consume(ctx, events)
	}()
	go func() {
		defer n.wg.Done()
		n.run(ctx)
	}()
}

// Wait blocks until the notifier goroutines have exited
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func (n *Notifier) consume(ctx context.Context, events <-chan model.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			sourceType, _ := ev.Data["source_type"].(string)
			n.Notify(ToneFor(model.SourceType(sourceType)))
		}
	}
}

func (n *Notifier) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case tone := <-n.pending:
			if err := n.player.Play(ctx, tone); err != nil && ctx.Err() == nil {
				n.logger.Warn("Failed to play notification tone",
					zap.Int("frequency_hz", tone.Frequency),
					zap.Error(err),
				)
			}

			if n.cooldown <= 0 {
				continue
			}
			timer := time.NewTimer(n.cooldown)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}
}
