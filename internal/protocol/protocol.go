// internal/protocol/protocol.go
package protocol

import (
	"context"
	"sync"
	"time"

	"receipt-emulator/internal/model"
)

// JobHandler receives each complete job exactly once
type JobHandler interface {
	HandleJob(ctx context.Context, job *model.Job) error
}

// JobHandlerFunc adapts a function to JobHandler
type JobHandlerFunc func(ctx context.Context, job *model.Job) error

// HandleJob calls f
func (f JobHandlerFunc) HandleJob(ctx context.Context, job *model.Job) error {
	return f(ctx, job)
}

// Listener accepts printer traffic on one transport and assembles jobs
type Listener interface {
	Start(ctx context.Context) error
	Stop() error
	Name() string
	Stats() ListenerStats
}

// ListenerStats provides listener-level statistics
type ListenerStats struct {
	Protocol      string    `json:"protocol"`
	Address       string    `json:"address"`
	Running       bool      `json:"running"`
	StartedAt     time.Time `json:"started_at,omitempty"`
	Connections   int64     `json:"connections"`
	JobsReceived  int64     `json:"jobs_received"`
	BytesReceived int64     `json:"bytes_received"`
	ErrorCount    int64     `json:"error_count"`
	LastError     string    `json:"last_error,omitempty"`
	LastActivity  time.Time `json:"last_activity,omitempty"`
}

// statsRecorder guards a ListenerStats value
type statsRecorder struct {
	mutex sync.RWMutex
	stats ListenerStats
}

func newStatsRecorder(protocol, address string) *statsRecorder {
	return &statsRecorder{stats: ListenerStats{Protocol: protocol, Address: address}}
}

func (s *statsRecorder) snapshot() ListenerStats {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.stats
}

func (s *statsRecorder) update(fn func(*ListenerStats)) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	fn(&s.stats)
}

func (s *statsRecorder) setRunning(running bool) {
	s.update(func(st *ListenerStats) {
		st.Running = running
		if running {
			st.StartedAt = time.Now()
		}
	})
}

func (s *statsRecorder) recordBytes(n int) {
	s.update(func(st *ListenerStats) {
		st.BytesReceived += int64(n)
		st.LastActivity = time.Now()
	})
}

func (s *statsRecorder) recordJob() {
	s.update(func(st *ListenerStats) {
		st.JobsReceived++
	})
}

func (s *statsRecorder) recordConnection() {
	s.update(func(st *ListenerStats) {
		st.Connections++
		st.LastActivity = time.Now()
	})
}

func (s *statsRecorder) recordError(err error) {
	s.update(func(st *ListenerStats) {
		st.ErrorCount++
		st.LastError = err.Error()
	})
}
