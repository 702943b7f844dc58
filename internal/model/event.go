// internal/model/event.go
package model

import (
	"time"
)

// EventType represents the type of event
type EventType string

const (
	EventJobCompleted    EventType = "job.completed"
	EventJobFailed       EventType = "job.failed"
	EventListenerStarted EventType = "listener.started"
	EventListenerStopped EventType = "listener.stopped"
)

// Event represents a system event
type Event struct {
	Type      EventType  `json:"type"`
	Source    string     `json:"source"`
	Data      JSONObject `json:"data"`
	Timestamp time.Time  `json:"timestamp"`
}

// NewJobCompletedEvent builds the event published after a job is persisted
func NewJobCompletedEvent(job *PrintJob) Event {
	return Event{
		Type:   EventJobCompleted,
		Source: job.Source,
		Data: JSONObject{
			"job_id":      job.ID.String(),
			"source_type": string(job.SourceType),
			"byte_count":  job.ByteCount,
			"token_count": job.TokenCount,
			"preview":     job.Preview,
		},
		Timestamp: time.Now(),
	}
}
