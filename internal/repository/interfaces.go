// internal/repository/interfaces.go
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"receipt-emulator/internal/model"
)

// ErrJobNotFound is returned when a job id has no record
var ErrJobNotFound = errors.New("job not found")

// JobRepository defines print job data access operations
type JobRepository interface {
	Create(ctx context.Context, job *model.PrintJob) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.PrintJob, error)

	// List returns a page of jobs, newest first, and the total match count
	List(ctx context.Context, filter *model.JobFilter) ([]*model.PrintJob, int, error)

	// DeleteOlderThan removes jobs received before the cutoff and returns them
	DeleteOlderThan(ctx context.Context, olderThan time.Time) ([]*model.PrintJob, error)

	GetStats(ctx context.Context) (*JobStats, error)
}

// JobStats represents job statistics
type JobStats struct {
	TotalJobs    int                      `json:"total_jobs"`
	TotalBytes   int64                    `json:"total_bytes"`
	BySourceType map[model.SourceType]int `json:"by_source_type"`
	LastJobAt    *time.Time               `json:"last_job_at,omitempty"`
}

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// normalizeFilter applies paging defaults
func normalizeFilter(filter *model.JobFilter) model.JobFilter {
	f := model.JobFilter{}
	if filter != nil {
		f = *filter
	}
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}
