// internal/repository/memory_job_repository.go
package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"receipt-emulator/internal/model"
)

// memoryJobRepository keeps job records in process memory
type memoryJobRepository struct {
	jobs  map[uuid.UUID]*model.PrintJob
	mutex sync.RWMutex
}

// NewMemoryJobRepository creates a job repository used when no database is configured
func NewMemoryJobRepository() JobRepository {
	return &memoryJobRepository{
		jobs: make(map[uuid.UUID]*model.PrintJob),
	}
}

// Create stores a job record
func (r *memoryJobRepository) Create(_ context.Context, job *model.PrintJob) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.jobs[job.ID]; exists {
		return fmt.Errorf("job already exists with id: %s", job.ID)
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}

	stored := *job
	r.jobs[job.ID] = &stored
	return nil
}

// GetByID retrieves a job by ID
func (r *memoryJobRepository) GetByID(_ context.Context, id uuid.UUID) (*model.PrintJob, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	job, ok := r.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	result := *job
	return &result, nil
}

// List returns jobs newest first
func (r *memoryJobRepository) List(_ context.Context, filter *model.JobFilter) ([]*model.PrintJob, int, error) {
	f := normalizeFilter(filter)

	r.mutex.RLock()
	matched := make([]*model.PrintJob, 0, len(r.jobs))
	for _, job := range r.jobs {
		if f.SourceType != nil && job.SourceType != *f.SourceType {
			continue
		}
		if f.Since != nil && job.ReceivedAt.Before(*f.Since) {
			continue
		}
		result := *job
		matched = append(matched, &result)
	}
	r.mutex.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].ReceivedAt.After(matched[j].ReceivedAt)
	})

	total := len(matched)
	if f.Offset >= total {
		return []*model.PrintJob{}, total, nil
	}
	end := min(f.Offset+f.Limit, total)
	return matched[f.Offset:end], total, nil
}

// DeleteOlderThan removes jobs received before the cutoff
func (r *memoryJobRepository) DeleteOlderThan(_ context.Context, olderThan time.Time) ([]*model.PrintJob, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var removed []*model.PrintJob
	for id, job := range r.jobs {
		if job.ReceivedAt.Before(olderThan) {
			removed = append(removed, job)
			delete(r.jobs, id)
		}
	}
	return removed, nil
}

// GetStats summarizes stored jobs
func (r *memoryJobRepository) GetStats(_ context.Context) (*JobStats, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	stats := &JobStats{BySourceType: make(map[model.SourceType]int)}
	for _, job := range r.jobs {
		stats.TotalJobs++
		stats.TotalBytes += int64(job.ByteCount)
		stats.BySourceType[job.SourceType]++
		if stats.LastJobAt == nil || job.ReceivedAt.After(*stats.LastJobAt) {
			last := job.ReceivedAt
			stats.LastJobAt = &last
		}
	}
	return stats, nil
}
