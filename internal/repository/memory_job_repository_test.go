package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"receipt-emulator/internal/model"
)

func seed(t *testing.T, repo JobRepository, base time.Time) []*model.PrintJob {
	t.Helper()
	var jobs []*model.PrintJob
	for i, st := range []model.SourceType{model.SourceTCP, model.SourceSerial, model.SourceTCP, model.SourceHTTP} {
		job := &model.PrintJob{
			ID:         uuid.New(),
			Source:     model.SourceLabel(st, "test"),
			SourceType: st,
			ReceivedAt: base.Add(time.Duration(i) * time.Minute),
			ByteCount:  10 * (i + 1),
		}
		if err := repo.Create(context.Background(), job); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		jobs = append(jobs, job)
	}
	return jobs
}

func TestMemoryJobRepositoryGetByID(t *testing.T) {
	repo := NewMemoryJobRepository()
	jobs := seed(t, repo, time.Now())

	got, err := repo.GetByID(context.Background(), jobs[1].ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Source != jobs[1].Source || got.CreatedAt.IsZero() {
		t.Errorf("GetByID() = %+v", got)
	}

	if _, err := repo.GetByID(context.Background(), uuid.New()); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("GetByID(unknown) error = %v, want ErrJobNotFound", err)
	}
	if err := repo.Create(context.Background(), jobs[0]); err == nil {
		t.Error("Create() accepted a duplicate id")
	}
}

func TestMemoryJobRepositoryList(t *testing.T) {
	repo := NewMemoryJobRepository()
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	jobs := seed(t, repo, base)
	tcp := model.SourceTCP
	since := base.Add(90 * time.Second)

	tests := []struct {
		name      string
		filter    *model.JobFilter
		wantIDs   []uuid.UUID
		wantTotal int
	}{
		{"all newest first", nil, []uuid.UUID{jobs[3].ID, jobs[2].ID, jobs[1].ID, jobs[0].ID}, 4},
		{"by source type", &model.JobFilter{SourceType: &tcp}, []uuid.UUID{jobs[2].ID, jobs[0].ID}, 2},
		{"since", &model.JobFilter{Since: &since}, []uuid.UUID{jobs[3].ID, jobs[2].ID}, 2},
		{"paged", &model.JobFilter{Limit: 2, Offset: 1}, []uuid.UUID{jobs[2].ID, jobs[1].ID}, 4},
		{"offset past end", &model.JobFilter{Offset: 10}, nil, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, total, err := repo.List(context.Background(), tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if total != tt.wantTotal {
				t.Errorf("total = %d, want %d", total, tt.wantTotal)
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if got[i].ID != id {
					t.Errorf("[%d] = %s, want %s", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestMemoryJobRepositoryDeleteOlderThanAndStats(t *testing.T) {
	repo := NewMemoryJobRepository()
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	seed(t, repo, base)

	removed, err := repo.DeleteOlderThan(context.Background(), base.Add(2*time.Minute))
	if err != nil {
		t.Fatalf("DeleteOlderThan() error = %v", err)
	}
	if len(removed) != 2 {
		t.Errorf("removed %d jobs, want 2", len(removed))
	}

	stats, err := repo.GetStats(context.Background())
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}
	if stats.TotalJobs != 2 || stats.TotalBytes != 70 {
		t.Errorf("stats = %+v, want 2 jobs and 70 bytes", stats)
	}
	if stats.BySourceType[model.SourceTCP] != 1 || stats.BySourceType[model.SourceHTTP] != 1 {
		t.Errorf("BySourceType = %v", stats.BySourceType)
	}
	if want := base.Add(3 * time.Minute); stats.LastJobAt == nil || !stats.LastJobAt.Equal(want) {
		t.Errorf("LastJobAt = %v, want %v", stats.LastJobAt, want)
	}
}
