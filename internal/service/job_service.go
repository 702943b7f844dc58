// internal/service/job_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"receipt-emulator/internal/escpos"
	"receipt-emulator/internal/model"
	"receipt-emulator/internal/repository"
	"receipt-emulator/internal/storage"
	"receipt-emulator/internal/utils"
)

const previewLength = 200

// ErrNilJob is returned when a listener hands over no job at all
var ErrNilJob = errors.New("job is nil")

// ErrUnknownArtifact is returned for artifact kinds other than raw, rich and plain
var ErrUnknownArtifact = errors.New("unknown artifact kind")

// ArtifactKind names one of the files stored for a job
type ArtifactKind string

const (
	ArtifactRaw   ArtifactKind = "raw"
	ArtifactRich  ArtifactKind = "rich"
	ArtifactPlain ArtifactKind = "plain"
)

// EventPublisher publishes job events
type EventPublisher interface {
	Publish(event model.Event)
}

// JobService turns assembled print jobs into stored receipts
type JobService struct {
	transcriber *escpos.Transcriber
	store       *storage.ReceiptStore
	repo        repository.JobRepository
	events      EventPublisher
	baseLogger  *zap.Logger
	logger      *utils.ServiceLogger
	mutex       sync.Mutex
}

// NewJobService creates a new job service instance
func NewJobService(
	transcriber *escpos.Transcriber,
	store *storage.ReceiptStore,
	repo repository.JobRepository,
	events EventPublisher,
	logger *zap.Logger,
) *JobService {
	return &JobService{
		transcriber: transcriber,
		store:       store,
		repo:        repo,
		events:      events,
		baseLogger:  logger,
		logger:      utils.NewServiceLogger(logger, "job-service"),
	}
}

// HandleJob processes a job delivered by a listener
func (s *JobService) HandleJob(ctx context.Context, job *model.Job) error {
	_, err := s.Process(ctx, job)
	return err
}

// Submit processes bytes received outside the listeners, such as an HTTP upload
func (s *JobService) Submit(ctx context.Context, sourceType model.SourceType, origin string, data []byte) (*model.PrintJob, error) {
	return s.Process(ctx, model.NewJob(sourceType, origin, data))
}

// Process decodes, stores and records one job. A job that decodes to nothing
// is skipped and returns a nil record.
func (s *JobService) Process(ctx context.Context, job *model.Job) (*model.PrintJob, error) {
	if job == nil {
		return nil, ErrNilJob
	}

	// one job at a time keeps console output and file timestamps ordered
	s.mutex.Lock()
	defer s.mutex.Unlock()

	jobLogger := utils.NewJobLogger(s.baseLogger, job.ID.String(), job.Source)
	jobLogger.Start(zap.Int("bytes", len(job.Data)))

	options := s.transcriber.Options()
	tr := s.transcriber.Transcribe(job.Data)
	if tr.Empty() {
		jobLogger.Logger().Debug("Job produced no tokens, skipping")
		return nil, nil
	}

	artifacts, err := s.store.Save(job, tr)
	if err != nil {
		jobLogger.Error(err)
		s.publishFailure(job, err)
		if artifacts == nil {
			return nil, fmt.Errorf("failed to save receipt: %w", err)
		}
	}

	record := newPrintJob(job, tr, options, artifacts)
	if err := s.repo.Create(ctx, record); err != nil {
		jobLogger.Error(err)
		s.publishFailure(job, err)
		return nil, fmt.Errorf("failed to record job: %w", err)
	}

	jobLogger.Logger().Info(fmt.Sprintf("START JOB\n%s\nEND JOB", tr.RichText))
	s.events.Publish(model.NewJobCompletedEvent(record))

	jobLogger.Success(
		zap.Int("tokens", tr.TokenCount),
		zap.Any("stats", record.Stats),
	)
	return record, nil
}

// Decode transcribes bytes without storing anything
func (s *JobService) Decode(data []byte, options escpos.Options) *escpos.Transcript {
	return s.transcriber.TranscribeWith(data, options)
}

// Options returns the configured codepages
func (s *JobService) Options() escpos.Options {
	return s.transcriber.Options()
}

// ListJobs returns a page of job records and the total count
func (s *JobService) ListJobs(ctx context.Context, filter *model.JobFilter) ([]*model.PrintJob, int, error) {
	jobs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, total, nil
}

// GetJob returns one job record
func (s *JobService) GetJob(ctx context.Context, id uuid.UUID) (*model.PrintJob, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

// ReadArtifact returns a stored file of a job
func (s *JobService) ReadArtifact(ctx context.Context, id uuid.UUID, kind ArtifactKind) ([]byte, error) {
	job, err := s.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}

	var path string
	switch kind {
	case ArtifactRaw:
		path = job.RawPath
	case ArtifactRich:
		path = job.RichTextPath
	case ArtifactPlain:
		path = job.PlainTextPath
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownArtifact, kind)
	}
	if path == "" {
		return nil, fmt.Errorf("%s artifact was not written: %w", kind, repository.ErrJobNotFound)
	}

	return s.store.Read(path)
}

// GetStats returns job statistics
func (s *JobService) GetStats(ctx context.Context) (*repository.JobStats, error) {
	stats, err := s.repo.GetStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get job stats: %w", err)
	}
	return stats, nil
}

// Cleanup removes records and files of jobs received before the cutoff
func (s *JobService) Cleanup(ctx context.Context, olderThan time.Time) (int, error) {
	removed, err := s.repo.DeleteOlderThan(ctx, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old jobs: %w", err)
	}

	var result *multierror.Error
	for _, job := range removed {
		artifacts := &storage.Artifacts{
			RawPath:       job.RawPath,
			RichTextPath:  job.RichTextPath,
			PlainTextPath: job.PlainTextPath,
		}
		if err := s.store.Remove(artifacts); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if len(removed) > 0 {
		s.logger.Info("Old jobs removed",
			zap.Int("count", len(removed)),
			zap.Time("older_than", olderThan),
		)
	}
	return len(removed), result.ErrorOrNil()
}

// RunCleanup removes expired jobs every interval until ctx is done
func (s *JobService) RunCleanup(ctx context.Context, interval, retention time.Duration) {
	if interval <= 0 || retention <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Cleanup(ctx, time.Now().Add(-retention)); err != nil {
				utils.LogError(s.logger.Logger, "Job cleanup failed", err)
			}
		}
	}
}

func (s *JobService) publishFailure(job *model.Job, err error) {
	s.events.Publish(model.Event{
		Type:   model.EventJobFailed,
		Source: job.Source,
		Data: model.JSONObject{
			"job_id":      job.ID.String(),
			"source_type": string(job.SourceType),
			"error":       err.Error(),
		},
		Timestamp: time.Now(),
	})
}

func newPrintJob(job *model.Job, tr *escpos.Transcript, options escpos.Options, artifacts *storage.Artifacts) *model.PrintJob {
	record := &model.PrintJob{
		ID:             job.ID,
		Source:         job.Source,
		SourceType:     job.SourceType,
		ReceivedAt:     job.ReceivedAt,
		ByteCount:      len(job.Data),
		TokenCount:     tr.TokenCount,
		Codepage:       options.DefaultCodepage.String(),
		OutputCodepage: options.OutputCodepage.String(),
		Preview:        preview(tr, options.OutputCodepage),
		Stats:          tokenStats(tr.Tokens),
	}
	if artifacts != nil {
		record.RawPath = artifacts.RawPath
		record.RichTextPath = artifacts.RichTextPath
		record.PlainTextPath = artifacts.PlainTextPath
	}
	return record
}

func preview(tr *escpos.Transcript, out escpos.Codepage) string {
	text, _ := out.Decode(tr.PlainText)
	if utf8.RuneCountInString(text) <= previewLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:previewLength])
}

func tokenStats(tokens []escpos.Token) model.JSONObject {
	counts := make(map[escpos.TokenKind]int)
	cuts := 0
	for _, tok := range tokens {
		counts[tok.Kind]++
		if tok.Effect() == escpos.EffectCut {
			cuts++
		}
	}

	return model.JSONObject{
		"text_runs":           counts[escpos.TokenText],
		"commands":            counts[escpos.TokenCommand],
		"unknown_commands":    counts[escpos.TokenUnknownCommand],
		"incomplete_commands": counts[escpos.TokenIncompleteCommand],
		"line_breaks":         counts[escpos.TokenLineBreak],
		"control_chars":       counts[escpos.TokenControlChar],
		"cuts":                cuts,
	}
}
