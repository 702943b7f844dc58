// internal/repository/job_repository.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"receipt-emulator/internal/database"
	"receipt-emulator/internal/model"
	"receipt-emulator/internal/utils"
)

const jobColumns = `id, source, source_type, received_at, byte_count, token_count,
	codepage, output_codepage, raw_path, rich_text_path, plain_text_path,
	preview, stats, created_at`

// jobRepository implements JobRepository on PostgreSQL
type jobRepository struct {
	db     *database.DB
	logger *utils.ServiceLogger
}

// NewJobRepository creates a new PostgreSQL job repository
func NewJobRepository(db *database.DB, logger *zap.Logger) JobRepository {
	return &jobRepository{
		db:     db,
		logger: utils.NewServiceLogger(logger, "job-repository"),
	}
}

// Create inserts a job record
func (r *jobRepository) Create(ctx context.Context, job *model.PrintJob) error {
	query := `
		INSERT INTO print_jobs (
			id, source, source_type, received_at, byte_count, token_count,
			codepage, output_codepage, raw_path, rich_text_path, plain_text_path,
			preview, stats
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at
	`

	start := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		job.ID, job.Source, job.SourceType, job.ReceivedAt, job.ByteCount,
		job.TokenCount, job.Codepage, job.OutputCodepage, job.RawPath,
		job.RichTextPath, job.PlainTextPath, job.Preview, job.Stats,
	).Scan(&job.CreatedAt)
	r.logger.LogDatabaseQuery("insert print_job", time.Since(start), err, zap.String("job_id", job.ID.String()))

	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	return nil
}

// GetByID retrieves a job by ID
func (r *jobRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.PrintJob, error) {
	query := `SELECT ` + jobColumns + ` FROM print_jobs WHERE id = $1`

	job, err := scanJob(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return job, nil
}

// List returns jobs newest first
func (r *jobRepository) List(ctx context.Context, filter *model.JobFilter) ([]*model.PrintJob, int, error) {
	f := normalizeFilter(filter)

	var conditions []string
	var args []interface{}
	if f.SourceType != nil {
		args = append(args, *f.SourceType)
		conditions = append(conditions, fmt.Sprintf("source_type = $%d", len(args)))
	}
	if f.Since != nil {
		args = append(args, *f.Since)
		conditions = append(conditions, fmt.Sprintf("received_at >= $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM print_jobs`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count jobs: %w", err)
	}

	args = append(args, f.Limit, f.Offset)
	query := fmt.Sprintf(`SELECT %s FROM print_jobs%s ORDER BY received_at DESC LIMIT $%d OFFSET $%d`,
		jobColumns, where, len(args)-1, len(args))

	start := time.Now()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]*model.PrintJob, 0, f.Limit)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate jobs: %w", err)
	}

	r.logger.LogDatabaseQuery("list print_jobs", time.Since(start), nil,
		zap.Int("count", len(jobs)),
		zap.Int("total", total),
	)
	return jobs, total, nil
}

// DeleteOlderThan removes jobs received before the cutoff
func (r *jobRepository) DeleteOlderThan(ctx context.Context, olderThan time.Time) ([]*model.PrintJob, error) {
	query := `DELETE FROM print_jobs WHERE received_at < $1 RETURNING ` + jobColumns

	start := time.Now()
	rows, err := r.db.QueryContext(ctx, query, olderThan)
	r.logger.LogDatabaseQuery("delete expired print_jobs", time.Since(start), err, zap.Time("older_than", olderThan))
	if err != nil {
		return nil, fmt.Errorf("failed to delete old jobs: %w", err)
	}
	defer rows.Close()

	var removed []*model.PrintJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deleted job: %w", err)
		}
		removed = append(removed, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate deleted jobs: %w", err)
	}

	return removed, nil
}

// GetStats summarizes stored jobs
func (r *jobRepository) GetStats(ctx context.Context) (*JobStats, error) {
	query := `
		SELECT source_type, COUNT(*), COALESCE(SUM(byte_count), 0), MAX(received_at)
		FROM print_jobs GROUP BY source_type
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get job stats: %w", err)
	}
	defer rows.Close()

	stats := &JobStats{BySourceType: make(map[model.SourceType]int)}
	for rows.Next() {
		var (
			sourceType model.SourceType
			count      int
			bytes      int64
			last       time.Time
		)
		if err := rows.Scan(&sourceType, &count, &bytes, &last); err != nil {
			return nil, fmt.Errorf("failed to scan job stats: %w", err)
		}
		stats.TotalJobs += count
		stats.TotalBytes += bytes
		stats.BySourceType[sourceType] = count
		if stats.LastJobAt == nil || last.After(*stats.LastJobAt) {
			stats.LastJobAt = &last
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate job stats: %w", err)
	}

	return stats, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row rowScanner) (*model.PrintJob, error) {
	job := &model.PrintJob{}
	err := row.Scan(
		&job.ID, &job.Source, &job.SourceType, &job.ReceivedAt, &job.ByteCount,
		&job.TokenCount, &job.Codepage, &job.OutputCodepage, &job.RawPath,
		&job.RichTextPath, &job.PlainTextPath, &job.Preview, &job.Stats,
		&job.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return job, nil
}
