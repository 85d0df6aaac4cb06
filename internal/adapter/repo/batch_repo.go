package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"socialgen/internal/domain"
)

// BatchJobRepositoryPG implements domain.BatchJobRepository.
type BatchJobRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewBatchJobRepository creates a new batch job repository backed by PostgreSQL.
func NewBatchJobRepository(pool *pgxpool.Pool) *BatchJobRepositoryPG {
	return &BatchJobRepositoryPG{pool: pool}
}

// Create inserts a new batch job record in pending state with zeroed counters.
func (r *BatchJobRepositoryPG) Create(ctx context.Context, job *domain.BatchJob) error {
	query := `
INSERT INTO batch_jobs (id, user_id, campaign_id, name, total_posts, status)
VALUES ($1, $2, $3, $4, $5, $6);
`
	_, err := r.pool.Exec(ctx, query,
		job.ID,
		job.UserID,
		job.CampaignID,
		job.Name,
		job.TotalPosts,
		job.Status,
	)
	return err
}

// GetByID fetches a batch job by its identifier.
func (r *BatchJobRepositoryPG) GetByID(ctx context.Context, id string) (*domain.BatchJob, error) {
	query := `
SELECT id, user_id, campaign_id, name, total_posts, completed_posts, failed_posts,
       status, started_at, completed_at, created_at
FROM batch_jobs
WHERE id = $1;
`
	row := r.pool.QueryRow(ctx, query, id)
	var job domain.BatchJob
	if err := row.Scan(
		&job.ID,
		&job.UserID,
		&job.CampaignID,
		&job.Name,
		&job.TotalPosts,
		&job.CompletedPosts,
		&job.FailedPosts,
		&job.Status,
		&job.StartedAt,
		&job.CompletedAt,
		&job.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

// MarkProcessing flips the job into processing. COALESCE keeps started_at
// from being rewritten if the transition ever runs twice.
func (r *BatchJobRepositoryPG) MarkProcessing(ctx context.Context, id string) error {
	query := `
UPDATE batch_jobs
SET status = $2, started_at = COALESCE(started_at, now())
WHERE id = $1;
`
	tag, err := r.pool.Exec(ctx, query, id, domain.JobStatusProcessing)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// IncrementCounter advances one outcome counter in place. The arithmetic runs
// inside the UPDATE so concurrent workers can never lose an increment.
func (r *BatchJobRepositoryPG) IncrementCounter(ctx context.Context, id string, which domain.JobCounter) error {
	var query string
	switch which {
	case domain.CounterCompleted:
		query = `UPDATE batch_jobs SET completed_posts = completed_posts + 1 WHERE id = $1;`
	case domain.CounterFailed:
		query = `UPDATE batch_jobs SET failed_posts = failed_posts + 1 WHERE id = $1;`
	default:
		return fmt.Errorf("unknown job counter %q", which)
	}
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Finish writes the terminal status and stamps completed_at exactly once.
func (r *BatchJobRepositoryPG) Finish(ctx context.Context, id string, status domain.JobStatus) error {
	query := `
UPDATE batch_jobs
SET status = $2, completed_at = COALESCE(completed_at, now())
WHERE id = $1;
`
	tag, err := r.pool.Exec(ctx, query, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
