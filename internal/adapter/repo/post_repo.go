package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"socialgen/internal/domain"
)

// PostRepositoryPG implements domain.PostRepository.
type PostRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewPostRepository creates a new post repository backed by PostgreSQL.
func NewPostRepository(pool *pgxpool.Pool) *PostRepositoryPG {
	return &PostRepositoryPG{pool: pool}
}

// Create inserts a new post record.
func (r *PostRepositoryPG) Create(ctx context.Context, post *domain.Post) error {
	query := `
INSERT INTO campaign_posts (id, campaign_id, batch_job_id, title, topic, brief, status)
VALUES ($1, $2, $3, $4, $5, $6, $7);
`
	_, err := r.pool.Exec(ctx, query,
		post.ID,
		post.CampaignID,
		post.BatchJobID,
		post.Title,
		post.Topic,
		post.Brief,
		post.Status,
	)
	return err
}

// SetResult records the generation outcome for one post.
func (r *PostRepositoryPG) SetResult(ctx context.Context, id, caption, imageURL string, status domain.PostStatus) error {
	query := `
UPDATE campaign_posts
SET caption = $2, image_url = $3, status = $4
WHERE id = $1;
`
	tag, err := r.pool.Exec(ctx, query, id, caption, imageURL, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByJob returns all posts belonging to a batch job in creation order.
func (r *PostRepositoryPG) ListByJob(ctx context.Context, jobID string) ([]domain.Post, error) {
	query := `
SELECT id, campaign_id, batch_job_id, title, topic, brief,
       COALESCE(caption, ''), COALESCE(image_url, ''), status, created_at
FROM campaign_posts
WHERE batch_job_id = $1
ORDER BY created_at ASC;
`
	rows, err := r.pool.Query(ctx, query, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		var post domain.Post
		if err := rows.Scan(
			&post.ID,
			&post.CampaignID,
			&post.BatchJobID,
			&post.Title,
			&post.Topic,
			&post.Brief,
			&post.Caption,
			&post.ImageURL,
			&post.Status,
			&post.CreatedAt,
		); err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}
