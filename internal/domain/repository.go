package domain

import "context"

// UserRepository defines access methods for users.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}

// CampaignRepository defines persistence for campaigns.
type CampaignRepository interface {
	Create(ctx context.Context, campaign *Campaign) error
	// GetForUser returns the campaign only when it is owned by userID,
	// otherwise ErrNotFound. Ownership is checked here, not by callers.
	GetForUser(ctx context.Context, id, userID string) (*Campaign, error)
	ListByUser(ctx context.Context, userID string) ([]Campaign, error)
}

// BatchJobRepository defines persistence for batch jobs.
type BatchJobRepository interface {
	Create(ctx context.Context, job *BatchJob) error
	GetByID(ctx context.Context, id string) (*BatchJob, error)
	// MarkProcessing transitions the job to processing and records
	// started_at exactly once.
	MarkProcessing(ctx context.Context, id string) error
	// IncrementCounter atomically advances one of the job's two outcome
	// counters. It must behave like `SET counter = counter + 1` under
	// concurrent callers; lost updates here corrupt the whole batch.
	IncrementCounter(ctx context.Context, id string, which JobCounter) error
	// Finish writes the terminal status and records completed_at exactly once.
	Finish(ctx context.Context, id string, status JobStatus) error
}

// PostRepository defines persistence for generated posts.
type PostRepository interface {
	Create(ctx context.Context, post *Post) error
	SetResult(ctx context.Context, id, caption, imageURL string, status PostStatus) error
	ListByJob(ctx context.Context, jobID string) ([]Post, error)
}
