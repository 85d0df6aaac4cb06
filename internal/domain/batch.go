package domain

import "time"

// JobStatus enumerates batch job lifecycle states.
type JobStatus string

const (
	JobStatusPending             JobStatus = "pending"
	JobStatusProcessing          JobStatus = "processing"
	JobStatusCompleted           JobStatus = "completed"
	JobStatusCompletedWithErrors JobStatus = "completed_with_errors"
	JobStatusFailed              JobStatus = "failed"
)

// Terminal reports whether the status can no longer change.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusCompletedWithErrors, JobStatusFailed:
		return true
	}
	return false
}

// PostStatus enumerates per-post generation states.
type PostStatus string

const (
	PostStatusPending    PostStatus = "pending"
	PostStatusGenerating PostStatus = "generating"
	PostStatusCompleted  PostStatus = "completed"
	PostStatusFailed     PostStatus = "failed"
)

// JobCounter selects which aggregate counter a finished post advances.
type JobCounter string

const (
	CounterCompleted JobCounter = "completed"
	CounterFailed    JobCounter = "failed"
)

// BatchJob tracks one submitted batch of generation requests as a unit.
// CompletedPosts and FailedPosts only ever grow, and only through the
// store-level atomic increment; they are never written from a cached copy.
type BatchJob struct {
	ID             string
	UserID         string
	CampaignID     string
	Name           string
	TotalPosts     int
	CompletedPosts int
	FailedPosts    int
	Status         JobStatus
	StartedAt      *time.Time
	CompletedAt    *time.Time
	CreatedAt      time.Time
}

// Percentage returns overall progress in the 0-100 range. A job with no
// posts reports 0 rather than dividing by zero.
func (j *BatchJob) Percentage() float64 {
	if j.TotalPosts <= 0 {
		return 0
	}
	return float64(j.CompletedPosts+j.FailedPosts) / float64(j.TotalPosts) * 100
}

// Post is one generation item inside a batch job. Exactly one worker owns a
// post for its whole lifetime; a post is never shared across workers.
type Post struct {
	ID         string
	CampaignID string
	BatchJobID string
	Title      string
	Topic      string
	Brief      string
	Caption    string
	ImageURL   string
	Status     PostStatus
	CreatedAt  time.Time
}

// GenerationRequest carries the caller-supplied inputs for one post plus the
// campaign context the generator needs. It is ephemeral and never persisted
// as its own record.
type GenerationRequest struct {
	Title           string
	Topic           string
	Brief           string
	BrandName       string
	Tone            string
	TargetAudience  string
	Locale          string
	GenerateCaption bool
	GenerateImage   bool
}
