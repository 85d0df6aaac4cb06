package batch

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"socialgen/internal/domain"
)

// CaptionFailureMessage is stored in place of a caption when generation gave up.
const CaptionFailureMessage = "Caption generation failed after retries."

// ImageFailurePlaceholder is stored in place of an image URL when generation gave up.
const ImageFailurePlaceholder = "placeholder://image-generation-failed"

const defaultConcurrency = 3

// Generator produces caption text and image URLs for one request. Both calls
// block until the result is ready or retries are exhausted.
type Generator interface {
	GenerateCaption(ctx context.Context, req domain.GenerationRequest) (string, error)
	GenerateImage(ctx context.Context, req domain.GenerationRequest) (string, error)
}

// Engine drives a batch of generation requests to completion: bounded
// concurrency, per-post failure isolation, and atomic success/failure
// accounting on the owning job.
type Engine struct {
	jobs        domain.BatchJobRepository
	posts       domain.PostRepository
	gen         Generator
	logger      zerolog.Logger
	concurrency int

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewEngine builds an engine processing at most concurrency posts at a time.
// The bound exists to respect the generator's rate limits, not local
// resources, so it is fixed at construction rather than derived from batch
// size.
func NewEngine(jobs domain.BatchJobRepository, posts domain.PostRepository, gen Generator, logger zerolog.Logger, concurrency int) *Engine {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		jobs:        jobs,
		posts:       posts,
		gen:         gen,
		logger:      logger,
		concurrency: concurrency,
		baseCtx:     ctx,
		cancel:      cancel,
	}
}

// SubmitRequest is one batch submission.
type SubmitRequest struct {
	Name  string
	Posts []domain.GenerationRequest
}

// Submit creates the job record and kicks off processing in the background.
// It returns as soon as the pending job is durable; progress is observable
// through Status from that moment on.
func (e *Engine) Submit(ctx context.Context, campaign *domain.Campaign, userID string, req SubmitRequest) (string, error) {
	job := &domain.BatchJob{
		ID:         uuid.NewString(),
		UserID:     userID,
		CampaignID: campaign.ID,
		Name:       req.Name,
		TotalPosts: len(req.Posts),
		Status:     domain.JobStatusPending,
	}
	if err := e.jobs.Create(ctx, job); err != nil {
		return "", err
	}

	requests := make([]domain.GenerationRequest, len(req.Posts))
	for i, post := range req.Posts {
		post.BrandName = campaign.BrandName
		post.Tone = campaign.Tone
		post.TargetAudience = campaign.TargetAudience
		requests[i] = post
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.run(e.baseCtx, job.ID, campaign.ID, requests)
	}()
	return job.ID, nil
}

// run processes one job end to end. The terminal status is computed only
// after every worker has finished, counter update included; deriving it any
// earlier would undercount.
func (e *Engine) run(ctx context.Context, jobID, campaignID string, requests []domain.GenerationRequest) {
	log := e.logger.With().Str("job_id", jobID).Logger()

	if err := e.jobs.MarkProcessing(ctx, jobID); err != nil {
		// Leave the job pending rather than forging a terminal state with
		// counters that do not add up.
		log.Error().Err(err).Msg("mark job processing")
		return
	}
	log.Info().Int("total", len(requests)).Msg("batch processing started")

	g := new(errgroup.Group)
	g.SetLimit(e.concurrency)
	for _, req := range requests {
		req := req
		g.Go(func() error {
			// Workers report outcomes through the job counters and
			// never surface errors to the orchestrator.
			e.processPost(ctx, jobID, campaignID, req, log)
			return nil
		})
	}
	_ = g.Wait()

	job, err := e.jobs.GetByID(context.WithoutCancel(ctx), jobID)
	if err != nil {
		log.Error().Err(err).Msg("reload job for final status")
		return
	}
	status := domain.JobStatusCompleted
	if job.FailedPosts > 0 {
		status = domain.JobStatusCompletedWithErrors
	}
	if err := e.jobs.Finish(context.WithoutCancel(ctx), jobID, status); err != nil {
		log.Error().Err(err).Msg("write terminal job status")
		return
	}
	log.Info().
		Int("completed", job.CompletedPosts).
		Int("failed", job.FailedPosts).
		Str("status", string(status)).
		Msg("batch finished")
}

// processPost handles one generation request end to end. Whatever happens
// inside, exactly one of the job's counters is advanced exactly once: the
// deferred increment runs on success, on failure at any step, and on panic.
func (e *Engine) processPost(ctx context.Context, jobID, campaignID string, req domain.GenerationRequest, log zerolog.Logger) {
	status := domain.PostStatusFailed
	defer func() {
		if r := recover(); r != nil {
			status = domain.PostStatusFailed
			log.Error().Interface("panic", r).Str("title", req.Title).Msg("post worker panicked")
		}
		which := domain.CounterFailed
		if status == domain.PostStatusCompleted {
			which = domain.CounterCompleted
		}
		if err := e.jobs.IncrementCounter(context.WithoutCancel(ctx), jobID, which); err != nil {
			log.Error().Err(err).Str("title", req.Title).Msg("increment job counter")
		}
	}()

	post := &domain.Post{
		ID:         uuid.NewString(),
		CampaignID: campaignID,
		BatchJobID: jobID,
		Title:      req.Title,
		Topic:      req.Topic,
		Brief:      req.Brief,
		Status:     domain.PostStatusGenerating,
	}
	if err := e.posts.Create(ctx, post); err != nil {
		// No post row to flag, but the job still counts the failure.
		log.Error().Err(err).Str("title", req.Title).Msg("create post")
		return
	}

	start := time.Now()
	caption, imageURL, captionErr, imageErr := e.generate(ctx, req)
	if captionErr != nil {
		caption = CaptionFailureMessage
		log.Warn().Err(captionErr).Str("post_id", post.ID).Msg("caption generation failed")
	}
	if imageErr != nil {
		imageURL = ImageFailurePlaceholder
		log.Warn().Err(imageErr).Str("post_id", post.ID).Msg("image generation failed")
	}

	final := domain.PostStatusCompleted
	if captionErr != nil || imageErr != nil {
		final = domain.PostStatusFailed
	}
	if err := e.posts.SetResult(ctx, post.ID, caption, imageURL, final); err != nil {
		log.Error().Err(err).Str("post_id", post.ID).Msg("persist post result")
		return
	}
	status = final
	log.Info().
		Str("post_id", post.ID).
		Str("status", string(final)).
		Dur("duration", time.Since(start)).
		Msg("post processed")
}

// generate issues the caption and image calls concurrently. One failing call
// never prevents capturing the other's result, and a resource disabled on
// the request is trivially successful.
func (e *Engine) generate(ctx context.Context, req domain.GenerationRequest) (caption, imageURL string, captionErr, imageErr error) {
	var wg sync.WaitGroup
	if req.GenerateCaption {
		wg.Add(1)
		go func() {
			defer wg.Done()
			caption, captionErr = e.gen.GenerateCaption(ctx, req)
		}()
	}
	if req.GenerateImage {
		wg.Add(1)
		go func() {
			defer wg.Done()
			imageURL, imageErr = e.gen.GenerateImage(ctx, req)
		}()
	}
	wg.Wait()
	return caption, imageURL, captionErr, imageErr
}

// Progress is the aggregate counter snapshot for one job.
type Progress struct {
	Total      int     `json:"total"`
	Completed  int     `json:"completed"`
	Failed     int     `json:"failed"`
	Percentage float64 `json:"percentage"`
}

// StatusReport is the poll-friendly view of one job. Safe to request at any
// point in the job's lifecycle, mid-processing included.
type StatusReport struct {
	ID             string           `json:"id"`
	Status         domain.JobStatus `json:"status"`
	Progress       Progress         `json:"progress"`
	StartedAt      *time.Time       `json:"started_at"`
	CompletedAt    *time.Time       `json:"completed_at"`
	ElapsedSeconds *float64         `json:"elapsed_seconds"`
}

// Status reports current counters, completion percentage and elapsed time
// for a job. Unknown ids yield domain.ErrNotFound.
func (e *Engine) Status(ctx context.Context, jobID string) (*StatusReport, error) {
	job, err := e.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	report := &StatusReport{
		ID:     job.ID,
		Status: job.Status,
		Progress: Progress{
			Total:      job.TotalPosts,
			Completed:  job.CompletedPosts,
			Failed:     job.FailedPosts,
			Percentage: math.Round(job.Percentage()*10) / 10,
		},
		StartedAt:   job.StartedAt,
		CompletedAt: job.CompletedAt,
	}
	if job.StartedAt != nil {
		end := time.Now()
		if job.CompletedAt != nil {
			end = *job.CompletedAt
		}
		elapsed := math.Round(end.Sub(*job.StartedAt).Seconds()*100) / 100
		report.ElapsedSeconds = &elapsed
	}
	return report, nil
}

// Results returns every post materialized for the job so far.
func (e *Engine) Results(ctx context.Context, jobID string) ([]domain.Post, error) {
	return e.posts.ListByJob(ctx, jobID)
}

// Shutdown cancels in-flight batches and waits for their workers to wind
// down, up to the deadline carried by ctx.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.cancel()
	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
