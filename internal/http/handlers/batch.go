package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"socialgen/internal/batch"
	"socialgen/internal/domain"
	"socialgen/internal/middleware"
)

type batchPostInput struct {
	Title string `json:"title"`
	Topic string `json:"topic,omitempty"`
	Brief string `json:"brief"`
	// nil means "generate": both resources default to on.
	GenerateCaption *bool `json:"generate_caption"`
	GenerateImage   *bool `json:"generate_image"`
}

type batchGenerateRequest struct {
	Name  string           `json:"name"`
	Posts []batchPostInput `json:"posts"`
}

type batchAcceptedResponse struct {
	Message string `json:"message"`
	JobID   string `json:"job_id"`
}

type batchResultItem struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Caption  string `json:"caption"`
	ImageURL string `json:"image_url"`
	Status   string `json:"status"`
}

// GenerateBatch accepts a batch of generation requests for a campaign the
// caller owns. It answers 202 as soon as the job record exists; everything
// after that is observable only through polling.
func (a *App) GenerateBatch(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	campaignID := chi.URLParam(r, "id")
	var req batchGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	for _, post := range req.Posts {
		if strings.TrimSpace(post.Title) == "" {
			a.error(w, http.StatusBadRequest, "bad_request", "every post needs a title")
			return
		}
	}

	campaign, err := a.Campaigns.GetForUser(r.Context(), campaignID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "Campaign not found or access denied")
			return
		}
		a.Logger.Error().Err(err).Msg("load campaign for batch")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load campaign")
		return
	}

	locale := middleware.LocaleFromContext(r.Context())
	requests := make([]domain.GenerationRequest, 0, len(req.Posts))
	for _, post := range req.Posts {
		requests = append(requests, domain.GenerationRequest{
			Title:           post.Title,
			Topic:           post.Topic,
			Brief:           post.Brief,
			Locale:          locale,
			GenerateCaption: post.GenerateCaption == nil || *post.GenerateCaption,
			GenerateImage:   post.GenerateImage == nil || *post.GenerateImage,
		})
	}

	jobID, err := a.Engine.Submit(r.Context(), campaign, userID, batch.SubmitRequest{Name: req.Name, Posts: requests})
	if err != nil {
		a.Logger.Error().Err(err).Msg("submit batch job")
		a.error(w, http.StatusInternalServerError, "internal", "failed to start batch generation")
		return
	}
	a.json(w, http.StatusAccepted, batchAcceptedResponse{Message: "Batch generation started.", JobID: jobID})
}

// BatchStatus reports aggregate progress for one job.
func (a *App) BatchStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")
	report, err := a.Engine.Status(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "Batch job not found")
			return
		}
		a.Logger.Error().Err(err).Msg("load batch status")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load job status")
		return
	}
	a.json(w, http.StatusOK, report)
}

// BatchResults returns the generated posts for one job.
func (a *App) BatchResults(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")
	posts, err := a.Engine.Results(r.Context(), jobID)
	if err != nil {
		a.Logger.Error().Err(err).Msg("load batch results")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load job results")
		return
	}
	if len(posts) == 0 {
		a.error(w, http.StatusNotFound, "not_found", "No posts found for this job or job does not exist.")
		return
	}
	out := make([]batchResultItem, 0, len(posts))
	for _, post := range posts {
		out = append(out, batchResultItem{
			ID:       post.ID,
			Title:    post.Title,
			Caption:  post.Caption,
			ImageURL: post.ImageURL,
			Status:   string(post.Status),
		})
	}
	a.json(w, http.StatusOK, out)
}
