package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"socialgen/internal/domain"
)

type campaignCreateRequest struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	BrandName      string `json:"brand_name"`
	TargetAudience string `json:"target_audience"`
	ToneID         string `json:"tone_id"`
}

type campaignResponse struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	BrandName      string    `json:"brand_name"`
	TargetAudience string    `json:"target_audience"`
	ToneID         string    `json:"tone_id"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

// CampaignsCreate registers a new campaign for the authenticated user.
func (a *App) CampaignsCreate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req campaignCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.BrandName) == "" || strings.TrimSpace(req.ToneID) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "name, brand_name and tone_id are required")
		return
	}
	campaign := &domain.Campaign{
		ID:             uuid.NewString(),
		UserID:         userID,
		Name:           req.Name,
		Description:    req.Description,
		BrandName:      req.BrandName,
		TargetAudience: req.TargetAudience,
		ToneID:         req.ToneID,
		Status:         domain.CampaignStatusDraft,
	}
	if err := a.Campaigns.Create(r.Context(), campaign); err != nil {
		a.Logger.Error().Err(err).Msg("create campaign")
		a.error(w, http.StatusInternalServerError, "internal", "failed to create campaign")
		return
	}
	a.json(w, http.StatusCreated, toCampaignResponse(campaign))
}

// CampaignsList returns the authenticated user's campaigns.
func (a *App) CampaignsList(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	campaigns, err := a.Campaigns.ListByUser(r.Context(), userID)
	if err != nil {
		a.Logger.Error().Err(err).Msg("list campaigns")
		a.error(w, http.StatusInternalServerError, "internal", "failed to list campaigns")
		return
	}
	out := make([]campaignResponse, 0, len(campaigns))
	for i := range campaigns {
		out = append(out, toCampaignResponse(&campaigns[i]))
	}
	a.json(w, http.StatusOK, out)
}

func toCampaignResponse(c *domain.Campaign) campaignResponse {
	return campaignResponse{
		ID:             c.ID,
		UserID:         c.UserID,
		Name:           c.Name,
		Description:    c.Description,
		BrandName:      c.BrandName,
		TargetAudience: c.TargetAudience,
		ToneID:         c.ToneID,
		Status:         string(c.Status),
		CreatedAt:      c.CreatedAt,
	}
}
