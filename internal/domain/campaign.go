package domain

import "time"

// CampaignStatus enumerates campaign lifecycle states.
type CampaignStatus string

const (
	CampaignStatusDraft    CampaignStatus = "draft"
	CampaignStatusActive   CampaignStatus = "active"
	CampaignStatusArchived CampaignStatus = "archived"
)

// Campaign groups generated posts under one brand brief owned by a single user.
type Campaign struct {
	ID             string
	UserID         string
	Name           string
	Description    string
	BrandName      string
	TargetAudience string
	ToneID         string
	// Tone is the display name of the referenced content tone, resolved on read.
	Tone      string
	Status    CampaignStatus
	CreatedAt time.Time
}

// ContentTone describes a reusable voice preset applied to generated captions.
type ContentTone struct {
	ID             string
	Name           string
	Description    string
	PromptModifier string
}
