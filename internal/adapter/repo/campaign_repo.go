package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"socialgen/internal/domain"
)

// CampaignRepositoryPG implements domain.CampaignRepository.
type CampaignRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewCampaignRepository creates a new campaign repository backed by PostgreSQL.
func NewCampaignRepository(pool *pgxpool.Pool) *CampaignRepositoryPG {
	return &CampaignRepositoryPG{pool: pool}
}

// Create inserts a new campaign record.
func (r *CampaignRepositoryPG) Create(ctx context.Context, campaign *domain.Campaign) error {
	query := `
INSERT INTO campaigns (id, user_id, name, description, brand_name, target_audience, tone_id, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
`
	_, err := r.pool.Exec(ctx, query,
		campaign.ID,
		campaign.UserID,
		campaign.Name,
		campaign.Description,
		campaign.BrandName,
		campaign.TargetAudience,
		campaign.ToneID,
		campaign.Status,
	)
	return err
}

// GetForUser fetches a campaign owned by the given user, resolving the tone
// display name alongside. Campaigns owned by somebody else surface as
// ErrNotFound rather than a distinct "forbidden" so ids are not probeable.
func (r *CampaignRepositoryPG) GetForUser(ctx context.Context, id, userID string) (*domain.Campaign, error) {
	query := `
SELECT c.id, c.user_id, c.name, c.description, c.brand_name, c.target_audience,
       c.tone_id, COALESCE(t.name, c.tone_id), c.status, c.created_at
FROM campaigns c
LEFT JOIN content_tones t ON t.id = c.tone_id
WHERE c.id = $1 AND c.user_id = $2;
`
	row := r.pool.QueryRow(ctx, query, id, userID)
	campaign, err := scanCampaign(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return campaign, nil
}

// ListByUser returns all campaigns owned by the given user, newest first.
func (r *CampaignRepositoryPG) ListByUser(ctx context.Context, userID string) ([]domain.Campaign, error) {
	query := `
SELECT c.id, c.user_id, c.name, c.description, c.brand_name, c.target_audience,
       c.tone_id, COALESCE(t.name, c.tone_id), c.status, c.created_at
FROM campaigns c
LEFT JOIN content_tones t ON t.id = c.tone_id
WHERE c.user_id = $1
ORDER BY c.created_at DESC;
`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var campaigns []domain.Campaign
	for rows.Next() {
		campaign, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, *campaign)
	}
	return campaigns, rows.Err()
}

func scanCampaign(row pgx.Row) (*domain.Campaign, error) {
	var campaign domain.Campaign
	if err := row.Scan(
		&campaign.ID,
		&campaign.UserID,
		&campaign.Name,
		&campaign.Description,
		&campaign.BrandName,
		&campaign.TargetAudience,
		&campaign.ToneID,
		&campaign.Tone,
		&campaign.Status,
		&campaign.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &campaign, nil
}
