package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"mokomoko.app/cli/internal/core/domain"
	"mokomoko.app/cli/internal/httpx"
)

// CampaignsService reads the seasonal campaign configuration and carries the
// admin mutations. Campaign writes are never optimistic: a failed call leaves
// the cached campaign state exactly as it was.
type CampaignsService struct {
	gw *Gateway
}

// List returns all configured campaigns.
func (s *CampaignsService) List(ctx context.Context) ([]domain.SeasonalCampaign, error) {
	var campaigns []domain.SeasonalCampaign
	if err := s.gw.getJSON(ctx, keyCampaigns, &campaigns); err != nil {
		return nil, err
	}
	return campaigns, nil
}

// Get returns one campaign.
func (s *CampaignsService) Get(ctx context.Context, id int64) (domain.SeasonalCampaign, error) {
	var campaign domain.SeasonalCampaign
	if err := s.gw.getJSON(ctx, keyCampaign(id), &campaign); err != nil {
		return domain.SeasonalCampaign{}, err
	}
	return campaign, nil
}

// Current returns the primary campaign for right now. When the API has none
// configured, the builtin seasonal table decides.
func (s *CampaignsService) Current(ctx context.Context) (domain.SeasonalCampaign, bool, error) {
	return s.current(ctx, keyCurrentCampaign, true)
}

// CurrentSecondary returns the secondary campaign slot, with no builtin
// fallback.
func (s *CampaignsService) CurrentSecondary(ctx context.Context) (domain.SeasonalCampaign, bool, error) {
	return s.current(ctx, keySecondaryCampaign, false)
}

func (s *CampaignsService) current(ctx context.Context, key string, fallback bool) (domain.SeasonalCampaign, bool, error) {
	var campaign domain.SeasonalCampaign
	err := s.gw.getJSON(ctx, key, &campaign)
	if err == nil {
		return campaign, true, nil
	}

	var rerr *httpx.RequestError
	if errors.As(err, &rerr) && rerr.Status == http.StatusNotFound {
		if fallback {
			c, ok := domain.CurrentBuiltin(time.Now())
			return c, ok, nil
		}
		return domain.SeasonalCampaign{}, false, nil
	}
	return domain.SeasonalCampaign{}, false, err
}

// Update submits edits to a campaign's period, color and copy.
func (s *CampaignsService) Update(ctx context.Context, campaign domain.SeasonalCampaign) (domain.SeasonalCampaign, error) {
	body, err := s.gw.http.Request(ctx, http.MethodPut, keyCampaign(campaign.ID), campaign)
	if err != nil {
		return domain.SeasonalCampaign{}, err
	}

	var updated domain.SeasonalCampaign
	if err := json.Unmarshal(body, &updated); err != nil {
		return domain.SeasonalCampaign{}, fmt.Errorf("failed to decode campaign: %w", err)
	}

	s.invalidateCampaignKeys(campaign.ID)
	return updated, nil
}

// ToggleActive switches a campaign on or off.
func (s *CampaignsService) ToggleActive(ctx context.Context, id int64, active bool) error {
	_, err := s.gw.http.Request(ctx, http.MethodPatch, keyCampaign(id), map[string]bool{"active": active})
	if err != nil {
		return err
	}

	s.invalidateCampaignKeys(id)
	return nil
}

func (s *CampaignsService) invalidateCampaignKeys(id int64) {
	s.gw.cache.Invalidate(keyCampaigns)
	s.gw.cache.Invalidate(keyCampaign(id))
	s.gw.cache.Invalidate(keyCurrentCampaign)
	s.gw.cache.Invalidate(keySecondaryCampaign)
}
