package domain

import "time"

// CampaignType identifies a seasonal promotion family.
type CampaignType string

const (
	CampaignChristmas   CampaignType = "christmas"
	CampaignExamSupport CampaignType = "exam_support"
	CampaignNewLife     CampaignType = "new_life"
	CampaignSummer      CampaignType = "summer"
	CampaignHalloween   CampaignType = "halloween"
)

// SeasonalCampaign is a promotional banner shown on the top page. Read-mostly;
// admins toggle Active and adjust the period and color.
type SeasonalCampaign struct {
	ID           int64        `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	ColorTheme   string       `json:"color_theme"`
	StartMonth   time.Month   `json:"start_month"`
	EndMonth     time.Month   `json:"end_month"`
	LinkPath     string       `json:"link_path"`
	Active       bool         `json:"active"`
	CampaignType CampaignType `json:"campaign_type"`
}

// InPeriod reports whether the month falls inside the campaign period.
// Periods may wrap the year end (e.g. December through February).
func (c *SeasonalCampaign) InPeriod(m time.Month) bool {
	if c.StartMonth <= c.EndMonth {
		return m >= c.StartMonth && m <= c.EndMonth
	}
	return m >= c.StartMonth || m <= c.EndMonth
}

// BuiltinCampaigns is the static campaign table shipped with the client,
// used as a fallback when the API has no campaign configured.
func BuiltinCampaigns() []SeasonalCampaign {
	return []SeasonalCampaign{
		{
			Name:         "クリスマスキャンペーン",
			Description:  "あったかブランケットで冬のプレゼントを",
			ColorTheme:   "#b3000c",
			StartMonth:   time.November,
			EndMonth:     time.December,
			LinkPath:     "/campaigns/christmas",
			Active:       true,
			CampaignType: CampaignChristmas,
		},
		{
			Name:         "受験生応援キャンペーン",
			Description:  "ひざ掛けで夜の勉強を応援します",
			ColorTheme:   "#1e3a8a",
			StartMonth:   time.December,
			EndMonth:     time.February,
			LinkPath:     "/campaigns/exam-support",
			Active:       true,
			CampaignType: CampaignExamSupport,
		},
		{
			Name:         "新生活キャンペーン",
			Description:  "新しい部屋にお気に入りの一枚を",
			ColorTheme:   "#fda4af",
			StartMonth:   time.March,
			EndMonth:     time.April,
			LinkPath:     "/campaigns/new-life",
			Active:       true,
			CampaignType: CampaignNewLife,
		},
		{
			Name:         "夏の冷房対策キャンペーン",
			Description:  "冷房冷え対策の夏用ブランケット特集",
			ColorTheme:   "#0e7490",
			StartMonth:   time.June,
			EndMonth:     time.August,
			LinkPath:     "/campaigns/summer",
			Active:       true,
			CampaignType: CampaignSummer,
		},
	}
}

// CurrentBuiltin returns the first builtin campaign active at the given time.
func CurrentBuiltin(now time.Time) (SeasonalCampaign, bool) {
	for _, c := range BuiltinCampaigns() {
		if c.Active && c.InPeriod(now.Month()) {
			return c, true
		}
	}
	return SeasonalCampaign{}, false
}
