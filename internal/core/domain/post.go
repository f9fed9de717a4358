package domain

import (
	"time"
)

// Season is the seasonal category a post is filed under.
type Season string

const (
	SeasonSpring    Season = "spring"
	SeasonSummer    Season = "summer"
	SeasonAutumn    Season = "autumn"
	SeasonWinter    Season = "winter"
	SeasonAllSeason Season = "all_season"
)

// Seasons lists the selectable categories in display order.
func Seasons() []Season {
	return []Season{SeasonSpring, SeasonSummer, SeasonAutumn, SeasonWinter, SeasonAllSeason}
}

// ValidSeason reports whether s is one of the selectable categories.
func ValidSeason(s Season) bool {
	switch s {
	case SeasonSpring, SeasonSummer, SeasonAutumn, SeasonWinter, SeasonAllSeason:
		return true
	default:
		return false
	}
}

// Price bounds accepted by the listing form, in yen.
const (
	MinPrice = 1
	MaxPrice = 1_000_000
)

// Image is an uploaded product photo attached to a post.
type Image struct {
	ID  int64  `json:"id"`
	URL string `json:"url"`
}

// Post is a blanket listing owned by exactly one user.
type Post struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	Title          string    `json:"title"`
	Price          int       `json:"price,omitempty"`
	Description    string    `json:"description,omitempty"`
	Season         Season    `json:"season"`
	Tags           []string  `json:"tags"`
	FavoritesCount int       `json:"favorites_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	Images         []Image   `json:"images"`
}

// OwnedBy reports whether the post belongs to the given user. The server
// enforces ownership authoritatively; this check only gates the client UI.
func (p *Post) OwnedBy(userID int64) bool {
	return p.UserID == userID
}

// PostDraft carries the editable fields of a listing form before submission.
type PostDraft struct {
	Title       string
	Price       int
	Description string
	Season      Season
	Tags        []string

	// ImagePath points at the photo to upload. Required when creating a
	// listing; an update keeps the existing images when empty.
	ImagePath string
}

// Validate checks the draft the same way the listing form does, before any
// network call. forCreate additionally requires an image.
func (d *PostDraft) Validate(forCreate bool) error {
	if d.Title == "" {
		return &ValidationError{Field: "title", Message: "タイトルを入力してください"}
	}
	if !ValidSeason(d.Season) {
		return &ValidationError{Field: "season", Message: "季節のカテゴリを選択してください"}
	}
	if d.Description == "" {
		return &ValidationError{Field: "description", Message: "説明文を入力してください"}
	}
	if d.Price < MinPrice || d.Price > MaxPrice {
		return &ValidationError{Field: "price", Message: "価格は1円以上100万円以下で入力してください"}
	}
	if forCreate && d.ImagePath == "" {
		return &ValidationError{Field: "image", Message: "画像を選択してください"}
	}
	return nil
}
