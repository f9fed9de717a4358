package domain

import "time"

// User is the MokoMoko account record kept by the backend, linked to the
// identity provider account through FirebaseUID.
type User struct {
	ID          int64     `json:"id"`
	FirebaseUID string    `json:"firebase_uid"`
	Email       string    `json:"email"`
	CreatedAt   time.Time `json:"created_at"`
}

// Profile is the public-facing half of an account, one-to-one with User.
type Profile struct {
	UserID       int64  `json:"user_id"`
	Nickname     string `json:"nickname"`
	Bio          string `json:"bio"`
	ProfileImage string `json:"profile_image,omitempty"`
	SelectedIcon string `json:"selected_icon"`
}

// ProfileDraft carries the editable profile fields.
type ProfileDraft struct {
	Nickname     string
	Bio          string
	SelectedIcon string
}

// Validate mirrors the profile edit form checks.
func (d *ProfileDraft) Validate() error {
	if d.Nickname == "" {
		return &ValidationError{Field: "nickname", Message: "ニックネームを入力してください"}
	}
	if len([]rune(d.Nickname)) > 20 {
		return &ValidationError{Field: "nickname", Message: "ニックネームは20文字以内で入力してください"}
	}
	if len([]rune(d.Bio)) > 200 {
		return &ValidationError{Field: "bio", Message: "自己紹介は200文字以内で入力してください"}
	}
	return nil
}
