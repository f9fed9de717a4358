package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"mokomoko.app/cli/internal/core/domain"
	"mokomoko.app/cli/internal/httpx"
)

// ProfilesService reads and edits user profiles.
type ProfilesService struct {
	gw *Gateway
}

// Get returns the profile of the given user.
func (s *ProfilesService) Get(ctx context.Context, userID int64) (domain.Profile, error) {
	var profile domain.Profile
	if err := s.gw.getJSON(ctx, keyProfile(userID), &profile); err != nil {
		return domain.Profile{}, err
	}
	return profile, nil
}

// Update validates and submits the acting user's profile changes, applying
// the local copy optimistically while the refetch reconciles it.
func (s *ProfilesService) Update(ctx context.Context, draft domain.ProfileDraft) (domain.Profile, error) {
	if err := draft.Validate(); err != nil {
		return domain.Profile{}, err
	}

	userID, err := s.gw.CurrentUserID(ctx)
	if err != nil {
		return domain.Profile{}, err
	}

	body, err := s.gw.http.Request(ctx, http.MethodPut, keyProfile(userID), map[string]string{
		"nickname":      draft.Nickname,
		"bio":           draft.Bio,
		"selected_icon": draft.SelectedIcon,
	})
	if err != nil {
		return domain.Profile{}, err
	}

	var profile domain.Profile
	if err := json.Unmarshal(body, &profile); err != nil {
		return domain.Profile{}, fmt.Errorf("failed to decode profile: %w", err)
	}

	updated, marshalErr := json.Marshal(profile)
	if marshalErr == nil {
		s.gw.cache.Mutate(keyProfile(userID), func([]byte) []byte { return updated }, true)
	} else {
		s.gw.cache.Invalidate(keyProfile(userID))
	}
	return profile, nil
}

// UploadImage sends a new profile photo and returns its public URL.
func (s *ProfilesService) UploadImage(ctx context.Context, imagePath string) (string, error) {
	content, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("failed to read image %s: %w", imagePath, err)
	}

	body, err := s.gw.http.PostMultipart(ctx, "/profiles/upload_image", nil, []httpx.FilePart{{
		FieldName: "image",
		FileName:  filepath.Base(imagePath),
		Content:   content,
	}})
	if err != nil {
		return "", err
	}

	var resp struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}

	if userID, idErr := s.gw.CurrentUserID(ctx); idErr == nil {
		s.gw.cache.Invalidate(keyProfile(userID))
	}
	return resp.URL, nil
}
