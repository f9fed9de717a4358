package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"mokomoko.app/cli/internal/cache"
	"mokomoko.app/cli/internal/core/domain"
	"mokomoko.app/cli/internal/httpx"
)

// PostsService covers listing creation, lookup and the owner-only mutations.
type PostsService struct {
	gw *Gateway
}

// List returns the public feed.
func (s *PostsService) List(ctx context.Context) ([]domain.Post, error) {
	var posts []domain.Post
	if err := s.gw.getJSON(ctx, keyPosts, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// ListBySeason returns the feed filtered to one seasonal category.
func (s *PostsService) ListBySeason(ctx context.Context, season domain.Season) ([]domain.Post, error) {
	if !domain.ValidSeason(season) {
		return nil, &domain.ValidationError{Field: "season", Message: "季節のカテゴリを選択してください"}
	}
	var posts []domain.Post
	if err := s.gw.getJSON(ctx, keyPostsBySeason(string(season)), &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// Get returns a single post.
func (s *PostsService) Get(ctx context.Context, id int64) (domain.Post, error) {
	var post domain.Post
	if err := s.gw.getJSON(ctx, keyPost(id), &post); err != nil {
		return domain.Post{}, err
	}
	return post, nil
}

// Mine returns the acting user's own listings. The read is suppressed while
// signed out.
func (s *PostsService) Mine(ctx context.Context) ([]domain.Post, error) {
	var posts []domain.Post
	if err := s.gw.getJSON(ctx, keyMyPosts, &posts, cache.RequireAuth()); err != nil {
		return nil, err
	}
	return posts, nil
}

// Create validates the draft locally, uploads it with its image, and
// invalidates the feed and own-listings keys.
func (s *PostsService) Create(ctx context.Context, draft domain.PostDraft) (domain.Post, error) {
	if err := draft.Validate(true); err != nil {
		return domain.Post{}, err
	}

	image, err := readImage(draft.ImagePath)
	if err != nil {
		return domain.Post{}, err
	}

	body, err := s.gw.http.PostMultipart(ctx, keyPosts, draftFields(draft), []httpx.FilePart{image})
	if err != nil {
		return domain.Post{}, err
	}

	var post domain.Post
	if err := json.Unmarshal(body, &post); err != nil {
		return domain.Post{}, fmt.Errorf("failed to decode created post: %w", err)
	}

	s.invalidateFeeds()
	s.gw.cache.Invalidate(keyMyPosts)
	return post, nil
}

// Update validates the draft, confirms ownership, and sends the changes. A
// draft without an image keeps the existing photos.
func (s *PostsService) Update(ctx context.Context, id int64, draft domain.PostDraft) (domain.Post, error) {
	if err := draft.Validate(false); err != nil {
		return domain.Post{}, err
	}
	if err := s.checkOwnership(ctx, id); err != nil {
		return domain.Post{}, err
	}

	var body []byte
	var err error
	if draft.ImagePath != "" {
		image, imgErr := readImage(draft.ImagePath)
		if imgErr != nil {
			return domain.Post{}, imgErr
		}
		fields := draftFields(draft)
		fields["_method"] = "put"
		body, err = s.gw.http.PostMultipart(ctx, keyPost(id), fields, []httpx.FilePart{image})
	} else {
		body, err = s.gw.http.Request(ctx, http.MethodPut, keyPost(id), map[string]any{
			"title":       draft.Title,
			"price":       draft.Price,
			"description": draft.Description,
			"season":      draft.Season,
			"tags":        draft.Tags,
		})
	}
	if err != nil {
		return domain.Post{}, err
	}

	var post domain.Post
	if err := json.Unmarshal(body, &post); err != nil {
		return domain.Post{}, fmt.Errorf("failed to decode updated post: %w", err)
	}

	s.invalidateFeeds()
	s.gw.cache.Invalidate(keyPost(id))
	s.gw.cache.Invalidate(keyMyPosts)
	return post, nil
}

// Delete removes an owned post. The feed is invalidated, while the cached
// own-listings list just drops the id locally without a refetch.
func (s *PostsService) Delete(ctx context.Context, id int64) error {
	if err := s.checkOwnership(ctx, id); err != nil {
		return err
	}

	if _, err := s.gw.http.Request(ctx, http.MethodDelete, keyPost(id), nil); err != nil {
		return err
	}

	s.invalidateFeeds()
	s.gw.cache.Invalidate(keyPost(id))

	if s.gw.cache.Peek(keyMyPosts).Data != nil {
		s.gw.cache.Mutate(keyMyPosts, func(current []byte) []byte {
			return dropPostFromList(current, id)
		}, false)
	}
	return nil
}

// invalidateFeeds drops the public feed and every season-filtered variant of
// it. A write to one post can move it between the filtered lists.
func (s *PostsService) invalidateFeeds() {
	s.gw.cache.Invalidate(keyPosts)
	for _, season := range domain.Seasons() {
		s.gw.cache.Invalidate(keyPostsBySeason(string(season)))
	}
}

func (s *PostsService) checkOwnership(ctx context.Context, id int64) error {
	me, err := s.gw.CurrentUserID(ctx)
	if err != nil {
		return err
	}

	post, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !post.OwnedBy(me) {
		return ErrNotOwner
	}
	return nil
}

func draftFields(draft domain.PostDraft) map[string]string {
	return map[string]string{
		"title":       draft.Title,
		"price":       strconv.Itoa(draft.Price),
		"description": draft.Description,
		"season":      string(draft.Season),
		"tags":        strings.Join(draft.Tags, ","),
	}
}

func readImage(path string) (httpx.FilePart, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return httpx.FilePart{}, fmt.Errorf("failed to read image %s: %w", path, err)
	}
	return httpx.FilePart{
		FieldName: "image",
		FileName:  filepath.Base(path),
		Content:   content,
	}, nil
}

// dropPostFromList filters a cached JSON post list in place of a refetch.
// A list that fails to decode is returned untouched; the next invalidation
// will straighten it out.
func dropPostFromList(current []byte, id int64) []byte {
	var posts []domain.Post
	if err := json.Unmarshal(current, &posts); err != nil {
		return current
	}

	kept := posts[:0]
	for _, p := range posts {
		if p.ID != id {
			kept = append(kept, p)
		}
	}

	updated, err := json.Marshal(kept)
	if err != nil {
		return current
	}
	return updated
}
