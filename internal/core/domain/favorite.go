package domain

import (
	"sort"
	"sync"
)

// Favorite marks a user/post pair; existence is membership.
type Favorite struct {
	UserID int64 `json:"user_id"`
	PostID int64 `json:"post_id"`
}

// FavoriteSet is the local, optimistically-updated view of the acting user's
// favorites. The server call reconciles it afterwards; a failed call must be
// rolled back with Revert.
type FavoriteSet struct {
	mu  sync.Mutex
	ids map[int64]struct{}
}

func NewFavoriteSet(ids ...int64) *FavoriteSet {
	s := &FavoriteSet{ids: make(map[int64]struct{}, len(ids))}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s
}

// Replace swaps the whole membership for the server's authoritative list.
func (s *FavoriteSet) Replace(ids []int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
}

// Has reports whether the post is currently favorited.
func (s *FavoriteSet) Has(postID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[postID]
	return ok
}

// Toggle flips membership and returns the new state (true = now favorited).
func (s *FavoriteSet) Toggle(postID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[postID]; ok {
		delete(s.ids, postID)
		return false
	}
	s.ids[postID] = struct{}{}
	return true
}

// Revert undoes a previous Toggle for the post.
func (s *FavoriteSet) Revert(postID int64) {
	s.Toggle(postID)
}

// IDs returns the membership in ascending order.
func (s *FavoriteSet) IDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int64, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len returns the number of favorited posts.
func (s *FavoriteSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}
