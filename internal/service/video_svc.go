package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/mathieu-neron/creatordash/internal/model"
)

// descriptionPreviewRunes is how much of a description the list view carries.
const descriptionPreviewRunes = 100

var validPrivacy = map[string]bool{
	"public":   true,
	"private":  true,
	"unlisted": true,
}

// VideoStore is the YouTube video backend.
type VideoStore interface {
	ListUploads(ctx context.Context) ([]model.Video, error)
	CategoryID(ctx context.Context, videoID string) (string, error)
	Update(ctx context.Context, videoID, categoryID string, req model.VideoUpdateRequest) error
	Delete(ctx context.Context, videoID string) error
}

type VideoService struct {
	store VideoStore
}

func NewVideoService(store VideoStore) *VideoService {
	return &VideoService{store: store}
}

// List returns the channel's uploads with descriptions cut to a preview.
func (s *VideoService) List(ctx context.Context) ([]model.Video, error) {
	videos, err := s.store.ListUploads(ctx)
	if err != nil {
		return nil, err
	}
	for i := range videos {
		videos[i].Description = truncateRunes(videos[i].Description, descriptionPreviewRunes)
	}
	return videos, nil
}

// Update edits title, description and privacy. The current category is read
// first because the Data API resets it when omitted.
func (s *VideoService) Update(ctx context.Context, videoID string, req model.VideoUpdateRequest) error {
	if err := ValidateVideoUpdate(req); err != nil {
		return err
	}

	categoryID, err := s.store.CategoryID(ctx, videoID)
	if err != nil {
		return err
	}
	return s.store.Update(ctx, videoID, categoryID, req)
}

func (s *VideoService) Delete(ctx context.Context, videoID string) error {
	return s.store.Delete(ctx, videoID)
}

// ValidateVideoUpdate checks an edit request before it reaches YouTube.
func ValidateVideoUpdate(req model.VideoUpdateRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if !validPrivacy[req.PrivacyStatus] {
		return fmt.Errorf("%w: privacy status must be public, private or unlisted", ErrInvalidInput)
	}
	return nil
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
