package service

import (
	"context"

	"github.com/mathieu-neron/creatordash/internal/model"
)

// ChannelLookup resolves the signed-in user's channel.
type ChannelLookup interface {
	ChannelID(ctx context.Context) (string, error)
}

// CommentLister lists comment threads for a channel.
type CommentLister interface {
	ListRecent(ctx context.Context, channelID string) ([]model.Comment, error)
}

type CommentService struct {
	channels ChannelLookup
	comments CommentLister
}

func NewCommentService(channels ChannelLookup, comments CommentLister) *CommentService {
	return &CommentService{channels: channels, comments: comments}
}

// Recent returns the newest top-level comments on the owner's channel.
func (s *CommentService) Recent(ctx context.Context) ([]model.Comment, error) {
	channelID, err := s.channels.ChannelID(ctx)
	if err != nil {
		return nil, err
	}
	return s.comments.ListRecent(ctx, channelID)
}
