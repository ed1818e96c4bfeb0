package repository

import (
	"context"
	"time"

	"google.golang.org/api/youtube/v3"

	"github.com/mathieu-neron/creatordash/internal/model"
)

// recentCommentLimit is how many top-level threads the comments tab shows.
const recentCommentLimit = 20

type CommentRepo struct {
	yt *youtube.Service
}

func NewCommentRepo(yt *youtube.Service) *CommentRepo {
	return &CommentRepo{yt: yt}
}

// ListRecent returns the newest top-level comments across the channel.
func (r *CommentRepo) ListRecent(ctx context.Context, channelID string) ([]model.Comment, error) {
	resp, err := r.yt.CommentThreads.List([]string{"snippet"}).
		AllThreadsRelatedToChannelId(channelID).
		Order("time").
		MaxResults(recentCommentLimit).
		Context(ctx).Do()
	if err != nil {
		return nil, wrapUpstream("youtube.commentThreads", err)
	}

	comments := make([]model.Comment, 0, len(resp.Items))
	for _, thread := range resp.Items {
		if thread.Snippet == nil || thread.Snippet.TopLevelComment == nil || thread.Snippet.TopLevelComment.Snippet == nil {
			continue
		}
		top := thread.Snippet.TopLevelComment.Snippet
		c := model.Comment{
			ThreadID:        thread.Id,
			VideoID:         thread.Snippet.VideoId,
			AuthorName:      top.AuthorDisplayName,
			AuthorAvatarURL: top.AuthorProfileImageUrl,
			TextDisplay:     top.TextDisplay,
			TextOriginal:    top.TextOriginal,
		}
		if t, err := time.Parse(time.RFC3339, top.PublishedAt); err == nil {
			c.PublishedAt = t
		}
		comments = append(comments, c)
	}
	return comments, nil
}
