package repository

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/youtube/v3"

	"github.com/mathieu-neron/creatordash/internal/model"
)

// metadataBatch is the Data API's per-request id limit for videos.list.
const metadataBatch = 50

type VideoRepo struct {
	yt       *youtube.Service
	pageSize int64
}

func NewVideoRepo(yt *youtube.Service, pageSize int64) *VideoRepo {
	if pageSize <= 0 || pageSize > 50 {
		pageSize = 50
	}
	return &VideoRepo{yt: yt, pageSize: pageSize}
}

// ChannelID returns the signed-in owner's channel id.
func (r *VideoRepo) ChannelID(ctx context.Context) (string, error) {
	resp, err := r.yt.Channels.List([]string{"id"}).Mine(true).Context(ctx).Do()
	if err != nil {
		return "", wrapUpstream("youtube.channels", err)
	}
	if len(resp.Items) == 0 {
		return "", fmt.Errorf("youtube.channels: %w: no channel for this account", ErrNotFound)
	}
	return resp.Items[0].Id, nil
}

// uploadsPlaylistID returns the id of the owner's uploads playlist.
func (r *VideoRepo) uploadsPlaylistID(ctx context.Context) (string, error) {
	resp, err := r.yt.Channels.List([]string{"contentDetails"}).Mine(true).Context(ctx).Do()
	if err != nil {
		return "", wrapUpstream("youtube.channels", err)
	}
	if len(resp.Items) == 0 || resp.Items[0].ContentDetails == nil || resp.Items[0].ContentDetails.RelatedPlaylists == nil {
		return "", fmt.Errorf("youtube.channels: %w: no uploads playlist", ErrNotFound)
	}
	return resp.Items[0].ContentDetails.RelatedPlaylists.Uploads, nil
}

// ListUploads returns the most recent uploads, newest first.
func (r *VideoRepo) ListUploads(ctx context.Context) ([]model.Video, error) {
	playlistID, err := r.uploadsPlaylistID(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := r.yt.PlaylistItems.List([]string{"snippet", "status"}).
		PlaylistId(playlistID).
		MaxResults(r.pageSize).
		Context(ctx).Do()
	if err != nil {
		return nil, wrapUpstream("youtube.playlistItems", err)
	}

	videos := make([]model.Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Snippet == nil || item.Snippet.ResourceId == nil {
			continue
		}
		v := model.Video{
			VideoID:     item.Snippet.ResourceId.VideoId,
			Title:       item.Snippet.Title,
			Description: item.Snippet.Description,
			URL:         model.WatchURL(item.Snippet.ResourceId.VideoId),
		}
		if item.Snippet.Thumbnails != nil {
			v.ThumbnailURL = thumbnailURL(item.Snippet.Thumbnails)
		}
		if item.Status != nil {
			v.PrivacyStatus = item.Status.PrivacyStatus
		}
		if t, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
			v.PublishedAt = t
		}
		videos = append(videos, v)
	}
	return videos, nil
}

func thumbnailURL(t *youtube.ThumbnailDetails) string {
	for _, th := range []*youtube.Thumbnail{t.Medium, t.Default, t.High} {
		if th != nil && th.Url != "" {
			return th.Url
		}
	}
	return ""
}

// CategoryID returns the current category of a video. The Data API requires
// it on every snippet update.
func (r *VideoRepo) CategoryID(ctx context.Context, videoID string) (string, error) {
	resp, err := r.yt.Videos.List([]string{"snippet"}).Id(videoID).Context(ctx).Do()
	if err != nil {
		return "", wrapUpstream("youtube.videos", err)
	}
	if len(resp.Items) == 0 || resp.Items[0].Snippet == nil {
		return "", fmt.Errorf("youtube.videos: %w: video %s", ErrNotFound, videoID)
	}
	return resp.Items[0].Snippet.CategoryId, nil
}

// Update writes title, description and privacy status.
func (r *VideoRepo) Update(ctx context.Context, videoID, categoryID string, req model.VideoUpdateRequest) error {
	video := &youtube.Video{
		Id: videoID,
		Snippet: &youtube.VideoSnippet{
			Title:       req.Title,
			Description: req.Description,
			CategoryId:  categoryID,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus: req.PrivacyStatus,
		},
	}
	if _, err := r.yt.Videos.Update([]string{"snippet", "status"}, video).Context(ctx).Do(); err != nil {
		return wrapUpstream("youtube.videos", err)
	}
	return nil
}

// Delete removes a video permanently.
func (r *VideoRepo) Delete(ctx context.Context, videoID string) error {
	if err := r.yt.Videos.Delete(videoID).Context(ctx).Do(); err != nil {
		return wrapUpstream("youtube.videos", err)
	}
	return nil
}

// Metadata returns title and engagement counts keyed by video id. Ids the
// API does not return are absent from the map.
func (r *VideoRepo) Metadata(ctx context.Context, ids []string) (map[string]model.VideoMetadata, error) {
	out := make(map[string]model.VideoMetadata, len(ids))
	for start := 0; start < len(ids); start += metadataBatch {
		end := min(start+metadataBatch, len(ids))

		resp, err := r.yt.Videos.List([]string{"snippet", "statistics"}).
			Id(ids[start:end]...).
			Context(ctx).Do()
		if err != nil {
			return nil, wrapUpstream("youtube.videos", err)
		}

		for _, item := range resp.Items {
			var meta model.VideoMetadata
			if item.Snippet != nil {
				meta.Title = item.Snippet.Title
			}
			if item.Statistics != nil {
				meta.LikeCount = int64(item.Statistics.LikeCount)
				meta.CommentCount = int64(item.Statistics.CommentCount)
			}
			out[item.Id] = meta
		}
	}
	return out, nil
}
