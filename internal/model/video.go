package model

import "time"

// Video is an uploaded video as listed from the channel's uploads playlist.
type Video struct {
	VideoID       string    `json:"videoId"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	ThumbnailURL  string    `json:"thumbnailUrl,omitempty"`
	PrivacyStatus string    `json:"privacyStatus"`
	PublishedAt   time.Time `json:"publishedAt"`
	URL           string    `json:"url"`
}

// VideoUpdateRequest is the API request body for editing a video.
type VideoUpdateRequest struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	PrivacyStatus string `json:"privacyStatus"`
}

// WatchURL returns the public watch URL for a video ID.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
