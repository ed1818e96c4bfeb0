package model

import "time"

// Comment is a top-level comment thread on one of the channel's videos.
type Comment struct {
	ThreadID        string    `json:"threadId"`
	VideoID         string    `json:"videoId,omitempty"`
	AuthorName      string    `json:"authorName"`
	AuthorAvatarURL string    `json:"authorAvatarUrl,omitempty"`
	TextDisplay     string    `json:"textDisplay"`
	TextOriginal    string    `json:"textOriginal"`
	PublishedAt     time.Time `json:"publishedAt"`
}

// ReplyRequest is the API request body for generating reply suggestions.
type ReplyRequest struct {
	Text string `json:"text"`
}

// ReplyResponse lists the generated reply suggestions.
type ReplyResponse struct {
	Suggestions []string `json:"suggestions"`
}

// IdeaRequest is the API request body for generating video ideas.
type IdeaRequest struct {
	Theme string `json:"theme"`
}

// IdeaResponse carries the generated free-text ideas.
type IdeaResponse struct {
	Ideas string `json:"ideas"`
}
