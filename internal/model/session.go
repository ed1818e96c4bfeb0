package model

// Profile is the signed-in channel owner's Google profile.
type Profile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// SessionResponse is the API response for GET /auth/me.
type SessionResponse struct {
	Authenticated bool   `json:"authenticated"`
	Name          string `json:"name,omitempty"`
}

// PromptRequest is the body sent to the prompt-execution relay.
type PromptRequest struct {
	Prompt string `json:"prompt"`
	Data   any    `json:"data"`
}

// PromptResponse is the relay's reply envelope.
type PromptResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    struct {
		Analysis string `json:"analysis"`
	} `json:"data"`
}
