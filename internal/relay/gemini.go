package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	"github.com/mathieu-neron/creatordash/internal/metrics"
)

// Gemini executes prompts directly against the Gemini API instead of going
// through a script relay.
type Gemini struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	limiter *rate.Limiter
}

// NewGemini creates a Gemini-backed executor. Close releases the client.
func NewGemini(ctx context.Context, apiKey, modelName string, ratePerSec float64) (*Gemini, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	limit := rate.Every(600 * time.Millisecond)
	if ratePerSec > 0 {
		limit = rate.Limit(ratePerSec)
	}

	return &Gemini{
		client:  client,
		model:   client.GenerativeModel(modelName),
		limiter: rate.NewLimiter(limit, 1),
	}, nil
}

func (g *Gemini) Close() error {
	return g.client.Close()
}

func (g *Gemini) Execute(ctx context.Context, prompt string, data any) (string, error) {
	start := time.Now()
	defer func() {
		metrics.RelayDuration.WithLabelValues("gemini").Observe(time.Since(start).Seconds())
	}()

	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("gemini: rate limit wait: %w", err)
	}

	full, err := buildPrompt(prompt, data)
	if err != nil {
		return "", err
	}

	resp, err := g.model.GenerateContent(ctx, genai.Text(full))
	if err != nil {
		metrics.UpstreamErrors.WithLabelValues("gemini").Inc()
		return "", fmt.Errorf("gemini: %w", err)
	}
	return firstText(resp)
}

// buildPrompt appends non-empty data as indented JSON after the prompt text.
func buildPrompt(prompt string, data any) (string, error) {
	if data == nil {
		return prompt, nil
	}
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("gemini: encode data: %w", err)
	}
	s := string(b)
	if s == "{}" || s == "null" || s == "[]" {
		return prompt, nil
	}
	return prompt + "\n\n" + s, nil
}

// firstText returns the text of the first candidate's parts.
func firstText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: empty response from Gemini", ErrRejected)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	if sb.Len() == 0 {
		return "", errors.Join(ErrRejected, errors.New("gemini response has no text part"))
	}
	return sb.String(), nil
}
