package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mathieu-neron/creatordash/internal/model"
	"github.com/mathieu-neron/creatordash/internal/relay"
)

// summaryTopN is how many videos by views are sent for the channel summary.
const summaryTopN = 5

const (
	summaryPromptPrefix = "以下のYouTubeチャンネルのアナリティクスデータを分析し、チャンネル全体の強み、弱み、そして具体的な改善点をプロのコンサルタントのように3つの箇条書きで要約してください。:\n"

	replyPromptFormat = "以下の視聴者からのコメントに対して、チャンネル運営者として丁寧で、かつ感謝の気持ちが伝わるような返信文を3パターン考えてください。元のコメントの文脈を考慮し、ポジティブな雰囲気で返信してください。\n\n---\nコメント: \"%s\"\n---\n返信文案:"

	ideaPromptFormat = "あなたはプロのYouTubeコンサルタントです。以下のテーマについて、視聴者の興味を引くような魅力的な動画のアイデアを提案してください。提案には、以下の要素を必ず含めてください。\n1. クリックしたくなるような動画タイトル案を5つ\n2. 視聴者を飽きさせないための具体的な動画構成案（導入、本編、まとめ）\n\n---\nテーマ: \"%s\"\n---\n\n提案:"
)

type summaryPerformer struct {
	Title   string  `json:"title"`
	Views   int64   `json:"views"`
	Minutes float64 `json:"minutes"`
	Likes   int64   `json:"likes"`
}

type summaryData struct {
	TotalVideos   int                `json:"totalVideos"`
	TopPerformers []summaryPerformer `json:"topPerformers"`
}

// AIService builds prompts for the dashboard's free-text features and runs
// them through a prompt executor.
type AIService struct {
	exec relay.Executor
}

func NewAIService(exec relay.Executor) *AIService {
	return &AIService{exec: exec}
}

// Summarize asks for a three-point channel review based on the top videos by
// views. top must already be ordered by views.
func (s *AIService) Summarize(ctx context.Context, totalVideos int, top []model.VideoMetricRecord) (string, error) {
	prompt, err := summaryPrompt(totalVideos, top)
	if err != nil {
		return "", err
	}
	return s.exec.Execute(ctx, prompt, nil)
}

// SuggestReplies returns reply suggestions for one viewer comment.
func (s *AIService) SuggestReplies(ctx context.Context, comment string) ([]string, error) {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, fmt.Errorf("%w: comment text is required", ErrInvalidInput)
	}

	analysis, err := s.exec.Execute(ctx, fmt.Sprintf(replyPromptFormat, comment), nil)
	if err != nil {
		return nil, err
	}
	return ParseReplySuggestions(analysis), nil
}

// GenerateIdeas returns free-text video ideas for a theme.
func (s *AIService) GenerateIdeas(ctx context.Context, theme string) (string, error) {
	theme = strings.TrimSpace(theme)
	if theme == "" {
		return "", fmt.Errorf("%w: theme is required", ErrInvalidInput)
	}
	return s.exec.Execute(ctx, fmt.Sprintf(ideaPromptFormat, theme), nil)
}

func summaryPrompt(totalVideos int, top []model.VideoMetricRecord) (string, error) {
	if len(top) > summaryTopN {
		top = top[:summaryTopN]
	}
	data := summaryData{
		TotalVideos:   totalVideos,
		TopPerformers: make([]summaryPerformer, 0, len(top)),
	}
	for _, r := range top {
		data.TopPerformers = append(data.TopPerformers, summaryPerformer{
			Title:   r.Title,
			Views:   r.Views,
			Minutes: r.WatchMinutes,
			Likes:   r.Likes,
		})
	}

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode summary data: %w", err)
	}
	return summaryPromptPrefix + string(b), nil
}

// ParseReplySuggestions splits generated text into one suggestion per line,
// dropping list markers and blank lines.
func ParseReplySuggestions(analysis string) []string {
	lines := strings.Split(analysis, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimPrefix(strings.TrimSpace(line), "- ")
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}
