package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/starford/munin/internal/apperr"
	"github.com/starford/munin/internal/models"
)

const systemPrompt = `You are a filing assistant for a personal knowledge vault.
Given a captured item (its source kind, origin, and extracted text), decide
where it belongs. Respond with a single JSON object and nothing else:

{"folder": "<one of the allowed folders>", "title": "<short human title>", "tags": ["optional", "lowercase", "tags"]}

Allowed folders: %s. The title must be concise and must not contain slashes.`

// ModelConfig wires the chat-completion classifier.
type ModelConfig struct {
	Endpoint     string // empty uses the client's default base URL
	APIKey       string
	Model        string
	PromptBudget int // max characters of text sent to the endpoint
	Timeout      time.Duration
	Folders      []string // allowed destination folders
	Fallback     string   // folder used when the model names an unknown one
	TitleMaxLen  int
}

// Model classifies content with one chat-completion call. The call either
// produces a complete Classification or fails; no partial result is ever
// returned, and there are no retries; the caller falls back to the
// heuristic classifier on any error.
type Model struct {
	client *openai.Client
	cfg    ModelConfig
}

// NewModel builds a classifier against an OpenAI-compatible endpoint.
func NewModel(cfg ModelConfig) *Model {
	cc := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		cc.BaseURL = strings.TrimRight(cfg.Endpoint, "/")
	}
	return &Model{client: openai.NewClientWithConfig(cc), cfg: cfg}
}

type modelReply struct {
	Folder string   `json:"folder"`
	Title  string   `json:"title"`
	Tags   []string `json:"tags"`
}

// Classify sends one bounded prompt and parses the structured reply.
func (m *Model) Classify(ctx context.Context, ec models.ExtractedContent) (models.Classification, error) {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()

	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: m.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: fmt.Sprintf(systemPrompt, strings.Join(m.cfg.Folders, ", "))},
			{Role: openai.ChatMessageRoleUser, Content: m.userPrompt(ec)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.1,
	})
	if err != nil {
		return models.Classification{}, fmt.Errorf("%w: %v", apperr.ErrClassifyUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return models.Classification{}, fmt.Errorf("%w: empty response", apperr.ErrClassifyUnavailable)
	}

	var reply modelReply
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &reply); err != nil {
		return models.Classification{}, fmt.Errorf("%w: unparseable response: %v", apperr.ErrClassifyUnavailable, err)
	}

	title := normalizeTitle(reply.Title, m.cfg.TitleMaxLen)
	if reply.Folder == "" || title == "" {
		return models.Classification{}, fmt.Errorf("%w: response missing required fields", apperr.ErrClassifyUnavailable)
	}

	folder := reply.Folder
	if !contains(m.cfg.Folders, folder) {
		// Keep the classification but clamp the folder to the catch-all.
		folder = m.cfg.Fallback
	}

	return models.Classification{
		Folder: folder,
		Title:  title,
		Tags:   reply.Tags,
		Source: models.SourceModel,
	}, nil
}

// userPrompt serializes the extracted content, truncating the text to the
// configured character budget to bound cost and latency.
func (m *Model) userPrompt(ec models.ExtractedContent) string {
	text := ec.Text
	if m.cfg.PromptBudget > 0 {
		if runes := []rune(text); len(runes) > m.cfg.PromptBudget {
			text = string(runes[:m.cfg.PromptBudget])
		}
	}
	payload, _ := json.Marshal(map[string]any{
		"source_kind": ec.SourceKind,
		"origin":      ec.Origin,
		"text":        text,
		"warnings":    ec.Warnings,
	})
	return string(payload)
}
