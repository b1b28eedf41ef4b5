package openai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	domain "github.com/bryanwahyu/automaton-code/internal/domain/analysis"
	"github.com/bryanwahyu/automaton-code/internal/infra/ai/prompt"
	"github.com/bryanwahyu/automaton-code/internal/infra/engine"
)

const (
	maxTokens    = 2048
	defaultModel = "gpt-4o-mini"
)

// ErrQuotaExceeded indicates the provider returned a quota or rate limit error.
var ErrQuotaExceeded = errors.New("ai quota exceeded")

type Client struct {
	*openai.Client
	Model string
}

// NewClient creates a client. An empty baseURL uses the public API.
func NewClient(apiKey, baseURL, model string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = defaultModel
	}
	return &Client{Client: openai.NewClientWithConfig(cfg), Model: model}
}

// Reviewer is the LLM review adapter for one language.
type Reviewer struct {
	client *Client
	lang   domain.LanguageTag
}

// Reviewers returns one reviewer per language in langs.
func (c *Client) Reviewers(langs ...domain.LanguageTag) []*Reviewer {
	out := make([]*Reviewer, 0, len(langs))
	for _, l := range langs {
		if l == domain.LangUnknown {
			continue
		}
		out = append(out, &Reviewer{client: c, lang: l})
	}
	return out
}

func (r *Reviewer) Descriptor() domain.Descriptor {
	return domain.Descriptor{
		Name:     "llm-review-" + engine.Slug(r.lang),
		Language: r.lang,
		Kind:     domain.KindSecurity,
	}
}

func (r *Reviewer) Run(ctx context.Context, code string) (domain.RawOutput, error) {
	content, err := r.client.complete(ctx, prompt.SystemPrompt(), prompt.UserPrompt(r.lang, code))
	if err != nil {
		return domain.RawOutput{}, err
	}
	return domain.RawOutput{Format: domain.FormatLLMJSON, Data: []byte(stripFences(content))}, nil
}

func reasoningModel(model string) bool {
	for _, p := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}

func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.Model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}
	// reasoning models reject temperature and MaxTokens
	if reasoningModel(c.Model) {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
		// zero is dropped by omitempty
		req.Temperature = math.SmallestNonzeroFloat32
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return "", fmt.Errorf("%w: %s", ErrQuotaExceeded, apiErr.Message)
		}
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// stripFences removes a markdown code fence some models add despite the
// JSON response format.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}
