package curator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cesargomez89/plexsage/internal/constants"
	"github.com/cesargomez89/plexsage/internal/domain"
	"github.com/cesargomez89/plexsage/internal/httpclient"
)

// Completion is the model's answer to one prompt.
type Completion struct {
	Content      string
	InputTokens  int
	OutputTokens int
}

// Completer sends a prompt with a system instruction to a language model.
type Completer interface {
	Complete(ctx context.Context, prompt, system string) (Completion, error)
}

// CompleterConfig captures the settings for an OpenAI-compatible endpoint.
type CompleterConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

// HTTPCompleter talks to a chat-completions endpoint.
type HTTPCompleter struct {
	cfg    CompleterConfig
	client *httpclient.Client
}

func NewHTTPCompleter(cfg CompleterConfig, opts ...httpclient.Option) *HTTPCompleter {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.BaseURL == "" {
		cfg.BaseURL = constants.DefaultLLMURL
	}
	if cfg.Model == "" {
		cfg.Model = constants.DefaultLLMModel
	}
	return &HTTPCompleter{
		cfg:    cfg,
		client: httpclient.NewClient(&http.Client{Timeout: constants.DefaultLLMTimeout}, 0, opts...),
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// APIError is returned for non-2xx responses from the model endpoint.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("llm request: http %d: %s", e.StatusCode, snippet(e.Body))
}

func (h *HTTPCompleter) Complete(ctx context.Context, prompt, system string) (Completion, error) {
	var out Completion
	if h.cfg.APIKey == "" {
		return out, fmt.Errorf("llm complete: api key: %w", domain.ErrNotConfigured)
	}
	if strings.TrimSpace(prompt) == "" {
		return out, errors.New("llm complete: prompt required")
	}

	messages := make([]chatMessage, 0, 2)
	if system != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	encoded, err := json.Marshal(chatRequest{Model: h.cfg.Model, Messages: messages, Temperature: 0.7})
	if err != nil {
		return out, fmt.Errorf("llm request: encode body: %w", err)
	}

	// bytes.Reader bodies get GetBody set, so retries can rewind.
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.cfg.BaseURL+"/chat/completions", bytes.NewReader(encoded))
	if err != nil {
		return out, fmt.Errorf("llm request: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+h.cfg.APIKey)
	req.Header.Set("Content-Type", constants.MimeTypeJSON)

	resp, err := h.client.Do(ctx, req)
	if err != nil {
		return out, fmt.Errorf("llm request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // deferred cleanup

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return out, fmt.Errorf("llm request: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return out, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return out, fmt.Errorf("llm request: decode response: %w", err)
	}
	if parsed.Error != nil {
		return out, fmt.Errorf("llm request: api error: %s", strings.TrimSpace(parsed.Error.Message))
	}
	if len(parsed.Choices) == 0 {
		return out, fmt.Errorf("llm request: %w", ErrEmptyResponse)
	}

	out.Content = strings.TrimSpace(parsed.Choices[0].Message.Content)
	out.InputTokens = parsed.Usage.PromptTokens
	out.OutputTokens = parsed.Usage.CompletionTokens
	return out, nil
}
