package sources

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const openAIAPI = "https://api.openai.com/v1"

// OpenAI requests chat completions.
type OpenAI struct {
	up          upstream
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
}

// CompletionOptions tunes the completion request.
type CompletionOptions struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

func NewOpenAI(opts Options, copts CompletionOptions) *OpenAI {
	base := opts.BaseURL
	if base == "" {
		base = openAIAPI
	}
	if copts.Model == "" {
		copts.Model = "gpt-4o-mini"
	}
	if copts.MaxTokens <= 0 {
		copts.MaxTokens = 400
	}
	return &OpenAI{
		up:          newUpstream("openai", opts),
		baseURL:     strings.TrimRight(base, "/"),
		apiKey:      opts.APIKey,
		model:       copts.Model,
		temperature: copts.Temperature,
		maxTokens:   copts.MaxTokens,
	}
}

func (o *OpenAI) Name() string { return "openai" }

// Enabled reports whether an API key is configured.
func (o *OpenAI) Enabled() bool { return o.apiKey != "" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Summarize returns the completion for a system and user prompt. Identical
// prompts are served from cache.
func (o *OpenAI) Summarize(ctx context.Context, system, user string) (string, error) {
	if !o.Enabled() {
		return "", unavailable(o.Name(), errors.New("no API key configured"))
	}

	payload, err := json.Marshal(chatRequest{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: o.temperature,
		MaxTokens:   o.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}
	sum := sha256.Sum256(payload)

	var text string
	build := func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+o.apiKey)
		return req, nil
	}
	decode := func(body []byte) error {
		var resp chatResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return fmt.Errorf("decode chat response: %w", err)
		}
		if len(resp.Choices) == 0 {
			return errors.New("no choices in response")
		}
		text = strings.TrimSpace(resp.Choices[0].Message.Content)
		if text == "" {
			return errors.New("empty completion")
		}
		return nil
	}

	if err := o.up.fetch(ctx, "chat:"+hex.EncodeToString(sum[:8]), build, decode); err != nil {
		return "", err
	}
	return text, nil
}
