package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"finance-advisor/api/logger"

	"go.uber.org/zap"
)

const (
	defaultOpenAIURL = "https://api.openai.com/v1/chat/completions"
	defaultModel     = "gpt-3.5-turbo"

	systemPersona = "You are a financial expert."
)

// Generator is the text-generation boundary: prompt text in, raw response
// text out. One round trip per call, no internal retry.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts GenerationOptions) (string, error)
}

type OpenAIRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature,omitempty"`
	TopP        float64   `json:"top_p,omitempty"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Choice struct {
	Message Message `json:"message"`
}

type OpenAIResponse struct {
	Choices []Choice `json:"choices"`
}

// Client calls the OpenAI chat-completions API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

// NewClient builds a client from OPENAI_API_KEY and OPENAI_MODEL.
func NewClient() *Client {
	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = defaultModel
	}
	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    defaultOpenAIURL,
		apiKey:     os.Getenv("OPENAI_API_KEY"),
		model:      model,
	}
}

// NewClientWithURL is used by tests to point the client at a fake service.
func NewClientWithURL(baseURL, apiKey, model string) *Client {
	c := NewClient()
	c.baseURL = baseURL
	c.apiKey = apiKey
	if model != "" {
		c.model = model
	}
	return c
}

// Generate sends a single chat-completion request and returns the first
// candidate's message content. Transport failures, non-2xx statuses and
// empty completions all come back as errors; callers decide the fallback.
func (c *Client) Generate(ctx context.Context, prompt string, opts GenerationOptions) (string, error) {
	reqBody := OpenAIRequest{
		Model:       c.model,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		TopP:        opts.TopP,
		Messages: []Message{
			{Role: "system", Content: systemPersona},
			{Role: "user", Content: prompt},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("error marshaling generation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("error building generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Get().Error("generation service call failed",
			zap.Error(err))
		return "", fmt.Errorf("generation service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		logger.Get().Error("generation service returned error status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body))
		return "", fmt.Errorf("generation service returned status %d", resp.StatusCode)
	}

	var openaiResp OpenAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&openaiResp); err != nil {
		return "", fmt.Errorf("error decoding generation response: %w", err)
	}

	if len(openaiResp.Choices) == 0 || openaiResp.Choices[0].Message.Content == "" {
		logger.Get().Error("generation service returned no content")
		return "", ErrEmptyResponse
	}

	logger.Get().Debug("generation call succeeded",
		zap.Int("max_tokens", opts.MaxTokens))
	return openaiResp.Choices[0].Message.Content, nil
}
