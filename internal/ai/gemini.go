// Package ai generates plain-Korean commentary on financial statements
// through Google's Gemini API. The whole package is optional: without a
// key the analyzer reports itself disabled and every other feature keeps
// working.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrNoAPIKey means the Gemini key is missing or rejected.
	ErrNoAPIKey = errors.New("ai: no API key")
	// ErrQuotaExceeded means Gemini returned HTTP 429 for the key.
	ErrQuotaExceeded = errors.New("ai: quota exceeded")
)

const defaultModel = "gemini-2.0-flash"

// Gemini is a minimal generateContent client.
type Gemini struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// GeminiOption configures the client.
type GeminiOption func(*Gemini)

// WithModel sets the model used for generation.
func WithModel(model string) GeminiOption {
	return func(g *Gemini) {
		if model != "" {
			g.model = model
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) GeminiOption {
	return func(g *Gemini) { g.client = client }
}

// WithBaseURL overrides the API endpoint.
func WithBaseURL(url string) GeminiOption {
	return func(g *Gemini) { g.baseURL = strings.TrimRight(url, "/") }
}

// NewGemini creates a Gemini client.
func NewGemini(apiKey string, opts ...GeminiOption) (*Gemini, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	g := &Gemini{
		apiKey:  apiKey,
		baseURL: "https://generativelanguage.googleapis.com/v1beta",
		model:   defaultModel,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	TopK            int     `json:"topK,omitempty"`
	TopP            float64 `json:"topP,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Generate sends a single-turn prompt and returns the joined text parts of
// the first candidate.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	body := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:     0.3,
			TopK:            40,
			TopP:            0.8,
			MaxOutputTokens: 2048,
		},
	}
	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("ai: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ai: gemini request: %w", err)
	}
	defer resp.Body.Close()

	if err := checkError(resp); err != nil {
		return "", err
	}

	var result geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("ai: decode response: %w", err)
	}
	if len(result.Candidates) == 0 {
		return "", errors.New("ai: empty response from Gemini")
	}

	var parts []string
	for _, p := range result.Candidates[0].Content.Parts {
		if p.Text != "" {
			parts = append(parts, p.Text)
		}
	}
	return strings.TrimSpace(strings.Join(parts, "")), nil
}

// Ping verifies the API key by listing models.
func (g *Gemini) Ping(ctx context.Context) error {
	url := fmt.Sprintf("%s/models?key=%s", g.baseURL, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("ai: gemini request: %w", err)
	}
	defer resp.Body.Close()
	return checkError(resp)
}

func checkError(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var apiErr geminiErrorResponse
	msg := string(body)
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
		msg = apiErr.Error.Message
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrNoAPIKey, msg)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrQuotaExceeded, msg)
	}
	return fmt.Errorf("ai: gemini API error (%d): %s", resp.StatusCode, msg)
}
