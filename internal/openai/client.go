// Package openai is a minimal client for the OpenAI Responses API with the
// hosted web search tool enabled.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

const (
	DefaultBaseURL           = "https://api.openai.com/v1"
	DefaultModel             = "gpt-5"
	DefaultReasoningEffort   = "medium"
	DefaultVerbosity         = "medium"
	DefaultSearchContextSize = "medium"
)

// ErrMissingAPIKey is returned by NewClient when no API key is configured.
var ErrMissingAPIKey = errors.New("OPENAI_API_KEY is not set")

// Config holds everything needed to build a Client.
type Config struct {
	APIKey            string
	BaseURL           string
	Model             string
	ReasoningEffort   string // minimal, low, medium or high
	Verbosity         string
	SearchContextSize string
	// WebSearch enables the web_search tool together with the text format,
	// reasoning, store and include options. When false only the model and
	// the input messages are sent.
	WebSearch bool
}

// DefaultConfig returns the settings used for a morning brief.
func DefaultConfig() Config {
	return Config{
		BaseURL:           DefaultBaseURL,
		Model:             DefaultModel,
		ReasoningEffort:   DefaultReasoningEffort,
		Verbosity:         DefaultVerbosity,
		SearchContextSize: DefaultSearchContextSize,
		WebSearch:         true,
	}
}

// Client sends requests to the Responses endpoint.
// It is constructed once at startup and passed to whatever needs it.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Responses API client. Empty fields of cfg other than
// the API key are filled from DefaultConfig.
func NewClient(logger *slog.Logger, httpClient *http.Client, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.ReasoningEffort == "" {
		cfg.ReasoningEffort = def.ReasoningEffort
	}
	if cfg.Verbosity == "" {
		cfg.Verbosity = def.Verbosity
	}
	if cfg.SearchContextSize == "" {
		cfg.SearchContextSize = def.SearchContextSize
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

	// No client timeout: a web search call can run for minutes and the only
	// cancellation is the caller's context.
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{cfg: cfg, httpClient: httpClient, logger: logger}, nil
}

// Model returns the model the client sends requests to.
func (c *Client) Model() string {
	return c.cfg.Model
}

// APIError is the error body returned with a non-2xx status.
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"message"`
	Type       string `json:"type"`
	Code       string `json:"code"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("openai API error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("openai API error %d: %s", e.StatusCode, e.Message)
}

type inputPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type inputMessage struct {
	Role    string      `json:"role"`
	Content []inputPart `json:"content"`
}

type textFormat struct {
	Type string `json:"type"`
}

type textOptions struct {
	Format    textFormat `json:"format"`
	Verbosity string     `json:"verbosity,omitempty"`
}

type reasoningOptions struct {
	Effort string `json:"effort"`
}

type userLocation struct {
	Type string `json:"type"`
}

type tool struct {
	Type              string        `json:"type"`
	UserLocation      *userLocation `json:"user_location,omitempty"`
	SearchContextSize string        `json:"search_context_size,omitempty"`
}

// request is the body of POST /responses.
type request struct {
	Model     string            `json:"model"`
	Input     []inputMessage    `json:"input"`
	Text      *textOptions      `json:"text,omitempty"`
	Reasoning *reasoningOptions `json:"reasoning,omitempty"`
	Tools     []tool            `json:"tools,omitempty"`
	Store     *bool             `json:"store,omitempty"`
	Include   []string          `json:"include,omitempty"`
}

func (c *Client) newRequest(instructions, prompt string) request {
	req := request{
		Model: c.cfg.Model,
		Input: []inputMessage{
			{Role: "developer", Content: []inputPart{{Type: "input_text", Text: instructions}}},
			{Role: "user", Content: []inputPart{{Type: "input_text", Text: prompt}}},
		},
	}
	if !c.cfg.WebSearch {
		return req
	}

	store := true
	req.Text = &textOptions{Format: textFormat{Type: "text"}, Verbosity: c.cfg.Verbosity}
	req.Reasoning = &reasoningOptions{Effort: c.cfg.ReasoningEffort}
	req.Tools = []tool{{
		Type:              "web_search",
		UserLocation:      &userLocation{Type: "approximate"},
		SearchContextSize: c.cfg.SearchContextSize,
	}}
	req.Store = &store
	req.Include = []string{
		"reasoning.encrypted_content",
		"web_search_call.action.sources",
	}
	return req
}

// Respond sends the developer instructions and the user prompt in a single
// call and returns the decoded output. There is no retry.
func (c *Client) Respond(ctx context.Context, instructions, prompt string) (*Result, error) {
	body, err := json.Marshal(c.newRequest(instructions, prompt))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/responses", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	c.logger.Debug("Sending responses request", "model", c.cfg.Model, "webSearch", c.cfg.WebSearch, "promptBytes", len(prompt))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("API call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseAPIError(resp.StatusCode, respBody)
	}

	var r response
	if err := json.Unmarshal(respBody, &r); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if r.Error != nil && r.Error.Message != "" {
		r.Error.StatusCode = resp.StatusCode
		return nil, r.Error
	}

	c.logger.Debug("Responses call finished",
		"id", r.ID,
		"status", r.Status,
		"input_tokens", r.Usage.InputTokens,
		"output_tokens", r.Usage.OutputTokens,
	)
	return r.result(), nil
}

func parseAPIError(status int, body []byte) error {
	var e struct {
		Error *APIError `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Error != nil && e.Error.Message != "" {
		e.Error.StatusCode = status
		return e.Error
	}
	return &APIError{StatusCode: status, Message: strings.TrimSpace(string(body))}
}
