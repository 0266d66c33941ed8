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

	"github.com/nikbrunner/stash/internal/model"
)

const (
	apiURL     = "https://api.anthropic.com/v1/messages"
	apiVersion = "2023-06-01"
	betaHeader = "structured-outputs-2025-11-13"
	haikuModel = "claude-haiku-4-5-20251001"
)

var (
	ErrNoAPIKey        = errors.New("ANTHROPIC_API_KEY environment variable not set")
	ErrAPIRequest      = errors.New("API request failed")
	ErrInvalidResponse = errors.New("invalid API response")
)

// Client handles communication with the Anthropic API.
type Client struct {
	apiKey     string
	apiURL     string
	model      string
	httpClient *http.Client
	delay      time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithAPIURL points the client at another endpoint.
func WithAPIURL(u string) Option {
	return func(c *Client) { c.apiURL = u }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithDelay sets the pause between calls in RetagAll.
func WithDelay(d time.Duration) Option {
	return func(c *Client) { c.delay = d }
}

// NewClient creates a new AI client. An empty apiKey yields an unconfigured
// client whose calls return ErrNoAPIKey.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey: strings.TrimSpace(apiKey),
		apiURL: apiURL,
		model:  haikuModel,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		delay: 400 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsConfigured reports whether an API key is present.
func (c *Client) IsConfigured() bool {
	return c != nil && c.apiKey != ""
}

// SuggestTags asks which existing tag areas fit the bookmark and whether a
// new area should be proposed.
func (c *Client) SuggestTags(ctx context.Context, b model.Bookmark, areas []model.TagArea) (Suggestion, error) {
	if !c.IsConfigured() {
		return Suggestion{}, ErrNoAPIKey
	}

	schema := jsonSchema{
		Type: "object",
		Properties: map[string]schemaProp{
			"matchedAreas":          {Type: "array", Items: &schemaProp{Type: "string"}},
			"suggestNewName":        {Type: "string"},
			"suggestNewEmoji":       {Type: "string"},
			"suggestNewDescription": {Type: "string"},
		},
		Required:             []string{"matchedAreas", "suggestNewName", "suggestNewEmoji", "suggestNewDescription"},
		AdditionalProperties: false,
	}

	var resp TagResponse
	if err := c.complete(ctx, buildTagPrompt(b, areas), schema, &resp); err != nil {
		return Suggestion{}, err
	}

	return resolve(resp, areas), nil
}

// ProgressFunc is called after each bookmark in RetagAll.
type ProgressFunc func(done, total int, b model.Bookmark, s Suggestion, err error)

// RetagAll calls SuggestTags for each bookmark in turn, pausing between calls.
// Per-item failures are reported through onProgress and do not stop the run.
func (c *Client) RetagAll(ctx context.Context, bookmarks []model.Bookmark, areas []model.TagArea, onProgress ProgressFunc) error {
	if !c.IsConfigured() {
		return ErrNoAPIKey
	}

	total := len(bookmarks)
	for i, b := range bookmarks {
		if i > 0 && c.delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.delay):
			}
		}

		s, err := c.SuggestTags(ctx, b, areas)
		if onProgress != nil {
			onProgress(i+1, total, b, s, err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return nil
}

// complete sends one prompt and decodes the structured reply into out.
func (c *Client) complete(ctx context.Context, prompt string, schema jsonSchema, out any) error {
	reqBody := apiRequest{
		Model:     c.model,
		MaxTokens: 256,
		Messages: []apiMessage{
			{Role: "user", Content: prompt},
		},
		OutputFormat: &outputFormat{
			Type:   "json_schema",
			Schema: schema,
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)
	req.Header.Set("anthropic-beta", betaHeader)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAPIRequest, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d: %s", ErrAPIRequest, resp.StatusCode, string(body))
	}

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}

	if len(apiResp.Content) == 0 || apiResp.Content[0].Type != "text" {
		return ErrInvalidResponse
	}

	if err := json.Unmarshal([]byte(apiResp.Content[0].Text), out); err != nil {
		return fmt.Errorf("unmarshal AI response: %w", err)
	}

	return nil
}

// resolve maps area names from the reply onto known areas, ignoring case
// and unknown names.
func resolve(resp TagResponse, areas []model.TagArea) Suggestion {
	var s Suggestion
	seen := map[string]bool{}
	for _, name := range resp.MatchedAreas {
		for _, a := range areas {
			if strings.EqualFold(strings.TrimSpace(name), a.Name) && !seen[a.ID] {
				seen[a.ID] = true
				s.Matched = append(s.Matched, a)
			}
		}
	}

	name := strings.TrimSpace(resp.SuggestNewName)
	if name == "" {
		return s
	}
	for _, a := range areas {
		if strings.EqualFold(a.Name, name) {
			// Proposed an existing area; treat it as a match.
			if !seen[a.ID] {
				s.Matched = append(s.Matched, a)
			}
			return s
		}
	}
	s.SuggestNew = &NewArea{
		Name:        name,
		Emoji:       strings.TrimSpace(resp.SuggestNewEmoji),
		Description: strings.TrimSpace(resp.SuggestNewDescription),
	}
	return s
}
