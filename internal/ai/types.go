package ai

import "github.com/nikbrunner/stash/internal/model"

// Suggestion is the resolved answer for one bookmark.
type Suggestion struct {
	Matched    []model.TagArea
	SuggestNew *NewArea // nil when no new area is proposed
}

// HasMatches reports whether any existing area matched.
func (s Suggestion) HasMatches() bool {
	return len(s.Matched) > 0
}

// NewArea is a proposed tag area that does not exist yet.
type NewArea struct {
	Name        string `json:"name"`
	Emoji       string `json:"emoji"`
	Description string `json:"description"`
}

// TagResponse is the raw structured reply.
type TagResponse struct {
	MatchedAreas          []string `json:"matchedAreas"`
	SuggestNewName        string   `json:"suggestNewName"` // empty = none
	SuggestNewEmoji       string   `json:"suggestNewEmoji"`
	SuggestNewDescription string   `json:"suggestNewDescription"`
}

// apiRequest represents the Anthropic API request body.
type apiRequest struct {
	Model        string        `json:"model"`
	MaxTokens    int           `json:"max_tokens"`
	Messages     []apiMessage  `json:"messages"`
	OutputFormat *outputFormat `json:"output_format,omitempty"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type outputFormat struct {
	Type   string     `json:"type"`
	Schema jsonSchema `json:"schema"`
}

type jsonSchema struct {
	Type                 string                `json:"type"`
	Properties           map[string]schemaProp `json:"properties"`
	Required             []string              `json:"required"`
	AdditionalProperties bool                  `json:"additionalProperties"`
}

type schemaProp struct {
	Type  string      `json:"type"`
	Items *schemaProp `json:"items,omitempty"`
}

// apiResponse represents the Anthropic API response body.
type apiResponse struct {
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}
