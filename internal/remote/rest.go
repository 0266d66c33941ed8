package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const restPath = "/rest/v1/"

// RESTClient implements Client against a PostgREST endpoint.
type RESTClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// RESTOption configures a RESTClient.
type RESTOption func(*RESTClient)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) RESTOption {
	return func(c *RESTClient) { c.httpClient = hc }
}

// WithTimeout sets the request timeout of the default HTTP client.
func WithTimeout(d time.Duration) RESTOption {
	return func(c *RESTClient) { c.httpClient.Timeout = d }
}

// NewRESTClient creates a client for the project at baseURL.
func NewRESTClient(baseURL, apiKey string, opts ...RESTOption) *RESTClient {
	c := &RESTClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Select implements Client.
func (c *RESTClient) Select(ctx context.Context, table string, q Query) ([]Row, error) {
	params := url.Values{}
	params.Set("select", "*")
	if err := encodeFilter(params, q.Filter); err != nil {
		return nil, err
	}
	if len(q.Order) > 0 {
		parts := make([]string, len(q.Order))
		for i, o := range q.Order {
			dir := "asc"
			if o.Desc {
				dir = "desc"
			}
			parts[i] = o.Column + "." + dir
		}
		params.Set("order", strings.Join(parts, ","))
	}

	var rows []Row
	if err := c.do(ctx, http.MethodGet, table, params, nil, nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Insert implements Client.
func (c *RESTClient) Insert(ctx context.Context, table string, rows []Row) ([]Row, error) {
	if len(rows) == 0 {
		return []Row{}, nil
	}

	headers := map[string]string{"Prefer": "return=representation"}
	var inserted []Row
	if err := c.do(ctx, http.MethodPost, table, nil, rows, headers, &inserted); err != nil {
		return nil, err
	}
	return inserted, nil
}

// Update implements Client.
func (c *RESTClient) Update(ctx context.Context, table string, patch Row, f Filter) error {
	if len(f) == 0 {
		return ErrUnfilteredWrite
	}
	if len(patch) == 0 {
		return nil
	}

	params := url.Values{}
	if err := encodeFilter(params, f); err != nil {
		return err
	}
	headers := map[string]string{"Prefer": "return=minimal"}
	return c.do(ctx, http.MethodPatch, table, params, patch, headers, nil)
}

// Delete implements Client.
func (c *RESTClient) Delete(ctx context.Context, table string, f Filter) error {
	if len(f) == 0 {
		return ErrUnfilteredWrite
	}

	params := url.Values{}
	if err := encodeFilter(params, f); err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, table, params, nil, nil, nil)
}

// Upsert implements Client.
func (c *RESTClient) Upsert(ctx context.Context, table string, rows []Row, conflictColumns []string) error {
	if len(rows) == 0 {
		return nil
	}

	params := url.Values{}
	if len(conflictColumns) > 0 {
		params.Set("on_conflict", strings.Join(conflictColumns, ","))
	}
	headers := map[string]string{"Prefer": "resolution=merge-duplicates,return=minimal"}
	return c.do(ctx, http.MethodPost, table, params, rows, headers, nil)
}

// do sends one request and decodes the response into out when non-nil.
func (c *RESTClient) do(ctx context.Context, method, table string, params url.Values, body any, headers map[string]string, out any) error {
	endpoint := c.baseURL + restPath + url.PathEscape(table)
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return &Error{Code: CodeUnreachable, Message: "request failed", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Code: CodeUnreachable, Message: "read response", Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, respBody)
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

// decodeError turns a PostgREST error body into *Error.
func decodeError(status int, body []byte) error {
	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details"`
		Hint    string `json:"hint"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Message == "" {
		payload.Message = strings.TrimSpace(string(body))
		if payload.Message == "" {
			payload.Message = http.StatusText(status)
		}
	}

	code := payload.Code
	if code == "" && (status == http.StatusBadGateway || status == http.StatusServiceUnavailable || status == http.StatusGatewayTimeout) {
		code = CodeUnreachable
	}

	return &Error{Code: code, Message: payload.Message, Status: status}
}

// encodeFilter adds PostgREST operators for f to params.
func encodeFilter(params url.Values, f Filter) error {
	for _, cond := range f {
		switch cond.Op {
		case OpEq:
			params.Add(cond.Column, "eq."+fmt.Sprint(cond.Value))
		case OpIn:
			values, err := conditionValues(cond)
			if err != nil {
				return err
			}
			quoted := make([]string, len(values))
			for i, v := range values {
				quoted[i] = `"` + strings.ReplaceAll(v, `"`, `\"`) + `"`
			}
			params.Add(cond.Column, "in.("+strings.Join(quoted, ",")+")")
		default:
			return fmt.Errorf("unsupported operator %q", cond.Op)
		}
	}
	return nil
}
