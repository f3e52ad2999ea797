// Package llm talks to a hosted Gemini model over its REST API.
package llm

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

const (
    DefaultEndpoint = "https://generativelanguage.googleapis.com"
    DefaultModel    = "gemini-2.0-flash"
)

var (
    ErrNoAPIKey      = errors.New("gemini: missing API key")
    ErrEmptyResponse = errors.New("gemini: response has no text")
)

// StatusError is returned for non-2xx replies.
type StatusError struct {
    Code int
    Body string
}

func (e *StatusError) Error() string {
    return fmt.Sprintf("gemini: http %d: %s", e.Code, e.Body)
}

// Client calls generateContent for a single model.
type Client struct {
    endpoint string
    model    string
    apiKey   string
    http     *http.Client
}

// Option configures a Client.
type Option func(*Client)

func WithEndpoint(u string) Option { return func(c *Client) { c.endpoint = strings.TrimRight(u, "/") } }
func WithModel(m string) Option    { return func(c *Client) { c.model = m } }
func WithHTTPClient(h *http.Client) Option {
    return func(c *Client) { c.http = h }
}

// WithTimeout bounds each request, including reading the body.
func WithTimeout(d time.Duration) Option {
    return func(c *Client) { c.http = &http.Client{Timeout: d} }
}

// New returns a client for apiKey.
func New(apiKey string, opts ...Option) *Client {
    c := &Client{
        endpoint: DefaultEndpoint,
        model:    DefaultModel,
        apiKey:   apiKey,
        http:     &http.Client{Timeout: 30 * time.Second},
    }
    for _, o := range opts {
        o(c)
    }
    return c
}

type part struct {
    Text string `json:"text"`
}

type content struct {
    Role  string `json:"role,omitempty"`
    Parts []part `json:"parts"`
}

type generateRequest struct {
    Contents []content `json:"contents"`
}

type generateResponse struct {
    Candidates []struct {
        Content content `json:"content"`
    } `json:"candidates"`
}

// Complete sends prompt as a single user turn and returns the text of the
// first candidate.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
    if c.apiKey == "" {
        return "", ErrNoAPIKey
    }
    body, err := json.Marshal(generateRequest{
        Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
    })
    if err != nil {
        return "", err
    }
    url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.endpoint, c.model)
    req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
    if err != nil {
        return "", err
    }
    req.Header.Set("Content-Type", "application/json")
    req.Header.Set("x-goog-api-key", c.apiKey)

    resp, err := c.http.Do(req)
    if err != nil {
        return "", fmt.Errorf("gemini: %w", err)
    }
    defer resp.Body.Close()

    raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
    if err != nil {
        return "", fmt.Errorf("gemini: read body: %w", err)
    }
    if resp.StatusCode/100 != 2 {
        return "", &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
    }

    var out generateResponse
    if err := json.Unmarshal(raw, &out); err != nil {
        return "", fmt.Errorf("gemini: decode: %w", err)
    }
    if len(out.Candidates) == 0 {
        return "", ErrEmptyResponse
    }
    var sb strings.Builder
    for _, p := range out.Candidates[0].Content.Parts {
        sb.WriteString(p.Text)
    }
    if sb.Len() == 0 {
        return "", ErrEmptyResponse
    }
    return sb.String(), nil
}
