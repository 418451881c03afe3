package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/KevinKickass/ScriptSynth/internal/document"
	"github.com/go-resty/resty/v2"
)

// Routes of the artifact store.
const (
	SubmitPath   = "/generate-config"
	DownloadPath = "/download-config"
)

// TokenSource supplies bearer tokens for the store.
type TokenSource interface {
	Token() (string, error)
}

// StatusError is returned when the store answers with a non-2xx status.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: store responded %d: %s", e.Op, e.StatusCode, e.Body)
}

// HTTPClient talks to the artifact store over HTTP.
type HTTPClient struct {
	http   *resty.Client
	tokens TokenSource
}

// NewHTTPClient creates a store client. tokens may be nil when the store
// runs without authentication.
func NewHTTPClient(baseURL string, tokens TokenSource) *HTTPClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetRetryCount(0).
		SetHeader("User-Agent", "scriptsynth-editor")

	return &HTTPClient{
		http:   client,
		tokens: tokens,
	}
}

func (c *HTTPClient) request(ctx context.Context) (*resty.Request, error) {
	req := c.http.R().SetContext(ctx)
	if c.tokens != nil {
		token, err := c.tokens.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to obtain token: %w", err)
		}
		req.SetAuthToken(token)
	}
	return req, nil
}

// Submit posts the projected document as JSON and waits for the store's
// acknowledgement.
func (c *HTTPClient) Submit(ctx context.Context, doc *document.Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	req, err := c.request(ctx)
	if err != nil {
		return err
	}

	resp, err := req.
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(SubmitPath)
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	if resp.IsError() {
		return &StatusError{Op: "submit", StatusCode: resp.StatusCode(), Body: resp.String()}
	}
	return nil
}

// Fetch downloads the stored config.yaml.
func (c *HTTPClient) Fetch(ctx context.Context) ([]byte, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := req.Get(DownloadPath)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &StatusError{Op: "fetch", StatusCode: resp.StatusCode(), Body: resp.String()}
	}
	return resp.Body(), nil
}
