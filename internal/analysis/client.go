package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const analyzePath = "/api/video/analyze"

// maxBodyBytes bounds the response size read from the service.
const maxBodyBytes = 32 << 20

// Analyzer submits a URL for analysis.
type Analyzer interface {
	Analyze(ctx context.Context, url string) (Response, error)
}

// Client calls the Analysis Service over HTTP. One request per call, no retry.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a Client for baseURL with the given request timeout.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, ErrNotConfigured
	}
	if timeout <= 0 {
		timeout = 600 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type analyzeRequest struct {
	URL string `json:"url"`
}

type errorBody struct {
	Error string `json:"error"`
}

// Analyze posts {url} and maps the reply.
func (c *Client) Analyze(ctx context.Context, url string) (Response, error) {
	payload, err := json.Marshal(analyzeRequest{URL: url})
	if err != nil {
		return Response{}, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+analyzePath, bytes.NewReader(payload))
	if err != nil {
		return Response{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Response{}, &TransportError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		_ = json.Unmarshal(body, &eb)
		return Response{}, newServiceError(resp.StatusCode, strings.TrimSpace(eb.Error))
	}

	out, err := DecodeResponse(body)
	if err != nil {
		return Response{}, &ServiceError{Status: resp.StatusCode, Message: "analysis service returned an invalid response"}
	}
	return out, nil
}

// Placeholder is used when no Analysis Service URL is configured.
type Placeholder struct{}

func (Placeholder) Analyze(context.Context, string) (Response, error) {
	return Response{}, ErrNotConfigured
}

var (
	_ Analyzer = (*Client)(nil)
	_ Analyzer = Placeholder{}
)
