package assistant

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

	"github.com/rs/zerolog"

	"github.com/vovakirdan/portalchat/internal/core"
	"github.com/vovakirdan/portalchat/internal/proto"
)

const (
	DefaultBaseURL    = "http://localhost:8082"
	DefaultChatPath   = "/api/python/ml/chat"
	DefaultHealthPath = "/api/python/health"
	DefaultTimeout    = 30 * time.Second

	maxBodyBytes = 1 << 20
)

// ErrResponseTooLarge is returned when a reply body exceeds the read cap.
var ErrResponseTooLarge = errors.New("response body too large")

// HTTPStatusError captures non-2xx responses from the assistant service.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("assistant: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client talks to the remote assistant over HTTP. It implements core.Assistant.
type Client struct {
	baseURL    string
	chatPath   string
	healthPath string
	httpClient *http.Client
	log        *zerolog.Logger
}

var _ core.Assistant = (*Client)(nil)

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout bounds every request. A timeout is reported as an ordinary error.
// It keeps the transport of a client set by WithHTTPClient.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout <= 0 {
			return
		}
		hc := http.Client{}
		if c.httpClient != nil {
			hc = *c.httpClient
		}
		hc.Timeout = timeout
		c.httpClient = &hc
	}
}

func WithChatPath(path string) Option {
	return func(c *Client) {
		if path = strings.TrimSpace(path); path != "" {
			c.chatPath = path
		}
	}
}

func WithHealthPath(path string) Option {
	return func(c *Client) {
		if path = strings.TrimSpace(path); path != "" {
			c.healthPath = path
		}
	}
}

func WithLogger(logger *zerolog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.log = logger
		}
	}
}

// NewClient creates a client for the assistant at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("assistant: base url must be http(s): %q", baseURL)
	}

	nop := zerolog.Nop()
	c := &Client{
		baseURL:    baseURL,
		chatPath:   DefaultChatPath,
		healthPath: DefaultHealthPath,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		log:        &nop,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized base url.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) endpoint(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

// Send posts message and returns the assistant's reply. Network errors, timeouts
// and non-2xx statuses are errors. The response field may be empty; deciding
// what to show then is up to the caller.
func (c *Client) Send(ctx context.Context, message string) (core.Reply, error) {
	body, err := json.Marshal(proto.ChatRequest{Message: message})
	if err != nil {
		return core.Reply{}, fmt.Errorf("assistant: marshal request: %w", err)
	}

	url := c.endpoint(c.chatPath)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return core.Reply{}, fmt.Errorf("assistant: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	raw, err := c.doJSONRequest(req, url)
	if err != nil {
		return core.Reply{}, fmt.Errorf("assistant: request failed: %w", err)
	}

	// A 2xx body without a usable response field is an answer with no text,
	// not a failure.
	var payload proto.ChatResponse
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			c.log.Warn().Err(err).Str("url", url).Msg("assistant returned undecodable body")
			payload = proto.ChatResponse{}
		}
	}

	c.log.Debug().
		Str("url", url).
		Dur("elapsed", time.Since(started)).
		Int("response_len", len(payload.Response)).
		Msg("assistant replied")

	return core.Reply{Response: payload.Response, Timestamp: payload.Timestamp}, nil
}

// Health checks the assistant's health endpoint. Any 2xx answer counts as healthy.
func (c *Client) Health(ctx context.Context) error {
	url := c.endpoint(c.healthPath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("assistant: create health request: %w", err)
	}
	if _, err := c.doJSONRequest(req, url); err != nil {
		return fmt.Errorf("assistant: health check failed: %w", err)
	}
	return nil
}

func (c *Client) doJSONRequest(req *http.Request, url string) ([]byte, error) {
	if c.httpClient == nil {
		return nil, errors.New("http client is nil")
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        url,
			Body:       string(buf),
		}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if len(buf) > maxBodyBytes {
		return nil, fmt.Errorf("%w: more than %d bytes from %s", ErrResponseTooLarge, maxBodyBytes, url)
	}
	return buf, nil
}
