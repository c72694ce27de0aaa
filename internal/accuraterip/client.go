package accuraterip

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the public AccurateRip registry mirror.
const DefaultBaseURL = "http://www.accuraterip.com/accuraterip"

const maxResponseBytes = 1 << 20 // registry records are tiny; anything past this is garbage

// ErrDiscNotFound reports that the registry has no entry for the disc.
// Callers must treat this differently from a transport failure: an unknown
// disc is a final answer, a dead network is not.
var ErrDiscNotFound = errors.New("accuraterip: disc not found in registry")

// Lookuper defines the registry operations used by verification.
type Lookuper interface {
	Lookup(ctx context.Context, discID DiscID) ([]Record, error)
}

// Client fetches dBAR records over HTTP.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

var _ Lookuper = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithUserAgent sets the User-Agent header sent with lookups.
func WithUserAgent(agent string) Option {
	return func(c *Client) {
		if strings.TrimSpace(agent) != "" {
			c.userAgent = agent
		}
	}
}

// NewClient creates a registry client. An empty baseURL selects the public
// registry.
func NewClient(baseURL string, opts ...Option) *Client {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  "riptide",
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Lookup fetches and parses every pressing the registry knows for the disc.
// A 404 returns ErrDiscNotFound; other failures are transport errors the
// caller may retry.
func (c *Client) Lookup(ctx context.Context, discID DiscID) ([]Record, error) {
	if discID.Zero() {
		return nil, errors.New("accuraterip: disc id is empty")
	}
	endpoint := c.baseURL + "/" + discID.RecordPath()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrDiscNotFound
	default:
		return nil, fmt.Errorf("registry lookup returned %d (latency=%v)", resp.StatusCode, latency)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read registry response: %w", err)
	}
	records, err := ParseRecords(body)
	if err != nil {
		return nil, fmt.Errorf("parse registry response: %w", err)
	}
	return records, nil
}
