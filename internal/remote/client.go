// Package remote talks to the REST backend that serves grid pages, map
// features and symbology icons.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rshade/mapgrid/internal/logging"
)

// Defaults used when ClientOptions leaves a field zero.
const (
	DefaultTimeout         = 15 * time.Second
	DefaultMaxFeaturePages = 200
	DefaultUserAgent       = "mapgrid"

	maxErrorBody = 512
)

// Remote errors.
var (
	ErrPageLimit = errors.New("feature page limit reached")
	ErrDecode    = errors.New("decoding response")
)

// StatusError reports a non-2xx response.
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("GET %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("GET %s: HTTP %d: %s", e.URL, e.StatusCode, e.Body)
}

// ClientOptions configures a Client.
type ClientOptions struct {
	BaseURL         string
	Timeout         time.Duration
	UserAgent       string
	MaxFeaturePages int
	IconsPath       string

	// HTTPClient overrides the transport. Nil uses a default client.
	HTTPClient *http.Client

	// Cache stores grid pages. Nil disables caching.
	Cache *PageCache
}

// Client fetches grid pages, features and icons.
type Client struct {
	http            *http.Client
	base            *url.URL
	timeout         time.Duration
	userAgent       string
	maxFeaturePages int
	iconsPath       string
	cache           *PageCache
}

// NewClient validates opts and builds a Client.
func NewClient(opts ClientOptions) (*Client, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base url %q: %w", opts.BaseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", opts.BaseURL)
	}

	c := &Client{
		http:            opts.HTTPClient,
		base:            base,
		timeout:         opts.Timeout,
		userAgent:       opts.UserAgent,
		maxFeaturePages: opts.MaxFeaturePages,
		iconsPath:       opts.IconsPath,
		cache:           opts.Cache,
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.userAgent == "" {
		c.userAgent = DefaultUserAgent
	}
	if c.maxFeaturePages <= 0 {
		c.maxFeaturePages = DefaultMaxFeaturePages
	}
	if c.iconsPath == "" {
		c.iconsPath = "/api/symbology/icons/"
	}
	return c, nil
}

// Resolve resolves ref against the base URL.
func (c *Client) Resolve(ref string) (*url.URL, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("parsing url %q: %w", ref, err)
	}
	return c.base.ResolveReference(u), nil
}

// getJSON issues a GET for u bounded by the client timeout and decodes the
// body into out.
func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctxWithTimeout, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("building request %s: %w", u, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	log := logging.FromContext(ctx)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", u, err)
	}
	defer resp.Body.Close()

	log.Debug().
		Str("component", "remote").
		Str("operation", "get").
		Str("url", u).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("request complete")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			StatusCode: resp.StatusCode,
			URL:        u,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	if decodeErr := json.NewDecoder(resp.Body).Decode(out); decodeErr != nil {
		return fmt.Errorf("%w from %s: %w", ErrDecode, u, decodeErr)
	}
	return nil
}
