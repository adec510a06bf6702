package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/proxy"

	"github.com/noxpand/retile/internal/model"
)

// maxTileBytes bounds a single tile response so a misbehaving server
// cannot exhaust memory.
const maxTileBytes = 64 << 20

// defaultTimeout is the per-request timeout when no client is supplied.
const defaultTimeout = 60 * time.Second

// Client talks to the storefront catalog and tile endpoints. It
// implements the pipeline's Fetcher and SecretProvider collaborators.
type Client struct {
	http    *http.Client
	baseURL string
	session *Session
	logger  *slog.Logger
	maxBody int64
}

// ClientOption configures a Client.
type ClientOption func(*Client) error

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) error {
		c.http = hc
		return nil
	}
}

// WithClientLogger sets a custom logger. Defaults to slog.Default.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) error {
		c.logger = logger
		return nil
	}
}

// NewHTTPClient builds the HTTP client shared by the session and the
// catalog/tile endpoints, optionally routed through a SOCKS5 proxy at
// proxyAddr ("host:port"). Sharing one client guarantees auth traffic
// takes the same route as everything else.
func NewHTTPClient(timeout time.Duration, proxyAddr string) (*http.Client, error) {
	hc := &http.Client{Timeout: timeout}
	if proxyAddr == "" {
		return hc, nil
	}

	dialer, err := proxy.SOCKS5("tcp", proxyAddr, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("socks5 proxy %q: %w", proxyAddr, err)
	}
	hc.Transport = &http.Transport{
		DialContext: func(_ context.Context, network, address string) (net.Conn, error) {
			return dialer.Dial(network, address)
		},
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,
	}
	return hc, nil
}

// NewClient creates a storefront client for the given base URL.
func NewClient(baseURL string, session *Session, opts ...ClientOption) (*Client, error) {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		session: session,
		maxBody: maxTileBytes,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if c.http == nil {
		c.http = &http.Client{Timeout: defaultTimeout}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}

	return c, nil
}

// SessionSecret exposes the session's secret for key derivation.
func (c *Client) SessionSecret(ctx context.Context) ([]byte, error) {
	return c.session.SessionSecret(ctx)
}

// ListIssues returns the account's purchased issues.
func (c *Client) ListIssues(ctx context.Context) ([]model.Issue, error) {
	var out struct {
		Issues []model.Issue `json:"issues"`
	}
	if err := c.getJSON(ctx, "/catalog/issues", &out); err != nil {
		return nil, err
	}
	return out.Issues, nil
}

// Issue returns one issue's full metadata.
func (c *Client) Issue(ctx context.Context, id string) (*model.Comic, error) {
	var comic model.Comic
	if err := c.getJSON(ctx, "/catalog/issues/"+id, &comic); err != nil {
		return nil, err
	}
	return &comic, nil
}

// Manifest returns the raw manifest blob for one issue. Decoding is the
// caller's job; the client does not interpret the bytes.
func (c *Client) Manifest(ctx context.Context, id string) ([]byte, error) {
	return c.getBytes(ctx, "/catalog/issues/"+id+"/manifest")
}

// FetchTile retrieves one tile's ciphertext by its manifest locator.
func (c *Client) FetchTile(ctx context.Context, locator string) ([]byte, error) {
	return c.getBytes(ctx, "/"+strings.TrimLeft(locator, "/"))
}

// getBytes performs an authenticated GET and returns the response body,
// classifying failures into *FetchError.
func (c *Client) getBytes(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.get(ctx, path)
	if err != nil {
		return nil, wrapFetch(path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, path)
	default:
		return nil, &FetchError{Locator: path, StatusCode: resp.StatusCode}
	}

	// Read one byte past the limit so truncation is detected instead of
	// handing a silently clipped payload to the decryptor.
	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, &FetchError{Locator: path, Err: err}
	}
	if int64(len(data)) > c.maxBody {
		return nil, &FetchError{
			Locator:   path,
			Permanent: true,
			Err:       fmt.Errorf("response body exceeds %d bytes", c.maxBody),
		}
	}
	return data, nil
}

// getJSON performs an authenticated GET and decodes a JSON response.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.get(ctx, path)
	if err != nil {
		return wrapFetch(path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrItemNotFound, path)
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrNotAuthenticated
	default:
		return &FetchError{Locator: path, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &FetchError{Locator: path, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// wrapFetch classifies a transport-level failure. Auth errors pass
// through unwrapped so they stay fatal for the run instead of looking
// like a retryable fetch.
func wrapFetch(path string, err error) error {
	var authErr *AuthError
	if errors.As(err, &authErr) || errors.Is(err, ErrNotAuthenticated) {
		return err
	}
	return &FetchError{Locator: path, Err: err}
}

// get builds and sends one authenticated request. Every request carries
// a fresh request id so storefront-side logs can be correlated.
func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	tok, err := c.session.AccessToken(ctx)
	if err != nil {
		var authErr *AuthError
		if errors.As(err, &authErr) || errors.Is(err, ErrNotAuthenticated) {
			return nil, err
		}
		return nil, &AuthError{Op: "access token", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("X-Request-Id", strings.ReplaceAll(uuid.NewString(), "-", ""))
	req.Header.Set("Accept-Charset", "utf-8")

	return c.http.Do(req)
}
