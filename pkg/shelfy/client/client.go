// Package client is the data-access layer for the shelfy API. It presents
// one read/write interface over collections, products, analytics, and
// preferences regardless of whether the remote store is reachable: remote
// when it is, a durable local fallback store when it is not. Fallback data
// is never reconciled back into the remote store when connectivity
// returns; the two stores are independent by design.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/shelfy/shelfy/pkg/shelfy/localstore"
	"github.com/shelfy/shelfy/pkg/shelfy/models"
)

// Defaults for the constructed client.
const (
	DefaultCacheTTL       = 5 * time.Second
	DefaultProbeInterval  = 5 * time.Second
	DefaultClickRetention = 1000
	DefaultViewRetention  = 2000
)

// ErrNotFound is returned when an id does not resolve, locally or
// remotely. Not-found is a distinct error kind, never a silent success.
var ErrNotFound = errors.New("not found")

// ErrProtected is returned for operations against the default collection.
var ErrProtected = errors.New("default collection is protected")

// ValidationError reports a rejected input before any store is touched.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// APIError is a non-2xx response from the remote store.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err means an id did not resolve.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Config holds client construction parameters. Zero values get defaults.
type Config struct {
	// BaseURL of the shelfy server, e.g. "http://localhost:8080"
	BaseURL string
	// Token is the admin session token used on mutating calls
	Token string
	// StorePath is the fallback store file
	StorePath string

	CacheTTL       time.Duration
	ProbeInterval  time.Duration
	ClickRetention int
	ViewRetention  int

	HTTPClient *http.Client
	Logger     *log.Logger
}

// Client is an explicit, constructed data-access client. There is no
// package-level state: create one at startup, Close it on shutdown.
type Client struct {
	cfg    Config
	http   *http.Client
	store  *localstore.Store
	logger *log.Logger

	// reachability probe, cached between probe intervals
	probeMu   sync.Mutex
	available bool
	probedAt  time.Time

	// short-lived read cache for collection reads
	cacheMu     sync.Mutex
	cached      []models.Collection
	cachedAt    time.Time
}

// New constructs a client from cfg.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, &ValidationError{"base URL required"}
	}
	if cfg.StorePath == "" {
		return nil, &ValidationError{"store path required"}
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if cfg.ProbeInterval <= 0 {
		cfg.ProbeInterval = DefaultProbeInterval
	}
	if cfg.ClickRetention <= 0 {
		cfg.ClickRetention = DefaultClickRetention
	}
	if cfg.ViewRetention <= 0 {
		cfg.ViewRetention = DefaultViewRetention
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}

	store, err := localstore.Open(cfg.StorePath)
	if err != nil {
		return nil, fmt.Errorf("open fallback store: %w", err)
	}

	return &Client{
		cfg:    cfg,
		http:   cfg.HTTPClient,
		store:  store,
		logger: cfg.Logger,
	}, nil
}

// Close releases the client. The fallback store is flushed on every
// write, so there is nothing pending to persist.
func (c *Client) Close() error {
	return nil
}

// remoteAvailable probes the remote store once per probe interval and
// caches the verdict in between.
func (c *Client) remoteAvailable(ctx context.Context) bool {
	c.probeMu.Lock()
	defer c.probeMu.Unlock()

	if time.Since(c.probedAt) < c.cfg.ProbeInterval {
		return c.available
	}
	c.probedAt = time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.cfg.BaseURL+"/api/collections", nil)
	if err != nil {
		c.available = false
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.available = false
		return false
	}
	resp.Body.Close()
	c.available = resp.StatusCode == http.StatusOK
	return c.available
}

// markUnavailable records a failed remote call so subsequent operations
// go straight to the fallback store until the next probe.
func (c *Client) markUnavailable() {
	c.probeMu.Lock()
	c.available = false
	c.probedAt = time.Now()
	c.probeMu.Unlock()
}

// do executes one API call, decoding a JSON response into out when out
// is non-nil. Non-2xx responses become *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.markUnavailable()
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiBody struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(resp.Body)
		if err := json.Unmarshal(raw, &apiBody); err != nil || apiBody.Error == "" {
			apiBody.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: apiBody.Error}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// shouldFallback decides whether a failed remote call degrades to the
// fallback store. Transport errors and server errors do; client errors
// (validation, not-found, protected-resource) are real answers and
// propagate.
func (c *Client) shouldFallback(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500
	}
	return true
}

// fallbackWarn logs the remote failure that triggered a fallback.
func (c *Client) fallbackWarn(op string, err error) {
	c.logger.Printf("shelfy client: %s failed against remote store, using fallback: %v", op, err)
}

// invalidate drops the read cache. Called after every write that goes
// through the client, remote or local.
func (c *Client) invalidate() {
	c.cacheMu.Lock()
	c.cached = nil
	c.cachedAt = time.Time{}
	c.cacheMu.Unlock()
}

// cachedCollections returns the cached collection read if it is still
// fresh.
func (c *Client) cachedCollections() ([]models.Collection, bool) {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()
	if c.cached == nil || time.Since(c.cachedAt) > c.cfg.CacheTTL {
		return nil, false
	}
	return c.cached, true
}

func (c *Client) setCachedCollections(collections []models.Collection) {
	c.cacheMu.Lock()
	c.cached = collections
	c.cachedAt = time.Now()
	c.cacheMu.Unlock()
}
