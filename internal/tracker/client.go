// Package tracker is a small Jira REST client that returns tickets with full changelogs.
package tracker

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/flowmosaic/mosaic/internal/contract"
	"github.com/sirupsen/logrus"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultRetries429 = 2
	defaultMaxWait    = 60 * time.Second
	defaultPageSize   = 100
	userAgent         = "mosaic/1.0"
)

// Client talks to one Jira server.
type Client struct {
	BaseURL       string
	HTTPClient    *http.Client
	User          string // basic auth when set, bearer token otherwise
	Token         string
	EpicField     string
	PageSize      int
	MaxRetries429 int
	MaxWait       time.Duration
	Sleep         func(time.Duration)
	Logger        *logrus.Entry
}

// Options configures New.
type Options struct {
	BaseURL   string
	User      string
	Token     string
	CertFile  string
	EpicField string
	PageSize  int
	Timeout   time.Duration
	Logger    *logrus.Entry
}

// HTTPError is a non-2xx response from the tracker.
type HTTPError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("tracker returned %d: %s", e.StatusCode, e.Body)
}

// RateLimitError means the tracker kept answering 429 past the retry budget.
type RateLimitError struct {
	Attempts int
	Wait     time.Duration
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited after %d attempts (next wait %s)", e.Attempts, e.Wait)
}

// New builds a client, loading an optional CA bundle for the tracker's TLS certificate.
func New(opts Options) (*Client, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := &http.Client{Timeout: timeout}
	if opts.CertFile != "" {
		pem, err := os.ReadFile(opts.CertFile)
		if err != nil {
			return nil, fmt.Errorf("read CA bundle: %w", err)
		}
		pool, err := x509.SystemCertPool()
		if err != nil {
			pool = x509.NewCertPool()
		}
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %s", opts.CertFile)
		}
		httpClient.Transport = &http.Transport{
			Proxy:           http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12},
		}
	}
	return &Client{
		BaseURL:    opts.BaseURL,
		HTTPClient: httpClient,
		User:       opts.User,
		Token:      opts.Token,
		EpicField:  opts.EpicField,
		PageSize:   opts.PageSize,
		Logger:     opts.Logger,
	}, nil
}

// FromConfig builds a client for the configured tracker, logging through log.
func FromConfig(cfg *contract.Config, log *logrus.Entry) (*Client, error) {
	return New(Options{
		BaseURL:   cfg.Server,
		User:      cfg.User,
		Token:     cfg.Token,
		CertFile:  cfg.CertFile,
		EpicField: cfg.EpicField,
		PageSize:  cfg.PageSize,
		Timeout:   cfg.Timeout,
		Logger:    log,
	})
}

// getJSON issues a GET and decodes the body into out, retrying bounded 429s.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	baseURL := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if baseURL == "" {
		return errors.New("tracker base URL is required")
	}
	target := baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	sleep := c.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	maxRetries := c.MaxRetries429
	if maxRetries == 0 {
		maxRetries = defaultRetries429
	}
	maxWait := c.MaxWait
	if maxWait <= 0 {
		maxWait = defaultMaxWait
	}

	for attempt := 1; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", userAgent)
		c.applyAuth(req)

		start := time.Now()
		resp, err := httpClient.Do(req)
		if c.Logger != nil {
			c.Logger.WithFields(logrus.Fields{
				"path":     path,
				"attempt":  attempt,
				"duration": time.Since(start).String(),
			}).Debug("tracker request")
		}
		if err != nil {
			return fmt.Errorf("execute request: %w", err)
		}
		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			wait := retryAfter(resp.Header.Get("Retry-After"), time.Now())
			if attempt > maxRetries || wait > maxWait {
				return &RateLimitError{Attempts: attempt, Wait: wait}
			}
			if c.Logger != nil {
				c.Logger.WithFields(logrus.Fields{"path": path, "wait": wait.String()}).Warn("rate limited by tracker")
			}
			sleep(wait)
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return &HTTPError{StatusCode: resp.StatusCode, Body: snippet(body)}
		}
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
		return nil
	}
}

func (c *Client) applyAuth(req *http.Request) {
	switch {
	case c.User != "":
		req.SetBasicAuth(c.User, c.Token)
	case c.Token != "":
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
}

// retryAfter reads a Retry-After header given in seconds or as an HTTP date.
// A missing or unreadable header means retry after one second.
func retryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if secs, err := strconv.Atoi(value); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
		return 0
	}
	return time.Second
}

func snippet(body []byte) string {
	const limit = 512
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
