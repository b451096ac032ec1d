// Package tracker fetches the published staff roster over HTTP and
// extracts it into the roster domain model.
package tracker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/staffwatch/staffwatch/internal/roster"
)

var (
	// ErrUnavailable indicates the roster source could not be reached
	// after exhausting the retry policy, or rejected the request.
	ErrUnavailable = errors.New("roster source unavailable")
	// ErrParse indicates the fetched page no longer matches the
	// expected roster structure.
	ErrParse = errors.New("roster page could not be parsed")
)

var errNotFound = errors.New("not found")

const (
	defaultUserAgent     = "staffwatch/1.0"
	defaultMaxTries      = 4
	defaultRetryInterval = 500 * time.Millisecond
)

// Config holds tracker client construction parameters.
type Config struct {
	// BaseURL is the tracker page root, e.g. "https://tracker.example.com/".
	BaseURL string
	// HTTPClient carries the connect/read timeouts. Required: the
	// retry policy assumes per-call timeouts are enforced below it.
	HTTPClient *http.Client
	// UserAgent overrides the default request User-Agent when set.
	UserAgent string
	// MaxTries bounds total attempts per request (first try included).
	MaxTries uint
	// RetryInterval is the initial exponential backoff delay.
	RetryInterval time.Duration
}

// Client retrieves rosters and single-member grades from the tracker.
// Retries cover 5xx responses and transport errors; 4xx responses are
// permanent.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	userAgent     string
	maxTries      uint
	retryInterval time.Duration
}

// New constructs a tracker client.
func New(cfg Config) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		return nil, fmt.Errorf("tracker base url is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("parse tracker base url: %w", err)
	}
	if cfg.HTTPClient == nil {
		return nil, fmt.Errorf("http client is required")
	}
	client := &Client{
		httpClient:    cfg.HTTPClient,
		baseURL:       strings.TrimSuffix(base, "/"),
		userAgent:     cfg.UserAgent,
		maxTries:      cfg.MaxTries,
		retryInterval: cfg.RetryInterval,
	}
	if client.userAgent == "" {
		client.userAgent = defaultUserAgent
	}
	if client.maxTries == 0 {
		client.maxTries = defaultMaxTries
	}
	if client.retryInterval <= 0 {
		client.retryInterval = defaultRetryInterval
	}
	return client, nil
}

// FetchRoster retrieves the complete current roster. It never returns
// a partial mapping: any transport or structural problem surfaces as
// ErrUnavailable or ErrParse respectively.
func (c *Client) FetchRoster(ctx context.Context) (roster.Roster, error) {
	body, err := c.get(ctx, c.baseURL+"/")
	if err != nil {
		return roster.Roster{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	fetched, err := parseRoster(bytes.NewReader(body))
	if err != nil {
		return roster.Roster{}, err
	}
	return fetched, nil
}

// MemberGrade looks up the grade a single member currently holds on
// their profile page. The lookup is best-effort: a missing profile,
// transport failure, or unrecognized page all report absent rather
// than an error.
func (c *Client) MemberGrade(ctx context.Context, identity string) (string, bool) {
	if strings.TrimSpace(identity) == "" {
		return "", false
	}
	body, err := c.get(ctx, c.baseURL+"/player/"+url.PathEscape(identity))
	if err != nil {
		return "", false
	}
	grade, err := parseMemberGrade(bytes.NewReader(body))
	if err != nil || grade == "" {
		return "", false
	}
	return grade, true
}

func (c *Client) get(ctx context.Context, target string) ([]byte, error) {
	operation := func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		switch {
		case resp.StatusCode >= http.StatusInternalServerError:
			return nil, fmt.Errorf("status %d from %s", resp.StatusCode, target)
		case resp.StatusCode == http.StatusNotFound:
			return nil, backoff.Permanent(errNotFound)
		case resp.StatusCode >= http.StatusBadRequest:
			return nil, backoff.Permanent(fmt.Errorf("status %d from %s", resp.StatusCode, target))
		}
		return body, nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retryInterval
	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(c.maxTries),
	)
}
