// Package ransomlive fetches victim posts from the ransomware.live API and
// reduces each record to the group name and discovery time.
package ransomlive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/codeGROOVE-dev/rwTZ/pkg/activity"
	"github.com/codeGROOVE-dev/rwTZ/pkg/constants"
)

// DefaultBaseURL is the public API root.
const DefaultBaseURL = "https://api.ransomware.live"

// Doer performs HTTP requests. *http.Client and *httpcache.Client satisfy it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the victims endpoint.
type Client struct {
	httpClient Doer
	logger     *slog.Logger
	baseURL    string
	attempts   uint
	delay      time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API root.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithHTTPClient replaces the default HTTP client, e.g. with a caching one.
func WithHTTPClient(d Doer) Option {
	return func(c *Client) {
		c.httpClient = d
	}
}

// WithRetry sets the attempt count and initial backoff delay.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(c *Client) {
		c.attempts = attempts
		c.delay = delay
	}
}

// New creates a Client.
func New(logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
		baseURL:    DefaultBaseURL,
		attempts:   5,
		delay:      time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Victims returns every victim post the API lists for year. Records lacking a
// string group_name or discovered field are skipped.
func (c *Client) Victims(ctx context.Context, year int) ([]activity.RawEvent, error) {
	url := c.baseURL + "/victims/" + strconv.Itoa(year)
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}

	events, skipped, err := Decode(body)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", url, err)
	}
	c.logger.Debug("fetched victims", "url", url, "records", len(events)+skipped, "kept", len(events), "skipped", skipped)
	return events, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("creating request: %w", err))
			}
			req.Header.Set("Accept", "application/json")
			req.Header.Set("User-Agent", constants.UserAgent)

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer func() {
				if err := resp.Body.Close(); err != nil {
					c.logger.Debug("failed to close response body", "error", err)
				}
			}()

			if resp.StatusCode != http.StatusOK {
				snippet, readErr := io.ReadAll(io.LimitReader(resp.Body, 1024))
				if readErr != nil {
					c.logger.Debug("failed to read error response body", "error", readErr)
				}
				statusErr := fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(snippet))
				if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
					return statusErr
				}
				return retry.Unrecoverable(statusErr)
			}

			body, err = io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("reading body: %w", err)
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.MaxDelay(2*time.Minute),
		retry.DelayType(retry.FullJitterBackoffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debug("retrying victims fetch", "attempt", n+1, "url", url, "error", err)
		}),
	)
	if err != nil {
		return nil, err
	}
	return body, nil
}

// Decode reads a JSON array of loosely shaped victim records. Each record is
// kept only when group_name and discovered are both non-empty strings.
func Decode(data []byte) (events []activity.RawEvent, skipped int, err error) {
	var records []map[string]any
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, 0, err
	}
	events = make([]activity.RawEvent, 0, len(records))
	for _, rec := range records {
		group, gok := rec["group_name"].(string)
		discovered, dok := rec["discovered"].(string)
		if !gok || !dok || group == "" || discovered == "" {
			skipped++
			continue
		}
		events = append(events, activity.RawEvent{Group: group, Discovered: discovered})
	}
	return events, skipped, nil
}
