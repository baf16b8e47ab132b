package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"sloth.dev/pkg/sloth/internal/domain"
	m "sloth.dev/pkg/sloth/internal/model"
)

// Client is a domain.Fuzzer backed by a remote HTTPServer.
type Client struct {
	base *url.URL
	http *http.Client
}

var _ domain.Fuzzer = (*Client)(nil)

// NewClient accepts a bare host:port or a full base URL.
func NewClient(addr string, timeout time.Duration) (*Client, error) {
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}

	base, err := url.Parse(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid server address %q: %w", addr, err)
	}

	if base.Host == "" {
		return nil, fmt.Errorf("invalid server address %q: missing host", addr)
	}

	return &Client{base: base, http: &http.Client{Timeout: timeout}}, nil
}

// Stat implements domain.Fuzzer.
func (c *Client) Stat(ctx context.Context) (m.Statistics, error) {
	var stat m.Statistics
	err := c.do(ctx, http.MethodGet, "/api/stat", nil, &stat)

	return stat, err
}

// Start implements domain.Fuzzer.
func (c *Client) Start(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/start", nil, nil)
}

// Stop implements domain.Fuzzer.
func (c *Client) Stop(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/stop", nil, nil)
}

// TogglePause implements domain.Fuzzer.
func (c *Client) TogglePause(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/pause", nil, nil)
}

// Generation implements domain.Fuzzer.
func (c *Client) Generation(ctx context.Context, offset, count int, sortBy m.SortOrder, onlyMutated bool) ([]m.Snippet, error) {
	query := url.Values{}
	query.Set("offset", strconv.Itoa(offset))
	query.Set("count", strconv.Itoa(count))
	query.Set("sort", string(sortBy))
	query.Set("mutated", strconv.FormatBool(onlyMutated))

	var snippets []m.Snippet
	err := c.do(ctx, http.MethodGet, "/api/generation", query, &snippets)

	return snippets, err
}

// Sample implements domain.Fuzzer.
func (c *Client) Sample(ctx context.Context, id string) (m.SampleDetail, error) {
	var detail m.SampleDetail
	err := c.do(ctx, http.MethodGet, "/api/sample/"+id, nil, &detail)

	return detail, err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, out any) error {
	target := c.base.JoinPath(path)
	target.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, method, target.String(), http.NoBody)
	if err != nil {
		return err
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return remoteError(resp.StatusCode, body)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(bytes.NewReader(body)).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

var remoteSentinels = []error{
	domain.ErrAlreadyRunning,
	domain.ErrNotRunning,
	domain.ErrLoopFinished,
	domain.ErrInvalidPage,
	domain.ErrSampleNotFound,
}

// remoteError restores the domain sentinel named by the response so callers
// can use errors.Is on either side of the wire.
func remoteError(status int, body []byte) error {
	var payload errorBody
	if err := json.Unmarshal(body, &payload); err != nil || payload.Error == "" {
		return fmt.Errorf("server returned %s", http.StatusText(status))
	}

	for _, sentinel := range remoteSentinels {
		if strings.HasPrefix(payload.Error, sentinel.Error()) {
			if payload.Error == sentinel.Error() {
				return sentinel
			}

			return fmt.Errorf("%w%s", sentinel, strings.TrimPrefix(payload.Error, sentinel.Error()))
		}
	}

	return errors.New(payload.Error)
}
