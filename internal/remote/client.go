package remote

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
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://en.wikipedia.org/api/rest_v1"

	defaultTimeout     = 30 * time.Second
	defaultRate        = 10
	defaultBurst       = 5
	maxRetries         = 3
	initialRetryDelay  = 1 * time.Second
	maxRetryDelay      = 30 * time.Second
	retryBackoffFactor = 2
)

// Options configure a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	Rate    float64
	Burst   int

	// Token returns the bearer token for each request. An empty token sends
	// no Authorization header.
	Token func() string
}

// Client interfaces with the reading lists REST API
type Client struct {
	baseURL    string
	token      func() string
	httpClient *http.Client
	limiter    *rate.Limiter
	retryDelay func(attempt int) time.Duration

	mu          sync.Mutex
	baseCtx     context.Context
	cancelBase  context.CancelFunc
	lastRequest RequestType
}

// NewClient creates a new reading lists API client
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Rate <= 0 {
		opts.Rate = defaultRate
	}
	if opts.Burst <= 0 {
		opts.Burst = defaultBurst
	}
	if opts.Token == nil {
		opts.Token = func() string { return "" }
	}

	baseCtx, cancel := context.WithCancel(context.Background())
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/") + "/data/lists/",
		token:   opts.Token,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		limiter:    rate.NewLimiter(rate.Limit(opts.Rate), opts.Burst),
		retryDelay: calculateRetryDelay,
		baseCtx:    baseCtx,
		cancelBase: cancel,
	}
}

// LastRequestType reports the kind of the most recently started request.
func (c *Client) LastRequestType() RequestType {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastRequest
}

// CancelAllTasks cancels every in-flight request. Requests started afterwards
// are not affected.
func (c *Client) CancelAllTasks() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelBase()
	c.baseCtx, c.cancelBase = context.WithCancel(context.Background())
}

// Setup enables reading lists for the account
func (c *Client) Setup(ctx context.Context) error {
	return c.request(ctx, RequestSetup, http.MethodPost, "setup", nil, nil, nil)
}

// Teardown disables reading lists for the account and deletes its lists
func (c *Client) Teardown(ctx context.Context) error {
	return c.request(ctx, RequestTeardown, http.MethodPost, "teardown", nil, nil, nil)
}

// GetAllReadingLists fetches every list of the account by following pagination
func (c *Client) GetAllReadingLists(ctx context.Context) (*ListsResult, error) {
	result := &ListsResult{}
	next := ""

	for {
		query := url.Values{}
		if next != "" {
			query.Set("next", next)
		}

		var page listsPage
		if err := c.request(ctx, RequestGetLists, http.MethodGet, "", query, nil, &page); err != nil {
			return nil, err
		}

		result.Lists = append(result.Lists, page.Lists...)
		if result.Since == "" {
			result.Since = page.ContinueFrom
		}
		if page.SplitAt != nil {
			result.SplitEntryLimit = page.SplitAt
		}

		if page.Next == "" {
			break
		}
		next = page.Next
	}

	return result, nil
}

// CreateLists creates lists in one batch. Results are in request order.
func (c *Client) CreateLists(ctx context.Context, lists []NewList) ([]BatchResult, error) {
	body := map[string]any{"batch": lists}
	var resp batchResponse
	if err := c.request(ctx, RequestCreateLists, http.MethodPost, "batch", nil, body, &resp); err != nil {
		return nil, err
	}
	return batchResults(resp, len(lists))
}

// UpdateList changes the name and description of a list
func (c *Client) UpdateList(ctx context.Context, listID int64, name string, description *string) error {
	body := NewList{Name: name, Description: description}
	return c.request(ctx, RequestUpdateList, http.MethodPut, strconv.FormatInt(listID, 10), nil, body, nil)
}

// DeleteList deletes a list and its entries
func (c *Client) DeleteList(ctx context.Context, listID int64) error {
	return c.request(ctx, RequestDeleteList, http.MethodDelete, strconv.FormatInt(listID, 10), nil, nil, nil)
}

// GetAllEntries fetches every entry of a list by following pagination
func (c *Client) GetAllEntries(ctx context.Context, listID int64) ([]Entry, error) {
	var entries []Entry
	path := strconv.FormatInt(listID, 10) + "/entries/"
	next := ""

	for {
		query := url.Values{}
		if next != "" {
			query.Set("next", next)
		}

		var page entriesPage
		if err := c.request(ctx, RequestGetEntries, http.MethodGet, path, query, nil, &page); err != nil {
			return nil, err
		}

		for _, entry := range page.Entries {
			if entry.ListID == 0 {
				entry.ListID = listID
			}
			entries = append(entries, entry)
		}

		if page.Next == "" {
			break
		}
		next = page.Next
	}

	return entries, nil
}

// AddEntries adds entries to a list in one batch. Results are in request order.
func (c *Client) AddEntries(ctx context.Context, listID int64, entries []NewEntry) ([]BatchResult, error) {
	body := map[string]any{"batch": entries}
	path := strconv.FormatInt(listID, 10) + "/entries/batch"
	var resp batchResponse
	if err := c.request(ctx, RequestAddEntries, http.MethodPost, path, nil, body, &resp); err != nil {
		return nil, err
	}
	return batchResults(resp, len(entries))
}

// RemoveEntry deletes one entry from a list
func (c *Client) RemoveEntry(ctx context.Context, listID, entryID int64) error {
	path := fmt.Sprintf("%d/entries/%d", listID, entryID)
	return c.request(ctx, RequestRemoveEntry, http.MethodDelete, path, nil, nil, nil)
}

// UpdatedListsAndEntries fetches the lists and entries changed after since
func (c *Client) UpdatedListsAndEntries(ctx context.Context, since string) (*Changes, error) {
	changes := &Changes{}
	path := "changes/since/" + url.PathEscape(since)
	next := ""

	for {
		query := url.Values{}
		if next != "" {
			query.Set("next", next)
		}

		var page changesPage
		if err := c.request(ctx, RequestGetChanges, http.MethodGet, path, query, nil, &page); err != nil {
			return nil, err
		}

		changes.Lists = append(changes.Lists, page.Lists...)
		changes.Entries = append(changes.Entries, page.Entries...)
		if changes.Since == "" {
			changes.Since = page.ContinueFrom
		}

		if page.Next == "" {
			break
		}
		next = page.Next
	}

	return changes, nil
}

func batchResults(resp batchResponse, expected int) ([]BatchResult, error) {
	if len(resp.Batch) != expected {
		return nil, fmt.Errorf("batch response has %d items, expected %d", len(resp.Batch), expected)
	}
	results := make([]BatchResult, len(resp.Batch))
	for i, item := range resp.Batch {
		switch {
		case item.Error != "":
			results[i].Err = errorForCode(http.StatusOK, item.Error, "")
		case item.ID != nil:
			results[i].ID = item.ID
		default:
			results[i].Err = fmt.Errorf("batch item %d has neither id nor error", i)
		}
	}
	return results, nil
}

func (c *Client) request(ctx context.Context, reqType RequestType, method, path string, query url.Values, body, out any) error {
	c.mu.Lock()
	c.lastRequest = reqType
	baseCtx := c.baseCtx
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(baseCtx, cancel)
	defer stop()

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay(attempt)
			select {
			case <-ctx.Done():
				return c.contextError(ctx, baseCtx)
			case <-time.After(delay):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return c.contextError(ctx, baseCtx)
		}

		lastErr = c.doRequest(ctx, method, u, payload, out)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return c.contextError(ctx, baseCtx)
		}

		// Only retry on rate limits or server errors
		if !isRetryableError(lastErr) {
			return lastErr
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Client) contextError(ctx, baseCtx context.Context) error {
	if baseCtx.Err() != nil {
		return ErrCancelled
	}
	return ctx.Err()
}

func (c *Client) doRequest(ctx context.Context, method, u string, payload []byte, out any) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrInvalidToken
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return ErrRateLimited
	}
	if resp.StatusCode >= 500 {
		return &ServerError{StatusCode: resp.StatusCode}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		var errResp errorResponse
		if json.Unmarshal(data, &errResp) == nil && errResp.Title != "" {
			return errorForCode(resp.StatusCode, errResp.Title, errResp.Detail)
		}
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(data))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func calculateRetryDelay(attempt int) time.Duration {
	delay := initialRetryDelay
	for i := 0; i < attempt; i++ {
		delay *= time.Duration(retryBackoffFactor)
	}
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	return delay
}

func isRetryableError(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var serverErr *ServerError
	return errors.As(err, &serverErr)
}
