// Package remote talks to the PostgREST-style task and message store.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client handles task store API calls
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Config for the store client
type Config struct {
	BaseURL string // e.g. https://project.supabase.co
	APIKey  string
	Timeout time.Duration
}

// NewClient creates a new store client
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}

	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// IsConfigured checks if the client has a URL and key to work with
func (c *Client) IsConfigured() bool {
	return c.baseURL != "" && c.apiKey != ""
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + "/rest/v1/" + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if method == http.MethodPost {
		req.Header.Set("Prefer", "return=minimal")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("store error %d: %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// UnreadMessages returns messages addressed to userID that are still unread,
// newest first. Messages the user sent to themselves are excluded.
func (c *Client) UnreadMessages(ctx context.Context, userID string) ([]Message, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("receiver_id", "eq."+userID)
	q.Set("is_read", "eq.false")
	q.Set("sender_id", "neq."+userID)
	q.Set("order", "created_at.desc")

	var messages []Message
	if err := c.do(ctx, http.MethodGet, "messages", q, nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// MarkMessageRead flags a single message as read.
func (c *Client) MarkMessageRead(ctx context.Context, id int64) error {
	q := url.Values{}
	q.Set("id", "eq."+strconv.FormatInt(id, 10))

	return c.do(ctx, http.MethodPatch, "messages", q, map[string]bool{"is_read": true}, nil)
}

// DeleteReadMessages removes the user's read messages created before the
// cutoff instant.
func (c *Client) DeleteReadMessages(ctx context.Context, userID string, before time.Time) error {
	q := url.Values{}
	q.Set("user_id", "eq."+userID)
	q.Set("is_read", "eq.true")
	q.Set("created_at", "lt."+before.Format(WallClock))

	return c.do(ctx, http.MethodDelete, "messages", q, nil, nil)
}

// assigneeFilter matches tasks assigned to the user, whether the assignee
// column holds the bare id or a list containing it.
func assigneeFilter(userID string) string {
	return fmt.Sprintf("(assignee.ilike.%%%s%%,assignee.eq.%s)", userID, userID)
}

func (c *Client) tasks(ctx context.Context, q url.Values) ([]Task, error) {
	var tasks []Task
	if err := c.do(ctx, http.MethodGet, "tasks", q, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// TodayPendingTasks returns the user's incomplete tasks with a deadline
// inside the given day.
func (c *Client) TodayPendingTasks(ctx context.Context, userID string, dayStart time.Time) ([]Task, error) {
	dayEnd := dayStart.AddDate(0, 0, 1)

	q := url.Values{}
	q.Set("select", "*")
	q.Set("or", assigneeFilter(userID))
	q.Set("completed", "eq.false")
	q.Set("deadline", "gte."+dayStart.Format(WallClock))
	q.Set("order", "deadline.asc")
	q.Add("deadline", "lt."+dayEnd.Format(WallClock))

	return c.tasks(ctx, q)
}

// TodayCompletedTasks returns the user's completed tasks with a deadline
// inside the given day.
func (c *Client) TodayCompletedTasks(ctx context.Context, userID string, dayStart time.Time) ([]Task, error) {
	dayEnd := dayStart.AddDate(0, 0, 1)

	q := url.Values{}
	q.Set("select", "*")
	q.Set("or", assigneeFilter(userID))
	q.Set("completed", "eq.true")
	q.Set("deadline", "gte."+dayStart.Format(WallClock))
	q.Set("order", "deadline.asc")
	q.Add("deadline", "lt."+dayEnd.Format(WallClock))

	return c.tasks(ctx, q)
}

// UpcomingDeadlineTasks returns incomplete tasks whose deadline falls inside
// (now, now+within].
func (c *Client) UpcomingDeadlineTasks(ctx context.Context, userID string, now time.Time, within time.Duration) ([]Task, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("or", assigneeFilter(userID))
	q.Set("completed", "eq.false")
	q.Set("deadline", "gte."+now.Format(WallClock))
	q.Add("deadline", "lte."+now.Add(within).Format(WallClock))
	q.Set("order", "deadline.asc")

	return c.tasks(ctx, q)
}

// OverdueTasks returns incomplete tasks whose deadline has already passed.
func (c *Client) OverdueTasks(ctx context.Context, userID string, now time.Time) ([]Task, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("or", assigneeFilter(userID))
	q.Set("completed", "eq.false")
	q.Set("deadline", "lt."+now.Format(WallClock))
	q.Set("order", "deadline.asc")

	return c.tasks(ctx, q)
}

// DailyTaskExists reports whether a task with this title and assignee was
// already created during the given day.
func (c *Client) DailyTaskExists(ctx context.Context, title, assignee string, dayStart time.Time) (bool, error) {
	dayEnd := dayStart.AddDate(0, 0, 1)

	q := url.Values{}
	q.Set("select", "id")
	q.Set("title", "eq."+title)
	q.Set("assignee", "eq."+assignee)
	q.Set("created_at", "gte."+dayStart.Format(WallClock))
	q.Add("created_at", "lt."+dayEnd.Format(WallClock))

	var rows []struct {
		ID int64 `json:"id"`
	}
	if err := c.do(ctx, http.MethodGet, "tasks", q, nil, &rows); err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// CreateTask inserts a new task into the store.
func (c *Client) CreateTask(ctx context.Context, task Task) error {
	return c.do(ctx, http.MethodPost, "tasks", nil, task, nil)
}
