package google

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

var (
	// ErrUnauthorized signals that the access token was rejected and a
	// refresh (or full reauthorization) is needed.
	ErrUnauthorized = errors.New("google: unauthorized")

	// ErrNotFound signals that the requested calendar or event does not
	// exist remotely.
	ErrNotFound = errors.New("google: not found")
)

// Client talks to the Google Calendar REST API with caller-supplied bearer
// tokens. It holds no credentials of its own.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// ListCalendars returns the calendars visible to the token's account.
func (c *Client) ListCalendars(ctx context.Context, accessToken string) ([]CalendarListEntry, error) {
	var out calendarListResponse
	if err := c.do(ctx, accessToken, http.MethodGet, "/users/me/calendarList", nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// ListEvents returns single (expanded) events in [from, to) ordered by start
// time.
func (c *Client) ListEvents(ctx context.Context, accessToken, calendarID string, from, to time.Time) ([]Event, error) {
	q := url.Values{
		"timeMin":      {from.Format(time.RFC3339)},
		"timeMax":      {to.Format(time.RFC3339)},
		"singleEvents": {"true"},
		"orderBy":      {"startTime"},
		"maxResults":   {"250"},
	}
	path := fmt.Sprintf("/calendars/%s/events?%s", url.PathEscape(calendarID), q.Encode())

	var out eventsResponse
	if err := c.do(ctx, accessToken, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// CreateEvent inserts an event and returns the stored copy, including the
// server-assigned ID.
func (c *Client) CreateEvent(ctx context.Context, accessToken, calendarID string, event Event) (*Event, error) {
	path := fmt.Sprintf("/calendars/%s/events", url.PathEscape(calendarID))
	var out Event
	if err := c.do(ctx, accessToken, http.MethodPost, path, event, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteEvent removes an event. Deleting an event that is already gone
// returns ErrNotFound.
func (c *Client) DeleteEvent(ctx context.Context, accessToken, calendarID, eventID string) error {
	path := fmt.Sprintf("/calendars/%s/events/%s", url.PathEscape(calendarID), url.PathEscape(eventID))
	return c.do(ctx, accessToken, http.MethodDelete, path, nil, nil)
}

func (c *Client) do(ctx context.Context, accessToken, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.apiError(method, path, resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) apiError(method, path string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	var apiErr apiErrorResponse
	_ = json.Unmarshal(body, &apiErr)

	msg := apiErr.Error.Message
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%s %s: %s: %w", method, path, msg, ErrUnauthorized)
	case http.StatusNotFound, http.StatusGone:
		return fmt.Errorf("%s %s: %s: %w", method, path, msg, ErrNotFound)
	default:
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, msg)
	}
}
