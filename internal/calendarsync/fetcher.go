package calendarsync

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/svanleeuwen/hearth/internal/google"
	"github.com/svanleeuwen/hearth/internal/metrics"
)

// Fetcher reads events from one or more of a user's calendars. A rejected
// access token triggers at most one forced refresh for the whole fetch, then
// every remaining call retries with the new token.
type Fetcher struct {
	tokens tokenSource
	api    calendarAPI
}

func NewFetcher(tokens tokenSource, api calendarAPI) *Fetcher {
	return &Fetcher{tokens: tokens, api: api}
}

// CalendarEvents is the merged result of one fetch.
type CalendarEvents struct {
	// Events across all requested calendars, ordered by start time.
	Events []google.Event
	// Failed lists calendar IDs that could not be read. Partial results
	// are still returned.
	Failed []string
}

// Events fetches [from, to) events from each calendar under the given
// user's Google connection and merges them chronologically.
func (f *Fetcher) Events(ctx context.Context, userID string, calendarIDs []string, from, to time.Time) (*CalendarEvents, error) {
	accessToken, err := f.tokens.AccessToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := &CalendarEvents{}
	refreshed := false
	for _, calendarID := range calendarIDs {
		events, err := f.api.ListEvents(ctx, accessToken, calendarID, from, to)
		if errors.Is(err, google.ErrUnauthorized) && !refreshed {
			refreshed = true
			accessToken, err = f.tokens.ForceRefresh(ctx, userID, accessToken)
			if err != nil {
				return nil, err
			}
			events, err = f.api.ListEvents(ctx, accessToken, calendarID, from, to)
		}
		if err != nil {
			if errors.Is(err, google.ErrUnauthorized) {
				metrics.ObserveCalendarSync("fetch_events", "failure")
				return nil, fmt.Errorf("calendar %s: %w", calendarID, err)
			}
			// A single broken calendar must not hide the rest.
			out.Failed = append(out.Failed, calendarID)
			continue
		}
		out.Events = append(out.Events, events...)
	}

	sort.SliceStable(out.Events, func(i, j int) bool {
		return eventStart(out.Events[i]).Before(eventStart(out.Events[j]))
	})
	outcome := "success"
	if len(out.Failed) > 0 {
		outcome = "partial"
	}
	metrics.ObserveCalendarSync("fetch_events", outcome)
	return out, nil
}

// eventStart parses an event's start for ordering. All-day events sort at
// midnight UTC of their date; unparseable starts sort last.
func eventStart(ev google.Event) time.Time {
	if ev.Start == nil {
		return time.Unix(1<<62, 0)
	}
	if ev.Start.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, ev.Start.DateTime); err == nil {
			return t
		}
	}
	if ev.Start.Date != "" {
		if t, err := time.Parse("2006-01-02", ev.Start.Date); err == nil {
			return t
		}
	}
	return time.Unix(1<<62, 0)
}
