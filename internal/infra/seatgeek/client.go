// Package seatgeek provides a client for the SeatGeek events API.
package seatgeek

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/osa030/gigbox/internal/domain/event"
	"github.com/osa030/gigbox/internal/infra/httpjson"
)

// datetimeLayout is the UTC timestamp format the events endpoint filters on.
const datetimeLayout = "2006-01-02T15:04:05"

// ErrNotFound is returned when an event ID does not exist.
var ErrNotFound = errors.New("event not found")

// Client is a SeatGeek API client.
type Client struct {
	api *httpjson.Client

	// Cache for event details
	eventCache map[string]*event.Event
	cacheMu    sync.RWMutex
}

// Config represents SeatGeek client configuration.
type Config struct {
	ClientID          string
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64 // 0 disables pacing
}

// Query describes an events search.
type Query struct {
	City     string
	From     time.Time
	To       time.Time
	Taxonomy string
	PerPage  int
}

// eventResponse mirrors a single event object in API responses.
type eventResponse struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	DateTimeLocal string `json:"datetime_local"`
	URL           string `json:"url"`
	Venue         struct {
		Name string `json:"name"`
		City string `json:"city"`
	} `json:"venue"`
	Performers []struct {
		Name string `json:"name"`
	} `json:"performers"`
}

// SearchEventsResponse represents the response from the events endpoint.
type SearchEventsResponse struct {
	Events []eventResponse `json:"events"`
	Meta   struct {
		Total   int `json:"total"`
		Page    int `json:"page"`
		PerPage int `json:"per_page"`
	} `json:"meta"`
}

// APIError represents an error response from the SeatGeek API.
type APIError struct {
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// New creates a new SeatGeek client.
func New(cfg Config) (*Client, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("seatgeek client ID is required")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.seatgeek.com/2"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &Client{
		api: &httpjson.Client{
			BaseURL:     baseURL,
			HTTP:        &http.Client{Timeout: timeout},
			Limiter:     rate.NewLimiter(limit, 1),
			Params:      url.Values{"client_id": {cfg.ClientID}},
			DecodeError: decodeError,
		},
		eventCache: make(map[string]*event.Event),
	}, nil
}

// SearchEvents retrieves the events matching q, one page only.
// Reference: https://platform.seatgeek.com/#events
func (c *Client) SearchEvents(ctx context.Context, q Query) ([]event.Event, error) {
	if q.City == "" {
		return nil, errors.New("city is required")
	}

	perPage := q.PerPage
	if perPage <= 0 {
		perPage = 50
	}

	params := url.Values{}
	params.Set("venue.city", q.City)
	if !q.From.IsZero() {
		params.Set("datetime_utc.gte", q.From.UTC().Format(datetimeLayout))
	}
	if !q.To.IsZero() {
		params.Set("datetime_utc.lte", q.To.UTC().Format(datetimeLayout))
	}
	if q.Taxonomy != "" {
		params.Set("taxonomies.name", q.Taxonomy)
	}
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("sort", "datetime_utc.asc")

	var response SearchEventsResponse
	if err := c.api.Get(ctx, "/events", params, &response); err != nil {
		return nil, errors.Wrap(err, "failed to search events")
	}

	events := make([]event.Event, 0, len(response.Events))
	for _, e := range response.Events {
		events = append(events, convertEvent(e))
	}

	zlog.Debug().Msgf("seatgeek events search: city=%s total=%d returned=%d", q.City, response.Meta.Total, len(events))
	return events, nil
}

// GetEvent retrieves a single event by ID. Results are cached per client.
func (c *Client) GetEvent(ctx context.Context, id string) (*event.Event, error) {
	if id == "" {
		return nil, errors.New("event ID is required")
	}

	c.cacheMu.RLock()
	if cached, ok := c.eventCache[id]; ok {
		c.cacheMu.RUnlock()
		zlog.Debug().Msgf("using cached event: %s", id)
		return cached, nil
	}
	c.cacheMu.RUnlock()

	var response eventResponse
	if err := c.api.Get(ctx, "/events/"+url.PathEscape(id), nil, &response); err != nil {
		return nil, errors.Wrapf(err, "failed to get event %s", id)
	}

	ev := convertEvent(response)

	c.cacheMu.Lock()
	c.eventCache[id] = &ev
	c.cacheMu.Unlock()

	return &ev, nil
}

// decodeError maps error responses to ErrNotFound or the API's message.
func decodeError(status int, body []byte) error {
	if status == http.StatusNotFound {
		return ErrNotFound
	}
	if status < 200 || status >= 300 {
		var apiError APIError
		if err := json.Unmarshal(body, &apiError); err == nil && apiError.Message != "" {
			return errors.Errorf("seatgeek API error %d: %s", status, apiError.Message)
		}
		return errors.Errorf("seatgeek API error %d", status)
	}
	return nil
}

// convertEvent converts an API event to the domain Event.
func convertEvent(e eventResponse) event.Event {
	performers := make([]string, 0, len(e.Performers))
	for _, p := range e.Performers {
		performers = append(performers, p.Name)
	}
	return event.Event{
		ID:            fmt.Sprintf("%d", e.ID),
		Title:         e.Title,
		DateTimeLocal: e.DateTimeLocal,
		URL:           e.URL,
		Venue:         e.Venue.Name,
		City:          e.Venue.City,
		Performers:    performers,
	}
}
