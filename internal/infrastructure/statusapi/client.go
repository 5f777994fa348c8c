// Package statusapi is the viewer-side client of the authoritative status
// service.
package statusapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kirillkom/attendee-presence/internal/core/domain"
	"github.com/kirillkom/attendee-presence/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithResilience(executor *resilience.Executor) Option {
	return func(c *Client) { c.executor = executor }
}

func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type listResponse struct {
	Records []domain.PresenceRecord `json:"records"`
}

type updateRequest struct {
	AttendeeID string                `json:"attendeeId"`
	Status     domain.PresenceStatus `json:"status"`
	EventID    string                `json:"eventId"`
}

type updateResponse struct {
	Record domain.PresenceRecord `json:"record"`
}

func (c *Client) List(ctx context.Context, eventID string) ([]domain.PresenceRecord, error) {
	path := "/v1/events/" + url.PathEscape(eventID) + "/attendees/status"

	var out listResponse
	err := c.withResilience(ctx, "status_list", func(callCtx context.Context) error {
		out = listResponse{}
		return c.doJSON(callCtx, http.MethodGet, path, nil, &out, "list")
	})
	if err != nil {
		return nil, err
	}
	if out.Records == nil {
		out.Records = []domain.PresenceRecord{}
	}
	return out.Records, nil
}

// Update is retried only on transient failures. A retried POST re-applies
// the same target status, which the service accepts as a timestamp refresh.
func (c *Client) Update(
	ctx context.Context,
	attendeeID string,
	status domain.PresenceStatus,
	eventID string,
) (domain.PresenceRecord, error) {
	payload := updateRequest{AttendeeID: attendeeID, Status: status, EventID: eventID}

	var out updateResponse
	err := c.withResilience(ctx, "status_update", func(callCtx context.Context) error {
		out = updateResponse{}
		return c.doJSON(callCtx, http.MethodPost, "/v1/attendees/status", payload, &out, "update")
	})
	if err != nil {
		return domain.PresenceRecord{}, err
	}
	if out.Record.AttendeeID == "" {
		return domain.PresenceRecord{}, fmt.Errorf("status api update: empty record in response")
	}
	return out.Record, nil
}

func (c *Client) withResilience(ctx context.Context, operation string, fn func(context.Context) error) error {
	if c.executor == nil {
		return wrapTemporaryIfNeeded(operation, fn(ctx))
	}
	err := c.executor.Execute(ctx, operation, fn, classifyStatusAPIError)
	return wrapTemporaryIfNeeded(operation, err)
}
