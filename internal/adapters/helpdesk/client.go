// Package helpdesk implements the ticketing collaborator client. Calls are
// rate-limited by the remote side and retried with bounded backoff; exhausted
// retries surface as collaborator-fetch errors, never silent data loss.
package helpdesk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/deskmetrics/deskmetrics/internal/data"
	"github.com/deskmetrics/deskmetrics/internal/domain/model"
	apperrors "github.com/deskmetrics/deskmetrics/internal/errors"
	"github.com/deskmetrics/deskmetrics/internal/service"
)

// ConfigKeyAPIKey is the config-store key holding the helpdesk API key.
const ConfigKeyAPIKey = "helpdesk.api_key"

const (
	defaultMaxRetries  = 3
	defaultBaseBackoff = 500 * time.Millisecond
	defaultPageSize    = 100
	maxResponseBytes   = 16 << 20
)

// ClientOptions groups dependencies for Client.
type ClientOptions struct {
	BaseURL      string                      // Required: helpdesk API base URL
	ConfigStore  *service.ConfigStoreService // Required: source of the API key
	HTTPClient   *http.Client                // Optional
	MaxRetries   int                         // Optional: attempts after the first try
	BaseBackoff  time.Duration               // Optional
	PageSize     int                         // Optional
	TimeProvider data.TimeProvider           // Optional: defaults to the real clock
	Logger       *slog.Logger                // Optional
}

// Client is the HTTP implementation of the helpdesk collaborator contract.
// The API key is read through the config store and cached; the client
// subscribes to config changes and drops the cached key when it is rotated,
// so a restart is never needed after a key change.
type Client struct {
	baseURL      string
	configStore  *service.ConfigStoreService
	httpClient   *http.Client
	maxRetries   int
	baseBackoff  time.Duration
	pageSize     int
	timeProvider data.TimeProvider
	logger       *slog.Logger

	mu     sync.Mutex
	apiKey string
}

// NewClient constructs a new Client and registers its config-change listener.
func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("BaseURL is required")
	}
	if opts.ConfigStore == nil {
		return nil, errors.New("ConfigStoreService is required")
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.BaseBackoff <= 0 {
		opts.BaseBackoff = defaultBaseBackoff
	}
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	if opts.TimeProvider == nil {
		opts.TimeProvider = &data.RealTimeProvider{}
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "helpdesk_client")
	}

	c := &Client{
		baseURL:      opts.BaseURL,
		configStore:  opts.ConfigStore,
		httpClient:   opts.HTTPClient,
		maxRetries:   opts.MaxRetries,
		baseBackoff:  opts.BaseBackoff,
		pageSize:     opts.PageSize,
		timeProvider: opts.TimeProvider,
		logger:       logger,
	}

	opts.ConfigStore.Subscribe(func(key string) {
		if key == ConfigKeyAPIKey {
			c.mu.Lock()
			c.apiKey = ""
			c.mu.Unlock()
		}
	})

	return c, nil
}

type wireTicket struct {
	ID        int64     `json:"id"`
	Subject   string    `json:"subject"`
	Status    string    `json:"status"`
	GroupName string    `json:"group_name"`
	PartnerID *string   `json:"partner_id"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ticketPage struct {
	Tickets []wireTicket `json:"tickets"`
}

func (w wireTicket) toModel() model.Ticket {
	return model.Ticket{
		ExternalID: w.ID,
		Subject:    w.Subject,
		Status:     model.TicketStatus(w.Status),
		GroupName:  w.GroupName,
		PartnerID:  w.PartnerID,
		Tags:       w.Tags,
		CreatedAt:  w.CreatedAt,
		UpdatedAt:  w.UpdatedAt,
	}
}

// GetAllTickets fetches the entire year-to-date ticket corpus, page by page.
func (c *Client) GetAllTickets(ctx context.Context) ([]model.Ticket, error) {
	yearStart := time.Date(c.timeProvider.Now().UTC().Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	return c.fetchTickets(ctx, url.Values{
		"created_since": {yearStart.Format(time.RFC3339)},
	})
}

// GetTicketsUpdatedSince fetches tickets updated since the watermark.
func (c *Client) GetTicketsUpdatedSince(ctx context.Context, since time.Time) ([]model.Ticket, error) {
	return c.fetchTickets(ctx, url.Values{
		"updated_since": {since.UTC().Format(time.RFC3339)},
	})
}

func (c *Client) fetchTickets(ctx context.Context, query url.Values) ([]model.Ticket, error) {
	var all []model.Ticket
	for page := 1; ; page++ {
		q := url.Values{}
		for k, v := range query {
			q[k] = v
		}
		q.Set("page", strconv.Itoa(page))
		q.Set("per_page", strconv.Itoa(c.pageSize))

		var body ticketPage
		if err := c.getJSON(ctx, "/tickets", q, &body); err != nil {
			return nil, err
		}
		for _, wt := range body.Tickets {
			all = append(all, wt.toModel())
		}
		if len(body.Tickets) < c.pageSize {
			return all, nil
		}
	}
}

// GetReferenceGroups fetches the agent group reference data.
func (c *Client) GetReferenceGroups(ctx context.Context) ([]model.ReferenceGroup, error) {
	var body struct {
		Groups []model.ReferenceGroup `json:"groups"`
	}
	if err := c.getJSON(ctx, "/groups", nil, &body); err != nil {
		return nil, err
	}
	return body.Groups, nil
}

// GetReferenceCompanies fetches the partner company reference data.
func (c *Client) GetReferenceCompanies(ctx context.Context) ([]model.ReferenceCompany, error) {
	var body struct {
		Companies []model.ReferenceCompany `json:"companies"`
	}
	if err := c.getJSON(ctx, "/companies", nil, &body); err != nil {
		return nil, err
	}
	return body.Companies, nil
}

func (c *Client) currentAPIKey(ctx context.Context) (string, error) {
	c.mu.Lock()
	key := c.apiKey
	c.mu.Unlock()
	if key != "" {
		return key, nil
	}

	key, err := c.configStore.Get(ctx, ConfigKeyAPIKey)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return "", apperrors.Configuration("helpdesk API key is not configured")
		}
		return "", err
	}

	c.mu.Lock()
	c.apiKey = key
	c.mu.Unlock()
	return key, nil
}

// getJSON performs one GET with bounded retry on 429 and 5xx responses and on
// transport errors. 4xx responses other than 429 fail immediately.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	apiKey, err := c.currentAPIKey(ctx)
	if err != nil {
		return err
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.baseBackoff << (attempt - 1)
			if c.logger != nil {
				c.logger.WarnContext(ctx, "helpdesk request retrying",
					"path", path, "attempt", attempt, "backoff", backoff, "error", lastErr)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		retryable, err := c.doOnce(ctx, endpoint, apiKey, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable {
			return apperrors.CollaboratorFetch(err, fmt.Sprintf("helpdesk GET %s failed", path))
		}
	}

	return apperrors.CollaboratorFetch(lastErr,
		fmt.Sprintf("helpdesk GET %s failed after %d attempts", path, c.maxRetries+1))
}

func (c *Client) doOnce(ctx context.Context, endpoint, apiKey string, out any) (retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return true, fmt.Errorf("read response: %w", err)
		}
		if err := json.Unmarshal(body, out); err != nil {
			return false, fmt.Errorf("decode response: %w", err)
		}
		return false, nil

	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return true, fmt.Errorf("helpdesk responded %d", resp.StatusCode)

	default:
		return false, fmt.Errorf("helpdesk responded %d", resp.StatusCode)
	}
}
