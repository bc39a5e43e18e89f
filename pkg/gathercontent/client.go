// Package gathercontent is a GatherContent v2 API client. Every request
// is routed through a shared gateway so one account never exceeds its
// request ceiling, however many clients share it.
package gathercontent

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Sternrassler/gathercontent-resolver/pkg/gateway"
	"github.com/Sternrassler/gathercontent-resolver/pkg/logging"
	"github.com/Sternrassler/gathercontent-resolver/pkg/pagination"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultAPIHost is the public GatherContent API.
	DefaultAPIHost = "https://api.gathercontent.com"

	// AcceptHeader selects the v2 API.
	AcceptHeader = "application/vnd.gathercontent.v2+json"

	// DefaultMaxConcurrency bounds per-item fetches of one GetItems call.
	DefaultMaxConcurrency = 5
)

var itemFetchFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "gathercontent_item_fetch_failures_total",
	Help: "Total per-item content fetches that failed",
})

// Config holds the client configuration.
type Config struct {
	// Credentials. All three are required.
	APIUsername string
	APIKey      string
	ProjectID   string

	// APIHost defaults to DefaultAPIHost.
	APIHost string

	// Gateway throttles and retries requests. Clients for the same
	// account must share one gateway. Nil creates a private one.
	Gateway *gateway.Gateway

	// HTTPClient defaults to a client with a 30s timeout.
	HTTPClient *http.Client

	// MaxConcurrency bounds parallel per-item fetches.
	MaxConcurrency int

	// Pagination controls paging through item lists.
	Pagination pagination.Config
}

// Client talks to one GatherContent project.
type Client struct {
	config     Config
	httpClient *http.Client
	gateway    *gateway.Gateway
	authHeader string
	logger     zerolog.Logger
}

// New creates a client. Missing credentials are reported as
// ErrMissingCredentials.
func New(cfg Config) (*Client, error) {
	var missing []string
	if cfg.APIUsername == "" {
		missing = append(missing, "api username")
	}
	if cfg.APIKey == "" {
		missing = append(missing, "api key")
	}
	if cfg.ProjectID == "" {
		missing = append(missing, "project id")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}

	if cfg.APIHost == "" {
		cfg.APIHost = DefaultAPIHost
	}
	cfg.APIHost = strings.TrimRight(cfg.APIHost, "/")
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = DefaultMaxConcurrency
	}

	gw := cfg.Gateway
	if gw == nil {
		var err error
		gw, err = gateway.New(gateway.DefaultConfig())
		if err != nil {
			return nil, fmt.Errorf("create gateway: %w", err)
		}
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	token := base64.StdEncoding.EncodeToString([]byte(cfg.APIUsername + ":" + cfg.APIKey))

	return &Client{
		config:     cfg,
		httpClient: httpClient,
		gateway:    gw,
		authHeader: "Basic " + token,
		logger:     logging.NewLogger("gathercontent-client").With().Str("project_id", cfg.ProjectID).Logger(),
	}, nil
}

// ProjectID returns the project this client reads from.
func (c *Client) ProjectID() string {
	return c.config.ProjectID
}

// Request describes one API call relative to the API host.
type Request struct {
	Method string // defaults to GET
	Path   string
	Query  []QueryParam
	Header http.Header
	Body   []byte
}

// Do sends req through the gateway with auth and accept headers set. A
// non-2xx final response is returned as *APIError. On success the caller
// owns the response body.
func (c *Client) Do(ctx context.Context, req Request) (*http.Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	url := c.config.APIHost + req.Path + BuildQuery(req.Query)

	resp, err := c.gateway.Execute(ctx, req.Path, func(ctx context.Context) (*http.Response, error) {
		var body io.Reader
		if req.Body != nil {
			body = bytes.NewReader(req.Body)
		}
		httpReq, err := http.NewRequestWithContext(ctx, method, url, body)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		for key, values := range req.Header {
			for _, v := range values {
				httpReq.Header.Add(key, v)
			}
		}
		httpReq.Header.Set("Authorization", c.authHeader)
		httpReq.Header.Set("Accept", AcceptHeader)
		if req.Body != nil && httpReq.Header.Get("Content-Type") == "" {
			httpReq.Header.Set("Content-Type", "application/json")
		}
		return c.httpClient.Do(httpReq)
	})
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Message:    errorMessage(resp, "error"),
		}
		c.logger.Debug().
			Str("endpoint", req.Path).
			Int("status", resp.StatusCode).
			Str("upstream_message", apiErr.Message).
			Msg("GatherContent request failed")
		return nil, apiErr
	}

	return resp, nil
}

// APIFetch performs req and decodes the JSON response body into T.
func APIFetch[T any](ctx context.Context, c *Client, req Request) (T, error) {
	var out T
	resp, err := c.Do(ctx, req)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("decode %s: %w", req.Path, err)
	}
	return out, nil
}

type envelope[T any] struct {
	Data T `json:"data"`
}

type pageEnvelope[T any] struct {
	Data       []T `json:"data"`
	Pagination struct {
		TotalPages int `json:"total_pages"`
	} `json:"pagination"`
}

// GetTemplates lists the project's templates.
func (c *Client) GetTemplates(ctx context.Context) ([]Template, error) {
	result, err := APIFetch[envelope[[]Template]](ctx, c, Request{
		Path: "/projects/" + c.config.ProjectID + "/templates",
	})
	if err != nil {
		return nil, err
	}
	return result.Data, nil
}

// GetItem fetches one item. With includeStructure the template structure
// is requested too and MappedContent is filled in.
func (c *Client) GetItem(ctx context.Context, id int64, includeStructure bool) (*Item, error) {
	var query []QueryParam
	if includeStructure {
		query = append(query, QueryParam{Key: "include", Value: "structure"})
	}
	result, err := APIFetch[envelope[Item]](ctx, c, Request{
		Path:  fmt.Sprintf("/items/%d", id),
		Query: query,
	})
	if err != nil {
		return nil, err
	}

	item := result.Data
	if includeStructure {
		item.MappedContent = mapContent(item.Content, item.Structure)
	}
	return &item, nil
}

// GetItems fetches items by id, template or name. Without IncludeContent
// this pages through the project item list. With IncludeContent every id
// in ItemIDs is fetched on its own, at most MaxConcurrency at a time;
// ids that fail land in FailedItems instead of failing the call.
func (c *Client) GetItems(ctx context.Context, q ItemsQuery) (*ItemsResult, error) {
	if q.IncludeContent {
		return c.getItemsWithContent(ctx, q.ItemIDs), nil
	}

	fetcher := pagination.PageFunc[Item](func(ctx context.Context, page int) ([]Item, int, error) {
		query := []QueryParam{
			{Key: "item_id", Value: q.ItemIDs},
			{Key: "template_id", Value: q.TemplateIDs},
			{Key: "name_contains", Value: q.NameContains},
		}
		if page > 1 {
			query = append(query, QueryParam{Key: "page", Value: page})
		}
		result, err := APIFetch[pageEnvelope[Item]](ctx, c, Request{
			Path:  "/projects/" + c.config.ProjectID + "/items",
			Query: query,
		})
		if err != nil {
			return nil, 0, err
		}
		return result.Data, result.Pagination.TotalPages, nil
	})

	items, err := pagination.FetchAll[Item](ctx, fetcher, c.config.Pagination)
	if err != nil {
		return nil, err
	}
	return &ItemsResult{Items: items}, nil
}

func (c *Client) getItemsWithContent(ctx context.Context, ids []int64) *ItemsResult {
	items := make([]*Item, len(ids))
	failures := make([]error, len(ids))

	var g errgroup.Group
	g.SetLimit(c.config.MaxConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			item, err := c.GetItem(ctx, id, true)
			if err != nil {
				failures[i] = err
				return nil
			}
			items[i] = item
			return nil
		})
	}
	_ = g.Wait()

	result := &ItemsResult{Items: make([]Item, 0, len(ids))}
	for i, id := range ids {
		if failures[i] != nil {
			itemFetchFailuresTotal.Inc()
			c.logger.Warn().
				Err(failures[i]).
				Int64("item_id", id).
				Msg("Failed to fetch item content")
			result.FailedItems = append(result.FailedItems, FailedItem{
				ID:     fmt.Sprintf("%d", id),
				Reason: failures[i].Error(),
			})
			continue
		}
		result.Items = append(result.Items, *items[i])
	}
	return result
}

// errorMessage extracts a readable message from a failed response: the
// given JSON field when present, else the raw body, else the status line.
func errorMessage(resp *http.Response, field string) string {
	status := resp.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return status
	}
	text := strings.TrimSpace(string(body))
	if text == "" {
		return status
	}

	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err != nil || parsed == nil {
		return text
	}
	switch value := parsed[field].(type) {
	case string:
		if value != "" {
			return value
		}
	case nil:
	default:
		if encoded, err := json.Marshal(value); err == nil {
			return string(encoded)
		}
	}
	return text
}
