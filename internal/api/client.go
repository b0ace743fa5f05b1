package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"pennywise/internal/core"
	"pennywise/internal/log"
)

// Client talks to the transaction REST resource. Its methods never return Go
// errors: any failure is logged and reported as an error envelope.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
}

// NewClient creates a client for baseURL, e.g. http://localhost:8000/api.
// A nil httpClient gets a default one with the given timeout.
func NewClient(baseURL string, timeout time.Duration, httpClient *http.Client, logger *log.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = log.FromContext(context.Background()).WithComponent(log.ComponentAPI)
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

func (c *Client) GetAll(ctx context.Context) Envelope[[]core.Transaction] {
	return call[[]core.Transaction](ctx, c, http.MethodGet, "/transactions", nil, "Failed to fetch transactions")
}

func (c *Client) GetByID(ctx context.Context, id string) Envelope[*core.Transaction] {
	return call[*core.Transaction](ctx, c, http.MethodGet, "/transactions/"+url.PathEscape(id), nil, "Failed to fetch transaction")
}

func (c *Client) Create(ctx context.Context, in core.TransactionInput) Envelope[*core.Transaction] {
	return call[*core.Transaction](ctx, c, http.MethodPost, "/transactions", PayloadFrom(in), "Failed to create transaction")
}

func (c *Client) Update(ctx context.Context, id string, in core.TransactionInput) Envelope[*core.Transaction] {
	return call[*core.Transaction](ctx, c, http.MethodPut, "/transactions/"+url.PathEscape(id), PayloadFrom(in), "Failed to update transaction")
}

func (c *Client) Delete(ctx context.Context, id string) Envelope[any] {
	return call[any](ctx, c, http.MethodDelete, "/transactions/"+url.PathEscape(id), nil, "Failed to delete transaction")
}

func (c *Client) GetByCategory(ctx context.Context, category string) Envelope[[]core.Transaction] {
	return call[[]core.Transaction](ctx, c, http.MethodGet, "/transactions/category/"+url.PathEscape(category), nil, "Failed to fetch transactions by category")
}

// GetByType lists one kind; kind may be a value (credit/debit) or a label
// (Income/Expense).
func (c *Client) GetByType(ctx context.Context, kind string) Envelope[[]core.Transaction] {
	return call[[]core.Transaction](ctx, c, http.MethodGet, "/transactions/type/"+url.PathEscape(kind), nil, fmt.Sprintf("Failed to fetch %s transactions", kind))
}

func call[T any](ctx context.Context, c *Client, method, path string, body any, failMsg string) Envelope[T] {
	env, err := do[T](ctx, c, method, path, body)
	if err != nil {
		c.logger.ErrorContext(ctx, failMsg,
			log.FieldMethod, method,
			log.FieldPath, path,
			log.FieldError, err)
		return Failure[T](failMsg)
	}
	return env
}

func do[T any](ctx context.Context, c *Client, method, path string, body any) (Envelope[T], error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return Envelope[T]{}, fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return Envelope[T]{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Envelope[T]{}, fmt.Errorf("sending request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Envelope[T]{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var env Envelope[T]
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return Envelope[T]{}, fmt.Errorf("decoding response: %w", err)
	}
	if env.Status != StatusSuccess && env.Status != StatusError {
		return Envelope[T]{}, fmt.Errorf("unexpected envelope status %q", env.Status)
	}
	return env, nil
}
