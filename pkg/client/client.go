// Package client is a Go SDK for the marketplace REST API.
//
// It wraps every route in a resource API (Events, Ideas, Votes and so on),
// keeps fetched records in a shared Store so separate views agree after a
// mutation, and provides the dashboard state holders used by the club admin,
// super admin and student views:
//
//	c := client.New("http://localhost:8080/api", client.WithTokenSource(tokens.Current))
//	board := client.NewApprovalBoard(c.Events())
//	if err := board.Load(ctx); err != nil {
//	    return err
//	}
//	err := board.Reject(ctx, id, "Overlaps with the sports week")
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
)

// Client talks to the marketplace API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      func() string
	store      *Store
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTokenSource sets the function read on every call for the bearer token.
func WithTokenSource(fn func() string) Option {
	return func(c *Client) {
		c.token = fn
	}
}

// WithStore shares a Store between clients or views.
func WithStore(store *Store) Option {
	return func(c *Client) {
		c.store = store
	}
}

// New builds a client rooted at baseURL, which includes the API prefix.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		token:      func() string { return "" },
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.store == nil {
		c.store = NewStore(5 * time.Minute)
	}
	return c
}

// Store returns the cache shared by the resource APIs.
func (c *Client) Store() *Store { return c.store }

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

type envelope struct {
	Data       json.RawMessage    `json:"data"`
	Error      *envelopeError     `json:"error"`
	Pagination *models.Pagination `json:"pagination"`
}

type envelopeError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Page is one page of a paginated listing.
type Page[T any] struct {
	Items      []T
	Pagination models.Pagination
}

// ListOptions are the paging and sorting parameters shared by list calls.
type ListOptions struct {
	Page  int
	Limit int
	Sort  string
	Order string
}

func (o ListOptions) values() url.Values {
	q := url.Values{}
	if o.Page > 0 {
		q.Set("page", fmt.Sprint(o.Page))
	}
	if o.Limit > 0 {
		q.Set("limit", fmt.Sprint(o.Limit))
	}
	if o.Sort != "" {
		q.Set("sort", o.Sort)
	}
	if o.Order != "" {
		q.Set("order", o.Order)
	}
	return q
}

// do sends one request and decodes the envelope's data into out. pagination, when
// non-nil, receives the envelope's pagination block.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any, pagination *models.Pagination) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil && resp.StatusCode < 400 {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return apiErr
	}

	if pagination != nil && env.Pagination != nil {
		*pagination = *env.Pagination
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decoding data: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out, nil)
}

func (c *Client) getPage(ctx context.Context, path string, query url.Values, out any) (models.Pagination, error) {
	var pagination models.Pagination
	err := c.do(ctx, http.MethodGet, path, query, nil, out, &pagination)
	return pagination, err
}

func (c *Client) send(ctx context.Context, method, path string, body, out any) error {
	return c.do(ctx, method, path, nil, body, out, nil)
}

func escape(segment string) string { return url.PathEscape(segment) }
