package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/chrisvdg/dioadmin/resource"
)

// DefaultTimeout bounds backend calls when no timeout is configured.
// A finite timeout is always enforced.
const DefaultTimeout = 15 * time.Second

// endpoints maps resource names to their backend collection paths
var endpoints = map[string]string{
	resource.Users:         "/auth/users",
	resource.Reports:       "/reports",
	resource.Payments:      "/payments",
	resource.Collections:   "/mandatory-collections",
	resource.Levies:        "/levies",
	resource.BankAccounts:  "/bank-accounts",
	resource.AdminSettings: "/admin-settings",
	resource.Wallet:        "/wallet",
}

// ErrUnknownResource is returned for a resource name without a backend endpoint
var ErrUnknownResource = errors.New("unknown resource")

// Config represents a resource client configuration
type Config struct {
	// BaseURL is the backend API root
	BaseURL string
	// Timeout bounds every backend call. Zero means DefaultTimeout.
	Timeout time.Duration
	// HTTPClient overrides the transport, mainly for tests
	HTTPClient *http.Client
}

// New creates a resource client for the backend at the configured base URL
func New(c Config) (*Client, error) {
	if c.BaseURL == "" {
		return nil, errors.New("no backend base URL provided")
	}
	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse backend base URL")
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	hc := c.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}

	return &Client{
		base:    base,
		http:    hc,
		timeout: timeout,
	}, nil
}

// Client issues list and mutation requests against the backend REST API.
// List reads are idempotent; no retry policy lives at this layer.
type Client struct {
	base    *url.URL
	http    *http.Client
	timeout time.Duration

	mu    sync.RWMutex
	token string
}

// SetToken attaches a bearer credential to all subsequent requests
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// ClearToken discards the bearer credential
func (c *Client) ClearToken() {
	c.SetToken("")
}

// Token returns the current bearer credential
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// FetchPage requests one page of the named resource collection
func (c *Client) FetchPage(ctx context.Context, name string, page resource.PageRequest, filters resource.Filters) (resource.PageResult[json.RawMessage], error) {
	var result resource.PageResult[json.RawMessage]

	endpoint, ok := endpoints[name]
	if !ok {
		return result, errors.Wrapf(ErrUnknownResource, "%q", name)
	}

	page = page.Normalize()
	query := filters.Values()
	query.Set("page", strconv.Itoa(page.Page))
	query.Set("limit", strconv.Itoa(page.Limit))

	body, err := c.do(ctx, http.MethodGet, endpoint, query, nil)
	if err != nil {
		return result, err
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return result, errors.Wrap(err, "failed to decode list response")
	}
	if result.Items == nil {
		result.Items = []json.RawMessage{}
	}

	return result, nil
}

// FetchOne requests a single entity. An empty id addresses singleton
// resources such as the admin settings.
func (c *Client) FetchOne(ctx context.Context, name, id string) (json.RawMessage, error) {
	endpoint, ok := endpoints[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownResource, "%q", name)
	}
	if id != "" {
		endpoint = path.Join(endpoint, id)
	}

	return c.do(ctx, http.MethodGet, endpoint, nil, nil)
}

// Operation represents the write verb of a mutation
type Operation string

// Mutation operations
const (
	OpCreate  Operation = "create"
	OpUpdate  Operation = "update"
	OpReplace Operation = "replace"
	OpDelete  Operation = "delete"
)

func (op Operation) method() (string, error) {
	switch op {
	case OpCreate:
		return http.MethodPost, nil
	case OpUpdate:
		return http.MethodPatch, nil
	case OpReplace:
		return http.MethodPut, nil
	case OpDelete:
		return http.MethodDelete, nil
	default:
		return "", errors.Errorf("operation %q not supported", op)
	}
}

// MutationRequest represents a single write against a resource.
// Action addresses a resource sub-path such as payments/<id>/confirm.
// Mutations are not idempotent in general and are never retried here.
type MutationRequest struct {
	Resource string
	ID       string
	Action   string
	Op       Operation
	Payload  any
	Query    url.Values
}

// Mutate executes a write operation and returns the backend response
// body, which may be empty
func (c *Client) Mutate(ctx context.Context, req MutationRequest) (json.RawMessage, error) {
	endpoint, ok := endpoints[req.Resource]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownResource, "%q", req.Resource)
	}
	if req.ID != "" {
		endpoint = path.Join(endpoint, req.ID)
	}
	if req.Action != "" {
		endpoint = path.Join(endpoint, req.Action)
	}

	method, err := req.Op.method()
	if err != nil {
		return nil, err
	}

	return c.do(ctx, method, endpoint, req.Query, req.Payload)
}

func (c *Client) targetURL(endpoint string, query url.Values) string {
	u := *c.base
	u.Path = path.Join(u.Path, endpoint)
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) do(ctx context.Context, method, endpoint string, query url.Values, payload any) (json.RawMessage, error) {
	if raw, ok := payload.(json.RawMessage); ok && len(raw) == 0 {
		payload = nil
	}
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.Wrap(err, "failed to encode request payload")
		}
		body = bytes.NewReader(data)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	target := c.targetURL(endpoint, query)
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build backend request")
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	log.Debugf("%s %s", method, target)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(ErrTransport, "%s %s: %s", method, endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(ErrTransport, "failed to read response body: %s", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classify(resp.StatusCode, data)
	}

	return data, nil
}
