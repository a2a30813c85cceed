package backend

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

	pkgerrors "github.com/ekamauln/livo-mobile-order/pkg/errors"
	"github.com/ekamauln/livo-mobile-order/pkg/logger"
)

const defaultTimeout = 15 * time.Second

var (
	errBaseURLRequired = errors.New("backend base url is required")
)

// TokenSource supplies the bearer token attached to every request. An
// empty token sends the request unauthenticated (login only).
type TokenSource interface {
	AccessToken() string
}

// Client talks to the order service, user directory, and authenticator
// with centralized auth, logging, and error mapping.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenSource
	logger     *logger.Logger
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTokenSource installs the bearer token provider.
func WithTokenSource(tokens TokenSource) Option {
	return func(c *Client) {
		c.tokens = tokens
	}
}

// WithLogger installs request/response logging.
func WithLogger(logg *logger.Logger) Option {
	return func(c *Client) {
		c.logger = logg
	}
}

// WithTimeout overrides the default HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient builds the backend client for the given API base URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}

	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultTimeout}
	}

	return client, nil
}

// envelope mirrors the service's uniform response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) (string, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode request body")
		}
		reader = bytes.NewReader(payload)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.tokens != nil {
		if token := c.tokens.AccessToken(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	c.log(ctx, "request", method, path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log(ctx, "transport_error", method, path)
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "backend unreachable")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read response body")
	}

	var env envelope
	if len(raw) > 0 {
		// Some endpoints reply with a bare body on proxy errors; keep
		// the status-code mapping in that case.
		_ = json.Unmarshal(raw, &env)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return env.Message, c.mapStatusError(resp.StatusCode, env.Message, method, path)
	}
	if len(raw) > 0 && !env.Success && env.Message != "" {
		return env.Message, pkgerrors.New(pkgerrors.CodeDependency, env.Message)
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return env.Message, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode response data")
		}
	}

	c.log(ctx, "response", method, path)
	return env.Message, nil
}

func (c *Client) mapStatusError(status int, serverMessage, method, path string) error {
	message := serverMessage
	if message == "" {
		message = fmt.Sprintf("%s %s failed with status %d", method, path, status)
	}

	var code pkgerrors.Code
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		code = pkgerrors.CodeUnauthorized
	case status == http.StatusNotFound:
		code = pkgerrors.CodeNotFound
	case status == http.StatusUnprocessableEntity:
		code = pkgerrors.CodePrecondition
	case status >= 400 && status < 500:
		code = pkgerrors.CodeValidation
	default:
		code = pkgerrors.CodeDependency
	}
	return pkgerrors.New(code, message)
}

func (c *Client) log(ctx context.Context, stage, method, path string) {
	if c.logger == nil {
		return
	}
	entry := c.logger.WithFields(ctx, map[string]any{
		"stage":  stage,
		"method": method,
		"path":   path,
	})
	c.logger.Debug(entry, "backend.call")
}
