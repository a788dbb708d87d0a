package crowd

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// Client is a Crowd usermanagement REST client. It holds no mutable state after
// construction and is safe for concurrent use.
type Client struct {
	config   Config
	http     *resty.Client
	logger   Logger
	validate *validator.Validate
}

// response is the raw outcome of a single request.
type response struct {
	statusCode int
	body       []byte
}

func (r *response) upstreamError(operation string) *UpstreamError {
	return &UpstreamError{
		Operation:  operation,
		StatusCode: r.statusCode,
		Body:       r.body,
	}
}

// NewClient creates a new Crowd client. The configuration is copied; later
// changes to config do not affect the client.
func NewClient(config *Config) (*Client, error) {
	if config == nil {
		return nil, &ConfigurationError{Fields: []string{"BaseURL", "AppName", "AppPassword"}}
	}

	cfg := *config
	if err := defaults.Set(&cfg); err != nil {
		return nil, &ConfigurationError{Cause: fmt.Errorf("failed to set default values: %w", err)}
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, newConfigurationError(err)
	}

	if cfg.Logger == nil {
		cfg.Logger = NewTFLogger(Subsystem)
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetBasicAuth(cfg.AppName, cfg.AppPassword).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", cfg.UserAgent).
		SetTLSClientConfig(&tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: !cfg.VerifyTLS, //nolint:gosec // opt-in verification
		}).
		SetRetryCount(0).
		SetDisableWarn(true)

	return &Client{
		config:   cfg,
		http:     httpClient,
		logger:   cfg.Logger,
		validate: validate,
	}, nil
}

func newConfigurationError(err error) *ConfigurationError {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return &ConfigurationError{Cause: err}
	}

	fields := make([]string, 0, len(validationErrs))
	for _, fe := range validationErrs {
		fields = append(fields, fe.Field())
	}
	return &ConfigurationError{Fields: fields, Cause: err}
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// Timeout returns the per-request timeout.
func (c *Client) Timeout() time.Duration {
	return c.config.Timeout
}

// do issues a single request. It never retries and never interprets the status code.
func (c *Client) do(ctx context.Context, operation, method, path string, query url.Values, body any) (*response, error) {
	requestID := uuid.NewString()

	req := c.http.R().
		SetContext(ctx).
		SetHeader("X-Request-Id", requestID)
	if len(query) > 0 {
		req.SetQueryParamsFromValues(query)
	}
	if body != nil {
		req.SetBody(body)
	}

	fields := map[string]any{
		"operation":  operation,
		"method":     method,
		"path":       path,
		"request_id": requestID,
	}

	start := time.Now()
	resp, err := req.Execute(method, path)
	fields["duration_ms"] = time.Since(start).Milliseconds()

	if err != nil {
		fields["error"] = err.Error()
		c.logger.Error(ctx, "Request failed", fields)
		return nil, &TransportError{Operation: operation, Cause: err}
	}

	fields["status_code"] = resp.StatusCode()
	c.logger.Debug(ctx, "Request completed", fields)

	return &response{
		statusCode: resp.StatusCode(),
		body:       resp.Body(),
	}, nil
}

func (c *Client) get(ctx context.Context, operation, path string, query url.Values) (*response, error) {
	return c.do(ctx, operation, http.MethodGet, path, query, nil)
}

func (c *Client) post(ctx context.Context, operation, path string, query url.Values, body any) (*response, error) {
	return c.do(ctx, operation, http.MethodPost, path, query, body)
}

func (c *Client) put(ctx context.Context, operation, path string, query url.Values, body any) (*response, error) {
	return c.do(ctx, operation, http.MethodPut, path, query, body)
}

func (c *Client) delete(ctx context.Context, operation, path string, query url.Values) (*response, error) {
	return c.do(ctx, operation, http.MethodDelete, path, query, nil)
}

// lookup performs a single-entity GET. A 404 yields a nil document and no error.
func (c *Client) lookup(ctx context.Context, operation, path string, query url.Values, into any) (map[string]any, error) {
	resp, err := c.get(ctx, operation, path, query)
	if err != nil {
		return nil, err
	}

	switch resp.statusCode {
	case http.StatusOK:
		document, err := decodeDocument(resp.body)
		if err != nil {
			return nil, fmt.Errorf("crowd %s: failed to decode response: %w", operation, err)
		}
		if err := decodeJSON(resp.body, into); err != nil {
			return nil, fmt.Errorf("crowd %s: failed to decode response: %w", operation, err)
		}
		return document, nil
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, resp.upstreamError(operation)
	}
}

// listNames performs a single-page list GET and extracts the name of each
// element of collection in server order. A 404 yields an empty slice.
func (c *Client) listNames(ctx context.Context, operation, path string, query url.Values, collection string, opts *ListOptions) ([]string, error) {
	window, err := c.listWindow(opts)
	if err != nil {
		return nil, fmt.Errorf("crowd %s: %w", operation, err)
	}

	query.Set("max-results", strconv.Itoa(window.MaxResults))
	query.Set("start-index", strconv.Itoa(window.StartIndex))

	resp, err := c.get(ctx, operation, path, query)
	if err != nil {
		return nil, err
	}

	switch resp.statusCode {
	case http.StatusOK:
		names, err := extractNames(resp.body, collection)
		if err != nil {
			return nil, fmt.Errorf("crowd %s: failed to decode response: %w", operation, err)
		}
		return names, nil
	case http.StatusNotFound:
		return []string{}, nil
	default:
		return nil, resp.upstreamError(operation)
	}
}

// listWindow applies defaults to a copy of opts.
func (c *Client) listWindow(opts *ListOptions) (ListOptions, error) {
	var window ListOptions
	if opts != nil {
		window = *opts
	}
	if err := defaults.Set(&window); err != nil {
		return window, fmt.Errorf("failed to set default list options: %w", err)
	}
	if err := c.validate.Struct(&window); err != nil {
		return window, fmt.Errorf("invalid list options: %w", err)
	}
	return window, nil
}

// expectStatus maps a mutation response to nil on the expected status.
func expectStatus(resp *response, operation string, status int) error {
	if resp.statusCode != status {
		return resp.upstreamError(operation)
	}
	return nil
}

func extractNames(body []byte, collection string) ([]string, error) {
	var envelope map[string]json.RawMessage
	if err := decodeJSON(body, &envelope); err != nil {
		return nil, err
	}

	var entities []struct {
		Name string `json:"name"`
	}
	if raw, ok := envelope[collection]; ok {
		if err := json.Unmarshal(raw, &entities); err != nil {
			return nil, err
		}
	}

	names := make([]string, 0, len(entities))
	for _, entity := range entities {
		names = append(names, entity.Name)
	}
	return names, nil
}

func decodeJSON(body []byte, into any) error {
	if len(body) == 0 {
		return errors.New("empty response body")
	}
	return json.Unmarshal(body, into)
}

// decodeDocument decodes a JSON object. A JSON null is rejected so that a nil
// document always means the entity is absent.
func decodeDocument(body []byte) (map[string]any, error) {
	var document map[string]any
	if err := decodeJSON(body, &document); err != nil {
		return nil, err
	}
	if document == nil {
		return nil, errors.New("response body is not a JSON object")
	}
	return document, nil
}

func requireArgument(operation, name, value string) error {
	if strings.TrimSpace(value) == "" {
		return &MissingArgumentError{Operation: operation, Argument: name}
	}
	return nil
}

// Ping verifies connectivity and application credentials with a minimal search.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.ListGroups(ctx, &ListOptions{MaxResults: 1})
	return err
}
