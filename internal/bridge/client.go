package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/greyhollow/huekeep/internal/infrastructure/httpkit"
	"github.com/greyhollow/huekeep/internal/infrastructure/logging"
)

// maxResponseBytes bounds how much of a response body is read. A full
// bridge dump for a large home is well under a megabyte.
const maxResponseBytes = 8 << 20

// Config contains bridge connection settings.
type Config struct {
	// Address is the bridge hostname or IP, without scheme.
	Address string

	// APIKey is the whitelisted application key.
	APIKey string

	// Timeout is the overall per-request timeout.
	Timeout time.Duration

	// RetryCount and RetryDelay configure retry on transient connection
	// errors. Zero count disables retry.
	RetryCount int
	RetryDelay time.Duration
}

// Client is a bridge REST API client rooted at one bridge and API key.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *logging.Logger
}

// New creates a bridge client from the given configuration.
func New(cfg Config, log *logging.Logger) *Client {
	return &Client{
		baseURL: "http://" + cfg.Address + "/api/" + cfg.APIKey,
		apiKey:  cfg.APIKey,
		httpClient: httpkit.NewClient(
			httpkit.WithTimeout(cfg.Timeout),
			httpkit.WithRetry(cfg.RetryCount, cfg.RetryDelay),
			httpkit.WithLogger(log.Logger),
		),
		log: log.With("component", "bridge"),
	}
}

// APIKey returns the application key the client authenticates with.
// Restored schedule commands embed it in their addresses.
func (c *Client) APIKey() string {
	return c.apiKey
}

// result is one item of the bridge's mutating-call response array. The
// success value is left raw: the bridge reports some successes as an
// object keyed by the changed attribute and others (deletions) as a bare
// string.
type result struct {
	Success json.RawMessage `json:"success"`
	Error   *Error          `json:"error"`
}

// successFields decodes the success value as an object. Bare-string
// successes carry no fields.
func (r result) successFields() map[string]any {
	var fields map[string]any
	if err := json.Unmarshal(r.Success, &fields); err != nil {
		return nil
	}
	return fields
}

// Get reads the resource at path and decodes it into out. An empty path
// reads the bridge's full state.
//
// The bridge reports read failures (bad key, unknown resource) as an
// error-array body inside a 200 response; those surface as *Error.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}

	// An array body on a read is the error protocol, not resource data.
	if len(body) > 0 && body[0] == '[' {
		if _, err := parseResults(body); err != nil {
			return fmt.Errorf("GET %s: %w", path, err)
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("GET %s: %w: %v", path, ErrUnexpectedResponse, err)
	}
	return nil
}

// Post creates a resource under path and returns the bridge-assigned
// identifier of the new resource.
func (c *Client) Post(ctx context.Context, path string, payload any) (string, error) {
	body, err := c.do(ctx, http.MethodPost, path, payload)
	if err != nil {
		return "", err
	}

	results, err := parseResults(body)
	if err != nil {
		return "", fmt.Errorf("POST %s: %w", path, err)
	}

	for _, r := range results {
		fields := r.successFields()
		if id, ok := fields["id"].(string); ok {
			return id, nil
		}
		// Some collections report the created resource path instead.
		if addr, ok := fields["address"].(string); ok {
			return addr, nil
		}
	}
	return "", fmt.Errorf("POST %s: %w: success without id", path, ErrUnexpectedResponse)
}

// Put updates the resource at path.
func (c *Client) Put(ctx context.Context, path string, payload any) error {
	body, err := c.do(ctx, http.MethodPut, path, payload)
	if err != nil {
		return err
	}
	if _, err := parseResults(body); err != nil {
		return fmt.Errorf("PUT %s: %w", path, err)
	}
	return nil
}

// Delete removes the resource at path.
func (c *Client) Delete(ctx context.Context, path string) error {
	body, err := c.do(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	if _, err := parseResults(body); err != nil {
		return fmt.Errorf("DELETE %s: %w", path, err)
	}
	return nil
}

// do issues one request and returns the raw response body. The resource
// path is logged; the full URL is not, since it embeds the API key.
func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	url := c.baseURL
	if path != "" {
		url += "/" + path
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%s %s: encoding body: %w", method, path, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log.Debug("bridge request", "method", method, "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer httpkit.DrainAndClose(resp.Body, maxResponseBytes)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%s %s: reading response: %w", method, path, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s %s: %w: %d", method, path, ErrUnexpectedStatus, resp.StatusCode)
	}
	return body, nil
}

// parseResults decodes a mutating-call response array. The first error
// item wins; the bridge never mixes an error item with meaningful
// successes for a single-resource call.
func parseResults(body []byte) ([]result, error) {
	var results []result
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: empty result array", ErrUnexpectedResponse)
	}
	for _, r := range results {
		if r.Error != nil {
			return nil, r.Error
		}
	}
	return results, nil
}
