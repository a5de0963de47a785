// Notion API client for appending block children.
//
// Information Hiding:
// - Endpoint paths, headers, and status classification stay here
// - Retry policy is delegated to the shared httpx client
package notion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	scriberr "github.com/richinex/scribe/errors"
	"github.com/richinex/scribe/internal/httpx"
)

// MaxBlocksPerRequest is Notion's per-call cap on appended children.
const MaxBlocksPerRequest = 100

// Options configures a Client. Zero values fall back to platform
// defaults.
type Options struct {
	Token         string
	BaseURL       string
	APIVersion    string
	CorrelationID string
	HTTPClient    *http.Client
	Policy        httpx.Policy
}

// Client talks to the Notion block API through the retrying transport.
type Client struct {
	http          *httpx.Client
	baseURL       string
	token         string
	apiVersion    string
	correlationID string
}

// NewClient builds a Client from options.
func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.notion.com"
	}
	apiVersion := strings.TrimSpace(opts.APIVersion)
	if apiVersion == "" {
		apiVersion = "2022-06-28"
	}
	return &Client{
		http:          httpx.New(opts.HTTPClient, opts.Policy),
		baseURL:       baseURL,
		token:         strings.TrimSpace(opts.Token),
		apiVersion:    apiVersion,
		correlationID: strings.TrimSpace(opts.CorrelationID),
	}
}

type appendRequest struct {
	Children []Block `json:"children"`
}

type appendResponse struct {
	Results []struct {
		ID string `json:"id"`
	} `json:"results"`
}

// AppendChildren appends up to MaxBlocksPerRequest blocks under the given
// block or page id and returns the server-assigned id of each appended
// block, in request order. Those ids are the only way to address a just
// appended block, so callers delivering nested children must hold on to
// them.
//
// Rate limiting and transient upstream failures are retried by the
// transport; everything that reaches a non-2xx here is terminal and
// comes back classified.
func (c *Client) AppendChildren(ctx context.Context, blockID string, blocks []Block) ([]string, error) {
	if c.token == "" {
		return nil, &scriberr.PermissionError{Message: "notion token is empty"}
	}
	if strings.TrimSpace(blockID) == "" {
		return nil, &scriberr.ValidationError{Message: "target block id is empty"}
	}
	if len(blocks) == 0 {
		return nil, &scriberr.ValidationError{Message: "no blocks to append"}
	}
	if len(blocks) > MaxBlocksPerRequest {
		return nil, &scriberr.ValidationError{
			Message: fmt.Sprintf("cannot append %d blocks in one request, the cap is %d", len(blocks), MaxBlocksPerRequest),
		}
	}

	body, err := json.Marshal(appendRequest{Children: blocks})
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.token)
	header.Set("Content-Type", "application/json")
	header.Set("Notion-Version", c.apiVersion)
	if c.correlationID != "" {
		header.Set("X-Correlation-Id", c.correlationID)
	}

	resp, err := c.http.Do(ctx, httpx.Request{
		Method: http.MethodPatch,
		URL:    fmt.Sprintf("%s/v1/blocks/%s/children", c.baseURL, blockID),
		Header: header,
		Body:   body,
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, classify(resp)
	}

	var parsed appendResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return nil, &scriberr.UpstreamError{Status: resp.StatusCode, Cause: fmt.Errorf("decoding append response: %w", err)}
	}
	if len(parsed.Results) < len(blocks) {
		return nil, &scriberr.UpstreamError{
			Status: resp.StatusCode,
			Cause:  fmt.Errorf("append response returned %d ids for %d blocks", len(parsed.Results), len(blocks)),
		}
	}
	ids := make([]string, len(blocks))
	for i := range blocks {
		ids[i] = parsed.Results[i].ID
	}
	return ids, nil
}

// classify maps a terminal Notion response onto the error taxonomy. The
// transport has already consumed retryable statuses, so only hard
// failures arrive here.
func classify(resp *httpx.Response) error {
	message := apiMessage(resp.Body)
	switch resp.StatusCode {
	case http.StatusBadRequest:
		return &scriberr.ValidationError{Message: "notion rejected the block payload", Detail: message}
	case http.StatusUnauthorized:
		return &scriberr.PermissionError{Message: "notion token is invalid or expired"}
	case http.StatusForbidden:
		if message == "" {
			message = "integration lacks insert-content capability on the target page"
		}
		return &scriberr.PermissionError{Message: message}
	case http.StatusNotFound:
		return &scriberr.PermissionError{Message: "target page not found or not shared with the integration"}
	default:
		var cause error
		if message != "" {
			cause = errors.New(message)
		}
		return &scriberr.UpstreamError{Status: resp.StatusCode, Cause: cause}
	}
}

// apiMessage extracts the human-readable message from a Notion error
// body, falling back to the raw body.
func apiMessage(body []byte) string {
	var parsed struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &parsed) == nil && strings.TrimSpace(parsed.Message) != "" {
		if parsed.Code != "" {
			return fmt.Sprintf("%s: %s", parsed.Code, parsed.Message)
		}
		return parsed.Message
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 300 {
		text = text[:300]
	}
	return text
}
