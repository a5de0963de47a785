// Confluence Cloud REST client for versioned page reads and writes.
//
// Information Hiding:
// - REST paths, basic-auth encoding, and version arithmetic stay here
// - Optimistic-concurrency policy: a stale version is terminal, never
//   auto-retried
package confluence

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	scriberr "github.com/richinex/scribe/errors"
	"github.com/richinex/scribe/internal/httpx"
)

// DefaultSearchTTL bounds how long search pages are served from cache.
const DefaultSearchTTL = time.Minute

// Options configures a Client.
type Options struct {
	// BaseURL is the wiki root, e.g. https://team.atlassian.net/wiki.
	BaseURL       string
	Email         string
	APIToken      string
	CorrelationID string
	HTTPClient    *http.Client
	Policy        httpx.Policy
	SearchTTL     time.Duration
	Logger        *logrus.Logger
}

// Client talks to the Confluence content API through the retrying
// transport. Search responses are cached for SearchTTL; any write flushes
// the cache.
type Client struct {
	http          *httpx.Client
	baseURL       string
	authorization string
	correlationID string
	cache         *gocache.Cache
	log           *logrus.Logger
}

// NewClient builds a Client from options.
func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	ttl := opts.SearchTTL
	if ttl <= 0 {
		ttl = DefaultSearchTTL
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	authorization := ""
	if opts.Email != "" || opts.APIToken != "" {
		credentials := opts.Email + ":" + opts.APIToken
		authorization = "Basic " + base64.StdEncoding.EncodeToString([]byte(credentials))
	}
	return &Client{
		http:          httpx.New(opts.HTTPClient, opts.Policy),
		baseURL:       baseURL,
		authorization: authorization,
		correlationID: strings.TrimSpace(opts.CorrelationID),
		cache:         gocache.New(ttl, 2*ttl),
		log:           log,
	}
}

// Page is the editable state of one Confluence page. Version must be the
// number read from the server; updates submit Version+1 and the server
// rejects the write when the page moved on in between.
type Page struct {
	ID       string
	Title    string
	SpaceKey string
	Version  int
	Body     string
}

type pageEnvelope struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Space struct {
		Key string `json:"key"`
	} `json:"space"`
	Version struct {
		Number int `json:"number"`
	} `json:"version"`
	Body struct {
		Storage struct {
			Value string `json:"value"`
		} `json:"storage"`
	} `json:"body"`
}

func (e pageEnvelope) page() *Page {
	return &Page{
		ID:       e.ID,
		Title:    e.Title,
		SpaceKey: e.Space.Key,
		Version:  e.Version.Number,
		Body:     e.Body.Storage.Value,
	}
}

// GetPage reads a page with its current version and storage body.
func (c *Client) GetPage(ctx context.Context, pageID string) (*Page, error) {
	if strings.TrimSpace(pageID) == "" {
		return nil, &scriberr.ValidationError{Message: "page id is empty"}
	}
	resp, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/rest/api/content/%s?expand=version,body.storage", pageID), nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.classify(resp, pageID, 0)
	}
	var envelope pageEnvelope
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return nil, &scriberr.UpstreamError{Status: resp.StatusCode, Cause: fmt.Errorf("decoding page: %w", err)}
	}
	return envelope.page(), nil
}

// CreateRequest describes a page to create.
type CreateRequest struct {
	SpaceKey string
	Title    string
	Body     string
	// ParentID optionally places the page under an ancestor.
	ParentID string
}

type storagePayload struct {
	Value          string `json:"value"`
	Representation string `json:"representation"`
}

type contentBody struct {
	Storage storagePayload `json:"storage"`
}

type createPayload struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	Space struct {
		Key string `json:"key"`
	} `json:"space"`
	Ancestors []struct {
		ID string `json:"id"`
	} `json:"ancestors,omitempty"`
	Body contentBody `json:"body"`
}

// CreatePage creates a page in storage representation and returns it with
// its server-assigned id and initial version.
func (c *Client) CreatePage(ctx context.Context, req CreateRequest) (*Page, error) {
	if strings.TrimSpace(req.SpaceKey) == "" {
		return nil, &scriberr.ValidationError{Message: "space key is empty"}
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, &scriberr.ValidationError{Message: "page title is empty"}
	}
	payload := createPayload{Type: "page", Title: req.Title}
	payload.Space.Key = req.SpaceKey
	payload.Body = contentBody{Storage: storagePayload{Value: req.Body, Representation: "storage"}}
	if req.ParentID != "" {
		payload.Ancestors = []struct {
			ID string `json:"id"`
		}{{ID: req.ParentID}}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, http.MethodPost, "/rest/api/content", body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.classify(resp, "", 0)
	}
	var envelope pageEnvelope
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return nil, &scriberr.UpstreamError{Status: resp.StatusCode, Cause: fmt.Errorf("decoding created page: %w", err)}
	}
	c.cache.Flush()
	return envelope.page(), nil
}

type updatePayload struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Title   string `json:"title"`
	Version struct {
		Number int `json:"number"`
	} `json:"version"`
	Body contentBody `json:"body"`
}

// UpdatePage replaces a page's storage body, submitting the version the
// caller read plus one. A 409 means another writer got there first; the
// conflict is terminal and the caller must re-read before trying again.
func (c *Client) UpdatePage(ctx context.Context, page *Page, newBody string) (*Page, error) {
	if page == nil || strings.TrimSpace(page.ID) == "" {
		return nil, &scriberr.ValidationError{Message: "page to update has no id"}
	}
	next := page.Version + 1
	payload := updatePayload{ID: page.ID, Type: "page", Title: page.Title}
	payload.Version.Number = next
	payload.Body = contentBody{Storage: storagePayload{Value: newBody, Representation: "storage"}}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/rest/api/content/%s", page.ID), body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.classify(resp, page.ID, next)
	}
	var envelope pageEnvelope
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return nil, &scriberr.UpstreamError{Status: resp.StatusCode, Cause: fmt.Errorf("decoding updated page: %w", err)}
	}
	c.cache.Flush()
	updated := envelope.page()
	if updated.SpaceKey == "" {
		updated.SpaceKey = page.SpaceKey
	}
	return updated, nil
}

// do issues one request through the retrying transport with auth and
// content headers attached.
func (c *Client) do(ctx context.Context, method, path string, body []byte) (*httpx.Response, error) {
	if c.authorization == "" {
		return nil, &scriberr.PermissionError{Message: "confluence credentials are not configured"}
	}
	header := http.Header{}
	header.Set("Authorization", c.authorization)
	header.Set("Content-Type", "application/json")
	header.Set("Accept", "application/json")
	if c.correlationID != "" {
		header.Set("X-Correlation-Id", c.correlationID)
	}
	return c.http.Do(ctx, httpx.Request{
		Method: method,
		URL:    c.baseURL + path,
		Header: header,
		Body:   body,
	})
}

// classify maps a terminal Confluence response onto the error taxonomy.
// submitted is the version number sent with an update, zero elsewhere.
func (c *Client) classify(resp *httpx.Response, pageID string, submitted int) error {
	message := apiMessage(resp.Body)
	switch resp.StatusCode {
	case http.StatusBadRequest:
		return &scriberr.ValidationError{Message: "confluence rejected the request", Detail: message}
	case http.StatusUnauthorized:
		return &scriberr.PermissionError{Message: "confluence credentials are invalid"}
	case http.StatusForbidden:
		if message == "" {
			message = "account lacks permission on the target space"
		}
		return &scriberr.PermissionError{Message: message}
	case http.StatusNotFound:
		return &scriberr.ValidationError{Message: "page not found", Detail: message}
	case http.StatusConflict:
		return &scriberr.VersionConflictError{PageID: pageID, Submitted: submitted}
	default:
		var cause error
		if message != "" {
			cause = errors.New(message)
		}
		return &scriberr.UpstreamError{Status: resp.StatusCode, Cause: cause}
	}
}

// apiMessage extracts the message field from a Confluence error body,
// falling back to the trimmed raw body.
func apiMessage(body []byte) string {
	var parsed struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &parsed) == nil && strings.TrimSpace(parsed.Message) != "" {
		return parsed.Message
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 300 {
		text = text[:300]
	}
	return text
}
