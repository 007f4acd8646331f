package stac

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Canadian-Geospatial-Platform/stac-to-geocore/internal/httpclient"
)

var errEmptyDocument = errors.New("empty document")

// Client calls a STAC API. It issues one request at a time and never retries.
type Client struct {
	apiRoot    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a client for the API rooted at apiRoot.
func NewClient(apiRoot string, opts ...Option) *Client {
	c := &Client{
		apiRoot:    strings.TrimRight(apiRoot, "/"),
		httpClient: httpclient.New(httpclient.Config{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIRoot returns the normalized API root URL.
func (c *Client) APIRoot() string {
	return c.apiRoot
}

// Root fetches the root catalog.
func (c *Client) Root(ctx context.Context) (Entity, error) {
	root, err := c.get(ctx, c.apiRoot)
	if err != nil {
		return nil, fmt.Errorf("stac root: %w", err)
	}
	return root, nil
}

// Collections fetches every collection, following "next" links on the
// collections listing. A "next" URL already visited ends the walk.
func (c *Client) Collections(ctx context.Context) ([]Entity, error) {
	var (
		collections []Entity
		visited     = make(map[string]bool)
	)

	for next := c.apiRoot + "/collections"; next != "" && !visited[next]; {
		visited[next] = true

		page, err := c.get(ctx, next)
		if err != nil {
			return nil, fmt.Errorf("stac collections: %w", err)
		}

		for _, raw := range page.Slice("collections") {
			if m, ok := asMap(raw); ok {
				collections = append(collections, m)
			}
		}

		if len(page.Slice("collections")) == 0 {
			break
		}
		next = Next(page.Links())
	}

	return collections, nil
}

// SearchURL returns the item search endpoint.
func (c *Client) SearchURL() string {
	return c.apiRoot + "/search"
}

// ItemsURL returns the items endpoint of a collection, preferring its
// "items" link.
func (c *Client) ItemsURL(collection Entity) string {
	for _, l := range collection.Links() {
		if l.Rel == "items" && l.Href != "" {
			return l.Href
		}
	}
	return c.apiRoot + "/collections/" + url.PathEscape(collection.String("id")) + "/items"
}

// FetchPage fetches one page of an item FeatureCollection.
func (c *Client) FetchPage(ctx context.Context, pageURL string) (*Page, error) {
	body, err := c.get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return newPage(pageURL, body), nil
}

func (c *Client) get(ctx context.Context, target string) (Entity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, networkError(err, target)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, classifyStatus(resp.StatusCode, target)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, networkError(err, target)
	}

	entity, err := Decode(data)
	if err != nil {
		return nil, parseError(err, target)
	}
	if entity == nil {
		return nil, parseError(errEmptyDocument, target)
	}

	return entity, nil
}
