package stac

import (
	"context"
	"fmt"

	"github.com/Canadian-Geospatial-Platform/stac-to-geocore/internal/logger"
)

// Page is one page of an item FeatureCollection.
type Page struct {
	URL      string
	Features []Entity
	// Returned is the number of features the page reports.
	Returned int
	// Matched is the reported total, or -1 when the API does not report one.
	Matched int
	Next    string
}

func newPage(pageURL string, body Entity) *Page {
	p := &Page{URL: pageURL, Matched: -1, Next: Next(body.Links())}

	for _, raw := range body.Slice("features") {
		if m, ok := asMap(raw); ok {
			p.Features = append(p.Features, m)
		}
	}

	p.Returned = len(p.Features)
	if n, ok := body.Int("context", "returned"); ok {
		p.Returned = n
	} else if n, ok = body.Int("numberReturned"); ok {
		p.Returned = n
	}

	if n, ok := body.Int("context", "matched"); ok {
		p.Matched = n
	} else if n, ok = body.Int("numberMatched"); ok {
		p.Matched = n
	}

	return p
}

// PageFetcher fetches a single page.
type PageFetcher interface {
	FetchPage(ctx context.Context, pageURL string) (*Page, error)
}

// Paginator walks a cursor-paginated item endpoint.
//
// A "next" link alone is not trusted: some APIs emit one on the final page.
// The walk continues only while the running returned count is below the
// matched total, the page held results, and the next URL is new.
// It logs through the logger attached to the walk's context.
type Paginator struct {
	fetcher PageFetcher
}

// NewPaginator creates a Paginator.
func NewPaginator(fetcher PageFetcher) *Paginator {
	return &Paginator{fetcher: fetcher}
}

// Walk calls fn with every page that holds at least one feature, in order.
// A failed request ends the walk with an error; pages already passed to fn
// stay processed.
func (p *Paginator) Walk(ctx context.Context, startURL string, fn func(*Page) error) error {
	log := logger.FromContext(ctx)
	returned := 0
	visited := make(map[string]bool)

	for next := startURL; next != ""; {
		if visited[next] {
			log.Debug("Pagination stopped on repeated next link", logger.String("url", next))
			return nil
		}
		visited[next] = true

		page, err := p.fetcher.FetchPage(ctx, next)
		if err != nil {
			return fmt.Errorf("paginate %s: %w", next, err)
		}

		if len(page.Features) == 0 {
			return nil
		}

		if fnErr := fn(page); fnErr != nil {
			return fnErr
		}

		returned += page.Returned
		if page.Matched >= 0 && returned >= page.Matched {
			if page.Next != "" {
				log.Debug("Ignoring next link past the matched total",
					logger.String("url", page.Next),
					logger.Int("returned", returned),
					logger.Int("matched", page.Matched),
				)
			}
			return nil
		}

		next = page.Next
	}

	return nil
}

// Pages returns the URLs of the pages that hold at least one feature. When
// a request fails, the pages collected so far are returned with the error.
func (p *Paginator) Pages(ctx context.Context, startURL string) ([]string, error) {
	var pages []string
	err := p.Walk(ctx, startURL, func(page *Page) error {
		pages = append(pages, page.URL)
		return nil
	})
	return pages, err
}
