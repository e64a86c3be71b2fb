package fetcher

import (
	"context"
	"net/url"

	"golang.org/x/net/html"
)

// Document is a fetched and parsed HTML page.
type Document struct {
	// URL is the final request URL including merged query parameters.
	URL string

	// Root is the root node of the parsed HTML tree.
	Root *html.Node
}

// Fetcher defines the interface for retrieving retailer pages. All rate
// limiting, retries, and politeness delays live behind this interface so
// callers can issue requests without coordinating with each other.
type Fetcher interface {
	// Fetch retrieves rawURL with the given query parameters merged in and
	// returns the parsed document. Safe for concurrent use: concurrent
	// callers share one request budget.
	Fetch(ctx context.Context, rawURL string, params url.Values) (*Document, error)
}
