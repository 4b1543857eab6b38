// Package search exposes site-wide content search: Meilisearch when
// configured and healthy, an in-memory fuzzy ranking otherwise.
package search

import "context"

// ResultType identifies the kind of content in a search result.
type ResultType string

const (
	ResultProject  ResultType = "project"
	ResultBlogPost ResultType = "blog_post"
	ResultPage     ResultType = "page"
)

// Result is a single search hit returned to the caller.
type Result struct {
	Type    ResultType `json:"type"`
	ID      string     `json:"id"`
	Title   string     `json:"title"`
	Slug    string     `json:"slug"`
	Snippet string     `json:"snippet,omitempty"`
	Href    string     `json:"href"`
}

// Query describes a search request.
type Query struct {
	Text       string
	FilterType ResultType // empty = all types
	Limit      int
	Offset     int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Record is the data pushed into the search index for any content type.
type Record struct {
	ID          string   `json:"id"`
	Type        string   `json:"type"`
	Title       string   `json:"title"`
	Slug        string   `json:"slug"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
	Status      string   `json:"status"`
}

// Searcher can execute a content search.
type Searcher interface {
	Search(ctx context.Context, q Query) ([]Result, int, error)
	Healthy() bool
}
