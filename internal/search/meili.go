package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"
)

const idxContent = "folio_content"

// Meili implements Searcher against a single combined content index.
type Meili struct {
	client  meili.ServiceManager
	healthy atomic.Bool
	done    chan struct{}
}

// NewMeili creates a Meilisearch client and configures the content
// index. The returned client keeps checking health in the background so
// the facade can fall back while Meilisearch is away.
func NewMeili(url, apiKey string) *Meili {
	client := meili.New(url, meili.WithAPIKey(apiKey))

	m := &Meili{
		client: client,
		done:   make(chan struct{}),
	}

	if _, err := client.Health(); err != nil {
		log.Printf("search: meilisearch unavailable at %s: %v", url, err)
		m.healthy.Store(false)
	} else {
		m.healthy.Store(true)
		m.configureIndex()
	}

	go m.healthLoop()
	return m
}

func (m *Meili) configureIndex() {
	if _, err := m.client.CreateIndex(&meili.IndexConfig{
		Uid:        idxContent,
		PrimaryKey: "id",
	}); err != nil {
		log.Printf("search: create index %s (may already exist): %v", idxContent, err)
	}

	index := m.client.Index(idxContent)
	filterable := []interface{}{"type", "status"}
	if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
		log.Printf("search: update filterable attrs: %v", err)
	}
	searchable := []string{"title", "slug", "description", "keywords"}
	if _, err := index.UpdateSearchableAttributes(&searchable); err != nil {
		log.Printf("search: update searchable attrs: %v", err)
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !wasHealthy {
				log.Println("search: meilisearch recovered, reconfiguring index")
				m.configureIndex()
			}
		}
	}
}

// Close stops the background health monitor.
func (m *Meili) Close() {
	close(m.done)
}

// Healthy reports whether Meilisearch is reachable.
func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

// Search queries the content index, restricted to published records.
func (m *Meili) Search(_ context.Context, q Query) ([]Result, int, error) {
	if !m.healthy.Load() {
		return nil, 0, fmt.Errorf("meilisearch unhealthy")
	}

	limit := int64(q.Limit)
	if limit <= 0 {
		limit = 20
	}

	filters := []string{`status = "published"`}
	if q.FilterType != "" {
		filters = append(filters, fmt.Sprintf("type = %q", q.FilterType))
	}

	resp, err := m.client.Index(idxContent).Search(q.Text, &meili.SearchRequest{
		Limit:  limit,
		Offset: int64(q.Offset),
		Filter: filters,
	})
	if err != nil {
		m.healthy.Store(false)
		return nil, 0, fmt.Errorf("meilisearch search: %w", err)
	}

	results := make([]Result, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		results = append(results, hitToResult(hit))
	}
	return results, int(resp.EstimatedTotalHits), nil
}

func hitToResult(hit meili.Hit) Result {
	rtyp := ResultType(decodeString(hit, "type"))
	r := Result{
		Type:    rtyp,
		ID:      decodeString(hit, "id"),
		Title:   decodeString(hit, "title"),
		Slug:    decodeString(hit, "slug"),
		Snippet: decodeString(hit, "description"),
	}
	r.Href = hrefFor(rtyp, r.Slug)
	return r
}

func hrefFor(rtyp ResultType, slug string) string {
	switch rtyp {
	case ResultProject:
		return "/projects/" + slug
	case ResultBlogPost:
		return "/blog/" + slug
	default:
		return "/" + strings.TrimPrefix(slug, "/")
	}
}

func decodeString(hit meili.Hit, key string) string {
	raw, ok := hit[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

// IndexRecords bulk-indexes content records.
func (m *Meili) IndexRecords(records []Record) error {
	if len(records) == 0 {
		return nil
	}
	_, err := m.client.Index(idxContent).AddDocuments(records, nil)
	return err
}

// IndexRecord adds or updates one record in the index.
func (m *Meili) IndexRecord(record Record) error {
	_, err := m.client.Index(idxContent).AddDocuments([]Record{record}, nil)
	return err
}

// DeleteRecord removes a record from the index.
func (m *Meili) DeleteRecord(id string) error {
	_, err := m.client.Index(idxContent).DeleteDocument(id, nil)
	return err
}
