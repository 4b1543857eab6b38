package search

import (
	"context"
	"log"

	"folio/api/internal/store"
)

// Service tries Meilisearch first and falls back to local fuzzy
// ranking. meili may be nil when not configured.
type Service struct {
	meili *Meili
	local *Local
}

func NewService(meili *Meili, local *Local) *Service {
	return &Service{meili: meili, local: local}
}

// Search runs the query against whichever backend is available.
func (s *Service) Search(ctx context.Context, q Query) Response {
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(ctx, q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		log.Printf("search: meilisearch error, falling back to local: %v", err)
	}

	results, total, err := s.local.Search(ctx, q)
	if err != nil {
		log.Printf("search: local error: %v", err)
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

// IndexContent pushes one record to Meilisearch, fire and forget.
func (s *Service) IndexContent(record Record) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexRecord(record); err != nil {
			log.Printf("search: index %s %s: %v", record.Type, record.ID, err)
		}
	}()
}

// ReindexAll loads all content and pushes it to Meilisearch. Called at
// boot when Meilisearch is configured and healthy.
func (s *Service) ReindexAll(ctx context.Context) {
	if s.meili == nil || !s.meili.Healthy() || s.local == nil {
		return
	}

	var records []Record

	projects, err := s.local.data.ListProjects(ctx)
	if err != nil {
		log.Printf("search: reindex load projects: %v", err)
		return
	}
	for _, p := range projects {
		records = append(records, Record{
			ID: p.ID, Type: string(ResultProject), Title: p.Title, Slug: p.Slug,
			Description: p.Description, Keywords: p.Tags, Status: p.Status,
		})
	}

	posts, err := s.local.data.ListBlogPosts(ctx)
	if err != nil {
		log.Printf("search: reindex load blog posts: %v", err)
		return
	}
	for _, p := range posts {
		records = append(records, Record{
			ID: p.ID, Type: string(ResultBlogPost), Title: p.Title, Slug: p.Slug,
			Description: p.Excerpt, Keywords: p.Tags, Status: p.Status,
		})
	}

	pages, err := s.local.data.ListPages(ctx)
	if err != nil {
		log.Printf("search: reindex load pages: %v", err)
		return
	}
	for _, p := range pages {
		records = append(records, Record{
			ID: p.ID, Type: string(ResultPage), Title: p.Title, Slug: p.Slug, Status: p.Status,
		})
	}

	if err := s.meili.IndexRecords(records); err != nil {
		log.Printf("search: reindex: %v", err)
	}
}

// RecordFor builds the index record for a content snapshot type.
func RecordFor(contentType store.ContentType, id, title, slug, description string, keywords []string, status string) Record {
	return Record{
		ID:          id,
		Type:        string(contentType),
		Title:       title,
		Slug:        slug,
		Description: description,
		Keywords:    keywords,
		Status:      status,
	}
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
