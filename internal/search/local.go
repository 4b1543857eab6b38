package search

import (
	"context"
	"fmt"
	"strings"

	"folio/api/internal/palette"
	"folio/api/internal/store"
)

// contentLister is the slice of the persistence layer the local
// searcher reads from.
type contentLister interface {
	ListProjects(context.Context) ([]store.Project, error)
	ListBlogPosts(context.Context) ([]store.BlogPost, error)
	ListPages(context.Context) ([]store.Page, error)
}

// Local ranks published content in memory with the palette fuzzy
// matcher. It is the always-available fallback: if Postgres is down,
// the whole app is down anyway.
type Local struct {
	data contentLister
}

func NewLocal(data contentLister) *Local {
	return &Local{data: data}
}

func (l *Local) Healthy() bool {
	return true
}

func (l *Local) Search(ctx context.Context, q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	items, byKey, err := l.loadItems(ctx, q.FilterType)
	if err != nil {
		return nil, 0, err
	}

	ranked := palette.SearchItems(q.Text, items)

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	total := len(ranked)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}

	results := make([]Result, 0, end-offset)
	for _, item := range ranked[offset:end] {
		results = append(results, byKey[item.ID])
	}
	return results, total, nil
}

// loadItems flattens published content into palette items, keyed so
// ranked hits can be mapped back to full results.
func (l *Local) loadItems(ctx context.Context, filter ResultType) ([]palette.Item, map[string]Result, error) {
	var items []palette.Item
	byKey := make(map[string]Result)

	add := func(result Result, description string, keywords []string) {
		key := string(result.Type) + ":" + result.ID
		byKey[key] = result
		items = append(items, palette.Item{
			ID:          key,
			Title:       result.Title,
			Slug:        result.Slug,
			Description: description,
			Keywords:    keywords,
		})
	}

	if filter == "" || filter == ResultProject {
		projects, err := l.data.ListProjects(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("load projects: %w", err)
		}
		for _, p := range projects {
			if p.Status != "published" {
				continue
			}
			add(Result{
				Type:    ResultProject,
				ID:      p.ID,
				Title:   p.Title,
				Slug:    p.Slug,
				Snippet: p.Description,
				Href:    "/projects/" + p.Slug,
			}, p.Description, p.Tags)
		}
	}

	if filter == "" || filter == ResultBlogPost {
		posts, err := l.data.ListBlogPosts(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("load blog posts: %w", err)
		}
		for _, p := range posts {
			if p.Status != "published" {
				continue
			}
			add(Result{
				Type:    ResultBlogPost,
				ID:      p.ID,
				Title:   p.Title,
				Slug:    p.Slug,
				Snippet: p.Excerpt,
				Href:    "/blog/" + p.Slug,
			}, p.Excerpt, p.Tags)
		}
	}

	if filter == "" || filter == ResultPage {
		pages, err := l.data.ListPages(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("load pages: %w", err)
		}
		for _, p := range pages {
			if p.Status != "published" {
				continue
			}
			add(Result{
				Type:  ResultPage,
				ID:    p.ID,
				Title: p.Title,
				Slug:  p.Slug,
				Href:  "/" + p.Slug,
			}, "", nil)
		}
	}

	return items, byKey, nil
}
