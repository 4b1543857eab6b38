package store

import (
	"encoding/json"
	"time"
)

// ContentType identifies which content table owns a record.
type ContentType string

const (
	ContentProject  ContentType = "project"
	ContentBlogPost ContentType = "blog_post"
	ContentPage     ContentType = "page"
)

// ValidContentType reports whether raw names a known content type.
func ValidContentType(raw string) bool {
	switch ContentType(raw) {
	case ContentProject, ContentBlogPost, ContentPage:
		return true
	}
	return false
}

// TableFor maps a content type to its table name.
func TableFor(contentType ContentType) string {
	switch contentType {
	case ContentProject:
		return "projects"
	case ContentBlogPost:
		return "blog_posts"
	case ContentPage:
		return "pages"
	}
	return ""
}

type User struct {
	ID           string
	DisplayName  string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Project struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Body        string    `json:"body"`
	Status      string    `json:"status"`
	Tags        []string  `json:"tags"`
	RepoURL     string    `json:"repoUrl"`
	DemoURL     string    `json:"demoUrl"`
	SortOrder   int       `json:"sortOrder"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type BlogPost struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Excerpt     string     `json:"excerpt"`
	Body        string     `json:"body"`
	Status      string     `json:"status"`
	Tags        []string   `json:"tags"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type Page struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Body      string    `json:"body"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Revision is an immutable snapshot of a content record taken just
// before the record was overwritten. RevisionNumber is scoped to
// (ContentType, ContentID) and strictly increasing from 1.
type Revision struct {
	ID             string
	ContentType    ContentType
	ContentID      string
	RevisionNumber int
	Data           json.RawMessage
	CreatedBy      string
	CreatedAt      time.Time
}

// Redirect maps an old public path to its replacement after a slug change.
type Redirect struct {
	ID        string
	FromPath  string
	ToPath    string
	CreatedAt time.Time
}

type ContactMessage struct {
	ID        string
	Name      string
	Email     string
	Subject   string
	Body      string
	CreatedAt time.Time
}
