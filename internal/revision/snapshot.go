package revision

import (
	"encoding/json"
	"fmt"

	"folio/api/internal/store"
)

// Snapshot is the full state of a content record at save time, tagged by
// content type so revision payloads stay typed end to end. Exactly one
// payload field is set.
type Snapshot struct {
	Type     store.ContentType
	Project  *store.Project
	BlogPost *store.BlogPost
	Page     *store.Page
}

func SnapshotProject(item store.Project) Snapshot {
	return Snapshot{Type: store.ContentProject, Project: &item}
}

func SnapshotBlogPost(item store.BlogPost) Snapshot {
	return Snapshot{Type: store.ContentBlogPost, BlogPost: &item}
}

func SnapshotPage(item store.Page) Snapshot {
	return Snapshot{Type: store.ContentPage, Page: &item}
}

// ContentID returns the id of the snapshotted record.
func (s Snapshot) ContentID() string {
	switch s.Type {
	case store.ContentProject:
		return s.Project.ID
	case store.ContentBlogPost:
		return s.BlogPost.ID
	case store.ContentPage:
		return s.Page.ID
	}
	return ""
}

// Slug returns the snapshotted record's slug.
func (s Snapshot) Slug() string {
	switch s.Type {
	case store.ContentProject:
		return s.Project.Slug
	case store.ContentBlogPost:
		return s.BlogPost.Slug
	case store.ContentPage:
		return s.Page.Slug
	}
	return ""
}

// Encode serializes the payload. The type tag is carried by the revision
// row, not the payload itself.
func (s Snapshot) Encode() (json.RawMessage, error) {
	var payload any
	switch s.Type {
	case store.ContentProject:
		payload = s.Project
	case store.ContentBlogPost:
		payload = s.BlogPost
	case store.ContentPage:
		payload = s.Page
	default:
		return nil, fmt.Errorf("unknown content type %q", s.Type)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s snapshot: %w", s.Type, err)
	}
	return data, nil
}

// Decode parses a stored payload back into a typed snapshot.
func Decode(contentType store.ContentType, data json.RawMessage) (Snapshot, error) {
	switch contentType {
	case store.ContentProject:
		var item store.Project
		if err := json.Unmarshal(data, &item); err != nil {
			return Snapshot{}, fmt.Errorf("decode project snapshot: %w", err)
		}
		return SnapshotProject(item), nil
	case store.ContentBlogPost:
		var item store.BlogPost
		if err := json.Unmarshal(data, &item); err != nil {
			return Snapshot{}, fmt.Errorf("decode blog post snapshot: %w", err)
		}
		return SnapshotBlogPost(item), nil
	case store.ContentPage:
		var item store.Page
		if err := json.Unmarshal(data, &item); err != nil {
			return Snapshot{}, fmt.Errorf("decode page snapshot: %w", err)
		}
		return SnapshotPage(item), nil
	}
	return Snapshot{}, fmt.Errorf("unknown content type %q", contentType)
}
