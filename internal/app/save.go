package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"folio/api/internal/editor"
	"folio/api/internal/revision"
	"folio/api/internal/search"
	"folio/api/internal/store"
	"folio/api/internal/util"
)

// SaveResult reports what a completed save did. Session is the advanced
// editing session the client must carry into its next save.
type SaveResult struct {
	Session        editor.Session `json:"session"`
	RevisionNumber int            `json:"revisionNumber,omitempty"`
	RedirectedFrom string         `json:"redirectedFrom,omitempty"`
	Warning        string         `json:"warning,omitempty"`
}

// basePathFor gives the public URL prefix for a content type. Pages live
// at the site root, so path construction is uniform across types.
func basePathFor(contentType store.ContentType) string {
	switch contentType {
	case store.ContentProject:
		return "/projects"
	case store.ContentBlogPost:
		return "/blog"
	}
	return ""
}

func validateDraft(draft revision.Snapshot) error {
	var title, body, status string
	switch draft.Type {
	case store.ContentProject:
		title, body, status = draft.Project.Title, draft.Project.Body, draft.Project.Status
	case store.ContentBlogPost:
		title, body, status = draft.BlogPost.Title, draft.BlogPost.Body, draft.BlogPost.Status
	case store.ContentPage:
		title, body, status = draft.Page.Title, draft.Page.Body, draft.Page.Status
	default:
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Unknown content type", nil)
	}
	if strings.TrimSpace(title) == "" || strings.TrimSpace(body) == "" {
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Title and body are required", nil)
	}
	// Pages cannot be archived; they are either live or still a draft.
	if draft.Type == store.ContentPage {
		if status != "draft" && status != "published" {
			return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Status must be draft or published", nil)
		}
		return nil
	}
	if status != "draft" && status != "published" && status != "archived" {
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Status must be draft, published or archived", nil)
	}
	return nil
}

func (s *Service) fetchSnapshot(ctx context.Context, contentType store.ContentType, id string) (revision.Snapshot, error) {
	switch contentType {
	case store.ContentProject:
		item, err := s.store.GetProject(ctx, id)
		if err != nil {
			return revision.Snapshot{}, err
		}
		return revision.SnapshotProject(item), nil
	case store.ContentBlogPost:
		item, err := s.store.GetBlogPost(ctx, id)
		if err != nil {
			return revision.Snapshot{}, err
		}
		return revision.SnapshotBlogPost(item), nil
	case store.ContentPage:
		item, err := s.store.GetPage(ctx, id)
		if err != nil {
			return revision.Snapshot{}, err
		}
		return revision.SnapshotPage(item), nil
	}
	return revision.Snapshot{}, fmt.Errorf("unknown content type %q", contentType)
}

func (s *Service) writeSnapshot(ctx context.Context, snap revision.Snapshot) error {
	switch snap.Type {
	case store.ContentProject:
		return s.store.UpdateProject(ctx, *snap.Project)
	case store.ContentBlogPost:
		return s.store.UpdateBlogPost(ctx, *snap.BlogPost)
	case store.ContentPage:
		return s.store.UpdatePage(ctx, *snap.Page)
	}
	return fmt.Errorf("unknown content type %q", snap.Type)
}

func (s *Service) insertSnapshot(ctx context.Context, snap revision.Snapshot) error {
	switch snap.Type {
	case store.ContentProject:
		return s.store.InsertProject(ctx, *snap.Project)
	case store.ContentBlogPost:
		return s.store.InsertBlogPost(ctx, *snap.BlogPost)
	case store.ContentPage:
		return s.store.InsertPage(ctx, *snap.Page)
	}
	return fmt.Errorf("unknown content type %q", snap.Type)
}

func searchRecordFor(snap revision.Snapshot) search.Record {
	switch snap.Type {
	case store.ContentProject:
		p := snap.Project
		return search.RecordFor(snap.Type, p.ID, p.Title, p.Slug, p.Description, p.Tags, p.Status)
	case store.ContentBlogPost:
		p := snap.BlogPost
		return search.RecordFor(snap.Type, p.ID, p.Title, p.Slug, p.Excerpt, p.Tags, p.Status)
	case store.ContentPage:
		p := snap.Page
		return search.RecordFor(snap.Type, p.ID, p.Title, p.Slug, "", nil, p.Status)
	}
	return search.Record{}
}

// SaveContent overwrites an existing content record. Before the write it
// snapshots the currently persisted state as a new revision and, when the
// slug changed since the session last saved, records a redirect from the
// old public path. Revision and redirect bookkeeping are best-effort; only
// the final write is allowed to fail the save.
func (s *Service) SaveContent(ctx context.Context, actor Session, draft revision.Snapshot, sess editor.Session) (SaveResult, error) {
	if err := validateDraft(draft); err != nil {
		return SaveResult{}, err
	}
	if !sess.CanSave() {
		return SaveResult{}, domainError(http.StatusConflict, "NOT_SAVABLE", "Record is not loaded or has never been persisted", nil)
	}

	var warning string

	persisted, err := s.fetchSnapshot(ctx, draft.Type, draft.ContentID())
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return SaveResult{}, domainError(http.StatusNotFound, "NOT_FOUND", "Content record not found", nil)
	case err != nil:
		// Could not read the prior state; save anyway but skip the
		// snapshot rather than revisioning the draft itself.
		log.Printf("save: fetch persisted %s/%s: %v", draft.Type, draft.ContentID(), err)
		warning = "prior state could not be read; no revision was recorded"
	}

	var revisionNumber int
	if err == nil {
		revisionNumber, err = s.revs.Append(ctx, persisted, actor.UserID)
		if err != nil {
			log.Printf("save: append revision %s/%s: %v", draft.Type, draft.ContentID(), err)
			warning = "revision snapshot failed; the save proceeded without one"
			revisionNumber = 0
		}
	}

	var redirectedFrom string
	if sess.OriginalSlug != "" && draft.Slug() != sess.OriginalSlug {
		base := basePathFor(draft.Type)
		redirect := store.Redirect{
			ID:       util.NewID("rdr"),
			FromPath: base + "/" + sess.OriginalSlug,
			ToPath:   base + "/" + draft.Slug(),
		}
		if err := s.store.InsertRedirect(ctx, redirect); err != nil {
			log.Printf("save: insert redirect %s -> %s: %v", redirect.FromPath, redirect.ToPath, err)
			warning = "redirect for the old slug could not be recorded"
		} else {
			redirectedFrom = redirect.FromPath
		}
	}
	// Advance even when the redirect insert failed, so a retry of the
	// same save does not stack duplicate redirects.
	sess.OriginalSlug = draft.Slug()

	if err := s.writeSnapshot(ctx, draft); err != nil {
		return SaveResult{}, domainError(http.StatusInternalServerError, "SAVE_FAILED", "The content record could not be written", nil)
	}

	if s.search != nil {
		s.search.IndexContent(searchRecordFor(draft))
	}

	return SaveResult{
		Session:        sess,
		RevisionNumber: revisionNumber,
		RedirectedFrom: redirectedFrom,
		Warning:        warning,
	}, nil
}

// CreateContent persists a brand-new record. No revision or redirect
// bookkeeping applies; there is no prior state.
func (s *Service) CreateContent(ctx context.Context, draft revision.Snapshot) (revision.Snapshot, editor.Session, error) {
	now := time.Now().UTC()
	switch draft.Type {
	case store.ContentProject:
		if draft.Project.ID == "" {
			draft.Project.ID = util.NewID("prj")
		}
		draft.Project.CreatedAt = now
		draft.Project.UpdatedAt = now
	case store.ContentBlogPost:
		if draft.BlogPost.ID == "" {
			draft.BlogPost.ID = util.NewID("post")
		}
		draft.BlogPost.CreatedAt = now
		draft.BlogPost.UpdatedAt = now
	case store.ContentPage:
		if draft.Page.ID == "" {
			draft.Page.ID = util.NewID("pg")
		}
		draft.Page.CreatedAt = now
		draft.Page.UpdatedAt = now
	}
	if err := validateDraft(draft); err != nil {
		return revision.Snapshot{}, editor.Session{}, err
	}

	if err := s.insertSnapshot(ctx, draft); err != nil {
		return revision.Snapshot{}, editor.Session{}, fmt.Errorf("insert %s: %w", draft.Type, err)
	}

	if s.search != nil {
		s.search.IndexContent(searchRecordFor(draft))
	}

	return draft, editor.Session{OriginalSlug: draft.Slug(), Loaded: true}, nil
}

// ListContent returns every record of one type, drafts included, for the
// admin screens.
func (s *Service) ListContent(ctx context.Context, contentType store.ContentType) (any, error) {
	switch contentType {
	case store.ContentProject:
		return s.store.ListProjects(ctx)
	case store.ContentBlogPost:
		return s.store.ListBlogPosts(ctx)
	case store.ContentPage:
		return s.store.ListPages(ctx)
	}
	return nil, fmt.Errorf("unknown content type %q", contentType)
}

// GetContent loads one record with the editing session a client should
// start from.
func (s *Service) GetContent(ctx context.Context, contentType store.ContentType, id string) (revision.Snapshot, editor.Session, error) {
	snap, err := s.fetchSnapshot(ctx, contentType, id)
	if err != nil {
		return revision.Snapshot{}, editor.Session{}, err
	}
	return snap, editor.Session{OriginalSlug: snap.Slug(), Loaded: true}, nil
}

// ListRevisions returns a record's history, newest first.
func (s *Service) ListRevisions(ctx context.Context, contentType store.ContentType, contentID string) ([]store.Revision, error) {
	return s.revs.List(ctx, contentType, contentID)
}

// Restore rolls a record back to a stored revision. The pre-restore live
// state is itself snapshotted first, so a restore is always undoable.
func (s *Service) Restore(ctx context.Context, actor Session, revisionID string) error {
	return s.revs.Restore(ctx, revisionID, actor.UserID)
}
