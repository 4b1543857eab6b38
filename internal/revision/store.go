// Package revision implements the append-only content snapshot store
// and the restore protocol built on top of it.
package revision

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"folio/api/internal/store"
	"folio/api/internal/util"
)

// dataStore is the slice of the persistence layer the revision store needs.
type dataStore interface {
	CountRevisions(context.Context, store.ContentType, string) (int, error)
	InsertRevision(context.Context, store.Revision) error
	ListRevisions(context.Context, store.ContentType, string) ([]store.Revision, error)
	GetRevision(context.Context, string) (store.Revision, error)

	GetProject(context.Context, string) (store.Project, error)
	GetBlogPost(context.Context, string) (store.BlogPost, error)
	GetPage(context.Context, string) (store.Page, error)
	UpdateProject(context.Context, store.Project) error
	UpdateBlogPost(context.Context, store.BlogPost) error
	UpdatePage(context.Context, store.Page) error
}

type Store struct {
	data dataStore
}

func NewStore(data dataStore) *Store {
	return &Store{data: data}
}

// Append snapshots the supplied full record state as the next revision
// for its (content type, content id) key and returns the assigned
// revision number. Revisioning is a courtesy for authenticated editors:
// an empty actorID is a silent no-op. Any persistence failure comes
// back as a *SoftError; callers log it and carry on with the write the
// snapshot was guarding.
func (s *Store) Append(ctx context.Context, snap Snapshot, actorID string) (int, error) {
	if actorID == "" {
		return 0, nil
	}

	data, err := snap.Encode()
	if err != nil {
		return 0, &SoftError{Err: err}
	}

	count, err := s.data.CountRevisions(ctx, snap.Type, snap.ContentID())
	if err != nil {
		return 0, &SoftError{Err: err}
	}

	rev := store.Revision{
		ID:             util.NewID("rev"),
		ContentType:    snap.Type,
		ContentID:      snap.ContentID(),
		RevisionNumber: count + 1,
		Data:           data,
		CreatedBy:      actorID,
	}
	if err := s.data.InsertRevision(ctx, rev); err != nil {
		return 0, &SoftError{Err: err}
	}
	return rev.RevisionNumber, nil
}

// List returns the revisions for a record, newest first. Unlike Append,
// failures here are surfaced: they change what the user can act on.
func (s *Store) List(ctx context.Context, contentType store.ContentType, contentID string) ([]store.Revision, error) {
	return s.data.ListRevisions(ctx, contentType, contentID)
}

// Restore overwrites the live record with a historical snapshot. The
// state being replaced is snapshotted first so it is never lost; that
// snapshot follows the usual non-fatal rule. The restored state itself
// is not re-appended as a revision.
func (s *Store) Restore(ctx context.Context, revisionID, actorID string) error {
	rev, err := s.data.GetRevision(ctx, revisionID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return &HardError{Err: fmt.Errorf("load revision: %w", err)}
	}

	target, err := Decode(rev.ContentType, rev.Data)
	if err != nil {
		return &HardError{Err: err}
	}

	switch rev.ContentType {
	case store.ContentProject:
		live, err := s.data.GetProject(ctx, rev.ContentID)
		if err != nil {
			return &HardError{Err: fmt.Errorf("load project %s: %w", rev.ContentID, err)}
		}
		if _, err := s.Append(ctx, SnapshotProject(live), actorID); err != nil {
			log.Printf("revision: pre-restore snapshot failed: %v", err)
		}
		restored := *target.Project
		restored.ID = live.ID
		restored.CreatedAt = live.CreatedAt
		if err := s.data.UpdateProject(ctx, restored); err != nil {
			return &HardError{Err: fmt.Errorf("restore project %s: %w", rev.ContentID, err)}
		}
	case store.ContentBlogPost:
		live, err := s.data.GetBlogPost(ctx, rev.ContentID)
		if err != nil {
			return &HardError{Err: fmt.Errorf("load blog post %s: %w", rev.ContentID, err)}
		}
		if _, err := s.Append(ctx, SnapshotBlogPost(live), actorID); err != nil {
			log.Printf("revision: pre-restore snapshot failed: %v", err)
		}
		restored := *target.BlogPost
		restored.ID = live.ID
		restored.CreatedAt = live.CreatedAt
		if err := s.data.UpdateBlogPost(ctx, restored); err != nil {
			return &HardError{Err: fmt.Errorf("restore blog post %s: %w", rev.ContentID, err)}
		}
	case store.ContentPage:
		live, err := s.data.GetPage(ctx, rev.ContentID)
		if err != nil {
			return &HardError{Err: fmt.Errorf("load page %s: %w", rev.ContentID, err)}
		}
		if _, err := s.Append(ctx, SnapshotPage(live), actorID); err != nil {
			log.Printf("revision: pre-restore snapshot failed: %v", err)
		}
		restored := *target.Page
		restored.ID = live.ID
		restored.CreatedAt = live.CreatedAt
		if err := s.data.UpdatePage(ctx, restored); err != nil {
			return &HardError{Err: fmt.Errorf("restore page %s: %w", rev.ContentID, err)}
		}
	default:
		return &HardError{Err: fmt.Errorf("unknown content type %q", rev.ContentType)}
	}

	return nil
}
