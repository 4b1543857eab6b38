package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"folio/api/internal/config"
	"folio/api/internal/editor"
	"folio/api/internal/revision"
	"folio/api/internal/store"
)

type fakeStore struct {
	users     map[string]store.User
	projects  map[string]store.Project
	posts     map[string]store.BlogPost
	pages     map[string]store.Page
	revisions []store.Revision
	redirects []store.Redirect
	contacts  []store.ContactMessage
	refresh   map[string]string
	revoked   map[string]bool

	getProjectFn     func(context.Context, string) (store.Project, error)
	updateProjectFn  func(context.Context, store.Project) error
	insertRevisionFn func(context.Context, store.Revision) error
	countRevisionsFn func(context.Context, store.ContentType, string) (int, error)
	insertRedirectFn func(context.Context, store.Redirect) error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    make(map[string]store.User),
		projects: make(map[string]store.Project),
		posts:    make(map[string]store.BlogPost),
		pages:    make(map[string]store.Page),
		refresh:  make(map[string]string),
		revoked:  make(map[string]bool),
	}
}

func (f *fakeStore) Ping(context.Context) error { return nil }

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (store.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return store.User{}, sql.ErrNoRows
}

func (f *fakeStore) GetUserByID(_ context.Context, id string) (store.User, error) {
	user, ok := f.users[id]
	if !ok {
		return store.User{}, sql.ErrNoRows
	}
	return user, nil
}

func (f *fakeStore) CreateUser(_ context.Context, user store.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeStore) CountUsers(context.Context) (int, error) { return len(f.users), nil }

func (f *fakeStore) SaveRefreshSession(_ context.Context, tokenHash, userID string, _ time.Time) error {
	f.refresh[tokenHash] = userID
	return nil
}

func (f *fakeStore) LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error) {
	userID, ok := f.refresh[tokenHash]
	if !ok {
		return store.User{}, sql.ErrNoRows
	}
	return f.GetUserByID(ctx, userID)
}

func (f *fakeStore) RevokeRefreshSession(_ context.Context, tokenHash string) error {
	delete(f.refresh, tokenHash)
	return nil
}

func (f *fakeStore) RevokeAccessToken(_ context.Context, jti string, _ time.Time) error {
	f.revoked[jti] = true
	return nil
}

func (f *fakeStore) IsAccessTokenRevoked(_ context.Context, jti string) (bool, error) {
	return f.revoked[jti], nil
}

func (f *fakeStore) ListProjects(context.Context) ([]store.Project, error) {
	items := make([]store.Project, 0, len(f.projects))
	for _, item := range f.projects {
		items = append(items, item)
	}
	return items, nil
}

func (f *fakeStore) GetProject(ctx context.Context, id string) (store.Project, error) {
	if f.getProjectFn != nil {
		return f.getProjectFn(ctx, id)
	}
	item, ok := f.projects[id]
	if !ok {
		return store.Project{}, sql.ErrNoRows
	}
	return item, nil
}

func (f *fakeStore) InsertProject(_ context.Context, item store.Project) error {
	f.projects[item.ID] = item
	return nil
}

func (f *fakeStore) UpdateProject(ctx context.Context, item store.Project) error {
	if f.updateProjectFn != nil {
		return f.updateProjectFn(ctx, item)
	}
	f.projects[item.ID] = item
	return nil
}

func (f *fakeStore) ListBlogPosts(context.Context) ([]store.BlogPost, error) {
	items := make([]store.BlogPost, 0, len(f.posts))
	for _, item := range f.posts {
		items = append(items, item)
	}
	return items, nil
}

func (f *fakeStore) GetBlogPost(_ context.Context, id string) (store.BlogPost, error) {
	item, ok := f.posts[id]
	if !ok {
		return store.BlogPost{}, sql.ErrNoRows
	}
	return item, nil
}

func (f *fakeStore) InsertBlogPost(_ context.Context, item store.BlogPost) error {
	f.posts[item.ID] = item
	return nil
}

func (f *fakeStore) UpdateBlogPost(_ context.Context, item store.BlogPost) error {
	f.posts[item.ID] = item
	return nil
}

func (f *fakeStore) ListPages(context.Context) ([]store.Page, error) {
	items := make([]store.Page, 0, len(f.pages))
	for _, item := range f.pages {
		items = append(items, item)
	}
	return items, nil
}

func (f *fakeStore) GetPage(_ context.Context, id string) (store.Page, error) {
	item, ok := f.pages[id]
	if !ok {
		return store.Page{}, sql.ErrNoRows
	}
	return item, nil
}

func (f *fakeStore) InsertPage(_ context.Context, item store.Page) error {
	f.pages[item.ID] = item
	return nil
}

func (f *fakeStore) UpdatePage(_ context.Context, item store.Page) error {
	f.pages[item.ID] = item
	return nil
}

func (f *fakeStore) InsertRedirect(ctx context.Context, redirect store.Redirect) error {
	if f.insertRedirectFn != nil {
		return f.insertRedirectFn(ctx, redirect)
	}
	f.redirects = append(f.redirects, redirect)
	return nil
}

func (f *fakeStore) ListRedirects(context.Context) ([]store.Redirect, error) {
	return f.redirects, nil
}

func (f *fakeStore) ResolveRedirect(_ context.Context, fromPath string) (store.Redirect, error) {
	for i := len(f.redirects) - 1; i >= 0; i-- {
		if f.redirects[i].FromPath == fromPath {
			return f.redirects[i], nil
		}
	}
	return store.Redirect{}, sql.ErrNoRows
}

func (f *fakeStore) InsertContactMessage(_ context.Context, msg store.ContactMessage) error {
	f.contacts = append(f.contacts, msg)
	return nil
}

func (f *fakeStore) CountRevisions(ctx context.Context, contentType store.ContentType, contentID string) (int, error) {
	if f.countRevisionsFn != nil {
		return f.countRevisionsFn(ctx, contentType, contentID)
	}
	count := 0
	for _, rev := range f.revisions {
		if rev.ContentType == contentType && rev.ContentID == contentID {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) InsertRevision(ctx context.Context, rev store.Revision) error {
	if f.insertRevisionFn != nil {
		return f.insertRevisionFn(ctx, rev)
	}
	f.revisions = append(f.revisions, rev)
	return nil
}

func (f *fakeStore) ListRevisions(_ context.Context, contentType store.ContentType, contentID string) ([]store.Revision, error) {
	var matched []store.Revision
	for _, rev := range f.revisions {
		if rev.ContentType == contentType && rev.ContentID == contentID {
			matched = append(matched, rev)
		}
	}
	for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
		matched[i], matched[j] = matched[j], matched[i]
	}
	return matched, nil
}

func (f *fakeStore) GetRevision(_ context.Context, revisionID string) (store.Revision, error) {
	for _, rev := range f.revisions {
		if rev.ID == revisionID {
			return rev, nil
		}
	}
	return store.Revision{}, sql.ErrNoRows
}

func newTestService(fs *fakeStore) *Service {
	return New(config.Config{
		JWTSecret:  "test-secret",
		AccessTTL:  time.Hour,
		RefreshTTL: 24 * time.Hour,
	}, fs, nil)
}

func seedProject(fs *fakeStore, id, title, slug string) store.Project {
	item := store.Project{
		ID:     id,
		Title:  title,
		Slug:   slug,
		Body:   "Body of " + title,
		Status: "published",
	}
	fs.projects[id] = item
	return item
}

func editorSession(slug string) editor.Session {
	return editor.Session{OriginalSlug: slug, Loaded: true}
}

func actor() Session {
	return Session{UserID: "user-1", UserName: "Avery", Role: "editor"}
}

func TestSaveSnapshotsPersistedStateBeforeOverwrite(t *testing.T) {
	fs := newFakeStore()
	seedProject(fs, "prj-1", "Old Title", "old-title")
	svc := newTestService(fs)

	draft := store.Project{ID: "prj-1", Title: "New Title", Slug: "old-title", Body: "Updated body", Status: "published"}
	result, err := svc.SaveContent(context.Background(), actor(), revision.SnapshotProject(draft), editorSession("old-title"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if result.RevisionNumber != 1 {
		t.Fatalf("expected revision number 1, got %d", result.RevisionNumber)
	}
	if len(fs.revisions) != 1 {
		t.Fatalf("expected 1 revision, got %d", len(fs.revisions))
	}

	var snapshotted store.Project
	if err := json.Unmarshal(fs.revisions[0].Data, &snapshotted); err != nil {
		t.Fatalf("decode revision payload: %v", err)
	}
	if snapshotted.Title != "Old Title" {
		t.Errorf("revision must hold the pre-save state, got title %q", snapshotted.Title)
	}
	if fs.projects["prj-1"].Title != "New Title" {
		t.Errorf("live record must hold the draft, got title %q", fs.projects["prj-1"].Title)
	}

	// A second save snapshots the now-live state as revision 2.
	draft.Body = "Updated again"
	result, err = svc.SaveContent(context.Background(), actor(), revision.SnapshotProject(draft), result.Session)
	if err != nil {
		t.Fatalf("second save: %v", err)
	}
	if result.RevisionNumber != 2 {
		t.Fatalf("expected revision number 2, got %d", result.RevisionNumber)
	}
}

func TestSaveCreatesRedirectOnSlugChangeAndAdvancesSession(t *testing.T) {
	fs := newFakeStore()
	seedProject(fs, "prj-1", "Title", "alpha")
	svc := newTestService(fs)

	draft := store.Project{ID: "prj-1", Title: "Title", Slug: "beta", Body: "Body", Status: "published"}
	result, err := svc.SaveContent(context.Background(), actor(), revision.SnapshotProject(draft), editorSession("alpha"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if result.RedirectedFrom != "/projects/alpha" {
		t.Fatalf("expected redirect from /projects/alpha, got %q", result.RedirectedFrom)
	}
	if result.Session.OriginalSlug != "beta" {
		t.Fatalf("session must advance to the new slug, got %q", result.Session.OriginalSlug)
	}
	if len(fs.redirects) != 1 || fs.redirects[0].ToPath != "/projects/beta" {
		t.Fatalf("unexpected redirects: %+v", fs.redirects)
	}

	// Renaming again in the same session redirects from the second
	// slug, not the first.
	draft.Slug = "gamma"
	result, err = svc.SaveContent(context.Background(), actor(), revision.SnapshotProject(draft), result.Session)
	if err != nil {
		t.Fatalf("second save: %v", err)
	}
	if result.RedirectedFrom != "/projects/beta" {
		t.Fatalf("expected redirect from /projects/beta, got %q", result.RedirectedFrom)
	}
	if len(fs.redirects) != 2 {
		t.Fatalf("expected 2 redirects, got %d", len(fs.redirects))
	}
}

func TestSaveSkipsRedirectWhenSlugUnchanged(t *testing.T) {
	fs := newFakeStore()
	seedProject(fs, "prj-1", "Title", "stable")
	svc := newTestService(fs)

	draft := store.Project{ID: "prj-1", Title: "Title", Slug: "stable", Body: "Edited", Status: "published"}
	result, err := svc.SaveContent(context.Background(), actor(), revision.SnapshotProject(draft), editorSession("stable"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if result.RedirectedFrom != "" {
		t.Errorf("no redirect expected, got %q", result.RedirectedFrom)
	}
	if len(fs.redirects) != 0 {
		t.Errorf("expected zero redirects, got %d", len(fs.redirects))
	}
}

func TestSaveSucceedsWhenRevisionInsertFails(t *testing.T) {
	fs := newFakeStore()
	seedProject(fs, "prj-1", "Title", "slug")
	fs.insertRevisionFn = func(context.Context, store.Revision) error {
		return errors.New("revisions table on fire")
	}
	svc := newTestService(fs)

	draft := store.Project{ID: "prj-1", Title: "Title", Slug: "slug", Body: "Edited", Status: "published"}
	result, err := svc.SaveContent(context.Background(), actor(), revision.SnapshotProject(draft), editorSession("slug"))
	if err != nil {
		t.Fatalf("save must survive a revision failure: %v", err)
	}
	if result.Warning == "" {
		t.Error("expected a warning about the failed revision")
	}
	if result.RevisionNumber != 0 {
		t.Errorf("expected revision number 0, got %d", result.RevisionNumber)
	}
	if fs.projects["prj-1"].Body != "Edited" {
		t.Error("final write must still happen")
	}
}

func TestSaveFailsWhenFinalWriteFails(t *testing.T) {
	fs := newFakeStore()
	seedProject(fs, "prj-1", "Title", "slug")
	fs.updateProjectFn = func(context.Context, store.Project) error {
		return errors.New("disk full")
	}
	svc := newTestService(fs)

	draft := store.Project{ID: "prj-1", Title: "Title", Slug: "slug", Body: "Edited", Status: "published"}
	_, err := svc.SaveContent(context.Background(), actor(), revision.SnapshotProject(draft), editorSession("slug"))
	var domain *DomainError
	if !errors.As(err, &domain) || domain.Code != "SAVE_FAILED" {
		t.Fatalf("expected SAVE_FAILED, got %v", err)
	}
	// The revision was still taken before the failed write.
	if len(fs.revisions) != 1 {
		t.Errorf("expected the pre-write revision to persist, got %d", len(fs.revisions))
	}
}

func TestSaveGuardsUnloadedAndNewSessions(t *testing.T) {
	fs := newFakeStore()
	seedProject(fs, "prj-1", "Title", "slug")
	svc := newTestService(fs)
	draft := revision.SnapshotProject(store.Project{ID: "prj-1", Title: "Title", Slug: "slug", Body: "Body", Status: "published"})

	for _, sess := range []editor.Session{
		{Loaded: false},
		{Loaded: true, New: true},
	} {
		_, err := svc.SaveContent(context.Background(), actor(), draft, sess)
		var domain *DomainError
		if !errors.As(err, &domain) || domain.Code != "NOT_SAVABLE" {
			t.Errorf("session %+v: expected NOT_SAVABLE, got %v", sess, err)
		}
	}
	if len(fs.revisions) != 0 || len(fs.redirects) != 0 {
		t.Error("guarded saves must not touch revisions or redirects")
	}
}

func TestSaveValidatesDraft(t *testing.T) {
	fs := newFakeStore()
	seedProject(fs, "prj-1", "Title", "slug")
	svc := newTestService(fs)

	cases := []store.Project{
		{ID: "prj-1", Title: "", Slug: "slug", Body: "Body", Status: "published"},
		{ID: "prj-1", Title: "Title", Slug: "slug", Body: "  ", Status: "published"},
		{ID: "prj-1", Title: "Title", Slug: "slug", Body: "Body", Status: "retired"},
	}
	for _, draft := range cases {
		_, err := svc.SaveContent(context.Background(), actor(), revision.SnapshotProject(draft), editorSession("slug"))
		var domain *DomainError
		if !errors.As(err, &domain) || domain.Code != "VALIDATION_ERROR" {
			t.Errorf("draft %+v: expected VALIDATION_ERROR, got %v", draft, err)
		}
	}
}

func TestSaveAcceptsArchivedProjectsAndPosts(t *testing.T) {
	fs := newFakeStore()
	seedProject(fs, "prj-1", "Title", "slug")
	fs.posts["post-1"] = store.BlogPost{ID: "post-1", Title: "Post", Slug: "post", Body: "Body", Status: "published"}
	svc := newTestService(fs)

	project := store.Project{ID: "prj-1", Title: "Title", Slug: "slug", Body: "Body", Status: "archived"}
	if _, err := svc.SaveContent(context.Background(), actor(), revision.SnapshotProject(project), editorSession("slug")); err != nil {
		t.Fatalf("archiving a project: %v", err)
	}
	if fs.projects["prj-1"].Status != "archived" {
		t.Fatalf("expected archived project, got %q", fs.projects["prj-1"].Status)
	}

	post := store.BlogPost{ID: "post-1", Title: "Post", Slug: "post", Body: "Body", Status: "archived"}
	if _, err := svc.SaveContent(context.Background(), actor(), revision.SnapshotBlogPost(post), editorSession("post")); err != nil {
		t.Fatalf("archiving a blog post: %v", err)
	}
	if fs.posts["post-1"].Status != "archived" {
		t.Fatalf("expected archived post, got %q", fs.posts["post-1"].Status)
	}
}

func TestSaveRejectsArchivedPages(t *testing.T) {
	fs := newFakeStore()
	fs.pages["pg-1"] = store.Page{ID: "pg-1", Title: "About", Slug: "about", Body: "Body", Status: "published"}
	svc := newTestService(fs)

	page := store.Page{ID: "pg-1", Title: "About", Slug: "about", Body: "Body", Status: "archived"}
	_, err := svc.SaveContent(context.Background(), actor(), revision.SnapshotPage(page), editorSession("about"))
	var domain *DomainError
	if !errors.As(err, &domain) || domain.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected VALIDATION_ERROR for an archived page, got %v", err)
	}
}

func TestSaveMissingRecordReturnsNotFound(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs)

	draft := store.Project{ID: "prj-missing", Title: "Title", Slug: "slug", Body: "Body", Status: "draft"}
	_, err := svc.SaveContent(context.Background(), actor(), revision.SnapshotProject(draft), editorSession("slug"))
	var domain *DomainError
	if !errors.As(err, &domain) || domain.Status != 404 {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestRestoreRoundTrip(t *testing.T) {
	fs := newFakeStore()
	seedProject(fs, "prj-1", "First Title", "first")
	svc := newTestService(fs)

	// Save an edit so revision 1 holds the original state.
	draft := store.Project{ID: "prj-1", Title: "Second Title", Slug: "first", Body: "Second body", Status: "published"}
	if _, err := svc.SaveContent(context.Background(), actor(), revision.SnapshotProject(draft), editorSession("first")); err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := svc.Restore(context.Background(), actor(), fs.revisions[0].ID); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if fs.projects["prj-1"].Title != "First Title" {
		t.Errorf("live record must be rolled back, got %q", fs.projects["prj-1"].Title)
	}
	// The pre-restore state became revision 2, so the restore is undoable.
	if len(fs.revisions) != 2 {
		t.Fatalf("expected 2 revisions after restore, got %d", len(fs.revisions))
	}
	var preRestore store.Project
	if err := json.Unmarshal(fs.revisions[1].Data, &preRestore); err != nil {
		t.Fatalf("decode revision payload: %v", err)
	}
	if preRestore.Title != "Second Title" {
		t.Errorf("revision 2 must hold the pre-restore state, got %q", preRestore.Title)
	}
}

func TestCreateContentSkipsRevisionAndRedirectBookkeeping(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs)

	created, sess, err := svc.CreateContent(context.Background(), revision.SnapshotProject(store.Project{
		Title:  "Fresh",
		Slug:   "fresh",
		Body:   "Body",
		Status: "draft",
	}))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Project.ID == "" || !strings.HasPrefix(created.Project.ID, "prj") {
		t.Errorf("expected generated prj id, got %q", created.Project.ID)
	}
	if !sess.Loaded || sess.New || sess.OriginalSlug != "fresh" {
		t.Errorf("unexpected session after create: %+v", sess)
	}
	if len(fs.revisions) != 0 || len(fs.redirects) != 0 {
		t.Error("create must not write revisions or redirects")
	}
}

func TestContactStoresMessage(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs)

	if err := svc.Contact(context.Background(), "Visitor", "visitor@example.com", "Hi", "Nice site"); err != nil {
		t.Fatalf("contact: %v", err)
	}
	if len(fs.contacts) != 1 || fs.contacts[0].Email != "visitor@example.com" {
		t.Fatalf("unexpected contacts: %+v", fs.contacts)
	}

	err := svc.Contact(context.Background(), "", "", "", "")
	var domain *DomainError
	if !errors.As(err, &domain) || domain.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestPaletteRanksAndFiltersCommands(t *testing.T) {
	fs := newFakeStore()
	seedProject(fs, "prj-1", "Terrain Renderer", "terrain-renderer")
	draft := seedProject(fs, "prj-2", "Hidden Draft", "hidden-draft")
	draft.Status = "draft"
	fs.projects[draft.ID] = draft
	svc := newTestService(fs)

	commands, err := svc.Palette(context.Background(), "terrain", false)
	if err != nil {
		t.Fatalf("palette: %v", err)
	}
	if len(commands) != 1 || commands[0].ID != "project-prj-1" {
		t.Fatalf("expected only the terrain project, got %+v", commands)
	}

	// A blank query returns everything, static commands included, and
	// drafts stay hidden.
	commands, err = svc.Palette(context.Background(), "", false)
	if err != nil {
		t.Fatalf("palette: %v", err)
	}
	for _, cmd := range commands {
		if cmd.ID == "project-prj-2" {
			t.Error("draft project must not appear in the palette")
		}
	}
	if len(commands) < 6 {
		t.Errorf("expected the static commands plus content, got %d", len(commands))
	}

	// Admin actions only appear for authenticated callers.
	commands, _ = svc.Palette(context.Background(), "new project", true)
	found := false
	for _, cmd := range commands {
		if cmd.ID == "act-new-project" {
			found = true
		}
	}
	if !found {
		t.Error("expected the New Project action for an authenticated caller")
	}
}
