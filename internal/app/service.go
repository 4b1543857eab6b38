package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"folio/api/internal/auth"
	"folio/api/internal/authpw"
	"folio/api/internal/config"
	"folio/api/internal/email"
	"folio/api/internal/export"
	"folio/api/internal/media"
	"folio/api/internal/palette"
	"folio/api/internal/rbac"
	"folio/api/internal/revision"
	"folio/api/internal/search"
	"folio/api/internal/store"
	"folio/api/internal/util"
)

// Session is an authenticated admin session derived from a token.
type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	UserName     string
	Role         string
	JTI          string
	ExpiresAt    time.Time
}

// dataStore is the persistence surface the service consumes.
type dataStore interface {
	Ping(context.Context) error

	GetUserByEmail(context.Context, string) (store.User, error)
	GetUserByID(context.Context, string) (store.User, error)
	CreateUser(context.Context, store.User) error
	CountUsers(context.Context) (int, error)

	SaveRefreshSession(context.Context, string, string, time.Time) error
	LookupRefreshSession(context.Context, string) (store.User, error)
	RevokeRefreshSession(context.Context, string) error
	RevokeAccessToken(context.Context, string, time.Time) error
	IsAccessTokenRevoked(context.Context, string) (bool, error)

	ListProjects(context.Context) ([]store.Project, error)
	GetProject(context.Context, string) (store.Project, error)
	InsertProject(context.Context, store.Project) error
	UpdateProject(context.Context, store.Project) error

	ListBlogPosts(context.Context) ([]store.BlogPost, error)
	GetBlogPost(context.Context, string) (store.BlogPost, error)
	InsertBlogPost(context.Context, store.BlogPost) error
	UpdateBlogPost(context.Context, store.BlogPost) error

	ListPages(context.Context) ([]store.Page, error)
	GetPage(context.Context, string) (store.Page, error)
	InsertPage(context.Context, store.Page) error
	UpdatePage(context.Context, store.Page) error

	InsertRedirect(context.Context, store.Redirect) error
	ListRedirects(context.Context) ([]store.Redirect, error)
	ResolveRedirect(context.Context, string) (store.Redirect, error)

	InsertContactMessage(context.Context, store.ContactMessage) error

	CountRevisions(context.Context, store.ContentType, string) (int, error)
	InsertRevision(context.Context, store.Revision) error
	ListRevisions(context.Context, store.ContentType, string) ([]store.Revision, error)
	GetRevision(context.Context, string) (store.Revision, error)
}

// sessionStore holds refresh sessions in Redis. Nil falls back to the
// Postgres-backed rows in dataStore.
type sessionStore interface {
	SaveRefreshSession(ctx context.Context, tokenHash string, user store.User, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
}

type Service struct {
	cfg      config.Config
	store    dataStore
	sessions sessionStore
	revs     *revision.Store
	pw       *authpw.Service
	search   *search.Service
	email    *email.Service
	media    *media.Service
}

func New(cfg config.Config, data dataStore, searchService *search.Service) *Service {
	return &Service{
		cfg:    cfg,
		store:  data,
		revs:   revision.NewStore(data),
		pw:     authpw.NewService(data),
		search: searchService,
	}
}

// NewWithSessionStore wires a Redis session store for refresh tokens.
func NewWithSessionStore(cfg config.Config, data dataStore, sessions sessionStore, searchService *search.Service) *Service {
	svc := New(cfg, data, searchService)
	svc.sessions = sessions
	return svc
}

// WithEmail attaches the contact notification service.
func (s *Service) WithEmail(svc *email.Service) *Service {
	s.email = svc
	return s
}

// WithMedia attaches the asset upload service.
func (s *Service) WithMedia(svc *media.Service) *Service {
	s.media = svc
	return s
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Bootstrap ensures the owner account exists and warms the search index.
func (s *Service) Bootstrap(ctx context.Context) error {
	if err := s.pw.EnsureOwner(ctx, s.cfg.OwnerEmail, s.cfg.OwnerPassword, s.cfg.OwnerName); err != nil {
		return fmt.Errorf("bootstrap owner: %w", err)
	}
	if s.search != nil {
		s.search.ReindexAll(ctx)
	}
	return nil
}

// AutosaveInterval is the tick rate editing clients should use.
func (s *Service) AutosaveInterval() time.Duration {
	if s.cfg.AutosaveInterval <= 0 {
		return 30 * time.Second
	}
	return s.cfg.AutosaveInterval
}

func (s *Service) Can(role string, action rbac.Action) bool {
	return rbac.Can(rbac.Normalize(role), action)
}

// ---- authentication ----

// SignIn verifies credentials and issues an access/refresh token pair.
func (s *Service) SignIn(ctx context.Context, emailAddr, password string) (Session, error) {
	user, err := s.pw.SignIn(ctx, emailAddr, password)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	jti := util.NewID("jti")
	expiresAt := time.Now().Add(s.cfg.AccessTTL)
	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), auth.Claims{
		Sub:   user.ID,
		Name:  user.DisplayName,
		Email: user.Email,
		Role:  user.Role,
		JTI:   jti,
		Exp:   expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}

	refreshToken, err := randomToken()
	if err != nil {
		return Session{}, fmt.Errorf("issue refresh token: %w", err)
	}
	refreshExpiry := time.Now().Add(s.cfg.RefreshTTL)
	tokenHash := auth.HashToken(refreshToken)

	if s.sessions != nil {
		err = s.sessions.SaveRefreshSession(ctx, tokenHash, user, refreshExpiry)
	} else {
		err = s.store.SaveRefreshSession(ctx, tokenHash, user.ID, refreshExpiry)
	}
	if err != nil {
		return Session{}, fmt.Errorf("save refresh session: %w", err)
	}

	return Session{
		Token:        token,
		RefreshToken: refreshToken,
		UserID:       user.ID,
		UserName:     user.DisplayName,
		Role:         user.Role,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

// SessionFromToken validates an access token and rebuilds the session.
func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}
	revoked, err := s.store.IsAccessTokenRevoked(ctx, claims.JTI)
	if err != nil {
		return Session{}, err
	}
	if revoked {
		return Session{}, auth.ErrInvalidToken
	}
	return Session{
		Token:     token,
		UserID:    claims.Sub,
		UserName:  claims.Name,
		Role:      claims.Role,
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

// Refresh rotates a refresh token into a fresh session.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)

	var user store.User
	var err error
	if s.sessions != nil {
		user, err = s.sessions.LookupRefreshSession(ctx, tokenHash)
	} else {
		user, err = s.store.LookupRefreshSession(ctx, tokenHash)
	}
	if err != nil {
		return Session{}, fmt.Errorf("lookup refresh session: %w", err)
	}

	// Rotate: the old token is single-use.
	if s.sessions != nil {
		err = s.sessions.RevokeRefreshSession(ctx, tokenHash)
	} else {
		err = s.store.RevokeRefreshSession(ctx, tokenHash)
	}
	if err != nil {
		log.Printf("auth: revoke rotated refresh token: %v", err)
	}

	return s.issueSession(ctx, user)
}

// Logout revokes both halves of the session.
func (s *Service) Logout(ctx context.Context, session Session, refreshToken string) error {
	if refreshToken != "" {
		tokenHash := auth.HashToken(refreshToken)
		var err error
		if s.sessions != nil {
			err = s.sessions.RevokeRefreshSession(ctx, tokenHash)
		} else {
			err = s.store.RevokeRefreshSession(ctx, tokenHash)
		}
		if err != nil {
			log.Printf("auth: revoke refresh session: %v", err)
		}
	}
	if session.JTI != "" {
		if err := s.store.RevokeAccessToken(ctx, session.JTI, session.ExpiresAt); err != nil {
			log.Printf("auth: revoke access token: %v", err)
		}
	}
	return nil
}

func randomToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// ---- search and palette ----

func (s *Service) Search(ctx context.Context, q search.Query) search.Response {
	if s.search == nil {
		return search.Response{Results: []search.Result{}, Query: q.Text}
	}
	return s.search.Search(ctx, q)
}

// Palette assembles and ranks the command palette: static routes and
// admin actions plus live published content as navigation targets.
func (s *Service) Palette(ctx context.Context, query string, authenticated bool) ([]palette.Command, error) {
	commands := []palette.Command{
		{ID: "nav-home", Type: palette.CommandRoute, Title: "Home", Keywords: []string{"index", "start"}, Shortcut: "g h", Href: "/"},
		{ID: "nav-projects", Type: palette.CommandRoute, Title: "Projects", Keywords: []string{"work", "portfolio"}, Shortcut: "g p", Href: "/projects"},
		{ID: "nav-blog", Type: palette.CommandRoute, Title: "Blog", Keywords: []string{"posts", "writing"}, Shortcut: "g b", Href: "/blog"},
		{ID: "nav-resume", Type: palette.CommandRoute, Title: "Resume", Keywords: []string{"cv"}, Href: "/resume"},
		{ID: "nav-contact", Type: palette.CommandRoute, Title: "Contact", Keywords: []string{"email", "message"}, Href: "/contact"},
		{ID: "act-theme", Type: palette.CommandAction, Title: "Toggle Theme", Description: "Switch between light and dark", Shortcut: "t"},
	}
	if authenticated {
		commands = append(commands,
			palette.Command{ID: "act-new-project", Type: palette.CommandAction, Title: "New Project", Href: "/admin/projects/new"},
			palette.Command{ID: "act-new-post", Type: palette.CommandAction, Title: "New Blog Post", Href: "/admin/blog/new"},
			palette.Command{ID: "act-signout", Type: palette.CommandAction, Title: "Sign Out"},
		)
	}

	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("palette projects: %w", err)
	}
	for _, p := range projects {
		if p.Status != "published" {
			continue
		}
		commands = append(commands, palette.Command{
			ID:          "project-" + p.ID,
			Type:        palette.CommandProject,
			Title:       p.Title,
			Description: p.Description,
			Keywords:    p.Tags,
			Href:        "/projects/" + p.Slug,
		})
	}

	posts, err := s.store.ListBlogPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("palette blog posts: %w", err)
	}
	for _, p := range posts {
		if p.Status != "published" {
			continue
		}
		commands = append(commands, palette.Command{
			ID:          "blog-" + p.ID,
			Type:        palette.CommandBlog,
			Title:       p.Title,
			Description: p.Excerpt,
			Keywords:    p.Tags,
			Href:        "/blog/" + p.Slug,
		})
	}

	return palette.SearchCommands(query, commands), nil
}

// ---- redirects ----

func (s *Service) ListRedirects(ctx context.Context) ([]store.Redirect, error) {
	return s.store.ListRedirects(ctx)
}

func (s *Service) ResolveRedirect(ctx context.Context, fromPath string) (store.Redirect, error) {
	return s.store.ResolveRedirect(ctx, fromPath)
}

// ---- contact ----

// Contact persists a visitor message and notifies the owner. The
// notification is best-effort; the message is already stored.
func (s *Service) Contact(ctx context.Context, name, emailAddr, subject, body string) error {
	if name == "" || emailAddr == "" || body == "" {
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name, email, and message are required", nil)
	}

	msg := store.ContactMessage{
		ID:      util.NewID("msg"),
		Name:    name,
		Email:   emailAddr,
		Subject: subject,
		Body:    body,
	}
	if err := s.store.InsertContactMessage(ctx, msg); err != nil {
		return fmt.Errorf("store contact message: %w", err)
	}

	if s.email != nil && s.email.IsConfigured() {
		go func() {
			if err := s.email.SendContactNotification(msg); err != nil {
				log.Printf("contact: notification email: %v", err)
			}
		}()
	}
	return nil
}

// ---- media ----

// UploadMedia stores an asset in the object store.
func (s *Service) UploadMedia(ctx context.Context, filename, contentType string, reader io.Reader, size int64) (media.Upload, error) {
	if s.media == nil {
		return media.Upload{}, domainError(http.StatusServiceUnavailable, "MEDIA_UNAVAILABLE", "Media storage is not configured", nil)
	}
	return s.media.Store(ctx, filename, contentType, reader, size)
}

// Reindex rebuilds the search index from the database.
func (s *Service) Reindex(ctx context.Context) {
	if s.search != nil {
		s.search.ReindexAll(ctx)
	}
}

// ---- export ----

// ExportResume renders the published resume page to PDF.
func (s *Service) ExportResume(ctx context.Context) (*export.Result, error) {
	pages, err := s.store.ListPages(ctx)
	if err != nil {
		return nil, fmt.Errorf("load pages: %w", err)
	}
	for _, pg := range pages {
		if pg.Slug == "resume" && pg.Status == "published" {
			return export.Resume(pg)
		}
	}
	return nil, domainError(http.StatusNotFound, "NOT_FOUND", "No published resume page", nil)
}
