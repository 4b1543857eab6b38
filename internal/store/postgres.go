package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ---- users ----

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, display_name, email, password_hash, role, created_at, updated_at
		FROM users WHERE email=$1
	`, email).Scan(&user.ID, &user.DisplayName, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, userID string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, display_name, email, password_hash, role, created_at, updated_at
		FROM users WHERE id=$1
	`, userID).Scan(&user.ID, &user.DisplayName, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, user User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, display_name, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
	`, user.ID, user.DisplayName, user.Email, user.PasswordHash, user.Role)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

// ---- refresh sessions (Postgres fallback when Redis is not configured) ----

func (s *PostgresStore) SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_sessions (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_hash) DO UPDATE SET user_id=EXCLUDED.user_id, expires_at=EXCLUDED.expires_at, revoked_at=NULL
	`, tokenHash, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("save refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) LookupRefreshSession(ctx context.Context, tokenHash string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT u.id, u.display_name, u.email, u.role
		FROM refresh_sessions rs
		JOIN users u ON u.id = rs.user_id
		WHERE rs.token_hash = $1
			AND rs.revoked_at IS NULL
			AND rs.expires_at > NOW()
	`, tokenHash).Scan(&user.ID, &user.DisplayName, &user.Email, &user.Role)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE refresh_sessions SET revoked_at=NOW() WHERE token_hash=$1`, tokenHash)
	if err != nil {
		return fmt.Errorf("revoke refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) RevokeAccessToken(ctx context.Context, jti string, exp time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO revoked_access_tokens (jti, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (jti) DO NOTHING
	`, jti, exp)
	if err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}
	return nil
}

func (s *PostgresStore) IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM revoked_access_tokens WHERE jti=$1)`, jti).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return revoked, nil
}

// ---- projects ----

const projectColumns = `id, title, slug, description, body, status, tags, repo_url, demo_url, sort_order, created_at, updated_at`

func scanProject(row interface{ Scan(...any) error }) (Project, error) {
	var item Project
	var tagsRaw []byte
	err := row.Scan(&item.ID, &item.Title, &item.Slug, &item.Description, &item.Body, &item.Status,
		&tagsRaw, &item.RepoURL, &item.DemoURL, &item.SortOrder, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return Project{}, err
	}
	_ = json.Unmarshal(tagsRaw, &item.Tags)
	return item, nil
}

func (s *PostgresStore) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY sort_order, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	items := make([]Project, 0)
	for rows.Next() {
		item, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetProject(ctx context.Context, id string) (Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id=$1`, id)
	return scanProject(row)
}

func (s *PostgresStore) InsertProject(ctx context.Context, item Project) error {
	tags, err := encodeTags(item.Tags)
	if err != nil {
		return fmt.Errorf("marshal project tags: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO projects (id, title, slug, description, body, status, tags, repo_url, demo_url, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8, $9, $10)
	`, item.ID, item.Title, item.Slug, item.Description, item.Body, item.Status, tags, item.RepoURL, item.DemoURL, item.SortOrder)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateProject(ctx context.Context, item Project) error {
	tags, err := encodeTags(item.Tags)
	if err != nil {
		return fmt.Errorf("marshal project tags: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE projects
		SET title=$2, slug=$3, description=$4, body=$5, status=$6, tags=$7::jsonb,
			repo_url=$8, demo_url=$9, sort_order=$10, updated_at=NOW()
		WHERE id=$1
	`, item.ID, item.Title, item.Slug, item.Description, item.Body, item.Status, tags, item.RepoURL, item.DemoURL, item.SortOrder)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	return nil
}

// ---- blog posts ----

const blogPostColumns = `id, title, slug, excerpt, body, status, tags, published_at, created_at, updated_at`

func scanBlogPost(row interface{ Scan(...any) error }) (BlogPost, error) {
	var item BlogPost
	var tagsRaw []byte
	err := row.Scan(&item.ID, &item.Title, &item.Slug, &item.Excerpt, &item.Body, &item.Status,
		&tagsRaw, &item.PublishedAt, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return BlogPost{}, err
	}
	_ = json.Unmarshal(tagsRaw, &item.Tags)
	return item, nil
}

func (s *PostgresStore) ListBlogPosts(ctx context.Context) ([]BlogPost, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+blogPostColumns+` FROM blog_posts ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list blog posts: %w", err)
	}
	defer rows.Close()

	items := make([]BlogPost, 0)
	for rows.Next() {
		item, err := scanBlogPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan blog post: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blog posts: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetBlogPost(ctx context.Context, id string) (BlogPost, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+blogPostColumns+` FROM blog_posts WHERE id=$1`, id)
	return scanBlogPost(row)
}

func (s *PostgresStore) InsertBlogPost(ctx context.Context, item BlogPost) error {
	tags, err := encodeTags(item.Tags)
	if err != nil {
		return fmt.Errorf("marshal blog post tags: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO blog_posts (id, title, slug, excerpt, body, status, tags, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8)
	`, item.ID, item.Title, item.Slug, item.Excerpt, item.Body, item.Status, tags, item.PublishedAt)
	if err != nil {
		return fmt.Errorf("insert blog post: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateBlogPost(ctx context.Context, item BlogPost) error {
	tags, err := encodeTags(item.Tags)
	if err != nil {
		return fmt.Errorf("marshal blog post tags: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE blog_posts
		SET title=$2, slug=$3, excerpt=$4, body=$5, status=$6, tags=$7::jsonb,
			published_at=$8, updated_at=NOW()
		WHERE id=$1
	`, item.ID, item.Title, item.Slug, item.Excerpt, item.Body, item.Status, tags, item.PublishedAt)
	if err != nil {
		return fmt.Errorf("update blog post: %w", err)
	}
	return nil
}

// ---- pages ----

const pageColumns = `id, title, slug, body, status, created_at, updated_at`

func scanPage(row interface{ Scan(...any) error }) (Page, error) {
	var item Page
	err := row.Scan(&item.ID, &item.Title, &item.Slug, &item.Body, &item.Status, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return Page{}, err
	}
	return item, nil
}

func (s *PostgresStore) ListPages(ctx context.Context) ([]Page, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+pageColumns+` FROM pages ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	defer rows.Close()

	items := make([]Page, 0)
	for rows.Next() {
		item, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pages: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetPage(ctx context.Context, id string) (Page, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+pageColumns+` FROM pages WHERE id=$1`, id)
	return scanPage(row)
}

func (s *PostgresStore) InsertPage(ctx context.Context, item Page) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pages (id, title, slug, body, status)
		VALUES ($1, $2, $3, $4, $5)
	`, item.ID, item.Title, item.Slug, item.Body, item.Status)
	if err != nil {
		return fmt.Errorf("insert page: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdatePage(ctx context.Context, item Page) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE pages
		SET title=$2, slug=$3, body=$4, status=$5, updated_at=NOW()
		WHERE id=$1
	`, item.ID, item.Title, item.Slug, item.Body, item.Status)
	if err != nil {
		return fmt.Errorf("update page: %w", err)
	}
	return nil
}

// ---- revisions ----

func (s *PostgresStore) CountRevisions(ctx context.Context, contentType ContentType, contentID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM content_revisions WHERE content_type=$1 AND content_id=$2
	`, contentType, contentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count revisions: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) InsertRevision(ctx context.Context, rev Revision) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO content_revisions (id, content_type, content_id, revision_number, data, created_by)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6)
	`, rev.ID, rev.ContentType, rev.ContentID, rev.RevisionNumber, string(rev.Data), rev.CreatedBy)
	if err != nil {
		return fmt.Errorf("insert revision: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListRevisions(ctx context.Context, contentType ContentType, contentID string) ([]Revision, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, content_type, content_id, revision_number, data, created_by, created_at
		FROM content_revisions
		WHERE content_type=$1 AND content_id=$2
		ORDER BY revision_number DESC
	`, contentType, contentID)
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	defer rows.Close()

	items := make([]Revision, 0)
	for rows.Next() {
		var item Revision
		var data []byte
		if err := rows.Scan(&item.ID, &item.ContentType, &item.ContentID, &item.RevisionNumber, &data, &item.CreatedBy, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan revision: %w", err)
		}
		item.Data = json.RawMessage(data)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate revisions: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetRevision(ctx context.Context, revisionID string) (Revision, error) {
	var item Revision
	var data []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT id, content_type, content_id, revision_number, data, created_by, created_at
		FROM content_revisions WHERE id=$1
	`, revisionID).Scan(&item.ID, &item.ContentType, &item.ContentID, &item.RevisionNumber, &data, &item.CreatedBy, &item.CreatedAt)
	if err != nil {
		return Revision{}, err
	}
	item.Data = json.RawMessage(data)
	return item, nil
}

// ---- redirects ----

func (s *PostgresStore) InsertRedirect(ctx context.Context, redirect Redirect) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO redirects (id, from_path, to_path)
		VALUES ($1, $2, $3)
	`, redirect.ID, redirect.FromPath, redirect.ToPath)
	if err != nil {
		return fmt.Errorf("insert redirect: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListRedirects(ctx context.Context) ([]Redirect, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, from_path, to_path, created_at FROM redirects ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list redirects: %w", err)
	}
	defer rows.Close()

	items := make([]Redirect, 0)
	for rows.Next() {
		var item Redirect
		if err := rows.Scan(&item.ID, &item.FromPath, &item.ToPath, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan redirect: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate redirects: %w", err)
	}
	return items, nil
}

// ResolveRedirect returns the newest redirect whose from_path matches.
func (s *PostgresStore) ResolveRedirect(ctx context.Context, fromPath string) (Redirect, error) {
	var item Redirect
	err := s.db.QueryRowContext(ctx, `
		SELECT id, from_path, to_path, created_at
		FROM redirects WHERE from_path=$1
		ORDER BY created_at DESC LIMIT 1
	`, fromPath).Scan(&item.ID, &item.FromPath, &item.ToPath, &item.CreatedAt)
	if err != nil {
		return Redirect{}, err
	}
	return item, nil
}

// ---- contact messages ----

func (s *PostgresStore) InsertContactMessage(ctx context.Context, msg ContactMessage) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contact_messages (id, name, email, subject, body)
		VALUES ($1, $2, $3, $4, $5)
	`, msg.ID, msg.Name, msg.Email, msg.Subject, msg.Body)
	if err != nil {
		return fmt.Errorf("insert contact message: %w", err)
	}
	return nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	encoded, err := json.Marshal(tags)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}
