// Package postgres implements storage.Repository backed by PostgreSQL.
//
// Stories live in a single table keyed by slug, matching the natural key
// used by the BBolt and in-memory backends. Optional fields map to nullable
// TEXT columns.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jmcleod/lela/storage"
)

const storyColumns = `id, slug, title, excerpt, content, cover_image_url, status, created_at, updated_at`

// Store implements storage.Repository backed by PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

var _ storage.Repository = (*Store)(nil)

// NewRepository returns a Repository backed by the given pgx connection pool.
func NewRepository(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// NewRepositoryFromDSN creates a connection pool from a DSN string, ensures
// the schema exists, and returns a new Repository.
func NewRepositoryFromDSN(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}
	return NewRepository(pool), nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

func scanStory(row pgx.Row) (*storage.Story, error) {
	var st storage.Story
	var status string
	err := row.Scan(&st.ID, &st.Slug, &st.Title, &st.Excerpt, &st.Content,
		&st.CoverImageURL, &status, &st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		return nil, err
	}
	st.Status = storage.Status(status)
	st.CreatedAt = st.CreatedAt.UTC()
	st.UpdatedAt = st.UpdatedAt.UTC()
	return &st, nil
}

// Upsert inserts the story or, on a slug conflict, replaces its content
// while keeping id and created_at.
func (s *Store) Upsert(ctx context.Context, story *storage.Story) (*storage.Story, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO stories (id, slug, title, excerpt, content, cover_image_url, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (slug)
		 DO UPDATE SET title = $3, excerpt = $4, content = $5, cover_image_url = $6,
		               status = $7, updated_at = now()
		 RETURNING `+storyColumns,
		story.ID, story.Slug, story.Title, story.Excerpt, story.Content,
		story.CoverImageURL, string(story.Status))
	stored, err := scanStory(row)
	if err != nil {
		return nil, fmt.Errorf("upserting story %s: %w", story.Slug, err)
	}
	return stored, nil
}

func (s *Store) Get(ctx context.Context, slug string) (*storage.Story, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+storyColumns+` FROM stories WHERE slug = $1`, slug)
	st, err := scanStory(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", slug, storage.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return st, nil
}

func (s *Store) List(ctx context.Context, status storage.Status) ([]*storage.Story, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+storyColumns+` FROM stories
		 WHERE $1 = '' OR status = $1
		 ORDER BY created_at DESC, slug`, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stories := []*storage.Story{}
	for rows.Next() {
		st, err := scanStory(rows)
		if err != nil {
			return nil, err
		}
		stories = append(stories, st)
	}
	return stories, rows.Err()
}

func (s *Store) Delete(ctx context.Context, slug string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM stories WHERE slug = $1`, slug)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", slug, storage.ErrNotFound)
	}
	return nil
}
