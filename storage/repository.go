// Package storage provides the storage abstraction layer for stories.
package storage

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"
)

// ErrNotFound is returned when no story exists for a slug.
var ErrNotFound = errors.New("story not found")

// Status is the publication state of a story.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// ParseStatus maps anything other than "published" to StatusDraft.
func ParseStatus(s string) Status {
	if Status(s) == StatusPublished {
		return StatusPublished
	}
	return StatusDraft
}

// Story is a single article. Slug is the natural key.
type Story struct {
	ID            string    `json:"id"`
	Slug          string    `json:"slug"`
	Title         string    `json:"title"`
	Excerpt       *string   `json:"excerpt"`
	Content       string    `json:"content"`
	CoverImageURL *string   `json:"cover_image_url"`
	Status        Status    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Clone returns a deep copy of s.
func (s *Story) Clone() *Story {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Excerpt = cloneString(s.Excerpt)
	cp.CoverImageURL = cloneString(s.CoverImageURL)
	return &cp
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Repository defines the interface for story storage.
type Repository interface {
	// Upsert inserts story, or replaces the story with the same slug. On
	// replace the existing ID and CreatedAt are kept. The stored story is
	// returned.
	Upsert(ctx context.Context, story *Story) (*Story, error)
	// Get returns the story with the given slug or ErrNotFound.
	Get(ctx context.Context, slug string) (*Story, error)
	// List returns stories with the given status, newest first. An empty
	// status lists every story.
	List(ctx context.Context, status Status) ([]*Story, error)
	// Delete removes the story with the given slug or returns ErrNotFound.
	Delete(ctx context.Context, slug string) error
}

// Merge prepares incoming for storage over existing (which may be nil):
// identity and creation time are carried over, UpdatedAt is set to now.
func Merge(existing, incoming *Story, now time.Time) *Story {
	out := incoming.Clone()
	out.UpdatedAt = now
	if existing != nil {
		out.ID = existing.ID
		out.CreatedAt = existing.CreatedAt
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = now
	}
	return out
}

// SortNewestFirst orders stories by CreatedAt descending, then by slug.
func SortNewestFirst(stories []*Story) {
	slices.SortFunc(stories, func(a, b *Story) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.Slug, b.Slug)
	})
}
