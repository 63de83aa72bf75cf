// Package memory provides a thread-safe in-memory implementation of storage.Repository.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jmcleod/lela/storage"
)

// Repository is a thread-safe in-memory implementation of storage.Repository.
// Suitable for testing, demos, and single-process use cases.
type Repository struct {
	mu   sync.RWMutex
	data map[string]*storage.Story
	now  func() time.Time
}

var _ storage.Repository = (*Repository)(nil)

// NewRepository creates a new empty in-memory Repository.
func NewRepository() *Repository {
	return &Repository{
		data: make(map[string]*storage.Story),
		now:  time.Now,
	}
}

func (r *Repository) Upsert(_ context.Context, story *storage.Story) (*storage.Story, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := storage.Merge(r.data[story.Slug], story, r.now().UTC())
	r.data[stored.Slug] = stored
	return stored.Clone(), nil
}

func (r *Repository) Get(_ context.Context, slug string) (*storage.Story, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.data[slug]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return s.Clone(), nil
}

func (r *Repository) List(_ context.Context, status storage.Status) ([]*storage.Story, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stories := make([]*storage.Story, 0, len(r.data))
	for _, s := range r.data {
		if status != "" && s.Status != status {
			continue
		}
		stories = append(stories, s.Clone())
	}
	storage.SortNewestFirst(stories)
	return stories, nil
}

func (r *Repository) Delete(_ context.Context, slug string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[slug]; !ok {
		return storage.ErrNotFound
	}
	delete(r.data, slug)
	return nil
}
