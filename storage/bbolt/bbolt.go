// Package bbolt provides a BBolt-backed storage repository.
package bbolt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmcleod/lela/storage"
	"go.etcd.io/bbolt"
)

var storiesBucket = []byte("stories")

// Store implements storage.Repository backed by a BBolt database. Stories
// are JSON documents keyed by slug in a single bucket.
type Store struct {
	db  *bbolt.DB
	now func() time.Time
}

var _ storage.Repository = (*Store)(nil)

// NewRepository returns a Repository backed by the given BBolt database.
func NewRepository(db *bbolt.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// NewRepositoryFromFile opens a BBolt database at the given path and returns a new Repository.
func NewRepositoryFromFile(path string, options *bbolt.Options) (*Store, error) {
	db, err := bbolt.Open(path, 0600, options)
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}
	return NewRepository(db), nil
}

// Close closes the underlying BBolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

func getStory(b *bbolt.Bucket, slug string) (*storage.Story, error) {
	data := b.Get([]byte(slug))
	if data == nil {
		return nil, fmt.Errorf("%s: %w", slug, storage.ErrNotFound)
	}
	var story storage.Story
	if err := json.Unmarshal(data, &story); err != nil {
		return nil, fmt.Errorf("decoding story %s: %w", slug, err)
	}
	return &story, nil
}

func (s *Store) Upsert(_ context.Context, story *storage.Story) (*storage.Story, error) {
	var stored *storage.Story
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(storiesBucket)
		if err != nil {
			return err
		}
		var existing *storage.Story
		if b.Get([]byte(story.Slug)) != nil {
			if existing, err = getStory(b, story.Slug); err != nil {
				return err
			}
		}
		stored = storage.Merge(existing, story, s.now().UTC())
		data, err := json.Marshal(stored)
		if err != nil {
			return err
		}
		return b.Put([]byte(stored.Slug), data)
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (s *Store) Get(_ context.Context, slug string) (*storage.Story, error) {
	var story *storage.Story
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(storiesBucket)
		if b == nil {
			return fmt.Errorf("%s: %w", slug, storage.ErrNotFound)
		}
		var err error
		story, err = getStory(b, slug)
		return err
	})
	if err != nil {
		return nil, err
	}
	return story, nil
}

func (s *Store) List(_ context.Context, status storage.Status) ([]*storage.Story, error) {
	stories := []*storage.Story{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(storiesBucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var story storage.Story
			if err := json.Unmarshal(v, &story); err != nil {
				return fmt.Errorf("decoding story %s: %w", k, err)
			}
			if status == "" || story.Status == status {
				stories = append(stories, &story)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	storage.SortNewestFirst(stories)
	return stories, nil
}

func (s *Store) Delete(_ context.Context, slug string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(storiesBucket)
		if b == nil || b.Get([]byte(slug)) == nil {
			return fmt.Errorf("%s: %w", slug, storage.ErrNotFound)
		}
		return b.Delete([]byte(slug))
	})
}
