package bbolt

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmcleod/lela/storage"
	"go.etcd.io/bbolt"
)

func newTestDB(t *testing.T) (*bbolt.DB, func()) {
	t.Helper()
	f, err := os.CreateTemp("", "stories-test-*.db")
	if err != nil {
		t.Fatalf("could not create temp file: %v", err)
	}
	path := f.Name()
	f.Close()

	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		os.Remove(path)
		t.Fatalf("could not open db: %v", err)
	}
	return db, func() {
		db.Close()
		os.Remove(path)
	}
}

func TestBBoltStorage(t *testing.T) {
	db, cleanup := newTestDB(t)
	defer cleanup()

	ctx := context.Background()
	s := NewRepository(db)
	clock := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	t.Run("GetEmpty", func(t *testing.T) {
		_, err := s.Get(ctx, "missing")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		stories, err := s.List(ctx, "")
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(stories) != 0 {
			t.Errorf("expected no stories, got %d", len(stories))
		}
	})

	t.Run("UpsertGet", func(t *testing.T) {
		cover := "https://example.com/cover.png"
		_, err := s.Upsert(ctx, &storage.Story{
			ID:            "id-1",
			Slug:          "first",
			Title:         "First",
			Content:       "body",
			CoverImageURL: &cover,
			Status:        storage.StatusPublished,
		})
		if err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}

		got, err := s.Get(ctx, "first")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.ID != "id-1" || got.CoverImageURL == nil || *got.CoverImageURL != cover {
			t.Errorf("Get returned wrong story: %+v", got)
		}
		if !got.CreatedAt.Equal(clock) {
			t.Errorf("expected CreatedAt %v, got %v", clock, got.CreatedAt)
		}
	})

	t.Run("UpsertKeepsIdentity", func(t *testing.T) {
		clock = clock.Add(time.Minute)
		stored, err := s.Upsert(ctx, &storage.Story{ID: "id-new", Slug: "first", Title: "First v2", Content: "body", Status: storage.StatusDraft})
		if err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
		if stored.ID != "id-1" {
			t.Errorf("expected ID id-1, got %q", stored.ID)
		}
		if stored.CoverImageURL != nil {
			t.Errorf("expected cover cleared, got %v", *stored.CoverImageURL)
		}
		if !stored.UpdatedAt.Equal(clock) || stored.CreatedAt.Equal(clock) {
			t.Errorf("unexpected timestamps: created %v updated %v", stored.CreatedAt, stored.UpdatedAt)
		}
	})

	t.Run("List", func(t *testing.T) {
		clock = clock.Add(time.Minute)
		s.Upsert(ctx, &storage.Story{ID: "id-2", Slug: "second", Title: "Second", Content: "c", Status: storage.StatusDraft})

		drafts, err := s.List(ctx, storage.StatusDraft)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(drafts) != 2 || drafts[0].Slug != "second" {
			t.Errorf("unexpected drafts: %+v", drafts)
		}
		published, _ := s.List(ctx, storage.StatusPublished)
		if len(published) != 0 {
			t.Errorf("expected no published stories, got %d", len(published))
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := s.Delete(ctx, "second"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if err := s.Delete(ctx, "second"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestNewRepositoryFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stories.db")
	s, err := NewRepositoryFromFile(path, nil)
	if err != nil {
		t.Fatalf("NewRepositoryFromFile failed: %v", err)
	}
	if _, err := s.Upsert(context.Background(), &storage.Story{ID: "id", Slug: "kept", Title: "t", Content: "c"}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	s, err = NewRepositoryFromFile(path, nil)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()
	if _, err := s.Get(context.Background(), "kept"); err != nil {
		t.Errorf("expected story to survive reopen: %v", err)
	}
}
