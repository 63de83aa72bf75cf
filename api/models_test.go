package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcleod/lela/storage"
)

func strPtr(s string) *string { return &s }

func TestStoryRequestValidate(t *testing.T) {
	t.Run("slug from title", func(t *testing.T) {
		story, err := StoryRequest{Title: "Hello, World!", Content: "body"}.Validate()
		require.NoError(t, err)
		assert.Equal(t, "hello-world", story.Slug)
		assert.Equal(t, storage.StatusDraft, story.Status)
		assert.Nil(t, story.CoverImageURL)
		assert.Nil(t, story.Excerpt)
	})

	t.Run("explicit slug is normalised", func(t *testing.T) {
		story, err := StoryRequest{Title: "T", Slug: strPtr("  My Custom Slug "), Content: "c"}.Validate()
		require.NoError(t, err)
		assert.Equal(t, "my-custom-slug", story.Slug)
	})

	t.Run("blank slug falls back to title", func(t *testing.T) {
		story, err := StoryRequest{Title: "Title Here", Slug: strPtr("   "), Content: "c"}.Validate()
		require.NoError(t, err)
		assert.Equal(t, "title-here", story.Slug)
	})

	t.Run("published status", func(t *testing.T) {
		story, err := StoryRequest{Title: "T", Content: "c", Status: "published"}.Validate()
		require.NoError(t, err)
		assert.Equal(t, storage.StatusPublished, story.Status)
	})

	t.Run("unknown status is draft", func(t *testing.T) {
		story, err := StoryRequest{Title: "T", Content: "c", Status: "scheduled"}.Validate()
		require.NoError(t, err)
		assert.Equal(t, storage.StatusDraft, story.Status)
	})

	t.Run("blank cover is null", func(t *testing.T) {
		story, err := StoryRequest{Title: "T", Content: "c", CoverImageURL: strPtr("  ")}.Validate()
		require.NoError(t, err)
		assert.Nil(t, story.CoverImageURL)
	})

	t.Run("cover and excerpt kept", func(t *testing.T) {
		story, err := StoryRequest{
			Title: "T", Content: "c",
			CoverImageURL: strPtr("https://example.com/c.png"),
			Excerpt:       strPtr("teaser"),
		}.Validate()
		require.NoError(t, err)
		require.NotNil(t, story.CoverImageURL)
		assert.Equal(t, "https://example.com/c.png", *story.CoverImageURL)
		require.NotNil(t, story.Excerpt)
		assert.Equal(t, "teaser", *story.Excerpt)
	})

	for name, req := range map[string]StoryRequest{
		"missing title":   {Content: "c"},
		"missing content": {Title: "T"},
		"blank title":     {Title: "   ", Content: "c"},
		"no usable slug":  {Title: "!!!", Content: "c"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := req.Validate()
			var invalid *validationError
			assert.ErrorAs(t, err, &invalid)
		})
	}
}

func TestLoginRequestCandidate(t *testing.T) {
	assert.Equal(t, "", LoginRequest{}.candidate())
	assert.Equal(t, "s3cret", LoginRequest{Secret: strPtr("s3cret")}.candidate())
}
