package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewObjectKey(t *testing.T) {
	t.Run("KeepsFolderAndExtension", func(t *testing.T) {
		key := NewObjectKey("articles", "Drill Press.JPG")
		assert.True(t, strings.HasPrefix(key, "articles/"))
		assert.True(t, strings.HasSuffix(key, ".jpg"))
	})

	t.Run("SanitizesFolder", func(t *testing.T) {
		key := NewObjectKey("/Articles Inline/", "a.png")
		assert.True(t, strings.HasPrefix(key, "articles-inline/"), key)
	})

	t.Run("DropsSuspiciousExtension", func(t *testing.T) {
		key := NewObjectKey("articles", "evil.p h p")
		assert.NotContains(t, key, " ")
	})

	t.Run("Unique", func(t *testing.T) {
		assert.NotEqual(t, NewObjectKey("a", "x.png"), NewObjectKey("a", "x.png"))
	})
}

func TestURLMapper_RoundTrip(t *testing.T) {
	m := NewURLMapper("https://cdn.example.com/media/")

	key := "articles/inline/0b8e.webp"
	url := m.URL(key)
	assert.Equal(t, "https://cdn.example.com/media/articles/inline/0b8e.webp", url)

	got, err := m.Key(url)
	require.NoError(t, err)
	assert.Equal(t, key, got)

	got, err = m.Key(url + "?v=2")
	require.NoError(t, err)
	assert.Equal(t, key, got)
}

func TestURLMapper_ForeignURL(t *testing.T) {
	m := NewURLMapper("https://cdn.example.com/media")

	_, err := m.Key("https://elsewhere.example.com/media/a.png")
	assert.ErrorIs(t, err, ErrForeignURL)
	assert.False(t, m.Owns("https://cdn.example.com/mediaX/a.png"))
	assert.False(t, m.Owns("https://cdn.example.com/media/"))
	assert.True(t, m.Owns("https://cdn.example.com/media/a.png"))
}

func TestMemoryStorage(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage("https://cdn.test/media")

	url, err := s.Upload(ctx, strings.NewReader("png-bytes"), 9, "image/png", "saw.png", "articles")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://cdn.test/media/articles/"))
	assert.True(t, s.Exists(url))
	assert.True(t, s.Owns(url))
	assert.Equal(t, 1, s.Len())

	require.NoError(t, s.Delete(ctx, url))
	assert.False(t, s.Exists(url))

	// idempotent
	require.NoError(t, s.Delete(ctx, url))

	err = s.Delete(ctx, "https://other.test/a.png")
	assert.ErrorIs(t, err, ErrForeignURL)
}

func TestNewS3Storage_Configuration(t *testing.T) {
	t.Run("EmptyBucket", func(t *testing.T) {
		_, err := NewS3Storage(context.Background(), S3Config{Region: "us-east-1"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket name is required")
	})

	t.Run("DefaultPublicURL", func(t *testing.T) {
		backend, err := NewS3Storage(context.Background(), S3Config{
			Bucket:          "toolrent-media",
			AccessKeyID:     "test-key",
			SecretAccessKey: "test-secret",
		})
		require.NoError(t, err)
		assert.True(t, backend.Owns("https://toolrent-media.s3.us-east-1.amazonaws.com/articles/a.png"))
	})

	t.Run("CustomEndpoint", func(t *testing.T) {
		backend, err := NewS3Storage(context.Background(), S3Config{
			Bucket:          "media",
			Endpoint:        "http://localhost:9000/",
			UsePathStyle:    true,
			AccessKeyID:     "minioadmin",
			SecretAccessKey: "minioadmin",
		})
		require.NoError(t, err)
		assert.True(t, backend.Owns("http://localhost:9000/media/articles/a.png"))
		assert.False(t, backend.Owns("http://localhost:9000/other/articles/a.png"))
	})
}
