// Package storage uploads and deletes media blobs and maps them to stable
// public URLs. A URL always embeds its object key, so the key can be derived
// back from the URL when the blob has to be deleted.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// ErrForeignURL is returned when a URL does not belong to the configured store.
var ErrForeignURL = errors.New("url is not hosted by this storage")

// ObjectStorage is the contract the media pipeline consumes.
type ObjectStorage interface {
	// Upload stores body under a fresh key inside folder and returns its public URL.
	Upload(ctx context.Context, body io.Reader, size int64, mimeType, originalName, folder string) (string, error)
	// Delete removes the object behind url. Deleting a missing object is not an error.
	Delete(ctx context.Context, url string) error
	// Owns reports whether url points into this storage.
	Owns(url string) bool
}

var unsafeKeyChars = regexp.MustCompile(`[^a-z0-9._/-]+`)

// NewObjectKey builds "<folder>/<uuid><ext>" from the original file name.
func NewObjectKey(folder, originalName string) string {
	folder = strings.Trim(unsafeKeyChars.ReplaceAllString(strings.ToLower(folder), "-"), "/")
	ext := strings.ToLower(path.Ext(originalName))
	if len(ext) > 10 || unsafeKeyChars.MatchString(ext) {
		ext = ""
	}
	key := uuid.NewString() + ext
	if folder == "" {
		return key
	}
	return folder + "/" + key
}

// URLMapper converts object keys to public URLs and back.
type URLMapper struct {
	baseURL string
}

func NewURLMapper(baseURL string) URLMapper {
	return URLMapper{baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (m URLMapper) URL(key string) string {
	parts := strings.Split(key, "/")
	for i := range parts {
		parts[i] = url.PathEscape(parts[i])
	}
	return m.baseURL + "/" + strings.Join(parts, "/")
}

// Key returns the object key embedded in rawURL.
func (m URLMapper) Key(rawURL string) (string, error) {
	prefix := m.baseURL + "/"
	if !strings.HasPrefix(rawURL, prefix) {
		return "", fmt.Errorf("%w: %s", ErrForeignURL, rawURL)
	}
	escaped := strings.TrimPrefix(rawURL, prefix)
	if i := strings.IndexAny(escaped, "?#"); i >= 0 {
		escaped = escaped[:i]
	}
	key, err := url.PathUnescape(escaped)
	if err != nil {
		return "", fmt.Errorf("decode object key: %w", err)
	}
	if key == "" {
		return "", fmt.Errorf("%w: empty key in %s", ErrForeignURL, rawURL)
	}
	return key, nil
}

func (m URLMapper) Owns(rawURL string) bool {
	_, err := m.Key(rawURL)
	return err == nil
}
