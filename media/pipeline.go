package media

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"toolrent-content/storage"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var (
	ErrUnsupportedMedia = errors.New("file is not an image")
	ErrFileTooLarge     = errors.New("file exceeds the maximum image size")
)

// Pipeline moves validated uploads into object storage and cleans them up
// again. Deletes are advisory: failures are logged, never returned.
type Pipeline struct {
	storage           storage.ObjectStorage
	log               zerolog.Logger
	maxImageSize      int64
	deleteConcurrency int
}

type PipelineOption func(*Pipeline)

func WithMaxImageSize(size int64) PipelineOption {
	return func(p *Pipeline) {
		if size > 0 {
			p.maxImageSize = size
		}
	}
}

func WithDeleteConcurrency(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.deleteConcurrency = n
		}
	}
}

func NewPipeline(store storage.ObjectStorage, log zerolog.Logger, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		storage:           store,
		log:               log.With().Str("component", "media").Logger(),
		maxImageSize:      DefaultMaxImageSize,
		deleteConcurrency: 4,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) MaxImageSize() int64 {
	return p.maxImageSize
}

// Check reports why f may not be uploaded, or nil.
func (p *Pipeline) Check(f File) error {
	if !f.IsImage() {
		return fmt.Errorf("%w: %s (%s)", ErrUnsupportedMedia, f.OriginalName, f.DetectedMimeType())
	}
	if f.Size > p.maxImageSize || int64(len(f.Content)) > p.maxImageSize {
		return fmt.Errorf("%w: %s", ErrFileTooLarge, f.OriginalName)
	}
	return nil
}

func (p *Pipeline) UploadOne(ctx context.Context, f File, folder string) (string, error) {
	if err := p.Check(f); err != nil {
		return "", err
	}

	url, err := p.storage.Upload(ctx, f.Reader(), int64(len(f.Content)), f.DetectedMimeType(), f.OriginalName, folder)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", f.OriginalName, err)
	}

	p.log.Debug().Str("file", f.OriginalName).Str("url", url).Msg("File uploaded")
	return url, nil
}

// UploadMany uploads files in order. On failure the blobs already written by
// this call are removed before the error is returned.
func (p *Pipeline) UploadMany(ctx context.Context, files []File, folder string) ([]string, error) {
	urls := make([]string, 0, len(files))
	for _, f := range files {
		url, err := p.UploadOne(ctx, f, folder)
		if err != nil {
			p.DeleteManyByURL(ctx, urls)
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}

// Owns reports whether url is hosted by the configured storage.
func (p *Pipeline) Owns(url string) bool {
	return url != "" && p.storage.Owns(url)
}

// DeleteByURL removes a storage-hosted blob. URLs hosted elsewhere are ignored.
func (p *Pipeline) DeleteByURL(ctx context.Context, url string) {
	if !p.Owns(url) {
		return
	}
	if err := p.storage.Delete(ctx, url); err != nil {
		p.log.Warn().Err(err).Str("url", url).Msg("Failed to delete media, leaving orphaned blob")
		return
	}
	p.log.Debug().Str("url", url).Msg("Media deleted")
}

// DeleteManyByURL deletes blobs concurrently. Each delete is independent; a
// failing one does not stop the others.
func (p *Pipeline) DeleteManyByURL(ctx context.Context, urls []string) {
	seen := make(map[string]struct{}, len(urls))
	var g errgroup.Group
	g.SetLimit(p.deleteConcurrency)

	var mu sync.Mutex
	failed := 0
	for _, url := range urls {
		if _, dup := seen[url]; dup || !p.Owns(url) {
			continue
		}
		seen[url] = struct{}{}

		url := url
		g.Go(func() error {
			if err := p.storage.Delete(ctx, url); err != nil {
				p.log.Warn().Err(err).Str("url", url).Msg("Failed to delete media, leaving orphaned blob")
				mu.Lock()
				failed++
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if failed > 0 {
		p.log.Warn().Int("failed", failed).Int("total", len(seen)).Msg("Media cleanup finished with failures")
	}
}
