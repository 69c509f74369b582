package media

import (
	"context"
	"fmt"
	"html"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

var (
	placeholderPattern = regexp.MustCompile(`\{\{IMAGE_(\d+)\}\}`)
	imageSrcPattern    = regexp.MustCompile(`<img src="([^"]*)"`)
)

type uploader interface {
	UploadOne(ctx context.Context, f File, folder string) (string, error)
}

// PlaceholderResolver replaces {{IMAGE_n}} markers in legacy free-text content
// with <img> tags pointing at the uploaded n-th secondary file.
type PlaceholderResolver struct {
	uploader uploader
	log      zerolog.Logger
}

func NewPlaceholderResolver(u uploader, log zerolog.Logger) *PlaceholderResolver {
	return &PlaceholderResolver{
		uploader: u,
		log:      log.With().Str("component", "placeholder").Logger(),
	}
}

// Resolve returns the rewritten content and the URLs it uploaded. Markers
// without a file, or whose upload fails, stay in the text unchanged.
func (r *PlaceholderResolver) Resolve(ctx context.Context, content string, files []File, folder string) (string, []string) {
	matches := placeholderPattern.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return content, nil
	}

	resolved := make(map[int]string)
	failed := make(map[int]bool)
	var uploaded []string

	var b strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		b.WriteString(content[last:start])
		last = end

		marker := content[start:end]
		n, err := strconv.Atoi(content[m[2]:m[3]])
		if err != nil || n < 0 || n >= len(files) || failed[n] {
			b.WriteString(marker)
			continue
		}

		url, ok := resolved[n]
		if !ok {
			url, err = r.uploader.UploadOne(ctx, files[n], folder)
			if err != nil {
				r.log.Warn().Err(err).Str("marker", marker).Msg("Leaving inline image marker unresolved")
				failed[n] = true
				b.WriteString(marker)
				continue
			}
			resolved[n] = url
			uploaded = append(uploaded, url)
		}
		b.WriteString(imageTag(url, altText(files[n], n)))
	}
	b.WriteString(content[last:])

	return b.String(), uploaded
}

func imageTag(url, alt string) string {
	return fmt.Sprintf(`<img src="%s" alt="%s" />`, html.EscapeString(url), html.EscapeString(alt))
}

func altText(f File, n int) string {
	name := strings.TrimSpace(strings.TrimSuffix(path.Base(f.OriginalName), path.Ext(f.OriginalName)))
	if name == "" || name == "." || name == "/" {
		return "Image " + strconv.Itoa(n+1)
	}
	return strings.NewReplacer("_", " ", "-", " ").Replace(name)
}

// InlineImageURLs lists the src of every <img> tag in content, in order of
// appearance. Hand-written tags are included, so callers must intersect the
// result with the uploads they own before deleting anything.
func InlineImageURLs(content string) []string {
	matches := imageSrcPattern.FindAllStringSubmatch(content, -1)
	urls := make([]string, 0, len(matches))
	for _, m := range matches {
		urls = append(urls, html.UnescapeString(m[1]))
	}
	return urls
}
