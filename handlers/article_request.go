package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"toolrent-content/media"
	"toolrent-content/models"

	"github.com/gin-gonic/gin"
)

// requestError is a malformed article request. It is reported as 400, or 413
// when the body is over the upload cap, before any validation runs.
type requestError struct {
	message  string
	tooLarge bool
}

func (e *requestError) Error() string {
	return e.message
}

func badRequest(format string, args ...interface{}) error {
	return &requestError{message: fmt.Sprintf(format, args...)}
}

const (
	// sniffLength is as much of an oversize part as MIME detection reads.
	sniffLength = 3072
	// formOverhead leaves room for the scalar fields and part headers.
	formOverhead int64 = 1 << 20
)

// uploadLimits bound what one article request may hold in memory.
type uploadLimits struct {
	maxMemory    int64
	maxImageSize int64
}

// maxBodySize is every file slot at the image size limit plus the form.
func (l uploadLimits) maxBodySize() int64 {
	slots := int64(media.MaxMainImageFiles + media.MaxAdditionalFiles + media.MaxLegacyFiles)
	return slots*l.maxImageSize + formOverhead
}

func bodyTooLarge(limit int64) error {
	return &requestError{message: fmt.Sprintf("request body exceeds %d bytes", limit), tooLarge: true}
}

func asBodyError(err error, limit int64, format string) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return bodyTooLarge(limit)
	}
	return badRequest(format, err)
}

var fileGroupLimits = []struct {
	field string
	max   int
}{
	{media.FieldMainImage, media.MaxMainImageFiles},
	{media.FieldAdditionalImages, media.MaxAdditionalFiles},
	{media.FieldLegacyFiles, media.MaxLegacyFiles},
}

// parseArticleRequest reads an article payload from either a multipart form
// or a JSON body.
func parseArticleRequest(c *gin.Context, limits uploadLimits) (models.ArticleInput, media.FileGroups, error) {
	maxBody := limits.maxBodySize()
	if c.Request.ContentLength > maxBody {
		return models.ArticleInput{}, media.FileGroups{}, bodyTooLarge(maxBody)
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBody)

	if strings.HasPrefix(c.ContentType(), gin.MIMEMultipartPOSTForm) {
		return parseMultipartArticle(c, limits)
	}

	input, err := decodeArticleJSON(c.Request.Body, maxBody)
	return input, media.FileGroups{}, err
}

func decodeArticleJSON(body io.Reader, maxBody int64) (models.ArticleInput, error) {
	var payload struct {
		models.ArticleInput
		Sections json.RawMessage `json:"sections"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return models.ArticleInput{}, asBodyError(err, maxBody, "invalid JSON body: %v")
	}

	input := payload.ArticleInput
	if err := applySections(&input, payload.Sections); err != nil {
		return models.ArticleInput{}, err
	}
	return input, nil
}

func applySections(input *models.ArticleInput, raw []byte) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	var sections []models.SectionInput
	if err := json.Unmarshal(raw, &sections); err != nil {
		return badRequest("sections must be a JSON array of sections: %v", err)
	}
	if sections == nil {
		sections = []models.SectionInput{}
	}
	input.Sections = sections
	input.HasSections = true
	return nil
}

func parseMultipartArticle(c *gin.Context, limits uploadLimits) (models.ArticleInput, media.FileGroups, error) {
	var input models.ArticleInput
	var groups media.FileGroups

	if err := c.Request.ParseMultipartForm(limits.maxMemory); err != nil {
		return input, groups, asBodyError(err, limits.maxBodySize(), "invalid multipart form: %v")
	}
	defer c.Request.MultipartForm.RemoveAll()
	form := c.Request.MultipartForm

	input.Title = formValue(form, "title")
	input.Content = formValue(form, "content")
	input.Summary = formValue(form, "summary")
	input.Category = formValue(form, "category")
	input.MainImageURL = formValue(form, "main_image_url")

	var err error
	if input.IsPublic, err = formBool(form, "is_public"); err != nil {
		return input, groups, err
	}
	if input.IsFeatured, err = formBool(form, "is_featured"); err != nil {
		return input, groups, err
	}
	replace, err := formBool(form, "replace_main_image")
	if err != nil {
		return input, groups, err
	}
	input.ReplaceMainImage = replace != nil && *replace

	if sections := formValue(form, "sections"); sections != nil {
		if err := applySections(&input, []byte(*sections)); err != nil {
			return input, groups, err
		}
	}

	for _, limit := range fileGroupLimits {
		headers := form.File[limit.field]
		if len(headers) > limit.max {
			return input, groups, badRequest("at most %d file(s) allowed in %s", limit.max, limit.field)
		}

		files := make([]media.File, 0, len(headers))
		for _, fh := range headers {
			f, err := readFormFile(limit.field, fh, limits.maxImageSize)
			if err != nil {
				return input, groups, err
			}
			files = append(files, f)
		}

		switch limit.field {
		case media.FieldMainImage:
			groups.MainImage = files
		case media.FieldAdditionalImages:
			groups.AdditionalImages = files
		case media.FieldLegacyFiles:
			groups.LegacyFiles = files
		}
	}

	return input, groups, nil
}

func formValue(form *multipart.Form, key string) *string {
	values, ok := form.Value[key]
	if !ok || len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}

func formBool(form *multipart.Form, key string) (*bool, error) {
	raw := formValue(form, key)
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(strings.TrimSpace(*raw))
	if err != nil {
		return nil, badRequest("%s must be a boolean", key)
	}
	return &v, nil
}

// readFormFile copies a part into memory. A part over maxImageSize is only
// read far enough to sniff its type; Size still carries the real length so
// validation reports it as too large.
func readFormFile(field string, fh *multipart.FileHeader, maxImageSize int64) (media.File, error) {
	src, err := fh.Open()
	if err != nil {
		return media.File{}, fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer src.Close()

	var r io.Reader = src
	if fh.Size > maxImageSize {
		r = io.LimitReader(src, sniffLength)
	}

	content, err := io.ReadAll(r)
	if err != nil {
		return media.File{}, fmt.Errorf("read upload %s: %w", fh.Filename, err)
	}

	return media.File{
		FieldName:    field,
		OriginalName: fh.Filename,
		MimeType:     fh.Header.Get("Content-Type"),
		Size:         fh.Size,
		Content:      content,
	}, nil
}
