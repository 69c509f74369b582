package validation

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"unicode/utf8"

	"toolrent-content/media"
	"toolrent-content/models"

	"gopkg.in/go-playground/validator.v9"
	"gorm.io/gorm"
)

const (
	TitleMinLength        = 5
	TitleMaxLength        = 200
	SectionTitleMinLength = 3
	ParagraphMinLength    = 10
)

var allowedImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// CategoryResolver looks a category up by numeric id or by name.
type CategoryResolver interface {
	ResolveByIDOrName(ctx context.Context, ref string) (*models.Category, error)
}

// ContentValidator checks an article submission and collects every violation
// into one report.
type ContentValidator struct {
	categories   CategoryResolver
	validate     *validator.Validate
	maxImageSize int64
}

func NewContentValidator(categories CategoryResolver, maxImageSize int64) *ContentValidator {
	if maxImageSize <= 0 {
		maxImageSize = media.DefaultMaxImageSize
	}
	return &ContentValidator{
		categories:   categories,
		validate:     validator.New(),
		maxImageSize: maxImageSize,
	}
}

// Validate checks a complete create payload. The returned category is the
// resolved one when the category reference is valid. The error is only set
// when the category lookup itself failed; rule violations go into the report.
func (v *ContentValidator) Validate(ctx context.Context, input models.ArticleInput, files []media.File) (*models.ValidationReport, *models.Category, error) {
	report := models.NewValidationReport()

	v.checkTitle(report, input.Title)

	hasContent := input.Content != nil && strings.TrimSpace(*input.Content) != ""
	if !hasContent && len(input.Sections) == 0 {
		report.Add("content", models.CodeContentRequired, "content is required when no sections are given")
		report.Add("sections", models.CodeSectionsRequired, "at least one section is required when no content is given")
	}
	v.checkSections(report, input.Sections)

	category, err := v.checkCategory(ctx, report, input.Category)
	if err != nil {
		return nil, nil, err
	}

	v.checkFiles(report, files)
	return report, category, nil
}

// ValidatePartial checks only the fields present in an update payload.
func (v *ContentValidator) ValidatePartial(ctx context.Context, input models.ArticleInput, files []media.File) (*models.ValidationReport, *models.Category, error) {
	report := models.NewValidationReport()

	if input.Title != nil {
		v.checkTitle(report, input.Title)
	}
	if input.HasSections {
		v.checkSections(report, input.Sections)
	}

	var category *models.Category
	if input.Category != nil {
		var err error
		if category, err = v.checkCategory(ctx, report, input.Category); err != nil {
			return nil, nil, err
		}
	}

	v.checkFiles(report, files)
	return report, category, nil
}

func (v *ContentValidator) checkTitle(report *models.ValidationReport, title *string) {
	if title == nil || strings.TrimSpace(*title) == "" {
		report.Add("title", models.CodeTitleRequired, "title is required")
		return
	}

	n := utf8.RuneCountInString(strings.TrimSpace(*title))
	switch {
	case n < TitleMinLength:
		report.Add("title", models.CodeTitleTooShort, fmt.Sprintf("title must be at least %d characters", TitleMinLength))
	case n > TitleMaxLength:
		report.Add("title", models.CodeTitleTooLong, fmt.Sprintf("title must be at most %d characters", TitleMaxLength))
	}
}

func (v *ContentValidator) checkSections(report *models.ValidationReport, sections []models.SectionInput) {
	for i, section := range sections {
		prefix := fmt.Sprintf("sections[%d]", i)

		if utf8.RuneCountInString(strings.TrimSpace(section.Title)) < SectionTitleMinLength {
			report.Add(prefix+".title", models.CodeSectionTitleTooShort,
				fmt.Sprintf("section title must be at least %d characters", SectionTitleMinLength))
		}
		checkOrderIndex(report, prefix, section.OrderIndex)

		for j, p := range section.Paragraphs {
			field := fmt.Sprintf("%s.paragraphs[%d]", prefix, j)
			if utf8.RuneCountInString(strings.TrimSpace(p.Content)) < ParagraphMinLength {
				report.Add(field+".content", models.CodeParagraphTooShort,
					fmt.Sprintf("paragraph must be at least %d characters", ParagraphMinLength))
			}
			checkOrderIndex(report, field, p.OrderIndex)
		}

		for j, img := range section.Images {
			field := fmt.Sprintf("%s.images[%d]", prefix, j)
			if !v.isImageURL(img.URL) {
				report.Add(field+".url", models.CodeSectionImageURLInvalid,
					"image url must be an http(s) link to a .jpg, .jpeg, .png or .webp file")
			}
			checkOrderIndex(report, field, img.OrderIndex)
		}
	}
}

func checkOrderIndex(report *models.ValidationReport, prefix string, idx *int) {
	if idx != nil && *idx < 0 {
		report.Add(prefix+".order_index", models.CodeOrderIndexInvalid, "order index must not be negative")
	}
}

func (v *ContentValidator) isImageURL(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" || v.validate.Var(raw, "url") != nil {
		return false
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return false
	}
	return allowedImageExtensions[strings.ToLower(path.Ext(u.Path))]
}

func (v *ContentValidator) checkCategory(ctx context.Context, report *models.ValidationReport, ref *string) (*models.Category, error) {
	if ref == nil || strings.TrimSpace(*ref) == "" {
		report.Add("category", models.CodeCategoryRequired, "category is required")
		return nil, nil
	}

	category, err := v.categories.ResolveByIDOrName(ctx, strings.TrimSpace(*ref))
	if err != nil {
		var notFound *models.ErrorNotFound
		if errors.As(err, &notFound) || errors.Is(err, gorm.ErrRecordNotFound) {
			report.Add("category", models.CodeCategoryNotFound, fmt.Sprintf("category %q does not exist", *ref))
			return nil, nil
		}
		return nil, fmt.Errorf("resolve category: %w", err)
	}
	return category, nil
}

func (v *ContentValidator) checkFiles(report *models.ValidationReport, files []media.File) {
	for k, f := range files {
		field := fmt.Sprintf("files[%d]", k)
		if !f.IsImage() {
			report.Add(field, models.CodeInvalidMimeType,
				fmt.Sprintf("%s is not an image (%s)", f.OriginalName, f.DetectedMimeType()))
		}
		if f.Size > v.maxImageSize || int64(len(f.Content)) > v.maxImageSize {
			report.Add(field, models.CodeImageTooLarge,
				fmt.Sprintf("%s exceeds the %d byte limit", f.OriginalName, v.maxImageSize))
		}
	}
}
