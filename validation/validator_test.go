package validation

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"toolrent-content/media"
	"toolrent-content/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCategories struct {
	byRef map[string]*models.Category
	err   error
}

func (s stubCategories) ResolveByIDOrName(ctx context.Context, ref string) (*models.Category, error) {
	if s.err != nil {
		return nil, s.err
	}
	if c, ok := s.byRef[ref]; ok {
		return c, nil
	}
	return nil, &models.ErrorNotFound{Resource: "category", ID: ref}
}

func newTestValidator() *ContentValidator {
	diy := &models.Category{ID: 7, Name: "diy", Slug: "diy"}
	return NewContentValidator(stubCategories{byRef: map[string]*models.Category{"diy": diy, "7": diy}}, 0)
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func validInput() models.ArticleInput {
	return models.ArticleInput{
		Title:    strPtr("Spring Tool Sale Announcement"),
		Category: strPtr("diy"),
		Sections: []models.SectionInput{{
			Title:      "Intro",
			Paragraphs: []models.ParagraphInput{{Content: "Twenty characters!!!"}},
		}},
		HasSections: true,
	}
}

func TestValidate_ValidPayload(t *testing.T) {
	report, category, err := newTestValidator().Validate(context.Background(), validInput(), nil)
	require.NoError(t, err)
	assert.True(t, report.Valid)
	assert.Empty(t, report.Errors)
	require.NotNil(t, category)
	assert.Equal(t, uint(7), category.ID)
}

func TestValidate_TitleLength(t *testing.T) {
	cases := []struct {
		length int
		code   string
	}{
		{4, models.CodeTitleTooShort},
		{5, ""},
		{200, ""},
		{201, models.CodeTitleTooLong},
	}

	v := newTestValidator()
	for _, tc := range cases {
		t.Run(strconv.Itoa(tc.length), func(t *testing.T) {
			input := validInput()
			input.Title = strPtr("  " + strings.Repeat("a", tc.length) + "  ")

			report, _, err := v.Validate(context.Background(), input, nil)
			require.NoError(t, err)
			if tc.code == "" {
				assert.Empty(t, report.ErrorCodes["title"])
				return
			}
			assert.Equal(t, []string{tc.code}, report.ErrorCodes["title"])
		})
	}
}

func TestValidate_TitleCountsRunes(t *testing.T) {
	input := validInput()
	input.Title = strPtr("Säge!")

	report, _, err := newTestValidator().Validate(context.Background(), input, nil)
	require.NoError(t, err)
	assert.True(t, report.Valid)
}

func TestValidate_TitleRequired(t *testing.T) {
	input := validInput()
	input.Title = strPtr("   ")

	report, _, err := newTestValidator().Validate(context.Background(), input, nil)
	require.NoError(t, err)
	assert.True(t, report.HasCode("title", models.CodeTitleRequired))
}

func TestValidate_ContentOrSections(t *testing.T) {
	v := newTestValidator()

	t.Run("BothMissing", func(t *testing.T) {
		input := validInput()
		input.Content = strPtr("  ")
		input.Sections = []models.SectionInput{}

		report, _, err := v.Validate(context.Background(), input, nil)
		require.NoError(t, err)
		assert.False(t, report.Valid)
		assert.True(t, report.HasCode("content", models.CodeContentRequired))
		assert.True(t, report.HasCode("sections", models.CodeSectionsRequired))
	})

	t.Run("ContentOnly", func(t *testing.T) {
		input := validInput()
		input.Content = strPtr("Legacy body text")
		input.Sections = nil

		report, _, err := v.Validate(context.Background(), input, nil)
		require.NoError(t, err)
		assert.True(t, report.Valid)
	})
}

func TestValidate_SectionTree(t *testing.T) {
	input := validInput()
	input.Sections = []models.SectionInput{
		{
			Title:      "Ok",
			OrderIndex: intPtr(-1),
			Paragraphs: []models.ParagraphInput{
				{Content: "long enough paragraph"},
				{Content: "too short"},
			},
			Images: []models.SectionImageInput{
				{URL: "https://cdn.example.com/drill.JPG"},
				{URL: "ftp://cdn.example.com/drill.jpg"},
				{URL: "https://cdn.example.com/manual.pdf"},
				{URL: "not a url"},
			},
		},
		{Title: "Valid section"},
	}

	report, _, err := newTestValidator().Validate(context.Background(), input, nil)
	require.NoError(t, err)
	assert.False(t, report.Valid)

	assert.True(t, report.HasCode("sections[0].title", models.CodeSectionTitleTooShort))
	assert.True(t, report.HasCode("sections[0].order_index", models.CodeOrderIndexInvalid))
	assert.Empty(t, report.ErrorCodes["sections[0].paragraphs[0].content"])
	assert.True(t, report.HasCode("sections[0].paragraphs[1].content", models.CodeParagraphTooShort))
	assert.Empty(t, report.ErrorCodes["sections[0].images[0].url"])
	assert.True(t, report.HasCode("sections[0].images[1].url", models.CodeSectionImageURLInvalid))
	assert.True(t, report.HasCode("sections[0].images[2].url", models.CodeSectionImageURLInvalid))
	assert.True(t, report.HasCode("sections[0].images[3].url", models.CodeSectionImageURLInvalid))
	assert.Empty(t, report.ErrorCodes["sections[1].title"])
}

func TestValidate_Category(t *testing.T) {
	v := newTestValidator()

	t.Run("Missing", func(t *testing.T) {
		input := validInput()
		input.Category = nil

		report, category, err := v.Validate(context.Background(), input, nil)
		require.NoError(t, err)
		assert.Nil(t, category)
		assert.True(t, report.HasCode("category", models.CodeCategoryRequired))
	})

	t.Run("ByID", func(t *testing.T) {
		input := validInput()
		input.Category = strPtr("7")

		report, category, err := v.Validate(context.Background(), input, nil)
		require.NoError(t, err)
		assert.True(t, report.Valid)
		assert.Equal(t, "diy", category.Name)
	})

	t.Run("Unknown", func(t *testing.T) {
		input := validInput()
		input.Category = strPtr("gardening")

		report, category, err := v.Validate(context.Background(), input, nil)
		require.NoError(t, err)
		assert.Nil(t, category)
		assert.True(t, report.HasCode("category", models.CodeCategoryNotFound))
	})

	t.Run("LookupFailure", func(t *testing.T) {
		broken := NewContentValidator(stubCategories{err: errors.New("connection refused")}, 0)

		_, _, err := broken.Validate(context.Background(), validInput(), nil)
		assert.ErrorContains(t, err, "connection refused")
	})
}

func TestValidate_Files(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n")
	files := []media.File{
		{OriginalName: "cover.png", MimeType: "image/png", Size: int64(len(png)), Content: png},
		{OriginalName: "manual.pdf", MimeType: "application/pdf", Size: 4, Content: []byte("%PDF")},
		{OriginalName: "huge.png", MimeType: "image/png", Size: media.DefaultMaxImageSize + 1, Content: png},
	}

	report, _, err := newTestValidator().Validate(context.Background(), validInput(), files)
	require.NoError(t, err)
	assert.Empty(t, report.ErrorCodes["files[0]"])
	assert.Equal(t, []string{models.CodeInvalidMimeType}, report.ErrorCodes["files[1]"])
	assert.Equal(t, []string{models.CodeImageTooLarge}, report.ErrorCodes["files[2]"])
}

func TestValidate_CollectsEverything(t *testing.T) {
	input := models.ArticleInput{Title: strPtr("abc")}

	report, _, err := newTestValidator().Validate(context.Background(), input, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"title", "content", "sections", "category"}, keys(report.ErrorCodes))
	assert.Len(t, report.Errors, 4)
}

func TestValidatePartial(t *testing.T) {
	v := newTestValidator()

	t.Run("EmptySectionsAllowed", func(t *testing.T) {
		input := models.ArticleInput{Sections: []models.SectionInput{}, HasSections: true}

		report, category, err := v.ValidatePartial(context.Background(), input, nil)
		require.NoError(t, err)
		assert.True(t, report.Valid)
		assert.Nil(t, category)
	})

	t.Run("OnlySuppliedFields", func(t *testing.T) {
		input := models.ArticleInput{Title: strPtr("Tiny"), Category: strPtr("nope")}

		report, _, err := v.ValidatePartial(context.Background(), input, nil)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"title", "category"}, keys(report.ErrorCodes))
	})

	t.Run("SectionsChecked", func(t *testing.T) {
		input := models.ArticleInput{Sections: []models.SectionInput{{Title: "x"}}, HasSections: true}

		report, _, err := v.ValidatePartial(context.Background(), input, nil)
		require.NoError(t, err)
		assert.True(t, report.HasCode("sections[0].title", models.CodeSectionTitleTooShort))
	})
}

func keys(m map[string][]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
