package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"toolrent-content/media"
	"toolrent-content/models"
	"toolrent-content/repositories"

	"github.com/rs/zerolog"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type ArticleService interface {
	CreateArticle(ctx context.Context, input models.ArticleInput, files media.FileGroups, authorID uint) (*models.Article, error)
	UpdateArticle(ctx context.Context, id uint, input models.ArticleInput, files media.FileGroups) (*models.Article, error)
	DeleteArticle(ctx context.Context, id uint) error
	GetArticle(ctx context.Context, id uint, publicOnly bool) (*models.Article, error)
	GetArticles(ctx context.Context, params models.ArticleListParams) ([]models.Article, int64, error)
	GetPublicArticles(ctx context.Context, params models.ArticleListParams) ([]models.Article, int64, error)
	GetFeaturedArticles(ctx context.Context, params models.ArticleListParams) ([]models.Article, int64, error)
	GetLatestArticles(ctx context.Context, limit int) ([]models.Article, error)
	TogglePublish(ctx context.Context, id uint) (*models.Article, error)
	ToggleFeatured(ctx context.Context, id uint) (*models.Article, error)
}

// ArticleValidator checks article payloads. validation.ContentValidator is
// the production implementation.
type ArticleValidator interface {
	Validate(ctx context.Context, input models.ArticleInput, files []media.File) (*models.ValidationReport, *models.Category, error)
	ValidatePartial(ctx context.Context, input models.ArticleInput, files []media.File) (*models.ValidationReport, *models.Category, error)
}

// MediaFolders are the storage folders article uploads land in.
type MediaFolders struct {
	MainImage string
	Inline    string
}

type articleService struct {
	articleRepo repositories.ArticleRepository
	validator   ArticleValidator
	media       *media.Pipeline
	resolver    *media.PlaceholderResolver
	folders     MediaFolders
	log         zerolog.Logger
	now         func() time.Time
}

func NewArticleService(
	articleRepo repositories.ArticleRepository,
	validator ArticleValidator,
	pipeline *media.Pipeline,
	folders MediaFolders,
	log zerolog.Logger,
) ArticleService {
	if folders.MainImage == "" {
		folders.MainImage = "articles"
	}
	if folders.Inline == "" {
		folders.Inline = folders.MainImage + "/inline"
	}
	log = log.With().Str("component", "article_service").Logger()

	return &articleService{
		articleRepo: articleRepo,
		validator:   validator,
		media:       pipeline,
		resolver:    media.NewPlaceholderResolver(pipeline, log),
		folders:     folders,
		log:         log,
		now:         time.Now,
	}
}

func (s *articleService) CreateArticle(ctx context.Context, input models.ArticleInput, files media.FileGroups, authorID uint) (*models.Article, error) {
	ordered := files.Ordered()

	report, category, err := s.validator.Validate(ctx, input, ordered)
	if err != nil {
		return nil, err
	}
	if !report.Valid {
		return nil, &models.ErrorValidation{Report: report}
	}

	var uploaded []string

	// The cover is the explicit URL when given, else the first file. The
	// files after the cover feed the inline placeholders.
	mainImage := trimmedOrNil(input.MainImageURL)
	secondary := ordered
	if mainImage == nil && len(ordered) > 0 {
		url, err := s.media.UploadOne(ctx, ordered[0], s.folders.MainImage)
		if err != nil {
			return nil, fmt.Errorf("upload main image: %w", err)
		}
		uploaded = append(uploaded, url)
		mainImage = &url
		secondary = ordered[1:]
	}

	var inline []string
	content := trimmedOrNil(input.Content)
	if content != nil {
		resolved, urls := s.resolver.Resolve(ctx, *content, secondary, s.folders.Inline)
		uploaded = append(uploaded, urls...)
		content = &resolved
		inline = urls
	}

	article := &models.Article{
		Title:        strings.TrimSpace(*input.Title),
		Content:      content,
		Summary:      valueOr(input.Summary, ""),
		MainImageURL: mainImage,
		InlineImages: inline,
		CategoryID:   category.ID,
		IsPublic:     input.IsPublic != nil && *input.IsPublic,
		IsFeatured:   input.IsFeatured != nil && *input.IsFeatured,
		AuthorID:     authorID,
	}
	if article.IsPublic {
		now := s.now()
		article.PublishedAt = &now
	}
	sections := buildSections(input.Sections)

	err = s.articleRepo.Transaction(ctx, func(repo repositories.ArticleRepository) error {
		return repo.CreateTree(ctx, article, sections)
	})
	if err != nil {
		s.media.DeleteManyByURL(ctx, uploaded)
		return nil, fmt.Errorf("create article tree: %w", err)
	}

	s.log.Info().
		Uint("article_id", article.ID).
		Uint("author_id", authorID).
		Int("sections", len(sections)).
		Int("uploads", len(uploaded)).
		Msg("Article created")

	return s.loadTree(ctx, article.ID)
}

func (s *articleService) UpdateArticle(ctx context.Context, id uint, input models.ArticleInput, files media.FileGroups) (*models.Article, error) {
	article, err := s.articleRepo.FindTree(ctx, id)
	if err != nil {
		return nil, err
	}
	ordered := files.Ordered()

	report, category, err := s.validator.ValidatePartial(ctx, input, ordered)
	if err != nil {
		return nil, err
	}
	if !report.Valid {
		return nil, &models.ErrorValidation{Report: report}
	}

	var uploaded []string
	var staleMain string
	previousMain := valueOr(article.MainImageURL, "")

	secondary := ordered
	switch {
	case input.ReplaceMainImage && len(ordered) > 0:
		url, err := s.media.UploadOne(ctx, ordered[0], s.folders.MainImage)
		if err != nil {
			return nil, fmt.Errorf("upload main image: %w", err)
		}
		uploaded = append(uploaded, url)
		article.MainImageURL = &url
		secondary = ordered[1:]
		staleMain = previousMain
	case input.MainImageURL != nil:
		article.MainImageURL = trimmedOrNil(input.MainImageURL)
		if valueOr(article.MainImageURL, "") != previousMain {
			staleMain = previousMain
		}
	}

	var staleInline []string
	if input.Content != nil {
		content := trimmedOrNil(input.Content)
		var fresh, referenced []string
		if content != nil {
			resolved, urls := s.resolver.Resolve(ctx, *content, secondary, s.folders.Inline)
			uploaded = append(uploaded, urls...)
			content = &resolved
			fresh = urls
			referenced = media.InlineImageURLs(resolved)
		}
		// Earlier uploads survive only while the new content still shows them.
		staleInline = missingFrom(article.InlineImages, referenced)
		article.InlineImages = append(missingFrom(article.InlineImages, staleInline), fresh...)
		article.Content = content
	}
	if input.Title != nil {
		article.Title = strings.TrimSpace(*input.Title)
	}
	if input.Summary != nil {
		article.Summary = *input.Summary
	}
	if category != nil {
		article.CategoryID = category.ID
		article.Category = category
	}
	if input.IsPublic != nil {
		s.setPublic(article, *input.IsPublic)
	}
	if input.IsFeatured != nil {
		article.IsFeatured = *input.IsFeatured
	}

	previousImages := sectionImageURLs(article.Sections)
	var sections []models.Section
	if input.HasSections {
		sections = buildSections(input.Sections)
	}

	err = s.articleRepo.Transaction(ctx, func(repo repositories.ArticleRepository) error {
		if err := repo.Update(ctx, article); err != nil {
			return err
		}
		if input.HasSections {
			return repo.ReplaceChildren(ctx, article.ID, sections)
		}
		return nil
	})
	if err != nil {
		s.media.DeleteManyByURL(ctx, uploaded)
		return nil, fmt.Errorf("update article %d: %w", id, err)
	}

	// The rows are committed; blobs they no longer reference can go.
	var stale []string
	if staleMain != "" {
		stale = append(stale, staleMain)
	}
	stale = append(stale, staleInline...)
	if input.HasSections {
		stale = append(stale, missingFrom(previousImages, sectionImageURLs(sections))...)
	}
	s.media.DeleteManyByURL(ctx, stale)

	s.log.Info().
		Uint("article_id", id).
		Bool("sections_replaced", input.HasSections).
		Bool("main_image_replaced", staleMain != "").
		Msg("Article updated")

	return s.loadTree(ctx, id)
}

// DeleteArticle removes the article tree and then its storage-hosted media.
// Storage failures are logged by the pipeline and never surface here.
func (s *articleService) DeleteArticle(ctx context.Context, id uint) error {
	article, err := s.articleRepo.FindTree(ctx, id)
	if err != nil {
		return err
	}

	urls := sectionImageURLs(article.Sections)
	if article.MainImageURL != nil {
		urls = append(urls, *article.MainImageURL)
	}
	urls = append(urls, article.InlineImages...)

	if err := s.articleRepo.DeleteTree(ctx, id); err != nil {
		return err
	}
	s.media.DeleteManyByURL(ctx, urls)

	s.log.Info().Uint("article_id", id).Int("media", len(urls)).Msg("Article deleted")
	return nil
}

func (s *articleService) GetArticle(ctx context.Context, id uint, publicOnly bool) (*models.Article, error) {
	article, err := s.loadTree(ctx, id)
	if err != nil {
		return nil, err
	}
	if publicOnly && !article.IsPublic {
		return nil, &models.ErrorNotFound{Resource: "article", ID: id}
	}
	return article, nil
}

func (s *articleService) GetArticles(ctx context.Context, params models.ArticleListParams) ([]models.Article, int64, error) {
	params = normalizeListParams(params)

	articles, total, err := s.articleRepo.List(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	for i := range articles {
		decorate(&articles[i])
	}
	return articles, total, nil
}

func (s *articleService) GetPublicArticles(ctx context.Context, params models.ArticleListParams) ([]models.Article, int64, error) {
	public := true
	params.IsPublic = &public
	return s.GetArticles(ctx, params)
}

func (s *articleService) GetFeaturedArticles(ctx context.Context, params models.ArticleListParams) ([]models.Article, int64, error) {
	featured := true
	params.IsFeatured = &featured
	return s.GetPublicArticles(ctx, params)
}

func (s *articleService) GetLatestArticles(ctx context.Context, limit int) ([]models.Article, error) {
	articles, _, err := s.GetPublicArticles(ctx, models.ArticleListParams{
		Page:      1,
		Limit:     limit,
		SortBy:    "created_at",
		SortOrder: "desc",
	})
	return articles, err
}

// TogglePublish moves a draft or unpublished article to published and a
// published one to unpublished.
func (s *articleService) TogglePublish(ctx context.Context, id uint) (*models.Article, error) {
	return s.toggle(ctx, id, func(article *models.Article) {
		s.setPublic(article, !article.IsPublic)
	})
}

func (s *articleService) ToggleFeatured(ctx context.Context, id uint) (*models.Article, error) {
	return s.toggle(ctx, id, func(article *models.Article) {
		article.IsFeatured = !article.IsFeatured
	})
}

func (s *articleService) toggle(ctx context.Context, id uint, apply func(*models.Article)) (*models.Article, error) {
	article, err := s.articleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	apply(article)
	if err := s.articleRepo.Update(ctx, article); err != nil {
		return nil, err
	}

	s.log.Info().
		Uint("article_id", id).
		Str("status", string(article.CurrentStatus())).
		Bool("featured", article.IsFeatured).
		Msg("Article state changed")

	return s.loadTree(ctx, id)
}

func (s *articleService) setPublic(article *models.Article, public bool) {
	if public && !article.IsPublic {
		now := s.now()
		article.PublishedAt = &now
	}
	article.IsPublic = public
}

func (s *articleService) loadTree(ctx context.Context, id uint) (*models.Article, error) {
	article, err := s.articleRepo.FindTree(ctx, id)
	if err != nil {
		return nil, err
	}
	decorate(article)
	return article, nil
}

// decorate swaps the author relation for its public name and fills the
// derived status.
func decorate(article *models.Article) {
	article.AuthorName = article.Author.PublicName()
	article.Author = nil
	article.Status = article.CurrentStatus()
}

func normalizeListParams(params models.ArticleListParams) models.ArticleListParams {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 {
		params.Limit = defaultPageSize
	}
	if params.Limit > maxPageSize {
		params.Limit = maxPageSize
	}
	if params.SortBy == "" {
		params.SortBy = "created_at"
	}
	if params.SortOrder == "" {
		params.SortOrder = "desc"
	}
	return params
}

// buildSections maps section input onto rows. A missing order index falls
// back to the item's position in its list.
func buildSections(input []models.SectionInput) []models.Section {
	sections := make([]models.Section, 0, len(input))
	for i, in := range input {
		section := models.Section{
			Title:      strings.TrimSpace(in.Title),
			OrderIndex: orderIndex(in.OrderIndex, i),
		}
		for j, p := range in.Paragraphs {
			section.Paragraphs = append(section.Paragraphs, models.Paragraph{
				Content:    strings.TrimSpace(p.Content),
				OrderIndex: orderIndex(p.OrderIndex, j),
			})
		}
		for j, img := range in.Images {
			section.Images = append(section.Images, models.SectionImage{
				URL:        strings.TrimSpace(img.URL),
				AltText:    trimmedOrNil(img.AltText),
				OrderIndex: orderIndex(img.OrderIndex, j),
			})
		}
		sections = append(sections, section)
	}
	return sections
}

func orderIndex(explicit *int, position int) int {
	if explicit != nil {
		return *explicit
	}
	return position
}

func sectionImageURLs(sections []models.Section) []string {
	var urls []string
	for _, section := range sections {
		for _, img := range section.Images {
			urls = append(urls, img.URL)
		}
	}
	return urls
}

// missingFrom returns the entries of before that are absent from after.
func missingFrom(before, after []string) []string {
	keep := make(map[string]struct{}, len(after))
	for _, url := range after {
		keep[url] = struct{}{}
	}
	var gone []string
	for _, url := range before {
		if _, ok := keep[url]; !ok {
			gone = append(gone, url)
		}
	}
	return gone
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func valueOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
