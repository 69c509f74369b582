package repositories

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"toolrent-content/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ArticleRepository persists the Article → Section → {Paragraph, SectionImage}
// tree. Multi-step writes should run inside Transaction.
type ArticleRepository interface {
	CreateTree(ctx context.Context, article *models.Article, sections []models.Section) error
	ReplaceChildren(ctx context.Context, articleID uint, sections []models.Section) error
	FindTree(ctx context.Context, id uint) (*models.Article, error)
	FindByID(ctx context.Context, id uint) (*models.Article, error)
	DeleteTree(ctx context.Context, id uint) error
	Update(ctx context.Context, article *models.Article) error
	List(ctx context.Context, params models.ArticleListParams) ([]models.Article, int64, error)
	Transaction(ctx context.Context, fn func(repo ArticleRepository) error) error
}

var sortColumns = map[string]string{
	"created_at":   "created_at",
	"createdAt":    "created_at",
	"updated_at":   "updated_at",
	"updatedAt":    "updated_at",
	"published_at": "published_at",
	"publishedAt":  "published_at",
	"title":        "title",
	"id":           "id",
}

type articleRepository struct {
	db *gorm.DB
}

func NewArticleRepository(db *gorm.DB) ArticleRepository {
	return &articleRepository{db: db}
}

func byOrderIndex(db *gorm.DB) *gorm.DB {
	return db.Order("order_index ASC").Order("id ASC")
}

func (r *articleRepository) Transaction(ctx context.Context, fn func(repo ArticleRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&articleRepository{db: tx})
	})
}

// CreateTree inserts the article row, then every section in order followed
// by its paragraphs and images. Generated ids are written back into article
// and sections.
func (r *articleRepository) CreateTree(ctx context.Context, article *models.Article, sections []models.Section) error {
	db := r.db.WithContext(ctx)

	if err := db.Omit(clause.Associations).Create(article).Error; err != nil {
		return fmt.Errorf("create article: %w", translateError(err, "category", article.CategoryID))
	}
	if err := r.createSections(ctx, article.ID, sections); err != nil {
		return err
	}
	article.Sections = sections
	return nil
}

// ReplaceChildren drops every section of the article, cascading to their
// paragraphs and images, and recreates the given ones.
func (r *articleRepository) ReplaceChildren(ctx context.Context, articleID uint, sections []models.Section) error {
	err := r.db.WithContext(ctx).
		Where("article_id = ?", articleID).
		Delete(&models.Section{}).Error
	if err != nil {
		return fmt.Errorf("delete sections of article %d: %w", articleID, err)
	}
	return r.createSections(ctx, articleID, sections)
}

func (r *articleRepository) createSections(ctx context.Context, articleID uint, sections []models.Section) error {
	db := r.db.WithContext(ctx)

	for i := range sections {
		section := &sections[i]
		section.ID = 0
		section.ArticleID = articleID

		if err := db.Omit(clause.Associations).Create(section).Error; err != nil {
			return fmt.Errorf("create section %d: %w", i, translateError(err, "article", articleID))
		}

		for j := range section.Paragraphs {
			p := &section.Paragraphs[j]
			p.ID = 0
			p.SectionID = section.ID
			if err := db.Create(p).Error; err != nil {
				return fmt.Errorf("create paragraph %d of section %d: %w", j, i, err)
			}
		}

		for j := range section.Images {
			img := &section.Images[j]
			img.ID = 0
			img.SectionID = section.ID
			if err := db.Create(img).Error; err != nil {
				return fmt.Errorf("create image %d of section %d: %w", j, i, err)
			}
		}
	}
	return nil
}

// FindTree loads the article with its author, category and every section,
// paragraph and image ordered by order index.
func (r *articleRepository) FindTree(ctx context.Context, id uint) (*models.Article, error) {
	var article models.Article
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Category").
		Preload("Sections", byOrderIndex).
		Preload("Sections.Paragraphs", byOrderIndex).
		Preload("Sections.Images", byOrderIndex).
		First(&article, id).Error
	if err != nil {
		return nil, translateError(err, "article", id)
	}
	return &article, nil
}

// FindByID loads the article row with author and category only.
func (r *articleRepository) FindByID(ctx context.Context, id uint) (*models.Article, error) {
	var article models.Article
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Category").
		First(&article, id).Error
	if err != nil {
		return nil, translateError(err, "article", id)
	}
	return &article, nil
}

// DeleteTree removes the article row. Sections, paragraphs and images go with
// it through ON DELETE CASCADE.
func (r *articleRepository) DeleteTree(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Article{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete article %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return &models.ErrorNotFound{Resource: "article", ID: id}
	}
	return nil
}

// Update writes the article's own columns. Children are left alone.
func (r *articleRepository) Update(ctx context.Context, article *models.Article) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Save(article).Error
	if err != nil {
		return fmt.Errorf("update article %d: %w", article.ID, translateError(err, "category", article.CategoryID))
	}
	return nil
}

func (r *articleRepository) List(ctx context.Context, params models.ArticleListParams) ([]models.Article, int64, error) {
	var articles []models.Article
	var total int64

	filters := func(db *gorm.DB) *gorm.DB {
		if search := strings.TrimSpace(params.Search); search != "" {
			db = db.Where(`LOWER(articles.title) LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(search))+"%")
		}
		if params.IsPublic != nil {
			db = db.Where("articles.is_public = ?", *params.IsPublic)
		}
		if params.IsFeatured != nil {
			db = db.Where("articles.is_featured = ?", *params.IsFeatured)
		}
		if ref := strings.TrimSpace(params.Category); ref != "" {
			if id, err := strconv.ParseUint(ref, 10, 64); err == nil {
				db = db.Where("articles.category_id = ?", id)
			} else {
				sub := r.db.Session(&gorm.Session{NewDB: true}).
					Model(&models.Category{}).
					Select("id").
					Where("LOWER(name) = ? OR LOWER(slug) = ?", strings.ToLower(ref), strings.ToLower(ref))
				db = db.Where("articles.category_id IN (?)", sub)
			}
		}
		return db
	}

	db := r.db.WithContext(ctx)
	if err := db.Model(&models.Article{}).Scopes(filters).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count articles: %w", err)
	}

	column, ok := sortColumns[params.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if strings.EqualFold(params.SortOrder, "asc") {
		direction = "ASC"
	}

	page, limit := params.Page, params.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	err := db.Scopes(filters).
		Preload("Author").
		Preload("Category").
		Order(fmt.Sprintf("articles.%s %s", column, direction)).
		Order(fmt.Sprintf("articles.id %s", direction)).
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&articles).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list articles: %w", err)
	}

	return articles, total, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
