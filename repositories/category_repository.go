package repositories

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"toolrent-content/models"

	"gorm.io/gorm"
)

type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	GetByID(ctx context.Context, id uint) (*models.Category, error)
	GetByName(ctx context.Context, name string) (*models.Category, error)
	ResolveByIDOrName(ctx context.Context, ref string) (*models.Category, error)
	GetAll(ctx context.Context) ([]models.Category, error)
}

type categoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(ctx context.Context, category *models.Category) error {
	return translateError(r.db.WithContext(ctx).Create(category).Error, "category", category.Name)
}

func (r *categoryRepository) GetByID(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, translateError(err, "category", id)
	}
	return &category, nil
}

// GetByName matches name or slug, ignoring case.
func (r *categoryRepository) GetByName(ctx context.Context, name string) (*models.Category, error) {
	var category models.Category
	lower := strings.ToLower(strings.TrimSpace(name))
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = ? OR LOWER(slug) = ?", lower, lower).
		First(&category).Error
	if err != nil {
		return nil, translateError(err, "category", name)
	}
	return &category, nil
}

// ResolveByIDOrName treats a numeric ref as an id first and falls back to a
// name lookup, so a category literally named "2024" still resolves.
func (r *categoryRepository) ResolveByIDOrName(ctx context.Context, ref string) (*models.Category, error) {
	ref = strings.TrimSpace(ref)
	if id, err := strconv.ParseUint(ref, 10, 64); err == nil {
		category, err := r.GetByID(ctx, uint(id))
		if err == nil {
			return category, nil
		}
		var notFound *models.ErrorNotFound
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}
	return r.GetByName(ctx, ref)
}

func (r *categoryRepository) GetAll(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.WithContext(ctx).Order("name asc").Find(&categories).Error
	return categories, err
}
