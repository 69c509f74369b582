package services

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"toolrent-content/models"
	"toolrent-content/repositories"
)

var slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)

type CategoryService interface {
	CreateCategory(ctx context.Context, req models.CreateCategoryRequest) (*models.Category, error)
	GetCategories(ctx context.Context) ([]models.Category, error)
	GetCategory(ctx context.Context, ref string) (*models.Category, error)
}

type categoryService struct {
	categoryRepo repositories.CategoryRepository
}

func NewCategoryService(categoryRepo repositories.CategoryRepository) CategoryService {
	return &categoryService{categoryRepo: categoryRepo}
}

func (s *categoryService) CreateCategory(ctx context.Context, req models.CreateCategoryRequest) (*models.Category, error) {
	name := strings.TrimSpace(req.Name)

	// Check if category already exists
	_, err := s.categoryRepo.GetByName(ctx, name)
	if err == nil {
		return nil, &models.ErrorConflict{Message: "category already exists"}
	}
	var notFound *models.ErrorNotFound
	if !errors.As(err, &notFound) {
		return nil, err
	}

	slug := slugify(req.Slug)
	if slug == "" {
		slug = slugify(name)
	}

	category := &models.Category{
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(req.Description),
	}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}

	return category, nil
}

func (s *categoryService) GetCategories(ctx context.Context) ([]models.Category, error) {
	return s.categoryRepo.GetAll(ctx)
}

func (s *categoryService) GetCategory(ctx context.Context, ref string) (*models.Category, error) {
	return s.categoryRepo.ResolveByIDOrName(ctx, ref)
}

func slugify(s string) string {
	return strings.Trim(slugInvalid.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-"), "-")
}
