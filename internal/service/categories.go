package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"expense-api/internal/models"
	"expense-api/internal/storage"
)

const maxCategoryName = 64

// CategoryStore is the persistence needed by CategoryService.
type CategoryStore interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, name string) (*models.Category, error)
}

// CategoryService manages the global category list.
type CategoryService struct {
	store CategoryStore
}

func NewCategoryService(store CategoryStore) *CategoryService {
	return &CategoryService{store: store}
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (s *CategoryService) Create(ctx context.Context, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError("category name is required")
	}
	if utf8.RuneCountInString(name) > maxCategoryName {
		return nil, validationError(fmt.Sprintf("category name must be at most %d characters", maxCategoryName))
	}

	c, err := s.store.CreateCategory(ctx, name)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, ErrDuplicateCategory
		}
		return nil, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}
