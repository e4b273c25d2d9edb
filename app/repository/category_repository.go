package repository

import (
	"context"

	"github.com/dosreb/planlibrary/app/models"
	"gorm.io/gorm"
)

// categoryRepository implements the CategoryRepository interface
type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new category repository instance
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

// List returns all categories ordered by name
func (r *categoryRepository) List(ctx context.Context) ([]models.PlanCategory, error) {
	categories := []models.PlanCategory{}
	err := r.db.WithContext(ctx).Order("name ASC").Order("id ASC").Find(&categories).Error
	if err != nil {
		return nil, storeError("list categories", err)
	}
	return categories, nil
}

// GetByID retrieves a category by its ID
func (r *categoryRepository) GetByID(ctx context.Context, id string) (*models.PlanCategory, error) {
	var category models.PlanCategory
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&category).Error
	if err != nil {
		return nil, storeError("get category", err)
	}
	return &category, nil
}
