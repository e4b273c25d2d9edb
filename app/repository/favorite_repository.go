package repository

import (
	"context"

	"github.com/dosreb/planlibrary/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// favoriteRepository implements the FavoriteRepository interface
type favoriteRepository struct {
	db *gorm.DB
}

// NewFavoriteRepository creates a new favorite repository instance
func NewFavoriteRepository(db *gorm.DB) FavoriteRepository {
	return &favoriteRepository{db: db}
}

// Add bookmarks a plan for a user. Adding twice is a no-op.
func (r *favoriteRepository) Add(ctx context.Context, userID, planID string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockPlan(tx, planID); err != nil {
			return err
		}
		favorite := models.PlanFavorite{UserID: userID, PlanID: planID}
		return tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&favorite).Error
	})
	return storeError("add favorite", err)
}

// Remove deletes the bookmark if present
func (r *favoriteRepository) Remove(ctx context.Context, userID, planID string) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND plan_id = ?", userID, planID).
		Delete(&models.PlanFavorite{}).Error
	return storeError("remove favorite", err)
}

// List returns the favorited plans, most recently added first
func (r *favoriteRepository) List(ctx context.Context, userID string) ([]models.Plan, error) {
	q := r.db.WithContext(ctx).Model(&models.Plan{}).
		Select("plans.*").
		Joins("JOIN plan_favorites ON plan_favorites.plan_id = plans.id").
		Where("plan_favorites.user_id = ?", userID).
		Order("plan_favorites.created_at DESC").
		Order("plans.id ASC")

	plans, err := loadPlans(q)
	if err != nil {
		return nil, storeError("list favorites", err)
	}
	return plans, nil
}
