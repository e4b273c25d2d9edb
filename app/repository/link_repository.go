package repository

import (
	"context"
	"errors"
	"time"

	"github.com/dosreb/planlibrary/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// linkRepository implements the LinkRepository interface
type linkRepository struct {
	db *gorm.DB
}

// NewLinkRepository creates a new link repository instance
func NewLinkRepository(db *gorm.DB) LinkRepository {
	return &linkRepository{db: db}
}

// Link attaches a plan to a project. The usage counter is bumped only when
// this call inserted the row; an existing link just gets its notes replaced
// (when notes are given). created reports whether a new row was written.
func (r *linkRepository) Link(ctx context.Context, projectID, planID, actorID string, notes *string) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockPlan(tx, planID); err != nil {
			return err
		}

		link := models.ProjectPlan{
			ProjectID: projectID,
			PlanID:    planID,
			AddedBy:   actorID,
			Notes:     notes,
		}
		result := tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&link)
		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 1 {
			created = true
			return tx.Model(&models.Plan{}).
				Where("id = ?", planID).
				UpdateColumn("usage_count", gorm.Expr("usage_count + ?", 1)).Error
		}

		if notes == nil {
			return nil
		}
		return tx.Model(&models.ProjectPlan{}).
			Where("project_id = ? AND plan_id = ?", projectID, planID).
			Updates(map[string]interface{}{"notes": *notes, "updated_at": time.Now()}).Error
	})
	if err != nil {
		return false, storeError("link plan", err)
	}
	return created, nil
}

// Unlink removes the link if present. Usage is left as is.
func (r *linkRepository) Unlink(ctx context.Context, projectID, planID string) error {
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND plan_id = ?", projectID, planID).
		Delete(&models.ProjectPlan{}).Error
	return storeError("unlink plan", err)
}

// ListForProject returns the project's links with their plans resolved
func (r *linkRepository) ListForProject(ctx context.Context, projectID string) ([]models.ProjectPlan, error) {
	links := []models.ProjectPlan{}
	err := r.db.WithContext(ctx).
		Preload("Plan.TagRows").
		Where("project_id = ?", projectID).
		Order("created_at ASC").Order("plan_id ASC").
		Find(&links).Error
	if err != nil {
		return nil, storeError("list project plans", err)
	}
	for i := range links {
		if links[i].Plan != nil {
			links[i].Plan.SyncTags()
		}
	}
	return links, nil
}

// ListForPlan returns every project link of a plan
func (r *linkRepository) ListForPlan(ctx context.Context, planID string) ([]models.ProjectPlan, error) {
	links := []models.ProjectPlan{}
	err := r.db.WithContext(ctx).
		Where("plan_id = ?", planID).
		Order("created_at ASC").Order("project_id ASC").
		Find(&links).Error
	if err != nil {
		return nil, storeError("list plan projects", err)
	}
	return links, nil
}

// lockPlan takes a row lock on the plan, failing with NotFound when it is gone.
func lockPlan(tx *gorm.DB, planID string) error {
	var plan models.Plan
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", planID).
		Take(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return planNotFound(planID)
	}
	return err
}
