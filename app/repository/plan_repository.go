package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dosreb/planlibrary/app/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// planRepository implements the PlanRepository interface
type planRepository struct {
	db *gorm.DB
}

// NewPlanRepository creates a new plan repository instance
func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &planRepository{db: db}
}

// Create stores the plan and its tag rows in one transaction
func (r *planRepository) Create(ctx context.Context, plan *models.Plan) error {
	plan.UsageCount = 0
	plan.Tags = models.NormalizeTags(plan.Tags)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(plan).Error; err != nil {
			return err
		}
		if len(plan.Tags) == 0 {
			return nil
		}
		rows := models.TagRowsFor(plan.ID, plan.Tags)
		return tx.Create(&rows).Error
	})
	if err != nil {
		return storeError("create plan", err)
	}
	plan.TagRows = models.TagRowsFor(plan.ID, plan.Tags)
	return nil
}

// GetByID retrieves a plan with its tags
func (r *planRepository) GetByID(ctx context.Context, id string) (*models.Plan, error) {
	plan, err := findPlan(r.db.WithContext(ctx), id, false)
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// Update applies a partial update and replaces the tag set when given
func (r *planRepository) Update(ctx context.Context, id string, update models.PlanUpdate) (*models.Plan, error) {
	var updated *models.Plan
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findPlan(tx, id, true); err != nil {
			return err
		}

		columns := map[string]interface{}{"updated_at": time.Now()}
		if update.Title != nil {
			columns["title"] = *update.Title
		}
		if update.Description != nil {
			columns["description"] = *update.Description
		}
		if update.CategoryID != nil {
			if strings.TrimSpace(*update.CategoryID) == "" {
				columns["category_id"] = nil
			} else {
				columns["category_id"] = strings.TrimSpace(*update.CategoryID)
			}
		}
		if update.MimeType != nil {
			columns["mime_type"] = *update.MimeType
		}
		if update.SizeBytes != nil {
			columns["size_bytes"] = *update.SizeBytes
		}
		if update.Visibility != nil {
			columns["visibility"] = *update.Visibility
		}
		if update.Metadata != nil {
			metadata := datatypes.JSONMap(*update.Metadata)
			if metadata == nil {
				metadata = datatypes.JSONMap{}
			}
			columns["metadata"] = metadata
		}

		if err := tx.Model(&models.Plan{}).Where("id = ?", id).Updates(columns).Error; err != nil {
			return err
		}

		if update.Tags != nil {
			if err := tx.Where("plan_id = ?", id).Delete(&models.PlanTag{}).Error; err != nil {
				return err
			}
			if tags := models.NormalizeTags(*update.Tags); len(tags) > 0 {
				rows := models.TagRowsFor(id, tags)
				if err := tx.Create(&rows).Error; err != nil {
					return err
				}
			}
		}

		plan, err := findPlan(tx, id, false)
		if err != nil {
			return err
		}
		updated = plan
		return nil
	})
	if err != nil {
		return nil, storeError("update plan", err)
	}
	return updated, nil
}

// Delete removes the plan together with its links, favorites and tags.
// The removed plan is returned so callers can clean up its stored file.
func (r *planRepository) Delete(ctx context.Context, id string) (*models.Plan, error) {
	var deleted *models.Plan
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		plan, err := findPlan(tx, id, true)
		if err != nil {
			return err
		}
		if err := tx.Where("plan_id = ?", id).Delete(&models.ProjectPlan{}).Error; err != nil {
			return err
		}
		if err := tx.Where("plan_id = ?", id).Delete(&models.PlanFavorite{}).Error; err != nil {
			return err
		}
		if err := tx.Where("plan_id = ?", id).Delete(&models.PlanTag{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.Plan{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return planNotFound(id)
		}
		deleted = plan
		return nil
	})
	if err != nil {
		return nil, storeError("delete plan", err)
	}
	return deleted, nil
}

// List returns the plans matching the filter, newest first
func (r *planRepository) List(ctx context.Context, filter PlanFilter) ([]models.Plan, error) {
	q := r.db.WithContext(ctx).Model(&models.Plan{})
	q = scopeVisibility(q, filter)

	if filter.CategoryID != nil && strings.TrimSpace(*filter.CategoryID) != "" {
		q = q.Where("plans.category_id = ?", strings.TrimSpace(*filter.CategoryID))
	}
	if tags := models.NormalizeTags(filter.Tags); len(tags) > 0 {
		tagged := r.db.Model(&models.PlanTag{}).
			Select("plan_id").
			Where("tag IN ?", tags).
			Group("plan_id").
			Having("COUNT(DISTINCT tag) = ?", len(tags))
		q = q.Where("plans.id IN (?)", tagged)
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		q = matchTerm(q, term)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	plans, err := loadPlans(q.Order("plans.created_at DESC").Order("plans.id DESC"))
	if err != nil {
		return nil, storeError("list plans", err)
	}
	return plans, nil
}

// Search matches title or description regardless of visibility
func (r *planRepository) Search(ctx context.Context, term string) ([]models.Plan, error) {
	q := matchTerm(r.db.WithContext(ctx).Model(&models.Plan{}), strings.TrimSpace(term)).
		Order("plans.created_at DESC").Order("plans.id DESC").
		Limit(SearchLimit)

	plans, err := loadPlans(q)
	if err != nil {
		return nil, storeError("search plans", err)
	}
	return plans, nil
}

// MostUsed ranks public plans by usage. Ties go to the older plan.
func (r *planRepository) MostUsed(ctx context.Context, limit int) ([]models.Plan, error) {
	if limit <= 0 {
		limit = DefaultMostUsedLimit
	}
	if limit > MaxMostUsedLimit {
		limit = MaxMostUsedLimit
	}

	q := r.db.WithContext(ctx).Model(&models.Plan{}).
		Where("plans.visibility = ?", string(models.VisibilityPublic)).
		Order("plans.usage_count DESC").
		Order("plans.created_at ASC").
		Order("plans.id ASC").
		Limit(limit)

	plans, err := loadPlans(q)
	if err != nil {
		return nil, storeError("most used plans", err)
	}
	return plans, nil
}

// scopeVisibility applies the read scope: an explicit visibility is used as
// given, otherwise public plans plus the requester's own plans.
func scopeVisibility(q *gorm.DB, filter PlanFilter) *gorm.DB {
	public := string(models.VisibilityPublic)
	switch {
	case filter.Visibility != nil:
		return q.Where("plans.visibility = ?", string(*filter.Visibility))
	case filter.RequestingUserID != "" && len(filter.OrganizationPeers) > 0:
		return q.Where("(plans.visibility = ? OR plans.owner = ? OR (plans.visibility = ? AND plans.owner IN ?))",
			public, filter.RequestingUserID, string(models.VisibilityOrganization), filter.OrganizationPeers)
	case filter.RequestingUserID != "":
		return q.Where("(plans.visibility = ? OR plans.owner = ?)", public, filter.RequestingUserID)
	default:
		return q.Where("plans.visibility = ?", public)
	}
}

// matchTerm is a case-insensitive substring match on title or description.
func matchTerm(q *gorm.DB, term string) *gorm.DB {
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	return q.Where("(LOWER(plans.title) LIKE ? ESCAPE '!' OR LOWER(COALESCE(plans.description, '')) LIKE ? ESCAPE '!')",
		pattern, pattern)
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func loadPlans(q *gorm.DB) ([]models.Plan, error) {
	plans := []models.Plan{}
	if err := q.Preload("TagRows").Find(&plans).Error; err != nil {
		return nil, err
	}
	for i := range plans {
		plans[i].SyncTags()
	}
	return plans, nil
}

// findPlan loads one plan with tags. lock takes a row lock where the dialect
// supports it.
func findPlan(db *gorm.DB, id string, lock bool) (*models.Plan, error) {
	var plan models.Plan
	q := db
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := q.Preload("TagRows").Where("id = ?", id).First(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, planNotFound(id)
		}
		return nil, storeError("get plan", err)
	}
	plan.SyncTags()
	return &plan, nil
}
