package repository

import (
	"context"

	"github.com/dosreb/planlibrary/app/models"
	"gorm.io/gorm"
)

// CategoryRepository defines the interface for plan category lookups
type CategoryRepository interface {
	List(ctx context.Context) ([]models.PlanCategory, error)
	GetByID(ctx context.Context, id string) (*models.PlanCategory, error)
}

// PlanRepository defines the interface for catalog operations
type PlanRepository interface {
	Create(ctx context.Context, plan *models.Plan) error
	GetByID(ctx context.Context, id string) (*models.Plan, error)
	Update(ctx context.Context, id string, update models.PlanUpdate) (*models.Plan, error)
	Delete(ctx context.Context, id string) (*models.Plan, error)
	List(ctx context.Context, filter PlanFilter) ([]models.Plan, error)
	Search(ctx context.Context, term string) ([]models.Plan, error)
	MostUsed(ctx context.Context, limit int) ([]models.Plan, error)
}

// LinkRepository defines the interface for project/plan links
type LinkRepository interface {
	Link(ctx context.Context, projectID, planID, actorID string, notes *string) (bool, error)
	Unlink(ctx context.Context, projectID, planID string) error
	ListForProject(ctx context.Context, projectID string) ([]models.ProjectPlan, error)
	ListForPlan(ctx context.Context, planID string) ([]models.ProjectPlan, error)
}

// FavoriteRepository defines the interface for per-user bookmarks
type FavoriteRepository interface {
	Add(ctx context.Context, userID, planID string) error
	Remove(ctx context.Context, userID, planID string) error
	List(ctx context.Context, userID string) ([]models.Plan, error)
}

// PlanFilter narrows List. Zero values mean "no constraint".
type PlanFilter struct {
	CategoryID *string
	Visibility *models.Visibility
	// Tags must all be present on a plan.
	Tags             []string
	Search           string
	RequestingUserID string
	// OrganizationPeers extends the implicit scope with organization plans
	// owned by these actors.
	OrganizationPeers []string
	Limit             int
}

const (
	SearchLimit          = 50
	DefaultMostUsedLimit = 10
	MaxMostUsedLimit     = 100
)

// Repositories struct holds all repository instances
type Repositories struct {
	Category CategoryRepository
	Plan     PlanRepository
	Link     LinkRepository
	Favorite FavoriteRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Category: NewCategoryRepository(db),
		Plan:     NewPlanRepository(db),
		Link:     NewLinkRepository(db),
		Favorite: NewFavoriteRepository(db),
	}
}
