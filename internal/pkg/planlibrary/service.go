// Package planlibrary is the query facade of the shared plan library. It is
// the only place that resolves the acting identity and applies the read and
// ownership rules before delegating to the repositories.
package planlibrary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dosreb/planlibrary/app/models"
	"github.com/dosreb/planlibrary/app/repository"
	"github.com/dosreb/planlibrary/internal/pkg/apperror"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2/log"
)

// URLSigner hands out time limited download links for stored files.
type URLSigner interface {
	PresignGet(ctx context.Context, storagePath string) (string, time.Time, error)
}

// CleanupScheduler removes stored files of deleted plans in the background.
type CleanupScheduler interface {
	EnqueueStorageDelete(ctx context.Context, planID, storagePath string) error
}

// ListPlansInput is the browse filter as the presentation layer sends it.
type ListPlansInput struct {
	CategoryID string
	Visibility string
	Search     string
	Tags       []string
}

// DownloadURL is a presigned link to a plan's stored file.
type DownloadURL struct {
	PlanID    string    `json:"plan_id"`
	Filename  string    `json:"filename"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Service composes the catalog, link and favorite registries.
type Service struct {
	categories repository.CategoryRepository
	plans      repository.PlanRepository
	links      repository.LinkRepository
	favorites  repository.FavoriteRepository

	cfg           Config
	audience      Audience
	categoryCache CategoryCache
	signer        URLSigner
	cleanup       CleanupScheduler
}

type Option func(*Service)

func WithAudience(a Audience) Option {
	return func(s *Service) {
		if a != nil {
			s.audience = a
		}
	}
}

func WithCategoryCache(c CategoryCache) Option {
	return func(s *Service) { s.categoryCache = c }
}

func WithURLSigner(signer URLSigner) Option {
	return func(s *Service) { s.signer = signer }
}

func WithCleanupScheduler(c CleanupScheduler) Option {
	return func(s *Service) { s.cleanup = c }
}

func NewService(repos *repository.Repositories, cfg Config, opts ...Option) *Service {
	if cfg.DefaultActor == "" {
		cfg.DefaultActor = DefaultActorID
	}
	s := &Service{
		categories: repos.Category,
		plans:      repos.Plan,
		links:      repos.Link,
		favorites:  repos.Favorite,
		cfg:        cfg,
		audience:   OwnerOnly{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Actor resolves the acting identity, falling back to the default actor.
func (s *Service) Actor(actorID string) string {
	if id := strings.TrimSpace(actorID); id != "" {
		return id
	}
	return s.cfg.DefaultActor
}

// ListCategories returns all categories ordered by name.
func (s *Service) ListCategories(ctx context.Context) ([]models.PlanCategory, error) {
	if s.categoryCache != nil {
		cached, ok, err := s.categoryCache.Get(ctx)
		if err != nil {
			log.Warnf("[PlanLibrary] Category cache read failed: %v", err)
		} else if ok {
			return cached, nil
		}
	}

	categories, err := s.categories.List(ctx)
	if err != nil {
		return readFailure(s.cfg, "list categories", err, []models.PlanCategory{})
	}

	if s.categoryCache != nil {
		if err := s.categoryCache.Set(ctx, categories); err != nil {
			log.Warnf("[PlanLibrary] Category cache write failed: %v", err)
		}
	}
	return categories, nil
}

// ListPlans browses the catalog as actor.
func (s *Service) ListPlans(ctx context.Context, actorID string, in ListPlansInput) ([]models.Plan, error) {
	actor := s.Actor(actorID)

	filter := repository.PlanFilter{
		Tags:             in.Tags,
		Search:           strings.TrimSpace(in.Search),
		RequestingUserID: actor,
	}
	if id := strings.TrimSpace(in.CategoryID); id != "" {
		filter.CategoryID = &id
	}
	if raw := strings.TrimSpace(in.Visibility); raw != "" {
		v, ok := models.ParseVisibility(raw)
		if !ok {
			return nil, apperror.NewValidationError("unknown visibility", raw)
		}
		filter.Visibility = &v
	}

	peers := s.peers(ctx, actor)
	filter.OrganizationPeers = peers

	plans, err := s.plans.List(ctx, filter)
	if err != nil {
		return readFailure(s.cfg, "list plans", err, []models.Plan{})
	}
	if filter.Visibility != nil && *filter.Visibility != models.VisibilityPublic {
		plans = visibleOnly(plans, actor, peers)
	}
	return plans, nil
}

// GetPlan returns a plan the actor may read. Unreadable plans are reported
// as missing.
func (s *Service) GetPlan(ctx context.Context, actorID, id string) (*models.Plan, error) {
	actor := s.Actor(actorID)
	return s.visiblePlan(ctx, actor, id)
}

// CreatePlan stores a new plan owned by actor.
func (s *Service) CreatePlan(ctx context.Context, actorID string, in models.PlanInput) (*models.Plan, error) {
	actor := s.Actor(actorID)

	plan, err := models.NewPlan(actor, in)
	if err != nil {
		return nil, validationError(err)
	}
	if err := s.checkCategory(ctx, plan.CategoryID); err != nil {
		return nil, err
	}

	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, err
	}
	log.Infof("[PlanLibrary] Plan %s created by %s", plan.ID, actor)
	return plan, nil
}

// UpdatePlan changes a plan owned by actor.
func (s *Service) UpdatePlan(ctx context.Context, actorID, id string, update models.PlanUpdate) (*models.Plan, error) {
	actor := s.Actor(actorID)

	if err := update.Validate(); err != nil {
		return nil, validationError(err)
	}
	if update.IsEmpty() {
		return nil, apperror.NewValidationError("no fields to update")
	}
	if _, err := s.ownedPlan(ctx, actor, id); err != nil {
		return nil, err
	}
	if update.CategoryID != nil && strings.TrimSpace(*update.CategoryID) != "" {
		categoryID := strings.TrimSpace(*update.CategoryID)
		if err := s.checkCategory(ctx, &categoryID); err != nil {
			return nil, err
		}
	}

	return s.plans.Update(ctx, id, update)
}

// DeletePlan removes a plan owned by actor together with its links and
// favorites. The stored file is cleaned up in the background.
func (s *Service) DeletePlan(ctx context.Context, actorID, id string) error {
	actor := s.Actor(actorID)

	if _, err := s.ownedPlan(ctx, actor, id); err != nil {
		return err
	}
	deleted, err := s.plans.Delete(ctx, id)
	if err != nil {
		return err
	}
	log.Infof("[PlanLibrary] Plan %s deleted by %s", id, actor)

	if s.cleanup != nil && deleted.StoragePath != "" {
		if err := s.cleanup.EnqueueStorageDelete(ctx, deleted.ID, deleted.StoragePath); err != nil {
			log.Errorf("[PlanLibrary] Failed to schedule storage cleanup for plan %s: %v", id, err)
		}
	}
	return nil
}

// SearchPlans matches title or description within the actor's read scope.
func (s *Service) SearchPlans(ctx context.Context, actorID, term string) ([]models.Plan, error) {
	actor := s.Actor(actorID)

	term = strings.TrimSpace(term)
	if term == "" {
		return nil, apperror.NewValidationError("search term is required")
	}

	plans, err := s.plans.List(ctx, repository.PlanFilter{
		Search:            term,
		RequestingUserID:  actor,
		OrganizationPeers: s.peers(ctx, actor),
		Limit:             repository.SearchLimit,
	})
	if err != nil {
		return readFailure(s.cfg, "search plans", err, []models.Plan{})
	}
	return plans, nil
}

// MostUsedPlans ranks public plans by usage.
func (s *Service) MostUsedPlans(ctx context.Context, limit int) ([]models.Plan, error) {
	plans, err := s.plans.MostUsed(ctx, limit)
	if err != nil {
		return readFailure(s.cfg, "most used plans", err, []models.Plan{})
	}
	return plans, nil
}

// LinkPlanToProject links a readable plan into a project. created is false
// when the link already existed.
func (s *Service) LinkPlanToProject(ctx context.Context, actorID, projectID, planID string, notes *string) (bool, error) {
	actor := s.Actor(actorID)

	projectID = strings.TrimSpace(projectID)
	planID = strings.TrimSpace(planID)
	if projectID == "" || planID == "" {
		return false, apperror.NewValidationError("project id and plan id are required")
	}
	if _, err := s.visiblePlan(ctx, actor, planID); err != nil {
		return false, err
	}

	created, err := s.links.Link(ctx, projectID, planID, actor, notes)
	if err != nil {
		return false, err
	}
	if created {
		log.Infof("[PlanLibrary] Plan %s linked to project %s by %s", planID, projectID, actor)
	}
	return created, nil
}

// UnlinkPlanFromProject removes a link. Missing links are ignored.
func (s *Service) UnlinkPlanFromProject(ctx context.Context, projectID, planID string) error {
	projectID = strings.TrimSpace(projectID)
	planID = strings.TrimSpace(planID)
	if projectID == "" || planID == "" {
		return apperror.NewValidationError("project id and plan id are required")
	}
	return s.links.Unlink(ctx, projectID, planID)
}

// ListProjectPlans returns the links of a project with their plans.
func (s *Service) ListProjectPlans(ctx context.Context, projectID string) ([]models.ProjectPlan, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return nil, apperror.NewValidationError("project id is required")
	}
	return s.links.ListForProject(ctx, projectID)
}

// PlanUsage lists the projects a plan is linked into. Owner only.
func (s *Service) PlanUsage(ctx context.Context, actorID, id string) ([]models.ProjectPlan, error) {
	actor := s.Actor(actorID)
	if _, err := s.ownedPlan(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.links.ListForPlan(ctx, id)
}

// PlanDownloadURL presigns a download link for a readable plan.
func (s *Service) PlanDownloadURL(ctx context.Context, actorID, id string) (*DownloadURL, error) {
	if s.signer == nil {
		return nil, apperror.NewStorageDisabledError("object storage is not configured")
	}
	actor := s.Actor(actorID)

	plan, err := s.visiblePlan(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	url, expires, err := s.signer.PresignGet(ctx, plan.StoragePath)
	if err != nil {
		return nil, apperror.NewInternalError("could not sign download url", err)
	}
	return &DownloadURL{
		PlanID:    plan.ID,
		Filename:  plan.Filename,
		URL:       url,
		ExpiresAt: expires,
	}, nil
}

// AddFavorite bookmarks a readable plan. Repeated adds are no-ops.
func (s *Service) AddFavorite(ctx context.Context, userID, planID string) error {
	user := s.Actor(userID)
	if _, err := s.visiblePlan(ctx, user, planID); err != nil {
		return err
	}
	return s.favorites.Add(ctx, user, planID)
}

// RemoveFavorite drops a bookmark. Missing bookmarks are ignored.
func (s *Service) RemoveFavorite(ctx context.Context, userID, planID string) error {
	return s.favorites.Remove(ctx, s.Actor(userID), strings.TrimSpace(planID))
}

// ListFavorites returns the user's bookmarked plans that are still readable.
func (s *Service) ListFavorites(ctx context.Context, userID string) ([]models.Plan, error) {
	user := s.Actor(userID)
	plans, err := s.favorites.List(ctx, user)
	if err != nil {
		return readFailure(s.cfg, "list favorites", err, []models.Plan{})
	}
	return visibleOnly(plans, user, s.peers(ctx, user)), nil
}

func (s *Service) visiblePlan(ctx context.Context, actor, id string) (*models.Plan, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.NewValidationError("plan id is required")
	}
	plan, err := s.plans.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if plan.Visibility == models.VisibilityPublic || plan.Owner == actor {
		return plan, nil
	}
	if !plan.IsVisibleTo(actor, s.peers(ctx, actor)) {
		return nil, apperror.NewNotFoundError("plan not found", id)
	}
	return plan, nil
}

func (s *Service) ownedPlan(ctx context.Context, actor, id string) (*models.Plan, error) {
	plan, err := s.visiblePlan(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if plan.Owner != actor {
		return nil, apperror.NewForbiddenError("only the owner may change this plan", id)
	}
	return plan, nil
}

func (s *Service) checkCategory(ctx context.Context, categoryID *string) error {
	if categoryID == nil {
		return nil
	}
	if _, err := s.categories.GetByID(ctx, *categoryID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.NewValidationError("unknown category", *categoryID)
		}
		return err
	}
	return nil
}

// peers never fails the request; an unreachable directory narrows the scope
// to owner-only.
func (s *Service) peers(ctx context.Context, actor string) []string {
	peers, err := s.audience.Peers(ctx, actor)
	if err != nil {
		log.Warnf("[PlanLibrary] Could not resolve organization peers for %s: %v", actor, err)
		return nil
	}
	return peers
}

// readFailure either surfaces a failed read or, when configured, logs it and
// hands back an empty result.
func readFailure[T any](cfg Config, op string, err error, empty []T) ([]T, error) {
	if cfg.SwallowReadErrors {
		log.Errorf("[PlanLibrary] %s failed, returning empty result: %v", op, err)
		return empty, nil
	}
	return nil, err
}

func visibleOnly(plans []models.Plan, actor string, peers []string) []models.Plan {
	out := make([]models.Plan, 0, len(plans))
	for i := range plans {
		if plans[i].IsVisibleTo(actor, peers) {
			out = append(out, plans[i])
		}
	}
	return out
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, fmt.Sprintf("%s: %s", strings.ToLower(fe.Field()), fe.Tag()))
		}
		return apperror.NewValidationError("invalid plan fields", details...)
	}
	return apperror.NewValidationError(err.Error())
}
