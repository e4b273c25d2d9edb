package planlibrary

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dosreb/planlibrary/app/models"
	"github.com/dosreb/planlibrary/app/repository"
	"github.com/dosreb/planlibrary/internal/pkg/apperror"
	"github.com/dosreb/planlibrary/internal/pkg/database/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeSigner struct {
	paths []string
}

func (f *fakeSigner) PresignGet(_ context.Context, storagePath string) (string, time.Time, error) {
	f.paths = append(f.paths, storagePath)
	return "https://files.example/" + storagePath + "?sig=1", time.Now().Add(time.Hour), nil
}

type fakeCleanup struct {
	planIDs []string
	paths   []string
	err     error
}

func (f *fakeCleanup) EnqueueStorageDelete(_ context.Context, planID, storagePath string) error {
	f.planIDs = append(f.planIDs, planID)
	f.paths = append(f.paths, storagePath)
	return f.err
}

type memoryCategoryCache struct {
	items []models.PlanCategory
	ok    bool
	sets  int
}

func (m *memoryCategoryCache) Get(context.Context) ([]models.PlanCategory, bool, error) {
	return m.items, m.ok, nil
}

func (m *memoryCategoryCache) Set(_ context.Context, categories []models.PlanCategory) error {
	m.items, m.ok = categories, true
	m.sets++
	return nil
}

func (m *memoryCategoryCache) Invalidate(context.Context) error {
	m.items, m.ok = nil, false
	return nil
}

func newTestService(t *testing.T, opts ...Option) (*Service, *gorm.DB) {
	t.Helper()
	db := dbtest.Open(t)
	svc := NewService(repository.NewRepositories(db), Config{DefaultActor: "default-actor"}, opts...)
	return svc, db
}

func mustCreate(t *testing.T, svc *Service, actor, title string, visibility models.Visibility, tags ...string) *models.Plan {
	t.Helper()
	p, err := svc.CreatePlan(context.Background(), actor, models.PlanInput{
		Title:       title,
		StoragePath: fmt.Sprintf("plans/%s/%s.pdf", actor, title),
		Filename:    title + ".pdf",
		Visibility:  string(visibility),
		Tags:        tags,
	})
	require.NoError(t, err)
	return p
}

func ids(plans []models.Plan) []string {
	out := make([]string, 0, len(plans))
	for _, p := range plans {
		out = append(out, p.ID)
	}
	return out
}

func TestService_Actor(t *testing.T) {
	svc, _ := newTestService(t)
	assert.Equal(t, "default-actor", svc.Actor(""))
	assert.Equal(t, "default-actor", svc.Actor("   "))
	assert.Equal(t, "u1", svc.Actor(" u1 "))

	fallback := NewService(&repository.Repositories{}, Config{})
	assert.Equal(t, DefaultActorID, fallback.Actor(""))
}

func TestService_CreatePlanValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreatePlan(ctx, "u1", models.PlanInput{StoragePath: "a", Filename: "a.pdf"})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = svc.CreatePlan(ctx, "u1", models.PlanInput{Title: "t", StoragePath: "a", Filename: "a.pdf", Visibility: "team"})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	unknown := "no-such-category"
	_, err = svc.CreatePlan(ctx, "u1", models.PlanInput{Title: "t", StoragePath: "a", Filename: "a.pdf", CategoryID: &unknown})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	p, err := svc.CreatePlan(ctx, "", models.PlanInput{Title: "t", StoragePath: "a", Filename: "a.pdf"})
	require.NoError(t, err)
	assert.Equal(t, "default-actor", p.Owner)
	assert.Equal(t, models.VisibilityPrivate, p.Visibility)
}

func TestService_PrivatePlanScenario(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a := mustCreate(t, svc, "U1", "A", models.VisibilityPrivate)

	asU2, err := svc.ListPlans(ctx, "U2", ListPlansInput{})
	require.NoError(t, err)
	assert.NotContains(t, ids(asU2), a.ID)

	asU1, err := svc.ListPlans(ctx, "U1", ListPlansInput{})
	require.NoError(t, err)
	assert.Contains(t, ids(asU1), a.ID)

	_, err = svc.GetPlan(ctx, "U2", a.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	// an explicit visibility filter does not open other owners' plans
	private, err := svc.ListPlans(ctx, "U2", ListPlansInput{Visibility: "private"})
	require.NoError(t, err)
	assert.Empty(t, private)

	private, err = svc.ListPlans(ctx, "U1", ListPlansInput{Visibility: "PRIVATE"})
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, ids(private))

	_, err = svc.ListPlans(ctx, "U1", ListPlansInput{Visibility: "team"})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestService_OrganizationAudience(t *testing.T) {
	orgs, err := ParseOrganizations("studio:U1,U2")
	require.NoError(t, err)
	svc, _ := newTestService(t, WithAudience(NewStaticAudience(orgs)))
	ctx := context.Background()

	org := mustCreate(t, svc, "U1", "Org plan", models.VisibilityOrganization)

	asPeer, err := svc.ListPlans(ctx, "U2", ListPlansInput{})
	require.NoError(t, err)
	assert.Contains(t, ids(asPeer), org.ID)

	got, err := svc.GetPlan(ctx, "U2", org.ID)
	require.NoError(t, err)
	assert.Equal(t, org.ID, got.ID)

	asStranger, err := svc.ListPlans(ctx, "U3", ListPlansInput{})
	require.NoError(t, err)
	assert.NotContains(t, ids(asStranger), org.ID)

	// peers may read but not change
	title := "renamed"
	_, err = svc.UpdatePlan(ctx, "U2", org.ID, models.PlanUpdate{Title: &title})
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestService_OwnerOnlyMutations(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	p := mustCreate(t, svc, "U1", "Shared", models.VisibilityPublic)

	title := "Hijacked"
	_, err := svc.UpdatePlan(ctx, "U2", p.ID, models.PlanUpdate{Title: &title})
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	assert.ErrorIs(t, svc.DeletePlan(ctx, "U2", p.ID), apperror.ErrForbidden)
	_, err = svc.PlanUsage(ctx, "U2", p.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = svc.UpdatePlan(ctx, "U1", p.ID, models.PlanUpdate{})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	empty := " "
	_, err = svc.UpdatePlan(ctx, "U1", p.ID, models.PlanUpdate{Title: &empty})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	title = "Renamed"
	updated, err := svc.UpdatePlan(ctx, "U1", p.ID, models.PlanUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)

	_, err = svc.UpdatePlan(ctx, "U1", "missing", models.PlanUpdate{Title: &title})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestService_DeleteSchedulesCleanup(t *testing.T) {
	cleanup := &fakeCleanup{err: errors.New("queue down")}
	svc, db := newTestService(t, WithCleanupScheduler(cleanup))
	ctx := context.Background()

	p := mustCreate(t, svc, "U1", "Old", models.VisibilityPublic)
	_, err := svc.LinkPlanToProject(ctx, "U2", "P1", p.ID, nil)
	require.NoError(t, err)
	require.NoError(t, svc.AddFavorite(ctx, "U2", p.ID))

	// a failing queue does not fail the delete
	require.NoError(t, svc.DeletePlan(ctx, "U1", p.ID))
	assert.Equal(t, []string{p.ID}, cleanup.planIDs)
	assert.Equal(t, []string{p.StoragePath}, cleanup.paths)

	var count int64
	require.NoError(t, db.Model(&models.ProjectPlan{}).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&models.PlanFavorite{}).Count(&count).Error)
	assert.Zero(t, count)

	assert.ErrorIs(t, svc.DeletePlan(ctx, "U1", p.ID), apperror.ErrNotFound)
}

func TestService_LinkScenario(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	a := mustCreate(t, svc, "U1", "A", models.VisibilityPrivate)

	created, err := svc.LinkPlanToProject(ctx, "U1", "P1", a.ID, nil)
	require.NoError(t, err)
	assert.True(t, created)
	created, err = svc.LinkPlanToProject(ctx, "U1", "P1", a.ID, nil)
	require.NoError(t, err)
	assert.False(t, created)

	links, err := svc.ListProjectPlans(ctx, "P1")
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, a.ID, links[0].PlanID)
	require.NotNil(t, links[0].Plan)
	assert.Equal(t, int64(1), links[0].Plan.UsageCount)

	// other actors cannot link a private plan
	_, err = svc.LinkPlanToProject(ctx, "U2", "P2", a.ID, nil)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = svc.LinkPlanToProject(ctx, "U1", " ", a.ID, nil)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	require.NoError(t, svc.UnlinkPlanFromProject(ctx, "P1", a.ID))
	require.NoError(t, svc.UnlinkPlanFromProject(ctx, "P1", a.ID))
	got, err := svc.GetPlan(ctx, "U1", a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.UsageCount)

	usage, err := svc.PlanUsage(ctx, "U1", a.ID)
	require.NoError(t, err)
	assert.Empty(t, usage)
}

func TestService_FavoritesScenario(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	a := mustCreate(t, svc, "U2", "A", models.VisibilityPublic)
	hidden := mustCreate(t, svc, "U2", "Hidden", models.VisibilityPrivate)

	require.NoError(t, svc.AddFavorite(ctx, "U1", a.ID))
	require.NoError(t, svc.AddFavorite(ctx, "U1", a.ID))
	assert.ErrorIs(t, svc.AddFavorite(ctx, "U1", hidden.ID), apperror.ErrNotFound)

	favs, err := svc.ListFavorites(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, ids(favs))

	// turning a favorite private hides it from the list
	vis := "private"
	_, err = svc.UpdatePlan(ctx, "U2", a.ID, models.PlanUpdate{Visibility: &vis})
	require.NoError(t, err)
	favs, err = svc.ListFavorites(ctx, "U1")
	require.NoError(t, err)
	assert.Empty(t, favs)

	require.NoError(t, svc.RemoveFavorite(ctx, "U1", a.ID))
	require.NoError(t, svc.RemoveFavorite(ctx, "U1", a.ID))
}

func TestService_SearchScenario(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	byTitle := mustCreate(t, svc, "U1", "Floor Plan Level 2", models.VisibilityPublic)
	desc := "Section through the ground FLOOR"
	byDesc, err := svc.CreatePlan(ctx, "U1", models.PlanInput{
		Title: "Section A", Description: &desc, StoragePath: "s", Filename: "s.pdf", Visibility: "public",
	})
	require.NoError(t, err)
	private := mustCreate(t, svc, "U2", "Private floor", models.VisibilityPrivate)
	_ = mustCreate(t, svc, "U1", "Facade", models.VisibilityPublic)

	found, err := svc.SearchPlans(ctx, "U1", "floor")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{byTitle.ID, byDesc.ID}, ids(found))

	found, err = svc.SearchPlans(ctx, "U2", "FLOOR")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{byTitle.ID, byDesc.ID, private.ID}, ids(found))

	_, err = svc.SearchPlans(ctx, "U1", "  ")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestService_MostUsed(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	plans := make([]*models.Plan, 0, 4)
	for i := 0; i < 4; i++ {
		plans = append(plans, mustCreate(t, svc, "U1", fmt.Sprintf("Plan %d", i), models.VisibilityPublic))
	}
	private := mustCreate(t, svc, "U1", "Private", models.VisibilityPrivate)

	link := func(planID string, projects int) {
		for i := 0; i < projects; i++ {
			_, err := svc.LinkPlanToProject(ctx, "U1", fmt.Sprintf("P%d", i), planID, nil)
			require.NoError(t, err)
		}
	}
	link(plans[0].ID, 1)
	link(plans[1].ID, 4)
	link(plans[2].ID, 2)
	link(private.ID, 9)

	top, err := svc.MostUsedPlans(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{plans[1].ID, plans[2].ID, plans[0].ID}, ids(top))
	assert.Equal(t, int64(4), top[0].UsageCount)
}

func TestService_Categories(t *testing.T) {
	cache := &memoryCategoryCache{}
	svc, db := newTestService(t, WithCategoryCache(cache))
	ctx := context.Background()

	empty, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, cache.Invalidate(ctx))
	require.NoError(t, db.Create(&models.PlanCategory{Name: "Sections"}).Error)
	require.NoError(t, db.Create(&models.PlanCategory{Name: "Facades"}).Error)

	categories, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "Facades", categories[0].Name)

	// served from cache
	require.NoError(t, db.Create(&models.PlanCategory{Name: "Details"}).Error)
	categories, err = svc.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 2)
	assert.Equal(t, 2, cache.sets)
}

func TestService_DownloadURL(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	p := mustCreate(t, svc, "U1", "Plan", models.VisibilityPublic)

	_, err := svc.PlanDownloadURL(ctx, "U1", p.ID)
	assert.ErrorIs(t, err, apperror.ErrStorageDisabled)

	signer := &fakeSigner{}
	WithURLSigner(signer)(svc)

	url, err := svc.PlanDownloadURL(ctx, "U2", p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, url.PlanID)
	assert.Equal(t, "Plan.pdf", url.Filename)
	assert.Contains(t, url.URL, p.StoragePath)
	assert.Equal(t, []string{p.StoragePath}, signer.paths)

	hidden := mustCreate(t, svc, "U1", "Hidden", models.VisibilityPrivate)
	_, err = svc.PlanDownloadURL(ctx, "U2", hidden.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
