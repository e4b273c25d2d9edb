package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dosreb/planlibrary/app/models"
	"github.com/dosreb/planlibrary/internal/pkg/apperror"
	"github.com/dosreb/planlibrary/internal/pkg/database/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createPlan(t *testing.T, repos *Repositories, owner, title string, visibility models.Visibility, tags ...string) *models.Plan {
	t.Helper()
	p, err := models.NewPlan(owner, models.PlanInput{
		Title:       title,
		StoragePath: "plans/" + owner + "/" + title,
		Filename:    title + ".pdf",
		Visibility:  string(visibility),
		Tags:        tags,
	})
	require.NoError(t, err)
	require.NoError(t, repos.Plan.Create(context.Background(), p))
	return p
}

func planIDs(plans []models.Plan) []string {
	ids := make([]string, 0, len(plans))
	for _, p := range plans {
		ids = append(ids, p.ID)
	}
	return ids
}

func setupRepos(t *testing.T) (*gorm.DB, *Repositories) {
	db := dbtest.Open(t)
	return db, NewRepositories(db)
}

func TestPlanRepository_CreateAndGet(t *testing.T) {
	_, repos := setupRepos(t)
	ctx := context.Background()

	p := createPlan(t, repos, "u1", "Floor Plan Level 2", models.VisibilityPublic, "Floor", "level-2", "floor")

	got, err := repos.Plan.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Floor Plan Level 2", got.Title)
	assert.Equal(t, models.VisibilityPublic, got.Visibility)
	assert.Equal(t, int64(0), got.UsageCount)
	assert.Equal(t, []string{"floor", "level-2"}, got.Tags)
}

func TestPlanRepository_CreateForcesZeroUsage(t *testing.T) {
	_, repos := setupRepos(t)
	ctx := context.Background()

	p, err := models.NewPlan("u1", models.PlanInput{Title: "t", StoragePath: "s", Filename: "f"})
	require.NoError(t, err)
	p.UsageCount = 99
	require.NoError(t, repos.Plan.Create(ctx, p))

	got, err := repos.Plan.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.UsageCount)
}

func TestPlanRepository_GetMissing(t *testing.T) {
	_, repos := setupRepos(t)

	_, err := repos.Plan.GetByID(context.Background(), "does-not-exist")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestPlanRepository_Update(t *testing.T) {
	db, repos := setupRepos(t)
	ctx := context.Background()
	cat := models.PlanCategory{Name: "Sections"}
	require.NoError(t, db.Create(&cat).Error)

	p := createPlan(t, repos, "u1", "Old title", models.VisibilityPrivate, "a", "b")

	title := "New title"
	vis := "public"
	tags := []string{"C", "b"}
	meta := map[string]any{"scale": "1:100"}
	got, err := repos.Plan.Update(ctx, p.ID, models.PlanUpdate{
		Title:      &title,
		Visibility: &vis,
		Tags:       &tags,
		CategoryID: &cat.ID,
		Metadata:   &meta,
	})
	require.NoError(t, err)
	assert.Equal(t, "New title", got.Title)
	assert.Equal(t, models.VisibilityPublic, got.Visibility)
	assert.Equal(t, []string{"b", "c"}, got.Tags)
	require.NotNil(t, got.CategoryID)
	assert.Equal(t, cat.ID, *got.CategoryID)
	assert.Equal(t, "1:100", got.Metadata["scale"])
	assert.Equal(t, p.StoragePath, got.StoragePath)
	assert.Equal(t, p.Filename, got.Filename)

	clear := ""
	got, err = repos.Plan.Update(ctx, p.ID, models.PlanUpdate{CategoryID: &clear})
	require.NoError(t, err)
	assert.Nil(t, got.CategoryID)
	assert.Equal(t, []string{"b", "c"}, got.Tags)

	_, err = repos.Plan.Update(ctx, "missing", models.PlanUpdate{Title: &title})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestPlanRepository_DeleteCascades(t *testing.T) {
	db, repos := setupRepos(t)
	ctx := context.Background()

	p := createPlan(t, repos, "u1", "Facade", models.VisibilityPublic, "facade")
	other := createPlan(t, repos, "u1", "Other", models.VisibilityPublic)

	for _, project := range []string{"P1", "P2", "P3"} {
		_, err := repos.Link.Link(ctx, project, p.ID, "u1", nil)
		require.NoError(t, err)
	}
	_, err := repos.Link.Link(ctx, "P1", other.ID, "u1", nil)
	require.NoError(t, err)
	for _, user := range []string{"u1", "u2"} {
		require.NoError(t, repos.Favorite.Add(ctx, user, p.ID))
	}

	deleted, err := repos.Plan.Delete(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, deleted.ID)
	assert.Equal(t, p.StoragePath, deleted.StoragePath)

	var count int64
	require.NoError(t, db.Model(&models.ProjectPlan{}).Where("plan_id = ?", p.ID).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&models.PlanFavorite{}).Where("plan_id = ?", p.ID).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&models.PlanTag{}).Where("plan_id = ?", p.ID).Count(&count).Error)
	assert.Zero(t, count)

	// unrelated links survive
	require.NoError(t, db.Model(&models.ProjectPlan{}).Where("plan_id = ?", other.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	_, err = repos.Plan.Delete(ctx, p.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestPlanRepository_ListVisibility(t *testing.T) {
	_, repos := setupRepos(t)
	ctx := context.Background()

	pub := createPlan(t, repos, "u1", "Public", models.VisibilityPublic)
	a := createPlan(t, repos, "u1", "A", models.VisibilityPrivate)
	org := createPlan(t, repos, "u1", "Org", models.VisibilityOrganization)
	u2priv := createPlan(t, repos, "u2", "U2 private", models.VisibilityPrivate)

	anonymous, err := repos.Plan.List(ctx, PlanFilter{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{pub.ID}, planIDs(anonymous))

	asU1, err := repos.Plan.List(ctx, PlanFilter{RequestingUserID: "u1"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{pub.ID, a.ID, org.ID}, planIDs(asU1))

	asU2, err := repos.Plan.List(ctx, PlanFilter{RequestingUserID: "u2"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{pub.ID, u2priv.ID}, planIDs(asU2))
	assert.NotContains(t, planIDs(asU2), a.ID)

	asPeer, err := repos.Plan.List(ctx, PlanFilter{RequestingUserID: "u2", OrganizationPeers: []string{"u1"}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{pub.ID, org.ID, u2priv.ID}, planIDs(asPeer))

	private := models.VisibilityPrivate
	explicit, err := repos.Plan.List(ctx, PlanFilter{Visibility: &private, RequestingUserID: "u2"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a.ID, u2priv.ID}, planIDs(explicit))
}

func TestPlanRepository_ListFilters(t *testing.T) {
	db, repos := setupRepos(t)
	ctx := context.Background()
	cat := models.PlanCategory{Name: "Floor plans"}
	require.NoError(t, db.Create(&cat).Error)

	both := createPlan(t, repos, "u1", "Ground floor", models.VisibilityPublic, "floor", "ground")
	floorOnly := createPlan(t, repos, "u1", "Roof", models.VisibilityPublic, "floor")
	_ = createPlan(t, repos, "u1", "100%_done", models.VisibilityPublic, "misc")

	_, err := repos.Plan.Update(ctx, floorOnly.ID, models.PlanUpdate{CategoryID: &cat.ID})
	require.NoError(t, err)

	tagged, err := repos.Plan.List(ctx, PlanFilter{Tags: []string{"FLOOR", "ground"}})
	require.NoError(t, err)
	assert.Equal(t, []string{both.ID}, planIDs(tagged))

	byCategory, err := repos.Plan.List(ctx, PlanFilter{CategoryID: &cat.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{floorOnly.ID}, planIDs(byCategory))

	// wildcards in the term are literal
	literal, err := repos.Plan.List(ctx, PlanFilter{Search: "%_"})
	require.NoError(t, err)
	assert.Len(t, literal, 1)

	limited, err := repos.Plan.List(ctx, PlanFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestPlanRepository_SearchCaseInsensitive(t *testing.T) {
	db, repos := setupRepos(t)
	ctx := context.Background()

	byTitle := createPlan(t, repos, "u1", "Floor Plan Level 2", models.VisibilityPublic)
	byDesc := createPlan(t, repos, "u2", "Section B", models.VisibilityPrivate)
	require.NoError(t, db.Model(&models.Plan{}).Where("id = ?", byDesc.ID).
		Update("description", "Cut through the upper FLOOR").Error)
	_ = createPlan(t, repos, "u1", "Facade north", models.VisibilityPublic)

	found, err := repos.Plan.Search(ctx, "floor")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{byTitle.ID, byDesc.ID}, planIDs(found))

	viaList, err := repos.Plan.List(ctx, PlanFilter{Search: "FLOOR", RequestingUserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, []string{byTitle.ID}, planIDs(viaList))
}

func TestPlanRepository_SearchCapped(t *testing.T) {
	_, repos := setupRepos(t)
	ctx := context.Background()

	for i := 0; i < SearchLimit+5; i++ {
		createPlan(t, repos, "u1", fmt.Sprintf("Plan %02d", i), models.VisibilityPublic)
	}

	found, err := repos.Plan.Search(ctx, "plan")
	require.NoError(t, err)
	assert.Len(t, found, SearchLimit)
}

func TestPlanRepository_MostUsed(t *testing.T) {
	db, repos := setupRepos(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	usages := []int{3, 5, 5, 0, 9}
	plans := make([]*models.Plan, 0, len(usages))
	for i, usage := range usages {
		p := createPlan(t, repos, "u1", "Plan "+string(rune('A'+i)), models.VisibilityPublic)
		require.NoError(t, db.Model(&models.Plan{}).Where("id = ?", p.ID).UpdateColumns(map[string]interface{}{
			"usage_count": usage,
			"created_at":  base.Add(time.Duration(i) * time.Minute),
		}).Error)
		plans = append(plans, p)
	}
	hidden := createPlan(t, repos, "u1", "Hidden", models.VisibilityPrivate)
	require.NoError(t, db.Model(&models.Plan{}).Where("id = ?", hidden.ID).UpdateColumn("usage_count", 100).Error)

	top, err := repos.Plan.MostUsed(ctx, 3)
	require.NoError(t, err)
	require.Len(t, top, 3)
	// ties go to the older plan
	assert.Equal(t, []string{plans[4].ID, plans[1].ID, plans[2].ID}, planIDs(top))
	for i := 1; i < len(top); i++ {
		assert.GreaterOrEqual(t, top[i-1].UsageCount, top[i].UsageCount)
	}

	all, err := repos.Plan.MostUsed(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, len(usages))
	assert.NotContains(t, planIDs(all), hidden.ID)
}

func TestCategoryRepository_ListOrdered(t *testing.T) {
	db, repos := setupRepos(t)
	ctx := context.Background()

	empty, err := repos.Category.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	for _, name := range []string{"Sections", "Facades", "Floor plans"} {
		require.NoError(t, db.Create(&models.PlanCategory{Name: name}).Error)
	}

	categories, err := repos.Category.List(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 3)
	assert.Equal(t, "Facades", categories[0].Name)
	assert.Equal(t, "Floor plans", categories[1].Name)
	assert.Equal(t, "Sections", categories[2].Name)

	got, err := repos.Category.GetByID(ctx, categories[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Facades", got.Name)

	_, err = repos.Category.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestStoreErrorsAreRetryable(t *testing.T) {
	db, repos := setupRepos(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = repos.Plan.List(context.Background(), PlanFilter{})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrStoreUnavailable)
	require.NotNil(t, apperror.GetAppError(err))
	assert.True(t, apperror.GetAppError(err).Retryable())
}
