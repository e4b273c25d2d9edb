package controllers

import (
	"github.com/dosreb/planlibrary/app/models"
	"github.com/dosreb/planlibrary/app/repository"
	"github.com/dosreb/planlibrary/internal/pkg/apperror"
	"github.com/dosreb/planlibrary/internal/pkg/planlibrary"
	"github.com/gofiber/fiber/v2"
)

// ============================================================================
// PLAN LIBRARY CONTROLLER - JSON API over the query facade
// ============================================================================

// PlanLibraryController maps the plan library HTTP API onto the facade
type PlanLibraryController struct {
	service *planlibrary.Service
}

// NewPlanLibraryController creates a new controller for the given facade
func NewPlanLibraryController(service *planlibrary.Service) *PlanLibraryController {
	return &PlanLibraryController{service: service}
}

type linkRequest struct {
	PlanID string  `json:"plan_id"`
	Notes  *string `json:"notes"`
}

// HandleListCategories returns all plan categories
func (pc *PlanLibraryController) HandleListCategories(c *fiber.Ctx) error {
	categories, err := pc.service.ListCategories(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(categories)
}

// HandleListPlans browses the catalog
func (pc *PlanLibraryController) HandleListPlans(c *fiber.Ctx) error {
	plans, err := pc.service.ListPlans(c.UserContext(), actorID(c), planlibrary.ListPlansInput{
		CategoryID: c.Query("category_id"),
		Visibility: c.Query("visibility"),
		Search:     c.Query("search"),
		Tags:       splitList(c.Query("tags")),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(plans)
}

// HandleSearchPlans matches title and description
func (pc *PlanLibraryController) HandleSearchPlans(c *fiber.Ctx) error {
	plans, err := pc.service.SearchPlans(c.UserContext(), actorID(c), c.Query("q"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(plans)
}

// HandleMostUsedPlans ranks public plans by usage
func (pc *PlanLibraryController) HandleMostUsedPlans(c *fiber.Ctx) error {
	limit, err := queryLimit(c, "limit", repository.DefaultMostUsedLimit)
	if err != nil {
		return respondError(c, err)
	}
	plans, err := pc.service.MostUsedPlans(c.UserContext(), limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(plans)
}

func (pc *PlanLibraryController) HandleGetPlan(c *fiber.Ctx) error {
	plan, err := pc.service.GetPlan(c.UserContext(), actorID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(plan)
}

// HandlePlanDownload returns a presigned link to the stored file
func (pc *PlanLibraryController) HandlePlanDownload(c *fiber.Ctx) error {
	url, err := pc.service.PlanDownloadURL(c.UserContext(), actorID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(url)
}

// HandlePlanUsage lists the projects a plan is linked into
func (pc *PlanLibraryController) HandlePlanUsage(c *fiber.Ctx) error {
	links, err := pc.service.PlanUsage(c.UserContext(), actorID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(links)
}

func (pc *PlanLibraryController) HandleCreatePlan(c *fiber.Ctx) error {
	var in models.PlanInput
	if err := c.BodyParser(&in); err != nil {
		return respondError(c, apperror.NewValidationError("invalid request body", err.Error()))
	}
	plan, err := pc.service.CreatePlan(c.UserContext(), actorID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(plan)
}

func (pc *PlanLibraryController) HandleUpdatePlan(c *fiber.Ctx) error {
	var update models.PlanUpdate
	if err := c.BodyParser(&update); err != nil {
		return respondError(c, apperror.NewValidationError("invalid request body", err.Error()))
	}
	plan, err := pc.service.UpdatePlan(c.UserContext(), actorID(c), c.Params("id"), update)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(plan)
}

func (pc *PlanLibraryController) HandleDeletePlan(c *fiber.Ctx) error {
	if err := pc.service.DeletePlan(c.UserContext(), actorID(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleListProjectPlans returns the plans linked into a project
func (pc *PlanLibraryController) HandleListProjectPlans(c *fiber.Ctx) error {
	links, err := pc.service.ListProjectPlans(c.UserContext(), c.Params("projectId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(links)
}

// HandleLinkPlan answers 201 for a new link and 200 when it already existed
func (pc *PlanLibraryController) HandleLinkPlan(c *fiber.Ctx) error {
	var req linkRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperror.NewValidationError("invalid request body", err.Error()))
	}
	projectID := c.Params("projectId")
	created, err := pc.service.LinkPlanToProject(c.UserContext(), actorID(c), projectID, req.PlanID, req.Notes)
	if err != nil {
		return respondError(c, err)
	}

	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{
		"project_id": projectID,
		"plan_id":    req.PlanID,
		"created":    created,
	})
}

func (pc *PlanLibraryController) HandleUnlinkPlan(c *fiber.Ctx) error {
	if err := pc.service.UnlinkPlanFromProject(c.UserContext(), c.Params("projectId"), c.Params("planId")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (pc *PlanLibraryController) HandleListFavorites(c *fiber.Ctx) error {
	plans, err := pc.service.ListFavorites(c.UserContext(), actorID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(plans)
}

func (pc *PlanLibraryController) HandleAddFavorite(c *fiber.Ctx) error {
	if err := pc.service.AddFavorite(c.UserContext(), actorID(c), c.Params("planId")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (pc *PlanLibraryController) HandleRemoveFavorite(c *fiber.Ctx) error {
	if err := pc.service.RemoveFavorite(c.UserContext(), actorID(c), c.Params("planId")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RegisterRoutes installs the plan library API on router
func (pc *PlanLibraryController) RegisterRoutes(router fiber.Router) {
	router.Get("/categories", pc.HandleListCategories)

	router.Get("/plans", pc.HandleListPlans)
	router.Get("/plans/search", pc.HandleSearchPlans)
	router.Get("/plans/most-used", pc.HandleMostUsedPlans)
	router.Get("/plans/:id", pc.HandleGetPlan)
	router.Get("/plans/:id/download", pc.HandlePlanDownload)
	router.Get("/plans/:id/projects", pc.HandlePlanUsage)
	router.Post("/plans", pc.HandleCreatePlan)
	router.Put("/plans/:id", pc.HandleUpdatePlan)
	router.Patch("/plans/:id", pc.HandleUpdatePlan)
	router.Delete("/plans/:id", pc.HandleDeletePlan)

	router.Get("/projects/:projectId/plans", pc.HandleListProjectPlans)
	router.Post("/projects/:projectId/plans", pc.HandleLinkPlan)
	router.Delete("/projects/:projectId/plans/:planId", pc.HandleUnlinkPlan)

	router.Get("/favorites", pc.HandleListFavorites)
	router.Put("/favorites/:planId", pc.HandleAddFavorite)
	router.Delete("/favorites/:planId", pc.HandleRemoveFavorite)
}
