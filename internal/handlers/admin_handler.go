package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/collabnest/backend/internal/models"
	"github.com/collabnest/backend/internal/services"
)

// AdminHandler exposes the moderation surface; every route is behind the
// admin middleware.
type AdminHandler struct {
	users    *services.UserService
	trust    *services.TrustService
	reports  *services.ReportService
	projects *services.ProjectService
	log      zerolog.Logger
}

func NewAdminHandler(users *services.UserService, trust *services.TrustService, reports *services.ReportService, projects *services.ProjectService, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{users: users, trust: trust, reports: reports, projects: projects, log: log}
}

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	page, limit := pagination(c)
	filter := services.UserFilter{
		Query: c.Query("q"),
		Role:  c.Query("role"),
	}
	users, err := h.users.Search(c.Context(), filter, page, limit)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(fiber.Map{"users": users, "page": page, "limit": limit})
}

func (h *AdminHandler) GetUser(c *fiber.Ctx) error {
	id, err := objectIDParam(c, "id")
	if err != nil {
		return fail(c, h.log, err)
	}
	user, err := h.users.GetByID(c.Context(), id)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(user)
}

func (h *AdminHandler) SetRole(c *fiber.Ctx) error {
	id, err := objectIDParam(c, "id")
	if err != nil {
		return fail(c, h.log, err)
	}
	var req struct {
		Role string `json:"role" validate:"required,oneof=user admin"`
	}
	if err := parseBody(c, &req); err != nil {
		return fail(c, h.log, err)
	}
	if err := h.users.SetRole(c.Context(), id, req.Role); err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "role updated"})
}

func (h *AdminHandler) SetStatus(c *fiber.Ctx) error {
	id, err := objectIDParam(c, "id")
	if err != nil {
		return fail(c, h.log, err)
	}
	var req struct {
		Active *bool `json:"active" validate:"required"`
	}
	if err := parseBody(c, &req); err != nil {
		return fail(c, h.log, err)
	}
	if err := h.users.SetActive(c.Context(), id, *req.Active); err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "status updated"})
}

// AdjustTrust appends a manual ledger entry and re-clamps the user's score.
func (h *AdminHandler) AdjustTrust(c *fiber.Ctx) error {
	id, err := objectIDParam(c, "id")
	if err != nil {
		return fail(c, h.log, err)
	}
	var req struct {
		Points      int    `json:"points" validate:"required"`
		Description string `json:"description" validate:"max=1000"`
	}
	if err := parseBody(c, &req); err != nil {
		return fail(c, h.log, err)
	}

	entry, err := h.trust.Adjust(c.Context(), id, models.TrustActionAdminAdjust, req.Points, req.Description, nil)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

func (h *AdminHandler) ListReports(c *fiber.Ctx) error {
	page, limit := pagination(c)
	reports, err := h.reports.List(c.Context(), c.Query("status"), page, limit)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(fiber.Map{"reports": reports, "page": page, "limit": limit})
}

func (h *AdminHandler) ResolveReport(c *fiber.Ctx) error {
	adminID, err := callerID(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	id, err := objectIDParam(c, "id")
	if err != nil {
		return fail(c, h.log, err)
	}
	var req struct {
		Note string `json:"note" validate:"required,max=2000"`
	}
	if err := parseBody(c, &req); err != nil {
		return fail(c, h.log, err)
	}

	report, err := h.reports.Resolve(c.Context(), id, adminID, req.Note)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(report)
}

// DeleteProject soft-deletes any project regardless of ownership.
func (h *AdminHandler) DeleteProject(c *fiber.Ctx) error {
	adminID, err := callerID(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	id, err := objectIDParam(c, "id")
	if err != nil {
		return fail(c, h.log, err)
	}
	if err := h.projects.SoftDelete(c.Context(), id, adminID, true); err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "project deleted"})
}
