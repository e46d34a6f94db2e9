package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/collabnest/backend/internal/services"
)

type UserHandler struct {
	users *services.UserService
	trust *services.TrustService
	log   zerolog.Logger
}

func NewUserHandler(users *services.UserService, trust *services.TrustService, log zerolog.Logger) *UserHandler {
	return &UserHandler{users: users, trust: trust, log: log}
}

func (h *UserHandler) List(c *fiber.Ctx) error {
	page, limit := pagination(c)
	filter := services.UserFilter{
		Query:      c.Query("q"),
		Skill:      c.Query("skill"),
		ActiveOnly: true,
	}
	users, err := h.users.Search(c.Context(), filter, page, limit)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(fiber.Map{"users": users, "page": page, "limit": limit})
}

func (h *UserHandler) Get(c *fiber.Ctx) error {
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

func (h *UserHandler) UpdateMe(c *fiber.Ctx) error {
	id, err := callerID(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	var upd services.ProfileUpdate
	if err := parseBody(c, &upd); err != nil {
		return fail(c, h.log, err)
	}
	user, err := h.users.UpdateProfile(c.Context(), id, upd)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(user)
}

// Trust returns the ledger-backed authoritative score with its history.
func (h *UserHandler) Trust(c *fiber.Ctx) error {
	id, err := objectIDParam(c, "id")
	if err != nil {
		return fail(c, h.log, err)
	}
	page, limit := pagination(c)

	user, err := h.users.GetByID(c.Context(), id)
	if err != nil {
		return fail(c, h.log, err)
	}
	history, err := h.trust.History(c.Context(), id, page, limit)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(fiber.Map{"score": user.TrustScore, "history": history})
}

// VoteScore returns the tally-derived score. This is a separate computation
// from the ledger score and the two may disagree.
func (h *UserHandler) VoteScore(c *fiber.Ctx) error {
	id, err := objectIDParam(c, "id")
	if err != nil {
		return fail(c, h.log, err)
	}
	score, up, down, err := h.trust.VoteScore(c.Context(), id)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(fiber.Map{"score": score, "upvotes": up, "downvotes": down})
}

func (h *UserHandler) CastVote(c *fiber.Ctx) error {
	voterID, err := callerID(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	targetID, err := objectIDParam(c, "id")
	if err != nil {
		return fail(c, h.log, err)
	}

	var req struct {
		ProjectID string `json:"project_id" validate:"required"`
		Vote      int    `json:"vote" validate:"required,oneof=-1 1"`
	}
	if err := parseBody(c, &req); err != nil {
		return fail(c, h.log, err)
	}
	projectID, err := parseObjectID(req.ProjectID, "project_id")
	if err != nil {
		return fail(c, h.log, err)
	}

	if err := h.trust.CastVote(c.Context(), voterID, targetID, projectID, req.Vote); err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "vote recorded"})
}
