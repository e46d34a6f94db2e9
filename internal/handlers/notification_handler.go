package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/collabnest/backend/internal/services"
)

type NotificationHandler struct {
	notifications *services.NotificationService
	log           zerolog.Logger
}

func NewNotificationHandler(notifications *services.NotificationService, log zerolog.Logger) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, log: log}
}

func (h *NotificationHandler) List(c *fiber.Ctx) error {
	userID, err := callerID(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	page, limit := pagination(c)

	items, err := h.notifications.List(c.Context(), userID, page, limit)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(fiber.Map{"notifications": items, "page": page, "limit": limit})
}

// MarkRead marks the listed notification ids as read; an empty list marks all.
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	userID, err := callerID(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	var req struct {
		IDs []string `json:"ids"`
	}
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return fail(c, h.log, err)
		}
	}

	ids := make([]primitive.ObjectID, 0, len(req.IDs))
	for _, hex := range req.IDs {
		id, err := parseObjectID(hex, "id")
		if err != nil {
			return fail(c, h.log, err)
		}
		ids = append(ids, id)
	}

	if err := h.notifications.MarkRead(c.Context(), userID, ids); err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "notifications marked read"})
}
