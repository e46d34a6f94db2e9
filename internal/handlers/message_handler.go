package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/collabnest/backend/internal/services"
)

type MessageHandler struct {
	messages *services.MessageService
	log      zerolog.Logger
}

func NewMessageHandler(messages *services.MessageService, log zerolog.Logger) *MessageHandler {
	return &MessageHandler{messages: messages, log: log}
}

// List pages the project chat log; messages arrive oldest-first per page.
func (h *MessageHandler) List(c *fiber.Ctx) error {
	viewerID, err := callerID(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	projectID, err := objectIDParam(c, "projectID")
	if err != nil {
		return fail(c, h.log, err)
	}
	page, limit := pagination(c)

	msgs, err := h.messages.List(c.Context(), projectID, viewerID, page, limit)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(fiber.Map{"messages": msgs, "page": page, "limit": limit})
}

func (h *MessageHandler) Send(c *fiber.Ctx) error {
	senderID, err := callerID(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	projectID, err := objectIDParam(c, "projectID")
	if err != nil {
		return fail(c, h.log, err)
	}
	var req struct {
		Content string `json:"content" validate:"required,max=1000"`
	}
	if err := parseBody(c, &req); err != nil {
		return fail(c, h.log, err)
	}

	msg, err := h.messages.Send(c.Context(), projectID, senderID, req.Content)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

func (h *MessageHandler) Edit(c *fiber.Ctx) error {
	caller, err := callerID(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	projectID, err := objectIDParam(c, "projectID")
	if err != nil {
		return fail(c, h.log, err)
	}
	msgID, err := objectIDParam(c, "msgID")
	if err != nil {
		return fail(c, h.log, err)
	}
	var req struct {
		Content string `json:"content" validate:"required,max=1000"`
	}
	if err := parseBody(c, &req); err != nil {
		return fail(c, h.log, err)
	}

	msg, err := h.messages.Edit(c.Context(), projectID, msgID, caller, req.Content)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(msg)
}

func (h *MessageHandler) Delete(c *fiber.Ctx) error {
	caller, err := callerID(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	projectID, err := objectIDParam(c, "projectID")
	if err != nil {
		return fail(c, h.log, err)
	}
	msgID, err := objectIDParam(c, "msgID")
	if err != nil {
		return fail(c, h.log, err)
	}
	if err := h.messages.Delete(c.Context(), projectID, msgID, caller); err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "message deleted"})
}
