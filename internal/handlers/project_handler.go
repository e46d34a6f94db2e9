package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/collabnest/backend/internal/models"
	"github.com/collabnest/backend/internal/services"
)

type ProjectHandler struct {
	projects    *services.ProjectService
	reports     *services.ReportService
	attachments *services.AttachmentService
	log         zerolog.Logger
}

func NewProjectHandler(projects *services.ProjectService, reports *services.ReportService, attachments *services.AttachmentService, log zerolog.Logger) *ProjectHandler {
	return &ProjectHandler{projects: projects, reports: reports, attachments: attachments, log: log}
}

func (h *ProjectHandler) Create(c *fiber.Ctx) error {
	ownerID, err := callerID(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	var req struct {
		Title       string   `json:"title" validate:"required,max=200"`
		Description string   `json:"description" validate:"max=5000"`
		Privacy     string   `json:"privacy" validate:"required,oneof=public private draft"`
		Tags        []string `json:"tags"`
	}
	if err := parseBody(c, &req); err != nil {
		return fail(c, h.log, err)
	}

	project, err := h.projects.Create(c.Context(), ownerID, req.Title, req.Description, req.Privacy, req.Tags)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(project)
}

func (h *ProjectHandler) List(c *fiber.Ctx) error {
	viewerID, err := callerID(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	page, limit := pagination(c)

	filter := services.ProjectFilter{
		Query:   c.Query("q"),
		Privacy: c.Query("privacy"),
		Status:  c.Query("status"),
		Tag:     c.Query("tag"),
	}
	if c.QueryBool("mine", false) {
		filter.Member = &viewerID
	}

	projects, err := h.projects.List(c.Context(), viewerID, filter, page, limit)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(fiber.Map{"projects": projects, "page": page, "limit": limit})
}

func (h *ProjectHandler) Get(c *fiber.Ctx) error {
	viewerID, err := callerID(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	id, err := objectIDParam(c, "id")
	if err != nil {
		return fail(c, h.log, err)
	}
	project, err := h.projects.Get(c.Context(), id, viewerID)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(project)
}

func (h *ProjectHandler) Update(c *fiber.Ctx) error {
	editorID, err := callerID(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	id, err := objectIDParam(c, "id")
	if err != nil {
		return fail(c, h.log, err)
	}
	var upd services.ProjectUpdate
	if err := parseBody(c, &upd); err != nil {
		return fail(c, h.log, err)
	}
	project, err := h.projects.Update(c.Context(), id, editorID, upd)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(project)
}

func (h *ProjectHandler) Delete(c *fiber.Ctx) error {
	caller, err := callerID(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	id, err := objectIDParam(c, "id")
	if err != nil {
		return fail(c, h.log, err)
	}
	if err := h.projects.SoftDelete(c.Context(), id, caller, isAdmin(c)); err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "project deleted"})
}

func (h *ProjectHandler) Join(c *fiber.Ctx) error {
	userID, err := callerID(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	id, err := objectIDParam(c, "id")
	if err != nil {
		return fail(c, h.log, err)
	}
	var req struct {
		Message string `json:"message" validate:"max=1000"`
	}
	// The body is optional: a bare POST is a join request with no message.
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return fail(c, h.log, err)
		}
	}

	joined, err := h.projects.RequestJoin(c.Context(), id, userID, req.Message)
	if err != nil {
		return fail(c, h.log, err)
	}
	if joined {
		return c.JSON(fiber.Map{"message": "joined project", "joined": true})
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"message": "join request pending", "joined": false})
}

func (h *ProjectHandler) ListRequests(c *fiber.Ctx) error {
	caller, err := callerID(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	id, err := objectIDParam(c, "id")
	if err != nil {
		return fail(c, h.log, err)
	}
	requests, err := h.projects.ListRequests(c.Context(), id, caller)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(fiber.Map{"requests": requests})
}

func (h *ProjectHandler) decideRequest(c *fiber.Ctx, approve bool) error {
	caller, err := callerID(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	id, err := objectIDParam(c, "id")
	if err != nil {
		return fail(c, h.log, err)
	}
	reqID, err := objectIDParam(c, "reqID")
	if err != nil {
		return fail(c, h.log, err)
	}
	if err := h.projects.DecideRequest(c.Context(), id, reqID, caller, approve); err != nil {
		return fail(c, h.log, err)
	}
	if approve {
		return c.JSON(fiber.Map{"message": "request approved"})
	}
	return c.JSON(fiber.Map{"message": "request rejected"})
}

func (h *ProjectHandler) ApproveRequest(c *fiber.Ctx) error { return h.decideRequest(c, true) }
func (h *ProjectHandler) RejectRequest(c *fiber.Ctx) error  { return h.decideRequest(c, false) }

func (h *ProjectHandler) SignNDA(c *fiber.Ctx) error {
	userID, err := callerID(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	id, err := objectIDParam(c, "id")
	if err != nil {
		return fail(c, h.log, err)
	}
	if err := h.projects.SignNDA(c.Context(), id, userID); err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "NDA signed"})
}

func (h *ProjectHandler) RemoveMember(c *fiber.Ctx) error {
	caller, err := callerID(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	id, err := objectIDParam(c, "id")
	if err != nil {
		return fail(c, h.log, err)
	}
	targetID, err := objectIDParam(c, "userID")
	if err != nil {
		return fail(c, h.log, err)
	}
	if err := h.projects.RemoveMember(c.Context(), id, targetID, caller); err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "member removed"})
}

func (h *ProjectHandler) CreateTask(c *fiber.Ctx) error {
	creatorID, err := callerID(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	id, err := objectIDParam(c, "id")
	if err != nil {
		return fail(c, h.log, err)
	}
	var req struct {
		Title       string     `json:"title" validate:"required,max=200"`
		Description string     `json:"description" validate:"max=5000"`
		AssigneeID  string     `json:"assignee_id"`
		DueDate     *time.Time `json:"due_date"`
	}
	if err := parseBody(c, &req); err != nil {
		return fail(c, h.log, err)
	}

	var assigneeID *primitive.ObjectID
	if req.AssigneeID != "" {
		parsed, err := parseObjectID(req.AssigneeID, "assignee_id")
		if err != nil {
			return fail(c, h.log, err)
		}
		assigneeID = &parsed
	}

	task, err := h.projects.AddTask(c.Context(), id, creatorID, req.Title, req.Description, assigneeID, req.DueDate)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(task)
}

func (h *ProjectHandler) ListTasks(c *fiber.Ctx) error {
	viewerID, err := callerID(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	id, err := objectIDParam(c, "id")
	if err != nil {
		return fail(c, h.log, err)
	}
	tasks, err := h.projects.ListTasks(c.Context(), id, viewerID)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(fiber.Map{"tasks": tasks})
}

func (h *ProjectHandler) UpdateTask(c *fiber.Ctx) error {
	editorID, err := callerID(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	id, err := objectIDParam(c, "id")
	if err != nil {
		return fail(c, h.log, err)
	}
	taskID, err := objectIDParam(c, "taskID")
	if err != nil {
		return fail(c, h.log, err)
	}
	var req struct {
		Title       *string    `json:"title" validate:"omitempty,max=200"`
		Description *string    `json:"description" validate:"omitempty,max=5000"`
		AssigneeID  *string    `json:"assignee_id"`
		DueDate     *time.Time `json:"due_date"`
		Status      *string    `json:"status" validate:"omitempty,oneof=todo in-progress completed"`
	}
	if err := parseBody(c, &req); err != nil {
		return fail(c, h.log, err)
	}

	upd := models.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Status:      req.Status,
	}
	if req.AssigneeID != nil {
		parsed, err := parseObjectID(*req.AssigneeID, "assignee_id")
		if err != nil {
			return fail(c, h.log, err)
		}
		upd.AssigneeID = &parsed
	}

	task, err := h.projects.UpdateTask(c.Context(), id, taskID, editorID, upd)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(task)
}

func (h *ProjectHandler) DeleteTask(c *fiber.Ctx) error {
	editorID, err := callerID(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	id, err := objectIDParam(c, "id")
	if err != nil {
		return fail(c, h.log, err)
	}
	taskID, err := objectIDParam(c, "taskID")
	if err != nil {
		return fail(c, h.log, err)
	}
	if err := h.projects.DeleteTask(c.Context(), id, taskID, editorID); err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "task deleted"})
}

// FileReport lets the project owner report a member.
func (h *ProjectHandler) FileReport(c *fiber.Ctx) error {
	reporterID, err := callerID(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	id, err := objectIDParam(c, "id")
	if err != nil {
		return fail(c, h.log, err)
	}
	var req struct {
		UserID string `json:"user_id" validate:"required"`
		Reason string `json:"reason" validate:"required,max=2000"`
	}
	if err := parseBody(c, &req); err != nil {
		return fail(c, h.log, err)
	}
	reportedID, err := parseObjectID(req.UserID, "user_id")
	if err != nil {
		return fail(c, h.log, err)
	}

	report, err := h.reports.File(c.Context(), id, reporterID, reportedID, req.Reason)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(report)
}

func (h *ProjectHandler) UploadAttachment(c *fiber.Ctx) error {
	uploaderID, err := callerID(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	id, err := objectIDParam(c, "id")
	if err != nil {
		return fail(c, h.log, err)
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return fail(c, h.log, err)
	}

	att, err := h.attachments.Upload(c.Context(), id, uploaderID, fileHeader)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(att)
}

func (h *ProjectHandler) ListAttachments(c *fiber.Ctx) error {
	viewerID, err := callerID(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	id, err := objectIDParam(c, "id")
	if err != nil {
		return fail(c, h.log, err)
	}
	atts, err := h.attachments.List(c.Context(), id, viewerID)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(fiber.Map{"attachments": atts})
}

func (h *ProjectHandler) AttachmentURL(c *fiber.Ctx) error {
	viewerID, err := callerID(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	id, err := objectIDParam(c, "id")
	if err != nil {
		return fail(c, h.log, err)
	}
	attID, err := objectIDParam(c, "attID")
	if err != nil {
		return fail(c, h.log, err)
	}
	url, err := h.attachments.DownloadURL(c.Context(), id, attID, viewerID)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(fiber.Map{"url": url})
}

func (h *ProjectHandler) DeleteAttachment(c *fiber.Ctx) error {
	caller, err := callerID(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	id, err := objectIDParam(c, "id")
	if err != nil {
		return fail(c, h.log, err)
	}
	attID, err := objectIDParam(c, "attID")
	if err != nil {
		return fail(c, h.log, err)
	}
	if err := h.attachments.Delete(c.Context(), id, attID, caller); err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "attachment deleted"})
}
