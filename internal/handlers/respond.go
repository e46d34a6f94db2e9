package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/collabnest/backend/internal/apperr"
	"github.com/collabnest/backend/internal/middleware"
	"github.com/collabnest/backend/internal/models"
)

var validate = validator.New()

// parseBody decodes and validates a JSON request body, converting validator
// failures into field-level detail.
func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return apperr.Validation("invalid request body")
	}
	if err := validate.Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
			return apperr.ValidationFields("validation failed", fields)
		}
		return apperr.Validation("validation failed")
	}
	return nil
}

// fail maps an application error to its HTTP response. Internal errors are
// logged with full detail and surfaced as a generic message.
func fail(c *fiber.Ctx, log zerolog.Logger, err error) error {
	appErr := apperr.As(err)
	if appErr == nil {
		appErr = apperr.Internal("internal error", err)
	}

	status := fiber.StatusInternalServerError
	switch appErr.Kind {
	case apperr.KindValidation:
		status = fiber.StatusBadRequest
	case apperr.KindUnauthorized:
		status = fiber.StatusUnauthorized
	case apperr.KindForbidden:
		status = fiber.StatusForbidden
	case apperr.KindNotFound:
		status = fiber.StatusNotFound
	case apperr.KindConflict:
		status = fiber.StatusConflict
	}

	if appErr.Kind == apperr.KindInternal {
		log.Error().Err(appErr).Str("path", c.Path()).Msg("request failed")
		return c.Status(status).JSON(fiber.Map{"error": "internal error"})
	}

	body := fiber.Map{"error": appErr.Message}
	if appErr.Hint != "" {
		body["hint"] = appErr.Hint
	}
	if len(appErr.Fields) > 0 {
		body["fields"] = appErr.Fields
	}
	return c.Status(status).JSON(body)
}

// callerID returns the authenticated user's id set by the auth middleware.
func callerID(c *fiber.Ctx) (primitive.ObjectID, error) {
	hex, _ := c.Locals(middleware.LocalUserID).(string)
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, apperr.Unauthorized("not authenticated")
	}
	return id, nil
}

func isAdmin(c *fiber.Ctx) bool {
	role, _ := c.Locals(middleware.LocalRole).(string)
	return role == models.RoleAdmin
}

// pagination parses page/limit query parameters with sane bounds.
func pagination(c *fiber.Ctx) (page, limit int64) {
	page = int64(c.QueryInt("page", 1))
	if page < 1 {
		page = 1
	}
	limit = int64(c.QueryInt("limit", 20))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

// objectIDParam parses a path parameter into an ObjectID.
func objectIDParam(c *fiber.Ctx, name string) (primitive.ObjectID, error) {
	return parseObjectID(c.Params(name), name)
}

func parseObjectID(hex, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, apperr.Validation("invalid " + name)
	}
	return id, nil
}
