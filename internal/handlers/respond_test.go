package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collabnest/backend/internal/apperr"
)

func errApp(err error) *fiber.App {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return fail(c, zerolog.Nop(), err)
	})
	return app
}

func doRequest(t *testing.T, app *fiber.App) (int, map[string]interface{}) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestFailStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", apperr.Validation("bad input"), http.StatusBadRequest},
		{"unauthorized", apperr.Unauthorized("no token"), http.StatusUnauthorized},
		{"forbidden", apperr.Forbidden("nope", ""), http.StatusForbidden},
		{"not found", apperr.NotFound("missing"), http.StatusNotFound},
		{"conflict", apperr.Conflict("dupe", ""), http.StatusConflict},
		{"internal", apperr.Internal("boom", errors.New("cause")), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, _ := doRequest(t, errApp(tc.err))
			assert.Equal(t, tc.status, status)
		})
	}
}

func TestFailForbiddenCarriesHint(t *testing.T) {
	status, body := doRequest(t, errApp(apperr.Forbidden("membership required", apperr.HintRequiresJoin)))

	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "membership required", body["error"])
	assert.Equal(t, apperr.HintRequiresJoin, body["hint"])
}

func TestFailValidationCarriesFields(t *testing.T) {
	err := apperr.ValidationFields("validation failed", map[string]string{"Email": "required"})
	status, body := doRequest(t, errApp(err))

	assert.Equal(t, http.StatusBadRequest, status)
	fields, ok := body["fields"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "required", fields["Email"])
}

func TestFailInternalHidesDetail(t *testing.T) {
	status, body := doRequest(t, errApp(apperr.Internal("db exploded", errors.New("connection reset"))))

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal error", body["error"], "internal detail must never reach the client")
}

func TestFailWrapsUnknownErrors(t *testing.T) {
	status, body := doRequest(t, errApp(errors.New("some panic-adjacent failure")))

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal error", body["error"])
}
