package serverutils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"rag-notes-be/internal/pkg/apperror"
	"rag-notes-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionApp() *fiber.App {
	app := fiber.New()
	app.Use(SessionMiddleware("session_id", 7*24*time.Hour))
	app.Get("/whoami", func(ctx *fiber.Ctx) error {
		return ctx.SendString(SessionId(ctx))
	})
	return app
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestSessionMiddlewareMintsToken(t *testing.T) {
	resp, err := sessionApp().Test(httptest.NewRequest(http.MethodGet, "/whoami", nil), -1)
	require.NoError(t, err)

	body, _ := io.ReadAll(resp.Body)
	_, parseErr := uuid.Parse(string(body))
	assert.NoError(t, parseErr)

	cookie := findCookie(resp, "session_id")
	require.NotNil(t, cookie)
	assert.Equal(t, string(body), cookie.Value)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, 604800, cookie.MaxAge)
}

func TestSessionMiddlewareReusesAndRefreshes(t *testing.T) {
	existing := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: existing})

	resp, err := sessionApp().Test(req, -1)
	require.NoError(t, err)

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, existing, string(body))

	cookie := findCookie(resp, "session_id")
	require.NotNil(t, cookie, "cookie must be re-set so the expiry slides")
	assert.Equal(t, existing, cookie.Value)
}

func TestResolveSessionIdRejectsMalformed(t *testing.T) {
	got := ResolveSessionId("not-a-uuid")
	assert.NotEqual(t, "not-a-uuid", got)
	_, err := uuid.Parse(got)
	assert.NoError(t, err)

	assert.NotEmpty(t, ResolveSessionId(""))
}

func errorApp(handlerErr error) *fiber.App {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware(logger.NewNopLogger()))
	app.Get("/", func(ctx *fiber.Ctx) error { return handlerErr })
	return app
}

func decodeError(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body["error"]
}

func TestErrorHandlerMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"validation", apperror.Validation("Missing text"), 400, "Missing text"},
		{"storage hides cause", apperror.Storage("Failed to fetch notes", errors.New("dial tcp")), 500, "Failed to fetch notes"},
		{"uncaught", errors.New("kaboom"), 500, "kaboom"},
		{"fiber error", fiber.NewError(fiber.StatusUnprocessableEntity, "bad body"), 422, "bad body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := errorApp(tt.err).Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantMsg, decodeError(t, resp))
		})
	}
}

func TestValidateRequest(t *testing.T) {
	type payload struct {
		Text string `json:"text" validate:"required"`
		Role string `json:"role" validate:"omitempty,oneof=user assistant"`
	}

	assert.NoError(t, ValidateRequest(payload{Text: "hi"}))

	err := ValidateRequest(payload{})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
	assert.Equal(t, "Missing text", apperror.PublicMessage(err))

	err = ValidateRequest(payload{Text: "hi", Role: "system"})
	assert.Equal(t, "Invalid role", apperror.PublicMessage(err))
}
