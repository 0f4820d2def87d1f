package serverutils

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const SessionLocalKey = "session_id"

// SessionMiddleware resolves the session token from the cookie and re-issues the
// cookie on every request so its expiry slides.
func SessionMiddleware(cookieName string, maxAge time.Duration) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		sessionId := ResolveSessionId(ctx.Cookies(cookieName))

		ctx.Cookie(&fiber.Cookie{
			Name:     cookieName,
			Value:    sessionId,
			Path:     "/",
			MaxAge:   int(maxAge.Seconds()),
			Expires:  time.Now().Add(maxAge),
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
		ctx.Locals(SessionLocalKey, sessionId)

		return ctx.Next()
	}
}

// ResolveSessionId returns raw when it is a well-formed UUID, otherwise a fresh one.
func ResolveSessionId(raw string) string {
	if raw != "" {
		if parsed, err := uuid.Parse(raw); err == nil {
			return parsed.String()
		}
	}
	return uuid.NewString()
}

// SessionId reads the token placed by SessionMiddleware.
func SessionId(ctx *fiber.Ctx) string {
	if v, ok := ctx.Locals(SessionLocalKey).(string); ok {
		return v
	}
	return ""
}
