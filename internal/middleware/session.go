package middleware

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"chirp/internal/session"

	"github.com/gofiber/fiber/v2"
)

// SessionCookie is the name of the login cookie.
const SessionCookie = "chirp_session"

// LoginPath is where unauthenticated callers of guarded routes are sent.
const LoginPath = "/auth/login"

// SetSessionCookie writes a signed session token to the response.
func SetSessionCookie(c *fiber.Ctx, token string, lifetime time.Duration, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(lifetime.Seconds()),
		Expires:  time.Now().Add(lifetime),
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// ClearSessionCookie expires the login cookie.
func ClearSessionCookie(c *fiber.Ctx, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// LoadSession resolves the session cookie, if any, into fiber locals and
// re-issues it so the inactivity window restarts on every request.
// Invalid or revoked cookies are cleared and the request continues anonymously.
func LoadSession(mgr *session.Manager, secure bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Cookies(SessionCookie)
		if raw == "" {
			return c.Next()
		}

		claims, err := mgr.Parse(c.UserContext(), raw)
		if err != nil {
			ClearSessionCookie(c, secure)
			return c.Next()
		}
		uid, err := claims.UserID()
		if err != nil {
			ClearSessionCookie(c, secure)
			return c.Next()
		}

		c.Locals(LocalUserID, uid)
		c.Locals(LocalUsername, claims.Username)
		c.Locals(LocalSessionID, claims)
		c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, uid))

		if token, _, err := mgr.Refresh(claims); err == nil {
			SetSessionCookie(c, token, mgr.Lifetime(), secure)
		} else {
			Logger.WarnContext(c.UserContext(), "session refresh failed", slog.String("error", err.Error()))
		}
		return c.Next()
	}
}

// CurrentUserID returns the authenticated user id, or 0 for anonymous requests.
func CurrentUserID(c *fiber.Ctx) uint {
	uid, _ := c.Locals(LocalUserID).(uint)
	return uid
}

// CurrentSession returns the claims of the active session, if any.
func CurrentSession(c *fiber.Ctx) *session.Claims {
	claims, _ := c.Locals(LocalSessionID).(*session.Claims)
	return claims
}

// AuthRequired redirects anonymous callers to the login page, preserving the destination.
func AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if CurrentUserID(c) != 0 {
			return c.Next()
		}
		next := c.OriginalURL()
		if c.Method() != fiber.MethodGet {
			// a form POST cannot be replayed by a redirect
			next = "/"
			if ref, err := url.Parse(c.Get(fiber.HeaderReferer)); err == nil && ref.Path != "" {
				next = SafeRedirectTarget(ref.RequestURI())
			}
		}
		return c.Redirect(LoginPath+"?next="+url.QueryEscape(next), fiber.StatusFound)
	}
}

// GuestOnly sends authenticated callers to the home feed.
func GuestOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if CurrentUserID(c) != 0 {
			return c.Redirect("/", fiber.StatusFound)
		}
		return c.Next()
	}
}

// SafeRedirectTarget returns next when it is a local path, otherwise "/".
func SafeRedirectTarget(next string) string {
	next = strings.TrimSpace(next)
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return "/"
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return next
}
