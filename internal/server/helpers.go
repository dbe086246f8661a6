package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"time"

	"chirp/internal/middleware"
	"chirp/internal/models"
	"chirp/internal/service"

	"github.com/gofiber/fiber/v2"
)

const flashCookie = "chirp_flash"

// Flash kinds, used as CSS classes.
const (
	flashSuccess = "success"
	flashInfo    = "info"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (s *Server) setFlash(c *fiber.Ctx, kind, message string) {
	raw, err := json.Marshal(Flash{Kind: kind, Message: message})
	if err != nil {
		return
	}
	c.Cookie(&fiber.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		MaxAge:   60,
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// popFlash reads and clears the pending flash message.
func (s *Server) popFlash(c *fiber.Ctx) *Flash {
	raw := c.Cookies(flashCookie)
	if raw == "" {
		return nil
	}
	c.Cookie(&fiber.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	data, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil
	}
	var f Flash
	if err := json.Unmarshal(data, &f); err != nil || f.Message == "" {
		return nil
	}
	return &f
}

// render executes a page template inside the main layout with the common bindings.
func (s *Server) render(c *fiber.Ctx, status int, page, title string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	data["Title"] = title
	data["Flash"] = s.popFlash(c)
	data["ViewerID"] = middleware.CurrentUserID(c)
	if claims := middleware.CurrentSession(c); claims != nil {
		data["CurrentUser"] = claims.Username
	}
	if _, ok := data["Errors"]; !ok {
		data["Errors"] = map[string]string{}
	}
	return c.Status(status).Render(page, data)
}

// formErrors extracts per-field messages from a validation error. Errors with
// no field map are reported under "form".
func formErrors(err error) map[string]string {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		return map[string]string{"form": models.PublicMessage(err)}
	}
	if len(appErr.Fields) > 0 {
		return appErr.Fields
	}
	return map[string]string{"form": appErr.Message}
}

// isFormError reports whether err should re-render the submitted form.
func isFormError(err error) bool {
	return models.HasCode(err, models.CodeValidation) || models.HasCode(err, models.CodeUnauthenticated)
}

// parseID extracts a route parameter by name as a positive uint.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		return 0, models.NewNotFoundError("Page", c.Params(param))
	}
	return uint(id), nil
}

// redirectBack returns to the referring local page, or fallback.
func redirectBack(c *fiber.Ctx, fallback string) error {
	if ref, err := url.Parse(c.Get(fiber.HeaderReferer)); err == nil && ref.Path != "" {
		return c.Redirect(middleware.SafeRedirectTarget(ref.RequestURI()), fiber.StatusFound)
	}
	return c.Redirect(fallback, fiber.StatusFound)
}

// readImage returns the uploaded "image" file, or nil when none was sent.
// At most limit+1 bytes are read so oversized files still fail validation.
func readImage(c *fiber.Ctx, limit int64) (*service.ImageUpload, error) {
	fh, err := c.FormFile("image")
	if err != nil || fh == nil || fh.Filename == "" {
		return nil, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if len(content) == 0 && fh.Size == 0 {
		// browsers send an empty part when no file was chosen
		return nil, nil
	}
	return &service.ImageUpload{Filename: fh.Filename, Content: content}, nil
}

// errorHandler renders every unhandled error through the error page.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	status := models.StatusFor(err)
	message := models.PublicMessage(err)

	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
		message = fe.Message
		switch {
		case status == fiber.StatusNotFound:
			message = "Page not found"
		case status == fiber.StatusRequestEntityTooLarge:
			message = "The upload is too large"
		case status >= fiber.StatusInternalServerError:
			message = "Something went wrong. Please try again later."
		}
	}
	if status == fiber.StatusOK {
		status = fiber.StatusBadRequest
	}

	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "Request failed",
			slog.Int("status", status),
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
	}

	if renderErr := s.render(c, status, "error", "Error", fiber.Map{
		"Status":  status,
		"Message": message,
	}); renderErr != nil {
		return c.Status(status).SendString(message)
	}
	return nil
}
