package server

import (
	"log/slog"
	"net/url"

	"chirp/internal/middleware"
	"chirp/internal/models"
	"chirp/internal/service"
	"chirp/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// RegisterPage renders the sign-up form.
func (s *Server) RegisterPage(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusOK, "register", "Sign up", fiber.Map{
		"Form": validation.RegisterForm{},
	})
}

// Register creates an account and sends the user to the login page.
func (s *Server) Register(c *fiber.Ctx) error {
	var form validation.RegisterForm
	if err := c.BodyParser(&form); err != nil {
		return models.NewValidationError("Invalid form submission")
	}

	_, err := s.authService.Register(c.UserContext(), service.RegisterInput{
		Username:        form.Username,
		Email:           form.Email,
		Password:        form.Password,
		ConfirmPassword: form.ConfirmPassword,
	})
	if err != nil {
		if !isFormError(err) {
			return err
		}
		form.Password, form.ConfirmPassword = "", ""
		return s.render(c, fiber.StatusOK, "register", "Sign up", fiber.Map{
			"Form":   form,
			"Errors": formErrors(err),
		})
	}

	s.setFlash(c, flashSuccess, "Registration successful. You can now log in.")
	return c.Redirect(middleware.LoginPath, fiber.StatusFound)
}

// LoginPage renders the sign-in form, carrying the post-login destination.
func (s *Server) LoginPage(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusOK, "login", "Log in", fiber.Map{
		"Form": validation.LoginForm{},
		"Next": c.Query("next"),
	})
}

// Login verifies credentials, starts a session and redirects to next.
func (s *Server) Login(c *fiber.Ctx) error {
	var form validation.LoginForm
	if err := c.BodyParser(&form); err != nil {
		return models.NewValidationError("Invalid form submission")
	}
	next := c.Query("next", c.FormValue("next"))

	user, err := s.authService.Login(c.UserContext(), form.Username, form.Password)
	if err != nil {
		if !isFormError(err) {
			return err
		}
		form.Password = ""
		return s.render(c, fiber.StatusOK, "login", "Log in", fiber.Map{
			"Form":   form,
			"Next":   next,
			"Errors": formErrors(err),
		})
	}

	token, _, err := s.sessions.Issue(user.ID, user.Username)
	if err != nil {
		return models.NewInternalError(err)
	}
	middleware.SetSessionCookie(c, token, s.sessions.Lifetime(), s.config.IsProduction())
	middleware.Logger.InfoContext(c.UserContext(), "User logged in", slog.Uint64("user_id", uint64(user.ID)))

	s.setFlash(c, flashSuccess, "Welcome back, "+user.Username+"!")
	return c.Redirect(middleware.SafeRedirectTarget(next), fiber.StatusFound)
}

// Logout revokes the session and clears the cookie.
func (s *Server) Logout(c *fiber.Ctx) error {
	if claims := middleware.CurrentSession(c); claims != nil {
		if err := s.sessions.Revoke(c.UserContext(), claims); err != nil {
			// the cleared cookie still ends the session in this browser
			middleware.Logger.WarnContext(c.UserContext(), "Session revocation failed", slog.String("error", err.Error()))
		}
	}
	middleware.ClearSessionCookie(c, s.config.IsProduction())

	s.setFlash(c, flashInfo, "You have been logged out.")
	return c.Redirect(middleware.LoginPath, fiber.StatusFound)
}

// loginURL is the login page that returns to path afterwards.
func loginURL(path string) string {
	return middleware.LoginPath + "?next=" + url.QueryEscape(path)
}
