package server

import (
	"fmt"

	"chirp/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// AddComment posts a comment; the form field is "content" or the legacy "comment".
func (s *Server) AddComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	content := c.FormValue("content")
	if content == "" {
		content = c.FormValue("comment")
	}

	if _, err := s.engagementService.AddComment(c.UserContext(), middleware.CurrentUserID(c), id, content); err != nil {
		if !isFormError(err) {
			return err
		}
		return s.renderTweetPage(c, fiber.StatusOK, id, content, formErrors(err))
	}

	s.setFlash(c, flashSuccess, "Comment added!")
	return c.Redirect(fmt.Sprintf("/tweets/%d", id), fiber.StatusFound)
}

// DeleteComment removes a comment when the viewer wrote it or owns the tweet.
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	tweetID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	commentID, err := parseID(c, "commentId")
	if err != nil {
		return err
	}

	if err := s.engagementService.DeleteComment(c.UserContext(), middleware.CurrentUserID(c), tweetID, commentID); err != nil {
		return err
	}

	s.setFlash(c, flashSuccess, "Comment deleted.")
	return c.Redirect(fmt.Sprintf("/tweets/%d", tweetID), fiber.StatusFound)
}
