package server

import (
	"fmt"

	"chirp/internal/middleware"
	"chirp/internal/models"
	"chirp/internal/service"

	"github.com/gofiber/fiber/v2"
)

// NewTweetPage renders the empty compose form.
func (s *Server) NewTweetPage(c *fiber.Ctx) error {
	return s.renderTweetForm(c, fiber.StatusOK, nil, "", nil)
}

// CreateTweet handles the multipart compose form.
func (s *Server) CreateTweet(c *fiber.Ctx) error {
	content := c.FormValue("content")
	image, err := readImage(c, s.imageService.MaxUploadSizeBytes())
	if err != nil {
		return err
	}

	tweet, err := s.tweetService.CreateTweet(c.UserContext(), middleware.CurrentUserID(c), service.TweetInput{
		Content: content,
		Image:   image,
	})
	if err != nil {
		if !isFormError(err) {
			return err
		}
		return s.renderTweetForm(c, fiber.StatusOK, nil, content, formErrors(err))
	}

	s.setFlash(c, flashSuccess, "Your tweet has been posted!")
	return c.Redirect(fmt.Sprintf("/tweets/%d", tweet.ID), fiber.StatusFound)
}

// EditTweetPage renders the edit form for the author's tweet.
func (s *Server) EditTweetPage(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	tweet, err := s.tweetService.GetEditable(c.UserContext(), middleware.CurrentUserID(c), id)
	if err != nil {
		return err
	}
	return s.renderTweetForm(c, fiber.StatusOK, tweet, tweet.Content, nil)
}

// EditTweet applies the edit form.
func (s *Server) EditTweet(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	content := c.FormValue("content")
	image, err := readImage(c, s.imageService.MaxUploadSizeBytes())
	if err != nil {
		return err
	}

	actorID := middleware.CurrentUserID(c)
	tweet, err := s.tweetService.EditTweet(c.UserContext(), actorID, id, service.TweetInput{
		Content: content,
		Image:   image,
	})
	if err != nil {
		if !isFormError(err) {
			return err
		}
		current, getErr := s.tweetService.GetEditable(c.UserContext(), actorID, id)
		if getErr != nil {
			return getErr
		}
		return s.renderTweetForm(c, fiber.StatusOK, current, content, formErrors(err))
	}

	s.setFlash(c, flashSuccess, "Your tweet has been updated!")
	return c.Redirect(fmt.Sprintf("/tweets/%d", tweet.ID), fiber.StatusFound)
}

// DeleteTweet removes the author's tweet and returns to the profile.
func (s *Server) DeleteTweet(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := s.tweetService.DeleteTweet(c.UserContext(), middleware.CurrentUserID(c), id); err != nil {
		return err
	}
	s.setFlash(c, flashSuccess, "Tweet deleted.")
	return c.Redirect("/profile", fiber.StatusFound)
}

// ToggleLike likes or unlikes a tweet. JSON callers get the new state;
// form posts are sent back to the page they came from.
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	res, err := s.engagementService.ToggleLike(c.UserContext(), middleware.CurrentUserID(c), id)
	if err != nil {
		return err
	}

	if c.Accepts(fiber.MIMETextHTML, fiber.MIMEApplicationJSON) == fiber.MIMEApplicationJSON {
		return c.JSON(res)
	}
	if res.Liked {
		s.setFlash(c, flashSuccess, "You liked this tweet!")
	} else {
		s.setFlash(c, flashInfo, "You removed your like.")
	}
	return redirectBack(c, fmt.Sprintf("/tweets/%d", id))
}

func (s *Server) renderTweetForm(c *fiber.Ctx, status int, tweet *models.Tweet, content string, errs map[string]string) error {
	title := "New tweet"
	action := "/tweets/new"
	if tweet != nil {
		title = "Edit tweet"
		action = fmt.Sprintf("/tweets/%d/edit", tweet.ID)
	}
	return s.render(c, status, "tweet_form", title, fiber.Map{
		"Tweet":      tweet,
		"Content":    content,
		"Action":     action,
		"Errors":     errs,
		"MaxLength":  models.MaxTextLength,
		"Extensions": s.config.AllowedImageExtensions,
	})
}
