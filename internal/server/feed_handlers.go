package server

import (
	"chirp/internal/middleware"
	"chirp/internal/models"
	"chirp/internal/service"

	"github.com/gofiber/fiber/v2"
)

// tweetCard is one tweet as rendered in a list or on its own page.
type tweetCard struct {
	Tweet    *models.Tweet
	Mine     bool
	SignedIn bool
}

func cards(tweets []*models.Tweet, viewerID uint) []tweetCard {
	out := make([]tweetCard, 0, len(tweets))
	for _, t := range tweets {
		out = append(out, tweetCard{Tweet: t, Mine: t.IsAuthor(viewerID), SignedIn: viewerID != 0})
	}
	return out
}

// Home renders the feed with the search, date, threshold and sort controls.
func (s *Server) Home(c *fiber.Ctx) error {
	var query service.FeedQuery
	if err := c.QueryParser(&query); err != nil {
		query = service.FeedQuery{}
	}
	viewerID := middleware.CurrentUserID(c)

	tweets, err := s.feedService.ListTweets(c.UserContext(), service.ParseFeedFilter(query), viewerID)
	if err != nil {
		return err
	}
	return s.render(c, fiber.StatusOK, "home", "Home", fiber.Map{
		"Tweets": cards(tweets, viewerID),
		"Query":  query,
	})
}

// Profile lists the signed-in user's own tweets.
func (s *Server) Profile(c *fiber.Ctx) error {
	viewerID := middleware.CurrentUserID(c)
	user, err := s.authService.GetUser(c.UserContext(), viewerID)
	if err != nil {
		return err
	}
	tweets, err := s.feedService.ListByAuthor(c.UserContext(), viewerID, viewerID)
	if err != nil {
		return err
	}
	return s.render(c, fiber.StatusOK, "profile", "@"+user.Username, fiber.Map{
		"User":   user,
		"Tweets": cards(tweets, viewerID),
	})
}

// ViewTweet renders a tweet with its comments and the comment box.
func (s *Server) ViewTweet(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	return s.renderTweetPage(c, fiber.StatusOK, id, "", nil)
}

func (s *Server) renderTweetPage(c *fiber.Ctx, status int, id uint, draft string, errs map[string]string) error {
	viewerID := middleware.CurrentUserID(c)
	tweet, err := s.feedService.GetTweet(c.UserContext(), id, viewerID)
	if err != nil {
		return err
	}

	comments := make([]commentRow, 0, len(tweet.Comments))
	for i := range tweet.Comments {
		cm := &tweet.Comments[i]
		comments = append(comments, commentRow{
			Comment:   cm,
			Deletable: viewerID != 0 && (cm.UserID == viewerID || tweet.IsAuthor(viewerID)),
		})
	}

	return s.render(c, status, "tweet", "Tweet by @"+tweet.User.Username, fiber.Map{
		"Card":     tweetCard{Tweet: tweet, Mine: tweet.IsAuthor(viewerID), SignedIn: viewerID != 0},
		"Comments": comments,
		"Draft":    draft,
		"Errors":   errs,
		"LoginURL": loginURL(c.OriginalURL()),
	})
}

// commentRow is a comment with the viewer's delete permission.
type commentRow struct {
	Comment   *models.Comment
	Deletable bool
}
