package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"chirp/internal/models"
	"chirp/internal/repository"
)

// FeedQuery is the raw feed query string.
type FeedQuery struct {
	Q           string `query:"q"`
	Date        string `query:"date"`
	MinLikes    string `query:"min_likes"`
	MinComments string `query:"min_comments"`
	SortBy      string `query:"sort_by"`
	Order       string `query:"order"`
}

// ParseFeedFilter turns a feed query into a repository filter.
// Malformed dates and minimums are dropped rather than rejected.
func ParseFeedFilter(in FeedQuery) repository.TweetFilter {
	var f repository.TweetFilter

	q := strings.TrimSpace(in.Q)
	switch {
	case q == "":
	case strings.HasPrefix(q, "@"):
		f.ByAuthor = true
		f.AuthorUsername = strings.TrimPrefix(q, "@")
	case strings.HasPrefix(q, "#"):
		if tag := strings.TrimPrefix(q, "#"); tag != "" {
			f.Hashtag = tag
		}
	default:
		f.Text = q
	}

	if day, err := time.Parse("2006-01-02", strings.TrimSpace(in.Date)); err == nil {
		f.Day = &day
	}
	f.MinLikes = parseMinimum(in.MinLikes)
	f.MinComments = parseMinimum(in.MinComments)

	switch strings.ToLower(strings.TrimSpace(in.SortBy)) {
	case repository.SortByLikes:
		f.SortBy = repository.SortByLikes
	case repository.SortByComments:
		f.SortBy = repository.SortByComments
	default:
		f.SortBy = repository.SortByDate
	}
	f.Ascending = strings.EqualFold(strings.TrimSpace(in.Order), "asc")
	return f
}

func parseMinimum(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

type FeedService struct {
	tweetRepo   repository.TweetRepository
	commentRepo repository.CommentRepository
}

func NewFeedService(tweetRepo repository.TweetRepository, commentRepo repository.CommentRepository) *FeedService {
	return &FeedService{tweetRepo: tweetRepo, commentRepo: commentRepo}
}

// ListTweets returns the feed for a viewer (0 when anonymous).
func (s *FeedService) ListTweets(ctx context.Context, filter repository.TweetFilter, viewerID uint) ([]*models.Tweet, error) {
	return s.tweetRepo.List(ctx, filter, viewerID)
}

// ListByAuthor returns one author's tweets, newest first.
func (s *FeedService) ListByAuthor(ctx context.Context, authorID, viewerID uint) ([]*models.Tweet, error) {
	return s.tweetRepo.List(ctx, repository.TweetFilter{AuthorID: authorID, SortBy: repository.SortByDate}, viewerID)
}

// GetTweet loads a tweet with its comments, oldest first.
func (s *FeedService) GetTweet(ctx context.Context, id, viewerID uint) (*models.Tweet, error) {
	tweet, err := s.tweetRepo.GetByID(ctx, id, viewerID)
	if err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.ListByTweet(ctx, id)
	if err != nil {
		return nil, err
	}
	tweet.Comments = make([]models.Comment, 0, len(comments))
	for _, c := range comments {
		tweet.Comments = append(tweet.Comments, *c)
	}
	return tweet, nil
}
