package service

import (
	"context"
	"log/slog"
	"strings"

	"chirp/internal/middleware"
	"chirp/internal/models"
	"chirp/internal/observability"
	"chirp/internal/repository"
	"chirp/internal/validation"
)

// LikeResult is the like state after a toggle.
type LikeResult struct {
	Liked bool  `json:"liked"`
	Count int64 `json:"count"`
}

type EngagementService struct {
	tweetRepo   repository.TweetRepository
	commentRepo repository.CommentRepository
}

func NewEngagementService(tweetRepo repository.TweetRepository, commentRepo repository.CommentRepository) *EngagementService {
	return &EngagementService{tweetRepo: tweetRepo, commentRepo: commentRepo}
}

// ToggleLike likes or unlikes someone else's tweet.
func (s *EngagementService) ToggleLike(ctx context.Context, actorID, tweetID uint) (*LikeResult, error) {
	tweet, err := s.tweetRepo.GetByID(ctx, tweetID, actorID)
	if err != nil {
		return nil, err
	}
	if tweet.IsAuthor(actorID) {
		return nil, models.NewForbiddenError("You cannot like your own tweet")
	}

	liked, err := s.tweetRepo.ToggleLike(ctx, actorID, tweetID)
	if err != nil {
		return nil, err
	}
	count, err := s.tweetRepo.CountLikes(ctx, tweetID)
	if err != nil {
		return nil, err
	}

	result := "unliked"
	if liked {
		result = "liked"
	}
	observability.LikeToggles.WithLabelValues(result).Inc()
	return &LikeResult{Liked: liked, Count: count}, nil
}

// AddComment lets any signed-in user comment on an existing tweet.
func (s *EngagementService) AddComment(ctx context.Context, actorID, tweetID uint, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if err := validation.Struct(validation.CommentForm{Content: content}); err != nil {
		return nil, err
	}
	if _, err := s.tweetRepo.GetByID(ctx, tweetID, actorID); err != nil {
		return nil, err
	}

	comment := &models.Comment{Content: content, UserID: actorID, TweetID: tweetID}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	observability.CommentsTotal.WithLabelValues("created").Inc()
	middleware.Logger.InfoContext(ctx, "Comment added",
		slog.Uint64("tweet_id", uint64(tweetID)),
		slog.Uint64("comment_id", uint64(comment.ID)),
	)
	return comment, nil
}

// DeleteComment removes a comment on tweetID. The comment's author and the
// tweet's author may both delete it.
func (s *EngagementService) DeleteComment(ctx context.Context, actorID, tweetID, commentID uint) error {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.TweetID != tweetID {
		return models.NewNotFoundError("Comment", commentID)
	}

	if comment.UserID != actorID {
		tweet, err := s.tweetRepo.GetByID(ctx, tweetID, actorID)
		if err != nil {
			return err
		}
		if !tweet.IsAuthor(actorID) {
			return models.NewForbiddenError("You can only delete your own comments or comments on your tweets")
		}
	}

	if err := s.commentRepo.Delete(ctx, commentID); err != nil {
		return err
	}
	observability.CommentsTotal.WithLabelValues("deleted").Inc()
	return nil
}
