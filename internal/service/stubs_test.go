package service

import (
	"context"

	"chirp/internal/models"
	"chirp/internal/repository"
)

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn       func(context.Context, uint) (*models.User, error)
	getByUsernameFn func(context.Context, string) (*models.User, error)
	getByEmailFn    func(context.Context, string) (*models.User, error)
	createFn        func(context.Context, *models.User) error
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}

// tweetRepoStub is a stub for repository.TweetRepository.
type tweetRepoStub struct {
	createFn     func(context.Context, *models.Tweet) error
	getByIDFn    func(context.Context, uint, uint) (*models.Tweet, error)
	listFn       func(context.Context, repository.TweetFilter, uint) ([]*models.Tweet, error)
	updateFn     func(context.Context, uint, repository.TweetUpdate) error
	deleteFn     func(context.Context, uint) error
	toggleLikeFn func(context.Context, uint, uint) (bool, error)
	countLikesFn func(context.Context, uint) (int64, error)
}

func (s *tweetRepoStub) Create(ctx context.Context, tweet *models.Tweet) error {
	return s.createFn(ctx, tweet)
}
func (s *tweetRepoStub) GetByID(ctx context.Context, id, viewerID uint) (*models.Tweet, error) {
	return s.getByIDFn(ctx, id, viewerID)
}
func (s *tweetRepoStub) List(ctx context.Context, filter repository.TweetFilter, viewerID uint) ([]*models.Tweet, error) {
	return s.listFn(ctx, filter, viewerID)
}
func (s *tweetRepoStub) Update(ctx context.Context, id uint, update repository.TweetUpdate) error {
	return s.updateFn(ctx, id, update)
}
func (s *tweetRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *tweetRepoStub) ToggleLike(ctx context.Context, userID, tweetID uint) (bool, error) {
	return s.toggleLikeFn(ctx, userID, tweetID)
}
func (s *tweetRepoStub) CountLikes(ctx context.Context, tweetID uint) (int64, error) {
	return s.countLikesFn(ctx, tweetID)
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn      func(context.Context, *models.Comment) error
	getByIDFn     func(context.Context, uint) (*models.Comment, error)
	listByTweetFn func(context.Context, uint) ([]*models.Comment, error)
	deleteFn      func(context.Context, uint) error
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListByTweet(ctx context.Context, tweetID uint) ([]*models.Comment, error) {
	return s.listByTweetFn(ctx, tweetID)
}
func (s *commentRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func tweetByAuthor(id, authorID uint) func(context.Context, uint, uint) (*models.Tweet, error) {
	return func(_ context.Context, got, _ uint) (*models.Tweet, error) {
		if got != id {
			return nil, models.NewNotFoundError("Tweet", got)
		}
		return &models.Tweet{ID: id, UserID: authorID, Content: "hello"}, nil
	}
}
