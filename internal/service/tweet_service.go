package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"chirp/internal/featureflags"
	"chirp/internal/middleware"
	"chirp/internal/models"
	"chirp/internal/observability"
	"chirp/internal/repository"
	"chirp/internal/textpipeline"
	"chirp/internal/validation"
)

// DefaultTextPipelineTimeout bounds one pipeline run when none is configured.
const DefaultTextPipelineTimeout = 10 * time.Second

// TweetInput is a create or edit submission. Image is nil when no file was sent.
type TweetInput struct {
	Content string
	Image   *ImageUpload
}

type TweetService struct {
	tweetRepo       repository.TweetRepository
	images          *ImageService
	pipeline        textpipeline.Pipeline
	pipelineTimeout time.Duration
	flags           *featureflags.Manager
}

func NewTweetService(
	tweetRepo repository.TweetRepository,
	images *ImageService,
	pipeline textpipeline.Pipeline,
	pipelineTimeout time.Duration,
	flags *featureflags.Manager,
) *TweetService {
	if pipeline == nil {
		pipeline = textpipeline.Noop{}
	}
	if pipelineTimeout <= 0 {
		pipelineTimeout = DefaultTextPipelineTimeout
	}
	return &TweetService{
		tweetRepo:       tweetRepo,
		images:          images,
		pipeline:        pipeline,
		pipelineTimeout: pipelineTimeout,
		flags:           flags,
	}
}

// CreateTweet validates, decorates and stores a new tweet with its optional image.
func (s *TweetService) CreateTweet(ctx context.Context, actorID uint, in TweetInput) (*models.Tweet, error) {
	in.Content = strings.TrimSpace(in.Content)
	if err := s.validate(in); err != nil {
		return nil, err
	}

	derived := s.derive(ctx, actorID, in.Content)

	image, err := s.images.Store(ctx, in.Image)
	if err != nil {
		return nil, err
	}

	tweet := &models.Tweet{
		Content:   derived.Content,
		Image:     image,
		Sentiment: derived.Sentiment,
		Hashtags:  derived.Hashtags,
		UserID:    actorID,
	}
	if err := s.tweetRepo.Create(ctx, tweet); err != nil {
		s.images.Remove(ctx, image)
		return nil, err
	}

	observability.TweetsTotal.WithLabelValues("created").Inc()
	middleware.Logger.InfoContext(ctx, "Tweet created", slog.Uint64("tweet_id", uint64(tweet.ID)))
	return tweet, nil
}

// EditTweet replaces content and, when a new file is sent, the image of the actor's own tweet.
func (s *TweetService) EditTweet(ctx context.Context, actorID, tweetID uint, in TweetInput) (*models.Tweet, error) {
	tweet, err := s.tweetRepo.GetByID(ctx, tweetID, actorID)
	if err != nil {
		return nil, err
	}
	if !tweet.IsAuthor(actorID) {
		return nil, models.NewForbiddenError("You can only edit your own tweets")
	}

	in.Content = strings.TrimSpace(in.Content)
	if err := s.validate(in); err != nil {
		return nil, err
	}

	derived := s.derive(ctx, actorID, in.Content)

	oldImage := tweet.Image
	image := oldImage
	if in.Image != nil {
		if image, err = s.images.Store(ctx, in.Image); err != nil {
			return nil, err
		}
	}

	update := repository.TweetUpdate{
		Content:   derived.Content,
		Image:     image,
		Sentiment: derived.Sentiment,
		Hashtags:  derived.Hashtags,
	}
	if err := s.tweetRepo.Update(ctx, tweetID, update); err != nil {
		if image != oldImage {
			s.images.Remove(ctx, image)
		}
		return nil, err
	}
	if image != oldImage {
		s.images.Remove(ctx, oldImage)
	}

	tweet.Content = update.Content
	tweet.Image = update.Image
	tweet.Sentiment = update.Sentiment
	tweet.Hashtags = update.Hashtags

	observability.TweetsTotal.WithLabelValues("edited").Inc()
	middleware.Logger.InfoContext(ctx, "Tweet edited", slog.Uint64("tweet_id", uint64(tweetID)))
	return tweet, nil
}

// GetEditable loads a tweet for the edit form, refusing non-authors.
func (s *TweetService) GetEditable(ctx context.Context, actorID, tweetID uint) (*models.Tweet, error) {
	tweet, err := s.tweetRepo.GetByID(ctx, tweetID, actorID)
	if err != nil {
		return nil, err
	}
	if !tweet.IsAuthor(actorID) {
		return nil, models.NewForbiddenError("You can only edit your own tweets")
	}
	return tweet, nil
}

// DeleteTweet removes the actor's own tweet with its likes, comments and image.
func (s *TweetService) DeleteTweet(ctx context.Context, actorID, tweetID uint) error {
	tweet, err := s.tweetRepo.GetByID(ctx, tweetID, actorID)
	if err != nil {
		return err
	}
	if !tweet.IsAuthor(actorID) {
		return models.NewForbiddenError("You can only delete your own tweets")
	}
	if err := s.tweetRepo.Delete(ctx, tweetID); err != nil {
		return err
	}
	s.images.Remove(ctx, tweet.Image)

	observability.TweetsTotal.WithLabelValues("deleted").Inc()
	middleware.Logger.InfoContext(ctx, "Tweet deleted", slog.Uint64("tweet_id", uint64(tweetID)))
	return nil
}

// validate reports content and image problems together so the form shows both.
func (s *TweetService) validate(in TweetInput) error {
	fields := make(map[string]string)
	var appErr *models.AppError

	if err := validation.Struct(validation.TweetForm{Content: in.Content}); err != nil {
		if !errors.As(err, &appErr) || appErr.Code != models.CodeValidation {
			return err
		}
		for k, v := range appErr.Fields {
			fields[k] = v
		}
	}
	if err := s.images.Validate(in.Image); err != nil {
		if !errors.As(err, &appErr) || appErr.Code != models.CodeValidation {
			return err
		}
		for k, v := range appErr.Fields {
			fields[k] = v
		}
	}
	if len(fields) > 0 {
		return models.NewFieldValidationError(fields)
	}
	return nil
}

// derive runs the text pipeline under a timeout. Any failure falls back to the
// submitted content with no sentiment or hashtags.
func (s *TweetService) derive(ctx context.Context, actorID uint, content string) textpipeline.Result {
	fallback := textpipeline.Result{Content: content}
	if !s.flags.Enabled(featureflags.TextPipeline, actorID, true) {
		return fallback
	}

	runCtx, cancel := context.WithTimeout(ctx, s.pipelineTimeout)
	defer cancel()

	start := time.Now()
	res, err := s.pipeline.Process(runCtx, content)
	if err != nil {
		reason := "error"
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			reason = "timeout"
		}
		observability.TextPipelineDuration.WithLabelValues("fallback").Observe(time.Since(start).Seconds())
		observability.TextPipelineFallbacks.WithLabelValues(reason).Inc()
		middleware.Logger.WarnContext(ctx, "Text pipeline failed, storing content as submitted",
			slog.String("reason", reason),
			slog.String("error", models.NewExternalServiceError("text pipeline", err).Error()),
		)
		return fallback
	}
	observability.TextPipelineDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())

	out := textpipeline.Result{Content: content}
	if corrected := strings.TrimSpace(res.Content); corrected != "" && models.TextLength(corrected) <= models.MaxTextLength {
		out.Content = corrected
	}
	if res.Sentiment != "" {
		out.Sentiment = textpipeline.NormalizeSentiment(res.Sentiment)
	}
	out.Hashtags = textpipeline.NormalizeHashtags(res.Hashtags)
	return out
}
