package repository

import (
	"context"
	"strings"
	"time"

	"chirp/internal/models"
	"chirp/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Sort keys accepted by TweetFilter.
const (
	SortByDate     = "date"
	SortByLikes    = "likes"
	SortByComments = "comments"
)

// TweetFilter narrows and orders a tweet listing. Zero values disable a filter.
type TweetFilter struct {
	AuthorID       uint
	AuthorUsername string
	Hashtag        string
	Text           string
	Day            *time.Time
	MinLikes       int
	MinComments    int
	SortBy         string
	Ascending      bool
	// ByAuthor is set when AuthorUsername must match; an unknown author then yields no rows.
	ByAuthor bool
}

// TweetUpdate holds the mutable columns of a tweet.
type TweetUpdate struct {
	Content   string
	Image     string
	Sentiment string
	Hashtags  string
}

// TweetRepository defines persistence operations for tweets and their likes.
type TweetRepository interface {
	Create(ctx context.Context, tweet *models.Tweet) error
	GetByID(ctx context.Context, id uint, viewerID uint) (*models.Tweet, error)
	List(ctx context.Context, filter TweetFilter, viewerID uint) ([]*models.Tweet, error)
	Update(ctx context.Context, id uint, update TweetUpdate) error
	Delete(ctx context.Context, id uint) error
	ToggleLike(ctx context.Context, userID, tweetID uint) (bool, error)
	CountLikes(ctx context.Context, tweetID uint) (int64, error)
}

type tweetRepository struct {
	db *gorm.DB
}

// NewTweetRepository returns a new TweetRepository implementation.
func NewTweetRepository(db *gorm.DB) TweetRepository {
	return &tweetRepository{db: db}
}

const (
	likesCountExpr    = "(SELECT COUNT(*) FROM likes WHERE likes.tweet_id = tweets.id)"
	commentsCountExpr = "(SELECT COUNT(*) FROM comments WHERE comments.tweet_id = tweets.id)"
)

// withDetails selects the engagement counts and the viewer's like flag in one query.
func withDetails(db *gorm.DB, viewerID uint) *gorm.DB {
	return db.Model(&models.Tweet{}).Select(
		"tweets.*, "+
			likesCountExpr+" AS likes_count, "+
			commentsCountExpr+" AS comments_count, "+
			"EXISTS(SELECT 1 FROM likes WHERE likes.tweet_id = tweets.id AND likes.user_id = ?) AS liked",
		viewerID,
	)
}

func (r *tweetRepository) Create(ctx context.Context, tweet *models.Tweet) error {
	defer observability.TrackQuery("create", "tweets")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Omit(clause.Associations).Create(tweet).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *tweetRepository) GetByID(ctx context.Context, id uint, viewerID uint) (*models.Tweet, error) {
	defer observability.TrackQuery("get_by_id", "tweets")()

	var tweet models.Tweet
	err := withDetails(r.db.WithContext(ctx), viewerID).
		Preload("User").
		Where("tweets.id = ?", id).
		First(&tweet).Error
	if err != nil {
		return nil, mapNotFound(err, "Tweet", id)
	}
	return &tweet, nil
}

func (r *tweetRepository) List(ctx context.Context, filter TweetFilter, viewerID uint) ([]*models.Tweet, error) {
	defer observability.TrackQuery("list", "tweets")()

	q := withDetails(r.db.WithContext(ctx), viewerID).Preload("User")

	if filter.AuthorID != 0 {
		q = q.Where("tweets.user_id = ?", filter.AuthorID)
	}
	if filter.ByAuthor {
		// scalar subquery is NULL for unknown usernames, which matches nothing
		q = q.Where("tweets.user_id = (SELECT users.id FROM users WHERE users.username = ?)", filter.AuthorUsername)
	}
	if filter.Hashtag != "" {
		q = q.Where(`tweets.search_hashtags LIKE ? ESCAPE '\'`, containsPattern(filter.Hashtag))
	}
	if filter.Text != "" {
		q = q.Where(`tweets.search_content LIKE ? ESCAPE '\'`, containsPattern(filter.Text))
	}
	if filter.Day != nil {
		d := filter.Day.UTC()
		start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		q = q.Where("tweets.created_at >= ? AND tweets.created_at < ?", start, start.AddDate(0, 0, 1))
	}
	if filter.MinLikes > 0 {
		q = q.Where(likesCountExpr+" >= ?", filter.MinLikes)
	}
	if filter.MinComments > 0 {
		q = q.Where(commentsCountExpr+" >= ?", filter.MinComments)
	}

	var tweets []*models.Tweet
	if err := applySort(q, filter.SortBy, filter.Ascending).Find(&tweets).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return tweets, nil
}

// applySort orders by the requested key; tweets.id DESC breaks ties.
func applySort(db *gorm.DB, sortBy string, ascending bool) *gorm.DB {
	dir := "DESC"
	if ascending {
		dir = "ASC"
	}
	switch sortBy {
	case SortByLikes:
		return db.Order("likes_count " + dir).Order("tweets.id DESC")
	case SortByComments:
		return db.Order("comments_count " + dir).Order("tweets.id DESC")
	default:
		return db.Order("tweets.created_at " + dir).Order("tweets.id DESC")
	}
}

// containsPattern builds a case-folded LIKE pattern matching term as a literal substring.
func containsPattern(term string) string {
	escaper := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + escaper.Replace(models.SearchFold(term)) + "%"
}

func (r *tweetRepository) Update(ctx context.Context, id uint, update TweetUpdate) error {
	defer observability.TrackQuery("update", "tweets")()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Tweet{}).Where("id = ?", id).Updates(map[string]interface{}{
			"content":   update.Content,
			"image":     update.Image,
			"sentiment": update.Sentiment,
			"hashtags":  update.Hashtags,

			"search_content":  models.SearchFold(update.Content),
			"search_hashtags": models.SearchFold(update.Hashtags),
		})
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Tweet", id)
		}
		return nil
	})
}

// Delete removes the tweet with its likes and comments in one transaction.
func (r *tweetRepository) Delete(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete", "tweets")()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tweet_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return models.NewInternalError(err)
		}
		if err := tx.Where("tweet_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return models.NewInternalError(err)
		}
		res := tx.Delete(&models.Tweet{}, id)
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Tweet", id)
		}
		return nil
	})
}

// ToggleLike removes the user's like if present, otherwise adds it, and reports the new state.
// The unique (user_id, tweet_id) index plus ON CONFLICT DO NOTHING keeps concurrent toggles
// from ever producing a second row.
func (r *tweetRepository) ToggleLike(ctx context.Context, userID, tweetID uint) (bool, error) {
	defer observability.TrackQuery("toggle_like", "likes")()

	liked := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND tweet_id = ?", userID, tweetID).Delete(&models.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		liked = true
		return tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.Like{UserID: userID, TweetID: tweetID}).Error
	})
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return liked, nil
}

func (r *tweetRepository) CountLikes(ctx context.Context, tweetID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Like{}).Where("tweet_id = ?", tweetID).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}
