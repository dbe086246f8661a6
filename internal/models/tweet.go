package models

import (
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"
)

// MaxTextLength bounds tweet and comment content, counted in code points.
const MaxTextLength = 280

// Tweet is a short user-authored post, optionally with one image.
type Tweet struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Content   string    `gorm:"size:280;not null" json:"content"`
	Image     string    `gorm:"size:100" json:"image,omitempty"`
	Sentiment string    `gorm:"size:10" json:"sentiment,omitempty"`
	Hashtags  string    `gorm:"size:150" json:"hashtags,omitempty"`
	// Case-folded copies matched by feed search; kept in step with Content and Hashtags.
	SearchContent  string `gorm:"type:text;not null;default:''" json:"-"`
	SearchHashtags string `gorm:"type:text;not null;default:''" json:"-"`
	CreatedAt time.Time `gorm:"index;not null" json:"created_at"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`

	Likes    []Like    `gorm:"foreignKey:TweetID" json:"-"`
	Comments []Comment `gorm:"foreignKey:TweetID" json:"comments,omitempty"`

	// Computed per query; never stored.
	LikesCount    int  `gorm:"->;-:migration" json:"likes_count"`
	CommentsCount int  `gorm:"->;-:migration" json:"comments_count"`
	Liked         bool `gorm:"->;-:migration" json:"liked"`
}

// BeforeSave refreshes the search columns from the displayed text.
func (t *Tweet) BeforeSave(*gorm.DB) error {
	t.SearchContent = SearchFold(t.Content)
	t.SearchHashtags = SearchFold(t.Hashtags)
	return nil
}

// SearchFold lower-cases s for search. Folding happens in Go rather than SQL
// because SQLite's LOWER only handles ASCII.
func SearchFold(s string) string {
	return strings.ToLower(s)
}

// IsAuthor reports whether userID wrote the tweet.
func (t *Tweet) IsAuthor(userID uint) bool {
	return userID != 0 && t.UserID == userID
}

// Comment belongs to a tweet and is deletable by its author or the tweet's author.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Content   string    `gorm:"size:280;not null" json:"content"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	TweetID   uint      `gorm:"index;not null" json:"tweet_id"`
	Tweet     *Tweet    `gorm:"foreignKey:TweetID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// Like records one user's like of one tweet.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_like_user_tweet" json:"user_id"`
	TweetID   uint      `gorm:"not null;uniqueIndex:idx_like_user_tweet;index" json:"tweet_id"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Tweet     *Tweet    `gorm:"foreignKey:TweetID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// TextLength counts s the way content limits are enforced.
func TextLength(s string) int {
	return utf8.RuneCountInString(s)
}
