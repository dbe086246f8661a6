// Package testutil provides shared fixtures for tests that need a real database.
package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"chirp/internal/database"
	"chirp/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a migrated sqlite database in a per-test temp directory.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := database.Open(sqlite.Open(database.SQLiteDSN(path)), logger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// CreateUser inserts a user whose password is "secret1".
func CreateUser(t testing.TB, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Email: username + "@example.com"}
	require.NoError(t, u.SetPassword("secret1"))
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreateTweet inserts a tweet authored by userID.
func CreateTweet(t testing.TB, db *gorm.DB, userID uint, content string) *models.Tweet {
	t.Helper()
	tw := &models.Tweet{UserID: userID, Content: content}
	require.NoError(t, db.Create(tw).Error)
	return tw
}

// SetCreatedAt backdates a tweet.
func SetCreatedAt(t testing.TB, db *gorm.DB, tweetID uint, at time.Time) {
	t.Helper()
	require.NoError(t, db.Model(&models.Tweet{}).Where("id = ?", tweetID).Update("created_at", at.UTC()).Error)
}

// AddLike inserts a like row directly.
func AddLike(t testing.TB, db *gorm.DB, userID, tweetID uint) {
	t.Helper()
	require.NoError(t, db.Create(&models.Like{UserID: userID, TweetID: tweetID}).Error)
}

// AddComment inserts a comment row directly.
func AddComment(t testing.TB, db *gorm.DB, userID, tweetID uint, content string) *models.Comment {
	t.Helper()
	c := &models.Comment{UserID: userID, TweetID: tweetID, Content: content}
	require.NoError(t, db.Create(c).Error)
	return c
}

// PNGBytes is a minimal valid 1x1 PNG.
var PNGBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0xf8, 0xcf, 0xc0, 0xf0,
	0x1f, 0x00, 0x05, 0x00, 0x01, 0xff, 0x89, 0x99, 0x3d, 0x1d, 0x00, 0x00,
	0x00, 0x00, 0x49, 0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}
