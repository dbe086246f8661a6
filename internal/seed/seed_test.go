package seed

import (
	"testing"

	"chirp/internal/models"
	"chirp/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeeder(t *testing.T) {
	db := testutil.NewTestDB(t)
	s := NewSeeder(db, Options{Seed: 42, MaxDays: 7})

	users, err := s.SeedUsers(5)
	require.NoError(t, err)
	require.Len(t, users, 5)
	for _, u := range users {
		assert.NotZero(t, u.ID)
		assert.LessOrEqual(t, len(u.Username), 20)
		assert.GreaterOrEqual(t, len(u.Username), 4)
		assert.True(t, u.CheckPassword(DefaultPassword))
	}

	tweets, err := s.SeedTweets(users, 20)
	require.NoError(t, err)
	require.Len(t, tweets, 20)
	for _, tw := range tweets {
		assert.LessOrEqual(t, models.TextLength(tw.Content), 280)
		assert.False(t, tw.CreatedAt.After(s.now()))
	}

	likes, comments, err := s.SeedEngagement(users, tweets)
	require.NoError(t, err)

	var selfLikes int64
	require.NoError(t, db.Model(&models.Like{}).
		Joins("JOIN tweets ON tweets.id = likes.tweet_id").
		Where("tweets.user_id = likes.user_id").
		Count(&selfLikes).Error)
	assert.Zero(t, selfLikes)

	var likeRows, commentRows int64
	require.NoError(t, db.Model(&models.Like{}).Count(&likeRows).Error)
	require.NoError(t, db.Model(&models.Comment{}).Count(&commentRows).Error)
	assert.Equal(t, int64(likes), likeRows)
	assert.Equal(t, int64(comments), commentRows)

	require.NoError(t, s.ClearAll())
	var remaining int64
	require.NoError(t, db.Model(&models.User{}).Count(&remaining).Error)
	assert.Zero(t, remaining)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "héll", truncate("héllo", 4))
	assert.Equal(t, "hi", truncate("hi", 4))
}
