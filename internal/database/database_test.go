package database_test

import (
	"testing"

	"chirp/internal/database"
	"chirp/internal/models"
	"chirp/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateBackfillsSearchColumns(t *testing.T) {
	db := testutil.NewTestDB(t)
	alice := testutil.CreateUser(t, db, "alice")
	tw := testutil.CreateTweet(t, db, alice.ID, "ПРИВЕТ мир")

	// rows written before the search columns existed
	require.NoError(t, db.Model(&models.Tweet{}).Where("id = ?", tw.ID).
		UpdateColumns(map[string]interface{}{"search_content": "", "hashtags": "#Кофе", "search_hashtags": ""}).Error)

	require.NoError(t, database.Migrate(db))

	var got models.Tweet
	require.NoError(t, db.First(&got, tw.ID).Error)
	assert.Equal(t, "привет мир", got.SearchContent)
	assert.Equal(t, "#кофе", got.SearchHashtags)
}
