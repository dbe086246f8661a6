package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"chirp/internal/models"
	"chirp/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tweetIDs(tweets []*models.Tweet) []uint {
	ids := make([]uint, 0, len(tweets))
	for _, tw := range tweets {
		ids = append(ids, tw.ID)
	}
	return ids
}

func TestTweetRepository_GetByID_Details(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewTweetRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	tw := testutil.CreateTweet(t, db, alice.ID, "hello world")
	testutil.AddLike(t, db, bob.ID, tw.ID)
	testutil.AddComment(t, db, bob.ID, tw.ID, "hi")
	testutil.AddComment(t, db, alice.ID, tw.ID, "thanks")

	got, err := repo.GetByID(ctx, tw.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello world", got.Content)
	assert.Equal(t, "alice", got.User.Username)
	assert.Equal(t, 1, got.LikesCount)
	assert.Equal(t, 2, got.CommentsCount)
	assert.True(t, got.Liked)

	got, err = repo.GetByID(ctx, tw.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, got.Liked)

	_, err = repo.GetByID(ctx, 9999, 0)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestTweetRepository_ListFilters(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewTweetRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	carol := testutil.CreateUser(t, db, "carol")

	t1 := testutil.CreateTweet(t, db, alice.ID, "Hello World")
	t2 := testutil.CreateTweet(t, db, bob.ID, "golang is fun")
	t3 := testutil.CreateTweet(t, db, alice.ID, "100% sure_thing")
	require.NoError(t, repo.Update(ctx, t2.ID, TweetUpdate{Content: t2.Content, Hashtags: "#GoLang #fun"}))

	day := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	testutil.SetCreatedAt(t, db, t1.ID, day.Add(-13*time.Hour)) // 14th, 23:00
	testutil.SetCreatedAt(t, db, t2.ID, day)                    // 15th, 12:00
	testutil.SetCreatedAt(t, db, t3.ID, day.Add(12*time.Hour))  // 16th, 00:00

	testutil.AddLike(t, db, bob.ID, t1.ID)
	testutil.AddLike(t, db, carol.ID, t1.ID)
	testutil.AddLike(t, db, alice.ID, t2.ID)
	testutil.AddComment(t, db, carol.ID, t3.ID, "nice")

	tests := []struct {
		name   string
		filter TweetFilter
		want   []uint
	}{
		{"default newest first", TweetFilter{}, []uint{t3.ID, t2.ID, t1.ID}},
		{"oldest first", TweetFilter{Ascending: true}, []uint{t1.ID, t2.ID, t3.ID}},
		{"by author", TweetFilter{ByAuthor: true, AuthorUsername: "alice"}, []uint{t3.ID, t1.ID}},
		{"unknown author", TweetFilter{ByAuthor: true, AuthorUsername: "nobody"}, []uint{}},
		{"author id", TweetFilter{AuthorID: bob.ID}, []uint{t2.ID}},
		{"hashtag case-insensitive", TweetFilter{Hashtag: "#golang"}, []uint{t2.ID}},
		{"text case-insensitive", TweetFilter{Text: "hello"}, []uint{t1.ID}},
		{"percent is literal", TweetFilter{Text: "100%"}, []uint{t3.ID}},
		{"underscore is literal", TweetFilter{Text: "e_t"}, []uint{t3.ID}},
		{"underscore does not wildcard", TweetFilter{Text: "o_W"}, []uint{}},
		{"utc day", TweetFilter{Day: &day}, []uint{t2.ID}},
		{"min likes", TweetFilter{MinLikes: 1}, []uint{t2.ID, t1.ID}},
		{"min likes two", TweetFilter{MinLikes: 2}, []uint{t1.ID}},
		{"min comments", TweetFilter{MinComments: 1}, []uint{t3.ID}},
		{"sort by likes desc", TweetFilter{SortBy: SortByLikes}, []uint{t1.ID, t2.ID, t3.ID}},
		{"sort by likes asc", TweetFilter{SortBy: SortByLikes, Ascending: true}, []uint{t3.ID, t2.ID, t1.ID}},
		{"sort by comments desc ties by id desc", TweetFilter{SortBy: SortByComments}, []uint{t3.ID, t2.ID, t1.ID}},
		{"combined", TweetFilter{ByAuthor: true, AuthorUsername: "alice", MinLikes: 1}, []uint{t1.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.List(ctx, tt.filter, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tweetIDs(got))
		})
	}
}

func TestTweetRepository_ListNonASCIICase(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewTweetRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	shout := testutil.CreateTweet(t, db, alice.ID, "ПРИВЕТ мир")
	other := testutil.CreateTweet(t, db, alice.ID, "Grüße aus Köln")
	require.NoError(t, repo.Update(ctx, other.ID, TweetUpdate{Content: other.Content, Hashtags: "#КОФЕ #Straße"}))

	tests := []struct {
		name   string
		filter TweetFilter
		want   []uint
	}{
		{"lower query upper text", TweetFilter{Text: "привет"}, []uint{shout.ID}},
		{"same case", TweetFilter{Text: "ПРИВЕТ"}, []uint{shout.ID}},
		{"mixed case", TweetFilter{Text: "Мир"}, []uint{shout.ID}},
		{"umlaut", TweetFilter{Text: "KÖLN"}, []uint{other.ID}},
		{"cyrillic hashtag", TweetFilter{Hashtag: "#кофе"}, []uint{other.ID}},
		{"latin hashtag", TweetFilter{Hashtag: "straSSE"}, []uint{}},
		{"latin hashtag folded", TweetFilter{Hashtag: "STRAßE"}, []uint{other.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.List(ctx, tt.filter, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tweetIDs(got))
		})
	}

	// edits refold the stored text
	require.NoError(t, repo.Update(ctx, shout.ID, TweetUpdate{Content: "ПОКА"}))
	got, err := repo.List(ctx, TweetFilter{Text: "пока"}, 0)
	require.NoError(t, err)
	assert.Equal(t, []uint{shout.ID}, tweetIDs(got))
	got, err = repo.List(ctx, TweetFilter{Text: "привет"}, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTweetRepository_UpdateKeepsCreatedAt(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewTweetRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	tw := testutil.CreateTweet(t, db, alice.ID, "first")
	before, err := repo.GetByID(ctx, tw.ID, 0)
	require.NoError(t, err)

	require.NoError(t, repo.Update(ctx, tw.ID, TweetUpdate{Content: "second", Sentiment: "positive", Hashtags: "#two"}))

	after, err := repo.GetByID(ctx, tw.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, "second", after.Content)
	assert.Equal(t, "positive", after.Sentiment)
	assert.Equal(t, "#two", after.Hashtags)
	assert.True(t, before.CreatedAt.Equal(after.CreatedAt))
	assert.Equal(t, alice.ID, after.UserID)

	err = repo.Update(ctx, 9999, TweetUpdate{Content: "x"})
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestTweetRepository_DeleteCascades(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewTweetRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	tw := testutil.CreateTweet(t, db, alice.ID, "doomed")
	keep := testutil.CreateTweet(t, db, alice.ID, "kept")
	testutil.AddLike(t, db, bob.ID, tw.ID)
	testutil.AddLike(t, db, bob.ID, keep.ID)
	testutil.AddComment(t, db, bob.ID, tw.ID, "bye")

	require.NoError(t, repo.Delete(ctx, tw.ID))

	_, err := repo.GetByID(ctx, tw.ID, 0)
	assert.True(t, models.HasCode(err, models.CodeNotFound))

	var likes, comments int64
	require.NoError(t, db.Model(&models.Like{}).Where("tweet_id = ?", tw.ID).Count(&likes).Error)
	require.NoError(t, db.Model(&models.Comment{}).Where("tweet_id = ?", tw.ID).Count(&comments).Error)
	assert.Zero(t, likes)
	assert.Zero(t, comments)

	kept, err := repo.CountLikes(ctx, keep.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), kept)

	err = repo.Delete(ctx, tw.ID)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestTweetRepository_ToggleLike(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewTweetRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	tw := testutil.CreateTweet(t, db, alice.ID, "like me")

	liked, err := repo.ToggleLike(ctx, bob.ID, tw.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	count, err := repo.CountLikes(ctx, tw.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	liked, err = repo.ToggleLike(ctx, bob.ID, tw.ID)
	require.NoError(t, err)
	assert.False(t, liked)
	count, err = repo.CountLikes(ctx, tw.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestTweetRepository_ToggleLikeConcurrent(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewTweetRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	tw := testutil.CreateTweet(t, db, alice.ID, "race")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.ToggleLike(ctx, bob.ID, tw.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	var rows int64
	require.NoError(t, db.Model(&models.Like{}).
		Where("user_id = ? AND tweet_id = ?", bob.ID, tw.ID).
		Count(&rows).Error)
	assert.LessOrEqual(t, rows, int64(1))
}

func TestLikeUniqueIndex(t *testing.T) {
	db := testutil.NewTestDB(t)
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	tw := testutil.CreateTweet(t, db, alice.ID, "unique")

	testutil.AddLike(t, db, bob.ID, tw.ID)
	err := db.Create(&models.Like{UserID: bob.ID, TweetID: tw.ID}).Error
	assert.Error(t, err)
}
