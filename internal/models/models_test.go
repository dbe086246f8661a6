package models

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_PasswordHashing(t *testing.T) {
	u := &User{Username: "alice"}
	require.NoError(t, u.SetPassword("secret1"))

	assert.NotEqual(t, "secret1", u.PasswordHash)
	assert.True(t, u.CheckPassword("secret1"))
	assert.False(t, u.CheckPassword("secret2"))
	assert.False(t, u.CheckPassword(""))
}

func TestUser_CheckPasswordWithoutHash(t *testing.T) {
	assert.False(t, (&User{}).CheckPassword("anything"))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", NewValidationError("bad"), http.StatusOK},
		{"authentication", NewAuthenticationError("nope"), http.StatusOK},
		{"forbidden", NewForbiddenError("not yours"), http.StatusForbidden},
		{"not found", NewNotFoundError("Tweet", 7), http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("load: %w", NewNotFoundError("Tweet", 7)), http.StatusNotFound},
		{"internal", NewInternalError(errors.New("boom")), http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestPublicMessage_HidesInternals(t *testing.T) {
	err := NewInternalError(errors.New("pq: connection refused"))
	assert.NotContains(t, PublicMessage(err), "pq")
	assert.Equal(t, "Tweet with ID 3 not found", PublicMessage(NewNotFoundError("Tweet", 3)))
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("wrap: %w", NewForbiddenError("no"))
	assert.True(t, HasCode(err, CodeForbidden))
	assert.False(t, HasCode(err, CodeNotFound))
	assert.False(t, HasCode(errors.New("x"), CodeForbidden))
}

func TestTextLengthCountsCodePoints(t *testing.T) {
	assert.Equal(t, 5, TextLength("héllo"))
	assert.Equal(t, 3, TextLength("привет"[:6]))
}

func TestTweet_IsAuthor(t *testing.T) {
	tw := &Tweet{UserID: 4}
	assert.True(t, tw.IsAuthor(4))
	assert.False(t, tw.IsAuthor(5))
	assert.False(t, (&Tweet{}).IsAuthor(0))
}
