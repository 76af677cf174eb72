package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	tok, err := GenerateJWT("s3cret", 42, "drummer", time.Hour)
	require.NoError(t, err)

	claims, err := ParseJWT("s3cret", tok)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "drummer", claims.Username)
	assert.Equal(t, "42", claims.Subject)
}

func TestJWTRejects(t *testing.T) {
	tok, err := GenerateJWT("s3cret", 42, "drummer", time.Hour)
	require.NoError(t, err)

	_, err = ParseJWT("other", tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := GenerateJWT("s3cret", 42, "drummer", -time.Minute)
	require.NoError(t, err)
	_, err = ParseJWT("s3cret", expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseJWT("s3cret", "")
	assert.ErrorIs(t, err, ErrEmptyToken)
}

func TestViewerIDWithoutSecret(t *testing.T) {
	tok, err := GenerateJWT("server-only", 7, "keys", time.Hour)
	require.NoError(t, err)

	id, err := ViewerID(tok)
	require.NoError(t, err)
	assert.Equal(t, "7", id)

	_, err = ViewerID("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = ViewerID("")
	assert.ErrorIs(t, err, ErrEmptyToken)
}
