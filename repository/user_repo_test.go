package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserNamesFoldCase(t *testing.T) {
	r := NewInMemoryUserRepo()
	u, err := r.Create("Drums", "hash")
	require.NoError(t, err)
	assert.Equal(t, "Drums", u.Username)

	_, err = r.Create("drums", "hash")
	assert.ErrorIs(t, err, ErrUserExists)

	found, err := r.FindByUsername("DRUMS")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)
}

func TestFindBySender(t *testing.T) {
	r := NewInMemoryUserRepo()
	u, err := r.Create("bass", "hash")
	require.NoError(t, err)

	found, err := r.FindBySender("1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)

	for _, id := range []string{"", "bass", "0", "-3", "42"} {
		_, err := r.FindBySender(id)
		assert.ErrorIs(t, err, ErrUserNotFound, id)
	}
}
