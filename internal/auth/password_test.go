package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", hash)

	assert.NoError(t, CheckPassword(hash, "s3cret!"))
	assert.ErrorIs(t, CheckPassword(hash, "wrong"), ErrPasswordMismatch)
}

func TestCheckPasswordRejectsPlaintextRows(t *testing.T) {
	err := CheckPassword("s3cret!", "s3cret!")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPasswordMismatch)
}

func TestPasswordLengthLimit(t *testing.T) {
	// 24 Vietnamese letters with stacked diacritics are three bytes each.
	atLimit := strings.Repeat("ệ", 24)
	require.Len(t, atLimit, MaxPasswordBytes)

	hash, err := HashPassword(atLimit)
	require.NoError(t, err)
	assert.NoError(t, CheckPassword(hash, atLimit))

	tooLong := atLimit + "a"
	_, err = HashPassword(tooLong)
	assert.ErrorIs(t, err, ErrPasswordTooLong)
	assert.ErrorIs(t, CheckPassword(hash, tooLong), ErrPasswordMismatch)

	assert.NotPanics(t, func() { BurnCompare(strings.Repeat("a", 200)) })
}
