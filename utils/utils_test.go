package utils

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorMatchesKindSentinel(t *testing.T) {
	err := fmt.Errorf("approve: %w", Conflict("Verification has already been processed."))

	assert.ErrorIs(t, err, ErrConflict)
	assert.NotErrorIs(t, err, ErrNotFound)

	appErr, ok := AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, appErr.Status())
	assert.Equal(t, "Verification has already been processed.", appErr.Error())
}

func TestAppErrorStatuses(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, NotFound("x").Status())
	assert.Equal(t, http.StatusForbidden, Forbidden("x").Status())
	assert.Equal(t, http.StatusBadRequest, Validation("x").Status())
	assert.Equal(t, http.StatusUnauthorized, Unauthorized("x").Status())
	assert.Equal(t, http.StatusInternalServerError, Internal("x", errors.New("boom")).Status())
}

func TestInternalUnwraps(t *testing.T) {
	cause := errors.New("disk full")
	err := Internal("Failed to save", cause)
	assert.ErrorIs(t, err, cause)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := GenerateAccessToken(7, "admin", "secret", time.Minute)
	require.NoError(t, err)

	claims, err := ParseToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "admin", claims.Role)

	_, err = ParseToken(token, "other")
	assert.Error(t, err)
}

func TestExpiredTokenIsRejected(t *testing.T) {
	token, err := GenerateAccessToken(7, "user", "secret", -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token, "secret")
	assert.Error(t, err)
}

func TestRefreshTokensAreUnique(t *testing.T) {
	a, expA, err := GenerateRefreshToken(1, "secret", time.Hour)
	require.NoError(t, err)
	b, _, err := GenerateRefreshToken(1, "secret", time.Hour)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expA, 5*time.Second)
}
