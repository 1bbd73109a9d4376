package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/xiebiao/bookshop/pkg/errors"
)

func TestGenerateAndParse(t *testing.T) {
	m := NewManager("test-secret", time.Hour, 24*time.Hour)

	pair, err := m.GenerateToken(Identity{UserID: 42, Email: "staff@example.com", Nickname: "店员", Role: "staff"})
	require.NoError(t, err)
	assert.Equal(t, int64(3600), pair.ExpiresIn)

	claims, err := m.ParseToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "staff", claims.Role)
	assert.Equal(t, "bookshop", claims.Issuer)
	assert.InDelta(t, time.Hour.Seconds(), RemainingTTL(claims).Seconds(), 5)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	pair, err := NewManager("a", time.Hour, time.Hour).GenerateToken(Identity{UserID: 1})
	require.NoError(t, err)

	_, err = NewManager("b", time.Hour, time.Hour).ParseToken(pair.AccessToken)

	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestParseExpired(t *testing.T) {
	m := NewManager("s", -time.Minute, time.Hour)
	pair, err := m.GenerateToken(Identity{UserID: 1})
	require.NoError(t, err)

	_, err = m.ParseToken(pair.AccessToken)

	assert.ErrorIs(t, err, apperrors.ErrTokenExpired)
}

func TestRefreshKeepsRole(t *testing.T) {
	m := NewManager("s", time.Hour, time.Hour)
	pair, err := m.GenerateToken(Identity{UserID: 3, Role: "admin"})
	require.NoError(t, err)

	access, err := m.RefreshAccessToken(pair.RefreshToken)
	require.NoError(t, err)

	claims, err := m.ParseToken(access)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, uint(3), claims.UserID)
}
