package tokens

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-refresh-secret")

func TestSignAccessToken_SetsExpectedClaims(t *testing.T) {
	t.Parallel()

	signed, exp, err := SignAccessToken(42, "admin", testSecret)
	require.NoError(t, err)
	require.NotEmpty(t, signed)
	assert.WithinDuration(t, time.Now().Add(AccessTTL), exp, time.Second)

	parsed, err := jwt.Parse(signed, func(t *jwt.Token) (any, error) { return testSecret, nil })
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.EqualValues(t, 42, claims["sub"])
	assert.Equal(t, "admin", claims["role"])
	assert.NotContains(t, claims, "typ")
}

func TestParseRefresh(t *testing.T) {
	t.Parallel()

	refresh, _, err := SignRefreshToken(7, "user", testSecret)
	require.NoError(t, err)

	claims, err := ParseRefresh(refresh, testSecret)
	require.NoError(t, err)
	assert.EqualValues(t, 7, claims["sub"])
	assert.Equal(t, "refresh", claims["typ"])
}

func TestParseRefresh_RejectsAccessToken(t *testing.T) {
	t.Parallel()

	access, _, err := SignAccessToken(7, "user", testSecret)
	require.NoError(t, err)

	_, err = ParseRefresh(access, testSecret)
	require.Error(t, err)
}

func TestParseRefresh_RejectsWrongSecret(t *testing.T) {
	t.Parallel()

	refresh, _, err := SignRefreshToken(7, "user", testSecret)
	require.NoError(t, err)

	_, err = ParseRefresh(refresh, []byte("another-secret"))
	require.Error(t, err)
}

func TestParseRefresh_RejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := ParseRefresh("not-a-jwt", testSecret)
	require.Error(t, err)
}
