package repo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/bazaar/internal/models"
)

func TestCreateSeller_OneProfilePerUser(t *testing.T) {
	t.Parallel()
	r := newTestRepo(t)
	user := seedUser(t, r, "merchant", "user")

	seedSeller(t, r, user, "Acme", false)

	dup := models.Seller{UserID: user.ID, CompanyName: "Acme Again"}
	err := r.CreateSeller(context.Background(), &dup)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestVerifySeller(t *testing.T) {
	t.Parallel()
	r := newTestRepo(t)
	ctx := context.Background()

	seller := seedSeller(t, r, seedUser(t, r, "merchant", "user"), "Acme", false)
	require.False(t, seller.IsVerified)

	verified, err := r.VerifySeller(ctx, seller.ID)
	require.NoError(t, err)
	assert.True(t, verified.IsVerified)
	assert.Equal(t, "merchant", verified.User.Username)

	_, err = r.VerifySeller(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRevokeRefreshToken(t *testing.T) {
	t.Parallel()
	r := newTestRepo(t)
	ctx := context.Background()

	user := seedUser(t, r, "someone", "user")
	require.NoError(t, r.SaveRefreshToken(ctx, "live-token", user.ID, time.Now().Add(time.Hour)))

	require.NoError(t, r.RevokeRefreshToken(ctx, "live-token"))

	// a second revoke finds nothing live
	err := r.RevokeRefreshToken(ctx, "live-token")
	assert.ErrorIs(t, err, ErrNotFound)

	err = r.RevokeRefreshToken(ctx, "never-issued")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRevokeRefreshToken_Expired(t *testing.T) {
	t.Parallel()
	r := newTestRepo(t)
	ctx := context.Background()

	user := seedUser(t, r, "someone", "user")
	require.NoError(t, r.SaveRefreshToken(ctx, "stale-token", user.ID, time.Now().Add(-time.Minute)))

	err := r.RevokeRefreshToken(ctx, "stale-token")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConsumeResetToken_SingleUse(t *testing.T) {
	t.Parallel()
	r := newTestRepo(t)
	ctx := context.Background()

	user := seedUser(t, r, "forgetful", "user")
	token, err := r.CreateResetToken(ctx, user.ID)
	require.NoError(t, err)
	require.NotEmpty(t, token.Token)

	require.NoError(t, r.ConsumeResetToken(ctx, user.ID, token.Token))

	// burned tokens cannot be replayed
	err = r.ConsumeResetToken(ctx, user.ID, token.Token)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConsumeResetToken_WrongUser(t *testing.T) {
	t.Parallel()
	r := newTestRepo(t)
	ctx := context.Background()

	owner := seedUser(t, r, "owner", "user")
	other := seedUser(t, r, "other", "user")

	token, err := r.CreateResetToken(ctx, owner.ID)
	require.NoError(t, err)

	err = r.ConsumeResetToken(ctx, other.ID, token.Token)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdatePassword(t *testing.T) {
	t.Parallel()
	r := newTestRepo(t)
	ctx := context.Background()

	user := seedUser(t, r, "someone", "user")
	require.NoError(t, r.UpdatePassword(ctx, user.ID, "new-hash"))

	got, err := r.UserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.PasswordHash)

	err = r.UpdatePassword(ctx, 999, "hash")
	assert.ErrorIs(t, err, ErrNotFound)
}
