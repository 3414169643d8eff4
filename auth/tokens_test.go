package auth

import (
	"testing"
	"time"

	"github.com/arjundev/vidtubebackend/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	}
}

func TestTokenService_IssueAndVerify(t *testing.T) {
	t.Parallel()

	ts := NewTokenService(testJWTConfig())

	access, err := ts.IssueAccess("user-123")
	require.NoError(t, err)
	refresh, err := ts.IssueRefresh("user-123")
	require.NoError(t, err)

	uid, err := ts.Verify(access, TokenAccess)
	require.NoError(t, err)
	assert.Equal(t, "user-123", uid)

	uid, err = ts.Verify(refresh, TokenRefresh)
	require.NoError(t, err)
	assert.Equal(t, "user-123", uid)
}

func TestTokenService_WrongType(t *testing.T) {
	t.Parallel()

	ts := NewTokenService(testJWTConfig())

	access, err := ts.IssueAccess("user-123")
	require.NoError(t, err)

	// Separate secrets mean the signature check fails before the type
	// claim is even looked at.
	_, err = ts.Verify(access, TokenRefresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_TypeClaimChecked(t *testing.T) {
	t.Parallel()

	// Same secret for both classes: only the type claim can tell them
	// apart, and it must.
	cfg := testJWTConfig()
	cfg.RefreshSecret = cfg.AccessSecret
	ts := NewTokenService(cfg)

	access, err := ts.IssueAccess("user-123")
	require.NoError(t, err)

	_, err = ts.Verify(access, TokenRefresh)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestTokenService_Expired(t *testing.T) {
	t.Parallel()

	cfg := testJWTConfig()
	cfg.AccessTTL = -1 * time.Second
	ts := NewTokenService(cfg)

	access, err := ts.IssueAccess("user-123")
	require.NoError(t, err)

	_, err = ts.Verify(access, TokenAccess)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenService_ForgedAndMalformed(t *testing.T) {
	t.Parallel()

	ts := NewTokenService(testJWTConfig())

	other := NewTokenService(config.JWTConfig{
		AccessSecret:  "other-secret",
		RefreshSecret: "other-refresh",
		AccessTTL:     time.Hour,
		RefreshTTL:    time.Hour,
	})
	forged, err := other.IssueAccess("user-123")
	require.NoError(t, err)

	_, err = ts.Verify(forged, TokenAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ts.Verify("not.a.jwt", TokenAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestHashToken_Deterministic(t *testing.T) {
	t.Parallel()

	assert.Equal(t, HashToken("abc"), HashToken("abc"))
	assert.NotEqual(t, HashToken("abc"), HashToken("abd"))
	assert.NotEqual(t, "abc", HashToken("abc"))
}
