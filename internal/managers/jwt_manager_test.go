package managers

import (
	"crypto/ed25519"
	"crypto/rand"
	"path/filepath"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTManager(t *testing.T) JWTMgr {
	t.Helper()
	publicKey, privateKey, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return NewJWTManager(privateKey, publicKey)
}

func TestGenerateTokenPair(t *testing.T) {
	jwtMgr := newTestJWTManager(t)

	pair, err := jwtMgr.GenerateTokenPair(42)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.Token)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.Token, pair.RefreshToken)

	claims, err := jwtMgr.ValidateJWT(pair.Token)
	require.NoError(t, err)
	mapClaims := claims.(jwt.MapClaims)
	assert.Equal(t, "42", mapClaims["sub"])
	assert.Equal(t, "false", mapClaims["refresh"])
	assert.Equal(t, "microblog", mapClaims["iss"])

	claims, err = jwtMgr.ValidateJWT(pair.RefreshToken)
	require.NoError(t, err)
	mapClaims = claims.(jwt.MapClaims)
	assert.Equal(t, "true", mapClaims["refresh"])
}

func TestValidateJWTRejectsForeignToken(t *testing.T) {
	jwtMgr := newTestJWTManager(t)
	otherMgr := newTestJWTManager(t)

	pair, err := otherMgr.GenerateTokenPair(1)
	require.NoError(t, err)

	_, err = jwtMgr.ValidateJWT(pair.Token)
	assert.Error(t, err)

	_, err = jwtMgr.ValidateJWT("not even a token")
	assert.Error(t, err)
}

func TestNewJWTManagerFromFile(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "keypair")
	t.Setenv("KEY_PAIR_PATH", keyPath)

	// First start generates and persists the pair.
	first, err := NewJWTManagerFromFile()
	require.NoError(t, err)

	pair, err := first.GenerateTokenPair(7)
	require.NoError(t, err)

	// Second start loads the same pair, so tokens stay valid.
	second, err := NewJWTManagerFromFile()
	require.NoError(t, err)

	_, err = second.ValidateJWT(pair.Token)
	assert.NoError(t, err)
}
