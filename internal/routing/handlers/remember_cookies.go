package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/securecookie"
	log "github.com/sirupsen/logrus"

	"microblog/internal/utils"
)

// rememberCookieMaxAge keeps remember cookies for 30 days.
const rememberCookieMaxAge = 30 * 24 * 60 * 60

// RememberCookies manages the pair of cookies backing "remember me":
// a signed cookie carrying the user id and a plain HttpOnly cookie with
// the remember token. The token itself is only ever persisted as a
// digest server-side.
type RememberCookies struct {
	sc *securecookie.SecureCookie
}

func NewRememberCookies() *RememberCookies {
	hashKey := cookieKey("SESSION_HASH_KEY", 32)
	blockKey := cookieKey("SESSION_BLOCK_KEY", 32)

	sc := securecookie.New(hashKey, blockKey)
	sc.MaxAge(rememberCookieMaxAge)

	return &RememberCookies{sc: sc}
}

// cookieKey reads a key from the environment or generates a random one.
// Randomly generated keys do not survive restarts, which merely forces a
// fresh login.
func cookieKey(envVar string, length int) []byte {
	if keyHex := os.Getenv(envVar); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err == nil && len(key) >= length {
			return key[:length]
		}
		log.Warnf("%s is invalid, generating random key", envVar)
	}

	key := make([]byte, length)
	if _, err := rand.Read(key); err != nil {
		log.Fatalf("Failed to generate cookie key: %v", err)
	}
	return key
}

// Set writes both remember cookies.
func (rc *RememberCookies) Set(ctx *gin.Context, userId int64, token string) {
	encoded, err := rc.sc.Encode(utils.RememberUserCookie, userId)
	if err != nil {
		log.Warnf("Failed to encode remember cookie: %v", err)
		return
	}

	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(utils.RememberUserCookie, encoded, rememberCookieMaxAge, "/", "", false, true)
	ctx.SetCookie(utils.RememberTokenCookie, token, rememberCookieMaxAge, "/", "", false, true)
}

// Get reads and validates both remember cookies.
func (rc *RememberCookies) Get(ctx *gin.Context) (int64, string, error) {
	encoded, err := ctx.Cookie(utils.RememberUserCookie)
	if err != nil {
		return 0, "", errors.New("missing remember cookie")
	}

	var userId int64
	if err := rc.sc.Decode(utils.RememberUserCookie, encoded, &userId); err != nil {
		return 0, "", err
	}

	token, err := ctx.Cookie(utils.RememberTokenCookie)
	if err != nil {
		return 0, "", errors.New("missing remember token cookie")
	}

	return userId, token, nil
}

// Clear drops both remember cookies.
func (rc *RememberCookies) Clear(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(utils.RememberUserCookie, "", -1, "/", "", false, true)
	ctx.SetCookie(utils.RememberTokenCookie, "", -1, "/", "", false, true)
}
