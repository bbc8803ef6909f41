package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"

	"microblog/internal/identity"
	"microblog/internal/managers"
	"microblog/internal/metrics"
	"microblog/internal/schemas"
	"microblog/internal/utils"
)

type SessionHdl interface {
	Login(ctx *gin.Context)
	RememberLogin(ctx *gin.Context)
	Logout(ctx *gin.Context)
	RefreshToken(ctx *gin.Context)
}

type SessionHandler struct {
	DatabaseManager managers.DatabaseMgr
	JWTManager      managers.JWTMgr
	Cookies         *RememberCookies
}

func NewSessionHandler(databaseManager *managers.DatabaseMgr, jwtManager *managers.JWTMgr) SessionHdl {
	return &SessionHandler{
		DatabaseManager: *databaseManager,
		JWTManager:      *jwtManager,
		Cookies:         NewRememberCookies(),
	}
}

// Login checks the credentials against the stored password digest and
// returns a JWT pair. With rememberMe set, a fresh remember token is
// issued: its digest replaces any previous one on the user row, the
// plaintext only ever travels to the client in a cookie.
func (handler *SessionHandler) Login(ctx *gin.Context) {
	tx := utils.BeginTransaction(ctx, handler.DatabaseManager.GetPool())
	if tx == nil {
		return
	}
	var err error
	defer func() { utils.RollbackTransaction(ctx, tx, err) }()

	loginRequest := payload[schemas.LoginRequest](ctx)
	email := utils.NormalizeEmail(loginRequest.Email)

	var userId int64
	var passwordDigest string
	var activated bool
	queryString := "SELECT user_id, password_digest, activated FROM users WHERE email = $1"
	// Unknown addresses and wrong passwords are indistinguishable to the
	// caller, so login cannot be used to probe for accounts.
	if err = tx.QueryRow(ctx, queryString, email).Scan(&userId, &passwordDigest, &activated); err != nil {
		err = errors.New("email does not exist")
		metrics.IncLogin("unknown")
		utils.WriteAndLogError(ctx, schemas.InvalidCredentials, http.StatusForbidden, err)
		return
	}

	if !activated {
		err = errors.New("user not activated")
		metrics.IncLogin("not_activated")
		utils.WriteAndLogError(ctx, schemas.UserNotActivated, http.StatusForbidden, err)
		return
	}

	if !identity.Compare(passwordDigest, loginRequest.Password) {
		err = errors.New("wrong password")
		metrics.IncLogin("denied")
		utils.WriteAndLogError(ctx, schemas.InvalidCredentials, http.StatusForbidden, err)
		return
	}

	if loginRequest.RememberMe {
		var rememberToken string
		rememberToken, err = handler.remember(ctx, tx, userId)
		if err != nil {
			return
		}
		handler.Cookies.Set(ctx, userId, rememberToken)
	}

	tokenPair, err := handler.JWTManager.GenerateTokenPair(userId)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.InternalServerError, http.StatusInternalServerError, err)
		return
	}

	if err = utils.CommitTransaction(ctx, tx); err != nil {
		return
	}

	metrics.IncLogin("ok")
	utils.WriteAndLogResponse(ctx, tokenPair, http.StatusOK)
}

// remember issues a fresh remember token and persists its digest with a
// narrow single-column update.
func (handler *SessionHandler) remember(ctx *gin.Context, tx pgx.Tx, userId int64) (string, error) {
	rememberToken, err := identity.NewToken()
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.InternalServerError, http.StatusInternalServerError, err)
		return "", err
	}

	rememberDigest, err := identity.Hash(rememberToken)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.InternalServerError, http.StatusInternalServerError, err)
		return "", err
	}

	queryString := "UPDATE users SET remember_digest = $1 WHERE user_id = $2"
	if _, err := tx.Exec(ctx, queryString, rememberDigest, userId); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return "", err
	}

	return rememberToken, nil
}

// RememberLogin restores a session from the remember cookies: the signed
// user id cookie picks the row, the plaintext token is verified against
// the stored remember digest.
func (handler *SessionHandler) RememberLogin(ctx *gin.Context) {
	userId, rememberToken, err := handler.Cookies.Get(ctx)
	if err != nil {
		abortUnauthorized(ctx, err)
		return
	}

	var rememberDigest *string
	var activated bool
	queryString := "SELECT remember_digest, activated FROM users WHERE user_id = $1"
	if err := handler.DatabaseManager.GetPool().QueryRow(ctx, queryString, userId).Scan(&rememberDigest, &activated); err != nil {
		abortUnauthorized(ctx, errors.New("unknown user"))
		return
	}

	if !activated || rememberDigest == nil || !identity.Compare(*rememberDigest, rememberToken) {
		abortUnauthorized(ctx, errInvalidToken)
		return
	}

	tokenPair, err := handler.JWTManager.GenerateTokenPair(userId)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.InternalServerError, http.StatusInternalServerError, err)
		return
	}

	metrics.IncLogin("remembered")
	utils.WriteAndLogResponse(ctx, tokenPair, http.StatusOK)
}

// Logout clears the remember digest, invalidating every remember token
// issued so far, and drops the cookies.
func (handler *SessionHandler) Logout(ctx *gin.Context) {
	userId, err := requestorId(ctx)
	if err != nil {
		abortUnauthorized(ctx, err)
		return
	}

	queryString := "UPDATE users SET remember_digest = NULL WHERE user_id = $1"
	if _, err := handler.DatabaseManager.GetPool().Exec(ctx, queryString, userId); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	handler.Cookies.Clear(ctx)
	ctx.Status(http.StatusNoContent)
}

// RefreshToken exchanges a valid refresh token for a fresh pair.
func (handler *SessionHandler) RefreshToken(ctx *gin.Context) {
	refreshRequest := payload[schemas.RefreshTokenRequest](ctx)

	claims, err := handler.JWTManager.ValidateJWT(refreshRequest.RefreshToken)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.InvalidToken, http.StatusUnauthorized, err)
		return
	}

	mapClaims, ok := claims.(jwt.MapClaims)
	if !ok || mapClaims["refresh"] != "true" {
		abortUnauthorized(ctx, errInvalidToken)
		return
	}

	sub, _ := mapClaims["sub"].(string)
	userId, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		abortUnauthorized(ctx, errInvalidToken)
		return
	}

	tokenPair, err := handler.JWTManager.GenerateTokenPair(userId)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.InternalServerError, http.StatusInternalServerError, err)
		return
	}

	utils.WriteAndLogResponse(ctx, tokenPair, http.StatusOK)
}
