// Package handlers implements the request handlers behind the route
// surface: accounts and activation, sessions, password resets, the
// follow graph and the micropost feed.
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"microblog/internal/schemas"
	"microblog/internal/utils"
)

var (
	errUnauthorized = errors.New("unauthorized")
	errInvalidToken = errors.New("invalid token")
)

// requestorId extracts the authenticated user id from the JWT claims the
// middleware stored in the context.
func requestorId(ctx *gin.Context) (int64, error) {
	claims, ok := ctx.Value(utils.ClaimsKey.String()).(jwt.MapClaims)
	if !ok {
		return 0, errUnauthorized
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, errUnauthorized
	}

	return strconv.ParseInt(sub, 10, 64)
}

// pathUserId parses the numeric user id from the route parameters.
func pathUserId(ctx *gin.Context) (int64, error) {
	return strconv.ParseInt(ctx.Param(utils.UserIdKey), 10, 64)
}

// payload returns the request body the validation middleware already
// bound, sanitized and validated.
func payload[T any](ctx *gin.Context) *T {
	return ctx.MustGet(utils.SanitizedPayloadKey.String()).(*T)
}

// abortUnauthorized writes the uniform unauthorized rejection.
func abortUnauthorized(ctx *gin.Context, err error) {
	utils.WriteAndLogError(ctx, schemas.Unauthorized, http.StatusUnauthorized, err)
}
