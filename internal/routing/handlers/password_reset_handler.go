package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"microblog/internal/identity"
	"microblog/internal/managers"
	"microblog/internal/schemas"
	"microblog/internal/utils"
)

type PasswordResetHdl interface {
	CreateReset(ctx *gin.Context)
	UpdatePassword(ctx *gin.Context)
}

type PasswordResetHandler struct {
	DatabaseManager managers.DatabaseMgr
	MailManager     managers.MailMgr
}

func NewPasswordResetHandler(databaseManager *managers.DatabaseMgr, mailManager *managers.MailMgr) PasswordResetHdl {
	return &PasswordResetHandler{
		DatabaseManager: *databaseManager,
		MailManager:     *mailManager,
	}
}

// CreateReset issues a password reset token for the account behind the
// given email and mails it. The response is 204 regardless of whether the
// email is registered, so the endpoint cannot be used to probe accounts.
func (handler *PasswordResetHandler) CreateReset(ctx *gin.Context) {
	tx := utils.BeginTransaction(ctx, handler.DatabaseManager.GetPool())
	if tx == nil {
		return
	}
	var err error
	defer func() { utils.RollbackTransaction(ctx, tx, err) }()

	resetRequest := payload[schemas.CreateResetRequest](ctx)
	email := utils.NormalizeEmail(resetRequest.Email)

	var userId int64
	var name string
	queryString := "SELECT user_id, name FROM users WHERE email = $1"
	if err = tx.QueryRow(ctx, queryString, email).Scan(&userId, &name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Unknown addresses get the same answer as known ones; the
			// deferred rollback releases the transaction.
			ctx.Status(http.StatusNoContent)
			return
		}
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	resetToken, err := identity.NewToken()
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.InternalServerError, http.StatusInternalServerError, err)
		return
	}
	resetDigest, err := identity.Hash(resetToken)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.InternalServerError, http.StatusInternalServerError, err)
		return
	}

	// Narrow update; issuing a new token invalidates any previous one.
	queryString = "UPDATE users SET reset_digest = $1, reset_sent_at = $2 WHERE user_id = $3"
	if _, err = tx.Exec(ctx, queryString, resetDigest, time.Now(), userId); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err = handler.MailManager.SendPasswordResetMail(email, name, resetToken, userId); err != nil {
		utils.WriteAndLogError(ctx, schemas.EmailNotSent, http.StatusInternalServerError, err)
		return
	}

	if err = utils.CommitTransaction(ctx, tx); err != nil {
		return
	}

	ctx.Status(http.StatusNoContent)
}

// UpdatePassword completes a reset: the token from the mail must match
// the stored digest and be no older than the reset window. On success the
// password digest is replaced and the reset digest cleared, so the token
// cannot be replayed.
func (handler *PasswordResetHandler) UpdatePassword(ctx *gin.Context) {
	userId, err := pathUserId(ctx)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.BadRequest, http.StatusBadRequest, err)
		return
	}

	tx := utils.BeginTransaction(ctx, handler.DatabaseManager.GetPool())
	if tx == nil {
		return
	}
	defer func() { utils.RollbackTransaction(ctx, tx, err) }()

	updateRequest := payload[schemas.UpdatePasswordRequest](ctx)

	var resetDigest *string
	var resetSentAt *time.Time
	queryString := "SELECT reset_digest, reset_sent_at FROM users WHERE user_id = $1"
	if err = tx.QueryRow(ctx, queryString, userId).Scan(&resetDigest, &resetSentAt); err != nil {
		err = errors.New("user not found")
		utils.WriteAndLogError(ctx, schemas.UserNotFound, http.StatusNotFound, err)
		return
	}

	if resetDigest == nil || resetSentAt == nil || !identity.Compare(*resetDigest, updateRequest.Token) {
		err = errInvalidToken
		utils.WriteAndLogError(ctx, schemas.InvalidToken, http.StatusUnauthorized, err)
		return
	}

	if identity.ResetExpired(*resetSentAt, time.Now()) {
		err = errors.New("reset token expired")
		utils.WriteAndLogError(ctx, schemas.ResetTokenExpired, http.StatusUnauthorized, err)
		return
	}

	passwordDigest, err := identity.Hash(updateRequest.Password)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.InternalServerError, http.StatusInternalServerError, err)
		return
	}

	queryString = "UPDATE users SET password_digest = $1, reset_digest = NULL, reset_sent_at = NULL WHERE user_id = $2"
	if _, err = tx.Exec(ctx, queryString, passwordDigest, userId); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err = utils.CommitTransaction(ctx, tx); err != nil {
		return
	}

	ctx.Status(http.StatusNoContent)
}
