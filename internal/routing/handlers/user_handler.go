package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"microblog/internal/identity"
	"microblog/internal/managers"
	"microblog/internal/metrics"
	"microblog/internal/schemas"
	"microblog/internal/utils"
)

type UserHdl interface {
	RegisterUser(ctx *gin.Context)
	ActivateUser(ctx *gin.Context)
	ResendActivation(ctx *gin.Context)
	ChangePassword(ctx *gin.Context)
	GetUser(ctx *gin.Context)
	DeleteUser(ctx *gin.Context)
	RetrieveUserMicroposts(ctx *gin.Context)
}

type UserHandler struct {
	DatabaseManager managers.DatabaseMgr
	JWTManager      managers.JWTMgr
	MailManager     managers.MailMgr
	Validator       *utils.Validator
}

func NewUserHandler(databaseManager *managers.DatabaseMgr, jwtManager *managers.JWTMgr, mailManager *managers.MailMgr) UserHdl {
	return &UserHandler{
		DatabaseManager: *databaseManager,
		JWTManager:      *jwtManager,
		MailManager:     *mailManager,
		Validator:       utils.GetValidator(),
	}
}

// RegisterUser registers a new user and sends an activation token to the
// user's email. The activation digest is written in the same transaction
// as the user row, so a user always has one from the start.
func (handler *UserHandler) RegisterUser(ctx *gin.Context) {
	tx := utils.BeginTransaction(ctx, handler.DatabaseManager.GetPool())
	if tx == nil {
		return
	}
	var err error
	defer func() { utils.RollbackTransaction(ctx, tx, err) }()

	registrationRequest := payload[schemas.RegistrationRequest](ctx)
	email := utils.NormalizeEmail(registrationRequest.Email)

	// Email uniqueness is case-insensitive; addresses are stored
	// lower-cased, so plain equality is enough here.
	var taken bool
	queryString := "SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)"
	if err = tx.QueryRow(ctx, queryString, email).Scan(&taken); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}
	if taken {
		err = errors.New("email taken")
		metrics.IncSignup("conflict")
		utils.WriteAndLogError(ctx, schemas.EmailTaken, http.StatusConflict, err)
		return
	}

	if !handler.Validator.VerifyEmail(email) {
		err = errors.New("email unreachable")
		metrics.IncSignup("rejected")
		utils.WriteAndLogError(ctx, schemas.EmailUnreachable, http.StatusBadRequest, err)
		return
	}

	passwordDigest, err := identity.Hash(registrationRequest.Password)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.InternalServerError, http.StatusInternalServerError, err)
		return
	}

	activationToken, err := identity.NewToken()
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.InternalServerError, http.StatusInternalServerError, err)
		return
	}
	activationDigest, err := identity.Hash(activationToken)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.InternalServerError, http.StatusInternalServerError, err)
		return
	}

	var userId int64
	queryString = "INSERT INTO users (name, email, password_digest, activation_digest, created_at) VALUES ($1, $2, $3, $4, $5) RETURNING user_id"
	if err = tx.QueryRow(ctx, queryString, registrationRequest.Name, email, passwordDigest, activationDigest, time.Now()).Scan(&userId); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err = handler.MailManager.SendActivationMail(email, registrationRequest.Name, activationToken, userId); err != nil {
		utils.WriteAndLogError(ctx, schemas.EmailNotSent, http.StatusInternalServerError, err)
		return
	}

	if err = utils.CommitTransaction(ctx, tx); err != nil {
		return
	}

	metrics.IncSignup("created")
	userDto := &schemas.UserDTO{
		UserId: userId,
		Name:   registrationRequest.Name,
		Email:  email,
	}
	utils.WriteAndLogResponse(ctx, userDto, http.StatusCreated)
}

// ActivateUser verifies the activation token from the mail against the
// stored digest and marks the account activated. The activation itself is
// idempotent; hitting an already active account reports 208.
func (handler *UserHandler) ActivateUser(ctx *gin.Context) {
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

	activationRequest := payload[schemas.ActivationRequest](ctx)

	var name, email string
	var activated bool
	var activationDigest *string
	queryString := "SELECT name, email, activated, activation_digest FROM users WHERE user_id = $1"
	if err = tx.QueryRow(ctx, queryString, userId).Scan(&name, &email, &activated, &activationDigest); err != nil {
		err = errors.New("user not found")
		utils.WriteAndLogError(ctx, schemas.UserNotFound, http.StatusNotFound, err)
		return
	}

	if activated {
		err = errors.New("already activated")
		utils.WriteAndLogError(ctx, schemas.UserAlreadyActivated, http.StatusAlreadyReported, err)
		return
	}

	if activationDigest == nil || !identity.Compare(*activationDigest, activationRequest.Token) {
		err = errInvalidToken
		utils.WriteAndLogError(ctx, schemas.InvalidToken, http.StatusUnauthorized, err)
		return
	}

	// Narrow update, bypassing full-record validation on purpose.
	queryString = "UPDATE users SET activated = TRUE, activated_at = $1 WHERE user_id = $2"
	if _, err = tx.Exec(ctx, queryString, time.Now(), userId); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err = handler.MailManager.SendConfirmationMail(email, name); err != nil {
		utils.WriteAndLogError(ctx, schemas.EmailNotSent, http.StatusInternalServerError, err)
		return
	}

	tokenPair, err := handler.JWTManager.GenerateTokenPair(userId)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.InternalServerError, http.StatusInternalServerError, err)
		return
	}

	if err = utils.CommitTransaction(ctx, tx); err != nil {
		return
	}

	utils.WriteAndLogResponse(ctx, tokenPair, http.StatusOK)
}

// ResendActivation rotates the activation token for a not yet activated
// account and mails the new one.
func (handler *UserHandler) ResendActivation(ctx *gin.Context) {
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

	var name, email string
	var activated bool
	queryString := "SELECT name, email, activated FROM users WHERE user_id = $1"
	if err = tx.QueryRow(ctx, queryString, userId).Scan(&name, &email, &activated); err != nil {
		err = errors.New("user not found")
		utils.WriteAndLogError(ctx, schemas.UserNotFound, http.StatusNotFound, err)
		return
	}

	if activated {
		err = errors.New("already activated")
		utils.WriteAndLogError(ctx, schemas.UserAlreadyActivated, http.StatusAlreadyReported, err)
		return
	}

	activationToken, err := identity.NewToken()
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.InternalServerError, http.StatusInternalServerError, err)
		return
	}
	activationDigest, err := identity.Hash(activationToken)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.InternalServerError, http.StatusInternalServerError, err)
		return
	}

	queryString = "UPDATE users SET activation_digest = $1 WHERE user_id = $2"
	if _, err = tx.Exec(ctx, queryString, activationDigest, userId); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err = handler.MailManager.SendActivationMail(email, name, activationToken, userId); err != nil {
		utils.WriteAndLogError(ctx, schemas.EmailNotSent, http.StatusInternalServerError, err)
		return
	}

	if err = utils.CommitTransaction(ctx, tx); err != nil {
		return
	}

	ctx.Status(http.StatusNoContent)
}

// ChangePassword changes the password of the authenticated user after
// checking the old one.
func (handler *UserHandler) ChangePassword(ctx *gin.Context) {
	userId, err := requestorId(ctx)
	if err != nil {
		abortUnauthorized(ctx, err)
		return
	}

	tx := utils.BeginTransaction(ctx, handler.DatabaseManager.GetPool())
	if tx == nil {
		return
	}
	defer func() { utils.RollbackTransaction(ctx, tx, err) }()

	changeRequest := payload[schemas.ChangePasswordRequest](ctx)

	var passwordDigest string
	queryString := "SELECT password_digest FROM users WHERE user_id = $1"
	if err = tx.QueryRow(ctx, queryString, userId).Scan(&passwordDigest); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if !identity.Compare(passwordDigest, changeRequest.OldPassword) {
		err = errors.New("old password mismatch")
		utils.WriteAndLogError(ctx, schemas.InvalidCredentials, http.StatusForbidden, err)
		return
	}

	newDigest, err := identity.Hash(changeRequest.NewPassword)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.InternalServerError, http.StatusInternalServerError, err)
		return
	}

	queryString = "UPDATE users SET password_digest = $1 WHERE user_id = $2"
	if _, err = tx.Exec(ctx, queryString, newDigest, userId); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err = utils.CommitTransaction(ctx, tx); err != nil {
		return
	}

	ctx.Status(http.StatusNoContent)
}

// GetUser returns the profile of the user specified in the path, together
// with its follower, following and micropost counts.
func (handler *UserHandler) GetUser(ctx *gin.Context) {
	userId, err := pathUserId(ctx)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.BadRequest, http.StatusBadRequest, err)
		return
	}

	callerId, err := requestorId(ctx)
	if err != nil {
		abortUnauthorized(ctx, err)
		return
	}

	pool := handler.DatabaseManager.GetPool()
	profile := schemas.UserProfileDTO{}

	queryString := "SELECT user_id, name FROM users WHERE user_id = $1"
	if err := pool.QueryRow(ctx, queryString, userId).Scan(&profile.UserId, &profile.Name); err != nil {
		utils.WriteAndLogError(ctx, schemas.UserNotFound, http.StatusNotFound, err)
		return
	}

	queryString = "SELECT COUNT(*) FROM microposts WHERE user_id = $1"
	if err := pool.QueryRow(ctx, queryString, userId).Scan(&profile.Microposts); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	queryString = "SELECT COUNT(*) FROM relationships WHERE followed_id = $1"
	if err := pool.QueryRow(ctx, queryString, userId).Scan(&profile.Followers); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	queryString = "SELECT COUNT(*) FROM relationships WHERE follower_id = $1"
	if err := pool.QueryRow(ctx, queryString, userId).Scan(&profile.Following); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	queryString = "SELECT EXISTS(SELECT 1 FROM relationships WHERE follower_id = $1 AND followed_id = $2)"
	if err := pool.QueryRow(ctx, queryString, callerId, userId).Scan(&profile.FollowedByCaller); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	utils.WriteAndLogResponse(ctx, profile, http.StatusOK)
}

// DeleteUser deletes the authenticated user's own account. Microposts and
// follow edges go with it in the same transaction.
func (handler *UserHandler) DeleteUser(ctx *gin.Context) {
	userId, err := pathUserId(ctx)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.BadRequest, http.StatusBadRequest, err)
		return
	}

	callerId, err := requestorId(ctx)
	if err != nil {
		abortUnauthorized(ctx, err)
		return
	}

	if callerId != userId {
		err = errors.New("cannot delete other accounts")
		utils.WriteAndLogError(ctx, schemas.Forbidden, http.StatusForbidden, err)
		return
	}

	tx := utils.BeginTransaction(ctx, handler.DatabaseManager.GetPool())
	if tx == nil {
		return
	}
	defer func() { utils.RollbackTransaction(ctx, tx, err) }()

	queryString := "DELETE FROM microposts WHERE user_id = $1"
	if _, err = tx.Exec(ctx, queryString, userId); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	queryString = "DELETE FROM relationships WHERE follower_id = $1 OR followed_id = $1"
	if _, err = tx.Exec(ctx, queryString, userId); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	queryString = "DELETE FROM users WHERE user_id = $1"
	commandTag, err := tx.Exec(ctx, queryString, userId)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}
	if commandTag.RowsAffected() == 0 {
		err = errors.New("user not found")
		utils.WriteAndLogError(ctx, schemas.UserNotFound, http.StatusNotFound, err)
		return
	}

	if err = utils.CommitTransaction(ctx, tx); err != nil {
		return
	}

	ctx.Status(http.StatusNoContent)
}

// RetrieveUserMicroposts returns the microposts of the user specified in
// the path, newest first.
func (handler *UserHandler) RetrieveUserMicroposts(ctx *gin.Context) {
	userId, err := pathUserId(ctx)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.BadRequest, http.StatusBadRequest, err)
		return
	}

	offset, limit := utils.ParsePaginationParams(ctx)
	pool := handler.DatabaseManager.GetPool()

	var exists bool
	queryString := "SELECT EXISTS(SELECT 1 FROM users WHERE user_id = $1)"
	if err := pool.QueryRow(ctx, queryString, userId).Scan(&exists); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}
	if !exists {
		utils.WriteAndLogError(ctx, schemas.UserNotFound, http.StatusNotFound, errors.New("user not found"))
		return
	}

	var totalRecords int
	queryString = "SELECT COUNT(*) FROM microposts WHERE user_id = $1"
	if err := pool.QueryRow(ctx, queryString, userId).Scan(&totalRecords); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	queryString = `SELECT m.micropost_id, m.content, m.created_at, u.user_id, u.name
		FROM microposts m JOIN users u ON m.user_id = u.user_id
		WHERE m.user_id = $1 ORDER BY m.created_at DESC, m.micropost_id DESC OFFSET $2 LIMIT $3`
	rows, err := pool.Query(ctx, queryString, userId, offset, limit)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}
	defer rows.Close()

	posts, err := scanMicroposts(rows)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	utils.SendPaginatedResponse(ctx, posts, offset, limit, totalRecords)
}
