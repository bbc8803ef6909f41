package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"microblog/internal/managers"
	"microblog/internal/metrics"
	"microblog/internal/schemas"
	"microblog/internal/utils"
)

type RelationshipHdl interface {
	Follow(ctx *gin.Context)
	Unfollow(ctx *gin.Context)
	GetFollowing(ctx *gin.Context)
	GetFollowers(ctx *gin.Context)
}

type RelationshipHandler struct {
	DatabaseManager managers.DatabaseMgr
}

func NewRelationshipHandler(databaseManager *managers.DatabaseMgr) RelationshipHdl {
	return &RelationshipHandler{
		DatabaseManager: *databaseManager,
	}
}

// Follow creates a follower -> followed edge from the authenticated user
// to the user named in the request body. Following yourself is rejected,
// following someone twice is a no-op.
func (handler *RelationshipHandler) Follow(ctx *gin.Context) {
	followerId, err := requestorId(ctx)
	if err != nil {
		abortUnauthorized(ctx, err)
		return
	}

	followRequest := payload[schemas.RelationshipRequest](ctx)
	followedId := followRequest.UserID

	if followedId == followerId {
		err = errors.New("self follow")
		utils.WriteAndLogError(ctx, schemas.SelfFollowNotAllowed, http.StatusConflict, err)
		return
	}

	tx := utils.BeginTransaction(ctx, handler.DatabaseManager.GetPool())
	if tx == nil {
		return
	}
	defer func() { utils.RollbackTransaction(ctx, tx, err) }()

	var exists bool
	queryString := "SELECT EXISTS(SELECT 1 FROM users WHERE user_id = $1)"
	if err = tx.QueryRow(ctx, queryString, followedId).Scan(&exists); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}
	if !exists {
		err = errors.New("followed user not found")
		utils.WriteAndLogError(ctx, schemas.UserNotFound, http.StatusNotFound, err)
		return
	}

	createdAt := time.Now()
	queryString = "INSERT INTO relationships (follower_id, followed_id, created_at) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING"
	if _, err = tx.Exec(ctx, queryString, followerId, followedId, createdAt); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err = utils.CommitTransaction(ctx, tx); err != nil {
		return
	}

	metrics.IncFollow("follow")
	relationshipDto := &schemas.RelationshipDTO{
		FollowerId:   followerId,
		FollowedId:   followedId,
		CreationDate: createdAt.Format(time.RFC3339),
	}
	utils.WriteAndLogResponse(ctx, relationshipDto, http.StatusCreated)
}

// Unfollow removes the edge from the authenticated user to the user in
// the path. Removing an edge that does not exist is a 404.
func (handler *RelationshipHandler) Unfollow(ctx *gin.Context) {
	followerId, err := requestorId(ctx)
	if err != nil {
		abortUnauthorized(ctx, err)
		return
	}

	followedId, err := pathUserId(ctx)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.BadRequest, http.StatusBadRequest, err)
		return
	}

	queryString := "DELETE FROM relationships WHERE follower_id = $1 AND followed_id = $2"
	result, err := handler.DatabaseManager.GetPool().Exec(ctx, queryString, followerId, followedId)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if result.RowsAffected() == 0 {
		err = errors.New("relationship not found")
		utils.WriteAndLogError(ctx, schemas.RelationshipNotFound, http.StatusNotFound, err)
		return
	}

	metrics.IncFollow("unfollow")
	ctx.Status(http.StatusNoContent)
}

// GetFollowing lists the users the given user follows.
func (handler *RelationshipHandler) GetFollowing(ctx *gin.Context) {
	handler.listRelated(ctx, "followed")
}

// GetFollowers lists the users following the given user.
func (handler *RelationshipHandler) GetFollowers(ctx *gin.Context) {
	handler.listRelated(ctx, "follower")
}

// listRelated pages through one side of the edge set for a user.
func (handler *RelationshipHandler) listRelated(ctx *gin.Context, side string) {
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
		err := errors.New("user not found")
		utils.WriteAndLogError(ctx, schemas.UserNotFound, http.StatusNotFound, err)
		return
	}

	joinColumn, whereColumn := "followed_id", "follower_id"
	if side == "follower" {
		joinColumn, whereColumn = "follower_id", "followed_id"
	}

	var totalRecords int
	queryString = "SELECT COUNT(*) FROM relationships WHERE " + whereColumn + " = $1"
	if err := pool.QueryRow(ctx, queryString, userId).Scan(&totalRecords); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	queryString = "SELECT u.user_id, u.name FROM relationships r JOIN users u ON r." + joinColumn +
		" = u.user_id WHERE r." + whereColumn + " = $1 ORDER BY r.created_at DESC OFFSET $2 LIMIT $3"
	rows, err := pool.Query(ctx, queryString, userId, offset, limit)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}
	defer rows.Close()

	related := make([]schemas.AuthorDTO, 0)
	for rows.Next() {
		user := schemas.AuthorDTO{}
		if err := rows.Scan(&user.UserId, &user.Name); err != nil {
			utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
			return
		}
		related = append(related, user)
	}
	if err := rows.Err(); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	utils.SendPaginatedResponse(ctx, related, offset, limit, totalRecords)
}
