package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"microblog/internal/managers"
	"microblog/internal/schemas"
	"microblog/internal/utils"
)

type MicropostHdl interface {
	CreateMicropost(ctx *gin.Context)
	DeleteMicropost(ctx *gin.Context)
	GetFeed(ctx *gin.Context)
}

type MicropostHandler struct {
	DatabaseManager managers.DatabaseMgr
}

func NewMicropostHandler(databaseManager *managers.DatabaseMgr) MicropostHdl {
	return &MicropostHandler{
		DatabaseManager: *databaseManager,
	}
}

// CreateMicropost creates a new micropost owned by the authenticated user.
func (handler *MicropostHandler) CreateMicropost(ctx *gin.Context) {
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

	createRequest := payload[schemas.CreateMicropostRequest](ctx)
	createdAt := time.Now()

	var micropostId int64
	queryString := "INSERT INTO microposts (user_id, content, created_at) VALUES ($1, $2, $3) RETURNING micropost_id"
	if err = tx.QueryRow(ctx, queryString, userId, createRequest.Content, createdAt).Scan(&micropostId); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	var name string
	queryString = "SELECT name FROM users WHERE user_id = $1"
	if err = tx.QueryRow(ctx, queryString, userId).Scan(&name); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err = utils.CommitTransaction(ctx, tx); err != nil {
		return
	}

	postDto := &schemas.MicropostDTO{
		MicropostId:  micropostId,
		Author:       schemas.AuthorDTO{UserId: userId, Name: name},
		Content:      createRequest.Content,
		CreationDate: createdAt.Format(time.RFC3339),
	}
	utils.WriteAndLogResponse(ctx, postDto, http.StatusCreated)
}

// DeleteMicropost deletes a micropost. Only the owner may do so.
func (handler *MicropostHandler) DeleteMicropost(ctx *gin.Context) {
	micropostId, err := strconv.ParseInt(ctx.Param(utils.MicropostIdKey), 10, 64)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.BadRequest, http.StatusBadRequest, err)
		return
	}

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

	var ownerId int64
	queryString := "SELECT user_id FROM microposts WHERE micropost_id = $1"
	if err = tx.QueryRow(ctx, queryString, micropostId).Scan(&ownerId); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.WriteAndLogError(ctx, schemas.MicropostNotFound, http.StatusNotFound, err)
			return
		}
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if ownerId != userId {
		err = errors.New("not the owner")
		utils.WriteAndLogError(ctx, schemas.Forbidden, http.StatusForbidden, err)
		return
	}

	queryString = "DELETE FROM microposts WHERE micropost_id = $1"
	if _, err = tx.Exec(ctx, queryString, micropostId); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err = utils.CommitTransaction(ctx, tx); err != nil {
		return
	}

	ctx.Status(http.StatusNoContent)
}

// GetFeed returns the microposts of the authenticated user and everyone
// they currently follow, newest first. The feed is derived from the edge
// set at query time; unfollowing removes that author's whole history from
// the next reload.
func (handler *MicropostHandler) GetFeed(ctx *gin.Context) {
	userId, err := requestorId(ctx)
	if err != nil {
		abortUnauthorized(ctx, err)
		return
	}

	offset, limit := utils.ParsePaginationParams(ctx)
	pool := handler.DatabaseManager.GetPool()

	var totalRecords int
	queryString := `SELECT COUNT(*) FROM microposts
		WHERE user_id = $1 OR user_id IN (SELECT followed_id FROM relationships WHERE follower_id = $1)`
	if err := pool.QueryRow(ctx, queryString, userId).Scan(&totalRecords); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	queryString = `SELECT m.micropost_id, m.content, m.created_at, u.user_id, u.name
		FROM microposts m JOIN users u ON m.user_id = u.user_id
		WHERE m.user_id = $1 OR m.user_id IN (SELECT followed_id FROM relationships WHERE follower_id = $1)
		ORDER BY m.created_at DESC, m.micropost_id DESC OFFSET $2 LIMIT $3`
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

// scanMicroposts converts result rows into micropost DTOs.
func scanMicroposts(rows pgx.Rows) ([]schemas.MicropostDTO, error) {
	posts := make([]schemas.MicropostDTO, 0)

	for rows.Next() {
		post := schemas.MicropostDTO{}
		var createdAt time.Time
		if err := rows.Scan(&post.MicropostId, &post.Content, &createdAt, &post.Author.UserId, &post.Author.Name); err != nil {
			return nil, err
		}
		post.CreationDate = createdAt.Format(time.RFC3339)
		posts = append(posts, post)
	}

	return posts, rows.Err()
}
