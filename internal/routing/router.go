// Package routing wires the gin engine: common middleware, the service
// endpoints and the /api route groups.
package routing

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"microblog/internal/managers"
	"microblog/internal/middleware"
	"microblog/internal/routing/handlers"
	"microblog/internal/schemas"
	"microblog/internal/utils"
)

// loginRateLimit caps login attempts per client ip and window.
const (
	loginRateLimit  = 10
	loginRateWindow = time.Minute
)

func InitRouter(databaseMgr managers.DatabaseMgr, mailMgr managers.MailMgr, jwtMgr managers.JWTMgr, redisClient *redis.Client) *gin.Engine {
	router := gin.New()
	setupCommonMiddleware(router)
	setupRoutes(router, databaseMgr, mailMgr, jwtMgr, redisClient)

	return router
}

func setupCommonMiddleware(router *gin.Engine) {
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.InjectTrace())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"http://localhost:5173", "http://localhost:3000"},
		AllowMethods:  []string{"GET", "PATCH", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Accept, Authorization", "Content-Type"},
		ExposeHeaders: []string{"Content-Length", "Content-Type", "X-Correlation-ID"},
		MaxAge:        12 * time.Hour,
	}))
	router.Use(middleware.SanitizePath())
	router.Use(middleware.LogRequest())
}

func setupRoutes(router *gin.Engine, databaseMgr managers.DatabaseMgr, mailMgr managers.MailMgr, jwtMgr managers.JWTMgr, redisClient *redis.Client) {
	// Set up version route
	router.GET("/", func(c *gin.Context) {
		apiVersion := os.Getenv("API_VERSION")
		if apiVersion == "" {
			apiVersion = "main:latest"
		}
		metadata := &schemas.MetadataDTO{
			ApiVersion: apiVersion,
			ApiName:    "Microblog",
		}
		utils.WriteAndLogResponse(c, metadata, http.StatusOK)
	})

	// Set up health route
	router.GET("/health", func(c *gin.Context) {
		if err := databaseMgr.GetPool().Ping(c); err != nil {
			c.String(http.StatusInternalServerError, "Database not responding")
			return
		}
		c.Status(http.StatusOK)
	})

	// Set up metrics route
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Set up API routes
	apiRouter := router.Group("/api")
	{
		userRouter := apiRouter.Group("/users")
		userHdl := handlers.NewUserHandler(&databaseMgr, &jwtMgr, &mailMgr)
		sessionHdl := handlers.NewSessionHandler(&databaseMgr, &jwtMgr)
		relationshipHdl := handlers.NewRelationshipHandler(&databaseMgr)
		userRoutes(userRouter, userHdl, sessionHdl, relationshipHdl, jwtMgr, redisClient)

		micropostRouter := apiRouter.Group("/microposts")
		micropostHdl := handlers.NewMicropostHandler(&databaseMgr)
		apiRouter.GET("/feed", jwtMgr.JWTMiddleware(), micropostHdl.GetFeed)
		micropostRoutes(micropostRouter, micropostHdl, jwtMgr)

		relationshipRouter := apiRouter.Group("/relationships")
		relationshipRouter.Use(jwtMgr.JWTMiddleware())
		relationshipRoutes(relationshipRouter, relationshipHdl)

		resetRouter := apiRouter.Group("/password-resets")
		resetHdl := handlers.NewPasswordResetHandler(&databaseMgr, &mailMgr)
		passwordResetRoutes(resetRouter, resetHdl)
	}
}

func userRoutes(userRouter *gin.RouterGroup, userHdl handlers.UserHdl, sessionHdl handlers.SessionHdl,
	relationshipHdl handlers.RelationshipHdl, jwtMgr managers.JWTMgr, redisClient *redis.Client) {
	loginLimiter := middleware.LoginRateLimiter(redisClient, loginRateLimit, loginRateWindow)

	userRouter.POST("", middleware.ValidateAndSanitizeStruct(func() interface{} { return &schemas.RegistrationRequest{} }), userHdl.RegisterUser)
	userRouter.POST("/login", loginLimiter, middleware.ValidateAndSanitizeStruct(func() interface{} { return &schemas.LoginRequest{} }), sessionHdl.Login)
	userRouter.POST("/login/remember", loginLimiter, sessionHdl.RememberLogin)
	userRouter.POST("/refresh", middleware.ValidateAndSanitizeStruct(func() interface{} { return &schemas.RefreshTokenRequest{} }), sessionHdl.RefreshToken)
	userRouter.POST("/:userId/activate", middleware.ValidateAndSanitizeStruct(func() interface{} { return &schemas.ActivationRequest{} }), userHdl.ActivateUser)
	userRouter.DELETE("/:userId/activate", userHdl.ResendActivation)
	userRouter.GET("/:userId/microposts", userHdl.RetrieveUserMicroposts)
	userRouter.GET("/:userId/following", relationshipHdl.GetFollowing)
	userRouter.GET("/:userId/followers", relationshipHdl.GetFollowers)
	// The following routes require the user to be authenticated
	userRouter.Use(jwtMgr.JWTMiddleware())
	userRouter.GET("/:userId", userHdl.GetUser)
	userRouter.DELETE("/:userId", userHdl.DeleteUser)
	userRouter.DELETE("/logout", sessionHdl.Logout)
	userRouter.PATCH("", middleware.ValidateAndSanitizeStruct(func() interface{} { return &schemas.ChangePasswordRequest{} }), userHdl.ChangePassword)
}

func micropostRoutes(micropostRouter *gin.RouterGroup, micropostHdl handlers.MicropostHdl, jwtMgr managers.JWTMgr) {
	micropostRouter.Use(jwtMgr.JWTMiddleware())
	micropostRouter.POST("", middleware.ValidateAndSanitizeStruct(func() interface{} { return &schemas.CreateMicropostRequest{} }), micropostHdl.CreateMicropost)
	micropostRouter.DELETE("/:micropostId", micropostHdl.DeleteMicropost)
}

func relationshipRoutes(relationshipRouter *gin.RouterGroup, relationshipHdl handlers.RelationshipHdl) {
	relationshipRouter.POST("", middleware.ValidateAndSanitizeStruct(func() interface{} { return &schemas.RelationshipRequest{} }), relationshipHdl.Follow)
	relationshipRouter.DELETE("/:userId", relationshipHdl.Unfollow)
}

func passwordResetRoutes(resetRouter *gin.RouterGroup, resetHdl handlers.PasswordResetHdl) {
	resetRouter.POST("", middleware.ValidateAndSanitizeStruct(func() interface{} { return &schemas.CreateResetRequest{} }), resetHdl.CreateReset)
	resetRouter.PATCH("/:userId", middleware.ValidateAndSanitizeStruct(func() interface{} { return &schemas.UpdatePasswordRequest{} }), resetHdl.UpdatePassword)
}
