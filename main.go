package main

import (
	"context"
	"net/http"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/movingsummer/web06-CodeClash/auth"
	"github.com/movingsummer/web06-CodeClash/crypto"
	"github.com/movingsummer/web06-CodeClash/game"
	"github.com/movingsummer/web06-CodeClash/logger"
	"github.com/movingsummer/web06-CodeClash/migrations"
	"github.com/movingsummer/web06-CodeClash/storage"
)

func CreateServer(allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(ctx *gin.Context) { ctx.String(200, "healthy") })

	r.Use(func(ctx *gin.Context) {
		origin := ctx.Request.Header.Get("Origin")

		if origin == "" || slices.Contains(allowedOrigins, origin) {
			ctx.Next()
			return
		}
		ctx.String(http.StatusForbidden, "forbidden origin")
		ctx.Abort()
	})

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Authorization",
			"Upgrade",
			"Connection",
			"Sec-WebSocket-Key",
			"Sec-WebSocket-Version",
			"Sec-WebSocket-Extensions",
			"Sec-WebSocket-Protocol",
		},
	}))

	return r
}

func main() {
	logger.Setup(os.Getenv("DEBUG") == "true")

	// ENVs
	ALLOWED_ORIGINS, exists := os.LookupEnv("ALLOWED_ORIGINS")
	if !exists {
		log.Fatal().Msg("missing ALLOWED_ORIGINS")
	}
	allowedOrigins := strings.Split(ALLOWED_ORIGINS, ",")

	POSTGRES_URL, exists := os.LookupEnv("POSTGRES_URL")
	if !exists {
		log.Fatal().Msg("missing POSTGRES_URL")
	}

	JWT_KEY, exists := os.LookupEnv("JWT_KEY")
	if !exists {
		log.Fatal().Msg("missing JWT_KEY")
	}

	port, exists := os.LookupEnv("PORT")
	if !exists {
		port = "5000"
	}

	if err := migrations.Migrate(POSTGRES_URL); err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}

	// Dependencies
	pgRepo, err := storage.NewPostgresRepo(context.Background(), POSTGRES_URL)
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection failed")
	}
	defer pgRepo.Close()

	tokenAge := time.Hour * 24 * 7 // 7 days
	passwordHasher := crypto.NewArgon2idHasher(3, 1024*64, 32, 16, 1)
	tokenManager := crypto.NewJWTManager(JWT_KEY, tokenAge)

	authService := auth.NewService(pgRepo, passwordHasher, tokenManager)
	authHandler := auth.NewAuthHandler(authService, tokenAge)

	r := CreateServer(allowedOrigins)

	{
		authGroup := r.Group("/auth")
		authGroup.POST("/signup", authHandler.SignupHandler)
		authGroup.POST("/login", authHandler.LoginHandler)
		authGroup.POST("/logout", authHandler.LogoutHandler)
		authGroup.GET("/refresh", authHandler.RefreshSessionHandler)
	}

	hub := game.NewHub(pgRepo)
	hubStarted := make(chan struct{})
	go hub.Run(context.Background(), hubStarted)
	<-hubStarted

	gameHandler := game.NewGameHandler(hub)
	{
		gameGroup := r.Group("/game")
		gameGroup.Use(authHandler.RequireAuthMiddleware(time.Second * 2))

		gameGroup.GET("/ws", gameHandler.ConnectHandler)
		gameGroup.GET("/rooms", gameHandler.RoomsHandler)
	}

	log.Info().Str("port", port).Msg("server listening")
	if err := r.Run(":" + port); err != nil {
		log.Fatal().Err(err).Msg("couldn't start server")
	}
}
