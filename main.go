package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/arjundev/vidtubebackend/auth"
	"github.com/arjundev/vidtubebackend/config"
	"github.com/arjundev/vidtubebackend/controllers"
	"github.com/arjundev/vidtubebackend/database"
	"github.com/arjundev/vidtubebackend/media"
	"github.com/arjundev/vidtubebackend/middleware"
	"github.com/arjundev/vidtubebackend/service"
	"github.com/arjundev/vidtubebackend/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}
	cfg := config.Load()

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg.Mongo)
	if err != nil {
		log.Fatal(err)
	}

	users := store.NewMongoUserStore(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		log.Fatal("create indexes: ", err)
	}

	mediaStore, err := media.New(ctx, cfg.Media)
	if err != nil {
		log.Fatal("media store: ", err)
	}

	hasher := auth.NewHasher(cfg.Bcrypt.Cost)
	tokens := auth.NewTokenService(cfg.JWT)
	svc := service.New(users, hasher, tokens, mediaStore, nil)

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	allowedOrigins := map[string]bool{}
	for _, origin := range cfg.CORS.AllowedOrigins {
		allowedOrigins[origin] = true
	}
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return allowedOrigins[origin]
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.MaxMultipartMemory = int64(cfg.Media.MaxUploadSizeMB) << 20

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	r.POST("/users/register", controllers.Register(svc))
	r.POST("/users/login", controllers.Login(svc, *cfg))
	r.POST("/users/refresh-token", controllers.Refresh(svc, *cfg))

	authed := r.Group("/users")
	authed.Use(middleware.Auth(tokens))
	{
		authed.POST("/logout", controllers.Logout(svc, *cfg))
		authed.GET("/me", controllers.CurrentUser(svc))
		authed.PATCH("/me", controllers.UpdateProfile(svc))
		authed.POST("/change-password", controllers.ChangePassword(svc))
		authed.PATCH("/me/avatar", controllers.UpdateAvatar(svc))
		authed.PATCH("/me/cover-image", controllers.UpdateCoverImage(svc))
		authed.GET("/channel/:username", controllers.ChannelProfile(svc))
		authed.GET("/history", controllers.WatchHistory(svc))
		authed.POST("/history/:videoId", controllers.RecordWatch(svc))
	}

	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatal(err)
	}
}
