package main

import (
	"context"
	"log"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"authservice/internal/config"
	"authservice/internal/database"
	"authservice/internal/messaging"
	"authservice/internal/middleware"
	"authservice/internal/modules/oauth"
	"authservice/internal/modules/role"
	"authservice/internal/modules/scope"
	"authservice/internal/modules/user"
	"authservice/internal/repository"
)

func main() {
	// A missing .env file is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}

	if isPostgres(cfg.DatabaseURL) {
		if err := database.ApplyMigrations("migrations", cfg.DatabaseURL); err != nil {
			log.Fatal(err)
		}
	} else {
		if err := database.AutoMigrate(db); err != nil {
			log.Fatal(err)
		}
	}

	accountRepo := repository.NewAccountRepository(db)
	scopeRepo := repository.NewScopeRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	tokenRepo := repository.NewTokenRepository(db, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	guard := middleware.NewGuard(tokenRepo)

	oauthService := oauth.NewService(accountRepo, tokenRepo)
	userService := user.NewService(accountRepo)
	scopeService := scope.NewService(scopeRepo)
	roleService := role.NewService(roleRepo)

	r := gin.New()
	r.Use(middleware.RequestLogger(), middleware.CORS())

	oauth.NewHandler(oauthService).RegisterRoutes(r, guard)
	user.NewHandler(userService).RegisterRoutes(r, guard)
	scope.NewHandler(scopeService).RegisterRoutes(r, guard)
	role.NewHandler(roleService).RegisterRoutes(r, guard)

	if cfg.AMQPEnabled() {
		consumer := messaging.NewConsumer(cfg.AMQPUrl, cfg.AMQPExchange, oauthService)
		go consumer.Run(context.Background())
	}

	log.Printf("Listening on :%s", cfg.HTTPPort)
	if err := r.Run(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}
