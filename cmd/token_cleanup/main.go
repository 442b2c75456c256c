package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"

	"authservice/internal/config"
	"authservice/internal/database"
	"authservice/internal/repository"
)

// Purges expired access and refresh tokens together with their scope
// snapshots. Expired tokens are already unusable, so this only reclaims
// storage; run it from cron as often as the deployment needs.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}

	tokenRepo := repository.NewTokenRepository(db, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	removed, err := tokenRepo.DeleteExpired(context.Background(), time.Now())
	if err != nil {
		log.Fatalf("token cleanup failed: %v", err)
	}

	log.Printf("token cleanup completed: removed=%d", removed)
}
