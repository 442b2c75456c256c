package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"authservice/internal/config"
	"authservice/internal/database"
)

func main() {
	var (
		command       = flag.String("command", "up", "Migration command: up, down, version, force")
		steps         = flag.Int("steps", 0, "Number of migration steps for down (0 rolls everything back)")
		version       = flag.Int("version", 0, "Target version for force")
		migrationsDir = flag.String("dir", "migrations", "Directory holding the migration files")
	)
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	if !strings.HasPrefix(cfg.DatabaseURL, "postgres") {
		log.Fatal("Migrations only work with PostgreSQL, SQLite deployments use cmd/seed instead")
	}

	switch *command {
	case "up":
		if err := database.ApplyMigrations(*migrationsDir, cfg.DatabaseURL); err != nil {
			log.Fatalf("Migration up failed: %v", err)
		}
		fmt.Println("Migrations applied successfully")
	case "down":
		if err := database.RollbackMigrations(*migrationsDir, cfg.DatabaseURL, *steps); err != nil {
			log.Fatalf("Migration down failed: %v", err)
		}
		fmt.Println("Migrations rolled back successfully")
	case "version":
		v, dirty, err := database.MigrationVersion(*migrationsDir, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to get version: %v", err)
		}
		if dirty {
			fmt.Printf("Database is in a dirty state (version %d)\n", v)
			os.Exit(1)
		}
		fmt.Printf("Current migration version: %d\n", v)
	case "force":
		if *version == 0 {
			log.Fatal("Version required for force command (use -version flag)")
		}
		if err := database.ForceMigrationVersion(*migrationsDir, cfg.DatabaseURL, *version); err != nil {
			log.Fatalf("Force migration failed: %v", err)
		}
		fmt.Printf("Forced database to version %d\n", *version)
	default:
		log.Fatalf("Unknown command: %s (supported: up, down, version, force)", *command)
	}
}
