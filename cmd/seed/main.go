package main

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"authservice/internal/config"
	"authservice/internal/database"
	"authservice/internal/domain"
	"authservice/internal/pkg/password"
	"authservice/internal/repository"
)

// Prepares a fresh deployment: migrates the schema, registers the two
// built-in scopes and, when the account table is empty, creates a root
// account holding both. Safe to run repeatedly.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("DB connection failed: ", err)
	}

	log.Println("Running AutoMigrate...")
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal("AutoMigrate failed: ", err)
	}

	ctx := context.Background()
	scopeRepo := repository.NewScopeRepository(db)
	accountRepo := repository.NewAccountRepository(db)

	seedScope(ctx, scopeRepo, domain.Scope{
		Name:        "Administrator",
		Description: "Grants full access to the service, including account, scope and role management",
		Value:       "admin",
	})
	seedScope(ctx, scopeRepo, domain.Scope{
		Name:        "Account details",
		Description: "Grants reading the own account data and changing the own password",
		Value:       "me",
	})

	accounts, err := accountRepo.List(ctx)
	if err != nil {
		log.Fatal(err)
	}
	if len(accounts) > 0 {
		if !hasActiveAdmin(accounts) {
			log.Println("Warning: no active account holds the admin scope, the service cannot be managed")
		}
		log.Println("Accounts already exist, skipping root account creation")
		return
	}

	rootPassword := cfg.RootPassword
	generated := false
	if rootPassword == "" {
		rootPassword = uuid.NewString()
		generated = true
	}
	hash, err := password.Hash(rootPassword)
	if err != nil {
		log.Fatal(err)
	}

	root := &domain.Account{
		FirstName: "Administrator",
		LastName:  "Administrator",
		Username:  cfg.RootUsername,
		Password:  hash,
		Active:    true,
	}
	if err := accountRepo.Create(ctx, root, []string{"admin", "me"}, nil); err != nil {
		log.Fatal("creating root account: ", err)
	}

	log.Printf("Created root account %q holding the admin and me scopes", cfg.RootUsername)
	if generated {
		log.Printf("Generated root password: %s", rootPassword)
		log.Println("Save these credentials now, they are shown only this once")
	}
}

func seedScope(ctx context.Context, repo *repository.ScopeRepository, scope domain.Scope) {
	existing, err := repo.GetByValue(ctx, scope.Value)
	if err != nil {
		log.Fatal(err)
	}
	if existing != nil {
		return
	}
	if err := repo.Create(ctx, &scope); err != nil {
		log.Fatalf("creating scope %q: %v", scope.Value, err)
	}
	log.Printf("Created the %q scope", scope.Value)
}

func hasActiveAdmin(accounts []domain.Account) bool {
	for i := range accounts {
		if !accounts[i].Active {
			continue
		}
		for _, value := range accounts[i].EffectiveScopeValues() {
			if value == "admin" {
				return true
			}
		}
	}
	return false
}
