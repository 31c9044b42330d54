// cmd/seed/main.go provisions an admin account. Admins are never created
// through the HTTP surface; run this once per operator.
//
//	go run ./cmd/seed -username admin -password 'changeme' -role superadmin
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/google/uuid"
	_ "github.com/joho/godotenv/autoload"
	"github.com/starforge-games/liveops/internal/auth"
	"github.com/starforge-games/liveops/internal/models"
	"github.com/starforge-games/liveops/internal/state/postgres"
)

func main() {
	username := flag.String("username", "", "admin username")
	password := flag.String("password", "", "admin password")
	role := flag.String("role", "admin", "admin role")
	flag.Parse()

	if *username == "" || *password == "" {
		log.Fatal("both -username and -password are required")
	}

	ctx := context.Background()
	store, err := postgres.Connect(ctx)
	if err != nil {
		log.Fatalf("database connect: %v", err)
	}
	defer store.Close()
	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}

	hash, err := auth.HashPassword(*password, nil)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	admin := &models.AdminAccount{
		ID:           uuid.New(),
		Username:     *username,
		PasswordHash: hash,
		Role:         *role,
		CreatedAt:    time.Now().UTC(),
	}
	if err := store.CreateAdmin(ctx, admin); err != nil {
		log.Fatalf("create admin: %v", err)
	}
	log.Printf("admin %q created (%s)", admin.Username, admin.ID)
}
