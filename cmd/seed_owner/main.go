// seed_owner creates the first OWNER account. Owners cannot register through the API.
// Usage: from project root, run: go run ./cmd/seed_owner -username owner -phone 9876543210 -name "Shop Owner"
// The password is read from -password or OWNER_PASSWORD. Requires .env (or env) with DB_*.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"

	"repairdesk/config"
	"repairdesk/models"
	"repairdesk/repository"
	"repairdesk/schema"
	"repairdesk/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env not found")
	}

	username := flag.String("username", os.Getenv("OWNER_USERNAME"), "owner username")
	password := flag.String("password", os.Getenv("OWNER_PASSWORD"), "owner password (min 8 characters)")
	fullName := flag.String("name", os.Getenv("OWNER_FULL_NAME"), "owner full name")
	phone := flag.String("phone", os.Getenv("OWNER_PHONE"), "owner 10-digit phone number")
	email := flag.String("email", os.Getenv("OWNER_EMAIL"), "owner email (optional)")
	flag.Parse()

	if *username == "" || *fullName == "" || *phone == "" {
		flag.Usage()
		log.Fatal("[SEED] username, name and phone are required")
	}
	if len(*password) < 8 {
		log.Fatal("[SEED] password must be at least 8 characters")
	}

	cfg := config.LoadConfig()
	db, err := sql.Open("mysql", cfg.Database.DSN())
	if err != nil {
		log.Fatalf("DB open: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatalf("DB ping: %v", err)
	}
	schema.InitializeDatabase(db)
	schema.ValidateRequiredColumns(db, nil)

	// CreateOwner never touches OTP delivery
	authService := service.NewAuthService(repository.NewUserRepository(db), nil, cfg.Auth)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	user, err := authService.CreateOwner(ctx, models.RegisterUserRequest{
		Username:    *username,
		Password:    *password,
		FullName:    *fullName,
		PhoneNumber: *phone,
		Email:       *email,
	})
	var invalid *service.InvalidInputError
	switch {
	case errors.As(err, &invalid):
		for _, f := range invalid.Fields {
			log.Printf("[SEED] %s: %s", f.Field, f.Message)
		}
		os.Exit(1)
	case errors.Is(err, service.ErrConflict):
		log.Fatalf("[SEED] %v", err)
	case err != nil:
		log.Fatalf("[SEED] failed to create owner: %v", err)
	}
	log.Printf("[SEED] owner created: user_id=%s username=%s", user.UserID, user.Username)
}
