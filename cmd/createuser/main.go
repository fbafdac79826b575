package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	var (
		dsn       = flag.String("dsn", "host=localhost port=5432 user=harbor password=harbor dbname=harbor sslmode=disable", "Database DSN")
		email     = flag.String("email", "test@example.com", "User email")
		password  = flag.String("password", "Password123", "User password")
		firstName = flag.String("first", "Test", "First name")
		lastName  = flag.String("last", "User", "Last name")
		role      = flag.String("role", "therapist", "User role (client, therapist, admin)")
		therapist = flag.String("therapist", "", "Therapist ID to link a client to")
	)
	flag.Parse()

	db, err := sqlx.Connect("postgres", *dsn)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), 12)
	if err != nil {
		log.Fatal("Failed to generate password hash:", err)
	}

	userID := uuid.New().String()
	ctx := context.Background()

	var therapistID interface{}
	if *therapist != "" {
		therapistID = *therapist
	}

	query := `
		INSERT INTO users (id, email, password_hash, first_name, last_name, role, therapist_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (email) DO UPDATE SET
			password_hash = EXCLUDED.password_hash,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			role = EXCLUDED.role,
			therapist_id = EXCLUDED.therapist_id,
			updated_at = EXCLUDED.updated_at
		RETURNING id`

	var resultID string
	err = db.GetContext(ctx, &resultID, query,
		userID, *email, string(hash), *firstName, *lastName, *role, therapistID, time.Now(), time.Now())
	if err != nil {
		log.Fatal("Failed to create user:", err)
	}

	if resultID == userID {
		fmt.Printf("Created user:\n")
	} else {
		fmt.Printf("Updated existing user:\n")
	}

	fmt.Printf("   Email: %s\n", *email)
	fmt.Printf("   Password: %s\n", *password)
	fmt.Printf("   Role: %s\n", *role)
	fmt.Printf("   ID: %s\n", resultID)
}
