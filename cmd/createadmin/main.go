// Command createadmin provisions the first administrator account directly in
// the database, prompting for the password so it never lands in shell history.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/term"

	"database/sql"

	"github.com/samifathi/invoice-api/internal/server/auth"
	"github.com/samifathi/invoice-api/internal/server/config"
	"github.com/samifathi/invoice-api/internal/server/models"
	"github.com/samifathi/invoice-api/internal/server/repositories/repomanager"
	"github.com/samifathi/invoice-api/internal/server/services"
)

func main() {
	var name, email, department string
	flag.StringVar(&name, "name", "Administrator", "admin display name")
	flag.StringVar(&email, "email", "", "admin email (required)")
	flag.StringVar(&department, "department", string(models.DepartmentManagement), "admin department")
	flag.Parse()

	if email == "" {
		log.Fatal("usage: createadmin -email admin@example.com [-name ...] [-department ...]")
	}

	dept := models.Department(department)
	if !dept.Valid() {
		log.Fatalf("invalid department %q", department)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	password, err := readPassword()
	if err != nil {
		log.Fatalf("password read error: %v", err)
	}
	if len(password) < auth.MinPasswordLength {
		log.Fatalf("password must be at least %d characters", auth.MinPasswordLength)
	}

	ctx := context.Background()

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	defer db.Close()

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("hash error: %v", err)
	}

	user, err := rm.Users(db).Create(ctx, &models.User{
		Name:         name,
		Email:        services.NormalizeEmail(email),
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		Department:   dept,
		IsActive:     true,
	})
	if err != nil {
		log.Fatalf("create error: %v", err)
	}

	fmt.Printf("admin user %s created (id %d)\n", user.Email, user.ID)
}

func readPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Password: ")
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}

	fmt.Fprint(os.Stderr, "Confirm password: ")
	confirm, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}

	if string(b) != string(confirm) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(b), nil
}
