package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"repairshop-backend/internal/auth"
	"repairshop-backend/internal/config"
)

func main() {
	email := flag.String("email", "owner@repairshop.local", "Email of the ceo account to create")
	password := flag.String("password", "", "Password of the ceo account (required)")
	flag.Parse()

	if len(*password) < 8 {
		log.Fatal("-password is required and must be at least 8 characters")
	}

	fmt.Println("========================================")
	fmt.Println("   Reset Database for Testing")
	fmt.Println("========================================")
	fmt.Println()
	fmt.Println("WARNING: This will DELETE ALL DATA!")
	fmt.Println()
	fmt.Println("This will:")
	fmt.Println("  - Delete all tickets, payments and proof-of-work records")
	fmt.Println("  - Delete all inventory, stock movements and prices")
	fmt.Println("  - Delete all payroll records and staff accounts")
	fmt.Println("  - Create a single ceo account")
	fmt.Println()
	fmt.Print("Type 'yes' to confirm: ")

	var confirm string
	fmt.Scanln(&confirm)

	if confirm != "yes" {
		fmt.Println("Reset cancelled.")
		return
	}

	cfg := config.Load()
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		log.Fatalf("Unable to connect to database: %v\n", err)
	}
	defer pool.Close()

	fmt.Println()
	fmt.Println("Resetting database...")

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("Failed to begin transaction: %v\n", err)
	}
	defer tx.Rollback(ctx)

	tables := []string{
		"proof_of_work",
		"issue_reports",
		"payroll_records",
		"payroll_adjustments",
		"stock_movements",
		"online_payments",
		"orders",
		"service_prices",
		"products",
		"pending_invites",
		"users",
	}
	for _, table := range tables {
		if _, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
			log.Fatalf("Failed to truncate %s: %v\n", table, err)
		}
		fmt.Printf("  - Cleared %s\n", table)
	}

	hash, err := auth.HashPassword(*password)
	if err != nil {
		log.Fatalf("Failed to hash password: %v\n", err)
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, name, role, status, email_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'ceo', 'active', TRUE, NOW(), NOW())`,
		uuid.New(), *email, hash, "Owner",
	)
	if err != nil {
		log.Fatalf("Failed to create ceo account: %v\n", err)
	}
	fmt.Println("  - Created ceo account")

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("Failed to commit transaction: %v\n", err)
	}

	fmt.Println()
	fmt.Println("Database reset successful!")
	fmt.Printf("Sign in as %s with the password you supplied.\n", *email)
}
