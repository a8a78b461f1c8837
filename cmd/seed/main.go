package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/tablepos/api/internal/config"
	"github.com/tablepos/api/internal/database"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	// CLI flags
	email := flag.String("email", "", "Admin email address")
	password := flag.String("password", "", "Admin password")
	name := flag.String("name", "", "Admin full name")
	demo := flag.Bool("demo", true, "Also seed a floor, pricing constants, supplies and a menu")
	flag.Parse()

	// Fall back to environment variables, then defaults
	*email = firstNonEmpty(*email, os.Getenv("SEED_EMAIL"), "admin@tablepos.local")
	*name = firstNonEmpty(*name, os.Getenv("SEED_NAME"), "Admin")
	*password = firstNonEmpty(*password, os.Getenv("SEED_PASSWORD"))
	if *password == "" {
		*password = "password123"
		log.Println("WARNING: Using default password 'password123'. Change immediately in production!")
	}

	cfg := config.Load()

	ctx := context.Background()
	if err := database.Migrate(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to migrate: %v", err)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Unable to ping database: %v", err)
	}
	log.Println("Connected to database")

	// Seed in a transaction so a failed run leaves nothing behind
	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("Failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck
	q := database.New(tx)

	adminID, err := seedAdmin(ctx, q, *email, *password, *name)
	if err != nil {
		log.Fatalf("Failed to seed admin: %v", err)
	}

	if *demo {
		if err := seedDemo(ctx, q); err != nil {
			log.Fatalf("Failed to seed demo data: %v", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("Failed to commit: %v", err)
	}

	log.Println("Seed completed successfully")
	log.Printf("Admin ID: %s", adminID)
}

// seedAdmin creates the admin user if it doesn't exist.
func seedAdmin(ctx context.Context, q *database.Queries, email, password, fullName string) (uuid.UUID, error) {
	existing, err := q.GetUserByEmail(ctx, email)
	if err == nil {
		log.Printf("User '%s' already exists (ID: %s), skipping", email, existing.ID)
		return existing.ID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("check user: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return uuid.Nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := q.CreateUser(ctx, database.CreateUserParams{
		Email:          email,
		HashedPassword: string(hashed),
		FullName:       fullName,
		Role:           database.UserRoleADMIN,
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert user: %w", err)
	}

	log.Printf("Created admin user '%s' (ID: %s)", email, user.ID)
	return user.ID, nil
}

// seedDemo creates a small floor and menu. It is skipped once any section exists.
func seedDemo(ctx context.Context, q *database.Queries) error {
	sections, err := q.ListSections(ctx)
	if err != nil {
		return fmt.Errorf("list sections: %w", err)
	}
	if len(sections) > 0 {
		log.Println("Sections already exist, skipping demo data")
		return nil
	}

	section, err := q.CreateSection(ctx, "Main Hall")
	if err != nil {
		return fmt.Errorf("insert section: %w", err)
	}
	for i := 1; i <= 6; i++ {
		if _, err := q.CreateTable(ctx, database.CreateTableParams{
			SectionID: section.ID,
			Name:      fmt.Sprintf("T%d", i),
			Capacity:  4,
		}); err != nil {
			return fmt.Errorf("insert table T%d: %w", i, err)
		}
	}
	log.Printf("Created section '%s' with 6 tables", section.Name)

	tax, err := q.CreateTax(ctx, database.CreateTaxParams{Name: "VAT", Rate: numeric("0.1000")})
	if err != nil {
		return fmt.Errorf("insert tax: %w", err)
	}
	svc, err := q.CreateService(ctx, database.CreateServiceParams{Name: "Service", Amount: numeric("1.00")})
	if err != nil {
		return fmt.Errorf("insert service: %w", err)
	}
	if err := q.SetConstants(ctx, database.SetConstantsParams{
		TaxID:     pgtype.UUID{Bytes: tax.ID, Valid: true},
		ServiceID: pgtype.UUID{Bytes: svc.ID, Valid: true},
	}); err != nil {
		return fmt.Errorf("set constants: %w", err)
	}
	if _, err := q.CreateDiscount(ctx, database.CreateDiscountParams{Name: "Staff", Percentage: numeric("20.00")}); err != nil {
		return fmt.Errorf("insert discount: %w", err)
	}

	menu := []struct {
		title  string
		price  string
		supply string
		stock  int32
		link   bool
	}{
		{"Burger", "10.00", "Burger", 50, true},
		{"Fries", "4.50", "Fries", 80, true},
		// Resolved to its supply by title at order time.
		{"Cola", "2.50", "Cola", 120, false},
		{"Soup of the Day", "6.00", "", 0, false},
	}
	for _, m := range menu {
		var supplyID pgtype.UUID
		if m.supply != "" {
			s, err := q.CreateSupply(ctx, database.CreateSupplyParams{
				Name:              m.supply,
				RemainingQuantity: m.stock,
				UnitPrice:         numeric("0.00"),
			})
			if err != nil {
				return fmt.Errorf("insert supply %s: %w", m.supply, err)
			}
			if m.link {
				supplyID = pgtype.UUID{Bytes: s.ID, Valid: true}
			}
		}
		if _, err := q.CreateMenuItem(ctx, database.CreateMenuItemParams{
			Title:    m.title,
			Price:    numeric(m.price),
			SupplyID: supplyID,
		}); err != nil {
			return fmt.Errorf("insert menu item %s: %w", m.title, err)
		}
	}
	log.Printf("Created %d menu items", len(menu))
	return nil
}

func numeric(s string) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(decimal.RequireFromString(s).String())
	return n
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
