// Command seed fills a development database with demo data: an admin, a
// buyer and a seller, categories, a few listings and one negotiated order.
package main

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/rizana/rizana-golang/internal/config"
	"github.com/rizana/rizana-golang/internal/database"
	"github.com/rizana/rizana-golang/internal/models"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.OpenDB(cfg.Database.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.RunMigrations(context.Background(), db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	now := time.Now()

	// --- Users ---
	adminID := seedUser(db, "admin", "admin@rizana.test", "admin12345", "ARE", strPtr("784-1990-1234567-1"), true, now)
	sellerID := seedUser(db, "layla", "layla@rizana.test", "password123", "ARE", strPtr("784-1992-7654321-2"), false, now)
	buyerID := seedUser(db, "omar", "omar@rizana.test", "password123", "ARE", strPtr("784-1988-1112223-3"), false, now)
	log.Printf("seeded users: admin=%s seller=%s buyer=%s", adminID, sellerID, buyerID)

	// --- Categories ---
	categories := map[string]string{
		"Electronics": "Phones, laptops and gadgets",
		"Furniture":   "Home and office furniture",
		"Fashion":     "Clothing, shoes and accessories",
		"Books":       "New and used books",
	}
	categoryIDs := map[string]string{}
	for name, desc := range categories {
		id := uuid.New().String()
		mustExec(db, "INSERT INTO categories (id, name, description) VALUES (?, ?, ?)", id, name, desc)
		categoryIDs[name] = id
	}

	// --- Listings ---
	phoneID := seedItem(db, sellerID, categoryIDs["Electronics"], "iPhone 13 Pro, mint condition", 2100, now)
	seedItem(db, sellerID, categoryIDs["Furniture"], "IKEA desk, barely used", 250, now)
	seedItem(db, buyerID, categoryIDs["Books"], "Arabic calligraphy starter set", 90, now)

	// --- A Negotiated, Completed Purchase ---
	convID := uuid.New().String()
	mustExec(db, `
		INSERT INTO conversations (id, buyer_id, seller_id, item_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		convID, buyerID, sellerID, phoneID, now, now)

	mustExec(db, `
		INSERT INTO messages (id, conversation_id, sender_id, receiver_id, message, is_read, sent_at)
		VALUES (?, ?, ?, ?, ?, 1, ?)`,
		uuid.New().String(), convID, buyerID, sellerID, "Hi! Would you take 1900 for the phone?", now)

	mustExec(db, `
		INSERT INTO proposals (id, conversation_id, sender_id, receiver_id, proposed_price, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), convID, buyerID, sellerID, 1900, models.ProposalAccepted, now)

	orderID := uuid.New().String()
	mustExec(db, `
		INSERT INTO orders (id, item_id, buyer_id, seller_id, total_price, currency, status, payment_status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 'AED', ?, ?, ?, ?)`,
		orderID, phoneID, buyerID, sellerID, 1900, models.OrderPending, models.PaymentUnpaid, now, now)

	log.Printf("seeded pending order %s (1900 AED, negotiated down from 2100)", orderID)
	log.Println("done")
}

func seedUser(db *sql.DB, username, emailAddr, plainPassword, country string, emirateID *string, isAdmin bool, now time.Time) string {
	var password models.Password
	if err := password.Set(plainPassword); err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	id := uuid.New().String()
	mustExec(db, `
		INSERT INTO users (id, username, email, password_hash, country, emirate_id, is_active, is_admin, created_at)
		VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		id, username, emailAddr, password.Hash, country, emirateID, isAdmin, now)
	return id
}

func seedItem(db *sql.DB, sellerID, categoryID, title string, price float64, now time.Time) string {
	id := uuid.New().String()
	mustExec(db, `
		INSERT INTO items (id, user_id, category_id, title, slug, description, price, currency, is_sold, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 'AED', 0, ?, ?)`,
		id, sellerID, categoryID, title, slug.Make(title)+"-"+id[:8],
		"Seeded demo listing", price, now, now)
	return id
}

func mustExec(db *sql.DB, query string, args ...interface{}) {
	if _, err := db.Exec(query, args...); err != nil {
		log.Fatalf("Seed insert failed: %v", err)
	}
}

func strPtr(s string) *string { return &s }
