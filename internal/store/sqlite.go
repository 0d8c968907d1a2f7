// Package store provides storage backends for survey-sensei.
//
// This file implements an SQLite-backed store for catalog, review, and
// session records.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "embed"

	"github.com/shvbsle/survey-sensei/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// Constants for SQLite store configuration
const (
	// DefaultDirPermissions defines the default permissions for database directories
	DefaultDirPermissions = 0755
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	// Apply options
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	// Determine DSN (required)
	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	// Ensure the directory exists
	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	slog.Debug("SQLite database directory verified/created", "dir", dir)

	slog.Debug("Opening SQLite database connection")
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	slog.Debug("SQLite database opened")

	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}
	slog.Debug("SQLite ping successful")

	// Run migrations to ensure tables exist
	slog.Debug("Running SQLite migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) SaveProduct(p models.Product) error {
	features, err := marshalStrings(p.Features)
	if err != nil {
		slog.Error("SQLiteStore SaveProduct marshal failed", "error", err, "productID", p.ID)
		return fmt.Errorf("failed to marshal product features: %w", err)
	}
	_, err = s.db.Exec(`INSERT OR REPLACE INTO products (id, name, description, category, price, features) VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.Category, p.Price, features)
	if err != nil {
		slog.Error("SQLiteStore SaveProduct failed", "error", err, "productID", p.ID)
		return fmt.Errorf("failed to save product %s: %w", p.ID, err)
	}
	slog.Debug("SQLiteStore SaveProduct succeeded", "productID", p.ID)
	return nil
}

func (s *SQLiteStore) GetProduct(id string) (*models.Product, error) {
	row := s.db.QueryRow(`SELECT id, name, description, category, price, features FROM products WHERE id = ?`, id)
	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		slog.Debug("SQLiteStore GetProduct not found", "productID", id)
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetProduct failed", "error", err, "productID", id)
		return nil, fmt.Errorf("failed to get product %s: %w", id, err)
	}
	return p, nil
}

func (s *SQLiteStore) ListProducts() ([]models.Product, error) {
	rows, err := s.db.Query(`SELECT id, name, description, category, price, features FROM products ORDER BY name`)
	if err != nil {
		slog.Error("SQLiteStore ListProducts query failed", "error", err)
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		p, err := scanProductRows(rows)
		if err != nil {
			slog.Error("SQLiteStore ListProducts scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		slog.Error("SQLiteStore ListProducts rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate product rows: %w", err)
	}
	slog.Debug("SQLiteStore ListProducts succeeded", "count", len(products))
	return products, nil
}

func (s *SQLiteStore) SaveShopper(sh models.Shopper) error {
	traits, err := marshalStrings(sh.Traits)
	if err != nil {
		slog.Error("SQLiteStore SaveShopper marshal failed", "error", err, "shopperID", sh.ID)
		return fmt.Errorf("failed to marshal shopper traits: %w", err)
	}
	_, err = s.db.Exec(`INSERT OR REPLACE INTO shoppers (id, email, display_name, traits) VALUES (?, ?, ?, ?)`,
		sh.ID, sh.Email, sh.DisplayName, traits)
	if err != nil {
		slog.Error("SQLiteStore SaveShopper failed", "error", err, "shopperID", sh.ID)
		return fmt.Errorf("failed to save shopper %s: %w", sh.ID, err)
	}
	slog.Debug("SQLiteStore SaveShopper succeeded", "shopperID", sh.ID)
	return nil
}

func (s *SQLiteStore) GetShopper(id string) (*models.Shopper, error) {
	row := s.db.QueryRow(`SELECT id, email, display_name, traits FROM shoppers WHERE id = ?`, id)
	sh, err := scanShopper(row)
	if err == sql.ErrNoRows {
		slog.Debug("SQLiteStore GetShopper not found", "shopperID", id)
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetShopper failed", "error", err, "shopperID", id)
		return nil, fmt.Errorf("failed to get shopper %s: %w", id, err)
	}
	return sh, nil
}

func (s *SQLiteStore) AddReview(r models.Review) error {
	highlights, err := marshalStrings(r.Highlights)
	if err != nil {
		slog.Error("SQLiteStore AddReview marshal failed", "error", err, "reviewID", r.ID)
		return fmt.Errorf("failed to marshal review highlights: %w", err)
	}
	_, err = s.db.Exec(`INSERT INTO reviews (id, shopper_id, product_id, session_id, stars, review_text, tone, highlights, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.ShopperID, r.ProductID, nilIfEmpty(r.SessionID), r.Stars, r.Text, nilIfEmpty(r.Tone), highlights, r.CreatedAt)
	if err != nil {
		slog.Error("SQLiteStore AddReview failed", "error", err, "reviewID", r.ID)
		return fmt.Errorf("failed to insert review %s: %w", r.ID, err)
	}
	slog.Debug("SQLiteStore AddReview succeeded", "reviewID", r.ID, "shopperID", r.ShopperID)
	return nil
}

func (s *SQLiteStore) GetReviewsByShopper(shopperID string) ([]models.Review, error) {
	return s.queryReviews(`SELECT id, shopper_id, product_id, session_id, stars, review_text, tone, highlights, created_at FROM reviews WHERE shopper_id = ? ORDER BY created_at`, shopperID)
}

func (s *SQLiteStore) GetReviewsByProduct(productID string) ([]models.Review, error) {
	return s.queryReviews(`SELECT id, shopper_id, product_id, session_id, stars, review_text, tone, highlights, created_at FROM reviews WHERE product_id = ? ORDER BY created_at`, productID)
}

func (s *SQLiteStore) queryReviews(query string, arg string) ([]models.Review, error) {
	rows, err := s.db.Query(query, arg)
	if err != nil {
		slog.Error("SQLiteStore review query failed", "error", err)
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	var reviews []models.Review
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			slog.Error("SQLiteStore review scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan review row: %w", err)
		}
		reviews = append(reviews, r)
	}
	if err := rows.Err(); err != nil {
		slog.Error("SQLiteStore review rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate review rows: %w", err)
	}
	slog.Debug("SQLiteStore review query succeeded", "count", len(reviews))
	return reviews, nil
}

// SaveSession stores or updates a survey session.
func (s *SQLiteStore) SaveSession(sess models.SurveySession) error {
	questions, answers, reviews, err := marshalSessionBlobs(sess)
	if err != nil {
		slog.Error("SQLiteStore SaveSession marshal failed", "error", err, "sessionID", sess.ID)
		return err
	}

	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO survey_sessions
		(id, shopper_id, product_id, status, questions, answers, skipped_total, consecutive_skips, product_context, shopper_context, style_notes, reviews, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.ShopperID, sess.ProductID, string(sess.Status), questions, answers,
		sess.SkippedTotal, sess.ConsecutiveSkips, sess.ProductContext, sess.ShopperContext,
		sess.StyleNotes, reviews, sess.CreatedAt, sess.UpdatedAt)
	if err != nil {
		slog.Error("SQLiteStore SaveSession failed", "error", err, "sessionID", sess.ID)
		return fmt.Errorf("failed to save session %s: %w", sess.ID, err)
	}
	slog.Debug("SQLiteStore SaveSession succeeded", "sessionID", sess.ID, "status", sess.Status)
	return nil
}

// GetSession retrieves a survey session by ID.
func (s *SQLiteStore) GetSession(id string) (*models.SurveySession, error) {
	row := s.db.QueryRow(`
		SELECT id, shopper_id, product_id, status, questions, answers, skipped_total, consecutive_skips, product_context, shopper_context, style_notes, reviews, created_at, updated_at
		FROM survey_sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		slog.Debug("SQLiteStore GetSession not found", "sessionID", id)
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetSession failed", "error", err, "sessionID", id)
		return nil, fmt.Errorf("failed to get session %s: %w", id, err)
	}
	slog.Debug("SQLiteStore GetSession found", "sessionID", id, "status", sess.Status)
	return sess, nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	slog.Debug("Closing SQLite database connection")
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close SQLite database", "error", err)
	} else {
		slog.Debug("SQLite database connection closed successfully")
	}
	return err
}
