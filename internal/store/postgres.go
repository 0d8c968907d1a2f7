// Package store provides storage backends for survey-sensei.
//
// This file implements a PostgreSQL-backed store for catalog, review, and
// session records.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/shvbsle/survey-sensei/internal/models"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	// Apply options
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "DSN_set", cfg.DSN != "")
	// Determine DSN (required)
	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	slog.Debug("Opening Postgres database connection")
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}
	slog.Debug("Postgres database opened")

	// Configure connection pool for better performance
	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}
	slog.Debug("Postgres ping successful")
	// Run migrations to ensure tables exist
	slog.Debug("Running Postgres migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) SaveProduct(p models.Product) error {
	features, err := marshalStrings(p.Features)
	if err != nil {
		slog.Error("PostgresStore SaveProduct marshal failed", "error", err, "productID", p.ID)
		return fmt.Errorf("failed to marshal product features: %w", err)
	}
	query := `
		INSERT INTO products (id, name, description, category, price, features)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			price = EXCLUDED.price,
			features = EXCLUDED.features`
	_, err = s.db.Exec(query, p.ID, p.Name, p.Description, p.Category, p.Price, features)
	if err != nil {
		slog.Error("PostgresStore SaveProduct failed", "error", err, "productID", p.ID)
		return fmt.Errorf("failed to save product %s: %w", p.ID, err)
	}
	slog.Debug("PostgresStore SaveProduct succeeded", "productID", p.ID)
	return nil
}

func (s *PostgresStore) GetProduct(id string) (*models.Product, error) {
	row := s.db.QueryRow(`SELECT id, name, description, category, price, features FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		slog.Debug("PostgresStore GetProduct not found", "productID", id)
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetProduct failed", "error", err, "productID", id)
		return nil, fmt.Errorf("failed to get product %s: %w", id, err)
	}
	return p, nil
}

func (s *PostgresStore) ListProducts() ([]models.Product, error) {
	rows, err := s.db.Query(`SELECT id, name, description, category, price, features FROM products ORDER BY name`)
	if err != nil {
		slog.Error("PostgresStore ListProducts query failed", "error", err)
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		p, err := scanProductRows(rows)
		if err != nil {
			slog.Error("PostgresStore ListProducts scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		slog.Error("PostgresStore ListProducts rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate product rows: %w", err)
	}
	slog.Debug("PostgresStore ListProducts succeeded", "count", len(products))
	return products, nil
}

func (s *PostgresStore) SaveShopper(sh models.Shopper) error {
	traits, err := marshalStrings(sh.Traits)
	if err != nil {
		slog.Error("PostgresStore SaveShopper marshal failed", "error", err, "shopperID", sh.ID)
		return fmt.Errorf("failed to marshal shopper traits: %w", err)
	}
	query := `
		INSERT INTO shoppers (id, email, display_name, traits)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			display_name = EXCLUDED.display_name,
			traits = EXCLUDED.traits`
	_, err = s.db.Exec(query, sh.ID, sh.Email, sh.DisplayName, traits)
	if err != nil {
		slog.Error("PostgresStore SaveShopper failed", "error", err, "shopperID", sh.ID)
		return fmt.Errorf("failed to save shopper %s: %w", sh.ID, err)
	}
	slog.Debug("PostgresStore SaveShopper succeeded", "shopperID", sh.ID)
	return nil
}

func (s *PostgresStore) GetShopper(id string) (*models.Shopper, error) {
	row := s.db.QueryRow(`SELECT id, email, display_name, traits FROM shoppers WHERE id = $1`, id)
	sh, err := scanShopper(row)
	if err == sql.ErrNoRows {
		slog.Debug("PostgresStore GetShopper not found", "shopperID", id)
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetShopper failed", "error", err, "shopperID", id)
		return nil, fmt.Errorf("failed to get shopper %s: %w", id, err)
	}
	return sh, nil
}

func (s *PostgresStore) AddReview(r models.Review) error {
	highlights, err := marshalStrings(r.Highlights)
	if err != nil {
		slog.Error("PostgresStore AddReview marshal failed", "error", err, "reviewID", r.ID)
		return fmt.Errorf("failed to marshal review highlights: %w", err)
	}
	_, err = s.db.Exec(`INSERT INTO reviews (id, shopper_id, product_id, session_id, stars, review_text, tone, highlights, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		r.ID, r.ShopperID, r.ProductID, nilIfEmpty(r.SessionID), r.Stars, r.Text, nilIfEmpty(r.Tone), highlights, r.CreatedAt)
	if err != nil {
		slog.Error("PostgresStore AddReview failed", "error", err, "reviewID", r.ID)
		return fmt.Errorf("failed to insert review %s: %w", r.ID, err)
	}
	slog.Debug("PostgresStore AddReview succeeded", "reviewID", r.ID, "shopperID", r.ShopperID)
	return nil
}

func (s *PostgresStore) GetReviewsByShopper(shopperID string) ([]models.Review, error) {
	return s.queryReviews(`SELECT id, shopper_id, product_id, session_id, stars, review_text, tone, highlights, created_at FROM reviews WHERE shopper_id = $1 ORDER BY created_at`, shopperID)
}

func (s *PostgresStore) GetReviewsByProduct(productID string) ([]models.Review, error) {
	return s.queryReviews(`SELECT id, shopper_id, product_id, session_id, stars, review_text, tone, highlights, created_at FROM reviews WHERE product_id = $1 ORDER BY created_at`, productID)
}

func (s *PostgresStore) queryReviews(query string, arg string) ([]models.Review, error) {
	rows, err := s.db.Query(query, arg)
	if err != nil {
		slog.Error("PostgresStore review query failed", "error", err)
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	var reviews []models.Review
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			slog.Error("PostgresStore review scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan review row: %w", err)
		}
		reviews = append(reviews, r)
	}
	if err := rows.Err(); err != nil {
		slog.Error("PostgresStore review rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate review rows: %w", err)
	}
	slog.Debug("PostgresStore review query succeeded", "count", len(reviews))
	return reviews, nil
}

// SaveSession stores or updates a survey session.
func (s *PostgresStore) SaveSession(sess models.SurveySession) error {
	questions, answers, reviews, err := marshalSessionBlobs(sess)
	if err != nil {
		slog.Error("PostgresStore SaveSession marshal failed", "error", err, "sessionID", sess.ID)
		return err
	}

	query := `
		INSERT INTO survey_sessions
		(id, shopper_id, product_id, status, questions, answers, skipped_total, consecutive_skips, product_context, shopper_context, style_notes, reviews, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			questions = EXCLUDED.questions,
			answers = EXCLUDED.answers,
			skipped_total = EXCLUDED.skipped_total,
			consecutive_skips = EXCLUDED.consecutive_skips,
			product_context = EXCLUDED.product_context,
			shopper_context = EXCLUDED.shopper_context,
			style_notes = EXCLUDED.style_notes,
			reviews = EXCLUDED.reviews,
			updated_at = EXCLUDED.updated_at`
	_, err = s.db.Exec(query, sess.ID, sess.ShopperID, sess.ProductID, string(sess.Status),
		questions, answers, sess.SkippedTotal, sess.ConsecutiveSkips, sess.ProductContext,
		sess.ShopperContext, sess.StyleNotes, nilIfEmpty(reviews), sess.CreatedAt, sess.UpdatedAt)
	if err != nil {
		slog.Error("PostgresStore SaveSession failed", "error", err, "sessionID", sess.ID)
		return fmt.Errorf("failed to save session %s: %w", sess.ID, err)
	}
	slog.Debug("PostgresStore SaveSession succeeded", "sessionID", sess.ID, "status", sess.Status)
	return nil
}

// GetSession retrieves a survey session by ID.
func (s *PostgresStore) GetSession(id string) (*models.SurveySession, error) {
	row := s.db.QueryRow(`
		SELECT id, shopper_id, product_id, status, questions, answers, skipped_total, consecutive_skips, product_context, shopper_context, style_notes, reviews, created_at, updated_at
		FROM survey_sessions WHERE id = $1`, id)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		slog.Debug("PostgresStore GetSession not found", "sessionID", id)
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetSession failed", "error", err, "sessionID", id)
		return nil, fmt.Errorf("failed to get session %s: %w", id, err)
	}
	slog.Debug("PostgresStore GetSession found", "sessionID", id, "status", sess.Status)
	return sess, nil
}

// Close closes the Postgres database connection.
func (s *PostgresStore) Close() error {
	slog.Debug("Closing Postgres database connection")
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close Postgres database", "error", err)
	} else {
		slog.Debug("Postgres database connection closed successfully")
	}
	return err
}
