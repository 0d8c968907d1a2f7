// Package store provides storage backends for survey-sensei.
//
// It includes an in-memory store for tests and development plus SQLite and
// PostgreSQL backends selected by DSN at startup.
package store

import (
	"strings"

	"github.com/shvbsle/survey-sensei/internal/models"
)

// Opts holds configuration options for store backends.
type Opts struct {
	// DSN is the database connection string. For SQLite this is a file path;
	// for Postgres a connection URL or key/value string.
	DSN string
}

// Option configures store construction.
type Option func(*Opts)

// WithDSN sets the database connection string.
func WithDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// DetectDSNType reports which backend a DSN selects: "postgres" for
// connection URLs or key/value strings, "sqlite3" for plain file paths.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite3"
}

// Store is the persistence surface shared by the catalog, the content service,
// and the API layer. Lookups return (nil, nil) when the record does not exist.
type Store interface {
	// Catalog
	SaveProduct(p models.Product) error
	GetProduct(id string) (*models.Product, error)
	ListProducts() ([]models.Product, error)
	SaveShopper(s models.Shopper) error
	GetShopper(id string) (*models.Shopper, error)

	// Reviews (seeded style corpus plus flow submissions)
	AddReview(r models.Review) error
	GetReviewsByShopper(shopperID string) ([]models.Review, error)
	GetReviewsByProduct(productID string) ([]models.Review, error)

	// Survey sessions
	SaveSession(s models.SurveySession) error
	GetSession(id string) (*models.SurveySession, error)

	Close() error
}
