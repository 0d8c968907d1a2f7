// Package catalog exposes product and shopper lookups on top of the store
// and validates intake subjects against them. It also seeds a deterministic
// demo data set so a fresh daemon has something to survey.
package catalog

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shvbsle/survey-sensei/internal/models"
	"github.com/shvbsle/survey-sensei/internal/store"
)

// Error variables for better error handling and testability
var (
	// ErrUnknownProduct reports an ID with no catalog row behind it.
	ErrUnknownProduct = errors.New("product not in catalog")
	// ErrUnknownShopper reports an ID with no registered shopper behind it.
	ErrUnknownShopper = errors.New("shopper not registered")
)

// Catalog reads products and shoppers from the store.
type Catalog struct {
	store store.Store
}

// New creates a Catalog backed by the given store.
func New(st store.Store) *Catalog {
	return &Catalog{store: st}
}

// Product returns the catalog row for id.
func (c *Catalog) Product(id string) (*models.Product, error) {
	if strings.TrimSpace(id) == "" {
		return nil, models.ErrEmptyProductID
	}
	product, err := c.store.GetProduct(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if product == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProduct, id)
	}
	return product, nil
}

// Products lists the full catalog.
func (c *Catalog) Products() ([]models.Product, error) {
	products, err := c.store.ListProducts()
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// Shopper returns the registered shopper for id.
func (c *Catalog) Shopper(id string) (*models.Shopper, error) {
	if strings.TrimSpace(id) == "" {
		return nil, models.ErrEmptyShopperID
	}
	shopper, err := c.store.GetShopper(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load shopper: %w", err)
	}
	if shopper == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownShopper, id)
	}
	return shopper, nil
}

// ValidateSubject checks an intake subject structurally and against the
// catalog. It satisfies the flow controller's intake validator.
func (c *Catalog) ValidateSubject(subject models.IntakeSubject) error {
	if err := subject.Validate(); err != nil {
		return err
	}
	if _, err := c.Shopper(subject.ShopperID); err != nil {
		return err
	}
	if _, err := c.Product(subject.ProductID); err != nil {
		return err
	}
	return nil
}

// PastReviews returns the shopper's previously submitted reviews, oldest
// first as stored. The content service uses them as a writing-style corpus.
func (c *Catalog) PastReviews(shopperID string) ([]models.Review, error) {
	if strings.TrimSpace(shopperID) == "" {
		return nil, models.ErrEmptyShopperID
	}
	reviews, err := c.store.GetReviewsByShopper(shopperID)
	if err != nil {
		return nil, fmt.Errorf("failed to load past reviews: %w", err)
	}
	return reviews, nil
}

// Seed populates the store with the demo catalog when it is not already
// present. Seeding is idempotent keyed on the first demo product.
func Seed(st store.Store) error {
	existing, err := st.GetProduct(seedProducts[0].ID)
	if err != nil {
		return fmt.Errorf("failed to check seed state: %w", err)
	}
	if existing != nil {
		slog.Debug("catalog.Seed: demo catalog already present")
		return nil
	}

	for _, product := range seedProducts {
		if err := st.SaveProduct(product); err != nil {
			return fmt.Errorf("failed to seed product %s: %w", product.ID, err)
		}
	}
	for _, shopper := range seedShoppers {
		if err := st.SaveShopper(shopper); err != nil {
			return fmt.Errorf("failed to seed shopper %s: %w", shopper.ID, err)
		}
	}
	for _, review := range seedReviews {
		if err := st.AddReview(review); err != nil {
			return fmt.Errorf("failed to seed review %s: %w", review.ID, err)
		}
	}
	slog.Info("catalog.Seed: demo catalog seeded",
		"products", len(seedProducts), "shoppers", len(seedShoppers), "reviews", len(seedReviews))
	return nil
}
