package catalog

import (
	"errors"
	"testing"

	"github.com/shvbsle/survey-sensei/internal/models"
	"github.com/shvbsle/survey-sensei/internal/store"
)

func seededCatalog(t *testing.T) (*Catalog, *store.InMemoryStore) {
	t.Helper()
	st := store.NewInMemoryStore()
	if err := Seed(st); err != nil {
		t.Fatalf("Seed() error: %v", err)
	}
	return New(st), st
}

func TestSeedIsIdempotent(t *testing.T) {
	_, st := seededCatalog(t)
	if err := Seed(st); err != nil {
		t.Fatalf("second Seed() error: %v", err)
	}
	reviews, err := st.GetReviewsByShopper("shop_9e1d4b7a3f5c2860")
	if err != nil {
		t.Fatalf("GetReviewsByShopper() error: %v", err)
	}
	if len(reviews) != 2 {
		t.Errorf("reviews = %d, want 2 (reseeding must not duplicate)", len(reviews))
	}
}

func TestProductLookup(t *testing.T) {
	c, _ := seededCatalog(t)

	product, err := c.Product("prod_4f8a2c1e9b3d5076")
	if err != nil {
		t.Fatalf("Product() error: %v", err)
	}
	if product.Name != "Ridgeline Trail Runners" {
		t.Errorf("Name = %q", product.Name)
	}

	if _, err := c.Product("prod_missing"); !errors.Is(err, ErrUnknownProduct) {
		t.Errorf("Product(missing) error = %v, want ErrUnknownProduct", err)
	}
	if _, err := c.Product(""); !errors.Is(err, models.ErrEmptyProductID) {
		t.Errorf("Product(empty) error = %v, want ErrEmptyProductID", err)
	}

	products, err := c.Products()
	if err != nil {
		t.Fatalf("Products() error: %v", err)
	}
	if len(products) != len(seedProducts) {
		t.Errorf("Products() = %d rows, want %d", len(products), len(seedProducts))
	}
}

func TestShopperLookup(t *testing.T) {
	c, _ := seededCatalog(t)

	shopper, err := c.Shopper("shop_5a8c2f0d6b9e4173")
	if err != nil {
		t.Fatalf("Shopper() error: %v", err)
	}
	if shopper.DisplayName != "Jon Petersen" {
		t.Errorf("DisplayName = %q", shopper.DisplayName)
	}

	if _, err := c.Shopper("shop_missing"); !errors.Is(err, ErrUnknownShopper) {
		t.Errorf("Shopper(missing) error = %v, want ErrUnknownShopper", err)
	}
}

func TestValidateSubject(t *testing.T) {
	c, _ := seededCatalog(t)

	valid := models.IntakeSubject{
		ShopperID: "shop_1c7f3a9e5d2b8046",
		ProductID: "prod_2d6c8f5b1e9a4037",
		Form:      models.IntakeForm{Email: "ines.moreau@example.com"},
	}

	tests := []struct {
		name    string
		mutate  func(*models.IntakeSubject)
		wantErr error
	}{
		{name: "valid", mutate: func(*models.IntakeSubject) {}},
		{
			name:    "unknown shopper",
			mutate:  func(s *models.IntakeSubject) { s.ShopperID = "shop_missing" },
			wantErr: ErrUnknownShopper,
		},
		{
			name:    "unknown product",
			mutate:  func(s *models.IntakeSubject) { s.ProductID = "prod_missing" },
			wantErr: ErrUnknownProduct,
		},
		{
			name:    "missing email",
			mutate:  func(s *models.IntakeSubject) { s.Form.Email = "" },
			wantErr: models.ErrEmptyEmail,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject := valid
			tt.mutate(&subject)
			err := c.ValidateSubject(subject)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("ValidateSubject() error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateSubject() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPastReviews(t *testing.T) {
	c, _ := seededCatalog(t)

	reviews, err := c.PastReviews("shop_9e1d4b7a3f5c2860")
	if err != nil {
		t.Fatalf("PastReviews() error: %v", err)
	}
	if len(reviews) != 2 {
		t.Errorf("reviews = %d, want 2", len(reviews))
	}

	none, err := c.PastReviews("shop_1c7f3a9e5d2b8046")
	if err != nil {
		t.Fatalf("PastReviews(first-timer) error: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("reviews = %d for a first-time reviewer, want 0", len(none))
	}
}
