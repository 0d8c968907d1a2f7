// Package models defines catalog and intake structures for survey-sensei.
package models

import (
	"strings"
	"time"
)

// Product is a catalog item a survey can be run against.
type Product struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Price       float64  `json:"price"`
	Features    []string `json:"features,omitempty"`
}

// Validate performs structural validation on a Product.
func (p *Product) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return ErrEmptyProductID
	}
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyProductName
	}
	return nil
}

// Shopper is a registered user who authors reviews.
type Shopper struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	DisplayName string   `json:"display_name"`
	Traits      []string `json:"traits,omitempty"` // persona hints for content generation
}

// Validate performs structural validation on a Shopper.
func (s *Shopper) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return ErrEmptyShopperID
	}
	if strings.TrimSpace(s.Email) == "" {
		return ErrEmptyEmail
	}
	return nil
}

// Review is a submitted product review. Rows serve double duty: seeded
// historical reviews form the shopper's writing-style corpus, and reviews
// submitted through the flow land in the same table.
type Review struct {
	ID         string    `json:"id"`
	ShopperID  string    `json:"shopper_id"`
	ProductID  string    `json:"product_id"`
	SessionID  string    `json:"session_id,omitempty"` // empty for seeded rows
	Stars      int       `json:"stars"`
	Text       string    `json:"text"`
	Tone       string    `json:"tone,omitempty"`
	Highlights []string  `json:"highlights,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Validate performs structural validation on a Review.
func (r *Review) Validate() error {
	if strings.TrimSpace(r.ShopperID) == "" {
		return ErrEmptyShopperID
	}
	if strings.TrimSpace(r.ProductID) == "" {
		return ErrEmptyProductID
	}
	if strings.TrimSpace(r.Text) == "" {
		return ErrEmptyReviewText
	}
	if r.Stars < MinReviewStars || r.Stars > MaxReviewStars {
		return ErrInvalidStars
	}
	return nil
}

// IntakeForm is what the shopper fills in before the survey starts.
type IntakeForm struct {
	Email            string `json:"email"`
	HasPastReviews   bool   `json:"has_past_reviews"`
	PurchasedSimilar bool   `json:"purchased_similar"`
}

// IntakeSubject ties a shopper, a product, and the intake form together. It is
// the argument to survey start and is immutable once submitted.
type IntakeSubject struct {
	ShopperID string     `json:"shopper_id"`
	ProductID string     `json:"product_id"`
	Form      IntakeForm `json:"form"`
}

// Validate performs structural validation on an IntakeSubject.
func (s *IntakeSubject) Validate() error {
	if strings.TrimSpace(s.ShopperID) == "" {
		return ErrEmptyShopperID
	}
	if strings.TrimSpace(s.ProductID) == "" {
		return ErrEmptyProductID
	}
	if strings.TrimSpace(s.Form.Email) == "" {
		return ErrEmptyEmail
	}
	return nil
}
