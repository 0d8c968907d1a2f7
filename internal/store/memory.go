// Package store provides storage backends for survey-sensei.
//
// This file implements the in-memory store used by tests and dev mode.
package store

import (
	"sync"

	"github.com/shvbsle/survey-sensei/internal/models"
)

// InMemoryStore keeps every record in process memory. Reads return deep
// copies so callers never share mutable state with the store.
type InMemoryStore struct {
	mu       sync.RWMutex
	products map[string]models.Product
	shoppers map[string]models.Shopper
	reviews  []models.Review
	sessions map[string]*models.SurveySession
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		products: make(map[string]models.Product),
		shoppers: make(map[string]models.Shopper),
		sessions: make(map[string]*models.SurveySession),
	}
}

func (s *InMemoryStore) SaveProduct(p models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.Features = append([]string(nil), p.Features...)
	s.products[p.ID] = p
	return nil
}

func (s *InMemoryStore) GetProduct(id string) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, nil
	}
	p.Features = append([]string(nil), p.Features...)
	return &p, nil
}

func (s *InMemoryStore) ListProducts() ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		p.Features = append([]string(nil), p.Features...)
		out = append(out, p)
	}
	return out, nil
}

func (s *InMemoryStore) SaveShopper(sh models.Shopper) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh.Traits = append([]string(nil), sh.Traits...)
	s.shoppers[sh.ID] = sh
	return nil
}

func (s *InMemoryStore) GetShopper(id string) (*models.Shopper, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sh, ok := s.shoppers[id]
	if !ok {
		return nil, nil
	}
	sh.Traits = append([]string(nil), sh.Traits...)
	return &sh, nil
}

func (s *InMemoryStore) AddReview(r models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.Highlights = append([]string(nil), r.Highlights...)
	s.reviews = append(s.reviews, r)
	return nil
}

func (s *InMemoryStore) GetReviewsByShopper(shopperID string) ([]models.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Review
	for _, r := range s.reviews {
		if r.ShopperID == shopperID {
			r.Highlights = append([]string(nil), r.Highlights...)
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *InMemoryStore) GetReviewsByProduct(productID string) ([]models.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Review
	for _, r := range s.reviews {
		if r.ProductID == productID {
			r.Highlights = append([]string(nil), r.Highlights...)
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *InMemoryStore) SaveSession(sess models.SurveySession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess.Clone()
	return nil
}

func (s *InMemoryStore) GetSession(id string) (*models.SurveySession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	return sess.Clone(), nil
}

func (s *InMemoryStore) Close() error {
	return nil
}
