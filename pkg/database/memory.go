package database

import (
	"context"
	"sync"

	"rfm-outreach/pkg/models"
)

// MemoryStore est un Store en mémoire (tests, runs à blanc).
// Chaque Replace* échange la tranche entière sous verrou : un lecteur voit l'ancien ou le nouvel ensemble.
type MemoryStore struct {
	mu       sync.RWMutex
	facts    []models.OrderFact
	products map[string]models.Product
	profiles []models.Profile
	recs     []models.Recommendation
}

func NewMemoryStore(facts []models.OrderFact, products []models.Product) *MemoryStore {
	s := &MemoryStore{products: map[string]models.Product{}}
	s.facts = append(s.facts, facts...)
	for _, p := range products {
		s.products[p.ProductID] = p
	}
	return s
}

// SetOrderFacts remplace le ledger.
func (s *MemoryStore) SetOrderFacts(facts []models.OrderFact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.facts = append([]models.OrderFact(nil), facts...)
}

func (s *MemoryStore) LoadOrderFacts(_ context.Context) ([]models.OrderFact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.OrderFact(nil), s.facts...), nil
}

func (s *MemoryStore) LoadProducts(_ context.Context) (map[string]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]models.Product, len(s.products))
	for k, v := range s.products {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryStore) LoadProfiles(_ context.Context) ([]models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Profile(nil), s.profiles...), nil
}

func (s *MemoryStore) LoadRecommendations(_ context.Context) ([]models.Recommendation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Recommendation(nil), s.recs...), nil
}

func (s *MemoryStore) ReplaceProfiles(_ context.Context, profiles []models.Profile) error {
	next := append([]models.Profile(nil), profiles...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles = next
	return nil
}

func (s *MemoryStore) ReplaceRecommendations(_ context.Context, recs []models.Recommendation) error {
	next := append([]models.Recommendation(nil), recs...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = next
	return nil
}
