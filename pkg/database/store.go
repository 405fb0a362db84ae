package database

import (
	"context"
	"errors"

	"rfm-outreach/pkg/models"
)

// ErrStorage marque toute erreur de lecture/écriture du magasin.
var ErrStorage = errors.New("storage failure")

// Store est le collaborateur de stockage du pipeline.
// Les Replace* sont atomiques : soit l'ancien ensemble reste visible, soit le nouveau.
type Store interface {
	LoadOrderFacts(ctx context.Context) ([]models.OrderFact, error)
	LoadProducts(ctx context.Context) (map[string]models.Product, error)
	LoadProfiles(ctx context.Context) ([]models.Profile, error)
	LoadRecommendations(ctx context.Context) ([]models.Recommendation, error)
	ReplaceProfiles(ctx context.Context, profiles []models.Profile) error
	ReplaceRecommendations(ctx context.Context, recs []models.Recommendation) error
}
