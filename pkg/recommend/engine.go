package recommend

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"rfm-outreach/pkg/explain"
	"rfm-outreach/pkg/models"
	"rfm-outreach/pkg/progress"
)

// ErrMissingCatalogEntry : le profil référence un produit absent du catalogue (profil ignoré).
var ErrMissingCatalogEntry = errors.New("product missing from catalog")

const (
	earlyWindowDays = 5 // 0 <= d <= 5
	lateWindowDays  = 7 // -7 <= d < 0

	highFrequency   = 5
	mediumFrequency = 2
)

// Explainer produit la justification d'une recommandation.
type Explainer interface {
	Explain(in explain.Input) string
}

// Stats résume une évaluation.
type Stats struct {
	Profiles        int
	MissingCatalog  int
	OutOfSeason     int
	TooEarly        int
	Recommendations int
}

// Engine applique les règles fenêtre/saison/confiance aux profils RFM.
type Engine struct {
	explainer Explainer
	log       logrus.FieldLogger
	progress  bool
}

func NewEngine(explainer Explainer, log logrus.FieldLogger, progress bool) *Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{explainer: explainer, log: log.WithField("stage", "recommendation"), progress: progress}
}

// Evaluate renvoie zéro ou une recommandation par profil. Les profils sans fiche catalogue,
// hors saison ou trop en avance sont ignorés.
func (e *Engine) Evaluate(profiles []models.Profile, products map[string]models.Product, today time.Time, runID string) ([]models.Recommendation, Stats) {
	today = models.Day(today)
	season := CurrentSeason(today)
	stats := Stats{Profiles: len(profiles)}

	bar := progress.New(len(profiles), "recommendations", e.progress)
	recs := make([]models.Recommendation, 0, len(profiles))
	for _, p := range profiles {
		_ = bar.Add(1)
		product, ok := products[p.ProductID]
		if !ok {
			stats.MissingCatalog++
			e.log.WithFields(logrus.Fields{
				"customer_id": p.CustomerID,
				"product_id":  p.ProductID,
			}).Warn(ErrMissingCatalogEntry)
			continue
		}

		if !InSeason(product.Seasonality, season) {
			stats.OutOfSeason++
			continue
		}

		d := DaysUntilExpected(p.RecencyDays, product.ConsumptionCycleDays, today)
		window, ok := Classify(d)
		if !ok {
			stats.TooEarly++
			continue
		}
		confidence := Confidence(p.Frequency)

		recs = append(recs, models.Recommendation{
			RunID:      runID,
			CustomerID: p.CustomerID,
			ProductID:  p.ProductID,
			Window:     window,
			Confidence: confidence,
			Reasoning: e.explainer.Explain(explain.Input{
				CustomerID:   p.CustomerID,
				ProductName:  product.Name,
				DaysUntilDue: d,
				Confidence:   confidence,
				Window:       window,
			}),
			DaysUntilExpected: d,
			GeneratedDate:     today,
		})
	}
	_ = bar.Finish()
	stats.Recommendations = len(recs)

	e.log.WithFields(logrus.Fields{
		"profiles":        stats.Profiles,
		"missing_catalog": stats.MissingCatalog,
		"out_of_season":   stats.OutOfSeason,
		"too_early":       stats.TooEarly,
		"recommendations": stats.Recommendations,
	}).Info("moteur de recommandation terminé")
	return recs, stats
}

// DaysUntilExpected = (today - recency + cycle) - today, en jours signés (négatif = en retard).
func DaysUntilExpected(recencyDays, cycleDays int, today time.Time) int {
	today = models.Day(today)
	lastPurchase := today.AddDate(0, 0, -recencyDays)
	expected := lastPurchase.AddDate(0, 0, cycleDays)
	return models.DaysBetween(today, expected)
}

// Classify : première règle satisfaite. d == 0 tombe dans Early Reminder ; On-time n'est jamais produit.
// ok == false si d > 5 (trop tôt pour contacter).
func Classify(d int) (window string, ok bool) {
	switch {
	case d >= 0 && d <= earlyWindowDays:
		return models.WindowEarlyReminder, true
	case d < 0 && d >= -lateWindowDays:
		return models.WindowFollowUpLate, true
	case d < -lateWindowDays:
		return models.WindowChurnRisk, true
	}
	return "", false
}

// Confidence : >= 5 high, 2..4 medium, sinon low.
func Confidence(frequency int) string {
	switch {
	case frequency >= highFrequency:
		return models.ConfidenceHigh
	case frequency >= mediumFrequency:
		return models.ConfidenceMedium
	}
	return models.ConfidenceLow
}
