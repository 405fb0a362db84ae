package calculator

import (
	"errors"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"rfm-outreach/pkg/models"
	"rfm-outreach/pkg/progress"
)

// ErrNoData : aucune ligne de commande exploitable, rien n'est écrit.
var ErrNoData = errors.New("no order data to aggregate")

const (
	loyalFrequency = 3   // frequency > 3 → Loyal
	atRiskRecency  = 100 // recency_days > 100 → At Risk
)

// Stats résume une agrégation.
type Stats struct {
	FactsRead    int
	FactsSkipped int // lignes rejetées par la validation
	FutureDated  int // couples dont la dernière commande est après "today" (récence ramenée à 0)
	Profiles     int
}

// Aggregator regroupe les lignes de commande par (client, produit) et calcule les profils RFM.
type Aggregator struct {
	log      logrus.FieldLogger
	progress bool
}

func NewAggregator(log logrus.FieldLogger, progress bool) *Aggregator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Aggregator{log: log.WithField("stage", "aggregation"), progress: progress}
}

type pairKey struct {
	customerID string
	productID  string
}

type pairAcc struct {
	last      time.Time
	frequency int
	monetary  float64
}

// Aggregate calcule un profil par couple (client, produit) présent dans facts.
// Résultat trié par client puis produit ; ErrNoData si aucune ligne valide.
func (a *Aggregator) Aggregate(facts []models.OrderFact, today time.Time) ([]models.Profile, Stats, error) {
	stats := Stats{FactsRead: len(facts)}
	today = models.Day(today)

	bar := progress.New(len(facts), "rfm", a.progress)
	acc := map[pairKey]*pairAcc{}
	for _, f := range facts {
		_ = bar.Add(1)
		if err := f.Validate(); err != nil {
			stats.FactsSkipped++
			a.log.WithFields(logrus.Fields{
				"order_id":    f.OrderID,
				"customer_id": f.CustomerID,
				"product_id":  f.ProductID,
			}).Debugf("ligne ignorée: %v", err)
			continue
		}
		k := pairKey{f.CustomerID, f.ProductID}
		p, ok := acc[k]
		if !ok {
			p = &pairAcc{}
			acc[k] = p
		}
		if od := models.Day(f.OrderDate); od.After(p.last) {
			p.last = od
		}
		p.frequency++
		p.monetary += f.Value()
	}
	_ = bar.Finish()

	if len(acc) == 0 {
		return nil, stats, ErrNoData
	}

	profiles := make([]models.Profile, 0, len(acc))
	for k, p := range acc {
		recency := models.DaysBetween(p.last, today)
		if recency < 0 {
			stats.FutureDated++
			a.log.WithFields(logrus.Fields{
				"customer_id": k.customerID,
				"product_id":  k.productID,
				"last_order":  p.last.Format("2006-01-02"),
			}).Warn("commande datée dans le futur, récence ramenée à 0")
			recency = 0
		}
		profiles = append(profiles, models.Profile{
			CustomerID:  k.customerID,
			ProductID:   k.productID,
			RecencyDays: recency,
			Frequency:   p.frequency,
			Monetary:    p.monetary,
			ScoreLabel:  ScoreLabel(p.frequency, recency),
			ComputedAt:  today,
		})
	}
	sort.Slice(profiles, func(i, j int) bool {
		if profiles[i].CustomerID != profiles[j].CustomerID {
			return profiles[i].CustomerID < profiles[j].CustomerID
		}
		return profiles[i].ProductID < profiles[j].ProductID
	})
	stats.Profiles = len(profiles)

	a.log.WithFields(logrus.Fields{
		"facts":        stats.FactsRead,
		"skipped":      stats.FactsSkipped,
		"future_dated": stats.FutureDated,
		"profiles":     stats.Profiles,
	}).Info("agrégation RFM terminée")
	return profiles, stats, nil
}

// ScoreLabel : Standard par défaut, Loyal si frequency > 3, At Risk si recency > 100 (prioritaire).
func ScoreLabel(frequency, recencyDays int) string {
	label := models.ScoreStandard
	if frequency > loyalFrequency {
		label = models.ScoreLoyal
	}
	if recencyDays > atRiskRecency {
		label = models.ScoreAtRisk
	}
	return label
}
