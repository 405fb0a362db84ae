package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"rfm-outreach/pkg/calculator"
	"rfm-outreach/pkg/database"
	"rfm-outreach/pkg/recommend"
)

// ErrNoData est renvoyé (enveloppé) quand le ledger ne contient aucune ligne exploitable.
var ErrNoData = calculator.ErrNoData

const (
	StageAggregation    = "aggregation"
	StageRecommendation = "recommendation"
)

// StageError indique l'étape du pipeline qui a échoué.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Summary est le compte rendu d'un run complet.
type Summary struct {
	RunID           string           `json:"run_id"`
	Profiles        int              `json:"profiles"`
	Recommendations int              `json:"recommendations"`
	Skipped         int              `json:"skipped"` // profils sans fiche catalogue
	NoData          bool             `json:"no_data"`
	Aggregation     calculator.Stats `json:"-"`
	Engine          recommend.Stats  `json:"-"`
	Duration        time.Duration    `json:"duration_ns"`
}

// Pipeline enchaîne agrégation RFM puis moteur de recommandation sur un store injecté.
// Les runs d'un même Pipeline sont sérialisés.
type Pipeline struct {
	store      database.Store
	aggregator *calculator.Aggregator
	engine     *recommend.Engine
	log        logrus.FieldLogger
	now        func() time.Time

	mu sync.Mutex
}

// Option configure un Pipeline.
type Option func(*Pipeline)

// WithClock fixe la source de "maintenant".
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

func New(store database.Store, aggregator *calculator.Aggregator, engine *recommend.Engine, log logrus.FieldLogger, opts ...Option) *Pipeline {
	if log == nil {
		log = logrus.StandardLogger()
	}
	p := &Pipeline{
		store:      store,
		aggregator: aggregator,
		engine:     engine,
		log:        log,
		now:        time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// RunRFMAnalysis recalcule et remplace tous les profils. Renvoie le nombre de profils,
// ou une erreur enveloppant ErrNoData sans rien écrire.
func (p *Pipeline) RunRFMAnalysis(ctx context.Context) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	stats, err := p.runRFM(ctx, p.log)
	return stats.Profiles, err
}

// RunRecommendationEngine recalcule et remplace toutes les recommandations.
func (p *Pipeline) RunRecommendationEngine(ctx context.Context) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	stats, err := p.runEngine(ctx, uuid.NewString(), p.log)
	return stats.Recommendations, err
}

// Run exécute agrégation puis recommandations, dans cet ordre, comme un seul lot.
// ErrNoData arrête le run avant le moteur : profils et recommandations restent inchangés.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := time.Now()
	runID := uuid.NewString()
	log := p.log.WithField("run_id", runID)
	sum := Summary{RunID: runID}
	log.Info("pipeline démarré")

	agg, err := p.runRFM(ctx, log)
	sum.Aggregation = agg
	sum.Profiles = agg.Profiles
	if err != nil {
		sum.NoData = errors.Is(err, ErrNoData)
		sum.Duration = time.Since(start)
		return sum, err
	}

	eng, err := p.runEngine(ctx, runID, log)
	sum.Engine = eng
	sum.Recommendations = eng.Recommendations
	sum.Skipped = eng.MissingCatalog
	sum.Duration = time.Since(start)
	if err != nil {
		return sum, err
	}

	log.WithFields(logrus.Fields{
		"profiles":        sum.Profiles,
		"recommendations": sum.Recommendations,
		"skipped":         sum.Skipped,
		"duration":        sum.Duration.String(),
	}).Info("pipeline terminé")
	return sum, nil
}

func (p *Pipeline) runRFM(ctx context.Context, log logrus.FieldLogger) (calculator.Stats, error) {
	facts, err := p.store.LoadOrderFacts(ctx)
	if err != nil {
		return calculator.Stats{}, &StageError{Stage: StageAggregation, Err: err}
	}
	profiles, stats, err := p.aggregator.Aggregate(facts, p.now())
	if err != nil {
		if errors.Is(err, ErrNoData) {
			log.WithField("facts", stats.FactsRead).Warn("aucune donnée de commande, profils inchangés")
		}
		return stats, &StageError{Stage: StageAggregation, Err: err}
	}
	if err := p.store.ReplaceProfiles(ctx, profiles); err != nil {
		return stats, &StageError{Stage: StageAggregation, Err: err}
	}
	return stats, nil
}

func (p *Pipeline) runEngine(ctx context.Context, runID string, log logrus.FieldLogger) (recommend.Stats, error) {
	profiles, err := p.store.LoadProfiles(ctx)
	if err != nil {
		return recommend.Stats{}, &StageError{Stage: StageRecommendation, Err: err}
	}
	products, err := p.store.LoadProducts(ctx)
	if err != nil {
		return recommend.Stats{}, &StageError{Stage: StageRecommendation, Err: err}
	}
	for id, prod := range products {
		if err := prod.Validate(); err != nil {
			log.WithField("product_id", id).Warnf("fiche produit invalide, ignorée: %v", err)
			delete(products, id)
		}
	}

	recs, stats := p.engine.Evaluate(profiles, products, p.now(), runID)
	if err := p.store.ReplaceRecommendations(ctx, recs); err != nil {
		return stats, &StageError{Stage: StageRecommendation, Err: err}
	}
	return stats, nil
}
