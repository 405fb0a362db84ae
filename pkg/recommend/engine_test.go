package recommend

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfm-outreach/pkg/explain"
	"rfm-outreach/pkg/models"
)

var (
	january = time.Date(2026, 1, 20, 9, 0, 0, 0, time.UTC)
	july    = time.Date(2026, 7, 20, 9, 0, 0, 0, time.UTC)
	october = time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
)

func newEngine() *Engine {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return NewEngine(explain.New(1), l, false)
}

func catalog(products ...models.Product) map[string]models.Product {
	out := map[string]models.Product{}
	for _, p := range products {
		out[p.ProductID] = p
	}
	return out
}

func coffee(cycle int, season string) models.Product {
	return models.Product{ProductID: "P1", Name: "Coffee Beans", Price: 12, ConsumptionCycleDays: cycle, Seasonality: season}
}

func TestClassify_Boundaries(t *testing.T) {
	cases := []struct {
		d      int
		window string
		ok     bool
	}{
		{6, "", false},
		{5, models.WindowEarlyReminder, true},
		{1, models.WindowEarlyReminder, true},
		{0, models.WindowEarlyReminder, true},
		{-1, models.WindowFollowUpLate, true},
		{-7, models.WindowFollowUpLate, true},
		{-8, models.WindowChurnRisk, true},
		{-400, models.WindowChurnRisk, true},
	}
	for _, c := range cases {
		window, ok := Classify(c.d)
		assert.Equal(t, c.ok, ok, "d=%d", c.d)
		assert.Equal(t, c.window, window, "d=%d", c.d)
	}
}

func TestConfidence(t *testing.T) {
	assert.Equal(t, models.ConfidenceHigh, Confidence(5))
	assert.Equal(t, models.ConfidenceHigh, Confidence(12))
	assert.Equal(t, models.ConfidenceMedium, Confidence(4))
	assert.Equal(t, models.ConfidenceMedium, Confidence(2))
	assert.Equal(t, models.ConfidenceLow, Confidence(1))
}

func TestDaysUntilExpected(t *testing.T) {
	assert.Equal(t, 0, DaysUntilExpected(30, 30, october))
	assert.Equal(t, 5, DaysUntilExpected(25, 30, october))
	assert.Equal(t, -8, DaysUntilExpected(38, 30, october))
	// crosses a month end and a leap day
	assert.Equal(t, -1, DaysUntilExpected(61, 60, time.Date(2028, 3, 1, 0, 0, 0, 0, time.UTC)))
}

func TestCurrentSeason(t *testing.T) {
	assert.Equal(t, models.SeasonWinter, CurrentSeason(january))
	assert.Equal(t, models.SeasonWinter, CurrentSeason(time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, models.SeasonSummer, CurrentSeason(july))
	assert.Equal(t, "", CurrentSeason(october))
}

func TestInSeason(t *testing.T) {
	assert.True(t, InSeason(models.SeasonAllYear, ""))
	assert.True(t, InSeason(models.SeasonSummer, models.SeasonSummer))
	assert.False(t, InSeason(models.SeasonSummer, models.SeasonWinter))
	assert.False(t, InSeason(models.SeasonWinter, ""))
	assert.False(t, InSeason("spring", ""))
}

func TestEvaluate_EndToEndScenario(t *testing.T) {
	e := newEngine()
	profiles := []models.Profile{{CustomerID: "C1", ProductID: "P1", RecencyDays: 30, Frequency: 6, Monetary: 72}}

	recs, stats := e.Evaluate(profiles, catalog(coffee(30, models.SeasonAllYear)), october, "run-1")
	require.Len(t, recs, 1)
	r := recs[0]
	assert.Equal(t, 0, r.DaysUntilExpected)
	assert.Equal(t, models.WindowEarlyReminder, r.Window)
	assert.Equal(t, models.ConfidenceHigh, r.Confidence)
	assert.NotEmpty(t, r.Reasoning)
	assert.Contains(t, r.Reasoning, "Coffee Beans")
	assert.Equal(t, "run-1", r.RunID)
	assert.True(t, r.GeneratedDate.Equal(models.Day(october)))
	assert.Equal(t, 1, stats.Recommendations)
}

func TestEvaluate_SummerProductGatedBySeason(t *testing.T) {
	e := newEngine()
	profiles := []models.Profile{{CustomerID: "C1", ProductID: "P1", RecencyDays: 28, Frequency: 3}}
	products := catalog(coffee(30, models.SeasonSummer))

	recs, stats := e.Evaluate(profiles, products, january, "run-jan")
	assert.Empty(t, recs)
	assert.Equal(t, 1, stats.OutOfSeason)

	recs, _ = e.Evaluate(profiles, products, july, "run-jul")
	require.Len(t, recs, 1)
	assert.Equal(t, models.WindowEarlyReminder, recs[0].Window)
	assert.Equal(t, models.ConfidenceMedium, recs[0].Confidence)
}

func TestEvaluate_TooEarlyEmitsNothing(t *testing.T) {
	e := newEngine()
	profiles := []models.Profile{{CustomerID: "C1", ProductID: "P1", RecencyDays: 24, Frequency: 1}}
	recs, stats := e.Evaluate(profiles, catalog(coffee(30, models.SeasonAllYear)), october, "run")
	assert.Empty(t, recs)
	assert.Equal(t, 1, stats.TooEarly)
}

func TestEvaluate_MissingCatalogSkipped(t *testing.T) {
	e := newEngine()
	profiles := []models.Profile{
		{CustomerID: "C1", ProductID: "GONE", RecencyDays: 30, Frequency: 1},
		{CustomerID: "C2", ProductID: "P1", RecencyDays: 40, Frequency: 1},
	}
	recs, stats := e.Evaluate(profiles, catalog(coffee(30, models.SeasonAllYear)), october, "run")
	require.Len(t, recs, 1)
	assert.Equal(t, "C2", recs[0].CustomerID)
	assert.Equal(t, models.WindowChurnRisk, recs[0].Window)
	assert.Equal(t, models.ConfidenceLow, recs[0].Confidence)
	assert.Equal(t, 1, stats.MissingCatalog)
}

func TestEvaluate_LateWindowRationale(t *testing.T) {
	e := newEngine()
	profiles := []models.Profile{{CustomerID: "C1", ProductID: "P1", RecencyDays: 33, Frequency: 2}}
	recs, _ := e.Evaluate(profiles, catalog(coffee(30, models.SeasonAllYear)), october, "run")
	require.Len(t, recs, 1)
	assert.Equal(t, models.WindowFollowUpLate, recs[0].Window)
	assert.Equal(t, -3, recs[0].DaysUntilExpected)
	assert.Contains(t, recs[0].Reasoning, "3 days overdue")
}
