package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDaysBetween(t *testing.T) {
	from := time.Date(2025, 3, 1, 23, 59, 0, 0, time.UTC)
	to := time.Date(2025, 3, 31, 0, 1, 0, 0, time.UTC)
	assert.Equal(t, 30, DaysBetween(from, to))
	assert.Equal(t, -30, DaysBetween(to, from))
	assert.Equal(t, 0, DaysBetween(to, to))
}

func TestDay_TruncatesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*3600)
	in := time.Date(2025, 7, 1, 1, 0, 0, 0, loc) // 2025-06-30 23:00 UTC
	assert.Equal(t, time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC), Day(in))
}

func TestOrderFactValidate(t *testing.T) {
	ok := OrderFact{CustomerID: "C1", ProductID: "P1", OrderDate: time.Now(), Quantity: 1, UnitPrice: 0}
	assert.NoError(t, ok.Validate())

	noQty := ok
	noQty.Quantity = 0
	assert.Error(t, noQty.Validate())

	negPrice := ok
	negPrice.UnitPrice = -1
	assert.Error(t, negPrice.Validate())

	noCustomer := ok
	noCustomer.CustomerID = ""
	assert.Error(t, noCustomer.Validate())

	noDate := ok
	noDate.OrderDate = time.Time{}
	assert.Error(t, noDate.Validate())
}

func TestProductValidate(t *testing.T) {
	p := Product{ProductID: "P1", Name: "Coffee", Price: 10, ConsumptionCycleDays: 30, Seasonality: SeasonAllYear}
	assert.NoError(t, p.Validate())

	p.ConsumptionCycleDays = 0
	assert.Error(t, p.Validate())
}

func TestOrderFactValue(t *testing.T) {
	f := OrderFact{Quantity: 3, UnitPrice: 2.5}
	assert.InDelta(t, 7.5, f.Value(), 1e-9)
}
