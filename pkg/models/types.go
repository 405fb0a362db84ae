package models

import (
	"time"
)

/*
LOAD → types simples pour charger les données brutes du magasin.
*/

// OrderFact représente une ligne de commande jointe à sa commande (date) et à son produit (prix).
type OrderFact struct {
	OrderID    string    `json:"order_id"`
	CustomerID string    `json:"customer_id" validate:"required"`
	ProductID  string    `json:"product_id" validate:"required"`
	OrderDate  time.Time `json:"order_date" validate:"required"`
	Quantity   int       `json:"quantity" validate:"min=1"`
	UnitPrice  float64   `json:"unit_price" validate:"gte=0"`
}

// Value = quantité × prix unitaire.
func (f OrderFact) Value() float64 {
	return float64(f.Quantity) * f.UnitPrice
}

// Product contient les métadonnées catalogue utiles au moteur de recommandation.
type Product struct {
	ProductID            string  `json:"product_id" validate:"required"`
	Name                 string  `json:"product_name"`
	Price                float64 `json:"price" validate:"gte=0"`
	ConsumptionCycleDays int     `json:"consumption_cycle_days" validate:"min=1"`
	Seasonality          string  `json:"seasonality"`
}

/*
COMPUTE → profils RFM et recommandations produits par le pipeline
*/

const (
	ScoreStandard = "Standard"
	ScoreLoyal    = "Loyal"
	ScoreAtRisk   = "At Risk"
)

// Profile est le profil RFM d'un couple (client, produit).
type Profile struct {
	CustomerID  string    `json:"customer_id"`
	ProductID   string    `json:"product_id"`
	RecencyDays int       `json:"recency_days"` // jours depuis la dernière commande, >= 0
	Frequency   int       `json:"frequency"`    // nombre de lignes, >= 1
	Monetary    float64   `json:"monetary"`     // somme quantité × prix
	ScoreLabel  string    `json:"score_label"`
	ComputedAt  time.Time `json:"computed_at"`
}

// Saisonnalités connues. Toute autre valeur est un tag calendaire libre.
const (
	SeasonAllYear = "all_year"
	SeasonSummer  = "summer"
	SeasonWinter  = "winter"
)

// Fenêtres de contact.
const (
	WindowEarlyReminder = "Early Reminder"
	WindowOnTime        = "On-time" // jamais produit par la classification : d == 0 tombe dans Early Reminder
	WindowFollowUpLate  = "Follow-up (Late)"
	WindowChurnRisk     = "Churn Risk / Win-back"
)

const (
	ConfidenceLow    = "low"
	ConfidenceMedium = "medium"
	ConfidenceHigh   = "high"
)

// Recommendation est une fenêtre de contact recommandée pour un couple (client, produit).
type Recommendation struct {
	RunID             string    `json:"run_id"`
	CustomerID        string    `json:"customer_id"`
	ProductID         string    `json:"product_id"`
	Window            string    `json:"recommended_contact_window"`
	Confidence        string    `json:"confidence_level"`
	Reasoning         string    `json:"reasoning"`
	DaysUntilExpected int       `json:"days_until_expected"`
	GeneratedDate     time.Time `json:"generated_date"`
}

/*
DATES → arithmétique en jours calendaires UTC
*/

// Day tronque t au jour calendaire UTC.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween renvoie le nombre de jours calendaires entiers de from à to (signé).
func DaysBetween(from, to time.Time) int {
	return int(Day(to).Sub(Day(from)).Hours() / 24)
}
