// Package explain produit le texte de justification d'une recommandation à partir de gabarits.
// Aucun appel réseau ni modèle de langage : le choix du gabarit est tiré d'une source aléatoire
// injectable, ce qui rend la sortie reproductible à graine fixe.
package explain

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"rfm-outreach/pkg/models"
)

// Input regroupe le contexte d'une recommandation.
type Input struct {
	CustomerID   string
	ProductName  string
	DaysUntilDue int
	Confidence   string
	Window       string
}

var reasons = []string{
	"Customer usually buys %s every few weeks.",
	"Based on purchase history, %s should be running low.",
	"High frequency shopper for %s. Good time to restock.",
}

// Generator choisit un gabarit de raison puis ajoute la phrase propre à la fenêtre.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// New : seed == 0 → graine horloge.
func New(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// NewWithSource utilise la source fournie telle quelle.
func NewWithSource(src rand.Source) *Generator {
	return &Generator{rnd: rand.New(src)}
}

// Explain renvoie une phrase courte, jamais vide, contenant le nom du produit.
func (g *Generator) Explain(in Input) string {
	g.mu.Lock()
	i := g.rnd.Intn(len(reasons))
	g.mu.Unlock()

	reason := fmt.Sprintf(reasons[i], in.ProductName)
	switch in.Window {
	case models.WindowEarlyReminder:
		return fmt.Sprintf("Proactive: %s Expected need in %d days.", reason, in.DaysUntilDue)
	case models.WindowFollowUpLate:
		return fmt.Sprintf("Missed Cycle: %s They are %d days overdue.", reason, abs(in.DaysUntilDue))
	case models.WindowChurnRisk:
		return fmt.Sprintf("Win-back: %s Last cycle lapsed %d days ago.", reason, abs(in.DaysUntilDue))
	default:
		return fmt.Sprintf("Routine: %s Confidence is %s.", reason, in.Confidence)
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
