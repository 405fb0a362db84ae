package models

import (
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate vérifie les invariants d'une ligne de commande (quantité >= 1, prix >= 0, ids renseignés).
func (f OrderFact) Validate() error {
	return validatorInstance().Struct(f)
}

// Validate vérifie les invariants d'une fiche produit (cycle >= 1, prix >= 0).
func (p Product) Validate() error {
	return validatorInstance().Struct(p)
}
