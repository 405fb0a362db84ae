package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

// Configuration contient les paramètres statiques de l'application.
type Configuration struct {
	DSN         string `env:"RFM_DSN" envDefault:"sqlite://./rfm.db"` // sqlite://, mysql://, mariadb://, postgres://
	LogLevel    string `env:"RFM_LOG_LEVEL" envDefault:"info"`        // debug, info, warn, error
	LogFormat   string `env:"RFM_LOG_FORMAT" envDefault:"text"`       // text ou json
	LogFile     string `env:"RFM_LOG_FILE"`                           // vide = stdout uniquement
	HTTPAddr    string `env:"RFM_HTTP_ADDR" envDefault:":8080"`       // adresse du serveur (-serve)
	CORSOrigins string `env:"RFM_CORS_ORIGINS" envDefault:"*"`        // séparées par des virgules
	ExplainSeed int64  `env:"RFM_EXPLAIN_SEED" envDefault:"0"`        // 0 = graine horloge
	Progress    bool   `env:"RFM_PROGRESS" envDefault:"true"`         // barre de progression
}

// Load lit le fichier .env (optionnel) puis les variables d'environnement.
// files vides → ".env" du répertoire courant s'il existe.
func Load(files ...string) (*Configuration, error) {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); err == nil {
			files = []string{".env"}
		}
	}
	if len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}

	cfg := Configuration{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// Validate rejette les valeurs inutilisables.
func (c *Configuration) Validate() error {
	if c.DSN == "" {
		return errors.New("RFM_DSN vide")
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("RFM_LOG_FORMAT inconnu: %q", c.LogFormat)
	}
	return nil
}
