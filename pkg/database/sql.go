package database

import (
	"context"
	"database/sql"
	"fmt"

	"rfm-outreach/pkg/models"
)

// SQLStore implémente Store au-dessus de database/sql (MySQL/MariaDB, Postgres, SQLite).
type SQLStore struct {
	db      *sql.DB
	dialect string
}

// NewSQLStore crée le store et applique le schéma.
func NewSQLStore(ctx context.Context, db *sql.DB, dialect string) (*SQLStore, error) {
	s := &SQLStore{db: db, dialect: dialect}
	if err := s.migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// OpenStore = Open + NewSQLStore.
func OpenStore(ctx context.Context, dsn string) (*SQLStore, error) {
	db, dialect, _, err := Open(dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	s, err := NewSQLStore(ctx, db, dialect)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) Dialect() string {
	return s.dialect
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		product_id VARCHAR(64) PRIMARY KEY,
		product_name VARCHAR(255) NOT NULL,
		price DOUBLE PRECISION NOT NULL DEFAULT 10,
		consumption_cycle_days INTEGER NOT NULL DEFAULT 30,
		seasonality VARCHAR(32) NOT NULL DEFAULT 'all_year'
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		order_id VARCHAR(64) PRIMARY KEY,
		customer_id VARCHAR(64) NOT NULL,
		order_date DATE NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		order_id VARCHAR(64) NOT NULL,
		line_no INTEGER NOT NULL,
		product_id VARCHAR(64) NOT NULL,
		quantity INTEGER NOT NULL,
		unit_price DOUBLE PRECISION NULL,
		PRIMARY KEY (order_id, line_no)
	)`,
	`CREATE TABLE IF NOT EXISTS rfm_profiles (
		customer_id VARCHAR(64) NOT NULL,
		product_id VARCHAR(64) NOT NULL,
		recency_days INTEGER NOT NULL,
		frequency INTEGER NOT NULL,
		monetary DOUBLE PRECISION NOT NULL,
		score_label VARCHAR(32) NOT NULL,
		computed_at DATE NOT NULL,
		PRIMARY KEY (customer_id, product_id)
	)`,
	`CREATE TABLE IF NOT EXISTS recommendations (
		run_id VARCHAR(36) NOT NULL,
		customer_id VARCHAR(64) NOT NULL,
		product_id VARCHAR(64) NOT NULL,
		contact_window VARCHAR(64) NOT NULL,
		confidence VARCHAR(16) NOT NULL,
		reasoning TEXT NOT NULL,
		days_until_expected INTEGER NOT NULL,
		generated_date DATE NOT NULL,
		PRIMARY KEY (customer_id, product_id)
	)`,
}

func (s *SQLStore) migrate(ctx context.Context) error {
	for _, q := range schema {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

// LoadOrderFacts : jointure explicite ligne → commande (date) → produit (prix par défaut).
func (s *SQLStore) LoadOrderFacts(ctx context.Context) ([]models.OrderFact, error) {
	const q = `
		SELECT o.customer_id, oi.product_id, o.order_id, o.order_date,
		       oi.quantity, COALESCE(oi.unit_price, p.price) AS unit_price
		FROM order_items oi
		JOIN orders o ON o.order_id = oi.order_id
		JOIN products p ON p.product_id = oi.product_id
		ORDER BY o.customer_id, oi.product_id, o.order_date`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: load order facts: %w", ErrStorage, err)
	}
	defer rows.Close()

	var facts []models.OrderFact
	for rows.Next() {
		var f models.OrderFact
		if err := rows.Scan(&f.CustomerID, &f.ProductID, &f.OrderID, &f.OrderDate, &f.Quantity, &f.UnitPrice); err != nil {
			return nil, fmt.Errorf("%w: scan order fact: %w", ErrStorage, err)
		}
		facts = append(facts, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: load order facts: %w", ErrStorage, err)
	}
	return facts, nil
}

func (s *SQLStore) LoadProducts(ctx context.Context) (map[string]models.Product, error) {
	const q = `SELECT product_id, product_name, price, consumption_cycle_days, seasonality FROM products`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: load products: %w", ErrStorage, err)
	}
	defer rows.Close()

	out := map[string]models.Product{}
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ProductID, &p.Name, &p.Price, &p.ConsumptionCycleDays, &p.Seasonality); err != nil {
			return nil, fmt.Errorf("%w: scan product: %w", ErrStorage, err)
		}
		out[p.ProductID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: load products: %w", ErrStorage, err)
	}
	return out, nil
}

func (s *SQLStore) LoadProfiles(ctx context.Context) ([]models.Profile, error) {
	const q = `
		SELECT customer_id, product_id, recency_days, frequency, monetary, score_label, computed_at
		FROM rfm_profiles
		ORDER BY customer_id, product_id`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: load profiles: %w", ErrStorage, err)
	}
	defer rows.Close()

	var out []models.Profile
	for rows.Next() {
		var p models.Profile
		if err := rows.Scan(&p.CustomerID, &p.ProductID, &p.RecencyDays, &p.Frequency, &p.Monetary, &p.ScoreLabel, &p.ComputedAt); err != nil {
			return nil, fmt.Errorf("%w: scan profile: %w", ErrStorage, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: load profiles: %w", ErrStorage, err)
	}
	return out, nil
}

func (s *SQLStore) LoadRecommendations(ctx context.Context) ([]models.Recommendation, error) {
	const q = `
		SELECT run_id, customer_id, product_id, contact_window, confidence, reasoning,
		       days_until_expected, generated_date
		FROM recommendations
		ORDER BY customer_id, product_id`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: load recommendations: %w", ErrStorage, err)
	}
	defer rows.Close()

	var out []models.Recommendation
	for rows.Next() {
		var r models.Recommendation
		if err := rows.Scan(&r.RunID, &r.CustomerID, &r.ProductID, &r.Window, &r.Confidence, &r.Reasoning,
			&r.DaysUntilExpected, &r.GeneratedDate); err != nil {
			return nil, fmt.Errorf("%w: scan recommendation: %w", ErrStorage, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: load recommendations: %w", ErrStorage, err)
	}
	return out, nil
}

// ReplaceProfiles vide puis repeuple rfm_profiles dans une seule transaction.
func (s *SQLStore) ReplaceProfiles(ctx context.Context, profiles []models.Profile) error {
	return s.replace(ctx, "rfm_profiles", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, rebind(s.dialect, `
			INSERT INTO rfm_profiles (customer_id, product_id, recency_days, frequency, monetary, score_label, computed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`))
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, p := range profiles {
			if _, err := stmt.ExecContext(ctx, p.CustomerID, p.ProductID, p.RecencyDays, p.Frequency,
				p.Monetary, p.ScoreLabel, models.Day(p.ComputedAt)); err != nil {
				return fmt.Errorf("insert profile %s/%s: %w", p.CustomerID, p.ProductID, err)
			}
		}
		return nil
	})
}

// ReplaceRecommendations vide puis repeuple recommendations dans une seule transaction.
func (s *SQLStore) ReplaceRecommendations(ctx context.Context, recs []models.Recommendation) error {
	return s.replace(ctx, "recommendations", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, rebind(s.dialect, `
			INSERT INTO recommendations (run_id, customer_id, product_id, contact_window, confidence, reasoning,
			                             days_until_expected, generated_date)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`))
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, r := range recs {
			if _, err := stmt.ExecContext(ctx, r.RunID, r.CustomerID, r.ProductID, r.Window, r.Confidence,
				r.Reasoning, r.DaysUntilExpected, models.Day(r.GeneratedDate)); err != nil {
				return fmt.Errorf("insert recommendation %s/%s: %w", r.CustomerID, r.ProductID, err)
			}
		}
		return nil
	})
}

func (s *SQLStore) replace(ctx context.Context, table string, insert func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin %s: %w", ErrStorage, table, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Postgres en READ COMMITTED ne voit pas les lignes insérées par un run concurrent :
	// verrou exclusif sur la table jusqu'au commit.
	if s.dialect == DialectPostgres {
		if _, err = tx.ExecContext(ctx, "LOCK TABLE "+table+" IN EXCLUSIVE MODE"); err != nil {
			return fmt.Errorf("%w: lock %s: %w", ErrStorage, table, err)
		}
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("%w: clear %s: %w", ErrStorage, table, err)
	}
	if err = insert(tx); err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit %s: %w", ErrStorage, table, err)
	}
	return nil
}

// SaveProducts insère ou remplace des fiches produit.
func (s *SQLStore) SaveProducts(ctx context.Context, products []models.Product) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin products: %w", ErrStorage, err)
	}
	defer tx.Rollback()

	for _, p := range products {
		if _, err := tx.ExecContext(ctx, rebind(s.dialect, `DELETE FROM products WHERE product_id = ?`), p.ProductID); err != nil {
			return fmt.Errorf("%w: delete product %s: %w", ErrStorage, p.ProductID, err)
		}
		if _, err := tx.ExecContext(ctx, rebind(s.dialect, `
			INSERT INTO products (product_id, product_name, price, consumption_cycle_days, seasonality)
			VALUES (?, ?, ?, ?, ?)`),
			p.ProductID, p.Name, p.Price, p.ConsumptionCycleDays, p.Seasonality); err != nil {
			return fmt.Errorf("%w: insert product %s: %w", ErrStorage, p.ProductID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit products: %w", ErrStorage, err)
	}
	return nil
}

// SaveOrderLines enregistre des commandes : les faits d'un même OrderID forment une commande,
// dans l'ordre reçu. Le prix unitaire est stocké sur la ligne.
func (s *SQLStore) SaveOrderLines(ctx context.Context, facts []models.OrderFact) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin orders: %w", ErrStorage, err)
	}
	defer tx.Rollback()

	lines := map[string]int{}
	for _, f := range facts {
		if lines[f.OrderID] == 0 {
			if _, err := tx.ExecContext(ctx, rebind(s.dialect, `INSERT INTO orders (order_id, customer_id, order_date) VALUES (?, ?, ?)`),
				f.OrderID, f.CustomerID, models.Day(f.OrderDate)); err != nil {
				return fmt.Errorf("%w: insert order %s: %w", ErrStorage, f.OrderID, err)
			}
		}
		lines[f.OrderID]++
		if _, err := tx.ExecContext(ctx, rebind(s.dialect, `
			INSERT INTO order_items (order_id, line_no, product_id, quantity, unit_price) VALUES (?, ?, ?, ?, ?)`),
			f.OrderID, lines[f.OrderID], f.ProductID, f.Quantity, f.UnitPrice); err != nil {
			return fmt.Errorf("%w: insert order item %s: %w", ErrStorage, f.OrderID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit orders: %w", ErrStorage, err)
	}
	return nil
}
