package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/IANDYI/lifeclock-service/internal/core/domain"
)

// BaselineRepository loads the country life expectancy reference table from
// PostgreSQL. This is startup-time reference data only: estimation results
// themselves are never persisted. When the table is missing or empty the
// embedded baseline table stays authoritative.
type BaselineRepository struct {
	db         *sql.DB
	maxRetries int
	retryDelay time.Duration
}

// NewBaselineRepository creates a baseline loader over an open connection
func NewBaselineRepository(db *sql.DB) *BaselineRepository {
	return &BaselineRepository{
		db:         db,
		maxRetries: 3,
		retryDelay: 1 * time.Second,
	}
}

// EnsureSchema creates the country_baselines table when absent and seeds it
// from the embedded reference data the first time
func (r *BaselineRepository) EnsureSchema(ctx context.Context, seed *domain.BaselineTable) error {
	schema := `
	CREATE TABLE IF NOT EXISTS country_baselines (
		country TEXT PRIMARY KEY,
		male_years NUMERIC NOT NULL,
		female_years NUMERIC NOT NULL
	);`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create country_baselines table: %w", err)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM country_baselines`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count country baselines: %w", err)
	}
	if count > 0 {
		return nil
	}

	log.Println("Seeding country_baselines from embedded reference table...")
	rows, err := seedRows(seed)
	if err != nil {
		return err
	}
	for country, b := range rows {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO country_baselines (country, male_years, female_years) VALUES ($1, $2, $3)`,
			country, b.Male, b.Female)
		if err != nil {
			return fmt.Errorf("failed to seed baseline for %s: %w", country, err)
		}
	}
	return nil
}

// Load reads the full reference table, retrying transient failures
func (r *BaselineRepository) Load(ctx context.Context) (*domain.BaselineTable, error) {
	var table *domain.BaselineTable
	err := r.executeWithRetry(func() error {
		rows, err := r.db.QueryContext(ctx,
			`SELECT country, male_years, female_years FROM country_baselines`)
		if err != nil {
			return err
		}
		defer rows.Close()

		entries := make(map[string]domain.CountryBaseline)
		for rows.Next() {
			var country string
			var b domain.CountryBaseline
			if err := rows.Scan(&country, &b.Male, &b.Female); err != nil {
				return err
			}
			entries[country] = b
		}
		if err := rows.Err(); err != nil {
			return err
		}
		table = domain.NewBaselineTable(entries)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return table, nil
}

// executeWithRetry runs a database operation with retry logic
func (r *BaselineRepository) executeWithRetry(operation func() error) error {
	var lastErr error
	for i := 0; i < r.maxRetries; i++ {
		if err := operation(); err == nil {
			return nil
		} else {
			lastErr = err
		}
		if i < r.maxRetries-1 {
			time.Sleep(r.retryDelay)
		}
	}
	return fmt.Errorf("operation failed after %d retries: %w", r.maxRetries, lastErr)
}

// seedRows extracts the rows of the embedded table for seeding
func seedRows(seed *domain.BaselineTable) (map[string]domain.CountryBaseline, error) {
	if seed == nil || seed.Len() == 0 {
		return nil, fmt.Errorf("empty seed baseline table")
	}
	return seed.Entries(), nil
}
