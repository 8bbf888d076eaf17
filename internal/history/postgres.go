package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"mediaqa/internal/models"
	"mediaqa/internal/utils"
)

// PostgresStore keeps snapshots in a shared Postgres table, for
// deployments where several replicas score the same markets.
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres connects, waits for the database to come up, and runs
// the schema migration.
func OpenPostgres(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	// el contenedor de pg puede tardar en aceptar conexiones
	bo := utils.NewBackoff(500*time.Millisecond, 5)
	if err := bo.Do(func(int) error { return db.Ping() }); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	ps := &PostgresStore{db: db}
	if err := ps.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return ps, nil
}

func (p *PostgresStore) migrate() error {
	_, err := p.db.Exec(`
		CREATE TABLE IF NOT EXISTS score_snapshots (
			market     VARCHAR(10)  NOT NULL,
			year       INTEGER      NOT NULL,
			month      INTEGER      NOT NULL,
			dimension  VARCHAR(40)  NOT NULL,
			score      NUMERIC(8,2) NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			PRIMARY KEY (market, year, month, dimension)
		);

		CREATE INDEX IF NOT EXISTS idx_snapshots_series ON score_snapshots(market, dimension, year, month);
	`)
	return err
}

func (p *PostgresStore) Upsert(ctx context.Context, s models.Snapshot) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO score_snapshots (market, year, month, dimension, score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (market, year, month, dimension)
		DO UPDATE SET score = EXCLUDED.score, created_at = EXCLUDED.created_at
	`, s.Market, s.Year, s.Month, s.Dimension, s.Score, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: upsert: %w", err)
	}
	return nil
}

func (p *PostgresStore) Query(ctx context.Context, f Filter, limit int) ([]models.Snapshot, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.Market != "" {
		where = append(where, "market = "+arg(f.Market))
	}
	if f.Year != 0 {
		where = append(where, "year = "+arg(f.Year))
	}
	if f.Month != 0 {
		where = append(where, "month = "+arg(f.Month))
	}
	if f.Dimension != "" {
		where = append(where, "dimension = "+arg(f.Dimension))
	}

	q := fmt.Sprintf(`
		SELECT market, year, month, dimension, score, created_at
		FROM score_snapshots
		WHERE %s
		ORDER BY year DESC, month DESC, market, dimension
	`, strings.Join(where, " AND "))
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: query: %w", err)
	}
	defer rows.Close()

	var out []models.Snapshot
	for rows.Next() {
		var s models.Snapshot
		if err := rows.Scan(&s.Market, &s.Year, &s.Month, &s.Dimension, &s.Score, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *PostgresStore) Trend(ctx context.Context, market, dimension string, lookback int) ([]models.Snapshot, error) {
	return p.Query(ctx, Filter{Market: market, Dimension: dimension}, lookback)
}

func (p *PostgresStore) Clear(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, "DELETE FROM score_snapshots"); err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}
	return nil
}

func (p *PostgresStore) Close() error { return p.db.Close() }
