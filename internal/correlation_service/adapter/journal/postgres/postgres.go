package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/langowen/corra/internal/entities"
	"github.com/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS correlation_analyses (
	id           BIGSERIAL PRIMARY KEY,
	start_date   TEXT             NOT NULL,
	end_date     TEXT             NOT NULL,
	usdcad_avg   DOUBLE PRECISION NOT NULL,
	usdcad_high  DOUBLE PRECISION NOT NULL,
	usdcad_low   DOUBLE PRECISION NOT NULL,
	corra_avg    DOUBLE PRECISION NOT NULL,
	corra_high   DOUBLE PRECISION NOT NULL,
	corra_low    DOUBLE PRECISION NOT NULL,
	coefficient  DOUBLE PRECISION NOT NULL,
	created_at   TIMESTAMPTZ      NOT NULL DEFAULT now()
)`

type Storage struct {
	db *pgxpool.Pool
}

func NewStorage(pool *pgxpool.Pool) *Storage {
	return &Storage{db: pool}
}

func InitStorage(ctx context.Context, dsn string, timeout time.Duration) (*Storage, error) {
	const op = "journal.postgres.InitStorage"

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}
	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = 10 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, op)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, op)
	}

	slog.Info("PostgresSQL journal initialized successfully")

	return NewStorage(pool), nil
}

func (s *Storage) SaveAnalysis(ctx context.Context, dr entities.DateRange, res *entities.CorrelationResult) error {
	const op = "journal.postgres.SaveAnalysis"

	query := `
		INSERT INTO correlation_analyses (
			start_date, end_date,
			usdcad_avg, usdcad_high, usdcad_low,
			corra_avg, corra_high, corra_low,
			coefficient
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.db.Exec(ctx, query,
		dr.StartDate, dr.EndDate,
		res.USDCAD.Mean, res.USDCAD.High, res.USDCAD.Low,
		res.CORRA.Mean, res.CORRA.High, res.CORRA.Low,
		res.Coefficient,
	)
	if err != nil {
		return errors.Wrap(err, op)
	}

	return nil
}

func (s *Storage) Close() {
	s.db.Close()
}
