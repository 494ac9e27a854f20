// Package postgres persists processed daily records for model training.
// The store is an optional pipeline destination; the training CLI reads the
// full history back out of it.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math"
	"time"

	_ "github.com/lib/pq"

	"github.com/bahalana/floodcast/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS daily_records (
	location            TEXT             NOT NULL,
	date                DATE             NOT NULL,
	latitude            DOUBLE PRECISION NOT NULL,
	longitude           DOUBLE PRECISION NOT NULL,
	precipitation       DOUBLE PRECISION,
	temperature         DOUBLE PRECISION,
	humidity            DOUBLE PRECISION,
	wind_speed          DOUBLE PRECISION,
	satellite_available BOOLEAN,
	processed_at        TIMESTAMPTZ      NOT NULL,
	PRIMARY KEY (location, date)
)`

const upsertQuery = `
INSERT INTO daily_records (
	location, date, latitude, longitude,
	precipitation, temperature, humidity, wind_speed,
	satellite_available, processed_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (location, date) DO UPDATE SET
	latitude = EXCLUDED.latitude,
	longitude = EXCLUDED.longitude,
	precipitation = EXCLUDED.precipitation,
	temperature = EXCLUDED.temperature,
	humidity = EXCLUDED.humidity,
	wind_speed = EXCLUDED.wind_speed,
	satellite_available = EXCLUDED.satellite_available,
	processed_at = EXCLUDED.processed_at`

const selectQuery = `
SELECT location, date, latitude, longitude,
       precipitation, temperature, humidity, wind_speed,
       satellite_available, processed_at
FROM daily_records
WHERE date >= $1 AND date <= $2
ORDER BY location, date`

// Store writes and reads daily records in Postgres.
// It implements pipeline.BatchLoader.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open connects to Postgres and verifies the connection.
func Open(dsn string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	return NewStore(db, logger), nil
}

// NewStore wraps an existing connection, useful for tests.
func NewStore(db *sql.DB, logger *slog.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// EnsureSchema creates the daily_records table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// LoadBatch upserts records keyed on (location, date), so pipeline replays
// overwrite rather than duplicate. The batch runs in one transaction.
func (s *Store) LoadBatch(ctx context.Context, records []domain.DailyRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert batch: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, upsertQuery)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		_, err := stmt.ExecContext(ctx,
			rec.Location,
			rec.Date,
			rec.Latitude,
			rec.Longitude,
			nullFloat(rec.Precipitation),
			nullFloat(rec.Temperature),
			nullFloat(rec.Humidity),
			nullFloat(rec.WindSpeed),
			nullBool(rec.SatelliteAvailable, rec.SatelliteKnown),
			rec.ProcessedAt,
		)
		if err != nil {
			return fmt.Errorf("upsert record %s: %w", rec.Key(), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert batch: %w", err)
	}
	return nil
}

// Records returns all stored records in the inclusive date range, ordered
// by location then date, the order the feature builder expects.
func (s *Store) Records(ctx context.Context, start, end time.Time) ([]domain.DailyRecord, error) {
	rows, err := s.db.QueryContext(ctx, selectQuery, start, end)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []domain.DailyRecord
	for rows.Next() {
		var (
			rec       domain.DailyRecord
			precip    sql.NullFloat64
			temp      sql.NullFloat64
			humidity  sql.NullFloat64
			wind      sql.NullFloat64
			satellite sql.NullBool
		)
		err := rows.Scan(
			&rec.Location, &rec.Date, &rec.Latitude, &rec.Longitude,
			&precip, &temp, &humidity, &wind,
			&satellite, &rec.ProcessedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.Precipitation = floatOrNaN(precip)
		rec.Temperature = floatOrNaN(temp)
		rec.Humidity = floatOrNaN(humidity)
		rec.WindSpeed = floatOrNaN(wind)
		rec.SatelliteKnown = satellite.Valid
		rec.SatelliteAvailable = satellite.Valid && satellite.Bool
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// nullFloat maps the domain's NaN missing-value convention onto SQL NULL.
func nullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func nullBool(v, known bool) sql.NullBool {
	if !known {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: v, Valid: true}
}

func floatOrNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
