package postgres

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bahalana/floodcast/internal/domain"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db, slog.New(slog.NewTextHandler(io.Discard, nil))), mock
}

func sampleRecord() domain.DailyRecord {
	return domain.DailyRecord{
		Date:               time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC),
		Location:           "Marikina",
		Latitude:           14.65,
		Longitude:          121.10,
		Precipitation:      42.5,
		Temperature:        27.3,
		Humidity:           88,
		WindSpeed:          3.2,
		SatelliteAvailable: true,
		SatelliteKnown:     true,
		ProcessedAt:        time.Date(2024, 7, 16, 1, 0, 0, 0, time.UTC),
	}
}

func TestLoadBatchUpserts(t *testing.T) {
	store, mock := newMockStore(t)
	rec := sampleRecord()

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO daily_records")
	prep.ExpectExec().
		WithArgs(rec.Location, rec.Date, rec.Latitude, rec.Longitude,
			42.5, 27.3, 88.0, 3.2, true, rec.ProcessedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, store.LoadBatch(context.Background(), []domain.DailyRecord{rec}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadBatchStoresMissingValuesAsNull(t *testing.T) {
	store, mock := newMockStore(t)
	rec := sampleRecord()
	rec.Precipitation = math.NaN()
	rec.SatelliteKnown = false
	rec.SatelliteAvailable = false

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO daily_records")
	prep.ExpectExec().
		WithArgs(rec.Location, rec.Date, rec.Latitude, rec.Longitude,
			nil, 27.3, 88.0, 3.2, nil, rec.ProcessedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, store.LoadBatch(context.Background(), []domain.DailyRecord{rec}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadBatchRollsBackOnError(t *testing.T) {
	store, mock := newMockStore(t)
	rec := sampleRecord()

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO daily_records")
	prep.ExpectExec().WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := store.LoadBatch(context.Background(), []domain.DailyRecord{rec})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Marikina|2024-07-15")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadBatchEmpty(t *testing.T) {
	store, mock := newMockStore(t)
	require.NoError(t, store.LoadBatch(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordsRestoresMissingValues(t *testing.T) {
	store, mock := newMockStore(t)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	processed := time.Date(2024, 7, 16, 1, 0, 0, 0, time.UTC)

	columns := []string{
		"location", "date", "latitude", "longitude",
		"precipitation", "temperature", "humidity", "wind_speed",
		"satellite_available", "processed_at",
	}
	rows := sqlmock.NewRows(columns).
		AddRow("Cebu", time.Date(2024, 7, 14, 0, 0, 0, 0, time.UTC), 10.3, 123.9,
			nil, 29.1, nil, 2.0, nil, processed).
		AddRow("Marikina", time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC), 14.65, 121.10,
			42.5, 27.3, 88.0, 3.2, true, processed)
	mock.ExpectQuery("SELECT location, date").
		WithArgs(start, end).
		WillReturnRows(rows)

	records, err := store.Records(context.Background(), start, end)
	require.NoError(t, err)
	require.Len(t, records, 2)

	cebu := records[0]
	assert.Equal(t, "Cebu", cebu.Location)
	assert.True(t, math.IsNaN(cebu.Precipitation))
	assert.True(t, math.IsNaN(cebu.Humidity))
	assert.False(t, cebu.SatelliteKnown)

	marikina := records[1]
	assert.InDelta(t, 42.5, marikina.Precipitation, 1e-9)
	assert.True(t, marikina.SatelliteKnown)
	assert.True(t, marikina.SatelliteAvailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}
