package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bahalana/floodcast/internal/domain"
	"github.com/bahalana/floodcast/internal/observability"
	"github.com/bahalana/floodcast/internal/pipeline"
)

// --- mocks ---

type mockExtractor struct {
	batches [][]domain.RawRecord
	index   atomic.Int64
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, _ int) ([]domain.RawRecord, error) {
	i := int(m.index.Add(1) - 1)
	if i >= len(m.batches) {
		// Block until cancelled, like a Kafka reader waiting for messages.
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.batches[i], nil
}

type mockTransformer struct {
	err error
}

func (m *mockTransformer) Transform(_ context.Context, raw domain.RawRecord) (domain.DailyRecord, error) {
	if m.err != nil {
		return domain.DailyRecord{}, m.err
	}
	return domain.ParseRawRecord(raw)
}

type mockLoader struct {
	loaded []domain.DailyRecord
	err    error
	calls  atomic.Int64
}

func (m *mockLoader) LoadBatch(_ context.Context, records []domain.DailyRecord) error {
	m.calls.Add(1)
	if m.err != nil {
		return m.err
	}
	m.loaded = append(m.loaded, records...)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func makeRawRecord(t *testing.T, location, date string, precip float64, committed *atomic.Int64) domain.RawRecord {
	t.Helper()
	value, err := json.Marshal(map[string]any{
		"date":          date,
		"location":      location,
		"latitude":      14.65,
		"longitude":     121.10,
		"precipitation": precip,
		"temperature":   27.0,
		"humidity":      85.0,
		"wind_speed":    3.0,
	})
	require.NoError(t, err)

	raw := domain.RawRecord{
		Key:   []byte(location),
		Value: value,
		Topic: "raw-climate-daily",
	}
	if committed != nil {
		raw.Commit = func(context.Context) error {
			committed.Add(1)
			return nil
		}
	}
	return raw
}

func newPipeline(e pipeline.BatchExtractor, tf pipeline.Transformer, l pipeline.BatchLoader) *pipeline.Pipeline {
	return pipeline.New(e, tf, l, discardLogger(), observability.NewMetricsForTesting(), 10)
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	var committed atomic.Int64
	batch := []domain.RawRecord{
		makeRawRecord(t, "Marikina", "2024-07-15", 42.5, &committed),
		makeRawRecord(t, "Cebu", "2024-07-15", 3.1, &committed),
	}

	ext := &mockExtractor{batches: [][]domain.RawRecord{batch}}
	ldr := &mockLoader{}
	p := newPipeline(ext, &mockTransformer{}, ldr)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	require.Len(t, ldr.loaded, 2)
	assert.Equal(t, int64(2), committed.Load())
	assert.Equal(t, "Marikina", ldr.loaded[0].Location)
	assert.InDelta(t, 42.5, ldr.loaded[0].Precipitation, 1e-9)
	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ext := &mockExtractor{} // no batches, will block
	ldr := &mockLoader{}
	p := newPipeline(ext, &mockTransformer{}, ldr)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, p.Run(ctx))
	assert.Empty(t, ldr.loaded)
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_TransformErrorSkipsAndCommits(t *testing.T) {
	var committed atomic.Int64
	good := makeRawRecord(t, "Marikina", "2024-07-15", 10, &committed)
	bad := makeRawRecord(t, "Cebu", "not-a-date", 10, &committed)

	ext := &mockExtractor{batches: [][]domain.RawRecord{{good, bad}}}
	ldr := &mockLoader{}
	p := newPipeline(ext, &mockTransformer{}, ldr)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	require.Len(t, ldr.loaded, 1)
	assert.Equal(t, "Marikina", ldr.loaded[0].Location)
	// Both the success and the poison record get committed.
	assert.Equal(t, int64(2), committed.Load())
}

func TestPipeline_Run_LoadErrorRetainsOffsets(t *testing.T) {
	var committed atomic.Int64
	batch := []domain.RawRecord{makeRawRecord(t, "Marikina", "2024-07-15", 10, &committed)}

	ext := &mockExtractor{batches: [][]domain.RawRecord{batch}}
	ldr := &mockLoader{err: errors.New("sink unavailable")}
	p := newPipeline(ext, &mockTransformer{}, ldr)

	ctx, cancel := context.WithTimeout(context.Background(), 400*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.Zero(t, committed.Load())
	assert.GreaterOrEqual(t, ldr.calls.Load(), int64(1))
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestMultiLoader_FansOut(t *testing.T) {
	a := &mockLoader{}
	b := &mockLoader{}
	multi := pipeline.NewMultiLoader(a, nil, b)

	records := []domain.DailyRecord{{Location: "Marikina"}}
	require.NoError(t, multi.LoadBatch(context.Background(), records))

	if diff := cmp.Diff(a.loaded, b.loaded); diff != "" {
		t.Fatalf("loaders diverged (-a +b):\n%s", diff)
	}
	require.Len(t, a.loaded, 1)
}

func TestMultiLoader_JoinsErrors(t *testing.T) {
	failing := &mockLoader{err: errors.New("db down")}
	ok := &mockLoader{}
	multi := pipeline.NewMultiLoader(failing, ok)

	err := multi.LoadBatch(context.Background(), []domain.DailyRecord{{Location: "Cebu"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	// The healthy loader still received the batch.
	assert.Len(t, ok.loaded, 1)
}

func TestTransformer_EnrichesSatelliteFlag(t *testing.T) {
	raw := makeRawRecord(t, "Marikina", "2024-07-15", 80, nil)
	tf := pipeline.NewTransformer(stubChecker{covered: true}, discardLogger())

	rec, err := tf.Transform(context.Background(), raw)
	require.NoError(t, err)
	assert.True(t, rec.SatelliteKnown)
	assert.True(t, rec.SatelliteAvailable)
	assert.False(t, rec.ProcessedAt.IsZero())
}

func TestTransformer_NilCheckerLeavesFlagUnknown(t *testing.T) {
	raw := makeRawRecord(t, "Marikina", "2024-07-15", 80, nil)
	tf := pipeline.NewTransformer(nil, discardLogger())

	rec, err := tf.Transform(context.Background(), raw)
	require.NoError(t, err)
	assert.False(t, rec.SatelliteKnown)
}

type stubChecker struct {
	covered bool
}

func (s stubChecker) Coverage(context.Context, domain.GeoPoint, time.Time) (bool, error) {
	return s.covered, nil
}
