package model

import (
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bahalana/floodcast/internal/domain"
)

// testParams keeps unit-test fits fast; production sizing is covered by
// DefaultParams and the training CLI.
func testParams() Params {
	return Params{
		NumTrees:        40,
		MaxDepth:        4,
		LearningRate:    0.3,
		Subsample:       1.0,
		ColsampleByTree: 1.0,
		MinChildWeight:  1,
		Gamma:           0,
		RegAlpha:        0.01,
		RegLambda:       1.0,
		Seed:            42,
	}
}

// labeledRow synthesizes a fully populated feature row whose engineered
// values track the given precipitation, so the signal is learnable.
func labeledRow(precip float64, flood int) domain.LabeledRecord {
	var r domain.FeatureRow
	r.Location = "synthetic"
	r.Precipitation = precip
	r.Precip3DaySum = precip * 2.5
	r.Precip7DaySum = precip * 5
	r.Precip7DayMax = precip * 1.2
	r.Precip14DayAvg = precip * 0.8
	r.IsRainyDay = 1
	r.ConsecutiveRainyDays = 2
	r.PrecipRateOfChange = precip * 0.1
	r.Temperature = 27
	r.Temp7DayAvg = 27
	r.Humidity = 60 + precip/5
	r.Humidity7DayAvg = 65
	r.WindSpeed = 3
	r.DayOfYear = 200
	r.Month = 7
	r.IsWetSeason = 1
	r.PrecipHumidityInteraction = precip * r.Humidity
	r.PrecipLag1 = precip * 0.9
	r.PrecipLag3 = precip * 0.7
	r.TempLag1 = 27
	r.TempLag3 = 27
	r.HumidityLag1 = 65
	r.HumidityLag3 = 65
	return domain.LabeledRecord{FeatureRow: r, FloodOccurred: flood}
}

// separableDataset labels every row with a clean precipitation threshold.
func separableDataset(n int, seed int64) []domain.LabeledRecord {
	rng := rand.New(rand.NewSource(seed))
	rows := make([]domain.LabeledRecord, n)
	for i := range rows {
		precip := rng.Float64() * 100
		flood := 0
		if precip > 60 {
			flood = 1
		}
		rows[i] = labeledRow(precip, flood)
	}
	return rows
}

func TestTrainLearnsSeparableSignal(t *testing.T) {
	result, err := Train(separableDataset(300, 7), testParams())
	require.NoError(t, err)

	assert.Greater(t, result.Report.Accuracy, 0.9)
	assert.Greater(t, result.Report.CVMeanF1, 0.8)
	assert.Empty(t, result.Metadata.Warnings)

	wet, err := result.Model.PredictProba(mustVector(t, labeledRow(95, 0)))
	require.NoError(t, err)
	dry, err := result.Model.PredictProba(mustVector(t, labeledRow(5, 0)))
	require.NoError(t, err)
	assert.Greater(t, wet, 0.5)
	assert.Less(t, dry, 0.5)
}

func TestTrainImportancesFavorPrecipitationFamily(t *testing.T) {
	result, err := Train(separableDataset(300, 11), testParams())
	require.NoError(t, err)

	sum := 0.0
	for _, v := range result.Metadata.FeatureImportances {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)

	// Constant features carry no signal and must rank at zero.
	assert.Zero(t, result.Metadata.FeatureImportances["month"])
}

func TestTrainFewPositivesWarns(t *testing.T) {
	rows := make([]domain.LabeledRecord, 0, 60)
	for i := 0; i < 55; i++ {
		rows = append(rows, labeledRow(float64(i%40), 0))
	}
	for i := 0; i < 5; i++ {
		rows = append(rows, labeledRow(90+float64(i), 1))
	}

	result, err := Train(rows, testParams())
	require.NoError(t, err)
	require.NotEmpty(t, result.Metadata.Warnings)
	assert.Contains(t, result.Metadata.Warnings[0], "5 positive labels")
	assert.Equal(t, 5, result.Metadata.PositiveLabels)
}

func TestTrainSingleClassFails(t *testing.T) {
	rows := make([]domain.LabeledRecord, 30)
	for i := range rows {
		rows[i] = labeledRow(float64(i), 0)
	}
	_, err := Train(rows, testParams())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "both classes")
}

func TestTrainAllRowsIncomplete(t *testing.T) {
	rows := make([]domain.LabeledRecord, 10)
	for i := range rows {
		rows[i] = labeledRow(float64(i*10), i%2)
		rows[i].Temperature = math.NaN()
	}
	_, err := Train(rows, testParams())
	require.ErrorIs(t, err, domain.ErrEmptyInput)
}

func TestTrainDropsIncompleteRows(t *testing.T) {
	rows := separableDataset(100, 3)
	rows[0].PrecipLag3 = math.NaN()
	rows[1].Temp7DayAvg = math.NaN()

	result, err := Train(rows, testParams())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Metadata.DroppedRows)
	assert.Equal(t, 98, result.Metadata.TrainingRows+result.Metadata.TestRows)
}

func TestStratifiedSplitPreservesRatio(t *testing.T) {
	y := make([]float64, 100)
	for i := 0; i < 20; i++ {
		y[i] = 1
	}
	train, test := stratifiedSplit(y, 0.2, 1)

	assert.Len(t, test, 20)
	assert.Len(t, train, 80)
	testPos := 0
	for _, i := range test {
		if y[i] == 1 {
			testPos++
		}
	}
	assert.Equal(t, 4, testPos)
}

func TestPredictProbaVectorMismatch(t *testing.T) {
	result, err := Train(separableDataset(100, 5), testParams())
	require.NoError(t, err)

	_, err = result.Model.PredictProba([]float64{1, 2, 3})
	require.ErrorIs(t, err, domain.ErrFeatureMismatch)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	result, err := Train(separableDataset(150, 9), testParams())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "flood.model")
	require.NoError(t, Save(path, result.Model, result.Metadata))

	loaded, meta, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, domain.FeatureColumns(), meta.FeatureColumns)
	assert.NotEmpty(t, meta.ModelID)
	assert.False(t, meta.TrainedAt.IsZero())

	vec := mustVector(t, labeledRow(95, 0))
	want, err := result.Model.PredictProba(vec)
	require.NoError(t, err)
	got, err := loaded.PredictProba(vec)
	require.NoError(t, err)
	assert.InDelta(t, want, got, 1e-12)
}

func TestLoadRejectsMismatchedMetadata(t *testing.T) {
	result, err := Train(separableDataset(100, 13), testParams())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "flood.model")
	require.NoError(t, Save(path, result.Model, result.Metadata))

	// Simulate a metadata sidecar from a different training run.
	require.NoError(t, os.WriteFile(MetadataPath(path),
		[]byte(`{"feature_columns":["precipitation"]}`), 0o644))

	_, _, err = Load(path)
	require.ErrorIs(t, err, domain.ErrFeatureMismatch)
}

func mustVector(t *testing.T, row domain.LabeledRecord) []float64 {
	t.Helper()
	vec, err := row.FeatureVector(domain.FeatureColumns())
	require.NoError(t, err)
	return vec
}
