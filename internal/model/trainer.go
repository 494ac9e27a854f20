package model

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/bahalana/floodcast/internal/domain"
)

// minPositiveLabels is the smallest flood count that trains without a
// degraded-regime warning. Below it the fit still proceeds but the model
// will be systematically conservative.
const minPositiveLabels = 10

const testFraction = 0.2

// Model is the persisted classifier: the fitted ensemble plus the feature
// column order it was trained on. The two travel together; evaluating a
// vector built from a different column list is undefined.
type Model struct {
	GBM     GBM
	Columns []string
}

// PredictProba returns P(flood) for a feature vector already resolved in
// the model's column order.
func (m *Model) PredictProba(vec []float64) (float64, error) {
	if len(vec) != len(m.Columns) {
		return 0, fmt.Errorf("feature vector has %d values, model expects %d: %w",
			len(vec), len(m.Columns), domain.ErrFeatureMismatch)
	}
	return m.GBM.PredictProba(vec), nil
}

// TrainResult is everything one training run produces.
type TrainResult struct {
	Model    *Model
	Report   EvalReport
	Metadata Metadata
}

// Train fits a classifier on labeled feature rows. Rows with any missing
// engineered feature (the boundary rows of each location's series) are
// dropped before fitting. Too few positive labels is surfaced as a warning
// in the metadata, not an error; an empty or single-class-empty dataset
// after dropping is fatal.
func Train(rows []domain.LabeledRecord, params Params) (*TrainResult, error) {
	columns := domain.FeatureColumns()

	x := make([][]float64, 0, len(rows))
	y := make([]float64, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		vec, err := row.FeatureVector(columns)
		if err != nil {
			return nil, fmt.Errorf("train: %w", err)
		}
		if hasNaN(vec) {
			dropped++
			continue
		}
		x = append(x, vec)
		y = append(y, float64(row.FloodOccurred))
	}
	if len(x) == 0 {
		return nil, fmt.Errorf("train: no complete feature rows (%d dropped): %w", dropped, domain.ErrEmptyInput)
	}

	positives, negatives := classCounts(y)
	var warnings []string
	if positives < minPositiveLabels {
		warnings = append(warnings, fmt.Sprintf(
			"only %d positive labels (minimum %d): model will be conservative", positives, minPositiveLabels))
	}
	if positives == 0 || negatives == 0 {
		return nil, fmt.Errorf("train: need both classes, got %d positive / %d negative rows", positives, negatives)
	}

	trainIdx, testIdx := stratifiedSplit(y, testFraction, params.Seed)
	xTrain, yTrain := subset(x, y, trainIdx)
	xTest, yTest := subset(x, y, testIdx)

	posWeight := scalePosWeight(yTrain)
	gbm := fit(xTrain, yTrain, sampleWeights(yTrain, posWeight), params)
	m := &Model{GBM: *gbm, Columns: columns}

	report := evaluate(m, xTest, yTest)
	report.CVMeanF1, report.CVStdF1 = crossValidateF1(x, y, params, 5)

	meta := Metadata{
		FeatureColumns:     columns,
		Params:             params,
		TrainingRows:       len(trainIdx),
		TestRows:           len(testIdx),
		DroppedRows:        dropped,
		PositiveLabels:     positives,
		NegativeLabels:     negatives,
		ScalePosWeight:     posWeight,
		Accuracy:           report.Accuracy,
		F1Score:            report.Flood.F1,
		CVMeanF1:           report.CVMeanF1,
		FeatureImportances: importanceMap(columns, gbm.Importances),
		Warnings:           warnings,
	}

	return &TrainResult{Model: m, Report: report, Metadata: meta}, nil
}

func hasNaN(vec []float64) bool {
	for _, v := range vec {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

func classCounts(y []float64) (positives, negatives int) {
	for _, v := range y {
		if v == 1 {
			positives++
		} else {
			negatives++
		}
	}
	return positives, negatives
}

// scalePosWeight returns negative/positive over the training labels, the
// standard correction for class imbalance in boosted logistic loss.
func scalePosWeight(y []float64) float64 {
	pos, neg := classCounts(y)
	if pos == 0 {
		return 1
	}
	return float64(neg) / float64(pos)
}

func sampleWeights(y []float64, posWeight float64) []float64 {
	w := make([]float64, len(y))
	for i, v := range y {
		if v == 1 {
			w[i] = posWeight
		} else {
			w[i] = 1
		}
	}
	return w
}

// stratifiedSplit holds out testFraction of each class, preserving the
// class ratio across the split.
func stratifiedSplit(y []float64, fraction float64, seed int64) (train, test []int) {
	rng := rand.New(rand.NewSource(seed))
	var pos, neg []int
	for i, v := range y {
		if v == 1 {
			pos = append(pos, i)
		} else {
			neg = append(neg, i)
		}
	}
	for _, class := range [][]int{pos, neg} {
		rng.Shuffle(len(class), func(i, j int) { class[i], class[j] = class[j], class[i] })
		cut := int(float64(len(class)) * fraction)
		test = append(test, class[:cut]...)
		train = append(train, class[cut:]...)
	}
	return train, test
}

func subset(x [][]float64, y []float64, idx []int) ([][]float64, []float64) {
	xs := make([][]float64, len(idx))
	ys := make([]float64, len(idx))
	for i, j := range idx {
		xs[i] = x[j]
		ys[i] = y[j]
	}
	return xs, ys
}

// importanceMap normalizes total split gains to sum to 1. All-zero gains
// (a degenerate fit) map every feature to 0.
func importanceMap(columns []string, gains []float64) map[string]float64 {
	total := 0.0
	for _, g := range gains {
		total += g
	}
	out := make(map[string]float64, len(columns))
	for i, col := range columns {
		if total > 0 {
			out[col] = gains[i] / total
		} else {
			out[col] = 0
		}
	}
	return out
}
