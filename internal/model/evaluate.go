package model

import (
	"math/rand"

	"gonum.org/v1/gonum/stat"
)

// threshold converts P(flood) to a hard label.
const decisionThreshold = 0.5

// ConfusionMatrix counts test-set outcomes with flood as the positive class.
type ConfusionMatrix struct {
	TruePositives  int `json:"true_positives"`
	TrueNegatives  int `json:"true_negatives"`
	FalsePositives int `json:"false_positives"`
	FalseNegatives int `json:"false_negatives"`
}

// ClassMetrics is the per-class slice of a classification report.
type ClassMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1_score"`
	Support   int     `json:"support"`
}

// EvalReport is the held-out evaluation of one training run.
type EvalReport struct {
	Accuracy  float64         `json:"accuracy"`
	Flood     ClassMetrics    `json:"flood"`
	NoFlood   ClassMetrics    `json:"no_flood"`
	Confusion ConfusionMatrix `json:"confusion_matrix"`
	CVMeanF1  float64         `json:"cv_mean_f1"`
	CVStdF1   float64         `json:"cv_std_f1"`
}

func evaluate(m *Model, x [][]float64, y []float64) EvalReport {
	var cm ConfusionMatrix
	for i := range x {
		predicted := m.GBM.PredictProba(x[i]) >= decisionThreshold
		actual := y[i] == 1
		switch {
		case predicted && actual:
			cm.TruePositives++
		case predicted && !actual:
			cm.FalsePositives++
		case !predicted && actual:
			cm.FalseNegatives++
		default:
			cm.TrueNegatives++
		}
	}

	total := len(x)
	report := EvalReport{Confusion: cm}
	if total > 0 {
		report.Accuracy = float64(cm.TruePositives+cm.TrueNegatives) / float64(total)
	}
	report.Flood = classMetrics(cm.TruePositives, cm.FalsePositives, cm.FalseNegatives)
	report.Flood.Support = cm.TruePositives + cm.FalseNegatives
	// The no-flood class mirrors the matrix: its positives are the true
	// negatives.
	report.NoFlood = classMetrics(cm.TrueNegatives, cm.FalseNegatives, cm.FalsePositives)
	report.NoFlood.Support = cm.TrueNegatives + cm.FalsePositives
	return report
}

func classMetrics(tp, fp, fn int) ClassMetrics {
	var m ClassMetrics
	if tp+fp > 0 {
		m.Precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		m.Recall = float64(tp) / float64(tp+fn)
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	return m
}

// crossValidateF1 runs stratified k-fold cross-validation and returns the
// mean and standard deviation of the flood-class F1 across folds.
func crossValidateF1(x [][]float64, y []float64, params Params, folds int) (mean, std float64) {
	if folds < 2 || len(x) < folds {
		return 0, 0
	}

	rng := rand.New(rand.NewSource(params.Seed))
	var pos, neg []int
	for i, v := range y {
		if v == 1 {
			pos = append(pos, i)
		} else {
			neg = append(neg, i)
		}
	}
	rng.Shuffle(len(pos), func(i, j int) { pos[i], pos[j] = pos[j], pos[i] })
	rng.Shuffle(len(neg), func(i, j int) { neg[i], neg[j] = neg[j], neg[i] })

	// Deal indices round-robin so every fold keeps the class ratio.
	assignment := make([]int, len(y))
	for i, idx := range pos {
		assignment[idx] = i % folds
	}
	for i, idx := range neg {
		assignment[idx] = i % folds
	}

	scores := make([]float64, 0, folds)
	for fold := 0; fold < folds; fold++ {
		var trainIdx, testIdx []int
		for i := range y {
			if assignment[i] == fold {
				testIdx = append(testIdx, i)
			} else {
				trainIdx = append(trainIdx, i)
			}
		}
		xTrain, yTrain := subset(x, y, trainIdx)
		xTest, yTest := subset(x, y, testIdx)
		if p, n := classCounts(yTrain); p == 0 || n == 0 {
			continue
		}

		gbm := fit(xTrain, yTrain, sampleWeights(yTrain, scalePosWeight(yTrain)), params)
		res := evaluate(&Model{GBM: *gbm}, xTest, yTest)
		scores = append(scores, res.Flood.F1)
	}
	if len(scores) == 0 {
		return 0, 0
	}
	mean = stat.Mean(scores, nil)
	if len(scores) > 1 {
		std = stat.StdDev(scores, nil)
	}
	return mean, std
}
