// Package predict evaluates the trained classifier against a recent window
// of raw daily observations for one location.
package predict

import (
	"fmt"
	"time"

	"github.com/bahalana/floodcast/internal/domain"
	"github.com/bahalana/floodcast/internal/features"
	"github.com/bahalana/floodcast/internal/model"
)

// placeholderLocation keys the synthesized single-location series. The
// caller's real location identity is irrelevant to the feature builder;
// only the series shape matters.
const placeholderLocation = "prediction"

// decisionThreshold converts P(flood) to the output label.
const decisionThreshold = 0.5

// Input is a recent daily window, most-recent-last. All four series must
// have equal length; missing observations are NaN. Dates are optional and
// synthesized backward from today when absent.
type Input struct {
	Precipitation []float64
	Temperature   []float64
	Humidity      []float64
	WindSpeed     []float64
	Dates         []time.Time
}

// Service holds a loaded model and answers predictions for the final day
// of submitted windows. The model is read-only for the service lifetime.
type Service struct {
	model   *model.Model
	columns []string
}

// NewService wires a loaded model and its metadata. The metadata's feature
// column list is authoritative; a model blob that disagrees never gets here
// because model.Load already rejects the pair.
func NewService(m *model.Model, meta model.Metadata) *Service {
	return &Service{model: m, columns: meta.FeatureColumns}
}

// Predict builds features over the window and classifies its final day.
// A feature column the builder cannot produce is a deployment fault and
// returns ErrFeatureMismatch, never a silently reinterpreted vector.
func (s *Service) Predict(in Input) (domain.Prediction, error) {
	records, err := in.records()
	if err != nil {
		return domain.Prediction{}, err
	}

	rows := features.Build(records)
	last := rows[len(rows)-1]

	vec, err := last.FeatureVector(s.columns)
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("predict: %w", err)
	}
	p, err := s.model.PredictProba(vec)
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("predict: %w", err)
	}

	out := domain.Prediction{
		Prediction:       domain.PredictionNoFlood,
		FloodProbability: p,
		Confidence:       p,
	}
	if p >= decisionThreshold {
		out.Prediction = domain.PredictionFlood
	} else {
		out.Confidence = 1 - p
	}
	return out, nil
}

// records synthesizes the single-location daily series the feature builder
// expects.
func (in Input) records() ([]domain.DailyRecord, error) {
	n := len(in.Precipitation)
	if n == 0 {
		return nil, fmt.Errorf("predict: %w", domain.ErrEmptyInput)
	}
	if len(in.Temperature) != n || len(in.Humidity) != n || len(in.WindSpeed) != n {
		return nil, fmt.Errorf("predict: series lengths differ: precipitation %d, temperature %d, humidity %d, wind %d",
			n, len(in.Temperature), len(in.Humidity), len(in.WindSpeed))
	}
	if len(in.Dates) != 0 && len(in.Dates) != n {
		return nil, fmt.Errorf("predict: %d dates for %d observations", len(in.Dates), n)
	}

	dates := in.Dates
	if len(dates) == 0 {
		dates = make([]time.Time, n)
		end := domain.Now().UTC().Truncate(24 * time.Hour)
		for i := range dates {
			dates[i] = end.AddDate(0, 0, i-n+1)
		}
	}

	records := make([]domain.DailyRecord, n)
	for i := 0; i < n; i++ {
		records[i] = domain.DailyRecord{
			Date:          dates[i],
			Location:      placeholderLocation,
			Precipitation: in.Precipitation[i],
			Temperature:   in.Temperature[i],
			Humidity:      in.Humidity[i],
			WindSpeed:     in.WindSpeed[i],
		}
	}
	return records, nil
}
