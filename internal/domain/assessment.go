package domain

// RiskAssessment is the full flood-risk response for a location and date
// range. The JSON shape is a compatibility contract with existing clients;
// field names must not change.
type RiskAssessment struct {
	Location       GeoPoint       `json:"location"`
	DateRange      DateRange      `json:"date_range"`
	FloodRisk      FloodRisk      `json:"flood_risk"`
	ClimateSummary ClimateSummary `json:"climate_summary"`
}

// GeoPoint is a WGS-84 coordinate pair.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// DateRange is an inclusive calendar date interval, wire format YYYY-MM-DD.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// FloodRisk holds the heuristic score and its explanation.
type FloodRisk struct {
	Level   string   `json:"level"` // LOW, MEDIUM, HIGH
	Score   int      `json:"score"` // 0-100
	Factors []string `json:"factors"`
}

// ClimateSummary aggregates the raw window the score was computed from.
// AvgTemperatureC is null when the window had no temperature observations.
type ClimateSummary struct {
	AvgPrecipitationMM float64  `json:"avg_precipitation_mm"`
	MaxPrecipitationMM float64  `json:"max_precipitation_mm"`
	AvgTemperatureC    *float64 `json:"avg_temperature_c"`
	AvgHumidityPercent float64  `json:"avg_humidity_percent"`
}

// Risk level names and their fixed score thresholds.
const (
	RiskLevelLow    = "LOW"
	RiskLevelMedium = "MEDIUM"
	RiskLevelHigh   = "HIGH"

	RiskThresholdMedium = 30
	RiskThresholdHigh   = 60
)

// RiskLevelForScore maps a clamped score to its level.
func RiskLevelForScore(score int) string {
	switch {
	case score >= RiskThresholdHigh:
		return RiskLevelHigh
	case score >= RiskThresholdMedium:
		return RiskLevelMedium
	default:
		return RiskLevelLow
	}
}

// Prediction is the classifier's answer for the most recent day of a window.
type Prediction struct {
	Prediction       string  `json:"prediction"` // "FLOOD" or "NO FLOOD"
	FloodProbability float64 `json:"flood_probability"`
	Confidence       float64 `json:"confidence"` // max class probability
}

// Prediction labels.
const (
	PredictionFlood   = "FLOOD"
	PredictionNoFlood = "NO FLOOD"
)
