// Package risk computes heuristic flood-risk assessments directly from raw
// daily climate windows. Unlike the trained classifier it carries no learned
// parameters: the score is a fixed rule cascade over window aggregates,
// adjusted by a geographic modifier table, so it stays available even when
// no model artifact has been trained yet.
package risk

import (
	"fmt"
	"math"

	"github.com/bahalana/floodcast/internal/domain"
)

// Scoring thresholds and contributions, in millimeters and percent.
const (
	maxPrecipVeryHighMM = 100.0
	maxPrecipHighMM     = 50.0
	maxPrecipModerateMM = 20.0
	avgPrecipHighMM     = 50.0
	avgPrecipModerateMM = 20.0
	avgHumidityHighPct  = 80.0
	avgHumidityElevPct  = 70.0

	scoreMaxPrecipVeryHigh = 40
	scoreMaxPrecipHigh     = 25
	scoreMaxPrecipModerate = 10
	scoreAvgPrecipHigh     = 20
	scoreAvgPrecipModerate = 10
	scoreHumidityHigh      = 10
	scoreHumidityElevated  = 3
	scoreSatellite         = 5
)

// Score assesses flood risk for one location over a window of daily
// records. The window is assumed pre-validated and fetched by the caller;
// an empty or all-missing window yields a complete LOW assessment, never
// an error.
func Score(point domain.GeoPoint, dates domain.DateRange, window []domain.DailyRecord) domain.RiskAssessment {
	summary, satellite := summarize(window)

	precipScore := 0
	factors := make([]string, 0, 6)

	switch {
	case summary.MaxPrecipitationMM > maxPrecipVeryHighMM:
		precipScore += scoreMaxPrecipVeryHigh
		factors = append(factors, fmt.Sprintf("Very high daily rainfall (%.1fmm)", summary.MaxPrecipitationMM))
	case summary.MaxPrecipitationMM > maxPrecipHighMM:
		precipScore += scoreMaxPrecipHigh
		factors = append(factors, fmt.Sprintf("High daily rainfall (%.1fmm)", summary.MaxPrecipitationMM))
	case summary.MaxPrecipitationMM > maxPrecipModerateMM:
		precipScore += scoreMaxPrecipModerate
		factors = append(factors, fmt.Sprintf("Moderate rainfall (%.1fmm)", summary.MaxPrecipitationMM))
	}

	switch {
	case summary.AvgPrecipitationMM > avgPrecipHighMM:
		precipScore += scoreAvgPrecipHigh
		factors = append(factors, fmt.Sprintf("High average rainfall (%.1fmm/day)", summary.AvgPrecipitationMM))
	case summary.AvgPrecipitationMM > avgPrecipModerateMM:
		precipScore += scoreAvgPrecipModerate
		factors = append(factors, fmt.Sprintf("Moderate average rainfall (%.1fmm/day)", summary.AvgPrecipitationMM))
	}

	humidityBonus := 0
	switch {
	case summary.AvgHumidityPercent > avgHumidityHighPct:
		humidityBonus = scoreHumidityHigh
		factors = append(factors, fmt.Sprintf("High humidity (%.1f%%)", summary.AvgHumidityPercent))
	case summary.AvgHumidityPercent > avgHumidityElevPct:
		humidityBonus = scoreHumidityElevated
		factors = append(factors, fmt.Sprintf("Elevated humidity (%.1f%%)", summary.AvgHumidityPercent))
	}

	modifier := 1.0
	locationBonus := 0
	if region := RegionFor(point); region != nil {
		modifier = region.Multiplier
		locationBonus = region.Bonus
		if precipScore > 0 || locationBonus > 0 {
			if modifier > 1.0 {
				factors = append(factors, fmt.Sprintf("Flood-prone area: %s", region.Name))
			} else if modifier < 1.0 {
				factors = append(factors, fmt.Sprintf("Well-drained terrain: %s", region.Name))
			}
		}
	}

	score := int(math.Round(float64(precipScore)*modifier)) + humidityBonus + locationBonus
	if satellite {
		score += scoreSatellite
		factors = append(factors, "IMERG satellite data available")
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return domain.RiskAssessment{
		Location:  point,
		DateRange: dates,
		FloodRisk: domain.FloodRisk{
			Level:   domain.RiskLevelForScore(score),
			Score:   score,
			Factors: factors,
		},
		ClimateSummary: summary,
	}
}

// summarize aggregates the window, skipping NaN observations. Precipitation
// and humidity averages default to 0 when no values exist; temperature
// stays null so clients can tell "no data" from "0°C".
func summarize(window []domain.DailyRecord) (domain.ClimateSummary, bool) {
	var (
		precipSum, humiditySum, tempSum float64
		precipN, humidityN, tempN       int
		maxPrecip                       float64
		satellite                       bool
	)
	for _, rec := range window {
		if !math.IsNaN(rec.Precipitation) && rec.Precipitation >= 0 {
			precipSum += rec.Precipitation
			precipN++
			if rec.Precipitation > maxPrecip {
				maxPrecip = rec.Precipitation
			}
		}
		if !math.IsNaN(rec.Humidity) {
			humiditySum += rec.Humidity
			humidityN++
		}
		if !math.IsNaN(rec.Temperature) {
			tempSum += rec.Temperature
			tempN++
		}
		if rec.SatelliteKnown && rec.SatelliteAvailable {
			satellite = true
		}
	}

	summary := domain.ClimateSummary{MaxPrecipitationMM: round2(maxPrecip)}
	if precipN > 0 {
		summary.AvgPrecipitationMM = round2(precipSum / float64(precipN))
	}
	if humidityN > 0 {
		summary.AvgHumidityPercent = round2(humiditySum / float64(humidityN))
	}
	if tempN > 0 {
		avg := round2(tempSum / float64(tempN))
		summary.AvgTemperatureC = &avg
	}
	return summary, satellite
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
