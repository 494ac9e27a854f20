// Package features derives temporal predictors from ordered daily climate
// series. The same derivation runs over full historical tables at training
// time and over short recent windows at prediction time; the formulas must
// stay identical or the classifier sees a distribution it was never trained
// on.
package features

import (
	"math"

	"github.com/bahalana/floodcast/internal/domain"
)

// Rolling window sizes in days. Minimum-period semantics: early rows get
// partial-window aggregates over whatever history exists rather than NaN.
const (
	shortWindow      = 3
	weekWindow       = 7
	fortnightWindow  = 14
	intensityWindow  = 30
	intensityMinDays = 15

	rainyDayThresholdMM = 5.0
	highHumidityPct     = 80.0
	intensityZeroOffset = 0.1
	wetSeasonFirstMonth = 6  // June
	wetSeasonLastMonth  = 10 // October
)

// Build derives a FeatureRow for every input record. Records are grouped by
// location and ordered by date internally; rolling and lag computations
// never cross a location boundary. The output preserves (location, date)
// order and has the same length as the input.
func Build(records []domain.DailyRecord) []domain.FeatureRow {
	if len(records) == 0 {
		return nil
	}

	ordered := make([]domain.DailyRecord, len(records))
	copy(ordered, records)
	domain.SortRecords(ordered)

	rows := make([]domain.FeatureRow, 0, len(ordered))
	for start := 0; start < len(ordered); {
		end := start + 1
		for end < len(ordered) && ordered[end].Location == ordered[start].Location {
			end++
		}
		rows = append(rows, buildGroup(ordered[start:end])...)
		start = end
	}
	return rows
}

// buildGroup computes features for one location's ordered series.
func buildGroup(group []domain.DailyRecord) []domain.FeatureRow {
	n := len(group)
	precip := make([]float64, n)
	temp := make([]float64, n)
	humidity := make([]float64, n)
	for i, rec := range group {
		precip[i] = rec.Precipitation
		temp[i] = rec.Temperature
		humidity[i] = rec.Humidity
	}

	precip3Sum := rollingSum(precip, shortWindow, 1)
	precip7Sum := rollingSum(precip, weekWindow, 1)
	precip7Max := rollingMax(precip, weekWindow, 1)
	precip14Avg := rollingMean(precip, fortnightWindow, 1)
	precip30Avg := rollingMean(precip, intensityWindow, intensityMinDays)
	temp7Avg := rollingMean(temp, weekWindow, 1)
	humidity7Avg := rollingMean(humidity, weekWindow, 1)

	rows := make([]domain.FeatureRow, n)
	run := 0
	for i, rec := range group {
		row := domain.FeatureRow{
			DailyRecord:     rec,
			Precip3DaySum:   precip3Sum[i],
			Precip7DaySum:   precip7Sum[i],
			Precip7DayMax:   precip7Max[i],
			Precip14DayAvg:  precip14Avg[i],
			Temp7DayAvg:     temp7Avg[i],
			Humidity7DayAvg: humidity7Avg[i],
		}

		if precip[i] > rainyDayThresholdMM {
			row.IsRainyDay = 1
			run++
		} else {
			run = 0
		}
		row.ConsecutiveRainyDays = run

		if humidity[i] > highHumidityPct {
			row.HighHumidity = 1
		}

		row.PrecipRateOfChange = diff(precip, i)
		row.PrecipIntensity = intensity(precip[i], precip30Avg[i])

		row.DayOfYear = rec.Date.YearDay()
		row.Month = int(rec.Date.Month())
		if row.Month >= wetSeasonFirstMonth && row.Month <= wetSeasonLastMonth {
			row.IsWetSeason = 1
		}

		row.PrecipHumidityInteraction = precip[i] * humidity[i] / 100

		row.PrecipLag1 = lag(precip, i, 1)
		row.PrecipLag3 = lag(precip, i, 3)
		row.TempLag1 = lag(temp, i, 1)
		row.TempLag3 = lag(temp, i, 3)
		row.HumidityLag1 = lag(humidity, i, 1)
		row.HumidityLag3 = lag(humidity, i, 3)

		rows[i] = row
	}
	return rows
}

// rollingSum computes a trailing sum over up to window values ending at each
// index. NaN values are skipped; the result is NaN only when fewer than
// minPeriods non-NaN values fall inside the window.
func rollingSum(values []float64, window, minPeriods int) []float64 {
	return rolling(values, window, minPeriods, func(acc []float64) float64 {
		total := 0.0
		for _, v := range acc {
			total += v
		}
		return total
	})
}

func rollingMean(values []float64, window, minPeriods int) []float64 {
	return rolling(values, window, minPeriods, func(acc []float64) float64 {
		total := 0.0
		for _, v := range acc {
			total += v
		}
		return total / float64(len(acc))
	})
}

func rollingMax(values []float64, window, minPeriods int) []float64 {
	return rolling(values, window, minPeriods, func(acc []float64) float64 {
		best := acc[0]
		for _, v := range acc[1:] {
			if v > best {
				best = v
			}
		}
		return best
	})
}

// rolling applies agg to the non-NaN values of each trailing window.
func rolling(values []float64, window, minPeriods int, agg func([]float64) float64) []float64 {
	out := make([]float64, len(values))
	valid := make([]float64, 0, window)
	for i := range values {
		lo := i - window + 1
		if lo < 0 {
			lo = 0
		}
		valid = valid[:0]
		for j := lo; j <= i; j++ {
			if !math.IsNaN(values[j]) {
				valid = append(valid, values[j])
			}
		}
		if len(valid) < minPeriods {
			out[i] = math.NaN()
			continue
		}
		out[i] = agg(valid)
	}
	return out
}

// diff returns values[i] - values[i-1], NaN on the first row or when either
// side is missing.
func diff(values []float64, i int) float64 {
	if i == 0 {
		return math.NaN()
	}
	return values[i] - values[i-1]
}

// lag returns the value k rows back, NaN before the series start.
func lag(values []float64, i, k int) float64 {
	if i-k < 0 {
		return math.NaN()
	}
	return values[i-k]
}

// intensity relates today's precipitation to the 30-day trailing mean. The
// +0.1 offset keeps dry spells from dividing by zero; NaN propagates from
// either input, so rows without 15 days of history have no intensity.
func intensity(today, trailingAvg float64) float64 {
	if math.IsNaN(today) || math.IsNaN(trailingAvg) {
		return math.NaN()
	}
	return today / (trailingAvg + intensityZeroOffset)
}
