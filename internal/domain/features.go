package domain

// FeatureRow is a DailyRecord plus the engineered temporal features derived
// from its location's trailing history. Fields that need history the series
// cannot provide (lags before the location's first row, rate of change on
// the first row, intensity before 15 days) are NaN, never zero.
type FeatureRow struct {
	DailyRecord

	Precip3DaySum  float64
	Precip7DaySum  float64
	Precip7DayMax  float64
	Precip14DayAvg float64

	IsRainyDay           int // precipitation > 5mm
	ConsecutiveRainyDays int // run length of rainy days ending here
	PrecipRateOfChange   float64

	Temp7DayAvg     float64
	Humidity7DayAvg float64
	HighHumidity    int // humidity > 80%

	DayOfYear   int
	Month       int
	IsWetSeason int // June-October

	PrecipHumidityInteraction float64

	// PrecipIntensity is today's precipitation over the 30-day trailing
	// mean (offset +0.1 against division by zero). NaN until 15 days of
	// history exist; used only by the labeler, not the classifier.
	PrecipIntensity float64

	PrecipLag1   float64
	PrecipLag3   float64
	TempLag1     float64
	TempLag3     float64
	HumidityLag1 float64
	HumidityLag3 float64
}

// LabeledRecord is a FeatureRow with a flood label attached.
type LabeledRecord struct {
	FeatureRow

	FloodOccurred   int     // 0 or 1
	FloodConfidence float64 // 0-1
	LabelReason     string  // exactly one tag per record
}

// FeatureColumns returns the classifier's feature list in training order.
// The persisted model metadata stores this list verbatim; prediction must
// evaluate exactly these columns in exactly this order.
func FeatureColumns() []string {
	return []string{
		"precipitation",
		"precip_7day_sum",
		"precip_7day_max",
		"precip_3day_sum",
		"precip_14day_avg",
		"consecutive_rainy_days",
		"precip_rate_of_change",
		"temperature",
		"temp_7day_avg",
		"humidity",
		"humidity_7day_avg",
		"high_humidity",
		"wind_speed",
		"day_of_year",
		"month",
		"is_wet_season",
		"precip_humidity_interaction",
		"precipitation_lag1",
		"precipitation_lag3",
		"temperature_lag1",
		"humidity_lag1",
	}
}

// Feature returns the named feature's value. The second return is false for
// column names the builder does not produce; a NaN value with ok=true means
// the column exists but this row lacks the history to compute it.
func (r FeatureRow) Feature(name string) (float64, bool) {
	switch name {
	case "precipitation":
		return r.Precipitation, true
	case "precip_7day_sum":
		return r.Precip7DaySum, true
	case "precip_7day_max":
		return r.Precip7DayMax, true
	case "precip_3day_sum":
		return r.Precip3DaySum, true
	case "precip_14day_avg":
		return r.Precip14DayAvg, true
	case "consecutive_rainy_days":
		return float64(r.ConsecutiveRainyDays), true
	case "precip_rate_of_change":
		return r.PrecipRateOfChange, true
	case "temperature":
		return r.Temperature, true
	case "temp_7day_avg":
		return r.Temp7DayAvg, true
	case "humidity":
		return r.Humidity, true
	case "humidity_7day_avg":
		return r.Humidity7DayAvg, true
	case "high_humidity":
		return float64(r.HighHumidity), true
	case "wind_speed":
		return r.WindSpeed, true
	case "day_of_year":
		return float64(r.DayOfYear), true
	case "month":
		return float64(r.Month), true
	case "is_wet_season":
		return float64(r.IsWetSeason), true
	case "precip_humidity_interaction":
		return r.PrecipHumidityInteraction, true
	case "precipitation_lag1":
		return r.PrecipLag1, true
	case "precipitation_lag3":
		return r.PrecipLag3, true
	case "temperature_lag1":
		return r.TempLag1, true
	case "temperature_lag3":
		return r.TempLag3, true
	case "humidity_lag1":
		return r.HumidityLag1, true
	case "humidity_lag3":
		return r.HumidityLag3, true
	case "precip_intensity":
		return r.PrecipIntensity, true
	default:
		return 0, false
	}
}

// FeatureVector resolves the given columns against the row, in order.
// Unknown columns are an ErrFeatureMismatch: the persisted model and this
// build of the feature builder disagree, which is a deployment fault.
func (r FeatureRow) FeatureVector(columns []string) ([]float64, error) {
	vec := make([]float64, len(columns))
	for i, col := range columns {
		v, ok := r.Feature(col)
		if !ok {
			return nil, &UnknownFeatureError{Column: col}
		}
		vec[i] = v
	}
	return vec, nil
}

// UnknownFeatureError reports a feature column the builder cannot produce.
type UnknownFeatureError struct {
	Column string
}

func (e *UnknownFeatureError) Error() string {
	return "unknown feature column: " + e.Column
}

// Unwrap ties the error into the ErrFeatureMismatch sentinel so callers can
// match with errors.Is.
func (e *UnknownFeatureError) Unwrap() error {
	return ErrFeatureMismatch
}
