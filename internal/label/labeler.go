// Package label assigns flood/no-flood training labels to feature-engineered
// daily records. Raw historical series rarely say "a flood happened here";
// the labeler reconstructs that signal from nine meteorological criteria
// drawn from PAGASA warning thresholds and tropical-storm research, each
// mapped to a confidence tier, with authoritative satellite flood
// observations overriding the heuristics entirely.
package label

import (
	"github.com/bahalana/floodcast/internal/domain"
)

// Confidence tiers. A record matching several criteria takes the highest
// applicable tier; the tier table below is evaluated top-down with early
// exit per row.
const (
	ConfidenceHigh       = 0.95
	ConfidenceObserved   = 0.90
	ConfidenceMediumHigh = 0.80
	ConfidenceMedium     = 0.65

	ReasonHigh       = "high_confidence"
	ReasonMediumHigh = "medium_high_confidence"
	ReasonMedium     = "medium_confidence"
	ReasonObserved   = "modis_satellite"
	ReasonNoFlood    = "no_flood"
)

// criterion is one independent flood-detection test. Thresholds are in
// millimeters and percent. NaN inputs fail every comparison, so rows with
// missing observations can only match criteria their data supports.
type criterion struct {
	Name        string
	Description string
	Match       func(domain.FeatureRow) bool
}

// The nine detection criteria. Order matters only for reporting; the tier
// table decides label precedence.
var criteria = []criterion{
	{
		Name:        "criterion_1",
		Description: "extreme daily precipitation >80mm",
		Match:       func(r domain.FeatureRow) bool { return r.Precipitation > 80 },
	},
	{
		Name:        "criterion_2",
		Description: "heavy rain >60mm with humidity >85%",
		Match:       func(r domain.FeatureRow) bool { return r.Precipitation > 60 && r.Humidity > 85 },
	},
	{
		Name:        "criterion_3",
		Description: "sustained 3-day total >120mm with current >25mm",
		Match:       func(r domain.FeatureRow) bool { return r.Precip3DaySum > 120 && r.Precipitation > 25 },
	},
	{
		Name:        "criterion_4",
		Description: "weekly accumulation >150mm with current >30mm and humidity >82%",
		Match: func(r domain.FeatureRow) bool {
			return r.Precip7DaySum > 150 && r.Precipitation > 30 && r.Humidity > 82
		},
	},
	{
		Name:        "criterion_5",
		Description: "precipitation intensity >6x the 30-day norm with >40mm",
		Match:       func(r domain.FeatureRow) bool { return r.PrecipIntensity > 6 && r.Precipitation > 40 },
	},
	{
		Name:        "criterion_6",
		Description: "moderate rain >50mm onto saturated ground (7-day >120mm, humidity >88%)",
		Match: func(r domain.FeatureRow) bool {
			return r.Precipitation > 50 && r.Precip7DaySum > 120 && r.Humidity > 88
		},
	},
	{
		Name:        "criterion_7",
		Description: "satellite-covered extreme event >70mm",
		Match: func(r domain.FeatureRow) bool {
			return r.SatelliteKnown && r.SatelliteAvailable && r.Precipitation > 70
		},
	},
	{
		Name:        "criterion_8",
		Description: "urban flash flood conditions >45mm with humidity >90%",
		Match:       func(r domain.FeatureRow) bool { return r.Precipitation > 45 && r.Humidity > 90 },
	},
	{
		Name:        "criterion_9",
		Description: "persistent multi-day rain (3-day >90mm, current >20mm, humidity >85%)",
		Match: func(r domain.FeatureRow) bool {
			return r.Precip3DaySum > 90 && r.Precipitation > 20 && r.Humidity > 85
		},
	},
}

// tier maps a combination of fired criteria to a confidence level. Indexed
// into the per-row match vector; first match wins.
type tier struct {
	Reason     string
	Confidence float64
	Match      func(fired []bool) bool
}

var tiers = []tier{
	{
		Reason:     ReasonHigh,
		Confidence: ConfidenceHigh,
		Match:      func(f []bool) bool { return f[0] || (f[2] && f[1]) },
	},
	{
		Reason:     ReasonMediumHigh,
		Confidence: ConfidenceMediumHigh,
		Match:      func(f []bool) bool { return f[1] || f[3] || f[6] || f[7] },
	},
	{
		Reason:     ReasonMedium,
		Confidence: ConfidenceMedium,
		Match:      func(f []bool) bool { return f[4] || f[5] || f[8] },
	},
}

// ObservationSet holds (location, date) pairs with an authoritative external
// flood observation, keyed by DailyRecord.Key(). Records in the set override
// every heuristic tier.
type ObservationSet map[string]struct{}

// NewObservationSet builds an ObservationSet from record keys.
func NewObservationSet(keys ...string) ObservationSet {
	s := make(ObservationSet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// CriterionCount pairs a criterion with how many rows satisfied it,
// independent of which tier finally labeled those rows.
type CriterionCount struct {
	Name        string
	Description string
	Count       int
}

// Report summarizes one labeling run.
type Report struct {
	Total           int
	Floods          int
	CriterionCounts []CriterionCount
	ReasonCounts    map[string]int
}

// FloodShare returns the labeled flood fraction, 0 for an empty run.
func (r Report) FloodShare() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Floods) / float64(r.Total)
}

// Apply labels every row and reports per-criterion counts. observed may be
// nil when no external observations exist. Rows matching nothing get the
// explicit no_flood tag with zero confidence rather than being dropped, so
// the classifier trains on negatives too.
func Apply(rows []domain.FeatureRow, observed ObservationSet) ([]domain.LabeledRecord, Report) {
	report := Report{
		Total:           len(rows),
		CriterionCounts: make([]CriterionCount, len(criteria)),
		ReasonCounts:    make(map[string]int),
	}
	for i, c := range criteria {
		report.CriterionCounts[i] = CriterionCount{Name: c.Name, Description: c.Description}
	}

	labeled := make([]domain.LabeledRecord, len(rows))
	fired := make([]bool, len(criteria))
	for i, row := range rows {
		for j, c := range criteria {
			fired[j] = c.Match(row)
			if fired[j] {
				report.CriterionCounts[j].Count++
			}
		}

		rec := domain.LabeledRecord{FeatureRow: row, LabelReason: ReasonNoFlood}
		if _, ok := observed[row.Key()]; ok {
			rec.FloodOccurred = 1
			rec.FloodConfidence = ConfidenceObserved
			rec.LabelReason = ReasonObserved
		} else {
			for _, t := range tiers {
				if t.Match(fired) {
					rec.FloodOccurred = 1
					rec.FloodConfidence = t.Confidence
					rec.LabelReason = t.Reason
					break
				}
			}
		}

		report.ReasonCounts[rec.LabelReason]++
		if rec.FloodOccurred == 1 {
			report.Floods++
		}
		labeled[i] = rec
	}
	return labeled, report
}
