// Command validate performs integrity checks on a daily climate dataset
// before it is used for training: schema presence, (location, date)
// uniqueness and ordering, value-range discipline, and a labeling dry run
// to confirm the flood share lands in a trainable band.
//
// Usage:
//
//	go run ./cmd/validate -csv data/mock/climate_daily.csv
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bahalana/floodcast/internal/domain"
	"github.com/bahalana/floodcast/internal/features"
	"github.com/bahalana/floodcast/internal/label"
)

// rawFillValue is the NASA POWER missing-data sentinel; it must never
// survive ingestion as a real observation.
const rawFillValue = -999.0

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	csvPath := flag.String("csv", "", "training CSV to validate")
	flag.Parse()

	if *csvPath == "" {
		flag.Usage()
		os.Exit(1)
	}
	os.Exit(run(*csvPath))
}

func run(csvPath string) int {
	fmt.Println("=== Climate Dataset Integrity Validation ===")
	fmt.Println()

	records, err := loadCSV(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load CSV: %v\n", err)
		return 1
	}
	domain.SortRecords(records)

	phases := []*phase{
		validateUniqueness(records),
		validateContinuity(records),
		validateRanges(records),
		validateLabelDistribution(records),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d\n", len(records))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i >= 20 {
				fmt.Printf("  ... %d more\n", len(p.errors)-i)
				break
			}
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// loadCSV reads the same header-first CSV shape cmd/train consumes. Empty
// cells become NaN.
func loadCSV(path string) ([]domain.DailyRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("csv has no data rows")
	}

	colIdx := map[string]int{}
	for i, h := range rows[0] {
		colIdx[strings.TrimSpace(strings.ToLower(h))] = i
	}
	for _, required := range []string{"date", "location", "latitude", "longitude", "precipitation"} {
		if _, ok := colIdx[required]; !ok {
			return nil, fmt.Errorf("column %q: %w", required, domain.ErrMissingColumn)
		}
	}

	get := func(row []string, col string) string {
		i, ok := colIdx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	records := make([]domain.DailyRecord, 0, len(rows)-1)
	for n, row := range rows[1:] {
		date, err := time.Parse(domain.DateLayout, get(row, "date"))
		if err != nil {
			return nil, fmt.Errorf("csv row %d: parse date: %w", n+2, err)
		}
		lat, err := strconv.ParseFloat(get(row, "latitude"), 64)
		if err != nil {
			return nil, fmt.Errorf("csv row %d: parse latitude: %w", n+2, err)
		}
		lon, err := strconv.ParseFloat(get(row, "longitude"), 64)
		if err != nil {
			return nil, fmt.Errorf("csv row %d: parse longitude: %w", n+2, err)
		}

		rec := domain.DailyRecord{
			Date:          date,
			Location:      get(row, "location"),
			Latitude:      lat,
			Longitude:     lon,
			Precipitation: floatOrNaN(get(row, "precipitation")),
			Temperature:   floatOrNaN(get(row, "temperature")),
			Humidity:      floatOrNaN(get(row, "humidity")),
			WindSpeed:     floatOrNaN(get(row, "wind_speed")),
		}
		if sat := get(row, "satellite_available"); sat != "" {
			rec.SatelliteKnown = true
			rec.SatelliteAvailable = sat == "1" || strings.EqualFold(sat, "true")
		}
		records = append(records, rec)
	}
	return records, nil
}

func floatOrNaN(s string) float64 {
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func validateUniqueness(records []domain.DailyRecord) *phase {
	p := &phase{name: "(location, date) uniqueness"}
	seen := map[string]struct{}{}
	for i := range records {
		key := records[i].Key()
		if _, dup := seen[key]; dup {
			p.errorf("duplicate record %s", key)
		}
		seen[key] = struct{}{}
	}
	return p
}

// validateContinuity flags gaps inside each location's series. Rolling
// windows count rows, not calendar days, so a gap skews every aggregate
// that spans it.
func validateContinuity(records []domain.DailyRecord) *phase {
	p := &phase{name: "per-location date continuity"}
	for i := 1; i < len(records); i++ {
		prev, cur := &records[i-1], &records[i]
		if prev.Location != cur.Location {
			continue
		}
		if gap := cur.Date.Sub(prev.Date); gap > 24*time.Hour {
			p.errorf("%s: %.0f-day gap before %s",
				cur.Location, gap.Hours()/24-1, cur.Date.Format(domain.DateLayout))
		}
	}
	return p
}

func validateRanges(records []domain.DailyRecord) *phase {
	p := &phase{name: "value ranges and null discipline"}
	for i := range records {
		r := &records[i]
		if !math.IsNaN(r.Precipitation) && r.Precipitation < 0 {
			p.errorf("%s: negative precipitation %.1f", r.Key(), r.Precipitation)
		}
		if !math.IsNaN(r.Humidity) && (r.Humidity < 0 || r.Humidity > 100) {
			p.errorf("%s: humidity %.1f out of [0,100]", r.Key(), r.Humidity)
		}
		if !math.IsNaN(r.WindSpeed) && r.WindSpeed < 0 {
			p.errorf("%s: negative wind speed %.1f", r.Key(), r.WindSpeed)
		}
		if r.Precipitation == rawFillValue || r.Temperature == rawFillValue {
			p.errorf("%s: raw -999 fill value leaked through", r.Key())
		}
		if r.Latitude < -90 || r.Latitude > 90 || r.Longitude < -180 || r.Longitude > 180 {
			p.errorf("%s: coordinates out of range %.4f,%.4f", r.Key(), r.Latitude, r.Longitude)
		}
	}
	return p
}

// validateLabelDistribution runs the labeler and checks the flood share is
// neither zero (untrainable) nor implausibly high (threshold or unit bug).
func validateLabelDistribution(records []domain.DailyRecord) *phase {
	p := &phase{name: "label distribution sanity"}
	rows := features.Build(records)
	_, report := label.Apply(rows, nil)

	share := report.FloodShare()
	switch {
	case report.Floods == 0:
		p.errorf("no flood labels at all; classifier cannot train")
	case share > 0.5:
		p.errorf("flood share %.1f%% exceeds 50%%; check units and thresholds", share*100)
	}
	if report.Floods > 0 && report.Floods < 10 {
		p.errorf("only %d flood labels (minimum 10 for a non-degraded model)", report.Floods)
	}
	return p
}
