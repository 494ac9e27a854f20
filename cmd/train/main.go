// Command train fits the flood classifier offline. It reads daily climate
// records from a CSV file or the Postgres sink, engineers features, labels
// historical flood events, trains, evaluates, and persists the model blob
// with its metadata sidecar.
//
// Usage:
//
//	go run ./cmd/train -csv data/climate_daily.csv -out flood_model.bin
//	go run ./cmd/train -dsn "$POSTGRES_DSN" -from 2020-01-01 -to 2024-12-31 -out flood_model.bin
package main

import (
	"bufio"
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bahalana/floodcast/internal/adapter/postgres"
	"github.com/bahalana/floodcast/internal/domain"
	"github.com/bahalana/floodcast/internal/features"
	"github.com/bahalana/floodcast/internal/label"
	"github.com/bahalana/floodcast/internal/model"
	"github.com/bahalana/floodcast/internal/observability"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	csvPath := flag.String("csv", "", "CSV file of daily climate records")
	dsn := flag.String("dsn", "", "Postgres DSN (alternative to -csv)")
	from := flag.String("from", "", "start date YYYY-MM-DD (with -dsn)")
	to := flag.String("to", "", "end date YYYY-MM-DD (with -dsn)")
	eventsPath := flag.String("events", "", "optional file of observed flood events, one location|date key per line")
	out := flag.String("out", "flood_model.bin", "output path for the model blob")
	trees := flag.Int("trees", 0, "override tree count")
	depth := flag.Int("depth", 0, "override max tree depth")
	flag.Parse()

	records, err := loadRecords(*csvPath, *dsn, *from, *to)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("no records to train on")
	}
	domain.SortRecords(records)
	log.Printf("loaded %d records across %d locations", len(records), countLocations(records))

	observed, err := loadObservations(*eventsPath)
	if err != nil {
		return err
	}
	if len(observed) > 0 {
		log.Printf("loaded %d observed flood events", len(observed))
	}

	rows := features.Build(records)
	labeled, report := label.Apply(rows, observed)
	printLabelReport(report)

	params := model.DefaultParams()
	if *trees > 0 {
		params.NumTrees = *trees
	}
	if *depth > 0 {
		params.MaxDepth = *depth
	}

	result, err := model.Train(labeled, params)
	if err != nil {
		return fmt.Errorf("training: %w", err)
	}
	printEvalReport(result)

	if err := model.Save(*out, result.Model, result.Metadata); err != nil {
		return fmt.Errorf("saving model: %w", err)
	}
	log.Printf("wrote %s and %s (model %s)", *out, model.MetadataPath(*out), result.Metadata.ModelID)
	return nil
}

func loadRecords(csvPath, dsn, from, to string) ([]domain.DailyRecord, error) {
	switch {
	case csvPath != "" && dsn != "":
		return nil, fmt.Errorf("use either -csv or -dsn, not both")
	case csvPath != "":
		return loadCSV(csvPath)
	case dsn != "":
		return loadPostgres(dsn, from, to)
	default:
		flag.Usage()
		return nil, fmt.Errorf("missing data source: -csv or -dsn required")
	}
}

func loadPostgres(dsn, from, to string) ([]domain.DailyRecord, error) {
	if from == "" || to == "" {
		return nil, fmt.Errorf("-dsn requires -from and -to")
	}
	start, err := time.Parse(domain.DateLayout, from)
	if err != nil {
		return nil, fmt.Errorf("parse -from: %w", err)
	}
	end, err := time.Parse(domain.DateLayout, to)
	if err != nil {
		return nil, fmt.Errorf("parse -to: %w", err)
	}

	store, err := postgres.Open(dsn, observability.NewLogger("info", "text"))
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	defer store.Close() //nolint:errcheck

	return store.Records(context.Background(), start, end)
}

// loadCSV reads daily records from a header-first CSV. Empty cells become
// the NaN missing-value sentinel; a satellite_available column is optional.
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

	records := make([]domain.DailyRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rec, err := recordFromRow(row, colIdx)
		if err != nil {
			return nil, fmt.Errorf("csv row %d: %w", i+2, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func recordFromRow(row []string, colIdx map[string]int) (domain.DailyRecord, error) {
	get := func(col string) string {
		i, ok := colIdx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	date, err := time.Parse(domain.DateLayout, get("date"))
	if err != nil {
		return domain.DailyRecord{}, fmt.Errorf("parse date: %w", err)
	}
	lat, err := strconv.ParseFloat(get("latitude"), 64)
	if err != nil {
		return domain.DailyRecord{}, fmt.Errorf("parse latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(get("longitude"), 64)
	if err != nil {
		return domain.DailyRecord{}, fmt.Errorf("parse longitude: %w", err)
	}

	rec := domain.DailyRecord{
		Date:          date,
		Location:      get("location"),
		Latitude:      lat,
		Longitude:     lon,
		Precipitation: floatOrNaN(get("precipitation")),
		Temperature:   floatOrNaN(get("temperature")),
		Humidity:      floatOrNaN(get("humidity")),
		WindSpeed:     floatOrNaN(get("wind_speed")),
	}
	if sat := get("satellite_available"); sat != "" {
		rec.SatelliteKnown = true
		rec.SatelliteAvailable = sat == "1" || strings.EqualFold(sat, "true")
	}
	return rec, nil
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

// loadObservations reads location|date keys, one per line. Blank lines and
// #-comments are skipped.
func loadObservations(path string) (label.ObservationSet, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open events file: %w", err)
	}
	defer f.Close()

	var keys []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		keys = append(keys, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read events file: %w", err)
	}
	return label.NewObservationSet(keys...), nil
}

func countLocations(records []domain.DailyRecord) int {
	seen := map[string]struct{}{}
	for i := range records {
		seen[records[i].Location] = struct{}{}
	}
	return len(seen)
}

func printLabelReport(report label.Report) {
	log.Printf("labeled %d/%d rows as flood (%.1f%%)",
		report.Floods, report.Total, report.FloodShare()*100)
	for _, c := range report.CriterionCounts {
		if c.Count == 0 {
			continue
		}
		log.Printf("  %-12s %5d  %s", c.Name, c.Count, c.Description)
	}
	for reason, n := range report.ReasonCounts {
		log.Printf("  reason %-24s %5d", reason, n)
	}
}

func printEvalReport(result *model.TrainResult) {
	r := result.Report
	log.Printf("accuracy %.4f  flood F1 %.4f  cv F1 %.4f±%.4f",
		r.Accuracy, r.Flood.F1, r.CVMeanF1, r.CVStdF1)
	log.Printf("confusion tp=%d fp=%d fn=%d tn=%d",
		r.Confusion.TruePositives, r.Confusion.FalsePositives,
		r.Confusion.FalseNegatives, r.Confusion.TrueNegatives)
	for _, w := range result.Metadata.Warnings {
		log.Printf("warning: %s", w)
	}
}
