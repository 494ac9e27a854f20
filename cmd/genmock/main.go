// Command genmock generates a synthetic Philippine daily climate dataset
// for training experiments and pipeline fixtures. Rainfall follows the
// monsoon calendar: wet-season days (June-October) draw heavier rain with a
// 15% chance of an extreme event, dry-season days are mostly rainless.
//
// Usage:
//
//	go run ./cmd/genmock -days 730 -csv-out data/mock/climate_daily.csv
//	go run ./cmd/genmock -days 90 -json-out data/mock/raw_climate.json
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/bahalana/floodcast/internal/domain"
)

type site struct {
	name string
	lat  float64
	lon  float64
}

var sites = []site{
	{"Marikina City", 14.6507, 121.1029},
	{"Quezon City", 14.6760, 121.0437},
	{"Cagayan de Oro", 8.4542, 124.6319},
	{"Cebu City", 10.3157, 123.8854},
	{"Legazpi", 13.1391, 123.7438},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	days := flag.Int("days", 730, "days of history per site")
	startDate := flag.String("start", "2022-01-01", "first date YYYY-MM-DD")
	seed := flag.Int64("seed", 7, "rng seed")
	csvOut := flag.String("csv-out", "", "output path for training CSV")
	jsonOut := flag.String("json-out", "", "output path for raw wire-record JSON fixture")
	flag.Parse()

	if *csvOut == "" && *jsonOut == "" {
		flag.Usage()
		return fmt.Errorf("missing output: -csv-out or -json-out required")
	}

	start, err := time.Parse(domain.DateLayout, *startDate)
	if err != nil {
		return fmt.Errorf("parse -start: %w", err)
	}

	rng := rand.New(rand.NewSource(*seed))
	var records []domain.DailyRecord
	for _, s := range sites {
		records = append(records, generateSite(rng, s, start, *days)...)
	}
	log.Printf("generated %d records for %d sites", len(records), len(sites))
	printStats(records)

	if *csvOut != "" {
		if err := writeCSV(*csvOut, records); err != nil {
			return fmt.Errorf("writing CSV: %w", err)
		}
		log.Printf("wrote training CSV: %s", *csvOut)
	}
	if *jsonOut != "" {
		if err := writeWireJSON(*jsonOut, records); err != nil {
			return fmt.Errorf("writing JSON fixture: %w", err)
		}
		log.Printf("wrote wire fixture: %s", *jsonOut)
	}
	return nil
}

func generateSite(rng *rand.Rand, s site, start time.Time, days int) []domain.DailyRecord {
	records := make([]domain.DailyRecord, 0, days)
	for i := 0; i < days; i++ {
		date := start.AddDate(0, 0, i)
		wet := date.Month() >= time.June && date.Month() <= time.October

		precip := rainfall(rng, wet)
		humidity := 55 + 25*rng.Float64()
		if precip > 20 {
			humidity = 80 + 18*rng.Float64()
		}
		temp := 29 + 3*rng.NormFloat64()*0.5
		if wet {
			temp -= 1.5
		}
		wind := 2 + 6*rng.Float64()
		if precip > 80 {
			wind += 5 * rng.Float64()
		}

		rec := domain.DailyRecord{
			Date:          date,
			Location:      s.name,
			Latitude:      s.lat,
			Longitude:     s.lon,
			Precipitation: round1(precip),
			Temperature:   round1(temp),
			Humidity:      round1(math.Min(humidity, 100)),
			WindSpeed:     round1(wind),
		}

		// Sensor dropouts: about 1% of observations go missing.
		if rng.Float64() < 0.01 {
			rec.Temperature = math.NaN()
		}
		if rng.Float64() < 0.01 {
			rec.Humidity = math.NaN()
		}

		// Heavy-rain days usually have satellite corroboration.
		if precip > 60 && rng.Float64() < 0.7 {
			rec.SatelliteKnown = true
			rec.SatelliteAvailable = true
		}

		records = append(records, rec)
	}
	return records
}

// rainfall draws one day of precipitation in mm. Wet-season days have a 15%
// chance of an extreme event (60-260mm); dry-season rain is rare and light.
func rainfall(rng *rand.Rand, wet bool) float64 {
	if wet {
		if rng.Float64() < 0.15 {
			return 60 + 200*rng.Float64()
		}
		if rng.Float64() < 0.6 {
			return 30 * rng.ExpFloat64() / 2
		}
		return 5 * rng.Float64()
	}
	if rng.Float64() < 0.1 {
		return 15 * rng.Float64()
	}
	return 0
}

func round1(v float64) float64 {
	if math.IsNaN(v) {
		return v
	}
	return math.Round(v*10) / 10
}

func writeCSV(path string, records []domain.DailyRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"date", "location", "latitude", "longitude", "precipitation", "temperature", "humidity", "wind_speed", "satellite_available"}
	if err := w.Write(header); err != nil {
		return err
	}
	for i := range records {
		r := &records[i]
		sat := ""
		if r.SatelliteKnown {
			sat = "0"
			if r.SatelliteAvailable {
				sat = "1"
			}
		}
		row := []string{
			r.Date.Format(domain.DateLayout),
			r.Location,
			strconv.FormatFloat(r.Latitude, 'f', 4, 64),
			strconv.FormatFloat(r.Longitude, 'f', 4, 64),
			csvFloat(r.Precipitation),
			csvFloat(r.Temperature),
			csvFloat(r.Humidity),
			csvFloat(r.WindSpeed),
			sat,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// csvFloat renders NaN as an empty cell, never a literal zero.
func csvFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func writeWireJSON(path string, records []domain.DailyRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	wire := make([]domain.WireDailyRecord, 0, len(records))
	for i := range records {
		out, err := domain.SerializeDailyRecord(records[i])
		if err != nil {
			return err
		}
		var w domain.WireDailyRecord
		if err := json.Unmarshal(out.Value, &w); err != nil {
			return err
		}
		wire = append(wire, w)
	}
	data, err := json.MarshalIndent(wire, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(records []domain.DailyRecord) {
	heavy, wet, satellite := 0, 0, 0
	for i := range records {
		r := &records[i]
		if r.Precipitation > 80 {
			heavy++
		}
		if m := r.Date.Month(); m >= time.June && m <= time.October {
			wet++
		}
		if r.SatelliteKnown && r.SatelliteAvailable {
			satellite++
		}
	}
	log.Printf("stats: %d heavy-rain days (>80mm), %d wet-season rows, %d satellite-corroborated",
		heavy, wet, satellite)
}
