package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// powerFillValue is the NASA POWER sentinel for days without an observation.
const powerFillValue = -999.0

// RawRecord represents an unprocessed message from the source topic.
type RawRecord struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// WireDailyRecord is the flat JSON shape published by the upstream fetcher
// services. Pointer fields keep missing values explicit: absent or null is a
// missing observation, never zero.
type WireDailyRecord struct {
	Date               string   `json:"date"`
	Location           string   `json:"location"`
	Latitude           float64  `json:"latitude"`
	Longitude          float64  `json:"longitude"`
	Precipitation      *float64 `json:"precipitation"`
	Temperature        *float64 `json:"temperature"`
	Humidity           *float64 `json:"humidity"`
	WindSpeed          *float64 `json:"wind_speed"`
	SatelliteAvailable *int     `json:"satellite_available,omitempty"`
}

// DailyRecord is the domain representation of one day of climate
// observations at one location. Missing values are math.NaN().
type DailyRecord struct {
	Date      time.Time `json:"date"`
	Location  string    `json:"location"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`

	Precipitation float64 `json:"precipitation"` // mm/day, >= 0 or NaN
	Temperature   float64 `json:"temperature"`   // °C or NaN
	Humidity      float64 `json:"humidity"`      // %, 0-100 or NaN
	WindSpeed     float64 `json:"wind_speed"`    // m/s, >= 0 or NaN

	// SatelliteAvailable reports IMERG coverage for the day. SatelliteKnown
	// distinguishes "flag absent upstream" from "flag present and false".
	SatelliteAvailable bool `json:"satellite_available"`
	SatelliteKnown     bool `json:"satellite_known"`

	ProcessedAt time.Time `json:"processed_at"`
}

// OutputRecord is the serialized form destined for the sink topic.
type OutputRecord struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// ParseRawRecord deserializes a RawRecord's value into a DailyRecord.
// It expects the flat JSON produced by the fetcher services.
func ParseRawRecord(raw RawRecord) (DailyRecord, error) {
	var rec WireDailyRecord
	if err := json.Unmarshal(raw.Value, &rec); err != nil {
		return DailyRecord{}, fmt.Errorf("parse raw record: %w", err)
	}

	location := strings.TrimSpace(rec.Location)
	if location == "" {
		return DailyRecord{}, fmt.Errorf("parse raw record: %w: location", ErrMissingColumn)
	}

	date, err := time.ParseInLocation(DateLayout, rec.Date, time.UTC)
	if err != nil {
		return DailyRecord{}, fmt.Errorf("parse raw record date %q: %w", rec.Date, err)
	}

	humidity := floatOrNaN(rec.Humidity)
	if !math.IsNaN(humidity) && (humidity < 0 || humidity > 100) {
		return DailyRecord{}, fmt.Errorf("parse raw record: humidity %.1f out of range [0,100]", humidity)
	}

	out := DailyRecord{
		Date:          date,
		Location:      location,
		Latitude:      rec.Latitude,
		Longitude:     rec.Longitude,
		Precipitation: nonNegativeOrNaN(floatOrNaN(rec.Precipitation)),
		Temperature:   floatOrNaN(rec.Temperature),
		Humidity:      humidity,
		WindSpeed:     nonNegativeOrNaN(floatOrNaN(rec.WindSpeed)),
	}
	if rec.SatelliteAvailable != nil {
		out.SatelliteKnown = true
		out.SatelliteAvailable = *rec.SatelliteAvailable != 0
	}
	return out, nil
}

// EnrichDailyRecord stamps the record with the processing time.
func EnrichDailyRecord(rec DailyRecord) DailyRecord {
	rec.ProcessedAt = clock.Now()
	return rec
}

// SerializeDailyRecord marshals a DailyRecord into an OutputRecord keyed by
// "<location>|<date>" so the sink topic partitions by location and replays
// overwrite rather than duplicate.
func SerializeDailyRecord(rec DailyRecord) (OutputRecord, error) {
	data, err := json.Marshal(wireFromDaily(rec))
	if err != nil {
		return OutputRecord{}, fmt.Errorf("serialize daily record: %w", err)
	}
	return OutputRecord{
		Key:   []byte(rec.Key()),
		Value: data,
		Headers: map[string]string{
			"location":     rec.Location,
			"processed_at": rec.ProcessedAt.UTC().Format(time.RFC3339),
		},
	}, nil
}

// Key returns the record's natural identity, "<location>|<date>".
func (r DailyRecord) Key() string {
	return r.Location + "|" + r.Date.Format(DateLayout)
}

// wireFromDaily converts back to the wire shape, restoring explicit nulls
// for NaN values. JSON cannot represent NaN, so the sink payload carries the
// same null convention the source does.
func wireFromDaily(rec DailyRecord) WireDailyRecord {
	w := WireDailyRecord{
		Date:          rec.Date.Format(DateLayout),
		Location:      rec.Location,
		Latitude:      rec.Latitude,
		Longitude:     rec.Longitude,
		Precipitation: nanToNil(rec.Precipitation),
		Temperature:   nanToNil(rec.Temperature),
		Humidity:      nanToNil(rec.Humidity),
		WindSpeed:     nanToNil(rec.WindSpeed),
	}
	if rec.SatelliteKnown {
		avail := 0
		if rec.SatelliteAvailable {
			avail = 1
		}
		w.SatelliteAvailable = &avail
	}
	return w
}

// SortRecords orders records by (location, date), the order every rolling
// and lag computation assumes.
func SortRecords(records []DailyRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Location != records[j].Location {
			return records[i].Location < records[j].Location
		}
		return records[i].Date.Before(records[j].Date)
	})
}

// floatOrNaN dereferences an optional wire value, mapping null and the NASA
// POWER fill value to NaN.
func floatOrNaN(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	if *p == powerFillValue {
		return math.NaN()
	}
	return *p
}

// nonNegativeOrNaN treats negative magnitudes (fill values, sensor faults)
// as missing rather than clamping them to zero.
func nonNegativeOrNaN(v float64) float64 {
	if v < 0 {
		return math.NaN()
	}
	return v
}

func nanToNil(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}
