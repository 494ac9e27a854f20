// Package power fetches daily climate observations from the NASA POWER API
// and maps them onto domain daily records.
package power

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/bahalana/floodcast/internal/domain"
)

// POWER parameter codes for the four observations the system uses.
const (
	paramTemperature   = "T2M"
	paramPrecipitation = "PRECTOTCORR"
	paramHumidity      = "RH2M"
	paramWindSpeed     = "WS2M"
)

// fillValue marks days POWER has no observation for.
const fillValue = -999.0

const dateKeyLayout = "20060102"

// Client calls the NASA POWER temporal daily point API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a POWER client. The API is open; no credentials needed.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		logger:     logger,
	}
}

// FetchDaily returns one record per day in the inclusive range, ordered by
// date. Fill values and absent days come back as NaN fields, never zeros.
func (c *Client) FetchDaily(ctx context.Context, location string, point domain.GeoPoint, start, end time.Time) ([]domain.DailyRecord, error) {
	params := url.Values{
		"parameters": {fmt.Sprintf("%s,%s,%s,%s", paramTemperature, paramPrecipitation, paramHumidity, paramWindSpeed)},
		"community":  {"AG"},
		"latitude":   {fmt.Sprintf("%.4f", point.Latitude)},
		"longitude":  {fmt.Sprintf("%.4f", point.Longitude)},
		"start":      {start.Format(dateKeyLayout)},
		"end":        {end.Format(dateKeyLayout)},
		"format":     {"JSON"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create power request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("power request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("power API error: status %d: %s", resp.StatusCode, body)
	}

	var powerResp response
	if err := json.NewDecoder(resp.Body).Decode(&powerResp); err != nil {
		return nil, fmt.Errorf("decode power response: %w", err)
	}

	return c.toRecords(location, point, powerResp.Properties.Parameter)
}

// toRecords pivots POWER's per-parameter date maps into per-day records.
func (c *Client) toRecords(location string, point domain.GeoPoint, params map[string]map[string]float64) ([]domain.DailyRecord, error) {
	dates := make(map[string]struct{})
	for _, values := range params {
		for d := range values {
			dates[d] = struct{}{}
		}
	}
	if len(dates) == 0 {
		return nil, fmt.Errorf("power response: %w", domain.ErrEmptyInput)
	}

	ordered := make([]string, 0, len(dates))
	for d := range dates {
		ordered = append(ordered, d)
	}
	sort.Strings(ordered)

	records := make([]domain.DailyRecord, 0, len(ordered))
	for _, key := range ordered {
		date, err := time.ParseInLocation(dateKeyLayout, key, time.UTC)
		if err != nil {
			c.logger.Warn("skipping unparseable power date", "date", key, "error", err)
			continue
		}
		records = append(records, domain.DailyRecord{
			Date:          date,
			Location:      location,
			Latitude:      point.Latitude,
			Longitude:     point.Longitude,
			Precipitation: value(params[paramPrecipitation], key),
			Temperature:   value(params[paramTemperature], key),
			Humidity:      value(params[paramHumidity], key),
			WindSpeed:     value(params[paramWindSpeed], key),
		})
	}
	return records, nil
}

// value resolves one parameter for one day, mapping fill values and absent
// entries to NaN.
func value(values map[string]float64, key string) float64 {
	v, ok := values[key]
	if !ok || v == fillValue {
		return math.NaN()
	}
	return v
}

// POWER API response types.

type response struct {
	Properties properties `json:"properties"`
}

type properties struct {
	Parameter map[string]map[string]float64 `json:"parameter"`
}
