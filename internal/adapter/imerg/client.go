// Package imerg answers "did the GPM IMERG satellite product cover this
// point on this day" by searching the NASA CMR granule catalog. The ingest
// pipeline uses it to fill the satellite flag when upstream records omit
// one, and the labeler treats coverage as corroborating evidence.
package imerg

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/bahalana/floodcast/internal/domain"
	"github.com/bahalana/floodcast/internal/observability"
)

const datasetShortName = "GPM_3IMERGDL"

// bboxPadDegrees widens the point query; IMERG granules are global daily
// files, the padding just guards against degenerate zero-area boxes.
const bboxPadDegrees = 0.1

// Client implements domain.SatelliteChecker against the CMR search API.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a CMR granule search client. The Earthdata token may be
// empty; CMR metadata search works unauthenticated at lower rate limits.
func NewClient(token, baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		metrics:    metrics,
		logger:     logger,
	}
}

// DefaultBaseURL is the production CMR search endpoint.
const DefaultBaseURL = "https://cmr.earthdata.nasa.gov/search/granules.json"

// Coverage reports whether at least one IMERG daily granule exists for the
// point and date.
func (c *Client) Coverage(ctx context.Context, point domain.GeoPoint, date time.Time) (bool, error) {
	day := date.UTC().Format(domain.DateLayout)
	params := url.Values{
		"short_name": {datasetShortName},
		"page_size":  {"1"},
		"temporal":   {fmt.Sprintf("%sT00:00:00Z/%sT23:59:59Z", day, day)},
		"bounding_box": {fmt.Sprintf("%.4f,%.4f,%.4f,%.4f",
			point.Longitude-bboxPadDegrees, point.Latitude-bboxPadDegrees,
			point.Longitude+bboxPadDegrees, point.Latitude+bboxPadDegrees)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return false, fmt.Errorf("create cmr request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.SatelliteAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.SatelliteRequests.WithLabelValues("error").Inc()
		return false, fmt.Errorf("cmr request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.SatelliteRequests.WithLabelValues("error").Inc()
		body, _ := io.ReadAll(resp.Body)
		return false, fmt.Errorf("cmr API error: status %d: %s", resp.StatusCode, body)
	}

	var cmrResp response
	if err := json.NewDecoder(resp.Body).Decode(&cmrResp); err != nil {
		c.metrics.SatelliteRequests.WithLabelValues("error").Inc()
		return false, fmt.Errorf("decode cmr response: %w", err)
	}

	c.metrics.SatelliteRequests.WithLabelValues("success").Inc()
	return len(cmrResp.Feed.Entry) > 0, nil
}

// CMR API response types.

type response struct {
	Feed feed `json:"feed"`
}

type feed struct {
	Entry []granule `json:"entry"`
}

type granule struct {
	ID string `json:"id"`
}
