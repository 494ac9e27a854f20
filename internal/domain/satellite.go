package domain

import (
	"context"
	"log/slog"
	"time"
)

// SatelliteChecker reports whether IMERG satellite precipitation coverage
// exists for a point on a given day.
type SatelliteChecker interface {
	Coverage(ctx context.Context, point GeoPoint, date time.Time) (bool, error)
}

// EnrichWithSatellite fills the satellite flag when the upstream record
// omitted it. A nil checker or a lookup failure leaves the flag unknown;
// the record still flows through (graceful degradation).
func EnrichWithSatellite(ctx context.Context, rec DailyRecord, checker SatelliteChecker, logger *slog.Logger) DailyRecord {
	if checker == nil || rec.SatelliteKnown {
		return rec
	}

	covered, err := checker.Coverage(ctx, GeoPoint{Latitude: rec.Latitude, Longitude: rec.Longitude}, rec.Date)
	if err != nil {
		logger.Warn("satellite coverage lookup failed",
			"record", rec.Key(),
			"error", err,
		)
		return rec
	}
	rec.SatelliteKnown = true
	rec.SatelliteAvailable = covered
	return rec
}
