package pipeline

import (
	"context"
	"log/slog"

	"github.com/bahalana/floodcast/internal/domain"
)

// ClimateTransformer implements Transformer using domain transform
// functions with optional IMERG coverage enrichment.
type ClimateTransformer struct {
	satellite domain.SatelliteChecker
	logger    *slog.Logger
}

// NewTransformer creates a ClimateTransformer. Pass a nil checker to
// disable satellite enrichment.
func NewTransformer(satellite domain.SatelliteChecker, logger *slog.Logger) *ClimateTransformer {
	return &ClimateTransformer{
		satellite: satellite,
		logger:    logger,
	}
}

func (t *ClimateTransformer) Transform(ctx context.Context, raw domain.RawRecord) (domain.DailyRecord, error) {
	rec, err := domain.ParseRawRecord(raw)
	if err != nil {
		return domain.DailyRecord{}, err
	}

	rec = domain.EnrichDailyRecord(rec)
	rec = domain.EnrichWithSatellite(ctx, rec, t.satellite, t.logger)

	return rec, nil
}
