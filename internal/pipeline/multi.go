package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/bahalana/floodcast/internal/domain"
)

// MultiLoader fans a batch out to several destinations, typically the sink
// topic and the Postgres training store. Every loader sees the batch even
// when an earlier one fails; errors are joined so the pipeline retries the
// whole batch. Loaders must therefore tolerate replays, which both the
// keyed sink topic and the upserting store do.
type MultiLoader struct {
	loaders []BatchLoader
}

// NewMultiLoader combines the given loaders. Nil entries are skipped so
// callers can pass optional destinations directly.
func NewMultiLoader(loaders ...BatchLoader) *MultiLoader {
	m := &MultiLoader{}
	for _, l := range loaders {
		if l != nil {
			m.loaders = append(m.loaders, l)
		}
	}
	return m
}

func (m *MultiLoader) LoadBatch(ctx context.Context, records []domain.DailyRecord) error {
	var errs []error
	for _, l := range m.loaders {
		if err := l.LoadBatch(ctx, records); err != nil {
			errs = append(errs, fmt.Errorf("load batch: %w", err))
		}
	}
	return errors.Join(errs...)
}
