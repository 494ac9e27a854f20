package imerg

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bahalana/floodcast/internal/domain"
	"github.com/bahalana/floodcast/internal/observability"
)

var (
	marikina = domain.GeoPoint{Latitude: 14.65, Longitude: 121.10}
	july15   = time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC)
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCoverage(t *testing.T) {
	var gotQuery map[string][]string
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"feed":{"entry":[{"id":"G12345-GES_DISC"}]}}`)) //nolint:errcheck
	}))
	defer srv.Close()

	c := NewClient("tok", srv.URL, 5*time.Second, observability.NewMetricsForTesting(), testLogger())
	covered, err := c.Coverage(context.Background(), marikina, july15)
	require.NoError(t, err)
	assert.True(t, covered)

	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, []string{"GPM_3IMERGDL"}, gotQuery["short_name"])
	assert.Equal(t, []string{"2024-07-15T00:00:00Z/2024-07-15T23:59:59Z"}, gotQuery["temporal"])
	assert.Equal(t, []string{"121.0000,14.5500,121.2000,14.7500"}, gotQuery["bounding_box"])
}

func TestCoverageNoGranules(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"feed":{"entry":[]}}`)) //nolint:errcheck
	}))
	defer srv.Close()

	c := NewClient("", srv.URL, 5*time.Second, observability.NewMetricsForTesting(), testLogger())
	covered, err := c.Coverage(context.Background(), marikina, july15)
	require.NoError(t, err)
	assert.False(t, covered)
}

func TestCoverageAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient("expired", srv.URL, 5*time.Second, observability.NewMetricsForTesting(), testLogger())
	_, err := c.Coverage(context.Background(), marikina, july15)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

type countingChecker struct {
	calls   atomic.Int64
	covered bool
	err     error
}

func (c *countingChecker) Coverage(context.Context, domain.GeoPoint, time.Time) (bool, error) {
	c.calls.Add(1)
	return c.covered, c.err
}

func TestCachedCheckerCachesBothAnswers(t *testing.T) {
	inner := &countingChecker{covered: false}
	cached := NewCachedChecker(inner, 10, observability.NewMetricsForTesting())

	for i := 0; i < 3; i++ {
		covered, err := cached.Coverage(context.Background(), marikina, july15)
		require.NoError(t, err)
		assert.False(t, covered)
	}
	// Negative answers are cached too; coverage for a past day is stable.
	assert.Equal(t, int64(1), inner.calls.Load())
}

func TestCachedCheckerDoesNotCacheErrors(t *testing.T) {
	inner := &countingChecker{err: errors.New("cmr down")}
	cached := NewCachedChecker(inner, 10, observability.NewMetricsForTesting())

	_, err := cached.Coverage(context.Background(), marikina, july15)
	require.Error(t, err)
	_, err = cached.Coverage(context.Background(), marikina, july15)
	require.Error(t, err)
	assert.Equal(t, int64(2), inner.calls.Load())
}

func TestCachedCheckerEvicts(t *testing.T) {
	inner := &countingChecker{covered: true}
	cached := NewCachedChecker(inner, 2, observability.NewMetricsForTesting())

	days := []time.Time{july15, july15.AddDate(0, 0, 1), july15.AddDate(0, 0, 2)}
	for _, d := range days {
		_, err := cached.Coverage(context.Background(), marikina, d)
		require.NoError(t, err)
	}
	// The first day was evicted; asking again misses the cache.
	_, err := cached.Coverage(context.Background(), marikina, july15)
	require.NoError(t, err)
	assert.Equal(t, int64(4), inner.calls.Load())
}
