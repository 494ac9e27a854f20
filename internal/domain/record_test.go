package domain

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRawRecord(t *testing.T) {
	t.Run("complete record", func(t *testing.T) {
		data := []byte(`{"date":"2024-07-15","location":"Marikina City","latitude":14.6507,"longitude":121.1029,"precipitation":95.5,"temperature":26.8,"humidity":93.0,"wind_speed":7.2,"satellite_available":1}`)
		rec, err := ParseRawRecord(RawRecord{Value: data})

		require.NoError(t, err)
		assert.Equal(t, "Marikina City", rec.Location)
		assert.Equal(t, time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC), rec.Date)
		assert.Equal(t, 14.6507, rec.Latitude)
		assert.Equal(t, 95.5, rec.Precipitation)
		assert.Equal(t, 26.8, rec.Temperature)
		assert.Equal(t, 93.0, rec.Humidity)
		assert.Equal(t, 7.2, rec.WindSpeed)
		assert.True(t, rec.SatelliteKnown)
		assert.True(t, rec.SatelliteAvailable)
	})

	t.Run("explicit nulls become NaN", func(t *testing.T) {
		data := []byte(`{"date":"2024-07-15","location":"Quezon City","latitude":14.676,"longitude":121.044,"precipitation":null,"temperature":28.1,"humidity":null,"wind_speed":3.0}`)
		rec, err := ParseRawRecord(RawRecord{Value: data})

		require.NoError(t, err)
		assert.True(t, math.IsNaN(rec.Precipitation))
		assert.True(t, math.IsNaN(rec.Humidity))
		assert.Equal(t, 28.1, rec.Temperature)
		assert.False(t, rec.SatelliteKnown)
	})

	t.Run("power fill value becomes NaN", func(t *testing.T) {
		data := []byte(`{"date":"2024-07-15","location":"Cebu City","latitude":10.32,"longitude":123.89,"precipitation":-999,"temperature":-999,"humidity":85,"wind_speed":2}`)
		rec, err := ParseRawRecord(RawRecord{Value: data})

		require.NoError(t, err)
		assert.True(t, math.IsNaN(rec.Precipitation))
		assert.True(t, math.IsNaN(rec.Temperature))
	})

	t.Run("negative precipitation becomes NaN", func(t *testing.T) {
		data := []byte(`{"date":"2024-07-15","location":"Cebu City","latitude":10.32,"longitude":123.89,"precipitation":-4.2,"temperature":30,"humidity":85,"wind_speed":2}`)
		rec, err := ParseRawRecord(RawRecord{Value: data})

		require.NoError(t, err)
		assert.True(t, math.IsNaN(rec.Precipitation))
	})

	t.Run("humidity out of range rejected", func(t *testing.T) {
		data := []byte(`{"date":"2024-07-15","location":"Cebu City","latitude":10.32,"longitude":123.89,"precipitation":5,"temperature":30,"humidity":130,"wind_speed":2}`)
		_, err := ParseRawRecord(RawRecord{Value: data})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "humidity")
	})

	t.Run("missing location rejected", func(t *testing.T) {
		data := []byte(`{"date":"2024-07-15","location":"  ","latitude":10.32,"longitude":123.89,"precipitation":5,"temperature":30,"humidity":80,"wind_speed":2}`)
		_, err := ParseRawRecord(RawRecord{Value: data})

		require.ErrorIs(t, err, ErrMissingColumn)
	})

	t.Run("malformed date rejected", func(t *testing.T) {
		data := []byte(`{"date":"July 15","location":"Cebu City","latitude":10.32,"longitude":123.89,"precipitation":5,"temperature":30,"humidity":80,"wind_speed":2}`)
		_, err := ParseRawRecord(RawRecord{Value: data})

		require.Error(t, err)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := ParseRawRecord(RawRecord{Value: []byte("{invalid json")})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse raw record")
	})
}

func TestSerializeDailyRecord(t *testing.T) {
	SetClock(clockwork.NewFakeClockAt(time.Date(2024, 7, 16, 6, 0, 0, 0, time.UTC)))
	defer SetClock(nil)

	rec := DailyRecord{
		Date:          time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC),
		Location:      "Marikina City",
		Latitude:      14.6507,
		Longitude:     121.1029,
		Precipitation: 95.5,
		Temperature:   math.NaN(),
		Humidity:      93.0,
		WindSpeed:     7.2,
	}
	rec = EnrichDailyRecord(rec)

	out, err := SerializeDailyRecord(rec)
	require.NoError(t, err)

	assert.Equal(t, []byte("Marikina City|2024-07-15"), out.Key)
	assert.Equal(t, "Marikina City", out.Headers["location"])
	assert.Equal(t, "2024-07-16T06:00:00Z", out.Headers["processed_at"])

	// NaN goes back to the wire as an explicit null, never a zero.
	var wire WireDailyRecord
	require.NoError(t, json.Unmarshal(out.Value, &wire))
	assert.Nil(t, wire.Temperature)
	require.NotNil(t, wire.Precipitation)
	assert.Equal(t, 95.5, *wire.Precipitation)
	assert.Nil(t, wire.SatelliteAvailable)
}

func TestSerializeRoundTripsSatelliteFlag(t *testing.T) {
	rec := DailyRecord{
		Date:               time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC),
		Location:           "Marikina City",
		SatelliteKnown:     true,
		SatelliteAvailable: false,
	}

	out, err := SerializeDailyRecord(rec)
	require.NoError(t, err)

	parsed, err := ParseRawRecord(RawRecord{Value: out.Value})
	require.NoError(t, err)
	assert.True(t, parsed.SatelliteKnown)
	assert.False(t, parsed.SatelliteAvailable)
}

func TestSortRecords(t *testing.T) {
	recs := []DailyRecord{
		{Location: "B", Date: time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC)},
		{Location: "A", Date: time.Date(2024, 7, 3, 0, 0, 0, 0, time.UTC)},
		{Location: "B", Date: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)},
		{Location: "A", Date: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)},
	}
	SortRecords(recs)

	assert.Equal(t, "A|2024-07-01", recs[0].Key())
	assert.Equal(t, "A|2024-07-03", recs[1].Key())
	assert.Equal(t, "B|2024-07-01", recs[2].Key())
	assert.Equal(t, "B|2024-07-02", recs[3].Key())
}
