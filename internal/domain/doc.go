// Package domain models daily climate observations used for flood risk
// assessment and prediction.
//
// # Data Sources
//
// Daily records originate from two upstream services. The climate fetcher
// queries the NASA POWER API (https://power.larc.nasa.gov) for point
// observations of the parameters T2M (air temperature at 2m, °C),
// PRECTOTCORR (corrected total precipitation, mm/day), RH2M (relative
// humidity at 2m, %) and WS2M (wind speed at 2m, m/s). The satellite fetcher
// queries the NASA CMR catalog for GPM IMERG precipitation granules and
// marks days with satellite coverage. Both publish flat JSON rows to the
// Kafka source topic, one message per (location, date).
//
// # Missing Values
//
// NASA POWER uses -999 as its fill value for days without an observation.
// Upstream services are expected to translate fill values to JSON null; the
// parser here additionally treats -999 and negative precipitation as
// missing, defensively. Inside the domain a missing value is math.NaN(),
// never zero: a day with 0mm rainfall and a day with no rainfall data are
// different observations and must stay distinguishable through feature
// derivation.
//
// # Ordering and Uniqueness
//
// A daily series is ordered by (location, date) and must contain at most one
// record per (location, date) pair. Rolling-window and lag features are
// meaningless otherwise; the Postgres store enforces uniqueness with an
// upsert and SortRecords restores ordering before feature derivation.
//
// # Wet Season
//
// The service is calibrated for Philippine flood conditions. The southwest
// monsoon (habagat) wet season spans June through October; those months set
// the is_wet_season flag used both by the feature builder and the synthetic
// data generator.
package domain
