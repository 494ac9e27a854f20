package risk

import "github.com/bahalana/floodcast/internal/domain"

// Region is a named bounding box with a terrain-derived adjustment. The
// multiplier applies to the precipitation sub-score only; the bonus is a
// flat addition for chronically flood-exposed areas.
type Region struct {
	Name       string
	MinLat     float64
	MaxLat     float64
	MinLon     float64
	MaxLon     float64
	Multiplier float64
	Bonus      int
}

// Contains reports whether p falls inside the region's bounding box,
// boundaries inclusive.
func (r Region) Contains(p domain.GeoPoint) bool {
	return p.Latitude >= r.MinLat && p.Latitude <= r.MaxLat &&
		p.Longitude >= r.MinLon && p.Longitude <= r.MaxLon
}

// regions is checked in order and the first match wins, so narrower
// high-risk basins must precede the wider areas that enclose them. The
// Marikina box sits inside the Metro Manila box on purpose.
//
// Multipliers above 1.0 mark low-lying river basins and floodplains with
// documented recurring floods; below 1.0 marks limestone or mountainous
// terrain that sheds or absorbs rainfall quickly.
var regions = []Region{
	{Name: "Marikina River Basin", MinLat: 14.58, MaxLat: 14.78, MinLon: 121.06, MaxLon: 121.22, Multiplier: 1.35, Bonus: 10},
	{Name: "Metro Manila", MinLat: 14.35, MaxLat: 14.80, MinLon: 120.90, MaxLon: 121.15, Multiplier: 1.25, Bonus: 5},
	{Name: "Pampanga River Basin", MinLat: 14.80, MaxLat: 15.60, MinLon: 120.40, MaxLon: 121.10, Multiplier: 1.30, Bonus: 8},
	{Name: "Cagayan Valley", MinLat: 16.70, MaxLat: 18.40, MinLon: 121.20, MaxLon: 122.30, Multiplier: 1.20, Bonus: 5},
	{Name: "Bicol River Basin", MinLat: 13.20, MaxLat: 13.90, MinLon: 123.00, MaxLon: 123.60, Multiplier: 1.15, Bonus: 5},
	{Name: "Agusan Marsh", MinLat: 8.20, MaxLat: 9.00, MinLon: 125.50, MaxLon: 126.10, Multiplier: 1.25, Bonus: 8},
	{Name: "Cebu Limestone Uplands", MinLat: 9.80, MaxLat: 11.30, MinLon: 123.30, MaxLon: 124.10, Multiplier: 0.85},
	{Name: "Cordillera Highlands", MinLat: 16.40, MaxLat: 17.60, MinLon: 120.50, MaxLon: 121.20, Multiplier: 0.80},
}

// RegionFor returns the first region containing p, or nil when the point
// matches nothing and the neutral modifier applies.
func RegionFor(p domain.GeoPoint) *Region {
	for i := range regions {
		if regions[i].Contains(p) {
			return &regions[i]
		}
	}
	return nil
}
