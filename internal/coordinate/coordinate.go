// Package coordinate converts KorService2 map coordinates into WGS84 longitude/latitude.
//
// The API returns mapx/mapy either as plain WGS84 degrees or as fixed-point integers
// scaled by 10^7. Which one a record uses cannot be told apart reliably, so Convert
// applies a range heuristic and reports how it decided.
package coordinate

import (
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/FACorreiaa/go-korea-tour-explorer/internal/types"
)

const (
	// Scale is the fixed-point divisor used by the provider.
	Scale = 10_000_000

	MinLng = 124.0
	MaxLng = 132.0
	MinLat = 33.0
	MaxLat = 43.0

	// Seoul City Hall, used when there is nothing to centre on.
	DefaultLng = 126.978
	DefaultLat = 37.5665

	defaultBoundsPadding = 0.1
)

// Status records how a conversion was resolved.
type Status int

const (
	// StatusFallback means neither interpretation fell inside Korea; the raw values are returned.
	StatusFallback Status = iota
	// StatusWGS84 means the input was already in degrees.
	StatusWGS84
	// StatusScaled means the input was divided by Scale.
	StatusScaled
)

func (s Status) String() string {
	switch s {
	case StatusWGS84:
		return "wgs84"
	case StatusScaled:
		return "scaled"
	default:
		return "fallback"
	}
}

// MarshalText lets Status appear as a string in JSON.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Coordinate is a WGS84 point.
type Coordinate struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	MinLng float64 `json:"minLng"`
	MaxLng float64 `json:"maxLng"`
	MinLat float64 `json:"minLat"`
	MaxLat float64 `json:"maxLat"`
}

// Conversion is the result of Convert.
type Conversion struct {
	Coordinate
	Status Status `json:"status"`
}

// Valid reports whether the point can be plotted. Fallback results should be hidden.
func (c Conversion) Valid() bool {
	return c.Status != StatusFallback
}

// InKorea reports whether (lng, lat) lies in the bounding box of Korean territory.
func InKorea(lng, lat float64) bool {
	return lng >= MinLng && lng <= MaxLng && lat >= MinLat && lat <= MaxLat
}

// Converter resolves provider coordinates and logs the ones it cannot place.
type Converter struct {
	logger *slog.Logger
}

func NewConverter(logger *slog.Logger) *Converter {
	return &Converter{logger: logger.With(slog.String("component", "CoordinateConverter"))}
}

// Convert parses the provider's mapx/mapy strings and converts them.
// Unparseable or non-finite input yields a zero-valued fallback.
func (c *Converter) Convert(mapx, mapy string) Conversion {
	x, errX := strconv.ParseFloat(strings.TrimSpace(mapx), 64)
	y, errY := strconv.ParseFloat(strings.TrimSpace(mapy), 64)
	if errX != nil || errY != nil || !finite(x) || !finite(y) {
		c.logger.Warn("Unparseable coordinate", slog.String("mapx", mapx), slog.String("mapy", mapy))
		return Conversion{Status: StatusFallback}
	}
	conv := ConvertFloat(x, y)
	if !conv.Valid() {
		c.logger.Warn("Coordinate outside Korea after scaling, returning raw values",
			slog.Float64("x", x), slog.Float64("y", y))
	}
	return conv
}

// ConvertFloat applies the range heuristic to numeric input. NaN and
// infinities yield a zero-valued fallback.
func ConvertFloat(x, y float64) Conversion {
	if !finite(x) || !finite(y) {
		return Conversion{Status: StatusFallback}
	}
	if InKorea(x, y) {
		return Conversion{Coordinate: Coordinate{Lng: x, Lat: y}, Status: StatusWGS84}
	}
	sx, sy := x/Scale, y/Scale
	if InKorea(sx, sy) {
		return Conversion{Coordinate: Coordinate{Lng: sx, Lat: sy}, Status: StatusScaled}
	}
	return Conversion{Coordinate: Coordinate{Lng: x, Lat: y}, Status: StatusFallback}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Center returns the arithmetic mean of coords, or Seoul City Hall for an empty set.
func Center(coords []Coordinate) Coordinate {
	switch len(coords) {
	case 0:
		return Coordinate{Lng: DefaultLng, Lat: DefaultLat}
	case 1:
		return coords[0]
	}
	var sum Coordinate
	for _, c := range coords {
		sum.Lng += c.Lng
		sum.Lat += c.Lat
	}
	n := float64(len(coords))
	return Coordinate{Lng: sum.Lng / n, Lat: sum.Lat / n}
}

// BoundsOf returns the min/max box around coords. An empty set yields a small box around Seoul.
func BoundsOf(coords []Coordinate) Bounds {
	if len(coords) == 0 {
		return Bounds{
			MinLng: DefaultLng - defaultBoundsPadding,
			MaxLng: DefaultLng + defaultBoundsPadding,
			MinLat: DefaultLat - defaultBoundsPadding,
			MaxLat: DefaultLat + defaultBoundsPadding,
		}
	}
	b := Bounds{MinLng: coords[0].Lng, MaxLng: coords[0].Lng, MinLat: coords[0].Lat, MaxLat: coords[0].Lat}
	for _, c := range coords[1:] {
		b.MinLng = min(b.MinLng, c.Lng)
		b.MaxLng = max(b.MaxLng, c.Lng)
		b.MinLat = min(b.MinLat, c.Lat)
		b.MaxLat = max(b.MaxLat, c.Lat)
	}
	return b
}

// MapMarker is a plottable list item.
type MapMarker struct {
	ContentID     string     `json:"contentId"`
	ContentTypeID string     `json:"contentTypeId"`
	Title         string     `json:"title"`
	Address       string     `json:"address"`
	Position      Coordinate `json:"position"`
}

// Markers converts list items into map markers, skipping items whose
// coordinates could not be resolved.
func (c *Converter) Markers(items []types.TourItem) []MapMarker {
	markers := make([]MapMarker, 0, len(items))
	for _, it := range items {
		conv := c.Convert(it.MapX, it.MapY)
		if !conv.Valid() {
			continue
		}
		markers = append(markers, MapMarker{
			ContentID:     it.ContentID,
			ContentTypeID: it.ContentTypeID,
			Title:         it.Title,
			Address:       it.Addr1,
			Position:      conv.Coordinate,
		})
	}
	return markers
}

// Positions extracts the coordinates of markers.
func Positions(markers []MapMarker) []Coordinate {
	out := make([]Coordinate, len(markers))
	for i, m := range markers {
		out[i] = m.Position
	}
	return out
}
