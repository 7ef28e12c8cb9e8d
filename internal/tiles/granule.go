package tiles

import (
	"github.com/UnknownOlympus/gaia/internal/models"
)

// Generate lists candidate tile names for every anchor pair in the set,
// latitude-major, with both the lower and the upper anchors included.
func Generate(anchors models.GridAnchorSet, baseName string) []string {
	rows := (anchors.MaxLat-anchors.MinLat)/models.CellSize + 1
	cols := (anchors.MaxLon-anchors.MinLon)/models.CellSize + 1
	if rows <= 0 || cols <= 0 {
		return nil
	}

	names := make([]string, 0, rows*cols)
	for lat := anchors.MinLat; lat <= anchors.MaxLat; lat += models.CellSize {
		for lon := anchors.MinLon; lon <= anchors.MaxLon; lon += models.CellSize {
			names = append(names, TileName(baseName, lat, lon))
		}
	}

	return names
}

// TileName builds the extension-less name of a single tile.
func TileName(baseName string, lat, lon int) string {
	return baseName + "_" + FormatLat(lat) + "_" + FormatLon(lon)
}
