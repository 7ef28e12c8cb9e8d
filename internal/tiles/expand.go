// Package tiles turns area bounding boxes into the names of the 10 degree
// forest-loss tiles that cover them and selects those tiles from a catalog.
package tiles

import (
	"math"

	"github.com/UnknownOlympus/gaia/internal/models"
)

// Expand returns the smallest grid-aligned extent that contains bbox.
// Edges already on a multiple of models.CellSize are kept as they are.
func Expand(bbox models.BoundingBox) (models.GridAnchorSet, error) {
	if err := bbox.Validate(); err != nil {
		return models.GridAnchorSet{}, err
	}

	return models.GridAnchorSet{
		MinLat: floorToCell(bbox.MinY),
		MaxLat: ceilToCell(bbox.MaxY),
		MinLon: floorToCell(bbox.MinX),
		MaxLon: ceilToCell(bbox.MaxX),
	}, nil
}

func floorToCell(v float64) int {
	return int(math.Floor(v/models.CellSize)) * models.CellSize
}

func ceilToCell(v float64) int {
	return int(math.Ceil(v/models.CellSize)) * models.CellSize
}
