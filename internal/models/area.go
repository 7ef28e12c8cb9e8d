package models

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidGeometry is returned when an area's bounding box cannot be used for tile selection.
var ErrInvalidGeometry = errors.New("invalid geometry")

// BoundingBox is the planar extent of an area in degrees.
type BoundingBox struct {
	MinX float64 // MinX is the western edge (longitude).
	MinY float64 // MinY is the southern edge (latitude).
	MaxX float64 // MaxX is the eastern edge (longitude).
	MaxY float64 // MaxY is the northern edge (latitude).
}

// Coordinate limits of a geographic bounding box.
const (
	MaxLatitude  = 90
	MaxLongitude = 180
)

// Validate reports ErrInvalidGeometry when any edge is NaN or infinite,
// when an edge lies outside the geographic coordinate range,
// or when a minimum edge lies past its maximum.
func (b BoundingBox) Validate() error {
	for _, v := range []float64{b.MinX, b.MinY, b.MaxX, b.MaxY} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite edge in %s", ErrInvalidGeometry, b)
		}
	}
	if math.Abs(b.MinX) > MaxLongitude || math.Abs(b.MaxX) > MaxLongitude {
		return fmt.Errorf("%w: longitude outside [-%d, %d] in %s", ErrInvalidGeometry, MaxLongitude, MaxLongitude, b)
	}
	if math.Abs(b.MinY) > MaxLatitude || math.Abs(b.MaxY) > MaxLatitude {
		return fmt.Errorf("%w: latitude outside [-%d, %d] in %s", ErrInvalidGeometry, MaxLatitude, MaxLatitude, b)
	}
	if b.MinX > b.MaxX || b.MinY > b.MaxY {
		return fmt.Errorf("%w: min exceeds max in %s", ErrInvalidGeometry, b)
	}

	return nil
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("(%g, %g, %g, %g)", b.MinX, b.MinY, b.MaxX, b.MaxY)
}

// Area is one named region of the input geometry file.
type Area struct {
	Label string      // Label names the output directory for the area.
	BBox  BoundingBox // BBox is the planar bounding box of the area's geometry.
}
