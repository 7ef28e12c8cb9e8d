package models

// CellSize is the edge length of a grid tile in degrees.
const CellSize = 10

// GridAnchorSet is the grid-aligned extent covering a bounding box.
// All fields are multiples of CellSize.
type GridAnchorSet struct {
	MinLat int
	MaxLat int
	MinLon int
	MaxLon int
}

// Cells returns how many CellSize cells the set spans. A set collapsed to a
// line or a point still counts as one cell.
func (g GridAnchorSet) Cells() int {
	rows := max((g.MaxLat-g.MinLat)/CellSize, 1)
	cols := max((g.MaxLon-g.MinLon)/CellSize, 1)

	return rows * cols
}

// Contains reports whether the bounding box lies within the set.
func (g GridAnchorSet) Contains(b BoundingBox) bool {
	return float64(g.MinLon) <= b.MinX && b.MaxX <= float64(g.MaxLon) &&
		float64(g.MinLat) <= b.MinY && b.MaxY <= float64(g.MaxLat)
}
