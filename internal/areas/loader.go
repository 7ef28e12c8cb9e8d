// Package areas reads the regions of interest from a GeoJSON FeatureCollection.
package areas

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/UnknownOlympus/gaia/internal/models"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// DefaultLabelProperty is the feature property holding the area name.
const DefaultLabelProperty = "region"

// Loader turns GeoJSON features into labelled bounding boxes.
type Loader struct {
	labelProperty string
	log           *slog.Logger
}

// NewLoader creates a Loader reading labels from labelProperty.
// An empty labelProperty falls back to DefaultLabelProperty.
func NewLoader(labelProperty string, log *slog.Logger) *Loader {
	if labelProperty == "" {
		labelProperty = DefaultLabelProperty
	}

	return &Loader{labelProperty: labelProperty, log: log}
}

// LoadFile reads areas from the GeoJSON file at path.
func (l *Loader) LoadFile(ctx context.Context, path string) ([]models.Area, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open areas file: %w", err)
	}
	defer file.Close()

	return l.Load(ctx, file)
}

// Load reads areas from a GeoJSON FeatureCollection, one area per feature.
// A feature without geometry is kept with a bounding box that fails
// validation, so it is rejected on its own further down the pipeline.
func (l *Loader) Load(ctx context.Context, r io.Reader) ([]models.Area, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read areas: %w", err)
	}

	collection, err := geojson.UnmarshalFeatureCollection(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode areas feature collection: %w", err)
	}

	areas := make([]models.Area, 0, len(collection.Features))
	for idx, feature := range collection.Features {
		area := models.Area{
			Label: l.label(feature, idx),
			BBox:  boundingBox(feature.Geometry),
		}
		l.log.DebugContext(ctx, "Loaded area", "label", area.Label, "bbox", area.BBox.String())
		areas = append(areas, area)
	}

	l.log.InfoContext(ctx, "Areas loaded", "count", len(areas))

	return areas, nil
}

func (l *Loader) label(feature *geojson.Feature, idx int) string {
	fallback := "area-" + strconv.Itoa(idx)

	value, ok := feature.Properties[l.labelProperty]
	if !ok || value == nil {
		return fallback
	}

	label := sanitizeLabel(fmt.Sprint(value))
	if label == "" {
		return fallback
	}

	return label
}

// sanitizeLabel makes a label usable as a single directory name.
func sanitizeLabel(label string) string {
	label = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '_'
		}
		return r
	}, strings.TrimSpace(label))

	if label == "." || label == ".." {
		return ""
	}

	return label
}

func boundingBox(geometry orb.Geometry) models.BoundingBox {
	if geometry == nil {
		nan := math.NaN()
		return models.BoundingBox{MinX: nan, MinY: nan, MaxX: nan, MaxY: nan}
	}

	bound := geometry.Bound()

	return models.BoundingBox{
		MinX: bound.Min.X(),
		MinY: bound.Min.Y(),
		MaxX: bound.Max.X(),
		MaxY: bound.Max.Y(),
	}
}
