package areas_test

import (
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/Flaque/filet"
	"github.com/UnknownOlympus/gaia/internal/areas"
	"github.com/UnknownOlympus/gaia/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const featureCollection = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"region": "Mato Grosso"},
      "geometry": {
        "type": "Polygon",
        "coordinates": [[[-61.6, -18.0], [-50.2, -18.0], [-50.2, -7.3], [-61.6, -7.3], [-61.6, -18.0]]]
      }
    },
    {
      "type": "Feature",
      "properties": {"region": "Chaco/North", "other": 1},
      "geometry": {
        "type": "MultiPolygon",
        "coordinates": [
          [[[-62.0, -27.0], [-60.0, -27.0], [-60.0, -24.0], [-62.0, -27.0]]],
          [[[-59.0, -26.0], [-58.0, -26.0], [-58.0, -22.0], [-59.0, -26.0]]]
        ]
      }
    },
    {
      "type": "Feature",
      "properties": {"name": "unnamed"},
      "geometry": {"type": "Point", "coordinates": [10.0, 20.0]}
    },
    {
      "type": "Feature",
      "properties": {"region": "nowhere"},
      "geometry": null
    }
  ]
}`

func TestLoader_Load(t *testing.T) {
	ctx := t.Context()
	loader := areas.NewLoader("", slog.Default())

	t.Run("one area per feature", func(t *testing.T) {
		got, err := loader.Load(ctx, strings.NewReader(featureCollection))

		require.NoError(t, err)
		require.Len(t, got, 4)

		assert.Equal(t, "Mato Grosso", got[0].Label)
		assert.Equal(t, models.BoundingBox{MinX: -61.6, MinY: -18.0, MaxX: -50.2, MaxY: -7.3}, got[0].BBox)

		assert.Equal(t, "Chaco_North", got[1].Label)
		assert.Equal(t, models.BoundingBox{MinX: -62.0, MinY: -27.0, MaxX: -58.0, MaxY: -22.0}, got[1].BBox)

		assert.Equal(t, "area-2", got[2].Label)
		assert.Equal(t, models.BoundingBox{MinX: 10, MinY: 20, MaxX: 10, MaxY: 20}, got[2].BBox)
		require.NoError(t, got[2].BBox.Validate())
	})

	t.Run("missing geometry fails validation", func(t *testing.T) {
		got, err := loader.Load(ctx, strings.NewReader(featureCollection))

		require.NoError(t, err)
		assert.Equal(t, "nowhere", got[3].Label)
		assert.True(t, math.IsNaN(got[3].BBox.MinX))
		require.ErrorIs(t, got[3].BBox.Validate(), models.ErrInvalidGeometry)
	})

	t.Run("custom label property", func(t *testing.T) {
		custom := areas.NewLoader("name", slog.Default())

		got, err := custom.Load(ctx, strings.NewReader(featureCollection))

		require.NoError(t, err)
		assert.Equal(t, "area-0", got[0].Label)
		assert.Equal(t, "unnamed", got[2].Label)
	})

	t.Run("invalid document", func(t *testing.T) {
		got, err := loader.Load(ctx, strings.NewReader(`{"type": "FeatureCollection", "features": [`))

		require.Error(t, err)
		require.Nil(t, got)
		assert.Contains(t, err.Error(), "failed to decode areas feature collection")
	})

	t.Run("empty collection", func(t *testing.T) {
		got, err := loader.Load(ctx, strings.NewReader(`{"type": "FeatureCollection", "features": []}`))

		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestLoader_LoadFile(t *testing.T) {
	defer filet.CleanUp(t)
	loader := areas.NewLoader(areas.DefaultLabelProperty, slog.Default())

	t.Run("reads file from disk", func(t *testing.T) {
		file := filet.TmpFile(t, "", featureCollection)

		got, err := loader.LoadFile(t.Context(), file.Name())

		require.NoError(t, err)
		assert.Len(t, got, 4)
	})

	t.Run("missing file", func(t *testing.T) {
		dir := filet.TmpDir(t, "")

		_, err := loader.LoadFile(t.Context(), dir+"/absent.geojson")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to open areas file")
	})
}
