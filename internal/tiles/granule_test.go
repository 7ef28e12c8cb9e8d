package tiles_test

import (
	"testing"

	"github.com/UnknownOlympus/gaia/internal/models"
	"github.com/UnknownOlympus/gaia/internal/tiles"
	"github.com/stretchr/testify/assert"
)

func TestGenerate(t *testing.T) {
	t.Parallel()

	t.Run("single cell yields its four corners", func(t *testing.T) {
		got := tiles.Generate(models.GridAnchorSet{MinLat: 0, MaxLat: 10, MinLon: 0, MaxLon: 10}, "abc")

		assert.Equal(t, []string{"abc_00N_000E", "abc_00N_010E", "abc_10N_000E", "abc_10N_010E"}, got)
	})

	t.Run("count follows the inclusive ranges", func(t *testing.T) {
		anchors := models.GridAnchorSet{MinLat: -20, MaxLat: 10, MinLon: -70, MaxLon: -40}
		got := tiles.Generate(anchors, "Hansen_GFC-2020-v1.8_lossyear")

		assert.Len(t, got, 4*4)
		assert.Equal(t, "Hansen_GFC-2020-v1.8_lossyear_20S_070W", got[0])
		assert.Equal(t, "Hansen_GFC-2020-v1.8_lossyear_20S_060W", got[1])
		assert.Equal(t, "Hansen_GFC-2020-v1.8_lossyear_10N_040W", got[len(got)-1])
	})

	t.Run("deterministic order", func(t *testing.T) {
		anchors := models.GridAnchorSet{MinLat: -10, MaxLat: 20, MinLon: 100, MaxLon: 130}

		assert.Equal(t, tiles.Generate(anchors, "x"), tiles.Generate(anchors, "x"))
	})

	t.Run("inverted set yields nothing", func(t *testing.T) {
		got := tiles.Generate(models.GridAnchorSet{MinLat: 10, MaxLat: -10, MinLon: 0, MaxLon: 0}, "abc")

		assert.Empty(t, got)
	})
}
