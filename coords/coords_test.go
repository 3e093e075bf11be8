package coords

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arxos/layoutengine/grid"
	"github.com/arxos/layoutengine/optimizer"
)

func TestConvertCentersAndRotation(t *testing.T) {
	g := grid.New(4, 4, 1.0)
	var cells []grid.Cell
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			cells = append(cells, grid.Cell{I: i, J: j})
		}
	}
	require.NoError(t, g.AddRoom("Room", cells))

	p := optimizer.PlacedItem{
		RoomName: "Room", ItemName: "bed",
		I0: 1, J0: 1, Sigma: 1, Mu: 1, SizeI: 2, SizeJ: 2, HeightM: 0.5,
	}
	out, err := Convert(g, p, 0.1)
	require.NoError(t, err)
	assert.Equal(t, 0, out.RotationYDegrees)
	assert.Equal(t, 2.0, out.SizeM.Width)
	assert.Equal(t, 2.0, out.SizeM.Depth)
}

func TestConvertClampsIntoMargin(t *testing.T) {
	// S6: 5x5m room at cell size 1m (bbox 0..4 inclusive), item 0.5x0.5
	// pre-clamp at (0.1, 2.0) with margin 0.25 should clamp to (0.5, 2.0).
	g := grid.New(5, 5, 1.0)
	var cells []grid.Cell
	for i := 0; i < 5; i++ {
		for j := 0; j < 5; j++ {
			cells = append(cells, grid.Cell{I: i, J: j})
		}
	}
	require.NoError(t, g.AddRoom("Room", cells))

	x := clampAxis(0.1, 0.25, 0, 5, 0.25)
	assert.InDelta(t, 0.5, x, 1e-9)

	z := clampAxis(2.0, 0.25, 0, 5, 0.25)
	assert.InDelta(t, 2.0, z, 1e-9)
}

func TestClampAxisCentersWhenRoomTooNarrow(t *testing.T) {
	// room extent [0,1], item half-extent 0.6, margin 0.25: no valid clamp
	// range exists, so the item centers instead of erroring.
	got := clampAxis(0.3, 0.6, 0, 1, 0.25)
	assert.InDelta(t, 0.5, got, 1e-9)
}
