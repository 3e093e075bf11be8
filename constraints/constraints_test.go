package constraints

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetersToCellsRoundsUpAndFloorsAtOne(t *testing.T) {
	assert.Equal(t, 1, metersToCells(0.1, 0.5))
	assert.Equal(t, 4, metersToCells(2.0, 0.5))
	assert.Equal(t, 5, metersToCells(2.1, 0.5))
}

func TestCompileItemsSwapsLengthWidthAfterRounding(t *testing.T) {
	specs := []ItemSpec{{Name: "sofa", LengthM: 1.1, WidthM: 0.6}}
	out := CompileItems("living", specs, 0.5)
	item := out[0]
	assert.GreaterOrEqual(t, item.LengthCells, item.WidthCells)
}

func TestCompileItemsCapsByRoomTypeKeepingEssentialsFirst(t *testing.T) {
	specs := []ItemSpec{
		{Name: "a", Priority: NiceToHave, LengthM: 1, WidthM: 1},
		{Name: "b", Priority: Essential, LengthM: 1, WidthM: 1},
		{Name: "c", Priority: NiceToHave, LengthM: 1, WidthM: 1},
		{Name: "d", Priority: Essential, LengthM: 1, WidthM: 1},
	}
	out := CompileItems("hall", specs, 0.5) // cap 3
	want := []string{"b", "d", "a"}
	var got []string
	for _, c := range out {
		got = append(got, c.Name)
	}
	assert.Equal(t, want, got)
}

func TestCompileConstraintsDropsMissingItemReferences(t *testing.T) {
	items := CompileItems("living", []ItemSpec{{Name: "sofa", LengthM: 2, WidthM: 1}}, 0.5)
	rc := RoomConstraints{
		Distances: []DistancePair{{NameA: "sofa", NameB: "ghost", AlongM: 1, PerpM: 0}},
	}
	out := CompileConstraints("living", rc, items, 0.5)
	assert.Empty(t, out.Distances)
}

func TestCompileConstraintsScalesDistanceBySize(t *testing.T) {
	items := CompileItems("living", []ItemSpec{
		{Name: "sofa", LengthM: 2, WidthM: 1},
		{Name: "table", LengthM: 1, WidthM: 1},
	}, 0.5)
	rc := RoomConstraints{
		Distances: []DistancePair{{NameA: "sofa", NameB: "table", AlongM: 1.0, PerpM: 0.5}},
	}
	out := CompileConstraints("living", rc, items, 0.5)
	pair := out.Distances[0]
	assert.Equal(t, 2.0, pair.Along)
	assert.Equal(t, 1.0, pair.Perp)
}
