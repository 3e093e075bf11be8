package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arxos/layoutengine/coords"
)

func TestAssembleJoinsMetadataByRoomAndItem(t *testing.T) {
	placements := []coords.Placement3D{
		{ItemName: "sofa", RoomName: "Living"},
		{ItemName: "bed", RoomName: "Bedroom"},
	}
	metadata := map[string]map[string]ItemMetadata{
		"Living": {
			"sofa": {CatalogID: "cat-1", Price: 499.99, Currency: "USD"},
		},
	}

	out := Assemble(placements, metadata)
	require := assert.New(t)
	require.Len(out, 2)
	require.True(out[0].HasMetadata)
	require.Equal("cat-1", out[0].Metadata.CatalogID)
	require.False(out[1].HasMetadata)
}

func TestAssemblePreservesInputOrder(t *testing.T) {
	placements := []coords.Placement3D{
		{ItemName: "c", RoomName: "R"},
		{ItemName: "a", RoomName: "R"},
		{ItemName: "b", RoomName: "R"},
	}
	out := Assemble(placements, nil)
	var names []string
	for _, item := range out {
		names = append(names, item.Placement.ItemName)
	}
	assert.Equal(t, []string{"c", "a", "b"}, names)
}
