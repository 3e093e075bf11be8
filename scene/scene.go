// Package scene implements the scene assembler of spec.md §4.F: joining 3D
// placement records with externally supplied catalog metadata into the
// final flat, ordered payload.
package scene

import "github.com/arxos/layoutengine/coords"

// ItemMetadata is catalog/metadata supplied by an external collaborator for
// one (room, item) pair, per §4.F and §6's catalog/metadata provider
// interface.
type ItemMetadata struct {
	CatalogID string
	ImageURL  string
	MeshURL   string
	Price     float64
	Currency  string
}

// SceneItem is one entry of the final assembled payload: geometry from the
// coordinate converter, optionally joined with catalog metadata. Metadata is
// the zero value when no match was found, per §4.F ("items with no match
// retain only the geometry").
type SceneItem struct {
	Placement coords.Placement3D
	Metadata  ItemMetadata
	HasMetadata bool
}

// Assemble joins placements with metadata by (room_name, item_name) key,
// preserving the input placement order (§4.F: "a flat, ordered array").
func Assemble(placements []coords.Placement3D, metadata map[string]map[string]ItemMetadata) []SceneItem {
	out := make([]SceneItem, len(placements))
	for i, p := range placements {
		item := SceneItem{Placement: p}
		if byItem, ok := metadata[p.RoomName]; ok {
			if md, ok := byItem[p.ItemName]; ok {
				item.Metadata = md
				item.HasMetadata = true
			}
		}
		out[i] = item
	}
	return out
}
