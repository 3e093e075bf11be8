package optimizer

// PlacedItem is the output-extraction record of §4.D's final step: a rounded
// (i0, j0, sigma, mu) pose plus the item's footprint in cells.
type PlacedItem struct {
	RoomName string
	ItemName string
	I0, J0   int
	Sigma    int
	Mu       int
	SizeI    int
	SizeJ    int
	HeightM  float64
}

// extractPlacements converts a winning assignment into PlacedItem records,
// ordered to match the input item order within the room (§5's ordering
// guarantee), not the internal search order.
func extractPlacements(rm *roomModel, order []int, a assignment) []PlacedItem {
	byIndex := make(map[int]int, len(order)) // item index -> position in `order`
	for pos, idx := range order {
		byIndex[idx] = pos
	}

	out := make([]PlacedItem, len(rm.items))
	for itemIdx, item := range rm.items {
		pos := byIndex[itemIdx]
		r := a.rects[pos]
		o := a.orientations[pos]
		out[itemIdx] = PlacedItem{
			RoomName: rm.roomName,
			ItemName: item.Name,
			I0:       r.I0,
			J0:       r.J0,
			Sigma:    o.Sigma,
			Mu:       o.Mu,
			SizeI:    r.SizeI,
			SizeJ:    r.SizeJ,
			HeightM:  item.HeightM,
		}
	}
	return out
}
