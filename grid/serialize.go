package grid

import "fmt"

// Dump is the canonical dictionary/blob serialization of §6: "Grid dump:
// {width, height, cell_size, room_cells:{name:[[i,j],...]}, passage_cells:[[i,j]...],
// doors:[...], windows:[...], entrance:[i,j]|null}". Used for cross-component handoff
// and test fixtures.
type Dump struct {
	Width      int            `json:"width"`
	Height     int            `json:"height"`
	CellSize   float64        `json:"cell_size"`
	RoomCells  map[string][][2]int `json:"room_cells"`
	RoomOrder  []string       `json:"room_order"`
	Passages   [][2]int       `json:"passage_cells"`
	Doors      []DoorDump     `json:"doors"`
	Windows    []WindowDump   `json:"windows"`
	Entrance   *[2]int        `json:"entrance"`
}

// DoorDump is the serialized form of a Door.
type DoorDump struct {
	Wall     string  `json:"wall"`
	Room     string  `json:"room"`
	Position float64 `json:"position"`
	Width    float64 `json:"width"`
}

// WindowDump is the serialized form of a Window.
type WindowDump struct {
	Wall     string  `json:"wall"`
	Room     string  `json:"room"`
	Position float64 `json:"position"`
	Width    float64 `json:"width"`
}

// Dump serializes the grid to its canonical form with room cells as sorted (i,j)
// pairs.
func (g *Grid) Dump() Dump {
	roomCells := make(map[string][][2]int, len(g.rooms))
	for _, name := range g.roomOrder {
		cells := sortedCells(g.rooms[name])
		pairs := make([][2]int, len(cells))
		for i, c := range cells {
			pairs[i] = [2]int{c.I, c.J}
		}
		roomCells[name] = pairs
	}

	passages := sortedCells(g.passages)
	passagePairs := make([][2]int, len(passages))
	for i, c := range passages {
		passagePairs[i] = [2]int{c.I, c.J}
	}

	doors := make([]DoorDump, len(g.doors))
	for i, d := range g.doors {
		doors[i] = DoorDump{Wall: string(d.Wall), Room: d.Room, Position: d.Position, Width: d.Width}
	}
	windows := make([]WindowDump, len(g.windows))
	for i, w := range g.windows {
		windows[i] = WindowDump{Wall: string(w.Wall), Room: w.Room, Position: w.Position, Width: w.Width}
	}

	var entrance *[2]int
	if g.entrance != nil {
		entrance = &[2]int{g.entrance.I, g.entrance.J}
	}

	return Dump{
		Width:     g.W,
		Height:    g.H,
		CellSize:  g.CellSize,
		RoomCells: roomCells,
		RoomOrder: append([]string(nil), g.roomOrder...),
		Passages:  passagePairs,
		Doors:     doors,
		Windows:   windows,
		Entrance:  entrance,
	}
}

// Load reconstructs a Grid from its canonical dump, preserving room insertion order
// from RoomOrder when present (falling back to map iteration order otherwise, which
// is acceptable only because callers that care about order always populate RoomOrder).
func Load(d Dump) (*Grid, error) {
	g := New(d.Width, d.Height, d.CellSize)

	order := d.RoomOrder
	if len(order) == 0 {
		for name := range d.RoomCells {
			order = append(order, name)
		}
	}

	for _, name := range order {
		pairs, ok := d.RoomCells[name]
		if !ok {
			return nil, fmt.Errorf("grid: room_order references unknown room %q", name)
		}
		cells := make([]Cell, len(pairs))
		for i, p := range pairs {
			cells[i] = Cell{I: p[0], J: p[1]}
		}
		if err := g.AddRoom(name, cells); err != nil {
			return nil, err
		}
	}

	for _, p := range d.Passages {
		g.AddPassages(Cell{I: p[0], J: p[1]})
	}

	for _, dd := range d.Doors {
		g.AddDoor(Door{Wall: Direction(dd.Wall), Room: dd.Room, Position: dd.Position, Width: dd.Width})
	}
	for _, wd := range d.Windows {
		g.AddWindow(Window{Wall: Direction(wd.Wall), Room: wd.Room, Position: wd.Position, Width: wd.Width})
	}

	if d.Entrance != nil {
		g.SetEntrance(Cell{I: d.Entrance[0], J: d.Entrance[1]})
	}

	return g, nil
}
