package domain

// GameState is the engine's view of one session at a point in time. It is
// replaced wholesale on every successful poll.
type GameState struct {
	Grid         [][]string
	CrystalCount int
	EnergyCount  int
}

func (s GameState) Empty() bool {
	return len(s.Grid) == 0
}

// Dimensions returns the number of rows and the width of the first row.
func (s GameState) Dimensions() (rows, columns int) {
	if len(s.Grid) == 0 {
		return 0, 0
	}
	return len(s.Grid), len(s.Grid[0])
}

// Clone deep-copies the grid so the result can be handed to observers.
func (s GameState) Clone() GameState {
	if s.Grid == nil {
		return GameState{CrystalCount: s.CrystalCount, EnergyCount: s.EnergyCount}
	}

	grid := make([][]string, len(s.Grid))
	for i, row := range s.Grid {
		grid[i] = append([]string(nil), row...)
	}
	return GameState{Grid: grid, CrystalCount: s.CrystalCount, EnergyCount: s.EnergyCount}
}

// Count returns how many cells currently display the given role.
func (s GameState) Count(symbols CellSymbols, role Role) int {
	token := symbols.Symbol(role)
	n := 0
	for _, row := range s.Grid {
		for _, cell := range row {
			if cell == token {
				n++
			}
		}
	}
	return n
}
