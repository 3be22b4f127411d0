package crossword

import "github.com/blarphus/crossword/internal/store"

// prepareCells fills in each clue's cell list by walking the grid from
// its numbered square until a blocked cell or the grid edge, the
// standard crossword-numbering convention. Puzzle content stored by
// the ingestion pipeline doesn't carry this derived list, so every
// room computes it once at load time.
func prepareCells(p *store.Puzzle) {
	for i := range p.Across {
		c := &p.Across[i]
		c.Cells = walkCells(p, c.Row, c.Col, 0, 1)
	}
	for i := range p.Down {
		c := &p.Down[i]
		c.Cells = walkCells(p, c.Row, c.Col, 1, 0)
	}
}

func walkCells(p *store.Puzzle, row, col, dRow, dCol int) []store.CellKey {
	var cells []store.CellKey
	r, c := row, col
	for r >= 0 && r < p.Rows && c >= 0 && c < p.Cols && p.Grid[r][c] != "." {
		cells = append(cells, store.CellKey{Row: r, Col: c})
		r += dRow
		c += dCol
	}
	return cells
}

// cluesContaining returns every clue (across and down) whose cell list
// includes key.
func (r *Room) cluesContaining(key store.CellKey) []*store.Clue {
	var out []*store.Clue
	for i := range r.puzzle.Across {
		if clueHasCell(&r.puzzle.Across[i], key) {
			out = append(out, &r.puzzle.Across[i])
		}
	}
	for i := range r.puzzle.Down {
		if clueHasCell(&r.puzzle.Down[i], key) {
			out = append(out, &r.puzzle.Down[i])
		}
	}
	return out
}

func clueHasCell(c *store.Clue, key store.CellKey) bool {
	for _, cell := range c.Cells {
		if cell == key {
			return true
		}
	}
	return false
}

// wordSolved reports whether every cell of clue currently resolves to
// its correct answer in the room's shared grid.
func (r *Room) wordSolved(c *store.Clue) bool {
	for _, cell := range c.Cells {
		correct, ok := r.puzzle.CorrectAnswer(cell.Row, cell.Col)
		if !ok {
			return false
		}
		if r.sharedGrid[cell] != correct {
			return false
		}
	}
	return true
}

// allCellsFilledCorrectly reports whether every non-blocked cell in
// the puzzle equals its correct answer.
func (r *Room) allCellsFilledCorrectly() bool {
	for row := 0; row < r.puzzle.Rows; row++ {
		for col := 0; col < r.puzzle.Cols; col++ {
			correct, ok := r.puzzle.CorrectAnswer(row, col)
			if !ok {
				continue
			}
			if r.sharedGrid[store.CellKey{Row: row, Col: col}] != correct {
				return false
			}
		}
	}
	return true
}
