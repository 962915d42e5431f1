package game

// Board is the 3x3 grid, indexed [row][col].
type Board [Size][Size]Cell

// Place puts player's mark on the given cell. The board is left untouched
// when the move is rejected.
func (b *Board) Place(row, col int, player Cell) error {
	if !(Coord{Row: row, Col: col}).InRange() {
		return ErrOutOfRange
	}
	if !player.IsPlayer() {
		return ErrInvalidPlayer
	}
	if b[row][col] != Empty {
		return ErrCellOccupied
	}
	b[row][col] = player
	return nil
}

// IsEmpty reports whether the cell holds no mark. Off-board cells are never empty.
func (b Board) IsEmpty(row, col int) bool {
	if !(Coord{Row: row, Col: col}).InRange() {
		return false
	}
	return b[row][col] == Empty
}

// EmptyCells lists the free cells in row-major order.
func (b Board) EmptyCells() []Coord {
	cells := make([]Coord, 0, Size*Size)
	for r := range [Size]int{} {
		for c := range [Size]int{} {
			if b[r][c] == Empty {
				cells = append(cells, Coord{Row: r, Col: c})
			}
		}
	}
	return cells
}

// IsFull reports whether no cell is empty.
func (b Board) IsFull() bool {
	return len(b.EmptyCells()) == 0
}

// Evaluate scans rows, then columns, then the two diagonals and reports the
// first complete line. A full board without a line is a draw.
func (b Board) Evaluate() Outcome {
	// Check rows
	for i := range [Size]int{} {
		if b[i][0] != Empty && b[i][0] == b[i][1] && b[i][1] == b[i][2] {
			return Won(b[i][0])
		}
	}

	// Check columns
	for i := range [Size]int{} {
		if b[0][i] != Empty && b[0][i] == b[1][i] && b[1][i] == b[2][i] {
			return Won(b[0][i])
		}
	}

	// Check diagonals
	if b[0][0] != Empty && b[0][0] == b[1][1] && b[1][1] == b[2][2] {
		return Won(b[0][0])
	}
	if b[0][2] != Empty && b[0][2] == b[1][1] && b[1][1] == b[2][0] {
		return Won(b[0][2])
	}

	if b.IsFull() {
		return Drawn()
	}
	return Ongoing()
}

// Reset clears every cell.
func (b *Board) Reset() {
	*b = Board{}
}

// Cells flattens the board into its nine cells, row-major.
func (b Board) Cells() [Size * Size]Cell {
	var cells [Size * Size]Cell
	for r := range [Size]int{} {
		for c := range [Size]int{} {
			cells[r*Size+c] = b[r][c]
		}
	}
	return cells
}
