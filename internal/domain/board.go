package domain

import (
    "errors"
    "fmt"
    "strings"
)

// Cell represents a board cell state.
type Cell uint8

const (
    Empty Cell = iota
    X
    O
)

// Opponent returns the other player. Empty has no opponent.
func (c Cell) Opponent() Cell {
    switch c {
    case X:
        return O
    case O:
        return X
    default:
        return Empty
    }
}

func (c Cell) String() string {
    switch c {
    case X:
        return "X"
    case O:
        return "O"
    default:
        return " "
    }
}

// MarshalText encodes X and O by symbol and Empty as "".
func (c Cell) MarshalText() ([]byte, error) {
    if c == Empty {
        return []byte{}, nil
    }
    return []byte(c.String()), nil
}

// UnmarshalText accepts "X", "O" and "" (or a blank) for Empty.
func (c *Cell) UnmarshalText(b []byte) error {
    switch strings.TrimSpace(string(b)) {
    case "X", "x":
        *c = X
    case "O", "o":
        *c = O
    case "":
        *c = Empty
    default:
        return fmt.Errorf("invalid cell %q", b)
    }
    return nil
}

// Move is a 0-indexed (row, col) coordinate.
type Move struct {
    Row int `json:"row"`
    Col int `json:"col"`
}

// NoMove is returned when a position has no legal move.
var NoMove = Move{Row: -1, Col: -1}

func (m Move) String() string { return fmt.Sprintf("(%d, %d)", m.Row, m.Col) }

// ErrNotSquare is returned by FromRows for ragged or empty input.
var ErrNotSquare = errors.New("board is not square")

// Board is an n x n grid stored row-major. The zero value is not usable;
// use NewBoard. Copies share cells, so branches must Clone.
type Board struct {
    n     int
    cells []Cell
}

// NewBoard returns an empty n x n board. Sizes below 1 are clamped to 1.
func NewBoard(n int) Board {
    if n < 1 {
        n = 1
    }
    return Board{n: n, cells: make([]Cell, n*n)}
}

// FromRows builds a board from rows of cells.
func FromRows(rows [][]Cell) (Board, error) {
    n := len(rows)
    if n == 0 {
        return Board{}, ErrNotSquare
    }
    b := NewBoard(n)
    for r, row := range rows {
        if len(row) != n {
            return Board{}, fmt.Errorf("row %d has %d cells, want %d: %w", r, len(row), n, ErrNotSquare)
        }
        copy(b.cells[r*n:], row)
    }
    return b, nil
}

// Size returns n for an n x n board.
func (b Board) Size() int { return b.n }

// At returns the cell at r, c. The caller must stay in bounds.
func (b Board) At(r, c int) Cell { return b.cells[r*b.n+c] }

// Clone returns an independent copy.
func (b Board) Clone() Board {
    cp := Board{n: b.n, cells: make([]Cell, len(b.cells))}
    copy(cp.cells, b.cells)
    return cp
}

// Rows returns a copy of the grid as rows, for rendering and encoding.
func (b Board) Rows() [][]Cell {
    out := make([][]Cell, b.n)
    for r := range out {
        out[r] = append([]Cell(nil), b.cells[r*b.n:(r+1)*b.n]...)
    }
    return out
}

// InBounds reports whether r, c lies on the board.
func (b Board) InBounds(r, c int) bool {
    return r >= 0 && r < b.n && c >= 0 && c < b.n
}

// Valid reports whether r, c is on the board and empty.
func (b Board) Valid(r, c int) bool {
    return b.InBounds(r, c) && b.cells[r*b.n+c] == Empty
}

// Apply places p at r, c. It returns false and leaves the board untouched
// if the move is invalid.
func (b *Board) Apply(r, c int, p Cell) bool {
    if p == Empty || !b.Valid(r, c) {
        return false
    }
    b.cells[r*b.n+c] = p
    return true
}

// Moves returns every empty cell in row-major order.
func (b Board) Moves() []Move {
    moves := make([]Move, 0, len(b.cells))
    for i, c := range b.cells {
        if c == Empty {
            moves = append(moves, Move{Row: i / b.n, Col: i % b.n})
        }
    }
    return moves
}

// Count returns the number of marked cells.
func (b Board) Count() int {
    n := 0
    for _, c := range b.cells {
        if c != Empty {
            n++
        }
    }
    return n
}

// Full reports whether no empty cell remains.
func (b Board) Full() bool { return b.Count() == len(b.cells) }

// Status reports whether the game is over and who won. Winner is Empty for
// a draw or an unfinished game. X is checked before O.
func (b Board) Status() (over bool, winner Cell) {
    for _, p := range [2]Cell{X, O} {
        if b.hasLine(p) {
            return true, p
        }
    }
    if b.Full() {
        return true, Empty
    }
    return false, Empty
}

func (b Board) hasLine(p Cell) bool {
    n := b.n
    // rows
    for r := 0; r < n; r++ {
        if b.lineOf(p, r*n, 1) {
            return true
        }
    }
    // cols
    for c := 0; c < n; c++ {
        if b.lineOf(p, c, n) {
            return true
        }
    }
    // diags
    return b.lineOf(p, 0, n+1) || b.lineOf(p, n-1, n-1)
}

// lineOf checks n cells starting at start and advancing by step.
func (b Board) lineOf(p Cell, start, step int) bool {
    for i, idx := 0, start; i < b.n; i, idx = i+1, idx+step {
        if b.cells[idx] != p {
            return false
        }
    }
    return true
}

// String renders the grid with | separators and a dashed rule after each row.
func (b Board) String() string {
    var sb strings.Builder
    rule := strings.Repeat("-", b.n*4-1)
    for r := 0; r < b.n; r++ {
        for c := 0; c < b.n; c++ {
            if c > 0 {
                sb.WriteString(" | ")
            }
            sb.WriteString(b.At(r, c).String())
        }
        sb.WriteByte('\n')
        sb.WriteString(rule)
        sb.WriteByte('\n')
    }
    return sb.String()
}
