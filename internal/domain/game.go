package domain

import "errors"

// Game holds the current state of a Tic-Tac-Toe match.
type Game struct {
    Board  Board
    Turn   Cell
    Winner Cell
    Over   bool
    Moves  int
}

// Errors returned by domain operations.
var (
    ErrOutOfBounds = errors.New("out of bounds")
    ErrOccupied    = errors.New("cell occupied")
    ErrGameOver    = errors.New("game over")
)

// New returns a new n x n game with X to move.
func New(n int) Game {
    return Game{Board: NewBoard(n), Turn: X}
}

// Play attempts to play the current turn at row r, column c.
func (g *Game) Play(r, c int) error {
    if g.Over {
        return ErrGameOver
    }
    if !g.Board.InBounds(r, c) {
        return ErrOutOfBounds
    }
    if !g.Board.Apply(r, c, g.Turn) {
        return ErrOccupied
    }
    g.Moves++

    if over, winner := g.Board.Status(); over {
        g.Winner = winner
        g.Over = true
        return nil
    }

    g.Turn = g.Turn.Opponent()
    return nil
}
