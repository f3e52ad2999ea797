// Package search implements exhaustive game-tree search over tic-tac-toe
// boards: plain minimax and minimax with alpha-beta pruning.
//
// Both engines count one node per recursive evaluation and report the count
// in the Result, so callers can compare search effort without global state.
package search

import (
    "math"

    "github.com/jaminalder/tictactoe-arena/internal/domain"
)

// Utility values from the maximizing player's perspective.
const (
    Loss = -1
    Draw = 0
    Win  = 1
)

const infinity = math.MaxInt32

// Result is the outcome of a top-level move selection.
type Result struct {
    Move  domain.Move
    Score int
    Nodes uint64
}

// Utility scores a terminal board for maximizer. ok is false while the game
// is still in progress.
func Utility(b domain.Board, maximizer domain.Cell) (score int, ok bool) {
    over, winner := b.Status()
    if !over {
        return Draw, false
    }
    switch winner {
    case maximizer:
        return Win, true
    case domain.Empty:
        return Draw, true
    default:
        return Loss, true
    }
}

// child returns a copy of b with m played by p.
func child(b domain.Board, m domain.Move, p domain.Cell) domain.Board {
    next := b.Clone()
    next.Apply(m.Row, m.Col, p)
    return next
}

// selectBest runs eval over every legal move of mover in row-major order
// and keeps the first move with the strictly highest score.
func selectBest(b domain.Board, mover domain.Cell, eval func(domain.Board) int) Result {
    res := Result{Move: domain.NoMove, Score: -infinity}
    for _, m := range b.Moves() {
        score := eval(child(b, m, mover))
        if score > res.Score {
            res.Score = score
            res.Move = m
        }
    }
    return res
}
