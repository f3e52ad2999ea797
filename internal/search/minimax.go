package search

import "github.com/jaminalder/tictactoe-arena/internal/domain"

// Minimax returns mover's best move on b by exhaustive search. Ties go to
// the earliest move in row-major order. The board must not be terminal;
// with no legal move the result carries domain.NoMove.
func Minimax(b domain.Board, mover domain.Cell) Result {
    var nodes uint64
    res := selectBest(b, mover, func(next domain.Board) int {
        return minimaxValue(next, mover.Opponent(), mover, &nodes)
    })
    res.Nodes = nodes
    return res
}

// minimaxValue is the game-theoretic value of b for maximizer with toMove
// to act.
func minimaxValue(b domain.Board, toMove, maximizer domain.Cell, nodes *uint64) int {
    *nodes++

    if score, ok := Utility(b, maximizer); ok {
        return score
    }

    if toMove == maximizer {
        best := -infinity
        for _, m := range b.Moves() {
            score := minimaxValue(child(b, m, toMove), toMove.Opponent(), maximizer, nodes)
            if score > best {
                best = score
            }
        }
        return best
    }

    best := infinity
    for _, m := range b.Moves() {
        score := minimaxValue(child(b, m, toMove), toMove.Opponent(), maximizer, nodes)
        if score < best {
            best = score
        }
    }
    return best
}
