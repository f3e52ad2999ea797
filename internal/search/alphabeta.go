package search

import "github.com/jaminalder/tictactoe-arena/internal/domain"

// AlphaBeta returns the same move as Minimax while skipping branches that
// cannot change the decision.
//
// Every root candidate is searched with the full (-inf, +inf) window: the
// root loop never tightens alpha, so node counts are a fixed function of
// the board and the row-major move order.
func AlphaBeta(b domain.Board, mover domain.Cell) Result {
    var nodes uint64
    alpha, beta := -infinity, infinity
    res := selectBest(b, mover, func(next domain.Board) int {
        return alphaBetaValue(next, mover.Opponent(), mover, alpha, beta, &nodes)
    })
    res.Nodes = nodes
    return res
}

func alphaBetaValue(b domain.Board, toMove, maximizer domain.Cell, alpha, beta int, nodes *uint64) int {
    *nodes++

    if score, ok := Utility(b, maximizer); ok {
        return score
    }

    if toMove == maximizer {
        best := -infinity
        for _, m := range b.Moves() {
            score := alphaBetaValue(child(b, m, toMove), toMove.Opponent(), maximizer, alpha, beta, nodes)
            if score > best {
                best = score
            }
            if best > alpha {
                alpha = best
            }
            if beta <= alpha {
                break
            }
        }
        return best
    }

    best := infinity
    for _, m := range b.Moves() {
        score := alphaBetaValue(child(b, m, toMove), toMove.Opponent(), maximizer, alpha, beta, nodes)
        if score < best {
            best = score
        }
        if best < beta {
            beta = best
        }
        if beta <= alpha {
            break
        }
    }
    return best
}
