package player

import (
    "context"

    "github.com/jaminalder/tictactoe-arena/internal/domain"
    "github.com/jaminalder/tictactoe-arena/internal/search"
)

// FirstLegalMove returns the first empty cell in row-major order, or
// domain.NoMove on a full board.
func FirstLegalMove(b domain.Board) domain.Move {
    moves := b.Moves()
    if len(moves) == 0 {
        return domain.NoMove
    }
    return moves[0]
}

type firstLegal struct{}

func (firstLegal) Kind() Kind { return FirstLegal }

func (firstLegal) ChooseMove(_ context.Context, b domain.Board, _ domain.Cell) domain.Move {
    return FirstLegalMove(b)
}

type minimaxPlayer struct {
    counters *Counters
}

func (p *minimaxPlayer) Kind() Kind { return Minimax }

func (p *minimaxPlayer) ChooseMove(_ context.Context, b domain.Board, mover domain.Cell) domain.Move {
    res := search.Minimax(b, mover)
    p.counters.minimax.Add(res.Nodes)
    return res.Move
}

type alphaBetaPlayer struct {
    counters *Counters
}

func (p *alphaBetaPlayer) Kind() Kind { return AlphaBeta }

func (p *alphaBetaPlayer) ChooseMove(_ context.Context, b domain.Board, mover domain.Cell) domain.Move {
    res := search.AlphaBeta(b, mover)
    p.counters.alphaBeta.Add(res.Nodes)
    return res.Move
}
