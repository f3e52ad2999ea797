// Package arena drives games between two move providers and measures how
// long each move took and how much work the provider reported for it.
package arena

import (
    "context"
    "errors"
    "fmt"
    "time"

    "github.com/jaminalder/tictactoe-arena/internal/domain"
    "github.com/jaminalder/tictactoe-arena/internal/player"
    "github.com/rs/zerolog"
)

// ErrRejectedMove is returned when a provider answers with a move the board
// does not accept.
var ErrRejectedMove = errors.New("rejected move")

// MoveRecord is one ply with its measurements.
type MoveRecord struct {
    Player  domain.Cell   `json:"player"`
    Kind    player.Kind   `json:"kind"`
    Move    domain.Move   `json:"move"`
    Elapsed time.Duration `json:"elapsed_ns"`
    Ops     uint64        `json:"ops"`
}

// Result is a finished game.
type Result struct {
    Winner domain.Cell  `json:"winner"`
    Board  domain.Board `json:"-"`
    Moves  []MoveRecord `json:"moves"`
}

// Side returns the records of p's moves.
func (r Result) Side(p domain.Cell) []MoveRecord {
    out := make([]MoveRecord, 0, len(r.Moves)/2+1)
    for _, m := range r.Moves {
        if m.Player == p {
            out = append(out, m)
        }
    }
    return out
}

// Runner alternates two providers, X first, resetting the shared counters
// before every move.
type Runner struct {
    players  [2]player.Provider
    counters *player.Counters
    log      zerolog.Logger
}

// NewRunner returns a runner where x plays X and o plays O. Both providers
// must report into c.
func NewRunner(x, o player.Provider, c *player.Counters, log zerolog.Logger) *Runner {
    return &Runner{players: [2]player.Provider{x, o}, counters: c, log: log}
}

// Provider returns the provider seated as p.
func (r *Runner) Provider(p domain.Cell) player.Provider {
    if p == domain.O {
        return r.players[1]
    }
    return r.players[0]
}

// Step asks the player to move for a move and applies it to g.
func (r *Runner) Step(ctx context.Context, g *domain.Game) (MoveRecord, error) {
    if g.Over {
        return MoveRecord{}, domain.ErrGameOver
    }
    if err := ctx.Err(); err != nil {
        return MoveRecord{}, err
    }
    prov := r.Provider(g.Turn)
    rec := MoveRecord{Player: g.Turn, Kind: prov.Kind()}

    r.counters.Reset()
    start := time.Now()
    rec.Move = prov.ChooseMove(ctx, g.Board.Clone(), g.Turn)
    rec.Elapsed = time.Since(start)
    rec.Ops = r.counters.Ops(rec.Kind)

    if err := g.Play(rec.Move.Row, rec.Move.Col); err != nil {
        r.log.Error().Err(err).Str("player", rec.Player.String()).Stringer("kind", rec.Kind).Stringer("move", rec.Move).Msg("invalid move")
        return rec, fmt.Errorf("%w: %s (%v) played %v: %w", ErrRejectedMove, rec.Kind, rec.Player, rec.Move, err)
    }
    r.log.Debug().
        Str("player", rec.Player.String()).
        Stringer("kind", rec.Kind).
        Stringer("move", rec.Move).
        Dur("elapsed", rec.Elapsed).
        Uint64("ops", rec.Ops).
        Msg("move")
    return rec, nil
}

// Play runs a full game on a fresh size x size board. On a rejected move
// the partial result is returned with the error.
func (r *Runner) Play(ctx context.Context, size int) (Result, error) {
    g := domain.New(size)
    var res Result
    for !g.Over {
        rec, err := r.Step(ctx, &g)
        if err != nil {
            res.Board = g.Board
            return res, err
        }
        res.Moves = append(res.Moves, rec)
    }
    res.Winner = g.Winner
    res.Board = g.Board
    return res, nil
}
