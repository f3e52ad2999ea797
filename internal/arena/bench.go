package arena

import (
    "context"
    "errors"
    "fmt"
    "io"
    "time"

    "github.com/jaminalder/tictactoe-arena/internal/domain"
    "github.com/jaminalder/tictactoe-arena/internal/player"
    "golang.org/x/sync/errgroup"
)

// Pairing seats P1 as X and P2 as O.
type Pairing struct {
    P1 player.Kind `json:"p1"`
    P2 player.Kind `json:"p2"`
}

// DefaultPairings compares both search engines with each other and with
// the model-backed player.
func DefaultPairings() []Pairing {
    return []Pairing{
        {P1: player.Minimax, P2: player.AlphaBeta},
        {P1: player.Minimax, P2: player.ModelBacked},
        {P1: player.AlphaBeta, P2: player.ModelBacked},
    }
}

// BenchConfig controls a benchmark run.
type BenchConfig struct {
    Pairings  []Pairing
    Games     int
    BoardSize int
    // Workers bounds how many games run at once. Each game owns its
    // providers and counters.
    Workers int
    Factory player.Factory
}

var ErrBadBench = errors.New("invalid benchmark config")

// SideStats aggregates one seat of a pairing over every game.
type SideStats struct {
    Kind    player.Kind   `json:"kind"`
    Wins    int           `json:"wins"`
    Moves   int           `json:"moves"`
    AvgTime time.Duration `json:"avg_time_ns"`
    AvgOps  float64       `json:"avg_ops"`
}

// PairingReport is the outcome of all games of one pairing.
type PairingReport struct {
    Games int       `json:"games"`
    Draws int       `json:"draws"`
    P1    SideStats `json:"p1"`
    P2    SideStats `json:"p2"`
}

// Report is the outcome of a benchmark run.
type Report struct {
    BoardSize int             `json:"board_size"`
    Pairings  []PairingReport `json:"pairings"`
}

// Bench plays cfg.Games games for every pairing and aggregates wins, draws
// and per-move averages. Any rejected move aborts the run.
func Bench(ctx context.Context, cfg BenchConfig) (Report, error) {
    if len(cfg.Pairings) == 0 {
        cfg.Pairings = DefaultPairings()
    }
    if cfg.Workers < 1 {
        cfg.Workers = 1
    }
    if cfg.Games < 1 || cfg.BoardSize < 1 {
        return Report{}, fmt.Errorf("games=%d size=%d: %w", cfg.Games, cfg.BoardSize, ErrBadBench)
    }

    results := make([][]Result, len(cfg.Pairings))
    for i := range results {
        results[i] = make([]Result, cfg.Games)
    }

    g, gctx := errgroup.WithContext(ctx)
    g.SetLimit(cfg.Workers)
    for pi, pr := range cfg.Pairings {
        for gi := 0; gi < cfg.Games; gi++ {
            pi, pr, gi := pi, pr, gi
            g.Go(func() error {
                res, err := playOne(gctx, cfg, pr)
                if err != nil {
                    return fmt.Errorf("%s vs %s game %d: %w", pr.P1, pr.P2, gi+1, err)
                }
                results[pi][gi] = res
                return nil
            })
        }
    }
    if err := g.Wait(); err != nil {
        return Report{}, err
    }

    rep := Report{BoardSize: cfg.BoardSize, Pairings: make([]PairingReport, len(cfg.Pairings))}
    for pi, pr := range cfg.Pairings {
        rep.Pairings[pi] = aggregate(pr, results[pi])
    }
    return rep, nil
}

func playOne(ctx context.Context, cfg BenchConfig, pr Pairing) (Result, error) {
    counters := &player.Counters{}
    x, err := cfg.Factory.New(pr.P1, counters)
    if err != nil {
        return Result{}, err
    }
    o, err := cfg.Factory.New(pr.P2, counters)
    if err != nil {
        return Result{}, err
    }
    return NewRunner(x, o, counters, cfg.Factory.Log).Play(ctx, cfg.BoardSize)
}

func aggregate(pr Pairing, games []Result) PairingReport {
    rep := PairingReport{Games: len(games), P1: SideStats{Kind: pr.P1}, P2: SideStats{Kind: pr.P2}}
    for _, res := range games {
        switch res.Winner {
        case domain.X:
            rep.P1.Wins++
        case domain.O:
            rep.P2.Wins++
        default:
            rep.Draws++
        }
    }
    fillAverages(&rep.P1, games, domain.X)
    fillAverages(&rep.P2, games, domain.O)
    return rep
}

func fillAverages(s *SideStats, games []Result, side domain.Cell) {
    var total time.Duration
    var ops uint64
    for _, res := range games {
        for _, m := range res.Side(side) {
            total += m.Elapsed
            ops += m.Ops
            s.Moves++
        }
    }
    if s.Moves == 0 {
        return
    }
    s.AvgTime = total / time.Duration(s.Moves)
    s.AvgOps = float64(ops) / float64(s.Moves)
}

// Write prints the report in a plain-text layout, one block per pairing.
func (r Report) Write(w io.Writer) error {
    for _, p := range r.Pairings {
        n1, n2 := displayName(p.P1.Kind), displayName(p.P2.Kind)
        if _, err := fmt.Fprintf(w, "\nResults: %s vs %s\n", n1, n2); err != nil {
            return err
        }
        fmt.Fprintf(w, "Games: %d, %s Wins: %d, %s Wins: %d, Draws: %d\n", p.Games, n1, p.P1.Wins, n2, p.P2.Wins, p.Draws)
        fmt.Fprintf(w, "%s Avg Time/move: %.6fs, Avg %s/move: %.1f\n", n1, p.P1.AvgTime.Seconds(), metricName(p.P1.Kind), p.P1.AvgOps)
        fmt.Fprintf(w, "%s Avg Time/move: %.6fs, Avg %s/move: %.1f\n", n2, p.P2.AvgTime.Seconds(), metricName(p.P2.Kind), p.P2.AvgOps)
    }
    return nil
}

func displayName(k player.Kind) string {
    switch k {
    case player.FirstLegal:
        return "First-Legal"
    case player.Minimax:
        return "Minimax"
    case player.AlphaBeta:
        return "Alpha-Beta"
    case player.ModelBacked:
        return "Gemini"
    }
    return k.String()
}

func metricName(k player.Kind) string {
    if k.Searches() {
        return "Nodes"
    }
    return "API Calls"
}
