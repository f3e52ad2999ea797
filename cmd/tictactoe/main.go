package main

import (
    "context"
    "encoding/json"
    "errors"
    "flag"
    "fmt"
    "io"
    "net/http"
    "os"
    "os/signal"
    "strings"
    "syscall"
    "time"

    "github.com/jaminalder/tictactoe-arena/internal/app"
    "github.com/jaminalder/tictactoe-arena/internal/arena"
    "github.com/jaminalder/tictactoe-arena/internal/config"
    "github.com/jaminalder/tictactoe-arena/internal/domain"
    "github.com/jaminalder/tictactoe-arena/internal/llm"
    "github.com/jaminalder/tictactoe-arena/internal/player"
    "github.com/jaminalder/tictactoe-arena/internal/web"
    "github.com/pkg/profile"
    "github.com/rs/zerolog"
    "github.com/rs/zerolog/log"
)

const usage = `usage: tictactoe <command> [flags]

commands:
  serve   run the web UI
  bench   play every pairing several times and print averages
  watch   play one game and print every move
`

func main() {
    if len(os.Args) < 2 {
        fmt.Fprint(os.Stderr, usage)
        os.Exit(2)
    }
    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()

    var err error
    switch cmd, args := os.Args[1], os.Args[2:]; cmd {
    case "serve":
        err = serve(ctx, args)
    case "bench":
        err = bench(ctx, args)
    case "watch":
        err = watch(ctx, args)
    case "-h", "--help", "help":
        fmt.Fprint(os.Stdout, usage)
        return
    default:
        fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
        os.Exit(2)
    }
    if err != nil {
        log.Error().Err(err).Msg(os.Args[1] + " failed")
        os.Exit(1)
    }
}

// setup loads config and configures the global logger.
func setup(path string) (config.Config, player.Factory, error) {
    cfg, err := config.Load(path)
    if err != nil {
        return cfg, player.Factory{}, err
    }
    zerolog.SetGlobalLevel(cfg.Level())
    log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Timestamp().Logger()

    f := player.Factory{Log: log.Logger}
    if cfg.Model.APIKey != "" {
        f.Model = llm.New(cfg.Model.APIKey,
            llm.WithEndpoint(cfg.Model.Endpoint),
            llm.WithModel(cfg.Model.Name),
            llm.WithTimeout(time.Duration(cfg.Model.Timeout)),
        )
    } else {
        log.Warn().Msg("GEMINI_API_KEY not set; model player will always fall back to the first legal move")
    }
    return cfg, f, nil
}

func serve(ctx context.Context, args []string) error {
    fs := flag.NewFlagSet("serve", flag.ExitOnError)
    cfgPath := fs.String("config", "", "JSON config file")
    addr := fs.String("addr", "", "listen address (overrides config)")
    maxSize := fs.Int("max-size", app.DefaultMaxBoardSize, "largest board a match may use")
    _ = fs.Parse(args)

    cfg, f, err := setup(*cfgPath)
    if err != nil {
        return err
    }
    if *addr != "" {
        cfg.Addr = *addr
    }
    svc := app.NewService(f)
    svc.SetMaxBoardSize(*maxSize)

    srv := &http.Server{Addr: cfg.Addr, Handler: web.NewServer(svc), ReadHeaderTimeout: 10 * time.Second}
    errc := make(chan error, 1)
    go func() {
        log.Info().Str("addr", cfg.Addr).Msg("listening")
        errc <- srv.ListenAndServe()
    }()

    select {
    case err := <-errc:
        return err
    case <-ctx.Done():
    }
    log.Info().Msg("shutting down")
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    if err := srv.Shutdown(shutdownCtx); err != nil {
        return err
    }
    if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
        return err
    }
    return nil
}

func bench(ctx context.Context, args []string) error {
    fs := flag.NewFlagSet("bench", flag.ExitOnError)
    cfgPath := fs.String("config", "", "JSON config file")
    games := fs.Int("games", 0, "games per pairing (overrides config)")
    size := fs.Int("size", 0, "board size (overrides config)")
    workers := fs.Int("workers", 0, "games played in parallel (overrides config)")
    pairings := fs.String("pairings", "", "comma separated p1:p2 list, e.g. minimax:alpha-beta")
    asJSON := fs.Bool("json", false, "print the report as JSON")
    cpuProfile := fs.Bool("profile", false, "write a CPU profile to the working directory")
    _ = fs.Parse(args)

    cfg, f, err := setup(*cfgPath)
    if err != nil {
        return err
    }
    if *games > 0 {
        cfg.Games = *games
    }
    if *size > 0 {
        cfg.BoardSize = *size
    }
    if *workers > 0 {
        cfg.Workers = *workers
    }
    prs, err := parsePairings(*pairings)
    if err != nil {
        return err
    }
    if *cpuProfile {
        defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.Quiet).Stop()
    }

    start := time.Now()
    rep, err := arena.Bench(ctx, arena.BenchConfig{
        Pairings:  prs,
        Games:     cfg.Games,
        BoardSize: cfg.BoardSize,
        Workers:   cfg.Workers,
        Factory:   f,
    })
    if err != nil {
        return err
    }
    log.Info().Dur("elapsed", time.Since(start)).Int("games", cfg.Games).Int("size", cfg.BoardSize).Msg("bench done")
    if *asJSON {
        enc := json.NewEncoder(os.Stdout)
        enc.SetIndent("", "  ")
        return enc.Encode(rep)
    }
    return rep.Write(os.Stdout)
}

func parsePairings(s string) ([]arena.Pairing, error) {
    if strings.TrimSpace(s) == "" {
        return nil, nil
    }
    var out []arena.Pairing
    for _, item := range strings.Split(s, ",") {
        a, b, ok := strings.Cut(item, ":")
        if !ok {
            return nil, fmt.Errorf("pairing %q: want p1:p2", item)
        }
        p1, err := player.ParseKind(a)
        if err != nil {
            return nil, err
        }
        p2, err := player.ParseKind(b)
        if err != nil {
            return nil, err
        }
        out = append(out, arena.Pairing{P1: p1, P2: p2})
    }
    return out, nil
}

func watch(ctx context.Context, args []string) error {
    fs := flag.NewFlagSet("watch", flag.ExitOnError)
    cfgPath := fs.String("config", "", "JSON config file")
    xName := fs.String("x", "minimax", "player 1 (X) kind")
    oName := fs.String("o", "alpha-beta", "player 2 (O) kind")
    size := fs.Int("size", 0, "board size (overrides config)")
    _ = fs.Parse(args)

    cfg, f, err := setup(*cfgPath)
    if err != nil {
        return err
    }
    if *size > 0 {
        cfg.BoardSize = *size
    }
    x, err := player.ParseKind(*xName)
    if err != nil {
        return err
    }
    o, err := player.ParseKind(*oName)
    if err != nil {
        return err
    }
    counters := &player.Counters{}
    px, err := f.New(x, counters)
    if err != nil {
        return err
    }
    po, err := f.New(o, counters)
    if err != nil {
        return err
    }
    return watchGame(ctx, os.Stdout, arena.NewRunner(px, po, counters, log.Logger), cfg.BoardSize)
}

// watchGame prints each move with its timing and work, then the result.
func watchGame(ctx context.Context, w io.Writer, r *arena.Runner, size int) error {
    g := domain.New(size)
    totals := map[domain.Cell]uint64{}
    for !g.Over {
        rec, err := r.Step(ctx, &g)
        if err != nil {
            return err
        }
        totals[rec.Player] += rec.Ops
        fmt.Fprintf(w, "Player %s (%s): %v\n", rec.Player, rec.Kind, rec.Move)
        fmt.Fprintf(w, "Time Spent: %s\n", rec.Elapsed)
        if rec.Kind.Searches() {
            fmt.Fprintf(w, "New Nodes Expanded: %d\nTotal Nodes Expanded: %d\n", rec.Ops, totals[rec.Player])
        } else if rec.Kind == player.ModelBacked {
            fmt.Fprintf(w, "New API Calls: %d\nTotal API Calls: %d\n", rec.Ops, totals[rec.Player])
        }
        fmt.Fprintf(w, "%s\n", g.Board)
    }
    if g.Winner == domain.Empty {
        fmt.Fprintln(w, "Result: Draw")
        return nil
    }
    fmt.Fprintf(w, "Result: Win\nWinner: Player %s\n", g.Winner)
    return nil
}
