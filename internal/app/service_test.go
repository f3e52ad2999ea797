package app

import (
    "context"
    "errors"
    "fmt"
    "testing"
    "time"

    "github.com/jaminalder/tictactoe-arena/internal/domain"
    "github.com/jaminalder/tictactoe-arena/internal/player"
    "github.com/rs/zerolog"
)

// minimal renderer for tests: encode moves count as bytes
func testRenderer(ms MatchState) []byte { return []byte(fmt.Sprintf("moves=%d", ms.Game.Moves)) }

func newTestService() *Service {
    return NewServiceWithRenderer(player.Factory{Log: zerolog.Nop()}, testRenderer)
}

func TestCreateAndGet(t *testing.T) {
    s := newTestService()
    ms, err := s.CreateMatch(player.Minimax, player.AlphaBeta, 3)
    if err != nil {
        t.Fatalf("CreateMatch error: %v", err)
    }
    if ms.ID == "" {
        t.Fatalf("expected non-empty match ID")
    }
    if ms.Game.Turn != domain.X || ms.X != player.Minimax || ms.O != player.AlphaBeta {
        t.Fatalf("unexpected initial state: %+v", ms)
    }
    if ms.Created.IsZero() || ms.Updated.IsZero() {
        t.Fatalf("expected timestamps to be set")
    }
    got, ok := s.Get(ms.ID)
    if !ok || got.ID != ms.ID {
        t.Fatalf("Get should find created match")
    }
    if _, ok := s.Get("missing"); ok {
        t.Fatalf("Get should miss unknown id")
    }
}

func TestCreateRejectsBoardSize(t *testing.T) {
    s := newTestService()
    for _, n := range []int{0, 4} {
        if _, err := s.CreateMatch(player.FirstLegal, player.FirstLegal, n); !errors.Is(err, ErrBadSize) {
            t.Fatalf("size %d: expected ErrBadSize, got %v", n, err)
        }
    }
    s.SetMaxBoardSize(4)
    if _, err := s.CreateMatch(player.FirstLegal, player.FirstLegal, 4); err != nil {
        t.Fatalf("size 4 after raising limit: %v", err)
    }
    if _, err := s.CreateMatch(player.Kind(9), player.FirstLegal, 3); !errors.Is(err, player.ErrUnknownKind) {
        t.Fatalf("expected ErrUnknownKind, got %v", err)
    }
}

func TestStepAlternatesAndRecords(t *testing.T) {
    s := newTestService()
    ms, _ := s.CreateMatch(player.FirstLegal, player.AlphaBeta, 3)

    st, err := s.Step(context.Background(), ms.ID)
    if err != nil {
        t.Fatalf("X step failed: %v", err)
    }
    if st.Game.Board.At(0, 0) != domain.X || st.Game.Turn != domain.O || st.Game.Moves != 1 {
        t.Fatalf("unexpected state after X move: turn=%v moves=%d", st.Game.Turn, st.Game.Moves)
    }
    st, err = s.Step(context.Background(), ms.ID)
    if err != nil {
        t.Fatalf("O step failed: %v", err)
    }
    if len(st.History) != 2 || st.History[1].Kind != player.AlphaBeta || st.History[1].Ops != 4089 {
        t.Fatalf("unexpected history: %+v", st.History)
    }
    if st.History[1].Move != (domain.Move{Row: 1, Col: 1}) {
        t.Fatalf("alpha-beta should take the centre, got %v", st.History[1].Move)
    }
    // snapshots are independent of service state
    st.Game.Board.Apply(2, 2, domain.X)
    latest, _ := s.Get(ms.ID)
    if latest.Game.Board.At(2, 2) != domain.Empty {
        t.Fatalf("snapshot shares board with service")
    }
}

func TestRunToCompletion(t *testing.T) {
    s := newTestService()
    ms, _ := s.CreateMatch(player.FirstLegal, player.FirstLegal, 3)
    st, err := s.Run(context.Background(), ms.ID)
    if err != nil {
        t.Fatalf("Run: %v", err)
    }
    if !st.Game.Over || st.Game.Winner != domain.X || len(st.History) != 7 {
        t.Fatalf("expected X win after 7 moves, got over=%v winner=%v moves=%d", st.Game.Over, st.Game.Winner, len(st.History))
    }
    if _, err := s.Step(context.Background(), ms.ID); !errors.Is(err, ErrMatchOver) {
        t.Fatalf("expected ErrMatchOver, got %v", err)
    }
    again, err := s.Run(context.Background(), ms.ID)
    if err != nil || again.Game.Moves != 7 {
        t.Fatalf("Run on finished match should return final state, got %v, %v", again, err)
    }
    if _, err := s.Step(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
        t.Fatalf("expected ErrNotFound, got %v", err)
    }
}

func TestSubscribeAndBroadcast(t *testing.T) {
    s := newTestService()
    ms, _ := s.CreateMatch(player.FirstLegal, player.FirstLegal, 3)

    ctx, cancel := context.WithTimeout(context.Background(), time.Second*2)
    defer cancel()
    ch, unsub := s.Subscribe(ctx, ms.ID)
    defer unsub()

    if _, err := s.Step(ctx, ms.ID); err != nil {
        t.Fatalf("step failed: %v", err)
    }

    select {
    case b, ok := <-ch:
        if !ok {
            t.Fatalf("channel closed unexpectedly")
        }
        if string(b) != "moves=1" {
            t.Fatalf("unexpected broadcast payload: %q", string(b))
        }
    case <-ctx.Done():
        t.Fatalf("timed out waiting for broadcast")
    }
}

func TestDropSlowSubscriber(t *testing.T) {
    s := newTestService()
    ms, _ := s.CreateMatch(player.FirstLegal, player.FirstLegal, 3)

    // Slow subscriber: never read
    ctxSlow, cancelSlow := context.WithCancel(context.Background())
    defer cancelSlow()
    slowCh, _ := s.Subscribe(ctxSlow, ms.ID)

    ctxFast, cancelFast := context.WithTimeout(context.Background(), time.Second*2)
    defer cancelFast()
    fastCh, unsubFast := s.Subscribe(ctxFast, ms.ID)
    defer unsubFast()

    for i := 0; i < 2; i++ {
        if _, err := s.Step(ctxFast, ms.ID); err != nil {
            t.Fatalf("step %d: %v", i, err)
        }
        select {
        case <-fastCh:
        case <-ctxFast.Done():
            t.Fatalf("fast subscriber did not receive update %d in time", i)
        }
    }

    // the slow channel holds the first payload and was closed on the second
    if b, ok := <-slowCh; !ok || string(b) != "moves=1" {
        t.Fatalf("expected buffered first payload, got %q ok=%v", b, ok)
    }
    if _, ok := <-slowCh; ok {
        t.Fatalf("slow subscriber should have been closed")
    }
}
