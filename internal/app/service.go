package app

import (
    "context"
    "errors"
    "fmt"
    "sync"
    "time"

    "github.com/google/uuid"
    "github.com/jaminalder/tictactoe-arena/internal/arena"
    "github.com/jaminalder/tictactoe-arena/internal/domain"
    "github.com/jaminalder/tictactoe-arena/internal/player"
    "github.com/rs/zerolog"
)

// Errors exposed by the service layer.
var (
    ErrNotFound  = errors.New("match not found")
    ErrMatchOver = errors.New("match is over")
    ErrBadSize   = errors.New("unsupported board size")
)

// DefaultMaxBoardSize keeps exhaustive search responsive for web requests.
const DefaultMaxBoardSize = 3

// MatchState is the in-memory state tracked per match.
type MatchState struct {
    ID      string
    Game    domain.Game
    X       player.Kind
    O       player.Kind
    History []arena.MoveRecord
    // Err holds the last rejected move, if any.
    Err     string
    Created time.Time
    Updated time.Time
}

// clone returns a copy that shares nothing mutable with ms.
func (ms MatchState) clone() MatchState {
    cp := ms
    cp.Game.Board = ms.Game.Board.Clone()
    cp.History = append([]arena.MoveRecord(nil), ms.History...)
    return cp
}

type match struct {
    state  MatchState
    runner *arena.Runner
    // step serializes moves; state itself is guarded by Service.mu
    step sync.Mutex
}

type subscriber struct {
    ch        chan []byte
    closeOnce sync.Once
}

func (s *subscriber) close() { s.closeOnce.Do(func() { close(s.ch) }) }

// Service manages matches and subscribers.
type Service struct {
    mu      sync.Mutex
    matches map[string]*match
    subs    map[string]map[*subscriber]struct{}
    render  func(MatchState) []byte
    factory player.Factory
    maxSize int
    log     zerolog.Logger
}

// NewService creates a service with a default renderer (encodes nothing useful).
func NewService(f player.Factory) *Service {
    return NewServiceWithRenderer(f, func(ms MatchState) []byte { return nil })
}

// NewServiceWithRenderer allows injecting a renderer for broadcast payloads.
func NewServiceWithRenderer(f player.Factory, renderer func(MatchState) []byte) *Service {
    if renderer == nil {
        renderer = func(ms MatchState) []byte { return nil }
    }
    return &Service{
        matches: make(map[string]*match),
        subs:    make(map[string]map[*subscriber]struct{}),
        render:  renderer,
        factory: f,
        maxSize: DefaultMaxBoardSize,
        log:     f.Log,
    }
}

// SetRenderer replaces the broadcast renderer function.
func (s *Service) SetRenderer(renderer func(MatchState) []byte) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if renderer == nil {
        s.render = func(ms MatchState) []byte { return nil }
        return
    }
    s.render = renderer
}

// SetMaxBoardSize changes the largest board CreateMatch accepts.
func (s *Service) SetMaxBoardSize(n int) {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.maxSize = n
}

// MaxBoardSize returns the largest board CreateMatch accepts.
func (s *Service) MaxBoardSize() int {
    s.mu.Lock()
    defer s.mu.Unlock()
    return s.maxSize
}

// Factory returns the provider factory matches are built with.
func (s *Service) Factory() player.Factory { return s.factory }

// CreateMatch creates and registers a new match between x and o.
func (s *Service) CreateMatch(x, o player.Kind, size int) (*MatchState, error) {
    if limit := s.MaxBoardSize(); size < 1 || size > limit {
        return nil, fmt.Errorf("%dx%d (max %d): %w", size, size, limit, ErrBadSize)
    }
    counters := &player.Counters{}
    px, err := s.factory.New(x, counters)
    if err != nil {
        return nil, err
    }
    po, err := s.factory.New(o, counters)
    if err != nil {
        return nil, err
    }

    s.mu.Lock()
    defer s.mu.Unlock()
    id := uuid.NewString()
    now := time.Now()
    m := &match{
        state:  MatchState{ID: id, Game: domain.New(size), X: x, O: o, Created: now, Updated: now},
        runner: arena.NewRunner(px, po, counters, s.log),
    }
    s.matches[id] = m
    s.log.Info().Str("match", id).Stringer("x", x).Stringer("o", o).Int("size", size).Msg("match created")
    cp := m.state.clone()
    return &cp, nil
}

// Get returns a copy of the match state if present.
func (s *Service) Get(id string) (*MatchState, bool) {
    s.mu.Lock()
    defer s.mu.Unlock()
    m, ok := s.matches[id]
    if !ok {
        return nil, false
    }
    cp := m.state.clone()
    return &cp, true
}

// Step lets the player to move choose and play one move, then broadcasts.
// A rejected move leaves the board unchanged and is returned as an error
// wrapping arena.ErrRejectedMove.
func (s *Service) Step(ctx context.Context, id string) (*MatchState, error) {
    s.mu.Lock()
    m, ok := s.matches[id]
    s.mu.Unlock()
    if !ok {
        return nil, ErrNotFound
    }

    m.step.Lock()
    defer m.step.Unlock()

    s.mu.Lock()
    g := m.state.clone().Game
    s.mu.Unlock()
    if g.Over {
        return nil, ErrMatchOver
    }

    // Search runs without holding the service lock.
    rec, stepErr := m.runner.Step(ctx, &g)
    if stepErr != nil && !errors.Is(stepErr, arena.ErrRejectedMove) {
        return nil, stepErr
    }

    s.mu.Lock()
    if stepErr != nil {
        m.state.Err = stepErr.Error()
    } else {
        m.state.Game = g
        m.state.History = append(m.state.History, rec)
        m.state.Err = ""
    }
    m.state.Updated = time.Now()
    cp := m.state.clone()
    // Sends never block, so fan-out happens under the lock; unsubscribe
    // closes channels only after removing them here.
    s.broadcastLocked(id, s.render(cp))
    s.mu.Unlock()

    if cp.Game.Over {
        s.log.Info().Str("match", id).Str("winner", cp.Game.Winner.String()).Int("moves", cp.Game.Moves).Msg("match over")
    }
    return &cp, stepErr
}

// Run steps the match until it is over, broadcasting after every move.
func (s *Service) Run(ctx context.Context, id string) (*MatchState, error) {
    for {
        ms, err := s.Step(ctx, id)
        if errors.Is(err, ErrMatchOver) {
            if ms, ok := s.Get(id); ok {
                return ms, nil
            }
            return nil, ErrNotFound
        }
        if err != nil {
            return ms, err
        }
        if ms.Game.Over {
            return ms, nil
        }
    }
}

// broadcastLocked fans payload out; slow subscribers are closed and dropped.
func (s *Service) broadcastLocked(id string, payload []byte) {
    dropped := 0
    for sub := range s.subs[id] {
        select {
        case sub.ch <- payload:
        default:
            sub.close()
            delete(s.subs[id], sub)
            dropped++
        }
    }
    if dropped > 0 {
        s.log.Debug().Str("match", id).Int("dropped", dropped).Msg("dropped slow subscribers")
    }
}

// Subscribe registers a subscriber for a match. Returns a channel and an unsubscribe func.
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan []byte, func()) {
    s.mu.Lock()
    defer s.mu.Unlock()
    set := s.subs[id]
    if set == nil {
        set = make(map[*subscriber]struct{})
        s.subs[id] = set
    }
    sub := &subscriber{ch: make(chan []byte, 1)}
    set[sub] = struct{}{}

    unsubOnce := &sync.Once{}
    unsub := func() {
        unsubOnce.Do(func() {
            s.mu.Lock()
            if set, ok := s.subs[id]; ok {
                delete(set, sub)
            }
            s.mu.Unlock()
            sub.close()
        })
    }
    go func() {
        <-ctx.Done()
        unsub()
    }()
    return sub.ch, unsub
}
