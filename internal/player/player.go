// Package player defines the move-provider boundary shared by every
// strategy and the driver, plus the per-session search counters.
package player

import (
    "context"
    "errors"
    "fmt"
    "strings"
    "sync/atomic"

    "github.com/jaminalder/tictactoe-arena/internal/domain"
    "github.com/rs/zerolog"
)

// Kind identifies a move-choosing strategy.
type Kind int

const (
    FirstLegal Kind = iota
    Minimax
    AlphaBeta
    ModelBacked
)

var kindNames = [...]string{
    FirstLegal:  "first-legal",
    Minimax:     "minimax",
    AlphaBeta:   "alpha-beta",
    ModelBacked: "model",
}

// ErrUnknownKind is returned by ParseKind and Factory.New.
var ErrUnknownKind = errors.New("unknown player kind")

func (k Kind) String() string {
    if k < 0 || int(k) >= len(kindNames) {
        return fmt.Sprintf("kind(%d)", int(k))
    }
    return kindNames[k]
}

// Searches reports whether the kind counts search nodes rather than calls.
func (k Kind) Searches() bool { return k == Minimax || k == AlphaBeta }

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(b []byte) error {
    parsed, err := ParseKind(string(b))
    if err != nil {
        return err
    }
    *k = parsed
    return nil
}

// Kinds lists every kind in declaration order.
func Kinds() []Kind { return []Kind{FirstLegal, Minimax, AlphaBeta, ModelBacked} }

// ParseKind accepts a kind name, a few aliases, or the 1-based menu number.
func ParseKind(s string) (Kind, error) {
    switch strings.ToLower(strings.TrimSpace(s)) {
    case "1", "first-legal", "first", "simple":
        return FirstLegal, nil
    case "2", "minimax":
        return Minimax, nil
    case "3", "alpha-beta", "alphabeta", "ab":
        return AlphaBeta, nil
    case "4", "model", "gemini", "llm":
        return ModelBacked, nil
    }
    return 0, fmt.Errorf("%q: %w", s, ErrUnknownKind)
}

// Provider chooses a move for player p on b. The returned move must be a
// currently empty cell; b must not be terminal.
type Provider interface {
    Kind() Kind
    ChooseMove(ctx context.Context, b domain.Board, p domain.Cell) domain.Move
}

// Counters is one instrumentation session. Each provider adds to the
// counter of its own kind; the driver resets between moves and reads after.
type Counters struct {
    minimax   atomic.Uint64
    alphaBeta atomic.Uint64
    calls     atomic.Uint64
}

// Reset zeroes every counter.
func (c *Counters) Reset() {
    c.minimax.Store(0)
    c.alphaBeta.Store(0)
    c.calls.Store(0)
}

func (c *Counters) MinimaxNodes() uint64   { return c.minimax.Load() }
func (c *Counters) AlphaBetaNodes() uint64 { return c.alphaBeta.Load() }
func (c *Counters) ProviderCalls() uint64  { return c.calls.Load() }

// Ops returns the counter that measures effort for kind. FirstLegal does no
// measurable work and always reads 0.
func (c *Counters) Ops(kind Kind) uint64 {
    switch kind {
    case Minimax:
        return c.MinimaxNodes()
    case AlphaBeta:
        return c.AlphaBetaNodes()
    case ModelBacked:
        return c.ProviderCalls()
    default:
        return 0
    }
}

// Factory builds providers that report into a shared Counters.
type Factory struct {
    // Model backs ModelBacked providers. When nil they always fall back.
    Model Completer
    Log   zerolog.Logger
}

// New returns a provider of the given kind.
func (f Factory) New(kind Kind, c *Counters) (Provider, error) {
    if c == nil {
        c = &Counters{}
    }
    switch kind {
    case FirstLegal:
        return firstLegal{}, nil
    case Minimax:
        return &minimaxPlayer{counters: c}, nil
    case AlphaBeta:
        return &alphaBetaPlayer{counters: c}, nil
    case ModelBacked:
        return NewModelProvider(f.Model, c, f.Log), nil
    }
    return nil, fmt.Errorf("%v: %w", kind, ErrUnknownKind)
}
