package player

import (
    "context"
    "errors"
    "fmt"
    "strings"

    "github.com/jaminalder/tictactoe-arena/internal/domain"
    "github.com/rs/zerolog"
)

// Completer sends a prompt to a hosted language model and returns its text
// reply. Implementations own timeouts and retries.
type Completer interface {
    Complete(ctx context.Context, prompt string) (string, error)
}

// Errors produced while turning a model reply into a move. None of them
// escape ChooseMove; they select the fallback.
var (
    ErrNoModel    = errors.New("no model configured")
    ErrNoMove     = errors.New("reply has no row,col pair")
    ErrOutOfRange = errors.New("move out of range")
    ErrCellTaken  = errors.New("cell not empty")
)

// ModelProvider asks a language model for a move and falls back to the
// first legal move whenever the answer is unusable.
type ModelProvider struct {
    model    Completer
    counters *Counters
    log      zerolog.Logger
}

// NewModelProvider returns a provider backed by model. A nil model is
// allowed and makes every call fall back.
func NewModelProvider(model Completer, c *Counters, log zerolog.Logger) *ModelProvider {
    if c == nil {
        c = &Counters{}
    }
    return &ModelProvider{model: model, counters: c, log: log}
}

func (p *ModelProvider) Kind() Kind { return ModelBacked }

// ChooseMove counts the call, queries the model and validates its answer.
// It never fails: transport and parse errors resolve to the fallback move.
func (p *ModelProvider) ChooseMove(ctx context.Context, b domain.Board, mover domain.Cell) domain.Move {
    p.counters.calls.Add(1)

    m, err := p.ask(ctx, b, mover)
    move, err := resolve(m, err, b)
    if err != nil {
        p.log.Warn().Err(err).Str("player", mover.String()).Stringer("fallback", move).Msg("model move rejected")
    }
    return move
}

func (p *ModelProvider) ask(ctx context.Context, b domain.Board, mover domain.Cell) (domain.Move, error) {
    if p.model == nil {
        return domain.NoMove, ErrNoModel
    }
    reply, err := p.model.Complete(ctx, BuildPrompt(b, mover))
    if err != nil {
        return domain.NoMove, fmt.Errorf("model request: %w", err)
    }
    return ParseReply(reply)
}

// BuildPrompt describes the position and asks for a single "row,column"
// answer with 0-based indices.
func BuildPrompt(b domain.Board, mover domain.Cell) string {
    n := b.Size()
    var grid strings.Builder
    rule := strings.Repeat("-", n*2-1)
    for r := 0; r < n; r++ {
        for c := 0; c < n; c++ {
            if c > 0 {
                grid.WriteByte('|')
            }
            grid.WriteString(b.At(r, c).String())
        }
        grid.WriteByte('\n')
        grid.WriteString(rule)
        if r < n-1 {
            grid.WriteByte('\n')
        }
    }

    moves := b.Moves()
    valid := make([]string, len(moves))
    for i, m := range moves {
        valid[i] = m.String()
    }

    var sb strings.Builder
    fmt.Fprintf(&sb, "You are Player %s in a %dx%d Tic-Tac-Toe game.\n", mover, n, n)
    sb.WriteString("Current Board (0-based indices):\n")
    sb.WriteString(grid.String())
    sb.WriteByte('\n')
    fmt.Fprintf(&sb, "Valid moves: [%s]\n", strings.Join(valid, ", "))
    fmt.Fprintf(&sb, "Return ONLY the zero-based row and column as two numbers between 0-%d,\n", n-1)
    sb.WriteString("formatted exactly like: 'row,column' with no other text.\n")
    fmt.Fprintf(&sb, "Examples of valid responses: '0,1' or '%d,%d'", n-1, n-1)
    return sb.String()
}

// ParseReply keeps only digits and commas from text and reads the first two
// digits as row and column. Each coordinate is therefore a single digit.
func ParseReply(text string) (domain.Move, error) {
    digits := make([]int, 0, 2)
    for _, r := range text {
        if r >= '0' && r <= '9' {
            digits = append(digits, int(r-'0'))
            if len(digits) == 2 {
                return domain.Move{Row: digits[0], Col: digits[1]}, nil
            }
        }
    }
    return domain.NoMove, fmt.Errorf("%q: %w", truncate(text, 50), ErrNoMove)
}

// ResolveOrFallback returns m when it was produced without error and is a
// legal move on b, and the first legal move otherwise.
func ResolveOrFallback(m domain.Move, err error, b domain.Board) domain.Move {
    move, _ := resolve(m, err, b)
    return move
}

// resolve is ResolveOrFallback that also reports why m was rejected.
func resolve(m domain.Move, err error, b domain.Board) (domain.Move, error) {
    switch {
    case err != nil:
    case !b.InBounds(m.Row, m.Col):
        err = fmt.Errorf("%v on %dx%d board: %w", m, b.Size(), b.Size(), ErrOutOfRange)
    case !b.Valid(m.Row, m.Col):
        err = fmt.Errorf("%v: %w", m, ErrCellTaken)
    default:
        return m, nil
    }
    return FirstLegalMove(b), err
}

func truncate(s string, n int) string {
    if len(s) <= n {
        return s
    }
    return s[:n] + "..."
}
