package web

import (
    "encoding/json"
    "net/http"
    "time"

    "github.com/go-chi/chi/v5"
    "github.com/gorilla/websocket"
    "github.com/jaminalder/tictactoe-arena/internal/app"
    "github.com/jaminalder/tictactoe-arena/internal/arena"
    "github.com/jaminalder/tictactoe-arena/internal/player"
)

const wsIdlePingInterval = 30 * time.Second

var upgrader = websocket.Upgrader{
    ReadBufferSize:  1024,
    WriteBufferSize: 1024,
    CheckOrigin:     func(r *http.Request) bool { return true },
}

type stateDTO struct {
    ID      string             `json:"id"`
    Size    int                `json:"size"`
    Board   [][]string         `json:"board"`
    Turn    string             `json:"turn"`
    Over    bool               `json:"over"`
    Winner  string             `json:"winner"`
    X       player.Kind        `json:"x"`
    O       player.Kind        `json:"o"`
    History []arena.MoveRecord `json:"history"`
    Error   string             `json:"error,omitempty"`
}

func newStateDTO(ms app.MatchState) stateDTO {
    rows := ms.Game.Board.Rows()
    board := make([][]string, len(rows))
    for r, row := range rows {
        board[r] = make([]string, len(row))
        for c, cell := range row {
            board[r][c] = symbol(cell.String())
        }
    }
    return stateDTO{
        ID:      ms.ID,
        Size:    ms.Game.Board.Size(),
        Board:   board,
        Turn:    symbol(ms.Game.Turn.String()),
        Over:    ms.Game.Over,
        Winner:  symbol(ms.Game.Winner.String()),
        X:       ms.X,
        O:       ms.O,
        History: ms.History,
        Error:   ms.Err,
    }
}

func symbol(s string) string {
    if s == " " {
        return ""
    }
    return s
}

type wsMessage struct {
    Type  string    `json:"type"`
    State *stateDTO `json:"state,omitempty"`
}

func mustMarshal(v any) []byte {
    b, err := json.Marshal(v)
    if err != nil {
        panic(err)
    }
    return b
}

// ws streams a JSON snapshot on connect and after every move.
func (h *handlers) ws(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    if _, ok := h.svc.Get(id); !ok {
        http.NotFound(w, r)
        return
    }
    conn, err := upgrader.Upgrade(w, r, nil)
    if err != nil {
        h.log.Warn().Err(err).Str("match", id).Msg("websocket upgrade failed")
        return
    }
    defer conn.Close()

    ctx := r.Context()
    updates, unsub := h.svc.Subscribe(ctx, id)
    defer unsub()

    // The reader only notices the client going away.
    gone := make(chan struct{})
    go func() {
        defer close(gone)
        for {
            if _, _, err := conn.ReadMessage(); err != nil {
                return
            }
        }
    }()

    snapshot := func() []byte {
        ms, ok := h.svc.Get(id)
        if !ok {
            return nil
        }
        st := newStateDTO(*ms)
        return mustMarshal(wsMessage{Type: "state", State: &st})
    }
    if err := conn.WriteMessage(websocket.TextMessage, snapshot()); err != nil {
        return
    }

    ticker := time.NewTicker(wsIdlePingInterval)
    defer ticker.Stop()
    lastWrite := time.Now()
    pingPayload := mustMarshal(wsMessage{Type: "ping"})
    for {
        select {
        case <-ctx.Done():
            return
        case <-gone:
            return
        case _, ok := <-updates:
            if !ok {
                return
            }
            if err := conn.WriteMessage(websocket.TextMessage, snapshot()); err != nil {
                return
            }
            lastWrite = time.Now()
        case <-ticker.C:
            if time.Since(lastWrite) < wsIdlePingInterval {
                continue
            }
            if err := conn.WriteMessage(websocket.TextMessage, pingPayload); err != nil {
                return
            }
            lastWrite = time.Now()
        }
    }
}
