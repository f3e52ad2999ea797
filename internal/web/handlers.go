package web

import (
    "bytes"
    "encoding/json"
    "errors"
    "html/template"
    "io"
    "net/http"
    "runtime"
    "strconv"
    "time"

    "github.com/go-chi/chi/v5"
    "github.com/jaminalder/tictactoe-arena/internal/app"
    "github.com/jaminalder/tictactoe-arena/internal/arena"
    "github.com/jaminalder/tictactoe-arena/internal/player"
    "github.com/rs/zerolog"
)

// maxBenchGames bounds POST /bench so one request cannot pin the server.
const maxBenchGames = 50

type handlers struct {
    svc *app.Service
    tpl *templates
    log zerolog.Logger
}

func (h *handlers) renderBoard(ms app.MatchState, errMsg string) []byte {
    return renderTemplate(h.tpl.board, "", newBoardView(ms, errMsg))
}

func (h *handlers) index(w http.ResponseWriter, r *http.Request) {
    data := struct {
        Kinds    []player.Kind
        DefaultX player.Kind
        DefaultO player.Kind
        MaxSize  int
    }{Kinds: player.Kinds(), DefaultX: player.Minimax, DefaultO: player.AlphaBeta, MaxSize: h.svc.MaxBoardSize()}
    w.Header().Set("Content-Type", "text/html; charset=utf-8")
    w.WriteHeader(http.StatusOK)
    _, _ = w.Write(renderTemplate(h.tpl.index, "base", data))
}

func (h *handlers) create(w http.ResponseWriter, r *http.Request) {
    _ = r.ParseForm()
    x, err := kindParam(r, "x", player.Minimax)
    if err != nil {
        http.Error(w, err.Error(), http.StatusBadRequest)
        return
    }
    o, err := kindParam(r, "o", player.AlphaBeta)
    if err != nil {
        http.Error(w, err.Error(), http.StatusBadRequest)
        return
    }
    size := 3
    if v := r.Form.Get("size"); v != "" {
        if size, err = strconv.Atoi(v); err != nil {
            http.Error(w, "invalid size", http.StatusBadRequest)
            return
        }
    }
    ms, err := h.svc.CreateMatch(x, o, size)
    if err != nil {
        status := http.StatusInternalServerError
        if errors.Is(err, app.ErrBadSize) || errors.Is(err, player.ErrUnknownKind) {
            status = http.StatusBadRequest
        }
        http.Error(w, err.Error(), status)
        return
    }
    http.Redirect(w, r, "/match/"+ms.ID, http.StatusSeeOther)
}

func kindParam(r *http.Request, name string, def player.Kind) (player.Kind, error) {
    v := r.Form.Get(name)
    if v == "" {
        return def, nil
    }
    return player.ParseKind(v)
}

func (h *handlers) view(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    ms, ok := h.svc.Get(id)
    if !ok {
        http.NotFound(w, r)
        return
    }
    data := struct {
        ID        string
        BoardHTML template.HTML
    }{ID: ms.ID, BoardHTML: template.HTML(h.renderBoard(*ms, ""))}

    w.Header().Set("Content-Type", "text/html; charset=utf-8")
    w.WriteHeader(http.StatusOK)
    // Render page with embedded board container
    _, _ = w.Write(renderTemplate(h.tpl.game, "base", data))
}

func (h *handlers) step(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    ms, err := h.svc.Step(r.Context(), id)
    h.writeBoardResult(w, r, id, ms, err)
}

func (h *handlers) run(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    ms, err := h.svc.Run(r.Context(), id)
    h.writeBoardResult(w, r, id, ms, err)
}

func (h *handlers) writeBoardResult(w http.ResponseWriter, r *http.Request, id string, ms *app.MatchState, err error) {
    var errMsg string
    if err != nil {
        if ms == nil {
            if m, ok := h.svc.Get(id); ok {
                ms = m
            }
        }
        switch {
        case errors.Is(err, app.ErrNotFound):
            ms = nil
        case errors.Is(err, app.ErrMatchOver):
            errMsg = "Match is over"
        case errors.Is(err, arena.ErrRejectedMove):
            errMsg = "Move rejected"
        default:
            h.log.Error().Err(err).Str("match", id).Msg("step failed")
            errMsg = "Step failed"
        }
    }
    if ms == nil {
        http.NotFound(w, r)
        return
    }
    w.Header().Set("Content-Type", "text/html; charset=utf-8")
    _, _ = w.Write(h.renderBoard(*ms, errMsg))
}

func (h *handlers) state(w http.ResponseWriter, r *http.Request) {
    ms, ok := h.svc.Get(chi.URLParam(r, "id"))
    if !ok {
        http.NotFound(w, r)
        return
    }
    writeJSON(w, http.StatusOK, newStateDTO(*ms))
}

type benchRequest struct {
    Games     int             `json:"games"`
    BoardSize int             `json:"board_size"`
    Pairings  []arena.Pairing `json:"pairings"`
}

func (h *handlers) bench(w http.ResponseWriter, r *http.Request) {
    req := benchRequest{Games: 1, BoardSize: 3}
    if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
        writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
        return
    }
    if req.Games < 1 || req.Games > maxBenchGames || req.BoardSize < 1 || req.BoardSize > h.svc.MaxBoardSize() {
        writeJSON(w, http.StatusBadRequest, map[string]string{"error": "games or board_size out of range"})
        return
    }
    rep, err := arena.Bench(r.Context(), arena.BenchConfig{
        Pairings:  req.Pairings,
        Games:     req.Games,
        BoardSize: req.BoardSize,
        Workers:   runtime.NumCPU(),
        Factory:   h.svc.Factory(),
    })
    if err != nil {
        h.log.Error().Err(err).Msg("bench failed")
        writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
        return
    }
    writeJSON(w, http.StatusOK, rep)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(status)
    _ = json.NewEncoder(w).Encode(v)
}

var heartbeatInterval = 15 * time.Second

func (h *handlers) events(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    w.Header().Set("Content-Type", "text/event-stream")
    w.Header().Set("Cache-Control", "no-cache")
    w.Header().Set("X-Accel-Buffering", "no")
    // In tests or non-EventSource requests, just acknowledge headers and return
    if r.Header.Get("Accept") != "text/event-stream" {
        w.WriteHeader(http.StatusOK)
        return
    }
    flusher, ok := w.(http.Flusher)
    if !ok {
        w.WriteHeader(http.StatusOK)
        return
    }
    ctx := r.Context()
    ch, _ := h.svc.Subscribe(ctx, id)
    ticker := time.NewTicker(heartbeatInterval)
    defer ticker.Stop()
    flusher.Flush()
    for {
        select {
        case <-ctx.Done():
            return
        case <-ticker.C:
            _, _ = io.WriteString(w, ": ping\n\n")
            flusher.Flush()
        case b, ok := <-ch:
            if !ok {
                return
            }
            writeSSE(w, "board", b)
            flusher.Flush()
        }
    }
}

// writeSSE emits one event; every payload line gets its own data field.
func writeSSE(w io.Writer, event string, payload []byte) {
    _, _ = io.WriteString(w, "event: "+event+"\n")
    for _, line := range bytes.Split(payload, []byte("\n")) {
        _, _ = io.WriteString(w, "data: ")
        _, _ = w.Write(line)
        _, _ = io.WriteString(w, "\n")
    }
    _, _ = io.WriteString(w, "\n")
}
