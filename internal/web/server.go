package web

import (
    "net/http"
    "time"

    "github.com/go-chi/chi/v5"
    "github.com/go-chi/chi/v5/middleware"
    "github.com/jaminalder/tictactoe-arena/internal/app"
    "github.com/rs/zerolog"
)

// NewServer wires routes and returns an http.Handler. Board fragments become
// the service's broadcast payload for SSE subscribers.
func NewServer(s *app.Service) http.Handler {
    r := chi.NewRouter()
    h := &handlers{svc: s, tpl: loadTemplates(), log: s.Factory().Log}
    s.SetRenderer(func(ms app.MatchState) []byte { return h.renderBoard(ms, "") })

    r.Use(middleware.RequestID)
    r.Use(middleware.RealIP)
    r.Use(requestLogger(h.log))
    r.Use(middleware.Recoverer)

    r.Get("/", h.index)
    r.Post("/match", h.create)
    r.Post("/bench", h.bench)
    r.Route("/match/{id}", func(r chi.Router) {
        r.Get("/", h.view)
        r.Get("/state", h.state)
        r.Post("/step", h.step)
        r.Post("/run", h.run)
        r.Get("/events", h.events)
        r.Get("/ws", h.ws)
    })
    return r
}

func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
    return func(next http.Handler) http.Handler {
        return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
            ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
            start := time.Now()
            defer func() {
                log.Info().
                    Str("method", r.Method).
                    Str("path", r.URL.Path).
                    Int("status", ww.Status()).
                    Dur("elapsed", time.Since(start)).
                    Str("request_id", middleware.GetReqID(r.Context())).
                    Msg("request")
            }()
            next.ServeHTTP(ww, r)
        })
    }
}
