package web

import (
    "encoding/json"
    "io"
    "net/http"
    "net/http/httptest"
    "net/url"
    "strings"
    "testing"
    "time"

    "github.com/gorilla/websocket"
    "github.com/jaminalder/tictactoe-arena/internal/app"
    "github.com/jaminalder/tictactoe-arena/internal/player"
    "github.com/rs/zerolog"
)

func newTestServer(t *testing.T) (*app.Service, http.Handler) {
    t.Helper()
    s := app.NewService(player.Factory{Log: zerolog.Nop()})
    h := NewServer(s)
    return s, h
}

func postForm(h http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
    req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
    req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, req)
    return rr
}

func TestIndexPage(t *testing.T) {
    _, h := newTestServer(t)
    req := httptest.NewRequest("GET", "/", nil)
    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, req)
    if rr.Code != http.StatusOK {
        t.Fatalf("expected 200, got %d", rr.Code)
    }
    body := rr.Body.String()
    if !strings.Contains(body, "<form") || !strings.Contains(body, "action=\"/match\"") {
        t.Fatalf("index should contain create form; got body: %q", body)
    }
    if !strings.Contains(body, "<!doctype html>") || !strings.Contains(body, "htmx.org") {
        t.Fatalf("index should render inside the base layout; got body: %q", body)
    }
    for _, k := range player.Kinds() {
        if !strings.Contains(body, "value=\""+k.String()+"\"") {
            t.Fatalf("index missing option %q", k)
        }
    }
}

func TestCreateRedirectsToMatch(t *testing.T) {
    svc, h := newTestServer(t)
    rr := postForm(h, "/match", url.Values{"x": {"first-legal"}, "o": {"alpha-beta"}, "size": {"3"}})
    if rr.Code != http.StatusSeeOther && rr.Code != http.StatusFound {
        t.Fatalf("expected redirect, got %d", rr.Code)
    }
    loc := rr.Result().Header.Get("Location")
    if !strings.HasPrefix(loc, "/match/") {
        t.Fatalf("expected redirect to /match/{id}, got %q", loc)
    }
    ms, ok := svc.Get(strings.TrimPrefix(loc, "/match/"))
    if !ok || ms.X != player.FirstLegal || ms.O != player.AlphaBeta {
        t.Fatalf("match not created as requested: %+v", ms)
    }
}

func TestCreateRejectsBadInput(t *testing.T) {
    _, h := newTestServer(t)
    for _, form := range []url.Values{
        {"x": {"random"}},
        {"size": {"9"}},
        {"size": {"big"}},
    } {
        if rr := postForm(h, "/match", form); rr.Code != http.StatusBadRequest {
            t.Fatalf("form %v: expected 400, got %d", form, rr.Code)
        }
    }
}

func TestMatchPageHasSSEWiring(t *testing.T) {
    svc, h := newTestServer(t)
    ms, _ := svc.CreateMatch(player.Minimax, player.AlphaBeta, 3)

    req := httptest.NewRequest("GET", "/match/"+url.PathEscape(ms.ID), nil)
    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, req)
    if rr.Code != http.StatusOK {
        t.Fatalf("expected 200, got %d", rr.Code)
    }
    body := rr.Body.String()
    if !strings.Contains(body, "hx-ext=\"sse\"") || !strings.Contains(body, "/match/"+ms.ID+"/events") {
        t.Fatalf("expected SSE wiring in page; got body: %q", body)
    }
    if !strings.Contains(body, "id=\"board\"") || !strings.Contains(body, "X to move") {
        t.Fatalf("expected embedded board; got body: %q", body)
    }
}

func TestUnknownMatch(t *testing.T) {
    _, h := newTestServer(t)
    for _, tc := range []struct{ method, path string }{
        {"GET", "/match/nope"},
        {"GET", "/match/nope/state"},
        {"POST", "/match/nope/step"},
        {"GET", "/match/nope/ws"},
    } {
        rr := httptest.NewRecorder()
        h.ServeHTTP(rr, httptest.NewRequest(tc.method, tc.path, nil))
        if rr.Code != http.StatusNotFound {
            t.Fatalf("%s %s: expected 404, got %d", tc.method, tc.path, rr.Code)
        }
    }
}

func TestStepEndpointPlaysAndReturnsFragment(t *testing.T) {
    svc, h := newTestServer(t)
    ms, _ := svc.CreateMatch(player.FirstLegal, player.FirstLegal, 3)

    rr := postForm(h, "/match/"+ms.ID+"/step", nil)
    if rr.Code != http.StatusOK {
        t.Fatalf("expected 200, got %d", rr.Code)
    }
    body := rr.Body.String()
    if !strings.Contains(body, "id=\"board\"") || !strings.Contains(body, "O to move") {
        t.Fatalf("expected board fragment with O to move, got %q", body)
    }
    latest, _ := svc.Get(ms.ID)
    if latest.Game.Moves != 1 {
        t.Fatalf("expected move applied, moves=%d", latest.Game.Moves)
    }
}

func TestRunEndpointFinishesMatch(t *testing.T) {
    svc, h := newTestServer(t)
    ms, _ := svc.CreateMatch(player.FirstLegal, player.FirstLegal, 3)

    rr := postForm(h, "/match/"+ms.ID+"/run", nil)
    if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "Winner: X") {
        t.Fatalf("expected finished board, got %d %q", rr.Code, rr.Body.String())
    }
    rr = postForm(h, "/match/"+ms.ID+"/step", nil)
    if !strings.Contains(rr.Body.String(), "Match is over") {
        t.Fatalf("expected over message, got %q", rr.Body.String())
    }

    req := httptest.NewRequest("GET", "/match/"+ms.ID+"/state", nil)
    rec := httptest.NewRecorder()
    h.ServeHTTP(rec, req)
    var st stateDTO
    if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
        t.Fatalf("decode state: %v", err)
    }
    if !st.Over || st.Winner != "X" || len(st.History) != 7 || st.Board[0][0] != "X" || st.Board[2][2] != "" {
        t.Fatalf("unexpected state: %+v", st)
    }
    if st.X != player.FirstLegal {
        t.Fatalf("kinds should decode by name, got %v", st.X)
    }
}

func TestEventsEndpointSSEHeaders(t *testing.T) {
    svc, h := newTestServer(t)
    ms, _ := svc.CreateMatch(player.FirstLegal, player.FirstLegal, 3)
    req := httptest.NewRequest("GET", "/match/"+ms.ID+"/events", nil)
    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, req)
    if rr.Code != http.StatusOK {
        t.Fatalf("expected 200, got %d", rr.Code)
    }
    ct := rr.Result().Header.Get("Content-Type")
    if !strings.HasPrefix(ct, "text/event-stream") {
        io.Copy(io.Discard, rr.Result().Body)
        t.Fatalf("expected text/event-stream, got %q", ct)
    }
}

func TestWriteSSEPrefixesEveryLine(t *testing.T) {
    var sb strings.Builder
    writeSSE(&sb, "board", []byte("<div>\n</div>"))
    want := "event: board\ndata: <div>\ndata: </div>\n\n"
    if sb.String() != want {
        t.Fatalf("got %q, want %q", sb.String(), want)
    }
}

func TestBenchEndpoint(t *testing.T) {
    _, h := newTestServer(t)
    body := `{"games":2,"board_size":2,"pairings":[{"p1":"minimax","p2":"first-legal"}]}`
    req := httptest.NewRequest("POST", "/bench", strings.NewReader(body))
    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, req)
    if rr.Code != http.StatusOK {
        t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
    }
    var rep struct {
        BoardSize int `json:"board_size"`
        Pairings  []struct {
            Games int `json:"games"`
            P1    struct {
                Kind string `json:"kind"`
                Wins int    `json:"wins"`
            } `json:"p1"`
        } `json:"pairings"`
    }
    if err := json.Unmarshal(rr.Body.Bytes(), &rep); err != nil {
        t.Fatalf("decode: %v", err)
    }
    if rep.BoardSize != 2 || len(rep.Pairings) != 1 || rep.Pairings[0].P1.Kind != "minimax" || rep.Pairings[0].P1.Wins != 2 {
        t.Fatalf("unexpected report: %+v", rep)
    }

    req = httptest.NewRequest("POST", "/bench", strings.NewReader(`{"games":1000}`))
    rr = httptest.NewRecorder()
    h.ServeHTTP(rr, req)
    if rr.Code != http.StatusBadRequest {
        t.Fatalf("expected 400 for oversized bench, got %d", rr.Code)
    }
}

func TestWebSocketStreamsState(t *testing.T) {
    svc, h := newTestServer(t)
    ms, _ := svc.CreateMatch(player.FirstLegal, player.FirstLegal, 3)
    srv := httptest.NewServer(h)
    defer srv.Close()

    wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/match/" + ms.ID + "/ws"
    conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
    if err != nil {
        t.Fatalf("dial: %v", err)
    }
    defer conn.Close()
    _ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

    read := func() wsMessage {
        t.Helper()
        var msg wsMessage
        if err := conn.ReadJSON(&msg); err != nil {
            t.Fatalf("read: %v", err)
        }
        return msg
    }
    first := read()
    if first.Type != "state" || first.State == nil || first.State.ID != ms.ID || len(first.State.History) != 0 {
        t.Fatalf("unexpected initial message: %+v", first)
    }

    resp, err := http.Post(srv.URL+"/match/"+ms.ID+"/step", "application/x-www-form-urlencoded", nil)
    if err != nil {
        t.Fatalf("step: %v", err)
    }
    resp.Body.Close()

    next := read()
    if next.State == nil || len(next.State.History) != 1 || next.State.Board[0][0] != "X" {
        t.Fatalf("expected state after one move, got %+v", next)
    }
}
