package web

import (
    "bytes"
    "html/template"

    "github.com/jaminalder/tictactoe-arena/internal/app"
    "github.com/jaminalder/tictactoe-arena/internal/arena"
    "github.com/jaminalder/tictactoe-arena/internal/domain"
    "github.com/jaminalder/tictactoe-arena/internal/player"
)

type templates struct {
    base  *template.Template
    game  *template.Template
    board *template.Template
    index *template.Template
}

func funcs() template.FuncMap {
    return template.FuncMap{
        "cellSymbol": func(c domain.Cell) string {
            switch c {
            case domain.X:
                return "X"
            case domain.O:
                return "O"
            default:
                return ""
            }
        },
        "iter": func(from, to int) []int {
            var a []int
            for i := from; i <= to; i++ {
                a = append(a, i)
            }
            return a
        },
    }
}

func loadTemplates() *templates {
    base := template.Must(template.New("base").Funcs(funcs()).Parse(`<!doctype html><html><head>
<meta charset="utf-8"/>
<title>TicTacToe Arena</title>
<script src="https://unpkg.com/htmx.org@1.9.12"></script>
<script src="https://unpkg.com/htmx.org/dist/ext/sse.js"></script>
</head><body>{{template "content" .}}</body></html>`))
    // Define the board template within the same set so game can include it
    template.Must(base.New("board").Funcs(funcs()).Parse(boardTemplate))
    index := template.Must(template.Must(base.Clone()).New("content").Parse(indexTemplate))
    game := template.Must(template.Must(base.Clone()).New("content").Parse(`
<h1>Match {{.ID}}</h1>
<div hx-ext="sse" hx-sse="connect:/match/{{.ID}}/events">
  <div hx-sse="swap:board">{{.BoardHTML}}</div>
</div>
<p><a href="/">New match</a></p>`))
    // Standalone board template used for fragment rendering
    board := template.Must(template.New("board_only").Funcs(funcs()).Parse(boardTemplate))
    return &templates{base: base, game: game, board: board, index: index}
}

func renderTemplate(t *template.Template, name string, data any) []byte {
    var buf bytes.Buffer
    if name == "" {
        _ = t.Execute(&buf, data)
    } else {
        _ = t.ExecuteTemplate(&buf, name, data)
    }
    return buf.Bytes()
}

const indexTemplate = `<h1>TicTacToe Arena</h1>
<form action="/match" method="post">
  <label>X <select name="x">{{range .Kinds}}<option value="{{.}}"{{if eq . $.DefaultX}} selected{{end}}>{{.}}</option>{{end}}</select></label>
  <label>O <select name="o">{{range .Kinds}}<option value="{{.}}"{{if eq . $.DefaultO}} selected{{end}}>{{.}}</option>{{end}}</select></label>
  <label>Size <select name="size">{{range iter 1 .MaxSize}}<option value="{{.}}"{{if eq . $.MaxSize}} selected{{end}}>{{.}}x{{.}}</option>{{end}}</select></label>
  <button>Create</button>
</form>`

const boardTemplate = `
<div id="board">
  {{if .Error}}
  <div class="alert">{{.Error}}</div>
  {{end}}
  <p class="players">X: {{.X}} / O: {{.O}}</p>
  <table class="grid">
    {{range .Rows}}
    <tr>{{range .}}<td>{{cellSymbol .}}</td>{{end}}</tr>
    {{end}}
  </table>
  {{if .Over}}
  <p class="result">{{if .Draw}}Draw{{else}}Winner: {{cellSymbol .Winner}}{{end}}</p>
  {{else}}
  <p class="turn">{{cellSymbol .Turn}} to move</p>
  <form hx-post="/match/{{.ID}}/step" hx-target="#board" hx-swap="outerHTML" method="post"><button type="submit">Step</button></form>
  <form hx-post="/match/{{.ID}}/run" hx-target="#board" hx-swap="outerHTML" method="post"><button type="submit">Run</button></form>
  {{end}}
  {{with .Last}}
  <p class="last">{{cellSymbol .Player}} ({{.Kind}}) played {{.Move}} in {{.Elapsed}}, ops {{.Ops}}</p>
  {{end}}
</div>
`

// boardView is the data the board fragment renders.
type boardView struct {
    ID     string
    Rows   [][]domain.Cell
    X      player.Kind
    O      player.Kind
    Turn   domain.Cell
    Winner domain.Cell
    Over   bool
    Draw   bool
    Last   *arena.MoveRecord
    Error  string
}

func newBoardView(ms app.MatchState, errMsg string) boardView {
    v := boardView{
        ID:     ms.ID,
        Rows:   ms.Game.Board.Rows(),
        X:      ms.X,
        O:      ms.O,
        Turn:   ms.Game.Turn,
        Winner: ms.Game.Winner,
        Over:   ms.Game.Over,
        Draw:   ms.Game.Over && ms.Game.Winner == domain.Empty,
        Error:  errMsg,
    }
    if n := len(ms.History); n > 0 {
        last := ms.History[n-1]
        v.Last = &last
    }
    if v.Error == "" {
        v.Error = ms.Err
    }
    return v
}
