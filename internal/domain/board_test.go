package domain

import (
    "errors"
    "testing"
)

func mustRows(t *testing.T, rows [][]Cell) Board {
    t.Helper()
    b, err := FromRows(rows)
    if err != nil {
        t.Fatalf("FromRows: %v", err)
    }
    return b
}

func TestNewBoardIsEmpty(t *testing.T) {
    for _, n := range []int{1, 3, 4} {
        b := NewBoard(n)
        if b.Size() != n {
            t.Fatalf("size = %d, want %d", b.Size(), n)
        }
        if got := len(b.Moves()); got != n*n {
            t.Fatalf("n=%d: expected %d moves, got %d", n, n*n, got)
        }
    }
    if NewBoard(0).Size() != 1 {
        t.Fatalf("expected size clamp to 1")
    }
}

func TestFromRowsRejectsRagged(t *testing.T) {
    if _, err := FromRows([][]Cell{{X, O}, {Empty}}); !errors.Is(err, ErrNotSquare) {
        t.Fatalf("expected ErrNotSquare, got %v", err)
    }
    if _, err := FromRows(nil); !errors.Is(err, ErrNotSquare) {
        t.Fatalf("expected ErrNotSquare for empty input, got %v", err)
    }
}

func TestValidAndApply(t *testing.T) {
    b := NewBoard(3)
    if !b.Valid(2, 2) || b.Valid(3, 0) || b.Valid(0, -1) {
        t.Fatalf("unexpected validity")
    }
    if !b.Apply(1, 2, O) {
        t.Fatalf("apply on empty cell should succeed")
    }
    if b.Apply(1, 2, X) {
        t.Fatalf("apply on occupied cell should fail")
    }
    if b.At(1, 2) != O {
        t.Fatalf("failed apply must not overwrite, got %v", b.At(1, 2))
    }
    if b.Apply(0, 0, Empty) {
        t.Fatalf("placing Empty must be rejected")
    }
    if b.Apply(-1, 0, X) {
        t.Fatalf("out of bounds apply should fail")
    }
    if b.Count() != 1 {
        t.Fatalf("expected exactly one mark, got %d", b.Count())
    }
}

func TestCloneIsIndependent(t *testing.T) {
    b := NewBoard(3)
    cp := b.Clone()
    cp.Apply(0, 0, X)
    if b.At(0, 0) != Empty {
        t.Fatalf("clone shares cells with original")
    }
}

func TestMovesRowMajor(t *testing.T) {
    b := mustRows(t, [][]Cell{
        {X, Empty, O},
        {Empty, X, Empty},
        {O, Empty, Empty},
    })
    want := []Move{{0, 1}, {1, 0}, {1, 2}, {2, 1}, {2, 2}}
    got := b.Moves()
    if len(got) != len(want) {
        t.Fatalf("expected %d moves, got %v", len(want), got)
    }
    for i := range want {
        if got[i] != want[i] {
            t.Fatalf("move %d = %v, want %v", i, got[i], want[i])
        }
    }
}

func TestStatus(t *testing.T) {
    cases := []struct {
        name   string
        rows   [][]Cell
        over   bool
        winner Cell
    }{
        {"top row X", [][]Cell{{X, X, X}, {O, O, Empty}, {Empty, Empty, O}}, true, X},
        {"column O", [][]Cell{{X, O, X}, {Empty, O, X}, {Empty, O, Empty}}, true, O},
        {"main diagonal", [][]Cell{{O, X, X}, {Empty, O, X}, {X, Empty, O}}, true, O},
        {"anti diagonal", [][]Cell{{O, O, X}, {Empty, X, Empty}, {X, Empty, Empty}}, true, X},
        {"full draw", [][]Cell{{X, O, X}, {X, O, O}, {O, X, X}}, true, Empty},
        {"in progress", [][]Cell{{X, O, Empty}, {Empty, Empty, Empty}, {Empty, Empty, Empty}}, false, Empty},
        {"empty", [][]Cell{{Empty, Empty, Empty}, {Empty, Empty, Empty}, {Empty, Empty, Empty}}, false, Empty},
        // impossible under legal play; X is checked first
        {"two winners", [][]Cell{{O, O, O}, {X, X, X}, {Empty, Empty, Empty}}, true, X},
        {"1x1 taken", [][]Cell{{O}}, true, O},
        {"4x4 row", [][]Cell{{Empty, Empty, Empty, Empty}, {O, O, O, O}, {X, X, X, Empty}, {X, Empty, Empty, Empty}}, true, O},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            over, winner := mustRows(t, tc.rows).Status()
            if over != tc.over || winner != tc.winner {
                t.Fatalf("Status() = (%v, %v), want (%v, %v)", over, winner, tc.over, tc.winner)
            }
        })
    }
}

func TestBoardString(t *testing.T) {
    b := mustRows(t, [][]Cell{{X, Empty}, {Empty, O}})
    want := "X |  \n-------\n  | O\n-------\n"
    if got := b.String(); got != want {
        t.Fatalf("String() = %q, want %q", got, want)
    }
}
