package key

import (
	"testing"

	"github.com/gdamore/tcell/v2"
)

func TestFromTcell(t *testing.T) {
	tests := []struct {
		name string
		ev   *tcell.EventKey
		want Key
		rune rune
	}{
		{"escape", tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), KeyEscape, 0},
		{"tab", tcell.NewEventKey(tcell.KeyTab, 0, tcell.ModNone), KeyTab, 0},
		{"enter", tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone), KeyEnter, 0},
		{"rune", tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone), KeyRune, 'q'},
		{"backspace2", tcell.NewEventKey(tcell.KeyBackspace2, 0, tcell.ModNone), KeyBackspace, 0},
		{"unmapped", tcell.NewEventKey(tcell.KeyF12, 0, tcell.ModNone), KeyNone, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromTcell(tt.ev)
			if got.Key != tt.want {
				t.Errorf("Key = %v, want %v", got.Key, tt.want)
			}
			if got.Rune != tt.rune {
				t.Errorf("Rune = %q, want %q", got.Rune, tt.rune)
			}
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		want Key
		ok   bool
	}{
		{"Tab", KeyTab, true},
		{"enter", KeyEnter, true},
		{"Esc", KeyEscape, true},
		{"escape", KeyEscape, true},
		{"BACKSPACE", KeyBackspace, true},
		{"Delete", KeyDelete, true},
		{"F12", KeyNone, false},
		{"", KeyNone, false},
	}

	for _, tt := range tests {
		got, ok := Parse(tt.name)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Parse(%q) = (%v, %v), want (%v, %v)", tt.name, got, ok, tt.want, tt.ok)
		}
	}
}

func TestRouterDispatchOrder(t *testing.T) {
	r := NewRouter()

	var trace []string
	r.SetBase(func(Event) bool {
		trace = append(trace, "base")
		return true
	})
	r.Intercept(func(Event) bool {
		trace = append(trace, "interceptor")
		return true
	})

	if !r.Dispatch(NewEvent(KeyEscape, 0)) {
		t.Fatal("Dispatch should report handled")
	}
	if len(trace) != 1 || trace[0] != "interceptor" {
		t.Errorf("trace = %v, interceptor must win", trace)
	}
}

func TestRouterFallthrough(t *testing.T) {
	r := NewRouter()

	baseHit := false
	r.SetBase(func(Event) bool {
		baseHit = true
		return true
	})
	r.Intercept(func(ev Event) bool {
		return ev.Key == KeyEscape // only claims Escape
	})

	r.Dispatch(NewEvent(KeyRune, 'x'))
	if !baseHit {
		t.Error("unclaimed event should reach base handler")
	}
}

func TestRouterReplaceDontStack(t *testing.T) {
	r := NewRouter()

	first := 0
	second := 0
	r.Intercept(func(Event) bool { first++; return true })
	r.Intercept(func(Event) bool { second++; return true })

	r.Dispatch(NewEvent(KeyTab, 0))

	if first != 0 {
		t.Error("replaced interceptor must not fire")
	}
	if second != 1 {
		t.Errorf("current interceptor fired %d times, want 1", second)
	}
}

func TestRouterStaleRelease(t *testing.T) {
	r := NewRouter()

	stale := r.Intercept(func(Event) bool { return true })
	hits := 0
	r.Intercept(func(Event) bool { hits++; return true })

	// A late teardown from the superseded session must not remove the
	// current interceptor.
	r.Release(stale)
	r.Dispatch(NewEvent(KeyEnter, 0))
	if hits != 1 {
		t.Errorf("hits = %d, want 1 after stale release", hits)
	}

	cur := r.Intercept(func(Event) bool { hits += 10; return true })
	r.Release(cur)
	if r.Dispatch(NewEvent(KeyEnter, 0)) {
		t.Error("Dispatch should be unhandled with no handlers")
	}
}
