package nmjl

import (
	"errors"
	"testing"
)

func TestParsePhase(t *testing.T) {
	if p, err := ParsePhase("charleston"); err != nil || p != PhaseCharleston {
		t.Fatalf("charleston: %v/%v", p, err)
	}
	if p, err := ParsePhase("gameplay"); err != nil || p != PhaseGameplay {
		t.Fatalf("gameplay: %v/%v", p, err)
	}
	// Empty defaults to gameplay.
	if p, err := ParsePhase(""); err != nil || p != PhaseGameplay {
		t.Fatalf("empty: %v/%v", p, err)
	}
	if _, err := ParsePhase("midnight"); !errors.Is(err, ErrInvalidPhase) {
		t.Fatalf("bad phase: got %v", err)
	}
}

func TestGameContextVisibleCounts(t *testing.T) {
	gctx := &GameContext{
		DiscardPile: []string{"5B", "5B", "east"},
		ExposedTiles: map[string][]string{
			"left":  {"5B", "red"},
			"right": {"east", "east"},
		},
	}

	if got := gctx.visibleCount("5B"); got != 3 {
		t.Fatalf("visible 5B = %d, want 3", got)
	}
	if got := gctx.visibleCount("east"); got != 3 {
		t.Fatalf("visible east = %d, want 3", got)
	}
	if got := gctx.exposedCount("5B"); got != 1 {
		t.Fatalf("exposed 5B = %d, want 1", got)
	}
	if got := gctx.exposedCount("east"); got != 2 {
		t.Fatalf("exposed east = %d, want 2", got)
	}
	if got := gctx.visibleCount("9D"); got != 0 {
		t.Fatalf("visible 9D = %d, want 0", got)
	}
}
