package nmjl

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// Four patterns cover the interesting cases: a consecutive-run pattern
// with joker-friendly pungs and a joker-free pair, a flower-kong pattern
// closed by a joker-free single, a joker-free singles pattern, and a
// winds pattern with mixed joker flags.
func fixtureHands() []completeHand {
	consecJokers := make([]bool, HandSize)
	for i := 0; i < 12; i++ {
		consecJokers[i] = true
	}

	windsJokers := []bool{
		true, true, true, true, // east kong
		false, false, // south pair
		false, false, // west pair
		true, true, true, true, // north kong
		false, false, // dragon singles
	}

	return []completeHand{
		{
			Year: 2025, Section: "CONSECUTIVE RUN", Line: 3, PatternID: 1,
			HandKey: "2025-CONSEC-3", Pattern: "111 222 333 444 55",
			Points: 25, Sequence: 1,
			Tiles: []string{
				"1B", "1B", "1B", "2B", "2B", "2B", "3B", "3B", "3B",
				"4B", "4B", "4B", "5B", "5B",
			},
			Jokers: consecJokers,
		},
		{
			Year: 2025, Section: "CONSECUTIVE RUN", Line: 3, PatternID: 1,
			HandKey: "2025-CONSEC-3", Pattern: "111 222 333 444 55",
			Points: 25, Sequence: 2,
			Tiles: []string{
				"1C", "1C", "1C", "2C", "2C", "2C", "3C", "3C", "3C",
				"4C", "4C", "4C", "5C", "5C",
			},
			Jokers: consecJokers,
		},
		{
			Year: 2025, Section: "CONSECUTIVE RUN", Line: 5, PatternID: 4,
			HandKey: "2025-CONSEC-5", Pattern: "FFFF 111 222 333 D",
			Points: 25, Sequence: 1,
			Tiles: []string{
				"f1", "f1", "f1", "f1", "1B", "1B", "1B", "2B", "2B", "2B",
				"3B", "3B", "3B", "red",
			},
			Jokers: []bool{
				true, true, true, true, // flower kong
				true, true, true, true, true, true, true, true, true,
				false, // single dragon
			},
		},
		{
			Year: 2025, Section: "SINGLES AND PAIRS", Line: 1, PatternID: 2,
			HandKey: "2025-SINGLES-1", Pattern: "1-9 E S W NN",
			Points: 50, Concealed: true, Difficulty: "hard", Sequence: 1,
			Tiles: []string{
				"1B", "2B", "3B", "4B", "5B", "6B", "7B", "8B", "9B",
				"east", "south", "west", "north", "north",
			},
			Jokers: make([]bool, HandSize),
		},
		{
			Year: 2025, Section: "WINDS AND DRAGONS", Line: 4, PatternID: 3,
			HandKey: "2025-WINDS-4", Pattern: "EEEE SS WW NNNN R G",
			Points: 30, Difficulty: "medium", Sequence: 1,
			Tiles: []string{
				"east", "east", "east", "east", "south", "south",
				"west", "west", "north", "north", "north", "north",
				"red", "green",
			},
			Jokers: windsJokers,
		},
	}
}

func writeDataset(t *testing.T, hands []completeHand) string {
	t.Helper()
	raw, err := json.Marshal(completeHandsFile{Hands: hands})
	if err != nil {
		t.Fatalf("marshal dataset: %v", err)
	}
	path := filepath.Join(t.TempDir(), "hands.json")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	return path
}

func loadedCatalog(t *testing.T) *VariationCatalog {
	t.Helper()
	c := NewVariationCatalog(writeDataset(t, fixtureHands()))
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return c
}

func mustHand(t *testing.T, ids ...string) []HandTile {
	t.Helper()
	hand := make([]HandTile, 0, len(ids))
	for _, id := range ids {
		ht, err := NewHandTile(id)
		if err != nil {
			t.Fatalf("bad tile id %q: %v", id, err)
		}
		hand = append(hand, ht)
	}
	return hand
}

func emptyGameContext() *GameContext {
	return &GameContext{
		WallTilesRemaining: 80,
		Phase:              PhaseGameplay,
	}
}
