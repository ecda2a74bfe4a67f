package nmjl

import (
	"errors"
	"math"
	"testing"
)

// makeFacts builds minimal facts with an exactly computable score:
// currentTileScore = 32*matched/14, availability 28 (nothing scarce),
// jokerScore 0 unless complete, priority from points/difficulty.
func makeFacts(key string, matched, points int, diff Difficulty) *PatternAnalysisFacts {
	return &PatternAnalysisFacts{
		PatternKey: key,
		Pattern: &PatternDefinition{
			PatternKey: key,
			Points:     points,
			Difficulty: diff,
		},
		Best: VariationMatch{
			PatternKey:      key,
			TilesMatched:    matched,
			CompletionRatio: float64(matched) / float64(HandSize),
		},
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestRankComponentArithmetic(t *testing.T) {
	e := NewPatternRankingEngine(40, 15)

	// matched 7: 16 current + 28 availability + 0 joker + 7 priority = 51
	ranked, err := e.Rank([]*PatternAnalysisFacts{makeFacts("half", 7, 25, DifficultyEasy)}, emptyGameContext(), "")
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	r := ranked.Results[0]
	if !almostEqual(r.Components.CurrentTileScore, 16) {
		t.Fatalf("current tile score = %v, want 16", r.Components.CurrentTileScore)
	}
	if !almostEqual(r.Components.AvailabilityScore, 28) {
		t.Fatalf("availability score = %v, want 28", r.Components.AvailabilityScore)
	}
	if !almostEqual(r.Components.JokerScore, 0) {
		t.Fatalf("joker score = %v, want 0", r.Components.JokerScore)
	}
	if !almostEqual(r.Components.PriorityScore, 7) {
		t.Fatalf("priority score = %v, want 7", r.Components.PriorityScore)
	}
	if !almostEqual(r.TotalScore, 51) {
		t.Fatalf("total = %v, want 51", r.TotalScore)
	}
	if !r.IsViable || !r.IsPrimary {
		t.Fatalf("51 > 40 must be viable and primary: %+v", r)
	}
	if r.Recommendation != RecFair {
		t.Fatalf("recommendation = %v, want fair", r.Recommendation)
	}
}

func TestRankCompleteHandScoresFullComponents(t *testing.T) {
	e := NewPatternRankingEngine(40, 15)

	// matched 14: 32 + 28 + 15 + 7 = 82
	ranked, err := e.Rank([]*PatternAnalysisFacts{makeFacts("full", 14, 25, DifficultyEasy)}, emptyGameContext(), "")
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	r := ranked.Results[0]
	if !almostEqual(r.TotalScore, 82) {
		t.Fatalf("total = %v, want 82", r.TotalScore)
	}
	if r.Recommendation != RecExcellent {
		t.Fatalf("recommendation = %v, want excellent", r.Recommendation)
	}
}

func TestRankOrderingAndPrimary(t *testing.T) {
	e := NewPatternRankingEngine(40, 15)

	facts := []*PatternAnalysisFacts{
		makeFacts("low", 3, 25, DifficultyEasy),
		makeFacts("high", 12, 25, DifficultyEasy),
		makeFacts("mid", 7, 25, DifficultyEasy),
	}
	ranked, err := e.Rank(facts, emptyGameContext(), "")
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}

	keys := []string{ranked.Results[0].PatternKey, ranked.Results[1].PatternKey, ranked.Results[2].PatternKey}
	if keys[0] != "high" || keys[1] != "mid" || keys[2] != "low" {
		t.Fatalf("order = %v", keys)
	}
	for i, r := range ranked.Results {
		if r.IsPrimary != (i == 0) {
			t.Fatalf("primary flag misplaced at %d: %+v", i, r)
		}
	}
}

func TestRankRejectsDuplicatePatternKeys(t *testing.T) {
	e := NewPatternRankingEngine(40, 15)
	facts := []*PatternAnalysisFacts{
		makeFacts("dup", 7, 25, DifficultyEasy),
		makeFacts("dup", 8, 25, DifficultyEasy),
	}
	if _, err := e.Rank(facts, emptyGameContext(), ""); !errors.Is(err, ErrDuplicatePattern) {
		t.Fatalf("duplicate keys: got %v", err)
	}
}

func TestRankRequiresGameContext(t *testing.T) {
	e := NewPatternRankingEngine(40, 15)
	if _, err := e.Rank(nil, nil, ""); !errors.Is(err, ErrNilContext) {
		t.Fatalf("nil context: got %v", err)
	}
}

func TestRankMarksImpossiblePatterns(t *testing.T) {
	e := NewPatternRankingEngine(40, 15)

	f := makeFacts("dead", 13, 25, DifficultyEasy)
	f.Availability = []TileAvailability{{TileID: "5B", Missing: 1, RemainingAvailable: 0}}
	f.Jokers = JokerSummary{JokersToComplete: 1}

	ranked, err := e.Rank([]*PatternAnalysisFacts{f}, emptyGameContext(), "")
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	r := ranked.Results[0]
	if r.Recommendation != RecImpossible {
		t.Fatalf("recommendation = %v, want impossible", r.Recommendation)
	}
	if r.Confidence != 0 {
		t.Fatalf("confidence = %v, want 0", r.Confidence)
	}
	if r.IsViable {
		t.Fatalf("impossible pattern must not be viable")
	}
}

func TestRankStrandedJokerCannotRescueExhaustedPattern(t *testing.T) {
	c := loadedCatalog(t)
	analyzer := NewPatternAnalysisEngine(c)
	e := NewPatternRankingEngine(40, 15)

	// The three remaining 5B are all discarded and the pair slot forbids
	// jokers, so the joker in hand cannot legally fill the only open position.
	gctx := emptyGameContext()
	gctx.DiscardPile = []string{"5B", "5B", "5B"}
	hand := mustHand(t,
		"1B", "1B", "1B", "2B", "2B", "2B", "3B", "3B", "3B",
		"4B", "4B", "4B", "5B", "joker")

	facts, err := analyzer.Analyze(hand, consecDef(t, c), gctx)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if facts.Jokers.JokersToComplete != 0 || len(facts.Jokers.SubstitutablePositions) != 0 {
		t.Fatalf("jokers = %+v, want a stranded joker with no open slot", facts.Jokers)
	}
	if facts.Availability[0].RemainingAvailable != 0 {
		t.Fatalf("availability = %+v, want 5B exhausted", facts.Availability)
	}

	ranked, err := e.Rank([]*PatternAnalysisFacts{facts}, gctx, "")
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	r := ranked.Results[0]
	if r.Recommendation != RecImpossible {
		t.Fatalf("recommendation = %v, want impossible", r.Recommendation)
	}
	if r.Confidence != 0 || r.IsViable {
		t.Fatalf("result = conf %v viable %v, want 0/false", r.Confidence, r.IsViable)
	}

	// An exhausted tile behind a joker-friendly slot can still be rescued
	// by drawing another joker.
	rescuable := makeFacts("rescuable", 13, 25, DifficultyEasy)
	rescuable.Availability = []TileAvailability{{TileID: "4B", Missing: 1, RemainingAvailable: 0}}
	rescuable.Jokers = JokerSummary{SubstitutablePositions: []int{11}}

	ranked, err = e.Rank([]*PatternAnalysisFacts{rescuable}, gctx, "")
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if ranked.Results[0].Recommendation == RecImpossible {
		t.Fatalf("joker-coverable pattern must not be impossible: %+v", ranked.Results[0])
	}
}

func TestRankWallDepletionDiscountsConfidence(t *testing.T) {
	e := NewPatternRankingEngine(40, 15)

	gctx := emptyGameContext()
	gctx.WallTilesRemaining = 10

	ranked, err := e.Rank([]*PatternAnalysisFacts{makeFacts("racing", 7, 25, DifficultyEasy)}, gctx, "")
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	r := ranked.Results[0]
	if len(r.RiskFactors) != 1 || r.RiskFactors[0].Kind != RiskWallDepletion {
		t.Fatalf("risk factors = %+v", r.RiskFactors)
	}
	// base confidence 51/85*100 = 60, discounted by 15%
	if !almostEqual(r.Confidence, 51) {
		t.Fatalf("confidence = %v, want 51", r.Confidence)
	}
}

func TestRankScarcityAndExposureRisks(t *testing.T) {
	e := NewPatternRankingEngine(40, 15)

	gctx := emptyGameContext()
	gctx.ExposedTiles = map[string][]string{"opponent": {"5B", "5B"}}

	f := makeFacts("contested", 7, 25, DifficultyEasy)
	f.Availability = []TileAvailability{{TileID: "5B", Missing: 1, RemainingAvailable: 1}}

	ranked, err := e.Rank([]*PatternAnalysisFacts{f}, gctx, "")
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	kinds := map[RiskKind]bool{}
	for _, r := range ranked.Results[0].RiskFactors {
		kinds[r.Kind] = true
	}
	if !kinds[RiskExposedTiles] || !kinds[RiskScarceTiles] {
		t.Fatalf("expected exposure and scarcity risks, got %+v", ranked.Results[0].RiskFactors)
	}
}

func TestSwitchSuggestionThresholdIsStrict(t *testing.T) {
	// focal totals 51, better totals 82, gain exactly 31
	focal := makeFacts("focal", 7, 25, DifficultyEasy)
	better := makeFacts("better", 14, 25, DifficultyEasy)

	// gain 31 > 30: suggest
	e := NewPatternRankingEngine(40, 30)
	ranked, err := e.Rank([]*PatternAnalysisFacts{focal, better}, emptyGameContext(), "focal")
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	s := ranked.SwitchSuggestion
	if s == nil {
		t.Fatalf("expected a switch suggestion for gain 31 over threshold 30")
	}
	if s.FromPatternKey != "focal" || s.ToPatternKey != "better" {
		t.Fatalf("suggestion = %+v", s)
	}
	if !almostEqual(s.ScoreGain, 31) {
		t.Fatalf("gain = %v, want 31", s.ScoreGain)
	}
	if !almostEqual(s.ImprovementPct, 31.0/51.0*100) {
		t.Fatalf("improvement pct = %v", s.ImprovementPct)
	}

	// gain 31 == threshold 31: no suggestion
	e = NewPatternRankingEngine(40, 31)
	ranked, err = e.Rank([]*PatternAnalysisFacts{focal, better}, emptyGameContext(), "focal")
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if ranked.SwitchSuggestion != nil {
		t.Fatalf("gain equal to threshold must not trigger a switch: %+v", ranked.SwitchSuggestion)
	}
}

func TestSwitchSuggestionSkipsNonViableTargets(t *testing.T) {
	// Viability bar above both totals: no target qualifies.
	e := NewPatternRankingEngine(90, 15)

	focal := makeFacts("focal", 7, 25, DifficultyEasy)
	better := makeFacts("better", 14, 25, DifficultyEasy)
	ranked, err := e.Rank([]*PatternAnalysisFacts{focal, better}, emptyGameContext(), "focal")
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if ranked.SwitchSuggestion != nil {
		t.Fatalf("switch must only point at viable patterns: %+v", ranked.SwitchSuggestion)
	}
}

func TestSwitchSuggestionRequiresFocalPattern(t *testing.T) {
	e := NewPatternRankingEngine(40, 15)

	facts := []*PatternAnalysisFacts{
		makeFacts("focal", 7, 25, DifficultyEasy),
		makeFacts("better", 14, 25, DifficultyEasy),
	}
	ranked, err := e.Rank(facts, emptyGameContext(), "")
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if ranked.SwitchSuggestion != nil {
		t.Fatalf("no focal pattern, no suggestion: %+v", ranked.SwitchSuggestion)
	}
}
