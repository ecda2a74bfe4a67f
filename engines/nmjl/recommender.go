package nmjl

import (
	"fmt"
)

type Action int

const (
	ActionKeep Action = iota
	ActionPass
	ActionDiscard
	ActionNeutral
)

func (a Action) String() string {
	switch a {
	case ActionKeep:
		return "keep"
	case ActionPass:
		return "pass"
	case ActionDiscard:
		return "discard"
	default:
		return "neutral"
	}
}

// AlternativeAction 次优动作，供 UI 展示第二选择
type AlternativeAction struct {
	Action     Action  `json:"action"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// TileRecommendation 对一张实体手牌的动作建议
type TileRecommendation struct {
	TileInstanceID string              `json:"tile_instance_id"`
	TileID         string              `json:"tile_id"`
	Action         Action              `json:"action"`
	Confidence     float64             `json:"confidence"` // 0-100
	Priority       int                 `json:"priority"`   // 1-10
	Reasoning      string              `json:"reasoning"`
	Alternatives   []AlternativeAction `json:"alternatives"`
}

// TileRecommendationEngine 引擎三：排序后的牌型 + 手牌 → 逐牌动作建议
type TileRecommendationEngine struct{}

// NewTileRecommendationEngine 创建引擎三
func NewTileRecommendationEngine() *TileRecommendationEngine {
	return &TileRecommendationEngine{}
}

// tileStanding 一张牌型在可行牌型集合里的加权地位
type tileStanding struct {
	weight         float64 // 贡献到的可行牌型的分数之和
	contributes    int     // 贡献到的可行牌型数
	anywhere       int     // 贡献到的任意牌型数（含不可行）
	criticalTop    bool    // 是否顶级可行牌型的关键牌
	criticalAny    bool    // 是否任一可行牌型的关键牌
	topViableScore float64
}

// Recommend 为每张实体手牌给出动作建议与整体策略提示
func (e *TileRecommendationEngine) Recommend(hand []HandTile, ranked *RankedPatternResults, gctx *GameContext) ([]TileRecommendation, []string, error) {
	if gctx == nil {
		return nil, nil, ErrNilContext
	}
	if ranked == nil {
		ranked = &RankedPatternResults{}
	}

	viable := make([]*RankedPatternResult, 0, len(ranked.Results))
	for i := range ranked.Results {
		if ranked.Results[i].IsViable {
			viable = append(viable, &ranked.Results[i])
		}
	}

	jokersWelcome := false
	sumViableScores := 0.0
	for _, p := range viable {
		sumViableScores += p.TotalScore
		if p.Facts != nil && len(p.Facts.Jokers.SubstitutablePositions) > 0 {
			jokersWelcome = true
		}
	}

	recs := make([]TileRecommendation, 0, len(hand))
	for _, ht := range hand {
		recs = append(recs, e.recommendTile(ht, viable, ranked, sumViableScores, jokersWelcome, gctx))
	}

	advice := e.strategicAdvice(hand, viable, ranked, gctx)
	return recs, advice, nil
}

func (e *TileRecommendationEngine) recommendTile(ht HandTile, viable []*RankedPatternResult, ranked *RankedPatternResults, sumViableScores float64, jokersWelcome bool, gctx *GameContext) TileRecommendation {
	rec := TileRecommendation{
		TileInstanceID: ht.InstanceID,
		TileID:         ht.ID,
	}

	// 百搭：只要还有可行牌型的未满足组允许百搭，就必须留
	if ht.IsJoker() && jokersWelcome {
		rec.Action = ActionKeep
		rec.Confidence = 95
		rec.Priority = 9
		rec.Reasoning = "jokers stay flexible while any viable pattern still accepts them"
		rec.Alternatives = []AlternativeAction{{
			Action:     ActionNeutral,
			Confidence: 20,
			Reasoning:  "only if you abandon every joker-friendly pattern",
		}}
		return rec
	}

	// 没有任何可行牌型时全部中性，等待方向明朗
	if len(viable) == 0 {
		rec.Action = ActionNeutral
		rec.Confidence = 50
		rec.Priority = 3
		rec.Reasoning = "no viable pattern to anchor a decision yet"
		rec.Alternatives = []AlternativeAction{{
			Action:     passOrDiscard(gctx.Phase),
			Confidence: 35,
			Reasoning:  "reasonable if you want to reshape the hand aggressively",
		}}
		return rec
	}

	st := standingFor(ht.ID, viable, ranked)

	switch {
	case st.criticalTop:
		// 顶级可行牌型的关键牌无条件留下
		rec.Action = ActionKeep
		rec.Confidence = clampConfidence(86 + 10*st.share(sumViableScores))
		rec.Priority = clampPriority(8 + int(st.topViableScore/40))
		rec.Reasoning = "critical for the top-ranked pattern and cannot be replaced by a joker"
		rec.Alternatives = []AlternativeAction{{
			Action:     ActionNeutral,
			Confidence: 15,
			Reasoning:  "only if you switch away from the top pattern",
		}}

	case st.contributes == 0:
		// 对所有可行牌型都无贡献
		rec.Action = passOrDiscard(gctx.Phase)
		if st.anywhere == 0 {
			rec.Confidence = 90
			rec.Reasoning = "serves no candidate pattern at all"
		} else {
			rec.Confidence = 72
			rec.Reasoning = "only serves patterns that are no longer viable"
		}
		rec.Priority = 2
		rec.Alternatives = []AlternativeAction{{
			Action:     ActionNeutral,
			Confidence: 25,
			Reasoning:  "hold one turn if you expect the viable set to change",
		}}

	case st.criticalAny && st.share(sumViableScores) >= 0.5:
		rec.Action = ActionKeep
		rec.Confidence = clampConfidence(70 + 20*st.share(sumViableScores))
		rec.Priority = 6
		rec.Reasoning = "irreplaceable in most of the patterns still worth chasing"
		rec.Alternatives = []AlternativeAction{{
			Action:     ActionNeutral,
			Confidence: 30,
			Reasoning:  "defensible if you narrow down to a single pattern",
		}}

	default:
		// 非关键、可被百搭替换的中等贡献
		rec.Action = ActionNeutral
		if gctx.Phase == PhaseCharleston {
			rec.Action = ActionPass
		}
		rec.Confidence = clampConfidence(50 + 25*st.share(sumViableScores))
		rec.Priority = 4
		rec.Reasoning = "replaceable contribution; fine to trade for something better"
		rec.Alternatives = []AlternativeAction{{
			Action:     ActionKeep,
			Confidence: 40,
			Reasoning:  "keep while the contributing patterns stay in contention",
		}}
	}

	return rec
}

// standingFor 聚合某牌型在各牌型里的贡献，按牌型分数加权
func standingFor(tileID string, viable []*RankedPatternResult, ranked *RankedPatternResults) tileStanding {
	var st tileStanding
	if len(viable) > 0 {
		st.topViableScore = viable[0].TotalScore
	}

	for i, p := range viable {
		contrib := contributionIn(p.Facts, tileID)
		if contrib == nil {
			continue
		}
		st.weight += p.TotalScore
		st.contributes++
		if contrib.IsCritical {
			st.criticalAny = true
			if i == 0 {
				st.criticalTop = true
			}
		}
	}

	for i := range ranked.Results {
		if contributionIn(ranked.Results[i].Facts, tileID) != nil {
			st.anywhere++
		}
	}
	return st
}

func contributionIn(f *PatternAnalysisFacts, tileID string) *TileContribution {
	if f == nil {
		return nil
	}
	for i := range f.Best.Contributions {
		if f.Best.Contributions[i].TileID == tileID {
			return &f.Best.Contributions[i]
		}
	}
	return nil
}

func (st tileStanding) share(sumViableScores float64) float64 {
	if sumViableScores <= 0 {
		return 0
	}
	return st.weight / sumViableScores
}

func passOrDiscard(phase Phase) Action {
	if phase == PhaseCharleston {
		return ActionPass
	}
	return ActionDiscard
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}

func clampPriority(p int) int {
	if p < 1 {
		return 1
	}
	if p > 10 {
		return 10
	}
	return p
}

// strategicAdvice 面向整手牌的、按阶段措辞的策略提示
func (e *TileRecommendationEngine) strategicAdvice(hand []HandTile, viable []*RankedPatternResult, ranked *RankedPatternResults, gctx *GameContext) []string {
	var advice []string

	if len(hand) != 13 && len(hand) != 14 {
		advice = append(advice, fmt.Sprintf(
			"hand has %d tiles (expected 13 or 14); recommendations may shift once the hand settles", len(hand)))
	}

	switch {
	case len(ranked.Results) == 0:
		advice = append(advice, "no target patterns selected; pick a card section to focus the analysis")
	case len(viable) == 0:
		if gctx.Phase == PhaseCharleston {
			advice = append(advice, "no viable pattern yet; use the charleston to reshape toward a fresh section")
		} else {
			advice = append(advice, "no viable pattern remains; play defensively and avoid feeding exposed sets")
		}
	default:
		top := viable[0]
		if len(top.RiskFactors) > 0 {
			dominant := top.RiskFactors[0]
			for _, r := range top.RiskFactors[1:] {
				if r.Discount > dominant.Discount {
					dominant = r
				}
			}
			advice = append(advice, fmt.Sprintf("watch the %s risk on %s: %s",
				dominant.Kind, top.PatternKey, dominant.Message))
		}
		if gctx.Phase == PhaseCharleston {
			advice = append(advice, "pass tiles that serve none of your ranked patterns; never pass jokers")
		}
	}

	if ranked.SwitchSuggestion != nil {
		advice = append(advice, ranked.SwitchSuggestion.Reason)
	}
	return advice
}
