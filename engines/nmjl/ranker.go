package nmjl

import (
	"fmt"
	"sort"
)

type Recommendation int

const (
	RecImpossible Recommendation = iota
	RecPoor
	RecFair
	RecGood
	RecExcellent
)

func (r Recommendation) String() string {
	switch r {
	case RecExcellent:
		return "excellent"
	case RecGood:
		return "good"
	case RecFair:
		return "fair"
	case RecPoor:
		return "poor"
	default:
		return "impossible"
	}
}

type RiskKind int

const (
	RiskWallDepletion RiskKind = iota // 牌墙见底
	RiskExposedTiles                  // 所缺牌集中在对手副露里
	RiskScarceTiles                   // 所缺牌仅剩零星几张
)

func (k RiskKind) String() string {
	switch k {
	case RiskWallDepletion:
		return "wall_depletion"
	case RiskExposedTiles:
		return "exposed_tiles"
	case RiskScarceTiles:
		return "scarce_tiles"
	default:
		return "unknown"
	}
}

// RiskFactor 一条风险因素，Discount 为置信度乘法折减（0-1）
type RiskFactor struct {
	Kind     RiskKind `json:"kind"`
	Message  string   `json:"message"`
	Discount float64  `json:"discount"`
}

// ComponentScores 四个独立封顶的评分分量
type ComponentScores struct {
	CurrentTileScore  float64 `json:"current_tile_score"` // 0-32
	AvailabilityScore float64 `json:"availability_score"` // 0-28
	JokerScore        float64 `json:"joker_score"`        // 0-15
	PriorityScore     float64 `json:"priority_score"`     // 0-10
}

// RankedPatternResult 引擎二对单个牌型的评定
type RankedPatternResult struct {
	PatternKey     string          `json:"pattern_key"`
	Points         int             `json:"points"`
	TotalScore     float64         `json:"total_score"`
	Confidence     float64         `json:"confidence"` // 0-100
	Recommendation Recommendation  `json:"recommendation"`
	Components     ComponentScores `json:"components"`
	RiskFactors    []RiskFactor    `json:"risk_factors"`
	IsViable       bool            `json:"is_viable"`
	IsPrimary      bool            `json:"is_primary"`

	// 引擎三需要回看原始事实，不对外序列化
	Facts *PatternAnalysisFacts `json:"-"`
}

// SwitchSuggestion 换牌型建议
type SwitchSuggestion struct {
	FromPatternKey string  `json:"from_pattern_key"`
	ToPatternKey   string  `json:"to_pattern_key"`
	ScoreGain      float64 `json:"score_gain"`
	ImprovementPct float64 `json:"improvement_pct"`
	Reason         string  `json:"reason"`
}

// RankedPatternResults 引擎二的整体输出，Results 已按分数降序
type RankedPatternResults struct {
	Results          []RankedPatternResult `json:"results"`
	SwitchSuggestion *SwitchSuggestion     `json:"switch_suggestion,omitempty"`
}

// 分量上限与推荐档位阈值
const (
	maxCurrentTileScore  = 32.0
	maxAvailabilityScore = 28.0
	maxJokerScore        = 15.0
	maxPriorityScore     = 10.0
	maxTotalScore        = maxCurrentTileScore + maxAvailabilityScore + maxJokerScore + maxPriorityScore

	scoreExcellent = 80.0
	scoreGood      = 60.0
	scoreFair      = 40.0
	scorePoor      = 20.0
)

// PatternRankingEngine 引擎二：原始事实 + 牌局因素 → 排序后的牌型评定
type PatternRankingEngine struct {
	viabilityThreshold   float64
	improvementThreshold float64
}

// NewPatternRankingEngine 创建引擎二
// viabilityThreshold<=0 时取 40，improvementThreshold<=0 时取 15
func NewPatternRankingEngine(viabilityThreshold, improvementThreshold float64) *PatternRankingEngine {
	if viabilityThreshold <= 0 {
		viabilityThreshold = 40
	}
	if improvementThreshold <= 0 {
		improvementThreshold = 15
	}
	return &PatternRankingEngine{
		viabilityThreshold:   viabilityThreshold,
		improvementThreshold: improvementThreshold,
	}
}

// Rank 评定并排序全部候选牌型
// focalKey 为玩家当前锁定的牌型，空串表示未锁定（不产生换型建议）
func (e *PatternRankingEngine) Rank(facts []*PatternAnalysisFacts, gctx *GameContext, focalKey string) (*RankedPatternResults, error) {
	if gctx == nil {
		return nil, ErrNilContext
	}

	seen := make(map[string]bool, len(facts))
	results := make([]RankedPatternResult, 0, len(facts))
	for _, f := range facts {
		if seen[f.PatternKey] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePattern, f.PatternKey)
		}
		seen[f.PatternKey] = true
		results = append(results, e.scorePattern(f, gctx))
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].TotalScore != results[j].TotalScore {
			return results[i].TotalScore > results[j].TotalScore
		}
		if results[i].Confidence != results[j].Confidence {
			return results[i].Confidence > results[j].Confidence
		}
		return results[i].Points > results[j].Points
	})
	if len(results) > 0 {
		results[0].IsPrimary = true
	}

	out := &RankedPatternResults{Results: results}
	out.SwitchSuggestion = e.suggestSwitch(results, focalKey)
	return out, nil
}

// scorePattern 单个牌型的加权评分
func (e *PatternRankingEngine) scorePattern(f *PatternAnalysisFacts, gctx *GameContext) RankedPatternResult {
	tilesNeeded := HandSize - f.Best.TilesMatched

	components := ComponentScores{
		CurrentTileScore:  maxCurrentTileScore * f.Best.CompletionRatio,
		AvailabilityScore: availabilityScore(f.Availability),
		JokerScore:        jokerScore(f, tilesNeeded),
		PriorityScore:     priorityScore(f.Pattern),
	}
	total := components.CurrentTileScore + components.AvailabilityScore +
		components.JokerScore + components.PriorityScore

	impossible := isImpossible(f, tilesNeeded)
	risks := detectRisks(f, gctx, tilesNeeded)

	confidence := total / maxTotalScore * 100
	for _, r := range risks {
		confidence *= 1 - r.Discount
	}
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 100 {
		confidence = 100
	}
	if impossible {
		confidence = 0
	}

	result := RankedPatternResult{
		PatternKey:     f.PatternKey,
		Points:         f.Pattern.Points,
		TotalScore:     total,
		Confidence:     confidence,
		Recommendation: bucket(total, impossible),
		Components:     components,
		RiskFactors:    risks,
		IsViable:       !impossible && total > e.viabilityThreshold,
		Facts:          f,
	}
	return result
}

// availabilityScore 所缺牌的平均剩余比例，缺牌越稀评分越低
func availabilityScore(availability []TileAvailability) float64 {
	if len(availability) == 0 {
		return maxAvailabilityScore
	}

	weighted := 0.0
	totalMissing := 0
	for _, a := range availability {
		ratio := float64(a.RemainingAvailable) / float64(copiesPerTile)
		if ratio > 1 {
			ratio = 1
		}
		weighted += ratio * float64(a.Missing)
		totalMissing += a.Missing
	}
	if totalMissing == 0 {
		return maxAvailabilityScore
	}
	return maxAvailabilityScore * weighted / float64(totalMissing)
}

// jokerScore 百搭覆盖度，所缺组全部禁用百搭时为 0
func jokerScore(f *PatternAnalysisFacts, tilesNeeded int) float64 {
	if tilesNeeded <= 0 {
		return maxJokerScore
	}
	if len(f.Jokers.SubstitutablePositions) == 0 {
		return 0
	}
	score := maxJokerScore * (1 - float64(f.Jokers.JokersToComplete)/float64(tilesNeeded))
	if score < 0 {
		return 0
	}
	if score > maxJokerScore {
		return maxJokerScore
	}
	return score
}

// priorityScore 卡面分值与难度折算的静态加分
func priorityScore(def *PatternDefinition) float64 {
	score := float64(def.Points) * 0.2
	if score > 8 {
		score = 8
	}
	switch def.Difficulty {
	case DifficultyEasy:
		score += 2
	case DifficultyMedium:
		score += 1
	}
	if score > maxPriorityScore {
		score = maxPriorityScore
	}
	if score < 0 {
		score = 0
	}
	return score
}

// isImpossible 所有还缺的牌都已被拿光、且百搭也救不回来时判死刑
// 救得回来的唯一出路是某个空缺位置允许百搭且百搭数量够补
func isImpossible(f *PatternAnalysisFacts, tilesNeeded int) bool {
	if tilesNeeded <= 0 || len(f.Availability) == 0 {
		return false
	}
	for _, a := range f.Availability {
		if a.RemainingAvailable > 0 {
			return false
		}
	}
	if len(f.Jokers.SubstitutablePositions) == 0 {
		// 手里就算攥着百搭也放不进去
		return true
	}
	return f.Jokers.JokersToComplete > 0
}

// detectRisks 风险因素，每条都会对置信度做乘法折减
func detectRisks(f *PatternAnalysisFacts, gctx *GameContext, tilesNeeded int) []RiskFactor {
	var risks []RiskFactor

	if tilesNeeded > 0 && gctx.WallTilesRemaining < 20 {
		risks = append(risks, RiskFactor{
			Kind:     RiskWallDepletion,
			Message:  fmt.Sprintf("only %d tiles left in the wall", gctx.WallTilesRemaining),
			Discount: 0.15,
		})
	}

	exposed := 0
	scarce := 0
	for _, a := range f.Availability {
		if gctx.exposedCount(a.TileID) >= 2 {
			exposed++
		}
		if a.RemainingAvailable <= 1 {
			scarce++
		}
	}
	if exposed > 0 {
		risks = append(risks, RiskFactor{
			Kind:     RiskExposedTiles,
			Message:  fmt.Sprintf("%d needed tile types concentrated in opponents' exposed sets", exposed),
			Discount: 0.10,
		})
	}
	if scarce > 0 {
		risks = append(risks, RiskFactor{
			Kind:     RiskScarceTiles,
			Message:  fmt.Sprintf("%d needed tile types have at most one copy left", scarce),
			Discount: 0.10,
		})
	}
	return risks
}

func bucket(total float64, impossible bool) Recommendation {
	if impossible {
		return RecImpossible
	}
	switch {
	case total >= scoreExcellent:
		return RecExcellent
	case total >= scoreGood:
		return RecGood
	case total >= scoreFair:
		return RecFair
	case total >= scorePoor:
		return RecPoor
	default:
		return RecImpossible
	}
}

// suggestSwitch 当前锁定牌型明显落后时给出换型建议
// 只会指向可行（IsViable）的替代牌型
func (e *PatternRankingEngine) suggestSwitch(results []RankedPatternResult, focalKey string) *SwitchSuggestion {
	if focalKey == "" || len(results) == 0 {
		return nil
	}

	var focal *RankedPatternResult
	for i := range results {
		if results[i].PatternKey == focalKey {
			focal = &results[i]
			break
		}
	}
	if focal == nil {
		return nil
	}

	for i := range results {
		alt := &results[i]
		if alt.PatternKey == focalKey || !alt.IsViable {
			continue
		}
		gain := alt.TotalScore - focal.TotalScore
		if gain <= e.improvementThreshold {
			// 结果已降序，后面的只会更差
			break
		}
		base := focal.TotalScore
		if base < 1 {
			base = 1
		}
		return &SwitchSuggestion{
			FromPatternKey: focalKey,
			ToPatternKey:   alt.PatternKey,
			ScoreGain:      gain,
			ImprovementPct: gain / base * 100,
			Reason: fmt.Sprintf("pattern %s scores %.1f points higher than %s",
				alt.PatternKey, gain, focalKey),
		}
	}
	return nil
}
