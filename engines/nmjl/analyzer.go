package nmjl

import (
	"sort"
	"strings"

	"github.com/thetrev68/american-mahjong-assistant-sub007/common/cache"
)

// TileContribution 某张牌型在一个变体中的贡献
type TileContribution struct {
	TileID               string `json:"tile_id"`
	Positions            []int  `json:"positions"`
	IsRequired           bool   `json:"is_required"`
	IsCritical           bool   `json:"is_critical"`
	CanBeReplacedByJoker bool   `json:"can_be_replaced_by_joker"`
}

// VariationMatch 手牌对一个变体的匹配结果
type VariationMatch struct {
	PatternKey      string             `json:"pattern_key"`
	VariationIndex  int                `json:"variation_index"` // 变体在牌型内的下标，无变体时为 -1
	TilesMatched    int                `json:"tiles_matched"`
	JokersUsed      int                `json:"jokers_used"`
	CompletionRatio float64            `json:"completion_ratio"`
	MissingTiles    []string           `json:"missing_tiles"` // 按变体位置升序，含重复
	Contributions   []TileContribution `json:"contributions"`

	// 百搭填充后仍空缺、且允许百搭的位置
	openJokerPositions []int
}

// JokerSummary 百搭替换潜力
type JokerSummary struct {
	JokersAvailable        int     `json:"jokers_available"`
	SubstitutablePositions []int   `json:"substitutable_positions"`
	MaxJokersUseful        int     `json:"max_jokers_useful"`
	JokersToComplete       int     `json:"jokers_to_complete"`
	WithJokersCompletion   float64 `json:"with_jokers_completion"`
}

// TileAvailability 某种所缺牌型的剩余可得张数
type TileAvailability struct {
	TileID             string `json:"tile_id"`
	Missing            int    `json:"missing"`
	RemainingAvailable int    `json:"remaining_available"`
}

// ProgressMetrics 手牌自身的成形度
type ProgressMetrics struct {
	PairsFormed int `json:"pairs_formed"`
	SetsFormed  int `json:"sets_formed"`
	LongestRun  int `json:"longest_run"`
}

// PatternAnalysisFacts 引擎一对单个牌型的全部原始事实
type PatternAnalysisFacts struct {
	PatternKey   string             `json:"pattern_key"`
	Pattern      *PatternDefinition `json:"pattern"`
	Best         VariationMatch     `json:"best"`
	Worst        VariationMatch     `json:"worst"`
	Jokers       JokerSummary       `json:"jokers"`
	Availability []TileAvailability `json:"availability"`
	Progress     ProgressMetrics    `json:"progress"`
}

// VariationTieBreak 两个并列匹配数的变体如何取舍，返回 true 表示 a 优先
// 默认取变体下标较小者，保证确定性
type VariationTieBreak func(a, b *VariationMatch) bool

func defaultTieBreak(a, b *VariationMatch) bool {
	return a.VariationIndex < b.VariationIndex
}

// PatternAnalysisEngine 引擎一：手牌 × 牌型 → 原始匹配事实
// 纯函数式，仅依赖目录；备忘缓存只是重算加速，不影响结果
type PatternAnalysisEngine struct {
	catalog  *VariationCatalog
	memo     *cache.GeneralCache
	tieBreak VariationTieBreak
}

// AnalyzerOption 引擎一配置选项
type AnalyzerOption func(*PatternAnalysisEngine)

// WithTieBreak 覆盖变体平局裁决规则
func WithTieBreak(tb VariationTieBreak) AnalyzerOption {
	return func(e *PatternAnalysisEngine) {
		if tb != nil {
			e.tieBreak = tb
		}
	}
}

// WithMatchMemo 启用变体匹配备忘缓存
func WithMatchMemo(memo *cache.GeneralCache) AnalyzerOption {
	return func(e *PatternAnalysisEngine) {
		e.memo = memo
	}
}

// NewPatternAnalysisEngine 创建引擎一
func NewPatternAnalysisEngine(catalog *VariationCatalog, opts ...AnalyzerOption) *PatternAnalysisEngine {
	e := &PatternAnalysisEngine{
		catalog:  catalog,
		tieBreak: defaultTieBreak,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// HandSignature 手牌牌型多重集的稳定签名
func HandSignature(hand []HandTile) string {
	ids := make([]string, 0, len(hand))
	for _, ht := range hand {
		ids = append(ids, ht.ID)
	}
	sort.Strings(ids)
	return strings.Join(ids, ",")
}

// Analyze 对单个牌型做完整匹配分析
// 零变体的牌型返回 TilesMatched=0 的事实对象而不是错误
func (e *PatternAnalysisEngine) Analyze(hand []HandTile, pattern *PatternDefinition, gctx *GameContext) (*PatternAnalysisFacts, error) {
	if gctx == nil {
		return nil, ErrNilContext
	}

	variations, err := e.catalog.VariationsFor(pattern.PatternKey)
	if err != nil {
		return nil, err
	}

	counts, jokersAvailable := handCounts(hand)
	sig := HandSignature(hand)

	facts := &PatternAnalysisFacts{
		PatternKey: pattern.PatternKey,
		Pattern:    pattern,
		Progress:   measureProgress(counts),
	}

	if len(variations) == 0 {
		none := VariationMatch{PatternKey: pattern.PatternKey, VariationIndex: -1}
		facts.Best = none
		facts.Worst = none
		facts.Jokers = summarizeJokers(&none, jokersAvailable)
		return facts, nil
	}

	var best, worst *VariationMatch
	for i, v := range variations {
		m := e.matchVariation(sig, counts, jokersAvailable, v, i)
		if best == nil || m.TilesMatched > best.TilesMatched ||
			(m.TilesMatched == best.TilesMatched && e.tieBreak(m, best)) {
			best = m
		}
		if worst == nil || m.TilesMatched < worst.TilesMatched ||
			(m.TilesMatched == worst.TilesMatched && e.tieBreak(m, worst)) {
			worst = m
		}
	}

	facts.Best = *best
	facts.Worst = *worst
	facts.Jokers = summarizeJokers(best, jokersAvailable)
	facts.Availability = measureAvailability(best.MissingTiles, counts, jokersAvailable, gctx)
	return facts, nil
}

// matchVariation 多重集匹配：先按牌型精确匹配，再把百搭按位置升序
// 填进允许百搭的空位，两步都是确定性的
func (e *PatternAnalysisEngine) matchVariation(handSig string, counts map[string]int, jokersAvailable int, v *PatternVariation, index int) *VariationMatch {
	memoKey := handSig + "|" + v.key()
	if e.memo != nil {
		if cached, ok := e.memo.Get(memoKey); ok {
			if m, ok := cached.(*VariationMatch); ok {
				return m
			}
		}
	}

	remaining := make(map[string]int, len(counts))
	for id, n := range counts {
		remaining[id] = n
	}

	filledBy := make([]string, len(v.Tiles)) // "" 表示空缺
	matchedByType := 0

	// 精确匹配：多重集的逐位置贪心等价于逐牌型取 min，且位置序稳定
	for pos, id := range v.Tiles {
		if remaining[id] > 0 {
			remaining[id]--
			filledBy[pos] = id
			matchedByType++
		}
	}

	// 百搭填充空缺，位置升序
	jokersUsed := 0
	for pos := range v.Tiles {
		if filledBy[pos] != "" || !v.JokerFlags[pos] {
			continue
		}
		if jokersUsed >= jokersAvailable {
			continue
		}
		filledBy[pos] = JokerID
		jokersUsed++
	}

	m := &VariationMatch{
		PatternKey:     v.PatternKey,
		VariationIndex: index,
		TilesMatched:   matchedByType + jokersUsed,
	}
	m.CompletionRatio = float64(m.TilesMatched) / float64(HandSize)
	m.JokersUsed = jokersUsed

	// 贡献、缺牌与剩余可百搭位都从 filledBy 推出
	contribPositions := make(map[string][]int)
	for pos, id := range v.Tiles {
		switch filledBy[pos] {
		case "":
			m.MissingTiles = append(m.MissingTiles, id)
			if v.JokerFlags[pos] {
				m.openJokerPositions = append(m.openJokerPositions, pos)
			}
		case JokerID:
			contribPositions[JokerID] = append(contribPositions[JokerID], pos)
		default:
			contribPositions[id] = append(contribPositions[id], pos)
		}
	}

	ids := make([]string, 0, len(contribPositions))
	for id := range contribPositions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return contribPositions[ids[i]][0] < contribPositions[ids[j]][0]
	})
	for _, id := range ids {
		positions := contribPositions[id]
		replaceable := true
		for _, pos := range positions {
			if !v.JokerFlags[pos] {
				replaceable = false
				break
			}
		}
		m.Contributions = append(m.Contributions, TileContribution{
			TileID:               id,
			Positions:            positions,
			IsRequired:           true,
			IsCritical:           !replaceable && id != JokerID,
			CanBeReplacedByJoker: replaceable,
		})
	}

	if e.memo != nil {
		e.memo.Set(memoKey, m)
	}
	return m
}

// summarizeJokers 基于最优变体计算百搭潜力
func summarizeJokers(best *VariationMatch, jokersAvailable int) JokerSummary {
	tilesNeeded := HandSize - best.TilesMatched

	s := JokerSummary{
		JokersAvailable:        jokersAvailable,
		SubstitutablePositions: best.openJokerPositions,
		MaxJokersUseful:        len(best.openJokerPositions),
	}
	s.JokersToComplete = tilesNeeded - jokersAvailable
	if s.JokersToComplete < 0 {
		s.JokersToComplete = 0
	}

	fill := jokersAvailable
	if fill > tilesNeeded {
		fill = tilesNeeded
	}
	s.WithJokersCompletion = float64(best.TilesMatched+fill) / float64(HandSize)
	if s.WithJokersCompletion > 1 {
		s.WithJokersCompletion = 1
	}
	return s
}

// measureAvailability 每种所缺牌型的剩余可得张数
// 总张数 − 自己手里的 − 弃牌堆的 − 对手副露的，下限为 0
func measureAvailability(missing []string, counts map[string]int, jokersInHand int, gctx *GameContext) []TileAvailability {
	need := make(map[string]int)
	for _, id := range missing {
		need[id]++
	}

	ids := make([]string, 0, len(need))
	for id := range need {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]TileAvailability, 0, len(ids))
	for _, id := range ids {
		inHand := counts[id]
		if id == JokerID {
			inHand = jokersInHand
		}
		remaining := TotalCopies(id) - inHand - gctx.visibleCount(id)
		if remaining < 0 {
			remaining = 0
		}
		out = append(out, TileAvailability{
			TileID:             id,
			Missing:            need[id],
			RemainingAvailable: remaining,
		})
	}
	return out
}

// measureProgress 手牌自身的对子/刻子与最长连张
func measureProgress(counts map[string]int) ProgressMetrics {
	var p ProgressMetrics
	for _, n := range counts {
		if n >= 2 {
			p.PairsFormed++
		}
		if n >= 3 {
			p.SetsFormed++
		}
	}

	for _, letter := range []byte{'B', 'C', 'D'} {
		run := 0
		for v := 1; v <= 9; v++ {
			id := string([]byte{byte('0' + v), letter})
			if counts[id] > 0 {
				run++
				if run > p.LongestRun {
					p.LongestRun = run
				}
			} else {
				run = 0
			}
		}
	}
	return p
}
