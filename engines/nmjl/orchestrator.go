package nmjl

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/thetrev68/american-mahjong-assistant-sub007/common/log"
)

// HandAnalysis 一次完整分析的聚合结果，返回后不可变
type HandAnalysis struct {
	OverallScore        float64                 `json:"overall_score"`
	RecommendedPatterns []RankedPatternResult   `json:"recommended_patterns"`
	SwitchSuggestion    *SwitchSuggestion       `json:"switch_suggestion,omitempty"`
	TileRecommendations []TileRecommendation    `json:"tile_recommendations"`
	StrategicAdvice     []string                `json:"strategic_advice"`
	Engine1Facts        []*PatternAnalysisFacts `json:"engine1_facts"`
	LastUpdated         time.Time               `json:"last_updated"`
}

// OrchestratorStats 编排器运行统计，供测试与健康检查使用
type OrchestratorStats struct {
	CacheHits       uint64 `json:"cache_hits"`
	CacheMisses     uint64 `json:"cache_misses"`
	PatternFailures uint64 `json:"pattern_failures"`
	CacheEntries    int    `json:"cache_entries"`
}

type analyzeOptions struct {
	focalPatternKey string
}

// AnalyzeOption 单次分析的可选项
type AnalyzeOption func(*analyzeOptions)

// WithFocalPattern 声明玩家当前锁定的牌型，用于换型建议
func WithFocalPattern(patternKey string) AnalyzeOption {
	return func(o *analyzeOptions) {
		o.focalPatternKey = patternKey
	}
}

// AnalysisOrchestrator 把引擎一/二/三串成一次调用
// 唯一的可变状态是结果缓存；手牌变更会让在途的旧手牌计算结果不再入缓存
type AnalysisOrchestrator struct {
	catalog     *VariationCatalog
	analyzer    *PatternAnalysisEngine
	ranker      *PatternRankingEngine
	recommender *TileRecommendationEngine

	cache *resultCache
	group singleflight.Group

	mu          sync.Mutex
	lastHandSig string
	handGen     uint64

	hits     atomic.Uint64
	misses   atomic.Uint64
	failures atomic.Uint64
}

// NewAnalysisOrchestrator 创建编排器
// ttl<=0 与 maxEntries<=0 时分别取默认的 5 分钟与 50 条
func NewAnalysisOrchestrator(catalog *VariationCatalog, analyzer *PatternAnalysisEngine, ranker *PatternRankingEngine, recommender *TileRecommendationEngine, ttl time.Duration, maxEntries int) *AnalysisOrchestrator {
	return &AnalysisOrchestrator{
		catalog:     catalog,
		analyzer:    analyzer,
		ranker:      ranker,
		recommender: recommender,
		cache:       newResultCache(ttl, maxEntries),
	}
}

// AnalyzeHand 分析一手牌
// 目录仍在加载时阻塞等待；命中缓存直接返回（不触碰 LastUpdated）；
// 同键并发调用共享同一次计算
func (o *AnalysisOrchestrator) AnalyzeHand(ctx context.Context, hand []HandTile, patterns []*PatternDefinition, gctx *GameContext, opts ...AnalyzeOption) (*HandAnalysis, error) {
	if gctx == nil {
		return nil, ErrNilContext
	}
	if err := o.catalog.AwaitLoaded(ctx); err != nil {
		return nil, err
	}

	var options analyzeOptions
	for _, opt := range opts {
		opt(&options)
	}

	sig := HandSignature(hand)
	gen := o.observeHand(sig)
	key := cacheKey(sig, patterns, gctx, options.focalPatternKey)

	if analysis, ok := o.cache.get(key); ok {
		o.hits.Add(1)
		return analysis, nil
	}
	o.misses.Add(1)

	v, err, _ := o.group.Do(key, func() (any, error) {
		analysis, computeErr := o.compute(hand, patterns, gctx, options.focalPatternKey)
		if computeErr == nil && o.currentGen() == gen {
			o.cache.store(key, analysis)
		}
		return analysis, computeErr
	})

	analysis, _ := v.(*HandAnalysis)
	return analysis, err
}

// Stats 当前运行统计
func (o *AnalysisOrchestrator) Stats() OrchestratorStats {
	return OrchestratorStats{
		CacheHits:       o.hits.Load(),
		CacheMisses:     o.misses.Load(),
		PatternFailures: o.failures.Load(),
		CacheEntries:    o.cache.len(),
	}
}

// PurgeCache 清空结果缓存
func (o *AnalysisOrchestrator) PurgeCache() {
	o.cache.purge()
}

// compute 执行三段管线
// 引擎一按牌型隔离失败；引擎二/三失败时仍返回尽力而为的部分结果
func (o *AnalysisOrchestrator) compute(hand []HandTile, patterns []*PatternDefinition, gctx *GameContext, focalKey string) (*HandAnalysis, error) {
	analysis := &HandAnalysis{
		RecommendedPatterns: []RankedPatternResult{},
		TileRecommendations: []TileRecommendation{},
		StrategicAdvice:     []string{},
		Engine1Facts:        []*PatternAnalysisFacts{},
		LastUpdated:         time.Now(),
	}

	if len(hand) != 13 && len(hand) != 14 {
		log.Warn("analyzing irregular hand of %d tiles", len(hand))
	}

	for _, def := range patterns {
		facts, err := o.safeAnalyze(hand, def, gctx)
		if err != nil {
			o.failures.Add(1)
			log.Error("pattern %s analysis failed, skipped: %v", def.PatternKey, err)
			continue
		}
		analysis.Engine1Facts = append(analysis.Engine1Facts, facts)
	}

	ranked, err := o.ranker.Rank(analysis.Engine1Facts, gctx, focalKey)
	if err != nil {
		log.Error("pattern ranking failed: %v", err)
		return analysis, err
	}
	analysis.RecommendedPatterns = ranked.Results
	analysis.SwitchSuggestion = ranked.SwitchSuggestion
	if len(ranked.Results) > 0 {
		analysis.OverallScore = ranked.Results[0].TotalScore
	}

	recs, advice, err := o.recommender.Recommend(hand, ranked, gctx)
	if err != nil {
		log.Error("tile recommendation failed: %v", err)
		return analysis, err
	}
	analysis.TileRecommendations = recs
	analysis.StrategicAdvice = advice
	return analysis, nil
}

// safeAnalyze 引擎一的单牌型调用，panic 转为错误，不拖垮整批
func (o *AnalysisOrchestrator) safeAnalyze(hand []HandTile, def *PatternDefinition, gctx *GameContext) (facts *PatternAnalysisFacts, err error) {
	defer func() {
		if r := recover(); r != nil {
			facts = nil
			err = fmt.Errorf("%w: pattern %s: %v", ErrEngineFailure, def.PatternKey, r)
		}
	}()
	return o.analyzer.Analyze(hand, def, gctx)
}

func (o *AnalysisOrchestrator) observeHand(sig string) uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	if sig != o.lastHandSig {
		o.lastHandSig = sig
		o.handGen++
	}
	return o.handGen
}

func (o *AnalysisOrchestrator) currentGen() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.handGen
}

// cacheKey 手牌多重集 + 牌型键列表 + 相关上下文字段的稳定哈希
func cacheKey(handSig string, patterns []*PatternDefinition, gctx *GameContext, focalKey string) string {
	keys := make([]string, 0, len(patterns))
	for _, def := range patterns {
		keys = append(keys, def.PatternKey)
	}
	sort.Strings(keys)

	discards := append([]string(nil), gctx.DiscardPile...)
	sort.Strings(discards)

	var exposed []string
	for _, tiles := range gctx.ExposedTiles {
		exposed = append(exposed, tiles...)
	}
	sort.Strings(exposed)

	h := fnv.New64a()
	write := func(parts ...string) {
		for _, p := range parts {
			h.Write([]byte(p))
			h.Write([]byte{0})
		}
	}
	write(handSig)
	write(keys...)
	write(strconv.Itoa(gctx.WallTilesRemaining), gctx.Phase.String(), focalKey)
	write(discards...)
	write(exposed...)
	return strconv.FormatUint(h.Sum64(), 16)
}
