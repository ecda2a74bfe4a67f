package nmjl

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/thetrev68/american-mahjong-assistant-sub007/common/log"
)

// completeHand 预计算数据集中的一条记录（excel 转换管线的落盘格式）
type completeHand struct {
	Year       int      `json:"year"`
	Section    string   `json:"section"`
	Line       int      `json:"line"`
	PatternID  int      `json:"pattern_id"`
	HandKey    string   `json:"hand_key"`
	Pattern    string   `json:"hand_pattern"`
	Criteria   string   `json:"hand_criteria"`
	Points     int      `json:"hand_points"`
	Concealed  bool     `json:"hand_conceiled"`
	Difficulty string   `json:"hand_difficulty"`
	Sequence   int      `json:"sequence"`
	Tiles      []string `json:"tiles"`
	Jokers     []bool   `json:"jokers"`
}

type completeHandsFile struct {
	Hands []completeHand `json:"hands"`
}

// CatalogStatistics 目录统计信息
type CatalogStatistics struct {
	TotalVariations  int            `json:"total_variations"`
	UniquePatterns   int            `json:"unique_patterns"`
	UniqueSections   int            `json:"unique_sections"`
	PerPatternCounts map[string]int `json:"per_pattern_counts"`
	PerSectionCounts map[string]int `json:"per_section_counts"`
}

// VariationCatalog 所有牌型变体的只读索引
// Load 显式触发、幂等，成功后重复调用为空操作；
// 加载完成前的查询一律返回 ErrCatalogNotLoaded，不会给出部分数据
type VariationCatalog struct {
	path string

	mu      sync.Mutex
	loaded  atomic.Bool
	started bool
	done    chan struct{}
	loadErr error

	byPattern    map[string][]*PatternVariation
	bySection    map[string][]*PatternVariation
	defs         map[string]*PatternDefinition
	patternOrder []string
}

// NewVariationCatalog 创建目录，path 指向 complete hands JSON 文件
func NewVariationCatalog(path string) *VariationCatalog {
	return &VariationCatalog{path: path}
}

// Load 加载数据集
// 首个调用者执行加载，并发调用者等待同一结果；失败后允许重试
func (c *VariationCatalog) Load(ctx context.Context) error {
	if c.loaded.Load() {
		return nil
	}

	c.mu.Lock()
	if c.loaded.Load() {
		c.mu.Unlock()
		return nil
	}
	if c.started {
		done := c.done
		c.mu.Unlock()
		select {
		case <-done:
			c.mu.Lock()
			err := c.loadErr
			c.mu.Unlock()
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	c.started = true
	c.done = make(chan struct{})
	done := c.done
	c.mu.Unlock()

	err := c.doLoad(ctx)

	c.mu.Lock()
	c.loadErr = err
	if err == nil {
		c.loaded.Store(true)
	} else {
		// 允许下一次 Load 重试
		c.started = false
	}
	close(done)
	c.mu.Unlock()
	return err
}

// doLoad 读取并索引数据集，任何畸形变体都会使整次加载失败
func (c *VariationCatalog) doLoad(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("read pattern dataset: %w", err)
	}

	var file completeHandsFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("%w: %v", ErrPatternDataMalformed, err)
	}
	if len(file.Hands) == 0 {
		return fmt.Errorf("%w: dataset has no hands", ErrPatternDataMalformed)
	}

	byPattern := make(map[string][]*PatternVariation)
	bySection := make(map[string][]*PatternVariation)
	defs := make(map[string]*PatternDefinition)

	for i := range file.Hands {
		h := &file.Hands[i]
		v := &PatternVariation{
			PatternKey: h.HandKey,
			Section:    h.Section,
			Line:       h.Line,
			Sequence:   h.Sequence,
			Points:     h.Points,
			Concealed:  h.Concealed,
			Display:    h.Pattern,
			Tiles:      h.Tiles,
			JokerFlags: h.Jokers,
		}
		if err := v.validate(); err != nil {
			return err
		}

		byPattern[v.PatternKey] = append(byPattern[v.PatternKey], v)
		bySection[v.Section] = append(bySection[v.Section], v)

		if _, ok := defs[v.PatternKey]; !ok {
			diff := parseDifficulty(h.Difficulty)
			if diff == DifficultyUnknown {
				diff = deriveDifficulty(h.Points)
			}
			defs[v.PatternKey] = &PatternDefinition{
				PatternKey:        v.PatternKey,
				Section:           v.Section,
				Line:              v.Line,
				Points:            v.Points,
				Difficulty:        diff,
				ConcealedRequired: v.Concealed,
			}
		}
	}

	// 每个牌型内按变体序号排序，保证平局裁决的确定性
	order := make([]string, 0, len(byPattern))
	for key, variations := range byPattern {
		sort.SliceStable(variations, func(i, j int) bool {
			return variations[i].Sequence < variations[j].Sequence
		})
		order = append(order, key)
	}
	sort.Strings(order)

	c.byPattern = byPattern
	c.bySection = bySection
	c.defs = defs
	c.patternOrder = order

	log.Info("pattern catalog loaded: %d variations, %d patterns, %d sections",
		len(file.Hands), len(byPattern), len(bySection))
	return nil
}

// IsLoaded 是否加载完成
func (c *VariationCatalog) IsLoaded() bool {
	return c.loaded.Load()
}

// AwaitLoaded 阻塞直到加载完成（或 ctx 取消）
// 尚未有人调用过 Load 时直接返回 ErrCatalogNotLoaded
func (c *VariationCatalog) AwaitLoaded(ctx context.Context) error {
	if c.loaded.Load() {
		return nil
	}
	c.mu.Lock()
	if !c.started && !c.loaded.Load() {
		c.mu.Unlock()
		return ErrCatalogNotLoaded
	}
	done := c.done
	c.mu.Unlock()

	select {
	case <-done:
		c.mu.Lock()
		err := c.loadErr
		c.mu.Unlock()
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// VariationsFor 返回某牌型的全部变体，按变体序号升序
// 未知牌型返回空切片
func (c *VariationCatalog) VariationsFor(patternKey string) ([]*PatternVariation, error) {
	if !c.loaded.Load() {
		return nil, ErrCatalogNotLoaded
	}
	return c.byPattern[patternKey], nil
}

// VariationsInSection 返回某卡面分区的全部变体
func (c *VariationCatalog) VariationsInSection(section string) ([]*PatternVariation, error) {
	if !c.loaded.Load() {
		return nil, ErrCatalogNotLoaded
	}
	return c.bySection[section], nil
}

// PatternDefinitionFor 由目录数据推导出牌型定义，供只传键名的调用方使用
func (c *VariationCatalog) PatternDefinitionFor(patternKey string) (*PatternDefinition, error) {
	if !c.loaded.Load() {
		return nil, ErrCatalogNotLoaded
	}
	def, ok := c.defs[patternKey]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPattern, patternKey)
	}
	return def, nil
}

// Definitions 全部牌型定义，按键名升序
func (c *VariationCatalog) Definitions() ([]*PatternDefinition, error) {
	if !c.loaded.Load() {
		return nil, ErrCatalogNotLoaded
	}
	out := make([]*PatternDefinition, 0, len(c.patternOrder))
	for _, key := range c.patternOrder {
		out = append(out, c.defs[key])
	}
	return out, nil
}

// Statistics 目录统计
func (c *VariationCatalog) Statistics() (CatalogStatistics, error) {
	if !c.loaded.Load() {
		return CatalogStatistics{}, ErrCatalogNotLoaded
	}

	stats := CatalogStatistics{
		UniquePatterns:   len(c.byPattern),
		UniqueSections:   len(c.bySection),
		PerPatternCounts: make(map[string]int, len(c.byPattern)),
		PerSectionCounts: make(map[string]int, len(c.bySection)),
	}
	for key, variations := range c.byPattern {
		stats.PerPatternCounts[key] = len(variations)
		stats.TotalVariations += len(variations)
	}
	for section, variations := range c.bySection {
		stats.PerSectionCounts[section] = len(variations)
	}
	return stats, nil
}

func parseDifficulty(s string) Difficulty {
	switch s {
	case "easy":
		return DifficultyEasy
	case "medium":
		return DifficultyMedium
	case "hard":
		return DifficultyHard
	default:
		return DifficultyUnknown
	}
}
