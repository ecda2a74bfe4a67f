package nmjl

import "fmt"

type Difficulty int

const (
	DifficultyUnknown Difficulty = iota
	DifficultyEasy
	DifficultyMedium
	DifficultyHard
)

func (d Difficulty) String() string {
	switch d {
	case DifficultyEasy:
		return "easy"
	case DifficultyMedium:
		return "medium"
	case DifficultyHard:
		return "hard"
	default:
		return "unknown"
	}
}

type ConstraintType int

const (
	ConstraintSingle ConstraintType = iota // 单张
	ConstraintPair                         // 对子
	ConstraintPung                         // 刻子
	ConstraintKong                         // 杠
	ConstraintQuint                        // 五连张
	ConstraintSequence                     // 序列（如 2025）
)

func (c ConstraintType) String() string {
	switch c {
	case ConstraintSingle:
		return "single"
	case ConstraintPair:
		return "pair"
	case ConstraintPung:
		return "pung"
	case ConstraintKong:
		return "kong"
	case ConstraintQuint:
		return "quint"
	case ConstraintSequence:
		return "sequence"
	default:
		return "unknown"
	}
}

type SuitRole int

const (
	SuitRoleNone   SuitRole = iota // 固定牌（花/风/箭），无需分配花色
	SuitRoleAny                    // 第一花色
	SuitRoleSecond                 // 第二花色
	SuitRoleThird                  // 第三花色
	SuitRoleSameAs                 // 与 MatchGroup 指向的组同花色
)

func (r SuitRole) String() string {
	switch r {
	case SuitRoleAny:
		return "any"
	case SuitRoleSecond:
		return "second"
	case SuitRoleThird:
		return "third"
	case SuitRoleSameAs:
		return "same_as"
	default:
		return "none"
	}
}

// PatternGroup 牌型中的一个子约束，如 "四花"、"三个相同刻子"
type PatternGroup struct {
	Name          string         `json:"name"`
	Constraint    ConstraintType `json:"constraint"`
	Values        string         `json:"values"` // 原始约束值，如 "flower"、"2,0,2,5"
	SuitRole      SuitRole       `json:"suit_role"`
	MatchGroup    string         `json:"match_group,omitempty"` // SuitRoleSameAs 时指向的组名
	JokersAllowed bool           `json:"jokers_allowed"`
}

// PatternDefinition 计分卡上的一条牌型
type PatternDefinition struct {
	PatternKey        string         `json:"pattern_key"`
	Section           string         `json:"section"`
	Line              int            `json:"line"`
	Points            int            `json:"points"`
	Difficulty        Difficulty     `json:"difficulty"`
	ConcealedRequired bool           `json:"concealed_required"`
	Groups            []PatternGroup `json:"groups,omitempty"`
}

// PatternVariation 一条牌型的一个具体 14 张实现
// 同一结构模板按不同花色映射会展开出多个变体，加载后不可变
type PatternVariation struct {
	PatternKey string   `json:"pattern_key"`
	Section    string   `json:"section"`
	Line       int      `json:"line"`
	Sequence   int      `json:"sequence"` // 变体在同一牌型内的序号
	Points     int      `json:"points"`
	Concealed  bool     `json:"concealed"`
	Display    string   `json:"display"` // 卡面写法，如 "FFFF 111 222 333"
	Tiles      []string `json:"tiles"`
	JokerFlags []bool   `json:"joker_flags"` // 逐位置是否允许百搭替换
}

// validate 校验变体数据，长度错误在加载期拒绝，不进入分析引擎
func (v *PatternVariation) validate() error {
	if len(v.Tiles) != HandSize {
		return fmt.Errorf("%w: pattern %s seq %d has %d tiles",
			ErrPatternDataMalformed, v.PatternKey, v.Sequence, len(v.Tiles))
	}
	if len(v.JokerFlags) != len(v.Tiles) {
		return fmt.Errorf("%w: pattern %s seq %d joker flags %d != tiles %d",
			ErrPatternDataMalformed, v.PatternKey, v.Sequence, len(v.JokerFlags), len(v.Tiles))
	}
	for _, id := range v.Tiles {
		if _, err := ParseTileID(id); err != nil {
			return fmt.Errorf("%w: pattern %s seq %d: %v",
				ErrPatternDataMalformed, v.PatternKey, v.Sequence, err)
		}
	}
	return nil
}

// key 变体的全局唯一键
func (v *PatternVariation) key() string {
	return fmt.Sprintf("%s#%d", v.PatternKey, v.Sequence)
}

// deriveDifficulty 数据集没有显式难度时按分值估算
func deriveDifficulty(points int) Difficulty {
	switch {
	case points <= 0:
		return DifficultyUnknown
	case points <= 25:
		return DifficultyEasy
	case points <= 35:
		return DifficultyMedium
	default:
		return DifficultyHard
	}
}
