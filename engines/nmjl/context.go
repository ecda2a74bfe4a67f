package nmjl

type Phase int

const (
	PhaseCharleston Phase = iota // 查尔斯顿换牌阶段
	PhaseGameplay                // 正式行牌阶段
)

func (p Phase) String() string {
	switch p {
	case PhaseCharleston:
		return "charleston"
	case PhaseGameplay:
		return "gameplay"
	default:
		return "unknown"
	}
}

// ParsePhase 解析阶段名
func ParsePhase(s string) (Phase, error) {
	switch s {
	case "charleston":
		return PhaseCharleston, nil
	case "gameplay", "":
		return PhaseGameplay, nil
	default:
		return PhaseGameplay, ErrInvalidPhase
	}
}

// GameContext 调用方每次分析时提供的牌局快照，核心只读不写
type GameContext struct {
	WallTilesRemaining int                 `json:"wall_tiles_remaining"`
	DiscardPile        []string            `json:"discard_pile"`
	ExposedTiles       map[string][]string `json:"exposed_tiles"` // 对手 → 已亮出的牌
	Phase              Phase               `json:"phase"`
}

// visibleCount 弃牌堆与对手副露中某牌型的已见张数
func (gc *GameContext) visibleCount(tileID string) int {
	n := 0
	for _, id := range gc.DiscardPile {
		if id == tileID {
			n++
		}
	}
	for _, exposed := range gc.ExposedTiles {
		for _, id := range exposed {
			if id == tileID {
				n++
			}
		}
	}
	return n
}

// exposedCount 仅对手副露中某牌型的张数
func (gc *GameContext) exposedCount(tileID string) int {
	n := 0
	for _, exposed := range gc.ExposedTiles {
		for _, id := range exposed {
			if id == tileID {
				n++
			}
		}
	}
	return n
}
