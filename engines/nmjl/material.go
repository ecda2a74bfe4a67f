package nmjl

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

type Suit int

const (
	SuitBams    Suit = iota // 索子 B
	SuitCraks               // 万子 C
	SuitDots                // 筒子 D
	SuitWinds               // 风牌
	SuitDragons             // 箭牌
	SuitFlowers             // 花牌
	SuitJokers              // 百搭
)

func (s Suit) String() string {
	switch s {
	case SuitBams:
		return "bams"
	case SuitCraks:
		return "craks"
	case SuitDots:
		return "dots"
	case SuitWinds:
		return "winds"
	case SuitDragons:
		return "dragons"
	case SuitFlowers:
		return "flowers"
	case SuitJokers:
		return "jokers"
	default:
		return "unknown"
	}
}

// Tile 一种牌型（非实体牌）
// ID 是稳定的牌型键，如 "5B"、"east"、"red"、"f1"、"joker"
type Tile struct {
	ID    string `json:"id"`
	Suit  Suit   `json:"suit"`
	Value int    `json:"value"` // 数牌为 1-9，其余为 0
}

// HandTile 玩家手中的一张实体牌
// 手牌可能含重复牌型，InstanceID 用于区分同型的多张牌
type HandTile struct {
	Tile
	InstanceID string `json:"instance_id"`
}

const (
	JokerID = "joker"

	// 整套牌中每种牌型的张数
	copiesPerTile  = 4
	copiesPerJoker = 8

	// HandSize 一个完整变体（以及庄家手牌）的张数
	HandSize = 14
)

var windIDs = map[string]bool{
	"east": true, "south": true, "west": true, "north": true,
}

var dragonIDs = map[string]bool{
	"red": true, "green": true, "white": true,
}

var suitLetters = map[byte]Suit{
	'B': SuitBams,
	'C': SuitCraks,
	'D': SuitDots,
}

// ParseTileID 把牌型键解析为 Tile
func ParseTileID(id string) (Tile, error) {
	if id == JokerID {
		return Tile{ID: id, Suit: SuitJokers}, nil
	}
	if windIDs[id] {
		return Tile{ID: id, Suit: SuitWinds}, nil
	}
	if dragonIDs[id] {
		return Tile{ID: id, Suit: SuitDragons}, nil
	}
	if len(id) == 2 && id[0] == 'f' {
		if n, err := strconv.Atoi(id[1:]); err == nil && n >= 1 && n <= 4 {
			return Tile{ID: id, Suit: SuitFlowers}, nil
		}
	}
	if len(id) == 2 {
		if suit, ok := suitLetters[id[1]]; ok {
			if v, err := strconv.Atoi(id[:1]); err == nil && v >= 1 && v <= 9 {
				return Tile{ID: id, Suit: suit, Value: v}, nil
			}
		}
	}
	return Tile{}, fmt.Errorf("%w: unknown tile id %q", ErrInvalidTileID, id)
}

// NewHandTile 创建带随机 InstanceID 的手牌
func NewHandTile(id string) (HandTile, error) {
	t, err := ParseTileID(id)
	if err != nil {
		return HandTile{}, err
	}
	return HandTile{Tile: t, InstanceID: uuid.NewString()}, nil
}

// IsJoker 是否百搭
func (t Tile) IsJoker() bool {
	return t.ID == JokerID
}

// TotalCopies 整套牌中该牌型的总张数
// 普通牌、花牌、风牌、箭牌均为 4 张，百搭 8 张
func TotalCopies(tileID string) int {
	if tileID == JokerID {
		return copiesPerJoker
	}
	return copiesPerTile
}

// handCounts 统计手牌中各牌型张数（不含百搭）以及可用百搭数
func handCounts(hand []HandTile) (map[string]int, int) {
	counts := make(map[string]int, len(hand))
	jokers := 0
	for _, ht := range hand {
		if ht.IsJoker() {
			jokers++
			continue
		}
		counts[ht.ID]++
	}
	return counts, jokers
}
