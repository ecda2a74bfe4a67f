package api

import (
	"errors"

	"github.com/google/uuid"

	"github.com/thetrev68/american-mahjong-assistant-sub007/common/http"
	"github.com/thetrev68/american-mahjong-assistant-sub007/engines/nmjl"
)

type handTileDTO struct {
	ID         string `json:"id" binding:"required"`
	InstanceID string `json:"instance_id"`
}

type contextDTO struct {
	WallTilesRemaining int                 `json:"wall_tiles_remaining"`
	DiscardPile        []string            `json:"discard_pile"`
	ExposedTiles       map[string][]string `json:"exposed_tiles"`
	Phase              string              `json:"phase"`
}

type analyzeRequest struct {
	Hand         []handTileDTO `json:"hand" binding:"required"`
	Patterns     []string      `json:"patterns"`
	Context      contextDTO    `json:"context"`
	FocalPattern string        `json:"focal_pattern"`
}

// AnalyzeHandler 分析一手牌
// patterns 为空时分析目录中的全部牌型
func (a *API) AnalyzeHandler(c *http.Context) error {
	var req analyzeRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid analyze request: " + err.Error())
		return nil
	}

	hand := make([]nmjl.HandTile, 0, len(req.Hand))
	for _, dto := range req.Hand {
		tile, err := nmjl.ParseTileID(dto.ID)
		if err != nil {
			c.BadRequest(err.Error())
			return nil
		}
		instanceID := dto.InstanceID
		if instanceID == "" {
			instanceID = uuid.NewString()
		}
		hand = append(hand, nmjl.HandTile{Tile: tile, InstanceID: instanceID})
	}

	phase, err := nmjl.ParsePhase(req.Context.Phase)
	if err != nil {
		c.BadRequest("invalid phase: " + req.Context.Phase)
		return nil
	}
	gctx := &nmjl.GameContext{
		WallTilesRemaining: req.Context.WallTilesRemaining,
		DiscardPile:        req.Context.DiscardPile,
		ExposedTiles:       req.Context.ExposedTiles,
		Phase:              phase,
	}

	patterns, err := a.resolvePatterns(req.Patterns)
	if err != nil {
		return a.writeError(c, err)
	}

	analysis, err := a.orchestrator.AnalyzeHand(c.RequestContext(), hand, patterns, gctx,
		nmjl.WithFocalPattern(req.FocalPattern))
	if err != nil {
		return a.writeError(c, err)
	}

	c.Success(analysis)
	return nil
}

// resolvePatterns 把牌型键列表换成定义，空列表表示全部
func (a *API) resolvePatterns(keys []string) ([]*nmjl.PatternDefinition, error) {
	if len(keys) == 0 {
		return a.catalog.Definitions()
	}
	out := make([]*nmjl.PatternDefinition, 0, len(keys))
	for _, key := range keys {
		def, err := a.catalog.PatternDefinitionFor(key)
		if err != nil {
			return nil, err
		}
		out = append(out, def)
	}
	return out, nil
}

func (a *API) writeError(c *http.Context, err error) error {
	switch {
	case errors.Is(err, nmjl.ErrCatalogNotLoaded):
		c.NotReady("pattern catalog is still loading")
	case errors.Is(err, nmjl.ErrUnknownPattern):
		c.NotFound(err.Error())
	case errors.Is(err, nmjl.ErrInvalidTileID), errors.Is(err, nmjl.ErrNilContext):
		c.BadRequest(err.Error())
	default:
		return err
	}
	return nil
}
