package nmjl

import "errors"

// 目录加载相关错误
var (
	ErrCatalogNotLoaded     = errors.New("pattern catalog not loaded")
	ErrPatternDataMalformed = errors.New("pattern variation data malformed")
	ErrInvalidTileID        = errors.New("invalid tile id")
	ErrUnknownPattern       = errors.New("unknown pattern key")
)

// 分析管线相关错误
var (
	ErrEngineFailure    = errors.New("analysis engine failure")
	ErrDuplicatePattern = errors.New("duplicate pattern key in facts batch")
	ErrNilContext       = errors.New("game context is required")
	ErrInvalidPhase     = errors.New("invalid game phase")
)
