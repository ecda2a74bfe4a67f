package api

import (
	"github.com/thetrev68/american-mahjong-assistant-sub007/common/http"
	"github.com/thetrev68/american-mahjong-assistant-sub007/engines/nmjl"
)

// API 分析服务的 HTTP 接入层，核心管线的薄适配器
type API struct {
	orchestrator *nmjl.AnalysisOrchestrator
	catalog      *nmjl.VariationCatalog
}

// NewAPI 创建接入层
func NewAPI(orchestrator *nmjl.AnalysisOrchestrator, catalog *nmjl.VariationCatalog) *API {
	return &API{
		orchestrator: orchestrator,
		catalog:      catalog,
	}
}

// Register 注册全部路由
func (a *API) Register(s *http.HttpServer) {
	s.POST("/api/v1/analyze", a.AnalyzeHandler)
	s.GET("/api/v1/catalog/stats", a.CatalogStatsHandler)
	s.GET("/health", a.HealthHandler)
}
