package api

import (
	"errors"

	"github.com/thetrev68/american-mahjong-assistant-sub007/common/http"
	"github.com/thetrev68/american-mahjong-assistant-sub007/engines/nmjl"
)

// CatalogStatsHandler 返回牌型目录的统计信息
func (a *API) CatalogStatsHandler(c *http.Context) error {
	stats, err := a.catalog.Statistics()
	if err != nil {
		if errors.Is(err, nmjl.ErrCatalogNotLoaded) {
			c.NotReady("pattern catalog is still loading")
			return nil
		}
		return err
	}
	c.Success(stats)
	return nil
}

type healthStatus struct {
	Status        string                 `json:"status"`
	CatalogLoaded bool                   `json:"catalog_loaded"`
	Orchestrator  nmjl.OrchestratorStats `json:"orchestrator"`
}

// HealthHandler 健康检查
func (a *API) HealthHandler(c *http.Context) error {
	status := healthStatus{
		Status:        "ok",
		CatalogLoaded: a.catalog.IsLoaded(),
		Orchestrator:  a.orchestrator.Stats(),
	}
	if !status.CatalogLoaded {
		status.Status = "loading"
	}
	c.Success(status)
	return nil
}
