package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thetrev68/american-mahjong-assistant-sub007/api"
	"github.com/thetrev68/american-mahjong-assistant-sub007/common/cache"
	"github.com/thetrev68/american-mahjong-assistant-sub007/common/config"
	"github.com/thetrev68/american-mahjong-assistant-sub007/common/http"
	"github.com/thetrev68/american-mahjong-assistant-sub007/common/log"
	"github.com/thetrev68/american-mahjong-assistant-sub007/common/metrics"
	"github.com/thetrev68/american-mahjong-assistant-sub007/engines/nmjl"
)

// Run 组装分析流水线并启动 HTTP 服务，阻塞直到收到退出信号
func Run(ctx context.Context) error {
	catalog := nmjl.NewVariationCatalog(config.Conf.CatalogConf.Path)

	// 目录加载走后台，服务先就绪，未加载完成的请求返回 503
	go func() {
		start := time.Now()
		if err := catalog.Load(ctx); err != nil {
			log.Error("牌型目录加载失败: %v", err)
			return
		}
		stats, _ := catalog.Statistics()
		log.Info("牌型目录加载完成, 变体数=%d, 耗时=%v", stats.TotalVariations, time.Since(start))
	}()

	memo, err := cache.NewGeneralCache(
		config.Conf.CacheConf.MemoMaxCost,
		time.Duration(config.Conf.CacheConf.MemoTTLSeconds)*time.Second,
	)
	if err != nil {
		log.Fatal("匹配备忘缓存初始化失败: %v", err)
		return err
	}
	defer memo.Close()

	analyzer := nmjl.NewPatternAnalysisEngine(catalog, nmjl.WithMatchMemo(memo))
	ranker := nmjl.NewPatternRankingEngine(
		config.Conf.EngineConf.ViabilityThreshold,
		config.Conf.EngineConf.ImprovementThreshold,
	)
	recommender := nmjl.NewTileRecommendationEngine()
	orchestrator := nmjl.NewAnalysisOrchestrator(
		catalog, analyzer, ranker, recommender,
		time.Duration(config.Conf.CacheConf.TTLSeconds)*time.Second,
		config.Conf.CacheConf.MaxEntries,
	)

	server := http.NewHttpServer(
		http.WithPort(config.Conf.HttpConf.Port),
		http.WithMode(config.Conf.HttpConf.Mode),
	)
	api.NewAPI(orchestrator, catalog).Register(server)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("http 服务启动失败, err:%v", err)
		}
	}()
	log.Info("copilot 服务已启动, 端口=%d", config.Conf.HttpConf.Port)

	reporter := metrics.NewLoadReporter(30 * time.Second)
	go reporter.Start(ctx)

	stop := func() {
		log.Info("正在关闭 copilot 服务...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Stop(shutdownCtx); err != nil {
			log.Warn("关闭 http 服务失败: %v", err)
		} else {
			log.Info("copilot 服务已关闭")
		}
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGINT, syscall.SIGHUP)
	for {
		select {
		case <-ctx.Done():
			stop()
			return nil
		case s := <-c:
			switch s {
			case syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGINT:
				stop()
				log.Info("中断信号，服务停止")
				return nil
			case syscall.SIGHUP:
				stop()
				log.Info("挂起信号，服务停止")
				return nil
			default:
				return nil
			}
		}
	}
}
