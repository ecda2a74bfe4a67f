package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/arl/statsviz"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/thetrev68/american-mahjong-assistant-sub007/common/log"
)

// Serve 在指定地址暴露 statsviz 运行时监控页面
// 访问路径为 /debug/statsviz/
func Serve(addr string) error {
	mux := http.NewServeMux()
	if err := statsviz.Register(mux); err != nil {
		return err
	}
	return http.ListenAndServe(addr, mux)
}

// LoadReporter 周期性采集进程负载并写日志
type LoadReporter struct {
	interval time.Duration
	stopCh   chan struct{}
}

// NewLoadReporter 创建负载上报器，建议间隔 5-10 秒
func NewLoadReporter(interval time.Duration) *LoadReporter {
	return &LoadReporter{
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start 启动上报循环，应在独立 goroutine 中调用
func (r *LoadReporter) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.report()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.report()
		}
	}
}

// Stop 停止上报
func (r *LoadReporter) Stop() {
	close(r.stopCh)
}

func (r *LoadReporter) report() {
	cpuUsage := 0.0
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		cpuUsage = percents[0]
	}

	memUsage := 0.0
	if vm, err := mem.VirtualMemory(); err == nil {
		memUsage = vm.UsedPercent
	}

	log.Debug("load: cpu=%.2f%% mem=%.2f%%", cpuUsage, memUsage)
}
