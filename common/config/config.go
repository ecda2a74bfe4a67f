package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Conf 进程内唯一的配置实例，由 Load 填充
var Conf CopilotConfiguration

type CopilotConfiguration struct {
	BaseConfig  `mapstructure:",squash"`
	LogConf     `mapstructure:"log"`
	HttpConf    `mapstructure:"http"`
	CatalogConf `mapstructure:"catalog"`
	CacheConf   `mapstructure:"cache"`
	EngineConf  `mapstructure:"engine"`
}

type BaseConfig struct {
	ID         string `mapstructure:"id"`
	MetricPort int    `mapstructure:"metricPort"`
}

type LogConf struct {
	Level string `mapstructure:"level"`
}

type HttpConf struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin 的运行模式：debug/release/test
}

type CatalogConf struct {
	// Path 预计算变体数据集（complete hands JSON）的本地路径
	Path string `mapstructure:"path"`
}

type CacheConf struct {
	// 分析结果缓存
	TTLSeconds int `mapstructure:"ttlSeconds"`
	MaxEntries int `mapstructure:"maxEntries"`
	// 引擎一变体匹配备忘缓存（ristretto）
	MemoMaxCost    int64 `mapstructure:"memoMaxCost"`
	MemoTTLSeconds int   `mapstructure:"memoTTLSeconds"`
}

type EngineConf struct {
	ViabilityThreshold   float64 `mapstructure:"viabilityThreshold"`
	ImprovementThreshold float64 `mapstructure:"improvementThreshold"`
}

// Load 读取配置文件并填充 Conf，环境变量可覆盖同名配置项
func Load(configFile string) error {
	v := viper.New()
	v.SetConfigFile(configFile)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return err
	}

	var cfg CopilotConfiguration
	if err := v.Unmarshal(&cfg); err != nil {
		return err
	}
	if cfg.CatalogConf.Path == "" {
		return fmt.Errorf("catalog.path is required")
	}

	Conf = cfg
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("id", "copilot")
	v.SetDefault("metricPort", 9100)
	v.SetDefault("log.level", "info")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.mode", "release")
	v.SetDefault("cache.ttlSeconds", 300)
	v.SetDefault("cache.maxEntries", 50)
	v.SetDefault("cache.memoMaxCost", 1<<26)
	v.SetDefault("cache.memoTTLSeconds", 300)
	v.SetDefault("engine.viabilityThreshold", 40)
	v.SetDefault("engine.improvementThreshold", 15)
}
