package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/thetrev68/american-mahjong-assistant-sub007/app"
	"github.com/thetrev68/american-mahjong-assistant-sub007/common/config"
	"github.com/thetrev68/american-mahjong-assistant-sub007/common/log"
	"github.com/thetrev68/american-mahjong-assistant-sub007/common/metrics"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "copilot",
	Short: "美式麻将策略助手",
	Long:  `美式麻将策略助手：牌型匹配、排序与出牌建议`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := config.Load(configFile); err != nil {
			log.Fatal("文件配置发生错误：%v", err)
		}
		log.InitLog(config.Conf.ID, config.Conf.LogConf.Level)
		log.Info("配置文件: %+v", config.Conf)

		go func() {
			log.Info("启动监控..., URL: http://localhost:%d/debug/statsviz/", config.Conf.MetricPort)
			err := metrics.Serve(fmt.Sprintf("0.0.0.0:%d", config.Conf.MetricPort))
			if err != nil {
				panic(err)
			}
		}()

		err := app.Run(context.Background())
		if err != nil {
			log.Error("发生异常: %v", err)
			os.Exit(-1)
		}
	},
}

func init() {
	rootCmd.Flags().StringVar(&configFile, "configFile", "", "resource file")
	rootCmd.MarkFlagRequired("configFile")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error("error happen: %#v", err)
		os.Exit(1)
	}
}
