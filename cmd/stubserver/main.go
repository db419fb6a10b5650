package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wfunc/slot-client/internal/config"
	"github.com/wfunc/slot-client/internal/logger"
	"github.com/wfunc/slot-client/internal/stubserver"
	"go.uber.org/zap"
)

// 版本信息
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
)

func main() {
	var (
		configPath  = flag.String("config", "", "配置文件路径")
		addr        = flag.String("addr", ":8080", "监听地址")
		seed        = flag.Int64("seed", 0, "随机种子（0表示按当前时间）")
		jwtSecret   = flag.String("jwt-secret", "", "JWT密钥（为空时关闭令牌校验）")
		showVersion = flag.Bool("version", false, "显示版本信息")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("slot-stubserver %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	if err := config.Init(*configPath); err != nil {
		fmt.Printf("加载配置失败: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Get()

	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Printf("初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Cleanup()

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	srv := stubserver.New(stubserver.Options{
		Addr:      *addr,
		Seed:      *seed,
		JWTSecret: *jwtSecret,
		Logger:    logger.GetLogger(),
	})

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("桩服务器启动失败", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("收到退出信号", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("桩服务器关闭失败", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("桩服务器已安全关闭")
}
