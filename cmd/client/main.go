package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/wfunc/slot-client/internal/bridge"
	"github.com/wfunc/slot-client/internal/config"
	"github.com/wfunc/slot-client/internal/database"
	"github.com/wfunc/slot-client/internal/errors"
	"github.com/wfunc/slot-client/internal/game"
	"github.com/wfunc/slot-client/internal/gameapi"
	"github.com/wfunc/slot-client/internal/logger"
	"github.com/wfunc/slot-client/internal/overlay"
	"github.com/wfunc/slot-client/internal/render"
	"github.com/wfunc/slot-client/internal/repository"
	"go.uber.org/zap"
)

// 版本信息
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Client 游戏客户端实例
type Client struct {
	cfg    *config.Config
	logger *zap.Logger

	apiClient *gameapi.Client
	gameCfg   *game.GameConfig
	bus       *game.Bus
	orch      *game.Orchestrator
	autoplay  *game.Autoplay
	wheel     *game.WheelController
	overlays  *overlay.Manager
	presenter *render.Presenter
	bridgeSrv *bridge.Server
	recorder  *repository.Recorder

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func main() {
	var (
		configPath  = flag.String("config", "", "配置文件路径")
		sessionID   = flag.String("session", "", "会话ID（为空时随机生成）")
		showVersion = flag.Bool("version", false, "显示版本信息")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("slot-client %s (built %s, commit %s)\n", Version, BuildTime, GitCommit)
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

	sid := *sessionID
	if sid == "" {
		sid = uuid.New().String()
	}

	client := NewClient(cfg)
	if err := client.Start(sid); err != nil {
		logger.Fatal("客户端启动失败", zap.Error(err))
	}

	client.WaitForShutdown()

	if err := client.Shutdown(); err != nil {
		logger.Error("客户端关闭失败", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("客户端已安全关闭")
}

// NewClient 创建客户端实例
func NewClient(cfg *config.Config) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		cfg:    cfg,
		logger: logger.GetLogger(),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start 初始化并启动所有组件
func (c *Client) Start(sessionID string) error {
	c.logger.Info("正在启动老虎机客户端...",
		zap.String("version", Version),
		zap.String("server", c.cfg.Server.BaseURL),
		zap.String("game_id", c.cfg.Server.GameID),
		zap.String("session_id", sessionID))

	c.apiClient = gameapi.NewClientFromConfig(&c.cfg.Server, c.logger)

	// 游戏描述文件：拉取失败是致命错误，没有描述无法渲染任何内容
	fetchCtx, cancel := context.WithTimeout(c.ctx, 30*time.Second)
	defer cancel()
	gameCfg, err := c.apiClient.FetchGameConfig(fetchCtx, c.cfg.Server.GameID)
	if err != nil {
		return errors.Wrap(err, errors.ErrConfigLoad)
	}
	c.gameCfg = gameCfg

	c.bus = game.NewBus(c.logger)
	timings := game.Timings(c.cfg.Presentation.Turbo)

	c.orch = game.NewOrchestrator(&game.OrchestratorConfig{
		GameConfig: gameCfg,
		Server:     c.apiClient,
		SessionID:  sessionID,
		Bus:        c.bus,
		Logger:     c.logger,
		Timings:    timings,
	})
	c.autoplay = game.NewAutoplay(c.orch)
	c.wheel = game.NewWheelController(c.orch, timings)
	c.overlays = overlay.NewManager(c.orch, c.wheel, gameCfg, c.bus, timings, c.logger)

	// 启动时同步服务器会话状态
	if err := c.orch.SyncSession(c.ctx); err != nil {
		return err
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.overlays.Run(c.ctx)
	}()

	// 控制台演出循环：周期性把状态快照投影成网格帧画到终端
	c.presenter = render.NewPresenter(gameCfg, c.orch, render.PresenterOptions{
		SoundEnabled: c.cfg.Presentation.SoundEnabled,
	}, c.logger)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.presenter.Run(c.ctx)
	}()

	if c.cfg.Recorder.Enabled {
		if err := c.startRecorder(sessionID); err != nil {
			return err
		}
	}

	if c.cfg.Bridge.Enabled {
		c.bridgeSrv = bridge.NewServer(&c.cfg.Bridge, &c.cfg.Autoplay, c.orch, c.autoplay, c.bus, c.logger)
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			if err := c.bridgeSrv.Start(); err != nil {
				c.logger.Error("桥接服务异常退出", zap.Error(err))
			}
		}()
	}

	config.Watch(func(newCfg *config.Config) {
		c.logger.Info("配置已更新")
		c.orch.SetTimings(game.Timings(newCfg.Presentation.Turbo))
	})

	c.logger.Info("客户端启动成功",
		zap.String("game", gameCfg.Name),
		zap.Int("reels", gameCfg.Reels),
		zap.Int("rows", gameCfg.Rows))

	return nil
}

// startRecorder 启动回合记录器
func (c *Client) startRecorder(sessionID string) error {
	db, err := database.Open(&c.cfg.Recorder)
	if err != nil {
		// 记录器是观测组件，连不上数据库只降级不阻断
		c.logger.Warn("回合记录器不可用", zap.Error(err))
		return nil
	}

	rec, err := repository.NewRecorder(db, c.bus, c.cfg.Server.GameID, c.logger, c.cfg.Recorder.AutoMigrate)
	if err != nil {
		c.logger.Warn("回合记录器初始化失败", zap.Error(err))
		return nil
	}
	c.recorder = rec

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		rec.Run(c.ctx)
	}()

	c.logger.Info("回合记录器已启动",
		zap.String("driver", c.cfg.Recorder.Driver),
		zap.String("session_id", sessionID))
	return nil
}

// WaitForShutdown 等待退出信号
func (c *Client) WaitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	c.logger.Info("收到退出信号", zap.String("signal", sig.String()))
}

// Shutdown 优雅关闭
func (c *Client) Shutdown() error {
	c.logger.Info("正在关闭客户端...")

	c.autoplay.Stop()
	c.cancel()

	if c.bridgeSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.bridgeSrv.Shutdown(shutdownCtx); err != nil {
			c.logger.Warn("桥接服务关闭失败", zap.Error(err))
		}
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		c.logger.Warn("组件关闭超时")
	}

	return nil
}
