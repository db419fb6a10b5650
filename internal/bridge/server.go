package bridge

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/wfunc/slot-client/internal/config"
	"github.com/wfunc/slot-client/internal/game"
	"go.uber.org/zap"
)

// Server 桥接服务。
// 提供WebSocket端点，前端连接后可收到实时事件推送并下发指令。
type Server struct {
	hub       *Hub
	orch      *game.Orchestrator
	autoplay  *game.Autoplay
	apDefault game.AutoplaySettings
	logger    *zap.Logger
	httpSrv   *http.Server
	upgrader  websocket.Upgrader
}

// NewServer 创建桥接服务
func NewServer(cfg *config.BridgeConfig, apCfg *config.AutoplayConfig, orch *game.Orchestrator, autoplay *game.Autoplay, bus *game.Bus, logger *zap.Logger) *Server {
	hub := NewHub(logger)

	s := &Server{
		hub:       hub,
		orch:      orch,
		autoplay:  autoplay,
		apDefault: autoplayDefaults(apCfg),
		logger:    logger,
		upgrader:  websocket.Upgrader{
			ReadBufferSize:    cfg.ReadBufferSize,
			WriteBufferSize:   cfg.WriteBufferSize,
			EnableCompression: cfg.EnableCompression,
			// 本地桥接，前端与客户端同机运行
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	hub.SetCommandHandler(s)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET(cfg.Path, s.handleWebSocket)

	s.httpSrv = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: router,
	}

	// 事件泵：编排器事件持续转发给所有前端
	events, _ := bus.Subscribe(128)
	go hub.PumpEvents(events)

	return s
}

// Start 启动桥接服务（阻塞）
func (s *Server) Start() error {
	go s.hub.Run()
	s.logger.Info("桥接服务启动", zap.String("addr", s.httpSrv.Addr))
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown 优雅关闭
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// handleWebSocket 升级连接并启动读写泵
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Error("WebSocket升级失败", zap.Error(err))
		return
	}

	client := NewClient(s.hub, conn)
	s.hub.register <- client

	go client.WritePump()
	go client.ReadPump()

	// 新连接先收到完整状态快照
	_ = client.SendMessage(MessageTypeConnected, s.orch.State())
}

// HandleCommand 处理前端指令
func (s *Server) HandleCommand(client *Client, msg *Message) {
	switch msg.Type {
	case CommandSpin:
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if _, err := s.orch.Spin(ctx); err != nil {
				client.SendError(err.Error())
			}
		}()

	case CommandSetBet:
		var payload struct {
			Bet decimal.Decimal `json:"bet"`
		}
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			client.SendError("投注参数无效")
			return
		}
		if err := s.orch.SetBet(payload.Bet); err != nil {
			client.SendError(err.Error())
		}

	case CommandSetTurbo:
		var payload struct {
			Turbo bool `json:"turbo"`
		}
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			client.SendError("涡轮参数无效")
			return
		}
		s.orch.SetTimings(game.Timings(payload.Turbo))

	case CommandAutoplayStart:
		// 前端没给的字段沿用配置默认值
		settings := s.apDefault
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &settings); err != nil {
				client.SendError("自动旋转参数无效")
				return
			}
		}
		if settings.Spins <= 0 {
			settings.Spins = s.apDefault.Spins
		}
		if err := s.autoplay.Start(context.Background(), settings); err != nil {
			client.SendError(err.Error())
		}

	case CommandAutoplayStop:
		s.autoplay.Stop()

	case CommandState:
		_ = client.SendMessage(MessageTypeState, s.orch.State())

	default:
		s.logger.Warn("不支持的前端指令", zap.String("type", msg.Type))
		client.SendError("不支持的指令: " + msg.Type)
	}
}

// autoplayDefaults 把配置默认值换算成自动旋转设置。
// 阈值是十进制字符串，空串或解析失败视为不启用。
func autoplayDefaults(cfg *config.AutoplayConfig) game.AutoplaySettings {
	s := game.AutoplaySettings{
		Spins:         cfg.Spins,
		StopOnAnyWin:  cfg.StopOnAnyWin,
		StopOnFeature: cfg.StopOnFeature,
	}
	if d, err := decimal.NewFromString(cfg.SingleWinLimit); err == nil {
		s.SingleWinLimit = d
	}
	if d, err := decimal.NewFromString(cfg.LossLimit); err == nil {
		s.LossLimit = d
	}
	return s
}
