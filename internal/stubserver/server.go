package stubserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/wfunc/slot-client/internal/auth"
	"github.com/wfunc/slot-client/internal/errors"
	"github.com/wfunc/slot-client/internal/game"
	"go.uber.org/zap"
)

// Server 桩游戏服务器
type Server struct {
	engine  *Engine
	cfg     *game.GameConfig
	tokens  *auth.TokenManager
	logger  *zap.Logger
	httpSrv *http.Server
}

// Options 服务器选项
type Options struct {
	Addr      string
	Seed      int64
	JWTSecret string // 为空时关闭令牌校验
	Logger    *zap.Logger
}

// New 创建桩服务器
func New(opts Options) *Server {
	cfg := DefaultDescriptor()

	s := &Server{
		engine: NewEngine(cfg, opts.Seed),
		cfg:    cfg,
		logger: opts.Logger,
	}
	if opts.JWTSecret != "" {
		s.tokens = auth.NewTokenManager(opts.JWTSecret, 24*time.Hour)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", s.health)

	v1 := router.Group("/api/v1")
	if s.tokens != nil {
		v1.Use(s.authMiddleware())
	}
	{
		v1.POST("/play", s.play)
		v1.POST("/action-game/spin", s.spinActionGame)
		v1.GET("/session/:id", s.getSession)
		v1.POST("/session/:id/reset", s.resetSession)
		v1.GET("/config/:gameId", s.getConfig)
	}

	// 令牌签发不走鉴权
	router.POST("/api/v1/token", s.issueToken)

	s.httpSrv = &http.Server{
		Addr:    opts.Addr,
		Handler: router,
	}

	return s
}

// Start 启动服务器（阻塞）
func (s *Server) Start() error {
	s.logger.Info("桩服务器启动", zap.String("addr", s.httpSrv.Addr))
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown 优雅关闭
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// abort 统一的错误响应
func (s *Server) abort(c *gin.Context, err error) {
	appErr := errors.Wrap(err, errors.ErrUnknown)
	c.JSON(appErr.HTTPStatus(), gin.H{
		"code":    appErr.Code,
		"message": appErr.Message,
	})
}

// health 健康检查
func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// authMiddleware Bearer令牌校验
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if token == "" || token == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "缺少令牌"})
			return
		}
		claims, err := s.tokens.Validate(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "令牌无效"})
			return
		}
		c.Set("session_id", claims.SessionID)
		c.Next()
	}
}

// tokenRequest 令牌签发请求
type tokenRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	GameID    string `json:"game_id" binding:"required"`
}

// issueToken 为会话签发令牌（开发便利接口）
func (s *Server) issueToken(c *gin.Context) {
	if s.tokens == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "令牌校验未启用"})
		return
	}

	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "参数错误: " + err.Error()})
		return
	}

	token, err := s.tokens.Issue(req.SessionID, req.GameID)
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// playRequest 旋转请求（camelCase与客户端序列化保持一致）
type playRequest struct {
	SessionID     string          `json:"sessionId" binding:"required"`
	BetAmount     decimal.Decimal `json:"betAmount" binding:"required"`
	NumPaylines   int             `json:"numPaylines"`
	BetPerPayline decimal.Decimal `json:"betPerPayline"`
	GameID        string          `json:"gameId"`
}

// play 主游戏旋转
func (s *Server) play(c *gin.Context) {
	var req playRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "参数错误: " + err.Error()})
		return
	}

	sess := s.engine.getSession(req.SessionID)

	resp, err := s.engine.spin(sess, req.BetAmount)
	if err != nil {
		s.abort(c, err)
		return
	}

	s.logger.Debug("旋转完成",
		zap.String("session_id", req.SessionID),
		zap.String("win", resp.LastWin.String()),
		zap.Int("free_spins", resp.FreeSpinsRemaining))

	c.JSON(http.StatusOK, resp)
}

// wheelRequest 转盘请求
type wheelRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

// spinActionGame 转盘旋转
func (s *Server) spinActionGame(c *gin.Context) {
	var req wheelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "参数错误: " + err.Error()})
		return
	}

	sess := s.engine.getSession(req.SessionID)
	result, err := s.engine.spinWheel(sess)
	if err != nil {
		s.abort(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// getSession 会话快照
func (s *Server) getSession(c *gin.Context) {
	sess := s.engine.getSession(c.Param("id"))
	c.JSON(http.StatusOK, s.engine.snapshot(sess))
}

// resetSession 重置会话
func (s *Server) resetSession(c *gin.Context) {
	s.engine.reset(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}

// getConfig 游戏描述文件
func (s *Server) getConfig(c *gin.Context) {
	if c.Param("gameId") != s.cfg.GameID {
		c.JSON(http.StatusNotFound, gin.H{"message": "游戏不存在"})
		return
	}
	c.JSON(http.StatusOK, s.cfg)
}
