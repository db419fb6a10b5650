// Package gameapi 游戏服务器HTTP客户端。
// 所有游戏结果由服务器权威决定，客户端只负责请求与解读。
package gameapi

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/wfunc/slot-client/internal/config"
	"github.com/wfunc/slot-client/internal/errors"
	"github.com/wfunc/slot-client/internal/game"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultTimeout 默认请求超时
const DefaultTimeout = 15 * time.Second

// Client 游戏服务器客户端。
// 请求失败不重试：真钱游戏里静默重试可能造成重复下注，
// 失败一律上抛由编排器干净中止回合。
type Client struct {
	baseURL    string
	httpClient *http.Client
	authToken  string
	logger     *zap.Logger
}

// Option 客户端选项
type Option func(*Client)

// WithTimeout 自定义请求超时
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithAuthToken 携带Bearer令牌
func WithAuthToken(token string) Option {
	return func(c *Client) {
		c.authToken = token
	}
}

// WithHTTPClient 替换底层HTTP客户端（测试用）
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient 创建客户端
func NewClient(baseURL string, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClientFromConfig 按配置创建客户端
func NewClientFromConfig(cfg *config.ServerConfig, logger *zap.Logger) *Client {
	opts := []Option{}
	if cfg.RequestTimeout > 0 {
		opts = append(opts, WithTimeout(cfg.RequestTimeout))
	}
	if cfg.AuthToken != "" {
		opts = append(opts, WithAuthToken(cfg.AuthToken))
	}
	return NewClient(cfg.BaseURL, logger, opts...)
}

// errorEnvelope 服务器错误响应体。
// 不同端点的错误字段不统一，message 和 detail 都要尝试。
type errorEnvelope struct {
	Message string `json:"message"`
	Detail  string `json:"detail"`
	Code    int    `json:"code"`
}

// Play 基础旋转/免费旋转请求
func (c *Client) Play(ctx context.Context, req *game.SpinRequest) (*game.SpinResponse, error) {
	var resp game.SpinResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/play", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SpinActionGame 转盘旋转请求
func (c *Client) SpinActionGame(ctx context.Context, sessionID string) (*game.ActionSpinResult, error) {
	body := map[string]string{"session_id": sessionID}
	var resp game.ActionSpinResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/action-game/spin", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetSession 获取会话快照
func (c *Client) GetSession(ctx context.Context, sessionID string) (*game.SessionSnapshot, error) {
	var resp game.SessionSnapshot
	path := "/api/v1/session/" + url.PathEscape(sessionID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ResetSession 重置会话
func (c *Client) ResetSession(ctx context.Context, sessionID string) error {
	path := "/api/v1/session/" + url.PathEscape(sessionID) + "/reset"
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

// FetchGameConfig 拉取游戏描述文件并解析校验
func (c *Client) FetchGameConfig(ctx context.Context, gameID string) (*game.GameConfig, error) {
	path := "/api/v1/config/" + url.PathEscape(gameID)

	data, err := c.doRaw(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return game.ParseGameConfig(data)
}

// do 执行请求并解码响应体
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	data, err := c.doRaw(ctx, method, path, body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrapf(err, errors.ErrAPIResponse, "解析 %s 响应失败", path)
	}
	return nil
}

// doRaw 执行请求，返回原始响应体
func (c *Client) doRaw(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrAPIRequest)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrAPIRequest)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(start)
	if err != nil {
		c.logger.Error("请求失败",
			zap.String("method", method),
			zap.String("path", path),
			zap.Duration("latency", latency),
			zap.Error(err))
		if ctx.Err() != nil {
			return nil, errors.Wrap(err, errors.ErrCanceled)
		}
		return nil, errors.Wrap(err, errors.ErrAPIRequest)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrAPIResponse)
	}

	c.logger.Debug("请求完成",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", latency))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.statusError(resp.StatusCode, data, path)
	}
	return data, nil
}

// statusError 把HTTP错误状态映射为带语义码的错误
func (c *Client) statusError(status int, body []byte, path string) *errors.AppError {
	var env errorEnvelope
	msg := ""
	if err := json.Unmarshal(body, &env); err == nil {
		if env.Message != "" {
			msg = env.Message
		} else if env.Detail != "" {
			msg = env.Detail
		}
	}

	code := errors.ErrAPIStatus
	switch status {
	case http.StatusPaymentRequired:
		code = errors.ErrInsufficientBalance
	case http.StatusUnauthorized, http.StatusForbidden:
		code = errors.ErrSessionInvalid
	case http.StatusNotFound:
		code = errors.ErrNotFound
	case http.StatusBadRequest:
		code = errors.ErrInvalidParam
	}

	if msg == "" {
		return errors.Newf(code, "%s: HTTP %d", path, status)
	}
	return errors.Newf(code, "%s: HTTP %d: %s", path, status, msg)
}
