package game

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// NumPaylines 支付线数量（游戏固定为5条线）
const NumPaylines = 5

// ScatterPaylineIndex 分散奖励的虚拟线号（不属于任何支付线）
const ScatterPaylineIndex = -1

// MinScatterCount 分散符号的最小有效数量
const MinScatterCount = 3

// SpinRequest 旋转请求（每次旋转临时构造）
type SpinRequest struct {
	SessionID       string          `json:"sessionId"`
	BetAmount       decimal.Decimal `json:"betAmount"`
	NumPaylines     int             `json:"numPaylines"`
	BetPerPayline   decimal.Decimal `json:"betPerPayline"`
	ActionGameSpins int             `json:"actionGameSpins,omitempty"` // 未消费的转盘次数
	GameID          string          `json:"gameId"`
}

// WinningLine 中奖线
type WinningLine struct {
	PaylineIndex int             `json:"paylineIndex"` // -1 表示分散/转盘触发奖励
	Symbol       string          `json:"symbol"`       // 中奖符号
	Count        int             `json:"count"`        // 连续个数
	Payout       decimal.Decimal `json:"payout"`       // 服务器计算的赔付金额
	Line         []int           `json:"line"`         // 每个卷轴的行索引（分散奖励为空）
}

// IsScatter 判断是否为分散奖励
func (w *WinningLine) IsScatter() bool {
	return w.PaylineIndex == ScatterPaylineIndex
}

// ScatterWin 分散奖励
type ScatterWin struct {
	Count              int  `json:"count"`
	TriggeredFreeSpins bool `json:"triggeredFreeSpins"`
}

// CellRef 网格单元位置
type CellRef struct {
	Reel int `json:"reel"`
	Row  int `json:"row"`
}

// SpinResponse 旋转响应（服务器权威结果，客户端只展示、从不自行计算赔付）
type SpinResponse struct {
	Balance                 decimal.Decimal `json:"balance"`
	FreeSpinsRemaining      int             `json:"freeSpinsRemaining"`
	LastWin                 decimal.Decimal `json:"lastWin"`
	Grid                    [][]string      `json:"grid"` // 卷轴×行 符号矩阵
	WinningLines            []WinningLine   `json:"winningLines"`
	ScatterWin              *ScatterWin     `json:"scatterWin,omitempty"`
	ActionGameTriggered     bool            `json:"actionGameTriggered"`
	ActionGameSpins         int             `json:"actionGameSpins"`
	FeatureSymbol           string          `json:"featureSymbol,omitempty"`
	ExpandedSymbols         []CellRef       `json:"expandedSymbols,omitempty"`
	FeatureGameWinningLines []WinningLine   `json:"featureGameWinningLines,omitempty"`
}

// ActionSpinResult 转盘旋转结果
type ActionSpinResult struct {
	SessionID      string          `json:"sessionId"`
	Result         WheelResult     `json:"result"`
	RemainingSpins int             `json:"remainingSpins"`
	AccumulatedWin decimal.Decimal `json:"accumulatedWin"`
	Balance        decimal.Decimal `json:"balance"`
}

// WheelResult 转盘单次结果
type WheelResult struct {
	Win             decimal.Decimal `json:"win"`
	AdditionalSpins int             `json:"additionalSpins"`
	WheelResult     string          `json:"wheelResult"` // 分类结果，如 "6spins" / "win20" / "nothing"
}

// SessionSnapshot 会话快照
type SessionSnapshot struct {
	SessionID          string          `json:"sessionId"`
	Balance            decimal.Decimal `json:"balance"`
	FreeSpinsRemaining int             `json:"freeSpinsRemaining"`
	FeatureSymbol      string          `json:"featureSymbol,omitempty"`
	ActionGameSpins    int             `json:"actionGameSpins"`
	AccumulatedWin     decimal.Decimal `json:"accumulatedWin"`
	LastWin            decimal.Decimal `json:"lastWin"`
}

// GameServer 游戏服务器接口（所有结果决定逻辑都在服务器侧）
type GameServer interface {
	// Play 执行一次主游戏旋转
	Play(ctx context.Context, req *SpinRequest) (*SpinResponse, error)

	// SpinActionGame 执行一次转盘旋转
	SpinActionGame(ctx context.Context, sessionID string) (*ActionSpinResult, error)

	// GetSession 获取会话快照
	GetSession(ctx context.Context, sessionID string) (*SessionSnapshot, error)

	// ResetSession 重置会话
	ResetSession(ctx context.Context, sessionID string) error
}

// RoundRecord 单回合展示记录（供本地记录器持久化，仅观测用途）
type RoundRecord struct {
	RoundID       string          `json:"round_id"`
	SessionID     string          `json:"session_id"`
	BetAmount     decimal.Decimal `json:"bet_amount"`
	WinAmount     decimal.Decimal `json:"win_amount"`
	Balance       decimal.Decimal `json:"balance"`
	Grid          [][]string      `json:"grid"`
	WinningLines  []WinningLine   `json:"winning_lines"`
	FreeSpin      bool            `json:"free_spin"`
	FeatureSymbol string          `json:"feature_symbol,omitempty"`
	Expanded      bool            `json:"expanded"`
	PlayedAt      time.Time       `json:"played_at"`
}
