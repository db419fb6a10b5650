package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Round 回合记录表。
// 每个结算完成的回合一行，网格与中奖线以JSON文本保存。
// 金额用 decimal 定点列，绝不走浮点。
type Round struct {
	BaseModel
	RoundID       string          `gorm:"uniqueIndex;size:64;not null" json:"round_id"`
	SessionID     string          `gorm:"index;size:64;not null" json:"session_id"`
	GameID        string          `gorm:"index;size:50" json:"game_id"`
	BetAmount     decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"bet_amount"`
	WinAmount     decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"win_amount"`
	Balance       decimal.Decimal `gorm:"type:decimal(20,2)" json:"balance"`
	Grid          string          `gorm:"type:text" json:"grid"`          // JSON: 卷轴×行符号网格
	WinningLines  string          `gorm:"type:text" json:"winning_lines"` // JSON: 中奖线列表
	FreeSpin      bool            `gorm:"default:false" json:"free_spin"`
	FeatureSymbol string          `gorm:"size:50" json:"feature_symbol"`
	Expanded      bool            `gorm:"default:false" json:"expanded"`
	PlayedAt      time.Time       `gorm:"index" json:"played_at"`
}

// TableName 表名
func (Round) TableName() string {
	return "rounds"
}

// DecodeGrid 解析网格JSON列
func (r *Round) DecodeGrid() ([][]string, error) {
	if r.Grid == "" {
		return nil, nil
	}
	var grid [][]string
	if err := UnmarshalDoc([]byte(r.Grid), &grid); err != nil {
		return nil, err
	}
	return grid, nil
}

// DecodeWinningLines 解析中奖线JSON列到调用方提供的切片
func (r *Round) DecodeWinningLines(dest interface{}) error {
	if r.WinningLines == "" {
		return nil
	}
	return UnmarshalDoc([]byte(r.WinningLines), dest)
}

// WheelSpin 转盘旋转记录表
type WheelSpin struct {
	BaseModel
	SessionID       string          `gorm:"index;size:64;not null" json:"session_id"`
	Outcome         string          `gorm:"size:50;not null" json:"outcome"`
	Segment         int             `json:"segment"`
	WinAmount       decimal.Decimal `gorm:"type:decimal(20,2)" json:"win_amount"`
	AdditionalSpins int             `json:"additional_spins"`
	AccumulatedWin  decimal.Decimal `gorm:"type:decimal(20,2)" json:"accumulated_win"`
	SpunAt          time.Time       `gorm:"index" json:"spun_at"`
}

// TableName 表名
func (WheelSpin) TableName() string {
	return "wheel_spins"
}

// SessionStat 会话统计表（每个会话一行，回合落库时增量更新）
type SessionStat struct {
	BaseModel
	SessionID   string          `gorm:"uniqueIndex;size:64;not null" json:"session_id"`
	TotalBet    decimal.Decimal `gorm:"type:decimal(20,2)" json:"total_bet"`
	TotalWin    decimal.Decimal `gorm:"type:decimal(20,2)" json:"total_win"`
	TotalRounds int             `gorm:"default:0" json:"total_rounds"`
	FreeSpins   int             `gorm:"default:0" json:"free_spins"`
	PeakWin     decimal.Decimal `gorm:"type:decimal(20,2)" json:"peak_win"`
	LastPlayed  time.Time       `json:"last_played"`
}

// TableName 表名
func (SessionStat) TableName() string {
	return "session_stats"
}
