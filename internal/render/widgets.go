package render

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/wfunc/slot-client/internal/game"
)

// CountUpDuration 中奖滚动计数的默认时长
const CountUpDuration = 800 * time.Millisecond

// WinCounter 中奖金额滚动计数控件。
// 从零匀速滚动到目标金额；涡轮模式时长为零直接显示终值。
type WinCounter struct {
	target   decimal.Decimal
	start    time.Time
	duration time.Duration
}

// NewWinCounter 启动一次计数
func NewWinCounter(target decimal.Decimal, duration time.Duration) *WinCounter {
	return &WinCounter{
		target:   target,
		start:    time.Now(),
		duration: duration,
	}
}

// Value 给定时刻的显示值
func (w *WinCounter) Value(now time.Time) decimal.Decimal {
	if w.duration <= 0 {
		return w.target
	}
	elapsed := now.Sub(w.start)
	if elapsed >= w.duration {
		return w.target
	}
	frac := decimal.NewFromFloat(float64(elapsed) / float64(w.duration))
	return w.target.Mul(frac).Round(2)
}

// Done 计数是否结束
func (w *WinCounter) Done(now time.Time) bool {
	return w.duration <= 0 || now.Sub(w.start) >= w.duration
}

// PaytableRow 赔率表一行：一个符号在当前投注下的赔付与转盘次数
type PaytableRow struct {
	Symbol     string
	Name       string
	Asset      string
	Payout     decimal.Decimal
	BonusSpins int
	Premium    bool
}

// PaytableView 按当前投注额生成赔率表视图。
// 赔付金额随投注档位变化，切换投注后需要重新生成。
func PaytableView(cfg *game.GameConfig, bet decimal.Decimal) []PaytableRow {
	entries := cfg.Paytable(bet)
	rows := make([]PaytableRow, 0, len(entries))
	for _, e := range entries {
		row := PaytableRow{
			Symbol:     e.SymbolID,
			Name:       e.Name,
			Asset:      e.Asset,
			Payout:     e.Payout,
			BonusSpins: e.BonusSpins,
		}
		if sym, ok := cfg.Symbol(e.SymbolID); ok {
			row.Premium = sym.Premium
		}
		rows = append(rows, row)
	}
	return rows
}

// AutoplayOption 自动旋转次数选项
var AutoplayOptions = []int{10, 25, 50, 100}

// AutoplayMenu 自动旋转设置菜单的投影
type AutoplayMenu struct {
	Options        []int
	Selected       int
	StopOnAnyWin   bool
	StopOnFeature  bool
	SingleWinLimit decimal.Decimal
	LossLimit      decimal.Decimal
}

// NewAutoplayMenu 默认菜单
func NewAutoplayMenu() *AutoplayMenu {
	return &AutoplayMenu{
		Options:  AutoplayOptions,
		Selected: AutoplayOptions[0],
	}
}

// Settings 把菜单换算为自动旋转设置
func (m *AutoplayMenu) Settings() game.AutoplaySettings {
	return game.AutoplaySettings{
		Spins:          m.Selected,
		StopOnAnyWin:   m.StopOnAnyWin,
		StopOnFeature:  m.StopOnFeature,
		SingleWinLimit: m.SingleWinLimit,
		LossLimit:      m.LossLimit,
	}
}

// BetMenu 投注菜单投影
type BetMenu struct {
	Amounts []decimal.Decimal
	Index   int
}

// NewBetMenu 从游戏描述生成投注菜单
func NewBetMenu(cfg *game.GameConfig) *BetMenu {
	return &BetMenu{Amounts: append([]decimal.Decimal(nil), cfg.BetAmounts...)}
}

// Current 当前选中的投注额
func (m *BetMenu) Current() decimal.Decimal {
	return m.Amounts[m.Index]
}

// Next 切到下一档（循环）
func (m *BetMenu) Next() decimal.Decimal {
	m.Index = (m.Index + 1) % len(m.Amounts)
	return m.Current()
}

// Prev 切到上一档（循环）
func (m *BetMenu) Prev() decimal.Decimal {
	m.Index = (m.Index - 1 + len(m.Amounts)) % len(m.Amounts)
	return m.Current()
}
