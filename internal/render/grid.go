// Package render 展示层投影。
// 把编排器状态快照换算成渲染帧：网格单元、滚动窗口、
// 高亮掩码、赔率表视图。不持有任何会话状态。
package render

import (
	"github.com/shopspring/decimal"
	"github.com/wfunc/slot-client/internal/game"
)

// Cell 单个网格单元的渲染描述
type Cell struct {
	Symbol      string // 符号ID
	Asset       string // 资源名
	Highlighted bool   // 是否属于中奖线高亮
	Expanding   bool   // 是否在扩展动画中
}

// ReelView 单个卷轴的渲染描述
type ReelView struct {
	Cells    []Cell   // 静止时的单元
	Spinning bool     // 旋转中：绘制 Window 而不是 Cells
	Bouncing bool     // 回弹中
	Window   []string // 旋转时可见的条带窗口
}

// Frame 一帧完整的网格视图
type Frame struct {
	Reels          []ReelView
	WinningLines   []game.WinningLine
	Balance        decimal.Decimal
	LastWin        decimal.Decimal
	Bet            decimal.Decimal
	FreeSpins      int
	AccumulatedWin decimal.Decimal
	Busy           bool // 任意忙碌标志
}

// Projector 状态到帧的投影器
type Projector struct {
	cfg *game.GameConfig

	// 每个卷轴的条带滚动偏移，旋转期间每次 Advance 递增
	offsets []int
}

// NewProjector 创建投影器
func NewProjector(cfg *game.GameConfig) *Projector {
	return &Projector{
		cfg:     cfg,
		offsets: make([]int, cfg.Reels),
	}
}

// Advance 推进旋转中卷轴的条带偏移（渲染循环每帧调用一次）
func (p *Projector) Advance(st game.State) {
	for i := range p.offsets {
		if i < len(st.ReelSpinning) && st.ReelSpinning[i] {
			p.offsets[i]++
		}
	}
}

// Project 把状态快照投影为渲染帧
func (p *Projector) Project(st game.State) *Frame {
	mask := HighlightMask(st, p.cfg)

	frame := &Frame{
		WinningLines:   st.WinningLines,
		Balance:        st.Balance,
		LastWin:        st.LastWin,
		Bet:            st.Bet,
		FreeSpins:      st.FreeSpinsRemaining,
		AccumulatedWin: st.AccumulatedWin,
		Busy:           busy(st),
	}

	frame.Reels = make([]ReelView, p.cfg.Reels)
	for i := 0; i < p.cfg.Reels; i++ {
		rv := ReelView{
			Spinning: i < len(st.ReelSpinning) && st.ReelSpinning[i],
			Bouncing: i < len(st.ReelBouncing) && st.ReelBouncing[i],
		}

		if rv.Spinning {
			rv.Window = StripWindow(p.cfg.ReelStrips[i], p.offsets[i], p.cfg.Rows)
		} else {
			rv.Cells = make([]Cell, p.cfg.Rows)
			for j := 0; j < p.cfg.Rows; j++ {
				id := st.Grid[i][j]
				cell := Cell{
					Symbol:      id,
					Highlighted: mask[i][j],
					Expanding:   i < len(st.ReelExpanding) && st.ReelExpanding[i],
				}
				if sym, ok := p.cfg.Symbol(id); ok {
					cell.Asset = sym.Asset
				}
				rv.Cells[j] = cell
			}
		}
		frame.Reels[i] = rv
	}

	return frame
}

// StripWindow 取条带上从 offset 开始的 rows 个符号（循环取模）。
// 旋转动画就是让 offset 持续递增。
func StripWindow(strip []string, offset, rows int) []string {
	if len(strip) == 0 {
		return nil
	}
	window := make([]string, rows)
	for j := 0; j < rows; j++ {
		idx := (offset + j) % len(strip)
		if idx < 0 {
			idx += len(strip)
		}
		window[j] = strip[idx]
	}
	return window
}

// HighlightMask 由中奖线生成高亮掩码。
// 普通支付线按线形逐卷轴高亮前 Count 个单元；
// 分散条目（PaylineIndex为负）高亮网格中所有分散符号。
func HighlightMask(st game.State, cfg *game.GameConfig) [][]bool {
	mask := make([][]bool, cfg.Reels)
	for i := range mask {
		mask[i] = make([]bool, cfg.Rows)
	}

	for _, wl := range st.WinningLines {
		if wl.IsScatter() {
			for i := range st.Grid {
				for j := range st.Grid[i] {
					if st.Grid[i][j] == cfg.ScatterSymbol {
						mask[i][j] = true
					}
				}
			}
			continue
		}
		if wl.PaylineIndex < 0 || wl.PaylineIndex >= len(cfg.Paylines) {
			continue
		}
		line := cfg.Paylines[wl.PaylineIndex]
		for reel := 0; reel < wl.Count && reel < len(line); reel++ {
			row := line[reel]
			if reel < cfg.Reels && row >= 0 && row < cfg.Rows {
				mask[reel][row] = true
			}
		}
	}

	return mask
}

// busy 组合忙碌标志
func busy(st game.State) bool {
	for i := range st.ReelSpinning {
		if st.ReelSpinning[i] {
			return true
		}
	}
	for i := range st.ReelBouncing {
		if st.ReelBouncing[i] || (i < len(st.ReelExpanding) && st.ReelExpanding[i]) {
			return true
		}
	}
	return st.WinFeedbackVisible || st.FeatureSelectOpen || st.WheelOpen ||
		st.PostExpandReveal || st.Expanding
}
