package render

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWinCounterTween(t *testing.T) {
	target := decimal.RequireFromString("100")
	w := NewWinCounter(target, time.Second)

	assert.Equal(t, "0", w.Value(w.start).String())
	assert.Equal(t, "50", w.Value(w.start.Add(500*time.Millisecond)).String())
	assert.Equal(t, "100", w.Value(w.start.Add(time.Second)).String())
	assert.Equal(t, "100", w.Value(w.start.Add(2*time.Second)).String(), "超时后停在终值")

	assert.False(t, w.Done(w.start.Add(500*time.Millisecond)))
	assert.True(t, w.Done(w.start.Add(time.Second)))
}

func TestWinCounterInstantInTurboMode(t *testing.T) {
	target := decimal.RequireFromString("42.5")
	w := NewWinCounter(target, 0)

	assert.Equal(t, "42.5", w.Value(time.Now()).String(), "零时长直接显示终值")
	assert.True(t, w.Done(time.Now()))
}

func TestPaytableView(t *testing.T) {
	cfg := renderConfig()
	cfg.Symbols[2].Payouts = map[string]decimal.Decimal{"1": decimal.NewFromInt(50)}
	cfg.Symbols[2].BonusSpins = map[string]int{"1": 3}
	cfg.Symbols[3].Payouts = map[string]decimal.Decimal{"1": decimal.NewFromInt(10)}

	rows := PaytableView(cfg, decimal.RequireFromString("1"))
	require.Len(t, rows, len(cfg.Symbols))

	bySymbol := make(map[string]PaytableRow, len(rows))
	for _, r := range rows {
		bySymbol[r.Symbol] = r
	}

	sun := bySymbol["sun"]
	assert.Equal(t, "太阳", sun.Name)
	assert.Equal(t, "50", sun.Payout.String())
	assert.Equal(t, 3, sun.BonusSpins)
	assert.True(t, sun.Premium)

	bell := bySymbol["bell"]
	assert.Equal(t, "10", bell.Payout.String())
	assert.Zero(t, bell.BonusSpins)
	assert.False(t, bell.Premium)

	// 没有该投注档赔付的符号显示零赔付
	assert.True(t, bySymbol["cherry"].Payout.IsZero())
}

func TestPaytableViewChangesWithBet(t *testing.T) {
	cfg := renderConfig()
	cfg.Symbols[2].Payouts = map[string]decimal.Decimal{
		"1": decimal.NewFromInt(50),
		"2": decimal.NewFromInt(100),
	}

	rows := PaytableView(cfg, decimal.RequireFromString("2"))
	for _, r := range rows {
		if r.Symbol == "sun" {
			assert.Equal(t, "100", r.Payout.String(), "赔付随投注档位变化")
		}
	}
}

func TestAutoplayMenuSettings(t *testing.T) {
	m := NewAutoplayMenu()
	assert.Equal(t, AutoplayOptions[0], m.Selected)

	m.Selected = 50
	m.StopOnAnyWin = true
	m.SingleWinLimit = decimal.RequireFromString("100")

	settings := m.Settings()
	assert.Equal(t, 50, settings.Spins)
	assert.True(t, settings.StopOnAnyWin)
	assert.False(t, settings.StopOnFeature)
	assert.Equal(t, "100", settings.SingleWinLimit.String())
	assert.True(t, settings.LossLimit.IsZero())
}

func TestBetMenuCycle(t *testing.T) {
	m := NewBetMenu(renderConfig())

	assert.Equal(t, "0.5", m.Current().String())
	assert.Equal(t, "1", m.Next().String())
	assert.Equal(t, "2", m.Next().String())
	assert.Equal(t, "0.5", m.Next().String(), "越过末档回到首档")
	assert.Equal(t, "2", m.Prev().String(), "从首档后退到末档")
}
