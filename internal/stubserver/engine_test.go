package stubserver

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/slot-client/internal/errors"
	"github.com/wfunc/slot-client/internal/game"
)

func TestDefaultDescriptorValid(t *testing.T) {
	cfg := DefaultDescriptor()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "goldenfields", cfg.GameID)
	assert.Equal(t, 5, cfg.Reels)
	assert.Len(t, cfg.Paylines, game.NumPaylines)

	// 每个连线倍数符号都在符号目录中
	for id := range lineMultipliers {
		_, ok := cfg.Symbol(id)
		assert.True(t, ok, "倍数表符号 %s 缺少定义", id)
	}
}

func TestSpinDeductsBet(t *testing.T) {
	e := NewEngine(DefaultDescriptor(), 42)
	s := e.getSession("sess-1")

	bet := decimal.RequireFromString("1")
	resp, err := e.spin(s, bet)
	require.NoError(t, err)

	// 余额 = 初始 - 投注 + 中奖
	want := StartingBalance.Sub(bet).Add(resp.LastWin)
	assert.True(t, resp.Balance.Equal(want), "期望 %s，实际 %s", want, resp.Balance)
	assert.Len(t, resp.Grid, 5)
	for _, reel := range resp.Grid {
		assert.Len(t, reel, 3)
	}
}

func TestSpinRejectsInvalidBet(t *testing.T) {
	e := NewEngine(DefaultDescriptor(), 42)
	s := e.getSession("sess-1")

	_, err := e.spin(s, decimal.RequireFromString("3"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidBet))
	assert.True(t, s.Balance.Equal(StartingBalance), "拒绝的投注不扣款")
}

func TestSpinRejectsInsufficientBalance(t *testing.T) {
	e := NewEngine(DefaultDescriptor(), 42)
	s := e.getSession("sess-1")
	s.Balance = decimal.RequireFromString("0.4")

	_, err := e.spin(s, decimal.RequireFromString("0.5"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInsufficientBalance))
	assert.True(t, s.Balance.Equal(decimal.RequireFromString("0.4")))
}

func TestFreeSpinConsumesNoBalance(t *testing.T) {
	e := NewEngine(DefaultDescriptor(), 42)
	s := e.getSession("sess-1")
	s.FreeSpins = 3
	s.FeatureSymbol = "sun"
	s.LastBet = decimal.RequireFromString("1")

	before := s.Balance
	resp, err := e.spin(s, decimal.Zero)
	require.NoError(t, err)

	assert.Equal(t, 2, resp.FreeSpinsRemaining, "免费旋转递减")
	assert.True(t, resp.Balance.Equal(before.Add(resp.LastWin)), "免费旋转不扣投注")
}

func TestScatterTriggersFreeSpins(t *testing.T) {
	cfg := DefaultDescriptor()
	e := NewEngine(cfg, 7)
	s := e.getSession("sess-1")

	bet := decimal.RequireFromString("0.5")
	triggered := false
	for i := 0; i < 500 && !triggered; i++ {
		resp, err := e.spin(s, bet)
		require.NoError(t, err)

		if resp.ScatterWin != nil && resp.ScatterWin.TriggeredFreeSpins {
			triggered = true
			assert.GreaterOrEqual(t, resp.ScatterWin.Count, game.MinScatterCount)
			assert.Equal(t, cfg.FreeSpinsAwarded, resp.FreeSpinsRemaining)

			sym, ok := cfg.Symbol(resp.FeatureSymbol)
			require.True(t, ok, "特性符号必须在符号目录中")
			assert.True(t, sym.Premium, "特性符号从高价值符号中选择")
		}
	}
	require.True(t, triggered, "500次旋转内必然出现分散触发")
}

func TestEvaluateLines(t *testing.T) {
	e := NewEngine(DefaultDescriptor(), 42)
	betPerLine := decimal.RequireFromString("0.2")

	// 中间线（payline 0）：3个铃铛后断开
	grid := [][]string{
		{"cherry", "bell", "cherry"},
		{"grape", "bell", "grape"},
		{"melon", "bell", "melon"},
		{"cherry", "grape", "cherry"},
		{"grape", "cherry", "grape"},
	}

	lines := e.evaluateLines(grid, betPerLine)
	require.Len(t, lines, 1)
	assert.Equal(t, 0, lines[0].PaylineIndex)
	assert.Equal(t, "bell", lines[0].Symbol)
	assert.Equal(t, 3, lines[0].Count)
	// 3连铃铛倍数10
	assert.True(t, lines[0].Payout.Equal(betPerLine.Mul(decimal.NewFromInt(10))))
	assert.Equal(t, []int{1, 1, 1, 1, 1}, lines[0].Line)
}

func TestEvaluateLinesWildSubstitution(t *testing.T) {
	e := NewEngine(DefaultDescriptor(), 42)
	betPerLine := decimal.RequireFromString("0.2")

	// 百搭开头接4连葡萄：wild视作葡萄，共5连
	grid := [][]string{
		{"cherry", "wild", "cherry"},
		{"grape", "grape", "melon"},
		{"melon", "wild", "bell"},
		{"cherry", "grape", "cherry"},
		{"grape", "grape", "melon"},
	}

	lines := e.evaluateLines(grid, betPerLine)
	require.Len(t, lines, 1)
	assert.Equal(t, "grape", lines[0].Symbol)
	assert.Equal(t, 5, lines[0].Count)
	assert.True(t, lines[0].Payout.Equal(betPerLine.Mul(decimal.NewFromInt(100))))
}

func TestEvaluateLinesScatterBreaksLine(t *testing.T) {
	e := NewEngine(DefaultDescriptor(), 42)
	betPerLine := decimal.RequireFromString("0.2")

	grid := [][]string{
		{"cherry", "bell", "cherry"},
		{"grape", "bell", "grape"},
		{"melon", "scatter", "melon"},
		{"cherry", "bell", "cherry"},
		{"grape", "bell", "grape"},
	}

	// 分散符号截断中间线，只剩2连不成线
	lines := e.evaluateLines(grid, betPerLine)
	assert.Empty(t, lines)
}

func TestExpandGrid(t *testing.T) {
	grid := [][]string{
		{"cherry", "sun", "cherry"},
		{"grape", "grape", "melon"},
		{"sun", "bell", "bell"},
	}

	out := expandGrid(grid, "sun", map[int]bool{0: true, 2: true})
	assert.Equal(t, []string{"sun", "sun", "sun"}, out[0])
	assert.Equal(t, []string{"grape", "grape", "melon"}, out[1], "未命中的卷轴不变")
	assert.Equal(t, []string{"sun", "sun", "sun"}, out[2])
	assert.Equal(t, []string{"cherry", "sun", "cherry"}, grid[0], "原网格不被修改")
}

func TestFeatureCells(t *testing.T) {
	grid := [][]string{
		{"cherry", "sun", "cherry"},
		{"grape", "grape", "melon"},
		{"sun", "bell", "sun"},
	}

	cells := featureCells(grid, "sun")
	assert.ElementsMatch(t, []game.CellRef{
		{Reel: 0, Row: 1},
		{Reel: 2, Row: 0},
		{Reel: 2, Row: 2},
	}, cells)

	assert.Empty(t, featureCells(grid, "harvest"))
	assert.True(t, containsSymbol(grid, "bell"))
	assert.False(t, containsSymbol(grid, "wild"))
}

func TestSpinWheel(t *testing.T) {
	e := NewEngine(DefaultDescriptor(), 42)
	s := e.getSession("sess-1")
	s.ActionSpins = 1
	s.LastBet = decimal.RequireFromString("2")
	before := s.Balance

	res, err := e.spinWheel(s)
	require.NoError(t, err)

	assert.Contains(t, wheelOutcomes, res.Result.WheelResult)
	assert.Equal(t, res.Result.AdditionalSpins, res.RemainingSpins, "消费1次后剩余等于新增次数")
	assert.True(t, res.Balance.Equal(before.Add(res.Result.Win)), "奖金立即入账")
	assert.True(t, res.AccumulatedWin.Equal(res.Result.Win))
}

func TestSpinWheelWithoutSpins(t *testing.T) {
	e := NewEngine(DefaultDescriptor(), 42)
	s := e.getSession("sess-1")

	_, err := e.spinWheel(s)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNoWheelSpins))
}

func TestResetSession(t *testing.T) {
	e := NewEngine(DefaultDescriptor(), 42)
	s := e.getSession("sess-1")

	_, err := e.spin(s, decimal.RequireFromString("1"))
	require.NoError(t, err)

	e.reset("sess-1")
	snap := e.snapshot(e.getSession("sess-1"))
	assert.True(t, snap.Balance.Equal(StartingBalance))
	assert.Zero(t, snap.FreeSpinsRemaining)
	assert.True(t, snap.AccumulatedWin.IsZero())
}

func TestSessionIsolation(t *testing.T) {
	e := NewEngine(DefaultDescriptor(), 42)
	s1 := e.getSession("sess-1")
	s2 := e.getSession("sess-2")

	_, err := e.spin(s1, decimal.RequireFromString("10"))
	require.NoError(t, err)

	assert.True(t, s2.Balance.Equal(StartingBalance), "会话之间互不影响")
	assert.Same(t, s1, e.getSession("sess-1"), "同一ID返回同一会话")
}
