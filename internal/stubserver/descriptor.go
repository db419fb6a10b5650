// Package stubserver 开发用桩游戏服务器。
// 实现真实服务器的全部端点，结果由本地随机数生成。
// 仅用于客户端联调，不是真实的派彩引擎。
package stubserver

import (
	"github.com/shopspring/decimal"
	"github.com/wfunc/slot-client/internal/game"
)

// dec 便捷构造
func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

// DefaultDescriptor 内置的游戏描述（goldenfields，5卷轴×3行，5条支付线）
func DefaultDescriptor() *game.GameConfig {
	betKeys := []string{"0.5", "1", "2", "5", "10"}

	payouts := func(base float64) map[string]decimal.Decimal {
		m := make(map[string]decimal.Decimal, len(betKeys))
		for _, k := range betKeys {
			m[k] = dec(k).Mul(decimal.NewFromFloat(base))
		}
		return m
	}
	bonusSpins := func(n int) map[string]int {
		m := make(map[string]int, len(betKeys))
		for _, k := range betKeys {
			m[k] = n
		}
		return m
	}

	cfg := &game.GameConfig{
		GameID: "goldenfields",
		Name:   "Golden Fields",
		Reels:  5,
		Rows:   3,
		Symbols: []game.SymbolConfig{
			{ID: "wild", Name: "百搭", Asset: "symbols/wild.png", Payouts: payouts(50)},
			{ID: "scatter", Name: "分散", Asset: "symbols/scatter.png", Payouts: payouts(20)},
			{ID: "sun", Name: "太阳", Asset: "symbols/sun.png", Premium: true, ExpandReels: 2, Payouts: payouts(25), BonusSpins: bonusSpins(3)},
			{ID: "harvest", Name: "丰收", Asset: "symbols/harvest.png", Premium: true, ExpandReels: 2, Payouts: payouts(15), BonusSpins: bonusSpins(2)},
			{ID: "bell", Name: "铃铛", Asset: "symbols/bell.png", Payouts: payouts(10), BonusSpins: bonusSpins(1)},
			{ID: "grape", Name: "葡萄", Asset: "symbols/grape.png", Payouts: payouts(8)},
			{ID: "melon", Name: "西瓜", Asset: "symbols/melon.png", Payouts: payouts(6)},
			{ID: "cherry", Name: "樱桃", Asset: "symbols/cherry.png", Payouts: payouts(4)},
		},
		Paylines: [][]int{
			{1, 1, 1, 1, 1},
			{0, 0, 0, 0, 0},
			{2, 2, 2, 2, 2},
			{0, 1, 2, 1, 0},
			{2, 1, 0, 1, 2},
		},
		BetAmounts: []decimal.Decimal{
			dec("0.5"), dec("1"), dec("2"), dec("5"), dec("10"),
		},
		FreeSpinsAwarded: 10,
		WildSymbol:       "wild",
		ScatterSymbol:    "scatter",
		ReelStrips: [][]string{
			{"cherry", "grape", "bell", "melon", "sun", "cherry", "wild", "grape", "scatter", "melon", "harvest", "cherry", "bell", "grape", "melon"},
			{"grape", "cherry", "melon", "bell", "harvest", "grape", "scatter", "cherry", "wild", "melon", "sun", "grape", "cherry", "bell", "melon"},
			{"melon", "bell", "cherry", "grape", "sun", "melon", "wild", "bell", "scatter", "cherry", "harvest", "melon", "grape", "cherry", "bell"},
			{"bell", "melon", "grape", "cherry", "harvest", "bell", "scatter", "melon", "wild", "grape", "sun", "bell", "cherry", "melon", "grape"},
			{"cherry", "grape", "melon", "bell", "sun", "cherry", "scatter", "grape", "wild", "melon", "harvest", "cherry", "bell", "grape", "melon"},
		},
	}

	return cfg
}

// lineMultipliers 符号连线倍数（相对单线投注）
var lineMultipliers = map[string]map[int]int64{
	"wild":    {3: 50, 4: 200, 5: 1000},
	"sun":     {3: 25, 4: 100, 5: 500},
	"harvest": {3: 15, 4: 60, 5: 250},
	"bell":    {3: 10, 4: 40, 5: 150},
	"grape":   {3: 8, 4: 25, 5: 100},
	"melon":   {3: 6, 4: 15, 5: 60},
	"cherry":  {3: 4, 4: 10, 5: 40},
}

// wheelOutcomes 转盘结果池（与客户端的扇区布局一致）
var wheelOutcomes = []string{
	"6spins", "100", "x2", "3spins", "250", "x5",
	"1spins", "500", "x3", "2spins", "1000", "x10",
}
