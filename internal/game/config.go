package game

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
	"github.com/wfunc/slot-client/internal/errors"
)

// 符号扩展阈值默认值（高价值符号2个卷轴即可扩展，其余需要3个）
const (
	DefaultExpandReels        = 3
	DefaultPremiumExpandReels = 2
)

// SymbolConfig 符号定义
type SymbolConfig struct {
	ID          string                     `json:"id" validate:"required"`
	Name        string                     `json:"name"`
	Asset       string                     `json:"asset" validate:"required"` // 展示素材路径
	Payouts     map[string]decimal.Decimal `json:"payouts"`                   // 投注额 → 赔付（仅供赔率表展示）
	BonusSpins  map[string]int             `json:"bonusSpins"`                // 投注额 → 转盘次数
	Premium     bool                       `json:"premium"`                   // 高价值符号
	ExpandReels int                        `json:"expandReels"`               // 扩展所需卷轴数，0表示使用默认值
}

// GameConfig 游戏描述文档（每会话加载一次，只读）
type GameConfig struct {
	GameID           string            `json:"gameId" validate:"required"`
	Name             string            `json:"name"`
	Reels            int               `json:"reels" validate:"required,min=3"`
	Rows             int               `json:"rows" validate:"required,min=1"`
	Symbols          []SymbolConfig    `json:"symbols" validate:"required,min=1,dive"`
	Paylines         [][]int           `json:"paylines" validate:"required,min=1"` // 每条线：每个卷轴一个行索引
	BetAmounts       []decimal.Decimal `json:"betAmounts" validate:"required,min=1"`
	FreeSpinsAwarded int               `json:"freeSpinsAwarded" validate:"required,min=1"`
	WildSymbol       string            `json:"wildSymbol" validate:"required"`
	ScatterSymbol    string            `json:"scatterSymbol" validate:"required"`
	ReelStrips       [][]string        `json:"reelStrips" validate:"required,min=1"` // 旋转动画用的符号序列

	symbolIndex map[string]*SymbolConfig
}

var validate = validator.New()

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ParseGameConfig 解析并验证游戏描述文档。
// 任何必需字段缺失都是致命配置错误，阻断所有游戏流程。
func ParseGameConfig(data []byte) (*GameConfig, error) {
	cfg := &GameConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.buildIndex()
	return cfg, nil
}

// Validate 验证描述文档的结构约束
func (c *GameConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, errors.ErrConfigValidate)
	}

	// 支付线必须覆盖每个卷轴，行索引必须在网格内
	for i, line := range c.Paylines {
		if len(line) != c.Reels {
			return errors.Newf(errors.ErrConfigValidate,
				"支付线 %d 长度 %d 与卷轴数 %d 不符", i, len(line), c.Reels)
		}
		for reel, row := range line {
			if row < 0 || row >= c.Rows {
				return errors.Newf(errors.ErrConfigValidate,
					"支付线 %d 卷轴 %d 的行索引 %d 超出范围", i, reel, row)
			}
		}
	}

	// 卷轴条必须为每个卷轴提供序列
	if len(c.ReelStrips) != c.Reels {
		return errors.Newf(errors.ErrConfigValidate,
			"卷轴条数量 %d 与卷轴数 %d 不符", len(c.ReelStrips), c.Reels)
	}
	for i, strip := range c.ReelStrips {
		if len(strip) == 0 {
			return errors.Newf(errors.ErrConfigValidate, "卷轴 %d 的卷轴条为空", i)
		}
	}

	// 百搭和分散符号必须存在于符号目录
	ids := make(map[string]bool, len(c.Symbols))
	for _, s := range c.Symbols {
		ids[s.ID] = true
	}
	if !ids[c.WildSymbol] {
		return errors.Newf(errors.ErrConfigMissing, "百搭符号 %s 不在符号目录中", c.WildSymbol)
	}
	if !ids[c.ScatterSymbol] {
		return errors.Newf(errors.ErrConfigMissing, "分散符号 %s 不在符号目录中", c.ScatterSymbol)
	}

	return nil
}

// buildIndex 构建符号索引
func (c *GameConfig) buildIndex() {
	c.symbolIndex = make(map[string]*SymbolConfig, len(c.Symbols))
	for i := range c.Symbols {
		c.symbolIndex[c.Symbols[i].ID] = &c.Symbols[i]
	}
}

// Symbol 按ID查找符号定义
func (c *GameConfig) Symbol(id string) (*SymbolConfig, bool) {
	if c.symbolIndex == nil {
		c.buildIndex()
	}
	s, ok := c.symbolIndex[id]
	return s, ok
}

// ExpandThreshold 返回符号的扩展阈值（需要多少个卷轴出现该符号才触发整列扩展）。
// 阈值是数据驱动的：优先取符号自身的expandReels，否则按是否高价值符号取默认值。
func (c *GameConfig) ExpandThreshold(symbolID string) int {
	s, ok := c.Symbol(symbolID)
	if !ok {
		return DefaultExpandReels
	}
	if s.ExpandReels > 0 {
		return s.ExpandReels
	}
	if s.Premium {
		return DefaultPremiumExpandReels
	}
	return DefaultExpandReels
}

// ValidBet 判断投注额是否在投注菜单内
func (c *GameConfig) ValidBet(bet decimal.Decimal) bool {
	for _, b := range c.BetAmounts {
		if b.Equal(bet) {
			return true
		}
	}
	return false
}

// BetPerPayline 计算每条线的投注额
func BetPerPayline(bet decimal.Decimal) decimal.Decimal {
	return bet.Div(decimal.NewFromInt(NumPaylines))
}

// PaytableEntry 赔率表单行（供赔率表弹窗展示）
type PaytableEntry struct {
	SymbolID   string          `json:"symbol_id"`
	Name       string          `json:"name"`
	Asset      string          `json:"asset"`
	Payout     decimal.Decimal `json:"payout"`
	BonusSpins int             `json:"bonus_spins"`
}

// Paytable 按投注额生成赔率表投影
func (c *GameConfig) Paytable(bet decimal.Decimal) []PaytableEntry {
	key := bet.String()
	entries := make([]PaytableEntry, 0, len(c.Symbols))
	for _, s := range c.Symbols {
		entries = append(entries, PaytableEntry{
			SymbolID:   s.ID,
			Name:       s.Name,
			Asset:      s.Asset,
			Payout:     s.Payouts[key],
			BonusSpins: s.BonusSpins[key],
		})
	}
	return entries
}

// String 便于日志输出
func (c *GameConfig) String() string {
	return fmt.Sprintf("%s (%dx%d, %d条支付线)", c.GameID, c.Reels, c.Rows, len(c.Paylines))
}
