package stubserver

import (
	"math/rand"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/wfunc/slot-client/internal/errors"
	"github.com/wfunc/slot-client/internal/game"
)

// StartingBalance 新会话的初始余额
var StartingBalance = decimal.NewFromInt(1000)

// session 服务器侧会话状态
type session struct {
	mu             sync.Mutex
	ID             string
	Balance        decimal.Decimal
	FreeSpins      int
	FeatureSymbol  string
	ActionSpins    int
	AccumulatedWin decimal.Decimal
	LastWin        decimal.Decimal
	LastBet        decimal.Decimal
}

// Engine 桩引擎：生成随机结果并维护会话
type Engine struct {
	mu       sync.Mutex
	sessions map[string]*session
	cfg      *game.GameConfig
	rng      *rand.Rand
}

// NewEngine 创建桩引擎
func NewEngine(cfg *game.GameConfig, seed int64) *Engine {
	return &Engine{
		sessions: make(map[string]*session),
		cfg:      cfg,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// getSession 取会话，不存在时创建
func (e *Engine) getSession(id string) *session {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[id]
	if !ok {
		s = &session{
			ID:      id,
			Balance: StartingBalance,
		}
		e.sessions[id] = s
	}
	return s
}

// reset 重置会话
func (e *Engine) reset(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sessions[id] = &session{
		ID:      id,
		Balance: StartingBalance,
	}
}

// randInt 并发安全的随机数
func (e *Engine) randInt(n int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Intn(n)
}

// spin 执行一次旋转并结算
func (e *Engine) spin(s *session, bet decimal.Decimal) (*game.SpinResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	freeSpin := s.FreeSpins > 0
	if !freeSpin {
		if !e.cfg.ValidBet(bet) {
			return nil, errors.Newf(errors.ErrInvalidBet, "投注 %s 不在投注菜单内", bet)
		}
		if bet.GreaterThan(s.Balance) {
			return nil, errors.New(errors.ErrInsufficientBalance)
		}
		s.Balance = s.Balance.Sub(bet)
		s.LastBet = bet
	} else {
		s.FreeSpins--
		bet = s.LastBet
	}

	grid := e.randomGrid()
	betPerLine := game.BetPerPayline(bet)

	lines := e.evaluateLines(grid, betPerLine)
	win := decimal.Zero
	for _, l := range lines {
		win = win.Add(l.Payout)
	}

	resp := &game.SpinResponse{
		Grid:         grid,
		WinningLines: lines,
	}

	// 分散符号：基础模式达到3个触发免费旋转
	scatterCount := 0
	for i := range grid {
		for j := range grid[i] {
			if grid[i][j] == e.cfg.ScatterSymbol {
				scatterCount++
			}
		}
	}
	if scatterCount >= game.MinScatterCount {
		scatterWin := betPerLine.Mul(decimal.NewFromInt(int64(scatterCount * 5)))
		win = win.Add(scatterWin)
		resp.ScatterWin = &game.ScatterWin{Count: scatterCount}

		if !freeSpin {
			s.FreeSpins = e.cfg.FreeSpinsAwarded
			s.FeatureSymbol = e.pickFeatureSymbol()
			resp.ScatterWin.TriggeredFreeSpins = true
		}
	}

	// 免费旋转中的整列扩展
	if freeSpin && s.FeatureSymbol != "" {
		cells := featureCells(grid, s.FeatureSymbol)
		reels := map[int]bool{}
		for _, c := range cells {
			reels[c.Reel] = true
		}
		if len(reels) >= e.cfg.ExpandThreshold(s.FeatureSymbol) {
			resp.ExpandedSymbols = cells

			expanded := expandGrid(grid, s.FeatureSymbol, reels)
			featureLines := e.evaluateLines(expanded, betPerLine)
			resp.FeatureGameWinningLines = featureLines
			for _, l := range featureLines {
				win = win.Add(l.Payout)
			}
		}
	}

	// 免费旋转期间按投注累计转盘次数
	if freeSpin {
		for _, sym := range e.cfg.Symbols {
			if len(sym.BonusSpins) == 0 {
				continue
			}
			if n := sym.BonusSpins[bet.String()]; n > 0 && containsSymbol(grid, sym.ID) {
				s.ActionSpins += n
				resp.ActionGameTriggered = true
			}
		}
	}

	s.Balance = s.Balance.Add(win)
	s.LastWin = win

	resp.Balance = s.Balance
	resp.LastWin = win
	resp.FreeSpinsRemaining = s.FreeSpins
	resp.FeatureSymbol = s.FeatureSymbol
	resp.ActionGameSpins = s.ActionSpins

	// 免费旋转结束后清除特性符号
	if freeSpin && s.FreeSpins == 0 {
		s.FeatureSymbol = ""
	}

	return resp, nil
}

// spinWheel 执行一次转盘旋转
func (e *Engine) spinWheel(s *session) (*game.ActionSpinResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ActionSpins <= 0 {
		return nil, errors.New(errors.ErrNoWheelSpins)
	}
	s.ActionSpins--

	outcome := wheelOutcomes[e.randInt(len(wheelOutcomes))]

	result := game.WheelResult{WheelResult: outcome}
	switch {
	case strings.HasSuffix(outcome, "spins"):
		n, _ := strconv.Atoi(strings.TrimSuffix(outcome, "spins"))
		result.AdditionalSpins = n
		s.ActionSpins += n
	case strings.HasPrefix(outcome, "x"):
		n, _ := strconv.Atoi(strings.TrimPrefix(outcome, "x"))
		result.Win = s.LastBet.Mul(decimal.NewFromInt(int64(n)))
	default:
		n, _ := strconv.Atoi(outcome)
		result.Win = decimal.NewFromInt(int64(n))
	}

	s.Balance = s.Balance.Add(result.Win)
	s.AccumulatedWin = s.AccumulatedWin.Add(result.Win)

	return &game.ActionSpinResult{
		SessionID:      s.ID,
		Result:         result,
		RemainingSpins: s.ActionSpins,
		AccumulatedWin: s.AccumulatedWin,
		Balance:        s.Balance,
	}, nil
}

// snapshot 会话快照
func (e *Engine) snapshot(s *session) *game.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &game.SessionSnapshot{
		SessionID:          s.ID,
		Balance:            s.Balance,
		FreeSpinsRemaining: s.FreeSpins,
		FeatureSymbol:      s.FeatureSymbol,
		ActionGameSpins:    s.ActionSpins,
		AccumulatedWin:     s.AccumulatedWin,
		LastWin:            s.LastWin,
	}
}

// randomGrid 从卷轴条随机取窗口生成网格
func (e *Engine) randomGrid() [][]string {
	grid := make([][]string, e.cfg.Reels)
	for i := 0; i < e.cfg.Reels; i++ {
		strip := e.cfg.ReelStrips[i]
		offset := e.randInt(len(strip))
		grid[i] = make([]string, e.cfg.Rows)
		for j := 0; j < e.cfg.Rows; j++ {
			grid[i][j] = strip[(offset+j)%len(strip)]
		}
	}
	return grid
}

// evaluateLines 从左到右评估支付线（百搭替代，分散不参与连线）
func (e *Engine) evaluateLines(grid [][]string, betPerLine decimal.Decimal) []game.WinningLine {
	var lines []game.WinningLine

	for idx, payline := range e.cfg.Paylines {
		symbols := make([]string, len(payline))
		for reel, row := range payline {
			symbols[reel] = grid[reel][row]
		}

		base := ""
		count := 0
		for _, sym := range symbols {
			if sym == e.cfg.ScatterSymbol {
				break
			}
			if base == "" || base == e.cfg.WildSymbol {
				base = sym
				count++
				continue
			}
			if sym == base || sym == e.cfg.WildSymbol {
				count++
				continue
			}
			break
		}

		if base == "" || count < 3 {
			continue
		}
		mult, ok := lineMultipliers[base][count]
		if !ok {
			continue
		}

		lines = append(lines, game.WinningLine{
			PaylineIndex: idx,
			Symbol:       base,
			Count:        count,
			Payout:       betPerLine.Mul(decimal.NewFromInt(mult)),
			Line:         append([]int(nil), payline...),
		})
	}

	return lines
}

// pickFeatureSymbol 随机选择高价值符号作为特性符号
func (e *Engine) pickFeatureSymbol() string {
	var premium []string
	for _, s := range e.cfg.Symbols {
		if s.Premium {
			premium = append(premium, s.ID)
		}
	}
	if len(premium) == 0 {
		return ""
	}
	return premium[e.randInt(len(premium))]
}

// featureCells 网格中特性符号的全部位置
func featureCells(grid [][]string, symbol string) []game.CellRef {
	var cells []game.CellRef
	for i := range grid {
		for j := range grid[i] {
			if grid[i][j] == symbol {
				cells = append(cells, game.CellRef{Reel: i, Row: j})
			}
		}
	}
	return cells
}

// expandGrid 在副本上把指定卷轴整列填充特性符号
func expandGrid(grid [][]string, symbol string, reels map[int]bool) [][]string {
	out := make([][]string, len(grid))
	for i := range grid {
		out[i] = append([]string(nil), grid[i]...)
		if reels[i] {
			for j := range out[i] {
				out[i][j] = symbol
			}
		}
	}
	return out
}

// containsSymbol 网格是否包含指定符号
func containsSymbol(grid [][]string, symbol string) bool {
	for i := range grid {
		for j := range grid[i] {
			if grid[i][j] == symbol {
				return true
			}
		}
	}
	return false
}
