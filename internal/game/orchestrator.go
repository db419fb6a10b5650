package game

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wfunc/slot-client/internal/errors"
	"go.uber.org/zap"
)

// State 编排器状态快照。
// 编排器是唯一的写入方；渲染器等子组件只拿到值拷贝。
type State struct {
	Grid               [][]string      // 卷轴×行 当前显示的符号
	ReelSpinning       []bool          // 每个卷轴是否旋转中
	ReelBouncing       []bool          // 每个卷轴是否回弹中
	ReelExpanding      []bool          // 每个卷轴是否扩展中
	WinningLines       []WinningLine   // 当前展示的中奖线
	Bet                decimal.Decimal // 当前投注额
	Balance            decimal.Decimal // 余额（服务器权威值）
	LastWin            decimal.Decimal // 上次中奖金额（服务器权威值）
	FreeSpinsRemaining int             // 剩余免费旋转（服务器权威值）
	FeatureSymbol      string          // 特性符号（服务器权威值）
	ActionSpins        int             // 未消费的转盘次数（服务器权威值）
	AccumulatedWin     decimal.Decimal // 转盘累计奖金（只增不减，会话重置除外）
	WinFeedbackVisible bool            // 中奖反馈是否可见
	FeatureSelectOpen  bool            // 特性符号选择弹层是否打开
	WheelOpen          bool            // 转盘弹层是否打开
	PostExpandReveal   bool            // 扩展后的特性结果展示是否可见
	Expanding          bool            // 扩展序列进行中（整个序列期间保持忙碌）
}

// SpinOutcome 单回合结果摘要（自动旋转据此判断停止条件）
type SpinOutcome struct {
	RoundID          string
	Win              decimal.Decimal
	Balance          decimal.Decimal
	FreeSpins        int
	FeatureTriggered bool // 分散触发免费旋转
	WheelTriggered   bool // 转盘被触发
	FreeSpin         bool // 本回合是否免费旋转
}

// OrchestratorConfig 编排器配置
type OrchestratorConfig struct {
	GameConfig *GameConfig
	Server     GameServer
	SessionID  string
	Bus        *Bus
	Logger     *zap.Logger
	Timings    TimingProfile
}

// round 单回合上下文
type round struct {
	id       string
	gen      uint64
	ctx      context.Context
	cancel   context.CancelFunc
	req      *SpinRequest
	freeSpin bool
	start    time.Time
	t        TimingProfile // 回合开始时固定，回合中途切换涡轮不影响本回合
}

// Orchestrator 旋转编排器。
// 独占持有所有会话面向状态（余额、免费旋转、转盘次数），
// 驱动 校验→锁定输入→请求→解读响应→演出→解锁输入 的完整序列。
// 不变量：同一时刻最多一个旋转请求在途；新的旋转会先取消
// 上一回合未完成的演出回调（通过代际计数在每个挂起点检查）。
type Orchestrator struct {
	mu      sync.Mutex
	cfg     *GameConfig
	server  GameServer
	bus     *Bus
	logger  *zap.Logger
	timings TimingProfile

	sessionID string
	fsm       *PhaseMachine

	st  State
	gen uint64 // 回合代际，新的旋转使旧回合的延续作废

	cancelRound context.CancelFunc
}

// NewOrchestrator 创建编排器
func NewOrchestrator(cfg *OrchestratorConfig) *Orchestrator {
	gc := cfg.GameConfig

	o := &Orchestrator{
		cfg:       gc,
		server:    cfg.Server,
		bus:       cfg.Bus,
		logger:    cfg.Logger,
		timings:   cfg.Timings,
		sessionID: cfg.SessionID,
		fsm:       NewPhaseMachine(cfg.SessionID, cfg.Logger),
	}

	// 初始网格取每个卷轴条的起始符号
	o.st.Grid = make([][]string, gc.Reels)
	for i := range o.st.Grid {
		o.st.Grid[i] = make([]string, gc.Rows)
		for j := range o.st.Grid[i] {
			o.st.Grid[i][j] = gc.ReelStrips[i][j%len(gc.ReelStrips[i])]
		}
	}
	o.st.ReelSpinning = make([]bool, gc.Reels)
	o.st.ReelBouncing = make([]bool, gc.Reels)
	o.st.ReelExpanding = make([]bool, gc.Reels)
	o.st.Bet = gc.BetAmounts[0]

	return o
}

// State 获取状态快照（深拷贝）
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

// snapshotLocked 深拷贝当前状态
func (o *Orchestrator) snapshotLocked() State {
	snap := o.st
	snap.Grid = make([][]string, len(o.st.Grid))
	for i := range o.st.Grid {
		snap.Grid[i] = append([]string(nil), o.st.Grid[i]...)
	}
	snap.ReelSpinning = append([]bool(nil), o.st.ReelSpinning...)
	snap.ReelBouncing = append([]bool(nil), o.st.ReelBouncing...)
	snap.ReelExpanding = append([]bool(nil), o.st.ReelExpanding...)
	snap.WinningLines = append([]WinningLine(nil), o.st.WinningLines...)
	return snap
}

// Phase 当前回合阶段
func (o *Orchestrator) Phase() Phase {
	return o.fsm.GetPhase()
}

// SetBet 设置投注额（必须在投注菜单内，且不能在旋转中修改）
func (o *Orchestrator) SetBet(bet decimal.Decimal) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.anySpinningLocked() {
		return errors.New(errors.ErrSpinInProgress)
	}
	if !o.cfg.ValidBet(bet) {
		return errors.Newf(errors.ErrInvalidBet, "投注 %s 不在投注菜单内", bet)
	}

	o.st.Bet = bet
	return nil
}

// SetTimings 切换演出节奏（涡轮开关）
func (o *Orchestrator) SetTimings(t TimingProfile) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.timings = t
}

// Timings 当前演出节奏
func (o *Orchestrator) Timings() TimingProfile {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.timings
}

// CanSpin 判断当前是否可以发起新的旋转
func (o *Orchestrator) CanSpin() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.canSpinLocked()
}

// anySpinningLocked 是否有卷轴在旋转
func (o *Orchestrator) anySpinningLocked() bool {
	for _, s := range o.st.ReelSpinning {
		if s {
			return true
		}
	}
	return false
}

// isBusyLocked 组合忙碌标志：卷轴旋转、中奖反馈、扩展/回弹、
// 弹层打开、扩展后结果展示，任意一项为真即忙碌。
func (o *Orchestrator) isBusyLocked() bool {
	if o.anySpinningLocked() {
		return true
	}
	for i := range o.st.ReelBouncing {
		if o.st.ReelBouncing[i] || o.st.ReelExpanding[i] {
			return true
		}
	}
	return o.st.WinFeedbackVisible ||
		o.st.FeatureSelectOpen ||
		o.st.WheelOpen ||
		o.st.PostExpandReveal ||
		o.st.Expanding
}

// freeSpinModeLocked 是否处于免费旋转模式
func (o *Orchestrator) freeSpinModeLocked() bool {
	return o.st.FreeSpinsRemaining > 0
}

// canSpinLocked 旋转前置条件。
// 免费旋转模式要求所有忙碌标志为假；基础模式只有"卷轴确实在转"
// 才阻止新旋转，允许玩家打断收尾中的中奖动画——这是刻意保留的
// 交互手感，不是缺陷。
func (o *Orchestrator) canSpinLocked() bool {
	if o.st.FeatureSelectOpen || o.st.WheelOpen {
		return false
	}
	if o.freeSpinModeLocked() {
		return !o.isBusyLocked()
	}
	return !o.anySpinningLocked() && !o.st.Expanding
}

// Spin 执行一个完整回合：校验→锁定→请求→解读→演出→解锁。
// 阻塞直到回合结束；被新的旋转取代时返回 ErrRoundCanceled。
func (o *Orchestrator) Spin(ctx context.Context) (*SpinOutcome, error) {
	r, err := o.beginRound(ctx)
	if err != nil {
		return nil, err
	}
	defer r.cancel()

	return o.runRound(r)
}

// beginRound 校验前置条件，取消上一回合，同步清理过期视觉状态。
// 返回时网络请求尚未发出，但UI已不可能再看到上一回合的残留。
func (o *Orchestrator) beginRound(ctx context.Context) (*round, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.canSpinLocked() {
		return nil, errors.New(errors.ErrSpinInProgress)
	}

	freeSpin := o.freeSpinModeLocked()

	// 余额前置检查：有免费旋转或转盘次数时不消耗余额
	if !freeSpin && o.st.ActionSpins == 0 && o.st.Bet.GreaterThan(o.st.Balance) {
		return nil, errors.Newf(errors.ErrInsufficientBalance,
			"余额 %s, 投注 %s", o.st.Balance, o.st.Bet)
	}

	// 取消上一回合：其所有延续在恢复时发现代际不符会自行作废
	if o.cancelRound != nil {
		o.cancelRound()
		o.cancelRound = nil
	}
	if phase := o.fsm.GetPhase(); phase != PhaseIdle {
		if err := o.fsm.Trigger(eventCancel); err != nil {
			return nil, errors.Wrap(err, errors.ErrGameStateError)
		}
	}
	o.gen++

	// 同步清理过期视觉状态，网络请求发出前UI绝不显示旧结果
	o.st.WinningLines = nil
	o.st.WinFeedbackVisible = false
	o.st.PostExpandReveal = false
	o.st.Expanding = false
	for i := range o.st.ReelBouncing {
		o.st.ReelBouncing[i] = false
		o.st.ReelExpanding[i] = false
	}

	if err := o.fsm.Trigger(eventSpin); err != nil {
		return nil, errors.Wrap(err, errors.ErrGameStateError)
	}

	rctx, cancel := context.WithCancel(ctx)
	r := &round{
		id:       uuid.New().String(),
		gen:      o.gen,
		ctx:      rctx,
		cancel:   cancel,
		freeSpin: freeSpin,
		start:    time.Now(),
		t:        o.timings,
		req: &SpinRequest{
			SessionID:       o.sessionID,
			BetAmount:       o.st.Bet,
			NumPaylines:     NumPaylines,
			BetPerPayline:   BetPerPayline(o.st.Bet),
			ActionGameSpins: o.st.ActionSpins,
			GameID:          o.cfg.GameID,
		},
	}
	o.cancelRound = cancel

	o.logger.Info("回合开始",
		zap.String("round_id", r.id),
		zap.String("bet", r.req.BetAmount.String()),
		zap.Bool("free_spin", freeSpin))

	o.bus.Publish(Event{Type: EventRoundStarted, RoundID: r.id, Payload: r.req})

	return r, nil
}

// playResult 网络请求结果
type playResult struct {
	resp *SpinResponse
	err  error
}

// runRound 执行回合主序列。
// 每个挂起点（定时器、网络）恢复后都重新检查取消状态。
func (o *Orchestrator) runRound(r *round) (*SpinOutcome, error) {
	// 请求与起转演出并行：请求立即发出，卷轴按间隔依次起转
	resCh := make(chan playResult, 1)
	go func() {
		resp, err := o.server.Play(r.ctx, r.req)
		resCh <- playResult{resp: resp, err: err}
	}()

	for i := 0; i < o.cfg.Reels; i++ {
		o.mu.Lock()
		if !o.stillCurrentLocked(r) {
			o.mu.Unlock()
			return nil, o.abortCanceled(r)
		}
		o.st.ReelSpinning[i] = true
		o.mu.Unlock()

		o.bus.Publish(Event{Type: EventReelSpinning, RoundID: r.id, Payload: i})

		if err := o.wait(r, r.t.ReelStagger); err != nil {
			return nil, err
		}
	}

	// 等待服务器响应
	var res playResult
	select {
	case res = <-resCh:
	case <-r.ctx.Done():
		return nil, o.abortCanceled(r)
	}

	if res.err != nil {
		// 取消可能先从请求错误里冒出来，归类为取消而不是网络失败
		if r.ctx.Err() != nil {
			return nil, o.abortCanceled(r)
		}
		return nil, o.abortFailed(r, res.err)
	}
	resp := res.resp

	// 最短旋转时长：服务器响应太快时不能让停轮显得突兀
	if elapsed := time.Since(r.start); elapsed < r.t.MinSpinDuration {
		if err := o.wait(r, r.t.MinSpinDuration-elapsed); err != nil {
			return nil, err
		}
	}

	if err := o.fsm.Trigger(eventResult); err != nil {
		return nil, errors.Wrap(err, errors.ErrGameStateError)
	}

	// 依次停轮：间隔递增，停止时回弹（涡轮模式跳过）
	for i := 0; i < o.cfg.Reels; i++ {
		delay := r.t.ReelStopBase + time.Duration(i)*r.t.ReelStopStep
		if err := o.wait(r, delay); err != nil {
			return nil, err
		}

		o.mu.Lock()
		if !o.stillCurrentLocked(r) {
			o.mu.Unlock()
			return nil, o.abortCanceled(r)
		}
		o.st.ReelSpinning[i] = false
		if i < len(resp.Grid) {
			copy(o.st.Grid[i], resp.Grid[i])
		}
		bounce := r.t.BounceDuration > 0
		if bounce {
			o.st.ReelBouncing[i] = true
		}
		o.mu.Unlock()

		o.bus.Publish(Event{Type: EventReelStopped, RoundID: r.id, Payload: i})

		if bounce {
			if err := o.wait(r, r.t.BounceDuration); err != nil {
				return nil, err
			}
			o.mu.Lock()
			if o.stillCurrentLocked(r) {
				o.st.ReelBouncing[i] = false
			}
			o.mu.Unlock()
		}
	}

	// 所有卷轴停稳后才更新权威数值并展示中奖线，保持悬念
	lines := o.displayLines(resp)

	o.mu.Lock()
	if !o.stillCurrentLocked(r) {
		o.mu.Unlock()
		return nil, o.abortCanceled(r)
	}
	o.st.Balance = resp.Balance
	o.st.LastWin = resp.LastWin
	o.st.FreeSpinsRemaining = resp.FreeSpinsRemaining
	o.st.FeatureSymbol = resp.FeatureSymbol
	o.st.ActionSpins = resp.ActionGameSpins
	o.st.WinningLines = lines
	o.st.WinFeedbackVisible = len(lines) > 0
	o.mu.Unlock()

	o.bus.Publish(Event{Type: EventBalanceUpdated, RoundID: r.id, Payload: resp.Balance})
	if len(lines) > 0 {
		o.bus.Publish(Event{Type: EventWinRevealed, RoundID: r.id, Payload: lines})
	}

	// 免费旋转中特性符号达到阈值时整列扩展
	expanded := false
	if r.freeSpin && o.shouldExpand(resp) {
		if err := o.runExpansion(r, resp); err != nil {
			return nil, err
		}
		expanded = true
	} else {
		// 中奖反馈是尾随演出：免费旋转模式下停留 WinDwell 后消退，
		// 旋转门闩才能重新打开。基础模式由下一次旋转打断清除。
		if len(lines) > 0 && (r.freeSpin || resp.FreeSpinsRemaining > 0) {
			if err := o.wait(r, r.t.WinDwell); err != nil {
				return nil, err
			}
			o.mu.Lock()
			if o.stillCurrentLocked(r) {
				o.st.WinFeedbackVisible = false
			}
			o.mu.Unlock()
		}
		if err := o.fsm.Trigger(eventSettle); err != nil {
			return nil, errors.Wrap(err, errors.ErrGameStateError)
		}
	}

	// 分散触发免费旋转：回到待机后打开特性符号选择弹层
	featureTriggered := resp.ScatterWin != nil &&
		resp.ScatterWin.TriggeredFreeSpins &&
		resp.ScatterWin.Count >= MinScatterCount &&
		!r.freeSpin

	// 免费旋转结束且有未消费的转盘次数或累计奖金时打开转盘
	o.mu.Lock()
	wheelPending := r.freeSpin && resp.FreeSpinsRemaining == 0 &&
		(resp.ActionGameSpins > 0 || resp.ActionGameTriggered || o.st.AccumulatedWin.IsPositive())
	o.mu.Unlock()

	if err := o.fsm.Trigger(eventFinish); err != nil {
		return nil, errors.Wrap(err, errors.ErrGameStateError)
	}

	record := o.buildRecord(r, resp, expanded)
	o.bus.Publish(Event{Type: EventRoundSettled, RoundID: r.id, Payload: record})

	o.logger.Info("回合结束",
		zap.String("round_id", r.id),
		zap.String("win", resp.LastWin.String()),
		zap.String("balance", resp.Balance.String()),
		zap.Int("free_spins", resp.FreeSpinsRemaining))

	if featureTriggered {
		o.bus.Publish(Event{Type: EventFreeSpinsAwarded, RoundID: r.id, Payload: resp.FreeSpinsRemaining})
		o.OpenFeatureSelect()
	} else if wheelPending {
		o.OpenActionWheel()
	}

	o.mu.Lock()
	outcome := &SpinOutcome{
		RoundID:          r.id,
		Win:              resp.LastWin,
		Balance:          resp.Balance,
		FreeSpins:        resp.FreeSpinsRemaining,
		FeatureTriggered: featureTriggered,
		WheelTriggered:   wheelPending || resp.ActionGameTriggered,
		FreeSpin:         r.freeSpin,
	}
	if o.cancelRound != nil && o.gen == r.gen {
		o.cancelRound = nil
	}
	o.mu.Unlock()

	return outcome, nil
}

// validLines 过滤支付线索引越界的条目，服务器字段异常不能进入展示状态
func (o *Orchestrator) validLines(raw []WinningLine) []WinningLine {
	var lines []WinningLine
	for _, wl := range raw {
		if wl.PaylineIndex >= 0 && wl.PaylineIndex < len(o.cfg.Paylines) {
			lines = append(lines, wl)
		}
	}
	return lines
}

// displayLines 过滤有效支付线并合成分散奖励条目
func (o *Orchestrator) displayLines(resp *SpinResponse) []WinningLine {
	lines := o.validLines(resp.WinningLines)

	if resp.ScatterWin != nil && resp.ScatterWin.Count >= MinScatterCount {
		lines = append(lines, WinningLine{
			PaylineIndex: ScatterPaylineIndex,
			Symbol:       o.cfg.ScatterSymbol,
			Count:        resp.ScatterWin.Count,
		})
	}

	return lines
}

// shouldExpand 判断扩展条件：服务器标识的扩展卷轴数达到符号阈值
func (o *Orchestrator) shouldExpand(resp *SpinResponse) bool {
	if resp.FeatureSymbol == "" || len(resp.ExpandedSymbols) == 0 {
		return false
	}
	return len(expandedReels(resp.ExpandedSymbols)) >= o.cfg.ExpandThreshold(resp.FeatureSymbol)
}

// expandedReels 从单元列表提取去重后的卷轴索引（保持升序）
func expandedReels(cells []CellRef) []int {
	seen := make(map[int]bool)
	var reels []int
	for _, c := range cells {
		if !seen[c.Reel] {
			seen[c.Reel] = true
			reels = append(reels, c.Reel)
		}
	}
	for i := 1; i < len(reels); i++ {
		for j := i; j > 0 && reels[j] < reels[j-1]; j-- {
			reels[j], reels[j-1] = reels[j-1], reels[j]
		}
	}
	return reels
}

// runExpansion 执行整列扩展序列。
// 忙碌标志在循环开始前置位、最后一个卷轴动画结束后才清除，
// 自动旋转和快捷键在整个扩展期间都无法发起新回合。
func (o *Orchestrator) runExpansion(r *round, resp *SpinResponse) error {
	if err := o.fsm.Trigger(eventExpand); err != nil {
		return errors.Wrap(err, errors.ErrGameStateError)
	}

	o.mu.Lock()
	if !o.stillCurrentLocked(r) {
		o.mu.Unlock()
		return o.abortCanceled(r)
	}
	o.st.Expanding = true
	o.mu.Unlock()

	o.bus.Publish(Event{Type: EventExpansionStarted, RoundID: r.id, Payload: resp.FeatureSymbol})

	for _, reel := range expandedReels(resp.ExpandedSymbols) {
		if reel < 0 || reel >= o.cfg.Reels {
			continue
		}

		o.mu.Lock()
		if !o.stillCurrentLocked(r) {
			o.mu.Unlock()
			return o.abortCanceled(r)
		}
		o.st.ReelExpanding[reel] = true
		o.mu.Unlock()

		o.bus.Publish(Event{Type: EventExpansionStep, RoundID: r.id, Payload: reel})

		if err := o.wait(r, r.t.ExpansionStep); err != nil {
			return err
		}

		// 动画播完后才改写网格：整列填充特性符号
		o.mu.Lock()
		if !o.stillCurrentLocked(r) {
			o.mu.Unlock()
			return o.abortCanceled(r)
		}
		for row := range o.st.Grid[reel] {
			o.st.Grid[reel][row] = resp.FeatureSymbol
		}
		o.st.ReelExpanding[reel] = false
		o.mu.Unlock()

		if err := o.wait(r, r.t.ExpansionSettle); err != nil {
			return err
		}
	}

	if err := o.fsm.Trigger(eventFeatureReveal); err != nil {
		return errors.Wrap(err, errors.ErrGameStateError)
	}

	// 基础中奖线被特性中奖线取代；没有特性中奖则全部清除
	featureLines := o.validLines(resp.FeatureGameWinningLines)

	o.mu.Lock()
	if !o.stillCurrentLocked(r) {
		o.mu.Unlock()
		return o.abortCanceled(r)
	}
	if len(featureLines) > 0 {
		o.st.WinningLines = featureLines
		o.st.WinFeedbackVisible = true
		o.st.PostExpandReveal = true
	} else {
		o.st.WinningLines = nil
		o.st.WinFeedbackVisible = false
		o.st.PostExpandReveal = false
	}
	o.mu.Unlock()

	o.bus.Publish(Event{Type: EventFeatureRevealed, RoundID: r.id, Payload: featureLines})

	// 固定停留时间，防止自动旋转抢在视觉展示前开始下一回合
	if err := o.wait(r, r.t.FeatureDwell); err != nil {
		return err
	}

	o.mu.Lock()
	if o.stillCurrentLocked(r) {
		o.st.WinFeedbackVisible = false
		o.st.PostExpandReveal = false
		o.st.Expanding = false
	}
	o.mu.Unlock()

	if err := o.fsm.Trigger(eventSettle); err != nil {
		return errors.Wrap(err, errors.ErrGameStateError)
	}

	return nil
}

// buildRecord 构建回合展示记录
func (o *Orchestrator) buildRecord(r *round, resp *SpinResponse, expanded bool) *RoundRecord {
	grid := make([][]string, len(resp.Grid))
	for i := range resp.Grid {
		grid[i] = append([]string(nil), resp.Grid[i]...)
	}

	return &RoundRecord{
		RoundID:       r.id,
		SessionID:     o.sessionID,
		BetAmount:     r.req.BetAmount,
		WinAmount:     resp.LastWin,
		Balance:       resp.Balance,
		Grid:          grid,
		WinningLines:  o.displayLines(resp),
		FreeSpin:      r.freeSpin,
		FeatureSymbol: resp.FeatureSymbol,
		Expanded:      expanded,
		PlayedAt:      time.Now(),
	}
}

// stillCurrentLocked 判断回合是否仍然有效（未被新的旋转取代）
func (o *Orchestrator) stillCurrentLocked(r *round) bool {
	return o.gen == r.gen
}

// wait 可取消的延迟。挂起点恢复后立即检查取消状态。
func (o *Orchestrator) wait(r *round, d time.Duration) error {
	if d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-r.ctx.Done():
			return o.abortCanceled(r)
		}
	}

	o.mu.Lock()
	current := o.stillCurrentLocked(r)
	o.mu.Unlock()
	if !current {
		return o.abortCanceled(r)
	}
	return nil
}

// abortCanceled 回合被取代或调用方取消。
// 只有仍是当前代际时（外部取消而非新旋转取代）才清理旋转标志，
// 否则状态已归新回合所有，旧回合的延续不得再触碰。
func (o *Orchestrator) abortCanceled(r *round) error {
	o.mu.Lock()
	if o.stillCurrentLocked(r) {
		for i := range o.st.ReelSpinning {
			o.st.ReelSpinning[i] = false
			o.st.ReelBouncing[i] = false
			o.st.ReelExpanding[i] = false
		}
		o.st.Expanding = false
		if o.fsm.GetPhase() != PhaseIdle {
			_ = o.fsm.Trigger(eventCancel)
		}
		if o.cancelRound != nil {
			o.cancelRound = nil
		}
	}
	o.mu.Unlock()

	o.bus.Publish(Event{Type: EventRoundCanceled, RoundID: r.id})
	return errors.New(errors.ErrRoundCanceled)
}

// abortFailed 网络失败：清理所有旋转标志，回合干净中止回到待机。
// 不自动重试——对真钱游戏来说，静默重试可能导致重复下注。
func (o *Orchestrator) abortFailed(r *round, cause error) error {
	o.mu.Lock()
	if o.stillCurrentLocked(r) {
		for i := range o.st.ReelSpinning {
			o.st.ReelSpinning[i] = false
			o.st.ReelBouncing[i] = false
			o.st.ReelExpanding[i] = false
		}
		o.st.Expanding = false
		if o.cancelRound != nil {
			o.cancelRound = nil
		}
	}
	o.mu.Unlock()

	_ = o.fsm.Trigger(eventFail)

	err := errors.Wrap(cause, errors.ErrAPIRequest)
	o.logger.Error("回合失败",
		zap.String("round_id", r.id),
		zap.Error(cause))

	o.bus.Publish(Event{Type: EventRoundFailed, RoundID: r.id, Payload: err.Message})
	return err
}

// OpenFeatureSelect 打开特性符号选择弹层
func (o *Orchestrator) OpenFeatureSelect() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.st.FeatureSelectOpen {
		return
	}
	if err := o.fsm.Trigger(eventOpenFeatureSelect); err != nil {
		o.logger.Warn("无法打开特性符号选择弹层", zap.Error(err))
		return
	}
	o.st.FeatureSelectOpen = true
	o.bus.Publish(Event{Type: EventFeatureSelectOpen, Payload: o.st.FeatureSymbol})
}

// CompleteFeatureSelect 特性符号选择弹层演出完成的回调。
// 特性符号本身早已由服务器决定，弹层只是把答案演出来。
func (o *Orchestrator) CompleteFeatureSelect() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.st.FeatureSelectOpen {
		return
	}
	if err := o.fsm.Trigger(eventCloseOverlay); err != nil {
		o.logger.Warn("无法关闭特性符号选择弹层", zap.Error(err))
		return
	}
	o.st.FeatureSelectOpen = false
}

// OpenActionWheel 打开转盘弹层
func (o *Orchestrator) OpenActionWheel() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.st.WheelOpen {
		return
	}
	if err := o.fsm.Trigger(eventOpenWheel); err != nil {
		o.logger.Warn("无法打开转盘弹层", zap.Error(err))
		return
	}
	o.st.WheelOpen = true
	o.bus.Publish(Event{Type: EventWheelOpen, Payload: o.st.ActionSpins})
}

// CloseActionWheel 转盘弹层关闭回调
func (o *Orchestrator) CloseActionWheel() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.st.WheelOpen {
		return
	}
	if err := o.fsm.Trigger(eventCloseOverlay); err != nil {
		o.logger.Warn("无法关闭转盘弹层", zap.Error(err))
		return
	}
	o.st.WheelOpen = false
}

// SyncSession 从服务器同步会话快照（启动和断线恢复时使用）
func (o *Orchestrator) SyncSession(ctx context.Context) error {
	snap, err := o.server.GetSession(ctx, o.sessionID)
	if err != nil {
		return errors.Wrap(err, errors.ErrSessionInvalid)
	}

	o.mu.Lock()
	o.st.Balance = snap.Balance
	o.st.FreeSpinsRemaining = snap.FreeSpinsRemaining
	o.st.FeatureSymbol = snap.FeatureSymbol
	o.st.ActionSpins = snap.ActionGameSpins
	o.st.LastWin = snap.LastWin
	if snap.AccumulatedWin.GreaterThan(o.st.AccumulatedWin) {
		o.st.AccumulatedWin = snap.AccumulatedWin
	}
	o.mu.Unlock()

	o.bus.Publish(Event{Type: EventBalanceUpdated, Payload: snap.Balance})
	return nil
}

// ResetSession 完整会话重置。
// 这是唯一允许转盘累计奖金归零的路径。
func (o *Orchestrator) ResetSession(ctx context.Context) error {
	if err := o.server.ResetSession(ctx, o.sessionID); err != nil {
		return errors.Wrap(err, errors.ErrAPIRequest)
	}

	o.mu.Lock()
	o.st.AccumulatedWin = decimal.Zero
	o.st.FreeSpinsRemaining = 0
	o.st.FeatureSymbol = ""
	o.st.ActionSpins = 0
	o.st.LastWin = decimal.Zero
	o.st.WinningLines = nil
	o.st.WinFeedbackVisible = false
	o.mu.Unlock()

	return o.SyncSession(ctx)
}

// creditWheel 转盘结果入账（由转盘控制器在延迟后调用）。
// 累计奖金只增不减。
func (o *Orchestrator) creditWheel(res *ActionSpinResult) {
	o.mu.Lock()
	o.st.Balance = res.Balance
	o.st.ActionSpins = res.RemainingSpins
	if res.AccumulatedWin.GreaterThan(o.st.AccumulatedWin) {
		o.st.AccumulatedWin = res.AccumulatedWin
	}
	o.mu.Unlock()

	o.bus.Publish(Event{Type: EventBalanceUpdated, Payload: res.Balance})
}
