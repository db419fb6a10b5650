package game

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wfunc/slot-client/internal/errors"
	"go.uber.org/zap"
)

// StopReason 自动旋转停止原因
type StopReason string

const (
	StopReasonExhausted StopReason = "exhausted"  // 次数用完
	StopReasonSingleWin StopReason = "single_win" // 单次中奖达到上限
	StopReasonAnyWin    StopReason = "any_win"    // 任意中奖
	StopReasonFeature   StopReason = "feature"    // 触发特性
	StopReasonLossLimit StopReason = "loss_limit" // 累计亏损达到上限
	StopReasonBalance   StopReason = "balance"    // 余额不足
	StopReasonManual    StopReason = "manual"     // 手动停止
	StopReasonError     StopReason = "error"      // 回合出错
)

// AutoplaySettings 自动旋转设置
type AutoplaySettings struct {
	Spins          int             // 旋转次数
	StopOnAnyWin   bool            // 任意中奖即停
	StopOnFeature  bool            // 触发特性即停
	SingleWinLimit decimal.Decimal // 单次中奖上限，零值表示不启用
	LossLimit      decimal.Decimal // 累计亏损上限，零值表示不启用
}

// AutoplayStatus 自动旋转状态
type AutoplayStatus struct {
	Active     bool
	Remaining  int
	NetResult  decimal.Decimal // 本次自动旋转的净盈亏
	StopReason StopReason
}

// Autoplay 自动旋转控制器。
// 每个回合结束后按优先级检查全部停止条件；免费旋转回合
// 不计入次数也不计入亏损。
type Autoplay struct {
	mu   sync.Mutex
	orch *Orchestrator
	bus  *Bus
	log  *zap.Logger

	settings  AutoplaySettings
	remaining int
	net       decimal.Decimal
	active    bool
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewAutoplay 创建自动旋转控制器
func NewAutoplay(orch *Orchestrator) *Autoplay {
	return &Autoplay{
		orch: orch,
		bus:  orch.bus,
		log:  orch.logger,
	}
}

// Start 启动自动旋转。已在运行时返回错误。
func (a *Autoplay) Start(ctx context.Context, settings AutoplaySettings) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.active {
		return errors.New(errors.ErrSpinInProgress)
	}
	if settings.Spins <= 0 {
		return errors.Newf(errors.ErrInvalidParam, "自动旋转次数 %d 无效", settings.Spins)
	}

	runCtx, cancel := context.WithCancel(ctx)
	a.settings = settings
	a.remaining = settings.Spins
	a.net = decimal.Zero
	a.active = true
	a.cancel = cancel
	a.done = make(chan struct{})

	go a.run(runCtx)
	return nil
}

// Stop 手动停止。不打断进行中的回合，当前回合演出照常结束。
func (a *Autoplay) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		a.cancel()
	}
}

// Wait 阻塞直到自动旋转结束
func (a *Autoplay) Wait() {
	a.mu.Lock()
	done := a.done
	a.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Status 当前状态
func (a *Autoplay) Status() AutoplayStatus {
	a.mu.Lock()
	defer a.mu.Unlock()
	return AutoplayStatus{
		Active:    a.active,
		Remaining: a.remaining,
		NetResult: a.net,
	}
}

// run 自动旋转主循环
func (a *Autoplay) run(ctx context.Context) {
	reason := StopReasonExhausted

	for {
		a.mu.Lock()
		remaining := a.remaining
		a.mu.Unlock()

		if remaining <= 0 {
			break
		}

		if err := a.waitIdle(ctx); err != nil {
			reason = StopReasonManual
			break
		}

		bet := a.orch.State().Bet
		outcome, err := a.orch.Spin(ctx)
		if err != nil {
			reason = a.classifyError(err)
			break
		}

		stop, r := a.settle(outcome, bet)
		if stop {
			reason = r
			break
		}

		// 回合之间的固定间隔
		timer := time.NewTimer(a.orch.Timings().AutoplayDelay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			reason = StopReasonManual
		}
		if ctx.Err() != nil {
			reason = StopReasonManual
			break
		}
	}

	a.finish(reason)
}

// settle 结算回合并检查停止条件
func (a *Autoplay) settle(outcome *SpinOutcome, bet decimal.Decimal) (bool, StopReason) {
	a.mu.Lock()
	defer a.mu.Unlock()

	// 免费旋转不消耗次数也不计入盈亏
	if !outcome.FreeSpin {
		a.remaining--
		a.net = a.net.Add(outcome.Win).Sub(bet)
	}

	if a.settings.SingleWinLimit.IsPositive() && outcome.Win.GreaterThanOrEqual(a.settings.SingleWinLimit) {
		return true, StopReasonSingleWin
	}
	if a.settings.StopOnAnyWin && outcome.Win.IsPositive() {
		return true, StopReasonAnyWin
	}
	if a.settings.StopOnFeature && (outcome.FeatureTriggered || outcome.WheelTriggered) {
		return true, StopReasonFeature
	}
	if a.settings.LossLimit.IsPositive() && a.net.Neg().GreaterThanOrEqual(a.settings.LossLimit) {
		return true, StopReasonLossLimit
	}
	if a.remaining <= 0 {
		return true, StopReasonExhausted
	}
	if outcome.FreeSpins == 0 && bet.GreaterThan(outcome.Balance) {
		return true, StopReasonBalance
	}
	return false, ""
}

// waitIdle 轮询等待编排器回到可旋转状态。
// 自动旋转对所有忙碌标志保守让路，包括弹层与扩展序列。
func (a *Autoplay) waitIdle(ctx context.Context) error {
	for {
		if a.orch.Phase() == PhaseIdle {
			st := a.orch.State()
			if !st.FeatureSelectOpen && !st.WheelOpen && !st.Expanding && !st.PostExpandReveal {
				return nil
			}
		}

		timer := time.NewTimer(a.orch.Timings().BusyPoll)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

// classifyError 出错停止的原因归类
func (a *Autoplay) classifyError(err error) StopReason {
	switch errors.GetCode(err) {
	case errors.ErrInsufficientBalance:
		return StopReasonBalance
	case errors.ErrRoundCanceled, errors.ErrCanceled:
		return StopReasonManual
	default:
		return StopReasonError
	}
}

// finish 收尾：发布停止事件并复位
func (a *Autoplay) finish(reason StopReason) {
	a.mu.Lock()
	a.active = false
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	net := a.net
	done := a.done
	a.mu.Unlock()

	a.log.Info("自动旋转结束",
		zap.String("reason", string(reason)),
		zap.String("net", net.String()))

	a.bus.Publish(Event{Type: EventAutoplayStopped, Payload: reason})
	close(done)
}
