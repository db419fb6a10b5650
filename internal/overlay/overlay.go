// Package overlay 弹层演出时间线。
// 特性符号选择与转盘都是纯演出：结果早已由服务器决定，
// 这里只负责把答案按节奏演出来，结束后回调编排器解锁输入。
package overlay

import (
	"context"
	"time"

	"github.com/wfunc/slot-client/internal/errors"
	"github.com/wfunc/slot-client/internal/game"
	"go.uber.org/zap"
)

// FeatureSelectStep 特性符号选择的单步回调
type FeatureSelectStep func(symbol string, final bool)

// FeatureSelect 特性符号选择弹层的演出时间线。
// 在高价值符号间循环扫过若干圈，最后落在服务器指定的符号上。
type FeatureSelect struct {
	Candidates []string      // 扫过的符号顺序（高价值符号）
	Chosen     string        // 服务器决定的特性符号
	StepDelay  time.Duration // 每步间隔
	Loops      int           // 落定前扫过的完整圈数
	HoldDelay  time.Duration // 落定后的停留时间
}

// NewFeatureSelect 按游戏描述构建时间线。
// 候选符号取所有高价值符号；服务器选中的符号不在其中时追加到末尾。
func NewFeatureSelect(cfg *game.GameConfig, chosen string, timings game.TimingProfile) *FeatureSelect {
	var candidates []string
	found := false
	for _, s := range cfg.Symbols {
		if s.Premium {
			candidates = append(candidates, s.ID)
			if s.ID == chosen {
				found = true
			}
		}
	}
	if !found && chosen != "" {
		candidates = append(candidates, chosen)
	}

	return &FeatureSelect{
		Candidates: candidates,
		Chosen:     chosen,
		StepDelay:  timings.WheelTick,
		Loops:      2,
		HoldDelay:  timings.FeatureDwell / 2,
	}
}

// Run 执行时间线。每步通过回调上报当前扫过的符号，
// final 为真表示落定。阻塞直到停留结束或上下文取消。
func (f *FeatureSelect) Run(ctx context.Context, onStep FeatureSelectStep) error {
	if len(f.Candidates) == 0 || f.Chosen == "" {
		return errors.New(errors.ErrConfigMissing)
	}

	target := 0
	for i, s := range f.Candidates {
		if s == f.Chosen {
			target = i
			break
		}
	}

	total := f.Loops*len(f.Candidates) + target
	for i := 0; i <= total; i++ {
		symbol := f.Candidates[i%len(f.Candidates)]
		final := i == total
		if onStep != nil {
			onStep(symbol, final)
		}
		if final {
			break
		}
		if err := sleep(ctx, f.StepDelay); err != nil {
			return err
		}
	}

	return sleep(ctx, f.HoldDelay)
}

// Manager 弹层调度器。
// 订阅编排器事件，弹层打开时运行对应时间线，
// 演出结束后回调编排器关闭弹层。
type Manager struct {
	orch    *game.Orchestrator
	wheel   *game.WheelController
	cfg     *game.GameConfig
	bus     *game.Bus
	timings game.TimingProfile
	logger  *zap.Logger
}

// NewManager 创建弹层调度器
func NewManager(orch *game.Orchestrator, wheel *game.WheelController, cfg *game.GameConfig, bus *game.Bus, timings game.TimingProfile, logger *zap.Logger) *Manager {
	return &Manager{
		orch:    orch,
		wheel:   wheel,
		cfg:     cfg,
		bus:     bus,
		timings: timings,
		logger:  logger,
	}
}

// Run 事件循环。阻塞直到上下文取消。
func (m *Manager) Run(ctx context.Context) {
	events, cancel := m.bus.Subscribe(16)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			switch ev.Type {
			case game.EventFeatureSelectOpen:
				m.runFeatureSelect(ctx, ev)
			case game.EventWheelOpen:
				m.runWheel(ctx)
			}
		}
	}
}

// runFeatureSelect 执行特性符号选择演出并关闭弹层
func (m *Manager) runFeatureSelect(ctx context.Context, ev game.Event) {
	chosen, _ := ev.Payload.(string)
	if chosen == "" {
		chosen = m.orch.State().FeatureSymbol
	}

	tl := NewFeatureSelect(m.cfg, chosen, m.timings)
	err := tl.Run(ctx, func(symbol string, final bool) {
		if final {
			m.logger.Info("特性符号落定", zap.String("symbol", symbol))
		}
	})
	if err != nil {
		m.logger.Warn("特性符号选择演出中断", zap.Error(err))
	}

	m.orch.CompleteFeatureSelect()
}

// runWheel 消费所有转盘次数后关闭弹层
func (m *Manager) runWheel(ctx context.Context) {
	if err := m.wheel.RunAll(ctx); err != nil {
		m.logger.Warn("转盘演出中断", zap.Error(err))
		m.orch.CloseActionWheel()
	}
}

// sleep 可取消的延迟
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), errors.ErrCanceled)
	}
}
