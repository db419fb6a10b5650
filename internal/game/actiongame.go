package game

import (
	"context"
	"hash/fnv"
	"strings"
	"time"

	"github.com/wfunc/slot-client/internal/errors"
	"go.uber.org/zap"
)

// WheelSegments 转盘的12个扇区（顺时针排列，指针固定在顶部）。
// 布局是固定的：同一结果永远落在同一扇区，玩家能记住转盘的样子。
var WheelSegments = [12]string{
	"6spins",
	"100",
	"x2",
	"3spins",
	"250",
	"x5",
	"1spins",
	"500",
	"x3",
	"2spins",
	"1000",
	"x10",
}

// MinWheelRotations 落点前至少经过的完整圈数
const MinWheelRotations = 2

// SegmentForOutcome 结果到扇区的确定性映射。
// 先精确匹配扇区标签；无精确匹配时在同类别扇区（旋转类/奖金类）中
// 按标签哈希选取。同一结果字符串永远映射到同一扇区。
func SegmentForOutcome(outcome string) int {
	for i, s := range WheelSegments {
		if s == outcome {
			return i
		}
	}

	spins := strings.HasSuffix(outcome, "spins")
	var candidates []int
	for i, s := range WheelSegments {
		if strings.HasSuffix(s, "spins") == spins {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return 0
	}

	h := fnv.New32a()
	h.Write([]byte(outcome))
	return candidates[int(h.Sum32())%len(candidates)]
}

// WheelController 转盘控制器。
// 服务器请求与指针动画并行：结果一到就换算落点扇区，
// 动画至少转满 MinWheelRotations 圈后减速停在落点。
type WheelController struct {
	orch    *Orchestrator
	server  GameServer
	bus     *Bus
	logger  *zap.Logger
	timings TimingProfile
}

// NewWheelController 创建转盘控制器
func NewWheelController(orch *Orchestrator, timings TimingProfile) *WheelController {
	return &WheelController{
		orch:    orch,
		server:  orch.server,
		bus:     orch.bus,
		logger:  orch.logger,
		timings: timings,
	}
}

// SpinWheel 执行一次转盘旋转。
// 阻塞直到指针停稳且奖金入账。余额在指针停稳并经过
// WheelWinDelay 后才更新——提前跳变会剧透结果。
func (w *WheelController) SpinWheel(ctx context.Context) (*ActionSpinResult, error) {
	w.orch.mu.Lock()
	if !w.orch.st.WheelOpen {
		w.orch.mu.Unlock()
		return nil, errors.New(errors.ErrGameStateError)
	}
	if w.orch.st.ActionSpins <= 0 {
		w.orch.mu.Unlock()
		return nil, errors.New(errors.ErrNoWheelSpins)
	}
	sessionID := w.orch.sessionID
	w.orch.mu.Unlock()

	type spinResult struct {
		res *ActionSpinResult
		err error
	}
	resCh := make(chan spinResult, 1)
	go func() {
		res, err := w.server.SpinActionGame(ctx, sessionID)
		resCh <- spinResult{res: res, err: err}
	}()

	// 等待结果期间指针匀速转动
	baseTick := w.timings.WheelTick
	if baseTick <= 0 {
		baseTick = time.Millisecond
	}
	pos := 0
	ticker := time.NewTicker(baseTick)
	defer ticker.Stop()

	var res spinResult
awaiting:
	for {
		select {
		case res = <-resCh:
			break awaiting
		case <-ticker.C:
			pos = (pos + 1) % len(WheelSegments)
			w.bus.Publish(Event{Type: EventWheelTick, Payload: pos})
		case <-ctx.Done():
			return nil, errors.Wrap(ctx.Err(), errors.ErrCanceled)
		}
	}
	if res.err != nil {
		return nil, errors.Wrap(res.err, errors.ErrAPIRequest)
	}

	target := SegmentForOutcome(res.res.Result.WheelResult)

	// 补足剩余圈数后减速落到目标扇区
	remaining := MinWheelRotations*len(WheelSegments) + (target-pos+len(WheelSegments))%len(WheelSegments)
	tick := w.timings.WheelTick
	for i := 0; i < remaining; i++ {
		// 最后一圈逐格减速
		if remaining-i <= len(WheelSegments) {
			tick += w.timings.WheelTick / 4
		}
		if tick <= 0 {
			pos = (pos + 1) % len(WheelSegments)
			w.bus.Publish(Event{Type: EventWheelTick, Payload: pos})
			continue
		}
		timer := time.NewTimer(tick)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, errors.Wrap(ctx.Err(), errors.ErrCanceled)
		}
		pos = (pos + 1) % len(WheelSegments)
		w.bus.Publish(Event{Type: EventWheelTick, Payload: pos})
	}

	w.bus.Publish(Event{Type: EventWheelSettled, Payload: target})
	w.logger.Info("转盘停稳",
		zap.String("outcome", res.res.Result.WheelResult),
		zap.Int("segment", target),
		zap.String("win", res.res.Result.Win.String()),
		zap.Int("additional_spins", res.res.Result.AdditionalSpins))

	// 延迟入账：指针停稳后保留展示时间再更新余额与累计奖金
	timer := time.NewTimer(w.timings.WheelWinDelay)
	select {
	case <-timer.C:
	case <-ctx.Done():
		timer.Stop()
		// 结果已由服务器确定，取消只影响演出，不影响入账
	}

	w.orch.creditWheel(res.res)
	w.bus.Publish(Event{Type: EventWheelCredited, Payload: res.res})

	return res.res, nil
}

// RunAll 连续执行所有剩余转盘次数后关闭转盘弹层。
// 结果带来的追加次数（AdditionalSpins）也会继续消费。
func (w *WheelController) RunAll(ctx context.Context) error {
	for {
		w.orch.mu.Lock()
		remaining := w.orch.st.ActionSpins
		w.orch.mu.Unlock()

		if remaining <= 0 {
			break
		}

		if _, err := w.SpinWheel(ctx); err != nil {
			return err
		}
	}

	w.orch.CloseActionWheel()
	return nil
}
