package render

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/wfunc/slot-client/internal/game"
	"go.uber.org/zap"
)

// DefaultFrameInterval 默认帧间隔
const DefaultFrameInterval = 100 * time.Millisecond

// StateSource 状态快照来源
type StateSource interface {
	State() game.State
}

// PresenterOptions 控制台演出配置
type PresenterOptions struct {
	FrameInterval time.Duration // 帧间隔，0使用默认值
	SoundEnabled  bool          // 中奖时输出终端响铃
	Out           io.Writer     // 帧输出目标，nil时写到标准输出
}

// Presenter 控制台演出循环。
// 固定帧率轮询状态快照，投影成帧后排版到终端；
// 画面没有变化的帧不重复写出。
type Presenter struct {
	proj   *Projector
	source StateSource
	opts   PresenterOptions
	logger *zap.Logger

	last    string
	winSeen bool
}

// NewPresenter 创建控制台演出器
func NewPresenter(cfg *game.GameConfig, source StateSource, opts PresenterOptions, logger *zap.Logger) *Presenter {
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = DefaultFrameInterval
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	return &Presenter{
		proj:   NewProjector(cfg),
		source: source,
		opts:   opts,
		logger: logger,
	}
}

// Run 演出主循环，阻塞直到ctx取消
func (p *Presenter) Run(ctx context.Context) {
	ticker := time.NewTicker(p.opts.FrameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick()
		}
	}
}

// tick 单帧：推进滚动偏移，投影并按需绘制
func (p *Presenter) tick() {
	st := p.source.State()
	p.proj.Advance(st)
	frame := p.proj.Project(st)

	text := FormatFrame(frame)
	if text == p.last {
		return
	}
	p.last = text

	hasWin := len(frame.WinningLines) > 0
	if p.opts.SoundEnabled && hasWin && !p.winSeen {
		text += "\a"
	}
	p.winSeen = hasWin

	if _, err := fmt.Fprintln(p.opts.Out, text); err != nil {
		p.logger.Warn("绘制帧失败", zap.Error(err))
	}
}

// FormatFrame 把渲染帧排版成终端文本。
// 高亮单元用方括号标出，旋转中的卷轴绘制条带窗口。
func FormatFrame(f *Frame) string {
	rows := 0
	for _, rv := range f.Reels {
		if n := len(rv.Cells); n > rows {
			rows = n
		}
		if n := len(rv.Window); n > rows {
			rows = n
		}
	}

	var b strings.Builder
	for row := 0; row < rows; row++ {
		for _, rv := range f.Reels {
			sym := ""
			highlighted := false
			switch {
			case rv.Spinning && row < len(rv.Window):
				sym = rv.Window[row]
			case !rv.Spinning && row < len(rv.Cells):
				sym = rv.Cells[row].Symbol
				highlighted = rv.Cells[row].Highlighted
			}
			if highlighted {
				b.WriteString(fmt.Sprintf("[%-8s]", sym))
			} else {
				b.WriteString(fmt.Sprintf(" %-8s ", sym))
			}
		}
		b.WriteByte('\n')
	}

	b.WriteString(fmt.Sprintf("余额 %s  投注 %s  上次中奖 %s",
		f.Balance, f.Bet, f.LastWin))
	if f.FreeSpins > 0 {
		b.WriteString(fmt.Sprintf("  剩余免费旋转 %d", f.FreeSpins))
	}
	if f.AccumulatedWin.IsPositive() {
		b.WriteString(fmt.Sprintf("  转盘累计 %s", f.AccumulatedWin))
	}
	if f.Busy {
		b.WriteString("  [演出中]")
	}
	return b.String()
}
