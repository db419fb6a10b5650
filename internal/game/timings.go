package game

import "time"

// TimingProfile 演出节奏配置。
// 只影响动画时长，不影响任何游戏结果；涡轮模式整体压缩节奏。
type TimingProfile struct {
	ReelStagger     time.Duration // 卷轴起转间隔
	MinSpinDuration time.Duration // 最短旋转时长（服务器响应太快时撑满悬念）
	ReelStopBase    time.Duration // 首个卷轴停止前的延迟
	ReelStopStep    time.Duration // 每个后续卷轴停止的递增延迟
	BounceDuration  time.Duration // 卷轴停止回弹动画时长（涡轮模式跳过）
	ExpansionStep   time.Duration // 单个卷轴扩展动画时长
	ExpansionSettle time.Duration // 每个卷轴扩展后的停顿
	FeatureDwell    time.Duration // 特性结果展示的固定停留时间
	WinDwell        time.Duration // 免费旋转中奖反馈消退前的停留时间
	AutoplayDelay   time.Duration // 自动旋转的回合间隔
	WheelTick       time.Duration // 转盘基础步进间隔
	WheelWinDelay   time.Duration // 转盘中奖消息展示后到入账的延迟
	BusyPoll        time.Duration // 自动旋转等待空闲的轮询间隔
}

// NormalTimings 常规节奏
func NormalTimings() TimingProfile {
	return TimingProfile{
		ReelStagger:     10 * time.Millisecond,
		MinSpinDuration: 600 * time.Millisecond,
		ReelStopBase:    200 * time.Millisecond,
		ReelStopStep:    150 * time.Millisecond,
		BounceDuration:  120 * time.Millisecond,
		ExpansionStep:   400 * time.Millisecond,
		ExpansionSettle: 300 * time.Millisecond,
		FeatureDwell:    2000 * time.Millisecond,
		WinDwell:        1200 * time.Millisecond,
		AutoplayDelay:   1000 * time.Millisecond,
		WheelTick:       80 * time.Millisecond,
		WheelWinDelay:   1200 * time.Millisecond,
		BusyPoll:        50 * time.Millisecond,
	}
}

// TurboTimings 涡轮节奏
func TurboTimings() TimingProfile {
	return TimingProfile{
		ReelStagger:     0,
		MinSpinDuration: 200 * time.Millisecond,
		ReelStopBase:    80 * time.Millisecond,
		ReelStopStep:    50 * time.Millisecond,
		BounceDuration:  0, // 涡轮模式跳过回弹
		ExpansionStep:   200 * time.Millisecond,
		ExpansionSettle: 150 * time.Millisecond,
		FeatureDwell:    1000 * time.Millisecond,
		WinDwell:        400 * time.Millisecond,
		AutoplayDelay:   500 * time.Millisecond,
		WheelTick:       40 * time.Millisecond,
		WheelWinDelay:   600 * time.Millisecond,
		BusyPoll:        50 * time.Millisecond,
	}
}

// Timings 根据涡轮开关返回节奏配置
func Timings(turbo bool) TimingProfile {
	if turbo {
		return TurboTimings()
	}
	return NormalTimings()
}
