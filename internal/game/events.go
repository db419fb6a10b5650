package game

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// EventType 回合事件类型
type EventType string

const (
	EventRoundStarted      EventType = "round_started"       // 回合开始（网络请求发出前）
	EventReelSpinning      EventType = "reel_spinning"       // 单个卷轴开始旋转
	EventReelStopped       EventType = "reel_stopped"        // 单个卷轴停止（触发停止音效）
	EventWinRevealed       EventType = "win_revealed"        // 基础游戏中奖线展示
	EventExpansionStarted  EventType = "expansion_started"   // 扩展序列开始
	EventExpansionStep     EventType = "expansion_step"      // 单个卷轴扩展
	EventFeatureRevealed   EventType = "feature_revealed"    // 特性游戏中奖线展示
	EventRoundSettled      EventType = "round_settled"       // 回合结束，输入解锁
	EventRoundFailed       EventType = "round_failed"        // 回合失败（网络错误等）
	EventRoundCanceled     EventType = "round_canceled"      // 回合被新的旋转取代
	EventFreeSpinsAwarded  EventType = "free_spins_awarded"  // 分散触发免费旋转
	EventFeatureSelectOpen EventType = "feature_select_open" // 特性符号选择弹层打开
	EventWheelOpen         EventType = "wheel_open"          // 转盘弹层打开
	EventWheelTick         EventType = "wheel_tick"          // 转盘动画步进
	EventWheelSettled      EventType = "wheel_settled"       // 转盘停在结果段
	EventWheelCredited     EventType = "wheel_credited"      // 转盘奖励入账（延迟后）
	EventBalanceUpdated    EventType = "balance_updated"     // 余额更新（服务器权威值）
	EventAutoplayStopped   EventType = "autoplay_stopped"    // 自动旋转停止
)

// Event 回合事件
type Event struct {
	Type      EventType   `json:"type"`
	RoundID   string      `json:"round_id,omitempty"`
	Timestamp int64       `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// subscriber 订阅者
type subscriber struct {
	id int
	ch chan Event
}

// Bus 回合事件总线。
// 编排器是唯一的发布方；渲染器、弹层、记录器、推送桥接各自订阅，
// 组件之间不再通过层层传递的回调函数耦合。
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   []subscriber
	logger *zap.Logger
}

// NewBus 创建事件总线
func NewBus(logger *zap.Logger) *Bus {
	return &Bus{logger: logger}
}

// Subscribe 订阅事件流，返回只读通道和取消函数
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 64
	}

	b.mu.Lock()
	b.nextID++
	sub := subscriber{id: b.nextID, ch: make(chan Event, buffer)}
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == sub.id {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				close(s.ch)
				return
			}
		}
	}

	return sub.ch, cancel
}

// Publish 发布事件。发送是非阻塞的：跟不上的订阅者会丢失事件，
// 事件只承载演出信息，权威状态始终来自编排器快照。
func (b *Bus) Publish(evt Event) {
	if evt.Timestamp == 0 {
		evt.Timestamp = time.Now().UnixMilli()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, s := range b.subs {
		select {
		case s.ch <- evt:
		default:
			if b.logger != nil {
				b.logger.Warn("事件丢弃：订阅者缓冲区已满",
					zap.String("type", string(evt.Type)),
					zap.Int("subscriber", s.id))
			}
		}
	}
}

// SubscriberCount 当前订阅者数量
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
