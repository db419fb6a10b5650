package game

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Phase 回合阶段枚举
type Phase string

const (
	PhaseIdle             Phase = "idle"              // 待机，接受新的旋转
	PhaseAwaitingResult   Phase = "awaiting_result"   // 请求已发出，卷轴旋转中
	PhaseRevealingBase    Phase = "revealing_base"    // 依次停轮并展示基础游戏结果
	PhaseExpanding        Phase = "expanding"         // 特性符号整列扩展中
	PhaseRevealingFeature Phase = "revealing_feature" // 展示特性游戏中奖线
	PhaseSettling         Phase = "settling"          // 回合收尾（自动旋转在此衔接）
	PhaseFeatureSelect    Phase = "feature_select"    // 特性符号选择弹层
	PhaseActionWheel      Phase = "action_wheel"      // 转盘弹层
)

// 阶段事件
const (
	eventSpin              = "spin"
	eventResult            = "result"
	eventFail              = "fail"
	eventExpand            = "expand"
	eventFeatureReveal     = "feature_reveal"
	eventSettle            = "settle"
	eventFinish            = "finish"
	eventCancel            = "cancel"
	eventOpenFeatureSelect = "open_feature_select"
	eventOpenWheel         = "open_wheel"
	eventCloseOverlay      = "close_overlay"
)

// PhaseTransition 阶段转换定义
type PhaseTransition struct {
	From   Phase
	Event  string
	To     Phase
	Action func(pm *PhaseMachine) error
}

// PhaseMachine 回合阶段机。
// 只负责阶段合法性与日志，不持有任何游戏数据；
// 游戏数据全部由编排器独占管理。
type PhaseMachine struct {
	mu           sync.RWMutex
	currentPhase Phase
	sessionID    string
	transitions  map[string][]PhaseTransition
	logger       *zap.Logger
	lastUpdate   time.Time

	// 回调函数
	onPhaseChange func(from, to Phase)
}

// NewPhaseMachine 创建阶段机
func NewPhaseMachine(sessionID string, logger *zap.Logger) *PhaseMachine {
	pm := &PhaseMachine{
		currentPhase: PhaseIdle,
		sessionID:    sessionID,
		transitions:  make(map[string][]PhaseTransition),
		logger:       logger,
		lastUpdate:   time.Now(),
	}

	// 初始化阶段转换规则
	pm.initTransitions()

	return pm
}

// initTransitions 初始化阶段转换规则
func (pm *PhaseMachine) initTransitions() {
	// 待机 -> 等待结果（发起旋转）
	pm.addTransition(PhaseTransition{From: PhaseIdle, Event: eventSpin, To: PhaseAwaitingResult})

	// 等待结果 -> 展示基础结果（收到响应）
	pm.addTransition(PhaseTransition{From: PhaseAwaitingResult, Event: eventResult, To: PhaseRevealingBase})

	// 等待结果 -> 待机（请求失败，回合干净中止）
	pm.addTransition(PhaseTransition{From: PhaseAwaitingResult, Event: eventFail, To: PhaseIdle})

	// 展示基础结果 -> 扩展（免费旋转中特性符号达到阈值）
	pm.addTransition(PhaseTransition{From: PhaseRevealingBase, Event: eventExpand, To: PhaseExpanding})

	// 扩展 -> 展示特性结果
	pm.addTransition(PhaseTransition{From: PhaseExpanding, Event: eventFeatureReveal, To: PhaseRevealingFeature})

	// 基础/特性结果 -> 收尾
	pm.addTransition(PhaseTransition{From: PhaseRevealingBase, Event: eventSettle, To: PhaseSettling})
	pm.addTransition(PhaseTransition{From: PhaseRevealingFeature, Event: eventSettle, To: PhaseSettling})

	// 收尾 -> 待机
	pm.addTransition(PhaseTransition{From: PhaseSettling, Event: eventFinish, To: PhaseIdle})

	// 待机 -> 弹层
	pm.addTransition(PhaseTransition{From: PhaseIdle, Event: eventOpenFeatureSelect, To: PhaseFeatureSelect})
	pm.addTransition(PhaseTransition{From: PhaseIdle, Event: eventOpenWheel, To: PhaseActionWheel})

	// 弹层 -> 待机
	pm.addTransition(PhaseTransition{From: PhaseFeatureSelect, Event: eventCloseOverlay, To: PhaseIdle})
	pm.addTransition(PhaseTransition{From: PhaseActionWheel, Event: eventCloseOverlay, To: PhaseIdle})

	// 进行中的任意阶段 -> 待机（被新的旋转取代）
	for _, phase := range []Phase{PhaseAwaitingResult, PhaseRevealingBase, PhaseExpanding, PhaseRevealingFeature, PhaseSettling} {
		pm.addTransition(PhaseTransition{From: phase, Event: eventCancel, To: PhaseIdle})
	}
}

// addTransition 添加阶段转换
func (pm *PhaseMachine) addTransition(transition PhaseTransition) {
	key := pm.transitionKey(transition.From, transition.Event)
	pm.transitions[key] = append(pm.transitions[key], transition)
}

// transitionKey 生成转换键
func (pm *PhaseMachine) transitionKey(phase Phase, event string) string {
	return fmt.Sprintf("%s:%s", phase, event)
}

// Trigger 触发事件
func (pm *PhaseMachine) Trigger(event string) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	key := pm.transitionKey(pm.currentPhase, event)
	transitions, exists := pm.transitions[key]
	if !exists || len(transitions) == 0 {
		return fmt.Errorf("无效的阶段转换: 阶段=%s, 事件=%s", pm.currentPhase, event)
	}

	// 执行第一个匹配的转换
	transition := transitions[0]
	oldPhase := pm.currentPhase

	if transition.Action != nil {
		if err := transition.Action(pm); err != nil {
			// 转换失败，保持原阶段
			return fmt.Errorf("阶段转换失败: %w", err)
		}
	}

	// 更新阶段
	pm.currentPhase = transition.To
	pm.lastUpdate = time.Now()

	// 触发阶段变更回调
	if pm.onPhaseChange != nil {
		pm.onPhaseChange(oldPhase, pm.currentPhase)
	}

	pm.logger.Debug("阶段转换",
		zap.String("session_id", pm.sessionID),
		zap.String("from", string(oldPhase)),
		zap.String("to", string(pm.currentPhase)),
		zap.String("event", event))

	return nil
}

// GetPhase 获取当前阶段
func (pm *PhaseMachine) GetPhase() Phase {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.currentPhase
}

// OnPhaseChange 设置阶段变更回调
func (pm *PhaseMachine) OnPhaseChange(fn func(from, to Phase)) {
	pm.onPhaseChange = fn
}

// CanTransition 检查当前阶段是否可以响应事件
func (pm *PhaseMachine) CanTransition(event string) bool {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	key := pm.transitionKey(pm.currentPhase, event)
	transitions, exists := pm.transitions[key]
	return exists && len(transitions) > 0
}

// GetValidEvents 获取当前阶段下的有效事件
func (pm *PhaseMachine) GetValidEvents() []string {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	var events []string
	prefix := string(pm.currentPhase) + ":"

	for key := range pm.transitions {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			event := key[len(prefix):]
			events = append(events, event)
		}
	}

	return events
}

// Reset 重置阶段机
func (pm *PhaseMachine) Reset() {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.currentPhase = PhaseIdle
	pm.lastUpdate = time.Now()
}
