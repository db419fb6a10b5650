package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPhaseMachineFullRound(t *testing.T) {
	pm := NewPhaseMachine("test-session", zap.NewNop())
	assert.Equal(t, PhaseIdle, pm.GetPhase())

	// 完整的免费旋转回合：旋转 → 结果 → 扩展 → 特性展示 → 收尾 → 待机
	steps := []struct {
		event string
		want  Phase
	}{
		{eventSpin, PhaseAwaitingResult},
		{eventResult, PhaseRevealingBase},
		{eventExpand, PhaseExpanding},
		{eventFeatureReveal, PhaseRevealingFeature},
		{eventSettle, PhaseSettling},
		{eventFinish, PhaseIdle},
	}

	for _, step := range steps {
		require.NoError(t, pm.Trigger(step.event), "事件 %s 应被接受", step.event)
		assert.Equal(t, step.want, pm.GetPhase())
	}
}

func TestPhaseMachineBaseRoundSkipsExpansion(t *testing.T) {
	pm := NewPhaseMachine("test-session", zap.NewNop())

	require.NoError(t, pm.Trigger(eventSpin))
	require.NoError(t, pm.Trigger(eventResult))
	require.NoError(t, pm.Trigger(eventSettle))
	require.NoError(t, pm.Trigger(eventFinish))
	assert.Equal(t, PhaseIdle, pm.GetPhase())
}

func TestPhaseMachineRejectsInvalidEvents(t *testing.T) {
	pm := NewPhaseMachine("test-session", zap.NewNop())

	// 待机阶段不能直接收尾或展示结果
	assert.Error(t, pm.Trigger(eventResult))
	assert.Error(t, pm.Trigger(eventSettle))
	assert.Error(t, pm.Trigger(eventFinish))
	assert.Equal(t, PhaseIdle, pm.GetPhase(), "无效事件不改变阶段")

	// 等待结果阶段不能扩展
	require.NoError(t, pm.Trigger(eventSpin))
	assert.Error(t, pm.Trigger(eventExpand))
	assert.Equal(t, PhaseAwaitingResult, pm.GetPhase())
}

func TestPhaseMachineRequestFailure(t *testing.T) {
	pm := NewPhaseMachine("test-session", zap.NewNop())

	require.NoError(t, pm.Trigger(eventSpin))
	require.NoError(t, pm.Trigger(eventFail))
	assert.Equal(t, PhaseIdle, pm.GetPhase(), "请求失败后回合干净中止")
}

func TestPhaseMachineCancelFromAnyActivePhase(t *testing.T) {
	activePaths := [][]string{
		{eventSpin},
		{eventSpin, eventResult},
		{eventSpin, eventResult, eventExpand},
		{eventSpin, eventResult, eventExpand, eventFeatureReveal},
		{eventSpin, eventResult, eventSettle},
	}

	for _, path := range activePaths {
		pm := NewPhaseMachine("test-session", zap.NewNop())
		for _, e := range path {
			require.NoError(t, pm.Trigger(e))
		}
		require.NoError(t, pm.Trigger(eventCancel))
		assert.Equal(t, PhaseIdle, pm.GetPhase())
	}
}

func TestPhaseMachineOverlaysOnlyFromIdle(t *testing.T) {
	pm := NewPhaseMachine("test-session", zap.NewNop())

	// 待机可以打开弹层
	assert.True(t, pm.CanTransition(eventOpenFeatureSelect))
	assert.True(t, pm.CanTransition(eventOpenWheel))

	require.NoError(t, pm.Trigger(eventOpenFeatureSelect))
	assert.Equal(t, PhaseFeatureSelect, pm.GetPhase())

	// 弹层内不能再开弹层或旋转
	assert.Error(t, pm.Trigger(eventOpenWheel))
	assert.Error(t, pm.Trigger(eventSpin))

	require.NoError(t, pm.Trigger(eventCloseOverlay))
	assert.Equal(t, PhaseIdle, pm.GetPhase())

	// 旋转进行中不能打开弹层
	require.NoError(t, pm.Trigger(eventSpin))
	assert.False(t, pm.CanTransition(eventOpenFeatureSelect))
	assert.False(t, pm.CanTransition(eventOpenWheel))
}

func TestPhaseMachineOnPhaseChange(t *testing.T) {
	pm := NewPhaseMachine("test-session", zap.NewNop())

	var transitions [][2]Phase
	pm.OnPhaseChange(func(from, to Phase) {
		transitions = append(transitions, [2]Phase{from, to})
	})

	require.NoError(t, pm.Trigger(eventSpin))
	require.NoError(t, pm.Trigger(eventFail))

	require.Len(t, transitions, 2)
	assert.Equal(t, [2]Phase{PhaseIdle, PhaseAwaitingResult}, transitions[0])
	assert.Equal(t, [2]Phase{PhaseAwaitingResult, PhaseIdle}, transitions[1])
}

func TestPhaseMachineReset(t *testing.T) {
	pm := NewPhaseMachine("test-session", zap.NewNop())

	require.NoError(t, pm.Trigger(eventSpin))
	require.NoError(t, pm.Trigger(eventResult))

	pm.Reset()
	assert.Equal(t, PhaseIdle, pm.GetPhase())
	assert.True(t, pm.CanTransition(eventSpin))
}

func TestPhaseMachineValidEvents(t *testing.T) {
	pm := NewPhaseMachine("test-session", zap.NewNop())

	events := pm.GetValidEvents()
	assert.ElementsMatch(t, []string{eventSpin, eventOpenFeatureSelect, eventOpenWheel}, events)
}
