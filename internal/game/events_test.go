package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBusPublishSubscribe(t *testing.T) {
	bus := NewBus(zap.NewNop())

	ch1, cancel1 := bus.Subscribe(8)
	ch2, cancel2 := bus.Subscribe(8)
	defer cancel1()
	defer cancel2()

	assert.Equal(t, 2, bus.SubscriberCount())

	bus.Publish(Event{Type: EventRoundStarted, RoundID: "r1"})

	for _, ch := range []<-chan Event{ch1, ch2} {
		select {
		case evt := <-ch:
			assert.Equal(t, EventRoundStarted, evt.Type)
			assert.Equal(t, "r1", evt.RoundID)
			assert.NotZero(t, evt.Timestamp, "发布时自动补时间戳")
		case <-time.After(time.Second):
			t.Fatal("订阅者未收到事件")
		}
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus(zap.NewNop())

	ch, cancel := bus.Subscribe(8)
	cancel()

	assert.Equal(t, 0, bus.SubscriberCount())

	// 取消后通道关闭，不再收到事件
	bus.Publish(Event{Type: EventRoundStarted})
	_, open := <-ch
	assert.False(t, open)
}

func TestBusSlowSubscriberDropsEvents(t *testing.T) {
	bus := NewBus(zap.NewNop())

	ch, cancel := bus.Subscribe(1)
	defer cancel()

	// 缓冲区1，第二条事件被丢弃而不是阻塞发布方
	done := make(chan struct{})
	go func() {
		bus.Publish(Event{Type: EventReelStopped})
		bus.Publish(Event{Type: EventWinRevealed})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("发布方被慢订阅者阻塞")
	}

	evt := <-ch
	assert.Equal(t, EventReelStopped, evt.Type)

	select {
	case evt := <-ch:
		t.Fatalf("溢出事件应被丢弃，却收到 %s", evt.Type)
	default:
	}
}

func TestBusDefaultBuffer(t *testing.T) {
	bus := NewBus(zap.NewNop())

	ch, cancel := bus.Subscribe(0)
	defer cancel()

	// 非法缓冲大小退回默认值，可以连续接收多条事件
	for i := 0; i < 10; i++ {
		bus.Publish(Event{Type: EventWheelTick})
	}

	received := 0
	for {
		select {
		case <-ch:
			received++
		default:
			require.Equal(t, 10, received)
			return
		}
	}
}

func TestBusPreservesExplicitTimestamp(t *testing.T) {
	bus := NewBus(zap.NewNop())

	ch, cancel := bus.Subscribe(1)
	defer cancel()

	bus.Publish(Event{Type: EventBalanceUpdated, Timestamp: 12345})
	evt := <-ch
	assert.Equal(t, int64(12345), evt.Timestamp)
}
