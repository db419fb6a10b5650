package bridge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/slot-client/internal/game"
	"go.uber.org/zap"
)

func newTestClient(id string, buffer int) *Client {
	return &Client{ID: id, Send: make(chan []byte, buffer)}
}

func recvMessage(t *testing.T, c *Client) *Message {
	t.Helper()
	select {
	case data := <-c.Send:
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return &msg
	case <-time.After(time.Second):
		t.Fatal("等待桥接消息超时")
		return nil
	}
}

func TestHubBroadcast(t *testing.T) {
	h := NewHub(zap.NewNop())
	go h.Run()

	c1 := newTestClient("c1", 8)
	c2 := newTestClient("c2", 8)
	h.register <- c1
	h.register <- c2

	assert.Eventually(t, func() bool { return h.ClientCount() == 2 },
		time.Second, 5*time.Millisecond)

	h.Broadcast(MessageTypeEvent, "r-1", map[string]string{"symbol": "sun"})

	for _, c := range []*Client{c1, c2} {
		msg := recvMessage(t, c)
		assert.Equal(t, MessageTypeEvent, msg.Type)
		assert.Equal(t, "r-1", msg.RoundID)
		assert.NotZero(t, msg.Timestamp)

		var payload map[string]string
		require.NoError(t, json.Unmarshal(msg.Data, &payload))
		assert.Equal(t, "sun", payload["symbol"])
	}
}

func TestHubUnregisterClosesSend(t *testing.T) {
	h := NewHub(zap.NewNop())
	go h.Run()

	c := newTestClient("c1", 8)
	h.register <- c
	assert.Eventually(t, func() bool { return h.ClientCount() == 1 },
		time.Second, 5*time.Millisecond)

	h.unregister <- c
	assert.Eventually(t, func() bool { return h.ClientCount() == 0 },
		time.Second, 5*time.Millisecond)

	_, open := <-c.Send
	assert.False(t, open, "注销后发送通道关闭")
}

func TestHubSlowClientDropsMessage(t *testing.T) {
	h := NewHub(zap.NewNop())
	go h.Run()

	slow := newTestClient("slow", 1)
	h.register <- slow
	assert.Eventually(t, func() bool { return h.ClientCount() == 1 },
		time.Second, 5*time.Millisecond)

	// 缓冲1的客户端连续收3条，多出的直接丢弃而不阻塞Hub
	for i := 0; i < 3; i++ {
		h.Broadcast(MessageTypeEvent, "", map[string]int{"seq": i})
	}

	msg := recvMessage(t, slow)
	assert.Equal(t, MessageTypeEvent, msg.Type)

	// Hub仍然存活，能继续服务新消息
	h.Broadcast(MessageTypeState, "", nil)
	assert.Eventually(t, func() bool { return len(slow.Send) > 0 },
		time.Second, 5*time.Millisecond)
}

func TestHubPumpEvents(t *testing.T) {
	h := NewHub(zap.NewNop())
	go h.Run()

	c := newTestClient("c1", 8)
	h.register <- c
	assert.Eventually(t, func() bool { return h.ClientCount() == 1 },
		time.Second, 5*time.Millisecond)

	bus := game.NewBus(zap.NewNop())
	events, cancel := bus.Subscribe(16)
	go h.PumpEvents(events)

	bus.Publish(game.Event{Type: game.EventReelStopped, RoundID: "r-9", Payload: 2})

	msg := recvMessage(t, c)
	assert.Equal(t, string(game.EventReelStopped), msg.Type)
	assert.Equal(t, "r-9", msg.RoundID)

	cancel()
}

func TestMessageRoundTrip(t *testing.T) {
	data := []byte(`{"type": "set_bet", "data": {"bet": "2"}}`)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, CommandSetBet, msg.Type)

	var payload struct {
		Bet string `json:"bet"`
	}
	require.NoError(t, json.Unmarshal(msg.Data, &payload))
	assert.Equal(t, "2", payload.Bet)
}
