// Package bridge 推送通道。
// 把编排器事件实时推给连接的渲染前端（WebSocket），
// 并把前端指令（旋转、投注切换、自动旋转）转回编排器。
package bridge

import (
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/wfunc/slot-client/internal/game"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Message 桥接消息
type Message struct {
	Type      string              `json:"type"`
	RoundID   string              `json:"round_id,omitempty"`
	Data      jsoniter.RawMessage `json:"data,omitempty"`
	Timestamp int64               `json:"timestamp"`
}

// 前端指令类型
const (
	CommandSpin          = "spin"
	CommandSetBet        = "set_bet"
	CommandSetTurbo      = "set_turbo"
	CommandAutoplayStart = "autoplay_start"
	CommandAutoplayStop  = "autoplay_stop"
	CommandState         = "state"
)

// 推送消息类型
const (
	MessageTypeConnected = "connected"
	MessageTypeState     = "state"
	MessageTypeEvent     = "event"
	MessageTypeError     = "error"
)

// Hub 连接管理中心
type Hub struct {
	clients   map[string]*Client
	clientsMu sync.RWMutex

	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client

	commands CommandHandler

	logger *zap.Logger
}

// CommandHandler 前端指令处理器
type CommandHandler interface {
	HandleCommand(client *Client, msg *Message)
}

// NewHub 创建Hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
	}
}

// SetCommandHandler 设置指令处理器
func (h *Hub) SetCommandHandler(handler CommandHandler) {
	h.commands = handler
}

// Run 事件循环
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clientsMu.Lock()
			h.clients[client.ID] = client
			h.clientsMu.Unlock()
			h.logger.Info("前端已连接", zap.String("client_id", client.ID))

		case client := <-h.unregister:
			h.clientsMu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.Send)
			}
			h.clientsMu.Unlock()
			h.logger.Info("前端已断开", zap.String("client_id", client.ID))

		case msg := <-h.broadcast:
			data, err := json.Marshal(msg)
			if err != nil {
				h.logger.Error("序列化桥接消息失败", zap.Error(err))
				continue
			}
			h.clientsMu.RLock()
			for _, client := range h.clients {
				select {
				case client.Send <- data:
				default:
					// 发送缓冲满的慢客户端直接丢弃本条消息
					h.logger.Warn("客户端发送缓冲已满，丢弃消息",
						zap.String("client_id", client.ID))
				}
			}
			h.clientsMu.RUnlock()
		}
	}
}

// Broadcast 广播消息给所有前端
func (h *Hub) Broadcast(msgType, roundID string, payload interface{}) {
	var data jsoniter.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			h.logger.Error("序列化广播载荷失败", zap.Error(err))
			return
		}
		data = b
	}

	msg := &Message{
		Type:      msgType,
		RoundID:   roundID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}

	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("广播队列已满，丢弃消息", zap.String("type", msgType))
	}
}

// ClientCount 当前连接数
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// PumpEvents 订阅编排器事件并持续转发给前端。
// 阻塞直到事件通道关闭。
func (h *Hub) PumpEvents(events <-chan game.Event) {
	for ev := range events {
		h.Broadcast(string(ev.Type), ev.RoundID, ev.Payload)
	}
}
