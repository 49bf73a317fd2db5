package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ikkim/restaurant-pos/internal/notify"
	"github.com/ikkim/restaurant-pos/pkg/logger"
)

const (
	// Rate limiting: 최대 메시지 수 (1초당)
	maxMessagesPerSecond = 10

	// 클라이언트별 전송 버퍼
	DefaultSendBuffer = 256
)

// ClientMessage 패널로부터 받은 메시지
type ClientMessage struct {
	Type       string             `json:"type"` // ping, subscribe
	EventTypes []notify.EventType `json:"event_types,omitempty"`
}

// Client 스태프 패널 WebSocket 연결
type Client struct {
	Hub    *Hub
	Conn   *Conn
	UserID uint
	Role   string
	Send   chan []byte

	mu     sync.RWMutex
	filter map[notify.EventType]bool // nil: 역할에 허용된 모든 이벤트

	MessageCount  int       // 최근 1초간 받은 메시지 수
	LastResetTime time.Time // 마지막 카운터 리셋 시간
	RateMu        sync.Mutex
}

// NewClient 클라이언트 생성
func NewClient(hub *Hub, conn *Conn, userID uint, role string) *Client {
	return &Client{
		Hub:           hub,
		Conn:          conn,
		UserID:        userID,
		Role:          role,
		Send:          make(chan []byte, DefaultSendBuffer),
		LastResetTime: time.Now(),
	}
}

func (c *Client) wants(e notify.Event) bool {
	if !e.For(c.Role) {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.filter == nil {
		return true
	}
	return c.filter[e.Type]
}

func (c *Client) setFilter(types []notify.EventType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(types) == 0 {
		c.filter = nil
		return
	}
	c.filter = make(map[notify.EventType]bool, len(types))
	for _, t := range types {
		c.filter[t] = true
	}
}

type outbound struct {
	event   notify.Event
	payload []byte
}

// Hub 패널 연결 관리자. 알림 허브의 싱크로 동작하며 이벤트를 대상 역할의
// 연결에만 전달한다.
type Hub struct {
	// 역할별 클라이언트 (Role -> set)
	clients map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan outbound

	// closed when Run returns
	done chan struct{}

	mu sync.RWMutex
}

// NewHub Hub 생성
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		broadcast:  make(chan outbound, 1024),
		done:       make(chan struct{}),
	}
}

// Run Hub 실행. ctx 취소 시 모든 연결의 Send 채널을 닫는다.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			set, ok := h.clients[client.Role]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.Role] = set
			}
			set[client] = struct{}{}
			sessions := len(set)
			h.mu.Unlock()
			logger.Info("WebSocket client registered", map[string]interface{}{
				"user_id":       client.UserID,
				"role":          client.Role,
				"role_sessions": sessions,
			})

		case client := <-h.unregister:
			h.remove(client)

		case msg := <-h.broadcast:
			h.deliver(msg)

		case <-ctx.Done():
			h.mu.Lock()
			for role, set := range h.clients {
				for client := range set {
					close(client.Send)
				}
				delete(h.clients, role)
			}
			h.mu.Unlock()
			logger.Info("WebSocket hub stopped")
			return
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[client.Role]
	if !ok {
		return
	}
	if _, ok := set[client]; !ok {
		return
	}
	delete(set, client)
	if len(set) == 0 {
		delete(h.clients, client.Role)
	}
	close(client.Send)

	logger.Info("WebSocket client unregistered", map[string]interface{}{
		"user_id":            client.UserID,
		"role":               client.Role,
		"remaining_sessions": len(set),
	})
}

func (h *Hub) deliver(msg outbound) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, role := range msg.event.Roles {
		for client := range h.clients[role] {
			if !client.wants(msg.event) {
				continue
			}
			select {
			case client.Send <- msg.payload:
			default:
				// Send 채널이 막혀있음 - 비동기로 정리
				go h.Unregister(client)
				logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
					"user_id": client.UserID,
					"role":    client.Role,
				})
			}
		}
	}
}

// Name notify.Sink
func (h *Hub) Name() string { return "websocket" }

// Deliver notify.Sink. 브로드캐스트 채널이 가득 차면 이벤트를 버린다.
func (h *Hub) Deliver(_ context.Context, e notify.Event) error {
	payload, err := e.Marshal()
	if err != nil {
		return err
	}

	select {
	case h.broadcast <- outbound{event: e, payload: payload}:
	default:
		logger.Warn("Broadcast channel full, message dropped", map[string]interface{}{
			"event_type": e.Type,
			"order_id":   e.OrderID,
		})
	}
	return nil
}

// Register 클라이언트 등록. Hub 가 멈춘 뒤에는 Send 를 바로 닫는다.
func (h *Hub) Register(client *Client) {
	select {
	case <-h.done:
		close(client.Send)
		return
	default:
	}
	select {
	case h.register <- client:
	case <-h.done:
		close(client.Send)
	}
}

// Unregister 클라이언트 등록 해제. Hub 가 멈췄으면 아무 것도 하지 않는다.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// OnlineCount 역할별 접속 세션 수
func (h *Hub) OnlineCount() map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	counts := make(map[string]int, len(h.clients))
	for role, set := range h.clients {
		counts[role] = len(set)
	}
	return counts
}

// HandleClientMessage 클라이언트 메시지 처리
func (h *Hub) HandleClientMessage(client *Client, message []byte) {
	// Rate limiting 체크
	client.RateMu.Lock()
	now := time.Now()
	if now.Sub(client.LastResetTime) >= time.Second {
		client.MessageCount = 0
		client.LastResetTime = now
	}
	client.MessageCount++
	count := client.MessageCount
	client.RateMu.Unlock()

	if count > maxMessagesPerSecond {
		logger.Warn("Rate limit exceeded", map[string]interface{}{
			"user_id": client.UserID,
			"count":   count,
		})
		return
	}

	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		logger.Warn("Failed to parse client message", map[string]interface{}{
			"user_id": client.UserID,
			"error":   err.Error(),
		})
		return
	}

	switch msg.Type {
	case "ping":
		h.reply(client, map[string]interface{}{"type": "pong"})
	case "subscribe":
		client.setFilter(msg.EventTypes)
		h.reply(client, map[string]interface{}{
			"type":        "subscribed",
			"event_types": msg.EventTypes,
		})
	default:
		logger.Debug("Unknown client message type", map[string]interface{}{
			"user_id": client.UserID,
			"type":    msg.Type,
		})
	}
}

func (h *Hub) reply(client *Client, body interface{}) {
	data, err := json.Marshal(body)
	if err != nil {
		logger.Error("Failed to marshal message", err, nil)
		return
	}

	// Send 는 Hub 만 닫으므로 읽기 락 아래에서 등록 여부를 확인한다
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[client.Role][client]; !ok {
		return
	}
	select {
	case client.Send <- data:
	default:
	}
}
