package websocket

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/ikkim/restaurant-pos/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10

	// 패널은 ping / subscribe 정도만 보낸다
	maxMessageSize = 4 * 1024
)

// Conn gorilla 연결. 읽기/쓰기는 각각 하나의 고루틴에서만 한다.
type Conn struct {
	*websocket.Conn
}

// Start 읽기/쓰기 루프 시작
func (c *Client) Start() {
	go c.writeLoop()
	go c.readLoop()
}

func (c *Client) readLoop() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("Panel connection dropped", map[string]interface{}{
					"user_id": c.UserID,
					"role":    c.Role,
					"error":   err.Error(),
				})
			}
			return
		}
		c.Hub.HandleClientMessage(c, message)
	}
}

// writeLoop Send 채널이 닫히면 close 프레임을 보내고 끝난다
func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			if !ok {
				c.write(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.write(websocket.TextMessage, message); err != nil {
				return
			}
			if !c.flush() {
				return
			}

		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// flush 이미 쌓여 있는 이벤트를 이어서 전송. false 면 연결 종료.
func (c *Client) flush() bool {
	for pending := len(c.Send); pending > 0; pending-- {
		message, ok := <-c.Send
		if !ok {
			c.write(websocket.CloseMessage, []byte{})
			return false
		}
		if err := c.write(websocket.TextMessage, message); err != nil {
			return false
		}
	}
	return true
}

func (c *Client) write(messageType int, data []byte) error {
	_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	err := c.Conn.WriteMessage(messageType, data)
	if err != nil && messageType != websocket.CloseMessage {
		logger.Warn("Panel write failed", map[string]interface{}{
			"user_id": c.UserID,
			"role":    c.Role,
			"error":   err.Error(),
		})
	}
	return err
}
