package websocket

import (
	"time"

	"eventlink/config"
	"eventlink/pkg/logger"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Client 代表一个WebSocket连接
// 同一用户可以有多个Client（多设备），以连接ID区分
type Client struct {
	ID       string // 连接ID（UUID）
	UserID   uint
	Username string

	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	// 已加入的房间，只在hub锁内读写
	rooms map[string]bool
}

// NewClient 创建Client实例
func NewClient(id string, userID uint, username string, hub *Hub, conn *websocket.Conn, sendBuffer int) *Client {
	if sendBuffer <= 0 {
		sendBuffer = 256
	}
	return &Client{
		ID:       id,
		UserID:   userID,
		Username: username,
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		rooms:    make(map[string]bool),
	}
}

// writePump 写协程：顺序消费发送缓冲，定时发送ping心跳
// send通道被hub关闭时退出
func (c *Client) writePump(cfg config.WebSocketConfig) {
	ticker := time.NewTicker(cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second)); err != nil {
				return
			}
		}
	}
}

// readPump 读协程：接收客户端帧并交给网关分发
// 读超时内未收到任何数据（含pong）则断开
func (c *Client) readPump(cfg config.WebSocketConfig, dispatch func(*Client, []byte)) {
	defer func() {
		_ = c.conn.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("连接异常关闭", zap.String("conn_id", c.ID), zap.Uint("user_id", c.UserID), zap.Error(err))
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
		dispatch(c, payload)
	}
}
