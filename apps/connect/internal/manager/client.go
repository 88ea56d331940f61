package manager

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	sendQueueSize = 64
	writeWait     = 5 * time.Second
	pongWait      = 60 * time.Second
	pingPeriod    = pongWait * 9 / 10
	maxFrameSize  = 4096
)

// FrameHandler 上行帧回调
type FrameHandler func(raw []byte)

// Client 单条 WebSocket 连接
// 写操作只发生在 writeLoop 中，其它协程通过 Enqueue 投递
type Client struct {
	conn     *websocket.Conn
	userUUID string
	deviceID string
	send     chan []byte
	done     chan struct{}
	once     sync.Once
}

// NewClient 包装已升级的连接
func NewClient(conn *websocket.Conn, userUUID, deviceID string) *Client {
	return &Client{
		conn:     conn,
		userUUID: userUUID,
		deviceID: deviceID,
		send:     make(chan []byte, sendQueueSize),
		done:     make(chan struct{}),
	}
}

func (c *Client) UserUUID() string { return c.userUUID }

func (c *Client) DeviceID() string { return c.deviceID }

// Enqueue 投递下行帧，连接已关闭或队列已满时返回 false
func (c *Client) Enqueue(frame []byte) bool {
	if len(frame) == 0 {
		return true
	}
	select {
	case <-c.done:
		return false
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// Serve 启动读写循环，阻塞到连接断开，退出前调用 onClose
func (c *Client) Serve(ctx context.Context, onFrame FrameHandler, onClose func()) {
	defer func() {
		c.Close()
		if onClose != nil {
			onClose()
		}
	}()

	go c.writeLoop(ctx)
	c.readLoop(onFrame)
}

// Close 幂等关闭
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// readLoop 读上行帧，超过 pongWait 没有任何数据视为断线
func (c *Client) readLoop(onFrame FrameHandler) {
	c.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		if onFrame != nil {
			onFrame(raw)
		}
	}
}

func (c *Client) writeLoop(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.Close()
			return
		case <-c.done:
			return
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.Close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		}
	}
}
