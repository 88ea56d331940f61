package manager

import (
	"MoirServer/pkg/metrics"
	"sync"
)

// ConnectionManager 在线连接索引：user_uuid -> device_id -> client
// 同一设备只保留最新的一条连接
type ConnectionManager struct {
	mu     sync.RWMutex
	byUser map[string]map[string]*Client
	total  int
	closed bool
}

func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{byUser: make(map[string]map[string]*Client)}
}

// Register 登记连接，返回被顶替的旧连接（可能为 nil），由调用方关闭
// 管理器关闭后返回 false
func (m *ConnectionManager) Register(client *Client) (*Client, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, false
	}

	devices, ok := m.byUser[client.UserUUID()]
	if !ok {
		devices = make(map[string]*Client)
		m.byUser[client.UserUUID()] = devices
	}
	old := devices[client.DeviceID()]
	devices[client.DeviceID()] = client
	if old == nil {
		m.total++
		metrics.WSOnlineConnections.Inc()
	}
	return old, true
}

// Unregister 注销连接；该设备已被新连接顶替时不做任何事
func (m *ConnectionManager) Unregister(client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	devices, ok := m.byUser[client.UserUUID()]
	if !ok || devices[client.DeviceID()] != client {
		return
	}
	delete(devices, client.DeviceID())
	if len(devices) == 0 {
		delete(m.byUser, client.UserUUID())
	}
	m.total--
	metrics.WSOnlineConnections.Dec()
}

// SendToUser 向用户所有在线设备投递，返回成功入队的设备数
func (m *ConnectionManager) SendToUser(userUUID string, frame []byte) int {
	m.mu.RLock()
	devices := m.byUser[userUUID]
	clients := make([]*Client, 0, len(devices))
	for _, client := range devices {
		clients = append(clients, client)
	}
	m.mu.RUnlock()

	sent := 0
	for _, client := range clients {
		if client.Enqueue(frame) {
			sent++
		}
	}
	return sent
}

// Count 在线连接数
func (m *ConnectionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.total
}

// Shutdown 断开全部连接并拒绝新的登记
func (m *ConnectionManager) Shutdown() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true

	var clients []*Client
	for _, devices := range m.byUser {
		for _, client := range devices {
			clients = append(clients, client)
		}
	}
	metrics.WSOnlineConnections.Sub(float64(m.total))
	m.byUser = make(map[string]map[string]*Client)
	m.total = 0
	m.mu.Unlock()

	for _, client := range clients {
		client.Close()
	}
}
