package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// 發送通道的緩衝大小
const sendQueueSize = 256

// Client 代表一個已連線的房間成員。
// 核心只持有非擁有的引用：底層連線由傳輸層建立，
// 在測試中 Conn 可以為 nil，遞送只透過 Send 通道進行。
type Client struct {
	ID       uuid.UUID       // 連線本地的識別碼
	Conn     *websocket.Conn // WebSocket 連接
	Room     string          // 房間名稱
	UserID   *uint           // 用戶 ID，nil 表示未登入
	Username string          // 顯示名稱

	Send chan []byte // 出站訊息通道

	done      chan struct{}
	closeOnce sync.Once
}

// NewClient 創建一個新的成員連線
func NewClient(conn *websocket.Conn, room string, userID *uint, username string) *Client {
	return &Client{
		ID:       uuid.New(),
		Conn:     conn,
		Room:     room,
		UserID:   userID,
		Username: username,
		Send:     make(chan []byte, sendQueueSize),
		done:     make(chan struct{}),
	}
}

// Close 關閉連線並標記成員已離線。可重複呼叫。
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.Conn != nil {
			c.Conn.Close()
		}
	})
}

// Done 在連線關閉後被 close，供寫入端結束等待
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// trySend 在限定時間內將訊息放入出站通道。
// 回傳 false 表示成員已關閉或在時限內無法接收，呼叫方應將其移除。
func (c *Client) trySend(payload []byte, timeout time.Duration) bool {
	select {
	case c.Send <- payload:
		return true
	case <-c.done:
		return false
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case c.Send <- payload:
		return true
	case <-c.done:
		return false
	case <-timer.C:
		return false
	}
}
