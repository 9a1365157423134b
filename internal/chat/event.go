package chat

import "time"

// Event 代表一次廣播事件，發送給房間內的所有成員。
// 不持久化；由一條進行中的訊息構造，即使資料庫儲存失敗也可能送出。
type Event struct {
	Message   string `json:"message"`
	User      string `json:"user"`
	Timestamp string `json:"timestamp"` // ISO-8601 格式方便前端解析
	Room      string `json:"room"`
}

// NewEvent 以伺服器時間戳構造廣播事件
func NewEvent(room, user, message string, ts time.Time) Event {
	return Event{
		Message:   message,
		User:      user,
		Timestamp: ts.Format(time.RFC3339Nano),
		Room:      room,
	}
}
