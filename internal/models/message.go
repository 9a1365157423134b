package models

import (
	"time"

	"gorm.io/gorm"
)

// AnonymousDisplayName 未登入用戶的顯示名稱
const AnonymousDisplayName = "未登入用戶"

// ChatMessage 代表一條持久化的聊天消息（用於存儲歷史記錄）。
// 房間不是持久化實體，room_name 只作為分區鍵；
// SenderID 為 nil 表示匿名或發送者已被刪除。
type ChatMessage struct {
	gorm.Model
	RoomName  string    `gorm:"type:varchar(255);index;not null" json:"room_name"` // 聊天室名稱
	SenderID  *uint     `json:"sender_id"`                                         // 發送者，用戶刪除時設為空
	Sender    *User     `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	Content   string    `gorm:"type:text;not null" json:"content"` // 消息內容
	Timestamp time.Time `gorm:"index" json:"timestamp"`            // 發送時間，由伺服器賦值
}

// SenderDisplayName 回傳發送者的顯示名稱，匿名時回傳預設標記
func (m *ChatMessage) SenderDisplayName() string {
	if m.Sender != nil {
		return m.Sender.Username
	}
	return AnonymousDisplayName
}
