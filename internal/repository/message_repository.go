package repository

import (
	"realtime_chat/internal/models"
	"realtime_chat/internal/storage"
)

// MessageRepository 是聊天消息的持久化接口。
// Create 失敗只回報、不自動重試；是否照常進行即時遞送由呼叫方決定。
type MessageRepository interface {
	Create(message *models.ChatMessage) error
	// FindRecentByRoom 回傳房間最近的 limit 條消息，由舊到新排序。
	// 排序必須與廣播順序一致：時間戳非遞減，時間戳相同時依插入順序。
	FindRecentByRoom(room string, limit int) ([]models.ChatMessage, error)
}

type messageRepository struct {
	db *storage.PostgresDB
}

func NewMessageRepository(db *storage.PostgresDB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(message *models.ChatMessage) error {
	return r.db.Create(message).Error
}

func (r *messageRepository) FindRecentByRoom(room string, limit int) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage

	// 先取最近的 limit 條（時間倒序、主鍵倒序），再反轉成由舊到新
	err := r.db.
		Preload("Sender").
		Where("room_name = ?", room).
		Order("timestamp desc, id desc").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
