package service

import (
	"log"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"realtime_chat/internal/chat"
	"realtime_chat/internal/models"
	"realtime_chat/internal/repository"
)

const (
	DefaultHistoryLimit     = 100   // 歷史查詢預設回傳的最大條數
	DefaultMaxMessageLength = 10000 // 消息內容的最大字元數
)

// ChatOptions 聊天服務的可調參數，零值使用預設
type ChatOptions struct {
	HistoryLimit     int
	MaxMessageLength int
	SendTimeout      time.Duration
}

// ChatService 是兩條入口路徑（WebSocket 會話與 HTTP API）共用的訊息漏斗：
// 同一套驗證、同一個時鐘、同一條持久化加廣播路徑，保證行為一致。
type ChatService struct {
	messages repository.MessageRepository
	registry *chat.Registry
	router   *chat.Router

	historyLimit     int
	maxMessageLength int
	clock            serverClock
}

// NewChatService 創建聊天服務並組裝廣播核心
func NewChatService(messages repository.MessageRepository, transport chat.Transport, opts ChatOptions) *ChatService {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = DefaultHistoryLimit
	}
	if opts.MaxMessageLength <= 0 {
		opts.MaxMessageLength = DefaultMaxMessageLength
	}

	registry := chat.NewRegistry()
	return &ChatService{
		messages:         messages,
		registry:         registry,
		router:           chat.NewRouter(registry, transport, opts.SendTimeout),
		historyLimit:     opts.HistoryLimit,
		maxMessageLength: opts.MaxMessageLength,
	}
}

// Registry 暴露連線註冊表（供處理器查詢在線人數等）
func (s *ChatService) Registry() *chat.Registry {
	return s.registry
}

// Router 暴露廣播路由器（供不經過 WebSocket 升級的接線使用）
func (s *ChatService) Router() *chat.Router {
	return s.router
}

// PostMessage 驗證、持久化並廣播一條消息；時間戳在此刻由伺服器賦值，
// 絕不使用客戶端提供的時間。實現 chat.MessagePoster。
//
// 資料庫儲存失敗只記錄日誌，仍照常廣播，保證即時性優先於持久性。
func (s *ChatService) PostMessage(room string, senderID *uint, displayName, content string) (*chat.Event, error) {
	if !chat.ValidRoomName(room) {
		return nil, chat.ErrInvalidRoomName
	}

	// 長度按字元數計，多字節文字不會被提早拒絕
	content = strings.TrimSpace(content)
	if content == "" || utf8.RuneCountInString(content) > s.maxMessageLength {
		return nil, chat.ErrInvalidMessageContent
	}

	timestamp := s.clock.Now()

	msg := &models.ChatMessage{
		RoomName:  room,
		SenderID:  senderID,
		Content:   content,
		Timestamp: timestamp,
	}
	if err := s.messages.Create(msg); err != nil {
		// 即使資料庫儲存失敗，仍發送到 WebSocket，保證即時性
		log.Printf("保存消息到數據庫時發生錯誤: %v", err)
	}

	event := chat.NewEvent(room, displayName, content, timestamp)
	if err := s.router.Publish(room, event); err != nil {
		return nil, err
	}
	return &event, nil
}

// HistoryMessage 是歷史查詢回傳給前端的單條記錄
type HistoryMessage struct {
	Message   string `json:"message"`
	User      string `json:"user"`
	Timestamp string `json:"timestamp"`
}

// History 回傳房間最近的歷史消息，由舊到新，最多 historyLimit 條
func (s *ChatService) History(room string) ([]HistoryMessage, error) {
	if !chat.ValidRoomName(room) {
		return nil, chat.ErrInvalidRoomName
	}

	messages, err := s.messages.FindRecentByRoom(room, s.historyLimit)
	if err != nil {
		return nil, err
	}

	history := make([]HistoryMessage, 0, len(messages))
	for i := range messages {
		history = append(history, HistoryMessage{
			Message:   messages[i].Content,
			User:      messages[i].SenderDisplayName(),
			Timestamp: messages[i].Timestamp.Format(time.RFC3339Nano),
		})
	}
	return history, nil
}

// HandleClient 接管一條已升級的連線，驅動其會話直到斷開
func (s *ChatService) HandleClient(client *chat.Client) {
	chat.NewSession(client, s.registry, s.router, s, s.maxMessageLength).Run()
}

// serverClock 提供單調非遞減的伺服器時間。
// 牆鐘回退時沿用上一次的讀值；相同時間戳的排序由存儲層的插入順序決定。
type serverClock struct {
	mu   sync.Mutex
	last time.Time
}

func (c *serverClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if now.Before(c.last) {
		now = c.last
	}
	c.last = now
	return now
}
