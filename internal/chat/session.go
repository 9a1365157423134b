package chat

import (
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	maxContentRunes = 10000            // 未指定內容上限時的後備值
	frameOverhead   = 1024             // JSON 信封與轉義的餘裕
	readDeadline    = 60 * time.Second // 等待下一個訊息（或 pong）的時限
	writeDeadline   = 10 * time.Second // 寫入超時
	pingPeriod      = 54 * time.Second // 心跳間隔
)

// 錯誤回覆只發給出錯的連線本身，與前端約定的字串保持一致
const (
	errInvalidRoomName  = "房間名稱格式無效。"
	errInvalidContent   = "消息內容為空或格式無效。"
	errInvalidJSON      = "Invalid JSON format."
	errServerProcessing = "Server error processing message."
)

// MessagePoster 接收一條已通過協議層檢查的訊息：
// 驗證內容、持久化並廣播。由 service 層實現。
type MessagePoster interface {
	PostMessage(room string, senderID *uint, displayName, content string) (*Event, error)
}

// Session 擁有一條連線的完整生命週期：加入、讀取迴圈、離開。
// 狀態轉移：Connecting → Joined → Closed；
// 房間名稱無效時直接進入 Closed，不會加入註冊表。
type Session struct {
	client    *Client
	registry  *Registry
	router    *Router
	poster    MessagePoster
	readLimit int64
}

// NewSession 創建一條連線的會話控制器。
// 讀取上限依內容上限推導：UTF-8 每字最多 4 字節，再加 JSON 信封的餘裕，
// 保證長度合法的消息不會在協議層被拒。
func NewSession(client *Client, registry *Registry, router *Router, poster MessagePoster, maxMessageLength int) *Session {
	if maxMessageLength <= 0 {
		maxMessageLength = maxContentRunes
	}
	return &Session{
		client:    client,
		registry:  registry,
		router:    router,
		poster:    poster,
		readLimit: int64(maxMessageLength)*4 + frameOverhead,
	}
}

// Run 驅動會話直到連線關閉。呼叫方的 goroutine 會被佔用。
func (s *Session) Run() {
	c := s.client

	// Connecting → Closed：房間名稱無效，拒絕後關閉，從未加入
	if !ValidRoomName(c.Room) {
		log.Printf("檢測到無效房間名稱格式: %q，拒絕連線。", c.Room)
		s.writeDirect(errorFrame(errInvalidRoomName))
		c.Close()
		return
	}

	// Connecting → Joined
	s.registry.Join(c.Room, c)
	if err := s.router.EnsureRoom(c.Room); err != nil {
		log.Printf("建立房間 %s 的訂閱失敗: %v", c.Room, err)
		s.registry.Leave(c.Room, c)
		c.Close()
		return
	}
	log.Printf("用戶 %q 連線到房間: %s", c.Username, c.Room)

	// Joined → Closed：任何原因的斷線都會走到這裡
	defer func() {
		s.registry.Leave(c.Room, c)
		s.router.ReleaseRoom(c.Room)
		c.Close()
		log.Printf("用戶 %q 從房間斷開: %s", c.Username, c.Room)
	}()

	go s.writePump()
	s.readPump()
}

// readPump 持續讀取並處理來自客戶端的訊息。
// 無效的訊息（壞 JSON、非字串、空內容）只回覆錯誤，會話保持 Joined。
func (s *Session) readPump() {
	c := s.client
	c.Conn.SetReadLimit(s.readLimit)
	c.Conn.SetReadDeadline(time.Now().Add(readDeadline))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(readDeadline))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket unexpected close error: %v", err)
			}
			return
		}

		var frame map[string]interface{}
		if err := json.Unmarshal(data, &frame); err != nil {
			log.Printf("收到非 JSON 格式的數據。")
			s.replyError(errInvalidJSON)
			continue
		}

		content, ok := frame["message"].(string)
		if !ok || strings.TrimSpace(content) == "" {
			log.Printf("收到空消息或無效消息。")
			s.replyError(errInvalidContent)
			continue
		}

		if _, err := s.poster.PostMessage(c.Room, c.UserID, c.Username, content); err != nil {
			if errors.Is(err, ErrInvalidMessageContent) {
				s.replyError(errInvalidContent)
				continue
			}
			log.Printf("處理消息時發生錯誤: %v", err)
			s.replyError(errServerProcessing)
		}
	}
}

// writePump 處理向客戶端發送訊息的邏輯
func (s *Session) writePump() {
	c := s.client
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case payload := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			// 發送心跳包
			c.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.Done():
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// replyError 將錯誤回覆排入出站通道（只給出錯的連線）
func (s *Session) replyError(msg string) {
	s.client.trySend(errorFrame(msg), writeDeadline)
}

// writeDirect 在 writePump 啟動前直接寫入連線（僅用於加入被拒的路徑）
func (s *Session) writeDirect(payload []byte) {
	if s.client.Conn == nil {
		return
	}
	s.client.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	s.client.Conn.WriteMessage(websocket.TextMessage, payload)
}

func errorFrame(msg string) []byte {
	data, _ := json.Marshal(map[string]string{"error": msg})
	return data
}
