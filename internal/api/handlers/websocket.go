package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"realtime_chat/internal/chat"
	"realtime_chat/internal/service"
)

// 定義 WebSocket 升級器
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // 注意：在生產環境中，應該檢查 origin
	},
}

// WebSocketHandler 處理 WebSocket 連接
type WebSocketHandler struct {
	chatService *service.ChatService
}

// NewWebSocketHandler 創建一個新的 WebSocketHandler 實例
func NewWebSocketHandler(chatService *service.ChatService) *WebSocketHandler {
	return &WebSocketHandler{chatService: chatService}
}

// HandleWebSocket 處理 WebSocket 連接請求。
// 房間名稱的驗證在會話內完成：無效時先回覆錯誤再關閉，
// 讓瀏覽器端拿得到拒絕原因（HTTP 階段拒絕只會看到握手失敗）。
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	// 升級 HTTP 連接為 WebSocket 連接
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "升級WebSocket失敗"})
		return
	}

	roomName := c.Param("room")
	senderID, displayName := identityFromContext(c)

	// 創建客戶端並交給會話驅動，直到連線關閉
	client := chat.NewClient(conn, roomName, senderID, displayName)
	h.chatService.HandleClient(client)
}
