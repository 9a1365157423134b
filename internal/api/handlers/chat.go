package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"realtime_chat/internal/chat"
	"realtime_chat/internal/models"
	"realtime_chat/internal/service"
)

// ChatHandler 處理透過 HTTP 發送消息和查詢歷史的請求
type ChatHandler struct {
	chatService *service.ChatService
}

// NewChatHandler 創建一個新的 ChatHandler 實例
func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// SendMessageInput 定義 HTTP 發送消息請求的結構
type SendMessageInput struct {
	Message string `json:"message"`
}

// SendMessage 接收 HTTP POST 請求，持久化消息並廣播到指定房間，
// 行為與 WebSocket 會話路徑完全一致（共用 ChatService.PostMessage）。
func (h *ChatHandler) SendMessage(c *gin.Context) {
	roomName := c.Param("room")

	var input SendMessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "消息內容為必填項且不能為空。"})
		return
	}

	senderID, displayName := identityFromContext(c)

	_, err := h.chatService.PostMessage(roomName, senderID, displayName, input.Message)
	switch {
	case errors.Is(err, chat.ErrInvalidRoomName):
		c.JSON(http.StatusBadRequest, gin.H{"error": "房間名稱格式無效。"})
	case errors.Is(err, chat.ErrInvalidMessageContent):
		c.JSON(http.StatusBadRequest, gin.H{"error": "消息內容為必填項且不能為空。"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "訊息廣播失敗"})
	default:
		c.JSON(http.StatusOK, gin.H{"status": "消息已成功發送到 WebSocket 頻道。"})
	}
}

// GetHistory 回傳房間最近的歷史消息（最多 100 條，由舊到新）
func (h *ChatHandler) GetHistory(c *gin.Context) {
	roomName := c.Param("room")

	history, err := h.chatService.History(roomName)
	switch {
	case errors.Is(err, chat.ErrInvalidRoomName):
		c.JSON(http.StatusBadRequest, gin.H{"error": "房間名稱格式無效。"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "加載歷史消息失敗"})
	default:
		c.JSON(http.StatusOK, gin.H{
			"room_name": roomName,
			"messages":  history,
		})
	}
}

// identityFromContext 從上下文取出已解析的顯示身份；未登入時使用匿名標記
func identityFromContext(c *gin.Context) (*uint, string) {
	var senderID *uint
	displayName := models.AnonymousDisplayName

	if v, exists := c.Get("userID"); exists {
		if id, ok := v.(uint); ok {
			senderID = &id
		}
	}
	if v, exists := c.Get("username"); exists {
		if name, ok := v.(string); ok && name != "" {
			displayName = name
		}
	}
	return senderID, displayName
}
