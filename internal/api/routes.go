package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"realtime_chat/internal/api/handlers"
	"realtime_chat/internal/middleware"
	"realtime_chat/internal/service"
)

func SetupRoutes(r *gin.Engine, services *service.Services) {
	// 初始化 handlers
	authHandler := handlers.NewAuthHandler(services.User)
	chatHandler := handlers.NewChatHandler(services.Chat)
	wsHandler := handlers.NewWebSocketHandler(services.Chat)

	// API 路由群組
	api := r.Group("/api")

	// 處理 404 錯誤
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "找不到該路徑",
		})
	})

	// 公開路由
	{
		// 用戶認證相關
		api.POST("/register", authHandler.Register)
		api.POST("/login", authHandler.Login)

		// 基本的健康檢查
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status": "ok",
			})
		})

		// 歷史消息查詢，允許匿名
		api.GET("/rooms/:room/messages",
			middleware.OptionalAuthMiddleware(), chatHandler.GetHistory)
	}

	// 需要驗證的路由
	authorized := api.Group("/")
	authorized.Use(middleware.AuthMiddleware())
	{
		// 透過 HTTP 發送消息到房間（與 WebSocket 路徑行為一致）
		authorized.POST("/rooms/:room/messages", chatHandler.SendMessage)
	}

	// WebSocket 連接點；瀏覽器無法設置請求頭，身份從 ?token= 解析，允許匿名
	r.GET("/ws/chat/:room", middleware.OptionalAuthMiddleware(), wsHandler.HandleWebSocket)
}
