package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"realtime_chat/internal/chat"
	"realtime_chat/internal/models"
	"realtime_chat/internal/repository"
	"realtime_chat/internal/service"
	"realtime_chat/internal/storage"
)

type chatTestEnv struct {
	engine *gin.Engine
	svc    *service.ChatService
	user   *models.User
}

// newChatTestEnv 組裝 SQLite 資料庫、聊天服務與路由；
// 身份中間件以測試替身注入，與 JWT 解析解耦。
func newChatTestEnv(t *testing.T) *chatTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.ChatMessage{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	store := &storage.PostgresDB{DB: db}

	repos := repository.NewRepositories(store)
	user := &models.User{Username: "api-user", Password: "x"}
	if err := repos.User.Create(user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	svc := service.NewChatService(repos.Message, chat.NewMemoryTransport(),
		service.ChatOptions{SendTimeout: time.Second})
	h := NewChatHandler(svc)

	identity := func(c *gin.Context) {
		c.Set("userID", user.ID)
		c.Set("username", user.Username)
	}

	r := gin.New()
	r.POST("/api/rooms/:room/messages", identity, h.SendMessage)
	r.GET("/api/rooms/:room/messages", h.GetHistory)

	return &chatTestEnv{engine: r, svc: svc, user: user}
}

func (e *chatTestEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("解析響應失敗: %v (%s)", err, w.Body.String())
	}
	return body
}

func TestSendAndHistoryRejectInvalidRoomIdentically(t *testing.T) {
	env := newChatTestEnv(t)

	// 兩條路徑必須以同一個判斷拒絕同一批名稱
	sendResp := env.do(t, http.MethodPost, "/api/rooms/bad!room/messages", `{"message":"hello"}`)
	histResp := env.do(t, http.MethodGet, "/api/rooms/bad!room/messages", "")

	for name, w := range map[string]*httptest.ResponseRecorder{"send": sendResp, "history": histResp} {
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s 狀態碼 = %d, want %d", name, w.Code, http.StatusBadRequest)
		}
		if got := decodeBody(t, w)["error"]; got != "房間名稱格式無效。" {
			t.Errorf("%s 錯誤訊息 = %v, want %q", name, got, "房間名稱格式無效。")
		}
	}
}

func TestSendMessageRejectsEmptyContent(t *testing.T) {
	env := newChatTestEnv(t)

	for _, body := range []string{`{"message":"   "}`, `{"message":""}`, `{}`, `{"message":42}`} {
		w := env.do(t, http.MethodPost, "/api/rooms/lobby/messages", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("對 %s 的狀態碼 = %d, want %d", body, w.Code, http.StatusBadRequest)
		}
	}
}

func TestSendMessageBroadcastsToLiveMembersAndPersists(t *testing.T) {
	env := newChatTestEnv(t)

	// 模擬一個已透過 WebSocket 加入房間的成員
	member := chat.NewClient(nil, "lobby", nil, "A")
	env.svc.Registry().Join("lobby", member)
	if err := env.svc.Router().EnsureRoom("lobby"); err != nil {
		t.Fatalf("EnsureRoom: %v", err)
	}

	w := env.do(t, http.MethodPost, "/api/rooms/lobby/messages", `{"message":"hello"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("狀態碼 = %d, want %d (%s)", w.Code, http.StatusOK, w.Body.String())
	}

	// 提交者不需要 WebSocket 連線，在線成員仍收到廣播
	select {
	case payload := <-member.Send:
		var ev chat.Event
		if err := json.Unmarshal(payload, &ev); err != nil {
			t.Fatalf("解析事件失敗: %v", err)
		}
		if ev.Message != "hello" || ev.User != "api-user" {
			t.Fatalf("廣播事件不正確: %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("在線成員未收到 HTTP 提交的廣播")
	}

	// 歷史查詢包含該消息且在最後，顯示提交者的用戶名
	hw := env.do(t, http.MethodGet, "/api/rooms/lobby/messages", "")
	if hw.Code != http.StatusOK {
		t.Fatalf("歷史狀態碼 = %d, want %d", hw.Code, http.StatusOK)
	}
	var hist struct {
		RoomName string                   `json:"room_name"`
		Messages []map[string]interface{} `json:"messages"`
	}
	if err := json.Unmarshal(hw.Body.Bytes(), &hist); err != nil {
		t.Fatalf("解析歷史響應失敗: %v", err)
	}
	if len(hist.Messages) == 0 {
		t.Fatal("歷史為空")
	}
	last := hist.Messages[len(hist.Messages)-1]
	if last["message"] != "hello" || last["user"] != "api-user" {
		t.Fatalf("歷史最後一條不正確: %v", last)
	}
}

func TestHistoryEmptyRoomReturnsEmptyList(t *testing.T) {
	env := newChatTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/rooms/quiet_room/messages", "")
	if w.Code != http.StatusOK {
		t.Fatalf("狀態碼 = %d, want %d", w.Code, http.StatusOK)
	}
	var hist struct {
		Messages []map[string]interface{} `json:"messages"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &hist); err != nil {
		t.Fatalf("解析歷史響應失敗: %v", err)
	}
	if len(hist.Messages) != 0 {
		t.Fatalf("空房間的歷史條數 = %d, want 0", len(hist.Messages))
	}
}
