package chat

import (
	"encoding/json"
	"log"
	"sync"
	"time"
)

// 預設的單一成員遞送時限
const DefaultSendTimeout = 5 * time.Second

// topicFor 房間對應的傳輸層 topic
func topicFor(room string) string {
	return "chat_" + room
}

// Router 負責將事件扇出到房間內的所有成員。
// 事件先經過 Transport（序列化點），再由 deliver 取得成員快照逐一遞送；
// 單一成員遞送失敗只會移除該成員，絕不中斷對其他成員的遞送。
type Router struct {
	registry    *Registry
	transport   Transport
	sendTimeout time.Duration

	mu   sync.Mutex
	subs map[string]func() // room -> 取消訂閱
}

// NewRouter 創建廣播路由器。sendTimeout <= 0 時使用預設值。
func NewRouter(registry *Registry, transport Transport, sendTimeout time.Duration) *Router {
	if sendTimeout <= 0 {
		sendTimeout = DefaultSendTimeout
	}
	return &Router{
		registry:    registry,
		transport:   transport,
		sendTimeout: sendTimeout,
		subs:        make(map[string]func()),
	}
}

// EnsureRoom 建立房間的傳輸層訂閱。冪等；每個房間只訂閱一次。
func (r *Router) EnsureRoom(room string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.subs[room]; ok {
		return nil
	}

	unsub, err := r.transport.Subscribe(topicFor(room), func(payload []byte) {
		r.deliver(room, payload)
	})
	if err != nil {
		return err
	}
	r.subs[room] = unsub
	return nil
}

// ReleaseRoom 在房間已無任何成員時取消傳輸層訂閱，訂閱隨房間生滅。
// 與 EnsureRoom 持同一把鎖，成員數檢查與退訂之間不會插入新的訂閱；
// 房間仍有成員或從未訂閱時是 no-op。
func (r *Router) ReleaseRoom(room string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	unsub, ok := r.subs[room]
	if !ok || r.registry.Count(room) > 0 {
		return
	}
	delete(r.subs, room)
	unsub()
}

// Publish 將事件發布到房間。實際遞送由訂閱回呼完成。
func (r *Router) Publish(room string, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return r.transport.Publish(topicFor(room), payload)
}

// deliver 取得成員快照並逐一遞送。
// 已關閉或超時的成員被記錄並異步移出註冊表（自癒），
// 在途的遞送仍會完成對快照中其餘成員的發送。
func (r *Router) deliver(room string, payload []byte) {
	for _, c := range r.registry.MembersOf(room) {
		if !c.trySend(payload, r.sendTimeout) {
			log.Printf("成員 %s 遞送失敗，將其移出房間 %s", c.ID, room)
			go r.drop(room, c)
		}
	}
}

func (r *Router) drop(room string, c *Client) {
	r.registry.Leave(room, c)
	r.ReleaseRoom(room)
	c.Close()
}
