package chat

import "sync"

// Transport 是注入的頻道傳輸能力，對應發布/訂閱語義。
// 單機的記憶體實現與分散式 broker 實現可以互換，核心邏輯不變。
//
// 約定：同一個 topic 上 Publish 的順序，對任何一個訂閱者而言
// 必須以相同的相對順序送達（FIFO per topic, per subscriber）。
type Transport interface {
	Publish(topic string, payload []byte) error
	Subscribe(topic string, handler func(payload []byte)) (unsubscribe func(), err error)
}

// MemoryTransport 是單一進程內的 Transport 實現。
// 每個 topic 有一條有序佇列和一個專屬的分發 goroutine，
// 作為並發 Publish 的序列化點，保證訂閱者收到的順序。
// topic 隨最後一個訂閱者退訂而銷毀，分發 goroutine 一併結束。
type MemoryTransport struct {
	mu     sync.Mutex
	topics map[string]*memoryTopic
}

type memoryTopic struct {
	mu       sync.RWMutex
	handlers map[int]func([]byte)
	nextID   int
	queue    chan []byte
	done     chan struct{}
}

// NewMemoryTransport 創建記憶體傳輸
func NewMemoryTransport() *MemoryTransport {
	return &MemoryTransport{
		topics: make(map[string]*memoryTopic),
	}
}

// Publish 將訊息放入 topic 的有序佇列。
// 沒有任何訂閱者的 topic 不存在，訊息直接丟棄，與 broker 的發布語義一致。
func (t *MemoryTransport) Publish(topic string, payload []byte) error {
	t.mu.Lock()
	mt, ok := t.topics[topic]
	t.mu.Unlock()
	if !ok {
		return nil
	}

	select {
	case mt.queue <- payload:
	case <-mt.done:
	}
	return nil
}

// Subscribe 註冊 topic 的處理函數，回傳取消訂閱的函數。
// 最後一個處理函數退訂時銷毀整個 topic。
func (t *MemoryTransport) Subscribe(topic string, handler func(payload []byte)) (func(), error) {
	t.mu.Lock()
	mt, ok := t.topics[topic]
	if !ok {
		mt = &memoryTopic{
			handlers: make(map[int]func([]byte)),
			queue:    make(chan []byte, sendQueueSize),
			done:     make(chan struct{}),
		}
		t.topics[topic] = mt
		go mt.dispatch()
	}

	mt.mu.Lock()
	id := mt.nextID
	mt.nextID++
	mt.handlers[id] = handler
	mt.mu.Unlock()
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()

		mt.mu.Lock()
		delete(mt.handlers, id)
		empty := len(mt.handlers) == 0
		mt.mu.Unlock()

		if empty && t.topics[topic] == mt {
			delete(t.topics, topic)
			close(mt.done)
		}
	}, nil
}

// dispatch 依序將佇列中的訊息交給所有處理函數，done 關閉後結束
func (mt *memoryTopic) dispatch() {
	for {
		select {
		case payload := <-mt.queue:
			mt.mu.RLock()
			handlers := make([]func([]byte), 0, len(mt.handlers))
			for _, h := range mt.handlers {
				handlers = append(handlers, h)
			}
			mt.mu.RUnlock()

			for _, h := range handlers {
				h(payload)
			}

		case <-mt.done:
			return
		}
	}
}
