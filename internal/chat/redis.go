package chat

import (
	"context"

	"github.com/go-redis/redis/v8"
)

// RedisTransport 以 Redis pub/sub 實現 Transport，
// 讓多個伺服器實例共享同一個廣播域。
// Redis 對單一頻道保證發布順序，滿足 FIFO 約定。
type RedisTransport struct {
	client *redis.Client
	ctx    context.Context
}

// NewRedisTransport 以現有的 Redis 客戶端創建傳輸
func NewRedisTransport(client *redis.Client) *RedisTransport {
	return &RedisTransport{
		client: client,
		ctx:    context.Background(),
	}
}

// Publish 將訊息發布到 Redis 頻道
func (t *RedisTransport) Publish(topic string, payload []byte) error {
	return t.client.Publish(t.ctx, topic, payload).Err()
}

// Subscribe 訂閱 Redis 頻道，為每個訂閱啟動一個接收 goroutine
func (t *RedisTransport) Subscribe(topic string, handler func(payload []byte)) (func(), error) {
	pubsub := t.client.Subscribe(t.ctx, topic)

	// 確認訂閱已建立，避免漏掉緊接著發布的訊息
	if _, err := pubsub.Receive(t.ctx); err != nil {
		pubsub.Close()
		return nil, err
	}

	go func() {
		for msg := range pubsub.Channel() {
			handler([]byte(msg.Payload))
		}
	}()

	return func() { pubsub.Close() }, nil
}
