package chat

import (
	"fmt"
	"testing"
	"time"
)

func recvPayload(t *testing.T, ch <-chan []byte) []byte {
	t.Helper()
	select {
	case p := <-ch:
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("等待遞送超時")
		return nil
	}
}

func TestMemoryTransportFIFOPerSubscriber(t *testing.T) {
	tr := NewMemoryTransport()
	received := make(chan []byte, 100)

	unsub, err := tr.Subscribe("chat_lobby", func(p []byte) { received <- p })
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer unsub()

	for i := 0; i < 100; i++ {
		if err := tr.Publish("chat_lobby", []byte(fmt.Sprintf("msg-%03d", i))); err != nil {
			t.Fatalf("Publish: %v", err)
		}
	}

	for i := 0; i < 100; i++ {
		got := string(recvPayload(t, received))
		want := fmt.Sprintf("msg-%03d", i)
		if got != want {
			t.Fatalf("第 %d 條訊息 = %q, want %q（順序錯亂）", i, got, want)
		}
	}
}

func TestMemoryTransportFanout(t *testing.T) {
	tr := NewMemoryTransport()
	first := make(chan []byte, 10)
	second := make(chan []byte, 10)

	unsub1, _ := tr.Subscribe("chat_lobby", func(p []byte) { first <- p })
	defer unsub1()
	unsub2, _ := tr.Subscribe("chat_lobby", func(p []byte) { second <- p })
	defer unsub2()

	tr.Publish("chat_lobby", []byte("hello"))

	if got := string(recvPayload(t, first)); got != "hello" {
		t.Errorf("訂閱者一收到 %q, want %q", got, "hello")
	}
	if got := string(recvPayload(t, second)); got != "hello" {
		t.Errorf("訂閱者二收到 %q, want %q", got, "hello")
	}
}

func TestMemoryTransportTopicsAreIsolated(t *testing.T) {
	tr := NewMemoryTransport()
	received := make(chan []byte, 10)

	unsub, _ := tr.Subscribe("chat_a", func(p []byte) { received <- p })
	defer unsub()

	tr.Publish("chat_b", []byte("other room"))
	tr.Publish("chat_a", []byte("mine"))

	if got := string(recvPayload(t, received)); got != "mine" {
		t.Fatalf("收到 %q, want %q", got, "mine")
	}
	select {
	case p := <-received:
		t.Fatalf("收到不屬於本 topic 的訊息: %q", p)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryTransportUnsubscribeStopsDelivery(t *testing.T) {
	tr := NewMemoryTransport()
	received := make(chan []byte, 10)

	unsub, _ := tr.Subscribe("chat_lobby", func(p []byte) { received <- p })

	tr.Publish("chat_lobby", []byte("before"))
	recvPayload(t, received)

	unsub()
	tr.Publish("chat_lobby", []byte("after"))

	select {
	case p := <-received:
		t.Fatalf("取消訂閱後仍收到訊息: %q", p)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryTransportTopicDiesWithLastSubscriber(t *testing.T) {
	tr := NewMemoryTransport()
	received := make(chan []byte, 10)

	unsub, _ := tr.Subscribe("chat_lobby", func(p []byte) { received <- p })
	unsub()

	// topic 已銷毀：發布只是丟棄，不報錯也不累積
	if err := tr.Publish("chat_lobby", []byte("into the void")); err != nil {
		t.Fatalf("對已銷毀 topic 發布: %v", err)
	}
	tr.mu.Lock()
	_, alive := tr.topics["chat_lobby"]
	tr.mu.Unlock()
	if alive {
		t.Fatal("最後一個訂閱者退訂後 topic 應被銷毀")
	}

	// 重新訂閱會重建 topic，遞送照常
	unsub2, _ := tr.Subscribe("chat_lobby", func(p []byte) { received <- p })
	defer unsub2()
	tr.Publish("chat_lobby", []byte("reborn"))
	if got := string(recvPayload(t, received)); got != "reborn" {
		t.Fatalf("重建後收到 %q, want %q", got, "reborn")
	}
}
