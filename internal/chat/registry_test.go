package chat

import (
	"fmt"
	"sync"
	"testing"
)

func newTestClient(room string) *Client {
	return NewClient(nil, room, nil, "tester")
}

func TestRegistryJoinThenLeave(t *testing.T) {
	r := NewRegistry()
	c := newTestClient("lobby")

	r.Join("lobby", c)
	if got := r.Count("lobby"); got != 1 {
		t.Fatalf("Count after join = %d, want 1", got)
	}

	r.Leave("lobby", c)
	if got := r.Count("lobby"); got != 0 {
		t.Fatalf("Count after leave = %d, want 0", got)
	}
	if members := r.MembersOf("lobby"); len(members) != 0 {
		t.Fatalf("MembersOf after leave = %d members, want 0", len(members))
	}
}

func TestRegistryJoinIdempotent(t *testing.T) {
	r := NewRegistry()
	c := newTestClient("lobby")

	r.Join("lobby", c)
	r.Join("lobby", c)

	if got := r.Count("lobby"); got != 1 {
		t.Fatalf("重複加入後 Count = %d, want 1", got)
	}
}

func TestRegistryLeaveAbsentIsNoop(t *testing.T) {
	r := NewRegistry()
	c := newTestClient("lobby")

	// 從不存在的房間離開
	r.Leave("lobby", c)
	if got := r.Count("lobby"); got != 0 {
		t.Fatalf("Count = %d, want 0", got)
	}

	// 從有其他成員的房間移除非成員
	other := newTestClient("lobby")
	r.Join("lobby", other)
	r.Leave("lobby", c)
	if got := r.Count("lobby"); got != 1 {
		t.Fatalf("移除非成員後 Count = %d, want 1", got)
	}
}

func TestRegistrySnapshotUnaffectedByLaterMutation(t *testing.T) {
	r := NewRegistry()
	clients := make([]*Client, 3)
	for i := range clients {
		clients[i] = newTestClient("lobby")
		r.Join("lobby", clients[i])
	}

	snapshot := r.MembersOf("lobby")
	r.Leave("lobby", clients[0])

	if len(snapshot) != 3 {
		t.Fatalf("快照長度 = %d, want 3", len(snapshot))
	}
	if got := r.Count("lobby"); got != 2 {
		t.Fatalf("Count = %d, want 2", got)
	}
}

func TestRegistryRoomsAreIsolated(t *testing.T) {
	r := NewRegistry()
	a := newTestClient("room_a")
	b := newTestClient("room_b")

	r.Join("room_a", a)
	r.Join("room_b", b)

	for _, m := range r.MembersOf("room_a") {
		if m == b {
			t.Fatal("room_a 的快照包含 room_b 的成員")
		}
	}
	if r.Count("room_a") != 1 || r.Count("room_b") != 1 {
		t.Fatalf("Count = (%d, %d), want (1, 1)", r.Count("room_a"), r.Count("room_b"))
	}
}

// 最後一位成員離開觸發的剪除，與同時進行的加入競爭時，
// 加入方回傳後必須對 MembersOf 可見，不得落入已被剪除的孤兒集合。
func TestRegistryJoinVisibleDespiteConcurrentPrune(t *testing.T) {
	r := NewRegistry()

	for i := 0; i < 10000; i++ {
		old := newTestClient("lobby")
		r.Join("lobby", old)

		joiner := newTestClient("lobby")
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.Leave("lobby", old)
		}()
		go func() {
			defer wg.Done()
			r.Join("lobby", joiner)
		}()
		wg.Wait()

		visible := false
		for _, m := range r.MembersOf("lobby") {
			if m == joiner {
				visible = true
			}
		}
		if !visible {
			t.Fatalf("第 %d 輪：加入成功的成員在快照中不可見", i)
		}
		r.Leave("lobby", joiner)
	}
}

func TestRegistryConcurrentJoinLeaveSnapshot(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		room := fmt.Sprintf("room_%d", i%4)
		c := newTestClient(room)
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Join(room, c)
			r.MembersOf(room)
			r.Leave(room, c)
		}()
	}
	wg.Wait()

	for i := 0; i < 4; i++ {
		room := fmt.Sprintf("room_%d", i)
		if got := r.Count(room); got != 0 {
			t.Errorf("Count(%s) = %d, want 0", room, got)
		}
	}
}
