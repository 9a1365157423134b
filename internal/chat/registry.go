package chat

import "sync"

// Registry 追蹤哪些連線屬於哪個房間。
// 房間在第一個成員加入時隱式建立，最後一個成員離開時移除；
// 每個房間有自己的鎖，避免一個繁忙的房間拖慢其他房間的廣播。
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*roomMembers
}

type roomMembers struct {
	mu      sync.RWMutex
	members map[*Client]struct{}
}

// NewRegistry 創建並初始化新的連線註冊表
func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]*roomMembers),
	}
}

// Join 將成員加入房間。同一個連線重複加入是冪等的，不會造成重複遞送。
// 回傳後保證成員對 MembersOf 可見。
func (r *Registry) Join(room string, c *Client) {
	for {
		r.mu.Lock()
		rm, ok := r.rooms[room]
		if !ok {
			rm = &roomMembers{members: make(map[*Client]struct{})}
			r.rooms[room] = rm
		}
		r.mu.Unlock()

		rm.mu.Lock()
		rm.members[c] = struct{}{}
		rm.mu.Unlock()

		// 插入期間最後一位成員離開可能已把條目剪除，
		// 確認條目仍掛在表上，否則重來
		r.mu.RLock()
		installed := r.rooms[room] == rm
		r.mu.RUnlock()
		if installed {
			return
		}
	}
}

// Leave 將成員從房間移除。移除不存在的成員是 no-op。
func (r *Registry) Leave(room string, c *Client) {
	r.mu.RLock()
	rm, ok := r.rooms[room]
	r.mu.RUnlock()
	if !ok {
		return
	}

	rm.mu.Lock()
	delete(rm.members, c)
	empty := len(rm.members) == 0
	rm.mu.Unlock()

	// 如果房間空了，刪除房間；需重新檢查，期間可能有新成員加入
	if empty {
		r.mu.Lock()
		if cur, ok := r.rooms[room]; ok && cur == rm {
			rm.mu.RLock()
			if len(rm.members) == 0 {
				delete(r.rooms, room)
			}
			rm.mu.RUnlock()
		}
		r.mu.Unlock()
	}
}

// MembersOf 回傳房間成員在此刻的快照，
// 供廣播迭代使用，與並發的加入/離開互不干擾。
func (r *Registry) MembersOf(room string) []*Client {
	r.mu.RLock()
	rm, ok := r.rooms[room]
	r.mu.RUnlock()
	if !ok {
		return nil
	}

	rm.mu.RLock()
	defer rm.mu.RUnlock()

	snapshot := make([]*Client, 0, len(rm.members))
	for c := range rm.members {
		snapshot = append(snapshot, c)
	}
	return snapshot
}

// Count 回傳指定房間目前的在線成員數量
func (r *Registry) Count(room string) int {
	r.mu.RLock()
	rm, ok := r.rooms[room]
	r.mu.RUnlock()
	if !ok {
		return 0
	}

	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.members)
}
