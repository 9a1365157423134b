package chat

import "regexp"

// MaxRoomNameLength 房間名稱的最大長度
const MaxRoomNameLength = 255

// 只允許字母、數字、底線
var roomNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ValidRoomName 驗證房間名稱格式。
// 連線加入、HTTP 發送訊息和歷史查詢三條路徑都必須使用同一個判斷，
// 確保拒絕的名稱集合一致。
func ValidRoomName(name string) bool {
	if name == "" || len(name) > MaxRoomNameLength {
		return false
	}
	return roomNamePattern.MatchString(name)
}
