// Package chat 實現聊天室廣播核心。
//
// 這個包包含房間名稱驗證、連線註冊表、廣播路由器和每個連線的
// ChatSession 狀態機。訊息的持久化由上層的 service 注入，
// 傳輸層（WebSocket 升級、TLS）由 handlers 負責。
package chat
