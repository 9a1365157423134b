// Package middleware 提供了 HTTP 請求處理的中間件。
//
// 這個包包含身份驗證相關的中間件：必須登入的 AuthMiddleware，
// 以及允許匿名、有 token 時才解析身份的 OptionalAuthMiddleware。
package middleware
