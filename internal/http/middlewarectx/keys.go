// Package middlewarectx содержит HTTP middleware и типизированные ключи
// контекста, через которые обработчики получают данные авторизованного
// пользователя.
package middlewarectx

// Key — типизированный ключ контекста запроса.
type Key string

const (
	// User — email авторизованного пользователя.
	User Key = "user"
	// Role — роль авторизованного пользователя.
	Role Key = "role"
)
