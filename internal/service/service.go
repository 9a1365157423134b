package service

import (
	"realtime_chat/internal/chat"
	"realtime_chat/internal/repository"
)

type Services struct {
	User *UserService
	Chat *ChatService
}

func NewServices(repos *repository.Repositories, transport chat.Transport, opts ChatOptions) *Services {
	return &Services{
		User: NewUserService(repos.User),
		Chat: NewChatService(repos.Message, transport, opts),
	}
}
