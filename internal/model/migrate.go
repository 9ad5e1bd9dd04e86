package model

// AllModels 返回需要自动迁移的全部模型
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Event{},
		&Lobby{},
		&LobbyMember{},
		&Participant{},
		&Friendship{},
		&Conversation{},
		&Message{},
	}
}
