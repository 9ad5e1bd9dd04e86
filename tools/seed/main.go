package main

import (
	"fmt"
	"log"
	"time"

	"eventlink/config"
	"eventlink/internal/model"
	"eventlink/pkg/db"
	"eventlink/pkg/password"
)

// 开发环境演示数据：一个活动、两个大厅、一名组织者和四名已核销参会者，
// 其中 alice/bob 已互为好友并各有一条消息
func main() {
	cfg := config.LoadConfig()

	gdb, err := db.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.CloseDB()

	if err := db.AutoMigrate(model.AllModels()...); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	hash, err := password.Hash("password123")
	if err != nil {
		log.Fatalf("hash failed: %v", err)
	}

	organizer := &model.User{Username: "organizer", Email: "organizer@example.com", PasswordHash: hash, Role: model.RoleOrganizer, Status: "offline", LastSeen: time.Now()}
	users := []*model.User{
		organizer,
		{Username: "alice", Email: "alice@example.com", PasswordHash: hash, Role: model.RoleParticipant, Status: "offline", LastSeen: time.Now()},
		{Username: "bob", Email: "bob@example.com", PasswordHash: hash, Role: model.RoleParticipant, Status: "offline", LastSeen: time.Now()},
		{Username: "carol", Email: "carol@example.com", PasswordHash: hash, Role: model.RoleParticipant, Status: "offline", LastSeen: time.Now()},
		{Username: "dave", Email: "dave@example.com", PasswordHash: hash, Role: model.RoleParticipant, Status: "offline", LastSeen: time.Now()},
	}
	for _, u := range users {
		if err := gdb.Create(u).Error; err != nil {
			log.Fatalf("create user %s failed: %v", u.Username, err)
		}
	}

	now := time.Now()
	event := &model.Event{
		Name:        "GopherCon Shanghai",
		Description: "Annual Go developer conference",
		Location:    "Shanghai Expo Center",
		Category:    "technology",
		StartDate:   now,
		EndDate:     now.Add(48 * time.Hour),
		CreatedBy:   organizer.ID,
		IsActive:    true,
	}
	if err := gdb.Create(event).Error; err != nil {
		log.Fatalf("create event failed: %v", err)
	}

	mainHall := &model.Lobby{Name: "Main Hall", EventID: event.ID, LobbyType: model.LobbyTypeGeneral, IsActive: true, CreatedBy: organizer.ID}
	workshop := &model.Lobby{Name: "Concurrency Workshop", EventID: event.ID, LobbyType: model.LobbyTypeWorkshop, MaxParticipants: 30, IsActive: true, CreatedBy: organizer.ID}
	for _, l := range []*model.Lobby{mainHall, workshop} {
		if err := gdb.Create(l).Error; err != nil {
			log.Fatalf("create lobby failed: %v", err)
		}
	}

	// 参会者全部已核销并进入主大厅
	for i, u := range users[1:] {
		p := &model.Participant{
			UserID:      u.ID,
			EventID:     event.ID,
			Code:        fmt.Sprintf("SEED%04d", i+1),
			IsPresent:   true,
			PresentTime: &now,
		}
		if err := gdb.Create(p).Error; err != nil {
			log.Fatalf("create participant failed: %v", err)
		}
		if err := gdb.Create(&model.LobbyMember{LobbyID: mainHall.ID, UserID: u.ID}).Error; err != nil {
			log.Fatalf("add lobby member failed: %v", err)
		}
	}

	alice, bob := users[1], users[2]
	friendship := &model.Friendship{
		RequesterID:     alice.ID,
		RecipientID:     bob.ID,
		Status:          model.FriendshipAccepted,
		EventID:         event.ID,
		LobbyID:         mainHall.ID,
		LastInteraction: now,
	}
	if err := gdb.Create(friendship).Error; err != nil {
		log.Fatalf("create friendship failed: %v", err)
	}

	conversation := &model.Conversation{
		UserAID:      alice.ID,
		UserBID:      bob.ID,
		FriendshipID: friendship.ID,
		UnreadCounts: model.NewUnreadCounts(alice.ID, bob.ID),
		IsActive:     true,
		EventID:      event.ID,
		LobbyID:      mainHall.ID,
	}
	if err := gdb.Create(conversation).Error; err != nil {
		log.Fatalf("create conversation failed: %v", err)
	}

	messages := []*model.Message{
		{SenderID: alice.ID, RecipientID: bob.ID, FriendshipID: friendship.ID, Content: "Hey Bob, great talk this morning!", IsRead: true},
		{SenderID: bob.ID, RecipientID: alice.ID, FriendshipID: friendship.ID, Content: "Thanks! See you at the workshop?"},
	}
	for _, m := range messages {
		if err := gdb.Create(m).Error; err != nil {
			log.Fatalf("create message failed: %v", err)
		}
	}
	last := messages[len(messages)-1]
	conversation.LastMessageID = &last.ID
	conversation.IncrementUnread(alice.ID)
	if err := gdb.Save(conversation).Error; err != nil {
		log.Fatalf("update conversation failed: %v", err)
	}

	fmt.Println("Seed data created:")
	fmt.Printf("  event:   %s (id=%d)\n", event.Name, event.ID)
	fmt.Printf("  lobbies: %s, %s\n", mainHall.Name, workshop.Name)
	fmt.Printf("  users:   organizer, alice, bob, carol, dave (password: password123)\n")
	fmt.Printf("  alice and bob are friends with one unread message for alice\n")
}
