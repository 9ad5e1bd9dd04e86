package service

import (
	"testing"
	"time"

	"eventlink/config"
	"eventlink/internal/model"
	"eventlink/internal/repository"
	"eventlink/internal/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fixture 测试夹具：一个活动、一个大厅，以及三个已核销并加入大厅的参会者
type fixture struct {
	db *gorm.DB

	userRepo         *repository.UserRepository
	eventRepo        *repository.EventRepository
	friendshipRepo   *repository.FriendshipRepository
	conversationRepo *repository.ConversationRepository
	messageRepo      *repository.MessageRepository
	lobbyRepo        *repository.LobbyRepository
	participantRepo  *repository.ParticipantRepository

	friendSvc *FriendService
	chatSvc   *ChatService

	organizer *model.User
	alice     *model.User
	bob       *model.User
	carol     *model.User

	event *model.Event
	lobby *model.Lobby
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)

	f := &fixture{
		db:               db,
		userRepo:         repository.NewUserRepository(db),
		eventRepo:        repository.NewEventRepository(db),
		friendshipRepo:   repository.NewFriendshipRepository(db),
		conversationRepo: repository.NewConversationRepository(db),
		messageRepo:      repository.NewMessageRepository(db),
		lobbyRepo:        repository.NewLobbyRepository(db),
		participantRepo:  repository.NewParticipantRepository(db),
	}
	f.friendSvc = NewFriendService(f.friendshipRepo, f.userRepo, f.lobbyRepo, f.participantRepo)
	f.chatSvc = NewChatService(f.conversationRepo, f.messageRepo, f.friendshipRepo, f.userRepo, f.friendSvc, config.ChatConfig{
		MaxContentLength: 2000,
		DefaultPageSize:  20,
		MaxPageSize:      100,
	})

	f.organizer = f.createUser(t, "organizer", model.RoleOrganizer)
	f.alice = f.createUser(t, "alice", model.RoleParticipant)
	f.bob = f.createUser(t, "bob", model.RoleParticipant)
	f.carol = f.createUser(t, "carol", model.RoleParticipant)

	now := time.Now()
	f.event = &model.Event{
		Name:      "Go Conference",
		StartDate: now,
		EndDate:   now.Add(48 * time.Hour),
		CreatedBy: f.organizer.ID,
		IsActive:  true,
	}
	require.NoError(t, db.Create(f.event).Error)

	f.lobby = &model.Lobby{
		Name:      "Main Hall",
		EventID:   f.event.ID,
		LobbyType: model.LobbyTypeGeneral,
		IsActive:  true,
		CreatedBy: f.organizer.ID,
	}
	require.NoError(t, db.Create(f.lobby).Error)

	for _, u := range []*model.User{f.alice, f.bob, f.carol} {
		f.checkIn(t, u)
		require.NoError(t, f.lobbyRepo.AddMember(f.lobby.ID, u.ID))
	}
	return f
}

func (f *fixture) createUser(t *testing.T, username, role string) *model.User {
	t.Helper()
	u := &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "not-a-real-hash",
		Role:         role,
		Status:       "offline",
		LastSeen:     time.Now(),
	}
	require.NoError(t, f.userRepo.Create(u))
	return u
}

// checkIn 为用户创建已核销的报名记录
func (f *fixture) checkIn(t *testing.T, u *model.User) {
	t.Helper()
	now := time.Now()
	p := &model.Participant{
		UserID:      u.ID,
		EventID:     f.event.ID,
		Code:        "CODE" + u.Username,
		IsPresent:   true,
		PresentTime: &now,
	}
	require.NoError(t, f.participantRepo.Create(p))
}

// befriend 建立一条已接受的好友关系并返回
func (f *fixture) befriend(t *testing.T, requester, recipient *model.User) *model.Friendship {
	t.Helper()
	fr, err := f.friendSvc.SendRequest(requester.ID, recipient.ID, f.lobby.ID)
	require.NoError(t, err)
	fr, err = f.friendSvc.Accept(fr.ID, recipient.ID)
	require.NoError(t, err)
	return fr
}
