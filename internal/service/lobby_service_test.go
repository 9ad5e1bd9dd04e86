package service

import (
	"testing"

	"eventlink/internal/model"
	"eventlink/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLobbySvc(f *fixture) (*LobbyService, *ParticipantService, *EventService) {
	eventSvc := NewEventService(f.eventRepo, f.userRepo)
	participantSvc := NewParticipantService(f.participantRepo, f.eventRepo, eventSvc)
	lobbySvc := NewLobbyService(f.lobbyRepo, f.userRepo, f.participantRepo, eventSvc, participantSvc)
	return lobbySvc, participantSvc, eventSvc
}

func TestCheckInFlow(t *testing.T) {
	f := newFixture(t)
	_, participantSvc, _ := newLobbySvc(f)

	dave := f.createUser(t, "dave", model.RoleParticipant)

	p, err := participantSvc.Register(dave.ID, f.event.ID, "13800000000")
	require.NoError(t, err)
	require.NotEmpty(t, p.Code)
	assert.False(t, p.IsPresent)

	// 重复报名被拒绝
	_, err = participantSvc.Register(dave.ID, f.event.ID, "")
	require.Error(t, err)
	assert.Equal(t, 400, apperr.StatusOf(err))

	// 非组织者不能核销
	_, err = participantSvc.CheckIn(f.alice.ID, f.event.ID, p.Code)
	require.Error(t, err)
	assert.Equal(t, 403, apperr.StatusOf(err))

	checked, err := participantSvc.CheckIn(f.organizer.ID, f.event.ID, p.Code)
	require.NoError(t, err)
	assert.True(t, checked.IsPresent)
	require.NotNil(t, checked.PresentTime)

	// 签到码一次性
	_, err = participantSvc.CheckIn(f.organizer.ID, f.event.ID, p.Code)
	require.Error(t, err)
	assert.Equal(t, 400, apperr.StatusOf(err))
}

func TestJoinLobby_RequiresCheckIn(t *testing.T) {
	f := newFixture(t)
	lobbySvc, participantSvc, _ := newLobbySvc(f)

	dave := f.createUser(t, "dave", model.RoleParticipant)

	// 未报名不能加入
	_, err := lobbySvc.Join(dave.ID, f.lobby.ID)
	require.Error(t, err)
	assert.Equal(t, 403, apperr.StatusOf(err))

	p, err := participantSvc.Register(dave.ID, f.event.ID, "")
	require.NoError(t, err)

	// 已报名未核销仍不能加入
	_, err = lobbySvc.Join(dave.ID, f.lobby.ID)
	require.Error(t, err)
	assert.Equal(t, 403, apperr.StatusOf(err))

	_, err = participantSvc.CheckIn(f.organizer.ID, f.event.ID, p.Code)
	require.NoError(t, err)

	_, err = lobbySvc.Join(dave.ID, f.lobby.ID)
	require.NoError(t, err)

	// 重复加入幂等
	_, err = lobbySvc.Join(dave.ID, f.lobby.ID)
	require.NoError(t, err)

	// 加入后记录了大厅访问时间
	reg, err := participantSvc.MyRegistration(dave.ID, f.event.ID)
	require.NoError(t, err)
	assert.True(t, reg.HasAccessedLobby)
}

func TestJoinLobby_CapacityLimit(t *testing.T) {
	f := newFixture(t)
	lobbySvc, _, _ := newLobbySvc(f)

	small, err := lobbySvc.CreateLobby(f.organizer.ID, f.event.ID, CreateLobbyInput{
		Name:            "Small Room",
		MaxParticipants: 1,
	})
	require.NoError(t, err)

	_, err = lobbySvc.Join(f.alice.ID, small.ID)
	require.NoError(t, err)

	_, err = lobbySvc.Join(f.bob.ID, small.ID)
	require.Error(t, err)
	assert.Equal(t, "this lobby is full", err.Error())
}

func TestCreateLobby_OrganizerOnly(t *testing.T) {
	f := newFixture(t)
	lobbySvc, _, _ := newLobbySvc(f)

	_, err := lobbySvc.CreateLobby(f.alice.ID, f.event.ID, CreateLobbyInput{Name: "Side Room"})
	require.Error(t, err)
	assert.Equal(t, 403, apperr.StatusOf(err))

	lobby, err := lobbySvc.CreateLobby(f.organizer.ID, f.event.ID, CreateLobbyInput{
		Name:      "Workshop A",
		LobbyType: model.LobbyTypeWorkshop,
	})
	require.NoError(t, err)
	assert.Equal(t, model.LobbyTypeWorkshop, lobby.LobbyType)
}

func TestLobbyMembers_VisibleToMembersOnly(t *testing.T) {
	f := newFixture(t)
	lobbySvc, _, _ := newLobbySvc(f)

	members, err := lobbySvc.Members(f.alice.ID, f.lobby.ID)
	require.NoError(t, err)
	assert.Len(t, members, 3)

	erin := f.createUser(t, "erin", model.RoleParticipant)
	_, err = lobbySvc.Members(erin.ID, f.lobby.ID)
	require.Error(t, err)
	assert.Equal(t, 403, apperr.StatusOf(err))
}
