package service

import (
	"testing"

	"eventlink/internal/model"
	"eventlink/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendRequest_Success(t *testing.T) {
	f := newFixture(t)

	fr, err := f.friendSvc.SendRequest(f.alice.ID, f.bob.ID, f.lobby.ID)
	require.NoError(t, err)
	assert.Equal(t, model.FriendshipPending, fr.Status)
	assert.Equal(t, f.alice.ID, fr.RequesterID)
	assert.Equal(t, f.bob.ID, fr.RecipientID)
	assert.Equal(t, f.event.ID, fr.EventID)
	assert.Equal(t, f.lobby.ID, fr.LobbyID)
}

func TestSendRequest_ToSelf(t *testing.T) {
	f := newFixture(t)

	_, err := f.friendSvc.SendRequest(f.alice.ID, f.alice.ID, f.lobby.ID)
	require.Error(t, err)
	assert.Equal(t, 400, apperr.StatusOf(err))
}

func TestSendRequest_DuplicatePairRejectedBothDirections(t *testing.T) {
	f := newFixture(t)

	_, err := f.friendSvc.SendRequest(f.alice.ID, f.bob.ID, f.lobby.ID)
	require.NoError(t, err)

	// 同方向重复
	_, err = f.friendSvc.SendRequest(f.alice.ID, f.bob.ID, f.lobby.ID)
	require.Error(t, err)
	assert.Equal(t, "a connection already exists between these users", err.Error())

	// 反方向重复
	_, err = f.friendSvc.SendRequest(f.bob.ID, f.alice.ID, f.lobby.ID)
	require.Error(t, err)
	assert.Equal(t, "a connection already exists between these users", err.Error())
}

func TestSendRequest_RequiresVerifiedParticipants(t *testing.T) {
	f := newFixture(t)

	// dave在大厅里但没有核销的报名记录
	dave := f.createUser(t, "dave", model.RoleParticipant)
	require.NoError(t, f.lobbyRepo.AddMember(f.lobby.ID, dave.ID))

	_, err := f.friendSvc.SendRequest(f.alice.ID, dave.ID, f.lobby.ID)
	require.Error(t, err)
	assert.Equal(t, 403, apperr.StatusOf(err))
}

func TestSendRequest_RequiresSharedLobby(t *testing.T) {
	f := newFixture(t)

	// erin已核销但不在大厅中
	erin := f.createUser(t, "erin", model.RoleParticipant)
	f.checkIn(t, erin)

	_, err := f.friendSvc.SendRequest(f.alice.ID, erin.ID, f.lobby.ID)
	require.Error(t, err)
	assert.Equal(t, 403, apperr.StatusOf(err))
}

func TestAccept_OnlyRecipient(t *testing.T) {
	f := newFixture(t)

	fr, err := f.friendSvc.SendRequest(f.alice.ID, f.bob.ID, f.lobby.ID)
	require.NoError(t, err)

	// 发起方不能替对方接受
	_, err = f.friendSvc.Accept(fr.ID, f.alice.ID)
	require.Error(t, err)
	assert.Equal(t, 403, apperr.StatusOf(err))

	accepted, err := f.friendSvc.Accept(fr.ID, f.bob.ID)
	require.NoError(t, err)
	assert.Equal(t, model.FriendshipAccepted, accepted.Status)
}

func TestAccept_AlreadyHandled(t *testing.T) {
	f := newFixture(t)

	fr := f.befriend(t, f.alice, f.bob)

	_, err := f.friendSvc.Accept(fr.ID, f.bob.ID)
	require.Error(t, err)
	assert.Equal(t, 400, apperr.StatusOf(err))
	assert.Contains(t, err.Error(), "already accepted")
}

func TestReject(t *testing.T) {
	f := newFixture(t)

	fr, err := f.friendSvc.SendRequest(f.alice.ID, f.bob.ID, f.lobby.ID)
	require.NoError(t, err)

	rejected, err := f.friendSvc.Reject(fr.ID, f.bob.ID)
	require.NoError(t, err)
	assert.Equal(t, model.FriendshipRejected, rejected.Status)

	ok, err := f.friendSvc.CanMessage(f.alice.ID, f.bob.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanMessage_OnlyWhenAccepted(t *testing.T) {
	f := newFixture(t)

	ok, err := f.friendSvc.CanMessage(f.alice.ID, f.bob.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	f.befriend(t, f.alice, f.bob)

	ok, err = f.friendSvc.CanMessage(f.alice.ID, f.bob.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	// 方向无关
	ok, err = f.friendSvc.CanMessage(f.bob.ID, f.alice.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBlock_UpgradesExistingFriendship(t *testing.T) {
	f := newFixture(t)

	f.befriend(t, f.alice, f.bob)

	blocked, err := f.friendSvc.Block(f.bob.ID, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, model.FriendshipBlocked, blocked.Status)

	ok, err := f.friendSvc.CanMessage(f.alice.ID, f.bob.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBlock_WithoutRelationRequiresSharedLobby(t *testing.T) {
	f := newFixture(t)

	// 没有关系但同大厅：允许直接拉黑
	blocked, err := f.friendSvc.Block(f.alice.ID, f.carol.ID)
	require.NoError(t, err)
	assert.Equal(t, model.FriendshipBlocked, blocked.Status)
	assert.Equal(t, f.alice.ID, blocked.RequesterID)

	// 从未同过大厅的用户不能拉黑
	erin := f.createUser(t, "erin", model.RoleParticipant)
	_, err = f.friendSvc.Block(f.alice.ID, erin.ID)
	require.Error(t, err)
	assert.Equal(t, 400, apperr.StatusOf(err))
}

func TestUnblock_AllowsNewRequest(t *testing.T) {
	f := newFixture(t)

	f.befriend(t, f.alice, f.bob)
	_, err := f.friendSvc.Block(f.alice.ID, f.bob.ID)
	require.NoError(t, err)

	// 只有拉黑发起方可以解除
	err = f.friendSvc.Unblock(f.bob.ID, f.alice.ID)
	require.Error(t, err)
	assert.Equal(t, 404, apperr.StatusOf(err))

	require.NoError(t, f.friendSvc.Unblock(f.alice.ID, f.bob.ID))

	// 关系记录删除后可以重新发起请求
	fr, err := f.friendSvc.SendRequest(f.bob.ID, f.alice.ID, f.lobby.ID)
	require.NoError(t, err)
	assert.Equal(t, model.FriendshipPending, fr.Status)
}

func TestRemove_OnlyAcceptedFriendship(t *testing.T) {
	f := newFixture(t)

	fr, err := f.friendSvc.SendRequest(f.alice.ID, f.bob.ID, f.lobby.ID)
	require.NoError(t, err)

	// pending状态不能删除
	err = f.friendSvc.Remove(fr.ID, f.alice.ID)
	require.Error(t, err)
	assert.Equal(t, "this is not an active friendship", err.Error())

	_, err = f.friendSvc.Accept(fr.ID, f.bob.ID)
	require.NoError(t, err)

	// 无关用户不能删除
	err = f.friendSvc.Remove(fr.ID, f.carol.ID)
	require.Error(t, err)
	assert.Equal(t, 403, apperr.StatusOf(err))

	require.NoError(t, f.friendSvc.Remove(fr.ID, f.bob.ID))

	// 删除后可重新发起请求
	_, err = f.friendSvc.SendRequest(f.alice.ID, f.bob.ID, f.lobby.ID)
	require.NoError(t, err)
}

func TestListFriends(t *testing.T) {
	f := newFixture(t)

	f.befriend(t, f.alice, f.bob)
	f.befriend(t, f.carol, f.alice)

	friends, err := f.friendSvc.ListFriends(f.alice.ID)
	require.NoError(t, err)
	require.Len(t, friends, 2)

	names := []string{friends[0].Friend.Username, friends[1].Friend.Username}
	assert.ElementsMatch(t, []string{"bob", "carol"}, names)
}

func TestListRequests(t *testing.T) {
	f := newFixture(t)

	_, err := f.friendSvc.SendRequest(f.alice.ID, f.bob.ID, f.lobby.ID)
	require.NoError(t, err)
	_, err = f.friendSvc.SendRequest(f.carol.ID, f.alice.ID, f.lobby.ID)
	require.NoError(t, err)

	requests, err := f.friendSvc.ListRequests(f.alice.ID)
	require.NoError(t, err)
	require.Len(t, requests.Sent, 1)
	require.Len(t, requests.Received, 1)
	assert.Equal(t, "bob", requests.Sent[0].User.Username)
	assert.Equal(t, "carol", requests.Received[0].User.Username)
}

func TestPotentialFriends_ExcludesConnected(t *testing.T) {
	f := newFixture(t)

	users, err := f.friendSvc.PotentialFriends(f.lobby.ID, f.alice.ID)
	require.NoError(t, err)
	require.Len(t, users, 2)

	// 任何方向、任何状态的已有关系都被排除
	_, err = f.friendSvc.SendRequest(f.alice.ID, f.bob.ID, f.lobby.ID)
	require.NoError(t, err)

	users, err = f.friendSvc.PotentialFriends(f.lobby.ID, f.alice.ID)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "carol", users[0].Username)
}

func TestPotentialFriends_RequiresMembership(t *testing.T) {
	f := newFixture(t)

	erin := f.createUser(t, "erin", model.RoleParticipant)
	_, err := f.friendSvc.PotentialFriends(f.lobby.ID, erin.ID)
	require.Error(t, err)
	assert.Equal(t, 403, apperr.StatusOf(err))
}

func TestStatus_ReportsDirection(t *testing.T) {
	f := newFixture(t)

	status, err := f.friendSvc.Status(f.alice.ID, f.bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "none", status.Status)

	fr, err := f.friendSvc.SendRequest(f.alice.ID, f.bob.ID, f.lobby.ID)
	require.NoError(t, err)

	status, err = f.friendSvc.Status(f.alice.ID, f.bob.ID)
	require.NoError(t, err)
	assert.Equal(t, model.FriendshipPending, status.Status)
	assert.Equal(t, "outgoing", status.Direction)

	status, err = f.friendSvc.Status(f.bob.ID, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "incoming", status.Direction)

	_, err = f.friendSvc.Accept(fr.ID, f.bob.ID)
	require.NoError(t, err)

	status, err = f.friendSvc.Status(f.alice.ID, f.bob.ID)
	require.NoError(t, err)
	assert.Equal(t, model.FriendshipAccepted, status.Status)
}
