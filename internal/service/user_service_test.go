package service

import (
	"testing"
	"time"

	"eventlink/config"
	"eventlink/internal/model"
	"eventlink/internal/repository"
	"eventlink/internal/testutil"
	"eventlink/pkg/apperr"
	"eventlink/pkg/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserService(t *testing.T) *UserService {
	t.Helper()
	db := testutil.SetupTestDB(t)
	jwtSvc := jwt.NewJWTService(config.JWTConfig{
		Secret:     "test-secret",
		ExpireTime: time.Hour,
		Issuer:     "eventlink-test",
	})
	return NewUserService(repository.NewUserRepository(db), jwtSvc)
}

func TestRegister_Success(t *testing.T) {
	svc := newUserService(t)

	user, token, err := svc.Register("alice", "alice@example.com", "secret123", "")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, model.RoleParticipant, user.Role)
	// 不存明文密码
	assert.NotEqual(t, "secret123", user.PasswordHash)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc := newUserService(t)

	_, _, err := svc.Register("alice", "alice@example.com", "secret123", "")
	require.NoError(t, err)

	_, _, err = svc.Register("alice", "other@example.com", "secret123", "")
	require.Error(t, err)
	assert.Equal(t, 400, apperr.StatusOf(err))
}

func TestRegister_InvalidRole(t *testing.T) {
	svc := newUserService(t)

	// admin角色不能通过注册获得
	_, _, err := svc.Register("alice", "alice@example.com", "secret123", "admin")
	require.Error(t, err)
	assert.Equal(t, 400, apperr.StatusOf(err))
}

func TestLogin(t *testing.T) {
	svc := newUserService(t)

	_, _, err := svc.Register("alice", "alice@example.com", "secret123", "")
	require.NoError(t, err)

	// 用户名登录
	user, token, err := svc.Login("alice", "secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "alice", user.Username)

	// 邮箱登录
	_, _, err = svc.Login("alice@example.com", "secret123")
	require.NoError(t, err)

	// 密码错误与用户不存在返回同一错误
	_, _, err = svc.Login("alice", "wrong")
	require.Error(t, err)
	assert.Equal(t, "invalid credentials", err.Error())

	_, _, err = svc.Login("nobody", "secret123")
	require.Error(t, err)
	assert.Equal(t, "invalid credentials", err.Error())
}
