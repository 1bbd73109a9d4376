package user_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appuser "github.com/xiebiao/bookshop/internal/application/user"
	"github.com/xiebiao/bookshop/internal/domain/user"
	"github.com/xiebiao/bookshop/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/bookshop/internal/infrastructure/persistence/mysql/mysqltest"
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
	"github.com/xiebiao/bookshop/pkg/jwt"
)

type fakeSessions struct {
	sessions  map[uint]map[string]any
	blacklist map[string]time.Duration
	saveErr   error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: map[uint]map[string]any{}, blacklist: map[string]time.Duration{}}
}

func (f *fakeSessions) SaveSession(_ context.Context, userID uint, fields map[string]any, _ time.Duration) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.sessions[userID] = fields
	return nil
}

func (f *fakeSessions) DeleteSession(_ context.Context, userID uint) error {
	delete(f.sessions, userID)
	return nil
}

func (f *fakeSessions) AddToBlacklist(_ context.Context, token string, ttl time.Duration) error {
	f.blacklist[token] = ttl
	return nil
}

func TestRegisterLoginLogout(t *testing.T) {
	db := mysqltest.New(t)
	service := user.NewService(mysql.NewUserRepository(db), 4)
	manager := jwt.NewManager("test-secret", time.Hour, 24*time.Hour)
	sessions := newFakeSessions()
	log := zap.NewNop()
	ctx := context.Background()

	register := appuser.NewRegisterUseCase(service, log)
	login := appuser.NewLoginUseCase(service, manager, sessions, log)
	logout := appuser.NewLogoutUseCase(sessions, log)

	info, err := register.Execute(ctx, appuser.RegisterRequest{
		Email:    " Reader@Example.com ",
		Password: "secret123",
		Nickname: "读者",
	})
	require.NoError(t, err)
	assert.Equal(t, "reader@example.com", info.Email)
	assert.Equal(t, "customer", info.Role)

	_, err = register.Execute(ctx, appuser.RegisterRequest{Email: "reader@example.com", Password: "secret123", Nickname: "读者"})
	assert.ErrorIs(t, err, apperrors.ErrEmailDuplicate)

	_, err = login.Execute(ctx, appuser.LoginRequest{Email: "reader@example.com", Password: "wrong1234"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidPassword)

	resp, err := login.Execute(ctx, appuser.LoginRequest{Email: "READER@example.com", Password: "secret123", ClientIP: "10.0.0.1"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "10.0.0.1", sessions.sessions[info.ID]["ip"])

	claims, err := manager.ParseToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "customer", claims.Role)

	require.NoError(t, logout.Execute(ctx, claims, resp.AccessToken))
	assert.NotContains(t, sessions.sessions, info.ID)
	assert.Greater(t, sessions.blacklist[resp.AccessToken], 50*time.Minute)
}

func TestLogin_SessionFailureDoesNotBlockLogin(t *testing.T) {
	db := mysqltest.New(t)
	service := user.NewService(mysql.NewUserRepository(db), 4)
	sessions := newFakeSessions()
	sessions.saveErr = errors.New("redis down")
	ctx := context.Background()

	_, err := appuser.NewRegisterUseCase(service, zap.NewNop()).Execute(ctx, appuser.RegisterRequest{
		Email: "a@example.com", Password: "secret123", Nickname: "甲乙",
	})
	require.NoError(t, err)

	login := appuser.NewLoginUseCase(service, jwt.NewManager("s", time.Hour, time.Hour), sessions, zap.NewNop())
	resp, err := login.Execute(ctx, appuser.LoginRequest{Email: "a@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.RefreshToken)
}
