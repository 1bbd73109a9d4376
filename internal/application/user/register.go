// Package user 注册、登录、登出用例
package user

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/xiebiao/bookshop/internal/domain/user"
)

// RegisterUseCase 顾客注册，员工和管理员账号由后台初始化
type RegisterUseCase struct {
	userService user.Service
	logger      *zap.Logger
}

func NewRegisterUseCase(userService user.Service, logger *zap.Logger) *RegisterUseCase {
	return &RegisterUseCase{userService: userService, logger: logger}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email    string
	Password string
	Nickname string
}

// UserInfo 用户信息（不含密码）
type UserInfo struct {
	ID       uint   `json:"id"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
	Role     string `json:"role"`
}

func toUserInfo(u *user.User) UserInfo {
	return UserInfo{ID: u.ID, Email: u.Email, Nickname: u.Nickname, Role: string(u.Role)}
}

func (uc *RegisterUseCase) Execute(ctx context.Context, req RegisterRequest) (*UserInfo, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	u, err := uc.userService.Register(ctx, email, req.Password, strings.TrimSpace(req.Nickname))
	if err != nil {
		return nil, err
	}

	uc.logger.Info("用户已注册", zap.Uint("user_id", u.ID), zap.String("email", u.Email))
	info := toUserInfo(u)
	return &info, nil
}
