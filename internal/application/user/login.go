package user

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/bookshop/internal/domain/user"
	"github.com/xiebiao/bookshop/pkg/jwt"
)

// SessionStore 会话与Token黑名单（Redis实现见persistence/redis）
type SessionStore interface {
	SaveSession(ctx context.Context, userID uint, fields map[string]any, ttl time.Duration) error
	DeleteSession(ctx context.Context, userID uint) error
	AddToBlacklist(ctx context.Context, token string, ttl time.Duration) error
}

// LoginUseCase 登录：校验密码，签发Token对，保存会话
type LoginUseCase struct {
	userService  user.Service
	jwtManager   *jwt.Manager
	sessionStore SessionStore
	logger       *zap.Logger
}

func NewLoginUseCase(userService user.Service, jwtManager *jwt.Manager, sessionStore SessionStore, logger *zap.Logger) *LoginUseCase {
	return &LoginUseCase{
		userService:  userService,
		jwtManager:   jwtManager,
		sessionStore: sessionStore,
		logger:       logger,
	}
}

// LoginRequest 登录请求，ClientIP由handler填入
type LoginRequest struct {
	Email    string
	Password string
	ClientIP string
}

// LoginResponse 登录响应
type LoginResponse struct {
	User         UserInfo `json:"user"`
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresIn    int64    `json:"expires_in"`
}

func (uc *LoginUseCase) Execute(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	u, err := uc.userService.Login(ctx, strings.ToLower(strings.TrimSpace(req.Email)), req.Password)
	if err != nil {
		return nil, err
	}

	tokens, err := uc.jwtManager.GenerateToken(jwt.Identity{
		UserID:   u.ID,
		Email:    u.Email,
		Nickname: u.Nickname,
		Role:     string(u.Role),
	})
	if err != nil {
		return nil, err
	}

	session := map[string]any{
		"user_id":  u.ID,
		"email":    u.Email,
		"role":     string(u.Role),
		"login_at": time.Now().Unix(),
		"ip":       req.ClientIP,
	}
	if err := uc.sessionStore.SaveSession(ctx, u.ID, session, uc.jwtManager.RefreshTokenExpire()); err != nil {
		// Token已签发，会话只用于后台查看在线状态
		uc.logger.Warn("保存会话失败", zap.Uint("user_id", u.ID), zap.Error(err))
	}

	uc.logger.Info("用户登录", zap.Uint("user_id", u.ID), zap.String("ip", req.ClientIP))
	return &LoginResponse{
		User:         toUserInfo(u),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresIn:    tokens.ExpiresIn,
	}, nil
}

// LogoutUseCase 登出：删除会话，Access Token在剩余有效期内加入黑名单
type LogoutUseCase struct {
	sessionStore SessionStore
	logger       *zap.Logger
}

func NewLogoutUseCase(sessionStore SessionStore, logger *zap.Logger) *LogoutUseCase {
	return &LogoutUseCase{sessionStore: sessionStore, logger: logger}
}

func (uc *LogoutUseCase) Execute(ctx context.Context, claims *jwt.Claims, accessToken string) error {
	if err := uc.sessionStore.DeleteSession(ctx, claims.UserID); err != nil {
		return err
	}
	if err := uc.sessionStore.AddToBlacklist(ctx, accessToken, jwt.RemainingTTL(claims)); err != nil {
		return err
	}
	uc.logger.Info("用户登出", zap.Uint("user_id", claims.UserID))
	return nil
}
