package user

import (
	"context"
	"log/slog"
	"time"
)

// TokenRevoker Token黑名单
type TokenRevoker interface {
	RevokeToken(ctx context.Context, token string, ttl time.Duration) error
}

// LogoutUseCase 登出
// JWT无状态,登出即把当前Token记入黑名单直到它自然过期
type LogoutUseCase struct {
	revoker TokenRevoker
	now     func() time.Time
}

func NewLogoutUseCase(revoker TokenRevoker) *LogoutUseCase {
	return &LogoutUseCase{revoker: revoker, now: time.Now}
}

// Execute expiresAt为Token的过期时间
func (uc *LogoutUseCase) Execute(ctx context.Context, userID uint, token string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(uc.now())
	if err := uc.revoker.RevokeToken(ctx, token, ttl); err != nil {
		return err
	}

	slog.InfoContext(ctx, "user logged out", "user_id", userID)
	return nil
}
