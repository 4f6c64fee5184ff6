package user

import (
	"context"

	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/pkg/jwt"
)

// IssueTokenUseCase 为已开通的用户签发Token(身份方CLI使用)
// Token携带 {user_id, name, role},HTTP层只校验不签发
type IssueTokenUseCase struct {
	userService user.Service
	jwtManager  *jwt.Manager
}

func NewIssueTokenUseCase(userService user.Service, jwtManager *jwt.Manager) *IssueTokenUseCase {
	return &IssueTokenUseCase{
		userService: userService,
		jwtManager:  jwtManager,
	}
}

func (uc *IssueTokenUseCase) Execute(ctx context.Context, userID uint) (*jwt.TokenPair, error) {
	u, err := uc.userService.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return uc.jwtManager.GenerateToken(u.ID, u.Name, string(u.Role))
}
