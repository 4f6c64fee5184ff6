package user

import (
	"context"
	"log/slog"

	"github.com/xiebiao/library/internal/domain/user"
)

// ProvisionUseCase 开通账号
// 账号由身份方开通(libctl user create),HTTP API不提供注册
type ProvisionUseCase struct {
	userService user.Service
}

func NewProvisionUseCase(userService user.Service) *ProvisionUseCase {
	return &ProvisionUseCase{userService: userService}
}

// ProvisionRequest 开通请求DTO
type ProvisionRequest struct {
	Name          string
	Email         string
	Role          string
	ContactNumber string
}

func (uc *ProvisionUseCase) Execute(ctx context.Context, req ProvisionRequest) (*UserView, error) {
	u, err := uc.userService.Provision(ctx, req.Name, req.Email, user.ParseRole(req.Role), req.ContactNumber)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "user provisioned", "user_id", u.ID, "role", u.Role)
	view := newUserView(u)
	return &view, nil
}
