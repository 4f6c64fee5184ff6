package user

import (
	"context"
	"time"

	"github.com/xiebiao/library/internal/domain/user"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// UserView 用户响应DTO
type UserView struct {
	ID            uint      `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	ContactNumber string    `json:"contact_number,omitempty"`
	RegisteredOn  time.Time `json:"registered_on"`
}

func newUserView(u *user.User) UserView {
	return UserView{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Role:          string(u.Role),
		ContactNumber: u.ContactNumber,
		RegisteredOn:  u.RegisteredOn,
	}
}

// ProfileUseCase 用户资料查询
type ProfileUseCase struct {
	userService user.Service
}

func NewProfileUseCase(userService user.Service) *ProfileUseCase {
	return &ProfileUseCase{userService: userService}
}

// GetProfile 当前用户资料
func (uc *ProfileUseCase) GetProfile(ctx context.Context, userID uint) (*UserView, error) {
	u, err := uc.userService.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	view := newUserView(u)
	return &view, nil
}

// ListUsers 全部用户,仅管理员
func (uc *ProfileUseCase) ListUsers(ctx context.Context, callerRole user.Role) ([]UserView, error) {
	if !callerRole.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}

	users, err := uc.userService.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]UserView, len(users))
	for i, u := range users {
		views[i] = newUserView(u)
	}
	return views, nil
}
