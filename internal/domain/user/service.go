package user

import (
	"context"
	"errors"
	"regexp"
	"time"
)

// Service 用户领域服务
type Service interface {
	// Provision 开通账号(CLI使用),邮箱不能重复
	Provision(ctx context.Context, name, email string, role Role, contactNumber string) (*User, error)

	GetUser(ctx context.Context, id uint) (*User, error)

	ListUsers(ctx context.Context) ([]*User, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService 创建用户领域服务
func NewService(repo Repository) Service {
	return &service{repo: repo, now: time.Now}
}

func (s *service) Provision(ctx context.Context, name, email string, role Role, contactNumber string) (*User, error) {
	// 1. 字段校验
	u, err := NewUser(name, email, role, contactNumber, s.now())
	if err != nil {
		return nil, err
	}

	// 2. 邮箱查重(唯一索引兜底)
	existing, err := s.repo.FindByEmail(ctx, u.Email)
	if err == nil && existing != nil {
		return nil, ErrEmailExists
	}
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	// 3. 持久化
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) GetUser(ctx context.Context, id uint) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) ListUsers(ctx context.Context) ([]*User, error) {
	return s.repo.List(ctx)
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func isValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}
