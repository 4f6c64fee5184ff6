package user

import (
	"strings"
	"time"
)

// Role 角色,由身份方签发的Token携带
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole 未知角色按普通用户处理
func ParseRole(s string) Role {
	if Role(strings.ToLower(strings.TrimSpace(s))) == RoleAdmin {
		return RoleAdmin
	}
	return RoleUser
}

// IsAdmin 是否管理员
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// User 读者
// 账号由身份方开通(CLI),本服务不保存密码
type User struct {
	ID            uint
	Name          string
	Email         string
	Role          Role
	ContactNumber string
	RegisteredOn  time.Time
	UpdatedAt     time.Time
}

// NewUser 创建用户(工厂方法)
func NewUser(name, email string, role Role, contactNumber string, now time.Time) (*User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if n := len([]rune(name)); n < 2 || n > 50 {
		return nil, ErrInvalidName
	}
	if !isValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if role != RoleAdmin {
		role = RoleUser
	}

	return &User{
		Name:          name,
		Email:         email,
		Role:          role,
		ContactNumber: strings.TrimSpace(contactNumber),
		RegisteredOn:  now,
		UpdatedAt:     now,
	}, nil
}
