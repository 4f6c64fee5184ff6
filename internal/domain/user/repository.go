package user

import (
	"context"
)

// Repository 用户仓储接口
type Repository interface {
	// Create 邮箱重复时返回ErrEmailExists
	Create(ctx context.Context, user *User) error

	FindByID(ctx context.Context, id uint) (*User, error)

	FindByEmail(ctx context.Context, email string) (*User, error)

	// FindByIDs 批量查询(借阅/评论列表关联用户名)
	FindByIDs(ctx context.Context, ids []uint) ([]*User, error)

	// List 按注册时间倒序
	List(ctx context.Context) ([]*User, error)
}

// WishlistRepository 心愿单仓储(用户与图书的集合关系)
type WishlistRepository interface {
	// Add 已存在返回ErrInWishlist
	Add(ctx context.Context, userID, bookID uint) error

	// Remove 不存在返回ErrNotInWishlist
	Remove(ctx context.Context, userID, bookID uint) error

	Contains(ctx context.Context, userID, bookID uint) (bool, error)

	// BookIDs 按加入时间倒序
	BookIDs(ctx context.Context, userID uint) ([]uint, error)
}
