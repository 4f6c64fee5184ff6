package review

import (
	"context"
)

// Repository 评论仓储接口
type Repository interface {
	// Create 同一用户同一本书已有评论时返回ErrAlreadyReviewed
	Create(ctx context.Context, review *Review) error

	FindByID(ctx context.Context, id uint) (*Review, error)

	// FindByUserAndBook 不存在返回ErrReviewNotFound
	FindByUserAndBook(ctx context.Context, userID, bookID uint) (*Review, error)

	Update(ctx context.Context, review *Review) error

	Delete(ctx context.Context, id uint) error

	// ListByBook 按创建时间倒序
	ListByBook(ctx context.Context, bookID uint) ([]*Review, error)

	// RatingsByBook 该书全部评分,用于重算聚合
	RatingsByBook(ctx context.Context, bookID uint) ([]int, error)

	ExistsForUserBook(ctx context.Context, userID, bookID uint) (bool, error)
}
