package gormstore

import (
	"context"

	"gorm.io/gorm"

	"github.com/xiebiao/library/internal/domain/user"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

type wishlistRepository struct {
	db *gorm.DB
}

// NewWishlistRepository 创建心愿单仓储
func NewWishlistRepository(db *gorm.DB) user.WishlistRepository {
	return &wishlistRepository{db: db}
}

func (r *wishlistRepository) Add(ctx context.Context, userID, bookID uint) error {
	err := getDB(ctx, r.db).Create(&WishlistModel{UserID: userID, BookID: bookID}).Error
	if err != nil {
		if isDuplicateError(err) {
			return user.ErrInWishlist
		}
		return apperrors.Wrap(err, "加入心愿单失败")
	}
	return nil
}

func (r *wishlistRepository) Remove(ctx context.Context, userID, bookID uint) error {
	result := getDB(ctx, r.db).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Delete(&WishlistModel{})
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "移出心愿单失败")
	}
	if result.RowsAffected == 0 {
		return user.ErrNotInWishlist
	}
	return nil
}

func (r *wishlistRepository) Contains(ctx context.Context, userID, bookID uint) (bool, error) {
	var count int64
	err := getDB(ctx, r.db).Model(&WishlistModel{}).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Count(&count).Error
	if err != nil {
		return false, apperrors.Wrap(err, "查询心愿单失败")
	}
	return count > 0, nil
}

func (r *wishlistRepository) BookIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := getDB(ctx, r.db).Model(&WishlistModel{}).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Pluck("book_id", &ids).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询心愿单失败")
	}
	return ids, nil
}
