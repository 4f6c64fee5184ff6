package review

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xiebiao/library/internal/domain/user"
)

const (
	MinRating        = 1
	MaxRating        = 5
	MaxCommentLength = 500 // 按字符计
)

// Review 图书评论
// 同一用户对同一本书最多一条
type Review struct {
	ID        uint
	UserID    uint
	BookID    uint
	Rating    int
	Comment   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidateRating 评分为1-5的整数
func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return ErrInvalidRating
	}
	return nil
}

func validateComment(comment string) error {
	if utf8.RuneCountInString(comment) > MaxCommentLength {
		return ErrCommentTooLong
	}
	return nil
}

// NewReview 创建评论(工厂方法)
func NewReview(userID, bookID uint, rating int, comment string, now time.Time) (*Review, error) {
	comment = strings.TrimSpace(comment)
	if err := ValidateRating(rating); err != nil {
		return nil, err
	}
	if err := validateComment(comment); err != nil {
		return nil, err
	}
	return &Review{
		UserID:    userID,
		BookID:    bookID,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Revise 修改评分和内容,comment为空时保留原内容
func (r *Review) Revise(rating int, comment string, now time.Time) error {
	comment = strings.TrimSpace(comment)
	if err := ValidateRating(rating); err != nil {
		return err
	}
	if err := validateComment(comment); err != nil {
		return err
	}
	r.Rating = rating
	if comment != "" {
		r.Comment = comment
	}
	r.UpdatedAt = now
	return nil
}

// IsOwnedBy 是否为评论作者
func (r *Review) IsOwnedBy(userID uint) bool {
	return r.UserID == userID
}

// CanBeDeletedBy 作者本人或管理员
func (r *Review) CanBeDeletedBy(userID uint, role user.Role) bool {
	return r.IsOwnedBy(userID) || role.IsAdmin()
}

// RatingStats 一本书的评分聚合
type RatingStats struct {
	Average float64
	Count   int
}

// ComputeStats 从全部评分重新计算(不做增量更新),没有评分时为0/0
func ComputeStats(ratings []int) RatingStats {
	if len(ratings) == 0 {
		return RatingStats{}
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return RatingStats{
		Average: float64(sum) / float64(len(ratings)),
		Count:   len(ratings),
	}
}
