package review

import (
	"context"
	"time"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/review"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

const tracerName = "library.review"

// ReviewView 评论响应DTO
type ReviewView struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"user_id"`
	UserName  string    `json:"user_name,omitempty"`
	BookID    uint      `json:"book_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WriteResult 写操作结果,带重算后的图书评分
type WriteResult struct {
	Review        *ReviewView `json:"review,omitempty"`
	BookID        uint        `json:"book_id"`
	AverageRating float64     `json:"average_rating"`
	ReviewCount   int         `json:"review_count"`
}

func newReviewView(r *review.Review) *ReviewView {
	return &ReviewView{
		ID:        r.ID,
		UserID:    r.UserID,
		BookID:    r.BookID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// recomputer 评分聚合重算
// 必须在持有图书行锁的事务中调用,同一本书的评论写操作因此串行,
// 不会用过期的扫描结果覆盖别人的聚合
type recomputer struct {
	bookRepo   book.Repository
	reviewRepo review.Repository
}

func (rc recomputer) recompute(txCtx context.Context, bookID uint) (review.RatingStats, error) {
	ratings, err := rc.reviewRepo.RatingsByBook(txCtx, bookID)
	if err != nil {
		return review.RatingStats{}, err
	}
	stats := review.ComputeStats(ratings)
	if err := rc.bookRepo.UpdateRatingStats(txCtx, bookID, stats.Average, stats.Count); err != nil {
		return review.RatingStats{}, err
	}
	return stats, nil
}

func resultLabel(err error) string {
	if err == nil {
		return "success"
	}
	return apperrors.KindOf(err).String()
}
