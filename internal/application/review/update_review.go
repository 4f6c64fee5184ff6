package review

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/event"
	"github.com/xiebiao/library/internal/domain/review"
	"github.com/xiebiao/library/internal/infrastructure/persistence/gormstore"
	"github.com/xiebiao/library/pkg/metrics"
	"github.com/xiebiao/library/pkg/tracing"
)

// UpdateReviewUseCase 修改评论,只有作者本人可以修改
// comment为空时保留原内容
type UpdateReviewUseCase struct {
	bookRepo   book.Repository
	reviewRepo review.Repository
	txManager  *gormstore.TxManager
	publisher  event.Publisher
	now        func() time.Time
}

// NewUpdateReviewUseCase 创建修改评论用例
func NewUpdateReviewUseCase(
	bookRepo book.Repository,
	reviewRepo review.Repository,
	txManager *gormstore.TxManager,
	publisher event.Publisher,
) *UpdateReviewUseCase {
	return &UpdateReviewUseCase{
		bookRepo:   bookRepo,
		reviewRepo: reviewRepo,
		txManager:  txManager,
		publisher:  publisher,
		now:        time.Now,
	}
}

// UpdateReviewRequest 修改评论请求DTO
type UpdateReviewRequest struct {
	ReviewID uint
	CallerID uint
	Rating   int
	Comment  string
}

// Execute 执行修改
// 1. 评分校验
// 2. 查评论并校验作者
// 3. 锁定图书行后重新读取评论,修改并重算聚合
func (uc *UpdateReviewUseCase) Execute(ctx context.Context, req UpdateReviewRequest) (res *WriteResult, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "UpdateReview",
		attribute.Int64("review.id", int64(req.ReviewID)),
		attribute.Int64("user.id", int64(req.CallerID)),
	)
	defer func() {
		tracing.End(span, err)
		metrics.RecordReviewOp("update", resultLabel(err))
	}()

	if err := review.ValidateRating(req.Rating); err != nil {
		return nil, err
	}

	existing, err := uc.reviewRepo.FindByID(ctx, req.ReviewID)
	if err != nil {
		return nil, err
	}
	if !existing.IsOwnedBy(req.CallerID) {
		return nil, review.ErrNotOwner
	}

	now := uc.now().UTC()
	rc := recomputer{bookRepo: uc.bookRepo, reviewRepo: uc.reviewRepo}
	var (
		r     *review.Review
		stats review.RatingStats
	)
	err = uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		if _, err := uc.bookRepo.LockByID(txCtx, existing.BookID); err != nil {
			return err
		}

		// 锁内重新读取,期间可能已被删除
		current, err := uc.reviewRepo.FindByID(txCtx, req.ReviewID)
		if err != nil {
			return err
		}
		if err := current.Revise(req.Rating, req.Comment, now); err != nil {
			return err
		}
		if err := uc.reviewRepo.Update(txCtx, current); err != nil {
			return err
		}

		stats, err = rc.recompute(txCtx, current.BookID)
		if err != nil {
			return err
		}
		r = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "review updated", "review_id", r.ID, "book_id", r.BookID, "rating", r.Rating)

	_ = uc.publisher.Publish(ctx, event.New(event.ReviewUpdated, event.ReviewPayload{
		ReviewID:      r.ID,
		UserID:        r.UserID,
		BookID:        r.BookID,
		Rating:        r.Rating,
		AverageRating: stats.Average,
		ReviewCount:   stats.Count,
	}, now))

	return &WriteResult{
		Review:        newReviewView(r),
		BookID:        r.BookID,
		AverageRating: stats.Average,
		ReviewCount:   stats.Count,
	}, nil
}
