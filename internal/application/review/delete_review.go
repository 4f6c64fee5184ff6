package review

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/event"
	"github.com/xiebiao/library/internal/domain/review"
	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/internal/infrastructure/persistence/gormstore"
	"github.com/xiebiao/library/pkg/metrics"
	"github.com/xiebiao/library/pkg/tracing"
)

// DeleteReviewUseCase 删除评论,作者本人或管理员
// 删除后没有评论时聚合归零
type DeleteReviewUseCase struct {
	bookRepo   book.Repository
	reviewRepo review.Repository
	txManager  *gormstore.TxManager
	publisher  event.Publisher
	now        func() time.Time
}

func NewDeleteReviewUseCase(
	bookRepo book.Repository,
	reviewRepo review.Repository,
	txManager *gormstore.TxManager,
	publisher event.Publisher,
) *DeleteReviewUseCase {
	return &DeleteReviewUseCase{
		bookRepo:   bookRepo,
		reviewRepo: reviewRepo,
		txManager:  txManager,
		publisher:  publisher,
		now:        time.Now,
	}
}

// DeleteReviewRequest 删除评论请求DTO
type DeleteReviewRequest struct {
	ReviewID   uint
	CallerID   uint
	CallerRole user.Role
}

func (uc *DeleteReviewUseCase) Execute(ctx context.Context, req DeleteReviewRequest) (res *WriteResult, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "DeleteReview",
		attribute.Int64("review.id", int64(req.ReviewID)),
		attribute.Int64("user.id", int64(req.CallerID)),
	)
	defer func() {
		tracing.End(span, err)
		metrics.RecordReviewOp("delete", resultLabel(err))
	}()

	existing, err := uc.reviewRepo.FindByID(ctx, req.ReviewID)
	if err != nil {
		return nil, err
	}
	if !existing.CanBeDeletedBy(req.CallerID, req.CallerRole) {
		return nil, review.ErrDeleteForbidden
	}

	rc := recomputer{bookRepo: uc.bookRepo, reviewRepo: uc.reviewRepo}
	var stats review.RatingStats
	err = uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		if _, err := uc.bookRepo.LockByID(txCtx, existing.BookID); err != nil {
			return err
		}
		if err := uc.reviewRepo.Delete(txCtx, existing.ID); err != nil {
			return err
		}

		var err error
		stats, err = rc.recompute(txCtx, existing.BookID)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "review deleted",
		"review_id", existing.ID, "book_id", existing.BookID, "caller_id", req.CallerID)

	_ = uc.publisher.Publish(ctx, event.New(event.ReviewDeleted, event.ReviewPayload{
		ReviewID:      existing.ID,
		UserID:        existing.UserID,
		BookID:        existing.BookID,
		AverageRating: stats.Average,
		ReviewCount:   stats.Count,
	}, uc.now()))

	return &WriteResult{
		BookID:        existing.BookID,
		AverageRating: stats.Average,
		ReviewCount:   stats.Count,
	}, nil
}
