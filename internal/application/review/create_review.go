package review

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/event"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/domain/review"
	"github.com/xiebiao/library/internal/infrastructure/persistence/gormstore"
	"github.com/xiebiao/library/pkg/metrics"
	"github.com/xiebiao/library/pkg/tracing"
)

// CreateReviewUseCase 发表评论
// 1. 评分/内容校验(不访问数据库)
// 2. 锁定图书行,同一本书的评论写操作串行
// 3. 借阅过(任意状态)才能评论
// 4. 每人每本书一条(唯一索引兜底)
// 5. 全量重算评分聚合
type CreateReviewUseCase struct {
	bookRepo   book.Repository
	loanRepo   loan.Repository
	reviewRepo review.Repository
	txManager  *gormstore.TxManager
	publisher  event.Publisher
	now        func() time.Time
}

// NewCreateReviewUseCase 创建发表评论用例
func NewCreateReviewUseCase(
	bookRepo book.Repository,
	loanRepo loan.Repository,
	reviewRepo review.Repository,
	txManager *gormstore.TxManager,
	publisher event.Publisher,
) *CreateReviewUseCase {
	return &CreateReviewUseCase{
		bookRepo:   bookRepo,
		loanRepo:   loanRepo,
		reviewRepo: reviewRepo,
		txManager:  txManager,
		publisher:  publisher,
		now:        time.Now,
	}
}

// CreateReviewRequest 发表评论请求DTO
type CreateReviewRequest struct {
	UserID  uint
	BookID  uint
	Rating  int
	Comment string
}

// Execute 执行发表评论
func (uc *CreateReviewUseCase) Execute(ctx context.Context, req CreateReviewRequest) (res *WriteResult, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "CreateReview",
		attribute.Int64("user.id", int64(req.UserID)),
		attribute.Int64("book.id", int64(req.BookID)),
	)
	defer func() {
		tracing.End(span, err)
		metrics.RecordReviewOp("create", resultLabel(err))
	}()

	now := uc.now().UTC()
	r, err := review.NewReview(req.UserID, req.BookID, req.Rating, req.Comment, now)
	if err != nil {
		return nil, err
	}

	rc := recomputer{bookRepo: uc.bookRepo, reviewRepo: uc.reviewRepo}
	var stats review.RatingStats
	err = uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		if _, err := uc.bookRepo.LockByID(txCtx, req.BookID); err != nil {
			return err
		}

		borrowed, err := uc.loanRepo.ExistsForUserBook(txCtx, req.UserID, req.BookID)
		if err != nil {
			return err
		}
		if !borrowed {
			return review.ErrNotBorrowed
		}

		reviewed, err := uc.reviewRepo.ExistsForUserBook(txCtx, req.UserID, req.BookID)
		if err != nil {
			return err
		}
		if reviewed {
			return review.ErrAlreadyReviewed
		}

		if err := uc.reviewRepo.Create(txCtx, r); err != nil {
			return err
		}

		stats, err = rc.recompute(txCtx, req.BookID)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "review created",
		"review_id", r.ID, "user_id", r.UserID, "book_id", r.BookID, "rating", r.Rating)

	_ = uc.publisher.Publish(ctx, event.New(event.ReviewCreated, event.ReviewPayload{
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
