package loan

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	bookapp "github.com/xiebiao/library/internal/application/book"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/event"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/infrastructure/persistence/gormstore"
	"github.com/xiebiao/library/pkg/metrics"
	"github.com/xiebiao/library/pkg/tracing"
)

const tracerName = "library.loan"

// BorrowUseCase 借书用例
//
// 核心问题:最后一本被同时借出
// 场景:馆藏1本,两个读者同时借
// 错误实现:
//  1. 查询 copies_on_loan < copies → 两个请求都成立
//  2. 各自 copies_on_loan + 1 → 借出数超过馆藏
//
// 正确实现:
//  1. SELECT FOR UPDATE 锁定图书行
//  2. 检查可借性和重复借阅
//  3. 条件UPDATE(copies_on_loan < copies)自增借出数
//  4. 插入借阅记录(active_key唯一索引兜底重复借阅)
//  5. COMMIT释放锁,提交后发布事件
type BorrowUseCase struct {
	bookRepo  book.Repository
	loanRepo  loan.Repository
	txManager *gormstore.TxManager
	publisher event.Publisher
	now       func() time.Time
}

// NewBorrowUseCase 创建借书用例
func NewBorrowUseCase(
	bookRepo book.Repository,
	loanRepo loan.Repository,
	txManager *gormstore.TxManager,
	publisher event.Publisher,
) *BorrowUseCase {
	return &BorrowUseCase{
		bookRepo:  bookRepo,
		loanRepo:  loanRepo,
		txManager: txManager,
		publisher: publisher,
		now:       time.Now,
	}
}

// BorrowRequest 借书请求DTO
type BorrowRequest struct {
	UserID uint // 借阅人(从Token中提取)
	BookID uint
}

// Execute 执行借书
func (uc *BorrowUseCase) Execute(ctx context.Context, req BorrowRequest) (view *LoanView, err error) {
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, tracerName, "Borrow",
		attribute.Int64("user.id", int64(req.UserID)),
		attribute.Int64("book.id", int64(req.BookID)),
	)
	defer func() {
		tracing.End(span, err)
		metrics.RecordLoanOp("borrow", resultLabel(err), time.Since(start).Seconds())
	}()

	now := uc.now().UTC()
	newLoan := loan.NewLoan(req.UserID, req.BookID, now)
	var borrowed *book.Book

	err = uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		// 1. 锁定图书行
		b, err := uc.bookRepo.LockByID(txCtx, req.BookID)
		if err != nil {
			return err
		}

		// 2. 可借性检查(锁定后检查)
		if !b.Available() {
			return book.ErrUnavailable
		}

		// 3. 重复借阅检查
		_, err = uc.loanRepo.FindActive(txCtx, req.UserID, req.BookID)
		switch {
		case err == nil:
			return loan.ErrAlreadyOnLoan
		case !errors.Is(err, loan.ErrLoanNotFound):
			return err
		}

		// 4. 条件自增借出数
		if err := uc.bookRepo.IncrCopiesOnLoan(txCtx, req.BookID); err != nil {
			return err
		}
		b.CopiesOnLoan++

		// 5. 插入借阅记录
		if err := uc.loanRepo.Create(txCtx, newLoan); err != nil {
			return err
		}
		borrowed = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "book borrowed",
		"loan_id", newLoan.ID, "user_id", req.UserID, "book_id", req.BookID, "due_date", newLoan.DueDate)

	// 事件发布失败不影响借书结果
	_ = uc.publisher.Publish(ctx, event.New(event.LoanBorrowed, event.LoanPayload{
		LoanID:       newLoan.ID,
		UserID:       newLoan.UserID,
		BookID:       newLoan.BookID,
		DueDate:      newLoan.DueDate,
		CopiesOnLoan: borrowed.CopiesOnLoan,
	}, now))

	v := newLoanView(newLoan, now)
	bv := bookapp.NewBookView(borrowed)
	v.Book = &bv
	return &v, nil
}
