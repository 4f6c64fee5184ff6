package loan

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	bookapp "github.com/xiebiao/library/internal/application/book"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/event"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/internal/infrastructure/persistence/gormstore"
	"github.com/xiebiao/library/pkg/metrics"
	"github.com/xiebiao/library/pkg/tracing"
)

// ReturnUseCase 还书用例
// 1. 锁定借阅记录
// 2. 借阅人本人或管理员才能归还
// 3. 状态流转 active -> returned(条件更新,重复归还返回冲突)
// 4. 借出数减1(最小为0),与状态变化在同一事务
type ReturnUseCase struct {
	bookRepo  book.Repository
	loanRepo  loan.Repository
	txManager *gormstore.TxManager
	publisher event.Publisher
	now       func() time.Time
}

// NewReturnUseCase 创建还书用例
func NewReturnUseCase(
	bookRepo book.Repository,
	loanRepo loan.Repository,
	txManager *gormstore.TxManager,
	publisher event.Publisher,
) *ReturnUseCase {
	return &ReturnUseCase{
		bookRepo:  bookRepo,
		loanRepo:  loanRepo,
		txManager: txManager,
		publisher: publisher,
		now:       time.Now,
	}
}

// ReturnRequest 还书请求DTO,调用方身份由Token提供
type ReturnRequest struct {
	LoanID     uint
	CallerID   uint
	CallerRole user.Role
}

// Execute 执行还书
func (uc *ReturnUseCase) Execute(ctx context.Context, req ReturnRequest) (view *LoanView, err error) {
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, tracerName, "Return",
		attribute.Int64("loan.id", int64(req.LoanID)),
		attribute.Int64("user.id", int64(req.CallerID)),
	)
	defer func() {
		tracing.End(span, err)
		metrics.RecordLoanOp("return", resultLabel(err), time.Since(start).Seconds())
	}()

	now := uc.now().UTC()
	var (
		returned *loan.Loan
		b        *book.Book
	)

	err = uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		l, err := uc.loanRepo.LockByID(txCtx, req.LoanID)
		if err != nil {
			return err
		}
		if !l.CanBeReturnedBy(req.CallerID, req.CallerRole) {
			return loan.ErrForbidden
		}
		if err := l.MarkReturned(now); err != nil {
			return err
		}
		if err := uc.loanRepo.MarkReturned(txCtx, l); err != nil {
			return err
		}
		if err := uc.bookRepo.DecrCopiesOnLoan(txCtx, l.BookID); err != nil {
			return err
		}

		b, err = findBookOrNil(txCtx, uc.bookRepo, l.BookID)
		if err != nil {
			return err
		}
		returned = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "book returned",
		"loan_id", returned.ID, "user_id", returned.UserID, "book_id", returned.BookID, "caller_id", req.CallerID)

	payload := event.LoanPayload{
		LoanID:     returned.ID,
		UserID:     returned.UserID,
		BookID:     returned.BookID,
		DueDate:    returned.DueDate,
		ReturnDate: returned.ReturnDate,
	}
	if b != nil {
		payload.CopiesOnLoan = b.CopiesOnLoan
	}
	_ = uc.publisher.Publish(ctx, event.New(event.LoanReturned, payload, now))

	v := newLoanView(returned, now)
	if b != nil {
		bv := bookapp.NewBookView(b)
		v.Book = &bv
	}
	return &v, nil
}
