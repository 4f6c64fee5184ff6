package book

import (
	"context"
	"log/slog"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/infrastructure/persistence/gormstore"
)

// DeleteBookUseCase 删除图书(管理员)
// 1. 锁定图书行,与借阅互斥
// 2. 有未归还的借阅时拒绝删除
// 3. 删除图书及其评论、心愿单记录;历史借阅保留
type DeleteBookUseCase struct {
	bookRepo  book.Repository
	loanRepo  loan.Repository
	txManager *gormstore.TxManager
}

func NewDeleteBookUseCase(bookRepo book.Repository, loanRepo loan.Repository, txManager *gormstore.TxManager) *DeleteBookUseCase {
	return &DeleteBookUseCase{
		bookRepo:  bookRepo,
		loanRepo:  loanRepo,
		txManager: txManager,
	}
}

func (uc *DeleteBookUseCase) Execute(ctx context.Context, id uint) error {
	err := uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		if _, err := uc.bookRepo.LockByID(txCtx, id); err != nil {
			return err
		}

		active, err := uc.loanRepo.CountActiveByBook(txCtx, id)
		if err != nil {
			return err
		}
		if active > 0 {
			return book.ErrBookOnLoan
		}

		return uc.bookRepo.Delete(txCtx, id)
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "book deleted", "book_id", id)
	return nil
}
