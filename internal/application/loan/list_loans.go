package loan

import (
	"context"
	"time"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/domain/user"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// ListLoansUseCase 借阅查询
// 1. ListUserLoans 读者自己的借阅,关联图书
// 2. ListAllLoans 全部借阅,关联图书和借阅人,仅管理员
// 3. ListOverdue 逾期未还的借阅(运维CLI使用)
type ListLoansUseCase struct {
	loanRepo  loan.Repository
	assembler viewAssembler
	now       func() time.Time
}

// NewListLoansUseCase 创建借阅查询用例
func NewListLoansUseCase(loanRepo loan.Repository, bookRepo book.Repository, userRepo user.Repository) *ListLoansUseCase {
	return &ListLoansUseCase{
		loanRepo:  loanRepo,
		assembler: viewAssembler{bookRepo: bookRepo, userRepo: userRepo},
		now:       time.Now,
	}
}

// ListUserLoans 按借出时间倒序
func (uc *ListLoansUseCase) ListUserLoans(ctx context.Context, userID uint) ([]LoanView, error) {
	loans, err := uc.loanRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return uc.assembler.assemble(ctx, loans, uc.now().UTC(), false)
}

// ListAllLoans 管理员查看全部借阅
func (uc *ListLoansUseCase) ListAllLoans(ctx context.Context, callerRole user.Role) ([]LoanView, error) {
	if !callerRole.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}

	loans, err := uc.loanRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return uc.assembler.assemble(ctx, loans, uc.now().UTC(), true)
}

// ListOverdue 按到期日升序
func (uc *ListLoansUseCase) ListOverdue(ctx context.Context) ([]LoanView, error) {
	now := uc.now().UTC()
	loans, err := uc.loanRepo.ListOverdue(ctx, now)
	if err != nil {
		return nil, err
	}
	return uc.assembler.assemble(ctx, loans, now, true)
}
