package loan

import (
	apperrors "github.com/xiebiao/library/pkg/errors"
)

var (
	ErrLoanNotFound    = apperrors.New(apperrors.ErrCodeLoanNotFound, "借阅记录不存在")
	ErrAlreadyOnLoan   = apperrors.New(apperrors.ErrCodeAlreadyOnLoan, "你已借阅该书且尚未归还")
	ErrAlreadyReturned = apperrors.New(apperrors.ErrCodeAlreadyReturned, "该书已归还")
	ErrForbidden       = apperrors.New(apperrors.ErrCodeForbidden, "无权归还他人的借阅")
)
