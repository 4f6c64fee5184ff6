package loan

import (
	"context"
	"time"
)

// Repository 借阅仓储接口
type Repository interface {
	// Create 插入借阅记录,同一用户同一本书已有active记录时返回ErrAlreadyOnLoan
	Create(ctx context.Context, loan *Loan) error

	FindByID(ctx context.Context, id uint) (*Loan, error)

	// LockByID SELECT ... FOR UPDATE,必须在事务中调用
	LockByID(ctx context.Context, id uint) (*Loan, error)

	// MarkReturned 条件更新(仅当status=active),并释放active唯一键
	// 条件不满足返回ErrAlreadyReturned
	MarkReturned(ctx context.Context, loan *Loan) error

	// FindActive 用户对该书的未归还借阅,不存在返回ErrLoanNotFound
	FindActive(ctx context.Context, userID, bookID uint) (*Loan, error)

	// ExistsForUserBook 是否借阅过(任意状态)
	ExistsForUserBook(ctx context.Context, userID, bookID uint) (bool, error)

	// ListByUser 按借出时间倒序
	ListByUser(ctx context.Context, userID uint) ([]*Loan, error)

	// ListAll 按借出时间倒序
	ListAll(ctx context.Context) ([]*Loan, error)

	// ListOverdue 未归还且到期日早于now
	ListOverdue(ctx context.Context, now time.Time) ([]*Loan, error)

	// CountActiveByBook 该书未归还的借阅数
	CountActiveByBook(ctx context.Context, bookID uint) (int64, error)

	// CountIssuedSince 统计since之后借出的次数,按次数降序取前limit本
	CountIssuedSince(ctx context.Context, since time.Time, limit int) ([]BookCount, error)
}

// BookCount 按图书聚合的借阅次数
type BookCount struct {
	BookID uint
	Count  int64
}
