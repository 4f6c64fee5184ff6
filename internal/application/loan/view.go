package loan

import (
	"context"
	"errors"
	"time"

	bookapp "github.com/xiebiao/library/internal/application/book"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/domain/user"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// LoanView 借阅响应DTO
// status是展示状态,逾期的active记录显示为overdue
type LoanView struct {
	ID         uint              `json:"id"`
	UserID     uint              `json:"user_id"`
	BookID     uint              `json:"book_id"`
	IssueDate  time.Time         `json:"issue_date"`
	DueDate    time.Time         `json:"due_date"`
	ReturnDate *time.Time        `json:"return_date,omitempty"`
	Status     string            `json:"status"`
	IsOverdue  bool              `json:"is_overdue"`
	Book       *bookapp.BookView `json:"book,omitempty"` // 图书已删除时为空
	User       *UserSummary      `json:"user,omitempty"`
}

// UserSummary 借阅列表中的借阅人
type UserSummary struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func newLoanView(l *loan.Loan, now time.Time) LoanView {
	return LoanView{
		ID:         l.ID,
		UserID:     l.UserID,
		BookID:     l.BookID,
		IssueDate:  l.IssueDate,
		DueDate:    l.DueDate,
		ReturnDate: l.ReturnDate,
		Status:     string(l.DisplayStatus(now)),
		IsOverdue:  l.IsOverdue(now),
	}
}

// viewAssembler 批量关联图书和借阅人,避免逐条查询
type viewAssembler struct {
	bookRepo book.Repository
	userRepo user.Repository
}

func (a viewAssembler) assemble(ctx context.Context, loans []*loan.Loan, now time.Time, withUser bool) ([]LoanView, error) {
	bookIDs := make([]uint, 0, len(loans))
	userIDs := make([]uint, 0, len(loans))
	for _, l := range loans {
		bookIDs = append(bookIDs, l.BookID)
		userIDs = append(userIDs, l.UserID)
	}

	books, err := a.bookRepo.FindByIDs(ctx, uniq(bookIDs))
	if err != nil {
		return nil, err
	}
	bookByID := make(map[uint]*book.Book, len(books))
	for _, b := range books {
		bookByID[b.ID] = b
	}

	userByID := map[uint]*user.User{}
	if withUser {
		users, err := a.userRepo.FindByIDs(ctx, uniq(userIDs))
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			userByID[u.ID] = u
		}
	}

	views := make([]LoanView, len(loans))
	for i, l := range loans {
		views[i] = newLoanView(l, now)
		if b, ok := bookByID[l.BookID]; ok {
			bv := bookapp.NewBookView(b)
			views[i].Book = &bv
		}
		if u, ok := userByID[l.UserID]; ok {
			views[i].User = &UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
		}
	}
	return views, nil
}

func uniq(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// resultLabel 指标的result标签
func resultLabel(err error) string {
	if err == nil {
		return "success"
	}
	return apperrors.KindOf(err).String()
}

// findBookOrNil 图书可能已被删除(借阅记录保留),此时返回nil
func findBookOrNil(ctx context.Context, repo book.Repository, id uint) (*book.Book, error) {
	b, err := repo.FindByID(ctx, id)
	if errors.Is(err, book.ErrBookNotFound) {
		return nil, nil
	}
	return b, err
}
