package gormstore

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/library/internal/domain/loan"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

type loanRepository struct {
	db *gorm.DB
}

// NewLoanRepository 创建借阅仓储
func NewLoanRepository(db *gorm.DB) loan.Repository {
	return &loanRepository{db: db}
}

func (r *loanRepository) Create(ctx context.Context, l *loan.Loan) error {
	model := toLoanModel(l)
	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		// active_key唯一索引兜底并发重复借阅
		if isDuplicateError(err) {
			return loan.ErrAlreadyOnLoan
		}
		return apperrors.Wrap(err, "创建借阅记录失败")
	}
	l.ID = model.ID
	return nil
}

func (r *loanRepository) FindByID(ctx context.Context, id uint) (*loan.Loan, error) {
	var model LoanModel
	if err := getDB(ctx, r.db).First(&model, id).Error; err != nil {
		return nil, loanQueryError(err)
	}
	return toLoanEntity(&model), nil
}

func (r *loanRepository) LockByID(ctx context.Context, id uint) (*loan.Loan, error) {
	var model LoanModel
	err := getDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).First(&model, id).Error
	if err != nil {
		return nil, loanQueryError(err)
	}
	return toLoanEntity(&model), nil
}

// MarkReturned 条件更新 status=active -> returned
// 两个并发归还只有一个能影响到行,另一个得到ErrAlreadyReturned
func (r *loanRepository) MarkReturned(ctx context.Context, l *loan.Loan) error {
	var returnDate *time.Time
	if l.ReturnDate != nil {
		t := l.ReturnDate.UTC()
		returnDate = &t
	}

	result := getDB(ctx, r.db).Model(&LoanModel{}).
		Where("id = ? AND status = ?", l.ID, string(loan.StatusActive)).
		Updates(map[string]interface{}{
			"status":      string(loan.StatusReturned),
			"return_date": returnDate,
			"active_key":  nil,
			"updated_at":  l.UpdatedAt.UTC(),
		})
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新借阅记录失败")
	}
	if result.RowsAffected == 0 {
		return loan.ErrAlreadyReturned
	}
	return nil
}

func (r *loanRepository) FindActive(ctx context.Context, userID, bookID uint) (*loan.Loan, error) {
	var model LoanModel
	err := getDB(ctx, r.db).
		Where("user_id = ? AND book_id = ? AND status = ?", userID, bookID, string(loan.StatusActive)).
		First(&model).Error
	if err != nil {
		return nil, loanQueryError(err)
	}
	return toLoanEntity(&model), nil
}

func (r *loanRepository) ExistsForUserBook(ctx context.Context, userID, bookID uint) (bool, error) {
	var count int64
	err := getDB(ctx, r.db).Model(&LoanModel{}).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Count(&count).Error
	if err != nil {
		return false, apperrors.Wrap(err, "查询借阅记录失败")
	}
	return count > 0, nil
}

func (r *loanRepository) ListByUser(ctx context.Context, userID uint) ([]*loan.Loan, error) {
	var models []LoanModel
	err := getDB(ctx, r.db).
		Where("user_id = ?", userID).
		Order("issue_date DESC").Order("id DESC").
		Find(&models).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询借阅列表失败")
	}
	return toLoanEntities(models), nil
}

func (r *loanRepository) ListAll(ctx context.Context) ([]*loan.Loan, error) {
	var models []LoanModel
	err := getDB(ctx, r.db).
		Order("issue_date DESC").Order("id DESC").
		Find(&models).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询借阅列表失败")
	}
	return toLoanEntities(models), nil
}

func (r *loanRepository) ListOverdue(ctx context.Context, now time.Time) ([]*loan.Loan, error) {
	var models []LoanModel
	err := getDB(ctx, r.db).
		Where("status = ? AND due_date < ?", string(loan.StatusActive), now.UTC()).
		Order("due_date ASC").Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询逾期借阅失败")
	}
	return toLoanEntities(models), nil
}

func (r *loanRepository) CountActiveByBook(ctx context.Context, bookID uint) (int64, error) {
	var count int64
	err := getDB(ctx, r.db).Model(&LoanModel{}).
		Where("book_id = ? AND status = ?", bookID, string(loan.StatusActive)).
		Count(&count).Error
	if err != nil {
		return 0, apperrors.Wrap(err, "统计借阅数量失败")
	}
	return count, nil
}

// CountIssuedSince 只统计仍在馆藏中的图书,已删除图书的历史借阅不参与排行
func (r *loanRepository) CountIssuedSince(ctx context.Context, since time.Time, limit int) ([]loan.BookCount, error) {
	var rows []struct {
		BookID    uint
		LoanCount int64
	}
	err := getDB(ctx, r.db).Model(&LoanModel{}).
		Select("loans.book_id AS book_id, COUNT(*) AS loan_count").
		Joins("JOIN books ON books.id = loans.book_id").
		Where("loans.issue_date >= ?", since.UTC()).
		Group("loans.book_id").
		Order("loan_count DESC").Order("loans.book_id ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "统计借阅排行失败")
	}

	counts := make([]loan.BookCount, len(rows))
	for i, row := range rows {
		counts[i] = loan.BookCount{BookID: row.BookID, Count: row.LoanCount}
	}
	return counts, nil
}

func loanQueryError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return loan.ErrLoanNotFound
	}
	return apperrors.Wrap(err, "查询借阅记录失败")
}

func toLoanModel(l *loan.Loan) *LoanModel {
	m := &LoanModel{
		ID:        l.ID,
		UserID:    l.UserID,
		BookID:    l.BookID,
		IssueDate: l.IssueDate.UTC(),
		DueDate:   l.DueDate.UTC(),
		Status:    string(l.Status),
		CreatedAt: l.CreatedAt.UTC(),
		UpdatedAt: l.UpdatedAt.UTC(),
	}
	if l.ReturnDate != nil {
		t := l.ReturnDate.UTC()
		m.ReturnDate = &t
	}
	if l.IsActive() {
		key := loan.ActiveKey(l.UserID, l.BookID)
		m.ActiveKey = &key
	}
	return m
}

func toLoanEntity(m *LoanModel) *loan.Loan {
	l := &loan.Loan{
		ID:        m.ID,
		UserID:    m.UserID,
		BookID:    m.BookID,
		IssueDate: m.IssueDate.UTC(),
		DueDate:   m.DueDate.UTC(),
		Status:    loan.Status(m.Status),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	if m.ReturnDate != nil {
		t := m.ReturnDate.UTC()
		l.ReturnDate = &t
	}
	return l
}

func toLoanEntities(models []LoanModel) []*loan.Loan {
	loans := make([]*loan.Loan, len(models))
	for i := range models {
		loans[i] = toLoanEntity(&models[i])
	}
	return loans
}
