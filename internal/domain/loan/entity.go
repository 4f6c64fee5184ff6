package loan

import (
	"fmt"
	"time"

	"github.com/xiebiao/library/internal/domain/user"
)

// Status 借阅状态
// 持久化的只有active和returned;overdue只是展示状态,由DisplayStatus按时间推导
type Status string

const (
	StatusActive   Status = "active"
	StatusReturned Status = "returned"
	StatusOverdue  Status = "overdue"
)

// Period 借阅期限
const Period = 14 * 24 * time.Hour

// Loan 借阅记录
// 状态机: active -> returned (终态)
type Loan struct {
	ID         uint
	UserID     uint
	BookID     uint
	IssueDate  time.Time
	DueDate    time.Time
	ReturnDate *time.Time
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewLoan 创建借阅记录(工厂方法),到期日 = 借出日 + 14天
func NewLoan(userID, bookID uint, now time.Time) *Loan {
	return &Loan{
		UserID:    userID,
		BookID:    bookID,
		IssueDate: now,
		DueDate:   now.Add(Period),
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsActive 是否未归还
func (l *Loan) IsActive() bool {
	return l.Status == StatusActive
}

// IsOverdue 未归还且已过到期日
func (l *Loan) IsOverdue(now time.Time) bool {
	return l.IsActive() && l.DueDate.Before(now)
}

// DisplayStatus 展示状态(逾期的active显示为overdue)
func (l *Loan) DisplayStatus(now time.Time) Status {
	if l.IsOverdue(now) {
		return StatusOverdue
	}
	return l.Status
}

// CanBeReturnedBy 借阅人本人或管理员可以归还
func (l *Loan) CanBeReturnedBy(callerID uint, role user.Role) bool {
	return l.UserID == callerID || role.IsAdmin()
}

// MarkReturned 状态流转 active -> returned
func (l *Loan) MarkReturned(now time.Time) error {
	if !l.IsActive() {
		return ErrAlreadyReturned
	}
	l.ReturnDate = &now
	l.Status = StatusReturned
	l.UpdatedAt = now
	return nil
}

// ActiveKey 未归还借阅的唯一键,数据库用它保证同一用户同一本书最多一条active记录
func ActiveKey(userID, bookID uint) string {
	return fmt.Sprintf("%d:%d", userID, bookID)
}
