// Package event 借阅和评论的领域事件
// 事件在事务提交之后发布,发布失败不影响业务结果
package event

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// 事件类型,同时作为routing key
const (
	LoanBorrowed  = "loan.borrowed"
	LoanReturned  = "loan.returned"
	ReviewCreated = "review.created"
	ReviewUpdated = "review.updated"
	ReviewDeleted = "review.deleted"
)

// Event 事件信封
type Event struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// New 创建事件
func New(eventType string, payload interface{}, at time.Time) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: at.UTC(),
		Payload:    payload,
	}
}

// LoanPayload 借阅/归还事件内容
type LoanPayload struct {
	LoanID       uint       `json:"loan_id"`
	UserID       uint       `json:"user_id"`
	BookID       uint       `json:"book_id"`
	DueDate      time.Time  `json:"due_date"`
	ReturnDate   *time.Time `json:"return_date,omitempty"`
	CopiesOnLoan int        `json:"copies_on_loan"`
}

// ReviewPayload 评论事件内容,带重算后的聚合
type ReviewPayload struct {
	ReviewID      uint    `json:"review_id"`
	UserID        uint    `json:"user_id"`
	BookID        uint    `json:"book_id"`
	Rating        int     `json:"rating,omitempty"`
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int     `json:"review_count"`
}

// Publisher 事件发布接口
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// NopPublisher 不发布(消息队列未启用时)
type NopPublisher struct{}

// Publish 直接丢弃
func (NopPublisher) Publish(context.Context, Event) error { return nil }
