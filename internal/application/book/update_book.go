package book

import (
	"context"
	"log/slog"

	"github.com/xiebiao/library/internal/domain/book"
)

// UpdateBookUseCase 修改图书(管理员)
// 借出数和评分聚合不可修改;馆藏数量不能低于当前借出数
type UpdateBookUseCase struct {
	bookService book.Service
}

func NewUpdateBookUseCase(bookService book.Service) *UpdateBookUseCase {
	return &UpdateBookUseCase{bookService: bookService}
}

func (uc *UpdateBookUseCase) Execute(ctx context.Context, id uint, req BookDetailsInput) (*BookView, error) {
	b, err := uc.bookService.ReviseBook(ctx, id, req.toDetails())
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "book updated", "book_id", b.ID)
	view := NewBookView(b)
	return &view, nil
}
