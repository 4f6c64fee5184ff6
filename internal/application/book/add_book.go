package book

import (
	"context"
	"log/slog"

	"github.com/xiebiao/library/internal/domain/book"
)

// AddBookUseCase 新增图书用例(管理员)
// 字段校验和ISBN查重由领域服务负责,这里只做编排
type AddBookUseCase struct {
	bookService book.Service
}

// NewAddBookUseCase 创建新增图书用例
func NewAddBookUseCase(bookService book.Service) *AddBookUseCase {
	return &AddBookUseCase{bookService: bookService}
}

// Execute 执行新增
func (uc *AddBookUseCase) Execute(ctx context.Context, req BookDetailsInput) (*BookView, error) {
	b, err := uc.bookService.AddBook(ctx, req.toDetails())
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "book added", "book_id", b.ID, "isbn", b.ISBN)
	view := NewBookView(b)
	return &view, nil
}
