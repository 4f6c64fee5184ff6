package book

import (
	"context"
	"strings"

	"github.com/xiebiao/library/internal/domain/book"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	// searchLimit 搜索不分页,最多返回这么多条
	searchLimit = 50
)

// ListBooksUseCase 图书列表查询用例
// 1. 支持分页、关键字(书名/作者/分类)、分类过滤、排序
// 2. 搜索是不分页的关键字查询
type ListBooksUseCase struct {
	bookService book.Service
}

// NewListBooksUseCase 创建列表查询用例
func NewListBooksUseCase(bookService book.Service) *ListBooksUseCase {
	return &ListBooksUseCase{bookService: bookService}
}

// ListBooksRequest 列表查询请求DTO
type ListBooksRequest struct {
	Page     int    // 页码(从1开始)
	PageSize int    // 每页数量
	Keyword  string // 搜索关键词
	Genre    string // 分类过滤
	SortBy   string // newest | title | rating
}

// ListBooksResponse 列表查询响应DTO
type ListBooksResponse struct {
	List       []BookView `json:"list"`
	Total      int64      `json:"total"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalPages int        `json:"total_pages"`
}

// Execute 执行列表查询
// 1. 参数默认值与范围限制(page默认1, pageSize默认20, 最大100)
// 2. 分类必须是固定列表中的一个
// 3. 调用领域服务查询并转换DTO
func (uc *ListBooksUseCase) Execute(ctx context.Context, req ListBooksRequest) (*ListBooksResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		req.PageSize = defaultPageSize
	}
	if req.PageSize > maxPageSize {
		req.PageSize = maxPageSize
	}

	genre := book.Genre(strings.TrimSpace(req.Genre))
	if genre != "" && !genre.Valid() {
		return nil, book.ErrInvalidGenre
	}

	params := book.ListParams{
		Page:     req.Page,
		PageSize: req.PageSize,
		Keyword:  strings.TrimSpace(req.Keyword),
		Genre:    genre,
		SortBy:   req.SortBy,
	}
	books, total, err := uc.bookService.ListBooks(ctx, params)
	if err != nil {
		return nil, err
	}

	totalPages := int(total) / req.PageSize
	if int(total)%req.PageSize != 0 {
		totalPages++
	}

	return &ListBooksResponse{
		List:       NewBookViews(books),
		Total:      total,
		Page:       req.Page,
		PageSize:   req.PageSize,
		TotalPages: totalPages,
	}, nil
}

// Search 按关键字搜索书名、作者、分类(不区分大小写)
func (uc *ListBooksUseCase) Search(ctx context.Context, query string) ([]BookView, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidParams, "搜索关键字不能为空")
	}

	books, _, err := uc.bookService.ListBooks(ctx, book.ListParams{
		Page:     1,
		PageSize: searchLimit,
		Keyword:  query,
		SortBy:   book.SortTitle,
	})
	if err != nil {
		return nil, err
	}
	return NewBookViews(books), nil
}
