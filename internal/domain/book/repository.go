package book

import (
	"context"
)

// Repository 图书仓储接口
// 在事务上下文中调用时(见TxManager),所有方法都使用同一个事务
type Repository interface {
	Create(ctx context.Context, book *Book) error

	// FindByID 不存在返回ErrBookNotFound
	FindByID(ctx context.Context, id uint) (*Book, error)

	FindByISBN(ctx context.Context, isbn string) (*Book, error)

	// FindByIDs 批量查询,结果顺序不保证,缺失的id直接忽略
	FindByIDs(ctx context.Context, ids []uint) ([]*Book, error)

	// Update 只更新描述性字段和Copies,不会覆盖CopiesOnLoan和评分聚合
	// 写入时借出数已超过新的Copies返回ErrCopiesBelowOnLoan
	Update(ctx context.Context, book *Book) error

	Delete(ctx context.Context, id uint) error

	List(ctx context.Context, params ListParams) ([]*Book, int64, error)

	// LockByID SELECT ... FOR UPDATE锁定图书行,必须在事务中调用
	LockByID(ctx context.Context, id uint) (*Book, error)

	// IncrCopiesOnLoan 条件更新 copies_on_loan+1 (仅当 copies_on_loan < copies)
	// 条件不满足返回ErrUnavailable
	IncrCopiesOnLoan(ctx context.Context, id uint) error

	// DecrCopiesOnLoan copies_on_loan-1,已经为0时不变
	DecrCopiesOnLoan(ctx context.Context, id uint) error

	// UpdateRatingStats 写入重算后的评分聚合
	UpdateRatingStats(ctx context.Context, id uint, average float64, count int) error

	// ListByGenres 指定分类的图书(推荐用,不排序)
	ListByGenres(ctx context.Context, genres []Genre) ([]*Book, error)

	// ListMostPopular 按PopularityScore降序、ReviewCount降序,排除exclude中的id
	ListMostPopular(ctx context.Context, exclude []uint, limit int) ([]*Book, error)

	// ListTopRated AverageRating>=minAverage且ReviewCount>=minCount,按平均分、评论数降序
	ListTopRated(ctx context.Context, minAverage float64, minCount int, limit int) ([]*Book, error)
}

// 排序方式
const (
	SortNewest = "newest"
	SortTitle  = "title"
	SortRating = "rating"
)

// ListParams 列表查询参数
type ListParams struct {
	Page     int
	PageSize int
	Keyword  string // 模糊匹配书名、作者、分类
	Genre    Genre  // 精确过滤
	SortBy   string // newest(默认)/title/rating
}
