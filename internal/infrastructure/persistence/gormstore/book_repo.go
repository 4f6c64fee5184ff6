package gormstore

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/library/internal/domain/book"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// popularityExpr 与book.Book.PopularityScore一致
const popularityExpr = "(average_rating + 2.0 * copies_on_loan / CASE WHEN copies > 1 THEN copies ELSE 1 END)"

type bookRepository struct {
	db *gorm.DB
}

// NewBookRepository 创建图书仓储
func NewBookRepository(db *gorm.DB) book.Repository {
	return &bookRepository{db: db}
}

func (r *bookRepository) Create(ctx context.Context, b *book.Book) error {
	model := toBookModel(b)
	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return book.ErrISBNDuplicate
		}
		return apperrors.Wrap(err, "创建图书失败")
	}

	b.ID = model.ID
	b.AddedOn = model.AddedOn
	b.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *bookRepository) FindByID(ctx context.Context, id uint) (*book.Book, error) {
	var model BookModel
	if err := getDB(ctx, r.db).First(&model, id).Error; err != nil {
		return nil, bookQueryError(err)
	}
	return toBookEntity(&model), nil
}

func (r *bookRepository) FindByISBN(ctx context.Context, isbn string) (*book.Book, error) {
	var model BookModel
	if err := getDB(ctx, r.db).Where("isbn = ?", isbn).First(&model).Error; err != nil {
		return nil, bookQueryError(err)
	}
	return toBookEntity(&model), nil
}

func (r *bookRepository) FindByIDs(ctx context.Context, ids []uint) ([]*book.Book, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var models []BookModel
	if err := getDB(ctx, r.db).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, apperrors.Wrap(err, "查询图书失败")
	}
	return toBookEntities(models), nil
}

// Update 只写描述性字段和copies,计数和聚合字段由各自的条件更新维护
// copies的下限在写入时重新判断(copies_on_loan <= 新copies),
// 读取之后提交的借书不会被覆盖成超借
func (r *bookRepository) Update(ctx context.Context, b *book.Book) error {
	db := getDB(ctx, r.db)
	result := db.Model(&BookModel{}).
		Where("id = ? AND copies_on_loan <= ?", b.ID, b.Copies).
		Updates(map[string]interface{}{
			"isbn":             b.ISBN,
			"title":            b.Title,
			"author":           b.Author,
			"publisher":        b.Publisher,
			"publication_year": b.PublicationYear,
			"genre":            string(b.Genre),
			"description":      b.Description,
			"cover_image":      b.CoverImage,
			"pdf_file":         b.PDFFile,
			"copies":           b.Copies,
			"updated_at":       b.UpdatedAt,
		})
	if result.Error != nil {
		if isDuplicateError(result.Error) {
			return book.ErrISBNDuplicate
		}
		return apperrors.Wrap(result.Error, "更新图书失败")
	}
	if result.RowsAffected > 0 {
		return nil
	}

	// MySQL对值未变化的行也返回0,重新读取区分三种情况
	var model BookModel
	if err := db.Select("id", "copies_on_loan").First(&model, b.ID).Error; err != nil {
		return bookQueryError(err)
	}
	if model.CopiesOnLoan > b.Copies {
		return book.ErrCopiesBelowOnLoan
	}
	return nil
}

// Delete 删除图书及其评论和心愿单记录,借阅记录保留作为历史
func (r *bookRepository) Delete(ctx context.Context, id uint) error {
	db := getDB(ctx, r.db)
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("book_id = ?", id).Delete(&ReviewModel{}).Error; err != nil {
			return apperrors.Wrap(err, "删除图书评论失败")
		}
		if err := tx.Where("book_id = ?", id).Delete(&WishlistModel{}).Error; err != nil {
			return apperrors.Wrap(err, "删除心愿单记录失败")
		}
		result := tx.Delete(&BookModel{}, id)
		if result.Error != nil {
			return apperrors.Wrap(result.Error, "删除图书失败")
		}
		if result.RowsAffected == 0 {
			return book.ErrBookNotFound
		}
		return nil
	})
}

func (r *bookRepository) List(ctx context.Context, params book.ListParams) ([]*book.Book, int64, error) {
	query := getDB(ctx, r.db).Model(&BookModel{})

	if params.Keyword != "" {
		kw := likePattern(params.Keyword)
		query = query.Where("title LIKE ? ESCAPE '!' OR author LIKE ? ESCAPE '!' OR genre LIKE ? ESCAPE '!'", kw, kw, kw)
	}
	if params.Genre != "" {
		query = query.Where("genre = ?", string(params.Genre))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询图书总数失败")
	}

	switch params.SortBy {
	case book.SortTitle:
		query = query.Order("title ASC").Order("id ASC")
	case book.SortRating:
		query = query.Order("average_rating DESC").Order("review_count DESC").Order("id ASC")
	default:
		query = query.Order("added_on DESC").Order("id DESC")
	}

	if params.PageSize > 0 {
		page := params.Page
		if page < 1 {
			page = 1
		}
		query = query.Limit(params.PageSize).Offset((page - 1) * params.PageSize)
	}

	var models []BookModel
	if err := query.Find(&models).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询图书列表失败")
	}
	return toBookEntities(models), total, nil
}

// LockByID 悲观锁
// MySQL生成 SELECT ... FOR UPDATE;SQLite不支持行锁,GORM会忽略该子句,
// 而SQLite的写事务本身是串行的
func (r *bookRepository) LockByID(ctx context.Context, id uint) (*book.Book, error) {
	var model BookModel
	err := getDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).First(&model, id).Error
	if err != nil {
		return nil, bookQueryError(err)
	}
	return toBookEntity(&model), nil
}

// IncrCopiesOnLoan 条件更新,WHERE子句在写入时重新判断可借性,
// 即使调用方没有持有行锁也不会超借
func (r *bookRepository) IncrCopiesOnLoan(ctx context.Context, id uint) error {
	db := getDB(ctx, r.db)
	result := db.Model(&BookModel{}).
		Where("id = ? AND copies_on_loan < copies", id).
		Update("copies_on_loan", gorm.Expr("copies_on_loan + 1"))
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新借出数量失败")
	}
	if result.RowsAffected == 0 {
		// 区分图书不存在和无可借副本
		var count int64
		if err := db.Model(&BookModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return apperrors.Wrap(err, "查询图书失败")
		}
		if count == 0 {
			return book.ErrBookNotFound
		}
		return book.ErrUnavailable
	}
	return nil
}

// DecrCopiesOnLoan 最小减到0
func (r *bookRepository) DecrCopiesOnLoan(ctx context.Context, id uint) error {
	result := getDB(ctx, r.db).Model(&BookModel{}).
		Where("id = ? AND copies_on_loan > 0", id).
		Update("copies_on_loan", gorm.Expr("copies_on_loan - 1"))
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新借出数量失败")
	}
	return nil
}

func (r *bookRepository) UpdateRatingStats(ctx context.Context, id uint, average float64, count int) error {
	result := getDB(ctx, r.db).Model(&BookModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"average_rating": average,
			"review_count":   count,
		})
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新评分失败")
	}
	return nil
}

func (r *bookRepository) ListByGenres(ctx context.Context, genres []book.Genre) ([]*book.Book, error) {
	if len(genres) == 0 {
		return nil, nil
	}
	names := make([]string, len(genres))
	for i, g := range genres {
		names[i] = string(g)
	}

	var models []BookModel
	if err := getDB(ctx, r.db).Where("genre IN ?", names).Find(&models).Error; err != nil {
		return nil, apperrors.Wrap(err, "查询图书失败")
	}
	return toBookEntities(models), nil
}

func (r *bookRepository) ListMostPopular(ctx context.Context, exclude []uint, limit int) ([]*book.Book, error) {
	query := getDB(ctx, r.db).Model(&BookModel{})
	if len(exclude) > 0 {
		query = query.Where("id NOT IN ?", exclude)
	}

	var models []BookModel
	err := query.
		Order(popularityExpr + " DESC").
		Order("review_count DESC").
		Order("id ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询热门图书失败")
	}
	return toBookEntities(models), nil
}

func (r *bookRepository) ListTopRated(ctx context.Context, minAverage float64, minCount int, limit int) ([]*book.Book, error) {
	var models []BookModel
	err := getDB(ctx, r.db).
		Where("average_rating >= ? AND review_count >= ?", minAverage, minCount).
		Order("average_rating DESC").
		Order("review_count DESC").
		Order("id ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询高分图书失败")
	}
	return toBookEntities(models), nil
}

func bookQueryError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return book.ErrBookNotFound
	}
	return apperrors.Wrap(err, "查询图书失败")
}

func toBookModel(b *book.Book) *BookModel {
	return &BookModel{
		ID:              b.ID,
		ISBN:            b.ISBN,
		Title:           b.Title,
		Author:          b.Author,
		Publisher:       b.Publisher,
		PublicationYear: b.PublicationYear,
		Genre:           string(b.Genre),
		Description:     b.Description,
		CoverImage:      b.CoverImage,
		PDFFile:         b.PDFFile,
		Copies:          b.Copies,
		CopiesOnLoan:    b.CopiesOnLoan,
		AverageRating:   b.AverageRating,
		ReviewCount:     b.ReviewCount,
		AddedOn:         b.AddedOn,
		UpdatedAt:       b.UpdatedAt,
	}
}

func toBookEntity(m *BookModel) *book.Book {
	return &book.Book{
		ID:              m.ID,
		ISBN:            m.ISBN,
		Title:           m.Title,
		Author:          m.Author,
		Publisher:       m.Publisher,
		PublicationYear: m.PublicationYear,
		Genre:           book.Genre(m.Genre),
		Description:     m.Description,
		CoverImage:      m.CoverImage,
		PDFFile:         m.PDFFile,
		Copies:          m.Copies,
		CopiesOnLoan:    m.CopiesOnLoan,
		AverageRating:   m.AverageRating,
		ReviewCount:     m.ReviewCount,
		AddedOn:         m.AddedOn,
		UpdatedAt:       m.UpdatedAt,
	}
}

func toBookEntities(models []BookModel) []*book.Book {
	books := make([]*book.Book, len(models))
	for i := range models {
		books[i] = toBookEntity(&models[i])
	}
	return books
}
