package book

import (
	"context"
	"errors"
	"time"

	"github.com/xiebiao/library/pkg/validator"
)

// Service 图书领域服务
// 封装目录维护的业务规则,借阅计数和评分聚合不经过这里
type Service interface {
	// AddBook 新增图书
	// 规则:字段校验见Details;ISBN不能重复
	AddBook(ctx context.Context, d Details) (*Book, error)

	GetBook(ctx context.Context, id uint) (*Book, error)

	// ReviseBook 修改图书,Copies不能低于当前借出数
	ReviseBook(ctx context.Context, id uint, d Details) (*Book, error)

	ListBooks(ctx context.Context, params ListParams) ([]*Book, int64, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService 创建图书领域服务
func NewService(repo Repository) Service {
	return &service{repo: repo, now: time.Now}
}

func (s *service) AddBook(ctx context.Context, d Details) (*Book, error) {
	// 1. 构建实体(字段校验)
	b, err := NewBook(d, s.now())
	if err != nil {
		return nil, err
	}

	// 2. ISBN重复检查(唯一索引兜底)
	if err := s.ensureISBNFree(ctx, b.ISBN, 0); err != nil {
		return nil, err
	}

	// 3. 持久化
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *service) GetBook(ctx context.Context, id uint) (*Book, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) ReviseBook(ctx context.Context, id uint, d Details) (*Book, error) {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if normalized := validator.NormalizeISBN(d.ISBN); normalized != b.ISBN {
		if err := s.ensureISBNFree(ctx, normalized, id); err != nil {
			return nil, err
		}
	}

	// 1. 按读到的借出数先校验一次
	if err := b.Revise(d, s.now()); err != nil {
		return nil, err
	}
	// 2. 条件更新,借出数在写入时重新比较
	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}

	// 3. 重新读取,借出数可能已被并发借还改变
	return s.repo.FindByID(ctx, id)
}

func (s *service) ListBooks(ctx context.Context, params ListParams) ([]*Book, int64, error) {
	return s.repo.List(ctx, params)
}

func (s *service) ensureISBNFree(ctx context.Context, isbn string, self uint) error {
	existing, err := s.repo.FindByISBN(ctx, isbn)
	switch {
	case err == nil && existing != nil && existing.ID != self:
		return ErrISBNDuplicate
	case err != nil && !errors.Is(err, ErrBookNotFound):
		return err
	}
	return nil
}
