package user

import (
	"context"

	bookapp "github.com/xiebiao/library/internal/application/book"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/user"
)

// WishlistUseCase 心愿单
// 心愿单是用户与图书的集合关系,不影响借阅和推荐
type WishlistUseCase struct {
	wishlistRepo user.WishlistRepository
	bookRepo     book.Repository
}

func NewWishlistUseCase(wishlistRepo user.WishlistRepository, bookRepo book.Repository) *WishlistUseCase {
	return &WishlistUseCase{
		wishlistRepo: wishlistRepo,
		bookRepo:     bookRepo,
	}
}

// GetWishlist 心愿单中的图书,按加入时间倒序
func (uc *WishlistUseCase) GetWishlist(ctx context.Context, userID uint) ([]bookapp.BookView, error) {
	ids, err := uc.wishlistRepo.BookIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	books, err := uc.bookRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[uint]*book.Book, len(books))
	for _, b := range books {
		byID[b.ID] = b
	}
	views := make([]bookapp.BookView, 0, len(ids))
	for _, id := range ids {
		if b, ok := byID[id]; ok {
			views = append(views, bookapp.NewBookView(b))
		}
	}
	return views, nil
}

// Add 图书必须存在,已在心愿单中返回冲突
func (uc *WishlistUseCase) Add(ctx context.Context, userID, bookID uint) error {
	if _, err := uc.bookRepo.FindByID(ctx, bookID); err != nil {
		return err
	}
	return uc.wishlistRepo.Add(ctx, userID, bookID)
}

// Remove 不在心愿单中返回NotFound
func (uc *WishlistUseCase) Remove(ctx context.Context, userID, bookID uint) error {
	return uc.wishlistRepo.Remove(ctx, userID, bookID)
}

// Check 是否在心愿单中
func (uc *WishlistUseCase) Check(ctx context.Context, userID, bookID uint) (bool, error) {
	return uc.wishlistRepo.Contains(ctx, userID, bookID)
}
