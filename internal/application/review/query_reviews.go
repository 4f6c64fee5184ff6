package review

import (
	"context"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/domain/review"
	"github.com/xiebiao/library/internal/domain/user"
)

// QueryReviewsUseCase 评论查询
type QueryReviewsUseCase struct {
	bookRepo   book.Repository
	loanRepo   loan.Repository
	reviewRepo review.Repository
	userRepo   user.Repository
}

func NewQueryReviewsUseCase(
	bookRepo book.Repository,
	loanRepo loan.Repository,
	reviewRepo review.Repository,
	userRepo user.Repository,
) *QueryReviewsUseCase {
	return &QueryReviewsUseCase{
		bookRepo:   bookRepo,
		loanRepo:   loanRepo,
		reviewRepo: reviewRepo,
		userRepo:   userRepo,
	}
}

// CanReview 借阅过该书(任意状态)且还没有评论
func (uc *QueryReviewsUseCase) CanReview(ctx context.Context, userID, bookID uint) (bool, error) {
	borrowed, err := uc.loanRepo.ExistsForUserBook(ctx, userID, bookID)
	if err != nil || !borrowed {
		return false, err
	}

	reviewed, err := uc.reviewRepo.ExistsForUserBook(ctx, userID, bookID)
	if err != nil {
		return false, err
	}
	return !reviewed, nil
}

// ListBookReviews 按创建时间倒序,关联评论人姓名
func (uc *QueryReviewsUseCase) ListBookReviews(ctx context.Context, bookID uint) ([]ReviewView, error) {
	if _, err := uc.bookRepo.FindByID(ctx, bookID); err != nil {
		return nil, err
	}

	reviews, err := uc.reviewRepo.ListByBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	userIDs := make([]uint, len(reviews))
	for i, r := range reviews {
		userIDs[i] = r.UserID
	}
	users, err := uc.userRepo.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	names := make(map[uint]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}

	views := make([]ReviewView, len(reviews))
	for i, r := range reviews {
		views[i] = *newReviewView(r)
		views[i].UserName = names[r.UserID]
	}
	return views, nil
}

// GetUserReview 当前用户对该书的评论,没有时返回ErrReviewNotFound
func (uc *QueryReviewsUseCase) GetUserReview(ctx context.Context, userID, bookID uint) (*ReviewView, error) {
	r, err := uc.reviewRepo.FindByUserAndBook(ctx, userID, bookID)
	if err != nil {
		return nil, err
	}
	return newReviewView(r), nil
}
