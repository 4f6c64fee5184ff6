package dto

// WishlistRequest 加入心愿单
type WishlistRequest struct {
	BookID uint `json:"book_id" binding:"required,min=1" example:"1"`
}

// CanReviewResponse 是否可以评论
type CanReviewResponse struct {
	CanReview bool `json:"can_review"`
}

// WishlistCheckResponse 是否在心愿单中
type WishlistCheckResponse struct {
	InWishlist bool `json:"in_wishlist"`
}
