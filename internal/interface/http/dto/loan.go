package dto

// BorrowRequest 借书
type BorrowRequest struct {
	BookID uint `json:"book_id" binding:"required,min=1" example:"1"`
}
