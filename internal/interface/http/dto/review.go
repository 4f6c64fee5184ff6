package dto

// CreateReviewRequest 发表评论
// rating范围和comment长度在领域层再校验一次
type CreateReviewRequest struct {
	BookID  uint   `json:"book_id" binding:"required,min=1" example:"1"`
	Rating  int    `json:"rating" binding:"required" example:"5"`
	Comment string `json:"comment" example:"Worth every page"`
}

// UpdateReviewRequest 修改评论,comment为空时保留原内容
type UpdateReviewRequest struct {
	Rating  int    `json:"rating" binding:"required" example:"4"`
	Comment string `json:"comment"`
}
