package handler

import (
	"github.com/gin-gonic/gin"

	appreview "github.com/xiebiao/library/internal/application/review"
	"github.com/xiebiao/library/internal/interface/http/dto"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	"github.com/xiebiao/library/pkg/response"
)

// ReviewHandler 评论HTTP处理器
type ReviewHandler struct {
	create *appreview.CreateReviewUseCase
	update *appreview.UpdateReviewUseCase
	remove *appreview.DeleteReviewUseCase
	query  *appreview.QueryReviewsUseCase
}

// NewReviewHandler 创建评论处理器
func NewReviewHandler(
	create *appreview.CreateReviewUseCase,
	update *appreview.UpdateReviewUseCase,
	remove *appreview.DeleteReviewUseCase,
	query *appreview.QueryReviewsUseCase,
) *ReviewHandler {
	return &ReviewHandler{
		create: create,
		update: update,
		remove: remove,
		query:  query,
	}
}

// BookReviews 图书的评论
// @Summary      图书的评论
// @Tags         评论
// @Produce      json
// @Param        bookId path int true "图书ID"
// @Success      200 {object} response.Response{data=[]appreview.ReviewView}
// @Failure      404 {object} response.Response "图书不存在"
// @Router       /api/v1/reviews/book/{bookId} [get]
func (h *ReviewHandler) BookReviews(c *gin.Context) {
	bookID, ok := pathID(c, "bookId")
	if !ok {
		return
	}

	reviews, err := h.query.ListBookReviews(c.Request.Context(), bookID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, reviews)
}

// CanReview 当前用户能否评论
// @Summary      能否评论
// @Description  借阅过该书且尚未评论时为true
// @Tags         评论
// @Produce      json
// @Security     BearerAuth
// @Param        bookId path int true "图书ID"
// @Success      200 {object} response.Response{data=dto.CanReviewResponse}
// @Router       /api/v1/reviews/can-review/{bookId} [get]
func (h *ReviewHandler) CanReview(c *gin.Context) {
	bookID, ok := pathID(c, "bookId")
	if !ok {
		return
	}

	can, err := h.query.CanReview(c.Request.Context(), middleware.GetUserID(c), bookID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.CanReviewResponse{CanReview: can})
}

// UserReview 当前用户对该书的评论
// @Summary      我的评论
// @Tags         评论
// @Produce      json
// @Security     BearerAuth
// @Param        bookId path int true "图书ID"
// @Success      200 {object} response.Response{data=appreview.ReviewView}
// @Failure      404 {object} response.Response "未评论"
// @Router       /api/v1/reviews/user-review/{bookId} [get]
func (h *ReviewHandler) UserReview(c *gin.Context) {
	bookID, ok := pathID(c, "bookId")
	if !ok {
		return
	}

	r, err := h.query.GetUserReview(c.Request.Context(), middleware.GetUserID(c), bookID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, r)
}

// Create 发表评论
// @Summary      发表评论
// @Description  必须借阅过该书,每人每书一条;返回重算后的图书评分
// @Tags         评论
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.CreateReviewRequest true "评论"
// @Success      201 {object} response.Response{data=appreview.WriteResult}
// @Failure      400 {object} response.Response "评分或内容不合法"
// @Failure      403 {object} response.Response "未借阅过"
// @Failure      409 {object} response.Response "已评论过"
// @Router       /api/v1/reviews [post]
func (h *ReviewHandler) Create(c *gin.Context) {
	var req dto.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	res, err := h.create.Execute(c.Request.Context(), appreview.CreateReviewRequest{
		UserID:  middleware.GetUserID(c),
		BookID:  req.BookID,
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// Update 修改评论
// @Summary      修改评论
// @Description  只有作者可以修改
// @Tags         评论
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int                     true "评论ID"
// @Param        request body dto.UpdateReviewRequest true "评论"
// @Success      200 {object} response.Response{data=appreview.WriteResult}
// @Failure      403 {object} response.Response "不是作者"
// @Failure      404 {object} response.Response "评论不存在"
// @Router       /api/v1/reviews/{id} [put]
func (h *ReviewHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	res, err := h.update.Execute(c.Request.Context(), appreview.UpdateReviewRequest{
		ReviewID: id,
		CallerID: middleware.GetUserID(c),
		Rating:   req.Rating,
		Comment:  req.Comment,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// Delete 删除评论
// @Summary      删除评论
// @Description  作者或管理员可以删除
// @Tags         评论
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "评论ID"
// @Success      200 {object} response.Response{data=appreview.WriteResult}
// @Failure      403 {object} response.Response "无权删除"
// @Failure      404 {object} response.Response "评论不存在"
// @Router       /api/v1/reviews/{id} [delete]
func (h *ReviewHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	res, err := h.remove.Execute(c.Request.Context(), appreview.DeleteReviewRequest{
		ReviewID:   id,
		CallerID:   middleware.GetUserID(c),
		CallerRole: middleware.GetRole(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}
