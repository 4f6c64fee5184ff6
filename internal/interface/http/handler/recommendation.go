package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xiebiao/library/internal/application/recommendation"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	"github.com/xiebiao/library/pkg/response"
)

// RecommendationHandler 推荐HTTP处理器
type RecommendationHandler struct {
	uc *recommendation.UseCase
}

func NewRecommendationHandler(uc *recommendation.UseCase) *RecommendationHandler {
	return &RecommendationHandler{uc: uc}
}

// Popular 热门推荐
// @Summary      热门推荐
// @Description  登录用户按借阅过的分类个性化,匿名用户看全站热门;最多6本
// @Tags         推荐
// @Produce      json
// @Param        Authorization header string false "Bearer Token(可选)"
// @Success      200 {object} response.Response{data=[]recommendation.RecommendedBook}
// @Router       /api/v1/recommendations/popular [get]
func (h *RecommendationHandler) Popular(c *gin.Context) {
	books, err := h.uc.PopularFor(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, books)
}

// Trending 近期热借
// @Summary      近期热借
// @Description  近30天借阅次数最多的6本
// @Tags         推荐
// @Produce      json
// @Success      200 {object} response.Response{data=[]recommendation.RecommendedBook}
// @Router       /api/v1/recommendations/trending [get]
func (h *RecommendationHandler) Trending(c *gin.Context) {
	books, err := h.uc.Trending(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, books)
}

// TopRated 高分图书
// @Summary      高分图书
// @Description  平均分不低于4且至少2条评论
// @Tags         推荐
// @Produce      json
// @Success      200 {object} response.Response{data=[]recommendation.RecommendedBook}
// @Router       /api/v1/recommendations/top-rated [get]
func (h *RecommendationHandler) TopRated(c *gin.Context) {
	books, err := h.uc.TopRated(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, books)
}
