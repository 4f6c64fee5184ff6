package handler

import (
	"github.com/gin-gonic/gin"

	appuser "github.com/xiebiao/library/internal/application/user"
	"github.com/xiebiao/library/internal/interface/http/dto"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	"github.com/xiebiao/library/pkg/response"
)

// UserHandler 用户HTTP处理器
// 账号由身份方开通,这里只有查询、登出和心愿单
type UserHandler struct {
	profile  *appuser.ProfileUseCase
	wishlist *appuser.WishlistUseCase
	logout   *appuser.LogoutUseCase
}

// NewUserHandler 创建用户处理器
func NewUserHandler(
	profile *appuser.ProfileUseCase,
	wishlist *appuser.WishlistUseCase,
	logout *appuser.LogoutUseCase,
) *UserHandler {
	return &UserHandler{
		profile:  profile,
		wishlist: wishlist,
		logout:   logout,
	}
}

// Profile 当前用户资料
// @Summary      个人资料
// @Tags         用户
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=appuser.UserView}
// @Failure      401 {object} response.Response "未登录"
// @Router       /api/v1/users/profile [get]
func (h *UserHandler) Profile(c *gin.Context) {
	u, err := h.profile.GetProfile(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, u)
}

// Logout 登出
// @Summary      登出
// @Description  当前Token加入黑名单直到过期
// @Tags         用户
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response
// @Router       /api/v1/users/logout [post]
func (h *UserHandler) Logout(c *gin.Context) {
	token, expiresAt := middleware.GetToken(c)
	if err := h.logout.Execute(c.Request.Context(), middleware.GetUserID(c), token, expiresAt); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// AllUsers 全部用户
// @Summary      全部用户(管理员)
// @Tags         用户
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=[]appuser.UserView}
// @Failure      403 {object} response.Response "非管理员"
// @Router       /api/v1/users/all [get]
func (h *UserHandler) AllUsers(c *gin.Context) {
	users, err := h.profile.ListUsers(c.Request.Context(), middleware.GetRole(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, users)
}

// Wishlist 我的心愿单
// @Summary      心愿单
// @Tags         心愿单
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=[]appbook.BookView}
// @Router       /api/v1/users/wishlist [get]
func (h *UserHandler) Wishlist(c *gin.Context) {
	books, err := h.wishlist.GetWishlist(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, books)
}

// AddToWishlist 加入心愿单
// @Summary      加入心愿单
// @Tags         心愿单
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.WishlistRequest true "图书ID"
// @Success      201 {object} response.Response
// @Failure      404 {object} response.Response "图书不存在"
// @Failure      409 {object} response.Response "已在心愿单中"
// @Router       /api/v1/users/wishlist [post]
func (h *UserHandler) AddToWishlist(c *gin.Context) {
	var req dto.WishlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	if err := h.wishlist.Add(c.Request.Context(), middleware.GetUserID(c), req.BookID); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, nil)
}

// RemoveFromWishlist 移出心愿单
// @Summary      移出心愿单
// @Tags         心愿单
// @Produce      json
// @Security     BearerAuth
// @Param        bookId path int true "图书ID"
// @Success      200 {object} response.Response
// @Failure      404 {object} response.Response "不在心愿单中"
// @Router       /api/v1/users/wishlist/{bookId} [delete]
func (h *UserHandler) RemoveFromWishlist(c *gin.Context) {
	bookID, ok := pathID(c, "bookId")
	if !ok {
		return
	}

	if err := h.wishlist.Remove(c.Request.Context(), middleware.GetUserID(c), bookID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// CheckWishlist 是否在心愿单中
// @Summary      是否在心愿单中
// @Tags         心愿单
// @Produce      json
// @Security     BearerAuth
// @Param        bookId path int true "图书ID"
// @Success      200 {object} response.Response{data=dto.WishlistCheckResponse}
// @Router       /api/v1/users/wishlist/check/{bookId} [get]
func (h *UserHandler) CheckWishlist(c *gin.Context) {
	bookID, ok := pathID(c, "bookId")
	if !ok {
		return
	}

	in, err := h.wishlist.Check(c.Request.Context(), middleware.GetUserID(c), bookID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.WishlistCheckResponse{InWishlist: in})
}
