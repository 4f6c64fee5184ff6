package handler

import (
	"github.com/gin-gonic/gin"

	apploan "github.com/xiebiao/library/internal/application/loan"
	"github.com/xiebiao/library/internal/interface/http/dto"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	"github.com/xiebiao/library/pkg/response"
)

// LoanHandler 借阅HTTP处理器
type LoanHandler struct {
	borrow    *apploan.BorrowUseCase
	giveBack  *apploan.ReturnUseCase
	listLoans *apploan.ListLoansUseCase
}

// NewLoanHandler 创建借阅处理器
func NewLoanHandler(
	borrow *apploan.BorrowUseCase,
	giveBack *apploan.ReturnUseCase,
	listLoans *apploan.ListLoansUseCase,
) *LoanHandler {
	return &LoanHandler{
		borrow:    borrow,
		giveBack:  giveBack,
		listLoans: listLoans,
	}
}

// Borrow 借书
// @Summary      借书
// @Description  借期14天;无可借副本或已借未还时返回409
// @Tags         借阅
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.BorrowRequest true "图书ID"
// @Success      201 {object} response.Response{data=apploan.LoanView}
// @Failure      404 {object} response.Response "图书不存在"
// @Failure      409 {object} response.Response "无可借副本/已借阅"
// @Router       /api/v1/loans [post]
func (h *LoanHandler) Borrow(c *gin.Context) {
	var req dto.BorrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	view, err := h.borrow.Execute(c.Request.Context(), apploan.BorrowRequest{
		UserID: middleware.GetUserID(c),
		BookID: req.BookID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, view)
}

// Return 还书
// @Summary      还书
// @Description  借阅人本人或管理员可以归还
// @Tags         借阅
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "借阅ID"
// @Success      200 {object} response.Response{data=apploan.LoanView}
// @Failure      403 {object} response.Response "不是借阅人"
// @Failure      404 {object} response.Response "借阅记录不存在"
// @Failure      409 {object} response.Response "已归还"
// @Router       /api/v1/loans/{id}/return [put]
func (h *LoanHandler) Return(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	view, err := h.giveBack.Execute(c.Request.Context(), apploan.ReturnRequest{
		LoanID:     id,
		CallerID:   middleware.GetUserID(c),
		CallerRole: middleware.GetRole(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, view)
}

// MyLoans 我的借阅
// @Summary      我的借阅
// @Tags         借阅
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=[]apploan.LoanView}
// @Router       /api/v1/loans/my [get]
func (h *LoanHandler) MyLoans(c *gin.Context) {
	loans, err := h.listLoans.ListUserLoans(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, loans)
}

// AllLoans 全部借阅
// @Summary      全部借阅(管理员)
// @Tags         借阅
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=[]apploan.LoanView}
// @Failure      403 {object} response.Response "非管理员"
// @Router       /api/v1/loans [get]
func (h *LoanHandler) AllLoans(c *gin.Context) {
	loans, err := h.listLoans.ListAllLoans(c.Request.Context(), middleware.GetRole(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, loans)
}
