// Package router 注册HTTP路由和全局中间件
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/xiebiao/library/docs" // swagger文档注册
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/internal/interface/http/handler"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	"github.com/xiebiao/library/pkg/ratelimit"
	"github.com/xiebiao/library/pkg/response"
)

// Handlers 所有HTTP处理器
type Handlers struct {
	Book           *handler.BookHandler
	Loan           *handler.LoanHandler
	Review         *handler.ReviewHandler
	Recommendation *handler.RecommendationHandler
	User           *handler.UserHandler
}

// New 创建Gin引擎
// 中间件顺序:Recovery → Logger(请求ID) → Tracing → Metrics → CORS
// 写接口在认证之后按用户限流;limiter为nil时不限流
func New(cfg *config.Config, h Handlers, auth *middleware.AuthMiddleware, limiter *ratelimit.KeyedRateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.Logger(),
		middleware.Tracing(),
		middleware.Metrics(),
		middleware.CORS(cfg.CORS),
	)

	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{"message": "pong", "status": "healthy"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.Server.Mode != gin.ReleaseMode {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	write := middleware.RateLimit(limiter)
	requireAuth := auth.RequireAuth()
	requireAdmin := auth.RequireAdmin()

	v1 := r.Group("/api/v1")

	books := v1.Group("/books")
	{
		books.GET("", h.Book.ListBooks)
		books.GET("/search", h.Book.SearchBooks)
		books.GET("/:id", h.Book.GetBook)
		books.POST("", requireAuth, requireAdmin, write, h.Book.AddBook)
		books.PUT("/:id", requireAuth, requireAdmin, write, h.Book.UpdateBook)
		books.DELETE("/:id", requireAuth, requireAdmin, write, h.Book.DeleteBook)
	}

	loans := v1.Group("/loans", requireAuth)
	{
		loans.POST("", write, h.Loan.Borrow)
		loans.GET("/my", h.Loan.MyLoans)
		loans.PUT("/:id/return", write, h.Loan.Return)
		loans.GET("", requireAdmin, h.Loan.AllLoans)
	}

	reviews := v1.Group("/reviews")
	{
		reviews.GET("/book/:bookId", h.Review.BookReviews)
		reviews.GET("/can-review/:bookId", requireAuth, h.Review.CanReview)
		reviews.GET("/user-review/:bookId", requireAuth, h.Review.UserReview)
		reviews.POST("", requireAuth, write, h.Review.Create)
		reviews.PUT("/:id", requireAuth, write, h.Review.Update)
		reviews.DELETE("/:id", requireAuth, write, h.Review.Delete)
	}

	recs := v1.Group("/recommendations")
	{
		recs.GET("/popular", auth.OptionalAuth(), h.Recommendation.Popular)
		recs.GET("/trending", h.Recommendation.Trending)
		recs.GET("/top-rated", h.Recommendation.TopRated)
	}

	users := v1.Group("/users", requireAuth)
	{
		users.GET("/profile", h.User.Profile)
		users.POST("/logout", h.User.Logout)
		users.GET("/all", requireAdmin, h.User.AllUsers)
		users.GET("/wishlist", h.User.Wishlist)
		users.POST("/wishlist", write, h.User.AddToWishlist)
		users.DELETE("/wishlist/:bookId", write, h.User.RemoveFromWishlist)
		users.GET("/wishlist/check/:bookId", h.User.CheckWishlist)
	}

	return r
}
