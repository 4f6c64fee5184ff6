//go:build wireinject
// +build wireinject

// Wire依赖注入配置
// 修改后运行 `wire gen ./cmd/api` 重新生成wire_gen.go

package main

import (
	"github.com/google/wire"

	appbook "github.com/xiebiao/library/internal/application/book"
	apploan "github.com/xiebiao/library/internal/application/loan"
	"github.com/xiebiao/library/internal/application/recommendation"
	appreview "github.com/xiebiao/library/internal/application/review"
	appuser "github.com/xiebiao/library/internal/application/user"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/internal/infrastructure/persistence/gormstore"
	"github.com/xiebiao/library/internal/infrastructure/persistence/redis"
	grpcserver "github.com/xiebiao/library/internal/interface/grpc"
	"github.com/xiebiao/library/internal/interface/http/handler"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	"github.com/xiebiao/library/internal/interface/http/router"
)

// infrastructureSet 连接和外部组件
var infrastructureSet = wire.NewSet(
	provideDB,
	provideRedis,
	provideJWTManager,
	provideRecommendationCache,
	provideEventPublisher,
	provideRateLimiter,
	redis.NewSessionStore,
	wire.Bind(new(middleware.RevocationChecker), new(*redis.SessionStore)),
	wire.Bind(new(appuser.TokenRevoker), new(*redis.SessionStore)),
)

// repositorySet 仓储
var repositorySet = wire.NewSet(
	gormstore.NewBookRepository,
	gormstore.NewLoanRepository,
	gormstore.NewReviewRepository,
	gormstore.NewUserRepository,
	gormstore.NewWishlistRepository,
	gormstore.NewTxManager,
)

// domainSet 领域服务
var domainSet = wire.NewSet(
	book.NewService,
	user.NewService,
)

// applicationSet 用例
var applicationSet = wire.NewSet(
	appbook.NewAddBookUseCase,
	appbook.NewGetBookUseCase,
	appbook.NewListBooksUseCase,
	appbook.NewUpdateBookUseCase,
	appbook.NewDeleteBookUseCase,

	apploan.NewBorrowUseCase,
	apploan.NewReturnUseCase,
	apploan.NewListLoansUseCase,

	appreview.NewCreateReviewUseCase,
	appreview.NewUpdateReviewUseCase,
	appreview.NewDeleteReviewUseCase,
	appreview.NewQueryReviewsUseCase,

	recommendation.NewUseCase,

	appuser.NewProfileUseCase,
	appuser.NewWishlistUseCase,
	appuser.NewLogoutUseCase,
)

// interfaceSet HTTP和gRPC
var interfaceSet = wire.NewSet(
	handler.NewBookHandler,
	handler.NewLoanHandler,
	handler.NewReviewHandler,
	handler.NewRecommendationHandler,
	handler.NewUserHandler,
	wire.Struct(new(router.Handlers), "*"),
	middleware.NewAuthMiddleware,
	router.New,
	grpcserver.NewServer,
)

// InitializeApp 组装整个应用
// cleanup按创建的逆序关闭连接
func InitializeApp(cfg *config.Config) (*App, func(), error) {
	wire.Build(
		infrastructureSet,
		repositorySet,
		domainSet,
		applicationSet,
		interfaceSet,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}
