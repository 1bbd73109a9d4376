//go:build wireinject
// +build wireinject

// Wire依赖注入配置
//
// 运行 `wire gen ./cmd/api` 生成wire_gen.go；未生成时main.go使用buildEngine手动组装，两边的依赖图保持一致。

package main

import (
	"github.com/gin-gonic/gin"
	"github.com/google/wire"
	"go.uber.org/zap"

	appbook "github.com/xiebiao/bookshop/internal/application/book"
	appinvoice "github.com/xiebiao/bookshop/internal/application/invoice"
	apporder "github.com/xiebiao/bookshop/internal/application/order"
	apppromotion "github.com/xiebiao/bookshop/internal/application/promotion"
	appshipping "github.com/xiebiao/bookshop/internal/application/shipping"
	appuser "github.com/xiebiao/bookshop/internal/application/user"
	"github.com/xiebiao/bookshop/internal/domain/book"
	"github.com/xiebiao/bookshop/internal/domain/inventory"
	"github.com/xiebiao/bookshop/internal/infrastructure/config"
	"github.com/xiebiao/bookshop/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/bookshop/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/bookshop/internal/interface/http/handler"
	"github.com/xiebiao/bookshop/internal/interface/http/middleware"
	"github.com/xiebiao/bookshop/internal/interface/http/router"
)

// infrastructureSet 数据库、Redis、事件发布
var infrastructureSet = wire.NewSet(
	provideDB,
	provideRedis,
	providePublisher,
	provideJWTManager,
	provideIdempotencyStore,
	redis.NewSessionStore,
	wire.Bind(new(appuser.SessionStore), new(*redis.SessionStore)),
	wire.Bind(new(middleware.Blacklist), new(*redis.SessionStore)),
)

var repositorySet = wire.NewSet(
	mysql.NewTxManager,
	mysql.NewUserRepository,
	mysql.NewBookRepository,
	mysql.NewOrderRepository,
	mysql.NewInvoiceRepository,
	mysql.NewPromotionRepository,
	mysql.NewShippingRepository,
)

var domainSet = wire.NewSet(
	provideUserService,
	providePromotionService,
	book.NewService,
	inventory.NewLedger,
)

var applicationSet = wire.NewSet(
	appuser.NewRegisterUseCase,
	appuser.NewLoginUseCase,
	appuser.NewLogoutUseCase,
	appbook.NewPublishBookUseCase,
	appbook.NewGetBookUseCase,
	appbook.NewListBooksUseCase,
	appbook.NewAdjustStockUseCase,
	appshipping.NewListMethodsUseCase,
	apporder.NewCreateOrderUseCase,
	apporder.NewCancelOrderUseCase,
	apporder.NewConfirmOrderUseCase,
	apporder.NewAssignShipperUseCase,
	apporder.NewCompleteOrderUseCase,
	apporder.NewGetOrderUseCase,
	apporder.NewListOrdersUseCase,
	appinvoice.NewCreateInvoiceUseCase,
	appinvoice.NewGetInvoiceUseCase,
	appinvoice.NewListInvoicesUseCase,
	apppromotion.NewCheckPromotionUseCase,
	apppromotion.NewSavePromotionUseCase,
	apppromotion.NewGetPromotionUseCase,
	apppromotion.NewListPromotionsUseCase,
)

var interfaceSet = wire.NewSet(
	middleware.NewAuthMiddleware,
	handler.NewUserHandler,
	handler.NewBookHandler,
	handler.NewShippingHandler,
	handler.NewInvoiceHandler,
	handler.NewPromotionHandler,
	handler.NewOrderHandler,
	wire.Struct(new(handler.OrderUseCases), "*"),
	wire.Struct(new(router.Handlers), "*"),
	provideEngine,
)

// InitializeApp 组装gin引擎，cleanup按逆序关闭MQ、Redis、数据库
func InitializeApp(cfg *config.Config, logger *zap.Logger) (*gin.Engine, func(), error) {
	wire.Build(
		infrastructureSet,
		repositorySet,
		domainSet,
		applicationSet,
		interfaceSet,
	)
	return nil, nil, nil
}
