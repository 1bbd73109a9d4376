// @title           Bookshop API
// @version         1.0
// @description     网上书店：图书、订单、门店开票、促销
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
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
	"github.com/xiebiao/bookshop/internal/infrastructure/logging"
	"github.com/xiebiao/bookshop/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/bookshop/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/bookshop/internal/interface/http/handler"
	"github.com/xiebiao/bookshop/internal/interface/http/middleware"
	"github.com/xiebiao/bookshop/internal/interface/http/router"
	"github.com/xiebiao/bookshop/pkg/metrics"
	"github.com/xiebiao/bookshop/pkg/response"
	"github.com/xiebiao/bookshop/pkg/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("服务退出", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	response.SetLogger(logging.Named(logger, "response"))
	metrics.InitMetrics()

	if cfg.Tracing.Enabled {
		shutdown, err := tracing.InitTracer(tracing.Options{
			ServiceName: cfg.Tracing.ServiceName,
			Endpoint:    cfg.Tracing.Endpoint,
			SampleRatio: cfg.Tracing.SampleRatio,
			Insecure:    cfg.Tracing.Insecure,
		})
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(ctx); err != nil {
				logger.Warn("关闭Tracer失败", zap.Error(err))
			}
		}()
	}

	engine, cleanup, err := buildEngine(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("服务启动", zap.String("addr", srv.Addr), zap.String("mode", cfg.Server.Mode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("收到退出信号，开始优雅关闭")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildEngine 手动依赖注入
// Repository ← Service ← UseCase ← Handler，与wire.go中的InitializeApp一致
func buildEngine(cfg *config.Config, logger *zap.Logger) (*gin.Engine, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}
	fail := func(err error) (*gin.Engine, func(), error) {
		cleanup()
		return nil, nil, err
	}

	db, closeDB, err := provideDB(cfg, logger)
	if err != nil {
		return fail(err)
	}
	cleanups = append(cleanups, closeDB)

	redisClient, closeRedis, err := provideRedis(cfg, logger)
	if err != nil {
		return fail(err)
	}
	cleanups = append(cleanups, closeRedis)

	publisher, closePublisher, err := providePublisher(cfg, logger)
	if err != nil {
		return fail(err)
	}
	cleanups = append(cleanups, closePublisher)

	// 基础设施层
	txManager := mysql.NewTxManager(db)
	userRepo := mysql.NewUserRepository(db)
	bookRepo := mysql.NewBookRepository(db)
	orderRepo := mysql.NewOrderRepository(db)
	invoiceRepo := mysql.NewInvoiceRepository(db)
	promotionRepo := mysql.NewPromotionRepository(db)
	shippingRepo := mysql.NewShippingRepository(db)
	sessionStore := redis.NewSessionStore(redisClient)
	idempotency := provideIdempotencyStore(redisClient, cfg)
	jwtManager := provideJWTManager(cfg)

	// 领域层
	userService := provideUserService(userRepo, cfg)
	bookService := book.NewService(bookRepo)
	promotionService, err := providePromotionService(promotionRepo, cfg)
	if err != nil {
		return fail(err)
	}
	ledger := inventory.NewLedger(bookRepo)

	appLog := logging.Named(logger, "app")

	// 应用层 + 接口层
	handlers := router.Handlers{
		User: handler.NewUserHandler(
			appuser.NewRegisterUseCase(userService, appLog),
			appuser.NewLoginUseCase(userService, jwtManager, sessionStore, appLog),
			appuser.NewLogoutUseCase(sessionStore, appLog),
		),
		Book: handler.NewBookHandler(
			appbook.NewPublishBookUseCase(bookService, appLog),
			appbook.NewGetBookUseCase(bookService),
			appbook.NewListBooksUseCase(bookService),
			appbook.NewAdjustStockUseCase(ledger, txManager, appLog),
		),
		Shipping: handler.NewShippingHandler(appshipping.NewListMethodsUseCase(shippingRepo)),
		Order: handler.NewOrderHandler(handler.OrderUseCases{
			Create: apporder.NewCreateOrderUseCase(orderRepo, ledger, shippingRepo, promotionService,
				txManager, idempotency, publisher, appLog),
			Cancel:   apporder.NewCancelOrderUseCase(orderRepo, ledger, txManager, publisher, appLog),
			Confirm:  apporder.NewConfirmOrderUseCase(orderRepo, txManager, appLog),
			Assign:   apporder.NewAssignShipperUseCase(orderRepo, txManager, appLog),
			Complete: apporder.NewCompleteOrderUseCase(orderRepo, txManager, publisher, appLog),
			Get:      apporder.NewGetOrderUseCase(orderRepo),
			List:     apporder.NewListOrdersUseCase(orderRepo),
		}),
		Invoice: handler.NewInvoiceHandler(
			appinvoice.NewCreateInvoiceUseCase(invoiceRepo, ledger, promotionService, txManager, publisher, appLog),
			appinvoice.NewGetInvoiceUseCase(invoiceRepo),
			appinvoice.NewListInvoicesUseCase(invoiceRepo),
		),
		Promotion: handler.NewPromotionHandler(
			apppromotion.NewCheckPromotionUseCase(promotionService),
			apppromotion.NewSavePromotionUseCase(promotionRepo, bookRepo, promotionService, txManager, appLog),
			apppromotion.NewGetPromotionUseCase(promotionRepo),
			apppromotion.NewListPromotionsUseCase(promotionRepo),
		),
	}
	auth := middleware.NewAuthMiddleware(jwtManager, sessionStore)

	engine, err := provideEngine(cfg, logger, handlers, auth)
	if err != nil {
		return fail(err)
	}
	return engine, cleanup, nil
}
