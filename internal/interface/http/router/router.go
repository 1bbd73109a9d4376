// Package router 路由注册
package router

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/xiebiao/bookshop/internal/domain/order"
	"github.com/xiebiao/bookshop/internal/domain/promotion"
	"github.com/xiebiao/bookshop/internal/domain/user"
	"github.com/xiebiao/bookshop/internal/interface/http/handler"
	"github.com/xiebiao/bookshop/internal/interface/http/middleware"
	"github.com/xiebiao/bookshop/pkg/response"
)

// Handlers 所有HTTP处理器
type Handlers struct {
	User      *handler.UserHandler
	Book      *handler.BookHandler
	Shipping  *handler.ShippingHandler
	Order     *handler.OrderHandler
	Invoice   *handler.InvoiceHandler
	Promotion *handler.PromotionHandler
}

// Options 路由选项
type Options struct {
	Mode    string // debug / release / test
	Swagger bool
}

// RegisterValidators 注册自定义binding校验：discount_type、order_status
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	if err := v.RegisterValidation("discount_type", func(fl validator.FieldLevel) bool {
		return promotion.DiscountType(fl.Field().String()).Valid()
	}); err != nil {
		return err
	}
	return v.RegisterValidation("order_status", func(fl validator.FieldLevel) bool {
		_, ok := order.ParseStatus(fl.Field().String())
		return ok
	})
}

// New 创建gin引擎并注册全部路由
func New(opts Options, logger *zap.Logger, h Handlers, auth *middleware.AuthMiddleware) *gin.Engine {
	switch opts.Mode {
	case gin.ReleaseMode, gin.TestMode:
		gin.SetMode(opts.Mode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger), middleware.Metrics())

	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{"message": "pong", "status": "healthy"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if opts.Swagger {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := r.Group("/api/v1")
	requireAuth := auth.RequireAuth()
	staff := middleware.RequireRole(user.RoleStaff)
	admin := middleware.RequireRole(user.RoleAdmin)

	users := v1.Group("/users")
	{
		users.POST("/register", h.User.Register)
		users.POST("/login", h.User.Login)
		users.POST("/logout", requireAuth, h.User.Logout)
	}

	books := v1.Group("/books")
	{
		books.GET("", h.Book.ListBooks)
		books.GET("/:id", h.Book.GetBook)
		books.POST("", requireAuth, staff, h.Book.PublishBook)
		books.PATCH("/:id/stock", requireAuth, staff, h.Book.AdjustStock)
	}
	v1.GET("/shipping-methods", h.Shipping.ListMethods)

	orders := v1.Group("/orders", requireAuth)
	{
		orders.POST("", h.Order.CreateOrder)
		orders.GET("", h.Order.ListOrders)
		orders.GET("/:id", h.Order.GetOrder)
		orders.GET("/no/:order_no", h.Order.GetOrderByNo)
		orders.PATCH("/:id/cancel", h.Order.CancelOrder)
		orders.PATCH("/:id/confirm", staff, h.Order.ConfirmOrder)
		orders.POST("/:id/assign-shipper", staff, h.Order.AssignShipper)
		orders.PATCH("/:id/complete", staff, h.Order.CompleteOrder)
	}

	invoices := v1.Group("/invoices", requireAuth, staff)
	{
		invoices.POST("", h.Invoice.CreateInvoice)
		invoices.GET("", h.Invoice.ListInvoices)
		invoices.GET("/:id", h.Invoice.GetInvoice)
	}

	promotions := v1.Group("/promotions")
	{
		promotions.GET("/check", h.Promotion.CheckPromotion)
		promotions.GET("", requireAuth, staff, h.Promotion.ListPromotions)
		promotions.GET("/:id", requireAuth, staff, h.Promotion.GetPromotion)
		promotions.POST("", requireAuth, admin, h.Promotion.CreatePromotion)
		promotions.PUT("/:id", requireAuth, admin, h.Promotion.UpdatePromotion)
	}

	return r
}
