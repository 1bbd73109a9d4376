package order

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/bookshop/internal/domain/book"
	"github.com/xiebiao/bookshop/internal/domain/inventory"
	"github.com/xiebiao/bookshop/internal/domain/order"
	"github.com/xiebiao/bookshop/internal/domain/promotion"
	"github.com/xiebiao/bookshop/internal/domain/shipping"
	"github.com/xiebiao/bookshop/internal/infrastructure/events"
	"github.com/xiebiao/bookshop/internal/infrastructure/persistence/mysql"
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
	"github.com/xiebiao/bookshop/pkg/metrics"
	"github.com/xiebiao/bookshop/pkg/saga"
	"github.com/xiebiao/bookshop/pkg/tracing"
)

// IdempotencyStore 下单幂等键存储（Redis实现见persistence/redis）
type IdempotencyStore interface {
	Begin(ctx context.Context, userID uint, key, fingerprint string) (uint, error)
	Complete(ctx context.Context, userID uint, key, fingerprint string, orderID uint) error
	Abort(ctx context.Context, userID uint, key string) error
}

// CreateOrderUseCase 下单
//
// 一个事务内完成：锁定并扣减库存 → 计算运费 → 核销促销码 → 写入订单。
// 任何一步失败整个事务回滚，库存和促销使用次数都不会变化。
type CreateOrderUseCase struct {
	orderRepo    order.Repository
	ledger       *inventory.Ledger
	shippingRepo shipping.Repository
	promotions   promotion.Service
	txManager    *mysql.TxManager
	idempotency  IdempotencyStore
	publisher    events.Publisher
	logger       *zap.Logger
}

// NewCreateOrderUseCase idempotency可以为nil（不支持Idempotency-Key）
func NewCreateOrderUseCase(
	orderRepo order.Repository,
	ledger *inventory.Ledger,
	shippingRepo shipping.Repository,
	promotions promotion.Service,
	txManager *mysql.TxManager,
	idempotency IdempotencyStore,
	publisher events.Publisher,
	logger *zap.Logger,
) *CreateOrderUseCase {
	return &CreateOrderUseCase{
		orderRepo:    orderRepo,
		ledger:       ledger,
		shippingRepo: shippingRepo,
		promotions:   promotions,
		txManager:    txManager,
		idempotency:  idempotency,
		publisher:    publisher,
		logger:       logger,
	}
}

// CreateOrderRequest 下单请求
// 客户端传来的价格一律忽略，单价取锁定时图书的当前价格
type CreateOrderRequest struct {
	UserID           uint
	ShippingMethodID uint // 0表示自提
	ShippingAddress  string
	PromotionCode    string
	IdempotencyKey   string
	Items            []CreateOrderItem
}

// CreateOrderItem 下单明细
type CreateOrderItem struct {
	BookID   uint
	Quantity int
}

func (req CreateOrderRequest) validate() error {
	if req.UserID == 0 {
		return order.ErrMissingUser
	}
	if len(req.Items) == 0 {
		return inventory.ErrEmptyLines
	}
	for _, item := range req.Items {
		if item.BookID == 0 {
			return inventory.ErrMissingBookID
		}
		if item.Quantity <= 0 {
			return inventory.ErrInvalidQuantity.WithField("book_id", item.BookID)
		}
	}
	return nil
}

func (req CreateOrderRequest) lines() []inventory.Line {
	lines := make([]inventory.Line, len(req.Items))
	for i, item := range req.Items {
		lines[i] = inventory.Line{BookID: item.BookID, Quantity: item.Quantity}
	}
	return lines
}

// fingerprint 同一个Idempotency-Key必须对应同样的下单内容
func (req CreateOrderRequest) fingerprint() string {
	items := make([]string, len(req.Items))
	for i, item := range req.Items {
		items[i] = fmt.Sprintf("%d:%d", item.BookID, item.Quantity)
	}
	sort.Strings(items)
	raw := fmt.Sprintf("%d|%s|%s|%s",
		req.ShippingMethodID, strings.TrimSpace(req.ShippingAddress),
		promotion.NormalizeCode(req.PromotionCode), strings.Join(items, ","))
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:16])
}

// Execute 下单
func (uc *CreateOrderUseCase) Execute(ctx context.Context, req CreateOrderRequest) (_ *OrderView, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "CreateOrder")
	defer func() { tracing.EndSpan(span, err) }()

	if err := req.validate(); err != nil {
		metrics.IncOrderFailed("validation")
		return nil, err
	}

	if req.IdempotencyKey == "" || uc.idempotency == nil {
		o, err := uc.create(ctx, req)
		if err != nil {
			return nil, err
		}
		return toView(o), nil
	}

	// 幂等键在Redis中，事务回滚不会释放，下单失败时由saga补偿
	fp := req.fingerprint()
	var (
		existingID uint
		created    *order.Order
	)
	err = saga.New("create-order", uc.logger).
		AddStep("reserve-idempotency-key",
			func(ctx context.Context) (err error) {
				existingID, err = uc.idempotency.Begin(ctx, req.UserID, req.IdempotencyKey, fp)
				return err
			},
			func(ctx context.Context) error {
				return uc.idempotency.Abort(ctx, req.UserID, req.IdempotencyKey)
			}).
		AddStep("create-order", func(ctx context.Context) (err error) {
			if existingID != 0 {
				return nil
			}
			created, err = uc.create(ctx, req)
			return err
		}, nil).
		Execute(ctx)
	if err != nil {
		return nil, err
	}

	if existingID != 0 {
		o, err := uc.orderRepo.FindByID(ctx, existingID)
		if err != nil {
			return nil, err
		}
		replay := toView(o)
		replay.Replayed = true
		return replay, nil
	}

	if err := uc.idempotency.Complete(ctx, req.UserID, req.IdempotencyKey, fp, created.ID); err != nil {
		// 订单已经提交，幂等键写失败只影响之后的重放
		uc.logger.Warn("保存幂等键失败", zap.Uint("order_id", created.ID), zap.Error(err))
	}
	return toView(created), nil
}

func (uc *CreateOrderUseCase) create(ctx context.Context, req CreateOrderRequest) (*order.Order, error) {
	done := metrics.TrackOrderInProgress()
	defer done()
	start := time.Now()

	var created *order.Order
	err := uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		// 1. 锁定并扣减库存
		locked, err := uc.ledger.Reserve(txCtx, req.lines())
		if err != nil {
			return err
		}
		prices := make(map[uint]int64, len(locked))
		for _, b := range locked {
			prices[b.ID] = b.Price
		}

		// 2. 单价冻结为锁定时的价格
		items := make([]order.OrderItem, len(req.Items))
		for i, item := range req.Items {
			items[i] = order.OrderItem{BookID: item.BookID, Quantity: item.Quantity, Price: prices[item.BookID]}
		}
		o := order.NewOrder(order.GenerateOrderNo(), req.UserID, items)
		o.ShippingMethodID = req.ShippingMethodID
		o.ShippingAddress = strings.TrimSpace(req.ShippingAddress)

		// 3. 运费
		fee, err := shipping.FeeFor(txCtx, uc.shippingRepo, req.ShippingMethodID)
		if err != nil {
			return err
		}

		// 4. 促销码：与扣库存在同一个事务中核销
		var discount int64
		if strings.TrimSpace(req.PromotionCode) != "" {
			quote, err := uc.promotions.Consume(txCtx, req.PromotionCode, o.Subtotal)
			if err != nil {
				return err
			}
			discount = quote.DiscountAmount
			promotionID := quote.PromotionID
			o.PromotionID = &promotionID
			o.PromotionCode = quote.Code
		}

		o.ApplyCharges(fee, discount)
		if err := uc.orderRepo.Create(txCtx, o); err != nil {
			return err
		}
		created = o
		return nil
	})
	if err != nil {
		reason := failureReason(err)
		metrics.IncOrderFailed(reason)
		if reason == "stock" {
			metrics.IncStockConflict("order")
		}
		uc.logger.Info("下单失败",
			zap.Uint("user_id", req.UserID),
			zap.String("reason", reason),
			zap.Error(err))
		return nil, err
	}

	metrics.ObserveOrderCreated(time.Since(start))
	if created.PromotionID != nil {
		metrics.IncPromotionConsumed()
	}
	uc.logger.Info("订单已创建",
		zap.Uint("order_id", created.ID),
		zap.String("order_no", created.OrderNo),
		zap.Uint("user_id", created.UserID),
		zap.Int64("total", created.Total),
		zap.String("promotion_code", created.PromotionCode))
	uc.publisher.Publish(ctx, events.New(events.OrderCreated, orderPayload(created, false)))
	return created, nil
}

// failureReason 下单失败原因（metrics标签）
func failureReason(err error) string {
	switch {
	case errors.Is(err, book.ErrInsufficientStock):
		return "stock"
	case errors.Is(err, book.ErrBookNotFound):
		return "book_not_found"
	case errors.Is(err, shipping.ErrMethodNotFound):
		return "shipping"
	case isPromotionError(err):
		return "promotion"
	}
	switch apperrors.KindOf(err) {
	case apperrors.KindValidation:
		return "validation"
	case apperrors.KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

func isPromotionError(err error) bool {
	for _, target := range []error{
		promotion.ErrPromotionNotFound,
		promotion.ErrNotYetActive,
		promotion.ErrExpired,
		promotion.ErrQuotaExhausted,
		promotion.ErrBelowMinimum,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func orderPayload(o *order.Order, restocked bool) events.OrderPayload {
	return events.OrderPayload{
		OrderID:   o.ID,
		OrderNo:   o.OrderNo,
		UserID:    o.UserID,
		Status:    o.Status.String(),
		Total:     o.Total,
		Restocked: restocked,
	}
}
