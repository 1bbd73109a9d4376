package order

import (
	"context"

	"go.uber.org/zap"

	"github.com/xiebiao/bookshop/internal/domain/inventory"
	"github.com/xiebiao/bookshop/internal/domain/order"
	"github.com/xiebiao/bookshop/internal/domain/user"
	"github.com/xiebiao/bookshop/internal/infrastructure/events"
	"github.com/xiebiao/bookshop/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/bookshop/pkg/metrics"
	"github.com/xiebiao/bookshop/pkg/tracing"
)

// CancelOrderUseCase 取消订单
//
// 订单行加锁后再判断状态，并发的两次取消只有一次会归还库存。
type CancelOrderUseCase struct {
	orderRepo order.Repository
	ledger    *inventory.Ledger
	txManager *mysql.TxManager
	publisher events.Publisher
	logger    *zap.Logger
}

func NewCancelOrderUseCase(
	orderRepo order.Repository,
	ledger *inventory.Ledger,
	txManager *mysql.TxManager,
	publisher events.Publisher,
	logger *zap.Logger,
) *CancelOrderUseCase {
	return &CancelOrderUseCase{
		orderRepo: orderRepo,
		ledger:    ledger,
		txManager: txManager,
		publisher: publisher,
		logger:    logger,
	}
}

// CancelOrderRequest 取消请求
type CancelOrderRequest struct {
	OrderID uint
	Actor   user.Actor
}

// CancelOrderResponse 取消结果
type CancelOrderResponse struct {
	OrderID   uint   `json:"order_id"`
	Status    string `json:"status"`
	Success   bool   `json:"success"`
	Restocked bool   `json:"restocked"`
	Message   string `json:"message"`
}

const (
	msgAlreadyCancelled = "订单已取消"
	msgCancelled        = "订单取消成功"
	msgCancelledNoStock = "订单取消成功（已送达订单不退回库存）"
)

func (uc *CancelOrderUseCase) Execute(ctx context.Context, req CancelOrderRequest) (_ *CancelOrderResponse, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "CancelOrder")
	defer func() { tracing.EndSpan(span, err) }()

	if req.OrderID == 0 {
		return nil, order.ErrOrderNotFound
	}

	var (
		cancelled *order.Order
		outcome   order.CancelOutcome
	)
	err = uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		o, err := uc.orderRepo.LockByID(txCtx, req.OrderID)
		if err != nil {
			return err
		}
		if !req.Actor.CanAccess(o.UserID) {
			return order.ErrNotOwner
		}

		outcome, err = o.Cancel()
		if err != nil {
			return err
		}
		switch outcome {
		case order.CancelNoop:
			cancelled = o
			return nil
		case order.CancelRestock:
			if err := uc.ledger.Release(txCtx, itemLines(o.Items)); err != nil {
				return err
			}
		}
		if err := uc.orderRepo.UpdateStatus(txCtx, o); err != nil {
			return err
		}
		cancelled = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := &CancelOrderResponse{
		OrderID: cancelled.ID,
		Status:  cancelled.Status.String(),
		Success: true,
	}
	switch outcome {
	case order.CancelNoop:
		resp.Message = msgAlreadyCancelled
		return resp, nil
	case order.CancelRestock:
		resp.Restocked = true
		resp.Message = msgCancelled
	default:
		resp.Message = msgCancelledNoStock
	}

	metrics.IncOrderCancelled(resp.Restocked)
	uc.logger.Info("订单已取消",
		zap.Uint("order_id", cancelled.ID),
		zap.Uint("operator_id", req.Actor.UserID),
		zap.Bool("restocked", resp.Restocked))
	uc.publisher.Publish(ctx, events.New(events.OrderCancelled, orderPayload(cancelled, resp.Restocked)))
	return resp, nil
}

func itemLines(items []order.OrderItem) []inventory.Line {
	lines := make([]inventory.Line, len(items))
	for i, item := range items {
		lines[i] = inventory.Line{BookID: item.BookID, Quantity: item.Quantity}
	}
	return lines
}
