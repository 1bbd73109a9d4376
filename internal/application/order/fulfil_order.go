package order

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/bookshop/internal/domain/order"
	"github.com/xiebiao/bookshop/internal/infrastructure/events"
	"github.com/xiebiao/bookshop/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/bookshop/pkg/tracing"
)

// 履约流程（员工操作）：
// pending --Confirm--> confirmed --AssignShipper--> delivering --Complete--> delivered
// delivering状态下可以重新指派配送员，覆盖原指派记录

// StatusResponse 状态变更结果
type StatusResponse struct {
	OrderID uint   `json:"order_id"`
	Status  string `json:"status"`
}

func statusResponse(o *order.Order) *StatusResponse {
	return &StatusResponse{OrderID: o.ID, Status: o.Status.String()}
}

// ConfirmOrderUseCase 确认订单
type ConfirmOrderUseCase struct {
	orderRepo order.Repository
	txManager *mysql.TxManager
	logger    *zap.Logger
}

func NewConfirmOrderUseCase(orderRepo order.Repository, txManager *mysql.TxManager, logger *zap.Logger) *ConfirmOrderUseCase {
	return &ConfirmOrderUseCase{orderRepo: orderRepo, txManager: txManager, logger: logger}
}

func (uc *ConfirmOrderUseCase) Execute(ctx context.Context, orderID, operatorID uint) (_ *StatusResponse, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "ConfirmOrder")
	defer func() { tracing.EndSpan(span, err) }()

	var confirmed *order.Order
	err = uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		o, err := uc.orderRepo.LockByID(txCtx, orderID)
		if err != nil {
			return err
		}
		if err := o.Confirm(); err != nil {
			return err
		}
		if err := uc.orderRepo.UpdateStatus(txCtx, o); err != nil {
			return err
		}
		confirmed = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("订单已确认", zap.Uint("order_id", orderID), zap.Uint("operator_id", operatorID))
	return statusResponse(confirmed), nil
}

// AssignShipperUseCase 指派配送员
type AssignShipperUseCase struct {
	orderRepo order.Repository
	txManager *mysql.TxManager
	logger    *zap.Logger
}

func NewAssignShipperUseCase(orderRepo order.Repository, txManager *mysql.TxManager, logger *zap.Logger) *AssignShipperUseCase {
	return &AssignShipperUseCase{orderRepo: orderRepo, txManager: txManager, logger: logger}
}

// AssignShipperRequest 指派请求
type AssignShipperRequest struct {
	OrderID    uint
	ShipperID  uint
	AssignerID uint
}

func (uc *AssignShipperUseCase) Execute(ctx context.Context, req AssignShipperRequest) (_ *StatusResponse, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "AssignShipper")
	defer func() { tracing.EndSpan(span, err) }()

	if req.OrderID == 0 || req.ShipperID == 0 || req.AssignerID == 0 {
		return nil, order.ErrMissingAssignee
	}

	var assigned *order.Order
	err = uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		o, err := uc.orderRepo.LockByID(txCtx, req.OrderID)
		if err != nil {
			return err
		}
		if err := o.StartDelivery(); err != nil {
			return err
		}
		if err := uc.orderRepo.UpdateStatus(txCtx, o); err != nil {
			return err
		}
		if err := uc.orderRepo.SaveAssignment(txCtx, order.NewAssignment(o.ID, req.ShipperID, req.AssignerID)); err != nil {
			return err
		}
		assigned = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("已指派配送员",
		zap.Uint("order_id", req.OrderID),
		zap.Uint("shipper_id", req.ShipperID),
		zap.Uint("assigned_by", req.AssignerID))
	return statusResponse(assigned), nil
}

// CompleteOrderUseCase 确认送达
type CompleteOrderUseCase struct {
	orderRepo order.Repository
	txManager *mysql.TxManager
	publisher events.Publisher
	logger    *zap.Logger
}

func NewCompleteOrderUseCase(orderRepo order.Repository, txManager *mysql.TxManager, publisher events.Publisher, logger *zap.Logger) *CompleteOrderUseCase {
	return &CompleteOrderUseCase{orderRepo: orderRepo, txManager: txManager, publisher: publisher, logger: logger}
}

func (uc *CompleteOrderUseCase) Execute(ctx context.Context, orderID, operatorID uint) (_ *StatusResponse, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "CompleteOrder")
	defer func() { tracing.EndSpan(span, err) }()

	var delivered *order.Order
	err = uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		o, err := uc.orderRepo.LockByID(txCtx, orderID)
		if err != nil {
			return err
		}
		if err := o.Complete(); err != nil {
			return err
		}
		if err := uc.orderRepo.UpdateStatus(txCtx, o); err != nil {
			return err
		}
		if err := uc.orderRepo.CompleteAssignment(txCtx, o.ID, time.Now()); err != nil {
			return err
		}
		delivered = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("订单已送达", zap.Uint("order_id", orderID), zap.Uint("operator_id", operatorID))
	uc.publisher.Publish(ctx, events.New(events.OrderDelivered, orderPayload(delivered, false)))
	return statusResponse(delivered), nil
}
