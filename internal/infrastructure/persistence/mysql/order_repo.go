package mysql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/bookshop/internal/domain/order"
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
)

// orderRepository 订单仓储实现
// 订单与明细一起保存；查询时Preload明细，避免N+1
type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) order.Repository {
	return &orderRepository{db: db}
}

// Create 保存订单和明细（GORM自动插入关联的Items）
func (r *orderRepository) Create(ctx context.Context, o *order.Order) error {
	model := toOrderModel(o)
	if err := dbFrom(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return apperrors.Conflict(apperrors.ErrCodeDuplicateEntry, "订单号重复")
		}
		return apperrors.Wrap(err, "创建订单失败")
	}

	o.ID = model.ID
	o.CreatedAt = model.CreatedAt
	o.UpdatedAt = model.UpdatedAt
	for i := range o.Items {
		o.Items[i].ID = model.Items[i].ID
		o.Items[i].OrderID = model.ID
	}
	return nil
}

func (r *orderRepository) FindByID(ctx context.Context, id uint) (*order.Order, error) {
	var model OrderModel
	if err := dbFrom(ctx, r.db).Preload("Items").First(&model, id).Error; err != nil {
		return nil, orderQueryError(err)
	}
	return toOrderEntity(&model), nil
}

// LockByID 先锁订单行再加载明细
func (r *orderRepository) LockByID(ctx context.Context, id uint) (*order.Order, error) {
	var model OrderModel
	if err := forUpdate(dbFrom(ctx, r.db)).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, order.ErrOrderNotFound
		}
		return nil, apperrors.Wrap(err, "锁定订单失败")
	}
	if err := dbFrom(ctx, r.db).Where("order_id = ?", id).Order("id").Find(&model.Items).Error; err != nil {
		return nil, apperrors.Wrap(err, "查询订单明细失败")
	}
	return toOrderEntity(&model), nil
}

func (r *orderRepository) FindByOrderNo(ctx context.Context, orderNo string) (*order.Order, error) {
	var model OrderModel
	if err := dbFrom(ctx, r.db).Preload("Items").Where("order_no = ?", orderNo).First(&model).Error; err != nil {
		return nil, orderQueryError(err)
	}
	return toOrderEntity(&model), nil
}

// UpdateStatus 调用方已经持有订单行锁，这里不再检查影响行数
func (r *orderRepository) UpdateStatus(ctx context.Context, o *order.Order) error {
	result := dbFrom(ctx, r.db).Model(&OrderModel{}).Where("id = ?", o.ID).Updates(map[string]any{
		"status":     int(o.Status),
		"updated_at": o.UpdatedAt,
	})
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新订单状态失败")
	}
	return nil
}

func (r *orderRepository) List(ctx context.Context, params order.ListParams) ([]*order.Order, int64, error) {
	var (
		models []OrderModel
		total  int64
	)

	query := dbFrom(ctx, r.db).Model(&OrderModel{})
	if params.UserID != 0 {
		query = query.Where("user_id = ?", params.UserID)
	}
	if params.Status != 0 {
		query = query.Where("status = ?", int(params.Status))
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询订单总数失败")
	}

	offset, limit := normalizePage(params.Page, params.PageSize)
	err := query.Preload("Items").
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&models).Error
	if err != nil {
		return nil, 0, apperrors.Wrap(err, "查询订单列表失败")
	}

	orders := make([]*order.Order, len(models))
	for i := range models {
		orders[i] = toOrderEntity(&models[i])
	}
	return orders, total, nil
}

// SaveAssignment INSERT ... ON DUPLICATE KEY UPDATE，同一订单只保留最后一次指派
func (r *orderRepository) SaveAssignment(ctx context.Context, a *order.Assignment) error {
	model := &OrderAssignmentModel{
		OrderID:     a.OrderID,
		ShipperID:   a.ShipperID,
		AssignedBy:  a.AssignedBy,
		AssignedAt:  a.AssignedAt,
		CompletedAt: a.CompletedAt,
	}
	err := dbFrom(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "order_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"shipper_id", "assigned_by", "assigned_at", "completed_at"}),
	}).Create(model).Error
	if err != nil {
		return apperrors.Wrap(err, "保存配送指派失败")
	}

	saved, err := r.FindAssignment(ctx, a.OrderID)
	if err != nil {
		return err
	}
	a.ID = saved.ID
	return nil
}

func (r *orderRepository) CompleteAssignment(ctx context.Context, orderID uint, at time.Time) error {
	result := dbFrom(ctx, r.db).Model(&OrderAssignmentModel{}).
		Where("order_id = ?", orderID).
		Update("completed_at", at)
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新配送指派失败")
	}
	if result.RowsAffected == 0 {
		return order.ErrAssignmentNotFound
	}
	return nil
}

func (r *orderRepository) FindAssignment(ctx context.Context, orderID uint) (*order.Assignment, error) {
	var model OrderAssignmentModel
	if err := dbFrom(ctx, r.db).Where("order_id = ?", orderID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, order.ErrAssignmentNotFound
		}
		return nil, apperrors.Wrap(err, "查询配送指派失败")
	}
	return &order.Assignment{
		ID:          model.ID,
		OrderID:     model.OrderID,
		ShipperID:   model.ShipperID,
		AssignedBy:  model.AssignedBy,
		AssignedAt:  model.AssignedAt,
		CompletedAt: model.CompletedAt,
	}, nil
}

func orderQueryError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return order.ErrOrderNotFound
	}
	return apperrors.Wrap(err, "查询订单失败")
}

func toOrderModel(o *order.Order) *OrderModel {
	items := make([]OrderItemModel, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemModel{
			BookID:   item.BookID,
			Quantity: item.Quantity,
			Price:    item.Price,
		}
	}
	return &OrderModel{
		ID:               o.ID,
		OrderNo:          o.OrderNo,
		UserID:           o.UserID,
		Status:           int(o.Status),
		Subtotal:         o.Subtotal,
		ShippingFee:      o.ShippingFee,
		Discount:         o.Discount,
		Total:            o.Total,
		PromotionID:      o.PromotionID,
		PromotionCode:    o.PromotionCode,
		ShippingMethodID: o.ShippingMethodID,
		ShippingAddress:  o.ShippingAddress,
		Items:            items,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}

func toOrderEntity(model *OrderModel) *order.Order {
	items := make([]order.OrderItem, len(model.Items))
	for i, item := range model.Items {
		items[i] = order.OrderItem{
			ID:       item.ID,
			OrderID:  item.OrderID,
			BookID:   item.BookID,
			Quantity: item.Quantity,
			Price:    item.Price,
		}
	}
	return &order.Order{
		ID:               model.ID,
		OrderNo:          model.OrderNo,
		UserID:           model.UserID,
		Status:           order.OrderStatus(model.Status),
		Subtotal:         model.Subtotal,
		ShippingFee:      model.ShippingFee,
		Discount:         model.Discount,
		Total:            model.Total,
		PromotionID:      model.PromotionID,
		PromotionCode:    model.PromotionCode,
		ShippingMethodID: model.ShippingMethodID,
		ShippingAddress:  model.ShippingAddress,
		Items:            items,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}
}
