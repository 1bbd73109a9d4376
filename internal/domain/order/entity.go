package order

import (
	"time"
)

// OrderStatus 订单状态
//
// 状态机：
//
//	pending → confirmed → delivering → delivered
//	pending/confirmed/delivering → cancelled（归还库存）
//	delivered → cancelled（仅记账，不归还库存）
//
// delivering → delivering 表示重新指派配送员。cancelled为终态。
type OrderStatus int

const (
	OrderStatusPending    OrderStatus = 1 // 待确认
	OrderStatusConfirmed  OrderStatus = 2 // 已确认
	OrderStatusDelivering OrderStatus = 3 // 配送中
	OrderStatusDelivered  OrderStatus = 4 // 已送达
	OrderStatusCancelled  OrderStatus = 5 // 已取消
)

// String 对外（API、事件）使用的状态编码
func (s OrderStatus) String() string {
	switch s {
	case OrderStatusPending:
		return "pending"
	case OrderStatusConfirmed:
		return "confirmed"
	case OrderStatusDelivering:
		return "delivering"
	case OrderStatusDelivered:
		return "delivered"
	case OrderStatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Label 中文展示名
func (s OrderStatus) Label() string {
	switch s {
	case OrderStatusPending:
		return "待确认"
	case OrderStatusConfirmed:
		return "已确认"
	case OrderStatusDelivering:
		return "配送中"
	case OrderStatusDelivered:
		return "已送达"
	case OrderStatusCancelled:
		return "已取消"
	default:
		return "未知状态"
	}
}

// ParseStatus 状态编码 → OrderStatus，未知编码返回false
func ParseStatus(s string) (OrderStatus, bool) {
	for st := OrderStatusPending; st <= OrderStatusCancelled; st++ {
		if st.String() == s {
			return st, true
		}
	}
	return 0, false
}

// transitions 合法的状态迁移
var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusDelivering, OrderStatusCancelled},
	OrderStatusDelivering: {OrderStatusDelivering, OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusDelivered:  {OrderStatusCancelled},
	OrderStatusCancelled:  {},
}

// Order 订单聚合根
type Order struct {
	ID               uint
	OrderNo          string
	UserID           uint
	Status           OrderStatus
	Subtotal         int64 // 商品金额（分）
	ShippingFee      int64 // 运费（分）
	Discount         int64 // 促销优惠（分）
	Total            int64 // 实付 = Subtotal + ShippingFee - Discount，不小于0
	PromotionID      *uint
	PromotionCode    string
	ShippingMethodID uint
	ShippingAddress  string
	Items            []OrderItem
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// OrderItem 订单明细
type OrderItem struct {
	ID       uint
	OrderID  uint
	BookID   uint
	Quantity int
	Price    int64 // 下单时冻结的单价（分），之后调价不影响
}

// Amount 明细金额
func (i OrderItem) Amount() int64 {
	return i.Price * int64(i.Quantity)
}

// NewOrder 创建待确认订单，Subtotal由明细计算
func NewOrder(orderNo string, userID uint, items []OrderItem) *Order {
	now := time.Now()
	o := &Order{
		OrderNo:   orderNo,
		UserID:    userID,
		Status:    OrderStatusPending,
		Items:     items,
		CreatedAt: now,
		UpdatedAt: now,
	}
	o.Subtotal = o.CalculateSubtotal()
	o.Total = o.Subtotal
	return o
}

// CalculateSubtotal 按冻结单价汇总商品金额
func (o *Order) CalculateSubtotal() int64 {
	var total int64
	for _, item := range o.Items {
		total += item.Amount()
	}
	return total
}

// ApplyCharges 设置运费和优惠并重新计算实付金额
func (o *Order) ApplyCharges(shippingFee, discount int64) {
	o.ShippingFee = shippingFee
	o.Discount = discount
	o.Total = o.Subtotal + shippingFee - discount
	if o.Total < 0 {
		o.Total = 0
	}
}

// CanTransitionTo 是否允许迁移到target
func (o *Order) CanTransitionTo(target OrderStatus) bool {
	for _, allowed := range transitions[o.Status] {
		if allowed == target {
			return true
		}
	}
	return false
}

// TransitionTo 状态迁移
func (o *Order) TransitionTo(target OrderStatus) error {
	if !o.CanTransitionTo(target) {
		return ErrInvalidStatusTransition.
			WithField("from", o.Status.String()).
			WithField("to", target.String())
	}
	o.Status = target
	o.UpdatedAt = time.Now()
	return nil
}

// Confirm pending → confirmed
func (o *Order) Confirm() error {
	return o.TransitionTo(OrderStatusConfirmed)
}

// StartDelivery confirmed/delivering → delivering
func (o *Order) StartDelivery() error {
	return o.TransitionTo(OrderStatusDelivering)
}

// Complete delivering → delivered
func (o *Order) Complete() error {
	return o.TransitionTo(OrderStatusDelivered)
}

// CancelOutcome 取消结果
type CancelOutcome int

const (
	// CancelNoop 已经是取消状态，不做任何修改
	CancelNoop CancelOutcome = iota
	// CancelRestock 未送达订单取消，需要归还库存
	CancelRestock
	// CancelKeepStock 已送达订单取消，不归还库存
	CancelKeepStock
)

// Cancel 取消订单，返回调用方需要执行的库存动作
func (o *Order) Cancel() (CancelOutcome, error) {
	switch o.Status {
	case OrderStatusCancelled:
		return CancelNoop, nil
	case OrderStatusDelivered:
		if err := o.TransitionTo(OrderStatusCancelled); err != nil {
			return CancelNoop, err
		}
		return CancelKeepStock, nil
	default:
		if err := o.TransitionTo(OrderStatusCancelled); err != nil {
			return CancelNoop, err
		}
		return CancelRestock, nil
	}
}

// Assignment 配送指派（每个订单最多一条，重新指派覆盖旧记录）
type Assignment struct {
	ID          uint
	OrderID     uint
	ShipperID   uint
	AssignedBy  uint
	AssignedAt  time.Time
	CompletedAt *time.Time // 送达时间，配送中为nil
}

// NewAssignment 创建指派记录
func NewAssignment(orderID, shipperID, assignedBy uint) *Assignment {
	return &Assignment{
		OrderID:    orderID,
		ShipperID:  shipperID,
		AssignedBy: assignedBy,
		AssignedAt: time.Now(),
	}
}
