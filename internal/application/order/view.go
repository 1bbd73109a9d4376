package order

import (
	"github.com/xiebiao/bookshop/internal/domain/order"
	"github.com/xiebiao/bookshop/pkg/money"
)

const tracerName = "bookshop/application/order"

const timeLayout = "2006-01-02 15:04:05"

// OrderView 订单响应
type OrderView struct {
	OrderID          uint       `json:"order_id"`
	OrderNo          string     `json:"order_no"`
	UserID           uint       `json:"user_id"`
	Status           string     `json:"status"`
	StatusText       string     `json:"status_text"`
	Subtotal         int64      `json:"subtotal"`
	ShippingFee      int64      `json:"shipping_fee"`
	Discount         int64      `json:"discount"`
	Total            int64      `json:"total"`
	TotalYuan        string     `json:"total_yuan"`
	PromotionCode    string     `json:"promotion_code,omitempty"`
	ShippingMethodID uint       `json:"shipping_method_id,omitempty"`
	ShippingAddress  string     `json:"shipping_address,omitempty"`
	Items            []ItemView `json:"items"`
	CreatedAt        string     `json:"created_at"`

	// Replayed 为true表示命中Idempotency-Key，返回的是之前创建的订单
	Replayed bool `json:"replayed,omitempty"`
}

// ItemView 订单明细响应
type ItemView struct {
	BookID    uint   `json:"book_id"`
	Quantity  int    `json:"quantity"`
	Price     int64  `json:"price"`
	Amount    int64  `json:"amount"`
	PriceYuan string `json:"price_yuan"`
}

func toView(o *order.Order) *OrderView {
	items := make([]ItemView, len(o.Items))
	for i, item := range o.Items {
		items[i] = ItemView{
			BookID:    item.BookID,
			Quantity:  item.Quantity,
			Price:     item.Price,
			Amount:    item.Amount(),
			PriceYuan: money.Yuan(item.Price),
		}
	}
	return &OrderView{
		OrderID:          o.ID,
		OrderNo:          o.OrderNo,
		UserID:           o.UserID,
		Status:           o.Status.String(),
		StatusText:       o.Status.Label(),
		Subtotal:         o.Subtotal,
		ShippingFee:      o.ShippingFee,
		Discount:         o.Discount,
		Total:            o.Total,
		TotalYuan:        money.Yuan(o.Total),
		PromotionCode:    o.PromotionCode,
		ShippingMethodID: o.ShippingMethodID,
		ShippingAddress:  o.ShippingAddress,
		Items:            items,
		CreatedAt:        o.CreatedAt.Format(timeLayout),
	}
}
