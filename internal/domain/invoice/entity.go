package invoice

import (
	"fmt"
	"math/rand"
	"time"
)

// Invoice 门店销售发票
//
// 与订单共用同一份图书库存；开票即成交，没有状态机，也不支持冲销。
type Invoice struct {
	ID            uint
	InvoiceNo     string
	StaffID       uint // 开票员工
	CustomerName  string
	CustomerPhone string
	Subtotal      int64 // 商品金额（分）
	Discount      int64 // 促销优惠（分）
	Total         int64 // 实付，不小于0
	PromotionID   *uint
	PromotionCode string
	Items         []InvoiceItem
	CreatedAt     time.Time
}

// InvoiceItem 发票明细
type InvoiceItem struct {
	ID        uint
	InvoiceID uint
	BookID    uint
	Quantity  int
	Price     int64 // 开票时的单价（分）
}

// NewInvoice 创建发票，Subtotal由明细计算
func NewInvoice(staffID uint, customerName, customerPhone string, items []InvoiceItem) *Invoice {
	inv := &Invoice{
		InvoiceNo:     GenerateInvoiceNo(),
		StaffID:       staffID,
		CustomerName:  customerName,
		CustomerPhone: customerPhone,
		Items:         items,
		CreatedAt:     time.Now(),
	}
	for _, item := range items {
		inv.Subtotal += item.Price * int64(item.Quantity)
	}
	inv.Total = inv.Subtotal
	return inv
}

// ApplyDiscount 设置优惠并重新计算实付
func (inv *Invoice) ApplyDiscount(discount int64) {
	inv.Discount = discount
	inv.Total = inv.Subtotal - discount
	if inv.Total < 0 {
		inv.Total = 0
	}
}

// GenerateInvoiceNo INV + 秒级时间戳 + 6位随机数
func GenerateInvoiceNo() string {
	return fmt.Sprintf("INV%d%06d", time.Now().Unix(), rand.Intn(1000000))
}
