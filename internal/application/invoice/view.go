package invoice

import (
	"github.com/xiebiao/bookshop/internal/domain/invoice"
	"github.com/xiebiao/bookshop/pkg/money"
)

// InvoiceView 发票响应
type InvoiceView struct {
	InvoiceID     uint       `json:"invoice_id"`
	InvoiceNo     string     `json:"invoice_no"`
	StaffID       uint       `json:"staff_id"`
	CustomerName  string     `json:"customer_name,omitempty"`
	CustomerPhone string     `json:"customer_phone,omitempty"`
	Subtotal      int64      `json:"subtotal"`
	Discount      int64      `json:"discount"`
	Total         int64      `json:"total"`
	TotalYuan     string     `json:"total_yuan"`
	PromotionCode string     `json:"promotion_code,omitempty"`
	Items         []ItemView `json:"items"`
	CreatedAt     string     `json:"created_at"`
}

// ItemView 发票明细
type ItemView struct {
	BookID   uint  `json:"book_id"`
	Quantity int   `json:"quantity"`
	Price    int64 `json:"price"`
	Amount   int64 `json:"amount"`
}

func toView(inv *invoice.Invoice) *InvoiceView {
	items := make([]ItemView, len(inv.Items))
	for i, item := range inv.Items {
		items[i] = ItemView{
			BookID:   item.BookID,
			Quantity: item.Quantity,
			Price:    item.Price,
			Amount:   item.Price * int64(item.Quantity),
		}
	}
	return &InvoiceView{
		InvoiceID:     inv.ID,
		InvoiceNo:     inv.InvoiceNo,
		StaffID:       inv.StaffID,
		CustomerName:  inv.CustomerName,
		CustomerPhone: inv.CustomerPhone,
		Subtotal:      inv.Subtotal,
		Discount:      inv.Discount,
		Total:         inv.Total,
		TotalYuan:     money.Yuan(inv.Total),
		PromotionCode: inv.PromotionCode,
		Items:         items,
		CreatedAt:     inv.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}
