package dto

// LineItem 订单/发票明细，价格以服务端为准
type LineItem struct {
	BookID   uint `json:"book_id" binding:"required" example:"1"`
	Quantity int  `json:"quantity" binding:"required,min=1,max=999" example:"2"`
}

// CreateOrderRequest 下单
type CreateOrderRequest struct {
	Items            []LineItem `json:"items" binding:"required,min=1,dive"`
	ShippingMethodID uint       `json:"shipping_method_id" example:"1"`
	ShippingAddress  string     `json:"shipping_address" binding:"max=255" example:"上海市浦东新区"`
	PromotionCode    string     `json:"promotion_code" binding:"max=32" example:"SPRING10"`
}

// ListOrdersRequest 订单列表
type ListOrdersRequest struct {
	Page     int    `form:"page,default=1" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size,default=20" binding:"omitempty,min=1,max=100"`
	Status   string `form:"status" binding:"omitempty,order_status" example:"pending"`
	UserID   uint   `form:"user_id"` // 仅员工有效
}

// AssignShipperRequest 指派配送员
type AssignShipperRequest struct {
	ShipperID uint `json:"shipper_id" binding:"required" example:"7"`
}

// CreateInvoiceRequest 门店开票
type CreateInvoiceRequest struct {
	Items         []LineItem `json:"items" binding:"required,min=1,dive"`
	CustomerName  string     `json:"customer_name" binding:"max=50"`
	CustomerPhone string     `json:"customer_phone" binding:"max=20"`
	PromotionCode string     `json:"promotion_code" binding:"max=32"`
}

// ListInvoicesRequest 发票列表，日期格式2006-01-02
type ListInvoicesRequest struct {
	Page     int    `form:"page,default=1" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size,default=20" binding:"omitempty,min=1,max=100"`
	StaffID  uint   `form:"staff_id"`
	From     string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To       string `form:"to" binding:"omitempty,datetime=2006-01-02"`
}
