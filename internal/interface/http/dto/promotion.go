package dto

import "github.com/shopspring/decimal"

// SavePromotionRequest 创建/更新促销
type SavePromotionRequest struct {
	Code         string          `json:"code" binding:"required,max=32" example:"SPRING10"`
	Name         string          `json:"name" binding:"max=100" example:"春季九折"`
	DiscountType string          `json:"discount_type" binding:"required,discount_type" example:"percent"`
	Discount     decimal.Decimal `json:"discount" swaggertype:"string" example:"10"`
	StartDate    string          `json:"start_date" binding:"required,datetime=2006-01-02" example:"2026-03-01"`
	EndDate      string          `json:"end_date" binding:"required,datetime=2006-01-02" example:"2026-03-31"`
	MinPrice     *int64          `json:"min_price" binding:"omitempty,min=0" example:"5000"`
	Quantity     *int            `json:"quantity" binding:"omitempty,min=0" example:"100"`
	BookIDs      []uint          `json:"book_ids" binding:"omitempty,dive,required"`
}

// CheckPromotionRequest 查询促销码
type CheckPromotionRequest struct {
	Code   string `form:"code" binding:"required" example:"SPRING10"`
	Amount *int64 `form:"amount" binding:"required,min=0" example:"12000"`
}

// ListPromotionsRequest 促销列表
type ListPromotionsRequest struct {
	Page     int    `form:"page,default=1" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size,default=20" binding:"omitempty,min=1,max=100"`
	Keyword  string `form:"keyword" binding:"omitempty,max=50"`
}
