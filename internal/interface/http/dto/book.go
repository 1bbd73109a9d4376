package dto

// PublishBookRequest 上架
type PublishBookRequest struct {
	ISBN        string `json:"isbn" binding:"required" example:"9787115428028"`
	Title       string `json:"title" binding:"required,max=200" example:"Go语言实战"`
	Author      string `json:"author" binding:"required,max=100" example:"威廉·肯尼迪"`
	Publisher   string `json:"publisher" binding:"required,max=100" example:"人民邮电出版社"`
	Price       int64  `json:"price" binding:"required,min=1,max=999999" example:"5900"` // 分
	Stock       int    `json:"stock" binding:"min=0" example:"100"`
	CoverURL    string `json:"cover_url" binding:"omitempty,url,max=500" example:"https://example.com/cover.jpg"`
	Description string `json:"description" binding:"max=5000"`
}

// ListBooksRequest 图书列表
type ListBooksRequest struct {
	Page     int    `form:"page,default=1" binding:"omitempty,min=1" example:"1"`
	PageSize int    `form:"page_size,default=20" binding:"omitempty,min=1,max=100" example:"20"`
	Keyword  string `form:"keyword" binding:"omitempty,max=100" example:"Go"`
	SortBy   string `form:"sort_by" binding:"omitempty,oneof=price_asc price_desc created_at_desc" example:"created_at_desc"`
}

// AdjustStockRequest 补货（正数）或盘亏（负数）
type AdjustStockRequest struct {
	Delta int `json:"delta" binding:"required,ne=0" example:"20"`
}
