package book

import (
	"time"
)

// Book 图书实体（商品目录项）
// 设计说明：
// 1. Price单位为分，避免浮点误差
// 2. Stock是库存账本字段，只能经inventory.Ledger修改，任何时刻都不小于0
type Book struct {
	ID          uint
	ISBN        string
	Title       string
	Author      string
	Publisher   string // 出版社
	Price       int64  // 售价（分）
	Stock       int    // 当前库存
	CoverURL    string
	Description string
	PublisherID uint // 上架的员工ID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewBook 创建图书实体（上架）
func NewBook(isbn, title, author, publisher string, price int64, stock int, coverURL, description string, publisherID uint) *Book {
	now := time.Now()
	return &Book{
		ISBN:        isbn,
		Title:       title,
		Author:      author,
		Publisher:   publisher,
		Price:       price,
		Stock:       stock,
		CoverURL:    coverURL,
		Description: description,
		PublisherID: publisherID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// CanFulfil 当前库存能否满足quantity
func (b *Book) CanFulfil(quantity int) bool {
	return quantity > 0 && b.Stock >= quantity
}

// UpdatePrice 调价，只影响之后创建的订单（已下单的价格已冻结在订单明细中）
func (b *Book) UpdatePrice(newPrice int64) error {
	if newPrice < MinPrice || newPrice > MaxPrice {
		return ErrInvalidPrice
	}
	b.Price = newPrice
	b.UpdatedAt = time.Now()
	return nil
}

// UpdateInfo 更新图书描述信息，空字段保持不变
func (b *Book) UpdateInfo(title, author, publisher, description string) {
	if title != "" {
		b.Title = title
	}
	if author != "" {
		b.Author = author
	}
	if publisher != "" {
		b.Publisher = publisher
	}
	if description != "" {
		b.Description = description
	}
	b.UpdatedAt = time.Now()
}

// 价格范围：0.01元 ~ 9999.99元
const (
	MinPrice int64 = 1
	MaxPrice int64 = 999999
)
