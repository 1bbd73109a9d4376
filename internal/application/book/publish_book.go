// Package book 商品目录用例
package book

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/xiebiao/bookshop/internal/domain/book"
	"github.com/xiebiao/bookshop/pkg/money"
)

const timeLayout = "2006-01-02 15:04:05"

// PublishBookUseCase 图书上架（员工）
type PublishBookUseCase struct {
	bookService book.Service
	logger      *zap.Logger
}

func NewPublishBookUseCase(bookService book.Service, logger *zap.Logger) *PublishBookUseCase {
	return &PublishBookUseCase{bookService: bookService, logger: logger}
}

// PublishBookRequest 上架请求
type PublishBookRequest struct {
	ISBN        string
	Title       string
	Author      string
	Publisher   string
	Price       int64 // 分
	Stock       int   // 初始库存
	CoverURL    string
	Description string
	PublisherID uint // 操作员工，从token中获取
}

// BookView 图书详情
type BookView struct {
	ID          uint   `json:"id"`
	ISBN        string `json:"isbn"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Publisher   string `json:"publisher"`
	Price       int64  `json:"price"`
	PriceYuan   string `json:"price_yuan"`
	Stock       int    `json:"stock"`
	CoverURL    string `json:"cover_url"`
	Description string `json:"description"`
	PublisherID uint   `json:"publisher_id"`
	CreatedAt   string `json:"created_at"`
}

func toBookView(b *book.Book) *BookView {
	return &BookView{
		ID:          b.ID,
		ISBN:        b.ISBN,
		Title:       b.Title,
		Author:      b.Author,
		Publisher:   b.Publisher,
		Price:       b.Price,
		PriceYuan:   money.Yuan(b.Price),
		Stock:       b.Stock,
		CoverURL:    b.CoverURL,
		Description: b.Description,
		PublisherID: b.PublisherID,
		CreatedAt:   b.CreatedAt.Format(timeLayout),
	}
}

// Execute ISBN格式、价格范围、ISBN唯一性由领域服务校验
func (uc *PublishBookUseCase) Execute(ctx context.Context, req PublishBookRequest) (*BookView, error) {
	b, err := uc.bookService.PublishBook(ctx, book.PublishInput{
		ISBN:        strings.TrimSpace(req.ISBN),
		Title:       strings.TrimSpace(req.Title),
		Author:      strings.TrimSpace(req.Author),
		Publisher:   strings.TrimSpace(req.Publisher),
		Price:       req.Price,
		Stock:       req.Stock,
		CoverURL:    req.CoverURL,
		Description: req.Description,
		PublisherID: req.PublisherID,
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("图书已上架",
		zap.Uint("book_id", b.ID),
		zap.String("isbn", b.ISBN),
		zap.Int("stock", b.Stock),
		zap.Uint("publisher_id", b.PublisherID))
	return toBookView(b), nil
}

// GetBookUseCase 图书详情
type GetBookUseCase struct {
	bookService book.Service
}

func NewGetBookUseCase(bookService book.Service) *GetBookUseCase {
	return &GetBookUseCase{bookService: bookService}
}

func (uc *GetBookUseCase) Execute(ctx context.Context, id uint) (*BookView, error) {
	b, err := uc.bookService.GetBookByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toBookView(b), nil
}
