package book

import (
	"context"
	"errors"
	"regexp"
)

// Service 图书领域服务（商品目录）
type Service interface {
	PublishBook(ctx context.Context, in PublishInput) (*Book, error)

	GetBookByID(ctx context.Context, id uint) (*Book, error)

	UpdateBookPrice(ctx context.Context, id uint, newPrice int64) (*Book, error)

	ListBooks(ctx context.Context, params ListParams) ([]*Book, int64, error)
}

// PublishInput 上架参数
type PublishInput struct {
	ISBN        string
	Title       string
	Author      string
	Publisher   string
	Price       int64
	Stock       int
	CoverURL    string
	Description string
	PublisherID uint
}

type service struct {
	repo Repository
}

// NewService 创建图书服务
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// PublishBook 上架图书
// 业务规则：
// 1. ISBN格式合法（10位或13位）且唯一
// 2. 价格在允许范围内
// 3. 初始库存不能为负
func (s *service) PublishBook(ctx context.Context, in PublishInput) (*Book, error) {
	if !isValidISBN(in.ISBN) {
		return nil, ErrInvalidISBN
	}
	if in.Price < MinPrice || in.Price > MaxPrice {
		return nil, ErrInvalidPrice
	}
	if in.Stock < 0 {
		return nil, ErrInvalidStock
	}

	existing, err := s.repo.FindByISBN(ctx, in.ISBN)
	if err == nil && existing != nil {
		return nil, ErrISBNDuplicate
	}
	if err != nil && !errors.Is(err, ErrBookNotFound) {
		return nil, err
	}

	b := NewBook(in.ISBN, in.Title, in.Author, in.Publisher, in.Price, in.Stock, in.CoverURL, in.Description, in.PublisherID)
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *service) GetBookByID(ctx context.Context, id uint) (*Book, error) {
	return s.repo.FindByID(ctx, id)
}

// UpdateBookPrice 调价
func (s *service) UpdateBookPrice(ctx context.Context, id uint, newPrice int64) (*Book, error) {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := b.UpdatePrice(newPrice); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *service) ListBooks(ctx context.Context, params ListParams) ([]*Book, int64, error) {
	return s.repo.List(ctx, params)
}

var nonDigit = regexp.MustCompile(`[^0-9]`)

// isValidISBN 只校验位数（去掉分隔符后10位或13位）
func isValidISBN(isbn string) bool {
	clean := nonDigit.ReplaceAllString(isbn, "")
	return len(clean) == 10 || len(clean) == 13
}
