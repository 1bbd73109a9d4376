// Package promotion 促销码管理与校验用例
package promotion

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xiebiao/bookshop/internal/domain/book"
	"github.com/xiebiao/bookshop/internal/domain/promotion"
	"github.com/xiebiao/bookshop/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/bookshop/pkg/metrics"
	"github.com/xiebiao/bookshop/pkg/money"
	"github.com/xiebiao/bookshop/pkg/tracing"
)

const tracerName = "bookshop/application/promotion"

// PromotionView 促销响应
type PromotionView struct {
	ID           uint   `json:"id"`
	Code         string `json:"code"`
	Name         string `json:"name"`
	DiscountType string `json:"discount_type"`
	Discount     string `json:"discount"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	MinPrice     *int64 `json:"min_price,omitempty"`
	Quantity     *int   `json:"quantity,omitempty"`
	UsedQuantity int    `json:"used_quantity"`
	BookIDs      []uint `json:"book_ids"`
}

func toView(p *promotion.Promotion) *PromotionView {
	bookIDs := p.BookIDs
	if bookIDs == nil {
		bookIDs = []uint{}
	}
	return &PromotionView{
		ID:           p.ID,
		Code:         p.Code,
		Name:         p.Name,
		DiscountType: string(p.DiscountType),
		Discount:     p.Discount.String(),
		StartDate:    p.StartDate.Format(time.DateOnly),
		EndDate:      p.EndDate.Format(time.DateOnly),
		MinPrice:     p.MinPrice,
		Quantity:     p.Quantity,
		UsedQuantity: p.UsedQuantity,
		BookIDs:      bookIDs,
	}
}

// CheckPromotionUseCase 查询促销码能否使用（不核销）
type CheckPromotionUseCase struct {
	service promotion.Service
}

func NewCheckPromotionUseCase(service promotion.Service) *CheckPromotionUseCase {
	return &CheckPromotionUseCase{service: service}
}

// CheckResponse 校验结果
type CheckResponse struct {
	promotion.Quote
	DiscountYuan string `json:"discount_yuan"`
	FinalYuan    string `json:"final_yuan"`
}

func (uc *CheckPromotionUseCase) Execute(ctx context.Context, code string, amount int64) (_ *CheckResponse, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "CheckPromotion")
	defer func() { tracing.EndSpan(span, err) }()

	quote, err := uc.service.Check(ctx, code, amount)
	metrics.IncPromotionCheck(checkResult(err))
	if err != nil {
		return nil, err
	}
	return &CheckResponse{
		Quote:        quote,
		DiscountYuan: money.Yuan(quote.DiscountAmount),
		FinalYuan:    money.Yuan(quote.FinalAmount),
	}, nil
}

// checkResult metrics标签
func checkResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, promotion.ErrPromotionNotFound):
		return "not_found"
	case errors.Is(err, promotion.ErrNotYetActive):
		return "not_active"
	case errors.Is(err, promotion.ErrExpired):
		return "expired"
	case errors.Is(err, promotion.ErrQuotaExhausted):
		return "exhausted"
	case errors.Is(err, promotion.ErrBelowMinimum):
		return "below_minimum"
	default:
		return "error"
	}
}

// SavePromotionRequest 创建/更新促销
type SavePromotionRequest struct {
	Code         string
	Name         string
	DiscountType string
	Discount     decimal.Decimal
	StartDate    time.Time
	EndDate      time.Time
	MinPrice     *int64
	Quantity     *int
	BookIDs      []uint
}

func (req SavePromotionRequest) apply(p *promotion.Promotion) {
	p.Code = req.Code
	p.Name = req.Name
	p.DiscountType = promotion.DiscountType(req.DiscountType)
	p.Discount = req.Discount
	p.StartDate = req.StartDate
	p.EndDate = req.EndDate
	p.MinPrice = req.MinPrice
	p.Quantity = req.Quantity
	p.BookIDs = req.BookIDs
	p.UpdatedAt = time.Now()
}

// SavePromotionUseCase 创建和更新促销
//
// 同一本书不能同时属于两个时间段重叠的促销。
// 写入前在同一事务中锁定涉及的图书行，两个并发请求涉及同一本书时
// 后到的一方会等前者提交后再做冲突检查。
type SavePromotionUseCase struct {
	repo      promotion.Repository
	books     book.Repository
	service   promotion.Service
	txManager *mysql.TxManager
	logger    *zap.Logger
}

func NewSavePromotionUseCase(
	repo promotion.Repository,
	books book.Repository,
	service promotion.Service,
	txManager *mysql.TxManager,
	logger *zap.Logger,
) *SavePromotionUseCase {
	return &SavePromotionUseCase{
		repo:      repo,
		books:     books,
		service:   service,
		txManager: txManager,
		logger:    logger,
	}
}

// Create 新建促销
func (uc *SavePromotionUseCase) Create(ctx context.Context, req SavePromotionRequest) (_ *PromotionView, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "CreatePromotion")
	defer func() { tracing.EndSpan(span, err) }()

	now := time.Now()
	p := &promotion.Promotion{CreatedAt: now}
	req.apply(p)
	p.Normalize()
	if err := p.Validate(); err != nil {
		return nil, err
	}

	err = uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		if err := uc.checkItems(txCtx, p, 0); err != nil {
			return err
		}
		return uc.repo.Create(txCtx, p)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("促销已创建",
		zap.Uint("promotion_id", p.ID),
		zap.String("code", p.Code),
		zap.Int("books", len(p.BookIDs)))
	return toView(p), nil
}

// Update 修改促销，已使用次数保持不变
// 先锁定促销行，与Consume串行，quantity检查基于最新的used_quantity
func (uc *SavePromotionUseCase) Update(ctx context.Context, id uint, req SavePromotionRequest) (_ *PromotionView, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "UpdatePromotion")
	defer func() { tracing.EndSpan(span, err) }()

	var updated *promotion.Promotion
	err = uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		p, err := uc.repo.LockByID(txCtx, id)
		if err != nil {
			return err
		}
		req.apply(p)
		p.Normalize()
		if err := p.Validate(); err != nil {
			return err
		}
		if err := uc.checkItems(txCtx, p, p.ID); err != nil {
			return err
		}
		if err := uc.repo.Update(txCtx, p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("促销已更新", zap.Uint("promotion_id", id), zap.String("code", updated.Code))
	return toView(updated), nil
}

// checkItems 锁定图书行并检查时间段冲突
func (uc *SavePromotionUseCase) checkItems(ctx context.Context, p *promotion.Promotion, excludeID uint) error {
	// BookIDs已经去重并升序，加锁顺序固定
	for _, bookID := range p.BookIDs {
		if _, err := uc.books.LockByID(ctx, bookID); err != nil {
			if errors.Is(err, book.ErrBookNotFound) {
				return book.ErrBookNotFound.WithField("book_id", bookID)
			}
			return err
		}
	}

	conflicts, err := uc.service.FindConflictingItems(ctx, p.BookIDs, p.StartDate, p.EndDate, excludeID)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		return promotion.ErrOverlap.WithField("book_ids", conflicts)
	}
	return nil
}

// GetPromotionUseCase 促销详情
type GetPromotionUseCase struct {
	repo promotion.Repository
}

func NewGetPromotionUseCase(repo promotion.Repository) *GetPromotionUseCase {
	return &GetPromotionUseCase{repo: repo}
}

func (uc *GetPromotionUseCase) Execute(ctx context.Context, id uint) (*PromotionView, error) {
	p, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toView(p), nil
}

// ListPromotionsUseCase 促销列表
type ListPromotionsUseCase struct {
	repo promotion.Repository
}

func NewListPromotionsUseCase(repo promotion.Repository) *ListPromotionsUseCase {
	return &ListPromotionsUseCase{repo: repo}
}

// ListPromotionsResponse 分页结果
type ListPromotionsResponse struct {
	Promotions []*PromotionView `json:"promotions"`
	Total      int64            `json:"total"`
}

func (uc *ListPromotionsUseCase) Execute(ctx context.Context, params promotion.ListParams) (*ListPromotionsResponse, error) {
	list, total, err := uc.repo.List(ctx, params)
	if err != nil {
		return nil, err
	}
	views := make([]*PromotionView, len(list))
	for i, p := range list {
		views[i] = toView(p)
	}
	return &ListPromotionsResponse{Promotions: views, Total: total}, nil
}
