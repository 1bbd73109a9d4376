// Package invoice 门店开票用例
package invoice

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/xiebiao/bookshop/internal/domain/inventory"
	"github.com/xiebiao/bookshop/internal/domain/invoice"
	"github.com/xiebiao/bookshop/internal/domain/promotion"
	"github.com/xiebiao/bookshop/internal/infrastructure/events"
	"github.com/xiebiao/bookshop/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/bookshop/pkg/metrics"
	"github.com/xiebiao/bookshop/pkg/tracing"
)

const tracerName = "bookshop/application/invoice"

// CreateInvoiceUseCase 开票
//
// 与下单共用库存账本：一个事务内锁定扣减库存、核销促销码、写入发票。
// 发票开出即成交，不会再归还库存。
type CreateInvoiceUseCase struct {
	invoiceRepo invoice.Repository
	ledger      *inventory.Ledger
	promotions  promotion.Service
	txManager   *mysql.TxManager
	publisher   events.Publisher
	logger      *zap.Logger
}

func NewCreateInvoiceUseCase(
	invoiceRepo invoice.Repository,
	ledger *inventory.Ledger,
	promotions promotion.Service,
	txManager *mysql.TxManager,
	publisher events.Publisher,
	logger *zap.Logger,
) *CreateInvoiceUseCase {
	return &CreateInvoiceUseCase{
		invoiceRepo: invoiceRepo,
		ledger:      ledger,
		promotions:  promotions,
		txManager:   txManager,
		publisher:   publisher,
		logger:      logger,
	}
}

// CreateInvoiceRequest 开票请求
type CreateInvoiceRequest struct {
	StaffID       uint
	CustomerName  string
	CustomerPhone string
	PromotionCode string
	Items         []CreateInvoiceItem
}

// CreateInvoiceItem 开票明细
type CreateInvoiceItem struct {
	BookID   uint
	Quantity int
}

func (req CreateInvoiceRequest) validate() error {
	if req.StaffID == 0 {
		return invoice.ErrMissingStaff
	}
	if len(req.Items) == 0 {
		return inventory.ErrEmptyLines
	}
	for _, item := range req.Items {
		if item.BookID == 0 {
			return inventory.ErrMissingBookID
		}
		if item.Quantity <= 0 {
			return inventory.ErrInvalidQuantity.WithField("book_id", item.BookID)
		}
	}
	return nil
}

func (uc *CreateInvoiceUseCase) Execute(ctx context.Context, req CreateInvoiceRequest) (_ *InvoiceView, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "CreateInvoice")
	defer func() { tracing.EndSpan(span, err) }()

	if err := req.validate(); err != nil {
		return nil, err
	}

	lines := make([]inventory.Line, len(req.Items))
	for i, item := range req.Items {
		lines[i] = inventory.Line{BookID: item.BookID, Quantity: item.Quantity}
	}

	var created *invoice.Invoice
	err = uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		locked, err := uc.ledger.Reserve(txCtx, lines)
		if err != nil {
			return err
		}
		prices := make(map[uint]int64, len(locked))
		for _, b := range locked {
			prices[b.ID] = b.Price
		}

		items := make([]invoice.InvoiceItem, len(req.Items))
		for i, item := range req.Items {
			items[i] = invoice.InvoiceItem{BookID: item.BookID, Quantity: item.Quantity, Price: prices[item.BookID]}
		}
		inv := invoice.NewInvoice(req.StaffID, strings.TrimSpace(req.CustomerName), strings.TrimSpace(req.CustomerPhone), items)

		if strings.TrimSpace(req.PromotionCode) != "" {
			quote, err := uc.promotions.Consume(txCtx, req.PromotionCode, inv.Subtotal)
			if err != nil {
				return err
			}
			promotionID := quote.PromotionID
			inv.PromotionID = &promotionID
			inv.PromotionCode = quote.Code
			inv.ApplyDiscount(quote.DiscountAmount)
		}

		if err := uc.invoiceRepo.Create(txCtx, inv); err != nil {
			return err
		}
		created = inv
		return nil
	})
	if err != nil {
		uc.logger.Info("开票失败", zap.Uint("staff_id", req.StaffID), zap.Error(err))
		return nil, err
	}

	metrics.IncInvoiceCreated()
	if created.PromotionID != nil {
		metrics.IncPromotionConsumed()
	}
	uc.logger.Info("发票已开具",
		zap.Uint("invoice_id", created.ID),
		zap.String("invoice_no", created.InvoiceNo),
		zap.Uint("staff_id", created.StaffID),
		zap.Int64("total", created.Total))
	uc.publisher.Publish(ctx, events.New(events.InvoiceCreated, events.InvoicePayload{
		InvoiceID: created.ID,
		InvoiceNo: created.InvoiceNo,
		StaffID:   created.StaffID,
		Total:     created.Total,
	}))
	return toView(created), nil
}
