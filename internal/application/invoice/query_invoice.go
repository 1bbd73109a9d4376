package invoice

import (
	"context"
	"time"

	"github.com/xiebiao/bookshop/internal/domain/invoice"
)

// GetInvoiceUseCase 发票详情
type GetInvoiceUseCase struct {
	invoiceRepo invoice.Repository
}

func NewGetInvoiceUseCase(invoiceRepo invoice.Repository) *GetInvoiceUseCase {
	return &GetInvoiceUseCase{invoiceRepo: invoiceRepo}
}

func (uc *GetInvoiceUseCase) Execute(ctx context.Context, id uint) (*InvoiceView, error) {
	inv, err := uc.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toView(inv), nil
}

// ListInvoicesUseCase 发票列表
type ListInvoicesUseCase struct {
	invoiceRepo invoice.Repository
}

func NewListInvoicesUseCase(invoiceRepo invoice.Repository) *ListInvoicesUseCase {
	return &ListInvoicesUseCase{invoiceRepo: invoiceRepo}
}

// ListInvoicesRequest From/To为日期区间（两端包含）
type ListInvoicesRequest struct {
	StaffID  uint
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

// ListInvoicesResponse 分页结果
type ListInvoicesResponse struct {
	Invoices []*InvoiceView `json:"invoices"`
	Total    int64          `json:"total"`
}

func (uc *ListInvoicesUseCase) Execute(ctx context.Context, req ListInvoicesRequest) (*ListInvoicesResponse, error) {
	params := invoice.ListParams{
		StaffID:  req.StaffID,
		From:     req.From,
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	if req.To != nil {
		// 仓储的上限不含，转换为次日0点
		to := time.Date(req.To.Year(), req.To.Month(), req.To.Day(), 0, 0, 0, 0, req.To.Location()).AddDate(0, 0, 1)
		params.To = &to
	}

	invoices, total, err := uc.invoiceRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}
	views := make([]*InvoiceView, len(invoices))
	for i, inv := range invoices {
		views[i] = toView(inv)
	}
	return &ListInvoicesResponse{Invoices: views, Total: total}, nil
}
