package invoice

import (
	"context"
	"time"

	apperrors "github.com/xiebiao/bookshop/pkg/errors"
)

var (
	ErrInvoiceNotFound = apperrors.NotFound(apperrors.ErrCodeInvoiceNotFound, "发票不存在")

	ErrMissingStaff = apperrors.Validation(apperrors.ErrCodeMissingStaff, "缺少开票员工")
)

// Repository 发票仓储接口
type Repository interface {
	// Create 保存发票及明细
	Create(ctx context.Context, inv *Invoice) error

	// FindByID 查询发票（含明细）
	FindByID(ctx context.Context, id uint) (*Invoice, error)

	List(ctx context.Context, params ListParams) ([]*Invoice, int64, error)
}

// ListParams 列表查询参数
type ListParams struct {
	StaffID  uint       // 0表示全部
	From     *time.Time // 开票时间下限（含）
	To       *time.Time // 开票时间上限（不含）
	Page     int
	PageSize int
}
