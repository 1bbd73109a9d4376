// Package shipping 配送方式（只读）
package shipping

import (
	"context"

	apperrors "github.com/xiebiao/bookshop/pkg/errors"
)

// Method 配送方式
type Method struct {
	ID     uint
	Name   string
	Fee    int64 // 运费（分）
	Active bool
}

var ErrMethodNotFound = apperrors.NotFound(apperrors.ErrCodeShippingNotFound, "配送方式不存在")

// Repository 配送方式仓储
type Repository interface {
	// FindByID 查询配送方式，停用的方式同样返回ErrMethodNotFound
	FindByID(ctx context.Context, id uint) (*Method, error)

	ListActive(ctx context.Context) ([]*Method, error)
}

// FeeFor 订单运费：methodID为0表示自提，运费为0
func FeeFor(ctx context.Context, repo Repository, methodID uint) (int64, error) {
	if methodID == 0 {
		return 0, nil
	}
	m, err := repo.FindByID(ctx, methodID)
	if err != nil {
		return 0, err
	}
	return m.Fee, nil
}
