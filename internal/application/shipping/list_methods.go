// Package shipping 配送方式查询
package shipping

import (
	"context"

	"github.com/xiebiao/bookshop/internal/domain/shipping"
	"github.com/xiebiao/bookshop/pkg/money"
)

// MethodView 配送方式
type MethodView struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	Fee     int64  `json:"fee"`
	FeeYuan string `json:"fee_yuan"`
}

// ListMethodsUseCase 可用配送方式（按运费升序）
type ListMethodsUseCase struct {
	repo shipping.Repository
}

func NewListMethodsUseCase(repo shipping.Repository) *ListMethodsUseCase {
	return &ListMethodsUseCase{repo: repo}
}

func (uc *ListMethodsUseCase) Execute(ctx context.Context) ([]MethodView, error) {
	methods, err := uc.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]MethodView, len(methods))
	for i, m := range methods {
		views[i] = MethodView{ID: m.ID, Name: m.Name, Fee: m.Fee, FeeYuan: money.Yuan(m.Fee)}
	}
	return views, nil
}
