package order

import (
	"context"

	"github.com/xiebiao/bookshop/internal/domain/order"
	"github.com/xiebiao/bookshop/internal/domain/user"
)

// GetOrderUseCase 订单详情
type GetOrderUseCase struct {
	orderRepo order.Repository
}

func NewGetOrderUseCase(orderRepo order.Repository) *GetOrderUseCase {
	return &GetOrderUseCase{orderRepo: orderRepo}
}

// Execute 顾客只能查看自己的订单
func (uc *GetOrderUseCase) Execute(ctx context.Context, orderID uint, actor user.Actor) (*OrderView, error) {
	o, err := uc.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(o.UserID) {
		return nil, order.ErrNotOwner
	}
	return toView(o), nil
}

// ExecuteByNo 按订单号查询，权限规则同Execute
func (uc *GetOrderUseCase) ExecuteByNo(ctx context.Context, orderNo string, actor user.Actor) (*OrderView, error) {
	if orderNo == "" {
		return nil, order.ErrOrderNotFound
	}
	o, err := uc.orderRepo.FindByOrderNo(ctx, orderNo)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(o.UserID) {
		return nil, order.ErrNotOwner
	}
	return toView(o), nil
}

// ListOrdersUseCase 订单列表
type ListOrdersUseCase struct {
	orderRepo order.Repository
}

func NewListOrdersUseCase(orderRepo order.Repository) *ListOrdersUseCase {
	return &ListOrdersUseCase{orderRepo: orderRepo}
}

// ListOrdersRequest 列表请求
type ListOrdersRequest struct {
	Actor    user.Actor
	UserID   uint   // 员工可按用户过滤；顾客忽略此字段
	Status   string // 状态编码，空表示全部
	Page     int
	PageSize int
}

// ListOrdersResponse 分页结果
type ListOrdersResponse struct {
	Orders   []*OrderView `json:"orders"`
	Total    int64        `json:"total"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
}

func (uc *ListOrdersUseCase) Execute(ctx context.Context, req ListOrdersRequest) (*ListOrdersResponse, error) {
	params := order.ListParams{Page: req.Page, PageSize: req.PageSize}
	if req.Actor.IsStaff() {
		params.UserID = req.UserID
	} else {
		params.UserID = req.Actor.UserID
	}
	if req.Status != "" {
		status, ok := order.ParseStatus(req.Status)
		if !ok {
			return nil, order.ErrInvalidStatus.WithField("status", req.Status)
		}
		params.Status = status
	}

	orders, total, err := uc.orderRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}

	views := make([]*OrderView, len(orders))
	for i, o := range orders {
		views[i] = toView(o)
	}
	page, pageSize := params.Page, params.PageSize
	if page <= 0 {
		page = 1
	}
	switch {
	case pageSize <= 0:
		pageSize = 20
	case pageSize > 100:
		pageSize = 100
	}
	return &ListOrdersResponse{Orders: views, Total: total, Page: page, PageSize: pageSize}, nil
}
