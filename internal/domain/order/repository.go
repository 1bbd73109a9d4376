package order

import (
	"context"
	"time"
)

// Repository 订单仓储接口
type Repository interface {
	// Create 保存订单及明细，回填ID
	Create(ctx context.Context, order *Order) error

	// FindByID 查询订单（含明细）
	FindByID(ctx context.Context, id uint) (*Order, error)

	// LockByID 加行锁查询订单（含明细），必须在事务中调用
	LockByID(ctx context.Context, id uint) (*Order, error)

	FindByOrderNo(ctx context.Context, orderNo string) (*Order, error)

	// UpdateStatus 只更新状态和更新时间
	UpdateStatus(ctx context.Context, order *Order) error

	List(ctx context.Context, params ListParams) ([]*Order, int64, error)

	// SaveAssignment 按order_id插入或覆盖指派记录
	SaveAssignment(ctx context.Context, a *Assignment) error

	// CompleteAssignment 设置送达时间
	CompleteAssignment(ctx context.Context, orderID uint, at time.Time) error

	FindAssignment(ctx context.Context, orderID uint) (*Assignment, error)
}

// ListParams 订单列表查询参数
type ListParams struct {
	UserID   uint        // 0表示所有用户（员工查询）
	Status   OrderStatus // 0表示不过滤
	Page     int
	PageSize int
}
