package book

import (
	"context"
)

// Repository 图书仓储接口
// 设计说明：
// 1. 所有方法都接收ctx，实现从ctx中取出事务句柄（TxManager注入），
//    同一个ctx上的调用属于同一个工作单元
// 2. LockByID/UpdateStock只应由inventory.Ledger调用
type Repository interface {
	Create(ctx context.Context, book *Book) error

	FindByID(ctx context.Context, id uint) (*Book, error)

	FindByISBN(ctx context.Context, isbn string) (*Book, error)

	// Update 更新描述与价格，不修改库存
	Update(ctx context.Context, book *Book) error

	List(ctx context.Context, params ListParams) ([]*Book, int64, error)

	// LockByID 悲观锁查询（SELECT ... FOR UPDATE），必须在事务中调用
	LockByID(ctx context.Context, id uint) (*Book, error)

	// UpdateStock 原子增减库存（WHERE stock + delta >= 0）
	// 图书不存在返回ErrBookNotFound，扣减后为负返回ErrInsufficientStock
	UpdateStock(ctx context.Context, id uint, delta int) error
}

// ListParams 列表查询参数
type ListParams struct {
	Page     int    // 页码(从1开始)
	PageSize int    // 每页数量
	Keyword  string // 搜索标题、作者、出版社
	SortBy   string // price_asc, price_desc, created_at_desc
}
