package promotion

import (
	"context"
	"time"
)

// Repository 促销仓储接口
type Repository interface {
	// Create 保存促销及其图书关联
	Create(ctx context.Context, p *Promotion) error

	// Update 更新促销并整体替换图书关联
	// 新的quantity小于库中used_quantity时返回ErrQuotaBelowUsage
	Update(ctx context.Context, p *Promotion) error

	FindByID(ctx context.Context, id uint) (*Promotion, error)

	FindByCode(ctx context.Context, code string) (*Promotion, error)

	// LockByID 加行锁查询，必须在事务中调用
	LockByID(ctx context.Context, id uint) (*Promotion, error)

	// LockByCode 加行锁查询，必须在事务中调用
	LockByCode(ctx context.Context, code string) (*Promotion, error)

	// IncrementUsage 使用次数+1（WHERE quantity IS NULL OR used_quantity < quantity）
	// 次数已满返回ErrQuotaExhausted
	IncrementUsage(ctx context.Context, id uint) error

	// FindConflictingBookIDs 返回bookIDs中已属于其他促销、且该促销区间与[start, end]重叠的图书ID
	// excludeID非0时排除该促销自身（更新场景）
	FindConflictingBookIDs(ctx context.Context, bookIDs []uint, start, end time.Time, excludeID uint) ([]uint, error)

	List(ctx context.Context, params ListParams) ([]*Promotion, int64, error)
}

// ListParams 列表查询参数
type ListParams struct {
	Page     int
	PageSize int
	Keyword  string // 匹配code或名称
}
