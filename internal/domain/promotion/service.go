package promotion

import (
	"context"
	"strings"
	"time"
)

// Service 促销校验服务
type Service interface {
	// Check 只读查询：促销码能否用于amount，不修改使用次数
	Check(ctx context.Context, code string, amount int64) (Quote, error)

	// Consume 锁定促销行、重新校验并把使用次数+1
	// 必须在下单/开票的同一个事务ctx中调用，事务回滚时使用次数一起回滚
	Consume(ctx context.Context, code string, amount int64) (Quote, error)

	// FindConflictingItems 返回bookIDs中与其他促销时间段冲突的图书
	FindConflictingItems(ctx context.Context, bookIDs []uint, start, end time.Time, excludeID uint) ([]uint, error)
}

// Options 服务选项
type Options struct {
	ClampFixed bool
	Location   *time.Location
	Now        func() time.Time // 测试中注入固定时间
}

type service struct {
	repo Repository
	opts Options
}

// NewService 创建促销服务
func NewService(repo Repository, opts Options) Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &service{repo: repo, opts: opts}
}

func (s *service) evalOptions() EvalOptions {
	return EvalOptions{ClampFixed: s.opts.ClampFixed, Location: s.opts.Location}
}

func (s *service) Check(ctx context.Context, code string, amount int64) (Quote, error) {
	p, err := s.repo.FindByCode(ctx, NormalizeCode(code))
	if err != nil {
		return Quote{}, err
	}
	return p.Evaluate(s.opts.Now(), amount, s.evalOptions())
}

func (s *service) Consume(ctx context.Context, code string, amount int64) (Quote, error) {
	p, err := s.repo.LockByCode(ctx, NormalizeCode(code))
	if err != nil {
		return Quote{}, err
	}

	quote, err := p.Evaluate(s.opts.Now(), amount, s.evalOptions())
	if err != nil {
		return Quote{}, err
	}

	if err := s.repo.IncrementUsage(ctx, p.ID); err != nil {
		return Quote{}, err
	}
	return quote, nil
}

func (s *service) FindConflictingItems(ctx context.Context, bookIDs []uint, start, end time.Time, excludeID uint) ([]uint, error) {
	ids := uniqueIDs(bookIDs)
	if len(ids) == 0 {
		return nil, nil
	}
	return s.repo.FindConflictingBookIDs(ctx, ids, dateOnly(start), dateOnly(end), excludeID)
}

// NormalizeCode 促销码统一为去空白的大写形式
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
