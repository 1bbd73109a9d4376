// Package saga 跨资源的多步操作：按顺序执行，某一步失败时逆序补偿已完成的步骤
//
// 数据库事务只能回滚MySQL里的修改，Redis中的幂等键等外部状态需要补偿：
//
//	s := saga.New("create-order", logger)
//	s.AddStep("reserve-key", reserve, release)
//	s.AddStep("create-order", create, nil)
//	err := s.Execute(ctx)
package saga

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Step 一个步骤，Compensate可以为nil
type Step struct {
	Name       string
	Action     func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// StepError 步骤失败，Unwrap返回原始错误
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("步骤[%s]执行失败: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Saga 不可并发使用，每次执行创建新的实例
type Saga struct {
	name     string
	steps    []Step
	executed []Step
	logger   *zap.Logger
}

func New(name string, logger *zap.Logger) *Saga {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Saga{name: name, logger: logger}
}

// AddStep 按添加顺序执行
func (s *Saga) AddStep(name string, action, compensate func(ctx context.Context) error) *Saga {
	s.steps = append(s.steps, Step{Name: name, Action: action, Compensate: compensate})
	return s
}

// Execute 依次执行各步骤
// 失败的步骤本身不补偿，只补偿在它之前已成功的步骤
func (s *Saga) Execute(ctx context.Context) error {
	for _, step := range s.steps {
		if err := ctx.Err(); err != nil {
			s.compensate(ctx)
			return &StepError{Step: step.Name, Err: err}
		}
		if step.Action != nil {
			if err := step.Action(ctx); err != nil {
				s.compensate(ctx)
				return &StepError{Step: step.Name, Err: err}
			}
		}
		s.executed = append(s.executed, step)
	}
	return nil
}

// compensate 补偿不受请求取消影响；某一步补偿失败只记录日志，继续补偿其余步骤
func (s *Saga) compensate(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	for i := len(s.executed) - 1; i >= 0; i-- {
		step := s.executed[i]
		if step.Compensate == nil {
			continue
		}
		if err := step.Compensate(ctx); err != nil {
			s.logger.Error("补偿失败",
				zap.String("saga", s.name),
				zap.String("step", step.Name),
				zap.Error(err))
		}
	}
	s.executed = nil
}
