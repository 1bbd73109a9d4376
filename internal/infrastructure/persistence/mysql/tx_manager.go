package mysql

import (
	"context"

	"gorm.io/gorm"
)

// txKey context中保存事务句柄的键
type txKey struct{}

// TxManager 事务管理器
//
// fn内所有仓储调用都从ctx取出同一个*gorm.DB，组成一个工作单元；
// fn返回error时ROLLBACK，返回nil时COMMIT。嵌套调用由GORM使用Savepoint。
//
//	err := txManager.Transaction(ctx, func(ctx context.Context) error {
//	    books, err := ledger.Reserve(ctx, lines)
//	    if err != nil {
//	        return err
//	    }
//	    return orderRepo.Create(ctx, o)
//	})
type TxManager struct {
	db *gorm.DB
}

// NewTxManager 创建事务管理器
func NewTxManager(db *gorm.DB) *TxManager {
	return &TxManager{db: db}
}

// Transaction 在事务中执行fn
func (m *TxManager) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return dbFrom(ctx, m.db).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// dbFrom ctx中有事务时返回事务DB，否则返回带ctx的db
func dbFrom(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return db.WithContext(ctx)
}
