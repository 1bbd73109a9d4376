// Package inventory 库存账本
//
// 线上订单、门店发票、订单取消和员工补货都通过Ledger修改图书库存，
// 保证所有路径使用同一套加锁顺序和校验规则。
package inventory

import (
	"context"
	"sort"

	"github.com/xiebiao/bookshop/internal/domain/book"
)

// Line 一条库存变动明细
type Line struct {
	BookID   uint
	Quantity int
}

// Ledger 库存账本
//
// Reserve/Release/Adjust都必须在TxManager.Transaction的ctx中调用：
// 行锁一直持有到事务提交或回滚。
type Ledger struct {
	books book.Repository
}

// NewLedger 创建库存账本
func NewLedger(books book.Repository) *Ledger {
	return &Ledger{books: books}
}

// Reserve 锁定并扣减库存
//
// 流程：
//  1. 校验明细，合并同一本书的多行
//  2. 按图书ID升序逐行 SELECT ... FOR UPDATE（固定加锁顺序，避免两个多行订单互相死锁）
//  3. 所有行都检查通过后才开始扣减；任何一行不足直接返回，不产生任何扣减
//  4. 逐行执行带条件的UPDATE（stock + delta >= 0）
//
// 返回锁定时的图书快照（Stock为扣减后的值，Price用于冻结订单单价）。
func (l *Ledger) Reserve(ctx context.Context, lines []Line) ([]*book.Book, error) {
	ids, qty, err := merge(lines)
	if err != nil {
		return nil, err
	}

	locked := make([]*book.Book, 0, len(ids))
	for _, id := range ids {
		b, err := l.books.LockByID(ctx, id)
		if err != nil {
			return nil, withBookID(err, id)
		}
		if !b.CanFulfil(qty[id]) {
			return nil, shortage(b, qty[id])
		}
		locked = append(locked, b)
	}

	for _, b := range locked {
		if err := l.books.UpdateStock(ctx, b.ID, -qty[b.ID]); err != nil {
			return nil, withBookID(err, b.ID)
		}
		b.Stock -= qty[b.ID]
	}
	return locked, nil
}

// Release 归还库存（订单取消）
func (l *Ledger) Release(ctx context.Context, lines []Line) error {
	ids, qty, err := merge(lines)
	if err != nil {
		return err
	}

	for _, id := range ids {
		if _, err := l.books.LockByID(ctx, id); err != nil {
			return withBookID(err, id)
		}
		if err := l.books.UpdateStock(ctx, id, qty[id]); err != nil {
			return withBookID(err, id)
		}
	}
	return nil
}

// Adjust 单本图书库存增减（员工补货/盘点），返回调整后的库存
func (l *Ledger) Adjust(ctx context.Context, bookID uint, delta int) (int, error) {
	if bookID == 0 {
		return 0, ErrMissingBookID
	}

	b, err := l.books.LockByID(ctx, bookID)
	if err != nil {
		return 0, withBookID(err, bookID)
	}
	if delta == 0 {
		return b.Stock, nil
	}
	if b.Stock+delta < 0 {
		return 0, shortage(b, -delta)
	}

	if err := l.books.UpdateStock(ctx, bookID, delta); err != nil {
		return 0, withBookID(err, bookID)
	}
	return b.Stock + delta, nil
}

// merge 校验并合并明细，返回升序的图书ID和每本书的总数量
func merge(lines []Line) ([]uint, map[uint]int, error) {
	if len(lines) == 0 {
		return nil, nil, ErrEmptyLines
	}

	qty := make(map[uint]int, len(lines))
	for _, line := range lines {
		if line.BookID == 0 {
			return nil, nil, ErrMissingBookID
		}
		if line.Quantity <= 0 {
			return nil, nil, ErrInvalidQuantity.WithField("book_id", line.BookID)
		}
		qty[line.BookID] += line.Quantity
	}

	ids := make([]uint, 0, len(qty))
	for id := range qty {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, qty, nil
}

func shortage(b *book.Book, requested int) error {
	return book.ErrInsufficientStock.
		WithMessage("《"+b.Title+"》库存不足").
		WithField("book_id", b.ID).
		WithField("title", b.Title).
		WithField("available", b.Stock).
		WithField("requested", requested)
}
