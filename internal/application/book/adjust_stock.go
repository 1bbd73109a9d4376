package book

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/xiebiao/bookshop/internal/domain/book"
	"github.com/xiebiao/bookshop/internal/domain/inventory"
	"github.com/xiebiao/bookshop/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/bookshop/pkg/metrics"
)

// AdjustStockUseCase 员工补货/盘点
type AdjustStockUseCase struct {
	ledger    *inventory.Ledger
	txManager *mysql.TxManager
	logger    *zap.Logger
}

func NewAdjustStockUseCase(ledger *inventory.Ledger, txManager *mysql.TxManager, logger *zap.Logger) *AdjustStockUseCase {
	return &AdjustStockUseCase{ledger: ledger, txManager: txManager, logger: logger}
}

// AdjustStockRequest Delta为正表示入库，为负表示出库
type AdjustStockRequest struct {
	BookID     uint
	Delta      int
	OperatorID uint
}

// AdjustStockResponse 调整结果
type AdjustStockResponse struct {
	BookID uint `json:"book_id"`
	Stock  int  `json:"stock"`
}

func (uc *AdjustStockUseCase) Execute(ctx context.Context, req AdjustStockRequest) (*AdjustStockResponse, error) {
	var stock int
	err := uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		var err error
		stock, err = uc.ledger.Adjust(txCtx, req.BookID, req.Delta)
		return err
	})
	if err != nil {
		if errors.Is(err, book.ErrInsufficientStock) {
			metrics.IncStockConflict("adjust")
		}
		return nil, err
	}

	uc.logger.Info("库存已调整",
		zap.Uint("book_id", req.BookID),
		zap.Int("delta", req.Delta),
		zap.Int("stock", stock),
		zap.Uint("operator_id", req.OperatorID))
	return &AdjustStockResponse{BookID: req.BookID, Stock: stock}, nil
}
