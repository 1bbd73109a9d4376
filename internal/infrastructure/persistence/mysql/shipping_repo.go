package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/bookshop/internal/domain/shipping"
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
)

type shippingRepository struct {
	db *gorm.DB
}

// NewShippingRepository 创建配送方式仓储
func NewShippingRepository(db *gorm.DB) shipping.Repository {
	return &shippingRepository{db: db}
}

func (r *shippingRepository) FindByID(ctx context.Context, id uint) (*shipping.Method, error) {
	var model ShippingMethodModel
	err := dbFrom(ctx, r.db).Where("id = ? AND active = ?", id, true).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shipping.ErrMethodNotFound.WithField("shipping_method_id", id)
		}
		return nil, apperrors.Wrap(err, "查询配送方式失败")
	}
	return toShippingMethod(&model), nil
}

func (r *shippingRepository) ListActive(ctx context.Context) ([]*shipping.Method, error) {
	var models []ShippingMethodModel
	if err := dbFrom(ctx, r.db).Where("active = ?", true).Order("fee, id").Find(&models).Error; err != nil {
		return nil, apperrors.Wrap(err, "查询配送方式失败")
	}
	methods := make([]*shipping.Method, len(models))
	for i := range models {
		methods[i] = toShippingMethod(&models[i])
	}
	return methods, nil
}

func toShippingMethod(model *ShippingMethodModel) *shipping.Method {
	return &shipping.Method{
		ID:     model.ID,
		Name:   model.Name,
		Fee:    model.Fee,
		Active: model.Active,
	}
}
