package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/bookshop/internal/domain/invoice"
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
)

type invoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository 创建发票仓储
func NewInvoiceRepository(db *gorm.DB) invoice.Repository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	items := make([]InvoiceItemModel, len(inv.Items))
	for i, item := range inv.Items {
		items[i] = InvoiceItemModel{BookID: item.BookID, Quantity: item.Quantity, Price: item.Price}
	}
	model := &InvoiceModel{
		InvoiceNo:     inv.InvoiceNo,
		StaffID:       inv.StaffID,
		CustomerName:  inv.CustomerName,
		CustomerPhone: inv.CustomerPhone,
		Subtotal:      inv.Subtotal,
		Discount:      inv.Discount,
		Total:         inv.Total,
		PromotionID:   inv.PromotionID,
		PromotionCode: inv.PromotionCode,
		Items:         items,
		CreatedAt:     inv.CreatedAt,
	}

	if err := dbFrom(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return apperrors.Conflict(apperrors.ErrCodeDuplicateEntry, "发票号重复")
		}
		return apperrors.Wrap(err, "创建发票失败")
	}

	inv.ID = model.ID
	inv.CreatedAt = model.CreatedAt
	for i := range inv.Items {
		inv.Items[i].ID = model.Items[i].ID
		inv.Items[i].InvoiceID = model.ID
	}
	return nil
}

func (r *invoiceRepository) FindByID(ctx context.Context, id uint) (*invoice.Invoice, error) {
	var model InvoiceModel
	if err := dbFrom(ctx, r.db).Preload("Items").First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invoice.ErrInvoiceNotFound
		}
		return nil, apperrors.Wrap(err, "查询发票失败")
	}
	return toInvoiceEntity(&model), nil
}

func (r *invoiceRepository) List(ctx context.Context, params invoice.ListParams) ([]*invoice.Invoice, int64, error) {
	var (
		models []InvoiceModel
		total  int64
	)

	query := dbFrom(ctx, r.db).Model(&InvoiceModel{})
	if params.StaffID != 0 {
		query = query.Where("staff_id = ?", params.StaffID)
	}
	if params.From != nil {
		query = query.Where("created_at >= ?", *params.From)
	}
	if params.To != nil {
		query = query.Where("created_at < ?", *params.To)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询发票总数失败")
	}

	offset, limit := normalizePage(params.Page, params.PageSize)
	err := query.Preload("Items").
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&models).Error
	if err != nil {
		return nil, 0, apperrors.Wrap(err, "查询发票列表失败")
	}

	list := make([]*invoice.Invoice, len(models))
	for i := range models {
		list[i] = toInvoiceEntity(&models[i])
	}
	return list, total, nil
}

func toInvoiceEntity(model *InvoiceModel) *invoice.Invoice {
	items := make([]invoice.InvoiceItem, len(model.Items))
	for i, item := range model.Items {
		items[i] = invoice.InvoiceItem{
			ID:        item.ID,
			InvoiceID: item.InvoiceID,
			BookID:    item.BookID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		}
	}
	return &invoice.Invoice{
		ID:            model.ID,
		InvoiceNo:     model.InvoiceNo,
		StaffID:       model.StaffID,
		CustomerName:  model.CustomerName,
		CustomerPhone: model.CustomerPhone,
		Subtotal:      model.Subtotal,
		Discount:      model.Discount,
		Total:         model.Total,
		PromotionID:   model.PromotionID,
		PromotionCode: model.PromotionCode,
		Items:         items,
		CreatedAt:     model.CreatedAt,
	}
}
