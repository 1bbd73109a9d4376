package mysql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/xiebiao/bookshop/internal/domain/promotion"
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
)

// promotionRepository 促销仓储实现
// 图书关联保存在promotion_books表，Create/Update时整体写入
type promotionRepository struct {
	db *gorm.DB
}

// NewPromotionRepository 创建促销仓储
func NewPromotionRepository(db *gorm.DB) promotion.Repository {
	return &promotionRepository{db: db}
}

func (r *promotionRepository) Create(ctx context.Context, p *promotion.Promotion) error {
	model := toPromotionModel(p)
	db := dbFrom(ctx, r.db)
	if err := db.Omit("Books").Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return promotion.ErrDuplicateCode.WithField("code", p.Code)
		}
		return apperrors.Wrap(err, "创建促销失败")
	}
	if err := r.replaceBooks(db, model.ID, p.BookIDs); err != nil {
		return err
	}

	p.ID = model.ID
	p.CreatedAt = model.CreatedAt
	p.UpdatedAt = model.UpdatedAt
	return nil
}

// Update 更新促销字段（不含used_quantity）并替换图书关联
// UPDATE ... WHERE id = ? AND (? IS NULL OR used_quantity <= ?)
func (r *promotionRepository) Update(ctx context.Context, p *promotion.Promotion) error {
	db := dbFrom(ctx, r.db)
	result := db.Model(&PromotionModel{ID: p.ID}).
		Where("? IS NULL OR used_quantity <= ?", p.Quantity, p.Quantity).
		Updates(map[string]any{
			"code":          p.Code,
			"name":          p.Name,
			"discount_type": string(p.DiscountType),
			"discount":      p.Discount,
			"start_date":    p.StartDate,
			"end_date":      p.EndDate,
			"min_price":     p.MinPrice,
			"quantity":      p.Quantity,
			"updated_at":    time.Now(),
		})
	if result.Error != nil {
		if isDuplicateError(result.Error) {
			return promotion.ErrDuplicateCode.WithField("code", p.Code)
		}
		return apperrors.Wrap(result.Error, "更新促销失败")
	}
	if result.RowsAffected == 0 {
		// 行不存在、quantity低于已使用次数，或者内容完全没有变化（MySQL影响行数为0）
		var model PromotionModel
		if err := db.Select("id", "used_quantity").First(&model, p.ID).Error; err != nil {
			return promotionQueryError(err)
		}
		if p.Quantity != nil && model.UsedQuantity > *p.Quantity {
			return promotion.ErrQuotaBelowUsage
		}
	}
	return r.replaceBooks(db, p.ID, p.BookIDs)
}

func (r *promotionRepository) replaceBooks(db *gorm.DB, promotionID uint, bookIDs []uint) error {
	if err := db.Where("promotion_id = ?", promotionID).Delete(&PromotionBookModel{}).Error; err != nil {
		return apperrors.Wrap(err, "删除促销图书失败")
	}
	if len(bookIDs) == 0 {
		return nil
	}
	rows := make([]PromotionBookModel, len(bookIDs))
	for i, id := range bookIDs {
		rows[i] = PromotionBookModel{PromotionID: promotionID, BookID: id}
	}
	if err := db.Create(&rows).Error; err != nil {
		return apperrors.Wrap(err, "保存促销图书失败")
	}
	return nil
}

func (r *promotionRepository) FindByID(ctx context.Context, id uint) (*promotion.Promotion, error) {
	var model PromotionModel
	if err := dbFrom(ctx, r.db).Preload("Books").First(&model, id).Error; err != nil {
		return nil, promotionQueryError(err)
	}
	return toPromotionEntity(&model), nil
}

func (r *promotionRepository) FindByCode(ctx context.Context, code string) (*promotion.Promotion, error) {
	var model PromotionModel
	if err := dbFrom(ctx, r.db).Preload("Books").Where("code = ?", code).First(&model).Error; err != nil {
		return nil, promotionQueryError(err)
	}
	return toPromotionEntity(&model), nil
}

func (r *promotionRepository) LockByID(ctx context.Context, id uint) (*promotion.Promotion, error) {
	return r.lock(ctx, "id = ?", id)
}

func (r *promotionRepository) LockByCode(ctx context.Context, code string) (*promotion.Promotion, error) {
	return r.lock(ctx, "code = ?", code)
}

// lock 先锁promotions行，再单独查询图书关联
func (r *promotionRepository) lock(ctx context.Context, cond string, arg any) (*promotion.Promotion, error) {
	var model PromotionModel
	if err := forUpdate(dbFrom(ctx, r.db)).Where(cond, arg).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, promotion.ErrPromotionNotFound
		}
		return nil, apperrors.Wrap(err, "锁定促销失败")
	}
	if err := dbFrom(ctx, r.db).Where("promotion_id = ?", model.ID).Find(&model.Books).Error; err != nil {
		return nil, apperrors.Wrap(err, "查询促销图书失败")
	}
	return toPromotionEntity(&model), nil
}

// IncrementUsage UPDATE promotions SET used_quantity = used_quantity + 1
// WHERE id = ? AND (quantity IS NULL OR used_quantity < quantity)
func (r *promotionRepository) IncrementUsage(ctx context.Context, id uint) error {
	db := dbFrom(ctx, r.db)
	result := db.Model(&PromotionModel{}).
		Where("id = ?", id).
		Where("quantity IS NULL OR used_quantity < quantity").
		Update("used_quantity", gorm.Expr("used_quantity + 1"))
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新促销使用次数失败")
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var model PromotionModel
	if err := db.Select("id").First(&model, id).Error; err != nil {
		return promotionQueryError(err)
	}
	return promotion.ErrQuotaExhausted
}

// FindConflictingBookIDs 区间重叠：existing.start <= end AND existing.end >= start
func (r *promotionRepository) FindConflictingBookIDs(ctx context.Context, bookIDs []uint, start, end time.Time, excludeID uint) ([]uint, error) {
	if len(bookIDs) == 0 {
		return nil, nil
	}

	query := dbFrom(ctx, r.db).
		Table("promotion_books AS pb").
		Joins("JOIN promotions AS p ON p.id = pb.promotion_id").
		Where("pb.book_id IN ?", bookIDs).
		Where("p.start_date <= ? AND p.end_date >= ?", end, start)
	if excludeID != 0 {
		query = query.Where("p.id <> ?", excludeID)
	}

	var ids []uint
	if err := query.Distinct().Order("pb.book_id").Pluck("pb.book_id", &ids).Error; err != nil {
		return nil, apperrors.Wrap(err, "查询促销冲突失败")
	}
	return ids, nil
}

func (r *promotionRepository) List(ctx context.Context, params promotion.ListParams) ([]*promotion.Promotion, int64, error) {
	var (
		models []PromotionModel
		total  int64
	)

	query := dbFrom(ctx, r.db).Model(&PromotionModel{})
	if params.Keyword != "" {
		keyword := "%" + params.Keyword + "%"
		query = query.Where("code LIKE ? OR name LIKE ?", keyword, keyword)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询促销总数失败")
	}

	offset, limit := normalizePage(params.Page, params.PageSize)
	err := query.Preload("Books").
		Order("start_date DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&models).Error
	if err != nil {
		return nil, 0, apperrors.Wrap(err, "查询促销列表失败")
	}

	list := make([]*promotion.Promotion, len(models))
	for i := range models {
		list[i] = toPromotionEntity(&models[i])
	}
	return list, total, nil
}

func promotionQueryError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return promotion.ErrPromotionNotFound
	}
	return apperrors.Wrap(err, "查询促销失败")
}

func toPromotionModel(p *promotion.Promotion) *PromotionModel {
	return &PromotionModel{
		ID:           p.ID,
		Code:         p.Code,
		Name:         p.Name,
		DiscountType: string(p.DiscountType),
		Discount:     p.Discount,
		StartDate:    p.StartDate,
		EndDate:      p.EndDate,
		MinPrice:     p.MinPrice,
		Quantity:     p.Quantity,
		UsedQuantity: p.UsedQuantity,
	}
}

func toPromotionEntity(model *PromotionModel) *promotion.Promotion {
	var bookIDs []uint
	for _, b := range model.Books {
		bookIDs = append(bookIDs, b.BookID)
	}
	p := &promotion.Promotion{
		ID:           model.ID,
		Code:         model.Code,
		Name:         model.Name,
		DiscountType: promotion.DiscountType(model.DiscountType),
		Discount:     model.Discount,
		StartDate:    model.StartDate,
		EndDate:      model.EndDate,
		MinPrice:     model.MinPrice,
		Quantity:     model.Quantity,
		UsedQuantity: model.UsedQuantity,
		BookIDs:      bookIDs,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
	p.Normalize()
	return p
}
