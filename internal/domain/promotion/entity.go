package promotion

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DiscountType 优惠类型
type DiscountType string

const (
	DiscountPercent DiscountType = "percent" // 按比例，Discount为百分数（10表示九折）
	DiscountFixed   DiscountType = "fixed"   // 立减，Discount为金额（分）
)

// Valid 是否为已知类型
func (t DiscountType) Valid() bool {
	return t == DiscountPercent || t == DiscountFixed
}

var hundred = decimal.NewFromInt(100)

// Promotion 促销码
//
// StartDate/EndDate只取日期部分，区间两端都包含：
// EndDate当天的23:59:59仍然有效。
type Promotion struct {
	ID           uint
	Code         string
	Name         string
	DiscountType DiscountType
	Discount     decimal.Decimal
	StartDate    time.Time
	EndDate      time.Time
	MinPrice     *int64 // 最低消费（分），nil表示不限
	Quantity     *int   // 可用次数，nil表示不限
	UsedQuantity int
	BookIDs      []uint // 参与促销的图书，同一本书不能同时处于两个时间段重叠的促销中
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Quote 促销计算结果
type Quote struct {
	PromotionID    uint   `json:"promotion_id"`
	Code           string `json:"code"`
	Amount         int64  `json:"amount"`
	DiscountAmount int64  `json:"discount_amount"`
	FinalAmount    int64  `json:"final_amount"`
}

// EvalOptions 计算选项
type EvalOptions struct {
	// ClampFixed 立减金额超过订单金额时，优惠以订单金额为上限（实付为0）
	ClampFixed bool
	// Location 判断"当天"使用的时区，nil使用time.Local
	Location *time.Location
}

// Evaluate 校验促销码在now时刻对amount是否可用，并计算优惠
//
// 校验顺序：生效时间 → 过期 → 次数 → 最低消费。
func (p *Promotion) Evaluate(now time.Time, amount int64, opts EvalOptions) (Quote, error) {
	if amount < 0 {
		return Quote{}, ErrInvalidAmount
	}

	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	if now.Before(dayStart(p.StartDate, loc)) {
		return Quote{}, ErrNotYetActive.WithField("start_date", formatDate(p.StartDate))
	}
	if !now.Before(dayStart(p.EndDate, loc).AddDate(0, 0, 1)) {
		return Quote{}, ErrExpired.WithField("end_date", formatDate(p.EndDate))
	}
	if p.Exhausted() {
		return Quote{}, ErrQuotaExhausted.WithField("quantity", *p.Quantity)
	}
	if p.MinPrice != nil && amount < *p.MinPrice {
		return Quote{}, ErrBelowMinimum.
			WithField("min_price", *p.MinPrice).
			WithField("amount", amount)
	}

	discount := p.DiscountFor(amount, opts.ClampFixed)
	return Quote{
		PromotionID:    p.ID,
		Code:           p.Code,
		Amount:         amount,
		DiscountAmount: discount,
		FinalAmount:    amount - discount,
	}, nil
}

// DiscountFor 计算优惠金额（分）
//
// percent: round(amount × discount / 100)，四舍五入（远离0方向）
// fixed:   discount，clamp为true时不超过amount
func (p *Promotion) DiscountFor(amount int64, clamp bool) int64 {
	switch p.DiscountType {
	case DiscountPercent:
		return decimal.NewFromInt(amount).Mul(p.Discount).Div(hundred).Round(0).IntPart()
	case DiscountFixed:
		d := p.Discount.Round(0).IntPart()
		if clamp && d > amount {
			return amount
		}
		return d
	default:
		return 0
	}
}

// Exhausted 次数是否用完
func (p *Promotion) Exhausted() bool {
	return p.Quantity != nil && p.UsedQuantity >= *p.Quantity
}

// Overlaps 与[start, end]日期区间是否重叠（两端包含）
func (p *Promotion) Overlaps(start, end time.Time) bool {
	return !dateOnly(p.StartDate).After(dateOnly(end)) && !dateOnly(p.EndDate).Before(dateOnly(start))
}

// Normalize 规范化：去掉code两端空白并转大写，日期截断为当天，图书ID去重排序
func (p *Promotion) Normalize() {
	p.Code = NormalizeCode(p.Code)
	p.Name = strings.TrimSpace(p.Name)
	p.StartDate = dateOnly(p.StartDate)
	p.EndDate = dateOnly(p.EndDate)
	p.BookIDs = uniqueIDs(p.BookIDs)
}

// Validate 校验促销定义
func (p *Promotion) Validate() error {
	switch {
	case p.Code == "":
		return ErrInvalidPromotion.WithMessage("促销码不能为空")
	case !p.DiscountType.Valid():
		return ErrInvalidPromotion.WithMessage("优惠类型必须是percent或fixed")
	case !p.Discount.IsPositive():
		return ErrInvalidPromotion.WithMessage("优惠力度必须大于0")
	case p.DiscountType == DiscountPercent && p.Discount.GreaterThan(hundred):
		return ErrInvalidPromotion.WithMessage("折扣比例不能超过100")
	case p.DiscountType == DiscountFixed && !p.Discount.IsInteger():
		return ErrInvalidPromotion.WithMessage("立减金额必须是整数（分）")
	case p.StartDate.IsZero() || p.EndDate.IsZero():
		return ErrInvalidPromotion.WithMessage("开始和结束日期不能为空")
	case dateOnly(p.StartDate).After(dateOnly(p.EndDate)):
		return ErrInvalidPromotion.WithMessage("开始日期不能晚于结束日期")
	case p.MinPrice != nil && *p.MinPrice < 0:
		return ErrInvalidPromotion.WithMessage("最低消费不能为负数")
	case p.Quantity != nil && *p.Quantity < 0:
		return ErrInvalidPromotion.WithMessage("可用次数不能为负数")
	case p.Quantity != nil && *p.Quantity < p.UsedQuantity:
		return ErrQuotaBelowUsage
	}
	for _, id := range p.BookIDs {
		if id == 0 {
			return ErrInvalidPromotion.WithMessage("图书ID不能为0")
		}
	}
	return nil
}

// dayStart t所在日期（按t自身的年月日）在loc中的0点
func dayStart(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// dateOnly 截断为UTC日期，用于日期之间的比较
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func formatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}

func uniqueIDs(ids []uint) []uint {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
