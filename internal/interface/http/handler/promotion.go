package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	apppromotion "github.com/xiebiao/bookshop/internal/application/promotion"
	"github.com/xiebiao/bookshop/internal/domain/promotion"
	"github.com/xiebiao/bookshop/internal/interface/http/dto"
	"github.com/xiebiao/bookshop/pkg/response"
)

// PromotionHandler 促销码
type PromotionHandler struct {
	checkUseCase *apppromotion.CheckPromotionUseCase
	saveUseCase  *apppromotion.SavePromotionUseCase
	getUseCase   *apppromotion.GetPromotionUseCase
	listUseCase  *apppromotion.ListPromotionsUseCase
}

func NewPromotionHandler(
	checkUseCase *apppromotion.CheckPromotionUseCase,
	saveUseCase *apppromotion.SavePromotionUseCase,
	getUseCase *apppromotion.GetPromotionUseCase,
	listUseCase *apppromotion.ListPromotionsUseCase,
) *PromotionHandler {
	return &PromotionHandler{
		checkUseCase: checkUseCase,
		saveUseCase:  saveUseCase,
		getUseCase:   getUseCase,
		listUseCase:  listUseCase,
	}
}

// CheckPromotion 查询促销码可用性
// @Summary      查询促销码
// @Description  只计算优惠，不占用使用次数
// @Tags         促销
// @Produce      json
// @Param        code   query string true "促销码"
// @Param        amount query int    true "订单金额（分）"
// @Success      200 {object} response.Response{data=apppromotion.CheckResponse}
// @Failure      400 {object} response.Response "未开始/已过期/未达最低消费"
// @Failure      404 {object} response.Response "促销码不存在"
// @Failure      409 {object} response.Response "次数已用完"
// @Router       /promotions/check [get]
func (h *PromotionHandler) CheckPromotion(c *gin.Context) {
	var req dto.CheckPromotionRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}
	result, err := h.checkUseCase.Execute(c.Request.Context(), req.Code, *req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// CreatePromotion 创建促销
// @Summary      创建促销
// @Tags         促销
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.SavePromotionRequest true "促销定义"
// @Success      201 {object} response.Response{data=apppromotion.PromotionView}
// @Failure      409 {object} response.Response "促销码重复/图书已参与重叠的促销"
// @Router       /promotions [post]
func (h *PromotionHandler) CreatePromotion(c *gin.Context) {
	req, ok := bindPromotion(c)
	if !ok {
		return
	}
	result, err := h.saveUseCase.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// UpdatePromotion 更新促销
// @Summary      更新促销
// @Tags         促销
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int                      true "促销ID"
// @Param        request body dto.SavePromotionRequest true "促销定义"
// @Success      200 {object} response.Response{data=apppromotion.PromotionView}
// @Failure      409 {object} response.Response "图书已参与重叠的促销"
// @Router       /promotions/{id} [put]
func (h *PromotionHandler) UpdatePromotion(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	req, ok := bindPromotion(c)
	if !ok {
		return
	}
	result, err := h.saveUseCase.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// GetPromotion 促销详情
// @Summary      促销详情
// @Tags         促销
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "促销ID"
// @Success      200 {object} response.Response{data=apppromotion.PromotionView}
// @Router       /promotions/{id} [get]
func (h *PromotionHandler) GetPromotion(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.getUseCase.Execute(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ListPromotions 促销列表
// @Summary      促销列表
// @Tags         促销
// @Produce      json
// @Security     BearerAuth
// @Param        keyword   query string false "促销码或名称"
// @Param        page      query int    false "页码"
// @Param        page_size query int    false "每页数量"
// @Success      200 {object} response.Response{data=response.PageData{list=[]apppromotion.PromotionView}}
// @Router       /promotions [get]
func (h *PromotionHandler) ListPromotions(c *gin.Context) {
	var req dto.ListPromotionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}
	result, err := h.listUseCase.Execute(c.Request.Context(), promotion.ListParams{
		Page:     req.Page,
		PageSize: req.PageSize,
		Keyword:  req.Keyword,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPage(c, result.Promotions, result.Total, req.Page, req.PageSize)
}

func bindPromotion(c *gin.Context) (apppromotion.SavePromotionRequest, bool) {
	var req dto.SavePromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return apppromotion.SavePromotionRequest{}, false
	}
	// 格式已由datetime校验
	start, _ := time.Parse(time.DateOnly, req.StartDate)
	end, _ := time.Parse(time.DateOnly, req.EndDate)
	return apppromotion.SavePromotionRequest{
		Code:         req.Code,
		Name:         req.Name,
		DiscountType: req.DiscountType,
		Discount:     req.Discount,
		StartDate:    start,
		EndDate:      end,
		MinPrice:     req.MinPrice,
		Quantity:     req.Quantity,
		BookIDs:      req.BookIDs,
	}, true
}
