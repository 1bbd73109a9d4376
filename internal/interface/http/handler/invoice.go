package handler

import (
	"github.com/gin-gonic/gin"

	appinvoice "github.com/xiebiao/bookshop/internal/application/invoice"
	"github.com/xiebiao/bookshop/internal/interface/http/dto"
	"github.com/xiebiao/bookshop/internal/interface/http/middleware"
	"github.com/xiebiao/bookshop/pkg/response"
)

// InvoiceHandler 门店开票（店员）
type InvoiceHandler struct {
	createUseCase *appinvoice.CreateInvoiceUseCase
	getUseCase    *appinvoice.GetInvoiceUseCase
	listUseCase   *appinvoice.ListInvoicesUseCase
}

func NewInvoiceHandler(
	createUseCase *appinvoice.CreateInvoiceUseCase,
	getUseCase *appinvoice.GetInvoiceUseCase,
	listUseCase *appinvoice.ListInvoicesUseCase,
) *InvoiceHandler {
	return &InvoiceHandler{createUseCase: createUseCase, getUseCase: getUseCase, listUseCase: listUseCase}
}

// CreateInvoice 开票
// @Summary      开票
// @Description  与线上订单共用库存，开票即扣减，不可冲销
// @Tags         发票
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.CreateInvoiceRequest true "发票明细"
// @Success      201 {object} response.Response{data=appinvoice.InvoiceView}
// @Failure      409 {object} response.Response "库存不足"
// @Router       /invoices [post]
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	var req dto.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	items := make([]appinvoice.CreateInvoiceItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = appinvoice.CreateInvoiceItem{BookID: item.BookID, Quantity: item.Quantity}
	}
	result, err := h.createUseCase.Execute(c.Request.Context(), appinvoice.CreateInvoiceRequest{
		StaffID:       middleware.CurrentActor(c).UserID,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		PromotionCode: req.PromotionCode,
		Items:         items,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// GetInvoice 发票详情
// @Summary      发票详情
// @Tags         发票
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "发票ID"
// @Success      200 {object} response.Response{data=appinvoice.InvoiceView}
// @Failure      404 {object} response.Response "发票不存在"
// @Router       /invoices/{id} [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
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

// ListInvoices 发票列表
// @Summary      发票列表
// @Tags         发票
// @Produce      json
// @Security     BearerAuth
// @Param        staff_id  query int    false "开票员工"
// @Param        from      query string false "开始日期 2006-01-02"
// @Param        to        query string false "结束日期 2006-01-02（含）"
// @Param        page      query int    false "页码"
// @Param        page_size query int    false "每页数量"
// @Success      200 {object} response.Response{data=response.PageData{list=[]appinvoice.InvoiceView}}
// @Router       /invoices [get]
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	var req dto.ListInvoicesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}
	from, err := parseDate(req.From)
	if err != nil {
		bindError(c, err)
		return
	}
	to, err := parseDate(req.To)
	if err != nil {
		bindError(c, err)
		return
	}

	result, err := h.listUseCase.Execute(c.Request.Context(), appinvoice.ListInvoicesRequest{
		StaffID:  req.StaffID,
		From:     from,
		To:       to,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPage(c, result.Invoices, result.Total, req.Page, req.PageSize)
}
