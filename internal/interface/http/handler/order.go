package handler

import (
	"github.com/gin-gonic/gin"

	apporder "github.com/xiebiao/bookshop/internal/application/order"
	"github.com/xiebiao/bookshop/internal/interface/http/dto"
	"github.com/xiebiao/bookshop/internal/interface/http/middleware"
	"github.com/xiebiao/bookshop/pkg/response"
)

// HeaderIdempotencyKey 下单幂等键
const HeaderIdempotencyKey = "Idempotency-Key"

// OrderUseCases 订单相关用例
type OrderUseCases struct {
	Create   *apporder.CreateOrderUseCase
	Cancel   *apporder.CancelOrderUseCase
	Confirm  *apporder.ConfirmOrderUseCase
	Assign   *apporder.AssignShipperUseCase
	Complete *apporder.CompleteOrderUseCase
	Get      *apporder.GetOrderUseCase
	List     *apporder.ListOrdersUseCase
}

// OrderHandler 订单
type OrderHandler struct {
	uc OrderUseCases
}

func NewOrderHandler(uc OrderUseCases) *OrderHandler {
	return &OrderHandler{uc: uc}
}

// CreateOrder 下单
// @Summary      下单
// @Description  锁定并扣减库存、核销促销码、创建订单在同一个事务中完成。
// @Description  携带Idempotency-Key时，重复请求返回第一次创建的订单。
// @Tags         订单
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key header string                 false "幂等键"
// @Param        request         body   dto.CreateOrderRequest true  "订单信息"
// @Success      201 {object} response.Response{data=apporder.OrderView}
// @Success      200 {object} response.Response{data=apporder.OrderView} "幂等重放"
// @Failure      400 {object} response.Response "参数错误/促销码不可用"
// @Failure      404 {object} response.Response "图书或配送方式不存在"
// @Failure      409 {object} response.Response "库存不足/促销次数已用完"
// @Router       /orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	items := make([]apporder.CreateOrderItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = apporder.CreateOrderItem{BookID: item.BookID, Quantity: item.Quantity}
	}

	result, err := h.uc.Create.Execute(c.Request.Context(), apporder.CreateOrderRequest{
		UserID:           middleware.CurrentActor(c).UserID,
		ShippingMethodID: req.ShippingMethodID,
		ShippingAddress:  req.ShippingAddress,
		PromotionCode:    req.PromotionCode,
		IdempotencyKey:   c.GetHeader(HeaderIdempotencyKey),
		Items:            items,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	if result.Replayed {
		response.Success(c, result)
		return
	}
	response.Created(c, result)
}

// GetOrder 订单详情
// @Summary      订单详情
// @Tags         订单
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "订单ID"
// @Success      200 {object} response.Response{data=apporder.OrderView}
// @Failure      403 {object} response.Response "不是自己的订单"
// @Failure      404 {object} response.Response "订单不存在"
// @Router       /orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.uc.Get.Execute(c.Request.Context(), id, middleware.CurrentActor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// GetOrderByNo 按订单号查询
// @Summary      按订单号查询订单
// @Tags         订单
// @Produce      json
// @Security     BearerAuth
// @Param        order_no path string true "订单号"
// @Success      200 {object} response.Response{data=apporder.OrderView}
// @Failure      403 {object} response.Response "不是自己的订单"
// @Failure      404 {object} response.Response "订单不存在"
// @Router       /orders/no/{order_no} [get]
func (h *OrderHandler) GetOrderByNo(c *gin.Context) {
	result, err := h.uc.Get.ExecuteByNo(c.Request.Context(), c.Param("order_no"), middleware.CurrentActor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ListOrders 订单列表
// @Summary      订单列表
// @Description  顾客只能看到自己的订单，店员可以查看全部并按用户过滤
// @Tags         订单
// @Produce      json
// @Security     BearerAuth
// @Param        status    query string false "pending|confirmed|delivering|delivered|cancelled"
// @Param        user_id   query int    false "用户ID（店员）"
// @Param        page      query int    false "页码"
// @Param        page_size query int    false "每页数量"
// @Success      200 {object} response.Response{data=response.PageData{list=[]apporder.OrderView}}
// @Router       /orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	var req dto.ListOrdersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.uc.List.Execute(c.Request.Context(), apporder.ListOrdersRequest{
		Actor:    middleware.CurrentActor(c),
		UserID:   req.UserID,
		Status:   req.Status,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPage(c, result.Orders, result.Total, result.Page, result.PageSize)
}

// CancelOrder 取消订单
// @Summary      取消订单
// @Description  未送达的订单归还库存；已送达的订单只改状态；重复取消直接返回成功
// @Tags         订单
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "订单ID"
// @Success      200 {object} response.Response{data=apporder.CancelOrderResponse}
// @Failure      403 {object} response.Response "不是自己的订单"
// @Failure      404 {object} response.Response "订单不存在"
// @Router       /orders/{id}/cancel [patch]
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.uc.Cancel.Execute(c.Request.Context(), apporder.CancelOrderRequest{
		OrderID: id,
		Actor:   middleware.CurrentActor(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ConfirmOrder 确认订单
// @Summary      确认订单
// @Tags         订单
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "订单ID"
// @Success      200 {object} response.Response{data=apporder.StatusResponse}
// @Failure      409 {object} response.Response "状态不允许"
// @Router       /orders/{id}/confirm [patch]
func (h *OrderHandler) ConfirmOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.uc.Confirm.Execute(c.Request.Context(), id, middleware.CurrentActor(c).UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// AssignShipper 指派配送员
// @Summary      指派配送员
// @Description  已确认或配送中的订单可以指派，重新指派覆盖原记录
// @Tags         订单
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int                      true "订单ID"
// @Param        request body dto.AssignShipperRequest true "配送员"
// @Success      200 {object} response.Response{data=apporder.StatusResponse}
// @Failure      409 {object} response.Response "状态不允许"
// @Router       /orders/{id}/assign-shipper [post]
func (h *OrderHandler) AssignShipper(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.AssignShipperRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.uc.Assign.Execute(c.Request.Context(), apporder.AssignShipperRequest{
		OrderID:    id,
		ShipperID:  req.ShipperID,
		AssignerID: middleware.CurrentActor(c).UserID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// CompleteOrder 确认送达
// @Summary      确认送达
// @Tags         订单
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "订单ID"
// @Success      200 {object} response.Response{data=apporder.StatusResponse}
// @Failure      409 {object} response.Response "状态不允许"
// @Router       /orders/{id}/complete [patch]
func (h *OrderHandler) CompleteOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.uc.Complete.Execute(c.Request.Context(), id, middleware.CurrentActor(c).UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
