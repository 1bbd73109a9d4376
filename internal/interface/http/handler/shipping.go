package handler

import (
	"github.com/gin-gonic/gin"

	appshipping "github.com/xiebiao/bookshop/internal/application/shipping"
	"github.com/xiebiao/bookshop/pkg/response"
)

// ShippingHandler 配送方式
type ShippingHandler struct {
	listUseCase *appshipping.ListMethodsUseCase
}

func NewShippingHandler(listUseCase *appshipping.ListMethodsUseCase) *ShippingHandler {
	return &ShippingHandler{listUseCase: listUseCase}
}

// ListMethods 可用配送方式
// @Summary      配送方式
// @Tags         配送
// @Produce      json
// @Success      200 {object} response.Response{data=[]appshipping.MethodView}
// @Router       /shipping-methods [get]
func (h *ShippingHandler) ListMethods(c *gin.Context) {
	result, err := h.listUseCase.Execute(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
