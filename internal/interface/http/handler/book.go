package handler

import (
	"github.com/gin-gonic/gin"

	appbook "github.com/xiebiao/bookshop/internal/application/book"
	"github.com/xiebiao/bookshop/internal/interface/http/dto"
	"github.com/xiebiao/bookshop/internal/interface/http/middleware"
	"github.com/xiebiao/bookshop/pkg/response"
)

// BookHandler 商品目录
type BookHandler struct {
	publishUseCase     *appbook.PublishBookUseCase
	getUseCase         *appbook.GetBookUseCase
	listUseCase        *appbook.ListBooksUseCase
	adjustStockUseCase *appbook.AdjustStockUseCase
}

func NewBookHandler(
	publishUseCase *appbook.PublishBookUseCase,
	getUseCase *appbook.GetBookUseCase,
	listUseCase *appbook.ListBooksUseCase,
	adjustStockUseCase *appbook.AdjustStockUseCase,
) *BookHandler {
	return &BookHandler{
		publishUseCase:     publishUseCase,
		getUseCase:         getUseCase,
		listUseCase:        listUseCase,
		adjustStockUseCase: adjustStockUseCase,
	}
}

// PublishBook 图书上架
// @Summary      图书上架
// @Tags         图书
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.PublishBookRequest true "图书信息"
// @Success      201 {object} response.Response{data=appbook.BookView}
// @Failure      400 {object} response.Response "参数错误"
// @Failure      403 {object} response.Response "需要店员权限"
// @Failure      409 {object} response.Response "ISBN已存在"
// @Router       /books [post]
func (h *BookHandler) PublishBook(c *gin.Context) {
	var req dto.PublishBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.publishUseCase.Execute(c.Request.Context(), appbook.PublishBookRequest{
		ISBN:        req.ISBN,
		Title:       req.Title,
		Author:      req.Author,
		Publisher:   req.Publisher,
		Price:       req.Price,
		Stock:       req.Stock,
		CoverURL:    req.CoverURL,
		Description: req.Description,
		PublisherID: middleware.CurrentActor(c).UserID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// GetBook 图书详情
// @Summary      图书详情
// @Tags         图书
// @Produce      json
// @Param        id path int true "图书ID"
// @Success      200 {object} response.Response{data=appbook.BookView}
// @Failure      404 {object} response.Response "图书不存在"
// @Router       /books/{id} [get]
func (h *BookHandler) GetBook(c *gin.Context) {
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

// ListBooks 图书列表
// @Summary      图书列表
// @Tags         图书
// @Produce      json
// @Param        page      query int    false "页码"
// @Param        page_size query int    false "每页数量"
// @Param        keyword   query string false "标题/作者/出版社"
// @Param        sort_by   query string false "price_asc|price_desc|created_at_desc"
// @Success      200 {object} response.Response{data=response.PageData{list=[]appbook.BookListItem}}
// @Router       /books [get]
func (h *BookHandler) ListBooks(c *gin.Context) {
	var req dto.ListBooksRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.listUseCase.Execute(c.Request.Context(), appbook.ListBooksRequest{
		Page:     req.Page,
		PageSize: req.PageSize,
		Keyword:  req.Keyword,
		SortBy:   req.SortBy,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPage(c, result.List, result.Total, result.Page, result.PageSize)
}

// AdjustStock 补货/盘点
// @Summary      调整库存
// @Tags         图书
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int                    true "图书ID"
// @Param        request body dto.AdjustStockRequest true "增减数量"
// @Success      200 {object} response.Response{data=appbook.AdjustStockResponse}
// @Failure      409 {object} response.Response "库存不足"
// @Router       /books/{id}/stock [patch]
func (h *BookHandler) AdjustStock(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.adjustStockUseCase.Execute(c.Request.Context(), appbook.AdjustStockRequest{
		BookID:     id,
		Delta:      req.Delta,
		OperatorID: middleware.CurrentActor(c).UserID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
