// Package handler HTTP处理器：解析请求、调用用例、写响应，不含业务逻辑
package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/xiebiao/bookshop/pkg/errors"
	"github.com/xiebiao/bookshop/pkg/response"
)

// bindError 参数绑定/校验失败
func bindError(c *gin.Context, err error) {
	response.Error(c, apperrors.ErrBindError.WithMessage("参数错误: "+err.Error()))
}

// pathID 解析路径参数中的正整数ID
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		response.Error(c, apperrors.ErrInvalidParams.WithMessage("ID格式不正确").WithField(name, c.Param(name)))
		return 0, false
	}
	return uint(id), true
}

// parseDate 解析2006-01-02，空字符串返回nil
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, time.Local)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
