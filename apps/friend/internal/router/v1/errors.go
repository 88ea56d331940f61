package v1

import (
	"MoirServer/apps/friend/internal/utils"
	"MoirServer/consts"
	"MoirServer/pkg/logger"
	"MoirServer/pkg/result"
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
)

// failWithError 将服务层错误转换为响应
// 业务错误透传错误码，其余按内部错误处理并记录日志
func failWithError(ctx context.Context, c *gin.Context, err error, msg string) {
	code := utils.ExtractErrorCode(err)
	if consts.IsNonServerError(code) {
		result.Fail(c, nil, code)
		return
	}

	logger.Error(ctx, msg, logger.ErrorField("error", err))
	result.Fail(c, nil, consts.CodeInternalError)
}

// parseIDParam 解析路径中的雪花 ID
func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
