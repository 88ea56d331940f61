package utils

import (
	"strconv"

	"MoirServer/consts"

	"google.golang.org/grpc/status"
)

// ExtractErrorCode 提取业务错误码
// 服务层约定：gRPC status message 为业务码字符串；普通 error 的文本也可以是业务码
func ExtractErrorCode(err error) int32 {
	if err == nil {
		return consts.CodeSuccess
	}

	if st, ok := status.FromError(err); ok {
		if bizCode, parseErr := strconv.Atoi(st.Message()); parseErr == nil {
			return int32(bizCode)
		}
		return consts.CodeInternalError
	}

	if bizCode, parseErr := strconv.Atoi(err.Error()); parseErr == nil {
		return int32(bizCode)
	}
	return consts.CodeInternalError
}
