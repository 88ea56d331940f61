package consts

// 通用错误码
const (
	CodeSuccess = 0 // 成功
)

// 客户端错误 (1xxxx)
const (
	CodeParamError       = 10001 // 参数验证失败
	CodeBodyError        = 10002 // 请求体格式错误
	CodeResourceNotFound = 10003 // 资源不存在
	CodeMethodNotAllowed = 10004 // 请求方法不允许
	CodeTooManyRequests  = 10005 // 请求过于频繁
	CodeBodyTooLarge     = 10006 // 请求体过大
)

// 认证错误 (2xxxx)
const (
	CodeUnauthorized   = 20001 // 未认证
	CodeInvalidToken   = 20002 // Token 无效
	CodeTokenExpired   = 20003 // Token 已过期
	CodePermissionDeny = 20004 // 权限不足
)

// 用户模块错误 (11xxx)
const (
	CodeUserNotFound = 11001 // 用户不存在
	CodeUserDisabled = 11004 // 用户已被禁用
)

// 好友模块错误 (12xxx)
const (
	CodeAlreadyFriend         = 12001 // 已经是好友
	CodeFriendRequestSent     = 12002 // 好友申请已发送
	CodeNotFriend             = 12003 // 不存在该好友关系
	CodeCannotAddSelf         = 12005 // 不能添加自己为好友
	CodeFriendRequestNotFound = 12006 // 好友申请不存在
	CodeApplyNotFoundOrHandle = 12007 // 好友申请已被处理
	CodeNoPermission          = 12008 // 无权处理该好友申请
	CodeTargetRequired        = 12009 // 缺少目标用户
)

// 会话模块错误 (13xxx)
const (
	CodeChatNotFound = 13004 // 会话不存在
)

// 通知模块错误 (15xxx)
const (
	CodeNotificationNotFound = 15001 // 通知不存在
)

// 服务端错误 (3xxxx)
const (
	CodeInternalError      = 30001 // 服务器内部错误
	CodeServiceUnavailable = 30002 // 服务暂不可用
	CodeTimeoutError       = 30003 // 请求超时
)

// 错误消息映射
var CodeMessage = map[int32]string{
	CodeSuccess: "success",

	// 客户端错误
	CodeParamError:       "参数验证失败",
	CodeBodyError:        "请求体格式错误",
	CodeResourceNotFound: "资源不存在",
	CodeMethodNotAllowed: "请求方法不允许",
	CodeTooManyRequests:  "请求过于频繁",
	CodeBodyTooLarge:     "请求体过大",

	// 认证错误
	CodeUnauthorized:   "未认证",
	CodeInvalidToken:   "Token 无效",
	CodeTokenExpired:   "Token 已过期",
	CodePermissionDeny: "权限不足",

	// 用户模块
	CodeUserNotFound: "用户不存在",
	CodeUserDisabled: "用户已被禁用",

	// 好友模块
	CodeAlreadyFriend:         "已经是好友",
	CodeFriendRequestSent:     "好友申请已发送",
	CodeNotFriend:             "不存在该好友关系",
	CodeCannotAddSelf:         "不能添加自己为好友",
	CodeFriendRequestNotFound: "好友申请不存在",
	CodeApplyNotFoundOrHandle: "好友申请已被处理",
	CodeNoPermission:          "无权处理该好友申请",
	CodeTargetRequired:        "请输入用户名或邮箱",

	// 会话模块
	CodeChatNotFound: "会话不存在",

	// 通知模块
	CodeNotificationNotFound: "通知不存在",

	// 服务端错误
	CodeInternalError:      "服务器内部错误",
	CodeServiceUnavailable: "服务暂不可用",
	CodeTimeoutError:       "请求超时",
}

// GetMessage 根据错误码获取错误消息
func GetMessage(code int32) string {
	if msg, ok := CodeMessage[code]; ok {
		return msg
	}
	return "未知错误"
}

// IsNonServerError 判断是否为客户端/业务错误（可直接透传给前端，无需记录错误日志）
func IsNonServerError(code int32) bool {
	return code != CodeSuccess && code < 30000
}
