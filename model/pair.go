package model

// NewPairKey 返回无序用户对的规范顺序 (low, high)。
// 好友申请与单聊都以该顺序落库，配合唯一索引保证同一对用户只有一条记录。
func NewPairKey(a, b string) (low, high string) {
	if a <= b {
		return a, b
	}
	return b, a
}

// DirectKey 单聊唯一键：{low}:{high}。
func DirectKey(a, b string) string {
	low, high := NewPairKey(a, b)
	return low + ":" + high
}

// OtherParticipant 返回一对用户中除 self 之外的另一方。
// self 不属于该用户对时返回空串。
func OtherParticipant(first, second, self string) string {
	switch self {
	case first:
		return second
	case second:
		return first
	default:
		return ""
	}
}
