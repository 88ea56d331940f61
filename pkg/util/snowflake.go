package util

import (
	"strconv"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node     *snowflake.Node
	nodeOnce sync.Once
	nodeMu   sync.RWMutex
)

// InitSnowflake 初始化雪花算法节点，nodeID 取值 0~1023，多实例部署时必须互不相同。
func InitSnowflake(nodeID int64) error {
	n, err := snowflake.NewNode(nodeID)
	if err != nil {
		return err
	}
	nodeMu.Lock()
	node = n
	nodeMu.Unlock()
	return nil
}

// NextID 生成全局唯一 int64 ID。
// 未显式初始化时使用节点 1，保证单测与工具进程可直接使用。
func NextID() int64 {
	nodeMu.RLock()
	n := node
	nodeMu.RUnlock()
	if n == nil {
		nodeOnce.Do(func() {
			_ = InitSnowflake(1)
		})
		nodeMu.RLock()
		n = node
		nodeMu.RUnlock()
	}
	return n.Generate().Int64()
}

// GenIDString 生成字符串形式的雪花 ID。
func GenIDString() string {
	return strconv.FormatInt(NextID(), 10)
}
