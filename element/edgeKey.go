package element

import "fmt"

// EdgeKey 唯一标识一条有向边，独立于图的存储方式
// 使用结构化键而非打包的整数，节点ID与gonum图的int64 ID一致
type EdgeKey struct {
	From int64
	To   int64
}

// String 返回 "from->to" 形式的字符串
func (k EdgeKey) String() string {
	return fmt.Sprintf("%d->%d", k.From, k.To)
}

// Less 按 (From, To) 字典序比较，用于确定性的边遍历顺序
func (k EdgeKey) Less(o EdgeKey) bool {
	if k.From != o.From {
		return k.From < o.From
	}
	return k.To < o.To
}
