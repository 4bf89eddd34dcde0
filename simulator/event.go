package simulator

import "graphDES/element"

// EventKind 事件类型的封闭枚举
// 队列的执行循环按类型分发，不使用动态派发
type EventKind int

const (
	EventTrafficUpdate      EventKind = iota // 周期性交通状态更新
	EventIncidentResolution                  // 事件解除
	EventCustom                              // 外部自定义事件
)

var eventKindNames = [...]string{"TrafficUpdate", "IncidentResolution", "Custom"}

// String 返回事件类型的名称
func (k EventKind) String() string {
	if k < EventTrafficUpdate || k > EventCustom {
		return "Unknown"
	}
	return eventKindNames[k]
}

// Event 带时间戳的一次性工作单元
// 入队后 Time 和 Seq 不再改变；周期性检查由每轮新建的事件实例延续，
// 而不是复用同一个事件对象
type Event struct {
	Time     float64         // 计划执行的逻辑时间（模拟分钟）
	Seq      uint64          // 入队序号，由队列分配，用于同时刻事件的稳定排序
	Priority int             // 同一时刻的执行优先级，数值小者先执行
	Kind     EventKind       // 事件类型
	Edge     element.EdgeKey // 交通事件作用的边（仅 TrafficUpdate/IncidentResolution）
	Fn       func(now float64) // 自定义事件的回调（仅 EventCustom）
}

// EventHandler 由队列的所有者提供，用于分发交通事件
// 事件本身不持有指向模拟器的指针
type EventHandler interface {
	HandleTrafficUpdate(edge element.EdgeKey, now float64)
	HandleIncidentResolution(edge element.EdgeKey, now float64)
}
