package simulator

import "graphDES/element"

// Statistics 模拟过程的统计信息快照
// 计数器单调递增，平均拥堵和封闭道路数在读取时重新计算
// 仅用于观测，不参与正确性
type Statistics struct {
	TotalIncidents    uint64                            // 累计发生的事件数
	IncidentCounts    map[element.IncidentType]uint64   // 各类型事件的累计数
	LevelEntries      map[element.CongestionLevel]uint64 // 各拥堵等级被进入的累计次数
	AverageCongestion float64                           // 当前平均拥堵等级（序数均值）
	BlockedRoads      int                               // 当前封闭的道路数
	ActiveIncidents   int                               // 当前活跃的事件数
	EventsProcessed   uint64                            // 队列已执行的事件总数
}
