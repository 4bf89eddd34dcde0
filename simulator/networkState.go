package simulator

import (
	"fmt"
	"sync"

	"graphDES/log"
	"graphDES/recorder"
)

// NetworkState 缓存并管理路网整体状态信息
// 包括平均拥堵等级、活跃事件数、封闭道路数等关键指标
type NetworkState struct {
	averageCongestion float64
	activeIncidents   int
	blockedRoads      int
	totalIncidents    uint64
	eventsProcessed   uint64
	mu                sync.RWMutex // 保护并发访问
}

// NewNetworkState 创建一个新的路网状态对象
func NewNetworkState() *NetworkState {
	return &NetworkState{}
}

// Update 从模拟器中获取最新的统计信息
func (n *NetworkState) Update(sim *TrafficSimulation) {
	stats := sim.GetStatistics()

	n.mu.Lock()
	defer n.mu.Unlock()
	n.averageCongestion = stats.AverageCongestion
	n.activeIncidents = stats.ActiveIncidents
	n.blockedRoads = stats.BlockedRoads
	n.totalIncidents = stats.TotalIncidents
	n.eventsProcessed = stats.EventsProcessed
}

// RecordData 记录当前路网状态数据
// 将数据传递给recorder进行存储
func (n *NetworkState) RecordData(simTime float64) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	recorder.RecordNetworkData(simTime, n.averageCongestion, n.activeIncidents,
		n.blockedRoads, n.totalIncidents, n.eventsProcessed)
}

// LogStatus 输出路网状态日志
func (n *NetworkState) LogStatus(currentDay int, minuteOfDay float64) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	log.WriteLog(fmt.Sprintf("Day: %d, Time: %s, AvgCongestion: %.2f, ActiveIncidents: %d, Blocked: %d, TotalIncidents: %d, Events: %d",
		currentDay, log.ConvertSimTime(minuteOfDay), n.averageCongestion,
		n.activeIncidents, n.blockedRoads, n.totalIncidents, n.eventsProcessed))
}
