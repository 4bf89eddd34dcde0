package recorder

import (
	"fmt"
	"strconv"
	"sync"
)

var (
	networkDataCache [][]string = make([][]string, 0)
	networkDataMutex sync.Mutex
)

// RecordNetworkData 缓存一行路网整体状态数据
func RecordNetworkData(simTime, averageCongestion float64, activeIncidents, blockedRoads int,
	totalIncidents, eventsProcessed uint64) {
	row := []string{
		fmt.Sprintf("%.2f", simTime),           // 逻辑时间（模拟分钟）
		fmt.Sprintf("%.4f", averageCongestion), // 平均拥堵等级
		strconv.Itoa(activeIncidents),          // 活跃事件数
		strconv.Itoa(blockedRoads),             // 封闭道路数
		strconv.FormatUint(totalIncidents, 10), // 累计事件数
		strconv.FormatUint(eventsProcessed, 10), // 已执行事件数
	}

	networkDataMutex.Lock()
	defer networkDataMutex.Unlock()
	networkDataCache = append(networkDataCache, row)
}

// InitNetworkDataCSV 初始化路网状态数据文件
func InitNetworkDataCSV(filename string) {
	header := []string{
		"SimTime", "AvgCongestion", "ActiveIncidents", "BlockedRoads", "TotalIncidents", "EventsProcessed",
	}
	initializeCSV(filename, header)
}

// WriteToNetworkDataCSV 将缓存的路网状态数据落盘并清空缓存
func WriteToNetworkDataCSV(filename string) {
	networkDataMutex.Lock()
	defer networkDataMutex.Unlock()
	if len(networkDataCache) == 0 {
		return
	}
	appendToCSV(filename, networkDataCache)
	networkDataCache = make([][]string, 0)
}
