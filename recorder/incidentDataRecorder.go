package recorder

import (
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
)

var (
	incidentDataCache [][]string = make([][]string, 0)
	incidentDataMutex sync.Mutex
	incidentRecordIdx int64 // 递增的唯一索引
)

// RecordIncidentData 缓存一行事件生命周期数据
// event 为事件类型名称，解除时为 "Resolved"（此时 duration 无意义，记 0）
func RecordIncidentData(simTime float64, from, to int64, event string, duration float64) {
	idx := atomic.AddInt64(&incidentRecordIdx, 1)
	row := []string{
		strconv.FormatInt(idx, 10),       // 记录索引
		fmt.Sprintf("%.2f", simTime),     // 逻辑时间（模拟分钟）
		strconv.FormatInt(from, 10),      // 边的起点ID
		strconv.FormatInt(to, 10),        // 边的终点ID
		event,                            // 事件类型或 Resolved
		fmt.Sprintf("%.2f", duration),    // 持续时间（模拟分钟）
	}

	incidentDataMutex.Lock()
	defer incidentDataMutex.Unlock()
	incidentDataCache = append(incidentDataCache, row)
}

// InitIncidentDataCSV 初始化事件数据文件
func InitIncidentDataCSV(filename string) {
	header := []string{
		"Index", "SimTime", "From", "To", "Event", "Duration",
	}
	initializeCSV(filename, header)
}

// WriteToIncidentDataCSV 将缓存的事件数据落盘并清空缓存
func WriteToIncidentDataCSV(filename string) {
	incidentDataMutex.Lock()
	defer incidentDataMutex.Unlock()
	if len(incidentDataCache) == 0 {
		return
	}
	appendToCSV(filename, incidentDataCache)
	incidentDataCache = make([][]string, 0)
}
