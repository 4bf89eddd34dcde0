package element

import "fmt"

// IncidentType 表示道路上的一种临时扰动事件
type IncidentType int

const (
	IncidentNone     IncidentType = iota // 无事件
	MinorAccident                        // 轻微事故
	Breakdown                            // 车辆抛锚
	MajorAccident                        // 重大事故
	Construction                         // 道路施工
	EmergencyClosure                     // 紧急封闭
	WeatherClosure                       // 恶劣天气封闭
	SpecialEvent                         // 大型活动
)

// MinIncidentDuration 事件持续时间的下限（模拟分钟）
const MinIncidentDuration = 5.0

// incidentSpec 每种事件类型的固定参数
// speedImpact/capacityImpact 为 0 表示道路完全封闭
type incidentSpec struct {
	name           string
	speedImpact    float64
	capacityImpact float64
	meanDuration   float64 // 平均持续时间（模拟分钟）
	description    string
}

var incidentSpecs = [...]incidentSpec{
	IncidentNone:     {"None", 1.0, 1.0, 0, ""},
	MinorAccident:    {"MinorAccident", 0.6, 0.7, 20, "Minor accident, one lane affected"},
	Breakdown:        {"Breakdown", 0.7, 0.8, 15, "Vehicle breakdown on shoulder"},
	MajorAccident:    {"MajorAccident", 0.3, 0.4, 60, "Major accident, multiple lanes closed"},
	Construction:     {"Construction", 0.5, 0.6, 240, "Road construction in progress"},
	EmergencyClosure: {"EmergencyClosure", 0, 0, 90, "Road closed by emergency services"},
	WeatherClosure:   {"WeatherClosure", 0, 0, 120, "Road closed due to severe weather"},
	SpecialEvent:     {"SpecialEvent", 0.4, 0.5, 180, "Special event traffic control"},
}

// String 返回事件类型的名称
func (t IncidentType) String() string {
	if t < IncidentNone || t > SpecialEvent {
		return "Unknown"
	}
	return incidentSpecs[t].name
}

// ImpactFactors 返回事件对速度和容量的影响系数
// 影响系数与拥堵等级的基准系数相乘得到最终系数
func (t IncidentType) ImpactFactors() (speed, capacity float64) {
	if t < IncidentNone || t > SpecialEvent {
		panic("invalid incident type")
	}
	return incidentSpecs[t].speedImpact, incidentSpecs[t].capacityImpact
}

// MeanDuration 返回事件的平均持续时间（模拟分钟）
func (t IncidentType) MeanDuration() float64 {
	if t < IncidentNone || t > SpecialEvent {
		panic("invalid incident type")
	}
	return incidentSpecs[t].meanDuration
}

// Description 返回事件的文字描述
func (t IncidentType) Description() string {
	return incidentSpecs[t].description
}

// Blocking 事件是否导致道路完全封闭
func (t IncidentType) Blocking() bool {
	return t != IncidentNone && incidentSpecs[t].speedImpact == 0
}

// SampleIncidentType 按固定的累积概率分布抽取事件类型
// u 为 [0,1) 上的均匀随机数
// 分布: MinorAccident 0-0.4, Breakdown 0.4-0.6, MajorAccident 0.6-0.75,
// Construction 0.75-0.85, EmergencyClosure 0.85-0.95, WeatherClosure 0.95-0.98,
// SpecialEvent 0.98-1.0
func SampleIncidentType(u float64) IncidentType {
	switch {
	case u < 0.4:
		return MinorAccident
	case u < 0.6:
		return Breakdown
	case u < 0.75:
		return MajorAccident
	case u < 0.85:
		return Construction
	case u < 0.95:
		return EmergencyClosure
	case u < 0.98:
		return WeatherClosure
	default:
		return SpecialEvent
	}
}

// ParseIncidentType 将配置文件中的事件类型名称解析为 IncidentType
func ParseIncidentType(name string) (IncidentType, error) {
	for t := MinorAccident; t <= SpecialEvent; t++ {
		if incidentSpecs[t].name == name {
			return t, nil
		}
	}
	return IncidentNone, fmt.Errorf("unknown incident type: %q", name)
}
