package element

import "math"

// TrafficState 表示一条有向边的实时交通状态
// 每条边一个实例，由模拟器在初始化时创建并在整个生命周期内原地修改
type TrafficState struct {
	Level          CongestionLevel // 当前拥堵等级
	Incident       IncidentType    // 当前活跃的事件（无事件时为 IncidentNone）
	SpeedFactor    float64         // 速度系数，范围 [0,1]
	CapacityFactor float64         // 容量系数，范围 [0,1]
	IncidentEnds   float64         // 事件预计解除的逻辑时间（无事件时为 0）
	Description    string          // 当前事件的文字描述
}

// NewTrafficState 创建一个默认状态（畅通、无事件）
func NewTrafficState() TrafficState {
	s := TrafficState{}
	s.Reset()
	return s
}

// Reset 恢复为默认状态
func (s *TrafficState) Reset() {
	s.Level = FreeFlow
	s.Incident = IncidentNone
	s.IncidentEnds = 0
	s.Description = ""
	s.RecomputeFactors()
}

// RecomputeFactors 根据拥堵等级和当前事件重新计算速度/容量系数
// 先取等级的基准系数，再乘以事件的影响系数
func (s *TrafficState) RecomputeFactors() {
	s.SpeedFactor, s.CapacityFactor = s.Level.Factors()
	if s.Incident != IncidentNone {
		si, ci := s.Incident.ImpactFactors()
		s.SpeedFactor *= si
		s.CapacityFactor *= ci
	}
}

// BeginIncident 在该边上开始一个事件
// duration 为事件持续时间（模拟分钟），now 为当前逻辑时间
func (s *TrafficState) BeginIncident(t IncidentType, now, duration float64) {
	s.Incident = t
	s.IncidentEnds = now + duration
	s.Description = t.Description()
	s.RecomputeFactors()
}

// ClearIncident 解除当前事件，系数退回到仅由拥堵等级决定的基线
func (s *TrafficState) ClearIncident() {
	s.Incident = IncidentNone
	s.IncidentEnds = 0
	s.Description = ""
	s.RecomputeFactors()
}

// IsBlocked 道路是否完全不可通行
// 不变式: SpeedFactor == 0 或紧急封闭事件 ⇒ 封闭
func (s *TrafficState) IsBlocked() bool {
	return s.SpeedFactor == 0 || s.Incident == EmergencyClosure
}

// TravelTimeMultiplier 返回通行时间乘数
// 封闭道路返回 +Inf，否则为速度系数的倒数
func (s *TrafficState) TravelTimeMultiplier() float64 {
	if s.IsBlocked() {
		return math.Inf(1)
	}
	return 1 / s.SpeedFactor
}

// DurationRemaining 返回事件剩余持续时间，无事件或已过期时为 0
func (s *TrafficState) DurationRemaining(now float64) float64 {
	if s.Incident == IncidentNone || s.IncidentEnds <= now {
		return 0
	}
	return s.IncidentEnds - now
}
