package element

// CongestionLevel 表示一条道路的离散拥堵等级
// 等级只能逐级变化，每个更新周期最多变化一级
type CongestionLevel int

const (
	FreeFlow CongestionLevel = iota // 畅通
	Light                           // 轻度拥堵
	Moderate                        // 中度拥堵
	Heavy                           // 重度拥堵
	Gridlock                        // 瘫痪
)

var congestionNames = [...]string{"FreeFlow", "Light", "Moderate", "Heavy", "Gridlock"}

// levelFactors 每个拥堵等级对应的基准 (速度系数, 容量系数)
var levelFactors = [...][2]float64{
	FreeFlow: {1.0, 1.0},
	Light:    {0.85, 0.9},
	Moderate: {0.6, 0.7},
	Heavy:    {0.3, 0.4},
	Gridlock: {0.05, 0.1},
}

// String 返回拥堵等级的名称
func (l CongestionLevel) String() string {
	if l < FreeFlow || l > Gridlock {
		return "Unknown"
	}
	return congestionNames[l]
}

// Factors 返回该拥堵等级对应的速度系数和容量系数
// 系数完全由等级决定，是固定查找表
func (l CongestionLevel) Factors() (speed, capacity float64) {
	if l < FreeFlow || l > Gridlock {
		panic("invalid congestion level")
	}
	return levelFactors[l][0], levelFactors[l][1]
}

// Increase 拥堵加重一级，在 Gridlock 处饱和
func (l CongestionLevel) Increase() CongestionLevel {
	if l >= Gridlock {
		return Gridlock
	}
	return l + 1
}

// Decrease 拥堵缓解一级，在 FreeFlow 处饱和
func (l CongestionLevel) Decrease() CongestionLevel {
	if l <= FreeFlow {
		return FreeFlow
	}
	return l - 1
}
