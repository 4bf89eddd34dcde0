package config

import (
	"encoding/json"
	"os"
)

// Config 保存所有配置项的顶级结构
type Config struct {
	Simulation SimulationConfig   `json:"simulation"`
	Traffic    TrafficConfig      `json:"traffic"`
	Graph      GraphConfig        `json:"graph"`
	Path       PathConfig         `json:"path"`
	Logging    LoggingConfig      `json:"logging"`
	Query      QueryConfig        `json:"query"`
	Scenario   []ScenarioIncident `json:"scenario"`
}

// SimulationConfig 保存模拟运行相关的配置项
type SimulationConfig struct {
	Seed           uint64  `json:"seed"`           // 随机数种子，决定整次模拟的轨迹
	SimDay         int     `json:"simDay"`         // 模拟天数
	OneDayMinutes  float64 `json:"oneDayMinutes"`  // 一天的模拟分钟数
	UpdateInterval float64 `json:"updateInterval"` // 每条边交通更新的周期（模拟分钟）
	ProcessWindow  float64 `json:"processWindow"`  // 驱动循环每次推进的时间窗口（模拟分钟）
}

// TrafficConfig 保存交通状态机相关的配置项
// 所有概率都是每个更新周期的触发概率
type TrafficConfig struct {
	BaseCongestionRate  float64 `json:"baseCongestionRate"`  // 拥堵加重的基础概率
	CongestionDecayRate float64 `json:"congestionDecayRate"` // 拥堵缓解的概率
	IncidentBaseRate    float64 `json:"incidentBaseRate"`    // 事件发生的基础概率
	DurationSigmaRatio  float64 `json:"durationSigmaRatio"`  // 事件持续时间的标准差与均值之比
	MinIncidentDuration float64 `json:"minIncidentDuration"` // 事件持续时间下限（模拟分钟）
	WeatherFactor       float64 `json:"weatherFactor"`       // 天气系数，放大拥堵和事件概率
	RushHourMultiplier  float64 `json:"rushHourMultiplier"`  // 高峰时段的拥堵概率倍数
	MorningRushStart    int     `json:"morningRushStart"`    // 早高峰开始（小时）
	MorningRushEnd      int     `json:"morningRushEnd"`      // 早高峰结束（小时，不含）
	EveningRushStart    int     `json:"eveningRushStart"`    // 晚高峰开始（小时）
	EveningRushEnd      int     `json:"eveningRushEnd"`      // 晚高峰结束（小时，不含）
}

// GraphConfig 保存路网生成相关的配置项
type GraphConfig struct {
	// 路网类型: "grid" - 网格路网, "ring" - 带辐条的环形路网
	GraphType string `json:"graphType"`

	// 网格路网参数
	Grid struct {
		Rows int `json:"rows"`
		Cols int `json:"cols"`
	} `json:"grid"`

	// 环形路网参数
	Ring struct {
		NumNodes  int `json:"numNodes"`
		NumSpokes int `json:"numSpokes"`
	} `json:"ring"`

	// 边权重（基准通行时间）的取值范围
	MinWeight float64 `json:"minWeight"`
	MaxWeight float64 `json:"maxWeight"`
}

// PathConfig 管理路径查询相关的配置
type PathConfig struct {
	// 路径查询方法: "shortest" - Dijkstra最短路径, "astar" - A*, "kShortest" - k条最短路径中选择
	PathMethod string `json:"pathMethod"`

	// k最短路径相关参数
	KShortest struct {
		// 计算的最短路径数量
		K int `json:"k"`

		// 路径选择策略: "random" - 随机选择, "weighted" - 加权选择
		SelectionStrategy string `json:"selectionStrategy"`

		// 路径长度权重因子，值越大对短路径的偏好越强（仅在weighted策略下有效）
		LengthWeightFactor float64 `json:"lengthWeightFactor"`
	} `json:"kShortest"`
}

// LoggingConfig 保存日志和数据记录相关的配置项
type LoggingConfig struct {
	IntervalWriteToLog   float64 `json:"intervalWriteToLog"`   // 状态日志输出间隔（模拟分钟）
	IntervalWriteToData  float64 `json:"intervalWriteToData"`  // CSV数据落盘间隔（模拟分钟）
}

// QueryConfig 管理模拟间隙的路径查询采样
type QueryConfig struct {
	Enabled    bool   `json:"enabled"`
	NumQueries int    `json:"numQueries"` // 每个窗口采样的OD对数量
	Seed       uint64 `json:"seed"`       // 查询采样自己的随机数种子
}

// ScenarioIncident 表示一个脚本化注入的事件
type ScenarioIncident struct {
	Time     float64 `json:"time"`     // 注入的逻辑时间（模拟分钟）
	From     int64   `json:"from"`     // 边的起点ID
	To       int64   `json:"to"`       // 边的终点ID
	Type     string  `json:"type"`     // 事件类型名称
	Duration float64 `json:"duration"` // 持续时间，<=0 时随机抽样
}

var globalConfig *Config

// LoadConfig loads configuration from the specified JSON file
func LoadConfig(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	// 先填默认值再解析：JSON中缺失的字段保留默认值，
	// 显式写出的值（包括0概率）是合法覆盖
	config := defaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return err
	}

	sanitize(config)
	globalConfig = config
	return nil
}

// defaultConfig 返回填好全部默认值的配置
func defaultConfig() *Config {
	c := &Config{}

	// 模拟运行默认值
	c.Simulation.SimDay = 1
	c.Simulation.OneDayMinutes = 1440 // 一天 24 小时
	c.Simulation.UpdateInterval = 5   // 每 5 个模拟分钟更新一次
	c.Simulation.ProcessWindow = 60

	// 交通状态机默认值
	c.Traffic.BaseCongestionRate = 0.15
	c.Traffic.CongestionDecayRate = 0.25
	c.Traffic.IncidentBaseRate = 0.03
	c.Traffic.DurationSigmaRatio = 0.25
	c.Traffic.MinIncidentDuration = 5
	c.Traffic.WeatherFactor = 1.0
	c.Traffic.RushHourMultiplier = 2.5
	c.Traffic.MorningRushStart = 7
	c.Traffic.MorningRushEnd = 9
	c.Traffic.EveningRushStart = 17
	c.Traffic.EveningRushEnd = 19

	// 路网生成默认值
	c.Graph.GraphType = "grid"
	c.Graph.Grid.Rows = 6
	c.Graph.Grid.Cols = 6
	c.Graph.Ring.NumNodes = 24
	c.Graph.Ring.NumSpokes = 6
	c.Graph.MinWeight = 2
	c.Graph.MaxWeight = 10

	// 路径查询默认值
	c.Path.PathMethod = "shortest"
	c.Path.KShortest.K = 3
	c.Path.KShortest.SelectionStrategy = "random"
	c.Path.KShortest.LengthWeightFactor = 1.0

	// 日志与数据记录默认值
	c.Logging.IntervalWriteToLog = 60
	c.Logging.IntervalWriteToData = 360

	// 查询采样默认值
	c.Query.NumQueries = 8

	return c
}

// sanitize 把解析后仍然非法的取值退回默认值
// 概率类字段显式置0是合法配置（关闭对应机制），只有负值视为非法
func sanitize(config *Config) {
	if config.Simulation.SimDay <= 0 {
		config.Simulation.SimDay = 1
	}
	if config.Simulation.OneDayMinutes <= 0 {
		config.Simulation.OneDayMinutes = 1440
	}
	if config.Simulation.UpdateInterval <= 0 {
		config.Simulation.UpdateInterval = 5
	}
	if config.Simulation.ProcessWindow <= 0 {
		config.Simulation.ProcessWindow = 60
	}

	if config.Traffic.BaseCongestionRate < 0 {
		config.Traffic.BaseCongestionRate = 0.15
	}
	if config.Traffic.CongestionDecayRate < 0 {
		config.Traffic.CongestionDecayRate = 0.25
	}
	if config.Traffic.IncidentBaseRate < 0 {
		config.Traffic.IncidentBaseRate = 0.03
	}
	if config.Traffic.DurationSigmaRatio <= 0 {
		config.Traffic.DurationSigmaRatio = 0.25
	}
	if config.Traffic.MinIncidentDuration <= 0 {
		config.Traffic.MinIncidentDuration = 5
	}
	if config.Traffic.WeatherFactor <= 0 {
		config.Traffic.WeatherFactor = 1.0
	}
	if config.Traffic.RushHourMultiplier <= 0 {
		config.Traffic.RushHourMultiplier = 2.5
	}
	if config.Traffic.MorningRushEnd <= config.Traffic.MorningRushStart {
		config.Traffic.MorningRushStart = 7
		config.Traffic.MorningRushEnd = 9
	}
	if config.Traffic.EveningRushEnd <= config.Traffic.EveningRushStart {
		config.Traffic.EveningRushStart = 17
		config.Traffic.EveningRushEnd = 19
	}

	if config.Graph.GraphType == "" {
		config.Graph.GraphType = "grid"
	}
	if config.Graph.Grid.Rows <= 0 {
		config.Graph.Grid.Rows = 6
	}
	if config.Graph.Grid.Cols <= 0 {
		config.Graph.Grid.Cols = 6
	}
	if config.Graph.Ring.NumNodes <= 0 {
		config.Graph.Ring.NumNodes = 24
	}
	if config.Graph.Ring.NumSpokes <= 0 {
		config.Graph.Ring.NumSpokes = 6
	}
	if config.Graph.MinWeight <= 0 {
		config.Graph.MinWeight = 2
	}
	if config.Graph.MaxWeight <= config.Graph.MinWeight {
		config.Graph.MaxWeight = config.Graph.MinWeight + 8
	}

	if config.Path.PathMethod == "" {
		config.Path.PathMethod = "shortest"
	}
	if config.Path.KShortest.K <= 0 {
		config.Path.KShortest.K = 3
	}
	if config.Path.KShortest.SelectionStrategy == "" {
		config.Path.KShortest.SelectionStrategy = "random"
	}
	if config.Path.KShortest.LengthWeightFactor <= 0 {
		config.Path.KShortest.LengthWeightFactor = 1.0
	}

	if config.Logging.IntervalWriteToLog <= 0 {
		config.Logging.IntervalWriteToLog = 60
	}
	if config.Logging.IntervalWriteToData <= 0 {
		config.Logging.IntervalWriteToData = 360
	}

	if config.Query.NumQueries <= 0 {
		config.Query.NumQueries = 8
	}
}

// GetConfig returns the global configuration instance
func GetConfig() *Config {
	return globalConfig
}
