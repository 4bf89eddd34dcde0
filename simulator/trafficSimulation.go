package simulator

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"

	"graphDES/config"
	"graphDES/element"
	"graphDES/recorder"
)

// resolutionPriority 事件解除与例行更新同时刻时，解除先执行
const resolutionPriority = -1

// TrafficSimulation 驱动整个路网的交通状态机
// 每条边持有一个 TrafficState，通过事件队列调度周期性更新和事件解除，
// 每次状态变化后把新的权重写回路网
//
// 路网和事件队列都是非拥有引用，必须比模拟器活得更久
// 单线程使用，与并发的路径查询之间的同步由宿主负责
type TrafficSimulation struct {
	network RoadNetwork
	queue   *EventQueue
	cfg     config.TrafficConfig

	// edges 保存确定的边遍历顺序
	// map 的迭代顺序不可用于任何影响随机数流的地方
	edges     []element.EdgeKey
	states    map[element.EdgeKey]*element.TrafficState
	originals map[element.EdgeKey]float64 // 模拟前的原始权重快照

	seed           uint64
	src            *rand.PCG
	rng            *rand.Rand
	weatherFactor  float64
	updateInterval float64
	started        bool

	totalIncidents uint64
	incidentCounts map[element.IncidentType]uint64
	levelEntries   map[element.CongestionLevel]uint64
}

// NewTrafficSimulation 创建模拟器并完成初始化
// 为路网中的每条边建立默认状态，并快照其原始权重
func NewTrafficSimulation(network RoadNetwork, queue *EventQueue, cfg config.TrafficConfig, seed uint64) *TrafficSimulation {
	if network == nil || queue == nil {
		panic("nil network or queue")
	}

	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	sim := &TrafficSimulation{
		network:        network,
		queue:          queue,
		cfg:            cfg,
		seed:           seed,
		states:         make(map[element.EdgeKey]*element.TrafficState),
		originals:      make(map[element.EdgeKey]float64),
		src:            src,
		rng:            rand.New(src),
		weatherFactor:  cfg.WeatherFactor,
		incidentCounts: make(map[element.IncidentType]uint64),
		levelEntries:   make(map[element.CongestionLevel]uint64),
	}
	if sim.weatherFactor <= 0 {
		sim.weatherFactor = 1.0
	}

	network.EachEdge(func(from, to int64, weight float64) {
		k := element.EdgeKey{From: from, To: to}
		st := element.NewTrafficState()
		sim.states[k] = &st
		sim.originals[k] = weight
		sim.edges = append(sim.edges, k)
	})
	sort.Slice(sim.edges, func(i, j int) bool { return sim.edges[i].Less(sim.edges[j]) })

	queue.SetHandler(sim)
	return sim
}

// StartSimulation 为每条边调度第一个交通更新事件
// 之后每次更新都会无条件续排下一次更新，事件链自我延续
func (s *TrafficSimulation) StartSimulation(updateInterval float64) error {
	if s.started {
		return fmt.Errorf("simulation already started")
	}
	if updateInterval <= 0 {
		return fmt.Errorf("update interval must be positive, got %.4f", updateInterval)
	}

	s.updateInterval = updateInterval
	now := s.queue.CurrentTime()
	for _, k := range s.edges {
		if _, err := s.queue.Schedule(Event{
			Time: now + updateInterval,
			Kind: EventTrafficUpdate,
			Edge: k,
		}); err != nil {
			return err
		}
	}
	s.started = true
	return nil
}

// HandleTrafficUpdate 一条边的周期性更新（一个tick）
// 拥堵漂移、系数重算、事件检查、续排下一次更新、权重同步
func (s *TrafficSimulation) HandleTrafficUpdate(edge element.EdgeKey, now float64) {
	st, ok := s.states[edge]
	if !ok {
		return
	}

	// 拥堵漂移：先判加重，未触发时再判缓解（else-if语义）
	// 每个tick至多发生一次等级变化；先判加重是沿用的建模选择
	rate := s.cfg.BaseCongestionRate * s.weatherFactor
	if s.isRushHour(now) {
		rate *= s.cfg.RushHourMultiplier
	}

	prevLevel := st.Level
	if s.rng.Float64() < rate {
		st.Level = st.Level.Increase()
	} else if s.rng.Float64() < s.cfg.CongestionDecayRate {
		st.Level = st.Level.Decrease()
	}
	st.RecomputeFactors()
	if st.Level != prevLevel {
		s.levelEntries[st.Level]++
	}

	// 事件检查：仅在当前无事件时进行
	if st.Incident == element.IncidentNone {
		if s.rng.Float64() < s.cfg.IncidentBaseRate*s.weatherFactor {
			typ := element.SampleIncidentType(s.rng.Float64())
			s.beginIncident(edge, st, typ, 0, now)
		}
	}

	// 无条件续排下一次更新，保持事件链自我延续
	if _, err := s.queue.Schedule(Event{
		Time: now + s.updateInterval,
		Kind: EventTrafficUpdate,
		Edge: edge,
	}); err != nil {
		panic(fmt.Sprintf("reschedule traffic update for %v: %v", edge, err))
	}

	s.syncWeights()
}

// HandleIncidentResolution 解除一条边上的事件
// 事件已被解除或已被更新的事件取代时什么都不做
// （外部reset或手动触发都可能让旧的解除事件变得过期）
func (s *TrafficSimulation) HandleIncidentResolution(edge element.EdgeKey, now float64) {
	st, ok := s.states[edge]
	if !ok || st.Incident == element.IncidentNone {
		return
	}
	// 旧的解除事件：当前事件的解除时间在更晚的将来
	if now+1e-9 < st.IncidentEnds {
		return
	}

	recorder.RecordIncidentData(now, edge.From, edge.To, "Resolved", 0)
	st.ClearIncident()
	s.syncWeights()
}

// TriggerIncident 手动在指定边上触发一个事件，绕过随机抽取
// duration <= 0 时按该类型的分布抽样持续时间
func (s *TrafficSimulation) TriggerIncident(from, to int64, typ element.IncidentType, duration float64) error {
	k := element.EdgeKey{From: from, To: to}
	st, ok := s.states[k]
	if !ok {
		return fmt.Errorf("unknown edge %v", k)
	}
	if typ <= element.IncidentNone || typ > element.SpecialEvent {
		return fmt.Errorf("invalid incident type %d", typ)
	}

	// 替换现有事件：先清除再应用，避免影响系数叠加
	if st.Incident != element.IncidentNone {
		st.ClearIncident()
	}
	s.beginIncident(k, st, typ, duration, s.queue.CurrentTime())
	s.syncWeights()
	return nil
}

// beginIncident 应用事件影响、记录统计并调度解除事件
func (s *TrafficSimulation) beginIncident(edge element.EdgeKey, st *element.TrafficState, typ element.IncidentType, duration, now float64) {
	if duration <= 0 {
		duration = s.sampleDuration(typ)
	}
	st.BeginIncident(typ, now, duration)

	s.totalIncidents++
	s.incidentCounts[typ]++
	recorder.RecordIncidentData(now, edge.From, edge.To, typ.String(), duration)

	if _, err := s.queue.Schedule(Event{
		Time:     now + duration,
		Kind:     EventIncidentResolution,
		Edge:     edge,
		Priority: resolutionPriority,
	}); err != nil {
		panic(fmt.Sprintf("schedule incident resolution for %v: %v", edge, err))
	}
}

// pcgSource 把 math/rand/v2 的 PCG 适配为 distuv 接受的随机数源
// 与 s.rng 共用同一个 PCG，整个模拟只有一条随机数流
type pcgSource struct{ pcg *rand.PCG }

func (p pcgSource) Uint64() uint64   { return p.pcg.Uint64() }
func (p pcgSource) Seed(seed uint64) { p.pcg.Seed(seed, seed) }

// sampleDuration 按类型均值加高斯抖动抽样事件持续时间，下限为配置的最小值
func (s *TrafficSimulation) sampleDuration(typ element.IncidentType) float64 {
	mean := typ.MeanDuration()
	sigma := mean * s.cfg.DurationSigmaRatio
	d := distuv.Normal{Mu: mean, Sigma: sigma, Src: pcgSource{s.src}}.Rand()

	minDur := s.cfg.MinIncidentDuration
	if minDur <= 0 {
		minDur = element.MinIncidentDuration
	}
	if d < minDur {
		d = minDur
	}
	return d
}

// SetWeatherFactor 设置天气系数，放大拥堵加重和事件发生的概率
func (s *TrafficSimulation) SetWeatherFactor(f float64) error {
	if f < 0 {
		return fmt.Errorf("weather factor must be non-negative, got %.4f", f)
	}
	s.weatherFactor = f
	return nil
}

// Reset 将所有边恢复为默认状态，统计归零，并把原始权重逐位精确地写回路网
// 随机数流回到构造时的种子位置，重跑得到与第一次逐位一致的轨迹
// 不触碰事件队列：队列中残留的解除事件会因状态已清空而自动空转，
// 完整的重新运行应同时调用 EventQueue.Reset
func (s *TrafficSimulation) Reset() {
	for _, k := range s.edges {
		s.states[k].Reset()
		s.network.UpdateEdgeWeight(k.From, k.To, s.originals[k])
	}
	s.src = rand.NewPCG(s.seed, s.seed^0x9e3779b97f4a7c15)
	s.rng = rand.New(s.src)
	s.totalIncidents = 0
	s.incidentCounts = make(map[element.IncidentType]uint64)
	s.levelEntries = make(map[element.CongestionLevel]uint64)
	s.started = false
}

// GetTrafficState 返回一条边的交通状态副本，边不存在时第二个返回值为 false
func (s *TrafficSimulation) GetTrafficState(from, to int64) (element.TrafficState, bool) {
	st, ok := s.states[element.EdgeKey{From: from, To: to}]
	if !ok {
		return element.TrafficState{}, false
	}
	return *st, true
}

// GetBlockedRoads 返回当前完全封闭的边，按字典序排列
func (s *TrafficSimulation) GetBlockedRoads() []element.EdgeKey {
	blocked := make([]element.EdgeKey, 0)
	for _, k := range s.edges {
		if s.states[k].IsBlocked() {
			blocked = append(blocked, k)
		}
	}
	return blocked
}

// GetStatistics 返回当前统计信息的快照
func (s *TrafficSimulation) GetStatistics() Statistics {
	stats := Statistics{
		TotalIncidents:  s.totalIncidents,
		IncidentCounts:  make(map[element.IncidentType]uint64, len(s.incidentCounts)),
		LevelEntries:    make(map[element.CongestionLevel]uint64, len(s.levelEntries)),
		EventsProcessed: s.queue.Processed(),
	}
	for t, n := range s.incidentCounts {
		stats.IncidentCounts[t] = n
	}
	for l, n := range s.levelEntries {
		stats.LevelEntries[l] = n
	}

	var levelSum float64
	for _, k := range s.edges {
		st := s.states[k]
		levelSum += float64(st.Level)
		if st.IsBlocked() {
			stats.BlockedRoads++
		}
		if st.Incident != element.IncidentNone {
			stats.ActiveIncidents++
		}
	}
	if len(s.edges) > 0 {
		stats.AverageCongestion = levelSum / float64(len(s.edges))
	}
	return stats
}

// Edges 返回模拟器管理的所有边键，按字典序排列
func (s *TrafficSimulation) Edges() []element.EdgeKey {
	out := make([]element.EdgeKey, len(s.edges))
	copy(out, s.edges)
	return out
}

// OriginalWeight 返回一条边的原始权重快照
func (s *TrafficSimulation) OriginalWeight(from, to int64) (float64, bool) {
	w, ok := s.originals[element.EdgeKey{From: from, To: to}]
	return w, ok
}

// syncWeights 把每条边的当前权重写回路网
// new_weight = original_weight × travel_time_multiplier，封闭的边写入 +Inf 哨兵值
// 边在路网中已不存在时 UpdateEdgeWeight 返回 false，容忍而不报错
func (s *TrafficSimulation) syncWeights() {
	for _, k := range s.edges {
		st := s.states[k]
		var w float64
		if st.IsBlocked() {
			w = math.Inf(1)
		} else {
			w = s.originals[k] * st.TravelTimeMultiplier()
		}
		s.network.UpdateEdgeWeight(k.From, k.To, w)
	}
}

// isRushHour 当前逻辑时间是否处于配置的早晚高峰时段
func (s *TrafficSimulation) isRushHour(now float64) bool {
	hour := int(now/60) % 24
	if hour >= s.cfg.MorningRushStart && hour < s.cfg.MorningRushEnd {
		return true
	}
	return hour >= s.cfg.EveningRushStart && hour < s.cfg.EveningRushEnd
}
