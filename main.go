package main

import (
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"runtime"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/graph/simple"

	"graphDES/config"
	"graphDES/element"
	"graphDES/log"
	"graphDES/recorder"
	"graphDES/simulator"
	"graphDES/utils"
)

func main() {
	// 加载配置文件
	if err := config.LoadConfig("config/config.json"); err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	cfg := config.GetConfig()

	// 生成唯一的初始化时间标识
	initTime := time.Now().Format("2006010215040506")

	// 初始化日志和数据文件
	dataFiles := initializeResources(cfg, initTime)
	defer log.CloseLog()

	// 初始化工作池，用于模拟窗口之间的路径查询负载
	pool := utils.NewWorkerPool(runtime.GOMAXPROCS(0))
	defer func() {
		log.WriteLog("Stopping worker pool...")
		pool.Stop()
		log.WriteLog("Worker pool stopped")
	}()

	// 初始化模拟环境
	g := initializeNetwork(cfg)

	// 构建事件队列和交通模拟器
	network := simulator.NewGraphNetwork(g)
	queue := simulator.NewEventQueue()
	sim := simulator.NewTrafficSimulation(network, queue, cfg.Traffic, cfg.Simulation.Seed)

	if err := sim.StartSimulation(cfg.Simulation.UpdateInterval); err != nil {
		log.WriteLog(fmt.Sprintf("Failed to start simulation: %v", err))
		os.Exit(1)
	}

	// 开始模拟
	log.WriteLog("----------------------------------Simulation Start----------------------------------")
	runSimulation(cfg, g, queue, sim, pool, dataFiles)

	// 完成模拟，写入最后的数据
	finishSimulation(sim, dataFiles)

	log.WriteLog("---------------------------------- Completed ----------------------------------")
}

// initializeResources 初始化日志和CSV数据文件
func initializeResources(cfg *config.Config, initTime string) map[string]string {
	// 日志初始化
	logFile := fmt.Sprintf("./log/%s_traffic.log", initTime)
	log.InitLog(logFile)
	log.LogEnvironment()
	log.LogSimParameters(cfg)

	// 数据CSV初始化
	networkDataFile := fmt.Sprintf("./data/%s_NetworkData.csv", initTime)
	incidentDataFile := fmt.Sprintf("./data/%s_IncidentData.csv", initTime)

	recorder.InitNetworkDataCSV(networkDataFile)
	recorder.InitIncidentDataCSV(incidentDataFile)

	return map[string]string{
		"network":  networkDataFile,
		"incident": incidentDataFile,
	}
}

// initializeNetwork 根据配置生成路网并检查连通性
func initializeNetwork(cfg *config.Config) *simple.WeightedDirectedGraph {
	var g *simple.WeightedDirectedGraph

	// 根据配置选择创建的路网类型
	switch cfg.Graph.GraphType {
	case "grid":
		g = simulator.CreateGridGraph(
			cfg.Graph.Grid.Rows, cfg.Graph.Grid.Cols,
			cfg.Graph.MinWeight, cfg.Graph.MaxWeight,
			cfg.Simulation.Seed,
		)
	case "ring":
		g = simulator.CreateRingGraph(
			cfg.Graph.Ring.NumNodes, cfg.Graph.Ring.NumSpokes,
			cfg.Graph.MinWeight, cfg.Graph.MaxWeight,
			cfg.Simulation.Seed,
		)
	default:
		// 默认创建网格路网
		log.WriteLog(fmt.Sprintf("Unknown graph type: %s, falling back to grid", cfg.Graph.GraphType))
		g = simulator.CreateGridGraph(
			cfg.Graph.Grid.Rows, cfg.Graph.Grid.Cols,
			cfg.Graph.MinWeight, cfg.Graph.MaxWeight,
			cfg.Simulation.Seed,
		)
	}

	log.WriteLog(fmt.Sprintf("Graph type: %s", cfg.Graph.GraphType))
	log.WriteLog(fmt.Sprintf("Nodes: %d, Edges: %d", g.Nodes().Len(), g.WeightedEdges().Len()))
	log.WriteLog(fmt.Sprintf("Strongly connected: %v", utils.IsStronglyConnected(g)))

	return g
}

// runSimulation 模拟主循环
// 按固定窗口推进事件队列，期间注入脚本事件、记录数据并采样路径查询
func runSimulation(cfg *config.Config, g *simple.WeightedDirectedGraph, queue *simulator.EventQueue,
	sim *simulator.TrafficSimulation, pool *utils.WorkerPool, dataFiles map[string]string) {

	simEnd := float64(cfg.Simulation.SimDay) * cfg.Simulation.OneDayMinutes
	window := cfg.Simulation.ProcessWindow
	netState := simulator.NewNetworkState()

	// 脚本事件按时间排序
	scenario := append([]config.ScenarioIncident(nil), cfg.Scenario...)
	sort.Slice(scenario, func(i, j int) bool { return scenario[i].Time < scenario[j].Time })
	nextScenario := 0

	pathFinder := utils.GetPathFinder()
	queryRng := rand.New(rand.NewPCG(cfg.Query.Seed, cfg.Query.Seed^0xd1342543de82ef95))
	nodeIDs := collectNodeIDs(g)

	lastLogTime := 0.0
	lastDataTime := 0.0

	for target := window; ; target += window {
		if target > simEnd {
			target = simEnd
		}

		// 注入到期的脚本事件：先推进到注入时刻，再手动触发
		for nextScenario < len(scenario) && scenario[nextScenario].Time <= target {
			item := scenario[nextScenario]
			nextScenario++

			if _, err := queue.ProcessUntil(item.Time); err != nil {
				log.WriteLog(fmt.Sprintf("Process until %.2f failed: %v", item.Time, err))
				return
			}
			typ, err := element.ParseIncidentType(item.Type)
			if err != nil {
				log.WriteLog(fmt.Sprintf("Scenario incident skipped: %v", err))
				continue
			}
			if err := sim.TriggerIncident(item.From, item.To, typ, item.Duration); err != nil {
				log.WriteLog(fmt.Sprintf("Scenario incident %d->%d failed: %v", item.From, item.To, err))
				continue
			}
			log.WriteLog(fmt.Sprintf("Scenario incident: %s on %d->%d at %.2f", item.Type, item.From, item.To, item.Time))
		}

		if _, err := queue.ProcessUntil(target); err != nil {
			log.WriteLog(fmt.Sprintf("Process until %.2f failed: %v", target, err))
			return
		}

		// 更新并记录路网状态
		netState.Update(sim)
		netState.RecordData(target)

		// 按间隔输出日志
		if target-lastLogTime >= cfg.Logging.IntervalWriteToLog {
			day := int(target/cfg.Simulation.OneDayMinutes) + 1
			netState.LogStatus(day, math.Mod(target, cfg.Simulation.OneDayMinutes))
			lastLogTime = target
		}

		// 按间隔写入数据
		if target-lastDataTime >= cfg.Logging.IntervalWriteToData {
			writeData(dataFiles)
			lastDataTime = target
		}

		// 路径查询采样：只在模拟推进的间隙读取权重，
		// 写（模拟）与读（查询）不会同时发生
		if cfg.Query.Enabled {
			runQuerySample(pool, g, pathFinder, queryRng, nodeIDs, cfg.Query.NumQueries, target)
		}

		if target >= simEnd {
			break
		}
	}
}

// collectNodeIDs 收集图中所有节点ID并排序，保证采样顺序确定
func collectNodeIDs(g *simple.WeightedDirectedGraph) []int64 {
	ids := make([]int64, 0, g.Nodes().Len())
	it := g.Nodes()
	for it.Next() {
		ids = append(ids, it.Node().ID())
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// runQuerySample 在当前权重快照上并发执行一批OD对路径查询
// 查询只读取图，且在两次模拟推进之间执行，满足单写者约束
func runQuerySample(pool *utils.WorkerPool, g *simple.WeightedDirectedGraph, find utils.PathFinder,
	rng *rand.Rand, nodeIDs []int64, numQueries int, simTime float64) {

	if len(nodeIDs) < 2 {
		return
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	totalCost := 0.0
	reachable := 0
	unreachable := 0

	for i := 0; i < numQueries; i++ {
		o := nodeIDs[rng.IntN(len(nodeIDs))]
		d := nodeIDs[rng.IntN(len(nodeIDs))]
		if o == d {
			continue
		}

		origin, dest := g.Node(o), g.Node(d)
		wg.Add(1)
		if !pool.Submit(func() {
			defer wg.Done()
			_, cost, err := find(g, origin, dest)
			mu.Lock()
			defer mu.Unlock()
			if err != nil || math.IsInf(cost, 1) {
				unreachable++
				return
			}
			reachable++
			totalCost += cost
		}) {
			wg.Done()
		}
	}
	wg.Wait()

	avg := 0.0
	if reachable > 0 {
		avg = totalCost / float64(reachable)
	}
	log.WriteLog(fmt.Sprintf("Query sample at %.0f: reachable=%d, unreachable=%d, avgCost=%.2f",
		simTime, reachable, unreachable, avg))
}

// writeData 同步写入路网和事件数据
func writeData(dataFiles map[string]string) {
	// 处理数据写入过程中的panic
	defer func() {
		if r := recover(); r != nil {
			log.WriteLog(fmt.Sprintf("Panic occurred during data write: %v", r))
		}
	}()

	recorder.WriteToNetworkDataCSV(dataFiles["network"])
	recorder.WriteToIncidentDataCSV(dataFiles["incident"])
}

// finishSimulation 完成模拟，写入最后的数据并输出统计摘要
func finishSimulation(sim *simulator.TrafficSimulation, dataFiles map[string]string) {
	log.WriteLog("Writing final data...")

	startTime := time.Now()
	writeData(dataFiles)
	log.WriteLog(fmt.Sprintf("Final data write completed in %v", time.Since(startTime)))

	stats := sim.GetStatistics()
	log.WriteLog(fmt.Sprintf("Total incidents: %d, Events processed: %d", stats.TotalIncidents, stats.EventsProcessed))
	for t := element.MinorAccident; t <= element.SpecialEvent; t++ {
		if n := stats.IncidentCounts[t]; n > 0 {
			log.WriteLog(fmt.Sprintf("  %s: %d", t, n))
		}
	}
}
