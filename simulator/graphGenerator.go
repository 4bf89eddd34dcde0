package simulator

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/graph/simple"
)

// 路网生成器：根据配置生成带权有向图
// 边权重是基准通行时间（模拟分钟），由种子决定，保证重复运行得到相同路网

// newWeightRand 创建路网权重专用的随机数流，与模拟本身的随机数流相互独立
func newWeightRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x51f3c2b8a4d97e01))
}

// CreateGridGraph 创建 rows×cols 的网格路网
// 相邻节点之间双向连边，节点ID为 row*cols+col
//
// 参数:
//   - rows, cols: 网格行列数
//   - minWeight, maxWeight: 边权重的取值范围
//   - seed: 权重随机数种子
func CreateGridGraph(rows, cols int, minWeight, maxWeight float64, seed uint64) *simple.WeightedDirectedGraph {
	// 参数验证
	if rows <= 0 || cols <= 0 {
		panic("rows and cols must be positive")
	}
	if minWeight <= 0 || maxWeight < minWeight {
		panic("invalid weight range")
	}

	g := simple.NewWeightedDirectedGraph(0, 0)
	rng := newWeightRand(seed)

	randWeight := func() float64 {
		return minWeight + rng.Float64()*(maxWeight-minWeight)
	}

	addBoth := func(u, v int64) {
		// 两个方向各自独立抽权重
		g.SetWeightedEdge(simple.WeightedEdge{F: simple.Node(u), T: simple.Node(v), W: randWeight()})
		g.SetWeightedEdge(simple.WeightedEdge{F: simple.Node(v), T: simple.Node(u), W: randWeight()})
	}

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			id := int64(r*cols + c)
			if c+1 < cols {
				addBoth(id, id+1)
			}
			if r+1 < rows {
				addBoth(id, id+int64(cols))
			}
		}
	}
	return g
}

// CreateRingGraph 创建带辐条的环形路网
// 环上节点双向相连，中心节点（ID为numNodes）与均匀分布的环上节点双向相连
//
// 参数:
//   - numNodes: 环上节点数
//   - numSpokes: 辐条数
//   - minWeight, maxWeight: 边权重的取值范围
//   - seed: 权重随机数种子
func CreateRingGraph(numNodes, numSpokes int, minWeight, maxWeight float64, seed uint64) *simple.WeightedDirectedGraph {
	// 参数验证
	if numNodes < 3 {
		panic("numNodes must be at least 3")
	}
	if numSpokes <= 0 || numSpokes > numNodes {
		panic("invalid numSpokes")
	}
	if minWeight <= 0 || maxWeight < minWeight {
		panic("invalid weight range")
	}

	g := simple.NewWeightedDirectedGraph(0, 0)
	rng := newWeightRand(seed)

	randWeight := func() float64 {
		return minWeight + rng.Float64()*(maxWeight-minWeight)
	}

	addBoth := func(u, v int64) {
		g.SetWeightedEdge(simple.WeightedEdge{F: simple.Node(u), T: simple.Node(v), W: randWeight()})
		g.SetWeightedEdge(simple.WeightedEdge{F: simple.Node(v), T: simple.Node(u), W: randWeight()})
	}

	// 环形连接
	for i := 0; i < numNodes; i++ {
		addBoth(int64(i), int64((i+1)%numNodes))
	}

	// 中心节点与环上节点的辐条连接
	hub := int64(numNodes)
	step := numNodes / numSpokes
	for i := 0; i < numSpokes; i++ {
		addBoth(hub, int64(i*step))
	}
	return g
}
