package simulator

import (
	"sort"

	"gonum.org/v1/gonum/graph/simple"

	"graphDES/element"
)

// RoadNetwork 模拟器对路网的唯一依赖面
// 模拟器不拥有图的拓扑，只读取和更新既有边的权重属性
type RoadNetwork interface {
	// EachEdge 以确定的顺序遍历所有有向边
	EachEdge(fn func(from, to int64, weight float64))

	// UpdateEdgeWeight 更新一条边的权重
	// 边不存在时返回 false（调用方容忍这种情况，不视为致命错误）
	UpdateEdgeWeight(from, to int64, weight float64) bool
}

// GraphNetwork 将 gonum 的带权有向图适配为 RoadNetwork
type GraphNetwork struct {
	G *simple.WeightedDirectedGraph
}

// NewGraphNetwork 创建一个图适配器
func NewGraphNetwork(g *simple.WeightedDirectedGraph) *GraphNetwork {
	if g == nil {
		panic("nil graph")
	}
	return &GraphNetwork{G: g}
}

// EachEdge 按 (from, to) 字典序遍历所有边
// gonum 的迭代器顺序不确定，这里先收集后排序，保证重放的确定性
func (n *GraphNetwork) EachEdge(fn func(from, to int64, weight float64)) {
	type edgeRec struct {
		from, to int64
		weight   float64
	}

	edges := make([]edgeRec, 0)
	it := n.G.WeightedEdges()
	for it.Next() {
		e := it.WeightedEdge()
		edges = append(edges, edgeRec{e.From().ID(), e.To().ID(), e.Weight()})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].from != edges[j].from {
			return edges[i].from < edges[j].from
		}
		return edges[i].to < edges[j].to
	})

	for _, e := range edges {
		fn(e.from, e.to, e.weight)
	}
}

// UpdateEdgeWeight 更新一条边的权重，边不存在时返回 false
func (n *GraphNetwork) UpdateEdgeWeight(from, to int64, weight float64) bool {
	if n.G.WeightedEdge(from, to) == nil {
		return false
	}
	n.G.SetWeightedEdge(simple.WeightedEdge{
		F: simple.Node(from),
		T: simple.Node(to),
		W: weight,
	})
	return true
}

// EdgeKeys 返回图中所有边的键，按字典序排列
func (n *GraphNetwork) EdgeKeys() []element.EdgeKey {
	keys := make([]element.EdgeKey, 0)
	n.EachEdge(func(from, to int64, _ float64) {
		keys = append(keys, element.EdgeKey{From: from, To: to})
	})
	return keys
}
