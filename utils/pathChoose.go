package utils

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"graphDES/config"
)

// PathFinder 定义了查找路径的函数类型
// 返回路径节点序列和按当前边权重计算的总通行时间
type PathFinder func(g *simple.WeightedDirectedGraph, origin, destination graph.Node) ([]graph.Node, float64, error)

// GetPathFinder 根据配置返回相应的路径查找函数
func GetPathFinder() PathFinder {
	cfg := config.GetConfig()

	switch cfg.Path.PathMethod {
	case "shortest":
		return ShortestPath
	case "astar":
		return AStarPath
	case "kShortest":
		return func(g *simple.WeightedDirectedGraph, origin, destination graph.Node) ([]graph.Node, float64, error) {
			return ChooseFromKShortestPaths(g, origin, destination, cfg.Path.KShortest.K,
				cfg.Path.KShortest.SelectionStrategy, cfg.Path.KShortest.LengthWeightFactor)
		}
	default:
		// 默认使用最短路径
		return ShortestPath
	}
}

// ShortestPath 使用Dijkstra计算最短路径，读取图中的实时权重
func ShortestPath(g *simple.WeightedDirectedGraph, origin, destination graph.Node) ([]graph.Node, float64, error) {
	sp := path.DijkstraFrom(origin, g)
	nodes, weight := sp.To(destination.ID())
	if len(nodes) == 0 || math.IsInf(weight, 1) {
		return nil, -1, fmt.Errorf("no path from %d to %d", origin.ID(), destination.ID())
	}
	return nodes, weight, nil
}

// AStarPath 使用A*计算最短路径
// 路网没有几何坐标，使用零启发函数，行为与Dijkstra一致
func AStarPath(g *simple.WeightedDirectedGraph, origin, destination graph.Node) ([]graph.Node, float64, error) {
	sp, _ := path.AStar(origin, destination, g, func(x, y graph.Node) float64 { return 0 })
	nodes, weight := sp.To(destination.ID())
	if len(nodes) == 0 || math.IsInf(weight, 1) {
		return nil, -1, fmt.Errorf("no path from %d to %d", origin.ID(), destination.ID())
	}
	return nodes, weight, nil
}

// ChooseFromKShortestPaths 从k条最短路径中选择一条
func ChooseFromKShortestPaths(g *simple.WeightedDirectedGraph, origin, destination graph.Node, k int,
	strategy string, weightFactor float64) ([]graph.Node, float64, error) {

	paths := path.YenKShortestPaths(g, k, math.Inf(1), origin, destination)
	if len(paths) == 0 {
		return nil, -1, fmt.Errorf("no path from %d to %d", origin.ID(), destination.ID())
	}

	// 如果只有一条路径，直接返回
	if len(paths) == 1 {
		return paths[0], calPathWeight(g, paths[0]), nil
	}

	// 根据策略选择路径
	switch strategy {
	case "weighted":
		// 基于路径长度进行加权选择，路径越短权重越大
		lengths := make([]float64, len(paths))
		maxLength := 0.0
		for i, p := range paths {
			lengths[i] = calPathWeight(g, p)
			if lengths[i] > maxLength {
				maxLength = lengths[i]
			}
		}

		// 使用指数函数使短路径获得更高权重
		weights := make([]float64, len(paths))
		totalWeight := 0.0
		for i, length := range lengths {
			normalizedLength := length / maxLength
			weights[i] = math.Exp(-weightFactor * normalizedLength)
			totalWeight += weights[i]
		}

		dice := rand.Float64() * totalWeight
		acc := 0.0
		for i, w := range weights {
			acc += w
			if dice <= acc {
				return paths[i], lengths[i], nil
			}
		}
		return paths[len(paths)-1], lengths[len(paths)-1], nil

	default:
		// 随机选择一条路径
		selected := rand.IntN(len(paths))
		return paths[selected], calPathWeight(g, paths[selected]), nil
	}
}

// calPathWeight 按当前图权重计算一条路径的总通行时间
func calPathWeight(g *simple.WeightedDirectedGraph, nodes []graph.Node) float64 {
	total := 0.0
	for i := 0; i < len(nodes)-1; i++ {
		w, ok := g.Weight(nodes[i].ID(), nodes[i+1].ID())
		if !ok {
			return math.Inf(1)
		}
		total += w
	}
	return total
}
