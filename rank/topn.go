package rank

import (
	"context"

	"github.com/rushteam/convkit/core"
	"github.com/rushteam/convkit/pipeline"
)

// TopNNode 是一个 Top-N 截断节点，在打分排序之后截取前 N 个物品。
//
// 使用场景：
//   - 打分后只返回 Top 10/20/50 个结果
//   - 控制下游处理数量，提升性能
type TopNNode struct {
	// N 要保留的物品数量（Top N）
	// 如果 N <= 0，则返回所有物品（不截断）
	// 如果 N > len(items)，则返回所有物品
	N int
}

func (n *TopNNode) Name() string {
	return "rank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindPostProcess
}

func (n *TopNNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.N <= 0 {
		return items, nil
	}
	if len(items) <= n.N {
		return items, nil
	}
	return items[:n.N], nil
}

var _ pipeline.Node = (*TopNNode)(nil)
