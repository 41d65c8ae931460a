package pipeline

import (
	"context"

	"github.com/rushteam/convkit/core"
)

// Pipeline 是 Convkit 的编排抽象：把打分链路拆成可组合的 Node 链
// （特征填充 → 多任务打分 → 后处理）。
type Pipeline struct {
	Nodes []Node
}

func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}
