package feature

import (
	"context"

	"github.com/rushteam/convkit/core"
	"github.com/rushteam/convkit/pipeline"
)

// TransformNode 是特征阶段 Node：按序对 items 应用一组 CEL 派生特征。
// 通常置于打分节点之前，补齐模型声明但上游未直接提供的特征。
type TransformNode struct {
	Transforms []*Transform
}

func (n *TransformNode) Name() string        { return "feature.transform" }
func (n *TransformNode) Kind() pipeline.Kind { return pipeline.KindFeature }

func (n *TransformNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	for _, t := range n.Transforms {
		if t == nil {
			continue
		}
		if err := t.Apply(rctx, items); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// FeastNode 是特征阶段 Node：从 Feast 在线存储拉取用户/物品特征。
type FeastNode struct {
	Loader *FeastLoader
}

func (n *FeastNode) Name() string        { return "feature.feast" }
func (n *FeastNode) Kind() pipeline.Kind { return pipeline.KindFeature }

func (n *FeastNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.Loader == nil {
		return items, nil
	}
	if err := n.Loader.Load(ctx, rctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

var (
	_ pipeline.Node = (*TransformNode)(nil)
	_ pipeline.Node = (*FeastNode)(nil)
)
