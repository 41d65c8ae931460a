package pipeline

import (
	"context"

	"github.com/rushteam/convkit/core"
)

// Kind 用于标记 Node 类型，方便观测/治理/编排（例如按阶段打点）。
type Kind string

const (
	KindFeature     Kind = "feature"     // 特征阶段：拉取在线特征 / 计算派生特征
	KindRank        Kind = "rank"        // 排序阶段：多任务模型打分并排序
	KindPostProcess Kind = "postprocess" // 后处理阶段：截断、结果修饰
)

// Node 是 Pipeline 的最小可扩展单元。
// 统一采用“输入 items -> 输出 items”的形态，方便特征填充、打分排序、截断等操作。
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		rctx *core.RecommendContext,
		items []*core.Item,
	) ([]*core.Item, error)
}
