// Package convkit 是转化率预估工具包（Conversion Kit）：
// ESMM 族多任务模型（ESMM / DCMT / DR）的 Go 实现。
//
// 设计要点：
// - 共享嵌入：一个模型只有一个嵌入层实例，所有预测塔共享（联合学习同一嵌入空间）
// - 多塔独立：cvr/ctr 及辅助塔各自独立参数化，接收完全相同的拼接输入
// - 列序契约：输出列顺序由变体固定声明，下游损失按位置取列
// - Pipeline 可组合：特征拉取/派生 → 多任务打分 → 后处理，Node 即插即用
package convkit

import "github.com/rushteam/convkit/pipeline"

// 轻量 facade：便于用户直接 import "convkit" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindFeature     = pipeline.KindFeature
	KindRank        = pipeline.KindRank
	KindPostProcess = pipeline.KindPostProcess
)
