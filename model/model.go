package model

import "github.com/rushteam/convkit/core"

// MultiTaskModel 是多任务预估模型的最小抽象：输入一个 batch，
// 输出每个样本一行多任务预估值（列顺序由 Heads 声明，下游按位置取列）。
//
// 具体实现可以是本地模型（MultiTaskDCN）或远程 RPC 服务的适配器。
type MultiTaskModel interface {
	Name() string

	// Heads 返回输出列名，顺序即 Predict 输出的列顺序（公开契约）。
	Heads() []string

	// Predict 对 batch 做前向计算，返回形状 (batch, len(Heads())) 的结果。
	// 所有取值落在 (ClipMin, ClipMax) 开区间内。
	Predict(batch core.Batch) ([][]float64, error)
}
