package model

import "math/rand"

// TowerConfig 是单个预测塔的超参数。
//
// 每个塔独立持有一份 TowerConfig；不同塔（cvr/ctr/...）的参数互不共享，
// 共享的只有嵌入层。
type TowerConfig struct {
	// HiddenDims MLP 隐层宽度列表，如 [256, 128, 64]；可为空（退化为交叉层 + 逻辑回归头）
	HiddenDims []int

	// Activation 隐层激活函数："relu"（默认）或 "tanh"
	Activation string

	// Dropout 训练期 dropout 比例。推理期不生效，仅作配置透传，
	// 便于与训练侧共用同一份配置文件
	Dropout float64

	// CrossLayers 显式交叉层数；0 表示不做交叉，直接走 MLP
	CrossLayers int
}

// dcnTower 是一个预测塔：交叉网络 + MLP，输入展平特征向量，
// 输出单个概率标量。
type dcnTower struct {
	inputDims int
	cross     *crossNetwork
	net       *mlp
}

func newDCNTower(inputDims int, cfg TowerConfig, seed int64) (*dcnTower, error) {
	rng := rand.New(rand.NewSource(seed))
	cross, err := newCrossNetwork(inputDims, cfg.CrossLayers, rng)
	if err != nil {
		return nil, err
	}
	net, err := newMLP(inputDims, cfg.HiddenDims, cfg.Activation, rng)
	if err != nil {
		return nil, err
	}
	return &dcnTower{
		inputDims: inputDims,
		cross:     cross,
		net:       net,
	}, nil
}

// forward 对单个样本前向计算。
func (t *dcnTower) forward(x []float64) float64 {
	return t.net.forward(t.cross.forward(x))
}

// forwardBatch 对整个 batch 前向计算，返回每个样本一个标量。
func (t *dcnTower) forwardBatch(xs [][]float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = t.forward(x)
	}
	return out
}
