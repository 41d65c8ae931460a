package model

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/rushteam/convkit/core"
)

// mlp 是塔内部的前馈网络：若干隐层 + 单神经元 sigmoid 输出头。
//
// 仅实现前向计算（训练不在本库范围），权重为确定性随机初始化，
// 预期由外部以预训练参数覆盖。
type mlp struct {
	dims    []int         // [input, hidden..., 1]
	weights [][][]float64 // weights[layer][neuron][input]
	biases  [][]float64   // biases[layer][neuron]
	act     func(float64) float64
}

// newMLP 创建 MLP。hiddenDims 为隐层宽度列表，可为空（退化为逻辑回归头）。
func newMLP(inputDims int, hiddenDims []int, activation string, rng *rand.Rand) (*mlp, error) {
	act, err := activationFunc(activation)
	if err != nil {
		return nil, err
	}
	for i, h := range hiddenDims {
		if h <= 0 {
			return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidConfig,
				fmt.Sprintf("mlp: hidden dim %d must be positive, got %d", i, h))
		}
	}

	dims := make([]int, 0, len(hiddenDims)+2)
	dims = append(dims, inputDims)
	dims = append(dims, hiddenDims...)
	dims = append(dims, 1)

	m := &mlp{
		dims:    dims,
		weights: make([][][]float64, len(dims)-1),
		biases:  make([][]float64, len(dims)-1),
		act:     act,
	}

	// Xavier 初始化
	for layer := 0; layer < len(dims)-1; layer++ {
		in, out := dims[layer], dims[layer+1]
		scale := math.Sqrt(2.0 / float64(in+out))
		m.weights[layer] = make([][]float64, out)
		m.biases[layer] = make([]float64, out)
		for j := 0; j < out; j++ {
			m.weights[layer][j] = make([]float64, in)
			for k := 0; k < in; k++ {
				m.weights[layer][j][k] = rng.NormFloat64() * scale
			}
		}
	}
	return m, nil
}

// forward 前向传播，返回 sigmoid 后的标量。
func (m *mlp) forward(input []float64) float64 {
	current := input
	last := len(m.weights) - 1
	for layer := 0; layer <= last; layer++ {
		next := make([]float64, len(m.weights[layer]))
		for j := range m.weights[layer] {
			sum := m.biases[layer][j]
			w := m.weights[layer][j]
			for k := range w {
				sum += w[k] * current[k]
			}
			if layer < last {
				next[j] = m.act(sum)
			} else {
				next[j] = sum // 输出层不做隐层激活
			}
		}
		current = next
	}
	return sigmoid(current[0])
}

func activationFunc(name string) (func(float64) float64, error) {
	switch name {
	case "", "relu":
		return relu, nil
	case "tanh":
		return math.Tanh, nil
	default:
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidConfig,
			fmt.Sprintf("mlp: unsupported activation %q (supported: relu, tanh)", name))
	}
}

// relu ReLU 激活函数。
func relu(x float64) float64 {
	if x > 0 {
		return x
	}
	return 0
}

// sigmoid Sigmoid 激活函数。
func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
