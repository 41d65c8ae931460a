package model

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/rushteam/convkit/core"
)

// crossNetwork 是 DCN 风格的显式特征交叉网络。
//
// 每层计算 x_{l+1} = x0 ⊙ (W_l·x_l + b_l) + x_l，
// 其中 x0 是塔输入向量，⊙ 为逐元素乘。残差项保证层数加深不丢失原始信号。
type crossNetwork struct {
	dim     int
	weights [][][]float64 // weights[layer][row][col]，每层一个 dim×dim 矩阵
	biases  [][]float64   // biases[layer][row]
}

func newCrossNetwork(dim, nLayers int, rng *rand.Rand) (*crossNetwork, error) {
	if dim <= 0 {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidConfig,
			fmt.Sprintf("cross network: input dim must be positive, got %d", dim))
	}
	if nLayers < 0 {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidConfig,
			fmt.Sprintf("cross network: layer count must be non-negative, got %d", nLayers))
	}

	c := &crossNetwork{
		dim:     dim,
		weights: make([][][]float64, nLayers),
		biases:  make([][]float64, nLayers),
	}
	scale := math.Sqrt(2.0 / float64(dim+dim))
	for l := 0; l < nLayers; l++ {
		c.weights[l] = make([][]float64, dim)
		c.biases[l] = make([]float64, dim)
		for i := 0; i < dim; i++ {
			c.weights[l][i] = make([]float64, dim)
			for j := 0; j < dim; j++ {
				c.weights[l][i][j] = rng.NormFloat64() * scale
			}
		}
	}
	return c, nil
}

// forward 对单个样本做交叉计算，返回与输入同宽的向量。
// 零层时原样返回输入。
func (c *crossNetwork) forward(x0 []float64) []float64 {
	x := x0
	for l := range c.weights {
		next := make([]float64, c.dim)
		for i := 0; i < c.dim; i++ {
			sum := c.biases[l][i]
			w := c.weights[l][i]
			for j := 0; j < c.dim; j++ {
				sum += w[j] * x[j]
			}
			next[i] = x0[i]*sum + x[i]
		}
		x = next
	}
	return x
}
