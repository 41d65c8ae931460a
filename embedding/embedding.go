// Package embedding 实现共享嵌入层：每个特征一张 vocab × dim 的嵌入表。
//
// 多任务模型的架构要点是所有塔共享同一个嵌入层实例（联合学习同一嵌入空间），
// 因此 Layer 被模型以引用方式持有，各塔的前向计算独立调用 Lookup。
package embedding

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"

	"github.com/rushteam/convkit/core"
)

// Layer 是共享嵌入层。
//
// 工程特征：
//   - 前向查表是只读操作，可重入；多个 goroutine 并发 Lookup 安全
//   - 初始化确定性：相同 seed 产出相同的表（便于测试与复现）
//   - 越界下标按 FNV 哈希落入表内桶位（与训练侧的 hash trick 对齐）
type Layer struct {
	specs  map[string]core.FeatureSpec
	tables map[string][][]float64 // feature name -> vocab x dim
}

// NewLayer 创建嵌入层，为 specs 中每个特征初始化一张 Xavier 随机表。
// 相同的 seed 与 specs 顺序产出完全相同的参数。
func NewLayer(specs []core.FeatureSpec, seed int64) (*Layer, error) {
	if len(specs) == 0 {
		return nil, core.NewDomainError(core.ModuleEmbedding, core.ErrorCodeInvalidConfig,
			"embedding: empty feature specs")
	}

	l := &Layer{
		specs:  make(map[string]core.FeatureSpec, len(specs)),
		tables: make(map[string][][]float64, len(specs)),
	}
	rng := rand.New(rand.NewSource(seed))

	for _, s := range specs {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if _, ok := l.specs[s.Name]; ok {
			return nil, core.NewDomainError(core.ModuleEmbedding, core.ErrorCodeInvalidConfig,
				fmt.Sprintf("embedding: duplicate feature %q", s.Name))
		}
		l.specs[s.Name] = s

		// Xavier 初始化：scale = sqrt(2 / (vocab + dim))
		scale := math.Sqrt(2.0 / float64(s.VocabSize+s.EmbedDim))
		table := make([][]float64, s.VocabSize)
		for i := range table {
			row := make([]float64, s.EmbedDim)
			for j := range row {
				row[j] = rng.NormFloat64() * scale
			}
			table[i] = row
		}
		l.tables[s.Name] = table
	}
	return l, nil
}

// Lookup 查出 batch 中 specs 声明特征的嵌入，返回形状 (B, F, D) 的三维切片。
// 保留特征轴（不压扁），展平由调用方决定——与下游“先 (B,F,D) 再 reshape”的
// 计算图保持一致。
func (l *Layer) Lookup(batch core.Batch, specs []core.FeatureSpec) ([][][]float64, error) {
	if err := batch.Validate(specs); err != nil {
		return nil, err
	}
	for _, s := range specs {
		if _, ok := l.tables[s.Name]; !ok {
			return nil, core.NewDomainError(core.ModuleEmbedding, core.ErrorCodeNotFound,
				fmt.Sprintf("embedding: feature %q has no table in this layer", s.Name))
		}
	}

	batchSize := len(batch[specs[0].Name])
	out := make([][][]float64, batchSize)
	for b := 0; b < batchSize; b++ {
		rows := make([][]float64, len(specs))
		for f, s := range specs {
			table := l.tables[s.Name]
			idx := bucket(s.Name, batch[s.Name][b], len(table))
			rows[f] = table[idx]
		}
		out[b] = rows
	}
	return out, nil
}

// Table 返回某特征的嵌入表（供持久化使用）。
func (l *Layer) Table(name string) ([][]float64, bool) {
	t, ok := l.tables[name]
	return t, ok
}

// Spec 返回某特征的 FeatureSpec。
func (l *Layer) Spec(name string) (core.FeatureSpec, bool) {
	s, ok := l.specs[name]
	return s, ok
}

// Features 返回该层覆盖的特征名集合（无序）。
func (l *Layer) Features() []string {
	names := make([]string, 0, len(l.specs))
	for name := range l.specs {
		names = append(names, name)
	}
	return names
}

// SetTable 用预训练参数替换某特征的嵌入表，形状必须与 spec 声明一致。
func (l *Layer) SetTable(name string, rows [][]float64) error {
	s, ok := l.specs[name]
	if !ok {
		return core.NewDomainError(core.ModuleEmbedding, core.ErrorCodeNotFound,
			fmt.Sprintf("embedding: feature %q has no table in this layer", name))
	}
	if len(rows) != s.VocabSize {
		return core.NewDomainError(core.ModuleEmbedding, core.ErrorCodeInvalidInput,
			fmt.Sprintf("embedding: feature %q expects %d rows, got %d", name, s.VocabSize, len(rows)))
	}
	for i, row := range rows {
		if len(row) != s.EmbedDim {
			return core.NewDomainError(core.ModuleEmbedding, core.ErrorCodeInvalidInput,
				fmt.Sprintf("embedding: feature %q row %d has dim %d, expected %d", name, i, len(row), s.EmbedDim))
		}
	}
	l.tables[name] = rows
	return nil
}

// bucket 把特征取值映射为表内行号。
// 合法下标直接使用；越界/负值/非整数按 FNV(name, value) 哈希入桶。
func bucket(name string, value float64, vocab int) int {
	idx := int(value)
	if float64(idx) == value && idx >= 0 && idx < vocab {
		return idx
	}
	h := fnv.New32a()
	h.Write([]byte(name))
	h.Write([]byte(fmt.Sprintf("%v", value)))
	return int(h.Sum32()) % vocab
}
