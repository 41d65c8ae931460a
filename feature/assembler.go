// Package feature 负责把链路上下文（RecommendContext + Items）组装成
// 模型可直接消费的 core.Batch，并提供类别编码、CEL 派生特征、
// Feast 在线特征拉取等配套能力。
package feature

import (
	"fmt"

	"github.com/rushteam/convkit/core"
	"github.com/rushteam/convkit/pkg/conv"
)

// Assembler 按特征声明组装打分 batch：
// 用户侧取值来自 rctx（一份取值广播到所有样本），物品侧取值来自各 item，
// batch size 即 len(items)。
//
// 取值优先级：
//   - 用户侧：rctx.Params → rctx.UserProfile
//   - 物品侧：item.Features → item.Meta
//
// 字符串类别值通过 LabelEncoder 编码为词表下标；缺失特征 fail-fast。
type Assembler struct {
	userFeatures []core.FeatureSpec
	itemFeatures []core.FeatureSpec
	encoder      *LabelEncoder
}

// AssemblerOption 配置 Assembler 的可选项。
type AssemblerOption func(*Assembler)

// WithLabelEncoder 指定类别特征的词表编码器。
func WithLabelEncoder(enc *LabelEncoder) AssemblerOption {
	return func(a *Assembler) { a.encoder = enc }
}

// NewAssembler 创建特征组装器。特征列表的顺序与模型构造时一致。
func NewAssembler(userFeatures, itemFeatures []core.FeatureSpec, opts ...AssemblerOption) *Assembler {
	a := &Assembler{
		userFeatures: userFeatures,
		itemFeatures: itemFeatures,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble 组装一个 batch：每个 item 一行，用户侧特征广播。
func (a *Assembler) Assemble(rctx *core.RecommendContext, items []*core.Item) (core.Batch, error) {
	if len(items) == 0 {
		return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidInput,
			"assemble: empty item list")
	}

	batch := make(core.Batch, len(a.userFeatures)+len(a.itemFeatures))

	for _, s := range a.userFeatures {
		v, err := a.userValue(rctx, s.Name)
		if err != nil {
			return nil, err
		}
		col := make([]float64, len(items))
		for i := range col {
			col[i] = v
		}
		batch[s.Name] = col
	}

	for _, s := range a.itemFeatures {
		col := make([]float64, len(items))
		for i, it := range items {
			v, err := a.itemValue(it, s.Name)
			if err != nil {
				return nil, err
			}
			col[i] = v
		}
		batch[s.Name] = col
	}

	return batch, nil
}

func (a *Assembler) userValue(rctx *core.RecommendContext, name string) (float64, error) {
	if rctx != nil {
		if raw, ok := rctx.Params[name]; ok {
			return a.encode(name, raw)
		}
		if raw, ok := rctx.UserProfile[name]; ok {
			return a.encode(name, raw)
		}
	}
	return 0, core.NewDomainError(core.ModuleFeature, core.ErrorCodeNotFound,
		fmt.Sprintf("assemble: user feature %q not found in context", name))
}

func (a *Assembler) itemValue(it *core.Item, name string) (float64, error) {
	if it != nil {
		if v, ok := it.Features[name]; ok {
			return v, nil
		}
		if raw, ok := it.Meta[name]; ok {
			return a.encode(name, raw)
		}
	}
	var id int64
	if it != nil {
		id = it.ID
	}
	return 0, core.NewDomainError(core.ModuleFeature, core.ErrorCodeNotFound,
		fmt.Sprintf("assemble: item feature %q not found on item %d", name, id))
}

// encode 把原始取值转成 float64：数值直接转换，字符串走词表编码。
func (a *Assembler) encode(name string, raw any) (float64, error) {
	if v, ok := conv.ToFloat64(raw); ok {
		return v, nil
	}
	if s, ok := raw.(string); ok && a.encoder != nil {
		if v, ok := a.encoder.Encode(name, s); ok {
			return v, nil
		}
	}
	return 0, core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidInput,
		fmt.Sprintf("assemble: feature %q has unencodable value %v (%T)", name, raw, raw))
}
