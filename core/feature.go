package core

import "fmt"

// Side 标记特征属于用户侧还是物品侧，决定其在塔输入向量中的分段位置。
type Side string

const (
	SideUser Side = "user" // 用户侧特征（画像、行为统计等）
	SideItem Side = "item" // 物品侧特征（类目、统计特征等）
)

// FeatureSpec 描述一个可嵌入特征：名称、词表大小、嵌入维度、所属侧。
//
// 构造后不可变。特征列表的顺序是公开契约的一部分：
// 它决定了展平后塔输入向量的列布局，下游按位置索引。
type FeatureSpec struct {
	// Name 特征名，batch 中按此名取值
	Name string

	// VocabSize 词表大小（类别特征的取值个数，决定嵌入表行数）
	VocabSize int

	// EmbedDim 嵌入维度（嵌入表列数）
	EmbedDim int

	// Side 用户侧 / 物品侧
	Side Side
}

// Validate 校验单个 FeatureSpec 的合法性。
func (s FeatureSpec) Validate() error {
	if s.Name == "" {
		return NewDomainError(ModuleFeature, ErrorCodeInvalidConfig, "feature spec: name is empty")
	}
	if s.VocabSize <= 0 {
		return NewDomainError(ModuleFeature, ErrorCodeInvalidConfig,
			fmt.Sprintf("feature spec %q: vocab_size must be positive, got %d", s.Name, s.VocabSize))
	}
	if s.EmbedDim <= 0 {
		return NewDomainError(ModuleFeature, ErrorCodeInvalidConfig,
			fmt.Sprintf("feature spec %q: embed_dim must be positive, got %d", s.Name, s.EmbedDim))
	}
	return nil
}

// UniformEmbedDim 校验一组特征的 EmbedDim 全部一致并返回该维度。
//
// 塔输入宽度按 len(specs) * specs[0].EmbedDim 计算，该算法隐含
// “同组特征嵌入维度一致”的前提；这里显式校验，避免维度不一致时
// 只在展平/拼接阶段暴露为难以定位的形状错误。
func UniformEmbedDim(specs []FeatureSpec) (int, error) {
	if len(specs) == 0 {
		return 0, NewDomainError(ModuleFeature, ErrorCodeInvalidConfig, "feature specs: empty list")
	}
	dim := specs[0].EmbedDim
	for _, s := range specs {
		if err := s.Validate(); err != nil {
			return 0, err
		}
		if s.EmbedDim != dim {
			return 0, NewDomainError(ModuleFeature, ErrorCodeInvalidConfig,
				fmt.Sprintf("feature specs: embed_dim mismatch, %q has %d but %q has %d (all features in a group must share one embed_dim)",
					specs[0].Name, dim, s.Name, s.EmbedDim))
		}
	}
	return dim, nil
}
