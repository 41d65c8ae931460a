// Package config 提供多任务模型与 Pipeline Node 的配置驱动构建：
// 模型结构（特征声明、塔超参）写在 YAML 里，训练侧与在线侧共用同一份。
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/convkit/core"
	"github.com/rushteam/convkit/model"
)

// ModelConfig 是多任务模型的声明式配置。
//
// 示例（YAML）：
//
//	name: main_esmm
//	variant: esmm
//	seed: 42
//	user_features:
//	  - {name: user_age_bucket, vocab_size: 10, embed_dim: 8}
//	  - {name: user_gender, vocab_size: 3, embed_dim: 8}
//	item_features:
//	  - {name: item_category, vocab_size: 1000, embed_dim: 8}
//	towers:
//	  cvr: {hidden_dims: [128, 64], cross_layers: 1}
//	  ctr: {hidden_dims: [128, 64], cross_layers: 1}
type ModelConfig struct {
	Name    string `yaml:"name" json:"name"`
	Variant string `yaml:"variant" json:"variant"` // esmm / dcmt / dr
	Seed    int64  `yaml:"seed" json:"seed"`

	UserFeatures []FeatureConfig `yaml:"user_features" json:"user_features"`
	ItemFeatures []FeatureConfig `yaml:"item_features" json:"item_features"`

	// Towers 按列名声明各塔超参：esmm 需要 cvr/ctr，
	// dcmt 额外需要 counterfactual_cvr，dr 额外需要 imputation
	Towers map[string]TowerParams `yaml:"towers" json:"towers"`
}

// FeatureConfig 是单个特征的配置。
type FeatureConfig struct {
	Name      string `yaml:"name" json:"name"`
	VocabSize int    `yaml:"vocab_size" json:"vocab_size"`
	EmbedDim  int    `yaml:"embed_dim" json:"embed_dim"`
}

// TowerParams 是单塔超参配置。
type TowerParams struct {
	HiddenDims  []int   `yaml:"hidden_dims" json:"hidden_dims"`
	Activation  string  `yaml:"activation" json:"activation"`
	Dropout     float64 `yaml:"dropout" json:"dropout"`
	CrossLayers int     `yaml:"cross_layers" json:"cross_layers"`
}

// LoadModelConfig 从 YAML 文件加载模型配置。
func LoadModelConfig(path string) (*ModelConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	var cfg ModelConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return &cfg, nil
}

// FeatureSpecs 把配置转为 core.FeatureSpec 列表（保持声明顺序）。
func (c *ModelConfig) FeatureSpecs(side core.Side) []core.FeatureSpec {
	var src []FeatureConfig
	switch side {
	case core.SideUser:
		src = c.UserFeatures
	case core.SideItem:
		src = c.ItemFeatures
	}
	specs := make([]core.FeatureSpec, 0, len(src))
	for _, f := range src {
		specs = append(specs, core.FeatureSpec{
			Name:      f.Name,
			VocabSize: f.VocabSize,
			EmbedDim:  f.EmbedDim,
			Side:      side,
		})
	}
	return specs
}

// Tower 取某列的塔超参；未声明时报 INVALID_CONFIG。
func (c *ModelConfig) Tower(head string) (model.TowerConfig, error) {
	p, ok := c.Towers[head]
	if !ok {
		return model.TowerConfig{}, core.NewDomainError(core.ModuleConfig, core.ErrorCodeInvalidConfig,
			fmt.Sprintf("model config %q: missing tower params for head %q", c.Name, head))
	}
	return model.TowerConfig{
		HiddenDims:  p.HiddenDims,
		Activation:  p.Activation,
		Dropout:     p.Dropout,
		CrossLayers: p.CrossLayers,
	}, nil
}

// seedOptions 把配置的 seed 转为模型构造选项（0 视为未配置，走默认种子）。
func (c *ModelConfig) seedOptions() []model.Option {
	if c.Seed == 0 {
		return nil
	}
	return []model.Option{model.WithSeed(c.Seed)}
}
