package config

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rushteam/convkit/core"
	"github.com/rushteam/convkit/model"
)

// ModelBuilder 根据 ModelConfig 构建一个多任务模型。
// 自定义变体通过 RegisterVariant 注册后即可被配置驱动。
type ModelBuilder func(cfg *ModelConfig) (model.MultiTaskModel, error)

var (
	variantBuilders   = make(map[string]ModelBuilder)
	variantBuildersMu sync.RWMutex
)

// RegisterVariant 注册一种模型变体的构建逻辑。
// 内置变体（esmm/dcmt/dr）在本包 init 中注册。
func RegisterVariant(variant string, builder ModelBuilder) {
	if variant == "" || builder == nil {
		return
	}
	variantBuildersMu.Lock()
	defer variantBuildersMu.Unlock()
	variantBuilders[variant] = builder
}

// SupportedVariants 返回当前已注册的变体列表（排序），用于错误提示与校验。
func SupportedVariants() []string {
	variantBuildersMu.RLock()
	defer variantBuildersMu.RUnlock()
	variants := make([]string, 0, len(variantBuilders))
	for v := range variantBuilders {
		variants = append(variants, v)
	}
	sort.Strings(variants)
	return variants
}

// BuildModel 按配置构建多任务模型；未注册的变体返回包含已支持列表的错误。
func BuildModel(cfg *ModelConfig) (model.MultiTaskModel, error) {
	if cfg == nil {
		return nil, core.NewDomainError(core.ModuleConfig, core.ErrorCodeInvalidConfig,
			"build model: nil config")
	}
	variantBuildersMu.RLock()
	builder, ok := variantBuilders[cfg.Variant]
	variantBuildersMu.RUnlock()
	if !ok {
		return nil, core.NewDomainError(core.ModuleConfig, core.ErrorCodeInvalidConfig,
			fmt.Sprintf("unknown model variant %q (supported: %v)", cfg.Variant, SupportedVariants()))
	}
	return builder(cfg)
}

func init() {
	RegisterVariant("esmm", buildESMM)
	RegisterVariant("dcmt", buildDCMT)
	RegisterVariant("dr", buildDR)
}

func buildESMM(cfg *ModelConfig) (model.MultiTaskModel, error) {
	cvr, err := cfg.Tower(model.HeadCVR)
	if err != nil {
		return nil, err
	}
	ctr, err := cfg.Tower(model.HeadCTR)
	if err != nil {
		return nil, err
	}
	return model.NewDCN4ESMM(
		cfg.FeatureSpecs(core.SideUser),
		cfg.FeatureSpecs(core.SideItem),
		cvr, ctr,
		cfg.seedOptions()...,
	)
}

func buildDCMT(cfg *ModelConfig) (model.MultiTaskModel, error) {
	cvr, err := cfg.Tower(model.HeadCVR)
	if err != nil {
		return nil, err
	}
	cfCvr, err := cfg.Tower(model.HeadCounterfactualCVR)
	if err != nil {
		return nil, err
	}
	ctr, err := cfg.Tower(model.HeadCTR)
	if err != nil {
		return nil, err
	}
	return model.NewDCN4DCMT(
		cfg.FeatureSpecs(core.SideUser),
		cfg.FeatureSpecs(core.SideItem),
		cvr, cfCvr, ctr,
		cfg.seedOptions()...,
	)
}

func buildDR(cfg *ModelConfig) (model.MultiTaskModel, error) {
	cvr, err := cfg.Tower(model.HeadCVR)
	if err != nil {
		return nil, err
	}
	ctr, err := cfg.Tower(model.HeadCTR)
	if err != nil {
		return nil, err
	}
	imp, err := cfg.Tower(model.HeadImputation)
	if err != nil {
		return nil, err
	}
	return model.NewDCN4DR(
		cfg.FeatureSpecs(core.SideUser),
		cfg.FeatureSpecs(core.SideItem),
		cvr, ctr, imp,
		cfg.seedOptions()...,
	)
}
