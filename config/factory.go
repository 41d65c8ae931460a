package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/convkit/core"
	"github.com/rushteam/convkit/feature"
	"github.com/rushteam/convkit/pipeline"
	"github.com/rushteam/convkit/pkg/conv"
	"github.com/rushteam/convkit/rank"
)

// DefaultFactory 返回一个包含所有内置 Node 的默认工厂。
func DefaultFactory() *pipeline.NodeFactory {
	factory := pipeline.NewNodeFactory()

	// 注册 Feature Nodes
	factory.Register("feature.transform", buildTransformNode)

	// 注册 Rank Nodes
	factory.Register("rank.multitask", buildMultiTaskNode)
	factory.Register("rank.topn", buildTopNNode)

	return factory
}

func buildTransformNode(cfg map[string]interface{}) (pipeline.Node, error) {
	raw, ok := cfg["transforms"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("transforms not found or invalid")
	}

	transforms := make([]*feature.Transform, 0, len(raw))
	for _, tc := range raw {
		tm, ok := tc.(map[string]interface{})
		if !ok {
			continue
		}
		name := conv.ConfigGet[string](tm, "name", "")
		expr := conv.ConfigGet[string](tm, "expr", "")
		t, err := feature.NewTransform(name, expr)
		if err != nil {
			return nil, err
		}
		transforms = append(transforms, t)
	}

	return &feature.TransformNode{Transforms: transforms}, nil
}

func buildMultiTaskNode(cfg map[string]interface{}) (pipeline.Node, error) {
	modelCfgRaw, ok := cfg["model"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("model config not found")
	}

	// 借 YAML 编解码把嵌套 map 还原成强类型 ModelConfig
	data, err := yaml.Marshal(modelCfgRaw)
	if err != nil {
		return nil, fmt.Errorf("marshal model config: %w", err)
	}
	var modelCfg ModelConfig
	if err := yaml.Unmarshal(data, &modelCfg); err != nil {
		return nil, fmt.Errorf("parse model config: %w", err)
	}

	m, err := BuildModel(&modelCfg)
	if err != nil {
		return nil, err
	}

	node := &rank.MultiTaskNode{
		Model: m,
		Assembler: feature.NewAssembler(
			modelCfg.FeatureSpecs(core.SideUser),
			modelCfg.FeatureSpecs(core.SideItem),
		),
		ChunkSize: conv.ConfigGetInt(cfg, "chunk_size", 0),
	}
	if weights, ok := cfg["head_weights"].(map[string]interface{}); ok {
		node.HeadWeights = conv.MapToFloat64(weights)
	}
	return node, nil
}

func buildTopNNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &rank.TopNNode{N: conv.ConfigGetInt(cfg, "n", 0)}, nil
}
