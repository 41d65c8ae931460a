package feature

import (
	"context"
	"fmt"
	"strconv"

	feastsdk "github.com/feast-dev/feast/sdk/go"
	feasttypes "github.com/feast-dev/feast/sdk/go/protos/feast/types"

	"github.com/rushteam/convkit/core"
)

// FeastLoader 从 Feast Feature Server 拉取在线特征，填充到上下文与 items，
// 供 Assembler 组装 batch 使用。
//
// Feast 是开源 Feature Store，离线训练与在线预估共享同一套特征定义，
// 保证训练/预估特征一致性。本加载器只消费在线特征（GetOnlineFeatures）。
//
// 使用示例：
//
//	loader, _ := feature.NewFeastLoader("localhost", 6565, "ecommerce")
//	loader.UserEntity, loader.UserFeatures = "user_id", []string{"user_stats:purchase_cnt"}
//	loader.ItemEntity, loader.ItemFeatures = "item_id", []string{"item_stats:ctr_7d"}
//	_ = loader.Load(ctx, rctx, items)
type FeastLoader struct {
	client  *feastsdk.GrpcClient
	Project string

	// UserEntity 用户实体名（如 "user_id"）；UserFeatures 为空时跳过用户侧拉取
	UserEntity   string
	UserFeatures []string

	// ItemEntity 物品实体名（如 "item_id"）；ItemFeatures 为空时跳过物品侧拉取
	ItemEntity   string
	ItemFeatures []string
}

// NewFeastLoader 创建基于官方 SDK 的 Feast gRPC 加载器。
func NewFeastLoader(host string, port int, project string) (*FeastLoader, error) {
	if port == 0 {
		port = 6565 // Feast gRPC 默认端口
	}
	client, err := feastsdk.NewGrpcClient(host, port)
	if err != nil {
		return nil, fmt.Errorf("feast grpc client: %w", err)
	}
	return &FeastLoader{
		client:  client,
		Project: project,
	}, nil
}

// Load 拉取在线特征：用户侧写入 rctx.Params，物品侧写入 item.Features
// （数值）或 item.Meta（非数值）。任一侧拉取失败整体报错，不做部分填充。
func (f *FeastLoader) Load(ctx context.Context, rctx *core.RecommendContext, items []*core.Item) error {
	if len(f.UserFeatures) > 0 {
		if err := f.loadUser(ctx, rctx); err != nil {
			return err
		}
	}
	if len(f.ItemFeatures) > 0 {
		if err := f.loadItems(ctx, items); err != nil {
			return err
		}
	}
	return nil
}

func (f *FeastLoader) loadUser(ctx context.Context, rctx *core.RecommendContext) error {
	if rctx == nil || rctx.UserID == "" {
		return core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidInput,
			"feast: user id is required for user feature loading")
	}

	rows, err := f.getOnlineFeatures(ctx, f.UserFeatures, []feastsdk.Row{
		{f.UserEntity: feastsdk.StrVal(rctx.UserID)},
	})
	if err != nil {
		return fmt.Errorf("feast user features: %w", err)
	}

	if rctx.Params == nil {
		rctx.Params = make(map[string]any)
	}
	for name, raw := range rows[0] {
		if name == f.UserEntity {
			continue
		}
		if v := convertFeastValue(raw); v != nil {
			rctx.Params[featureRefName(name)] = v
		}
	}
	return nil
}

func (f *FeastLoader) loadItems(ctx context.Context, items []*core.Item) error {
	if len(items) == 0 {
		return nil
	}

	entityRows := make([]feastsdk.Row, len(items))
	for i, it := range items {
		entityRows[i] = feastsdk.Row{
			f.ItemEntity: feastsdk.Int64Val(it.ID),
		}
	}

	rows, err := f.getOnlineFeatures(ctx, f.ItemFeatures, entityRows)
	if err != nil {
		return fmt.Errorf("feast item features: %w", err)
	}

	for i, it := range items {
		for name, raw := range rows[i] {
			if name == f.ItemEntity {
				continue
			}
			v := convertFeastValue(raw)
			if v == nil {
				continue
			}
			key := featureRefName(name)
			if num, ok := v.(float64); ok {
				if it.Features == nil {
					it.Features = make(map[string]float64)
				}
				it.Features[key] = num
				continue
			}
			if it.Meta == nil {
				it.Meta = make(map[string]any)
			}
			it.Meta[key] = v
		}
	}
	return nil
}

func (f *FeastLoader) getOnlineFeatures(ctx context.Context, features []string, entities []feastsdk.Row) ([]feastsdk.Row, error) {
	resp, err := f.client.GetOnlineFeatures(ctx, &feastsdk.OnlineFeaturesRequest{
		Features: features,
		Entities: entities,
		Project:  f.Project,
	})
	if err != nil {
		return nil, err
	}
	rows := resp.Rows()
	if len(rows) != len(entities) {
		return nil, fmt.Errorf("response row count mismatch: expected %d, got %d", len(entities), len(rows))
	}
	return rows, nil
}

// Close 关闭底层 gRPC 连接。
func (f *FeastLoader) Close() error {
	return f.client.Close()
}

// featureRefName 去掉特征引用中的 FeatureView 前缀："item_stats:ctr_7d" → "ctr_7d"。
func featureRefName(ref string) string {
	for i := len(ref) - 1; i >= 0; i-- {
		if ref[i] == ':' {
			return ref[i+1:]
		}
	}
	return ref
}

// convertFeastValue 把 SDK 的 protobuf Value 转换为 Go 原生类型，数值统一为
// float64。按 oneof 分支转换；字符串先尝试解析为数字（Feast 侧常有数值以
// 字符串存储的情况）。未设置或不支持的类型（如 list）返回 nil，调用方跳过。
func convertFeastValue(val *feasttypes.Value) interface{} {
	if val == nil {
		return nil
	}
	switch v := val.GetVal().(type) {
	case *feasttypes.Value_DoubleVal:
		return v.DoubleVal
	case *feasttypes.Value_FloatVal:
		return float64(v.FloatVal)
	case *feasttypes.Value_Int64Val:
		return float64(v.Int64Val)
	case *feasttypes.Value_Int32Val:
		return float64(v.Int32Val)
	case *feasttypes.Value_BoolVal:
		if v.BoolVal {
			return float64(1)
		}
		return float64(0)
	case *feasttypes.Value_StringVal:
		if f, err := strconv.ParseFloat(v.StringVal, 64); err == nil {
			return f
		}
		return v.StringVal
	case *feasttypes.Value_BytesVal:
		return string(v.BytesVal)
	default:
		return nil
	}
}
