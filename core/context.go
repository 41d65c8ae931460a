package core

import "github.com/rushteam/convkit/pkg/utils"

// RecommendContext 承载用户/场景/实时信息，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	UserID   string // 使用 string 类型（通用，支持所有 ID 格式）
	DeviceID string
	Scene    string

	// UserProfile 是 map 形式的用户画像，用于快速原型或动态属性。
	// 用户侧特征组装优先从这里取值。
	UserProfile map[string]any

	// Labels 是用户级标签，可驱动整个 Pipeline 行为
	Labels map[string]utils.Label

	// Params 请求级上下文参数，包含：
	// - 请求参数：latitude, longitude, time_of_day, device_type 等
	// - 实时特征：realtime_ctr, realtime_exposure 等（建议加 realtime_ 前缀区分）
	Params map[string]any
}

// PutLabel 写入用户级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取用户级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
