package model

import "github.com/rushteam/convkit/core"

// ESMM 族预置变体。三个变体共享同一套计算图（MultiTaskDCN），
// 差异只在塔的数量与输出列顺序；各变体的列顺序是下游损失代码
// 按位置索引所依赖的契约，不可互换：
//
//   - DCN4ESMM: [cvr, ctr, ctcvr]
//   - DCN4DCMT: [cvr, counterfactual_cvr, ctr, ctcvr]
//   - DCN4DR:   [cvr, ctr, ctcvr, imputation]
//
// 注意 DCMT 的辅助列在第二列、DR 的辅助列在末列。

// 预置输出列名
const (
	HeadCVR               = "cvr"                // 转化率 P(convert|click)
	HeadCTR               = "ctr"                // 点击率 P(click)
	HeadCounterfactualCVR = "counterfactual_cvr" // 反事实 CVR（DCMT 辅助塔）
	HeadImputation        = "imputation"         // 误差插补项（DR 辅助塔）
)

// NewDCN4ESMM 创建 ESMM（Entire Space Multi-task Model）变体：
// cvr、ctr 两塔，ctcvr = cvr × ctr。
// 输出列顺序 [cvr, ctr, ctcvr]。
func NewDCN4ESMM(
	userFeatures, itemFeatures []core.FeatureSpec,
	cvrMLPParams, ctrMLPParams TowerConfig,
	opts ...Option,
) (*MultiTaskDCN, error) {
	return NewMultiTaskDCN(
		"dcn4esmm",
		userFeatures, itemFeatures,
		[]Head{
			{Name: HeadCVR, Config: cvrMLPParams, InCTCVR: true},
			{Name: HeadCTR, Config: ctrMLPParams, InCTCVR: true},
		},
		[]string{HeadCVR, HeadCTR, HeadCTCVR},
		opts...,
	)
}

// NewDCN4DCMT 创建 DCMT（反事实多任务）变体：在 ESMM 之上增加一个
// 独立参数化的反事实 CVR 塔，该塔不参与 ctcvr 乘积，由外部以
// 反事实标签分布监督（监督方式不在本库范围内）。
// 输出列顺序 [cvr, counterfactual_cvr, ctr, ctcvr]。
func NewDCN4DCMT(
	userFeatures, itemFeatures []core.FeatureSpec,
	cvrMLPParams, counterfactualCVRMLPParams, ctrMLPParams TowerConfig,
	opts ...Option,
) (*MultiTaskDCN, error) {
	return NewMultiTaskDCN(
		"dcn4dcmt",
		userFeatures, itemFeatures,
		[]Head{
			{Name: HeadCVR, Config: cvrMLPParams, InCTCVR: true},
			{Name: HeadCounterfactualCVR, Config: counterfactualCVRMLPParams},
			{Name: HeadCTR, Config: ctrMLPParams, InCTCVR: true},
		},
		[]string{HeadCVR, HeadCounterfactualCVR, HeadCTR, HeadCTCVR},
		opts...,
	)
}

// NewDCN4DR 创建 DR（doubly-robust）变体：在 ESMM 之上增加一个插补塔，
// 估计双重稳健校正用的误差插补项，不参与 ctcvr 乘积。
// 输出列顺序 [cvr, ctr, ctcvr, imputation]。
func NewDCN4DR(
	userFeatures, itemFeatures []core.FeatureSpec,
	cvrMLPParams, ctrMLPParams, imputationMLPParams TowerConfig,
	opts ...Option,
) (*MultiTaskDCN, error) {
	return NewMultiTaskDCN(
		"dcn4dr",
		userFeatures, itemFeatures,
		[]Head{
			{Name: HeadCVR, Config: cvrMLPParams, InCTCVR: true},
			{Name: HeadCTR, Config: ctrMLPParams, InCTCVR: true},
			{Name: HeadImputation, Config: imputationMLPParams},
		},
		[]string{HeadCVR, HeadCTR, HeadCTCVR, HeadImputation},
		opts...,
	)
}
