package model

import (
	"fmt"

	"github.com/rushteam/convkit/core"
	"github.com/rushteam/convkit/embedding"
)

// Head 声明多任务模型中的一个预测塔及其在输出中的角色。
type Head struct {
	// Name 塔名，同时是输出列名（如 "cvr"、"ctr"）
	Name string

	// Config 该塔的超参数（各塔独立参数化）
	Config TowerConfig

	// InCTCVR 是否参与 ctcvr 乘积。
	// ESMM 分解 P(click,convert) = P(convert|click)·P(click)，
	// 对应 cvr、ctr 两塔为 true；辅助塔（反事实/插补）为 false。
	InCTCVR bool
}

// HeadCTCVR 是派生列 ctcvr 的列名：它不是塔，而是参与乘积的塔输出的乘积。
const HeadCTCVR = "ctcvr"

// MultiTaskDCN 是共享嵌入、多塔独立参数的多任务预估模型
// （ESMM 族估计器的统一实现，变体差异仅在塔的数量与输出列顺序）。
//
// 计算图：embed → flatten → concat(user, item) → 各塔独立前向
// → ctcvr = 参与塔原始输出的乘积 → 全部输出截断 → 按声明顺序拼列。
//
// 不变量：
//   - 所有塔共享同一个嵌入层实例（联合学习同一嵌入空间），任何塔不得持有副本
//   - 所有塔接收完全相同的输入向量（不存在塔看到输入切片的情况）
//   - towerDims 在构造期固定，等于两侧特征 embed_dim 之和
//   - 前向计算是纯函数：无内部状态、无并发、无日志，可重入
type MultiTaskDCN struct {
	name string

	userFeatures []core.FeatureSpec
	itemFeatures []core.FeatureSpec

	// embedding 被所有塔共享（引用持有，不复制）
	embedding *embedding.Layer

	towerDims   int
	heads       []Head
	towers      []*dcnTower // 与 heads 一一对应
	outputOrder []string
}

// options 是 MultiTaskDCN 的可选构造参数。
type options struct {
	seed int64
}

// Option 配置 MultiTaskDCN 的可选项。
type Option func(*options)

// WithSeed 指定参数初始化的随机种子。
// 相同的种子与配置产出完全相同的模型（确定性，便于测试与复现）。
// 默认种子为 1。
func WithSeed(seed int64) Option {
	return func(o *options) { o.seed = seed }
}

// NewMultiTaskDCN 创建一个 N 塔共享嵌入模型。
//
// 参数：
//   - name: 模型名（用于 Name() 与标签）
//   - userFeatures/itemFeatures: 两侧有序特征列表，非空；顺序决定列布局
//   - heads: 有序塔声明列表
//   - outputOrder: 输出列顺序，元素为塔名或 HeadCTCVR，不可重复；
//     这是下游按位置取列所依赖的公开契约
//
// 校验失败返回 INVALID_CONFIG 领域错误（显式校验每侧 embed_dim 一致，
// 避免 towerDims 按首个特征推算时静默算错宽度）。
func NewMultiTaskDCN(
	name string,
	userFeatures, itemFeatures []core.FeatureSpec,
	heads []Head,
	outputOrder []string,
	opts ...Option,
) (*MultiTaskDCN, error) {
	o := &options{seed: 1}
	for _, opt := range opts {
		opt(o)
	}

	userDim, err := core.UniformEmbedDim(userFeatures)
	if err != nil {
		return nil, fmt.Errorf("user features: %w", err)
	}
	itemDim, err := core.UniformEmbedDim(itemFeatures)
	if err != nil {
		return nil, fmt.Errorf("item features: %w", err)
	}

	if len(heads) == 0 {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidConfig,
			"multitask: at least one head is required")
	}
	headNames := make(map[string]bool, len(heads))
	nProduct := 0
	for _, h := range heads {
		if h.Name == "" || h.Name == HeadCTCVR {
			return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidConfig,
				fmt.Sprintf("multitask: invalid head name %q", h.Name))
		}
		if headNames[h.Name] {
			return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidConfig,
				fmt.Sprintf("multitask: duplicate head %q", h.Name))
		}
		headNames[h.Name] = true
		if h.InCTCVR {
			nProduct++
		}
	}

	seen := make(map[string]bool, len(outputOrder))
	for _, col := range outputOrder {
		if seen[col] {
			return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidConfig,
				fmt.Sprintf("multitask: duplicate output column %q", col))
		}
		seen[col] = true
		if col == HeadCTCVR {
			if nProduct < 2 {
				return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidConfig,
					"multitask: ctcvr output requires at least two heads with InCTCVR")
			}
			continue
		}
		if !headNames[col] {
			return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidConfig,
				fmt.Sprintf("multitask: output column %q does not match any head", col))
		}
	}
	if len(outputOrder) == 0 {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidConfig,
			"multitask: output order is empty")
	}

	allFeatures := make([]core.FeatureSpec, 0, len(userFeatures)+len(itemFeatures))
	allFeatures = append(allFeatures, userFeatures...)
	allFeatures = append(allFeatures, itemFeatures...)
	emb, err := embedding.NewLayer(allFeatures, o.seed)
	if err != nil {
		return nil, err
	}

	towerDims := len(userFeatures)*userDim + len(itemFeatures)*itemDim

	m := &MultiTaskDCN{
		name:         name,
		userFeatures: userFeatures,
		itemFeatures: itemFeatures,
		embedding:    emb,
		towerDims:    towerDims,
		heads:        heads,
		towers:       make([]*dcnTower, len(heads)),
		outputOrder:  outputOrder,
	}
	for i, h := range heads {
		// 每塔独立的派生种子，塔之间参数互不相同
		tower, err := newDCNTower(towerDims, h.Config, o.seed+int64(i)+1)
		if err != nil {
			return nil, fmt.Errorf("head %q: %w", h.Name, err)
		}
		m.towers[i] = tower
	}
	return m, nil
}

func (m *MultiTaskDCN) Name() string { return m.name }

// Heads 返回输出列名（即列顺序契约）。返回副本，调用方不可变更内部顺序。
func (m *MultiTaskDCN) Heads() []string {
	out := make([]string, len(m.outputOrder))
	copy(out, m.outputOrder)
	return out
}

// TowerDims 返回塔输入向量宽度（构造期固定）。
func (m *MultiTaskDCN) TowerDims() int { return m.towerDims }

// Embedding 返回共享嵌入层（用于预训练参数装载）。
func (m *MultiTaskDCN) Embedding() *embedding.Layer { return m.embedding }

// Predict 前向计算。返回形状 (batch, len(Heads())) 的结果，
// 每个取值截断到 (ClipMin, ClipMax)。
//
// 错误语义：缺失特征 / 长度不一致由嵌入层按领域错误上抛，本方法不做
// 恢复也不附加上下文；塔输出超出 [0,1] 不视为错误，静默截断（策略使然）。
func (m *MultiTaskDCN) Predict(batch core.Batch) ([][]float64, error) {
	rawByHead, batchSize, err := m.forward(batch)
	if err != nil {
		return nil, err
	}

	out := make([][]float64, batchSize)
	for b := 0; b < batchSize; b++ {
		row := make([]float64, len(m.outputOrder))
		for c, col := range m.outputOrder {
			if col == HeadCTCVR {
				// ctcvr 用原始（截断前）塔输出相乘，乘积只截断一次
				prod := 1.0
				for i, h := range m.heads {
					if h.InCTCVR {
						prod *= rawByHead[i][b]
					}
				}
				row[c] = Clip(prod)
				continue
			}
			for i, h := range m.heads {
				if h.Name == col {
					row[c] = Clip(rawByHead[i][b])
					break
				}
			}
		}
		out[b] = row
	}
	return out, nil
}

// forward 执行 embed → flatten → concat → 各塔前向，返回各塔原始输出。
func (m *MultiTaskDCN) forward(batch core.Batch) ([][]float64, int, error) {
	// (B, Fu, D) / (B, Fi, D)：保留特征轴，展平在本层做
	userEmb, err := m.embedding.Lookup(batch, m.userFeatures)
	if err != nil {
		return nil, 0, err
	}
	itemEmb, err := m.embedding.Lookup(batch, m.itemFeatures)
	if err != nil {
		return nil, 0, err
	}
	if len(userEmb) != len(itemEmb) {
		return nil, 0, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput,
			fmt.Sprintf("multitask: user/item batch size mismatch: %d vs %d", len(userEmb), len(itemEmb)))
	}

	batchSize := len(userEmb)
	inputs := make([][]float64, batchSize)
	for b := 0; b < batchSize; b++ {
		// flatten(user) ++ flatten(item) → (towerDims,)
		x := make([]float64, 0, m.towerDims)
		for _, row := range userEmb[b] {
			x = append(x, row...)
		}
		for _, row := range itemEmb[b] {
			x = append(x, row...)
		}
		inputs[b] = x
	}

	// 每个塔看到同一份拼接向量
	rawByHead := make([][]float64, len(m.towers))
	for i, tower := range m.towers {
		rawByHead[i] = tower.forwardBatch(inputs)
	}
	return rawByHead, batchSize, nil
}

var _ MultiTaskModel = (*MultiTaskDCN)(nil)
