package rank

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/convkit/core"
	"github.com/rushteam/convkit/feature"
	"github.com/rushteam/convkit/model"
	"github.com/rushteam/convkit/pipeline"
	"github.com/rushteam/convkit/pkg/utils"
)

// MultiTaskNode 是使用多任务模型（ESMM 族）打分的排序 Node。
//
// 每个 item 得到 cvr/ctr/ctcvr 等多列预估值，按配置权重加权求和后
// 更新 item.Score 并降序排序；各列预估值以 Label 形式记录，便于
// explain / 观测。
//
// 使用示例：
//
//	m, _ := model.NewDCN4ESMM(userSpecs, itemSpecs, cvrCfg, ctrCfg)
//	node := &rank.MultiTaskNode{
//	    Model:     m,
//	    Assembler: feature.NewAssembler(userSpecs, itemSpecs),
//	    HeadWeights: map[string]float64{
//	        model.HeadCTR:   0.3,
//	        model.HeadCTCVR: 0.7,
//	    },
//	}
type MultiTaskNode struct {
	Model     model.MultiTaskModel
	Assembler *feature.Assembler

	// HeadWeights 各输出列的加权系数：Score = Σ w_h · pred_h。
	// 为空时默认取 ctcvr 列（模型无 ctcvr 列则取第一列）。
	HeadWeights map[string]float64

	// ChunkSize 大候选集的分块大小，块间并发打分。
	// 模型的 Predict 可重入（前向只读参数），块级并发安全。
	// 0 表示整批一次打分。
	ChunkSize int
}

func (n *MultiTaskNode) Name() string        { return "rank.multitask" }
func (n *MultiTaskNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *MultiTaskNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.Model == nil || n.Assembler == nil || len(items) == 0 {
		return items, nil
	}

	valid := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it != nil {
			valid = append(valid, it)
		}
	}
	if len(valid) == 0 {
		return items, nil
	}

	preds, err := n.predictAll(ctx, rctx, valid)
	if err != nil {
		return nil, err
	}

	heads := n.Model.Heads()
	weights := n.effectiveWeights(heads)

	for i, it := range valid {
		score := 0.0
		for c, head := range heads {
			score += weights[head] * preds[i][c]
			it.PutLabel("mt_"+head, utils.Label{Value: fmt.Sprintf("%.6f", preds[i][c]), Source: "rank"})
		}
		it.Score = score
		it.PutLabel("rank_model", utils.Label{Value: n.Model.Name(), Source: "rank"})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i] == nil {
			return false
		}
		if items[j] == nil {
			return true
		}
		return items[i].Score > items[j].Score
	})
	return items, nil
}

// predictAll 组装 batch 并打分；候选集超过 ChunkSize 时分块并发。
func (n *MultiTaskNode) predictAll(ctx context.Context, rctx *core.RecommendContext, items []*core.Item) ([][]float64, error) {
	if n.ChunkSize <= 0 || len(items) <= n.ChunkSize {
		batch, err := n.Assembler.Assemble(rctx, items)
		if err != nil {
			return nil, err
		}
		return n.Model.Predict(batch)
	}

	nChunks := (len(items) + n.ChunkSize - 1) / n.ChunkSize
	results := make([][][]float64, nChunks)
	eg, _ := errgroup.WithContext(ctx)

	for c := 0; c < nChunks; c++ {
		c := c
		lo := c * n.ChunkSize
		hi := lo + n.ChunkSize
		if hi > len(items) {
			hi = len(items)
		}
		chunk := items[lo:hi]

		eg.Go(func() error {
			batch, err := n.Assembler.Assemble(rctx, chunk)
			if err != nil {
				return err
			}
			out, err := n.Model.Predict(batch)
			if err != nil {
				return err
			}
			results[c] = out
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	preds := make([][]float64, 0, len(items))
	for _, r := range results {
		preds = append(preds, r...)
	}
	return preds, nil
}

// effectiveWeights 补全加权配置：未配置时默认 ctcvr（或第一列）权重 1。
// 返回副本，调用方改动不回写节点配置。
func (n *MultiTaskNode) effectiveWeights(heads []string) map[string]float64 {
	if len(n.HeadWeights) > 0 {
		w := make(map[string]float64, len(n.HeadWeights))
		for h, v := range n.HeadWeights {
			w[h] = v
		}
		return w
	}
	w := make(map[string]float64, 1)
	for _, h := range heads {
		if h == model.HeadCTCVR {
			w[h] = 1.0
			return w
		}
	}
	if len(heads) > 0 {
		w[heads[0]] = 1.0
	}
	return w
}

// 确保 MultiTaskNode 实现 pipeline.Node
var _ pipeline.Node = (*MultiTaskNode)(nil)
