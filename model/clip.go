package model

// 输出截断边界。预估值在进入下游 log-loss 之前截到 (ClipMin, ClipMax)，
// 避免恰好为 0/1 的值产生 -Inf/+Inf；对校准良好的预估值数值上无影响。
// 命名常量而非魔法数字，便于单独调整与测试。
const (
	ClipMin = 1e-15
	ClipMax = 1 - 1e-15
)

// Clip 把 x 截断到 [ClipMin, ClipMax]。
func Clip(x float64) float64 {
	if x < ClipMin {
		return ClipMin
	}
	if x > ClipMax {
		return ClipMax
	}
	return x
}
