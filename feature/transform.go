package feature

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/convkit/core"
	"github.com/rushteam/convkit/pkg/conv"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用；
	// 初始化错误随 Once 一并锁存，后续调用都能看到根因
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境，定义变量
func initCELEnv() (*cel.Env, error) {
	env, err := cel.NewEnv(
		cel.Variable("item", cel.DynType),
		cel.Variable("rctx", cel.DynType),
	)
	return env, err
}

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = initCELEnv()
	})
	return celEnv, celEnvErr
}

// Transform 是派生特征：用 CEL (Common Expression Language) 表达式
// 从 item / rctx 计算出一个数值特征，写回 item.Features。
//
// 表达式语法（CEL 标准语法）：
//   - 数值运算：item.features.price * rctx.params.discount
//   - 条件：item.score > 0.7 ? 1.0 : 0.0
//   - 访问：item.meta.category_level, rctx.params.hour_of_day
//
// 表达式在构造期编译一次，Apply 可被并发调用。
type Transform struct {
	// Name 派生特征名，结果写入 item.Features[Name]
	Name string

	prg cel.Program
}

// NewTransform 编译一个派生特征表达式。
func NewTransform(name, expr string) (*Transform, error) {
	if name == "" {
		return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidConfig,
			"transform: feature name is empty")
	}
	if expr == "" {
		return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidConfig,
			fmt.Sprintf("transform %q: expression is empty", name))
	}

	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile %q: %v", name, issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program %q: %v", name, err)
	}

	return &Transform{Name: name, prg: prg}, nil
}

// Apply 对每个 item 求值并写入 item.Features[t.Name]。
// 表达式结果必须可转为数值，否则报错（fail-fast）。
func (t *Transform) Apply(rctx *core.RecommendContext, items []*core.Item) error {
	rctxInput := buildRctxInput(rctx)
	for _, it := range items {
		if it == nil {
			continue
		}
		out, _, err := t.prg.Eval(map[string]any{
			"item": buildItemInput(it),
			"rctx": rctxInput,
		})
		if err != nil {
			return fmt.Errorf("transform %q on item %d: %v", t.Name, it.ID, err)
		}
		v, ok := conv.ToFloat64(out.Value())
		if !ok {
			return core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidInput,
				fmt.Sprintf("transform %q: expression must return a number, got %T", t.Name, out.Value()))
		}
		if it.Features == nil {
			it.Features = make(map[string]float64)
		}
		it.Features[t.Name] = v
	}
	return nil
}

// buildItemInput 构建 CEL 表达式的 item 输入
func buildItemInput(it *core.Item) map[string]any {
	return map[string]any{
		"id":       it.ID,
		"score":    it.Score,
		"features": it.Features,
		"meta":     it.Meta,
	}
}

// buildRctxInput 构建 CEL 表达式的 rctx 输入
func buildRctxInput(rctx *core.RecommendContext) map[string]any {
	if rctx == nil {
		return map[string]any{}
	}
	return map[string]any{
		"user_id":      rctx.UserID,
		"device_id":    rctx.DeviceID,
		"scene":        rctx.Scene,
		"user_profile": rctx.UserProfile,
		"params":       rctx.Params,
	}
}
