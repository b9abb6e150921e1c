// Package dsl 提供基于 CEL (Common Expression Language) 的规则表达式求值，
// 用于过滤节点的规则判定。
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/feedworks/feedkit/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
)

func initCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("item", cel.DynType),
		cel.Variable("label", cel.DynType),
		cel.Variable("rctx", cel.DynType),
	)
}

func getCELEnv() (*cel.Env, error) {
	var err error
	celEnvOnce.Do(func() {
		celEnv, err = initCELEnv()
	})
	return celEnv, err
}

// Eval 针对单个候选与排序上下文求值 CEL 布尔表达式。
//
// 表达式语法（CEL 标准语法）：
//   - 数值：item.score > 0.7 / item.features.predicted_ctr < 0.05
//   - 标签：label.rank_model == "feed_ranking"
//   - 元信息：item.meta.content_topic == "news"
//   - 逻辑：label.filtered == null && item.score > 0.5
//
// 注意：CEL 访问不存在的 key 会报错，存在性判断用 label.key != null。
type Eval struct {
	item *core.Item
	rctx *core.RankContext
	env  *cel.Env
}

// NewEval 创建一个新的表达式求值器。
func NewEval(item *core.Item, rctx *core.RankContext) *Eval {
	env, _ := getCELEnv()
	return &Eval{item: item, rctx: rctx, env: env}
}

// Evaluate 编译并执行表达式，返回布尔结果。空表达式恒为 true。
func (e *Eval) Evaluate(expr string) (bool, error) {
	if expr == "" {
		return true, nil
	}
	if e.env == nil {
		return false, fmt.Errorf("cel environment unavailable")
	}

	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return false, fmt.Errorf("compile error: %v", issues.Err())
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return false, fmt.Errorf("program error: %v", err)
	}

	out, _, err := prg.Eval(e.buildInput())
	if err != nil {
		return false, fmt.Errorf("eval error: %v", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// buildInput 把 Item / RankContext 展开为 CEL 的输入变量。
func (e *Eval) buildInput() map[string]any {
	labels := make(map[string]any)
	labelValues := make(map[string]any)
	if e.item != nil {
		for k, v := range e.item.Labels {
			labels[k] = map[string]any{"value": v.Value, "source": v.Source}
			// label.rank_model 直接取 value，简化常见写法
			labelValues[k] = v.Value
		}
	}

	item := map[string]any{}
	if e.item != nil {
		item = map[string]any{
			"id":       e.item.ID,
			"score":    e.item.Score,
			"features": e.item.Features,
			"meta":     e.item.Meta,
			"labels":   labels,
		}
	}

	rctx := map[string]any{}
	if e.rctx != nil {
		rctx = map[string]any{
			"user_id": e.rctx.UserID,
			"scene":   e.rctx.Scene,
			"user":    e.rctx.User,
			"params":  e.rctx.Params,
		}
	}

	return map[string]any{
		"item":  item,
		"label": labelValues,
		"rctx":  rctx,
	}
}
