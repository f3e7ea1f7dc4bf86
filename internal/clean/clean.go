// Package clean 提供评论列表的清洗与统计：去重、剔除不完整条目、平均分、简介截断、正面评论判定。
package clean

import (
	"encoding/json"
	"math"
)

// Clean 去掉不完整条目（nil、空串、数值 0、空切片、空 map），只保留字符串并按首次出现去重。
// 输出顺序与输入一致；不修改入参。
func Clean(items []any) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if isIncomplete(it) {
			continue
		}
		s, ok := it.(string)
		if !ok {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Strings 是 Clean 的强类型入口。
func Strings(items []string) []string {
	in := make([]any, len(items))
	for i, s := range items {
		in[i] = s
	}
	return Clean(in)
}

func isIncomplete(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case []any:
		return len(x) == 0
	case []string:
		return len(x) == 0
	case map[string]any:
		return len(x) == 0
	}
	if f, ok := Number(v); ok {
		return f == 0
	}
	return false
}

// Number 把常见数值类型转成 float64；bool 与非有限值（NaN/Inf）不算数值。
func Number(v any) (float64, bool) {
	f, ok := number(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func number(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case *float64:
		if x == nil {
			return 0, false
		}
		return *x, true
	}
	return 0, false
}

// Average 返回数值条目的算术平均；没有数值条目时返回 0。
func Average(ratings []any) float64 {
	var total float64
	n := 0
	for _, r := range ratings {
		f, ok := Number(r)
		if !ok {
			continue
		}
		total += f
		n++
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
}
