package clean

import (
	"slices"
	"strings"
)

// Dedupe 按整条内容去重（逐字段相等），保留首次出现；返回新切片，条目本身也是拷贝。
func Dedupe(entries [][]string) [][]string {
	out := make([][]string, 0, len(entries))
	for _, e := range entries {
		if slices.ContainsFunc(out, func(o []string) bool { return slices.Equal(o, e) }) {
			continue
		}
		out = append(out, slices.Clone(e))
	}
	return out
}

// RemoveSpoilers 去掉任一字段包含 "spoiler"（大小写不敏感）的条目。
func RemoveSpoilers(entries [][]string) [][]string {
	out := make([][]string, 0, len(entries))
	for _, e := range entries {
		if hasSpoiler(e) {
			continue
		}
		out = append(out, slices.Clone(e))
	}
	return out
}

func hasSpoiler(e []string) bool {
	for _, f := range e {
		if strings.Contains(strings.ToLower(f), "spoiler") {
			return true
		}
	}
	return false
}
