package clean

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"

	"github.com/John-Robertt/mrev/internal/domain"
)

func TestClean_DropsSentinelsAndDuplicates(t *testing.T) {
	in := []any{"Great movie!", nil, "So-so.", "Great movie!", "", 0, 0.0, []any{}, map[string]any{}, 3, true, "Bad"}
	got := Clean(in)
	want := []string{"Great movie!", "So-so.", "Bad"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Clean 结果不符合预期：%#v", got)
	}
}

func TestClean_Idempotent(t *testing.T) {
	inputs := [][]any{
		{"a", "b", "a", nil, ""},
		{},
		{1, 2, 3},
		{"x", []any{"x"}, map[string]any{"k": 1}, "y", "x"},
	}
	for _, in := range inputs {
		once := Clean(in)
		twice := Strings(once)
		if !reflect.DeepEqual(once, twice) {
			t.Fatalf("Clean 不是幂等的：once=%#v twice=%#v", once, twice)
		}
		seen := map[string]bool{}
		for _, s := range once {
			if s == "" {
				t.Fatalf("输出不应包含空串：%#v", once)
			}
			if seen[s] {
				t.Fatalf("输出不应包含重复值：%#v", once)
			}
			seen[s] = true
		}
	}
}

func TestClean_EmptyInputReturnsNonNil(t *testing.T) {
	got := Clean(nil)
	if got == nil || len(got) != 0 {
		t.Fatalf("期望非 nil 空切片，实际：%#v", got)
	}
}

func TestAverage(t *testing.T) {
	got := Average([]any{4.5, 3.0, 5.0, nil, "bad", 4.0})
	if got != 4.125 {
		t.Fatalf("期望 4.125，实际：%v", got)
	}
	if got := Average([]any{"x", nil, true}); got != 0 {
		t.Fatalf("没有数值时期望 0，实际：%v", got)
	}
	if got := Average([]any{1, json.Number("2"), float32(3)}); got != 2 {
		t.Fatalf("混合数值类型期望 2，实际：%v", got)
	}
}

func TestNumber_RejectsNonFinite(t *testing.T) {
	for _, v := range []any{math.NaN(), math.Inf(1), float32(math.Inf(-1)), json.Number("NaN")} {
		if _, ok := Number(v); ok {
			t.Fatalf("%v 不应算作数值", v)
		}
	}
	if got := Average([]any{4.0, math.NaN(), 6, math.Inf(1)}); got != 5 {
		t.Fatalf("Average 应忽略非有限值，实际 %v", got)
	}
}

func TestSummarize(t *testing.T) {
	plot := "In a world where technology has advanced beyond imagination, a young hero rises."

	got, err := Summarize(plot, 50)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len([]rune(got)) > 50 || got[len(got)-3:] != "..." {
		t.Fatalf("截断结果不符合预期：%q", got)
	}
	if got != plot[:47]+"..." {
		t.Fatalf("截断前缀不一致：%q", got)
	}

	same, err := Summarize("short", 5)
	if err != nil || same != "short" {
		t.Fatalf("未超长时应原样返回：%q err=%v", same, err)
	}

	tiny, err := Summarize("abcdef", 2)
	if err != nil || tiny != ".." {
		t.Fatalf("maxLength<3 时期望 \"..\"，实际：%q err=%v", tiny, err)
	}

	// 按字符而不是字节计数
	cjk, err := Summarize("一二三四五六七八", 6)
	if err != nil || cjk != "一二三..." {
		t.Fatalf("多字节截断不符合预期：%q err=%v", cjk, err)
	}
}

func TestSummarize_NonPositiveLength(t *testing.T) {
	for _, n := range []int{0, -1} {
		_, err := Summarize("plot", n)
		if domain.KindOf(err) != domain.KindInvalidValue {
			t.Fatalf("maxLength=%d 期望 invalid_value，实际：%v", n, err)
		}
	}
}

func TestDetector(t *testing.T) {
	var d Detector
	if !d.IsPositive("An AMAZING film") {
		t.Fatalf("期望判定为正面")
	}
	if d.IsPositive("dull and slow") {
		t.Fatalf("不期望判定为正面")
	}

	custom := Detector{Keywords: []string{"Brilliant"}}
	if custom.IsPositive("great") || !custom.IsPositive("simply brilliant") {
		t.Fatalf("自定义关键词应替换默认集合")
	}

	got := d.Positive([]string{"good", "meh", "the best"})
	if !reflect.DeepEqual(got, []string{"good", "the best"}) {
		t.Fatalf("Positive 结果不符合预期：%#v", got)
	}
}

func TestDedupeAndRemoveSpoilers(t *testing.T) {
	in := [][]string{
		{"Loved the movie!!", "5"},
		{"Spoiler! lebron dies", "3"},
		{"Loved the movie!!", "5"},
		{"Amazing plot twist", "5"},
		{"Heat", "4", "minor SPOILERS ahead"},
	}

	d := Dedupe(in)
	if len(d) != 4 {
		t.Fatalf("去重后期望 4 条，实际：%d", len(d))
	}
	d[0][0] = "mutated"
	if in[0][0] != "Loved the movie!!" {
		t.Fatalf("Dedupe 不应共享底层切片")
	}

	got := RemoveSpoilers(Dedupe(in))
	want := [][]string{{"Loved the movie!!", "5"}, {"Amazing plot twist", "5"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("RemoveSpoilers 结果不符合预期：%#v", got)
	}
}
