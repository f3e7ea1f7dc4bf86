package clean

import (
	"strings"

	"github.com/John-Robertt/mrev/internal/domain"
)

// DefaultSummaryLength 是简介截断的默认长度（按字符计）。
const DefaultSummaryLength = 100

const ellipsis = "..."

// Summarize 把 plot 截断到 maxLength 个字符以内；发生截断时以 "..." 结尾。
// maxLength <= 0 返回 invalid_value。
func Summarize(plot string, maxLength int) (string, error) {
	if maxLength <= 0 {
		return "", domain.Errorf(domain.KindInvalidValue, "clean.Summarize", "max_length 必须大于 0：%d", maxLength)
	}
	r := []rune(plot)
	if len(r) <= maxLength {
		return plot, nil
	}
	// 长度不足以放下省略号时，只保留省略号的前缀，保证不超长。
	if maxLength < len(ellipsis) {
		return ellipsis[:maxLength], nil
	}
	return string(r[:maxLength-len(ellipsis)]) + ellipsis, nil
}

// DefaultKeywords 是默认的正面关键词集合。
var DefaultKeywords = []string{
	"good", "great", "excellent", "amazing", "fantastic",
	"love", "wonderful", "best", "awesome", "positive",
}

// Detector 通过关键词子串匹配判断评论是否正面（大小写不敏感）。
type Detector struct {
	Keywords []string // 为空时使用 DefaultKeywords
}

func (d Detector) IsPositive(text string) bool {
	kw := d.Keywords
	if len(kw) == 0 {
		kw = DefaultKeywords
	}
	lower := strings.ToLower(text)
	for _, k := range kw {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// Positive 返回 reviews 中被判为正面的条目（保持顺序）。
func (d Detector) Positive(reviews []string) []string {
	out := make([]string, 0, len(reviews))
	for _, r := range reviews {
		if d.IsPositive(r) {
			out = append(out, r)
		}
	}
	return out
}
