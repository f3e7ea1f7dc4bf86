package review

import (
	"strings"

	"github.com/John-Robertt/mrev/internal/clean"
	"github.com/John-Robertt/mrev/internal/domain"
)

// Normalize 把异构的评论记录转成 CanonicalReview（保持顺序，纯函数）。
//
// 支持的记录形态：
//   - domain.ReviewRecord / *domain.ReviewRecord
//   - map[string]any（例如从 JSON 解码得到）：author、content、author_details.rating
//
// 其它形态（字符串、数字、nil 等）静默跳过。
func Normalize(records []any) []domain.CanonicalReview {
	out := make([]domain.CanonicalReview, 0, len(records))
	for _, it := range records {
		switch v := it.(type) {
		case domain.ReviewRecord:
			out = append(out, fromRecord(v))
		case *domain.ReviewRecord:
			if v == nil {
				continue
			}
			out = append(out, fromRecord(*v))
		case map[string]any:
			out = append(out, fromMap(v))
		}
	}
	return out
}

// NormalizeRecords 是 Normalize 的强类型版本。
func NormalizeRecords(records []domain.ReviewRecord) []domain.CanonicalReview {
	out := make([]domain.CanonicalReview, 0, len(records))
	for _, r := range records {
		out = append(out, fromRecord(r))
	}
	return out
}

func fromRecord(r domain.ReviewRecord) domain.CanonicalReview {
	author := r.Author
	if author == "" {
		author = domain.DefaultAuthor
	}
	var rating *float64
	if v, ok := clean.Number(r.Rating); ok {
		rating = &v
	}
	return domain.CanonicalReview{
		Author:  author,
		Content: strings.TrimSpace(r.Content),
		Rating:  rating,
	}
}

func fromMap(m map[string]any) domain.CanonicalReview {
	author := domain.DefaultAuthor
	if a, ok := m["author"].(string); ok {
		author = a
	}
	content, _ := m["content"].(string)

	var rating *float64
	if details, ok := m["author_details"].(map[string]any); ok {
		if v, ok := clean.Number(details["rating"]); ok {
			rating = &v
		}
	}
	return domain.CanonicalReview{
		Author:  author,
		Content: strings.TrimSpace(content),
		Rating:  rating,
	}
}
