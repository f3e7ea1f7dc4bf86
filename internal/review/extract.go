package review

import (
	"strings"

	"github.com/John-Robertt/mrev/internal/domain"
)

// Extractor 把匹配标题的 MovieRow 转成伪评论。
//
// 零值可用：Author 为空时使用 domain.DefaultAuthor；StripMarkup=false 时简介原样（仅 trim）使用。
type Extractor struct {
	Author      string
	StripMarkup bool
}

// FindByTitle 使用默认 Extractor 查找评论。
func FindByTitle(title string, rows []domain.MovieRow) []domain.ReviewRecord {
	return Extractor{}.FindByTitle(title, rows)
}

// FindByTitle 为每条匹配 title 的行生成一条 ReviewRecord（保持 rows 顺序）。
// 没有匹配时返回空切片（不是错误）。
func (x Extractor) FindByTitle(title string, rows []domain.MovieRow) []domain.ReviewRecord {
	author := x.Author
	if strings.TrimSpace(author) == "" {
		author = domain.DefaultAuthor
	}

	matched := Match(title, rows)
	out := make([]domain.ReviewRecord, 0, len(matched))
	for _, r := range matched {
		content := strings.TrimSpace(r.Overview)
		if x.StripMarkup {
			content = PlainText(content)
		}
		var rating *float64
		if r.VoteAverage != nil {
			rating = domain.Float(*r.VoteAverage)
		}
		out = append(out, domain.ReviewRecord{
			Author:  author,
			Content: content,
			Rating:  rating,
		})
	}
	return out
}

// Match 返回标题匹配 query 的行（值拷贝）。
//
// 匹配规则：行标题（title 为空则 original_title）trim + 小写后非空，
// 且等于或包含 trim + 小写后的 query。空 query 匹配所有有标题的行。
func Match(query string, rows []domain.MovieRow) []domain.MovieRow {
	q := strings.ToLower(strings.TrimSpace(query))

	out := make([]domain.MovieRow, 0, 4)
	for _, r := range rows {
		name := strings.ToLower(strings.TrimSpace(r.DisplayTitle()))
		if name == "" {
			continue
		}
		if name == q || strings.Contains(name, q) {
			out = append(out, r)
		}
	}
	return out
}
