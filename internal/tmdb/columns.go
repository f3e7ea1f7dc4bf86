package tmdb

import "strings"

const (
	colTitle         = "title"
	colOriginalTitle = "original_title"
	colVoteAverage   = "vote_average"
	colVoteCount     = "vote_count"
	colGenres        = "genres"
	colReleaseDate   = "release_date"
	colReleaseYear   = "release_year"
	colOverview      = "overview"
)

// columns 把表头名映射到下标；同名列只认第一次出现。
type columns map[string]int

func indexColumns(header []string) columns {
	c := make(columns, len(header))
	for i, h := range header {
		if i == 0 {
			// Excel 导出的 CSV 常带 UTF-8 BOM。
			h = strings.TrimPrefix(h, "\ufeff")
		}
		h = strings.TrimSpace(h)
		if _, ok := c[h]; ok {
			continue
		}
		c[h] = i
	}
	return c
}

// get 返回列值；列不存在或该行字段不足时返回空串。
func (c columns) get(rec []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return rec[i]
}
