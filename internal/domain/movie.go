package domain

// MovieRow 是一条通过年份/票数过滤后的电影元数据。
//
// 约束：
// - 由 tmdb.Load 创建，之后只读（调用方拿到的是值拷贝）
// - ReleaseYear 一定可确定（不可确定的行在加载阶段已被丢弃）
type MovieRow struct {
	Title         string   `json:"title"`
	OriginalTitle string   `json:"original_title,omitempty"`
	VoteAverage   *float64 `json:"vote_average"`
	VoteCount     int      `json:"vote_count"`
	ReleaseYear   int      `json:"release_year"`
	ReleaseDate   string   `json:"release_date,omitempty"`
	Genres        string   `json:"genres"` // 逗号分隔
	Overview      string   `json:"overview"`
}

// DisplayTitle 返回用于匹配/展示的标题：title 为空时回退 original_title。
func (r MovieRow) DisplayTitle() string {
	if r.Title != "" {
		return r.Title
	}
	return r.OriginalTitle
}
