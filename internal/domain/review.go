package domain

// DefaultAuthor 是派生评论的固定作者占位符。
const DefaultAuthor = "TMDB users"

// ReviewRecord 是由 MovieRow 派生的伪评论（简介 + 评分）。
// 只存在于一次流水线运行内。
type ReviewRecord struct {
	Author  string   `json:"author"`
	Content string   `json:"content"`
	Rating  *float64 `json:"rating"`
}

// CanonicalReview 是导出与推荐使用的 (author, content, rating) 三元组。
type CanonicalReview struct {
	Author  string   `json:"author"`
	Content string   `json:"content"`
	Rating  *float64 `json:"rating"`
}

// Rated 是推荐器的输入/输出单元：(title, rating)。
type Rated struct {
	Title  string  `json:"title"`
	Rating float64 `json:"rating"`
}

// Float 返回 v 的指针，便于构造可选评分。
func Float(v float64) *float64 { return &v }
