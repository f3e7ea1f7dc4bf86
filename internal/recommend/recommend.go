// Package recommend 从 (title, rating) 列表中挑出高分条目。
package recommend

import (
	"sort"

	"github.com/John-Robertt/mrev/internal/clean"
	"github.com/John-Robertt/mrev/internal/domain"
)

const (
	// DefaultThreshold 是 Basic 的默认阈值（0–5 分制）。
	DefaultThreshold = 4.0
	// DefaultMinRating 是 Critic 的默认阈值（0–10 分制）。
	DefaultMinRating = 7.0
)

// Recommender 是推荐能力的最小契约。
// entries 的每一项应为 [title, rating]；形态不符（长度不是 2、rating 非数值）的条目被跳过。
type Recommender interface {
	Recommend(entries [][]any) []domain.Rated
}

// Basic 返回 rating >= Threshold 的条目，保持输入顺序。
type Basic struct {
	Threshold float64 // 0 表示使用 DefaultThreshold
}

func (b Basic) Recommend(entries [][]any) []domain.Rated {
	th := b.Threshold
	if th == 0 {
		th = DefaultThreshold
	}
	return filter(entries, th)
}

// Critic 返回 rating >= MinRating 的条目，按 rating 降序（稳定排序，同分保持输入顺序）。
type Critic struct {
	MinRating float64 // 0 表示使用 DefaultMinRating
}

func (c Critic) Recommend(entries [][]any) []domain.Rated {
	th := c.MinRating
	if th == 0 {
		th = DefaultMinRating
	}
	out := filter(entries, th)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	return out
}

// New 按名称构造推荐器："basic"（默认）或 "critic"。
func New(name string, threshold, minRating float64) (Recommender, error) {
	switch name {
	case "", "basic":
		return Basic{Threshold: threshold}, nil
	case "critic":
		return Critic{MinRating: minRating}, nil
	default:
		return nil, domain.Errorf(domain.KindInvalidValue, "recommend.New", "未知推荐器：%q", name)
	}
}

func filter(entries [][]any, th float64) []domain.Rated {
	out := make([]domain.Rated, 0, len(entries))
	for _, e := range entries {
		r, ok := toRated(e)
		if !ok || !(r.Rating >= th) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func toRated(e []any) (domain.Rated, bool) {
	if len(e) != 2 {
		return domain.Rated{}, false
	}
	rating, ok := clean.Number(e[1])
	if !ok {
		return domain.Rated{}, false
	}
	title, _ := e[0].(string)
	return domain.Rated{Title: title, Rating: rating}, true
}

// Pairs 把 Rated 转回推荐器的输入形态。
func Pairs(rs []domain.Rated) [][]any {
	out := make([][]any, 0, len(rs))
	for _, r := range rs {
		out = append(out, []any{r.Title, r.Rating})
	}
	return out
}

// FromRows 把电影行转成 [title, vote_average] 条目；没有评分的行被跳过。
func FromRows(rows []domain.MovieRow) [][]any {
	out := make([][]any, 0, len(rows))
	for _, r := range rows {
		if r.VoteAverage == nil {
			continue
		}
		out = append(out, []any{r.DisplayTitle(), *r.VoteAverage})
	}
	return out
}
