// Package dataset 是加载后电影表的只读视图，提供图表所需的聚合数据（不负责渲染）。
package dataset

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/John-Robertt/mrev/internal/domain"
	"github.com/John-Robertt/mrev/internal/tmdb"
)

// RequiredColumns 是构造 Table 时必须存在的列。
var RequiredColumns = []string{"title", "vote_average", "genres", "release_date"}

// Record 是表中一行（列名 -> 原始文本）。
type Record map[string]string

// Table 是带列校验的电影表。
type Table struct {
	columns []string
	records []Record
}

// New 校验列并拷贝 records。缺列或空表返回 invalid_value。
func New(columns []string, records []Record) (*Table, error) {
	const op = "dataset.New"
	have := make(map[string]bool, len(columns))
	for _, c := range columns {
		have[strings.TrimSpace(c)] = true
	}
	var missing []string
	for _, c := range RequiredColumns {
		if !have[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, domain.Errorf(domain.KindInvalidValue, op, "缺少必需列：%s", strings.Join(missing, ", "))
	}
	if len(records) == 0 {
		return nil, domain.Errorf(domain.KindInvalidValue, op, "数据表为空")
	}

	t := &Table{columns: append([]string(nil), columns...)}
	t.records = make([]Record, 0, len(records))
	for _, r := range records {
		t.records = append(t.records, cloneRecord(r))
	}
	return t, nil
}

// FromRows 由已加载的行构造 Table。
func FromRows(rows []domain.MovieRow) (*Table, error) {
	records := make([]Record, 0, len(rows))
	for _, r := range rows {
		rec := Record{
			"title":        r.DisplayTitle(),
			"genres":       r.Genres,
			"release_date": r.ReleaseDate,
			"release_year": strconv.Itoa(r.ReleaseYear),
			"vote_count":   strconv.Itoa(r.VoteCount),
			"overview":     r.Overview,
		}
		if r.VoteAverage != nil {
			rec["vote_average"] = strconv.FormatFloat(*r.VoteAverage, 'f', -1, 64)
		}
		records = append(records, rec)
	}
	cols := []string{"title", "vote_average", "vote_count", "genres", "release_date", "release_year", "overview"}
	return New(cols, records)
}

func (t *Table) Columns() []string { return append([]string(nil), t.columns...) }
func (t *Table) Len() int          { return len(t.records) }

// Records 返回所有行的拷贝。
func (t *Table) Records() []Record {
	out := make([]Record, len(t.records))
	for i, r := range t.records {
		out[i] = cloneRecord(r)
	}
	return out
}

func cloneRecord(r Record) Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func (r Record) rating() (float64, bool) {
	p := tmdb.ParseRating(r["vote_average"])
	if p == nil {
		return 0, false
	}
	return *p, true
}

// year 优先 release_year，否则取 release_date 前 4 位。
func (r Record) year() (int, bool) {
	if y, err := strconv.Atoi(strings.TrimSpace(r["release_year"])); err == nil && y > 0 {
		return y, true
	}
	d := strings.TrimSpace(r["release_date"])
	if len(d) < 4 {
		return 0, false
	}
	y, err := strconv.Atoi(d[:4])
	if err != nil {
		return 0, false
	}
	return y, true
}

func (r Record) genres() []string {
	var out []string
	for _, g := range strings.Split(r["genres"], ",") {
		g = strings.TrimSpace(g)
		if g != "" {
			out = append(out, g)
		}
	}
	return out
}

// Ranked 是 TopMovies 的一项。
type Ranked struct {
	Title  string  `json:"title"`
	Rating float64 `json:"rating"`
}

// TopMovies 返回评分最高的 n 部（同分保持表内顺序）；没有评分的行不参与。
func (t *Table) TopMovies(n int) []Ranked {
	out := make([]Ranked, 0, len(t.records))
	for _, r := range t.records {
		v, ok := r.rating()
		if !ok {
			continue
		}
		out = append(out, Ranked{Title: r["title"], Rating: v})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	if n >= 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// Count 是 (名称, 次数) 计数。
type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// GenrePopularity 统计每个类型出现的次数，按次数降序、名称升序。
func (t *Table) GenrePopularity() []Count {
	m := map[string]int{}
	for _, r := range t.records {
		for _, g := range r.genres() {
			m[g]++
		}
	}
	out := make([]Count, 0, len(m))
	for g, n := range m {
		out = append(out, Count{Name: g, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Bin 是直方图的一个区间 [Low, High)；最后一个区间包含 High。
type Bin struct {
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Count int     `json:"count"`
}

// RatingDistribution 把评分按等宽区间分成 bins 份。bins <= 0 返回 invalid_value；没有评分时返回空切片。
func (t *Table) RatingDistribution(bins int) ([]Bin, error) {
	if bins <= 0 {
		return nil, domain.Errorf(domain.KindInvalidValue, "dataset.RatingDistribution", "bins 必须大于 0：%d", bins)
	}
	var vals []float64
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, r := range t.records {
		v, ok := r.rating()
		if !ok {
			continue
		}
		vals = append(vals, v)
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if len(vals) == 0 {
		return []Bin{}, nil
	}

	width := (hi - lo) / float64(bins)
	out := make([]Bin, bins)
	for i := range out {
		out[i].Low = lo + float64(i)*width
		out[i].High = lo + float64(i+1)*width
	}
	out[bins-1].High = hi
	for _, v := range vals {
		i := bins - 1
		if width > 0 {
			i = int((v - lo) / width)
			if i < 0 {
				i = 0
			}
			if i >= bins {
				i = bins - 1
			}
		}
		out[i].Count++
	}
	return out, nil
}

// YearCount 是某一年的发行数量。
type YearCount struct {
	Year  int            `json:"year"`
	Total int            `json:"total"`
	Genre map[string]int `json:"genre,omitempty"`
}

// ReleasesPerYear 按年份统计发行数量（年份升序）。
// 传入 genres 时只统计包含这些类型之一的行，并给出每个类型的分项。
func (t *Table) ReleasesPerYear(genres ...string) []YearCount {
	want := map[string]bool{}
	for _, g := range genres {
		if g = strings.TrimSpace(g); g != "" {
			want[strings.ToLower(g)] = true
		}
	}

	byYear := map[int]*YearCount{}
	for _, r := range t.records {
		y, ok := r.year()
		if !ok {
			continue
		}
		var hit []string
		if len(want) > 0 {
			for _, g := range r.genres() {
				if want[strings.ToLower(g)] {
					hit = append(hit, g)
				}
			}
			if len(hit) == 0 {
				continue
			}
		}
		yc := byYear[y]
		if yc == nil {
			yc = &YearCount{Year: y}
			byYear[y] = yc
		}
		yc.Total++
		for _, g := range hit {
			if yc.Genre == nil {
				yc.Genre = map[string]int{}
			}
			yc.Genre[g]++
		}
	}

	out := make([]YearCount, 0, len(byYear))
	for _, yc := range byYear {
		out = append(out, *yc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}
