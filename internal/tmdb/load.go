package tmdb

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/John-Robertt/mrev/internal/domain"
)

const (
	DefaultYearMin  = 2010
	DefaultYearMax  = 2025
	DefaultMinVotes = 1
)

// Filter 是加载阶段的保留策略：年份闭区间 + 最小票数。
type Filter struct {
	YearMin  int
	YearMax  int
	MinVotes int
}

func DefaultFilter() Filter {
	return Filter{YearMin: DefaultYearMin, YearMax: DefaultYearMax, MinVotes: DefaultMinVotes}
}

func (f Filter) Validate() error {
	if f.YearMin > f.YearMax {
		return domain.Errorf(domain.KindInvalidValue, "tmdb.Filter", "year_min（%d）不能大于 year_max（%d）", f.YearMin, f.YearMax)
	}
	return nil
}

// String 用作缓存键的一部分：过滤参数一变，键就变。
func (f Filter) String() string {
	return fmt.Sprintf("year=%d..%d votes>=%d", f.YearMin, f.YearMax, f.MinVotes)
}

func (f Filter) keep(year int, yearOK bool, votes int) bool {
	return yearOK && year >= f.YearMin && year <= f.YearMax && votes >= f.MinVotes
}

// Load 读取 TMDB 导出的 CSV，按 Filter 保留行。
//
// 规则：
//   - 首行必须是表头；只认识 title/original_title/vote_average/vote_count/genres/
//     release_date/release_year/overview，其它列忽略
//   - 年份优先取 release_year（整数），否则取 release_date 前 4 位（必须全是数字）
//   - vote_count 缺失/非数字按 0 处理
//
// 每次调用都重新读文件，不做跨调用缓存（缓存由持有者自己决定）。
func Load(path string, f Filter) ([]domain.MovieRow, error) {
	const op = "tmdb.Load"
	if strings.TrimSpace(path) == "" {
		return nil, domain.Errorf(domain.KindInvalidInput, op, "path 不能为空")
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &domain.Error{Kind: domain.KindNotFound, Op: op, Err: err}
		}
		return nil, &domain.Error{Kind: domain.KindIOFailed, Op: op, Err: err}
	}
	defer file.Close()

	return Read(file, f)
}

// Read 与 Load 相同，但从任意 reader 读取（便于测试与内存数据）。
func Read(r io.Reader, f Filter) ([]domain.MovieRow, error) {
	const op = "tmdb.Read"
	if err := f.Validate(); err != nil {
		return nil, err
	}

	cr := csv.NewReader(bufio.NewReader(r))
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return []domain.MovieRow{}, nil
	}
	if err != nil {
		return nil, readError(op, err)
	}
	cols := indexColumns(header)

	rows := make([]domain.MovieRow, 0, 256)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, readError(op, err)
		}

		year, yearOK := releaseYear(cols.get(rec, colReleaseYear), cols.get(rec, colReleaseDate))
		votes := parseVotes(cols.get(rec, colVoteCount))
		if !f.keep(year, yearOK, votes) {
			continue
		}

		rows = append(rows, domain.MovieRow{
			Title:         strings.TrimSpace(cols.get(rec, colTitle)),
			OriginalTitle: strings.TrimSpace(cols.get(rec, colOriginalTitle)),
			VoteAverage:   ParseRating(cols.get(rec, colVoteAverage)),
			VoteCount:     votes,
			ReleaseYear:   year,
			ReleaseDate:   strings.TrimSpace(cols.get(rec, colReleaseDate)),
			Genres:        strings.TrimSpace(cols.get(rec, colGenres)),
			Overview:      cols.get(rec, colOverview),
		})
	}
	return rows, nil
}

// ParseRating 把 vote_average 文本解析为可选评分：空串、无法解析或非有限值（NaN/Inf）返回 nil。
func ParseRating(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func releaseYear(yearField, dateField string) (int, bool) {
	if y := strings.TrimSpace(yearField); y != "" {
		if n, err := strconv.Atoi(y); err == nil {
			return n, true
		}
	}
	d := strings.TrimSpace(dateField)
	if len(d) < 4 {
		return 0, false
	}
	prefix := d[:4]
	for i := 0; i < len(prefix); i++ {
		if prefix[i] < '0' || prefix[i] > '9' {
			return 0, false
		}
	}
	n, _ := strconv.Atoi(prefix)
	return n, true
}

func parseVotes(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func readError(op string, err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &domain.Error{Kind: domain.KindInvalidValue, Op: op, Err: err}
	}
	return &domain.Error{Kind: domain.KindIOFailed, Op: op, Err: err}
}
