// Package corpus 提供电影行的来源：文件（CSV）或内存。
package corpus

import (
	"fmt"
	"strings"

	"github.com/John-Robertt/mrev/internal/domain"
	"github.com/John-Robertt/mrev/internal/review"
	"github.com/John-Robertt/mrev/internal/tmdb"
)

// Source 是电影行来源的能力契约。返回的切片都是拷贝。
type Source interface {
	Load() ([]domain.MovieRow, error)
	FindReviews(title string) ([]domain.ReviewRecord, error)
	Len() int
}

var (
	_ Source        = (*CSVSource)(nil)
	_ Source        = (*MemorySource)(nil)
	_ review.Source = (*CSVSource)(nil)
	_ review.Source = (*MemorySource)(nil)
)

// CSVSource 从 TMDB 导出的 CSV 加载电影行。
// 首次 FindReviews/Len 时惰性加载；结果缓存到 SetFilter 改变过滤条件为止。
type CSVSource struct {
	path      string
	filter    tmdb.Filter
	extractor review.Extractor

	rows   []domain.MovieRow
	loaded bool
}

// NewCSV 构造文件来源；path 为空返回 invalid_input，过滤条件非法返回 invalid_value。
func NewCSV(path string, f tmdb.Filter, x review.Extractor) (*CSVSource, error) {
	if strings.TrimSpace(path) == "" {
		return nil, domain.Errorf(domain.KindInvalidInput, "corpus.NewCSV", "路径为空")
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &CSVSource{path: path, filter: f, extractor: x}, nil
}

func (s *CSVSource) Path() string        { return s.path }
func (s *CSVSource) Filter() tmdb.Filter { return s.filter }

// SetFilter 更新过滤条件；条件确实变化时丢弃缓存。
func (s *CSVSource) SetFilter(f tmdb.Filter) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if f == s.filter {
		return nil
	}
	s.filter = f
	s.rows = nil
	s.loaded = false
	return nil
}

// Load 总是重新读取文件，并刷新缓存。
func (s *CSVSource) Load() ([]domain.MovieRow, error) {
	rows, err := tmdb.Load(s.path, s.filter)
	if err != nil {
		return nil, err
	}
	s.rows = rows
	s.loaded = true
	return cloneRows(rows), nil
}

func (s *CSVSource) ensure() error {
	if s.loaded {
		return nil
	}
	_, err := s.Load()
	return err
}

func (s *CSVSource) FindReviews(title string) ([]domain.ReviewRecord, error) {
	if err := s.ensure(); err != nil {
		return nil, err
	}
	return s.extractor.FindByTitle(title, s.rows), nil
}

// Len 返回缓存的行数；尚未加载时为 0。
func (s *CSVSource) Len() int { return len(s.rows) }

// MemorySource 持有一份已在内存中的电影行（例如来自缓存）。
type MemorySource struct {
	rows      []domain.MovieRow
	extractor review.Extractor
}

// NewMemory 拷贝并补全 rows：title 为空时回退 original_title；
// release_date 为空且 release_year 在 [1800, 3000] 内时补成 YYYY-01-01。
func NewMemory(rows []domain.MovieRow, x review.Extractor) *MemorySource {
	out := make([]domain.MovieRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, normalizeRow(r))
	}
	return &MemorySource{rows: out, extractor: x}
}

func normalizeRow(r domain.MovieRow) domain.MovieRow {
	if strings.TrimSpace(r.Title) == "" {
		r.Title = r.OriginalTitle
	}
	if r.ReleaseDate == "" && r.ReleaseYear >= 1800 && r.ReleaseYear <= 3000 {
		r.ReleaseDate = fmt.Sprintf("%04d-01-01", r.ReleaseYear)
	}
	if r.VoteAverage != nil {
		r.VoteAverage = domain.Float(*r.VoteAverage)
	}
	return r
}

func (s *MemorySource) Load() ([]domain.MovieRow, error) { return cloneRows(s.rows), nil }

func (s *MemorySource) FindReviews(title string) ([]domain.ReviewRecord, error) {
	return s.extractor.FindByTitle(title, s.rows), nil
}

func (s *MemorySource) Len() int { return len(s.rows) }

// cloneRows 深拷贝（VoteAverage 是指针）。
func cloneRows(rows []domain.MovieRow) []domain.MovieRow {
	out := make([]domain.MovieRow, len(rows))
	for i, r := range rows {
		if r.VoteAverage != nil {
			r.VoteAverage = domain.Float(*r.VoteAverage)
		}
		out[i] = r
	}
	return out
}
