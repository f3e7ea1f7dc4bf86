package review

import (
	"fmt"

	"github.com/John-Robertt/mrev/internal/domain"
)

// Table 累积原始评论，并缓存规范化结果。
//
// 约束：Add 会使缓存失效；Rows/Raw 返回拷贝，调用方无法修改内部状态。
type Table struct {
	raw  []any
	rows []domain.CanonicalReview // nil 表示尚未规范化（或缓存已失效）
}

func NewTable(records ...domain.ReviewRecord) *Table {
	t := &Table{}
	t.AddRecords(records)
	return t
}

// Add 追加任意形态的原始记录（规范化时按 Normalize 的规则处理）。
func (t *Table) Add(items []any) {
	t.raw = append(t.raw, items...)
	t.rows = nil
}

func (t *Table) AddRecords(records []domain.ReviewRecord) {
	if len(records) == 0 {
		return
	}
	items := make([]any, 0, len(records))
	for _, r := range records {
		items = append(items, r)
	}
	t.Add(items)
}

func (t *Table) Normalize() []domain.CanonicalReview {
	t.rows = Normalize(t.raw)
	return t.Rows()
}

// Rows 返回已规范化的行；尚未规范化时返回 nil。
func (t *Table) Rows() []domain.CanonicalReview {
	if t.rows == nil {
		return nil
	}
	out := make([]domain.CanonicalReview, len(t.rows))
	copy(out, t.rows)
	return out
}

func (t *Table) Raw() []any { return append([]any(nil), t.raw...) }

// Export 在需要时先规范化，再导出到 path。
func (t *Table) Export(path string) error {
	if t.rows == nil {
		t.Normalize()
	}
	return Export(t.rows, path)
}

// Len 返回已规范化的行数；未规范化时为 0。
func (t *Table) Len() int { return len(t.rows) }

func (t *Table) String() string {
	return fmt.Sprintf("ReviewTable(raw=%d, rows=%d)", len(t.raw), t.Len())
}

// Source 是能按标题给出评论的数据源（corpus.CSVSource / corpus.MemorySource 均满足）。
type Source interface {
	FindReviews(title string) ([]domain.ReviewRecord, error)
}

// Pipeline 组合一个 Source 与一个 Table：查评论 -> 入表 -> 规范化。
type Pipeline struct {
	source Source
	table  *Table
}

func NewPipeline(src Source) (*Pipeline, error) {
	if src == nil {
		return nil, domain.Errorf(domain.KindInvalidInput, "review.NewPipeline", "source 不能为空")
	}
	return &Pipeline{source: src, table: NewTable()}, nil
}

func (p *Pipeline) Table() *Table { return p.table }

// Build 把 title 的评论追加到表中并重新规范化，返回同一个 Table。
func (p *Pipeline) Build(title string) (*Table, error) {
	recs, err := p.source.FindReviews(title)
	if err != nil {
		return nil, err
	}
	p.table.AddRecords(recs)
	p.table.Normalize()
	return p.table, nil
}
