package domain

import (
	"encoding/json"
	"time"
)

const (
	StatusOK     = "ok"
	StatusEmpty  = "empty" // 没有匹配的电影（不是错误）
	StatusFailed = "failed"
)

// RunReport 是对外稳定输出（stdout JSON / cache/reports/<run_id>.json）的结构。
type RunReport struct {
	RunID  string `json:"run_id"`
	Title  string `json:"title"`
	Input  string `json:"input"`
	DryRun bool   `json:"dry_run"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Status    string `json:"status"`
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`

	Summary         ReportSummary     `json:"summary"`
	Reviews         []CanonicalReview `json:"reviews"`
	Recommendations []Rated           `json:"recommendations"`
	Output          string            `json:"output"`
}

type ReportSummary struct {
	Rows          int     `json:"rows"`
	CacheHit      bool    `json:"cache_hit"`
	Matched       int     `json:"matched"`
	Unique        int     `json:"unique"`   // 去重后的评论正文数
	Positive      int     `json:"positive"` // 命中正面关键词的评论数
	Exported      int     `json:"exported"`
	Recommended   int     `json:"recommended"`
	AverageRating float64 `json:"average_rating"`
}

// Fail 把报告标记为失败（只记录第一次失败）。
func (r *RunReport) Fail(code, msg string) {
	if r.Status == StatusFailed {
		return
	}
	r.Status = StatusFailed
	r.ErrorCode = code
	r.ErrorMsg = msg
}

// Finalize 做三件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) nil 切片归一为空切片（JSON 输出 [] 而不是 null）
// 3) summary 的计数由明细计算得出
func (r *RunReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	if r.Reviews == nil {
		r.Reviews = []CanonicalReview{}
	}
	if r.Recommendations == nil {
		r.Recommendations = []Rated{}
	}
	r.Summary.Recommended = len(r.Recommendations)

	if r.Status == "" {
		if r.Summary.Matched == 0 {
			r.Status = StatusEmpty
		} else {
			r.Status = StatusOK
		}
	}
}

// MarshalJSON 仅用于集中约束输出的稳定性（避免未来不小心引入非确定字段）。
// 当前只是透传 encoding/json 的默认行为。
func (r RunReport) MarshalJSON() ([]byte, error) {
	type Alias RunReport
	return json.Marshal(Alias(r))
}
