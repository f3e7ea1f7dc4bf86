package clean

import (
	"fmt"
	"maps"

	"github.com/John-Robertt/mrev/internal/domain"
)

// Data 是一组待清洗的评论数据。Reviews 与 Ratings 至少要有一个。
type Data struct {
	Reviews []any
	Ratings []any
	Plot    string
}

// Dataset 把清洗、平均分、简介截断、正面判定组合在一起，并缓存最近一次结果。
type Dataset struct {
	data     Data
	detector Detector

	cleaned []string
	avg     *float64
}

// NewDataset 校验并保存 data 的浅拷贝。Reviews 与 Ratings 都为 nil 时返回 invalid_value。
func NewDataset(data Data, d Detector) (*Dataset, error) {
	if data.Reviews == nil && data.Ratings == nil {
		return nil, domain.Errorf(domain.KindInvalidValue, "clean.NewDataset", "至少需要 reviews 或 ratings")
	}
	return &Dataset{
		data: Data{
			Reviews: append([]any(nil), data.Reviews...),
			Ratings: append([]any(nil), data.Ratings...),
			Plot:    data.Plot,
		},
		detector: d,
	}, nil
}

// FromMap 从 {"reviews": [...], "ratings": [...], "plot": "..."} 形态构造（例如 JSON 解码结果）。
func FromMap(m map[string]any, d Detector) (*Dataset, error) {
	if m == nil {
		return nil, domain.Errorf(domain.KindInvalidInput, "clean.FromMap", "data 为 nil")
	}
	m = maps.Clone(m)
	var data Data
	if v, ok := m["reviews"]; ok {
		data.Reviews = asList(v)
	}
	if v, ok := m["ratings"]; ok {
		data.Ratings = asList(v)
	}
	if s, ok := m["plot"].(string); ok {
		data.Plot = s
	}
	return NewDataset(data, d)
}

func asList(v any) []any {
	switch x := v.(type) {
	case []any:
		return x
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out
	case []float64:
		out := make([]any, len(x))
		for i, f := range x {
			out[i] = f
		}
		return out
	}
	// 键存在但不是列表：视为空列表（仍满足“至少有一个键”）。
	return []any{}
}

// CleanReviews 清洗 reviews 并缓存结果。
func (ds *Dataset) CleanReviews() []string {
	ds.cleaned = Clean(ds.data.Reviews)
	return append([]string(nil), ds.cleaned...)
}

// AverageRating 计算平均分并缓存结果。
func (ds *Dataset) AverageRating() float64 {
	avg := Average(ds.data.Ratings)
	ds.avg = &avg
	return avg
}

func (ds *Dataset) SummarizePlot(maxLength int) (string, error) {
	return Summarize(ds.data.Plot, maxLength)
}

func (ds *Dataset) IsPositive(review string) bool {
	return ds.detector.IsPositive(review)
}

// Cleaned 返回最近一次 CleanReviews 的结果；未清洗时为 nil。
func (ds *Dataset) Cleaned() []string {
	if ds.cleaned == nil {
		return nil
	}
	return append([]string(nil), ds.cleaned...)
}

// Average 返回最近一次 AverageRating 的结果；未计算时 ok=false。
func (ds *Dataset) Average() (avg float64, ok bool) {
	if ds.avg == nil {
		return 0, false
	}
	return *ds.avg, true
}

// Summary 返回简短的中间状态描述。
func (ds *Dataset) Summary() string {
	avg := "N/A"
	if ds.avg != nil {
		avg = fmt.Sprintf("%g", *ds.avg)
	}
	return fmt.Sprintf("Cleaned %d reviews. Average rating: %s", len(ds.cleaned), avg)
}

func (ds *Dataset) String() string {
	avg := "N/A"
	if ds.avg != nil {
		avg = fmt.Sprintf("%.2f", *ds.avg)
	}
	return fmt.Sprintf("Dataset with %d cleaned reviews and average rating %s", len(ds.cleaned), avg)
}
