package run

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/John-Robertt/mrev/internal/clean"
	"github.com/John-Robertt/mrev/internal/config"
	"github.com/John-Robertt/mrev/internal/corpus"
	"github.com/John-Robertt/mrev/internal/domain"
	"github.com/John-Robertt/mrev/internal/infra/cache"
	"github.com/John-Robertt/mrev/internal/recommend"
	"github.com/John-Robertt/mrev/internal/review"
)

// ErrCodeCanceled 表示 ctx 在流水线中途被取消。
const ErrCodeCanceled = "canceled"

// Execute 执行一次 run（dry-run/apply），并返回对外稳定的 RunReport。
// 任一阶段失败都降级为报告级 error_code/error_msg，不 panic。
func Execute(ctx context.Context, eff config.EffectiveConfig) domain.RunReport {
	return ExecuteWithObserver(ctx, eff, nil)
}

// ExecuteWithObserver 与 Execute 相同，但允许传入 Observer 以输出阶段信息。
func ExecuteWithObserver(ctx context.Context, eff config.EffectiveConfig, obs Observer) domain.RunReport {
	started := time.Now().UTC()

	if obs != nil {
		obs.OnStart(eff)
	}

	rr := domain.RunReport{
		RunID:     uuid.NewString(),
		Title:     eff.Title,
		Input:     eff.Input,
		DryRun:    !eff.Apply,
		StartedAt: started,
	}
	finish := func() domain.RunReport {
		rr.FinishedAt = time.Now().UTC()
		rr.Finalize()
		return rr
	}
	phase := func(name string, fields map[string]any, since time.Time) {
		if obs != nil {
			obs.OnPhaseDone(name, fields, time.Since(since))
		}
	}
	canceled := func() bool {
		if err := ctx.Err(); err != nil {
			rr.Fail(ErrCodeCanceled, err.Error())
			return true
		}
		return false
	}

	extractor := review.Extractor{Author: eff.Author, StripMarkup: eff.StripMarkup}
	store := cache.New(eff.CacheDir, !eff.Apply)

	// load
	t0 := time.Now()
	rows, hit, err := LoadRows(eff, store)
	if err != nil {
		rr.Fail(errorCode(err), fmt.Sprintf("加载失败：%v", err))
		return finish()
	}
	rr.Summary.Rows = len(rows)
	rr.Summary.CacheHit = hit
	phase("load", map[string]any{"rows": len(rows), "cache_hit": hit}, t0)
	if canceled() {
		return finish()
	}

	// extract
	t0 = time.Now()
	src := corpus.NewMemory(rows, extractor)
	records, err := src.FindReviews(eff.Title)
	if err != nil {
		rr.Fail(errorCode(err), fmt.Sprintf("提取失败：%v", err))
		return finish()
	}
	rr.Summary.Matched = len(records)
	phase("extract", map[string]any{"matched": len(records)}, t0)
	if canceled() {
		return finish()
	}

	// normalize
	t0 = time.Now()
	tbl := review.NewTable(records...)
	reviews := tbl.Normalize()
	stats, err := reviewStats(reviews, eff)
	if err != nil {
		rr.Fail(errorCode(err), fmt.Sprintf("规范化失败：%v", err))
		return finish()
	}
	rr.Summary.Unique = stats.unique
	rr.Summary.Positive = stats.positive
	rr.Summary.AverageRating = stats.average
	rr.Reviews = stats.display
	phase("normalize", map[string]any{"reviews": len(reviews), "unique": stats.unique, "positive": stats.positive}, t0)
	if canceled() {
		return finish()
	}

	// recommend
	t0 = time.Now()
	rec, err := recommend.New(eff.Recommender, eff.Threshold, eff.MinRating)
	if err != nil {
		rr.Fail(errorCode(err), err.Error())
		return finish()
	}
	rr.Recommendations = rec.Recommend(recommend.FromRows(review.Match(eff.Title, rows)))
	phase("recommend", map[string]any{"recommender": eff.Recommender, "recommended": len(rr.Recommendations)}, t0)
	if canceled() {
		return finish()
	}

	// export：dry-run 不落盘；没有评论时不导出（导出空表是 value error）。
	t0 = time.Now()
	switch {
	case !eff.Apply:
		phase("export", map[string]any{"skipped": "dry-run"}, t0)
	case tbl.Len() == 0:
		phase("export", map[string]any{"skipped": "no reviews"}, t0)
	default:
		if err := tbl.Export(eff.Out); err != nil {
			rr.Fail(errorCode(err), fmt.Sprintf("导出失败：%v", err))
			return finish()
		}
		rr.Output = eff.Out
		rr.Summary.Exported = tbl.Len()
		phase("export", map[string]any{"exported": tbl.Len(), "out": eff.Out}, t0)
	}

	return finish()
}

// LoadRows 加载并过滤电影行。启用缓存时先查 <cache_dir>/rows；apply 模式下把新结果写回缓存。
// 缓存读写失败不影响结果（退化为直接读 CSV）。
func LoadRows(eff config.EffectiveConfig, store cache.Store) (rows []domain.MovieRow, hit bool, err error) {
	f := eff.Filter()

	var key string
	if eff.Cache {
		if k, e := cache.RowsKey(eff.Input, f); e == nil {
			key = k
			if cached, ok, e := store.ReadRows(key); e == nil && ok {
				return cached, true, nil
			}
		}
	}

	src, err := corpus.NewCSV(eff.Input, f, review.Extractor{})
	if err != nil {
		return nil, false, err
	}
	rows, err = src.Load()
	if err != nil {
		return nil, false, err
	}

	if key != "" && !store.ReadOnly {
		_ = store.WriteRows(key, rows)
	}
	return rows, false, nil
}

type reviewSummary struct {
	unique   int
	positive int
	average  float64
	display  []domain.CanonicalReview
}

// reviewStats 计算报告所需的评论统计，并把报告中的正文截断到 summary_length。
// 导出文件保留完整正文。
func reviewStats(reviews []domain.CanonicalReview, eff config.EffectiveConfig) (reviewSummary, error) {
	texts := make([]any, 0, len(reviews))
	ratings := make([]any, 0, len(reviews))
	for _, r := range reviews {
		texts = append(texts, r.Content)
		if r.Rating != nil {
			ratings = append(ratings, *r.Rating)
		}
	}

	ds, err := clean.NewDataset(clean.Data{Reviews: texts, Ratings: ratings}, clean.Detector{Keywords: eff.PositiveKeywords})
	if err != nil {
		return reviewSummary{}, err
	}
	unique := ds.CleanReviews()

	out := reviewSummary{
		unique:  len(unique),
		average: ds.AverageRating(),
		display: make([]domain.CanonicalReview, 0, len(reviews)),
	}
	for _, r := range reviews {
		if ds.IsPositive(r.Content) {
			out.positive++
		}
		s, err := clean.Summarize(r.Content, eff.SummaryLength)
		if err != nil {
			return reviewSummary{}, err
		}
		r.Content = s
		out.display = append(out.display, r)
	}
	return out, nil
}

// errorCode 把组件错误映射为报告的 error_code。
func errorCode(err error) string {
	if k := domain.KindOf(err); k != "" {
		return string(k)
	}
	if c := config.Code(err); c != "" {
		return c
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrCodeCanceled
	}
	return string(domain.KindIOFailed)
}
