package run

import (
	"context"
	"fmt"
	"time"

	"github.com/John-Robertt/mrev/internal/config"
	"github.com/John-Robertt/mrev/internal/dataset"
	"github.com/John-Robertt/mrev/internal/infra/cache"
)

// DefaultTopN 与 DefaultBins 是 stats 的默认聚合参数。
const (
	DefaultTopN = 10
	DefaultBins = 10
)

// StatsReport 是 `mrev stats` 的输出：图表背后的聚合数据（不渲染）。
type StatsReport struct {
	Input     string              `json:"input"`
	Rows      int                 `json:"rows"`
	CacheHit  bool                `json:"cache_hit"`
	Top       []dataset.Ranked    `json:"top"`
	Genres    []dataset.Count     `json:"genres"`
	Ratings   []dataset.Bin       `json:"ratings"`
	PerYear   []dataset.YearCount `json:"per_year"`
	ErrorCode string              `json:"error_code"`
	ErrorMsg  string              `json:"error_msg"`
}

// Stats 加载数据并计算聚合。genres 非空时 PerYear 只统计这些类型。
// stats 只读：不写缓存。
func Stats(ctx context.Context, eff config.EffectiveConfig, genres []string, obs Observer) StatsReport {
	sr := StatsReport{Input: eff.Input}
	fail := func(err error, format string) StatsReport {
		sr.ErrorCode = errorCode(err)
		sr.ErrorMsg = fmt.Sprintf(format, err)
		return sr
	}

	if obs != nil {
		obs.OnStart(eff)
	}

	t0 := time.Now()
	rows, hit, err := LoadRows(eff, cache.New(eff.CacheDir, true))
	if err != nil {
		return fail(err, "加载失败：%v")
	}
	sr.Rows = len(rows)
	sr.CacheHit = hit
	if obs != nil {
		obs.OnPhaseDone("load", map[string]any{"rows": len(rows), "cache_hit": hit}, time.Since(t0))
	}
	if err := ctx.Err(); err != nil {
		return fail(err, "已取消：%v")
	}

	t0 = time.Now()
	tbl, err := dataset.FromRows(rows)
	if err != nil {
		return fail(err, "统计失败：%v")
	}
	bins, err := tbl.RatingDistribution(DefaultBins)
	if err != nil {
		return fail(err, "统计失败：%v")
	}
	sr.Top = tbl.TopMovies(DefaultTopN)
	sr.Genres = tbl.GenrePopularity()
	sr.Ratings = bins
	sr.PerYear = tbl.ReleasesPerYear(genres...)
	if obs != nil {
		obs.OnPhaseDone("stats", map[string]any{"genres": len(sr.Genres), "years": len(sr.PerYear)}, time.Since(t0))
	}
	return sr
}
