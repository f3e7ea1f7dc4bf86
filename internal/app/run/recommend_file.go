package run

import (
	"github.com/John-Robertt/mrev/internal/config"
	"github.com/John-Robertt/mrev/internal/domain"
	"github.com/John-Robertt/mrev/internal/recommend"
)

// FileReport 是 `mrev recommend <file>` 的输出。
type FileReport struct {
	Path            string         `json:"path"`
	Loaded          int            `json:"loaded"`
	Cleaned         int            `json:"cleaned"`
	Recommendations []domain.Rated `json:"recommendations"`
	ErrorCode       string         `json:"error_code"`
	ErrorMsg        string         `json:"error_msg"`
}

// RecommendFile 对 eff.Input 指向的 title,rating 评论文件执行 加载 → 去重/去剧透 → 推荐。
func RecommendFile(eff config.EffectiveConfig) FileReport {
	path := eff.Input
	fr := FileReport{Path: path, Recommendations: []domain.Rated{}}
	fail := func(err error) FileReport {
		fr.ErrorCode = errorCode(err)
		fr.ErrorMsg = err.Error()
		return fr
	}

	rec, err := recommend.New(eff.Recommender, eff.Threshold, eff.MinRating)
	if err != nil {
		return fail(err)
	}
	sys, err := recommend.NewSystem(path, rec)
	if err != nil {
		return fail(err)
	}
	loaded, err := sys.Load()
	if err != nil {
		return fail(err)
	}
	fr.Loaded = len(loaded)
	cleaned, err := sys.Clean()
	if err != nil {
		return fail(err)
	}
	fr.Cleaned = len(cleaned)
	out, err := sys.Recommend()
	if err != nil {
		return fail(err)
	}
	fr.Recommendations = out
	return fr
}
