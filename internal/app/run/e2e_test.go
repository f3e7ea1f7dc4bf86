package run

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/John-Robertt/mrev/internal/clean"
	"github.com/John-Robertt/mrev/internal/config"
	"github.com/John-Robertt/mrev/internal/domain"
	"github.com/John-Robertt/mrev/internal/review"
	"github.com/John-Robertt/mrev/internal/tmdb"
)

const moviesCSV = `title,vote_average,vote_count,genres,release_date,overview
Old Heat,6.0,0,Crime,2009-05-01,Too old.
Heat,8.3,5,"Crime, Drama",2015-12-15,A great <b>heist</b> film.
Heat Wave,5.1,3,Thriller,2016-06-01,A slow burn.
Future Heat,8.0,10,Sci-Fi,2030-01-01,Too new.
Arrival,7.9,12,Sci-Fi,2016-11-11,Linguist meets aliens.
`

func testConfig(t *testing.T, apply bool) config.EffectiveConfig {
	t.Helper()
	root := t.TempDir()
	in := filepath.Join(root, "movies.csv")
	if err := os.WriteFile(in, []byte(moviesCSV), 0o644); err != nil {
		t.Fatalf("写入输入失败：%v", err)
	}
	f := tmdb.DefaultFilter()
	return config.EffectiveConfig{
		Input:            in,
		Title:            "heat",
		Out:              filepath.Join(root, "out", "reviews.csv"),
		Apply:            apply,
		YearMin:          f.YearMin,
		YearMax:          f.YearMax,
		MinVotes:         f.MinVotes,
		Author:           domain.DefaultAuthor,
		StripMarkup:      true,
		Recommender:      "critic",
		Threshold:        4,
		MinRating:        7,
		Cache:            true,
		CacheDir:         filepath.Join(root, ".mrev-cache"),
		PositiveKeywords: clean.DefaultKeywords,
		SummaryLength:    100,
	}
}

func TestExecute_DryRun_NoWrites(t *testing.T) {
	eff := testConfig(t, false)

	rr := Execute(context.Background(), eff)

	if rr.Status != domain.StatusOK || rr.ErrorCode != "" {
		t.Fatalf("不期望失败：%+v", rr)
	}
	if !rr.DryRun || rr.RunID == "" {
		t.Fatalf("dry_run/run_id 不符合预期：%+v", rr)
	}
	if rr.Summary.Rows != 3 || rr.Summary.Matched != 2 || rr.Summary.Exported != 0 {
		t.Fatalf("summary 不符合预期：%+v", rr.Summary)
	}
	if _, err := os.Stat(eff.Out); !os.IsNotExist(err) {
		t.Fatalf("dry-run 不应写导出文件，但 Stat err=%v", err)
	}
	if _, err := os.Stat(eff.CacheDir); !os.IsNotExist(err) {
		t.Fatalf("dry-run 不应创建缓存目录，但 Stat err=%v", err)
	}

	if len(rr.Reviews) != 2 || rr.Reviews[0].Content != "A great heist film." {
		t.Fatalf("reviews 不符合预期：%+v", rr.Reviews)
	}
	if rr.Summary.Positive != 1 || rr.Summary.Unique != 2 {
		t.Fatalf("评论统计不符合预期：%+v", rr.Summary)
	}
	a, b := 8.3, 5.1
	if rr.Summary.AverageRating != (a+b)/2 {
		t.Fatalf("average_rating 不符合预期：%v", rr.Summary.AverageRating)
	}
	if len(rr.Recommendations) != 1 || rr.Recommendations[0].Title != "Heat" || rr.Summary.Recommended != 1 {
		t.Fatalf("recommendations 不符合预期：%+v", rr.Recommendations)
	}
}

func TestExecute_Apply_ExportsAndCaches(t *testing.T) {
	eff := testConfig(t, true)

	rr := Execute(context.Background(), eff)
	if rr.Status != domain.StatusOK {
		t.Fatalf("不期望失败：%+v", rr)
	}
	if rr.Output != eff.Out || rr.Summary.Exported != 2 || rr.Summary.CacheHit {
		t.Fatalf("导出结果不符合预期：%+v", rr)
	}

	got, err := review.ReadExported(eff.Out)
	if err != nil {
		t.Fatalf("读取导出文件失败：%v", err)
	}
	if len(got) != 2 || got[0].Author != domain.DefaultAuthor || *got[0].Rating != 8.3 || got[1].Content != "A slow burn." {
		t.Fatalf("导出内容不符合预期：%+v", got)
	}

	// 缓存键依赖源文件的 stat；源文件删除后不能再命中缓存。
	if err := os.Remove(eff.Input); err != nil {
		t.Fatalf("删除输入失败：%v", err)
	}
	rr2 := Execute(context.Background(), eff)
	if rr2.ErrorCode != string(domain.KindNotFound) {
		t.Fatalf("源文件删除后期望 not_found，实际：%+v", rr2)
	}
}

func TestExecute_SecondRunHitsCache(t *testing.T) {
	eff := testConfig(t, true)
	if rr := Execute(context.Background(), eff); rr.Summary.CacheHit {
		t.Fatalf("首次运行不应命中缓存")
	}
	rr := Execute(context.Background(), eff)
	if !rr.Summary.CacheHit || rr.Summary.Rows != 3 {
		t.Fatalf("第二次运行应命中缓存：%+v", rr.Summary)
	}

	// 过滤条件变化后缓存失效
	eff.MinVotes = 6
	rr = Execute(context.Background(), eff)
	if rr.Summary.CacheHit || rr.Summary.Rows != 1 {
		t.Fatalf("过滤条件变化后不应命中缓存：%+v", rr.Summary)
	}
}

func TestExecute_NoMatch_Empty(t *testing.T) {
	eff := testConfig(t, true)
	eff.Title = "Casablanca"

	rr := Execute(context.Background(), eff)
	if rr.Status != domain.StatusEmpty || rr.ErrorCode != "" {
		t.Fatalf("没有匹配时期望 status=empty，实际：%+v", rr)
	}
	if rr.Output != "" {
		t.Fatalf("没有评论时不应导出：%+v", rr)
	}
	if _, err := os.Stat(eff.Out); !os.IsNotExist(err) {
		t.Fatalf("不应写导出文件，但 Stat err=%v", err)
	}
	if rr.Reviews == nil || rr.Recommendations == nil {
		t.Fatalf("空结果应为 [] 而不是 null")
	}
}

func TestExecute_MissingInput(t *testing.T) {
	eff := testConfig(t, false)
	eff.Input = filepath.Join(t.TempDir(), "missing.csv")

	rr := Execute(context.Background(), eff)
	if rr.Status != domain.StatusFailed || rr.ErrorCode != string(domain.KindNotFound) {
		t.Fatalf("期望 not_found，实际：%+v", rr)
	}
}

func TestExecute_ExportTargetIsDir(t *testing.T) {
	eff := testConfig(t, true)
	if err := os.MkdirAll(eff.Out, 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}

	rr := Execute(context.Background(), eff)
	if rr.ErrorCode != string(domain.KindIOFailed) {
		t.Fatalf("导出到目录期望 io_failed，实际：%+v", rr)
	}
}

func TestExecute_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rr := Execute(ctx, testConfig(t, true))
	if rr.ErrorCode != ErrCodeCanceled || rr.Output != "" {
		t.Fatalf("取消后期望 canceled 且不导出，实际：%+v", rr)
	}
}

func TestExecute_NonFiniteRatingsStayEncodable(t *testing.T) {
	eff := testConfig(t, false)
	csv := "title,vote_average,vote_count,genres,release_date,overview\n" +
		"Heat,NaN,5,Crime,2015-12-15,A heist.\n" +
		"Heat Wave,inf,5,Thriller,2016-06-01,A slow burn.\n" +
		"Heat Check,7.5,5,Drama,2017-01-01,Great.\n"
	if err := os.WriteFile(eff.Input, []byte(csv), 0o644); err != nil {
		t.Fatalf("写入输入失败：%v", err)
	}

	rr := Execute(context.Background(), eff)
	if rr.Status != domain.StatusOK {
		t.Fatalf("不期望失败：%+v", rr)
	}
	if len(rr.Recommendations) != 1 || rr.Recommendations[0].Title != "Heat Check" {
		t.Fatalf("NaN/Inf 评分不应被推荐：%+v", rr.Recommendations)
	}
	if rr.Summary.AverageRating != 7.5 {
		t.Fatalf("average_rating 应只统计有限评分：%v", rr.Summary.AverageRating)
	}
	if rr.Reviews[0].Rating != nil || rr.Reviews[1].Rating != nil {
		t.Fatalf("非有限评分应视为缺失：%+v", rr.Reviews)
	}
	if _, err := json.Marshal(rr); err != nil {
		t.Fatalf("报告应可编码为 JSON：%v", err)
	}

	sr := Stats(context.Background(), eff, nil, nil)
	if sr.ErrorCode != "" || len(sr.Top) != 1 {
		t.Fatalf("stats 应跳过非有限评分：%+v", sr)
	}
	if _, err := json.Marshal(sr); err != nil {
		t.Fatalf("stats 报告应可编码为 JSON：%v", err)
	}
}

func TestStats(t *testing.T) {
	eff := testConfig(t, false)
	sr := Stats(context.Background(), eff, []string{"sci-fi"}, nil)
	if sr.ErrorCode != "" {
		t.Fatalf("不期望失败：%+v", sr)
	}
	if sr.Rows != 3 || len(sr.Top) != 3 || sr.Top[0].Title != "Heat" {
		t.Fatalf("统计结果不符合预期：%+v", sr)
	}
	if len(sr.PerYear) != 1 || sr.PerYear[0].Year != 2016 || sr.PerYear[0].Total != 1 {
		t.Fatalf("按类型统计不符合预期：%+v", sr.PerYear)
	}

	eff.YearMin, eff.YearMax = 1900, 1901
	if sr := Stats(context.Background(), eff, nil, nil); sr.ErrorCode != string(domain.KindInvalidValue) {
		t.Fatalf("空表期望 invalid_value，实际：%+v", sr)
	}
}

func TestRecommendFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "ratings.csv")
	if err := os.WriteFile(p, []byte("Avengers,5\nSpace Jam,4\nScream,2\nGrownups,5\n"), 0o644); err != nil {
		t.Fatalf("写入失败：%v", err)
	}
	eff := config.EffectiveConfig{Input: p, Recommender: "basic", Threshold: 4, MinRating: 7}

	fr := RecommendFile(eff)
	if fr.ErrorCode != "" || fr.Loaded != 4 || fr.Cleaned != 4 || len(fr.Recommendations) != 3 {
		t.Fatalf("推荐结果不符合预期：%+v", fr)
	}

	eff.Input = filepath.Join(t.TempDir(), "none.csv")
	fr = RecommendFile(eff)
	if fr.ErrorCode != string(domain.KindNotFound) {
		t.Fatalf("缺失文件期望 not_found，实际：%+v", fr)
	}
}
