package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/John-Robertt/mrev/internal/app/run"
	"github.com/John-Robertt/mrev/internal/config"
	"github.com/John-Robertt/mrev/internal/domain"
	"github.com/John-Robertt/mrev/internal/infra/cache"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 || isHelp(args[0]) {
		printUsage()
		return
	}

	var code int
	switch args[0] {
	case "run":
		code = runCmd(args[1:])
	case "stats":
		code = statsCmd(args[1:])
	case "recommend":
		code = recommendCmd(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "未知命令：%q\n\n", args[0])
		printUsage()
		code = 2
	}
	if code != 0 {
		os.Exit(code)
	}
}

func runCmd(args []string) int {
	for _, a := range args {
		if isHelp(a) {
			printRunUsage()
			return 0
		}
	}

	ra, err := parseRunArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "参数错误：%v\n\n", err)
		printRunUsage()
		return 2
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取当前目录失败：%v\n", err)
		return 1
	}

	eff, err := config.LoadEffective(cwd, ra.cli())
	if err != nil {
		_ = emitReport(reportForConfigError(ra, err))
		return 1
	}

	progressW, interactive := pickProgressWriter()
	var obs run.Observer
	if interactive {
		obs = newProgressUI(progressW, "run")
	}

	rr := run.ExecuteWithObserver(context.Background(), eff, obs)

	// apply：写入 <cache_dir>/reports/<run_id>.json；dry-run 禁止落盘。
	var reportPath string
	if eff.Apply {
		p, err := writeReportFile(eff.CacheDir, rr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "写入运行报告失败：%v\n", err)
			_ = emitReport(rr)
			return 1
		}
		reportPath = p
	}

	if err := emitReport(rr); err != nil {
		return 1
	}
	if interactive {
		emitLocations(progressW, rr, reportPath)
	}
	if rr.Status == domain.StatusFailed {
		return 1
	}
	return 0
}

type runArgs struct {
	Title    string
	TitleSet bool

	Input string
	Out   string

	Recommender    string
	RecommenderSet bool

	Apply    bool
	ApplySet bool
}

func (ra runArgs) cli() config.CLIArgs {
	return config.CLIArgs{
		Input:          ra.Input,
		Title:          ra.Title,
		TitleSet:       ra.TitleSet,
		Out:            ra.Out,
		Recommender:    ra.Recommender,
		RecommenderSet: ra.RecommenderSet,
		Apply:          ra.Apply,
		ApplySet:       ra.ApplySet,
	}
}

func parseRunArgs(args []string) (runArgs, error) {
	ra := runArgs{}

	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--input" || a == "--out" || a == "--recommender":
			if i+1 >= len(args) {
				return runArgs{}, fmt.Errorf("%s 需要一个值", a)
			}
			i++
			ra.set(a, args[i])
		case strings.HasPrefix(a, "--input="), strings.HasPrefix(a, "--out="), strings.HasPrefix(a, "--recommender="):
			k, v, _ := strings.Cut(a, "=")
			ra.set(k, v)
		case a == "--apply":
			ra.Apply = true
			ra.ApplySet = true
		case strings.HasPrefix(a, "--apply="):
			v := strings.TrimPrefix(a, "--apply=")
			switch v {
			case "true":
				ra.Apply = true
			case "false":
				ra.Apply = false
			default:
				return runArgs{}, fmt.Errorf("--apply 只能是 true 或 false，实际是 %q", v)
			}
			ra.ApplySet = true
		case strings.HasPrefix(a, "-"):
			return runArgs{}, fmt.Errorf("未知参数 %q", a)
		default:
			if ra.TitleSet {
				return runArgs{}, fmt.Errorf("重复的 title：%q 与 %q（含空格的片名请加引号）", ra.Title, a)
			}
			ra.Title = a
			ra.TitleSet = true
		}
	}

	if ra.RecommenderSet {
		switch ra.Recommender {
		case "basic", "critic":
			// ok
		case "":
			return runArgs{}, fmt.Errorf("--recommender 不能为空")
		default:
			return runArgs{}, fmt.Errorf("--recommender 只能是 basic 或 critic，实际是 %q", ra.Recommender)
		}
	}
	if ra.Out != "" && strings.TrimSpace(ra.Out) == "" {
		return runArgs{}, fmt.Errorf("--out 不能为空")
	}

	return ra, nil
}

func (ra *runArgs) set(flag, v string) {
	switch flag {
	case "--input":
		ra.Input = v
	case "--out":
		ra.Out = v
	case "--recommender":
		ra.Recommender = v
		ra.RecommenderSet = true
	}
}

func statsCmd(args []string) int {
	var input string
	var genres []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case isHelp(a):
			printStatsUsage()
			return 0
		case a == "--input" || a == "--genre":
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "参数错误：%s 需要一个值\n\n", a)
				printStatsUsage()
				return 2
			}
			i++
			if a == "--input" {
				input = args[i]
			} else {
				genres = append(genres, args[i])
			}
		case strings.HasPrefix(a, "--input="):
			input = strings.TrimPrefix(a, "--input=")
		case strings.HasPrefix(a, "--genre="):
			genres = append(genres, strings.TrimPrefix(a, "--genre="))
		default:
			fmt.Fprintf(os.Stderr, "参数错误：未知参数 %q\n\n", a)
			printStatsUsage()
			return 2
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取当前目录失败：%v\n", err)
		return 1
	}
	eff, err := config.LoadEffective(cwd, config.CLIArgs{Input: input})
	if err != nil {
		_ = emitJSON(run.StatsReport{Input: input, ErrorCode: config.Code(err), ErrorMsg: err.Error()})
		return 1
	}

	progressW, interactive := pickProgressWriter()
	var obs run.Observer
	if interactive {
		obs = newProgressUI(progressW, "stats")
	}

	sr := run.Stats(context.Background(), eff, genres, obs)
	if err := emitJSON(sr); err != nil {
		return 1
	}
	if sr.ErrorCode != "" {
		fmt.Fprintf(os.Stderr, "%s: %s\n", sr.ErrorCode, sr.ErrorMsg)
		return 1
	}
	return 0
}

func recommendCmd(args []string) int {
	var path, rec string
	var recSet bool
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case isHelp(a):
			printRecommendUsage()
			return 0
		case a == "--recommender":
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "参数错误：--recommender 需要一个值\n\n")
				printRecommendUsage()
				return 2
			}
			i++
			rec, recSet = args[i], true
		case strings.HasPrefix(a, "--recommender="):
			rec, recSet = strings.TrimPrefix(a, "--recommender="), true
		case strings.HasPrefix(a, "-"):
			fmt.Fprintf(os.Stderr, "参数错误：未知参数 %q\n\n", a)
			printRecommendUsage()
			return 2
		default:
			if path != "" {
				fmt.Fprintf(os.Stderr, "参数错误：重复的文件：%q 与 %q\n\n", path, a)
				printRecommendUsage()
				return 2
			}
			path = a
		}
	}
	if path == "" {
		fmt.Fprintf(os.Stderr, "参数错误：缺少评论文件\n\n")
		printRecommendUsage()
		return 2
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取当前目录失败：%v\n", err)
		return 1
	}
	eff, err := config.LoadEffective(cwd, config.CLIArgs{Input: path, Recommender: rec, RecommenderSet: recSet})
	if err != nil {
		_ = emitJSON(run.FileReport{Path: path, Recommendations: []domain.Rated{}, ErrorCode: config.Code(err), ErrorMsg: err.Error()})
		return 1
	}

	fr := run.RecommendFile(eff)
	if err := emitJSON(fr); err != nil {
		return 1
	}
	if fr.ErrorCode != "" {
		fmt.Fprintf(os.Stderr, "%s: %s\n", fr.ErrorCode, fr.ErrorMsg)
		return 1
	}
	return 0
}

func isHelp(s string) bool {
	return s == "-h" || s == "--help" || s == "help"
}

func printUsage() {
	fmt.Fprint(os.Stdout, `用法：
  mrev run [title] [--input p] [--out p] [--recommender basic|critic] [--apply[=true|false]]
  mrev stats [--input p] [--genre g]...
  mrev recommend <file> [--recommender basic|critic]

命令：
  run        加载 → 提取 → 规范化 → 推荐 → 导出（默认 dry-run）
  stats      输出图表所需的聚合数据（JSON）
  recommend  对 title,rating 评论文件去重、去剧透并推荐

使用 "mrev <命令> --help" 查看详细说明。
`)
}

func printRunUsage() {
	fmt.Fprint(os.Stdout, `用法：
  mrev run [title] [--input p] [--out p] [--recommender basic|critic] [--apply[=true|false]]

参数：
  title          片名查询（大小写不敏感，子串匹配；省略则匹配全部）
  --input        TMDB 电影 CSV（未指定则读 mrev.json 的 input）
  --out          导出 CSV 路径（默认 reviews.csv）
  --recommender  basic（评分 >= threshold）或 critic（评分 >= min_rating，降序）
  --apply        导出并写缓存/报告（默认 dry-run）；支持 --apply=false 覆盖配置中的 apply=true
  -h, --help     显示帮助
`)
}

func printStatsUsage() {
	fmt.Fprint(os.Stdout, `用法：
  mrev stats [--input p] [--genre g]...

参数：
  --input     TMDB 电影 CSV（未指定则读 mrev.json 的 input）
  --genre     按年统计时只看这些类型（可重复）
  -h, --help  显示帮助
`)
}

func printRecommendUsage() {
	fmt.Fprint(os.Stdout, `用法：
  mrev recommend <file> [--recommender basic|critic]

文件每行：title,rating[,text...]（可选表头 title,rating）
`)
}

func emitReport(rr domain.RunReport) error {
	if isTTY(os.Stdout) {
		fmt.Fprintln(os.Stdout, summaryLine(rr))
		if rr.Status == domain.StatusFailed {
			fmt.Fprintf(os.Stderr, "%s: %s\n", rr.ErrorCode, rr.ErrorMsg)
			return nil
		}
		for _, r := range rr.Recommendations {
			fmt.Fprintf(os.Stdout, "  %-40s %.1f\n", truncate(r.Title, 40), r.Rating)
		}
		return nil
	}

	// stdout 非 TTY：stdout 必须且仅输出一个 RunReport JSON（摘要走 stderr）。
	if err := emitJSON(rr); err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, summaryLine(rr))
	return nil
}

func summaryLine(rr domain.RunReport) string {
	s := rr.Summary
	return fmt.Sprintf("完成：status=%s rows=%d matched=%d exported=%d recommended=%d avg=%.2f",
		rr.Status, s.Rows, s.Matched, s.Exported, s.Recommended, s.AverageRating,
	)
}

// emitJSON 向 stdout 写一个 JSON 文档；编码失败时 stdout 不写任何内容，错误打到 stderr。
func emitJSON(v any) error {
	return writeJSON(os.Stdout, os.Stderr, v)
}

func writeJSON(stdout, stderr io.Writer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		fmt.Fprintf(stderr, "输出 JSON 失败：%v\n", err)
		return err
	}
	b = append(b, '\n')
	if _, err := stdout.Write(b); err != nil {
		fmt.Fprintf(stderr, "输出 JSON 失败：%v\n", err)
		return err
	}
	return nil
}

func reportForConfigError(ra runArgs, err error) domain.RunReport {
	now := time.Now().UTC()
	rr := domain.RunReport{
		Title:      ra.Title,
		Input:      ra.Input,
		DryRun:     !(ra.ApplySet && ra.Apply),
		StartedAt:  now,
		FinishedAt: now,
	}
	code := config.Code(err)
	if code == "" {
		code = config.ErrCodeInvalid
	}
	rr.Fail(code, err.Error())
	rr.Finalize()
	return rr
}

func writeReportFile(cacheDir string, rr domain.RunReport) (string, error) {
	b, err := json.MarshalIndent(rr, "", "  ")
	if err != nil {
		return "", err
	}
	b = append(b, '\n')
	return cache.New(cacheDir, false).WriteReport(rr.RunID, b)
}

func isTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func pickProgressWriter() (io.Writer, bool) {
	// 进度输出只在交互终端启用；默认走 stderr（不污染 stdout JSON）。
	if isTTY(os.Stderr) {
		return os.Stderr, true
	}
	if isTTY(os.Stdout) {
		return os.Stdout, true
	}
	return nil, false
}

func emitLocations(w io.Writer, rr domain.RunReport, reportPath string) {
	if w == nil {
		return
	}
	if reportPath != "" {
		fmt.Fprintf(w, "report: %s\n", reportPath)
	}
	if rr.Output != "" {
		fmt.Fprintf(w, "out: %s\n", filepath.Clean(rr.Output))
	}
}
