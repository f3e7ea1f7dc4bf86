package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/John-Robertt/mrev/internal/clean"
	"github.com/John-Robertt/mrev/internal/domain"
	"github.com/John-Robertt/mrev/internal/infra/cache"
	"github.com/John-Robertt/mrev/internal/recommend"
	"github.com/John-Robertt/mrev/internal/tmdb"
)

// FileName 是配置文件名（固定在工作目录下）。
const FileName = "mrev.json"

const (
	// ErrCodeNotFound 表示未指定 --input 且 cwd 下没有 mrev.json。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
	// ErrCodeMissingInput 表示未指定 --input 且配置文件缺少 input 字段。
	ErrCodeMissingInput = "config_missing_input"
)

const (
	// DefaultRecommender 是推荐器的最终默认值。
	DefaultRecommender = "basic"
	// DefaultOut 是导出文件名（相对 cwd）。
	DefaultOut = "reviews.csv"
)

// CLIArgs 保留“是否显式指定”的信息，保证 --apply=false 能覆盖 config.apply=true。
type CLIArgs struct {
	Input string

	Title    string
	TitleSet bool

	Out string

	Recommender    string
	RecommenderSet bool

	Apply    bool
	ApplySet bool
}

// FileConfig 对应 mrev.json 的解析结构。
// 指针字段用于区分“未配置”与“配置为零值”。
type FileConfig struct {
	Input            string   `json:"input"`
	Title            *string  `json:"title"`
	Out              string   `json:"out"`
	Apply            *bool    `json:"apply"`
	YearMin          *int     `json:"year_min"`
	YearMax          *int     `json:"year_max"`
	MinVotes         *int     `json:"min_votes"`
	Author           string   `json:"author"`
	Recommender      string   `json:"recommender"`
	Threshold        *float64 `json:"threshold"`
	MinRating        *float64 `json:"min_rating"`
	StripMarkup      bool     `json:"strip_markup"`
	Cache            *bool    `json:"cache"`
	CacheDir         string   `json:"cache_dir"`
	PositiveKeywords []string `json:"positive_keywords"`
	SummaryLength    *int     `json:"summary_length"`
}

// EffectiveConfig 是合并并规范化后的最终配置（实现层直接消费）。
type EffectiveConfig struct {
	Input string // 绝对路径
	Title string
	Out   string // 绝对路径
	Apply bool

	YearMin  int
	YearMax  int
	MinVotes int

	Author      string
	StripMarkup bool

	Recommender string
	Threshold   float64
	MinRating   float64

	Cache    bool
	CacheDir string // 绝对路径

	PositiveKeywords []string
	SummaryLength    int
}

// Filter 返回加载阶段使用的过滤条件。
func (c EffectiveConfig) Filter() tmdb.Filter {
	return tmdb.Filter{YearMin: c.YearMin, YearMax: c.YearMax, MinVotes: c.MinVotes}
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeMissingInput:
		return fmt.Sprintf("%s：配置文件 %q 缺少必填字段 input", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 读取 <cwd>/mrev.json 并与 CLI 参数合并为最终配置。
//
// 发现规则：
// 1) CLI 提供 input：mrev.json 可选
// 2) CLI 未提供 input：mrev.json 必须存在，且其中必须包含 input
//
// 覆盖优先级：CLI > config > 内置默认。相对路径都以 cwd 为基准。
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	cfgPath := filepath.Join(cwdAbs, FileName)
	fc, exists, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	input := cli.Input
	if strings.TrimSpace(input) == "" {
		if !exists {
			return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
		}
		if strings.TrimSpace(fc.Input) == "" {
			return EffectiveConfig{}, &Error{Code: ErrCodeMissingInput, Path: cfgPath}
		}
		input = fc.Input
	}

	return merge(cwdAbs, absCleanFrom(cwdAbs, input), cli, fc, cfgPath)
}

func merge(cwd, input string, cli CLIArgs, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	invalid := func(format string, args ...any) (EffectiveConfig, error) {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf(format, args...)}
	}

	title := ""
	if cli.TitleSet {
		title = cli.Title
	} else if fc.Title != nil {
		title = *fc.Title
	}

	out := DefaultOut
	if strings.TrimSpace(cli.Out) != "" {
		out = cli.Out
	} else if strings.TrimSpace(fc.Out) != "" {
		out = fc.Out
	}

	// apply：CLI > config > 默认 false
	apply := false
	if cli.ApplySet {
		apply = cli.Apply
	} else if fc.Apply != nil {
		apply = *fc.Apply
	}

	f := tmdb.DefaultFilter()
	if fc.YearMin != nil {
		f.YearMin = *fc.YearMin
	}
	if fc.YearMax != nil {
		f.YearMax = *fc.YearMax
	}
	if fc.MinVotes != nil {
		f.MinVotes = *fc.MinVotes
	}
	if err := f.Validate(); err != nil {
		return invalid("year_min（%d）不能大于 year_max（%d）", f.YearMin, f.YearMax)
	}
	if f.MinVotes < 0 {
		return invalid("min_votes 不能为负数：%d", f.MinVotes)
	}

	rec := DefaultRecommender
	if cli.RecommenderSet {
		rec = cli.Recommender
	} else if strings.TrimSpace(fc.Recommender) != "" {
		rec = fc.Recommender
	}
	rec = strings.ToLower(strings.TrimSpace(rec))
	if err := validateRecommender(rec); err != nil {
		return invalid("%v", err)
	}

	threshold := recommend.DefaultThreshold
	if fc.Threshold != nil {
		threshold = *fc.Threshold
	}
	minRating := recommend.DefaultMinRating
	if fc.MinRating != nil {
		minRating = *fc.MinRating
	}
	// recommend 中阈值为 0 表示默认值，显式的 0 无法表达。
	if threshold <= 0 {
		return invalid("threshold 必须大于 0：%g", threshold)
	}
	if minRating <= 0 {
		return invalid("min_rating 必须大于 0：%g", minRating)
	}

	summaryLen := clean.DefaultSummaryLength
	if fc.SummaryLength != nil {
		summaryLen = *fc.SummaryLength
	}
	if summaryLen <= 0 {
		return invalid("summary_length 必须大于 0：%d", summaryLen)
	}

	author := strings.TrimSpace(fc.Author)
	if author == "" {
		author = domain.DefaultAuthor
	}

	useCache := true
	if fc.Cache != nil {
		useCache = *fc.Cache
	}
	cacheDir := cache.DefaultDir
	if strings.TrimSpace(fc.CacheDir) != "" {
		cacheDir = fc.CacheDir
	}

	keywords := clean.DefaultKeywords
	if len(fc.PositiveKeywords) > 0 {
		keywords = fc.PositiveKeywords
	}

	return EffectiveConfig{
		Input:            input,
		Title:            strings.TrimSpace(title),
		Out:              absCleanFrom(cwd, out),
		Apply:            apply,
		YearMin:          f.YearMin,
		YearMax:          f.YearMax,
		MinVotes:         f.MinVotes,
		Author:           author,
		StripMarkup:      fc.StripMarkup,
		Recommender:      rec,
		Threshold:        threshold,
		MinRating:        minRating,
		Cache:            useCache,
		CacheDir:         absCleanFrom(cwd, cacheDir),
		PositiveKeywords: append([]string(nil), keywords...),
		SummaryLength:    summaryLen,
	}, nil
}

func validateRecommender(r string) error {
	switch r {
	case "basic", "critic":
		return nil
	case "":
		return fmt.Errorf("recommender 不能为空")
	default:
		return fmt.Errorf("recommender 只能是 basic 或 critic，实际是 %q", r)
	}
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
func absCleanFrom(base, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = filepath.Clean(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 JSON 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := json.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
