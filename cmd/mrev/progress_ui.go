package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/John-Robertt/mrev/internal/app/run"
	"github.com/John-Robertt/mrev/internal/config"
)

var _ run.Observer = (*progressUI)(nil)

// progressUI 是交互终端的阶段输出。
// 所有过程信息写到 stderr（或 fallback 到 stdout），不污染 stdout 的 JSON 输出契约。
type progressUI struct {
	w   io.Writer
	cmd string // run / stats

	mu        sync.Mutex
	startedAt time.Time
}

func newProgressUI(w io.Writer, cmd string) *progressUI {
	return &progressUI{w: w, cmd: cmd}
}

func (p *progressUI) OnStart(eff config.EffectiveConfig) {
	now := time.Now()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.startedAt.IsZero() {
		p.startedAt = now
	}

	if p.cmd == "stats" {
		fmt.Fprintf(p.w, "[%s] mrev stats\n", now.Format("15:04:05"))
		fmt.Fprintln(p.w, "配置（生效）:")
		fmt.Fprintf(p.w, "  input: %s\n", eff.Input)
		fmt.Fprintf(p.w, "  filter: year=%d..%d votes>=%d\n", eff.YearMin, eff.YearMax, eff.MinVotes)
		if eff.Cache {
			fmt.Fprintf(p.w, "  cache: on (只读) %s\n", eff.CacheDir)
		} else {
			fmt.Fprintln(p.w, "  cache: off")
		}
		fmt.Fprintln(p.w)
		return
	}

	mode := "dry-run"
	modeHint := " (不导出/不写缓存)"
	if eff.Apply {
		mode = "apply"
		modeHint = ""
	}

	fmt.Fprintf(p.w, "[%s] mrev %s (%s)\n", now.Format("15:04:05"), p.cmd, mode)
	fmt.Fprintln(p.w, "配置（生效）:")
	fmt.Fprintf(p.w, "  input: %s\n", eff.Input)
	fmt.Fprintf(p.w, "  title: %s\n", formatTitle(eff.Title))
	fmt.Fprintf(p.w, "  mode: %s%s\n", mode, modeHint)
	fmt.Fprintf(p.w, "  filter: year=%d..%d votes>=%d\n", eff.YearMin, eff.YearMax, eff.MinVotes)
	fmt.Fprintf(p.w, "  recommender: %s\n", recommenderDesc(eff))
	fmt.Fprintf(p.w, "  strip_markup: %s\n", onOff(eff.StripMarkup))
	fmt.Fprintf(p.w, "  cache: %s\n", cacheDesc(eff))

	fmt.Fprintln(p.w, "输出:")
	fmt.Fprintf(p.w, "  out: %s\n", eff.Out)
	fmt.Fprintln(p.w)
}

func (p *progressUI) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch name {
	case "load":
		hit := ""
		if b, _ := fields["cache_hit"].(bool); b {
			hit = " cache=hit"
		}
		fmt.Fprintf(p.w, "加载: rows=%d%s (%s)\n", intField(fields, "rows"), hit, formatShortDuration(dur))
	case "extract":
		fmt.Fprintf(p.w, "提取: matched=%d (%s)\n", intField(fields, "matched"), formatShortDuration(dur))
	case "normalize":
		fmt.Fprintf(p.w, "规范化: reviews=%d unique=%d positive=%d (%s)\n",
			intField(fields, "reviews"), intField(fields, "unique"), intField(fields, "positive"), formatShortDuration(dur),
		)
	case "recommend":
		fmt.Fprintf(p.w, "推荐: %s recommended=%d (%s)\n",
			stringField(fields, "recommender"), intField(fields, "recommended"), formatShortDuration(dur),
		)
	case "export":
		if s := stringField(fields, "skipped"); s != "" {
			fmt.Fprintf(p.w, "导出: 跳过（%s）\n", s)
			break
		}
		fmt.Fprintf(p.w, "导出: %d 行 -> %s (%s)\n", intField(fields, "exported"), stringField(fields, "out"), formatShortDuration(dur))
	case "stats":
		fmt.Fprintf(p.w, "统计: genres=%d years=%d (%s)\n", intField(fields, "genres"), intField(fields, "years"), formatShortDuration(dur))
	default:
		// 未知阶段也不要静默。
		fmt.Fprintf(p.w, "%s (%s)\n", name, formatShortDuration(dur))
	}
	if name == "export" || name == "stats" {
		fmt.Fprintf(p.w, "耗时: %s\n\n", formatElapsed(time.Since(p.startedAt)))
	}
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func formatTitle(t string) string {
	if strings.TrimSpace(t) == "" {
		return "(全部)"
	}
	return fmt.Sprintf("%q", t)
}

func recommenderDesc(eff config.EffectiveConfig) string {
	if eff.Recommender == "critic" {
		return fmt.Sprintf("critic (rating >= %g, 降序)", eff.MinRating)
	}
	return fmt.Sprintf("basic (rating >= %g)", eff.Threshold)
}

func cacheDesc(eff config.EffectiveConfig) string {
	if !eff.Cache {
		return "off"
	}
	if !eff.Apply {
		return "on (只读) " + eff.CacheDir
	}
	return "on " + eff.CacheDir
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	sec := int(d.Seconds())
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func stringField(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return s
}

func intField(fields map[string]any, key string) int {
	if fields == nil {
		return 0
	}
	v, ok := fields[key]
	if !ok {
		return 0
	}
	switch x := v.(type) {
	case int:
		return x
	case int32:
		return int(x)
	case int64:
		return int(x)
	case uint:
		return int(x)
	case uint32:
		return int(x)
	case uint64:
		return int(x)
	default:
		return 0
	}
}
